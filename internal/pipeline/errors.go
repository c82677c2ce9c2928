package pipeline

import "fmt"

// StageError is the single error surface of a run: the failing stage
// plus the component error underneath. Nothing escapes Run untyped.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s stage failed: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}
