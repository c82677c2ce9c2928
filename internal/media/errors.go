package media

import "fmt"

// ExtractionError reports a failed audio extraction, carrying the
// operation that broke and the underlying cause.
type ExtractionError struct {
	Op  string
	Err error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("audio extraction failed: %s: %v", e.Op, e.Err)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

func newExtractionError(op string, err error) *ExtractionError {
	return &ExtractionError{Op: op, Err: err}
}
