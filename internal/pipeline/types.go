// Package pipeline sequences audio extraction, transcription and
// translation into one run with stage-level error containment.
package pipeline

import (
	"context"
	"time"

	"github.com/AlessioSantos/Subtutler-OpenAI-version/internal/caption"
	"github.com/AlessioSantos/Subtutler-OpenAI-version/internal/lang"
	"github.com/AlessioSantos/Subtutler-OpenAI-version/internal/media"
	"github.com/AlessioSantos/Subtutler-OpenAI-version/internal/transcribe"
)

// Stage names the pipeline step a failure belongs to.
type Stage string

const (
	StageValidate   Stage = "validate"
	StageExtract    Stage = "extract"
	StageTranscribe Stage = "transcribe"
	StageTranslate  Stage = "translate"
)

// State is a position in the run's lifecycle. A run moves Idle →
// Extracting → Transcribing → Translating → Done, or jumps to Failed
// from any non-terminal state.
type State string

const (
	StateIdle         State = "idle"
	StateExtracting   State = "extracting"
	StateTranscribing State = "transcribing"
	StateTranslating  State = "translating"
	StateDone         State = "done"
	StateFailed       State = "failed"
)

// Milestone is one observed state transition. Stage and Err are set
// only when State is StateFailed.
type Milestone struct {
	State State
	Stage Stage
	Err   error
}

// Observer receives every milestone of a run in order.
type Observer func(Milestone)

// Request carries the inputs of one pipeline run. The credential is
// request scoped and never outlives the run. When DetectSource is set,
// Pair.Source is ignored and inferred from the transcription instead.
type Request struct {
	Media        media.MediaAsset
	Credential   transcribe.Credential
	Pair         lang.Pair
	DetectSource bool
}

// Timeouts bound each stage; zero means no limit.
type Timeouts struct {
	Extract    time.Duration
	Transcribe time.Duration
	Translate  time.Duration
}

// Extractor turns video bytes into a scoped temporary audio file.
type Extractor interface {
	Extract(ctx context.Context, asset media.MediaAsset) (*media.AudioAsset, error)
}

// Transcriber turns an audio file into a caption document.
type Transcriber interface {
	Transcribe(ctx context.Context, audio *media.AudioAsset, cred transcribe.Credential) (caption.Document, error)
}

// Translator rewrites a caption document's text for a language pair.
type Translator interface {
	Translate(ctx context.Context, doc caption.Document, pair lang.Pair) (caption.Document, error)
}
