// Package jobs queues pipeline runs behind a fixed worker pool and
// keeps their state observable while requests run asynchronously.
package jobs

import (
	"errors"
	"time"

	"github.com/AlessioSantos/Subtutler-OpenAI-version/internal/transcribe"
)

type Status string

const (
	StatusPending Status = "pending"
	StatusRunning Status = "running"
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
)

// ErrNotFound marks a job ID the queue does not know.
var ErrNotFound = errors.New("job not found")

// Payload is everything a worker needs to run the pipeline for one
// job. Media bytes stay on disk: MediaPath points at either a spooled
// upload (OwnsMedia, removed once the job is terminal) or a file in
// the watch folder that the service must not touch.
type Payload struct {
	MediaName    string `json:"media_name"`
	MediaPath    string `json:"media_path"`
	Container    string `json:"container"`
	OwnsMedia    bool   `json:"owns_media"`
	SourceLang   string `json:"source_lang,omitempty"`
	TargetLang   string `json:"target_lang"`
	DetectSource bool   `json:"detect_source"`
}

// Job is one tracked pipeline request. The credential rides along in
// an unexported field: it never marshals, never reaches the store and
// is dropped as soon as the job is terminal.
type Job struct {
	ID         string    `json:"id"`
	Source     string    `json:"source"`
	DedupeKey  string    `json:"dedupe_key"`
	Payload    Payload   `json:"payload"`
	Status     Status    `json:"status"`
	Stage      string    `json:"stage,omitempty"`
	Progress   int       `json:"progress"`
	Error      string    `json:"error,omitempty"`
	ResultPath string    `json:"result_path,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`

	credential transcribe.Credential
}

// Credential returns the key captured at enqueue time. Empty once the
// job has finished.
func (j *Job) Credential() transcribe.Credential {
	return j.credential
}

type EnqueueRequest struct {
	Source     string
	DedupeKey  string
	Payload    Payload
	Credential transcribe.Credential
}
