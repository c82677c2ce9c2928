// Package transcribe converts extracted audio into captions through an
// OpenAI-compatible speech-to-text endpoint.
package transcribe

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"

	"github.com/AlessioSantos/Subtutler-OpenAI-version/internal/caption"
	"github.com/AlessioSantos/Subtutler-OpenAI-version/internal/media"
)

// Credential is an opaque speech-to-text API key. It is request
// scoped: threaded through calls, never stored and never logged.
type Credential string

// String hides the key from format helpers and logs.
func (Credential) String() string {
	return "[redacted]"
}

// TranscriptionError reports a failed transcription request.
type TranscriptionError struct {
	Reason string
	Err    error
}

func (e *TranscriptionError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("transcription failed: %s", e.Reason)
	}
	return fmt.Sprintf("transcription failed: %s: %v", e.Reason, e.Err)
}

func (e *TranscriptionError) Unwrap() error {
	return e.Err
}

// Client requests SRT transcriptions from a Whisper-style endpoint. A
// fresh API client is built per call from the threaded credential, so
// concurrent requests with different keys never share state.
type Client struct {
	baseURL string
	model   string
	log     zerolog.Logger
}

// NewClient creates a transcription client. An empty baseURL means the
// public OpenAI endpoint.
func NewClient(baseURL string, logger zerolog.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		model:   openai.Whisper1,
		log:     logger.With().Str("component", "transcriber").Logger(),
	}
}

// Transcribe sends the audio file for transcription and parses the SRT
// response into a caption document. The audio asset is read, never
// modified or released.
func (c *Client) Transcribe(ctx context.Context, audio *media.AudioAsset, cred Credential) (caption.Document, error) {
	if audio == nil || audio.Path == "" {
		return caption.Document{}, &TranscriptionError{Reason: "no audio input"}
	}
	if cred == "" {
		return caption.Document{}, &TranscriptionError{Reason: "missing credential"}
	}

	cfg := openai.DefaultConfig(string(cred))
	if c.baseURL != "" {
		cfg.BaseURL = c.baseURL
	}
	client := openai.NewClientWithConfig(cfg)

	resp, err := client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    c.model,
		FilePath: audio.Path,
		Format:   openai.AudioResponseFormatSRT,
	})
	if err != nil {
		reason := "request failed"
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) &&
			(apiErr.HTTPStatusCode == http.StatusUnauthorized || apiErr.HTTPStatusCode == http.StatusForbidden) {
			reason = "credential rejected"
		}
		return caption.Document{}, &TranscriptionError{Reason: reason, Err: err}
	}

	doc, err := caption.ParseString(resp.Text)
	if err != nil {
		return caption.Document{}, &TranscriptionError{Reason: "malformed response", Err: err}
	}
	if err := doc.Validate(); err != nil {
		return caption.Document{}, &TranscriptionError{Reason: "malformed response", Err: err}
	}

	c.log.Debug().Int("blocks", len(doc.Blocks)).Msg("transcription complete")
	return doc, nil
}
