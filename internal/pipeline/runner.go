package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/AlessioSantos/Subtutler-OpenAI-version/internal/caption"
	"github.com/AlessioSantos/Subtutler-OpenAI-version/internal/lang"
)

// Runner owns one pipeline run at a time: it drives the stages in
// order, reports milestones, and is the sole owner of cross-stage
// resource cleanup (the extracted audio file in particular).
type Runner struct {
	extractor   Extractor
	transcriber Transcriber
	translator  Translator
	timeouts    Timeouts
	log         zerolog.Logger
}

// NewRunner wires the three stage components into a runner.
func NewRunner(extractor Extractor, transcriber Transcriber, translator Translator, timeouts Timeouts, logger zerolog.Logger) *Runner {
	return &Runner{
		extractor:   extractor,
		transcriber: transcriber,
		translator:  translator,
		timeouts:    timeouts,
		log:         logger.With().Str("component", "pipeline").Logger(),
	}
}

// Run executes extraction, transcription and translation for req and
// returns the translated document. Observers see every state
// transition. Any stage failure stops the run, transitions to
// StateFailed and comes back as a *StageError; temporary audio is
// released on every exit path. Stages are never retried here.
func (r *Runner) Run(ctx context.Context, req Request, observers ...Observer) (caption.Document, error) {
	notify := func(m Milestone) {
		for _, observer := range observers {
			observer(m)
		}
	}
	fail := func(stage Stage, err error) (caption.Document, error) {
		wrapped := &StageError{Stage: stage, Err: err}
		notify(Milestone{State: StateFailed, Stage: stage, Err: err})
		r.log.Warn().Str("stage", string(stage)).Err(err).Msg("pipeline run failed")
		return caption.Document{}, wrapped
	}

	// Language codes are checked before any stage runs. With source
	// detection only the target has to be known up front.
	pair := req.Pair
	if req.DetectSource {
		pair.Source = pair.Target
	}
	if err := pair.Validate(); err != nil {
		return fail(StageValidate, err)
	}

	started := time.Now()

	notify(Milestone{State: StateExtracting})
	extractCtx, cancel := stageContext(ctx, r.timeouts.Extract)
	audio, err := r.extractor.Extract(extractCtx, req.Media)
	cancel()
	if err != nil {
		return fail(StageExtract, err)
	}
	defer func() {
		if rerr := audio.Release(); rerr != nil {
			r.log.Warn().Err(rerr).Msg("failed to release audio file")
		}
	}()

	notify(Milestone{State: StateTranscribing})
	transcribeCtx, cancel := stageContext(ctx, r.timeouts.Transcribe)
	doc, err := r.transcriber.Transcribe(transcribeCtx, audio, req.Credential)
	cancel()
	if err != nil {
		return fail(StageTranscribe, err)
	}

	// Transcription consumed the audio; drop it before the slow stage.
	if rerr := audio.Release(); rerr != nil {
		r.log.Warn().Err(rerr).Msg("failed to release audio file")
	}

	if req.DetectSource {
		source, ok := lang.Detect(doc.TextLines())
		if !ok {
			return fail(StageTranslate, fmt.Errorf("%w: could not detect source language", lang.ErrUnsupported))
		}
		pair.Source = source
		r.log.Debug().Str("source", string(source)).Msg("detected source language")
	}

	notify(Milestone{State: StateTranslating})
	translateCtx, cancel := stageContext(ctx, r.timeouts.Translate)
	translated, err := r.translator.Translate(translateCtx, doc, pair)
	cancel()
	if err != nil {
		return fail(StageTranslate, err)
	}

	notify(Milestone{State: StateDone})
	r.log.Info().
		Str("pair", pair.String()).
		Int("blocks", len(translated.Blocks)).
		Dur("took", time.Since(started)).
		Msg("pipeline run complete")
	return translated, nil
}

// FailedStage extracts the stage tag from a run error, if present.
func FailedStage(err error) (Stage, bool) {
	var stageErr *StageError
	if errors.As(err, &stageErr) {
		return stageErr.Stage, true
	}
	return "", false
}

func stageContext(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}
