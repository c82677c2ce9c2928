package jobs

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/AlessioSantos/Subtutler-OpenAI-version/internal/caption"
	"github.com/AlessioSantos/Subtutler-OpenAI-version/internal/lang"
	"github.com/AlessioSantos/Subtutler-OpenAI-version/internal/media"
	"github.com/AlessioSantos/Subtutler-OpenAI-version/internal/pipeline"
)

// PipelineRunner is the slice of pipeline.Runner the executor needs.
type PipelineRunner interface {
	Run(ctx context.Context, req pipeline.Request, observers ...pipeline.Observer) (caption.Document, error)
}

// ProgressSink receives milestone updates for a running job. *Queue
// implements it.
type ProgressSink interface {
	UpdateProgress(id string, stage string, progress int)
}

// Milestone percentages shown to the user: extraction has started,
// then each finished stage, then the written file.
var progressByState = map[pipeline.State]int{
	pipeline.StateExtracting:   10,
	pipeline.StateTranscribing: 30,
	pipeline.StateTranslating:  60,
	pipeline.StateDone:         90,
}

// NewPipelineExecutor adapts a pipeline runner to the queue's executor
// contract. It loads the job's media from disk, threads the captured
// credential, reports milestones as job progress and writes the
// finished document to outDir/<job-id>.srt. Spooled uploads are
// removed once the job is terminal, success or not.
func NewPipelineExecutor(runner PipelineRunner, sink ProgressSink, outDir string, logger zerolog.Logger) Executor {
	log := logger.With().Str("component", "executor").Logger()

	return func(ctx context.Context, job *Job) (string, error) {
		defer func() {
			if job.Payload.OwnsMedia && job.Payload.MediaPath != "" {
				if err := os.Remove(job.Payload.MediaPath); err != nil && !os.IsNotExist(err) {
					log.Warn().Err(err).Str("job", job.ID).Msg("failed to remove spooled upload")
				}
			}
		}()

		req, err := buildRequest(job)
		if err != nil {
			return "", err
		}

		observer := func(m pipeline.Milestone) {
			if progress, ok := progressByState[m.State]; ok {
				sink.UpdateProgress(job.ID, string(m.State), progress)
			}
		}

		doc, err := runner.Run(ctx, req, observer)
		if err != nil {
			return "", err
		}

		resultPath := filepath.Join(outDir, job.ID+".srt")
		if err := caption.WriteFile(resultPath, doc); err != nil {
			return "", fmt.Errorf("write result: %w", err)
		}

		log.Info().Str("job", job.ID).Str("result", resultPath).Msg("job finished")
		return resultPath, nil
	}
}

func buildRequest(job *Job) (pipeline.Request, error) {
	container, err := media.ParseContainer(job.Payload.Container)
	if err != nil {
		return pipeline.Request{}, err
	}

	data, err := os.ReadFile(job.Payload.MediaPath)
	if err != nil {
		return pipeline.Request{}, fmt.Errorf("read media: %w", err)
	}

	target, err := lang.Parse(job.Payload.TargetLang)
	if err != nil {
		return pipeline.Request{}, err
	}
	pair := lang.Pair{Target: target}
	if !job.Payload.DetectSource {
		source, err := lang.Parse(job.Payload.SourceLang)
		if err != nil {
			return pipeline.Request{}, err
		}
		pair.Source = source
	}

	return pipeline.Request{
		Media:        media.MediaAsset{Data: data, Container: container},
		Credential:   job.Credential(),
		Pair:         pair,
		DetectSource: job.Payload.DetectSource,
	}, nil
}
