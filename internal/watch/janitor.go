package watch

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/AlessioSantos/Subtutler-OpenAI-version/internal/config"
	"github.com/AlessioSantos/Subtutler-OpenAI-version/internal/jobs"
	"github.com/AlessioSantos/Subtutler-OpenAI-version/pkg/file"
)

// Janitor sweeps the scratch directory on a cron schedule. Normal runs
// remove their own spools and audio files; the janitor only catches
// what a crash left behind.
type Janitor struct {
	dir      string
	maxAge   time.Duration
	cronExpr string
	cron     CronScheduler
	queue    JobQueue
	log      zerolog.Logger

	group singleflight.Group
}

func NewJanitor(cfg *config.Config, queue JobQueue, cronEngine CronScheduler, logger zerolog.Logger) *Janitor {
	return &Janitor{
		dir:      cfg.TmpDir(),
		maxAge:   cfg.TmpMaxAge,
		cronExpr: cfg.CleanupCron,
		cron:     cronEngine,
		queue:    queue,
		log:      logger.With().Str("component", "janitor").Logger(),
	}
}

// Schedule registers the sweep on the cron engine.
func (j *Janitor) Schedule() error {
	runFunc := func() {
		_, _, _ = j.group.Do("sweep", func() (any, error) {
			removed, err := j.Sweep()
			if err != nil {
				j.log.Error().Err(err).Msg("tmp sweep failed")
			} else if removed > 0 {
				j.log.Info().Int("removed", removed).Msg("removed stale tmp files")
			}
			return nil, nil
		})
	}
	if _, err := j.cron.AddFunc(j.cronExpr, runFunc); err != nil {
		return fmt.Errorf("failed to schedule tmp sweep: %w", err)
	}
	return nil
}

// Sweep removes scratch files older than the max age and reports how
// many went away. Files a live job still points at are left alone.
func (j *Janitor) Sweep() (int, error) {
	if _, err := os.Stat(j.dir); os.IsNotExist(err) {
		return 0, nil
	}

	stale, err := file.FindOlderThan(j.dir, time.Now().Add(-j.maxAge))
	if err != nil {
		return 0, err
	}

	inUse := j.activePaths()
	removed := 0
	for _, path := range stale {
		if _, busy := inUse[path]; busy {
			continue
		}
		if err := os.Remove(path); err != nil {
			if !os.IsNotExist(err) {
				j.log.Warn().Err(err).Str("path", path).Msg("failed to remove stale tmp file")
			}
			continue
		}
		removed++
	}
	return removed, nil
}

// activePaths returns the media paths of jobs that are not terminal
// yet: their spooled uploads must survive the sweep.
func (j *Janitor) activePaths() map[string]struct{} {
	paths := make(map[string]struct{})
	if j.queue == nil {
		return paths
	}
	for _, job := range j.queue.List() {
		if job.Status != jobs.StatusPending && job.Status != jobs.StatusRunning {
			continue
		}
		if job.Payload.MediaPath != "" {
			paths[job.Payload.MediaPath] = struct{}{}
		}
	}
	return paths
}
