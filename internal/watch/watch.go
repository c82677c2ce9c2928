// Package watch feeds the job queue from a folder on disk: a cron job
// scans for recently modified video files and enqueues them with the
// runtime default language pair.
package watch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/AlessioSantos/Subtutler-OpenAI-version/internal/config"
	"github.com/AlessioSantos/Subtutler-OpenAI-version/internal/jobs"
	"github.com/AlessioSantos/Subtutler-OpenAI-version/internal/lang"
	"github.com/AlessioSantos/Subtutler-OpenAI-version/internal/media"
	"github.com/AlessioSantos/Subtutler-OpenAI-version/internal/transcribe"
	"github.com/AlessioSantos/Subtutler-OpenAI-version/pkg/file"
	"github.com/AlessioSantos/Subtutler-OpenAI-version/pkg/icron"
)

// backlogWindow is how far the first scan after startup reaches back.
// Files processed before a restart are skipped through their dedupe
// keys, so a generous window only costs stat calls.
const backlogWindow = 7 * 24 * time.Hour

// JobQueue is the slice of the queue the scanner needs.
type JobQueue interface {
	Enqueue(req jobs.EnqueueRequest) (*jobs.Job, bool)
	List() []*jobs.Job
}

// SettingsSource yields the current runtime settings; the default
// language pair is read fresh on every scan.
type SettingsSource interface {
	Get() config.RuntimeSettings
}

// CronScheduler registers functions on a cron schedule. Satisfied by
// *cron.Cron.
type CronScheduler interface {
	AddFunc(spec string, cmd func()) (cron.EntryID, error)
}

// Service scans a watch folder on a cron schedule and enqueues a
// pipeline job for every new video file it finds.
type Service struct {
	dir      string
	cronExpr string
	cron     CronScheduler
	queue    JobQueue
	settings SettingsSource
	cred     transcribe.Credential
	log      zerolog.Logger

	group singleflight.Group

	mu       sync.Mutex
	lastScan time.Time
}

func NewService(cfg *config.Config, queue JobQueue, settings SettingsSource, cronEngine CronScheduler, logger zerolog.Logger) *Service {
	return &Service{
		dir:      cfg.WatchDir,
		cronExpr: cfg.WatchCron,
		cron:     cronEngine,
		queue:    queue,
		settings: settings,
		cred:     transcribe.Credential(cfg.OpenAIAPIKey),
		log:      logger.With().Str("component", "watch").Logger(),
	}
}

// Enabled reports whether the scanner has everything it needs to run:
// a folder to look at and a default credential for the jobs it creates.
func (s *Service) Enabled() bool {
	return s.dir != "" && s.cred != ""
}

// Schedule registers the scan on the cron engine. Overlapping triggers
// collapse onto the running scan. A no-op when the scanner is disabled.
func (s *Service) Schedule(ctx context.Context) error {
	if s.dir == "" {
		s.log.Info().Msg("watch folder disabled: no directory configured")
		return nil
	}
	if s.cred == "" {
		s.log.Warn().Str("dir", s.dir).Msg("watch folder disabled: no default transcription key")
		return nil
	}

	runFunc := func() {
		_, _, _ = s.group.Do("scan", func() (any, error) {
			if err := s.Scan(ctx); err != nil {
				s.log.Error().Err(err).Msg("watch scan failed")
			}
			return nil, nil
		})
	}
	if _, err := s.cron.AddFunc(s.cronExpr, runFunc); err != nil {
		return fmt.Errorf("failed to schedule watch scan: %w", err)
	}

	if info, err := icron.GetTriggerInfo(s.cronExpr, time.Now()); err == nil {
		s.log.Info().
			Str("dir", s.dir).
			Str("cron", s.cronExpr).
			Time("next", info.Next).
			Msg("watch folder scheduled")
	}
	return nil
}

// Scan walks the watch folder once and enqueues every video file
// modified since the previous scan. Files whose dedupe key matches a
// job the queue already knows are skipped, so a restart does not run
// the same media twice.
func (s *Service) Scan(ctx context.Context) error {
	now := time.Now()

	if _, err := os.Stat(s.dir); err != nil {
		return fmt.Errorf("watch folder %s: %w", s.dir, err)
	}

	pair, detect, err := s.settings.Get().DefaultPair()
	if err != nil {
		return fmt.Errorf("invalid default language pair: %w", err)
	}
	sourceSel := string(pair.Source)
	if detect {
		sourceSel = lang.Auto
	}

	found, err := file.FindNewerThan(s.dir, s.scanStart(now))
	if err != nil {
		return fmt.Errorf("failed to scan watch folder: %w", err)
	}

	known := s.knownKeys()

	enqueued := 0
	for _, path := range found {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		container, err := media.ParseContainer(filepath.Ext(path))
		if err != nil {
			continue
		}
		info, err := os.Stat(path)
		if err != nil {
			continue
		}

		key := scanKey(path, info.ModTime(), sourceSel, string(pair.Target))
		if _, seen := known[key]; seen {
			continue
		}

		job, created := s.queue.Enqueue(jobs.EnqueueRequest{
			Source:     "watch",
			DedupeKey:  key,
			Credential: s.cred,
			Payload: jobs.Payload{
				MediaName:    filepath.Base(path),
				MediaPath:    path,
				Container:    string(container),
				OwnsMedia:    false,
				SourceLang:   sourceSel,
				TargetLang:   string(pair.Target),
				DetectSource: detect,
			},
		})
		if created {
			enqueued++
			s.log.Info().
				Str("job", job.ID).
				Str("media", path).
				Str("target", string(pair.Target)).
				Msg("enqueued watch folder media")
		}
	}

	s.mu.Lock()
	s.lastScan = now
	s.mu.Unlock()

	s.log.Info().
		Str("dir", s.dir).
		Int("candidates", len(found)).
		Int("enqueued", enqueued).
		Msg("watch scan finished")
	return nil
}

// scanStart is the modtime floor for one scan: the previous scan time,
// or the backlog window on the first scan after startup.
func (s *Service) scanStart(now time.Time) time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lastScan.IsZero() {
		return now.Add(-backlogWindow)
	}
	return s.lastScan
}

// knownKeys collects the dedupe keys of every job the queue tracks,
// terminal ones included.
func (s *Service) knownKeys() map[string]struct{} {
	known := make(map[string]struct{})
	for _, job := range s.queue.List() {
		if job.DedupeKey != "" {
			known[job.DedupeKey] = struct{}{}
		}
	}
	return known
}

// scanKey identifies one (file version, language pair) combination. A
// touched file gets a new key and runs again.
func scanKey(path string, modTime time.Time, source, target string) string {
	return fmt.Sprintf("watch|%s|%d|%s-%s", path, modTime.UTC().UnixNano(), source, target)
}
