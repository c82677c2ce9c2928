// Command subtutler runs the subtitle service: an HTTP API plus an
// optional watch folder, both feeding a queue of
// extract/transcribe/translate pipeline jobs.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/AlessioSantos/Subtutler-OpenAI-version/internal/config"
	"github.com/AlessioSantos/Subtutler-OpenAI-version/internal/httpapi"
	"github.com/AlessioSantos/Subtutler-OpenAI-version/internal/jobs"
	"github.com/AlessioSantos/Subtutler-OpenAI-version/internal/media"
	"github.com/AlessioSantos/Subtutler-OpenAI-version/internal/persistence"
	"github.com/AlessioSantos/Subtutler-OpenAI-version/internal/pipeline"
	"github.com/AlessioSantos/Subtutler-OpenAI-version/internal/transcribe"
	"github.com/AlessioSantos/Subtutler-OpenAI-version/internal/translate"
	"github.com/AlessioSantos/Subtutler-OpenAI-version/internal/watch"
	"github.com/AlessioSantos/Subtutler-OpenAI-version/pkg/log"
)

// scheduler registers background work on the cron engine before it
// starts.
type scheduler interface {
	Schedule(ctx context.Context) error
}

type schedulerFunc func(ctx context.Context) error

func (f schedulerFunc) Schedule(ctx context.Context) error { return f(ctx) }

// cronRunner is the slice of *cron.Cron the runtime loop needs.
type cronRunner interface {
	Start()
	Stop() context.Context
}

// httpServer is the slice of the API server the runtime loop needs.
type httpServer interface {
	ListenAndServe(addr string) error
	Shutdown(ctx context.Context) error
}

func main() {
	overrides := config.Overrides{}
	flag.StringVar(&overrides.EnvFile, "env", "", "path to .env file")
	flag.StringVar(&overrides.HTTPAddr, "addr", "", "listen address, overrides HTTP_ADDR")
	flag.StringVar(&overrides.DataDir, "data", "", "data directory, overrides DATA_DIR")
	flag.StringVar(&overrides.WatchDir, "watch", "", "watch folder, overrides WATCH_DIR")
	flag.StringVar(&overrides.LogLevel, "log-level", "", "log level, overrides LOG_LEVEL")
	flag.Parse()

	cfg, err := config.Load(overrides)
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to load configuration:", err)
		os.Exit(1)
	}

	logger := log.Setup(cfg.LogLevel, cfg.LogPretty)

	if err := run(cfg, logger); err != nil {
		logger.Fatal().Err(err).Msg("service exited")
	}
	logger.Info().Msg("service stopped")
}

// run builds every component from the configuration and hands them to
// the runtime loop.
func run(cfg *config.Config, logger zerolog.Logger) error {
	if err := cfg.EnsureDirs(); err != nil {
		return err
	}

	store, err := persistence.NewSQLiteStore(cfg.DBPath())
	if err != nil {
		return fmt.Errorf("failed to open job store: %w", err)
	}
	defer store.Close()

	settings, err := config.OpenRuntimeSettingsStore(cfg.SettingsPath(), cfg.DefaultRuntimeSettings())
	if err != nil {
		return fmt.Errorf("failed to open settings store: %w", err)
	}

	extractor := media.NewFFmpeg(cfg.FFmpegBin, cfg.TmpDir(), logger)
	transcriber := transcribe.NewClient(cfg.OpenAIBaseURL, logger)
	loader := translate.NewHFLoader(cfg.HFBaseURL, cfg.HFToken, settings.Get().LineLengthCap, logger)
	translator := translate.NewTranslator(translate.NewModelCache(loader), logger,
		translate.WithLineCap(settings.Get().LineLengthCap))

	runner := pipeline.NewRunner(extractor, transcriber, translator, pipeline.Timeouts{
		Extract:    cfg.ExtractTimeout,
		Transcribe: cfg.TranscribeTimeout,
		Translate:  cfg.TranslateTimeout,
	}, logger)

	queue := jobs.NewQueue(cfg.WorkerCount, store, logger)
	queue.Start(jobs.NewPipelineExecutor(runner, queue, cfg.OutDir(), logger))
	defer queue.Stop()

	cronEngine := cron.New()
	watchSvc := watch.NewService(cfg, queue, settings, cronEngine, logger)
	janitor := watch.NewJanitor(cfg, queue, cronEngine, logger)
	sched := schedulerFunc(func(ctx context.Context) error {
		if err := watchSvc.Schedule(ctx); err != nil {
			return err
		}
		return janitor.Schedule()
	})

	srv := httpapi.NewServer(cfg, queue, settings, logger,
		httpapi.WithSettingsApplier(func(next config.RuntimeSettings) {
			translator.SetLineCap(next.LineLengthCap)
		}))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return runWithComponents(ctx, cfg, sched, cronEngine, srv)
}

// runWithComponents starts the cron engine and the HTTP server and
// blocks until the context ends or the server fails. Split from run so
// tests can drive it with fakes.
func runWithComponents(ctx context.Context, cfg *config.Config, sched scheduler, cronEngine cronRunner, srv httpServer) error {
	if err := sched.Schedule(ctx); err != nil {
		return fmt.Errorf("failed to schedule background work: %w", err)
	}

	cronEngine.Start()
	defer cronEngine.Stop()

	errCh := make(chan error, 1)
	go func() {
		err := srv.ListenAndServe(cfg.HTTPAddr)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown failed: %w", err)
	}
	return <-errCh
}
