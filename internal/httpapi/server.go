// Package httpapi is the service shell around the subtitle pipeline:
// upload, job tracking, progress streaming, caption review and
// runtime settings.
package httpapi

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/AlessioSantos/Subtutler-OpenAI-version/internal/config"
	"github.com/AlessioSantos/Subtutler-OpenAI-version/internal/jobs"
	"github.com/AlessioSantos/Subtutler-OpenAI-version/internal/transcribe"
)

// JobQueue is the slice of the job queue the handlers need.
type JobQueue interface {
	Enqueue(req jobs.EnqueueRequest) (*jobs.Job, bool)
	Get(id string) (*jobs.Job, bool)
	List() []*jobs.Job
}

// SettingsStore reads and updates the runtime settings.
type SettingsStore interface {
	Get() config.RuntimeSettings
	Update(next config.RuntimeSettings) (config.RuntimeSettings, error)
}

// SettingsApplier pushes saved settings into live components.
type SettingsApplier func(next config.RuntimeSettings)

type Server struct {
	queue    JobQueue
	settings SettingsStore
	apply    SettingsApplier

	defaultCred transcribe.Credential
	maxUpload   int64
	tmpDir      string
	authToken   string

	log    zerolog.Logger
	router chi.Router
	server *http.Server

	// serializes read-modify-write caption edits on result files
	editMu sync.Mutex
}

type Option func(*Server)

// WithSettingsApplier registers a callback invoked after settings are
// saved, so live components pick the new values up.
func WithSettingsApplier(apply SettingsApplier) Option {
	return func(s *Server) {
		s.apply = apply
	}
}

func NewServer(cfg *config.Config, queue JobQueue, settings SettingsStore, logger zerolog.Logger, opts ...Option) *Server {
	s := &Server{
		queue:       queue,
		settings:    settings,
		defaultCred: transcribe.Credential(cfg.OpenAIAPIKey),
		maxUpload:   cfg.MaxUploadBytes,
		tmpDir:      cfg.TmpDir(),
		authToken:   cfg.APIToken,
		log:         logger.With().Str("component", "httpapi").Logger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()

	r.Use(RequestID)
	r.Use(Recoverer)
	r.Use(Logger(s.log))

	r.Get("/healthz", s.handleHealthz)

	r.Route("/api", func(r chi.Router) {
		r.Use(BearerAuth(s.authToken))

		r.Get("/languages", s.handleLanguages)
		r.Get("/settings", s.handleGetSettings)
		r.Put("/settings", s.handleUpdateSettings)

		r.Route("/jobs", func(r chi.Router) {
			r.Get("/", s.handleListJobs)
			r.Post("/", s.handleCreateJob)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetJob)
				r.Get("/events", s.handleJobEvents)
				r.Get("/captions", s.handleGetCaptions)
				r.Put("/captions/blocks/{index}", s.handleUpdateCaptionBlock)
			})
		})
	})

	return r
}

// Handler exposes the routed handler for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) ListenAndServe(addr string) error {
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	s.log.Info().Str("addr", addr).Msg("http server starting")
	return s.server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	s.log.Info().Msg("http server shutting down")
	return s.server.Shutdown(ctx)
}
