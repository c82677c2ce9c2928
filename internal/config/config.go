// Package config loads service configuration from the environment and
// owns the runtime settings that can be changed over the API.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
)

// Config holds everything read once at startup. Runtime-changeable
// values live in RuntimeSettings instead.
type Config struct {
	HTTPAddr       string `env:"HTTP_ADDR" envDefault:":8080"`
	APIToken       string `env:"API_TOKEN"`
	MaxUploadBytes int64  `env:"MAX_UPLOAD_BYTES" envDefault:"104857600"`

	// DataDir holds tmp/ (in-flight media and audio), out/ (finished
	// subtitle files), the job database and the settings file.
	DataDir string `env:"DATA_DIR" envDefault:"./data"`

	FFmpegBin string `env:"FFMPEG_BIN" envDefault:"ffmpeg"`

	OpenAIBaseURL string `env:"OPENAI_BASE_URL"`
	OpenAIAPIKey  string `env:"OPENAI_API_KEY"`

	HFBaseURL     string `env:"HF_BASE_URL" envDefault:"https://api-inference.huggingface.co"`
	HFToken       string `env:"HF_TOKEN"`
	LineLengthCap int    `env:"LINE_LENGTH_CAP" envDefault:"512"`

	// Per-stage deadlines, zero disables.
	ExtractTimeout    time.Duration `env:"EXTRACT_TIMEOUT"`
	TranscribeTimeout time.Duration `env:"TRANSCRIBE_TIMEOUT"`
	TranslateTimeout  time.Duration `env:"TRANSLATE_TIMEOUT"`

	WorkerCount int           `env:"WORKER_COUNT" envDefault:"2"`
	WatchDir    string        `env:"WATCH_DIR"`
	WatchCron   string        `env:"WATCH_CRON" envDefault:"@every 5m"`
	CleanupCron string        `env:"CLEANUP_CRON" envDefault:"@every 1h"`
	TmpMaxAge   time.Duration `env:"TMP_MAX_AGE" envDefault:"24h"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogPretty bool   `env:"LOG_PRETTY" envDefault:"false"`
}

// Overrides holds CLI flag values that take priority over env vars.
type Overrides struct {
	EnvFile  string
	HTTPAddr string
	DataDir  string
	WatchDir string
	LogLevel string
}

// Load reads configuration from .env file, environment variables, and
// CLI overrides. Priority: CLI flags > environment variables > .env
// file > struct defaults.
func Load(overrides Overrides) (*Config, error) {
	envFile := overrides.EnvFile
	if envFile == "" {
		envFile = ".env"
	}
	if _, err := os.Stat(envFile); err == nil {
		_ = godotenv.Load(envFile)
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	if overrides.HTTPAddr != "" {
		cfg.HTTPAddr = overrides.HTTPAddr
	}
	if overrides.DataDir != "" {
		cfg.DataDir = overrides.DataDir
	}
	if overrides.WatchDir != "" {
		cfg.WatchDir = overrides.WatchDir
	}
	if overrides.LogLevel != "" {
		cfg.LogLevel = overrides.LogLevel
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the invariants the rest of the service assumes.
func (c *Config) Validate() error {
	if c.MaxUploadBytes <= 0 {
		return fmt.Errorf("MAX_UPLOAD_BYTES must be positive, got %d", c.MaxUploadBytes)
	}
	if c.WorkerCount < 1 {
		return fmt.Errorf("WORKER_COUNT must be at least 1, got %d", c.WorkerCount)
	}
	if c.LineLengthCap <= 0 {
		return fmt.Errorf("LINE_LENGTH_CAP must be positive, got %d", c.LineLengthCap)
	}
	if c.TmpMaxAge <= 0 {
		return fmt.Errorf("TMP_MAX_AGE must be positive, got %s", c.TmpMaxAge)
	}
	if _, err := cron.ParseStandard(c.WatchCron); err != nil {
		return fmt.Errorf("invalid WATCH_CRON: %w", err)
	}
	if _, err := cron.ParseStandard(c.CleanupCron); err != nil {
		return fmt.Errorf("invalid CLEANUP_CRON: %w", err)
	}
	return nil
}

// TmpDir is where uploads are spooled and extraction scratch lives.
func (c *Config) TmpDir() string {
	return filepath.Join(c.DataDir, "tmp")
}

// OutDir is where finished subtitle documents are written.
func (c *Config) OutDir() string {
	return filepath.Join(c.DataDir, "out")
}

// DBPath is the sqlite job store file.
func (c *Config) DBPath() string {
	return filepath.Join(c.DataDir, "subtutler.db")
}

// SettingsPath is the runtime settings file.
func (c *Config) SettingsPath() string {
	return filepath.Join(c.DataDir, "settings.json")
}

// EnsureDirs creates the data directory tree.
func (c *Config) EnsureDirs() error {
	for _, dir := range []string{c.DataDir, c.TmpDir(), c.OutDir()} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}
	return nil
}
