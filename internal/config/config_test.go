package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// unsetenv clears keys for the duration of the test.
func unsetenv(t *testing.T, keys ...string) {
	t.Helper()
	for _, key := range keys {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestLoadDefaults(t *testing.T) {
	unsetenv(t,
		"HTTP_ADDR", "API_TOKEN", "MAX_UPLOAD_BYTES", "DATA_DIR",
		"FFMPEG_BIN", "HF_BASE_URL", "LINE_LENGTH_CAP", "WORKER_COUNT",
		"WATCH_DIR", "WATCH_CRON", "CLEANUP_CRON", "TMP_MAX_AGE",
		"LOG_LEVEL", "EXTRACT_TIMEOUT", "TRANSCRIBE_TIMEOUT", "TRANSLATE_TIMEOUT",
	)

	cfg, err := Load(Overrides{EnvFile: "nonexistent.env"})
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Empty(t, cfg.APIToken)
	assert.Equal(t, int64(104857600), cfg.MaxUploadBytes)
	assert.Equal(t, "./data", cfg.DataDir)
	assert.Equal(t, "ffmpeg", cfg.FFmpegBin)
	assert.Equal(t, "https://api-inference.huggingface.co", cfg.HFBaseURL)
	assert.Equal(t, 512, cfg.LineLengthCap)
	assert.Zero(t, cfg.ExtractTimeout)
	assert.Zero(t, cfg.TranscribeTimeout)
	assert.Zero(t, cfg.TranslateTimeout)
	assert.Equal(t, 2, cfg.WorkerCount)
	assert.Empty(t, cfg.WatchDir)
	assert.Equal(t, "@every 5m", cfg.WatchCron)
	assert.Equal(t, "@every 1h", cfg.CleanupCron)
	assert.Equal(t, 24*time.Hour, cfg.TmpMaxAge)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.False(t, cfg.LogPretty)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9999")
	t.Setenv("MAX_UPLOAD_BYTES", "1024")
	t.Setenv("DATA_DIR", "/srv/subtutler")
	t.Setenv("EXTRACT_TIMEOUT", "90s")
	t.Setenv("WORKER_COUNT", "4")
	t.Setenv("LOG_PRETTY", "true")

	cfg, err := Load(Overrides{EnvFile: "nonexistent.env"})
	require.NoError(t, err)

	assert.Equal(t, ":9999", cfg.HTTPAddr)
	assert.Equal(t, int64(1024), cfg.MaxUploadBytes)
	assert.Equal(t, "/srv/subtutler", cfg.DataDir)
	assert.Equal(t, 90*time.Second, cfg.ExtractTimeout)
	assert.Equal(t, 4, cfg.WorkerCount)
	assert.True(t, cfg.LogPretty)
}

func TestLoadOverridesTakePriority(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9999")
	t.Setenv("DATA_DIR", "/srv/env")
	t.Setenv("LOG_LEVEL", "warn")

	cfg, err := Load(Overrides{
		EnvFile:  "nonexistent.env",
		HTTPAddr: ":7070",
		DataDir:  "/srv/flag",
		WatchDir: "/watch",
		LogLevel: "debug",
	})
	require.NoError(t, err)

	assert.Equal(t, ":7070", cfg.HTTPAddr)
	assert.Equal(t, "/srv/flag", cfg.DataDir)
	assert.Equal(t, "/watch", cfg.WatchDir)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoadEnvFile(t *testing.T) {
	unsetenv(t, "HTTP_ADDR", "FFMPEG_BIN")

	envFile := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(envFile, []byte("HTTP_ADDR=:6060\nFFMPEG_BIN=/opt/ffmpeg\n"), 0o600))

	cfg, err := Load(Overrides{EnvFile: envFile})
	require.NoError(t, err)
	assert.Equal(t, ":6060", cfg.HTTPAddr)
	assert.Equal(t, "/opt/ffmpeg", cfg.FFmpegBin)
}

func TestLoadRejectsBadValues(t *testing.T) {
	cases := map[string]string{
		"WORKER_COUNT":     "0",
		"MAX_UPLOAD_BYTES": "-1",
		"LINE_LENGTH_CAP":  "0",
		"WATCH_CRON":       "not a cron",
		"CLEANUP_CRON":     "61 * * * *",
	}
	for key, value := range cases {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, value)
			_, err := Load(Overrides{EnvFile: "nonexistent.env"})
			assert.Error(t, err)
		})
	}
}

func TestConfigPaths(t *testing.T) {
	cfg := &Config{DataDir: "/srv/data"}

	assert.Equal(t, filepath.Join("/srv/data", "tmp"), cfg.TmpDir())
	assert.Equal(t, filepath.Join("/srv/data", "out"), cfg.OutDir())
	assert.Equal(t, filepath.Join("/srv/data", "subtutler.db"), cfg.DBPath())
	assert.Equal(t, filepath.Join("/srv/data", "settings.json"), cfg.SettingsPath())
}

func TestEnsureDirs(t *testing.T) {
	cfg := &Config{DataDir: filepath.Join(t.TempDir(), "data")}
	require.NoError(t, cfg.EnsureDirs())

	for _, dir := range []string{cfg.DataDir, cfg.TmpDir(), cfg.OutDir()} {
		info, err := os.Stat(dir)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	}
}
