package watch

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AlessioSantos/Subtutler-OpenAI-version/internal/jobs"
)

func writeAged(t *testing.T, path string, age time.Duration) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte("scratch"), 0o644))
	stamp := time.Now().Add(-age)
	require.NoError(t, os.Chtimes(path, stamp, stamp))
}

func TestJanitor_SweepRemovesOnlyStaleUnusedFiles(t *testing.T) {
	cfg := watchConfig(t, "")
	require.NoError(t, cfg.EnsureDirs())

	stale := filepath.Join(cfg.TmpDir(), "upload_dead.mp4")
	fresh := filepath.Join(cfg.TmpDir(), "upload_live.mp4")
	busy := filepath.Join(cfg.TmpDir(), "upload_pending.mp4")
	writeAged(t, stale, 2*time.Hour)
	writeAged(t, fresh, time.Minute)
	writeAged(t, busy, 2*time.Hour)

	queue := &fakeQueue{known: []*jobs.Job{
		{ID: "job-1", Status: jobs.StatusPending, Payload: jobs.Payload{MediaPath: busy}},
		{ID: "job-2", Status: jobs.StatusFailed, Payload: jobs.Payload{MediaPath: stale}},
	}}
	j := NewJanitor(cfg, queue, &fakeCron{}, zerolog.Nop())

	removed, err := j.Sweep()
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	assert.NoFileExists(t, stale, "stale files of terminal jobs go away")
	assert.FileExists(t, fresh, "files inside the max age stay")
	assert.FileExists(t, busy, "files of pending jobs stay regardless of age")
}

func TestJanitor_SweepMissingDirIsNoop(t *testing.T) {
	cfg := watchConfig(t, "")
	cfg.DataDir = filepath.Join(t.TempDir(), "never-created")

	j := NewJanitor(cfg, &fakeQueue{}, &fakeCron{}, zerolog.Nop())
	removed, err := j.Sweep()
	require.NoError(t, err)
	assert.Zero(t, removed)
}

func TestJanitor_ScheduleRegistersCron(t *testing.T) {
	cfg := watchConfig(t, "")
	require.NoError(t, cfg.EnsureDirs())

	fc := &fakeCron{}
	j := NewJanitor(cfg, &fakeQueue{}, fc, zerolog.Nop())

	require.NoError(t, j.Schedule())
	require.Equal(t, []string{"@every 1h"}, fc.specs)

	// the registered func runs without a real cron engine
	fc.funcs[0]()
}
