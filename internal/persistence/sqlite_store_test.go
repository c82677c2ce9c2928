package persistence

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AlessioSantos/Subtutler-OpenAI-version/internal/jobs"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "subtutler.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSQLiteStore_JobsRoundTrip(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()

	job := &jobs.Job{
		ID:        "job-1",
		Source:    "upload",
		DedupeKey: "abc123|en-ru",
		Payload: jobs.Payload{
			MediaName:    "talk.mp4",
			MediaPath:    "/data/tmp/upload_1.mp4",
			Container:    "mp4",
			OwnsMedia:    true,
			SourceLang:   "en",
			TargetLang:   "ru",
			DetectSource: false,
		},
		Status:    jobs.StatusPending,
		CreatedAt: time.Now().UTC().Truncate(time.Millisecond),
		UpdatedAt: time.Now().UTC().Truncate(time.Millisecond),
	}
	require.NoError(t, store.UpsertJob(ctx, job))

	all, err := store.LoadJobs(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	got := all[0]
	assert.Equal(t, job.ID, got.ID)
	assert.Equal(t, job.Status, got.Status)
	assert.Equal(t, job.Payload, got.Payload)
	assert.Empty(t, got.Credential(), "credentials must never round-trip the store")
}

func TestSQLiteStore_UpsertUpdatesExistingRow(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Millisecond)
	job := &jobs.Job{
		ID:        "job-1",
		Status:    jobs.StatusPending,
		Payload:   jobs.Payload{MediaName: "talk.mp4", Container: "mp4", TargetLang: "pl"},
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, store.UpsertJob(ctx, job))

	job.Status = jobs.StatusSuccess
	job.Stage = "done"
	job.Progress = 100
	job.ResultPath = "/data/out/job-1.srt"
	job.UpdatedAt = now.Add(time.Minute)
	require.NoError(t, store.UpsertJob(ctx, job))

	all, err := store.LoadJobs(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, jobs.StatusSuccess, all[0].Status)
	assert.Equal(t, 100, all[0].Progress)
	assert.Equal(t, "/data/out/job-1.srt", all[0].ResultPath)
}

func TestSQLiteStore_LoadJobsOrderedByCreation(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()

	base := time.Now().UTC().Truncate(time.Millisecond)
	for i, id := range []string{"job-b", "job-a", "job-c"} {
		require.NoError(t, store.UpsertJob(ctx, &jobs.Job{
			ID:        id,
			Status:    jobs.StatusFailed,
			CreatedAt: base.Add(time.Duration(i) * time.Second),
			UpdatedAt: base.Add(time.Duration(i) * time.Second),
		}))
	}

	all, err := store.LoadJobs(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "job-b", all[0].ID)
	assert.Equal(t, "job-c", all[2].ID)
}

func TestSQLiteStore_DeleteJob(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()

	now := time.Now().UTC()
	require.NoError(t, store.UpsertJob(ctx, &jobs.Job{
		ID: "job-1", Status: jobs.StatusSuccess, CreatedAt: now, UpdatedAt: now,
	}))
	require.NoError(t, store.DeleteJob(ctx, "job-1"))

	all, err := store.LoadJobs(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)

	// deleting an unknown id is not an error
	require.NoError(t, store.DeleteJob(ctx, "nope"))
}

func TestSQLiteStore_SurvivesReopen(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "subtutler.db")
	ctx := context.Background()

	store, err := NewSQLiteStore(path)
	require.NoError(t, err)
	now := time.Now().UTC().Truncate(time.Millisecond)
	require.NoError(t, store.UpsertJob(ctx, &jobs.Job{
		ID:        "job-1",
		Status:    jobs.StatusRunning,
		Payload:   jobs.Payload{MediaName: "talk.mkv", Container: "mkv", TargetLang: "uk"},
		CreatedAt: now,
		UpdatedAt: now,
	}))
	require.NoError(t, store.Close())

	reopened, err := NewSQLiteStore(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = reopened.Close() })

	all, err := reopened.LoadJobs(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "talk.mkv", all[0].Payload.MediaName)
	assert.Equal(t, jobs.StatusRunning, all[0].Status)
}
