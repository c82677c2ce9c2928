package jobs

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryStore struct {
	mu   sync.Mutex
	jobs map[string]*Job
}

func newMemoryStore() *memoryStore {
	return &memoryStore{jobs: make(map[string]*Job)}
}

func (m *memoryStore) LoadJobs(_ context.Context) ([]*Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ret := make([]*Job, 0, len(m.jobs))
	for _, j := range m.jobs {
		ret = append(ret, cloneJob(j))
	}
	return ret, nil
}

func (m *memoryStore) UpsertJob(_ context.Context, job *Job) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.jobs[job.ID] = cloneJob(job)
	return nil
}

func (m *memoryStore) DeleteJob(_ context.Context, jobID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.jobs, jobID)
	return nil
}

func (m *memoryStore) get(id string) (*Job, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok := m.jobs[id]
	return j, ok
}

func TestQueue_HydratesInterruptedJobsAsFailed(t *testing.T) {
	store := newMemoryStore()
	now := time.Now()

	spooled := filepath.Join(t.TempDir(), "upload_1.mp4")
	require.NoError(t, os.WriteFile(spooled, []byte("video"), 0o600))

	store.jobs["job-1"] = &Job{
		ID:        "job-1",
		Source:    "upload",
		DedupeKey: "h1|en-ru",
		Status:    StatusPending,
		Payload: Payload{
			MediaName:  "a.mp4",
			MediaPath:  spooled,
			Container:  "mp4",
			OwnsMedia:  true,
			TargetLang: "ru",
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
	store.jobs["job-2"] = &Job{
		ID:        "job-2",
		Source:    "watch",
		DedupeKey: "h2|en-pl",
		Status:    StatusRunning,
		Payload: Payload{
			MediaName:  "b.mkv",
			MediaPath:  "/watch/b.mkv",
			Container:  "mkv",
			TargetLang: "pl",
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
	store.jobs["job-3"] = &Job{
		ID:        "job-3",
		Status:    StatusSuccess,
		CreatedAt: now,
		UpdatedAt: now,
	}

	q := NewQueue(1, store, zerolog.Nop())

	// the credential died with the process, so interrupted work fails
	for _, id := range []string{"job-1", "job-2"} {
		got, ok := q.Get(id)
		require.True(t, ok, id)
		assert.Equal(t, StatusFailed, got.Status, id)
		assert.Equal(t, "interrupted by restart", got.Error, id)
	}

	got, ok := q.Get("job-3")
	require.True(t, ok)
	assert.Equal(t, StatusSuccess, got.Status)

	// the spooled upload of job-1 is gone, the watch file of job-2 stays
	_, statErr := os.Stat(spooled)
	assert.True(t, os.IsNotExist(statErr))

	persisted, ok := store.get("job-1")
	require.True(t, ok)
	assert.Equal(t, StatusFailed, persisted.Status)
}

func TestQueue_PersistsEveryTransition(t *testing.T) {
	store := newMemoryStore()
	q := NewQueue(1, store, zerolog.Nop())

	job, created := q.Enqueue(EnqueueRequest{
		Source:     "upload",
		DedupeKey:  "h|en-uk",
		Credential: "sk-live",
		Payload:    Payload{MediaName: "c.avi", Container: "avi", TargetLang: "uk"},
	})
	require.True(t, created)

	persisted, ok := store.get(job.ID)
	require.True(t, ok)
	assert.Equal(t, StatusPending, persisted.Status)
	assert.Empty(t, persisted.Credential(), "store must never see the key")

	q.Start(func(_ context.Context, j *Job) (string, error) {
		assert.Equal(t, "sk-live", string(j.Credential()))
		return "/out/c.srt", nil
	})
	defer q.Stop()

	require.Eventually(t, func() bool {
		persisted, ok := store.get(job.ID)
		return ok && persisted.Status == StatusSuccess && persisted.ResultPath == "/out/c.srt"
	}, time.Second, 10*time.Millisecond)
}
