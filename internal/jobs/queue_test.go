package jobs

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func succeedExec(_ context.Context, _ *Job) (string, error) {
	return "/out/done.srt", nil
}

func TestQueue_Enqueue_DeduplicatesSameKey(t *testing.T) {
	q := NewQueue(2, nil, zerolog.Nop())

	jobA, createdA := q.Enqueue(EnqueueRequest{
		Source:    "upload",
		DedupeKey: "hash1|en-ru",
	})
	jobB, createdB := q.Enqueue(EnqueueRequest{
		Source:    "watch",
		DedupeKey: "hash1|en-ru",
	})

	require.True(t, createdA)
	require.False(t, createdB)
	require.NotNil(t, jobA)
	require.NotNil(t, jobB)
	assert.Equal(t, jobA.ID, jobB.ID)
}

func TestQueue_Enqueue_AllowsRetryAfterFailure(t *testing.T) {
	q := NewQueue(1, nil, zerolog.Nop())

	var attempts int
	q.Start(func(_ context.Context, _ *Job) (string, error) {
		attempts++
		if attempts == 1 {
			return "", assert.AnError
		}
		return "/out/done.srt", nil
	})
	defer q.Stop()

	first, created := q.Enqueue(EnqueueRequest{
		Source:    "upload",
		DedupeKey: "retry-key",
	})
	require.True(t, created)
	require.NotNil(t, first)

	require.Eventually(t, func() bool {
		got, ok := q.Get(first.ID)
		return ok && got != nil && got.Status == StatusFailed
	}, time.Second, 10*time.Millisecond)

	second, created := q.Enqueue(EnqueueRequest{
		Source:    "upload",
		DedupeKey: "retry-key",
	})
	require.True(t, created)
	require.NotNil(t, second)
	assert.NotEqual(t, first.ID, second.ID)

	require.Eventually(t, func() bool {
		got, ok := q.Get(second.ID)
		return ok && got != nil && got.Status == StatusSuccess
	}, time.Second, 10*time.Millisecond)
}

func TestQueue_Enqueue_AllowsRetryAfterSuccess(t *testing.T) {
	q := NewQueue(1, nil, zerolog.Nop())
	q.Start(succeedExec)
	defer q.Stop()

	first, created := q.Enqueue(EnqueueRequest{
		Source:    "upload",
		DedupeKey: "done-key",
	})
	require.True(t, created)
	require.NotNil(t, first)

	require.Eventually(t, func() bool {
		got, ok := q.Get(first.ID)
		return ok && got != nil && got.Status == StatusSuccess
	}, time.Second, 10*time.Millisecond)

	second, created := q.Enqueue(EnqueueRequest{
		Source:    "upload",
		DedupeKey: "done-key",
	})
	require.True(t, created)
	require.NotNil(t, second)
	assert.NotEqual(t, first.ID, second.ID)
}

func TestQueue_CredentialNeverMarshalsAndIsDroppedWhenTerminal(t *testing.T) {
	q := NewQueue(1, nil, zerolog.Nop())

	job, created := q.Enqueue(EnqueueRequest{
		Source:     "upload",
		DedupeKey:  "cred-key",
		Credential: "sk-secret",
	})
	require.True(t, created)
	assert.Equal(t, "sk-secret", string(job.Credential()))

	q.Start(succeedExec)
	defer q.Stop()

	require.Eventually(t, func() bool {
		got, ok := q.Get(job.ID)
		return ok && got.Status == StatusSuccess
	}, time.Second, 10*time.Millisecond)

	got, ok := q.Get(job.ID)
	require.True(t, ok)
	assert.Empty(t, got.Credential(), "terminal jobs must not keep the key")
}

func TestQueue_ListNewestFirst(t *testing.T) {
	q := NewQueue(1, nil, zerolog.Nop())

	a, _ := q.Enqueue(EnqueueRequest{DedupeKey: "a"})
	time.Sleep(2 * time.Millisecond)
	b, _ := q.Enqueue(EnqueueRequest{DedupeKey: "b"})

	list := q.List()
	require.Len(t, list, 2)
	assert.Equal(t, b.ID, list[0].ID)
	assert.Equal(t, a.ID, list[1].ID)
}

func TestQueue_UpdateProgressOnlyWhileRunning(t *testing.T) {
	q := NewQueue(1, nil, zerolog.Nop())

	job, _ := q.Enqueue(EnqueueRequest{DedupeKey: "p"})

	// pending jobs ignore progress updates
	q.UpdateProgress(job.ID, "extracting", 10)
	got, ok := q.Get(job.ID)
	require.True(t, ok)
	assert.Zero(t, got.Progress)

	release := make(chan struct{})
	q.Start(func(_ context.Context, j *Job) (string, error) {
		q.UpdateProgress(j.ID, "transcribing", 30)
		<-release
		return "/out/p.srt", nil
	})
	defer q.Stop()

	require.Eventually(t, func() bool {
		got, ok := q.Get(job.ID)
		return ok && got.Status == StatusRunning && got.Progress == 30
	}, time.Second, 10*time.Millisecond)

	got, _ = q.Get(job.ID)
	assert.Equal(t, "transcribing", got.Stage)
	close(release)

	require.Eventually(t, func() bool {
		got, ok := q.Get(job.ID)
		return ok && got.Status == StatusSuccess && got.Progress == 100
	}, time.Second, 10*time.Millisecond)
}
