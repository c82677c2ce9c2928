package jobs

import "context"

// Store persists job states so history and interrupted runs survive a
// restart. Credentials are never handed to the store.
type Store interface {
	LoadJobs(ctx context.Context) ([]*Job, error)
	UpsertJob(ctx context.Context, job *Job) error
	DeleteJob(ctx context.Context, jobID string) error
}
