package jobs

import (
	"context"
	"fmt"
	"sync/atomic"
)

// Cleaner deletes expired recommendation batches.
type Cleaner interface {
	Handle(ctx context.Context) (int64, error)
}

// CleanupExpiredJob removes recommendation batches past their expiry.
type CleanupExpiredJob struct {
	cleaner     Cleaner
	lastDeleted atomic.Int64
}

// NewCleanupExpiredJob creates the job.
func NewCleanupExpiredJob(cleaner Cleaner) *CleanupExpiredJob {
	return &CleanupExpiredJob{cleaner: cleaner}
}

// Name returns the job name.
func (j *CleanupExpiredJob) Name() string {
	return "cleanup_expired_recommendations"
}

// Description returns a human-readable description.
func (j *CleanupExpiredJob) Description() string {
	return "Deletes expired recommendation batches"
}

// Run executes the job.
func (j *CleanupExpiredJob) Run(ctx context.Context) error {
	deleted, err := j.cleaner.Handle(ctx)
	if err != nil {
		return fmt.Errorf("cleanup expired recommendations: %w", err)
	}
	j.lastDeleted.Store(deleted)
	return nil
}

// LastDeleted returns how many batches the last successful run deleted.
func (j *CleanupExpiredJob) LastDeleted() int64 {
	return j.lastDeleted.Load()
}
