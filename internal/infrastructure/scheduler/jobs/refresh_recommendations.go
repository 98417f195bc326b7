// Package jobs contains the scheduled jobs of the Synk Hub worker.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/quickksynkk/synk-hub/internal/application/command"
	"github.com/quickksynkk/synk-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// REFRESH RECOMMENDATIONS JOB
// ══════════════════════════════════════════════════════════════════════════════

// Refresher regenerates recommendation batches.
type Refresher interface {
	Handle(ctx context.Context, cmd command.RefreshRecommendationsCommand) (*command.RefreshRecommendationsResult, error)
}

// RefreshRecommendationsJob regenerates the recommendation batch of every
// complete profile so that reads are served from storage.
type RefreshRecommendationsJob struct {
	refresher Refresher
	log       *logger.Logger

	// MaxFailureRatio fails the run when more than this share of profiles
	// could not be refreshed. Zero disables the check.
	MaxFailureRatio float64

	last atomic.Pointer[command.RefreshRecommendationsResult]
}

// NewRefreshRecommendationsJob creates the job.
func NewRefreshRecommendationsJob(refresher Refresher, log *logger.Logger) *RefreshRecommendationsJob {
	if log == nil {
		log = logger.Nop()
	}
	return &RefreshRecommendationsJob{
		refresher:       refresher,
		log:             log.With(logger.String("job", "refresh_recommendations")),
		MaxFailureRatio: 0.5,
	}
}

// Name returns the job name.
func (j *RefreshRecommendationsJob) Name() string {
	return "refresh_recommendations"
}

// Description returns a human-readable description.
func (j *RefreshRecommendationsJob) Description() string {
	return "Regenerates recommendation batches for all complete profiles"
}

// Run executes the job.
func (j *RefreshRecommendationsJob) Run(ctx context.Context) error {
	result, err := j.refresher.Handle(ctx, command.RefreshRecommendationsCommand{})
	if result != nil {
		j.last.Store(result)
	}
	if err != nil {
		return fmt.Errorf("refresh recommendations: %w", err)
	}

	attempted := result.Refreshed + result.Failed
	if j.MaxFailureRatio > 0 && attempted > 0 {
		ratio := float64(result.Failed) / float64(attempted)
		if ratio > j.MaxFailureRatio {
			return fmt.Errorf("%w: %d of %d profiles failed", ErrTooManyFailures, result.Failed, attempted)
		}
	}
	return nil
}

// LastResult returns the result of the most recent run, or nil.
func (j *RefreshRecommendationsJob) LastResult() *command.RefreshRecommendationsResult {
	return j.last.Load()
}

// ErrTooManyFailures is returned when too many profiles failed to refresh.
var ErrTooManyFailures = errors.New("too many refresh failures")
