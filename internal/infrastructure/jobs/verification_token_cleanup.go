package jobs

import (
	"context"
	"sync"
	"time"

	"actdone.backend/pkg/logger"
	"go.uber.org/zap"
)

type expiredTokenPruner interface {
	DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// VerificationTokenCleanupJob periodically deletes verification tokens whose
// expiry is older than the retention window. Live tokens are never touched.
type VerificationTokenCleanupJob struct {
	repo      expiredTokenPruner
	interval  time.Duration
	retention time.Duration
	now       func() time.Time
	stop      chan struct{}
	stopOnce  sync.Once
}

func NewVerificationTokenCleanupJob(repo expiredTokenPruner, interval, retention time.Duration) *VerificationTokenCleanupJob {
	if interval <= 0 {
		interval = time.Hour
	}
	return &VerificationTokenCleanupJob{
		repo:      repo,
		interval:  interval,
		retention: retention,
		now:       time.Now,
		stop:      make(chan struct{}),
	}
}

// Enabled is false when retention is zero or negative.
func (j *VerificationTokenCleanupJob) Enabled() bool {
	return j.retention > 0
}

func (j *VerificationTokenCleanupJob) Start(ctx context.Context) {
	if !j.Enabled() {
		logger.Info(ctx, "Verification token cleanup disabled")
		return
	}
	logger.Info(ctx, "Starting verification token cleanup job",
		zap.Duration("interval", j.interval),
		zap.Duration("retention", j.retention),
	)

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info(ctx, "Verification token cleanup job stopped (context cancelled)")
			return
		case <-j.stop:
			logger.Info(ctx, "Verification token cleanup job stopped")
			return
		case <-ticker.C:
			j.prune(ctx)
		}
	}
}

func (j *VerificationTokenCleanupJob) Stop() {
	j.stopOnce.Do(func() { close(j.stop) })
}

func (j *VerificationTokenCleanupJob) prune(ctx context.Context) {
	cutoff := j.now().Add(-j.retention)
	n, err := j.repo.DeleteExpiredBefore(ctx, cutoff)
	if err != nil {
		logger.Error(ctx, "Failed to prune verification tokens", zap.Error(err))
		return
	}
	if n > 0 {
		logger.Info(ctx, "Pruned verification tokens", zap.Int64("deleted", n), zap.Time("cutoff", cutoff))
	}
}
