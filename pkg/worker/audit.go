package worker

import (
	"context"
	"time"

	"github.com/parishkit/chms-api/internal/repository"
	"github.com/parishkit/chms-api/pkg/logger"
)

// AuditCleanupWorker prunes audit log rows past the retention window.
type AuditCleanupWorker struct {
	repo          repository.AuditRepository
	retentionDays int
	interval      time.Duration
	logger        *logger.Logger
}

func NewAuditCleanupWorker(repo repository.AuditRepository, retentionDays int, interval time.Duration, logger *logger.Logger) *AuditCleanupWorker {
	return &AuditCleanupWorker{
		repo:          repo,
		retentionDays: retentionDays,
		interval:      interval,
		logger:        logger,
	}
}

func (w *AuditCleanupWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			cutoff := time.Now().AddDate(0, 0, -w.retentionDays)
			deleted, err := w.repo.DeleteBefore(ctx, cutoff)
			if err != nil {
				w.logger.Error(err, "failed to prune audit logs")
				continue
			}
			if deleted > 0 {
				w.logger.Info("pruned audit logs", "deleted", deleted)
			}
		}
	}
}
