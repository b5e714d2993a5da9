package synchronizer

import (
	"context"
	"time"

	"github.com/kiryu-dev/five-in-a-row/internal/domain"
	"github.com/pkg/errors"
	"go.uber.org/atomic"
	"go.uber.org/zap"
)

const flushTimeout = 5 * time.Second

type useCase struct {
	repo    domain.SnapshotRepository
	source  domain.SnapshotSource
	period  time.Duration
	flushes *atomic.Int64
	logger  *zap.Logger
}

func New(repo domain.SnapshotRepository, source domain.SnapshotSource, period time.Duration,
	logger *zap.Logger) *useCase {
	return &useCase{
		repo:    repo,
		source:  source,
		period:  period,
		flushes: atomic.NewInt64(0),
		logger:  logger,
	}
}

// Sync flushes dirty sessions every period until ctx is done, then makes one
// last flush so a graceful shutdown loses nothing.
func (u *useCase) Sync(ctx context.Context) error {
	ticker := time.NewTicker(u.period)
	defer ticker.Stop()
	u.logger.Info("starting snapshot sync", zap.Duration("period", u.period))
	for {
		select {
		case <-ticker.C:
			if err := u.Flush(ctx); err != nil {
				u.logger.Warn(err.Error())
			}
		case <-ctx.Done():
			flushCtx, cancel := context.WithTimeout(context.Background(), flushTimeout)
			err := u.Flush(flushCtx)
			cancel()
			if err != nil {
				return errors.WithMessage(err, "final flush")
			}
			return nil
		}
	}
}

func (u *useCase) Flush(ctx context.Context) error {
	snapshots := u.source.DirtySnapshots(ctx)
	if len(snapshots) == 0 {
		return nil
	}
	if err := u.repo.Save(ctx, snapshots); err != nil {
		handles := make([]string, 0, len(snapshots))
		for _, s := range snapshots {
			handles = append(handles, s.Handle)
		}
		u.source.MarkDirty(handles...)
		return errors.WithMessagef(err, "save %d snapshots", len(snapshots))
	}
	u.logger.Info("flushed session snapshots",
		zap.Int("count", len(snapshots)),
		zap.Int64("flush", u.flushes.Inc()),
	)
	return nil
}
