package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// CleanupSweeper periodically retires and purges expired links. Expired
// links are deleted entirely, not merely deactivated.
type CleanupSweeper struct {
	store    LinkStore
	notifier Notifier
	logger   *slog.Logger
	interval time.Duration
}

func NewCleanupSweeper(store LinkStore, notifier Notifier, logger *slog.Logger, interval time.Duration) *CleanupSweeper {
	return &CleanupSweeper{
		store:    store,
		notifier: notifier,
		logger:   logger,
		interval: interval,
	}
}

// Run ticks at the configured interval until the context is cancelled.
// A failed tick is logged and retried on the next interval.
func (s *CleanupSweeper) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := s.Tick(ctx); err != nil {
				s.logger.Error("cleanup tick failed", slog.Any("err", err))
			}
		}
	}
}

// Tick fetches every link expired by now, deactivates and notifies the ones
// still active, then deletes the whole fetched batch exactly once. An error
// before the delete leaves the batch in place; the next tick re-fetches and
// converges, since deactivation and deletion are both idempotent.
func (s *CleanupSweeper) Tick(ctx context.Context) error {
	const op = "service.CleanupSweeper.Tick"

	expired, err := s.store.FindExpiredBefore(ctx, time.Now())
	if err != nil {
		return fmt.Errorf("%s: failed to find expired links: %w", op, err)
	}

	if len(expired) == 0 {
		return nil
	}

	for _, link := range expired {
		if !link.Active {
			continue
		}

		flipped, err := s.store.Deactivate(ctx, link.ID)
		if err != nil {
			return fmt.Errorf("%s: failed to deactivate link: %w", op, err)
		}

		if flipped {
			if err := s.notifier.Send(ctx, link.UserID, "link expired and deactivated: "+link.Code); err != nil {
				s.logger.Warn("failed to send notification",
					slog.String("user_id", link.UserID.String()),
					slog.Any("err", err),
				)
			}
		}
	}

	if err := s.store.DeleteBatch(ctx, expired); err != nil {
		return fmt.Errorf("%s: failed to delete expired links: %w", op, err)
	}

	s.logger.Info("purged expired links", slog.Int("count", len(expired)))

	return nil
}
