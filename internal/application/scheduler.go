package application

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/efisher/whoopsync/internal/domain/model"
	"github.com/efisher/whoopsync/internal/domain/port/driven"
)

// CollectorFactory builds a Collector for one registered user. The caller
// wires the per-user API client behind it.
type CollectorFactory func(userID int64) *Collector

// Scheduler runs full syncs for every registered user on a fixed interval.
// Users are processed sequentially within a pass so they contend for the
// shared rate limit in a predictable order.
type Scheduler struct {
	interval  time.Duration
	users     driven.UserStore
	collector CollectorFactory
}

// NewScheduler creates a Scheduler.
func NewScheduler(interval time.Duration, users driven.UserStore, collector CollectorFactory) *Scheduler {
	return &Scheduler{interval: interval, users: users, collector: collector}
}

// Run performs one sync pass immediately, then again every interval until
// the context is canceled. A failing pass is logged and the loop continues;
// only cancellation ends it.
func (s *Scheduler) Run(ctx context.Context) error {
	slog.Info("scheduler started", "interval", s.interval)

	s.runPass(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("scheduler stopped")
			return ctx.Err()
		case <-ticker.C:
			s.runPass(ctx)
		}
	}
}

// runPass syncs every registered user once.
func (s *Scheduler) runPass(ctx context.Context) {
	users, err := s.users.ListAll(ctx)
	if err != nil {
		slog.Error("failed to list users for sync pass", "error", err)
		return
	}
	if len(users) == 0 {
		slog.Debug("no registered users, skipping sync pass")
		return
	}

	for _, user := range users {
		if ctx.Err() != nil {
			return
		}

		collector := s.collector(user.ID)
		if err := collector.VerifyToken(ctx); err != nil {
			if errors.Is(err, driven.ErrNoToken) {
				slog.Warn("skipping unauthorized user", "user_id", user.ID)
				continue
			}
			slog.Error("token verification failed", "user_id", user.ID, "error", err)
			continue
		}

		summary, err := collector.SyncAll(ctx, nil, nil, model.AllDataTypes)
		if err != nil {
			slog.Error("sync pass failed for user", "user_id", user.ID, "error", err)
			continue
		}
		if summary.TotalErrors > 0 {
			slog.Warn("sync pass finished with type errors",
				"user_id", user.ID,
				"errors", summary.TotalErrors,
				"records", summary.TotalRecords,
			)
		}
	}
}
