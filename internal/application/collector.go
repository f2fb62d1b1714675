package application

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/efisher/whoopsync/internal/domain/model"
	"github.com/efisher/whoopsync/internal/domain/port/driven"
)

// syncer is the shared surface of the four per-type sync services.
type syncer interface {
	SyncRecords(ctx context.Context, start, end *time.Time) (int, error)
	Statistics(ctx context.Context) (model.RecordStats, error)
}

// Collector orchestrates a full sync run for one user: all requested data
// types in parallel, sharing one rate limiter and token manager through the
// API client. One type failing never stops the others; the summary carries
// every per-type outcome.
type Collector struct {
	userID   int64
	tokens   *TokenManager
	services map[model.DataType]syncer
}

// CollectorStores bundles the persistence ports a Collector needs.
type CollectorStores struct {
	Sleep    driven.SleepStore
	Recovery driven.RecoveryStore
	Workout  driven.WorkoutStore
	Cycle    driven.CycleStore
	Cursors  driven.CursorStore
}

// NewCollector creates a Collector and its per-type services for one user.
func NewCollector(userID int64, client driven.WhoopClient, tokens *TokenManager, stores CollectorStores) *Collector {
	return &Collector{
		userID: userID,
		tokens: tokens,
		services: map[model.DataType]syncer{
			model.DataTypeSleep:    NewSleepService(userID, client, stores.Sleep, stores.Cursors),
			model.DataTypeRecovery: NewRecoveryService(userID, client, stores.Recovery, stores.Cursors),
			model.DataTypeWorkout:  NewWorkoutService(userID, client, stores.Workout, stores.Cursors),
			model.DataTypeCycle:    NewCycleService(userID, client, stores.Cycle, stores.Cursors),
		},
	}
}

// VerifyToken confirms the user holds a usable credential, refreshing it if
// needed. Returns ErrNoToken when the user has never authorized.
func (c *Collector) VerifyToken(ctx context.Context) error {
	token, err := c.tokens.ValidAccessToken(ctx, c.userID)
	if err != nil {
		return fmt.Errorf("verify token: %w", err)
	}
	if token == "" {
		return driven.ErrNoToken
	}
	return nil
}

// SyncAll syncs the requested data types concurrently and returns the
// per-type outcomes. A nil or empty types slice means all four; an unknown
// type fails the whole call before any sync starts. Each type runs in its
// own goroutine and its error is captured in the summary rather than
// canceling the siblings.
func (c *Collector) SyncAll(ctx context.Context, start, end *time.Time, types []model.DataType) (*model.SyncSummary, error) {
	if len(types) == 0 {
		types = model.AllDataTypes
	}
	for _, dt := range types {
		if !model.ValidDataType(dt) {
			return nil, fmt.Errorf("unknown data type %q", dt)
		}
	}

	slog.Info("starting full sync", "user_id", c.userID, "types", types)

	summary := &model.SyncSummary{
		UserID:   c.userID,
		SyncTime: time.Now().UTC(),
		Results:  make(map[model.DataType]model.TypeResult, len(types)),
	}

	var (
		wg sync.WaitGroup
		mu sync.Mutex
	)
	for _, dt := range types {
		wg.Add(1)
		go func(dt model.DataType) {
			defer wg.Done()

			synced, err := func() (n int, err error) {
				defer func() {
					if r := recover(); r != nil {
						err = fmt.Errorf("panic in %s sync: %v", dt, r)
					}
				}()
				return c.services[dt].SyncRecords(ctx, start, end)
			}()

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				summary.Results[dt] = model.TypeResult{
					Status: model.SyncStatusError,
					Error:  err.Error(),
				}
				summary.TotalErrors++
				return
			}
			summary.Results[dt] = model.TypeResult{
				Status:        model.SyncStatusSuccess,
				RecordsSynced: synced,
			}
			summary.TotalRecords += synced
		}(dt)
	}
	wg.Wait()

	slog.Info("full sync complete",
		"user_id", c.userID,
		"total_records", summary.TotalRecords,
		"total_errors", summary.TotalErrors,
	)
	return summary, nil
}

// Statistics summarizes the user's stored records across every data type.
func (c *Collector) Statistics(ctx context.Context) (map[model.DataType]model.RecordStats, error) {
	stats := make(map[model.DataType]model.RecordStats, len(c.services))
	for dt, svc := range c.services {
		s, err := svc.Statistics(ctx)
		if err != nil {
			return nil, fmt.Errorf("statistics for %s: %w", dt, err)
		}
		stats[dt] = s
	}
	return stats, nil
}
