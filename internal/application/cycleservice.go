package application

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/efisher/whoopsync/internal/domain/model"
	"github.com/efisher/whoopsync/internal/domain/port/driven"
)

// CycleService syncs one user's physiological cycles incrementally. Cycles
// the vendor reports without an end timestamp are still in progress and are
// skipped; they are picked up once a later fetch window delivers them
// complete. Stored rows are keyed locally, the vendor's integer cycle id
// survives only in the raw body.
type CycleService struct {
	userID  int64
	client  driven.WhoopClient
	store   driven.CycleStore
	cursors driven.CursorStore
}

// NewCycleService creates a CycleService for one user.
func NewCycleService(userID int64, client driven.WhoopClient, store driven.CycleStore, cursors driven.CursorStore) *CycleService {
	return &CycleService{userID: userID, client: client, store: store, cursors: cursors}
}

// SyncRecords fetches cycle records in [start, end) and persists the
// completed ones. A nil start resumes from the stored cursor. In-progress
// cycles neither count toward the total nor advance the cursor.
func (s *CycleService) SyncRecords(ctx context.Context, start, end *time.Time) (int, error) {
	start, err := resolveStart(ctx, s.cursors, s.userID, model.DataTypeCycle, start)
	if err != nil {
		return 0, err
	}

	slog.Info("starting cycle sync", "user_id", s.userID, "start", start, "end", end)

	payloads, err := s.client.FetchCycleRecords(ctx, start, end)
	if err != nil {
		fetchErr := fmt.Errorf("fetch cycle records: %w", err)
		if cursorErr := failCursor(ctx, s.cursors, s.userID, model.DataTypeCycle, fetchErr); cursorErr != nil {
			slog.Error("failed to record cycle sync error", "user_id", s.userID, "error", cursorErr)
		}
		return 0, fetchErr
	}

	synced := 0
	skipped := 0
	var newest *time.Time
	for _, p := range payloads {
		if p.End == nil {
			skipped++
			continue
		}
		if err := s.store.Insert(ctx, cycleFromPayload(s.userID, p)); err != nil {
			slog.Error("failed to store cycle record", "user_id", s.userID, "cycle_id", p.ID, "error", err)
			continue
		}
		synced++
		newest = laterOf(newest, *p.End)
	}

	if err := advanceCursor(ctx, s.cursors, s.userID, model.DataTypeCycle, synced, newest); err != nil {
		return synced, err
	}

	slog.Info("cycle sync complete",
		"user_id", s.userID,
		"synced", synced,
		"in_progress_skipped", skipped,
	)
	return synced, nil
}

// Statistics summarizes the user's stored cycle records.
func (s *CycleService) Statistics(ctx context.Context) (model.RecordStats, error) {
	return s.store.Statistics(ctx, s.userID)
}

// cycleFromPayload flattens a completed vendor cycle into the persisted
// record shape. The caller guarantees End is non-nil.
func cycleFromPayload(userID int64, p model.CyclePayload) model.CycleRecord {
	rec := model.CycleRecord{
		ID:             uuid.New(),
		UserID:         userID,
		StartTime:      p.Start,
		EndTime:        *p.End,
		TimezoneOffset: p.TimezoneOffset,
		ScoreState:     p.ScoreState,
		RawData:        p.Raw,
	}

	if score := p.Score; score != nil {
		rec.StrainScore = score.Strain
		rec.Kilojoules = score.Kilojoule
		rec.AverageHR = score.AverageHR
		rec.MaxHR = score.MaxHR
	}

	return rec
}
