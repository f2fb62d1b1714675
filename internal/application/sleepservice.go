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

// SleepService syncs one user's sleep records incrementally. Sleeps are
// upserted on the vendor UUID, so refetching a window refreshes pending
// scores instead of duplicating rows.
type SleepService struct {
	userID  int64
	client  driven.WhoopClient
	store   driven.SleepStore
	cursors driven.CursorStore
}

// NewSleepService creates a SleepService for one user.
func NewSleepService(userID int64, client driven.WhoopClient, store driven.SleepStore, cursors driven.CursorStore) *SleepService {
	return &SleepService{userID: userID, client: client, store: store, cursors: cursors}
}

// SyncRecords fetches sleep records in [start, end) and persists them.
// A nil start resumes from the stored cursor. Individual records that fail
// to persist are logged and skipped; they do not fail the sync and do not
// advance the cursor past themselves. Returns the number of records synced.
func (s *SleepService) SyncRecords(ctx context.Context, start, end *time.Time) (int, error) {
	start, err := resolveStart(ctx, s.cursors, s.userID, model.DataTypeSleep, start)
	if err != nil {
		return 0, err
	}

	slog.Info("starting sleep sync", "user_id", s.userID, "start", start, "end", end)

	payloads, err := s.client.FetchSleepRecords(ctx, start, end)
	if err != nil {
		fetchErr := fmt.Errorf("fetch sleep records: %w", err)
		if cursorErr := failCursor(ctx, s.cursors, s.userID, model.DataTypeSleep, fetchErr); cursorErr != nil {
			slog.Error("failed to record sleep sync error", "user_id", s.userID, "error", cursorErr)
		}
		return 0, fetchErr
	}

	synced := 0
	var newest *time.Time
	for _, p := range payloads {
		rec, err := sleepFromPayload(s.userID, p)
		if err != nil {
			slog.Error("skipping malformed sleep record", "user_id", s.userID, "record_id", p.ID, "error", err)
			continue
		}
		if err := s.store.Upsert(ctx, *rec); err != nil {
			slog.Error("failed to store sleep record", "user_id", s.userID, "record_id", p.ID, "error", err)
			continue
		}
		synced++
		newest = laterOf(newest, p.End)
	}

	if err := advanceCursor(ctx, s.cursors, s.userID, model.DataTypeSleep, synced, newest); err != nil {
		return synced, err
	}

	slog.Info("sleep sync complete", "user_id", s.userID, "synced", synced)
	return synced, nil
}

// Statistics summarizes the user's stored sleep records.
func (s *SleepService) Statistics(ctx context.Context) (model.RecordStats, error) {
	return s.store.Statistics(ctx, s.userID)
}

// sleepFromPayload flattens a vendor sleep payload into the persisted
// record shape. Score metrics stay nil while the vendor reports the sleep
// unscored.
func sleepFromPayload(userID int64, p model.SleepPayload) (*model.SleepRecord, error) {
	id, err := uuid.Parse(p.ID)
	if err != nil {
		return nil, fmt.Errorf("parse sleep id %q: %w", p.ID, err)
	}

	rec := &model.SleepRecord{
		ID:             id,
		UserID:         userID,
		StartTime:      p.Start,
		EndTime:        p.End,
		TimezoneOffset: p.TimezoneOffset,
		ScoreState:     p.ScoreState,
		IsNap:          p.Nap,
		RawData:        p.Raw,
	}

	if score := p.Score; score != nil {
		rec.LightSleepMilli = score.StageSummary.TotalLightSleepMilli
		rec.SlowWaveSleepMilli = score.StageSummary.TotalSlowWaveSleepMilli
		rec.REMSleepMilli = score.StageSummary.TotalREMSleepMilli
		rec.AwakeMilli = score.StageSummary.TotalAwakeMilli
		rec.PerformancePct = score.SleepPerformancePct
		rec.ConsistencyPct = score.SleepConsistencyPct
		rec.RespiratoryRate = score.RespiratoryRate
		rec.EfficiencyPct = score.SleepEfficiencyPct
	}

	return rec, nil
}
