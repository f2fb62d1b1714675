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

// RecoveryService syncs one user's recovery records incrementally. The
// vendor assigns recoveries no id of their own, so each stored row gets a
// locally generated one and re-delivered records insert again; the cursor
// keeps overlap small in normal operation.
type RecoveryService struct {
	userID  int64
	client  driven.WhoopClient
	store   driven.RecoveryStore
	cursors driven.CursorStore
}

// NewRecoveryService creates a RecoveryService for one user.
func NewRecoveryService(userID int64, client driven.WhoopClient, store driven.RecoveryStore, cursors driven.CursorStore) *RecoveryService {
	return &RecoveryService{userID: userID, client: client, store: store, cursors: cursors}
}

// SyncRecords fetches recovery records in [start, end) and persists them.
// A nil start resumes from the stored cursor. The cursor watermark advances
// to the newest vendor created_at among stored records.
func (s *RecoveryService) SyncRecords(ctx context.Context, start, end *time.Time) (int, error) {
	start, err := resolveStart(ctx, s.cursors, s.userID, model.DataTypeRecovery, start)
	if err != nil {
		return 0, err
	}

	slog.Info("starting recovery sync", "user_id", s.userID, "start", start, "end", end)

	payloads, err := s.client.FetchRecoveryRecords(ctx, start, end)
	if err != nil {
		fetchErr := fmt.Errorf("fetch recovery records: %w", err)
		if cursorErr := failCursor(ctx, s.cursors, s.userID, model.DataTypeRecovery, fetchErr); cursorErr != nil {
			slog.Error("failed to record recovery sync error", "user_id", s.userID, "error", cursorErr)
		}
		return 0, fetchErr
	}

	synced := 0
	var newest *time.Time
	for _, p := range payloads {
		rec := recoveryFromPayload(s.userID, p)
		if err := s.store.Insert(ctx, rec); err != nil {
			slog.Error("failed to store recovery record",
				"user_id", s.userID,
				"cycle_id", p.CycleID,
				"error", err,
			)
			continue
		}
		synced++
		newest = laterOf(newest, p.CreatedAt)
	}

	if err := advanceCursor(ctx, s.cursors, s.userID, model.DataTypeRecovery, synced, newest); err != nil {
		return synced, err
	}

	slog.Info("recovery sync complete", "user_id", s.userID, "synced", synced)
	return synced, nil
}

// Statistics summarizes the user's stored recovery records.
func (s *RecoveryService) Statistics(ctx context.Context) (model.RecordStats, error) {
	return s.store.Statistics(ctx, s.userID)
}

// recoveryFromPayload flattens a vendor recovery payload into the persisted
// record shape under a fresh local id. The vendor's cycle and sleep
// references survive in the raw body.
func recoveryFromPayload(userID int64, p model.RecoveryPayload) model.RecoveryRecord {
	rec := model.RecoveryRecord{
		ID:         uuid.New(),
		UserID:     userID,
		RecordedAt: p.CreatedAt,
		ScoreState: p.ScoreState,
		RawData:    p.Raw,
	}

	if score := p.Score; score != nil {
		rec.RecoveryScore = score.RecoveryScore
		rec.RestingHR = score.RestingHR
		rec.HRVRMSSDMilli = score.HRVRMSSDMilli
		rec.SpO2Pct = score.SpO2Pct
		rec.SkinTempC = score.SkinTempCelsius
		rec.Calibrating = score.UserCalibrating
	}

	return rec
}
