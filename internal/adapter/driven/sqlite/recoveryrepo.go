package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/efisher/whoopsync/internal/domain/model"
	"github.com/efisher/whoopsync/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.RecoveryStore = (*RecoveryRepo)(nil)

// RecoveryRepo is the SQLite implementation of the RecoveryStore port.
// Recovery rows are keyed on a locally generated id, so every insert adds
// a row even for re-delivered vendor records.
type RecoveryRepo struct {
	db *DB
}

// NewRecoveryRepo creates a RecoveryRepo.
func NewRecoveryRepo(db *DB) *RecoveryRepo {
	return &RecoveryRepo{db: db}
}

// Insert persists a recovery record under its pre-assigned local id.
func (r *RecoveryRepo) Insert(ctx context.Context, rec model.RecoveryRecord) error {
	const query = `
		INSERT INTO recovery_records (
			id, user_id, recorded_at,
			recovery_score, resting_heart_rate, hrv_rmssd_milli, spo2_pct, skin_temp_celsius,
			score_state, calibrating, raw_data, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.Writer.ExecContext(ctx, query,
		rec.ID.String(), rec.UserID, formatTime(rec.RecordedAt),
		rec.RecoveryScore, rec.RestingHR, rec.HRVRMSSDMilli, rec.SpO2Pct, rec.SkinTempC,
		rec.ScoreState, rec.Calibrating, string(rec.RawData), formatTime(time.Now()),
	)
	if err != nil {
		return fmt.Errorf("insert recovery record %s: %w", rec.ID, err)
	}

	return nil
}

// Statistics summarizes the user's stored recovery records.
func (r *RecoveryRepo) Statistics(ctx context.Context, userID int64) (model.RecordStats, error) {
	return recordStats(ctx, r.db, "recovery_records", "recorded_at", userID)
}
