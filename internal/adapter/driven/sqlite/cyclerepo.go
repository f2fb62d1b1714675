package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/efisher/whoopsync/internal/domain/model"
	"github.com/efisher/whoopsync/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.CycleStore = (*CycleRepo)(nil)

// CycleRepo is the SQLite implementation of the CycleStore port. Cycle rows
// are keyed on a locally generated id; the vendor's integer cycle id lives
// only in raw_data.
type CycleRepo struct {
	db *DB
}

// NewCycleRepo creates a CycleRepo.
func NewCycleRepo(db *DB) *CycleRepo {
	return &CycleRepo{db: db}
}

// Insert persists a completed cycle under its pre-assigned local id.
func (r *CycleRepo) Insert(ctx context.Context, rec model.CycleRecord) error {
	const query = `
		INSERT INTO cycle_records (
			id, user_id, start_time, end_time, timezone_offset,
			strain_score, kilojoules, average_heart_rate, max_heart_rate,
			score_state, raw_data, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.Writer.ExecContext(ctx, query,
		rec.ID.String(), rec.UserID,
		formatTime(rec.StartTime), formatTime(rec.EndTime), rec.TimezoneOffset,
		rec.StrainScore, rec.Kilojoules, rec.AverageHR, rec.MaxHR,
		rec.ScoreState, string(rec.RawData), formatTime(time.Now()),
	)
	if err != nil {
		return fmt.Errorf("insert cycle record %s: %w", rec.ID, err)
	}

	return nil
}

// Statistics summarizes the user's stored cycle records.
func (r *CycleRepo) Statistics(ctx context.Context, userID int64) (model.RecordStats, error) {
	return recordStats(ctx, r.db, "cycle_records", "start_time", userID)
}
