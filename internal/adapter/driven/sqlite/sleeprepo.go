package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/efisher/whoopsync/internal/domain/model"
	"github.com/efisher/whoopsync/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.SleepStore = (*SleepRepo)(nil)

// SleepRepo is the SQLite implementation of the SleepStore port.
type SleepRepo struct {
	db *DB
}

// NewSleepRepo creates a SleepRepo.
func NewSleepRepo(db *DB) *SleepRepo {
	return &SleepRepo{db: db}
}

// Upsert inserts a sleep record or, keyed on the vendor UUID, replaces the
// mutable fields of the existing row. Re-fetching a window never duplicates
// sleeps; it refreshes scores that were pending on the first pass.
func (r *SleepRepo) Upsert(ctx context.Context, rec model.SleepRecord) error {
	const query = `
		INSERT INTO sleep_records (
			id, user_id, start_time, end_time, timezone_offset,
			light_sleep_milli, slow_wave_sleep_milli, rem_sleep_milli, awake_milli,
			performance_pct, consistency_pct, respiratory_rate, efficiency_pct,
			score_state, is_nap, raw_data, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			start_time = excluded.start_time,
			end_time = excluded.end_time,
			timezone_offset = excluded.timezone_offset,
			light_sleep_milli = excluded.light_sleep_milli,
			slow_wave_sleep_milli = excluded.slow_wave_sleep_milli,
			rem_sleep_milli = excluded.rem_sleep_milli,
			awake_milli = excluded.awake_milli,
			performance_pct = excluded.performance_pct,
			consistency_pct = excluded.consistency_pct,
			respiratory_rate = excluded.respiratory_rate,
			efficiency_pct = excluded.efficiency_pct,
			score_state = excluded.score_state,
			is_nap = excluded.is_nap,
			raw_data = excluded.raw_data,
			updated_at = excluded.updated_at
	`

	_, err := r.db.Writer.ExecContext(ctx, query,
		rec.ID.String(), rec.UserID,
		formatTime(rec.StartTime), formatTime(rec.EndTime), rec.TimezoneOffset,
		rec.LightSleepMilli, rec.SlowWaveSleepMilli, rec.REMSleepMilli, rec.AwakeMilli,
		rec.PerformancePct, rec.ConsistencyPct, rec.RespiratoryRate, rec.EfficiencyPct,
		rec.ScoreState, rec.IsNap, string(rec.RawData), formatTime(time.Now()),
	)
	if err != nil {
		return fmt.Errorf("upsert sleep record %s: %w", rec.ID, err)
	}

	return nil
}

// Statistics summarizes the user's stored sleep records.
func (r *SleepRepo) Statistics(ctx context.Context, userID int64) (model.RecordStats, error) {
	return recordStats(ctx, r.db, "sleep_records", "start_time", userID)
}
