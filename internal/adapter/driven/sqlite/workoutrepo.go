package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/efisher/whoopsync/internal/domain/model"
	"github.com/efisher/whoopsync/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.WorkoutStore = (*WorkoutRepo)(nil)

// WorkoutRepo is the SQLite implementation of the WorkoutStore port.
type WorkoutRepo struct {
	db *DB
}

// NewWorkoutRepo creates a WorkoutRepo.
func NewWorkoutRepo(db *DB) *WorkoutRepo {
	return &WorkoutRepo{db: db}
}

// Upsert inserts a workout record or, keyed on the vendor UUID, replaces
// the mutable fields of the existing row.
func (r *WorkoutRepo) Upsert(ctx context.Context, rec model.WorkoutRecord) error {
	const query = `
		INSERT INTO workout_records (
			id, user_id, start_time, end_time, timezone_offset,
			sport_id, sport_name, strain_score, average_heart_rate, max_heart_rate,
			kilojoules, distance_meters, altitude_gain_meters, altitude_change_meters,
			zone_zero_milli, zone_one_milli, zone_two_milli,
			zone_three_milli, zone_four_milli, zone_five_milli,
			score_state, raw_data, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			start_time = excluded.start_time,
			end_time = excluded.end_time,
			timezone_offset = excluded.timezone_offset,
			sport_id = excluded.sport_id,
			sport_name = excluded.sport_name,
			strain_score = excluded.strain_score,
			average_heart_rate = excluded.average_heart_rate,
			max_heart_rate = excluded.max_heart_rate,
			kilojoules = excluded.kilojoules,
			distance_meters = excluded.distance_meters,
			altitude_gain_meters = excluded.altitude_gain_meters,
			altitude_change_meters = excluded.altitude_change_meters,
			zone_zero_milli = excluded.zone_zero_milli,
			zone_one_milli = excluded.zone_one_milli,
			zone_two_milli = excluded.zone_two_milli,
			zone_three_milli = excluded.zone_three_milli,
			zone_four_milli = excluded.zone_four_milli,
			zone_five_milli = excluded.zone_five_milli,
			score_state = excluded.score_state,
			raw_data = excluded.raw_data,
			updated_at = excluded.updated_at
	`

	_, err := r.db.Writer.ExecContext(ctx, query,
		rec.ID.String(), rec.UserID,
		formatTime(rec.StartTime), formatTime(rec.EndTime), rec.TimezoneOffset,
		rec.SportID, rec.SportName, rec.StrainScore, rec.AverageHR, rec.MaxHR,
		rec.Kilojoules, rec.DistanceMeters, rec.AltitudeGainMeters, rec.AltitudeChangeMeters,
		rec.ZoneZeroMilli, rec.ZoneOneMilli, rec.ZoneTwoMilli,
		rec.ZoneThreeMilli, rec.ZoneFourMilli, rec.ZoneFiveMilli,
		rec.ScoreState, string(rec.RawData), formatTime(time.Now()),
	)
	if err != nil {
		return fmt.Errorf("upsert workout record %s: %w", rec.ID, err)
	}

	return nil
}

// Statistics summarizes the user's stored workout records.
func (r *WorkoutRepo) Statistics(ctx context.Context, userID int64) (model.RecordStats, error) {
	return recordStats(ctx, r.db, "workout_records", "start_time", userID)
}
