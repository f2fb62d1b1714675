package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/efisher/whoopsync/internal/domain/model"
)

// recordStats summarizes one record table for a user. table and timeColumn
// are compile-time constants supplied by the repos, never user input.
func recordStats(ctx context.Context, db *DB, table, timeColumn string, userID int64) (model.RecordStats, error) {
	query := fmt.Sprintf(`
		SELECT
			COUNT(*),
			MIN(%[1]s),
			MAX(%[1]s),
			COALESCE(SUM(CASE WHEN score_state = ? THEN 1 ELSE 0 END), 0)
		FROM %[2]s
		WHERE user_id = ?
	`, timeColumn, table)

	var stats model.RecordStats
	var earliest, latest sql.NullString

	err := db.Reader.QueryRowContext(ctx, query, model.ScoreStatePendingScore, userID).Scan(
		&stats.TotalRecords, &earliest, &latest, &stats.PendingScores,
	)
	if err != nil {
		return model.RecordStats{}, fmt.Errorf("statistics for %s: %w", table, err)
	}

	if earliest.Valid {
		t, err := parseTime(earliest.String)
		if err != nil {
			return model.RecordStats{}, fmt.Errorf("parse earliest %s: %w", table, err)
		}
		stats.EarliestRecord = &t
	}
	if latest.Valid {
		t, err := parseTime(latest.String)
		if err != nil {
			return model.RecordStats{}, fmt.Errorf("parse latest %s: %w", table, err)
		}
		stats.LatestRecord = &t
	}

	return stats, nil
}
