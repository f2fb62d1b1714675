package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/efisher/whoopsync/internal/domain/model"
)

func ptrInt64(v int64) *int64       { return &v }
func ptrFloat64(v float64) *float64 { return &v }

func TestSleepRepo_UpsertIsIdempotent(t *testing.T) {
	db := setupTestDB(t)
	userID := seedUser(t, db, "whoop-1")
	repo := NewSleepRepo(db)
	ctx := context.Background()

	rec := model.SleepRecord{
		ID:         uuid.New(),
		UserID:     userID,
		StartTime:  time.Date(2025, 6, 1, 22, 0, 0, 0, time.UTC),
		EndTime:    time.Date(2025, 6, 2, 6, 0, 0, 0, time.UTC),
		ScoreState: model.ScoreStatePendingScore,
		RawData:    []byte(`{"id":"x"}`),
	}
	require.NoError(t, repo.Upsert(ctx, rec))

	// Re-delivery with the score filled in updates the row in place.
	rec.ScoreState = model.ScoreStateScored
	rec.PerformancePct = ptrFloat64(91.0)
	rec.LightSleepMilli = ptrInt64(14400000)
	require.NoError(t, repo.Upsert(ctx, rec))

	var count int
	require.NoError(t, db.Reader.QueryRow("SELECT COUNT(*) FROM sleep_records").Scan(&count))
	assert.Equal(t, 1, count)

	var scoreState string
	var performance float64
	require.NoError(t, db.Reader.QueryRow(
		"SELECT score_state, performance_pct FROM sleep_records WHERE id = ?", rec.ID.String(),
	).Scan(&scoreState, &performance))
	assert.Equal(t, model.ScoreStateScored, scoreState)
	assert.InDelta(t, 91.0, performance, 0.001)
}

func TestSleepRepo_Statistics(t *testing.T) {
	db := setupTestDB(t)
	userID := seedUser(t, db, "whoop-1")
	repo := NewSleepRepo(db)
	ctx := context.Background()

	early := time.Date(2025, 6, 1, 22, 0, 0, 0, time.UTC)
	late := time.Date(2025, 6, 3, 22, 0, 0, 0, time.UTC)

	require.NoError(t, repo.Upsert(ctx, model.SleepRecord{
		ID: uuid.New(), UserID: userID,
		StartTime: early, EndTime: early.Add(8 * time.Hour),
		ScoreState: model.ScoreStateScored,
	}))
	require.NoError(t, repo.Upsert(ctx, model.SleepRecord{
		ID: uuid.New(), UserID: userID,
		StartTime: late, EndTime: late.Add(8 * time.Hour),
		ScoreState: model.ScoreStatePendingScore,
	}))

	stats, err := repo.Statistics(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.TotalRecords)
	assert.Equal(t, int64(1), stats.PendingScores)
	require.NotNil(t, stats.EarliestRecord)
	require.NotNil(t, stats.LatestRecord)
	assert.True(t, stats.EarliestRecord.Equal(early))
	assert.True(t, stats.LatestRecord.Equal(late))
}

func TestSleepRepo_StatisticsEmpty(t *testing.T) {
	db := setupTestDB(t)
	userID := seedUser(t, db, "whoop-1")
	repo := NewSleepRepo(db)

	stats, err := repo.Statistics(context.Background(), userID)
	require.NoError(t, err)
	assert.Zero(t, stats.TotalRecords)
	assert.Nil(t, stats.EarliestRecord)
	assert.Nil(t, stats.LatestRecord)
}

func TestRecoveryRepo_InsertAlwaysAddsRow(t *testing.T) {
	db := setupTestDB(t)
	userID := seedUser(t, db, "whoop-1")
	repo := NewRecoveryRepo(db)
	ctx := context.Background()

	recordedAt := time.Date(2025, 6, 2, 7, 0, 0, 0, time.UTC)
	for i := 0; i < 2; i++ {
		require.NoError(t, repo.Insert(ctx, model.RecoveryRecord{
			ID:            uuid.New(),
			UserID:        userID,
			RecordedAt:    recordedAt,
			RecoveryScore: ptrFloat64(67),
			RestingHR:     ptrInt64(52),
			ScoreState:    model.ScoreStateScored,
		}))
	}

	// Locally keyed rows: a re-delivered vendor record inserts again.
	var count int
	require.NoError(t, db.Reader.QueryRow("SELECT COUNT(*) FROM recovery_records").Scan(&count))
	assert.Equal(t, 2, count)
}

func TestWorkoutRepo_UpsertIsIdempotent(t *testing.T) {
	db := setupTestDB(t)
	userID := seedUser(t, db, "whoop-1")
	repo := NewWorkoutRepo(db)
	ctx := context.Background()

	rec := model.WorkoutRecord{
		ID:         uuid.New(),
		UserID:     userID,
		StartTime:  time.Date(2025, 6, 2, 17, 0, 0, 0, time.UTC),
		EndTime:    time.Date(2025, 6, 2, 18, 0, 0, 0, time.UTC),
		SportID:    ptrInt64(1),
		SportName:  "running",
		ScoreState: model.ScoreStateScored,
		StrainScore: ptrFloat64(12.4),
	}
	require.NoError(t, repo.Upsert(ctx, rec))

	rec.StrainScore = ptrFloat64(13.1)
	require.NoError(t, repo.Upsert(ctx, rec))

	var count int
	var strain float64
	require.NoError(t, db.Reader.QueryRow("SELECT COUNT(*) FROM workout_records").Scan(&count))
	require.NoError(t, db.Reader.QueryRow(
		"SELECT strain_score FROM workout_records WHERE id = ?", rec.ID.String(),
	).Scan(&strain))
	assert.Equal(t, 1, count)
	assert.InDelta(t, 13.1, strain, 0.001)
}

func TestCycleRepo_InsertAndStatistics(t *testing.T) {
	db := setupTestDB(t)
	userID := seedUser(t, db, "whoop-1")
	repo := NewCycleRepo(db)
	ctx := context.Background()

	start := time.Date(2025, 6, 2, 4, 0, 0, 0, time.UTC)
	require.NoError(t, repo.Insert(ctx, model.CycleRecord{
		ID:          uuid.New(),
		UserID:      userID,
		StartTime:   start,
		EndTime:     start.Add(24 * time.Hour),
		StrainScore: ptrFloat64(14.2),
		AverageHR:   ptrInt64(71),
		ScoreState:  model.ScoreStateScored,
	}))

	stats, err := repo.Statistics(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.TotalRecords)
	require.NotNil(t, stats.EarliestRecord)
	assert.True(t, stats.EarliestRecord.Equal(start))
}
