package application_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/efisher/whoopsync/internal/application"
	"github.com/efisher/whoopsync/internal/domain/model"
)

func ptrTime(t time.Time) *time.Time { return &t }

func sleepPayload(id string, end time.Time) model.SleepPayload {
	return model.SleepPayload{
		ID:         id,
		Start:      end.Add(-8 * time.Hour),
		End:        end,
		ScoreState: model.ScoreStateScored,
		Raw:        []byte(`{}`),
	}
}

func TestSleepService_SyncStoresAndAdvancesCursor(t *testing.T) {
	endA := time.Date(2025, 6, 1, 6, 0, 0, 0, time.UTC)
	endB := time.Date(2025, 6, 2, 6, 0, 0, 0, time.UTC)

	client := &mockWhoopClient{
		fetchSleep: func(_ context.Context, _, _ *time.Time) ([]model.SleepPayload, error) {
			return []model.SleepPayload{
				sleepPayload(uuid.NewString(), endB),
				sleepPayload(uuid.NewString(), endA),
			}, nil
		},
	}
	store := &mockSleepStore{}
	cursors := newMemCursorStore()
	svc := application.NewSleepService(1, client, store, cursors)

	synced, err := svc.SyncRecords(context.Background(), nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, synced)
	assert.Len(t, store.upserts, 2)

	cursor, err := cursors.Get(context.Background(), 1, model.DataTypeSleep)
	require.NoError(t, err)
	require.NotNil(t, cursor)
	assert.Equal(t, model.SyncStatusSuccess, cursor.Status)
	assert.Equal(t, 2, cursor.RecordsFetched)
	// Watermark is the newest end time regardless of delivery order.
	require.NotNil(t, cursor.LastRecordTime)
	assert.True(t, cursor.LastRecordTime.Equal(endB))
}

func TestSleepService_ResumesFromCursor(t *testing.T) {
	watermark := time.Date(2025, 6, 1, 6, 0, 0, 0, time.UTC)
	cursors := newMemCursorStore()
	require.NoError(t, cursors.Save(context.Background(), model.SyncCursor{
		UserID:         1,
		DataType:       model.DataTypeSleep,
		LastSyncTime:   watermark,
		LastRecordTime: &watermark,
		Status:         model.SyncStatusSuccess,
	}))

	var gotStart *time.Time
	client := &mockWhoopClient{
		fetchSleep: func(_ context.Context, start, _ *time.Time) ([]model.SleepPayload, error) {
			gotStart = start
			return nil, nil
		},
	}
	svc := application.NewSleepService(1, client, &mockSleepStore{}, cursors)

	_, err := svc.SyncRecords(context.Background(), nil, nil)
	require.NoError(t, err)
	require.NotNil(t, gotStart)
	assert.True(t, gotStart.Equal(watermark))
}

func TestSleepService_ExplicitStartOverridesCursor(t *testing.T) {
	watermark := time.Date(2025, 6, 1, 6, 0, 0, 0, time.UTC)
	cursors := newMemCursorStore()
	require.NoError(t, cursors.Save(context.Background(), model.SyncCursor{
		UserID:         1,
		DataType:       model.DataTypeSleep,
		LastSyncTime:   watermark,
		LastRecordTime: &watermark,
		Status:         model.SyncStatusSuccess,
	}))

	explicit := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	var gotStart *time.Time
	client := &mockWhoopClient{
		fetchSleep: func(_ context.Context, start, _ *time.Time) ([]model.SleepPayload, error) {
			gotStart = start
			return nil, nil
		},
	}
	svc := application.NewSleepService(1, client, &mockSleepStore{}, cursors)

	_, err := svc.SyncRecords(context.Background(), &explicit, nil)
	require.NoError(t, err)
	require.NotNil(t, gotStart)
	assert.True(t, gotStart.Equal(explicit))
}

func TestSleepService_EmptyBatchKeepsWatermark(t *testing.T) {
	watermark := time.Date(2025, 6, 1, 6, 0, 0, 0, time.UTC)
	cursors := newMemCursorStore()
	require.NoError(t, cursors.Save(context.Background(), model.SyncCursor{
		UserID:         1,
		DataType:       model.DataTypeSleep,
		LastSyncTime:   watermark,
		LastRecordTime: &watermark,
		Status:         model.SyncStatusSuccess,
		RecordsFetched: 9,
	}))

	svc := application.NewSleepService(1, &mockWhoopClient{}, &mockSleepStore{}, cursors)

	synced, err := svc.SyncRecords(context.Background(), nil, nil)
	require.NoError(t, err)
	assert.Zero(t, synced)

	cursor, err := cursors.Get(context.Background(), 1, model.DataTypeSleep)
	require.NoError(t, err)
	assert.Equal(t, model.SyncStatusSuccess, cursor.Status)
	assert.Zero(t, cursor.RecordsFetched)
	require.NotNil(t, cursor.LastRecordTime)
	assert.True(t, cursor.LastRecordTime.Equal(watermark))
}

func TestSleepService_RecordFailureIsSkipped(t *testing.T) {
	endGood := time.Date(2025, 6, 2, 6, 0, 0, 0, time.UTC)
	endBad := time.Date(2025, 6, 3, 6, 0, 0, 0, time.UTC)
	good := sleepPayload(uuid.NewString(), endGood)
	bad := sleepPayload(uuid.NewString(), endBad)

	client := &mockWhoopClient{
		fetchSleep: func(_ context.Context, _, _ *time.Time) ([]model.SleepPayload, error) {
			return []model.SleepPayload{good, bad}, nil
		},
	}
	store := &mockSleepStore{failFor: map[string]error{bad.ID: errors.New("disk full")}}
	cursors := newMemCursorStore()
	svc := application.NewSleepService(1, client, store, cursors)

	synced, err := svc.SyncRecords(context.Background(), nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, synced)

	// The failed record does not advance the watermark past itself.
	cursor, err := cursors.Get(context.Background(), 1, model.DataTypeSleep)
	require.NoError(t, err)
	require.NotNil(t, cursor.LastRecordTime)
	assert.True(t, cursor.LastRecordTime.Equal(endGood))
}

func TestSleepService_FetchFailureRecordsErrorCursor(t *testing.T) {
	client := &mockWhoopClient{
		fetchSleep: func(_ context.Context, _, _ *time.Time) ([]model.SleepPayload, error) {
			return nil, errors.New("connection refused")
		},
	}
	cursors := newMemCursorStore()
	svc := application.NewSleepService(1, client, &mockSleepStore{}, cursors)

	_, err := svc.SyncRecords(context.Background(), nil, nil)
	require.Error(t, err)

	cursor, cursorErr := cursors.Get(context.Background(), 1, model.DataTypeSleep)
	require.NoError(t, cursorErr)
	require.NotNil(t, cursor)
	assert.Equal(t, model.SyncStatusError, cursor.Status)
	assert.Contains(t, cursor.ErrorMessage, "connection refused")
}

func TestRecoveryService_CursorUsesCreatedAt(t *testing.T) {
	createdA := time.Date(2025, 6, 1, 7, 0, 0, 0, time.UTC)
	createdB := time.Date(2025, 6, 2, 7, 0, 0, 0, time.UTC)

	client := &mockWhoopClient{
		fetchRecovery: func(_ context.Context, _, _ *time.Time) ([]model.RecoveryPayload, error) {
			return []model.RecoveryPayload{
				{CycleID: 10, CreatedAt: createdA, ScoreState: model.ScoreStateScored, Raw: []byte(`{}`)},
				{CycleID: 11, CreatedAt: createdB, ScoreState: model.ScoreStateScored, Raw: []byte(`{}`)},
			}, nil
		},
	}
	store := &mockRecoveryStore{}
	cursors := newMemCursorStore()
	svc := application.NewRecoveryService(1, client, store, cursors)

	synced, err := svc.SyncRecords(context.Background(), nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, synced)
	require.Len(t, store.inserts, 2)

	// Every stored recovery carries a locally generated id.
	assert.NotEqual(t, uuid.Nil, store.inserts[0].ID)
	assert.NotEqual(t, store.inserts[0].ID, store.inserts[1].ID)

	cursor, err := cursors.Get(context.Background(), 1, model.DataTypeRecovery)
	require.NoError(t, err)
	require.NotNil(t, cursor.LastRecordTime)
	assert.True(t, cursor.LastRecordTime.Equal(createdB))
}

func TestWorkoutService_SyncFlattensScore(t *testing.T) {
	end := time.Date(2025, 6, 2, 18, 0, 0, 0, time.UTC)
	strain := 12.5
	avgHR := int64(140)
	client := &mockWhoopClient{
		fetchWorkout: func(_ context.Context, _, _ *time.Time) ([]model.WorkoutPayload, error) {
			return []model.WorkoutPayload{{
				ID:         uuid.NewString(),
				Start:      end.Add(-time.Hour),
				End:        end,
				SportName:  "running",
				ScoreState: model.ScoreStateScored,
				Score: &model.WorkoutScore{
					Strain:    &strain,
					AverageHR: &avgHR,
					ZoneDuration: &model.ZoneDuration{
						ZoneTwoMilli: ptrInt64t(1200000),
					},
				},
				Raw: []byte(`{}`),
			}}, nil
		},
	}
	store := &mockWorkoutStore{}
	svc := application.NewWorkoutService(1, client, store, newMemCursorStore())

	synced, err := svc.SyncRecords(context.Background(), nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, synced)
	require.Len(t, store.upserts, 1)

	rec := store.upserts[0]
	require.NotNil(t, rec.StrainScore)
	assert.InDelta(t, 12.5, *rec.StrainScore, 0.001)
	require.NotNil(t, rec.AverageHR)
	assert.Equal(t, int64(140), *rec.AverageHR)
	require.NotNil(t, rec.ZoneTwoMilli)
	assert.Equal(t, int64(1200000), *rec.ZoneTwoMilli)
}

func ptrInt64t(v int64) *int64 { return &v }

func TestCycleService_SkipsInProgressCycles(t *testing.T) {
	endDone := time.Date(2025, 6, 2, 4, 0, 0, 0, time.UTC)
	client := &mockWhoopClient{
		fetchCycle: func(_ context.Context, _, _ *time.Time) ([]model.CyclePayload, error) {
			return []model.CyclePayload{
				{ID: 1, Start: endDone.Add(-24 * time.Hour), End: ptrTime(endDone), ScoreState: model.ScoreStateScored, Raw: []byte(`{}`)},
				{ID: 2, Start: endDone, End: nil, ScoreState: model.ScoreStatePendingScore, Raw: []byte(`{}`)},
			}, nil
		},
	}
	store := &mockCycleStore{}
	cursors := newMemCursorStore()
	svc := application.NewCycleService(1, client, store, cursors)

	synced, err := svc.SyncRecords(context.Background(), nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, synced)
	require.Len(t, store.inserts, 1)
	assert.True(t, store.inserts[0].EndTime.Equal(endDone))

	// The open cycle never advances the cursor.
	cursor, err := cursors.Get(context.Background(), 1, model.DataTypeCycle)
	require.NoError(t, err)
	require.NotNil(t, cursor.LastRecordTime)
	assert.True(t, cursor.LastRecordTime.Equal(endDone))
}
