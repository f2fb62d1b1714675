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
	"github.com/efisher/whoopsync/internal/domain/port/driven"
)

func newTestCollector(client *mockWhoopClient, stores application.CollectorStores) *application.Collector {
	if stores.Sleep == nil {
		stores.Sleep = &mockSleepStore{}
	}
	if stores.Recovery == nil {
		stores.Recovery = &mockRecoveryStore{}
	}
	if stores.Workout == nil {
		stores.Workout = &mockWorkoutStore{}
	}
	if stores.Cycle == nil {
		stores.Cycle = &mockCycleStore{}
	}
	if stores.Cursors == nil {
		stores.Cursors = newMemCursorStore()
	}
	tokens := application.NewTokenManager(newMemTokenStore(), &mockOAuthClient{})
	return application.NewCollector(1, client, tokens, stores)
}

func TestCollector_SyncAllFourTypes(t *testing.T) {
	end := time.Date(2025, 6, 2, 6, 0, 0, 0, time.UTC)
	client := &mockWhoopClient{
		fetchSleep: func(_ context.Context, _, _ *time.Time) ([]model.SleepPayload, error) {
			return []model.SleepPayload{sleepPayload(uuid.NewString(), end)}, nil
		},
		fetchRecovery: func(_ context.Context, _, _ *time.Time) ([]model.RecoveryPayload, error) {
			return []model.RecoveryPayload{{CycleID: 1, CreatedAt: end, Raw: []byte(`{}`)}}, nil
		},
		fetchWorkout: func(_ context.Context, _, _ *time.Time) ([]model.WorkoutPayload, error) {
			return []model.WorkoutPayload{{ID: uuid.NewString(), End: end, Raw: []byte(`{}`)}}, nil
		},
		fetchCycle: func(_ context.Context, _, _ *time.Time) ([]model.CyclePayload, error) {
			return []model.CyclePayload{{ID: 7, End: ptrTime(end), Raw: []byte(`{}`)}}, nil
		},
	}
	collector := newTestCollector(client, application.CollectorStores{})

	summary, err := collector.SyncAll(context.Background(), nil, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 4, summary.TotalRecords)
	assert.Zero(t, summary.TotalErrors)
	require.Len(t, summary.Results, 4)
	for _, dt := range model.AllDataTypes {
		result, ok := summary.Results[dt]
		require.True(t, ok, "missing result for %s", dt)
		assert.Equal(t, model.SyncStatusSuccess, result.Status)
		assert.Equal(t, 1, result.RecordsSynced)
	}
}

func TestCollector_OneTypeFailingDoesNotStopOthers(t *testing.T) {
	end := time.Date(2025, 6, 2, 6, 0, 0, 0, time.UTC)
	client := &mockWhoopClient{
		fetchSleep: func(_ context.Context, _, _ *time.Time) ([]model.SleepPayload, error) {
			return nil, errors.New("rate limited upstream")
		},
		fetchRecovery: func(_ context.Context, _, _ *time.Time) ([]model.RecoveryPayload, error) {
			return []model.RecoveryPayload{{CycleID: 1, CreatedAt: end, Raw: []byte(`{}`)}}, nil
		},
	}
	collector := newTestCollector(client, application.CollectorStores{})

	summary, err := collector.SyncAll(context.Background(), nil, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.TotalErrors)
	assert.Equal(t, 1, summary.TotalRecords)

	assert.Equal(t, model.SyncStatusError, summary.Results[model.DataTypeSleep].Status)
	assert.Contains(t, summary.Results[model.DataTypeSleep].Error, "rate limited upstream")
	assert.Equal(t, model.SyncStatusSuccess, summary.Results[model.DataTypeRecovery].Status)
	assert.Equal(t, model.SyncStatusSuccess, summary.Results[model.DataTypeWorkout].Status)
	assert.Equal(t, model.SyncStatusSuccess, summary.Results[model.DataTypeCycle].Status)
}

func TestCollector_SubsetOfTypes(t *testing.T) {
	fetched := map[string]bool{}
	client := &mockWhoopClient{
		fetchSleep: func(_ context.Context, _, _ *time.Time) ([]model.SleepPayload, error) {
			fetched["sleep"] = true
			return nil, nil
		},
		fetchWorkout: func(_ context.Context, _, _ *time.Time) ([]model.WorkoutPayload, error) {
			fetched["workout"] = true
			return nil, nil
		},
	}
	collector := newTestCollector(client, application.CollectorStores{})

	summary, err := collector.SyncAll(context.Background(), nil, nil, []model.DataType{model.DataTypeSleep})
	require.NoError(t, err)
	assert.Len(t, summary.Results, 1)
	assert.True(t, fetched["sleep"])
	assert.False(t, fetched["workout"])
}

func TestCollector_UnknownTypeRejected(t *testing.T) {
	collector := newTestCollector(&mockWhoopClient{}, application.CollectorStores{})

	_, err := collector.SyncAll(context.Background(), nil, nil, []model.DataType{"heartbeat"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "heartbeat")
}

func TestCollector_VerifyToken(t *testing.T) {
	tokens := application.NewTokenManager(newMemTokenStore(), &mockOAuthClient{})
	collector := application.NewCollector(1, &mockWhoopClient{}, tokens, application.CollectorStores{
		Sleep:    &mockSleepStore{},
		Recovery: &mockRecoveryStore{},
		Workout:  &mockWorkoutStore{},
		Cycle:    &mockCycleStore{},
		Cursors:  newMemCursorStore(),
	})

	err := collector.VerifyToken(context.Background())
	assert.ErrorIs(t, err, driven.ErrNoToken)
}

func TestCollector_Statistics(t *testing.T) {
	collector := newTestCollector(&mockWhoopClient{}, application.CollectorStores{})

	stats, err := collector.Statistics(context.Background())
	require.NoError(t, err)
	assert.Len(t, stats, 4)
}
