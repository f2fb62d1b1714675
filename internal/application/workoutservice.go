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

// WorkoutService syncs one user's workout records incrementally, upserting
// on the vendor UUID.
type WorkoutService struct {
	userID  int64
	client  driven.WhoopClient
	store   driven.WorkoutStore
	cursors driven.CursorStore
}

// NewWorkoutService creates a WorkoutService for one user.
func NewWorkoutService(userID int64, client driven.WhoopClient, store driven.WorkoutStore, cursors driven.CursorStore) *WorkoutService {
	return &WorkoutService{userID: userID, client: client, store: store, cursors: cursors}
}

// SyncRecords fetches workout records in [start, end) and persists them.
// A nil start resumes from the stored cursor.
func (s *WorkoutService) SyncRecords(ctx context.Context, start, end *time.Time) (int, error) {
	start, err := resolveStart(ctx, s.cursors, s.userID, model.DataTypeWorkout, start)
	if err != nil {
		return 0, err
	}

	slog.Info("starting workout sync", "user_id", s.userID, "start", start, "end", end)

	payloads, err := s.client.FetchWorkoutRecords(ctx, start, end)
	if err != nil {
		fetchErr := fmt.Errorf("fetch workout records: %w", err)
		if cursorErr := failCursor(ctx, s.cursors, s.userID, model.DataTypeWorkout, fetchErr); cursorErr != nil {
			slog.Error("failed to record workout sync error", "user_id", s.userID, "error", cursorErr)
		}
		return 0, fetchErr
	}

	synced := 0
	var newest *time.Time
	for _, p := range payloads {
		rec, err := workoutFromPayload(s.userID, p)
		if err != nil {
			slog.Error("skipping malformed workout record", "user_id", s.userID, "record_id", p.ID, "error", err)
			continue
		}
		if err := s.store.Upsert(ctx, *rec); err != nil {
			slog.Error("failed to store workout record", "user_id", s.userID, "record_id", p.ID, "error", err)
			continue
		}
		synced++
		newest = laterOf(newest, p.End)
	}

	if err := advanceCursor(ctx, s.cursors, s.userID, model.DataTypeWorkout, synced, newest); err != nil {
		return synced, err
	}

	slog.Info("workout sync complete", "user_id", s.userID, "synced", synced)
	return synced, nil
}

// Statistics summarizes the user's stored workout records.
func (s *WorkoutService) Statistics(ctx context.Context) (model.RecordStats, error) {
	return s.store.Statistics(ctx, s.userID)
}

// workoutFromPayload flattens a vendor workout payload into the persisted
// record shape.
func workoutFromPayload(userID int64, p model.WorkoutPayload) (*model.WorkoutRecord, error) {
	id, err := uuid.Parse(p.ID)
	if err != nil {
		return nil, fmt.Errorf("parse workout id %q: %w", p.ID, err)
	}

	rec := &model.WorkoutRecord{
		ID:             id,
		UserID:         userID,
		StartTime:      p.Start,
		EndTime:        p.End,
		TimezoneOffset: p.TimezoneOffset,
		SportID:        p.SportID,
		SportName:      p.SportName,
		ScoreState:     p.ScoreState,
		RawData:        p.Raw,
	}

	if score := p.Score; score != nil {
		rec.StrainScore = score.Strain
		rec.AverageHR = score.AverageHR
		rec.MaxHR = score.MaxHR
		rec.Kilojoules = score.Kilojoule
		rec.DistanceMeters = score.DistanceMeter
		rec.AltitudeGainMeters = score.AltitudeGainMeter
		rec.AltitudeChangeMeters = score.AltitudeChangeMeter
		if zones := score.ZoneDuration; zones != nil {
			rec.ZoneZeroMilli = zones.ZoneZeroMilli
			rec.ZoneOneMilli = zones.ZoneOneMilli
			rec.ZoneTwoMilli = zones.ZoneTwoMilli
			rec.ZoneThreeMilli = zones.ZoneThreeMilli
			rec.ZoneFourMilli = zones.ZoneFourMilli
			rec.ZoneFiveMilli = zones.ZoneFiveMilli
		}
	}

	return rec, nil
}
