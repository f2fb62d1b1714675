package application

import (
	"context"
	"fmt"
	"time"

	"github.com/efisher/whoopsync/internal/domain/model"
	"github.com/efisher/whoopsync/internal/domain/port/driven"
)

// resolveStart returns the fetch window start for an incremental sync: the
// caller's explicit start if given, otherwise the stored cursor's last
// record time. A nil result means a full-history fetch.
func resolveStart(ctx context.Context, cursors driven.CursorStore, userID int64, dataType model.DataType, start *time.Time) (*time.Time, error) {
	if start != nil {
		return start, nil
	}

	cursor, err := cursors.Get(ctx, userID, dataType)
	if err != nil {
		return nil, fmt.Errorf("load %s cursor: %w", dataType, err)
	}
	if cursor == nil {
		return nil, nil
	}
	return cursor.LastRecordTime, nil
}

// advanceCursor writes a successful sync outcome. The record watermark only
// moves forward: an empty batch, or one whose newest record predates the
// stored watermark, leaves last_record_time untouched.
func advanceCursor(ctx context.Context, cursors driven.CursorStore, userID int64, dataType model.DataType, synced int, newest *time.Time) error {
	prev, err := cursors.Get(ctx, userID, dataType)
	if err != nil {
		return fmt.Errorf("load %s cursor: %w", dataType, err)
	}

	watermark := newest
	if prev != nil && prev.LastRecordTime != nil {
		if watermark == nil || watermark.Before(*prev.LastRecordTime) {
			watermark = prev.LastRecordTime
		}
	}

	err = cursors.Save(ctx, model.SyncCursor{
		UserID:         userID,
		DataType:       dataType,
		LastSyncTime:   time.Now().UTC(),
		LastRecordTime: watermark,
		Status:         model.SyncStatusSuccess,
		RecordsFetched: synced,
	})
	if err != nil {
		return fmt.Errorf("save %s cursor: %w", dataType, err)
	}
	return nil
}

// failCursor records a failed sync attempt without touching the record
// watermark, so the next run retries the same window.
func failCursor(ctx context.Context, cursors driven.CursorStore, userID int64, dataType model.DataType, syncErr error) error {
	prev, err := cursors.Get(ctx, userID, dataType)
	if err != nil {
		return fmt.Errorf("load %s cursor: %w", dataType, err)
	}

	cursor := model.SyncCursor{
		UserID:       userID,
		DataType:     dataType,
		LastSyncTime: time.Now().UTC(),
		Status:       model.SyncStatusError,
		ErrorMessage: syncErr.Error(),
	}
	if prev != nil {
		cursor.LastRecordTime = prev.LastRecordTime
	}

	if err := cursors.Save(ctx, cursor); err != nil {
		return fmt.Errorf("save %s cursor: %w", dataType, err)
	}
	return nil
}

// laterOf returns the later of a watermark candidate and the current value.
func laterOf(current *time.Time, candidate time.Time) *time.Time {
	if current == nil || candidate.After(*current) {
		return &candidate
	}
	return current
}
