package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/efisher/whoopsync/internal/domain/model"
	"github.com/efisher/whoopsync/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.CursorStore = (*CursorRepo)(nil)

// CursorRepo is the SQLite implementation of the CursorStore port. One row
// per (user, data type) pair tracks incremental sync progress.
type CursorRepo struct {
	db *DB
}

// NewCursorRepo creates a CursorRepo.
func NewCursorRepo(db *DB) *CursorRepo {
	return &CursorRepo{db: db}
}

// Get retrieves the sync cursor for a user and data type. Returns
// (nil, nil) if no sync has been recorded yet.
func (r *CursorRepo) Get(ctx context.Context, userID int64, dataType model.DataType) (*model.SyncCursor, error) {
	const query = `
		SELECT user_id, data_type, last_sync_time, last_record_time, status, error_message, records_fetched, created_at, updated_at
		FROM sync_status
		WHERE user_id = ? AND data_type = ?
	`

	row := r.db.Reader.QueryRowContext(ctx, query, userID, string(dataType))
	cursor, err := scanCursor(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get cursor for user %d type %s: %w", userID, dataType, err)
	}

	return cursor, nil
}

// Save stores or replaces the sync cursor for its (user, data type) pair.
func (r *CursorRepo) Save(ctx context.Context, cursor model.SyncCursor) error {
	const query = `
		INSERT INTO sync_status (user_id, data_type, last_sync_time, last_record_time, status, error_message, records_fetched, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id, data_type) DO UPDATE SET
			last_sync_time = excluded.last_sync_time,
			last_record_time = excluded.last_record_time,
			status = excluded.status,
			error_message = excluded.error_message,
			records_fetched = excluded.records_fetched,
			updated_at = excluded.updated_at
	`

	var lastRecord any
	if cursor.LastRecordTime != nil {
		lastRecord = formatTime(*cursor.LastRecordTime)
	}

	_, err := r.db.Writer.ExecContext(ctx, query,
		cursor.UserID, string(cursor.DataType), formatTime(cursor.LastSyncTime),
		lastRecord, string(cursor.Status), cursor.ErrorMessage,
		cursor.RecordsFetched, formatTime(time.Now()),
	)
	if err != nil {
		return fmt.Errorf("save cursor for user %d type %s: %w", cursor.UserID, cursor.DataType, err)
	}

	return nil
}

// ListByUser returns all sync cursors recorded for a user.
func (r *CursorRepo) ListByUser(ctx context.Context, userID int64) ([]model.SyncCursor, error) {
	const query = `
		SELECT user_id, data_type, last_sync_time, last_record_time, status, error_message, records_fetched, created_at, updated_at
		FROM sync_status
		WHERE user_id = ?
		ORDER BY data_type
	`

	rows, err := r.db.Reader.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list cursors for user %d: %w", userID, err)
	}
	defer rows.Close()

	var cursors []model.SyncCursor
	for rows.Next() {
		cursor, err := scanCursor(rows)
		if err != nil {
			return nil, fmt.Errorf("scan cursor: %w", err)
		}
		cursors = append(cursors, *cursor)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cursors: %w", err)
	}

	return cursors, nil
}

func scanCursor(s scanner) (*model.SyncCursor, error) {
	var cursor model.SyncCursor
	var dataType, status string
	var lastSync, createdAt, updatedAt string
	var lastRecord sql.NullString

	err := s.Scan(
		&cursor.UserID, &dataType, &lastSync, &lastRecord,
		&status, &cursor.ErrorMessage, &cursor.RecordsFetched,
		&createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	cursor.DataType = model.DataType(dataType)
	cursor.Status = model.SyncStatus(status)

	cursor.LastSyncTime, err = parseTime(lastSync)
	if err != nil {
		return nil, fmt.Errorf("parse last_sync_time: %w", err)
	}
	if lastRecord.Valid {
		t, err := parseTime(lastRecord.String)
		if err != nil {
			return nil, fmt.Errorf("parse last_record_time: %w", err)
		}
		cursor.LastRecordTime = &t
	}
	cursor.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	cursor.UpdatedAt, err = parseTime(updatedAt)
	if err != nil {
		return nil, fmt.Errorf("parse updated_at: %w", err)
	}

	return &cursor, nil
}
