package model

import (
	"fmt"
	"time"
)

// DataType identifies one of the four synced record streams.
type DataType string

const (
	DataTypeSleep    DataType = "sleep"
	DataTypeRecovery DataType = "recovery"
	DataTypeWorkout  DataType = "workout"
	DataTypeCycle    DataType = "cycle"
)

// AllDataTypes lists every known data type in sync order.
var AllDataTypes = []DataType{DataTypeSleep, DataTypeRecovery, DataTypeWorkout, DataTypeCycle}

// ValidDataType reports whether dt is one of the four known types.
func ValidDataType(dt DataType) bool {
	for _, known := range AllDataTypes {
		if dt == known {
			return true
		}
	}
	return false
}

// SyncStatus is the outcome of the most recent sync attempt for one
// (user, data type) pair.
type SyncStatus string

const (
	SyncStatusSuccess    SyncStatus = "success"
	SyncStatusError      SyncStatus = "error"
	SyncStatusInProgress SyncStatus = "in_progress"
)

// SyncCursor is the per-user, per-data-type bookmark that seeds the next
// incremental fetch. LastRecordTime is monotonically non-decreasing across
// successful runs; a run overwrites its own row atomically.
type SyncCursor struct {
	UserID         int64
	DataType       DataType
	LastSyncTime   time.Time
	LastRecordTime *time.Time
	Status         SyncStatus
	ErrorMessage   string
	RecordsFetched int
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// TypeResult is the captured outcome of one data type's sync within a
// full sync run.
type TypeResult struct {
	Status        SyncStatus
	RecordsSynced int
	Error         string
}

// SyncSummary aggregates the per-type outcomes of one full sync run.
// TotalRecords sums only successful types; TotalErrors counts failed types.
type SyncSummary struct {
	UserID       int64
	SyncTime     time.Time
	TotalRecords int
	TotalErrors  int
	Results      map[DataType]TypeResult
}

func (s SyncSummary) String() string {
	return fmt.Sprintf("synced %d records for user %d (%d type errors)",
		s.TotalRecords, s.UserID, s.TotalErrors)
}
