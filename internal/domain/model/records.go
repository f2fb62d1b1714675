package model

import (
	"time"

	"github.com/google/uuid"
)

// Score states reported by the vendor for every record type.
const (
	ScoreStateScored       = "SCORED"
	ScoreStatePendingScore = "PENDING_SCORE"
	ScoreStateUnscorable   = "UNSCORABLE"
)

// SleepRecord is a persisted sleep activity. The ID is the vendor-assigned
// UUID, so re-fetching the same sleep updates the existing row. Score
// metrics are nil while the vendor reports PENDING_SCORE or UNSCORABLE.
type SleepRecord struct {
	ID                 uuid.UUID
	UserID             int64
	StartTime          time.Time
	EndTime            time.Time
	TimezoneOffset     string
	LightSleepMilli    *int64
	SlowWaveSleepMilli *int64
	REMSleepMilli      *int64
	AwakeMilli         *int64
	PerformancePct     *float64
	ConsistencyPct     *float64
	RespiratoryRate    *float64
	EfficiencyPct      *float64
	ScoreState         string
	IsNap              bool
	RawData            []byte
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// RecoveryRecord is a persisted recovery reading. The vendor does not
// assign recovery records their own id, so the ID is generated locally at
// insert time. RecordedAt carries the vendor's created_at timestamp and
// drives cursor advancement.
type RecoveryRecord struct {
	ID             uuid.UUID
	UserID         int64
	RecordedAt     time.Time
	RecoveryScore  *float64
	RestingHR      *int64
	HRVRMSSDMilli  *float64
	SpO2Pct        *float64
	SkinTempC      *float64
	ScoreState     string
	Calibrating    bool
	RawData        []byte
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// WorkoutRecord is a persisted workout activity keyed on the vendor UUID.
type WorkoutRecord struct {
	ID                   uuid.UUID
	UserID               int64
	StartTime            time.Time
	EndTime              time.Time
	TimezoneOffset       string
	SportID              *int64
	SportName            string
	StrainScore          *float64
	AverageHR            *int64
	MaxHR                *int64
	Kilojoules           *float64
	DistanceMeters       *float64
	AltitudeGainMeters   *float64
	AltitudeChangeMeters *float64
	ZoneZeroMilli        *int64
	ZoneOneMilli         *int64
	ZoneTwoMilli         *int64
	ZoneThreeMilli       *int64
	ZoneFourMilli        *int64
	ZoneFiveMilli        *int64
	ScoreState           string
	RawData              []byte
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// CycleRecord is a persisted physiological cycle. The vendor keys cycles by
// integer id, so the ID is generated locally; the vendor id survives inside
// RawData. Cycles still in progress (null end) are never persisted.
type CycleRecord struct {
	ID             uuid.UUID
	UserID         int64
	StartTime      time.Time
	EndTime        time.Time
	TimezoneOffset string
	StrainScore    *float64
	Kilojoules     *float64
	AverageHR      *int64
	MaxHR          *int64
	ScoreState     string
	RawData        []byte
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// RecordStats summarizes one record table for a user.
type RecordStats struct {
	TotalRecords   int64
	EarliestRecord *time.Time
	LatestRecord   *time.Time
	PendingScores  int64
}
