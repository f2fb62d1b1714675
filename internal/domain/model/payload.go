package model

import "time"

// Vendor response payloads for the Whoop v2 API. Optional score sections
// decode to nil pointers when the vendor has not scored the record yet.
// Raw carries the undecoded record body so the full response survives in
// storage regardless of which fields the typed view extracts.

// SleepPayload is one record from the sleep collection endpoint.
type SleepPayload struct {
	ID             string      `json:"id"`
	Start          time.Time   `json:"start"`
	End            time.Time   `json:"end"`
	TimezoneOffset string      `json:"timezone_offset"`
	Nap            bool        `json:"nap"`
	ScoreState     string      `json:"score_state"`
	Score          *SleepScore `json:"score"`

	Raw []byte `json:"-"`
}

// SleepScore is the nested score section of a scored sleep.
type SleepScore struct {
	StageSummary        StageSummary `json:"stage_summary"`
	RespiratoryRate     *float64     `json:"respiratory_rate"`
	SleepPerformancePct *float64     `json:"sleep_performance_percentage"`
	SleepConsistencyPct *float64     `json:"sleep_consistency_percentage"`
	SleepEfficiencyPct  *float64     `json:"sleep_efficiency_percentage"`
}

// StageSummary breaks a sleep into per-stage durations.
type StageSummary struct {
	TotalLightSleepMilli    *int64 `json:"total_light_sleep_time_milli"`
	TotalSlowWaveSleepMilli *int64 `json:"total_slow_wave_sleep_time_milli"`
	TotalREMSleepMilli      *int64 `json:"total_rem_sleep_time_milli"`
	TotalAwakeMilli         *int64 `json:"total_awake_time_milli"`
}

// RecoveryPayload is one record from the recovery collection endpoint.
// Recoveries carry no id of their own; they reference the cycle and sleep
// they score, and created_at orders them for incremental sync.
type RecoveryPayload struct {
	CycleID    int64          `json:"cycle_id"`
	SleepID    string         `json:"sleep_id"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	ScoreState string         `json:"score_state"`
	Score      *RecoveryScore `json:"score"`

	Raw []byte `json:"-"`
}

// RecoveryScore is the nested score section of a scored recovery.
type RecoveryScore struct {
	UserCalibrating bool     `json:"user_calibrating"`
	RecoveryScore   *float64 `json:"recovery_score"`
	RestingHR       *int64   `json:"resting_heart_rate"`
	HRVRMSSDMilli   *float64 `json:"hrv_rmssd_milli"`
	SpO2Pct         *float64 `json:"spo2_percentage"`
	SkinTempCelsius *float64 `json:"skin_temp_celsius"`
}

// WorkoutPayload is one record from the workout collection endpoint.
type WorkoutPayload struct {
	ID             string        `json:"id"`
	Start          time.Time     `json:"start"`
	End            time.Time     `json:"end"`
	TimezoneOffset string        `json:"timezone_offset"`
	SportID        *int64        `json:"sport_id"`
	SportName      string        `json:"sport_name"`
	ScoreState     string        `json:"score_state"`
	Score          *WorkoutScore `json:"score"`

	Raw []byte `json:"-"`
}

// WorkoutScore is the nested score section of a scored workout.
type WorkoutScore struct {
	Strain              *float64      `json:"strain"`
	AverageHR           *int64        `json:"average_heart_rate"`
	MaxHR               *int64        `json:"max_heart_rate"`
	Kilojoule           *float64      `json:"kilojoule"`
	DistanceMeter       *float64      `json:"distance_meter"`
	AltitudeGainMeter   *float64      `json:"altitude_gain_meter"`
	AltitudeChangeMeter *float64      `json:"altitude_change_meter"`
	ZoneDuration        *ZoneDuration `json:"zone_duration"`
}

// ZoneDuration is time spent in each heart rate zone.
type ZoneDuration struct {
	ZoneZeroMilli  *int64 `json:"zone_zero_milli"`
	ZoneOneMilli   *int64 `json:"zone_one_milli"`
	ZoneTwoMilli   *int64 `json:"zone_two_milli"`
	ZoneThreeMilli *int64 `json:"zone_three_milli"`
	ZoneFourMilli  *int64 `json:"zone_four_milli"`
	ZoneFiveMilli  *int64 `json:"zone_five_milli"`
}

// CyclePayload is one record from the cycle collection endpoint. End is nil
// while the cycle is still in progress.
type CyclePayload struct {
	ID             int64       `json:"id"`
	Start          time.Time   `json:"start"`
	End            *time.Time  `json:"end"`
	TimezoneOffset string      `json:"timezone_offset"`
	ScoreState     string      `json:"score_state"`
	Score          *CycleScore `json:"score"`

	Raw []byte `json:"-"`
}

// CycleScore is the nested score section of a scored cycle.
type CycleScore struct {
	Strain    *float64 `json:"strain"`
	Kilojoule *float64 `json:"kilojoule"`
	AverageHR *int64   `json:"average_heart_rate"`
	MaxHR     *int64   `json:"max_heart_rate"`
}

// UserProfile is the basic profile of the authorized user.
type UserProfile struct {
	UserID    int64  `json:"user_id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// TokenResponse is the body of a successful OAuth token endpoint call.
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
	Scope        string `json:"scope"`
}
