package model

import "time"

// Credential is a user's stored OAuth credential pair. Exactly one
// credential exists per user; refreshes overwrite it in place rather than
// appending history. Token values cross the store boundary in plaintext --
// the storage adapter owns encryption at rest.
type Credential struct {
	UserID       int64
	AccessToken  string
	RefreshToken string
	TokenType    string
	ExpiresAt    time.Time
	Scopes       []string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// TokenInfo is a read-only diagnostic snapshot of a stored credential.
// Producing it never triggers a refresh.
type TokenInfo struct {
	UserID             int64
	TokenType          string
	Scopes             []string
	ExpiresAt          time.Time
	SecondsUntilExpiry float64
	IsExpired          bool
	NeedsRefresh       bool
}

// User is an authorized subject whose Whoop data is synced.
type User struct {
	ID          int64
	WhoopUserID string
	Email       string
	CreatedAt   time.Time
}
