package driven

import (
	"context"

	"github.com/efisher/whoopsync/internal/domain/model"
)

// TokenStore persists OAuth credentials, one per user. The adapter layer is
// responsible for encryption at rest; this interface operates on plaintext
// token values at the domain boundary.
type TokenStore interface {
	// Save stores or replaces the user's credential.
	Save(ctx context.Context, cred model.Credential) error

	// Get retrieves the user's credential with decrypted token values.
	// Returns (nil, nil) if no credential exists.
	Get(ctx context.Context, userID int64) (*model.Credential, error)

	// Delete removes the user's credential. Reports whether a credential
	// existed; deleting an absent credential is not an error.
	Delete(ctx context.Context, userID int64) (bool, error)
}

// CursorStore persists sync cursors, one per (user, data type).
type CursorStore interface {
	// Get returns the cursor for the pair, or (nil, nil) if none exists yet.
	Get(ctx context.Context, userID int64, dataType model.DataType) (*model.SyncCursor, error)

	// Save stores or replaces the cursor row atomically.
	Save(ctx context.Context, cursor model.SyncCursor) error

	// ListByUser returns all cursors for the user.
	ListByUser(ctx context.Context, userID int64) ([]model.SyncCursor, error)
}

// SleepStore persists sleep records keyed on the vendor-assigned id.
type SleepStore interface {
	Upsert(ctx context.Context, rec model.SleepRecord) error
	Statistics(ctx context.Context, userID int64) (model.RecordStats, error)
}

// RecoveryStore persists recovery records under locally assigned ids.
type RecoveryStore interface {
	Insert(ctx context.Context, rec model.RecoveryRecord) error
	Statistics(ctx context.Context, userID int64) (model.RecordStats, error)
}

// WorkoutStore persists workout records keyed on the vendor-assigned id.
type WorkoutStore interface {
	Upsert(ctx context.Context, rec model.WorkoutRecord) error
	Statistics(ctx context.Context, userID int64) (model.RecordStats, error)
}

// CycleStore persists cycle records under locally assigned ids.
type CycleStore interface {
	Insert(ctx context.Context, rec model.CycleRecord) error
	Statistics(ctx context.Context, userID int64) (model.RecordStats, error)
}

// UserStore persists the authorized users whose data is synced.
type UserStore interface {
	// Upsert creates the user identified by WhoopUserID or updates their
	// email, and returns the stored row.
	Upsert(ctx context.Context, user model.User) (*model.User, error)

	// GetByWhoopID returns the user with the given vendor id, or (nil, nil).
	GetByWhoopID(ctx context.Context, whoopUserID string) (*model.User, error)

	// ListAll returns every registered user.
	ListAll(ctx context.Context) ([]model.User, error)
}
