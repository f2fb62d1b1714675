package driven

import (
	"context"
	"time"

	"github.com/efisher/whoopsync/internal/domain/model"
)

// WhoopClient defines the driven port for the Whoop v2 API. Every fetch is
// rate-limited and authenticated by the adapter, paginates through the
// vendor's cursor scheme, and returns the flattened record set across all
// pages. start and end bound the fetch as [start, end); either may be nil
// for an open bound.
type WhoopClient interface {
	FetchSleepRecords(ctx context.Context, start, end *time.Time) ([]model.SleepPayload, error)
	FetchRecoveryRecords(ctx context.Context, start, end *time.Time) ([]model.RecoveryPayload, error)
	FetchWorkoutRecords(ctx context.Context, start, end *time.Time) ([]model.WorkoutPayload, error)
	FetchCycleRecords(ctx context.Context, start, end *time.Time) ([]model.CyclePayload, error)

	// FetchProfile returns the authorized user's basic profile.
	FetchProfile(ctx context.Context) (*model.UserProfile, error)
}

// OAuthClient defines the driven port for the vendor's OAuth2 authorization
// server (authorization-code grant with PKCE).
type OAuthClient interface {
	// AuthorizationURL builds the consent URL the user must visit. It
	// returns the URL plus the generated state and PKCE code verifier the
	// caller needs for the subsequent exchange.
	AuthorizationURL() (authURL, state, verifier string, err error)

	// Exchange trades an authorization code (and its PKCE verifier) for
	// tokens.
	Exchange(ctx context.Context, code, verifier string) (*model.TokenResponse, error)

	// Refresh obtains a new token pair using a refresh token.
	Refresh(ctx context.Context, refreshToken string) (*model.TokenResponse, error)
}
