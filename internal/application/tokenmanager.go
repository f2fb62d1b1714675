// Package application contains the domain services that orchestrate token
// lifecycle, per-type syncing, and full sync runs.
package application

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/efisher/whoopsync/internal/domain/model"
	"github.com/efisher/whoopsync/internal/domain/port/driven"
)

// refreshThreshold is how close to expiry a token may get before it is
// refreshed ahead of use.
const refreshThreshold = 5 * time.Minute

// TokenManager owns the OAuth credential lifecycle for all users: storing
// exchanged tokens, serving valid access tokens, and refreshing proactively
// before expiry. Concurrent refreshes for the same user are coalesced into
// a single token endpoint call.
type TokenManager struct {
	store driven.TokenStore
	oauth driven.OAuthClient

	refreshGroup singleflight.Group
}

// NewTokenManager creates a TokenManager.
func NewTokenManager(store driven.TokenStore, oauth driven.OAuthClient) *TokenManager {
	return &TokenManager{store: store, oauth: oauth}
}

// SaveToken persists a token endpoint response as the user's credential,
// replacing any previous one.
func (m *TokenManager) SaveToken(ctx context.Context, userID int64, token *model.TokenResponse) error {
	cred := model.Credential{
		UserID:       userID,
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		TokenType:    token.TokenType,
		ExpiresAt:    time.Now().Add(time.Duration(token.ExpiresIn) * time.Second),
		Scopes:       strings.Fields(token.Scope),
	}
	if cred.TokenType == "" {
		cred.TokenType = "Bearer"
	}

	if err := m.store.Save(ctx, cred); err != nil {
		return fmt.Errorf("store token: %w", err)
	}

	slog.Info("stored credential",
		"user_id", userID,
		"expires_at", cred.ExpiresAt,
		"scopes", cred.Scopes,
	)
	return nil
}

// ValidAccessToken returns an access token guaranteed to be usable for at
// least the refresh threshold, refreshing it first if necessary. Returns
// ("", nil) when the user has no stored credential; a failed refresh is an
// error, the stale token is never returned.
func (m *TokenManager) ValidAccessToken(ctx context.Context, userID int64) (string, error) {
	cred, err := m.store.Get(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("load credential: %w", err)
	}
	if cred == nil {
		return "", nil
	}

	if time.Until(cred.ExpiresAt) > refreshThreshold {
		return cred.AccessToken, nil
	}

	refreshed, err := m.refresh(ctx, userID, cred.RefreshToken)
	if err != nil {
		return "", err
	}
	return refreshed, nil
}

// refresh exchanges the refresh token for a new pair and stores it.
// Simultaneous callers for one user share a single refresh; the key is the
// user id so distinct users never block each other.
func (m *TokenManager) refresh(ctx context.Context, userID int64, refreshToken string) (string, error) {
	key := fmt.Sprintf("refresh:%d", userID)
	result, err, _ := m.refreshGroup.Do(key, func() (any, error) {
		slog.Info("refreshing access token", "user_id", userID)

		token, err := m.oauth.Refresh(ctx, refreshToken)
		if err != nil {
			return nil, fmt.Errorf("refresh token for user %d: %w", userID, err)
		}
		if err := m.SaveToken(ctx, userID, token); err != nil {
			return nil, err
		}
		return token.AccessToken, nil
	})
	if err != nil {
		return "", err
	}

	return result.(string), nil
}

// IsValid reports whether the user currently holds a usable, unexpired
// credential. It never triggers a refresh.
func (m *TokenManager) IsValid(ctx context.Context, userID int64) (bool, error) {
	cred, err := m.store.Get(ctx, userID)
	if err != nil {
		return false, fmt.Errorf("load credential: %w", err)
	}
	if cred == nil {
		return false, nil
	}
	return time.Now().Before(cred.ExpiresAt), nil
}

// Info returns a diagnostic snapshot of the user's credential, or
// (nil, nil) when none is stored.
func (m *TokenManager) Info(ctx context.Context, userID int64) (*model.TokenInfo, error) {
	cred, err := m.store.Get(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load credential: %w", err)
	}
	if cred == nil {
		return nil, nil
	}

	until := time.Until(cred.ExpiresAt)
	return &model.TokenInfo{
		UserID:             cred.UserID,
		TokenType:          cred.TokenType,
		Scopes:             cred.Scopes,
		ExpiresAt:          cred.ExpiresAt,
		SecondsUntilExpiry: until.Seconds(),
		IsExpired:          until <= 0,
		NeedsRefresh:       until <= refreshThreshold,
	}, nil
}

// Revoke discards the user's stored credential. Reports whether one
// existed.
func (m *TokenManager) Revoke(ctx context.Context, userID int64) (bool, error) {
	existed, err := m.store.Delete(ctx, userID)
	if err != nil {
		return false, fmt.Errorf("delete credential: %w", err)
	}
	if existed {
		slog.Info("revoked credential", "user_id", userID)
	}
	return existed, nil
}
