package whoop

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/efisher/whoopsync/internal/domain/model"
	"github.com/efisher/whoopsync/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.OAuthClient = (*OAuth)(nil)

const (
	DefaultAuthURL  = "https://api.prod.whoop.com/oauth/oauth2/auth"
	DefaultTokenURL = "https://api.prod.whoop.com/oauth/oauth2/token"
)

// Scopes required for data access. "offline" grants refresh tokens.
var defaultScopes = []string{
	"read:sleep",
	"read:workout",
	"read:recovery",
	"read:cycles",
	"offline",
}

// OAuth implements the authorization-code grant with PKCE (S256) against
// the Whoop authorization server.
type OAuth struct {
	clientID     string
	clientSecret string
	redirectURI  string
	authURL      string
	tokenURL     string
	scopes       []string
	httpClient   *http.Client
}

// OAuthConfig carries the registered application's OAuth parameters.
type OAuthConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
	AuthURL      string // DefaultAuthURL if empty
	TokenURL     string // DefaultTokenURL if empty
}

// NewOAuth creates an OAuth client.
func NewOAuth(cfg OAuthConfig) *OAuth {
	authURL := cfg.AuthURL
	if authURL == "" {
		authURL = DefaultAuthURL
	}
	tokenURL := cfg.TokenURL
	if tokenURL == "" {
		tokenURL = DefaultTokenURL
	}

	return &OAuth{
		clientID:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
		redirectURI:  cfg.RedirectURI,
		authURL:      authURL,
		tokenURL:     tokenURL,
		scopes:       defaultScopes,
		httpClient:   &http.Client{Timeout: 30 * time.Second},
	}
}

// AuthorizationURL builds the consent URL with a fresh PKCE pair and CSRF
// state. The caller must hold on to the verifier for the code exchange.
func (o *OAuth) AuthorizationURL() (string, string, string, error) {
	verifier, challenge, err := generatePKCEPair()
	if err != nil {
		return "", "", "", err
	}

	state := uuid.NewString()

	params := url.Values{}
	params.Set("client_id", o.clientID)
	params.Set("redirect_uri", o.redirectURI)
	params.Set("response_type", "code")
	params.Set("scope", strings.Join(o.scopes, " "))
	params.Set("state", state)
	params.Set("code_challenge", challenge)
	params.Set("code_challenge_method", "S256")

	slog.Info("generated authorization URL", "scopes", o.scopes)

	return o.authURL + "?" + params.Encode(), state, verifier, nil
}

// Exchange trades an authorization code for tokens using the PKCE verifier
// from the authorization request.
func (o *OAuth) Exchange(ctx context.Context, code, verifier string) (*model.TokenResponse, error) {
	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("code", code)
	form.Set("redirect_uri", o.redirectURI)
	form.Set("client_id", o.clientID)
	form.Set("client_secret", o.clientSecret)
	form.Set("code_verifier", verifier)

	resp, err := o.postToken(ctx, form)
	if err != nil {
		return nil, fmt.Errorf("exchange authorization code: %w", err)
	}

	slog.Info("exchanged authorization code",
		"token_type", resp.TokenType,
		"expires_in", resp.ExpiresIn,
		"scope", resp.Scope,
	)

	return resp, nil
}

// Refresh obtains a new token pair. A failure here means the refresh token
// is expired or revoked; re-authorization is required.
func (o *OAuth) Refresh(ctx context.Context, refreshToken string) (*model.TokenResponse, error) {
	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", refreshToken)
	form.Set("client_id", o.clientID)
	form.Set("client_secret", o.clientSecret)

	resp, err := o.postToken(ctx, form)
	if err != nil {
		return nil, fmt.Errorf("refresh access token: %w", err)
	}

	slog.Info("refreshed access token",
		"token_type", resp.TokenType,
		"expires_in", resp.ExpiresIn,
	)

	return resp, nil
}

func (o *OAuth) postToken(ctx context.Context, form url.Values) (*model.TokenResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := o.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("token request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read token response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Message:    string(body),
			Endpoint:   o.tokenURL,
		}
	}

	var tokens model.TokenResponse
	if err := json.Unmarshal(body, &tokens); err != nil {
		return nil, fmt.Errorf("decode token response: %w", err)
	}

	return &tokens, nil
}

// generatePKCEPair produces a PKCE code verifier (32 random bytes,
// base64url without padding) and its S256 challenge.
func generatePKCEPair() (verifier, challenge string, err error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", "", fmt.Errorf("generate code verifier: %w", err)
	}

	verifier = base64.RawURLEncoding.EncodeToString(buf)
	sum := sha256.Sum256([]byte(verifier))
	challenge = base64.RawURLEncoding.EncodeToString(sum[:])

	return verifier, challenge, nil
}
