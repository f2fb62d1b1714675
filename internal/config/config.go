// Package config loads application configuration from environment variables.
package config

import (
	"encoding/base64"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/efisher/whoopsync/internal/adapter/driven/whoop"
)

// Config holds the application configuration loaded from environment variables.
type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string

	// EncryptionKey is the 32-byte AES-256 key protecting stored tokens,
	// or nil when WHOOPSYNC_ENCRYPTION_KEY is unset.
	EncryptionKey []byte

	APIBaseURL string
	AuthURL    string
	TokenURL   string

	DBPath       string
	SyncInterval time.Duration

	MaxRequestsPerMinute int
	RateSafetyMargin     float64
}

// HasOAuthCredentials returns true when both ClientID and ClientSecret are
// non-empty. Commands that talk to the vendor refuse to start without them.
func (c *Config) HasOAuthCredentials() bool {
	return c.ClientID != "" && c.ClientSecret != ""
}

// Load reads configuration from environment variables and returns a
// validated Config. WHOOPSYNC_CLIENT_ID and WHOOPSYNC_CLIENT_SECRET carry
// the registered OAuth application's credentials. WHOOPSYNC_ENCRYPTION_KEY
// is a base64-encoded 32-byte key; without it the token store is disabled.
// Optional variables with defaults: WHOOPSYNC_REDIRECT_URI
// (http://localhost:8000/callback), WHOOPSYNC_DB_PATH (whoopsync.db),
// WHOOPSYNC_SYNC_INTERVAL (15m), WHOOPSYNC_MAX_REQUESTS_PER_MINUTE (60),
// WHOOPSYNC_RATE_SAFETY_MARGIN (0.9), plus vendor URL overrides for tests.
func Load() (*Config, error) {
	cfg := &Config{
		ClientID:     os.Getenv("WHOOPSYNC_CLIENT_ID"),
		ClientSecret: os.Getenv("WHOOPSYNC_CLIENT_SECRET"),

		RedirectURI: "http://localhost:8000/callback",
		APIBaseURL:  whoop.DefaultBaseURL,
		AuthURL:     whoop.DefaultAuthURL,
		TokenURL:    whoop.DefaultTokenURL,

		DBPath:       "whoopsync.db",
		SyncInterval: 15 * time.Minute,

		MaxRequestsPerMinute: 60,
		RateSafetyMargin:     0.9,
	}

	if v, ok := os.LookupEnv("WHOOPSYNC_ENCRYPTION_KEY"); ok && v != "" {
		key, err := base64.StdEncoding.DecodeString(v)
		if err != nil {
			return nil, fmt.Errorf("WHOOPSYNC_ENCRYPTION_KEY is not valid base64: %w", err)
		}
		if len(key) != 32 {
			return nil, fmt.Errorf("WHOOPSYNC_ENCRYPTION_KEY must decode to 32 bytes, got %d", len(key))
		}
		cfg.EncryptionKey = key
	}

	if v, ok := os.LookupEnv("WHOOPSYNC_REDIRECT_URI"); ok {
		cfg.RedirectURI = v
	}
	if v, ok := os.LookupEnv("WHOOPSYNC_API_BASE_URL"); ok {
		cfg.APIBaseURL = v
	}
	if v, ok := os.LookupEnv("WHOOPSYNC_AUTH_URL"); ok {
		cfg.AuthURL = v
	}
	if v, ok := os.LookupEnv("WHOOPSYNC_TOKEN_URL"); ok {
		cfg.TokenURL = v
	}
	if v, ok := os.LookupEnv("WHOOPSYNC_DB_PATH"); ok {
		cfg.DBPath = v
	}

	if v, ok := os.LookupEnv("WHOOPSYNC_SYNC_INTERVAL"); ok {
		interval, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("WHOOPSYNC_SYNC_INTERVAL has invalid duration %q: %w", v, err)
		}
		if interval <= 0 {
			return nil, fmt.Errorf("WHOOPSYNC_SYNC_INTERVAL must be positive, got %q", v)
		}
		cfg.SyncInterval = interval
	}

	if v, ok := os.LookupEnv("WHOOPSYNC_MAX_REQUESTS_PER_MINUTE"); ok {
		max, err := strconv.Atoi(v)
		if err != nil || max <= 0 {
			return nil, fmt.Errorf("WHOOPSYNC_MAX_REQUESTS_PER_MINUTE must be a positive integer, got %q", v)
		}
		cfg.MaxRequestsPerMinute = max
	}

	if v, ok := os.LookupEnv("WHOOPSYNC_RATE_SAFETY_MARGIN"); ok {
		margin, err := strconv.ParseFloat(v, 64)
		if err != nil || margin <= 0 || margin > 1 {
			return nil, fmt.Errorf("WHOOPSYNC_RATE_SAFETY_MARGIN must be in (0, 1], got %q", v)
		}
		cfg.RateSafetyMargin = margin
	}

	return cfg, nil
}
