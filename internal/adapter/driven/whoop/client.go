// Package whoop implements the WhoopClient and OAuthClient ports against
// the Whoop v2 REST API.
package whoop

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gregjones/httpcache"

	"github.com/efisher/whoopsync/internal/domain/model"
	"github.com/efisher/whoopsync/internal/domain/port/driven"
	"github.com/efisher/whoopsync/internal/ratelimit"
)

// Compile-time interface satisfaction check.
var _ driven.WhoopClient = (*Client)(nil)

const (
	DefaultBaseURL = "https://api.prod.whoop.com"
	DefaultTimeout = 30 * time.Second

	// Whoop caps page size at 25 records.
	maxPageSize = 25

	sleepEndpoint    = "/developer/v2/activity/sleep"
	recoveryEndpoint = "/developer/v2/recovery"
	workoutEndpoint  = "/developer/v2/activity/workout"
	cycleEndpoint    = "/developer/v2/cycle"
	profileEndpoint  = "/developer/v2/user/profile/basic"
)

// TokenProvider resolves a currently-usable access token for a user.
// Returns an empty token (and nil error) when the user has no credential.
type TokenProvider interface {
	ValidAccessToken(ctx context.Context, userID int64) (string, error)
}

// Client is a rate-limited, authenticated Whoop v2 API client for one user.
// Every request passes through the shared rate limiter, resolves a fresh
// bearer token, and retries network-level failures with exponential backoff.
// HTTP error statuses are never retried.
type Client struct {
	userID     int64
	baseURL    string
	httpClient *http.Client
	limiter    *ratelimit.Limiter
	tokens     TokenProvider
}

// Option configures the client.
type Option func(*Client)

// WithBaseURL overrides the API base URL. Intended for tests against an
// httptest server.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithTimeout sets the HTTP request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithHTTPClient replaces the underlying HTTP client entirely.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// NewClient creates a Whoop API client. The transport stack places an
// in-memory ETag cache under the standard client so unchanged responses
// cost no bandwidth.
func NewClient(userID int64, tokens TokenProvider, limiter *ratelimit.Limiter, opts ...Option) *Client {
	c := &Client{
		userID:  userID,
		baseURL: DefaultBaseURL,
		httpClient: &http.Client{
			Transport: httpcache.NewMemoryCacheTransport(),
			Timeout:   DefaultTimeout,
		},
		limiter: limiter,
		tokens:  tokens,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// get performs one rate-limited, authenticated GET and returns the response
// body. Transient network failures are retried up to 3 attempts with
// exponential backoff (2s initial, 10s cap); each attempt re-admits through
// the rate limiter and re-resolves the token.
func (c *Client) get(ctx context.Context, endpoint string, params url.Values) ([]byte, error) {
	var body []byte

	attempt := func() error {
		if err := c.limiter.Admit(ctx); err != nil {
			return backoff.Permanent(fmt.Errorf("rate limit wait: %w", err))
		}

		token, err := c.tokens.ValidAccessToken(ctx, c.userID)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("resolve access token: %w", err))
		}
		if token == "" {
			return backoff.Permanent(driven.ErrNoToken)
		}

		reqURL := c.baseURL + endpoint
		if len(params) > 0 {
			reqURL += "?" + params.Encode()
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("create request: %w", err))
		}
		req.Header.Set("Authorization", "Bearer "+token)
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			// Network-level failure: let backoff retry it.
			slog.Warn("whoop request failed, will retry",
				"endpoint", endpoint,
				"error", err,
			)
			return err
		}
		defer resp.Body.Close()

		respBody, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("read response body: %w", err)
		}

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			slog.Error("whoop request rejected",
				"endpoint", endpoint,
				"status_code", resp.StatusCode,
			)
			return backoff.Permanent(&APIError{
				StatusCode: resp.StatusCode,
				Message:    string(respBody),
				Endpoint:   endpoint,
			})
		}

		body = respBody
		return nil
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 2 * time.Second
	policy.MaxInterval = 10 * time.Second

	err := backoff.Retry(attempt, backoff.WithContext(backoff.WithMaxRetries(policy, 2), ctx))
	if err != nil {
		return nil, err
	}

	return body, nil
}

// pageResponse is the envelope of every paginated Whoop collection endpoint.
type pageResponse struct {
	Records   []json.RawMessage `json:"records"`
	NextToken *string           `json:"next_token"`
}

// fetchAll walks the cursor pagination of endpoint and returns every raw
// record across all pages, in page order. Page N+1 is never requested
// before page N's response is consumed.
func (c *Client) fetchAll(ctx context.Context, endpoint string, start, end *time.Time) ([]json.RawMessage, error) {
	params := url.Values{}
	params.Set("limit", strconv.Itoa(maxPageSize))
	if start != nil {
		params.Set("start", formatTimestamp(*start))
	}
	if end != nil {
		params.Set("end", formatTimestamp(*end))
	}

	var records []json.RawMessage
	nextToken := ""
	page := 0

	for {
		page++
		if nextToken != "" {
			params.Set("nextToken", nextToken)
		}

		body, err := c.get(ctx, endpoint, params)
		if err != nil {
			return nil, err
		}

		var resp pageResponse
		if err := json.Unmarshal(body, &resp); err != nil {
			return nil, fmt.Errorf("decode page %d of %s: %w", page, endpoint, err)
		}

		records = append(records, resp.Records...)

		slog.Debug("fetched page",
			"endpoint", endpoint,
			"page", page,
			"records", len(resp.Records),
			"has_next", resp.NextToken != nil && *resp.NextToken != "",
		)

		if resp.NextToken == nil || *resp.NextToken == "" || len(resp.Records) == 0 {
			break
		}
		nextToken = *resp.NextToken
	}

	return records, nil
}

// FetchSleepRecords returns all sleep records in [start, end) across all
// pages. A record that fails to decode is logged and skipped; it does not
// abort the fetch.
func (c *Client) FetchSleepRecords(ctx context.Context, start, end *time.Time) ([]model.SleepPayload, error) {
	raws, err := c.fetchAll(ctx, sleepEndpoint, start, end)
	if err != nil {
		return nil, err
	}

	records := make([]model.SleepPayload, 0, len(raws))
	for _, raw := range raws {
		var rec model.SleepPayload
		if err := json.Unmarshal(raw, &rec); err != nil {
			slog.Error("skipping undecodable sleep record", "user_id", c.userID, "error", err)
			continue
		}
		rec.Raw = raw
		records = append(records, rec)
	}

	slog.Info("fetched sleep records", "user_id", c.userID, "count", len(records))
	return records, nil
}

// FetchRecoveryRecords returns all recovery records in [start, end).
func (c *Client) FetchRecoveryRecords(ctx context.Context, start, end *time.Time) ([]model.RecoveryPayload, error) {
	raws, err := c.fetchAll(ctx, recoveryEndpoint, start, end)
	if err != nil {
		return nil, err
	}

	records := make([]model.RecoveryPayload, 0, len(raws))
	for _, raw := range raws {
		var rec model.RecoveryPayload
		if err := json.Unmarshal(raw, &rec); err != nil {
			slog.Error("skipping undecodable recovery record", "user_id", c.userID, "error", err)
			continue
		}
		rec.Raw = raw
		records = append(records, rec)
	}

	slog.Info("fetched recovery records", "user_id", c.userID, "count", len(records))
	return records, nil
}

// FetchWorkoutRecords returns all workout records in [start, end).
func (c *Client) FetchWorkoutRecords(ctx context.Context, start, end *time.Time) ([]model.WorkoutPayload, error) {
	raws, err := c.fetchAll(ctx, workoutEndpoint, start, end)
	if err != nil {
		return nil, err
	}

	records := make([]model.WorkoutPayload, 0, len(raws))
	for _, raw := range raws {
		var rec model.WorkoutPayload
		if err := json.Unmarshal(raw, &rec); err != nil {
			slog.Error("skipping undecodable workout record", "user_id", c.userID, "error", err)
			continue
		}
		rec.Raw = raw
		records = append(records, rec)
	}

	slog.Info("fetched workout records", "user_id", c.userID, "count", len(records))
	return records, nil
}

// FetchCycleRecords returns all cycle records in [start, end).
func (c *Client) FetchCycleRecords(ctx context.Context, start, end *time.Time) ([]model.CyclePayload, error) {
	raws, err := c.fetchAll(ctx, cycleEndpoint, start, end)
	if err != nil {
		return nil, err
	}

	records := make([]model.CyclePayload, 0, len(raws))
	for _, raw := range raws {
		var rec model.CyclePayload
		if err := json.Unmarshal(raw, &rec); err != nil {
			slog.Error("skipping undecodable cycle record", "user_id", c.userID, "error", err)
			continue
		}
		rec.Raw = raw
		records = append(records, rec)
	}

	slog.Info("fetched cycle records", "user_id", c.userID, "count", len(records))
	return records, nil
}

// FetchProfile returns the authorized user's basic profile.
func (c *Client) FetchProfile(ctx context.Context) (*model.UserProfile, error) {
	body, err := c.get(ctx, profileEndpoint, nil)
	if err != nil {
		return nil, err
	}

	var profile model.UserProfile
	if err := json.Unmarshal(body, &profile); err != nil {
		return nil, fmt.Errorf("decode profile: %w", err)
	}

	return &profile, nil
}

// formatTimestamp serializes a time as UTC with millisecond precision and a
// literal Z suffix, the only format the Whoop API accepts.
func formatTimestamp(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000") + "Z"
}
