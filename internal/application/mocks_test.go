package application_test

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/efisher/whoopsync/internal/domain/model"
)

// --- Mock implementations ---

type mockWhoopClient struct {
	fetchSleep    func(ctx context.Context, start, end *time.Time) ([]model.SleepPayload, error)
	fetchRecovery func(ctx context.Context, start, end *time.Time) ([]model.RecoveryPayload, error)
	fetchWorkout  func(ctx context.Context, start, end *time.Time) ([]model.WorkoutPayload, error)
	fetchCycle    func(ctx context.Context, start, end *time.Time) ([]model.CyclePayload, error)
}

func (m *mockWhoopClient) FetchSleepRecords(ctx context.Context, start, end *time.Time) ([]model.SleepPayload, error) {
	if m.fetchSleep == nil {
		return nil, nil
	}
	return m.fetchSleep(ctx, start, end)
}

func (m *mockWhoopClient) FetchRecoveryRecords(ctx context.Context, start, end *time.Time) ([]model.RecoveryPayload, error) {
	if m.fetchRecovery == nil {
		return nil, nil
	}
	return m.fetchRecovery(ctx, start, end)
}

func (m *mockWhoopClient) FetchWorkoutRecords(ctx context.Context, start, end *time.Time) ([]model.WorkoutPayload, error) {
	if m.fetchWorkout == nil {
		return nil, nil
	}
	return m.fetchWorkout(ctx, start, end)
}

func (m *mockWhoopClient) FetchCycleRecords(ctx context.Context, start, end *time.Time) ([]model.CyclePayload, error) {
	if m.fetchCycle == nil {
		return nil, nil
	}
	return m.fetchCycle(ctx, start, end)
}

func (m *mockWhoopClient) FetchProfile(_ context.Context) (*model.UserProfile, error) {
	return &model.UserProfile{UserID: 1}, nil
}

type mockOAuthClient struct {
	mu          sync.Mutex
	refreshN    int
	refreshFunc func(ctx context.Context, refreshToken string) (*model.TokenResponse, error)
}

func (m *mockOAuthClient) AuthorizationURL() (string, string, string, error) {
	return "https://example.com/auth", "state", "verifier", nil
}

func (m *mockOAuthClient) Exchange(_ context.Context, _, _ string) (*model.TokenResponse, error) {
	return &model.TokenResponse{AccessToken: "exchanged", RefreshToken: "r", ExpiresIn: 3600}, nil
}

func (m *mockOAuthClient) Refresh(ctx context.Context, refreshToken string) (*model.TokenResponse, error) {
	m.mu.Lock()
	m.refreshN++
	m.mu.Unlock()
	if m.refreshFunc == nil {
		return &model.TokenResponse{AccessToken: "refreshed", RefreshToken: "r2", ExpiresIn: 3600}, nil
	}
	return m.refreshFunc(ctx, refreshToken)
}

func (m *mockOAuthClient) refreshCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.refreshN
}

// memTokenStore keeps credentials in memory, one per user.
type memTokenStore struct {
	mu    sync.Mutex
	creds map[int64]model.Credential
}

func newMemTokenStore() *memTokenStore {
	return &memTokenStore{creds: make(map[int64]model.Credential)}
}

func (s *memTokenStore) Save(_ context.Context, cred model.Credential) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creds[cred.UserID] = cred
	return nil
}

func (s *memTokenStore) Get(_ context.Context, userID int64) (*model.Credential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cred, ok := s.creds[userID]
	if !ok {
		return nil, nil
	}
	return &cred, nil
}

func (s *memTokenStore) Delete(_ context.Context, userID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.creds[userID]
	delete(s.creds, userID)
	return ok, nil
}

// memCursorStore keeps sync cursors in memory.
type memCursorStore struct {
	mu      sync.Mutex
	cursors map[string]model.SyncCursor
}

func newMemCursorStore() *memCursorStore {
	return &memCursorStore{cursors: make(map[string]model.SyncCursor)}
}

func cursorKey(userID int64, dt model.DataType) string {
	return fmt.Sprintf("%d/%s", userID, dt)
}

func (s *memCursorStore) Get(_ context.Context, userID int64, dt model.DataType) (*model.SyncCursor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cursor, ok := s.cursors[cursorKey(userID, dt)]
	if !ok {
		return nil, nil
	}
	return &cursor, nil
}

func (s *memCursorStore) Save(_ context.Context, cursor model.SyncCursor) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cursors[cursorKey(cursor.UserID, cursor.DataType)] = cursor
	return nil
}

func (s *memCursorStore) ListByUser(_ context.Context, userID int64) ([]model.SyncCursor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.SyncCursor
	for _, c := range s.cursors {
		if c.UserID == userID {
			out = append(out, c)
		}
	}
	return out, nil
}

// mockSleepStore captures upserts; failFor rejects specific record ids.
type mockSleepStore struct {
	mu      sync.Mutex
	upserts []model.SleepRecord
	failFor map[string]error
}

func (m *mockSleepStore) Upsert(_ context.Context, rec model.SleepRecord) error {
	if err, ok := m.failFor[rec.ID.String()]; ok {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.upserts = append(m.upserts, rec)
	return nil
}

func (m *mockSleepStore) Statistics(_ context.Context, _ int64) (model.RecordStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return model.RecordStats{TotalRecords: int64(len(m.upserts))}, nil
}

type mockRecoveryStore struct {
	mu      sync.Mutex
	inserts []model.RecoveryRecord
	err     error
}

func (m *mockRecoveryStore) Insert(_ context.Context, rec model.RecoveryRecord) error {
	if m.err != nil {
		return m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.inserts = append(m.inserts, rec)
	return nil
}

func (m *mockRecoveryStore) Statistics(_ context.Context, _ int64) (model.RecordStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return model.RecordStats{TotalRecords: int64(len(m.inserts))}, nil
}

type mockWorkoutStore struct {
	mu      sync.Mutex
	upserts []model.WorkoutRecord
}

func (m *mockWorkoutStore) Upsert(_ context.Context, rec model.WorkoutRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.upserts = append(m.upserts, rec)
	return nil
}

func (m *mockWorkoutStore) Statistics(_ context.Context, _ int64) (model.RecordStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return model.RecordStats{TotalRecords: int64(len(m.upserts))}, nil
}

type mockCycleStore struct {
	mu      sync.Mutex
	inserts []model.CycleRecord
}

func (m *mockCycleStore) Insert(_ context.Context, rec model.CycleRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.inserts = append(m.inserts, rec)
	return nil
}

func (m *mockCycleStore) Statistics(_ context.Context, _ int64) (model.RecordStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return model.RecordStats{TotalRecords: int64(len(m.inserts))}, nil
}

type mockUserStore struct {
	users []model.User
}

func (m *mockUserStore) Upsert(_ context.Context, user model.User) (*model.User, error) {
	return &user, nil
}

func (m *mockUserStore) GetByWhoopID(_ context.Context, _ string) (*model.User, error) {
	return nil, nil
}

func (m *mockUserStore) ListAll(_ context.Context) ([]model.User, error) {
	return m.users, nil
}
