package service_test

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/mock"

	"helpdesk/config"
	"helpdesk/internal/model"
	"helpdesk/internal/security"
)

// ===== MOCKS =====

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) CreateUser(ctx context.Context, exec sqlx.ExtContext, user *model.User) (*model.User, error) {
	args := m.Called(ctx, exec, user)
	if u, ok := args.Get(0).(*model.User); ok {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockUserRepository) FindActiveByEmail(ctx context.Context, exec sqlx.ExtContext, email string) (*model.User, error) {
	args := m.Called(ctx, exec, email)
	if u, ok := args.Get(0).(*model.User); ok {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockUserRepository) FindActiveByID(ctx context.Context, exec sqlx.ExtContext, id string) (*model.User, error) {
	args := m.Called(ctx, exec, id)
	if u, ok := args.Get(0).(*model.User); ok {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockUserRepository) FindByIDIncludingDeleted(ctx context.Context, exec sqlx.ExtContext, id string) (*model.User, error) {
	args := m.Called(ctx, exec, id)
	if u, ok := args.Get(0).(*model.User); ok {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockUserRepository) SoftDelete(ctx context.Context, exec sqlx.ExtContext, id string) error {
	args := m.Called(ctx, exec, id)
	return args.Error(0)
}

type MockJWTRepo struct {
	mock.Mock
}

func (m *MockJWTRepo) SaveRefreshToken(ctx context.Context, exec sqlx.ExtContext, token *model.RefreshToken) error {
	args := m.Called(ctx, exec, token)
	return args.Error(0)
}

func (m *MockJWTRepo) FindByID(ctx context.Context, exec sqlx.ExtContext, id string) (*model.RefreshToken, error) {
	args := m.Called(ctx, exec, id)
	if token, ok := args.Get(0).(*model.RefreshToken); ok {
		return token, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockJWTRepo) Revoke(ctx context.Context, exec sqlx.ExtContext, id string) error {
	args := m.Called(ctx, exec, id)
	return args.Error(0)
}

func (m *MockJWTRepo) RevokeAllForUser(ctx context.Context, exec sqlx.ExtContext, userID string) (int64, error) {
	args := m.Called(ctx, exec, userID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockJWTRepo) MarkReplaced(ctx context.Context, exec sqlx.ExtContext, oldID, newID string) error {
	args := m.Called(ctx, exec, oldID, newID)
	return args.Error(0)
}

func (m *MockJWTRepo) ListActiveByUser(ctx context.Context, exec sqlx.ExtContext, userID string, now time.Time) ([]*model.RefreshToken, error) {
	args := m.Called(ctx, exec, userID, now)
	if tokens, ok := args.Get(0).([]*model.RefreshToken); ok {
		return tokens, args.Error(1)
	}
	return nil, args.Error(1)
}

type MockUserCache struct {
	mock.Mock
}

func (m *MockUserCache) SetUser(ctx context.Context, user *model.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserCache) GetUser(ctx context.Context, id string) (*model.User, error) {
	args := m.Called(ctx, id)
	if u, ok := args.Get(0).(*model.User); ok {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockUserCache) DeleteUser(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// ===== FAKES =====

// fakeTransactor : вызывает fn без настоящей БД и считает коммиты и откаты
type fakeTransactor struct {
	mu        sync.Mutex
	commits   int
	rollbacks int
}

func (f *fakeTransactor) Executor() sqlx.ExtContext {
	return (*sqlx.DB)(nil)
}

func (f *fakeTransactor) WithinTransaction(ctx context.Context, fn func(exec sqlx.ExtContext) error) error {
	err := fn((*sqlx.Tx)(nil))
	f.mu.Lock()
	defer f.mu.Unlock()
	if err != nil {
		f.rollbacks++
		return err
	}
	f.commits++
	return nil
}

// fakeHasher : детерминированный "хэш" вида hash:<значение>
// honorContext: как и настоящий пул слотов, отказывает при отмененном контексте
type fakeHasher struct {
	mu           sync.Mutex
	verifies     int
	honorContext bool
}

func (h *fakeHasher) Hash(ctx context.Context, plaintext string) (string, error) {
	if h.honorContext && ctx.Err() != nil {
		return "", ctx.Err()
	}
	return "hash:" + plaintext, nil
}

func (h *fakeHasher) Verify(ctx context.Context, plaintext, digest string) (bool, error) {
	h.mu.Lock()
	h.verifies++
	h.mu.Unlock()
	if h.honorContext && ctx.Err() != nil {
		return false, ctx.Err()
	}
	return strings.TrimPrefix(digest, "hash:") == plaintext, nil
}

type fakeMetrics struct {
	mu     sync.Mutex
	counts map[string]int
}

func newFakeMetrics() *fakeMetrics {
	return &fakeMetrics{counts: map[string]int{}}
}

func (f *fakeMetrics) inc(key string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.counts[key]++
}

func (f *fakeMetrics) get(key string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.counts[key]
}

func (f *fakeMetrics) ObserveRegistration(result string) { f.inc("registration:" + result) }
func (f *fakeMetrics) ObserveLogin(result string)        { f.inc("login:" + result) }
func (f *fakeMetrics) ObserveRefresh(result string)      { f.inc("refresh:" + result) }
func (f *fakeMetrics) ObserveReuseDetected()             { f.inc("reuse") }

// ===== HELPERS =====

var testNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func newTestSigner() *security.JWTService {
	return security.NewJWTService(&config.JWTConfig{
		Issuer:          "helpdesk",
		AccessSecret:    "access-secret",
		RefreshSecret:   "refresh-secret",
		AccessTokenTTL:  15 * time.Minute,
		RefreshTokenTTL: 7 * 24 * time.Hour,
	}, security.WithClock(func() time.Time { return testNow }))
}
