package handler_test

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"

	"helpdesk/internal/model"
	"helpdesk/internal/repository"
)

// memStore : хранилище в памяти с теми же гарантиями, что и SQL репозитории.
// Транзакция откатывается восстановлением снимка
type memStore struct {
	mu     sync.Mutex
	txMu   sync.Mutex
	users  map[string]model.User
	tokens map[string]model.RefreshToken
}

func newMemStore() *memStore {
	return &memStore{
		users:  map[string]model.User{},
		tokens: map[string]model.RefreshToken{},
	}
}

func (s *memStore) Executor() sqlx.ExtContext {
	return nil
}

func (s *memStore) WithinTransaction(ctx context.Context, fn func(exec sqlx.ExtContext) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.Lock()
	users := make(map[string]model.User, len(s.users))
	for k, v := range s.users {
		users[k] = v
	}
	tokens := make(map[string]model.RefreshToken, len(s.tokens))
	for k, v := range s.tokens {
		tokens[k] = v
	}
	s.mu.Unlock()

	if err := fn(memTx{}); err != nil {
		s.mu.Lock()
		s.users, s.tokens = users, tokens
		s.mu.Unlock()
		return err
	}
	return nil
}

// memTx помечает вызовы внутри транзакции
type memTx struct {
	sqlx.ExtContext
}

// autocommit : запись вне транзакции ждет завершения текущей транзакции,
// иначе откат снимка затер бы ее
func (s *memStore) autocommit(exec sqlx.ExtContext) func() {
	if _, inTx := exec.(memTx); inTx {
		return func() {}
	}
	s.txMu.Lock()
	return s.txMu.Unlock
}

func (s *memStore) CreateUser(ctx context.Context, exec sqlx.ExtContext, user *model.User) (*model.User, error) {
	defer s.autocommit(exec)()
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if existing.DeletedAt == nil && strings.EqualFold(existing.Email, user.Email) {
			return nil, repository.ErrDuplicate
		}
	}
	created := *user
	s.users[user.ID] = created
	return &created, nil
}

func (s *memStore) FindActiveByEmail(ctx context.Context, exec sqlx.ExtContext, email string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, user := range s.users {
		if user.DeletedAt == nil && strings.EqualFold(user.Email, email) {
			found := user
			return &found, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *memStore) FindActiveByID(ctx context.Context, exec sqlx.ExtContext, id string) (*model.User, error) {
	user, err := s.FindByIDIncludingDeleted(ctx, exec, id)
	if err != nil || user.IsDeleted() {
		return nil, repository.ErrNotFound
	}
	return user, nil
}

func (s *memStore) FindByIDIncludingDeleted(ctx context.Context, exec sqlx.ExtContext, id string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &user, nil
}

func (s *memStore) SoftDelete(ctx context.Context, exec sqlx.ExtContext, id string) error {
	defer s.autocommit(exec)()
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[id]
	if !ok || user.DeletedAt != nil {
		return repository.ErrNotFound
	}
	now := time.Now()
	user.DeletedAt = &now
	s.users[id] = user
	return nil
}

func (s *memStore) SaveRefreshToken(ctx context.Context, exec sqlx.ExtContext, token *model.RefreshToken) error {
	defer s.autocommit(exec)()
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tokens[token.ID]; ok {
		return repository.ErrDuplicate
	}
	saved := *token
	saved.CreatedAt = time.Now()
	s.tokens[token.ID] = saved
	return nil
}

func (s *memStore) FindByID(ctx context.Context, exec sqlx.ExtContext, id string) (*model.RefreshToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	token, ok := s.tokens[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &token, nil
}

func (s *memStore) Revoke(ctx context.Context, exec sqlx.ExtContext, id string) error {
	defer s.autocommit(exec)()
	s.mu.Lock()
	defer s.mu.Unlock()
	token, ok := s.tokens[id]
	if !ok {
		return repository.ErrNotFound
	}
	token.IsRevoked = true
	s.tokens[id] = token
	return nil
}

func (s *memStore) RevokeAllForUser(ctx context.Context, exec sqlx.ExtContext, userID string) (int64, error) {
	defer s.autocommit(exec)()
	s.mu.Lock()
	defer s.mu.Unlock()
	var revoked int64
	for id, token := range s.tokens {
		if token.UserID == userID && !token.IsRevoked {
			token.IsRevoked = true
			s.tokens[id] = token
			revoked++
		}
	}
	return revoked, nil
}

func (s *memStore) MarkReplaced(ctx context.Context, exec sqlx.ExtContext, oldID, newID string) error {
	defer s.autocommit(exec)()
	s.mu.Lock()
	defer s.mu.Unlock()
	token, ok := s.tokens[oldID]
	if !ok || token.IsRevoked || token.ReplacedByToken != nil {
		return repository.ErrTokenAlreadyRotated
	}
	token.IsRevoked = true
	token.ReplacedByToken = &newID
	s.tokens[oldID] = token
	return nil
}

func (s *memStore) ListActiveByUser(ctx context.Context, exec sqlx.ExtContext, userID string, now time.Time) ([]*model.RefreshToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var result []*model.RefreshToken
	for _, token := range s.tokens {
		if token.UserID == userID && !token.IsRevoked && token.ExpiresAt.After(now) {
			t := token
			result = append(result, &t)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.After(result[j].CreatedAt) })
	return result, nil
}

func (s *memStore) activeSessions(userID string) int {
	sessions, _ := s.ListActiveByUser(context.Background(), nil, userID, time.Now())
	return len(sessions)
}
