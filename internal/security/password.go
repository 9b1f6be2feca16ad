package security

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/semaphore"
)

// BcryptHasher : хэширует пароли и refresh токены.
// Одновременно выполняется не больше concurrency операций bcrypt
type BcryptHasher struct {
	cost  int
	slots *semaphore.Weighted
}

func NewBcryptHasher(cost, concurrency int) *BcryptHasher {
	if concurrency < 1 {
		concurrency = 1
	}
	return &BcryptHasher{
		cost:  cost,
		slots: semaphore.NewWeighted(int64(concurrency)),
	}
}

func (h *BcryptHasher) Hash(ctx context.Context, plaintext string) (string, error) {
	if err := h.slots.Acquire(ctx, 1); err != nil {
		return "", fmt.Errorf("ожидание слота хэширования: %w", err)
	}
	defer h.slots.Release(1)

	digest, err := bcrypt.GenerateFromPassword(prehash(plaintext), h.cost)
	if err != nil {
		return "", fmt.Errorf("ошибка хэширования: %w", err)
	}
	return string(digest), nil
}

// Verify : false без ошибки, если значение не совпало или хэш поврежден
func (h *BcryptHasher) Verify(ctx context.Context, plaintext, digest string) (bool, error) {
	if err := h.slots.Acquire(ctx, 1); err != nil {
		return false, fmt.Errorf("ожидание слота хэширования: %w", err)
	}
	defer h.slots.Release(1)

	if err := bcrypt.CompareHashAndPassword([]byte(digest), prehash(plaintext)); err != nil {
		if !errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			log.Warn().Err(err).Msg("поврежденный хэш при проверке")
		}
		return false, nil
	}
	return true, nil
}

// bcrypt учитывает только первые 72 байта, подписанный refresh токен длиннее
func prehash(plaintext string) []byte {
	sum := sha256.Sum256([]byte(plaintext))
	return []byte(base64.StdEncoding.EncodeToString(sum[:]))
}
