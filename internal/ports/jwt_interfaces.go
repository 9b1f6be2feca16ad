package ports

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"helpdesk/internal/model"
	"helpdesk/internal/security"
)

type RefreshTokenRepository interface {
	SaveRefreshToken(ctx context.Context, exec sqlx.ExtContext, token *model.RefreshToken) error
	FindByID(ctx context.Context, exec sqlx.ExtContext, id string) (*model.RefreshToken, error)
	Revoke(ctx context.Context, exec sqlx.ExtContext, id string) error
	RevokeAllForUser(ctx context.Context, exec sqlx.ExtContext, userID string) (int64, error)
	MarkReplaced(ctx context.Context, exec sqlx.ExtContext, oldID, newID string) error
	ListActiveByUser(ctx context.Context, exec sqlx.ExtContext, userID string, now time.Time) ([]*model.RefreshToken, error)
}

type TokenSigner interface {
	IssuePair(payload model.TokenPayload) (*model.TokensPair, error)
	VerifyAccess(token string) (*security.Claims, error)
	VerifyRefresh(token string) (*security.Claims, error)
}

type PasswordHasher interface {
	Hash(ctx context.Context, plaintext string) (string, error)
	Verify(ctx context.Context, plaintext, digest string) (bool, error)
}

// Transactor : доступ к пулу соединений и транзакциям
type Transactor interface {
	Executor() sqlx.ExtContext
	WithinTransaction(ctx context.Context, fn func(exec sqlx.ExtContext) error) error
}
