package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"helpdesk/internal/model"
	"helpdesk/internal/util"
)

const refreshTokenColumns = `id, user_id, token_hash, is_revoked, replaced_by_token, expires_at, user_agent, ip_address, created_at`

type JWTRepository struct{}

func NewJWTRepository() *JWTRepository {
	return &JWTRepository{}
}

// SaveRefreshToken сохраняет запись refresh-токена
func (r *JWTRepository) SaveRefreshToken(ctx context.Context, exec sqlx.ExtContext, refreshToken *model.RefreshToken) error {
	query := `INSERT INTO refresh_tokens (id, user_id, token_hash, is_revoked, expires_at, user_agent, ip_address)
				VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := exec.ExecContext(ctx, query,
		refreshToken.ID,
		refreshToken.UserID,
		refreshToken.TokenHash,
		refreshToken.IsRevoked,
		refreshToken.ExpiresAt,
		refreshToken.UserAgent,
		refreshToken.IPAddress,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return util.LogError("[JWTRepo] ошибка вставки refresh токена", err)
	}

	return nil
}

// FindByID ищет запись по jti
// Возвращает ErrNotFound, если записи нет
func (r *JWTRepository) FindByID(ctx context.Context, exec sqlx.ExtContext, id string) (*model.RefreshToken, error) {
	query := `SELECT ` + refreshTokenColumns + ` FROM refresh_tokens WHERE id = $1`

	refreshToken := &model.RefreshToken{}
	err := sqlx.GetContext(ctx, exec, refreshToken, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, util.LogError("[JWTRepo] ошибка при поиске refresh токена", err)
	}

	return refreshToken, nil
}

// Revoke отзывает одну запись. replaced_by_token не трогает
// Возвращает ErrNotFound, если записи нет
func (r *JWTRepository) Revoke(ctx context.Context, exec sqlx.ExtContext, id string) error {
	query := `UPDATE refresh_tokens SET is_revoked = TRUE WHERE id = $1`

	result, err := exec.ExecContext(ctx, query, id)
	if err != nil {
		return util.LogError("[JWTRepo] не удалось отозвать refresh токен", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return util.LogError("[JWTRepo] не удалось проверить, отозван ли токен", err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

// RevokeAllForUser отзывает все записи пользователя, возвращает число затронутых
func (r *JWTRepository) RevokeAllForUser(ctx context.Context, exec sqlx.ExtContext, userID string) (int64, error) {
	query := `UPDATE refresh_tokens SET is_revoked = TRUE WHERE user_id = $1 AND is_revoked = FALSE`

	result, err := exec.ExecContext(ctx, query, userID)
	if err != nil {
		return 0, util.LogError("[JWTRepo] не удалось отозвать сессии пользователя", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, util.LogError("[JWTRepo] не удалось получить число отозванных сессий", err)
	}

	return rowsAffected, nil
}

// MarkReplaced отзывает старую запись и связывает ее с новой.
// Срабатывает только для записи, которая еще не отозвана и не заменена,
// иначе возвращает ErrTokenAlreadyRotated
func (r *JWTRepository) MarkReplaced(ctx context.Context, exec sqlx.ExtContext, oldID, newID string) error {
	query := `UPDATE refresh_tokens
				SET is_revoked = TRUE, replaced_by_token = $2
				WHERE id = $1 AND is_revoked = FALSE AND replaced_by_token IS NULL`

	result, err := exec.ExecContext(ctx, query, oldID, newID)
	if err != nil {
		return util.LogError("[JWTRepo] не удалось заменить refresh токен", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return util.LogError("[JWTRepo] не удалось проверить, заменен ли токен", err)
	}
	if rowsAffected == 0 {
		return ErrTokenAlreadyRotated
	}

	return nil
}

// ListActiveByUser возвращает неотозванные и неистекшие записи, новые первыми
func (r *JWTRepository) ListActiveByUser(ctx context.Context, exec sqlx.ExtContext, userID string, now time.Time) ([]*model.RefreshToken, error) {
	query := `SELECT ` + refreshTokenColumns + ` FROM refresh_tokens
				WHERE user_id = $1 AND is_revoked = FALSE AND expires_at > $2
				ORDER BY created_at DESC`

	var tokens []*model.RefreshToken
	if err := sqlx.SelectContext(ctx, exec, &tokens, query, userID, now); err != nil {
		return nil, util.LogError("[JWTRepo] не удалось получить список сессий", err)
	}

	return tokens, nil
}
