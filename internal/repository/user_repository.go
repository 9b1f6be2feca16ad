package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"helpdesk/internal/model"
	"helpdesk/internal/util"
)

const userColumns = `id, email, password_hash, name, role, created_at, updated_at, deleted_at`

type UserRepository struct{}

func NewUserRepository() *UserRepository {
	return &UserRepository{}
}

// CreateUser : сохраняет нового пользователя.
// Если email уже занят активным пользователем, возвращает ErrDuplicate
func (r *UserRepository) CreateUser(ctx context.Context, exec sqlx.ExtContext, user *model.User) (*model.User, error) {
	query := `
	INSERT INTO users (id, email, password_hash, name, role)
	VALUES ($1, $2, $3, $4, $5)
	RETURNING ` + userColumns

	createdUser := &model.User{}
	err := sqlx.GetContext(ctx, exec, createdUser, query, user.ID, user.Email, user.PasswordHash, user.Name, user.Role)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicate
		}
		return nil, util.LogError("[UserRepo] ошибка вставки данных в БД", err)
	}

	return createdUser, nil
}

// FindActiveByEmail : ищет неудаленного пользователя по email без учета регистра
func (r *UserRepository) FindActiveByEmail(ctx context.Context, exec sqlx.ExtContext, email string) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE lower(email) = lower($1) AND deleted_at IS NULL`
	return r.get(ctx, exec, query, email)
}

// FindActiveByID : ищет неудаленного пользователя по id
func (r *UserRepository) FindActiveByID(ctx context.Context, exec sqlx.ExtContext, id string) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1 AND deleted_at IS NULL`
	return r.get(ctx, exec, query, id)
}

// FindByIDIncludingDeleted : ищет пользователя по id, в том числе удаленного
func (r *UserRepository) FindByIDIncludingDeleted(ctx context.Context, exec sqlx.ExtContext, id string) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return r.get(ctx, exec, query, id)
}

// SoftDelete : помечает пользователя удаленным, повторный вызов ничего не меняет
func (r *UserRepository) SoftDelete(ctx context.Context, exec sqlx.ExtContext, id string) error {
	query := `UPDATE users SET deleted_at = now(), updated_at = now() WHERE id = $1 AND deleted_at IS NULL`
	result, err := exec.ExecContext(ctx, query, id)
	if err != nil {
		return util.LogError("[UserRepo] не удалось удалить пользователя", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return util.LogError("[UserRepo] не удалось проверить удаление пользователя", err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *UserRepository) get(ctx context.Context, exec sqlx.ExtContext, query string, arg string) (*model.User, error) {
	var user model.User
	err := sqlx.GetContext(ctx, exec, &user, query, arg)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, util.LogError("[UserRepo] не удалось найти пользователя в БД", err)
	}
	return &user, nil
}
