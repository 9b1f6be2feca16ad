package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"

	"helpdesk/internal/model"
	"helpdesk/internal/ports"
	"helpdesk/internal/repository"
	"helpdesk/internal/telemetry"
	"helpdesk/internal/util"
)

type UserService struct {
	db     ports.Transactor
	users  ports.UserRepository
	tokens ports.RefreshTokenRepository
	hasher ports.PasswordHasher
	cache  ports.UserCache
}

// NewUserService : cache может быть nil, тогда профиль всегда читается из БД
func NewUserService(
	db ports.Transactor,
	users ports.UserRepository,
	tokens ports.RefreshTokenRepository,
	hasher ports.PasswordHasher,
	cache ports.UserCache,
) *UserService {
	return &UserService{
		db:     db,
		users:  users,
		tokens: tokens,
		hasher: hasher,
		cache:  cache,
	}
}

// Profile : профиль активного пользователя, сначала из кэша
func (s *UserService) Profile(ctx context.Context, userID string) (*model.User, error) {
	ctx, span := telemetry.Tracer().Start(ctx, "user.Profile")
	defer span.End()

	if s.cache != nil {
		cached, err := s.cache.GetUser(ctx, userID)
		if err != nil {
			log.Warn().Err(err).Str("user_id", userID).Msg("[UserService] кэш недоступен, читаем из БД")
		} else if cached != nil {
			return cached, nil
		}
	}

	user, err := s.users.FindActiveByID(ctx, s.db.Executor(), userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("[UserService] ошибка поиска пользователя: %w", err)
	}
	if user.IsDeleted() {
		return nil, ErrUserNotFound
	}

	if s.cache != nil {
		if err := s.cache.SetUser(ctx, user); err != nil {
			log.Warn().Err(err).Str("user_id", userID).Msg("[UserService] не удалось сохранить профиль в кэш")
		}
	}

	return user, nil
}

// CreateUser : создание пользователя с произвольной ролью, для операторов
func (s *UserService) CreateUser(ctx context.Context, email, password string, name *string, role model.Role) (*model.User, error) {
	if !role.Valid() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidRole, role)
	}

	passwordHash, err := s.hasher.Hash(ctx, password)
	if err != nil {
		return nil, util.LogError("[UserService] не удалось создать хэш пароля", err)
	}

	created, err := s.users.CreateUser(ctx, s.db.Executor(), newUser(normalizeEmail(email), passwordHash, name, role))
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrEmailExists
		}
		return nil, fmt.Errorf("[UserService] ошибка создания пользователя: %w", err)
	}

	return created, nil
}

// DeactivateUser : мягко удаляет пользователя и отзывает все его сессии
func (s *UserService) DeactivateUser(ctx context.Context, email string) error {
	user, err := s.users.FindActiveByEmail(ctx, s.db.Executor(), normalizeEmail(email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("[UserService] ошибка поиска пользователя: %w", err)
	}

	err = s.db.WithinTransaction(ctx, func(exec sqlx.ExtContext) error {
		if err := s.users.SoftDelete(ctx, exec, user.ID); err != nil {
			return err
		}
		_, err := s.tokens.RevokeAllForUser(ctx, exec, user.ID)
		return err
	})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("[UserService] ошибка деактивации пользователя: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.DeleteUser(ctx, user.ID); err != nil {
			log.Warn().Err(err).Str("user_id", user.ID).Msg("[UserService] не удалось удалить профиль из кэша")
		}
	}

	log.Info().Str("user_id", user.ID).Msg("пользователь деактивирован")
	return nil
}

func newUser(email, passwordHash string, name *string, role model.Role) *model.User {
	now := time.Now().UTC()
	return &model.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: passwordHash,
		Name:         name,
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}
