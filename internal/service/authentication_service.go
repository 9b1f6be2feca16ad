package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"

	"helpdesk/internal/metrics"
	"helpdesk/internal/model"
	"helpdesk/internal/ports"
	"helpdesk/internal/repository"
	"helpdesk/internal/telemetry"
	"helpdesk/internal/util"
)

type AuthenticationService struct {
	db      ports.Transactor
	users   ports.UserRepository
	tokens  ports.RefreshTokenRepository
	signer  ports.TokenSigner
	hasher  ports.PasswordHasher
	metrics ports.AuthMetrics
	now     func() time.Time

	dummyOnce   sync.Once
	dummyDigest string
}

type Option func(*AuthenticationService)

func WithClock(now func() time.Time) Option {
	return func(s *AuthenticationService) {
		s.now = now
	}
}

func NewAuthenticationService(
	db ports.Transactor,
	users ports.UserRepository,
	tokens ports.RefreshTokenRepository,
	signer ports.TokenSigner,
	hasher ports.PasswordHasher,
	recorder ports.AuthMetrics,
	opts ...Option,
) *AuthenticationService {
	service := &AuthenticationService{
		db:      db,
		users:   users,
		tokens:  tokens,
		signer:  signer,
		hasher:  hasher,
		metrics: recorder,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(service)
	}
	return service
}

// Register создает пользователя с ролью USER и открывает для него первую сессию.
// Пользователь и запись refresh токена сохраняются в одной транзакции
func (s *AuthenticationService) Register(ctx context.Context, email, password string, name *string, device model.DeviceInfo) (*model.TokensPair, error) {
	ctx, span := telemetry.Tracer().Start(ctx, "auth.Register")
	defer span.End()

	email = normalizeEmail(email)

	_, err := s.users.FindActiveByEmail(ctx, s.db.Executor(), email)
	switch {
	case err == nil:
		s.metrics.ObserveRegistration(metrics.ResultFailure)
		return nil, ErrEmailExists
	case !errors.Is(err, repository.ErrNotFound):
		s.metrics.ObserveRegistration(metrics.ResultError)
		return nil, fmt.Errorf("[AuthService] ошибка проверки email: %w", err)
	}

	passwordHash, err := s.hasher.Hash(ctx, password)
	if err != nil {
		s.metrics.ObserveRegistration(metrics.ResultError)
		return nil, util.LogError("[AuthService] не удалось создать хэш пароля", err)
	}

	user := newUser(email, passwordHash, name, model.RoleUser)
	span.SetAttributes(attribute.String("user.id", user.ID))

	pair, record, err := s.prepareSession(ctx, user, device)
	if err != nil {
		s.metrics.ObserveRegistration(metrics.ResultError)
		return nil, err
	}

	err = s.db.WithinTransaction(ctx, func(exec sqlx.ExtContext) error {
		if _, err := s.users.CreateUser(ctx, exec, user); err != nil {
			return err
		}
		return s.tokens.SaveRefreshToken(ctx, exec, record)
	})
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			s.metrics.ObserveRegistration(metrics.ResultFailure)
			return nil, ErrEmailExists
		}
		s.metrics.ObserveRegistration(metrics.ResultError)
		return nil, fmt.Errorf("[AuthService] ошибка регистрации: %w", err)
	}

	s.metrics.ObserveRegistration(metrics.ResultSuccess)
	log.Info().Str("user_id", user.ID).Msg("зарегистрирован новый пользователь")
	return pair, nil
}

// Login проверяет email и пароль и открывает новую сессию.
// Отсутствующий пользователь и неверный пароль неразличимы для клиента
func (s *AuthenticationService) Login(ctx context.Context, email, password string, device model.DeviceInfo) (*model.TokensPair, error) {
	ctx, span := telemetry.Tracer().Start(ctx, "auth.Login")
	defer span.End()

	exec := s.db.Executor()

	user, err := s.users.FindActiveByEmail(ctx, exec, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.burnHashTime(ctx, password)
			s.metrics.ObserveLogin(metrics.ResultFailure)
			return nil, ErrInvalidCredentials
		}
		s.metrics.ObserveLogin(metrics.ResultError)
		return nil, fmt.Errorf("[AuthService] ошибка поиска пользователя: %w", err)
	}

	ok, err := s.hasher.Verify(ctx, password, user.PasswordHash)
	if err != nil {
		s.metrics.ObserveLogin(metrics.ResultError)
		return nil, fmt.Errorf("[AuthService] ошибка проверки пароля: %w", err)
	}
	if !ok {
		s.metrics.ObserveLogin(metrics.ResultFailure)
		return nil, ErrInvalidCredentials
	}

	span.SetAttributes(attribute.String("user.id", user.ID))

	pair, record, err := s.prepareSession(ctx, user, device)
	if err != nil {
		s.metrics.ObserveLogin(metrics.ResultError)
		return nil, err
	}

	if err := s.tokens.SaveRefreshToken(ctx, exec, record); err != nil {
		s.metrics.ObserveLogin(metrics.ResultError)
		return nil, fmt.Errorf("[AuthService] ошибка сохранения refresh токена: %w", err)
	}

	s.metrics.ObserveLogin(metrics.ResultSuccess)
	return pair, nil
}

// Logout отзывает одну сессию по jti. Повторный вызов и отсутствующая запись не ошибка
func (s *AuthenticationService) Logout(ctx context.Context, refreshTokenID string) error {
	ctx, span := telemetry.Tracer().Start(ctx, "auth.Logout")
	defer span.End()

	err := s.tokens.Revoke(ctx, s.db.Executor(), refreshTokenID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("[AuthService] не удалось отозвать сессию: %w", err)
	}
	return nil
}

// Refresh обменивает refresh токен на новую пару.
//
// Проверки выполняются в следующем порядке:
//  1. запись с данным jti существует;
//  2. запись принадлежит пользователю из токена;
//  3. запись еще не была заменена. Повторное предъявление замененного токена
//     считается кражей: отзываются все сессии пользователя;
//  4. запись не отозвана;
//  5. хэш совпадает с предъявленным токеном;
//  6. срок действия записи не истек.
//
// Любой отказ возвращает ErrAccessDenied. Новая запись и пометка старой
// выполняются в одной транзакции. Если параллельный запрос успел заменить
// запись раньше, транзакция откатывается, а запись проверяется заново.
func (s *AuthenticationService) Refresh(ctx context.Context, userID, refreshToken, refreshTokenID string, device model.DeviceInfo) (*model.TokensPair, error) {
	ctx, span := telemetry.Tracer().Start(ctx, "auth.Refresh")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID))

	pair, err := s.refresh(ctx, userID, refreshToken, refreshTokenID, device)
	switch {
	case err == nil:
		s.metrics.ObserveRefresh(metrics.ResultSuccess)
	case errors.Is(err, ErrAccessDenied):
		s.metrics.ObserveRefresh(metrics.ResultDenied)
	default:
		s.metrics.ObserveRefresh(metrics.ResultError)
	}
	return pair, err
}

func (s *AuthenticationService) refresh(ctx context.Context, userID, refreshToken, refreshTokenID string, device model.DeviceInfo) (*model.TokensPair, error) {
	exec := s.db.Executor()

	record, findErr := s.tokens.FindByID(ctx, exec, refreshTokenID)
	if err := s.checkRefreshRecord(ctx, record, findErr, userID, refreshToken); err != nil {
		return nil, err
	}

	user, err := s.users.FindActiveByID(ctx, exec, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrAccessDenied
		}
		return nil, fmt.Errorf("[AuthService] ошибка поиска пользователя: %w", err)
	}

	pair, newRecord, err := s.prepareSession(ctx, user, device)
	if err != nil {
		return nil, err
	}

	err = s.db.WithinTransaction(ctx, func(exec sqlx.ExtContext) error {
		if err := s.tokens.SaveRefreshToken(ctx, exec, newRecord); err != nil {
			return err
		}
		return s.tokens.MarkReplaced(ctx, exec, record.ID, newRecord.ID)
	})
	if err != nil {
		if !errors.Is(err, repository.ErrTokenAlreadyRotated) {
			return nil, fmt.Errorf("[AuthService] ошибка ротации refresh токена: %w", err)
		}

		log.Warn().Str("user_id", userID).Str("jti", refreshTokenID).Msg("параллельная ротация refresh токена")
		record, findErr = s.tokens.FindByID(ctx, exec, refreshTokenID)
		if err := s.checkRefreshRecord(ctx, record, findErr, userID, refreshToken); err != nil {
			return nil, err
		}
		return nil, ErrAccessDenied
	}

	return pair, nil
}

func (s *AuthenticationService) checkRefreshRecord(ctx context.Context, record *model.RefreshToken, findErr error, userID, presented string) error {
	if findErr != nil {
		if errors.Is(findErr, repository.ErrNotFound) {
			return ErrAccessDenied
		}
		return fmt.Errorf("[AuthService] ошибка поиска refresh токена: %w", findErr)
	}

	if record.UserID != userID {
		return ErrAccessDenied
	}

	if record.ReplacedByToken != nil {
		s.metrics.ObserveReuseDetected()
		revoked, err := s.tokens.RevokeAllForUser(ctx, s.db.Executor(), userID)
		if err != nil {
			return fmt.Errorf("[AuthService] не удалось отозвать сессии после повторного использования: %w", err)
		}
		log.Warn().
			Str("user_id", userID).
			Str("jti", record.ID).
			Int64("revoked", revoked).
			Msg("повторное использование refresh токена, все сессии отозваны")
		return ErrAccessDenied
	}

	if record.IsRevoked {
		return ErrAccessDenied
	}

	ok, err := s.hasher.Verify(ctx, presented, record.TokenHash)
	if err != nil {
		return fmt.Errorf("[AuthService] ошибка проверки refresh токена: %w", err)
	}
	if !ok {
		return ErrAccessDenied
	}

	if record.IsExpired(s.now()) {
		return ErrAccessDenied
	}

	return nil
}

// LogoutAll отзывает все сессии пользователя
func (s *AuthenticationService) LogoutAll(ctx context.Context, userID string) error {
	ctx, span := telemetry.Tracer().Start(ctx, "auth.LogoutAll")
	defer span.End()

	revoked, err := s.tokens.RevokeAllForUser(ctx, s.db.Executor(), userID)
	if err != nil {
		return fmt.Errorf("[AuthService] не удалось отозвать сессии: %w", err)
	}

	log.Info().Str("user_id", userID).Int64("revoked", revoked).Msg("все сессии пользователя отозваны")
	return nil
}

// ListSessions возвращает активные сессии пользователя, currentTokenID отмечает текущую
func (s *AuthenticationService) ListSessions(ctx context.Context, userID, currentTokenID string) ([]model.Session, error) {
	records, err := s.tokens.ListActiveByUser(ctx, s.db.Executor(), userID, s.now())
	if err != nil {
		return nil, fmt.Errorf("[AuthService] не удалось получить сессии: %w", err)
	}

	sessions := make([]model.Session, 0, len(records))
	for _, record := range records {
		sessions = append(sessions, model.Session{
			ID:        record.ID,
			UserAgent: deref(record.UserAgent),
			IPAddress: deref(record.IPAddress),
			CreatedAt: record.CreatedAt,
			ExpiresAt: record.ExpiresAt,
			Current:   record.ID == currentTokenID,
		})
	}
	return sessions, nil
}

// prepareSession выпускает пару токенов и готовит запись для сохранения
func (s *AuthenticationService) prepareSession(ctx context.Context, user *model.User, device model.DeviceInfo) (*model.TokensPair, *model.RefreshToken, error) {
	pair, err := s.signer.IssuePair(model.TokenPayload{
		UserID: user.ID,
		Email:  user.Email,
		Role:   user.Role,
	})
	if err != nil {
		return nil, nil, util.LogError("[AuthService] ошибка генерации токенов", err)
	}

	tokenHash, err := s.hasher.Hash(ctx, pair.RefreshToken)
	if err != nil {
		return nil, nil, util.LogError("[AuthService] ошибка хэширования refresh токена", err)
	}

	return pair, &model.RefreshToken{
		ID:        pair.RefreshTokenID,
		UserID:    user.ID,
		TokenHash: tokenHash,
		ExpiresAt: pair.RefreshExpiresAt,
		UserAgent: optional(device.UserAgent),
		IPAddress: optional(device.IPAddress),
	}, nil
}

// burnHashTime выравнивает время ответа для несуществующего пользователя.
// Фиктивный хэш не зависит от контекста первого запроса: отмененный запрос
// не должен оставить его пустым на все время работы процесса
func (s *AuthenticationService) burnHashTime(ctx context.Context, password string) {
	s.dummyOnce.Do(func() {
		digest, err := s.hasher.Hash(context.Background(), "helpdesk-dummy-password")
		if err != nil {
			log.Warn().Err(err).Msg("не удалось подготовить фиктивный хэш")
			return
		}
		s.dummyDigest = digest
	})
	if s.dummyDigest != "" {
		_, _ = s.hasher.Verify(ctx, password, s.dummyDigest)
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func optional(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}

func deref(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}
