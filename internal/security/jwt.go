package security

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"helpdesk/config"
	"helpdesk/internal/model"
)

var (
	ErrInvalidSignature = errors.New("невалидный токен")
	ErrTokenExpired     = errors.New("срок действия токена истек")
)

type TokenKind int

const (
	AccessToken TokenKind = iota
	RefreshToken
)

func (k TokenKind) String() string {
	if k == RefreshToken {
		return "refresh"
	}
	return "access"
}

// Claims : sub - id пользователя, jti - id серверной записи refresh токена
type Claims struct {
	Email string     `json:"email"`
	Role  model.Role `json:"role"`
	jwt.RegisteredClaims
}

type JWTService struct {
	issuer        string
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	now           func() time.Time
}

type Option func(*JWTService)

// WithClock : подменяет источник времени, используется в тестах
func WithClock(now func() time.Time) Option {
	return func(s *JWTService) {
		s.now = now
	}
}

func NewJWTService(cfg *config.JWTConfig, opts ...Option) *JWTService {
	service := &JWTService{
		issuer:        cfg.Issuer,
		accessSecret:  []byte(cfg.AccessSecret),
		refreshSecret: []byte(cfg.RefreshSecret),
		accessTTL:     cfg.AccessTokenTTL,
		refreshTTL:    cfg.RefreshTokenTTL,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(service)
	}
	return service
}

// Sign : подписывает токен нужного вида, возвращает строку токена и момент истечения
func (s *JWTService) Sign(kind TokenKind, payload model.TokenPayload, jti string) (string, time.Time, error) {
	issuedAt := s.now().Truncate(time.Second)
	expiresAt := issuedAt.Add(s.ttl(kind))

	claims := Claims{
		Email: payload.Email,
		Role:  payload.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   payload.UserID,
			ID:        jti,
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret(kind))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("ошибка подписи %s токена: %w", kind, err)
	}

	return token, expiresAt, nil
}

// IssuePair : выпускает access и refresh токены с одним новым jti
func (s *JWTService) IssuePair(payload model.TokenPayload) (*model.TokensPair, error) {
	jti := uuid.NewString()

	accessToken, _, err := s.Sign(AccessToken, payload, jti)
	if err != nil {
		return nil, err
	}

	refreshToken, refreshExpiresAt, err := s.Sign(RefreshToken, payload, jti)
	if err != nil {
		return nil, err
	}

	return &model.TokensPair{
		AccessToken:      accessToken,
		RefreshToken:     refreshToken,
		RefreshTokenID:   jti,
		RefreshExpiresAt: refreshExpiresAt,
	}, nil
}

// Verify : проверяет подпись, алгоритм, издателя и срок действия.
// Токен недействителен начиная с момента exp включительно
func (s *JWTService) Verify(kind TokenKind, tokenStr string) (*Claims, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuer(s.issuer),
		jwt.WithTimeFunc(s.now),
	)

	claims := &Claims{}
	_, err := parser.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		return s.secret(kind), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	if claims.Subject == "" || claims.ID == "" {
		return nil, fmt.Errorf("%w: отсутствует sub или jti", ErrInvalidSignature)
	}

	return claims, nil
}

func (s *JWTService) VerifyAccess(tokenStr string) (*Claims, error) {
	return s.Verify(AccessToken, tokenStr)
}

func (s *JWTService) VerifyRefresh(tokenStr string) (*Claims, error) {
	return s.Verify(RefreshToken, tokenStr)
}

func (s *JWTService) secret(kind TokenKind) []byte {
	if kind == RefreshToken {
		return s.refreshSecret
	}
	return s.accessSecret
}

func (s *JWTService) ttl(kind TokenKind) time.Duration {
	if kind == RefreshToken {
		return s.refreshTTL
	}
	return s.accessTTL
}
