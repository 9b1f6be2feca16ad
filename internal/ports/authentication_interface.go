package ports

import (
	"context"

	"helpdesk/internal/model"
)

// AuthenticationService : жизненный цикл сессий и пар токенов
type AuthenticationService interface {
	Register(ctx context.Context, email, password string, name *string, device model.DeviceInfo) (*model.TokensPair, error)
	Login(ctx context.Context, email, password string, device model.DeviceInfo) (*model.TokensPair, error)
	Logout(ctx context.Context, refreshTokenID string) error
	Refresh(ctx context.Context, userID, refreshToken, refreshTokenID string, device model.DeviceInfo) (*model.TokensPair, error)
	LogoutAll(ctx context.Context, userID string) error
	ListSessions(ctx context.Context, userID, currentTokenID string) ([]model.Session, error)
}

// AuthMetrics : счетчики событий аутентификации
type AuthMetrics interface {
	ObserveRegistration(result string)
	ObserveLogin(result string)
	ObserveRefresh(result string)
	ObserveReuseDetected()
}
