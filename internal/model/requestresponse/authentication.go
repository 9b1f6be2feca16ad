package requestresponse

import "time"

// LoginRequest : тело запроса на аутентификацию
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email" example:"user@example.com"`
	Password string `json:"password" validate:"required" example:"P@ssw0rd123"`
}

// AccessTokenResponse : ответ на регистрацию, вход и обновление токенов.
// Refresh токен передается в cookie
type AccessTokenResponse struct {
	AccessToken string `json:"accessToken" example:"eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9..."`
}

// SessionResponse : активная сессия
type SessionResponse struct {
	ID        string    `json:"id" example:"b6a1e1c4-4b1d-4f1e-8b29-1234567890ab"`
	UserAgent string    `json:"userAgent,omitempty" example:"Mozilla/5.0"`
	IPAddress string    `json:"ipAddress,omitempty" example:"203.0.113.7"`
	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt"`
	Current   bool      `json:"current" example:"true"`
}
