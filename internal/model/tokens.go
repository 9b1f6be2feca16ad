package model

import "time"

// RefreshToken : серверная запись сессии, id совпадает с jti refresh токена
type RefreshToken struct {
	ID              string    `db:"id"`
	UserID          string    `db:"user_id"`
	TokenHash       string    `db:"token_hash"`
	IsRevoked       bool      `db:"is_revoked"`
	ReplacedByToken *string   `db:"replaced_by_token"`
	ExpiresAt       time.Time `db:"expires_at"`
	UserAgent       *string   `db:"user_agent"`
	IPAddress       *string   `db:"ip_address"`
	CreatedAt       time.Time `db:"created_at"`
}

func (t *RefreshToken) IsExpired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}

// TokensPair содержит пару access и refresh токенов
// swagger:model
type TokensPair struct {
	// Access токен (JWT)
	// example: eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9...
	AccessToken string `json:"accessToken"`

	// Refresh токен, отдается только в cookie
	RefreshToken string `json:"-"`

	RefreshTokenID   string    `json:"-"`
	RefreshExpiresAt time.Time `json:"-"`
}

// DeviceInfo : данные клиента, сохраняются вместе с сессией
type DeviceInfo struct {
	UserAgent string
	IPAddress string
}

// TokenPayload : полезная нагрузка, общая для access и refresh токенов
type TokenPayload struct {
	UserID string
	Email  string
	Role   Role
}

// Session : активная сессия пользователя для просмотра владельцем
type Session struct {
	ID        string    `json:"id"`
	UserAgent string    `json:"userAgent,omitempty"`
	IPAddress string    `json:"ipAddress,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt"`
	Current   bool      `json:"current"`
}
