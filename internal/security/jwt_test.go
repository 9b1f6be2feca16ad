package security_test

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"helpdesk/config"
	"helpdesk/internal/model"
	"helpdesk/internal/security"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func newTestJWTService(clock *fakeClock) *security.JWTService {
	return security.NewJWTService(&config.JWTConfig{
		Issuer:          "helpdesk",
		AccessSecret:    "access-secret",
		RefreshSecret:   "refresh-secret",
		AccessTokenTTL:  15 * time.Minute,
		RefreshTokenTTL: 7 * 24 * time.Hour,
	}, security.WithClock(clock.Now))
}

var testPayload = model.TokenPayload{UserID: "u-1", Email: "jane@example.com", Role: model.RoleUser}

func TestIssuePair_SharesJTI(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
	service := newTestJWTService(clock)

	pair, err := service.IssuePair(testPayload)
	require.NoError(t, err)

	access, err := service.VerifyAccess(pair.AccessToken)
	require.NoError(t, err)
	refresh, err := service.VerifyRefresh(pair.RefreshToken)
	require.NoError(t, err)

	assert.Equal(t, pair.RefreshTokenID, access.ID)
	assert.Equal(t, pair.RefreshTokenID, refresh.ID)
	assert.Equal(t, "u-1", refresh.Subject)
	assert.Equal(t, model.RoleUser, refresh.Role)
	assert.Equal(t, "jane@example.com", access.Email)
	assert.Equal(t, clock.now.Add(7*24*time.Hour), pair.RefreshExpiresAt)
}

func TestIssuePair_FreshJTIEachTime(t *testing.T) {
	service := newTestJWTService(&fakeClock{now: time.Now()})

	first, err := service.IssuePair(testPayload)
	require.NoError(t, err)
	second, err := service.IssuePair(testPayload)
	require.NoError(t, err)

	assert.NotEqual(t, first.RefreshTokenID, second.RefreshTokenID)
	assert.NotEqual(t, first.RefreshToken, second.RefreshToken)
}

func TestVerify_SecretsAreNotInterchangeable(t *testing.T) {
	service := newTestJWTService(&fakeClock{now: time.Now()})

	pair, err := service.IssuePair(testPayload)
	require.NoError(t, err)

	_, err = service.VerifyAccess(pair.RefreshToken)
	assert.ErrorIs(t, err, security.ErrInvalidSignature)

	_, err = service.VerifyRefresh(pair.AccessToken)
	assert.ErrorIs(t, err, security.ErrInvalidSignature)
}

func TestVerify_ExpiryIsInclusive(t *testing.T) {
	start := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	clock := &fakeClock{now: start}
	service := newTestJWTService(clock)

	pair, err := service.IssuePair(testPayload)
	require.NoError(t, err)

	// 1. за секунду до истечения токен действителен
	clock.now = start.Add(15*time.Minute - time.Second)
	_, err = service.VerifyAccess(pair.AccessToken)
	assert.NoError(t, err)

	// 2. ровно в момент exp токен уже недействителен
	clock.now = start.Add(15 * time.Minute)
	_, err = service.VerifyAccess(pair.AccessToken)
	assert.ErrorIs(t, err, security.ErrTokenExpired)

	// 3. refresh токен живет дольше
	_, err = service.VerifyRefresh(pair.RefreshToken)
	assert.NoError(t, err)

	clock.now = start.Add(7 * 24 * time.Hour)
	_, err = service.VerifyRefresh(pair.RefreshToken)
	assert.ErrorIs(t, err, security.ErrTokenExpired)
}

func TestVerify_TamperedToken(t *testing.T) {
	service := newTestJWTService(&fakeClock{now: time.Now()})

	pair, err := service.IssuePair(testPayload)
	require.NoError(t, err)

	parts := strings.Split(pair.AccessToken, ".")
	require.Len(t, parts, 3)
	tampered := parts[0] + "." + parts[1] + "." + strings.Repeat("A", len(parts[2]))

	_, err = service.VerifyAccess(tampered)
	assert.ErrorIs(t, err, security.ErrInvalidSignature)

	_, err = service.VerifyAccess("not-a-jwt")
	assert.ErrorIs(t, err, security.ErrInvalidSignature)
}

func TestVerify_RejectsOtherAlgorithms(t *testing.T) {
	service := newTestJWTService(&fakeClock{now: time.Now()})

	claims := security.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "u-1",
			ID:        "jti-1",
			Issuer:    "helpdesk",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}

	hs512, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte("access-secret"))
	require.NoError(t, err)
	_, err = service.VerifyAccess(hs512)
	assert.ErrorIs(t, err, security.ErrInvalidSignature)

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = service.VerifyAccess(none)
	assert.ErrorIs(t, err, security.ErrInvalidSignature)
}

func TestVerify_WrongIssuerOrMissingClaims(t *testing.T) {
	service := newTestJWTService(&fakeClock{now: time.Now()})
	exp := jwt.NewNumericDate(time.Now().Add(time.Hour))

	foreign, err := jwt.NewWithClaims(jwt.SigningMethodHS256, security.Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "u-1", ID: "jti-1", Issuer: "someone-else", ExpiresAt: exp},
	}).SignedString([]byte("access-secret"))
	require.NoError(t, err)
	_, err = service.VerifyAccess(foreign)
	assert.ErrorIs(t, err, security.ErrInvalidSignature)

	noJTI, err := jwt.NewWithClaims(jwt.SigningMethodHS256, security.Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "u-1", Issuer: "helpdesk", ExpiresAt: exp},
	}).SignedString([]byte("access-secret"))
	require.NoError(t, err)
	_, err = service.VerifyAccess(noJTI)
	assert.ErrorIs(t, err, security.ErrInvalidSignature)

	noExp, err := jwt.NewWithClaims(jwt.SigningMethodHS256, security.Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "u-1", ID: "jti-1", Issuer: "helpdesk"},
	}).SignedString([]byte("access-secret"))
	require.NoError(t, err)
	_, err = service.VerifyAccess(noExp)
	assert.ErrorIs(t, err, security.ErrInvalidSignature)
}
