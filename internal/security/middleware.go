package security

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"helpdesk/internal/model/requestresponse"
)

type contextKey string

const (
	UserContextKey contextKey = "user"
)

var ErrUnauthorized = errors.New("пользователь не авторизован")

type AccessTokenVerifier interface {
	VerifyAccess(tokenStr string) (*Claims, error)
}

// JWTMiddleware : пропускает запрос только с действительным access токеном в заголовке Authorization
func JWTMiddleware(verifier AccessTokenVerifier) func(handler http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			authorizationHeader := request.Header.Get("Authorization")
			if !strings.HasPrefix(authorizationHeader, "Bearer ") {
				writeUnauthorized(writer)
				return
			}

			token := strings.TrimSpace(strings.TrimPrefix(authorizationHeader, "Bearer "))
			claims, err := verifier.VerifyAccess(token)
			if err != nil {
				log.Debug().Err(err).Msg("невалидный access токен")
				writeUnauthorized(writer)
				return
			}

			next.ServeHTTP(writer, request.WithContext(ContextWithClaims(request.Context(), claims)))
		})
	}
}

func ContextWithClaims(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, UserContextKey, claims)
}

func GetClaimsFromContext(ctx context.Context) (*Claims, error) {
	claims, ok := ctx.Value(UserContextKey).(*Claims)
	if !ok || claims == nil {
		return nil, ErrUnauthorized
	}
	return claims, nil
}

func writeUnauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(requestresponse.ErrorResponse{
		Error: requestresponse.ErrorDetail{Code: http.StatusUnauthorized, Text: "Unauthorized"},
	})
}
