package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	httpSwagger "github.com/swaggo/http-swagger"

	"helpdesk/internal/security"
)

type RouteOptions struct {
	// AuthRateLimit включает ограничение входа и регистрации по IP
	AuthRateLimit bool
	// Ready проверяет доступность зависимостей для /readyz
	Ready   func(ctx context.Context) error
	Metrics http.Handler
}

// authLimits : 3 запроса в секунду, 20 за 10 секунд, 100 в минуту
var authLimits = []struct {
	requests int
	window   time.Duration
}{
	{3, time.Second},
	{20, 10 * time.Second},
	{100, time.Minute},
}

func SetupRoutes(
	r chi.Router,
	authHandler *AuthenticationHandler,
	userHandler *UserHandler,
	verifier security.AccessTokenVerifier,
	opts RouteOptions,
) {
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		sendJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if opts.Ready != nil {
			if err := opts.Ready(r.Context()); err != nil {
				sendErrorResponse(w, http.StatusServiceUnavailable, "not ready")
				return
			}
		}
		sendJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	})
	if opts.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", opts.Metrics)
	}
	r.Get("/swagger/*", httpSwagger.WrapHandler)

	r.Route("/auth", func(r chi.Router) {
		r.With(authLimiters(opts.AuthRateLimit)...).Post("/register", authHandler.Register)
		r.With(authLimiters(opts.AuthRateLimit)...).Post("/login", authHandler.Login)
		r.Post("/refresh", authHandler.Refresh)

		r.Group(func(r chi.Router) {
			r.Use(security.JWTMiddleware(verifier))
			r.Post("/logout", authHandler.Logout)
			r.Post("/logout-all", authHandler.LogoutAll)
			r.Get("/me", userHandler.Me)
			r.Get("/sessions", authHandler.Sessions)
		})
	})
}

// authLimiters : у каждого маршрута свои счетчики. Ключ: RemoteAddr,
// который переписывается из заголовков прокси только при TrustProxy
func authLimiters(enabled bool) []func(http.Handler) http.Handler {
	if !enabled {
		return nil
	}

	limiters := make([]func(http.Handler) http.Handler, 0, len(authLimits))
	for _, limit := range authLimits {
		limiters = append(limiters, httprate.Limit(
			limit.requests,
			limit.window,
			httprate.WithKeyFuncs(httprate.KeyByIP),
			httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
				sendErrorResponse(w, http.StatusTooManyRequests, msgTooManyRequests)
			}),
		))
	}
	return limiters
}
