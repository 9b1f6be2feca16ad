package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"helpdesk/config"
	"helpdesk/internal/handler"
	"helpdesk/internal/metrics"
	"helpdesk/internal/ports"
	"helpdesk/internal/repository"
	"helpdesk/internal/security"
	"helpdesk/internal/service"
	"helpdesk/internal/telemetry"
)

func newServeCommand(load configLoader) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Запустить HTTP сервер",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load(cmd.Context())
			if err != nil {
				return err
			}
			return serve(cmd.Context(), cfg)
		},
	}
}

func serve(ctx context.Context, cfg *config.AppConfig) error {
	shutdownTracing, err := telemetry.Init(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.OTLPEndpoint)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("ошибка остановки трассировки")
		}
	}()

	db, closeDB, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	defer closeDB()

	var userCache ports.UserCache
	if cfg.RedisConfig.Addr != "" {
		redisClient, err := config.SetupRedis(&cfg.RedisConfig)
		if err != nil {
			return err
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				log.Error().Err(err).Msg("ошибка при закрытии Redis")
			}
		}()
		userCache = repository.NewCacheRepository(redisClient.Client, cfg.RedisConfig.TTL)
	} else {
		log.Warn().Msg("Redis не настроен, профили читаются из БД")
	}

	userRepo := repository.NewUserRepository()
	jwtRepo := repository.NewJWTRepository()

	hasher := security.NewBcryptHasher(cfg.Security.BcryptCost, cfg.Security.HashConcurrency)
	jwtService := security.NewJWTService(&cfg.JWT)
	recorder := metrics.NewRecorder(prometheus.DefaultRegisterer)

	authService := service.NewAuthenticationService(db, userRepo, jwtRepo, jwtService, hasher, recorder)
	userService := service.NewUserService(db, userRepo, jwtRepo, hasher, userCache)

	authHandler := handler.NewAuthenticationHandler(authService, jwtService, handler.RefreshCookie{
		Name:   cfg.Cookie.Name,
		Domain: cfg.Cookie.Domain,
		Secure: cfg.IsProduction(),
		MaxAge: cfg.JWT.RefreshTokenTTL,
	})
	userHandler := handler.NewUserHandler(userService)

	srv, router := config.SetupServer(cfg)
	router.Use(telemetry.Middleware(cfg.Telemetry.ServiceName))

	handler.SetupRoutes(router, authHandler, userHandler, jwtService, handler.RouteOptions{
		AuthRateLimit:  cfg.RateLimit.Enabled,
		Ready:          db.PingContext,
		Metrics:        promhttp.Handler(),
	})

	return runServer(ctx, srv)
}

func runServer(ctx context.Context, server *http.Server) error {
	serverErrors := make(chan error, 1)
	go func() {
		log.Info().Str("addr", server.Addr).Msg("сервер запущен")
		serverErrors <- server.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
		log.Info().Msg("получен сигнал остановки работы сервера")
	}

	shutDownCtx, shutDownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutDownCancel()

	if err := server.Shutdown(shutDownCtx); err != nil {
		log.Error().Err(err).Msg("ошибка при остановке сервера")
		return err
	}
	log.Info().Msg("сервер успешно остановлен")
	return nil
}
