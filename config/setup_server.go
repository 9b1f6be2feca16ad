package config

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"runtime"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/sethvargo/go-envconfig"
	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"
)

const EnvironmentProduction = "production"

type AppConfig struct {
	Environment    string          `yaml:"environment" env:"APP_ENV,overwrite"`
	ServerAddr     string          `yaml:"serverAddr" env:"SERVER_ADDR,overwrite"`
	// TrustProxy : брать адрес клиента из X-Forwarded-For/X-Real-IP.
	// Включать только за своим прокси, иначе клиент подменяет адрес сам
	TrustProxy     bool            `yaml:"trustProxy" env:"TRUST_PROXY,overwrite"`
	DatabaseConfig DatabaseConfig  `yaml:"databaseConfig"`
	RedisConfig    RedisConfig     `yaml:"redisConfig"`
	JWT            JWTConfig       `yaml:"jwt"`
	Security       SecurityConfig  `yaml:"security"`
	Cookie         CookieConfig    `yaml:"cookie"`
	RateLimit      RateLimitConfig `yaml:"rateLimit"`
	CORS           CORSConfig      `yaml:"cors"`
	Telemetry      TelemetryConfig `yaml:"telemetry"`
	Log            LogConfig       `yaml:"log"`
}

// DefaultConfig : значения по умолчанию, подходят для локальной разработки.
// Секреты не имеют значений по умолчанию и должны быть заданы явно.
func DefaultConfig() *AppConfig {
	return &AppConfig{
		Environment: "development",
		ServerAddr:  ":3001",
		RedisConfig: RedisConfig{TTL: 5 * time.Minute},
		JWT: JWTConfig{
			Issuer:          "helpdesk",
			AccessTokenTTL:  15 * time.Minute,
			RefreshTokenTTL: 7 * 24 * time.Hour,
		},
		Security: SecurityConfig{
			BcryptCost:      bcrypt.DefaultCost,
			HashConcurrency: runtime.GOMAXPROCS(0),
		},
		Cookie:    CookieConfig{Name: "rt"},
		RateLimit: RateLimitConfig{Enabled: true},
		CORS:      CORSConfig{AllowedOrigins: []string{"http://localhost:3000"}},
		Telemetry: TelemetryConfig{ServiceName: "helpdesk-api"},
		Log:       LogConfig{Level: "info"},
	}
}

// LoadConfig : читает yaml файл (если он есть), затем накладывает переменные окружения
func LoadConfig(ctx context.Context, path string) (*AppConfig, error) {
	cfg := DefaultConfig()

	if path != "" {
		file, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("ошибка чтения файла конфигурации: %w", err)
		default:
			if err := yaml.Unmarshal(file, cfg); err != nil {
				return nil, fmt.Errorf("ошибка разбора файла конфигурации: %w", err)
			}
		}
	}

	if err := envconfig.Process(ctx, cfg); err != nil {
		return nil, fmt.Errorf("ошибка чтения переменных окружения: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate : проверяет секреты, время жизни токенов и стоимость bcrypt
func (cfg *AppConfig) Validate() error {
	if cfg.JWT.AccessSecret == "" || cfg.JWT.RefreshSecret == "" {
		return errors.New("не заданы секреты для подписи токенов")
	}
	if cfg.JWT.AccessSecret == cfg.JWT.RefreshSecret {
		return errors.New("секреты access и refresh токенов должны различаться")
	}
	if cfg.JWT.AccessTokenTTL <= 0 || cfg.JWT.RefreshTokenTTL <= 0 {
		return errors.New("время жизни токенов должно быть положительным")
	}
	if cfg.Security.BcryptCost < bcrypt.MinCost || cfg.Security.BcryptCost > bcrypt.MaxCost {
		return fmt.Errorf("bcrypt cost должен быть в диапазоне [%d, %d]", bcrypt.MinCost, bcrypt.MaxCost)
	}
	if cfg.Security.HashConcurrency <= 0 {
		cfg.Security.HashConcurrency = runtime.GOMAXPROCS(0)
	}
	if cfg.Cookie.Name == "" {
		cfg.Cookie.Name = "rt"
	}
	return nil
}

func (cfg *AppConfig) IsProduction() bool {
	return cfg.Environment == EnvironmentProduction
}

func SetupServer(cfg *AppConfig) (*http.Server, *chi.Mux) {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	if cfg.TrustProxy {
		router.Use(middleware.RealIP)
	}
	router.Use(middleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORS.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           int((10 * time.Minute).Seconds()),
	}))

	server := &http.Server{
		Addr:              cfg.ServerAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return server, router
}

func SetupDatabase(dsn string) (*Database, error) {
	return NewDatabaseConnection("postgres", dsn)
}

func SetupRedis(cfg *RedisConfig) (*RedisClient, error) {
	return NewRedisClient(cfg)
}
