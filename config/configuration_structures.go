package config

import "time"

type DatabaseConfig struct {
	DSN string `yaml:"dsn" env:"DATABASE_URL,overwrite"`
}

type RedisConfig struct {
	Addr     string        `yaml:"addr" env:"REDIS_ADDR,overwrite"`
	Password string        `yaml:"password" env:"REDIS_PASSWORD,overwrite"`
	DB       int           `yaml:"db" env:"REDIS_DB,overwrite"`
	TTL      time.Duration `yaml:"ttl" env:"REDIS_TTL,overwrite"`
}

// JWTConfig : access и refresh токены подписываются разными секретами
type JWTConfig struct {
	Issuer          string        `yaml:"issuer" env:"JWT_ISSUER,overwrite"`
	AccessSecret    string        `yaml:"access_secret" env:"JWT_SECRET,overwrite"`
	AccessTokenTTL  time.Duration `yaml:"access_token_ttl" env:"JWT_EXPIRES_IN,overwrite"`
	RefreshSecret   string        `yaml:"refresh_secret" env:"REFRESH_TOKEN_SECRET,overwrite"`
	RefreshTokenTTL time.Duration `yaml:"refresh_token_ttl" env:"REFRESH_TOKEN_EXPIRES_IN,overwrite"`
}

type SecurityConfig struct {
	BcryptCost      int `yaml:"bcrypt_cost" env:"BCRYPT_SALT_ROUNDS,overwrite"`
	HashConcurrency int `yaml:"hash_concurrency" env:"HASH_CONCURRENCY,overwrite"`
}

type CookieConfig struct {
	Name   string `yaml:"name" env:"REFRESH_COOKIE_NAME,overwrite"`
	Domain string `yaml:"domain" env:"COOKIE_DOMAIN,overwrite"`
}

type RateLimitConfig struct {
	Enabled bool `yaml:"enabled" env:"RATE_LIMIT_ENABLED,overwrite"`
}

type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins" env:"CORS_ALLOWED_ORIGINS,overwrite"`
}

type TelemetryConfig struct {
	ServiceName  string `yaml:"service_name" env:"OTEL_SERVICE_NAME,overwrite"`
	OTLPEndpoint string `yaml:"otlp_endpoint" env:"OTEL_EXPORTER_OTLP_ENDPOINT,overwrite"`
}

type LogConfig struct {
	Level string `yaml:"level" env:"LOG_LEVEL,overwrite"`
}
