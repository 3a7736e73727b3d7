package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App       AppConfig
	Postgres  PostgresConfig
	Redis     RedisConfig
	Logger    LoggerConfig
	Auth      AuthConfig
	RateLimit RateLimitConfig
	SMTP      SMTPConfig
	CORS      CORSConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name           string        `env:"APP_NAME" env-default:"inventory-service"`
	Env            string        `env:"APP_ENV" env-default:"development"`
	Host           string        `env:"APP_HOST" env-default:"0.0.0.0"`
	Port           string        `env:"APP_PORT" env-default:"5000"`
	Version        string        `env:"APP_VERSION" env-default:"dev"`
	BasePath       string        `env:"APP_BASE_PATH" env-default:"/api/v1"`
	RequestTimeout time.Duration `env:"HTTP_REQUEST_TIMEOUT" env-default:"30s"`
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN             string        `env:"POSTGRES_DSN"`
	MaxConns        int32         `env:"POSTGRES_MAX_CONNS" env-default:"10"`
	MinConns        int32         `env:"POSTGRES_MIN_CONNS" env-default:"2"`
	RunMigrations   bool          `env:"POSTGRES_RUN_MIGRATIONS" env-default:"true"`
	ConnMaxIdleTime time.Duration `env:"POSTGRES_CONN_MAX_IDLE" env-default:"30s"`
	ConnMaxLifetime time.Duration `env:"POSTGRES_CONN_MAX_LIFE" env-default:"5m"`
}

// RedisConfig holds Redis connection values. An empty Addr disables Redis.
type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB" env-default:"0"`
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string `env:"LOG_LEVEL" env-default:"info"`
}

// AuthConfig defines authentication parameters.
type AuthConfig struct {
	JWTSecret         string        `env:"AUTH_JWT_SECRET" env-default:"dev-secret"`
	TokenTTL          time.Duration `env:"AUTH_TOKEN_TTL" env-default:"720h"`
	OTPTTL            time.Duration `env:"AUTH_OTP_TTL" env-default:"10m"`
	OTPResendCooldown time.Duration `env:"AUTH_OTP_RESEND_COOLDOWN" env-default:"0s"`
	MailTimeout       time.Duration `env:"AUTH_MAIL_TIMEOUT" env-default:"10s"`
	BcryptCost        int           `env:"AUTH_BCRYPT_COST" env-default:"10"`
}

// RateLimitConfig bounds requests on the public auth routes.
type RateLimitConfig struct {
	AuthMax    int           `env:"RATE_LIMIT_AUTH_MAX" env-default:"10"`
	AuthWindow time.Duration `env:"RATE_LIMIT_AUTH_WINDOW" env-default:"15m"`
	Message    string        `env:"RATE_LIMIT_MESSAGE" env-default:"Too many requests from this IP, please try again after 15 minutes."`
}

// SMTPConfig describes the outgoing mail relay.
type SMTPConfig struct {
	Host     string        `env:"EMAIL_HOST"`
	Port     int           `env:"EMAIL_PORT" env-default:"587"`
	Username string        `env:"EMAIL_USER"`
	Password string        `env:"EMAIL_PASS"`
	From     string        `env:"SENDER_EMAIL" env-default:"noreply@example.com"`
	FromName string        `env:"SENDER_NAME" env-default:"Inventory Management"`
	Timeout  time.Duration `env:"EMAIL_TIMEOUT" env-default:"10s"`
}

// CORSConfig lists origins allowed to call the API from a browser.
type CORSConfig struct {
	AllowOrigins string `env:"CORS_ALLOW_ORIGINS" env-default:"*"`
}

// DefaultJWTSecret signs tokens when AUTH_JWT_SECRET is unset. Rejected in production.
const DefaultJWTSecret = "dev-secret"

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("read env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the service cannot run with.
func (c *Config) Validate() error {
	if c.Auth.JWTSecret == "" {
		return errors.New("AUTH_JWT_SECRET must not be empty")
	}
	if c.App.Env == "production" && c.Auth.JWTSecret == DefaultJWTSecret {
		return errors.New("AUTH_JWT_SECRET must be set in production")
	}
	if c.Auth.TokenTTL <= 0 {
		return errors.New("AUTH_TOKEN_TTL must be positive")
	}
	if c.Auth.OTPTTL <= 0 {
		return errors.New("AUTH_OTP_TTL must be positive")
	}
	if c.Auth.OTPResendCooldown < 0 {
		return errors.New("AUTH_OTP_RESEND_COOLDOWN must not be negative")
	}
	if c.RateLimit.AuthMax <= 0 || c.RateLimit.AuthWindow <= 0 {
		return errors.New("RATE_LIMIT_AUTH_MAX and RATE_LIMIT_AUTH_WINDOW must be positive")
	}
	return nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// Addr returns the SMTP relay address.
func (s SMTPConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// UseSSL reports whether the relay expects implicit TLS.
func (s SMTPConfig) UseSSL() bool {
	return s.Port == 465
}

// Enabled reports whether a Redis address was configured.
func (r RedisConfig) Enabled() bool {
	return r.Addr != ""
}
