package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
)

// MinJWTKeyLength is the shortest accepted HMAC-SHA256 signing key, in bytes.
const MinJWTKeyLength = 32

// Duration parses env values as "10s", "5m" or a bare number of seconds.
type Duration time.Duration

// SetValue implements cleanenv.Setter.
func (d *Duration) SetValue(data string) error {
	v, err := ParseDuration(data)
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

func (d Duration) Duration() time.Duration { return time.Duration(d) }

// ParseDuration accepts a Go duration string or a bare number of seconds,
// optionally wrapped in quotes.
func ParseDuration(s string) (time.Duration, error) {
	s = strings.Trim(strings.TrimSpace(s), `"'`)
	if s == "" {
		return 0, errors.New("empty duration")
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Duration(n) * time.Second, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("duration must be like 10s, 5m or a number of seconds: %w", err)
	}
	return d, nil
}

// Config is the process-wide configuration. It is loaded once at startup and
// treated as read-only afterwards.
type Config struct {
	HTTP  HTTPConfig
	Log   LogConfig
	DB    DBConfig
	JWT   JWTConfig
	Auth  AuthConfig
	CORS  CORSConfig
	Redis RedisConfig
}

type HTTPConfig struct {
	Port         string   `env:"HTTP_PORT" env-default:"8080"`
	ReadTimeout  Duration `env:"HTTP_READ_TIMEOUT" env-default:"10s"`
	WriteTimeout Duration `env:"HTTP_WRITE_TIMEOUT" env-default:"15s"`
	IdleTimeout  Duration `env:"HTTP_IDLE_TIMEOUT" env-default:"120s"`
}

type LogConfig struct {
	Level string `env:"LOG_LEVEL" env-default:"info"`
}

type DBConfig struct {
	Driver string `env:"DB_DRIVER" env-default:"sqlite"`
	Path   string `env:"DATABASE_PATH" env-default:"task-manager.db"`
	PGDSN  string `env:"PG_DSN" env-default:""`
}

type JWTConfig struct {
	Key      string   `env:"JWT_KEY" env-required:"true"`
	Issuer   string   `env:"JWT_ISSUER" env-default:"task-manager-api"`
	Audience string   `env:"JWT_AUDIENCE" env-default:"task-manager-clients"`
	TTL      Duration `env:"JWT_TTL" env-default:"1h"`
}

type AuthConfig struct {
	BcryptCost int     `env:"BCRYPT_COST" env-default:"12"`
	LoginRate  float64 `env:"LOGIN_RATE" env-default:"0.2"`
	LoginBurst float64 `env:"LOGIN_BURST" env-default:"5"`
}

type CORSConfig struct {
	Origins []string `env:"CORS_ORIGINS" env-separator:"," env-default:"http://localhost:5173,http://localhost:8080,http://localhost:4200,http://localhost:3000"`
}

type RedisConfig struct {
	// URL overrides Addr/Password/DB when set, e.g. redis://:pw@host:6379/0.
	URL      string   `env:"REDIS_URL" env-default:""`
	Addr     string   `env:"REDIS_ADDR" env-default:""`
	Password string   `env:"REDIS_PASSWORD" env-default:""`
	DB       int      `env:"REDIS_DB" env-default:"0"`
	TTL      Duration `env:"CACHE_TTL" env-default:"60s"`
}

// Enabled reports whether a Redis endpoint was configured.
func (c RedisConfig) Enabled() bool { return c.URL != "" || c.Addr != "" }

// Options builds client options. REDIS_URL is parsed by go-redis itself, so
// a rediss:// URL yields a TLS configuration.
func (c RedisConfig) Options() (*redis.Options, error) {
	if c.URL != "" {
		opts, err := redis.ParseURL(strings.TrimSpace(c.URL))
		if err != nil {
			return nil, fmt.Errorf("REDIS_URL: %w", err)
		}
		return opts, nil
	}
	return &redis.Options{
		Addr:     c.Addr,
		Password: c.Password,
		DB:       c.DB,
	}, nil
}

// Load reads an optional .env file, then the environment, and validates the
// result. Any error here is fatal to the process.
func Load() (Config, error) {
	if err := godotenv.Load(); err == nil {
		slog.Info("loaded .env file")
	}

	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return Config{}, fmt.Errorf("read env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks cross-field constraints that struct tags cannot express.
func (c Config) Validate() error {
	if len(c.JWT.Key) < MinJWTKeyLength {
		return fmt.Errorf("JWT_KEY must be at least %d characters for HMAC-SHA256 security", MinJWTKeyLength)
	}
	if c.JWT.Issuer == "" || c.JWT.Audience == "" {
		return errors.New("JWT_ISSUER and JWT_AUDIENCE must not be empty")
	}
	if c.JWT.TTL.Duration() <= 0 {
		return errors.New("JWT_TTL must be positive")
	}
	if c.Auth.BcryptCost < 4 || c.Auth.BcryptCost > 14 {
		return fmt.Errorf("BCRYPT_COST must be between 4 and 14, got %d", c.Auth.BcryptCost)
	}
	if c.Auth.LoginRate < 0 || c.Auth.LoginBurst < 1 {
		return errors.New("LOGIN_RATE must be >= 0 and LOGIN_BURST >= 1")
	}
	if c.Redis.Enabled() {
		if _, err := c.Redis.Options(); err != nil {
			return err
		}
	}
	switch c.DB.Driver {
	case "sqlite":
		if c.DB.Path == "" {
			return errors.New("DATABASE_PATH is required for the sqlite driver")
		}
	case "postgres":
		if c.DB.PGDSN == "" {
			return errors.New("PG_DSN is required for the postgres driver")
		}
	default:
		return fmt.Errorf("DB_DRIVER must be sqlite or postgres, got %q", c.DB.Driver)
	}
	return nil
}

// SlogLevel maps LOG_LEVEL to a slog.Level, defaulting to Info.
func (c LogConfig) SlogLevel() slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.Level)); err != nil {
		return slog.LevelInfo
	}
	return lvl
}
