package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
)

const (
	SessionBackendMemory = "memory"
	SessionBackendRedis  = "redis"
)

type Config struct {
	AppPort string `env:"APP_PORT,default=5000"`

	// SessionSecret signs session tokens. A random key is generated at
	// startup when empty.
	SessionSecret        string        `env:"SESSION_SECRET"`
	SessionTTLSeconds    int           `env:"SESSION_TTL_SECONDS,default=3600"`
	SessionSweepInterval time.Duration `env:"SESSION_SWEEP_INTERVAL,default=5m"`
	SessionBackend       string        `env:"SESSION_BACKEND,default=memory"`

	RedisAddr     string `env:"REDIS_ADDR,default=localhost:6379"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisPrefix   string `env:"REDIS_PREFIX,default=bookstore."`

	CatalogFile string `env:"CATALOG_FILE"`

	// WatchMaxPerBook caps live review watchers per book; 0 disables the cap.
	WatchMaxPerBook int `env:"WATCH_MAX_PER_BOOK,default=64"`

	CorsOrigins  []string `env:"CORS_ORIGINS,default=*"`
	CookieSecure bool     `env:"COOKIE_SECURE,default=false"`

	BcryptCost int   `env:"BCRYPT_COST,default=10"`
	NodeId     int64 `env:"NODE_ID,default=1"`

	LogLevel  string `env:"LOG_LEVEL,default=info"`
	LogFormat string `env:"LOG_FORMAT,default=json"`
}

func (c Config) SessionTTL() time.Duration {
	return time.Duration(c.SessionTTLSeconds) * time.Second
}

// Load reads an optional .env file from the working directory and then
// decodes the environment into a Config.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	return FromEnv()
}

func FromEnv() (Config, error) {
	var cfg Config
	if err := envdecode.Decode(&cfg); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.SessionTTLSeconds <= 0 {
		return fmt.Errorf("SESSION_TTL_SECONDS must be positive, got %d", c.SessionTTLSeconds)
	}
	switch c.SessionBackend {
	case SessionBackendMemory, SessionBackendRedis:
	default:
		return fmt.Errorf("unknown SESSION_BACKEND %q", c.SessionBackend)
	}
	if c.WatchMaxPerBook < 0 {
		return fmt.Errorf("WATCH_MAX_PER_BOOK must not be negative, got %d", c.WatchMaxPerBook)
	}
	if c.NodeId < 0 || c.NodeId > 1023 {
		return fmt.Errorf("NODE_ID must be within 0..1023, got %d", c.NodeId)
	}
	for _, origin := range c.CorsOrigins {
		if origin != "*" && !strings.HasPrefix(origin, "http://") && !strings.HasPrefix(origin, "https://") {
			return fmt.Errorf("CORS_ORIGINS entry %q must be * or an http(s) origin", origin)
		}
	}
	return nil
}
