package config

import (
	"errors"
	"flag"
	"fmt"
	"net/url"
	"time"

	"github.com/caarlos0/env/v6"
)

const (
	CounterMemory    = "memory"
	CounterRedis     = "redis"
	CounterSnowflake = "snowflake"
)

type Config struct {
	ServerAddress   string        `env:"SERVER_ADDRESS" envDefault:":8080"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
	CORSOrigins     []string      `env:"CORS_ORIGINS" envDefault:"*" envSeparator:","`
	// BaseURL prefixes short codes in responses when set, e.g. http://localhost:8080.
	BaseURL string `env:"BASE_URL"`

	// DatabaseDSN selects PostgreSQL; empty keeps mappings in memory.
	DatabaseDSN string `env:"DATABASE_DSN"`

	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	CounterBackend string `env:"COUNTER_BACKEND" envDefault:"memory"`
	CounterKey     string `env:"COUNTER_KEY" envDefault:"url_counter"`
	CounterStep    int64  `env:"COUNTER_STEP" envDefault:"1000"`
	NodeID         uint64 `env:"NODE_ID" envDefault:"0"`

	CodeMaxAttempts    int `env:"CODE_MAX_ATTEMPTS" envDefault:"0"`
	ShortenMaxAttempts int `env:"SHORTEN_MAX_ATTEMPTS" envDefault:"6"`

	CacheSize   int           `env:"CACHE_SIZE" envDefault:"10000"`
	CacheTTL    time.Duration `env:"CACHE_TTL" envDefault:"5m"`
	CachePrefix string        `env:"CACHE_PREFIX" envDefault:"short:"`

	LogLevel      string `env:"LOG_LEVEL" envDefault:"info"`
	LogFile       string `env:"LOG_FILE"`
	LogMaxSizeMB  int    `env:"LOG_MAX_SIZE_MB" envDefault:"100"`
	LogMaxAgeDays int    `env:"LOG_MAX_AGE_DAYS" envDefault:"7"`
}

// Load reads the environment, then lets command-line flags in args override
// the address, base URL, database and redis settings.
func Load(args []string) (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}

	fs := flag.NewFlagSet("shortener", flag.ContinueOnError)
	fs.StringVar(&cfg.ServerAddress, "a", cfg.ServerAddress, "Server address host:port")
	fs.StringVar(&cfg.BaseURL, "b", cfg.BaseURL, "Base address of short links")
	fs.StringVar(&cfg.DatabaseDSN, "d", cfg.DatabaseDSN, "Database source string")
	fs.StringVar(&cfg.RedisAddr, "r", cfg.RedisAddr, "Redis address host:port")
	fs.StringVar(&cfg.CounterBackend, "counter", cfg.CounterBackend, "Counter backend: memory, redis or snowflake")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.CounterBackend {
	case CounterMemory, CounterSnowflake:
	case CounterRedis:
		if c.RedisAddr == "" {
			return errors.New("counter backend redis requires REDIS_ADDR")
		}
	default:
		return fmt.Errorf("unknown counter backend %q", c.CounterBackend)
	}
	if c.BaseURL != "" {
		u, err := url.ParseRequestURI(c.BaseURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("BASE_URL must be an absolute http(s) URL, got %q", c.BaseURL)
		}
	}
	if c.CounterStep <= 0 {
		return fmt.Errorf("COUNTER_STEP must be positive, got %d", c.CounterStep)
	}
	if c.NodeID > 1023 {
		return fmt.Errorf("NODE_ID must be in 0..1023, got %d", c.NodeID)
	}
	if c.ShortenMaxAttempts <= 0 {
		return fmt.Errorf("SHORTEN_MAX_ATTEMPTS must be positive, got %d", c.ShortenMaxAttempts)
	}
	return nil
}
