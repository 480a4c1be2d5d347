package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "velora"

	AppEnvDev  = "dev"
	AppEnvProd = "production"

	SnapshotBackendSQLite = "sqlite"
	SnapshotBackendRedis  = "redis"
	SnapshotBackendMemory = "memory"
)

// Env var names referenced by tests and docs.
const (
	EnvAppEnv          = "VELORA_APP_ENV"
	EnvAPIBaseURL      = "VELORA_API_BASE_URL"
	EnvSnapshotBackend = "VELORA_SNAPSHOT_BACKEND"
	EnvRedisURL        = "VELORA_REDIS_URL"
)

type Config struct {
	App      AppConfig
	API      APIConfig
	Snapshot SnapshotConfig
	Redis    RedisConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Snapshot.validate(&cfg.Redis); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"VELORA_APP_ENV" default:"dev"`
	LogLevel     string `envconfig:"VELORA_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"VELORA_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type APIConfig struct {
	BaseURL   string        `envconfig:"VELORA_API_BASE_URL" required:"true"`
	Timeout   time.Duration `envconfig:"VELORA_API_TIMEOUT" default:"15s"`
	UserAgent string        `envconfig:"VELORA_API_USER_AGENT" default:"storefront-client/1.0"`
}

type SnapshotConfig struct {
	Backend string        `envconfig:"VELORA_SNAPSHOT_BACKEND" default:"sqlite"`
	Path    string        `envconfig:"VELORA_SNAPSHOT_PATH" default:"storefront.db"`
	TTL     time.Duration `envconfig:"VELORA_SNAPSHOT_TTL" default:"0"`
}

type RedisConfig struct {
	URL          string        `envconfig:"VELORA_REDIS_URL"`
	Address      string        `envconfig:"VELORA_REDIS_ADDR"`
	Password     string        `envconfig:"VELORA_REDIS_PASSWORD"`
	DB           int           `envconfig:"VELORA_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"VELORA_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"VELORA_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"VELORA_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"VELORA_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"VELORA_REDIS_WRITE_TIMEOUT" default:"5s"`
}

func (s *SnapshotConfig) validate(redis *RedisConfig) error {
	backend := strings.ToLower(strings.TrimSpace(s.Backend))
	switch backend {
	case SnapshotBackendSQLite:
		if strings.TrimSpace(s.Path) == "" {
			return fmt.Errorf("%s is required for the sqlite snapshot backend", "VELORA_SNAPSHOT_PATH")
		}
	case SnapshotBackendRedis:
		if redis.URL == "" && redis.Address == "" {
			return fmt.Errorf("either %s or %s is required for the redis snapshot backend", EnvRedisURL, "VELORA_REDIS_ADDR")
		}
	case SnapshotBackendMemory:
	default:
		return fmt.Errorf("unknown snapshot backend %q", s.Backend)
	}
	s.Backend = backend
	return nil
}
