package util

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Store drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverRedis    = "redis"
	DriverMemory   = "memory"
)

// Config holds runtime settings and flags.
type Config struct {
	StoreDriver string `envconfig:"STORE_DRIVER" default:"sqlite"`
	StorePath   string `envconfig:"STORE_PATH" default:"rabbithole.db"`
	DSN         string `envconfig:"DATABASE_URL"`
	RedisURL    string `envconfig:"REDIS_URL" default:"redis://localhost:6379/0"`
	Namespace   string `envconfig:"NAMESPACE" default:"matrix"`

	APIURL     string        `envconfig:"API_URL" default:"http://localhost:8000"`
	APITimeout time.Duration `envconfig:"API_TIMEOUT" default:"8s"`
	Language   string        `envconfig:"LANGUAGE" default:"en"`

	AdminUser     string `envconfig:"ADMIN_USER" default:"admin"`
	AdminPassword string `envconfig:"ADMIN_PASSWORD"`

	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`
	LogEncoding string `envconfig:"LOG_ENCODING" default:"console"`
	LogOutput   string `envconfig:"LOG_OUTPUT" default:"rabbithole.log"`

	PushgatewayURL string `envconfig:"PUSHGATEWAY_URL"`
	MetricsJob     string `envconfig:"METRICS_JOB" default:"rabbithole"`

	Theme          string `envconfig:"THEME" default:"matrix"`
	CosmeticGrants bool   `envconfig:"COSMETIC_GRANTS" default:"false"`
}

// Load reads envFile when present and then the QUEST_* environment.
func Load(envFile string) (Config, error) {
	if envFile != "" {
		if _, err := os.Stat(envFile); err == nil {
			if err := godotenv.Load(envFile); err != nil {
				return Config{}, fmt.Errorf("load %s: %w", envFile, err)
			}
		}
	}
	var cfg Config
	if err := envconfig.Process("QUEST", &cfg); err != nil {
		return Config{}, fmt.Errorf("process env: %w", err)
	}
	return cfg, cfg.Validate()
}

// Validate checks settings that cannot be defaulted.
func (c Config) Validate() error {
	switch strings.ToLower(c.StoreDriver) {
	case DriverSQLite:
		if c.StorePath == "" {
			return fmt.Errorf("store path is required for sqlite")
		}
	case DriverPostgres:
		if c.DSN == "" {
			return fmt.Errorf("missing DSN")
		}
	case DriverRedis:
		if c.RedisURL == "" {
			return fmt.Errorf("redis url is required")
		}
	case DriverMemory:
	default:
		return fmt.Errorf("unknown store driver %q", c.StoreDriver)
	}
	if c.Namespace == "" {
		return fmt.Errorf("namespace must not be empty")
	}
	if c.APITimeout <= 0 {
		return fmt.Errorf("api timeout must be positive")
	}
	return nil
}
