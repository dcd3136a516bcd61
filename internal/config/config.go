// Package config provides layered configuration loading and validation for the CLI.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/jonathan/profile-wizard/internal/progress"
	"github.com/jonathan/profile-wizard/internal/server/ratelimit"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override, e.g.
// PROFILE_WIZARD_SNAPSHOT_BACKEND.
const EnvPrefix = "PROFILE_WIZARD"

// Snapshot backends.
const (
	BackendFile     = "file"
	BackendSQLite   = "sqlite"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)

// Config is the full CLI configuration. Values come from defaults, then an
// optional config file, then PROFILE_WIZARD_* environment variables, then flags.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Snapshot  SnapshotConfig  `mapstructure:"snapshot"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Session   SessionConfig   `mapstructure:"session"`
	Progress  ProgressConfig  `mapstructure:"progress"`
	Wizard    WizardConfig    `mapstructure:"wizard"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Log       LogConfig       `mapstructure:"log"`
}

type ServerConfig struct {
	Port int `mapstructure:"port"`
}

type DatabaseConfig struct {
	URL     string `mapstructure:"url"`
	Migrate bool   `mapstructure:"migrate"`
}

// SnapshotConfig selects where wizard drafts are persisted.
type SnapshotConfig struct {
	Backend        string        `mapstructure:"backend"`
	Dir            string        `mapstructure:"dir"`
	SQLitePath     string        `mapstructure:"sqlite_path"`
	RedisNamespace string        `mapstructure:"redis_namespace"`
	RedisTTL       time.Duration `mapstructure:"redis_ttl"`
}

type RedisConfig struct {
	Addrs    []string `mapstructure:"addrs"`
	Password string   `mapstructure:"password"`
}

// SessionConfig holds the timing knobs of an editing session.
type SessionConfig struct {
	Debounce          time.Duration `mapstructure:"debounce"`
	SavedDisplay      time.Duration `mapstructure:"saved_display"`
	HighlightDuration time.Duration `mapstructure:"highlight_duration"`
	ToastDuration     time.Duration `mapstructure:"toast_duration"`
	Seed              uint64        `mapstructure:"seed"`
	RemoteURL         string        `mapstructure:"remote_url"`
	UserID            string        `mapstructure:"user_id"`
}

type ProgressConfig struct {
	Baseline  int `mapstructure:"baseline"`
	AddPoints int `mapstructure:"add_points"`
}

type WizardConfig struct {
	StepPoints int `mapstructure:"step_points"`
}

type RateLimitConfig struct {
	Enabled       bool          `mapstructure:"enabled"`
	DefaultLimit  int           `mapstructure:"default_limit"`
	DefaultWindow time.Duration `mapstructure:"default_window"`
	Whitelist     string        `mapstructure:"whitelist"`
	Blacklist     string        `mapstructure:"blacklist"`
}

type LogConfig struct {
	Verbose bool `mapstructure:"verbose"`
}

// SetDefaults registers every default on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)

	v.SetDefault("database.url", "")
	v.SetDefault("database.migrate", false)

	v.SetDefault("snapshot.backend", BackendFile)
	v.SetDefault("snapshot.dir", ".profile-wizard")
	v.SetDefault("snapshot.sqlite_path", "profile-wizard.db")
	v.SetDefault("snapshot.redis_namespace", "profile-wizard")
	v.SetDefault("snapshot.redis_ttl", time.Duration(0))

	v.SetDefault("redis.addrs", []string{"localhost:6379"})
	v.SetDefault("redis.password", "")

	v.SetDefault("session.debounce", 3*time.Second)
	v.SetDefault("session.saved_display", 2*time.Second)
	v.SetDefault("session.highlight_duration", 4*time.Second)
	v.SetDefault("session.toast_duration", 6*time.Second)
	v.SetDefault("session.seed", uint64(0))
	v.SetDefault("session.remote_url", "")
	v.SetDefault("session.user_id", "")

	v.SetDefault("progress.baseline", 10)
	v.SetDefault("progress.add_points", 5)
	v.SetDefault("wizard.step_points", 10)

	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.default_limit", 1000)
	v.SetDefault("rate_limit.default_window", time.Minute)
	v.SetDefault("rate_limit.whitelist", "")
	v.SetDefault("rate_limit.blacklist", "")

	v.SetDefault("log.verbose", false)
}

// NewViper returns a viper instance with defaults and environment overrides
// wired. Callers may bind flags to it before calling LoadConfig.
func NewViper() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// LoadConfig reads the optional config file at path (json, toml or yaml) into v and
// decodes the result.
func LoadConfig(v *viper.Viper, path string) (*Config, error) {
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return &cfg, nil
}

// Validate checks that the configuration has valid values.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("config error: 'server.port' must be between 1 and 65535")
	}

	switch c.Snapshot.Backend {
	case BackendFile:
		if c.Snapshot.Dir == "" {
			return fmt.Errorf("config error: 'snapshot.dir' is required for the file backend")
		}
	case BackendSQLite:
		if c.Snapshot.SQLitePath == "" {
			return fmt.Errorf("config error: 'snapshot.sqlite_path' is required for the sqlite backend")
		}
	case BackendRedis:
		if len(c.Redis.Addrs) == 0 {
			return fmt.Errorf("config error: 'redis.addrs' is required for the redis backend")
		}
	case BackendPostgres:
		if c.Database.URL == "" {
			return fmt.Errorf("config error: 'database.url' is required for the postgres backend")
		}
	case BackendMemory:
	default:
		return fmt.Errorf("config error: unknown snapshot backend %q", c.Snapshot.Backend)
	}
	if c.Snapshot.RedisTTL < 0 {
		return fmt.Errorf("config error: 'snapshot.redis_ttl' must be non-negative")
	}

	if c.Session.Debounce <= 0 {
		return fmt.Errorf("config error: 'session.debounce' must be positive")
	}
	if c.Session.SavedDisplay < 0 || c.Session.HighlightDuration < 0 || c.Session.ToastDuration < 0 {
		return fmt.Errorf("config error: session display durations must be non-negative")
	}

	if c.Progress.Baseline < 0 || c.Progress.Baseline > 100 {
		return fmt.Errorf("config error: 'progress.baseline' must be between 0 and 100")
	}
	if c.Progress.AddPoints < 0 {
		return fmt.Errorf("config error: 'progress.add_points' must be non-negative")
	}
	if c.Wizard.StepPoints < 0 {
		return fmt.Errorf("config error: 'wizard.step_points' must be non-negative")
	}

	if c.RateLimit.Enabled {
		if c.RateLimit.DefaultLimit <= 0 {
			return fmt.Errorf("config error: 'rate_limit.default_limit' must be positive")
		}
		if c.RateLimit.DefaultWindow <= 0 {
			return fmt.Errorf("config error: 'rate_limit.default_window' must be positive")
		}
	}

	return nil
}

// ProgressEngine returns the progress engine configuration.
func (c *Config) ProgressEngine() progress.Config {
	cfg := progress.DefaultConfig()
	cfg.Baseline = c.Progress.Baseline
	cfg.AddPoints = c.Progress.AddPoints
	return cfg
}

// RateLimiter returns the limiter configuration of the REST service.
func (c *Config) RateLimiter() *ratelimit.Config {
	if !c.RateLimit.Enabled {
		return &ratelimit.Config{Enabled: false}
	}
	rl := ratelimit.DefaultConfig()
	rl.DefaultLimit = c.RateLimit.DefaultLimit
	rl.DefaultWindow = c.RateLimit.DefaultWindow
	rl.Whitelist = ratelimit.ParseIPList(c.RateLimit.Whitelist)
	rl.Blacklist = ratelimit.ParseIPList(c.RateLimit.Blacklist)
	return rl
}
