package app

import (
	"fmt"
	"strings"
	"time"

	coreconfig "github.com/m3rciful/quizbot/core/config"
	coredatabase "github.com/m3rciful/quizbot/core/database"
	"github.com/m3rciful/quizbot/internal/dialogue"
	"github.com/m3rciful/quizbot/internal/engine"
)

const (
	// StoragePostgres keeps quizzes in PostgreSQL.
	StoragePostgres = "postgres"
	// StorageMemory keeps quizzes in process memory.
	StorageMemory = "memory"

	// SessionMemory keeps dialogue states in process memory.
	SessionMemory = "memory"
	// SessionRedis keeps dialogue states in Redis.
	SessionRedis = "redis"

	// DefaultMetricsListen is the metrics endpoint address when none is set.
	DefaultMetricsListen = ":9090"
)

// StorageConfig selects the quiz repository backend.
type StorageConfig struct {
	Backend string `yaml:"backend" envconfig:"STORAGE_BACKEND"`
}

// SessionConfig selects where dialogue states live.
type SessionConfig struct {
	Backend  string        `yaml:"backend" envconfig:"SESSION_BACKEND"`
	Addr     string        `yaml:"addr" envconfig:"REDIS_ADDR"`
	Password string        `yaml:"password" envconfig:"REDIS_PASSWORD"`
	DB       int           `yaml:"db" envconfig:"REDIS_DB"`
	Prefix   string        `yaml:"prefix" envconfig:"SESSION_PREFIX"`
	TTL      time.Duration `yaml:"ttl" envconfig:"SESSION_TTL"`
	// LockTTL bounds how long a crashed instance can hold a user's lock.
	LockTTL time.Duration `yaml:"lock_ttl" envconfig:"SESSION_LOCK_TTL"`
}

// EngineConfig tunes dialogue turns.
type EngineConfig struct {
	TransitionTimeout time.Duration `yaml:"transition_timeout" envconfig:"ENGINE_TRANSITION_TIMEOUT"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Listen   string `yaml:"listen" envconfig:"METRICS_LISTEN"`
	Disabled bool   `yaml:"disabled" envconfig:"METRICS_DISABLED"`
}

// SeedConfig points at an optional YAML file of quizzes loaded on startup.
type SeedConfig struct {
	File string `yaml:"file" envconfig:"SEED_FILE"`
}

// Config is the full quizbot configuration.
type Config struct {
	coreconfig.Config `yaml:",inline"`

	Database coredatabase.Config `yaml:"database"`
	Storage  StorageConfig       `yaml:"storage"`
	Session  SessionConfig       `yaml:"session"`
	Engine   EngineConfig        `yaml:"engine"`
	Metrics  MetricsConfig       `yaml:"metrics"`
	Seed     SeedConfig          `yaml:"seed"`
}

// CoreConfig exposes the shared bot configuration.
func (c *Config) CoreConfig() *coreconfig.Config {
	if c == nil {
		return nil
	}
	return &c.Config
}

// LoadConfig reads path, applies environment overrides and validates.
func LoadConfig(path string) (*Config, error) {
	var cfg Config
	if err := coreconfig.Decode(path, &cfg); err != nil {
		return nil, err
	}
	if err := coreconfig.Normalize(&cfg.Config); err != nil {
		return nil, err
	}
	if err := cfg.Normalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Normalize validates the quizbot sections and fills defaults.
func (c *Config) Normalize() error {
	c.Storage.Backend = strings.ToLower(strings.TrimSpace(c.Storage.Backend))
	switch c.Storage.Backend {
	case "":
		c.Storage.Backend = StoragePostgres
		fallthrough
	case StoragePostgres:
		if err := coredatabase.Normalize(&c.Database); err != nil {
			return err
		}
	case StorageMemory:
	default:
		return fmt.Errorf("invalid storage.backend %q; allowed: postgres, memory", c.Storage.Backend)
	}

	c.Session.Backend = strings.ToLower(strings.TrimSpace(c.Session.Backend))
	switch c.Session.Backend {
	case "":
		c.Session.Backend = SessionMemory
	case SessionMemory:
	case SessionRedis:
		if strings.TrimSpace(c.Session.Addr) == "" {
			return fmt.Errorf("session.addr is required when session.backend is 'redis'")
		}
	default:
		return fmt.Errorf("invalid session.backend %q; allowed: memory, redis", c.Session.Backend)
	}
	if c.Session.Prefix == "" {
		c.Session.Prefix = dialogue.DefaultRedisPrefix
	}
	if c.Session.TTL < 0 {
		return fmt.Errorf("session.ttl must be >= 0")
	}
	if c.Session.LockTTL <= 0 {
		c.Session.LockTTL = dialogue.DefaultLockTTL
	}

	if c.Engine.TransitionTimeout < 0 {
		return fmt.Errorf("engine.transition_timeout must be >= 0")
	}
	if c.Engine.TransitionTimeout == 0 {
		c.Engine.TransitionTimeout = engine.DefaultTimeout
	}

	if !c.Metrics.Disabled && strings.TrimSpace(c.Metrics.Listen) == "" {
		c.Metrics.Listen = DefaultMetricsListen
	}
	c.Seed.File = strings.TrimSpace(c.Seed.File)
	return nil
}
