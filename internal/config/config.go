package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Storage backends.
const (
	StorageMemory   = "memory"
	StorageDir      = "dir"
	StoragePostgres = "postgres"
)

// Registry backends.
const (
	RegistryMemory = "memory"
	RegistryRedis  = "redis"
)

// Zumbor holds all configuration for the game.
type Zumbor struct {
	LogLevel string `yaml:"log_level"` // debug|info|warn|error

	Storage  Storage  `yaml:"storage"`
	Registry Registry `yaml:"registry"`
	Session  Session  `yaml:"session"`
	Metrics  Metrics  `yaml:"metrics"`
}

// Storage selects where player saves and encounters live.
type Storage struct {
	Backend  string         `yaml:"backend"`
	Dir      string         `yaml:"dir"`
	Database DatabaseConfig `yaml:"database"`
}

// DatabaseConfig holds PostgreSQL connection parameters.
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
	SSLMode  string `yaml:"sslmode"`
}

// DSN returns the PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

// Registry selects how one-session-per-user is enforced.
type Registry struct {
	Backend string      `yaml:"backend"`
	Redis   RedisConfig `yaml:"redis"`
}

// RedisConfig holds the Redis connection and lease parameters.
type RedisConfig struct {
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	LeaseTTL time.Duration `yaml:"lease_ttl"`
}

// Session holds player-facing timeouts and character defaults.
type Session struct {
	ChoiceTimeout    time.Duration `yaml:"choice_timeout"`
	ContinueTimeout  time.Duration `yaml:"continue_timeout"`
	CharacterTimeout time.Duration `yaml:"character_timeout"`
	StartingHealth   int16         `yaml:"starting_health"`
}

// Metrics configures the Prometheus endpoint.
type Metrics struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

// DefaultZumbor returns Zumbor config with sensible defaults.
func DefaultZumbor() Zumbor {
	return Zumbor{
		LogLevel: "info",
		Storage: Storage{
			Backend: StorageDir,
			Dir:     "data",
			Database: DatabaseConfig{
				Host:     "127.0.0.1",
				Port:     5432,
				User:     "zumbor",
				Password: "zumbor",
				DBName:   "zumbor",
				SSLMode:  "disable",
			},
		},
		Registry: Registry{
			Backend: RegistryMemory,
			Redis: RedisConfig{
				Addr:     "127.0.0.1:6379",
				LeaseTTL: 30 * time.Second,
			},
		},
		Session: Session{
			ChoiceTimeout:    120 * time.Second,
			ContinueTimeout:  120 * time.Second,
			CharacterTimeout: 120 * time.Second,
			StartingHealth:   20,
		},
		Metrics: Metrics{
			Enabled: false,
			Addr:    ":9090",
		},
	}
}

// Validate checks the backend names and timeouts.
func (c Zumbor) Validate() error {
	switch c.Storage.Backend {
	case StorageMemory, StoragePostgres:
	case StorageDir:
		if c.Storage.Dir == "" {
			return fmt.Errorf("storage.dir is required for the %q backend", StorageDir)
		}
	default:
		return fmt.Errorf("unknown storage.backend %q", c.Storage.Backend)
	}

	switch c.Registry.Backend {
	case RegistryMemory:
	case RegistryRedis:
		if c.Registry.Redis.Addr == "" {
			return fmt.Errorf("registry.redis.addr is required for the %q backend", RegistryRedis)
		}
	default:
		return fmt.Errorf("unknown registry.backend %q", c.Registry.Backend)
	}

	if c.Session.ChoiceTimeout <= 0 || c.Session.ContinueTimeout <= 0 || c.Session.CharacterTimeout <= 0 {
		return fmt.Errorf("session timeouts must be positive")
	}
	if c.Session.StartingHealth <= 0 {
		return fmt.Errorf("session.starting_health must be positive, got %d", c.Session.StartingHealth)
	}
	return nil
}

// LoadZumbor loads config from a YAML file.
// If the file doesn't exist, returns defaults.
func LoadZumbor(path string) (Zumbor, error) {
	cfg := DefaultZumbor()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("validating config %s: %w", path, err)
	}
	return cfg, nil
}
