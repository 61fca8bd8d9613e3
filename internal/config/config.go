// Package config handles tickets configuration loading and validation.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Store backends.
const (
	BackendMemory    = "memory"
	BackendSQLite    = "sqlite"
	BackendRedis     = "redis"
	BackendFirestore = "firestore"
)

// Config is the root configuration structure for tickets.
type Config struct {
	// Store selects and configures the document collection
	Store StoreConfig `yaml:"store" mapstructure:"store"`

	// Mutation controls create/update/delete calls
	Mutation MutationConfig `yaml:"mutation" mapstructure:"mutation"`

	// UI settings
	UI UIConfig `yaml:"ui" mapstructure:"ui"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" mapstructure:"logging"`
}

// StoreConfig selects the backend holding the ticket collection.
type StoreConfig struct {
	// Backend is one of memory, sqlite, redis, firestore.
	Backend string `yaml:"backend" mapstructure:"backend"`

	// Collection is the name of the ticket collection.
	Collection string `yaml:"collection" mapstructure:"collection"`

	SQLite    SQLiteConfig    `yaml:"sqlite" mapstructure:"sqlite"`
	Redis     RedisConfig     `yaml:"redis" mapstructure:"redis"`
	Firestore FirestoreConfig `yaml:"firestore" mapstructure:"firestore"`
}

// SQLiteConfig configures the sqlite backend.
type SQLiteConfig struct {
	Path string `yaml:"path" mapstructure:"path"`

	// PollInterval is how often writes by other processes are checked for.
	PollInterval time.Duration `yaml:"poll_interval" mapstructure:"poll_interval"`
}

// RedisConfig configures the redis backend.
type RedisConfig struct {
	Addr     string `yaml:"addr" mapstructure:"addr"`
	Username string `yaml:"username" mapstructure:"username"`
	Password string `yaml:"password" mapstructure:"password"`
	DB       int    `yaml:"db" mapstructure:"db"`

	// Prefix namespaces keys; defaults to the collection name.
	Prefix string `yaml:"prefix" mapstructure:"prefix"`
}

// FirestoreConfig configures the firestore backend.
type FirestoreConfig struct {
	ProjectID       string `yaml:"project_id" mapstructure:"project_id"`
	CredentialsFile string `yaml:"credentials_file" mapstructure:"credentials_file"`
}

// MutationConfig controls remote writes.
type MutationConfig struct {
	Timeout       time.Duration `yaml:"timeout" mapstructure:"timeout"`
	RetryAttempts int           `yaml:"retry_attempts" mapstructure:"retry_attempts"`
	RetryBackoff  time.Duration `yaml:"retry_backoff" mapstructure:"retry_backoff"`
}

// UIConfig contains TUI settings.
type UIConfig struct {
	// NoticeDuration is how long transient notices stay visible.
	NoticeDuration time.Duration `yaml:"notice_duration" mapstructure:"notice_duration"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`

	// File receives logs while the TUI owns the terminal.
	File string `yaml:"file" mapstructure:"file"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Store: StoreConfig{
			Backend:    BackendSQLite,
			Collection: "tickets",
			SQLite: SQLiteConfig{
				Path:         filepath.Join(xdgDir("XDG_DATA_HOME", ".local", "share"), "tickets", "tickets.db"),
				PollInterval: time.Second,
			},
			Redis: RedisConfig{
				Addr: "localhost:6379",
			},
		},
		Mutation: MutationConfig{
			Timeout:       10 * time.Second,
			RetryAttempts: 3,
			RetryBackoff:  100 * time.Millisecond,
		},
		UI: UIConfig{
			NoticeDuration: 4 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
			File:   filepath.Join(xdgDir("XDG_STATE_HOME", ".local", "state"), "tickets", "tickets.log"),
		},
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	switch c.Store.Backend {
	case BackendMemory:
	case BackendSQLite:
		if c.Store.SQLite.Path == "" {
			return fmt.Errorf("store.sqlite.path is required for the sqlite backend")
		}
	case BackendRedis:
		if c.Store.Redis.Addr == "" {
			return fmt.Errorf("store.redis.addr is required for the redis backend")
		}
	case BackendFirestore:
		if c.Store.Firestore.ProjectID == "" {
			return fmt.Errorf("store.firestore.project_id is required for the firestore backend")
		}
	default:
		return fmt.Errorf("store.backend must be one of memory, sqlite, redis, firestore (got %q)", c.Store.Backend)
	}

	if c.Store.Collection == "" {
		return fmt.Errorf("store.collection is required")
	}

	if c.Mutation.Timeout <= 0 {
		return fmt.Errorf("mutation.timeout must be positive")
	}
	if c.Mutation.RetryAttempts < 1 {
		return fmt.Errorf("mutation.retry_attempts must be at least 1")
	}
	if c.Mutation.RetryBackoff < 0 {
		return fmt.Errorf("mutation.retry_backoff must not be negative")
	}

	if c.UI.NoticeDuration <= 0 {
		return fmt.Errorf("ui.notice_duration must be positive")
	}

	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json")
	}

	return nil
}

// RedisPrefix returns the key prefix for the redis backend.
func (s StoreConfig) RedisPrefix() string {
	if s.Redis.Prefix != "" {
		return s.Redis.Prefix
	}
	return s.Collection
}

// xdgDir returns the XDG directory named by env, falling back to
// ~/<fallback...>.
func xdgDir(env string, fallback ...string) string {
	if dir := os.Getenv(env); dir != "" {
		return dir
	}
	homeDir, _ := os.UserHomeDir()
	return filepath.Join(append([]string{homeDir}, fallback...)...)
}
