package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable override.
const EnvPrefix = "TICKETS"

// keys lists every configurable key; each can be overridden by an
// environment variable (store.redis.addr -> TICKETS_STORE_REDIS_ADDR).
var keys = []string{
	"store.backend",
	"store.collection",
	"store.sqlite.path",
	"store.sqlite.poll_interval",
	"store.redis.addr",
	"store.redis.username",
	"store.redis.password",
	"store.redis.db",
	"store.redis.prefix",
	"store.firestore.project_id",
	"store.firestore.credentials_file",
	"mutation.timeout",
	"mutation.retry_attempts",
	"mutation.retry_backoff",
	"ui.notice_duration",
	"logging.level",
	"logging.format",
	"logging.file",
}

// Loader handles configuration loading with Viper.
type Loader struct {
	v          *viper.Viper
	configFile string
}

// NewLoader creates a new configuration loader.
func NewLoader() *Loader {
	return &Loader{
		v: viper.New(),
	}
}

// SetConfigFile sets an explicit config file path.
func (l *Loader) SetConfigFile(path string) {
	l.configFile = path
}

// Set overrides a key, taking precedence over file and environment. Used
// for command-line flags.
func (l *Loader) Set(key string, value any) {
	l.v.Set(key, value)
}

// Load loads configuration with proper precedence:
// defaults < config file < env vars < Set overrides
func (l *Loader) Load() (*Config, error) {
	cfg := DefaultConfig()

	l.setupViper(cfg)

	if err := l.loadConfigFile(); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	if err := l.v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	expandPaths(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// ConfigFileUsed returns the config file that was loaded, if any.
func (l *Loader) ConfigFileUsed() string {
	return l.v.ConfigFileUsed()
}

func (l *Loader) setupViper(cfg *Config) {
	v := l.v

	v.SetConfigName("config")
	v.SetConfigType("yaml")

	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		v.AddConfigPath(filepath.Join(xdgConfig, "tickets"))
	}
	if homeDir, _ := os.UserHomeDir(); homeDir != "" {
		v.AddConfigPath(filepath.Join(homeDir, ".config", "tickets"))
	}
	v.AddConfigPath(".")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v, cfg)

	// Unmarshal only sees env vars for keys that are explicitly bound.
	for _, key := range keys {
		_ = v.BindEnv(key, EnvPrefix+"_"+strings.ToUpper(strings.ReplaceAll(key, ".", "_")))
	}

	v.AutomaticEnv()
}

func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("store.backend", cfg.Store.Backend)
	v.SetDefault("store.collection", cfg.Store.Collection)
	v.SetDefault("store.sqlite.path", cfg.Store.SQLite.Path)
	v.SetDefault("store.sqlite.poll_interval", cfg.Store.SQLite.PollInterval)
	v.SetDefault("store.redis.addr", cfg.Store.Redis.Addr)
	v.SetDefault("store.redis.username", cfg.Store.Redis.Username)
	v.SetDefault("store.redis.password", cfg.Store.Redis.Password)
	v.SetDefault("store.redis.db", cfg.Store.Redis.DB)
	v.SetDefault("store.redis.prefix", cfg.Store.Redis.Prefix)
	v.SetDefault("store.firestore.project_id", cfg.Store.Firestore.ProjectID)
	v.SetDefault("store.firestore.credentials_file", cfg.Store.Firestore.CredentialsFile)

	v.SetDefault("mutation.timeout", cfg.Mutation.Timeout)
	v.SetDefault("mutation.retry_attempts", cfg.Mutation.RetryAttempts)
	v.SetDefault("mutation.retry_backoff", cfg.Mutation.RetryBackoff)

	v.SetDefault("ui.notice_duration", cfg.UI.NoticeDuration)

	v.SetDefault("logging.level", cfg.Logging.Level)
	v.SetDefault("logging.format", cfg.Logging.Format)
	v.SetDefault("logging.file", cfg.Logging.File)
}

// loadConfigFile reads the config file. A missing file is only an error
// when one was named explicitly.
func (l *Loader) loadConfigFile() error {
	if l.configFile != "" {
		l.v.SetConfigFile(l.configFile)
	}

	if err := l.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return err
	}
	return nil
}

// expandTilde expands ~ to the user's home directory.
func expandTilde(path string) string {
	if path == "" {
		return path
	}
	if path == "~" {
		home, _ := os.UserHomeDir()
		return home
	}
	if strings.HasPrefix(path, "~/") {
		home, _ := os.UserHomeDir()
		return filepath.Join(home, path[2:])
	}
	return path
}

func expandPaths(cfg *Config) {
	cfg.Store.SQLite.Path = expandTilde(cfg.Store.SQLite.Path)
	cfg.Store.Firestore.CredentialsFile = expandTilde(cfg.Store.Firestore.CredentialsFile)
	cfg.Logging.File = expandTilde(cfg.Logging.File)
}

// LoadFromFile loads configuration from a specific file.
func LoadFromFile(path string) (*Config, error) {
	loader := NewLoader()
	loader.SetConfigFile(path)
	return loader.Load()
}

// LoadDefault loads configuration with default search paths.
func LoadDefault() (*Config, error) {
	return NewLoader().Load()
}
