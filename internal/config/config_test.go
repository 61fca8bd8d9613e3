package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate points every search path at an empty directory so a developer's
// own config never leaks into a test.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("HOME", dir)
	t.Chdir(dir)
	return dir
}

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	isolate(t)

	cfg, err := LoadDefault()
	require.NoError(t, err)

	assert.Equal(t, BackendSQLite, cfg.Store.Backend)
	assert.Equal(t, "tickets", cfg.Store.Collection)
	assert.Equal(t, time.Second, cfg.Store.SQLite.PollInterval)
	assert.Equal(t, 10*time.Second, cfg.Mutation.Timeout)
	assert.Equal(t, 3, cfg.Mutation.RetryAttempts)
	assert.Equal(t, 4*time.Second, cfg.UI.NoticeDuration)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.NotEmpty(t, cfg.Store.SQLite.Path)
}

func TestLoadFromFile(t *testing.T) {
	dir := isolate(t)
	path := writeConfig(t, dir, `
store:
  backend: redis
  collection: helpdesk
  redis:
    addr: redis.internal:6379
    db: 2
mutation:
  timeout: 3s
ui:
  notice_duration: 1500ms
`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, BackendRedis, cfg.Store.Backend)
	assert.Equal(t, "helpdesk", cfg.Store.Collection)
	assert.Equal(t, "redis.internal:6379", cfg.Store.Redis.Addr)
	assert.Equal(t, 2, cfg.Store.Redis.DB)
	assert.Equal(t, 3*time.Second, cfg.Mutation.Timeout)
	assert.Equal(t, 1500*time.Millisecond, cfg.UI.NoticeDuration)
	// untouched keys keep their defaults
	assert.Equal(t, 3, cfg.Mutation.RetryAttempts)
	assert.Equal(t, "helpdesk", cfg.Store.RedisPrefix())
}

func TestLoadSearchPath(t *testing.T) {
	dir := isolate(t)
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "tickets"), 0o750))
	writeConfig(t, filepath.Join(dir, "tickets"), "store:\n  backend: memory\n")

	loader := NewLoader()
	cfg, err := loader.Load()
	require.NoError(t, err)

	assert.Equal(t, BackendMemory, cfg.Store.Backend)
	assert.Equal(t, filepath.Join(dir, "tickets", "config.yaml"), loader.ConfigFileUsed())
}

func TestLoadPrecedence(t *testing.T) {
	dir := isolate(t)
	path := writeConfig(t, dir, `
store:
  backend: memory
  collection: from-file
logging:
  level: debug
`)
	t.Setenv("TICKETS_STORE_COLLECTION", "from-env")
	t.Setenv("TICKETS_LOGGING_LEVEL", "warn")
	t.Setenv("TICKETS_MUTATION_RETRY_ATTEMPTS", "5")

	loader := NewLoader()
	loader.SetConfigFile(path)
	loader.Set("logging.level", "error")

	cfg, err := loader.Load()
	require.NoError(t, err)

	assert.Equal(t, BackendMemory, cfg.Store.Backend, "file beats default")
	assert.Equal(t, "from-env", cfg.Store.Collection, "env beats file")
	assert.Equal(t, "error", cfg.Logging.Level, "override beats env")
	assert.Equal(t, 5, cfg.Mutation.RetryAttempts)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	dir := isolate(t)

	_, err := LoadFromFile(filepath.Join(dir, "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load config file")
}

func TestLoadInvalid(t *testing.T) {
	isolate(t)
	t.Setenv("TICKETS_STORE_BACKEND", "postgres")

	_, err := LoadDefault()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store.backend")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "defaults", mutate: func(*Config) {}},
		{name: "memory", mutate: func(c *Config) { c.Store.Backend = BackendMemory }},
		{
			name:    "unknown backend",
			mutate:  func(c *Config) { c.Store.Backend = "mongo" },
			wantErr: "store.backend",
		},
		{
			name:    "sqlite without path",
			mutate:  func(c *Config) { c.Store.SQLite.Path = "" },
			wantErr: "store.sqlite.path",
		},
		{
			name: "redis without addr",
			mutate: func(c *Config) {
				c.Store.Backend = BackendRedis
				c.Store.Redis.Addr = ""
			},
			wantErr: "store.redis.addr",
		},
		{
			name:    "firestore without project",
			mutate:  func(c *Config) { c.Store.Backend = BackendFirestore },
			wantErr: "store.firestore.project_id",
		},
		{
			name: "firestore with project",
			mutate: func(c *Config) {
				c.Store.Backend = BackendFirestore
				c.Store.Firestore.ProjectID = "helpdesk-prod"
			},
		},
		{
			name:    "empty collection",
			mutate:  func(c *Config) { c.Store.Collection = "" },
			wantErr: "store.collection",
		},
		{
			name:    "zero timeout",
			mutate:  func(c *Config) { c.Mutation.Timeout = 0 },
			wantErr: "mutation.timeout",
		},
		{
			name:    "no attempts",
			mutate:  func(c *Config) { c.Mutation.RetryAttempts = 0 },
			wantErr: "mutation.retry_attempts",
		},
		{
			name:    "negative backoff",
			mutate:  func(c *Config) { c.Mutation.RetryBackoff = -time.Second },
			wantErr: "mutation.retry_backoff",
		},
		{
			name:    "zero notice duration",
			mutate:  func(c *Config) { c.UI.NoticeDuration = 0 },
			wantErr: "ui.notice_duration",
		},
		{
			name:    "bad log format",
			mutate:  func(c *Config) { c.Logging.Format = "xml" },
			wantErr: "logging.format",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestExpandTilde(t *testing.T) {
	home := isolate(t)

	assert.Equal(t, "", expandTilde(""))
	assert.Equal(t, home, expandTilde("~"))
	assert.Equal(t, filepath.Join(home, "data", "tickets.db"), expandTilde("~/data/tickets.db"))
	assert.Equal(t, "/var/lib/tickets.db", expandTilde("/var/lib/tickets.db"))
}

func TestRedisPrefix(t *testing.T) {
	s := StoreConfig{Collection: "tickets"}
	assert.Equal(t, "tickets", s.RedisPrefix())

	s.Redis.Prefix = "helpdesk"
	assert.Equal(t, "helpdesk", s.RedisPrefix())
}
