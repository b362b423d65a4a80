package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, StoragePostgres, cfg.Storage.Driver)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 5*time.Minute, cfg.Incidents.EscalationTimeout)
	assert.Equal(t, 100, cfg.Notifications.Queue.Capacity)
	assert.True(t, cfg.Scheduler.Enabled)
}

func TestLoad_FileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
storage:
  driver: sqlite
sqlite:
  path: /tmp/test.db
incidents:
  escalation_timeout: 10m
log:
  level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	t.Setenv("ONCALL_LOG__LEVEL", "warn")
	t.Setenv("ONCALL_SERVER__METRICS_PORT", "9191")
	t.Setenv("ONCALL_NOTIFICATIONS__QUEUE__CAPACITY", "250")
	t.Setenv("ONCALL_SCHEDULER__INTERVAL", "30s")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, StorageSQLite, cfg.Storage.Driver)
	assert.Equal(t, "/tmp/test.db", cfg.SQLite.Path)
	assert.Equal(t, 10*time.Minute, cfg.Incidents.EscalationTimeout)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, "9191", cfg.Server.MetricsPort)
	assert.Equal(t, 250, cfg.Notifications.Queue.Capacity)
	assert.Equal(t, 30*time.Second, cfg.Scheduler.Interval)
	// untouched keys keep defaults
	assert.Equal(t, 5*time.Minute, cfg.Incidents.DedupWindow)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestEnvKey(t *testing.T) {
	assert.Equal(t, "database.url", envKey("ONCALL_DATABASE__URL"))
	assert.Equal(t, "notifications.redis.addr", envKey("ONCALL_NOTIFICATIONS__REDIS__ADDR"))
	assert.Equal(t, "server.metrics_port", envKey("ONCALL_SERVER__METRICS_PORT"))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"memory storage", func(c *Config) { c.Storage.Driver = StorageMemory }, false},
		{"unknown storage", func(c *Config) { c.Storage.Driver = "mongo" }, true},
		{"postgres without url", func(c *Config) { c.Database.URL = "" }, true},
		{"sqlite without path", func(c *Config) {
			c.Storage.Driver = StorageSQLite
			c.SQLite.Path = ""
		}, true},
		{"redis without addr", func(c *Config) {
			c.Notifications.Queue.Driver = QueueRedis
			c.Notifications.Redis.Addr = ""
		}, true},
		{"unknown queue", func(c *Config) { c.Notifications.Queue.Driver = "kafka" }, true},
		{"zero capacity", func(c *Config) { c.Notifications.Queue.Capacity = 0 }, true},
		{"zero timeout", func(c *Config) { c.Incidents.EscalationTimeout = 0 }, true},
		{"disabled scheduler ignores interval", func(c *Config) {
			c.Scheduler.Enabled = false
			c.Scheduler.Interval = 0
		}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
