package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_DefaultsWithEnv(t *testing.T) {
	t.Setenv(PathEnv, "")
	t.Setenv("ASSETDESK_DATABASE_URL", "postgres://u:p@localhost:5432/assets")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "postgres://u:p@localhost:5432/assets", cfg.Database.URL)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "Europe/Madrid", cfg.SLA.Timezone)
	assert.Equal(t, DriverPostgres, cfg.Source.Driver)
	assert.False(t, cfg.Alerts.Enabled)
	assert.Equal(t, 5*time.Minute, cfg.Alerts.Interval)
}

func TestLoad_FileThenEnv(t *testing.T) {
	path := writeConfig(t, `
server:
  port: "9000"
  read_timeout: 3s
database:
  url: postgres://file/db
  max_open_conns: 4
log:
  level: debug
  format: text
cors:
  allowed_origins: ["https://dash.example.com"]
sla:
  timezone: UTC
  business_start: "09:00"
  business_end: "17:00"
  workdays: [monday, wednesday]
alerts:
  enabled: true
  webhook_url: https://chat.example.com/hooks/abc
  interval: 1m
`)
	t.Setenv("ASSETDESK_DATABASE_MAX_OPEN_CONNS", "12")
	t.Setenv("ASSETDESK_LOG_LEVEL", "warn")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Server.Port)
	assert.Equal(t, 3*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 30*time.Second, cfg.Server.WriteTimeout)
	assert.Equal(t, "postgres://file/db", cfg.Database.URL)
	assert.Equal(t, 12, cfg.Database.MaxOpenConns)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.Equal(t, []string{"https://dash.example.com"}, cfg.CORS.AllowedOrigins)
	assert.True(t, cfg.Alerts.Enabled)
	assert.Equal(t, time.Minute, cfg.Alerts.Interval)

	cal, err := cfg.SLA.Calendar()
	require.NoError(t, err)
	assert.Equal(t, 8*time.Hour, cal.DayLength())
	assert.Equal(t, time.UTC, cal.Location())
}

func TestLoad_PathFromEnv(t *testing.T) {
	path := writeConfig(t, "database:\n  url: postgres://from-env-path/db\n")
	t.Setenv(PathEnv, path)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "postgres://from-env-path/db", cfg.Database.URL)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "defaults with url",
			mutate: func(*Config) {},
		},
		{
			name:    "missing database url",
			mutate:  func(c *Config) { c.Database.URL = "" },
			wantErr: "database.url is required",
		},
		{
			name:    "bad log level",
			mutate:  func(c *Config) { c.Log.Level = "trace" },
			wantErr: "log.level",
		},
		{
			name:    "unknown timezone",
			mutate:  func(c *Config) { c.SLA.Timezone = "Mars/Olympus" },
			wantErr: "sla.timezone",
		},
		{
			name:    "inverted window",
			mutate:  func(c *Config) { c.SLA.BusinessStart, c.SLA.BusinessEnd = "18:00", "08:00" },
			wantErr: "business window",
		},
		{
			name:    "unknown weekday",
			mutate:  func(c *Config) { c.SLA.Workdays = []string{"funday"} },
			wantErr: "sla.workdays",
		},
		{
			name:    "firestore without project",
			mutate:  func(c *Config) { c.Source.Driver = DriverFirestore },
			wantErr: "firestore.project_id",
		},
		{
			name:    "unknown driver",
			mutate:  func(c *Config) { c.Source.Driver = "mongo" },
			wantErr: "source.driver",
		},
		{
			name:    "alerts without webhook",
			mutate:  func(c *Config) { c.Alerts.Enabled = true },
			wantErr: "alerts.webhook_url",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			cfg.Database.URL = "postgres://localhost/db"
			tt.mutate(&cfg)

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
