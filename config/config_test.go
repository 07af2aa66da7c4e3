package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testUser = "0x1234567890abcdef1234567890abcdef12345678"

// clearEnv keeps the caller's environment out of the overrides.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"HL_USER", "HL_API_URL", "TIME_ZONE", "LOG_LEVEL", "LOG_FORMAT", "PERPJOURNAL_DB_PATH"} {
		t.Setenv(k, "")
	}
}

func validConfig() *Config {
	cfg := Default()
	cfg.Account.User = testUser
	return cfg
}

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.NotNil(t, cfg)
	assert.Equal(t, 180, cfg.Rebuild.LookbackDays)
	assert.Equal(t, 5, cfg.API.MaxAttempts)
	assert.Equal(t, "sqlite", cfg.Journal.Type)
	assert.EqualError(t, cfg.Validate(), "account.user is required")

	assert.NoError(t, validConfig().Validate())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{"valid", func(*Config) {}, ""},
		{"bad user", func(c *Config) { c.Account.User = "0xnope" }, "account.user must be a 0x-prefixed 40 hex digit address"},
		{"bad zone", func(c *Config) { c.Account.TimeZone = "Mars/Olympus" }, "account.time_zone"},
		{"bad timeout", func(c *Config) { c.API.Timeout = "soon" }, "api.timeout"},
		{"bad throttle", func(c *Config) { c.API.PageThrottle = "fast" }, "api.page_throttle"},
		{"zero attempts", func(c *Config) { c.API.MaxAttempts = 0 }, "api.max_attempts must be positive"},
		{"zero lookback", func(c *Config) { c.Rebuild.LookbackDays = 0 }, "rebuild.lookback_days must be positive"},
		{"negative risk", func(c *Config) { c.Risk.MinRR = -1 }, "risk thresholds must not be negative"},
		{"unknown journal", func(c *Config) { c.Journal.Type = "postgres" }, "journal.type must be 'csv', 'sqlite' or 'none'"},
		{"csv without files", func(c *Config) { c.Journal.Type = "csv" }, "journal trades_file and snapshots_file required for CSV type"},
		{"sqlite without path", func(c *Config) { c.Journal.DBPath = "" }, "journal db_path required for SQLite type"},
		{"none journal", func(c *Config) { c.Journal = JournalConfig{Type: "none"} }, ""},
		{"bad level", func(c *Config) { c.Log.Level = "trace" }, "log.level must be one of debug, info, warn, error"},
		{"bad format", func(c *Config) { c.Log.Format = "xml" }, "log.format must be 'text' or 'json'"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.errMsg == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestSaveAndLoad(t *testing.T) {
	for _, ext := range []string{".yaml", ".yml", ".json"} {
		t.Run(ext, func(t *testing.T) {
			clearEnv(t)
			cfg := validConfig()
			cfg.Account.TimeZone = "Europe/Berlin"
			cfg.Rebuild.Assets = []string{"BTC", "ETH"}
			cfg.Risk.MinRR = 1.5

			path := filepath.Join(t.TempDir(), "config"+ext)
			require.NoError(t, cfg.SaveToFile(path))

			loaded, err := LoadFromFile(path)
			require.NoError(t, err)
			assert.Equal(t, cfg, loaded)
		})
	}
}

func TestLoadFromFile_DefaultsAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "partial.yaml")
	require.NoError(t, os.WriteFile(path, []byte("account:\n  user: \"0xabc\"\nrebuild:\n  assets: [SOL]\n"), 0644))

	clearEnv(t)
	t.Setenv("HL_USER", testUser)
	t.Setenv("LOG_FORMAT", "json")
	t.Setenv("PERPJOURNAL_DB_PATH", "/tmp/pj.db")

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, testUser, cfg.Account.User)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "/tmp/pj.db", cfg.Journal.DBPath)
	assert.Equal(t, []string{"SOL"}, cfg.Rebuild.Assets)
	assert.Equal(t, 180, cfg.Rebuild.LookbackDays)
	assert.Equal(t, 120*time.Millisecond, cfg.PageThrottle())
	assert.Equal(t, 30*time.Second, cfg.Timeout())
}

func TestLoad_NoFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("HL_USER", testUser)
	t.Setenv("TIME_ZONE", "America/Chicago")

	cfg, err := Load("")
	require.NoError(t, err)
	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, "America/Chicago", loc.String())
}

func TestLoadInvalidFile(t *testing.T) {
	_, err := LoadFromFile("/nonexistent/path.yaml")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "read config file")
}
