package config

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config represents the complete rebuild configuration
type Config struct {
	Account AccountConfig `json:"account" yaml:"account"`
	API     APIConfig     `json:"api" yaml:"api"`
	Rebuild RebuildConfig `json:"rebuild" yaml:"rebuild"`
	Risk    RiskConfig    `json:"risk" yaml:"risk"`
	Journal JournalConfig `json:"journal" yaml:"journal"`
	Log     LogConfig     `json:"log" yaml:"log"`
	Metrics MetricsConfig `json:"metrics" yaml:"metrics"`
}

// AccountConfig identifies whose history is rebuilt
type AccountConfig struct {
	User     string `json:"user" yaml:"user"`           // 0x-prefixed address
	TimeZone string `json:"time_zone" yaml:"time_zone"` // IANA name used for display
}

// APIConfig controls the venue client
type APIConfig struct {
	BaseURL      string `json:"base_url" yaml:"base_url"`
	Timeout      string `json:"timeout" yaml:"timeout"`             // e.g. "30s"
	MaxAttempts  int    `json:"max_attempts" yaml:"max_attempts"`   // per request
	PageThrottle string `json:"page_throttle" yaml:"page_throttle"` // e.g. "120ms"
}

// RebuildConfig controls what a rebuild covers
type RebuildConfig struct {
	LookbackDays    int      `json:"lookback_days" yaml:"lookback_days"`
	Assets          []string `json:"assets,omitempty" yaml:"assets,omitempty"` // empty: one table per coin
	Workers         int      `json:"workers" yaml:"workers"`
	IncludeSpotFees bool     `json:"include_spot_fees" yaml:"include_spot_fees"`
}

// RiskConfig holds the thresholds open positions are flagged against.
// Zero disables a check.
type RiskConfig struct {
	MinRR          float64 `json:"min_rr" yaml:"min_rr"`
	MaxLeverage    float64 `json:"max_leverage" yaml:"max_leverage"`
	MinLiqDistance float64 `json:"min_liq_distance" yaml:"min_liq_distance"` // fraction of price
	RequireExits   bool    `json:"require_exits" yaml:"require_exits"`
}

// JournalConfig contains journaling parameters
type JournalConfig struct {
	Type          string `json:"type" yaml:"type"` // "csv", "sqlite" or "none"
	TradesFile    string `json:"trades_file,omitempty" yaml:"trades_file,omitempty"`
	SnapshotsFile string `json:"snapshots_file,omitempty" yaml:"snapshots_file,omitempty"`
	DBPath        string `json:"db_path,omitempty" yaml:"db_path,omitempty"`
}

// LogConfig selects the slog handler
type LogConfig struct {
	Level  string `json:"level" yaml:"level"`   // debug, info, warn, error
	Format string `json:"format" yaml:"format"` // text or json
}

// MetricsConfig exposes Prometheus metrics when Addr is set
type MetricsConfig struct {
	Addr string `json:"addr,omitempty" yaml:"addr,omitempty"`
}

var userPattern = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)

// Load reads .env, then the file at path when one is given, then applies
// environment overrides and defaults. An empty path starts from Default.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	if path == "" {
		cfg := Default()
		applyEnvOverrides(cfg)
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("invalid config: %w", err)
		}
		return cfg, nil
	}
	return LoadFromFile(path)
}

// LoadFromFile loads configuration from a file (JSON or YAML)
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := &Config{}

	// Try YAML first, fall back to JSON
	err = yaml.Unmarshal(data, cfg)
	if err != nil {
		err = json.Unmarshal(data, cfg)
		if err != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}

	applyEnvOverrides(cfg)
	setDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// SaveToFile saves configuration to a file (JSON or YAML based on extension)
func (c *Config) SaveToFile(path string) error {
	var data []byte
	var err error

	if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}

	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}

	return nil
}

// applyEnvOverrides replaces values with environment variables when set.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("HL_USER"); v != "" {
		cfg.Account.User = v
	}
	if v := os.Getenv("HL_API_URL"); v != "" {
		cfg.API.BaseURL = v
	}
	if v := os.Getenv("TIME_ZONE"); v != "" {
		cfg.Account.TimeZone = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	if v := os.Getenv("PERPJOURNAL_DB_PATH"); v != "" {
		cfg.Journal.DBPath = v
	}
}

// setDefaults fills what a file left out.
func setDefaults(cfg *Config) {
	d := Default()
	if cfg.Account.TimeZone == "" {
		cfg.Account.TimeZone = d.Account.TimeZone
	}
	if cfg.API.BaseURL == "" {
		cfg.API.BaseURL = d.API.BaseURL
	}
	if cfg.API.Timeout == "" {
		cfg.API.Timeout = d.API.Timeout
	}
	if cfg.API.MaxAttempts <= 0 {
		cfg.API.MaxAttempts = d.API.MaxAttempts
	}
	if cfg.API.PageThrottle == "" {
		cfg.API.PageThrottle = d.API.PageThrottle
	}
	if cfg.Rebuild.LookbackDays <= 0 {
		cfg.Rebuild.LookbackDays = d.Rebuild.LookbackDays
	}
	if cfg.Rebuild.Workers <= 0 {
		cfg.Rebuild.Workers = d.Rebuild.Workers
	}
	if cfg.Journal.Type == "" {
		cfg.Journal.Type = d.Journal.Type
	}
	if cfg.Journal.Type == "sqlite" && cfg.Journal.DBPath == "" {
		cfg.Journal.DBPath = d.Journal.DBPath
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = d.Log.Level
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = d.Log.Format
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Account.User == "" {
		return fmt.Errorf("account.user is required")
	}
	if !userPattern.MatchString(c.Account.User) {
		return fmt.Errorf("account.user must be a 0x-prefixed 40 hex digit address")
	}
	if _, err := c.Location(); err != nil {
		return fmt.Errorf("account.time_zone: %w", err)
	}
	if c.API.BaseURL == "" {
		return fmt.Errorf("api.base_url is required")
	}
	if _, err := parseDuration(c.API.Timeout); err != nil {
		return fmt.Errorf("api.timeout: %w", err)
	}
	if _, err := parseDuration(c.API.PageThrottle); err != nil {
		return fmt.Errorf("api.page_throttle: %w", err)
	}
	if c.API.MaxAttempts <= 0 {
		return fmt.Errorf("api.max_attempts must be positive")
	}
	if c.Rebuild.LookbackDays <= 0 {
		return fmt.Errorf("rebuild.lookback_days must be positive")
	}
	if c.Rebuild.Workers < 0 {
		return fmt.Errorf("rebuild.workers must not be negative")
	}
	if c.Risk.MinRR < 0 || c.Risk.MaxLeverage < 0 || c.Risk.MinLiqDistance < 0 {
		return fmt.Errorf("risk thresholds must not be negative")
	}
	switch c.Journal.Type {
	case "none":
	case "csv":
		if c.Journal.TradesFile == "" || c.Journal.SnapshotsFile == "" {
			return fmt.Errorf("journal trades_file and snapshots_file required for CSV type")
		}
	case "sqlite":
		if c.Journal.DBPath == "" {
			return fmt.Errorf("journal db_path required for SQLite type")
		}
	default:
		return fmt.Errorf("journal.type must be 'csv', 'sqlite' or 'none'")
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level must be one of debug, info, warn, error")
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		return fmt.Errorf("log.format must be 'text' or 'json'")
	}
	return nil
}

// Location resolves the display time zone.
func (c *Config) Location() (*time.Location, error) {
	if c.Account.TimeZone == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(c.Account.TimeZone)
}

// Timeout is the per request HTTP timeout.
func (c *Config) Timeout() time.Duration {
	d, _ := parseDuration(c.API.Timeout)
	return d
}

// PageThrottle is the minimum spacing between venue requests.
func (c *Config) PageThrottle() time.Duration {
	d, _ := parseDuration(c.API.PageThrottle)
	return d
}

func parseDuration(s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	return time.ParseDuration(s)
}

// Default returns a configuration with sensible defaults. The user is
// left blank and must come from the file or HL_USER.
func Default() *Config {
	return &Config{
		Account: AccountConfig{
			TimeZone: "UTC",
		},
		API: APIConfig{
			BaseURL:      "https://api.hyperliquid.xyz/info",
			Timeout:      "30s",
			MaxAttempts:  5,
			PageThrottle: "120ms",
		},
		Rebuild: RebuildConfig{
			LookbackDays: 180,
			Workers:      4,
		},
		Journal: JournalConfig{
			Type:   "sqlite",
			DBPath: "./perpjournal.db",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}
