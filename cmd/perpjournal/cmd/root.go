package cmd

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/perpjournal/config"
	"github.com/rustyeddy/perpjournal/hyperliquid"
	"github.com/rustyeddy/perpjournal/journal"
)

var rootCmd = &cobra.Command{
	Use:   "perpjournal",
	Short: "Rebuild a Hyperliquid perps trade journal from fill history",
	Long: `Perpjournal rebuilds a position-level trade journal from a Hyperliquid
account's fill history.

It provides tools for:
  - FIFO reconstruction of realized PnL per fill
  - Attributing funding payments to the closes that realized them
  - Joining live leverage, liquidation price and resting TP/SL orders
  - Journaling rows to SQLite or CSV and querying past runs

Configuration comes from a YAML/JSON file, .env and HL_* environment variables.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		setupLogger(config.LogConfig{Level: logLevel, Format: logFormat})
	},
}

var (
	cfgFile   string
	logLevel  string
	logFormat string
)

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default: built-in defaults plus env)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format: text or json")
}

// setupLogger installs the default slog logger. Logs go to stderr so
// tables on stdout stay clean.
func setupLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))
}

// loadConfig reads the config and lets the log flags win over it.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	if logFormat != "" {
		cfg.Log.Format = logFormat
	}
	setupLogger(cfg.Log)
	return cfg, nil
}

func newClient(cfg *config.Config) *hyperliquid.Client {
	return hyperliquid.NewClient(
		hyperliquid.WithBaseURL(cfg.API.BaseURL),
		hyperliquid.WithHTTPClient(&http.Client{Timeout: cfg.Timeout()}),
		hyperliquid.WithMaxAttempts(cfg.API.MaxAttempts),
		hyperliquid.WithPageThrottle(cfg.PageThrottle()),
		hyperliquid.WithLogger(slog.Default()),
	)
}

func openJournal(cfg *config.Config) (journal.Journal, error) {
	switch cfg.Journal.Type {
	case "sqlite":
		j, err := journal.NewSQLite(cfg.Journal.DBPath)
		if err != nil {
			return nil, fmt.Errorf("open db: %w", err)
		}
		return j, nil
	case "csv":
		j, err := journal.NewCSV(cfg.Journal.TradesFile, cfg.Journal.SnapshotsFile)
		if err != nil {
			return nil, fmt.Errorf("open csv journal: %w", err)
		}
		return j, nil
	default:
		return journal.Nop{}, nil
	}
}
