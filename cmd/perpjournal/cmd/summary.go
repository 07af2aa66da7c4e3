package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/perpjournal/display"
	"github.com/rustyeddy/perpjournal/journal"
	"github.com/rustyeddy/perpjournal/rebuild"
)

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Show account value, fees and funding over the lookback window",
	Long: `Fetch the clearinghouse state, trading fees and funding for the configured
user and print an account summary. Nothing is journaled.

With --from-journal the latest recorded snapshot is printed instead.

Examples:
  perpjournal summary
  perpjournal summary --lookback 7 --include-spot
  perpjournal summary --from-journal`,
	Args: cobra.NoArgs,
	RunE: runSummary,
}

var (
	summaryLookback    int
	summaryIncludeSpot bool
	summaryFromJournal bool
)

func init() {
	rootCmd.AddCommand(summaryCmd)

	summaryCmd.Flags().IntVar(&summaryLookback, "lookback", 0, "lookback window in days (overrides config)")
	summaryCmd.Flags().BoolVar(&summaryIncludeSpot, "include-spot", false, "count spot fees toward trading fees")
	summaryCmd.Flags().BoolVar(&summaryFromJournal, "from-journal", false, "print the latest snapshot from the SQLite journal")
}

func runSummary(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	loc, err := cfg.Location()
	if err != nil {
		return fmt.Errorf("time zone: %w", err)
	}

	var snap journal.AccountSnapshot
	if summaryFromJournal {
		j, err := journal.NewSQLite(cfg.Journal.DBPath)
		if err != nil {
			return fmt.Errorf("open db: %w", err)
		}
		defer j.Close()
		if snap, err = j.LatestSnapshot(); err != nil {
			return fmt.Errorf("latest snapshot: %w", err)
		}
	} else {
		if summaryLookback > 0 {
			cfg.Rebuild.LookbackDays = summaryLookback
		}
		rb := &rebuild.Rebuilder{
			Source:          newClient(cfg),
			Logger:          slog.Default().With("component", "summary"),
			LookbackDays:    cfg.Rebuild.LookbackDays,
			IncludeSpotFees: cfg.Rebuild.IncludeSpotFees || summaryIncludeSpot,
		}
		if snap, err = rb.Summary(cmd.Context(), cfg.Account.User); err != nil {
			return fmt.Errorf("summary: %w", err)
		}
	}

	return display.RenderSummary(cmd.OutOrStdout(), snap, loc)
}
