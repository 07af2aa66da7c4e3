package cmd

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/perpjournal/display"
	"github.com/rustyeddy/perpjournal/journal"
	"github.com/rustyeddy/perpjournal/ledger"
)

var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "Query trade journal data",
	Long: `Query and display rebuild runs and trade rows from the SQLite journal.

Subcommands:
  runs   - List recorded rebuild runs
  trades - List the rows of a run (latest by default)
  asset  - List the newest rows of one asset across runs
  trade  - Get details of a specific trade by ID
  day    - List rows of the latest run on a specific day

Examples:
  perpjournal journal runs
  perpjournal journal trades --org
  perpjournal journal asset BTC --limit 20
  perpjournal journal day 2025-01-15`,
}

var journalRunsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List recorded rebuild runs",
	Args:  cobra.NoArgs,
	RunE:  runJournalRuns,
}

var journalTradesCmd = &cobra.Command{
	Use:   "trades [run-id]",
	Short: "List the rows of a run",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runJournalTrades,
}

var journalAssetCmd = &cobra.Command{
	Use:   "asset <asset>",
	Short: "List the newest rows of one asset",
	Args:  cobra.ExactArgs(1),
	RunE:  runJournalAsset,
}

var journalTradeCmd = &cobra.Command{
	Use:   "trade <trade-id>",
	Short: "Get details of a specific trade",
	Args:  cobra.ExactArgs(1),
	RunE:  runJournalTrade,
}

var journalDayCmd = &cobra.Command{
	Use:   "day <YYYY-MM-DD>",
	Short: "List rows of the latest run on a specific day",
	Args:  cobra.ExactArgs(1),
	RunE:  runJournalDay,
}

var (
	journalDBPath string
	journalTZ     string
	journalOrg    bool
	journalLimit  int
)

func init() {
	rootCmd.AddCommand(journalCmd)
	journalCmd.AddCommand(journalRunsCmd)
	journalCmd.AddCommand(journalTradesCmd)
	journalCmd.AddCommand(journalAssetCmd)
	journalCmd.AddCommand(journalTradeCmd)
	journalCmd.AddCommand(journalDayCmd)

	defaultDB := os.Getenv("PERPJOURNAL_DB_PATH")
	if defaultDB == "" {
		defaultDB = "./perpjournal.db"
	}
	journalCmd.PersistentFlags().StringVarP(&journalDBPath, "db", "d", defaultDB, "path to SQLite journal DB")
	journalCmd.PersistentFlags().StringVar(&journalTZ, "tz", "UTC", "display time zone")
	journalCmd.PersistentFlags().BoolVar(&journalOrg, "org", false, "print Org-mode instead of tables")
	journalCmd.PersistentFlags().IntVarP(&journalLimit, "limit", "n", 20, "maximum rows or runs, 0 for all")
}

func openSQLite() (*journal.SQLite, *time.Location, error) {
	loc, err := time.LoadLocation(journalTZ)
	if err != nil {
		return nil, nil, fmt.Errorf("time zone: %w", err)
	}
	j, err := journal.NewSQLite(journalDBPath)
	if err != nil {
		return nil, nil, fmt.Errorf("open db: %w", err)
	}
	return j, loc, nil
}

func printTrades(w io.Writer, title string, recs []journal.TradeRecord, loc *time.Location) error {
	if journalOrg {
		fmt.Fprintln(w, journal.FormatTradesOrg(recs))
		return nil
	}
	rows := make([]ledger.TradeRow, 0, len(recs))
	for _, r := range recs {
		rows = append(rows, r.Row())
	}
	return display.RenderTable(w, title, rows, loc)
}

func runJournalRuns(cmd *cobra.Command, args []string) error {
	j, loc, err := openSQLite()
	if err != nil {
		return err
	}
	defer j.Close()

	runs, err := j.ListRuns(journalLimit)
	if err != nil {
		return fmt.Errorf("query runs: %w", err)
	}

	out := cmd.OutOrStdout()
	if journalOrg {
		for _, r := range runs {
			if err := r.WriteOrg(out); err != nil {
				return err
			}
		}
		return nil
	}
	return display.RenderRuns(out, runs, loc)
}

func runJournalTrades(cmd *cobra.Command, args []string) error {
	j, loc, err := openSQLite()
	if err != nil {
		return err
	}
	defer j.Close()

	var runID string
	if len(args) == 1 {
		runID = args[0]
	} else if runID, err = j.LatestRunID(); err != nil {
		return fmt.Errorf("latest run: %w", err)
	}

	recs, err := j.ListTradesByRun(runID)
	if err != nil {
		return fmt.Errorf("query trades: %w", err)
	}
	return printTrades(cmd.OutOrStdout(), "run "+runID, recs, loc)
}

func runJournalAsset(cmd *cobra.Command, args []string) error {
	j, loc, err := openSQLite()
	if err != nil {
		return err
	}
	defer j.Close()

	recs, err := j.ListTradesByAsset(args[0], journalLimit)
	if err != nil {
		return fmt.Errorf("query trades: %w", err)
	}
	return printTrades(cmd.OutOrStdout(), args[0], recs, loc)
}

func runJournalTrade(cmd *cobra.Command, args []string) error {
	j, _, err := openSQLite()
	if err != nil {
		return err
	}
	defer j.Close()

	rec, err := j.GetTrade(args[0])
	if err != nil {
		return fmt.Errorf("get trade: %w", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), journal.FormatTradeOrg(rec))
	return nil
}

func runJournalDay(cmd *cobra.Command, args []string) error {
	j, loc, err := openSQLite()
	if err != nil {
		return err
	}
	defer j.Close()

	start, end, err := dayBounds(loc, args[0])
	if err != nil {
		return fmt.Errorf("date: %w", err)
	}
	runID, err := j.LatestRunID()
	if err != nil {
		return fmt.Errorf("latest run: %w", err)
	}

	recs, err := j.ListTradesBetween(runID, start, end)
	if err != nil {
		return fmt.Errorf("query trades: %w", err)
	}
	return printTrades(cmd.OutOrStdout(), args[0], recs, loc)
}

func dayBounds(loc *time.Location, day string) (time.Time, time.Time, error) {
	t, err := time.ParseInLocation("2006-01-02", day, loc)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
	end := start.AddDate(0, 0, 1)
	return start, end, nil
}
