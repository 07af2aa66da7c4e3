package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/perpjournal/display"
	"github.com/rustyeddy/perpjournal/journal"
	"github.com/rustyeddy/perpjournal/metrics"
	"github.com/rustyeddy/perpjournal/rebuild"
	"github.com/rustyeddy/perpjournal/risk"
)

var rebuildCmd = &cobra.Command{
	Use:   "rebuild",
	Short: "Fetch fill history and rebuild the trade journal",
	Long: `Fetch fills, funding, account state and open orders for the configured
user, reconstruct positions per asset and print one table per asset.

Rows are recorded to the configured journal under a new run id.

Examples:
  perpjournal rebuild
  perpjournal rebuild --asset BTC --asset ETH --lookback 30
  perpjournal rebuild --org > trades.org
  perpjournal rebuild --metrics-addr :9090`,
	Args: cobra.NoArgs,
	RunE: runRebuild,
}

var (
	rebuildLookback    int
	rebuildAssets      []string
	rebuildMetricsAddr string
	rebuildOrg         bool
	rebuildNoJournal   bool
)

func init() {
	rootCmd.AddCommand(rebuildCmd)

	rebuildCmd.Flags().IntVar(&rebuildLookback, "lookback", 0, "lookback window in days (overrides config)")
	rebuildCmd.Flags().StringSliceVar(&rebuildAssets, "asset", nil, "asset table name, repeatable (overrides config)")
	rebuildCmd.Flags().StringVar(&rebuildMetricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address while running")
	rebuildCmd.Flags().BoolVar(&rebuildOrg, "org", false, "print rows as Org-mode instead of tables")
	rebuildCmd.Flags().BoolVar(&rebuildNoJournal, "no-journal", false, "do not record the run")
}

func runRebuild(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if rebuildLookback > 0 {
		cfg.Rebuild.LookbackDays = rebuildLookback
	}
	if len(rebuildAssets) > 0 {
		cfg.Rebuild.Assets = rebuildAssets
	}
	if rebuildMetricsAddr != "" {
		cfg.Metrics.Addr = rebuildMetricsAddr
	}
	if rebuildNoJournal {
		cfg.Journal.Type = "none"
	}

	loc, err := cfg.Location()
	if err != nil {
		return fmt.Errorf("time zone: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Metrics.Addr != "" {
		srv := serveMetrics(cfg.Metrics.Addr)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	j, err := openJournal(cfg)
	if err != nil {
		return err
	}
	defer j.Close()

	rb := &rebuild.Rebuilder{
		Source:  newClient(cfg),
		Journal: j,
		Logger:  slog.Default().With("component", "rebuild"),
		Policy: risk.Policy{
			MinRR:          cfg.Risk.MinRR,
			MaxLeverage:    cfg.Risk.MaxLeverage,
			RequireExits:   cfg.Risk.RequireExits,
			MinLiqDistance: cfg.Risk.MinLiqDistance,
		},
		Workers:         cfg.Rebuild.Workers,
		LookbackDays:    cfg.Rebuild.LookbackDays,
		Assets:          cfg.Rebuild.Assets,
		IncludeSpotFees: cfg.Rebuild.IncludeSpotFees,
	}

	rep, err := rb.Run(ctx, cfg.Account.User)
	if err != nil {
		return fmt.Errorf("rebuild: %w", err)
	}

	out := cmd.OutOrStdout()
	if rebuildOrg {
		if err := rep.Run.WriteOrg(out); err != nil {
			return err
		}
		for _, ar := range rep.Assets {
			recs := make([]journal.TradeRecord, 0, len(ar.Rows))
			for _, row := range ar.Rows {
				recs = append(recs, journal.NewTradeRecord(rep.Run.RunID, ar.Asset, row))
			}
			fmt.Fprint(out, journal.FormatTradesOrg(recs))
		}
		return nil
	}

	for _, ar := range rep.Assets {
		if len(ar.Rows) == 0 {
			continue
		}
		if err := display.RenderTable(out, ar.Asset, ar.Rows, loc); err != nil {
			return fmt.Errorf("render %s: %w", ar.Asset, err)
		}
		for _, f := range ar.Flags {
			fmt.Fprintf(out, "  ! %s %s: %s\n", time.UnixMilli(f.Time).In(loc).Format("2006-01-02 15:04:05"), f.Code, f.Msg)
		}
	}
	fmt.Fprintln(out)
	if err := display.RenderSummary(out, rep.Snapshot, loc); err != nil {
		return fmt.Errorf("render summary: %w", err)
	}
	fmt.Fprintf(out, "run %s: %d rows, net PnL %s\n", rep.Run.RunID, rep.Run.Rows, display.Number(rep.Run.NetPnL))
	return nil
}

func serveMetrics(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		slog.Info("metrics server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("metrics server", "error", err)
		}
	}()
	return srv
}
