// Package rebuild drives a full journal rebuild: fetch the venue history,
// run each asset through the ledger, join live state and record the rows.
package rebuild

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rustyeddy/perpjournal/hyperliquid"
	"github.com/rustyeddy/perpjournal/journal"
	"github.com/rustyeddy/perpjournal/ledger"
	"github.com/rustyeddy/perpjournal/metrics"
	"github.com/rustyeddy/perpjournal/pkg/id"
	"github.com/rustyeddy/perpjournal/risk"
)

// Source is the venue data a rebuild needs. *hyperliquid.Client satisfies it.
type Source interface {
	FillsByTime(ctx context.Context, user string, start, end time.Time) ([]ledger.Fill, error)
	Funding(ctx context.Context, user string, start, end time.Time) ([]ledger.FundingEvent, error)
	AccountState(ctx context.Context, user string) (hyperliquid.Account, error)
	OpenOrders(ctx context.Context, user string) (map[string][]ledger.OpenOrder, error)
}

type Rebuilder struct {
	Source  Source
	Journal journal.Journal
	Logger  *slog.Logger
	Policy  risk.Policy

	Workers         int
	LookbackDays    int
	Assets          []string
	IncludeSpotFees bool

	// Now defaults to time.Now.
	Now func() time.Time
}

// Flag is a policy violation raised against one row.
type Flag struct {
	Time int64
	Coin string
	risk.Violation
}

// AssetReport is the outcome for one asset table.
type AssetReport struct {
	Asset string
	Fills int
	// Newest first.
	Rows               []ledger.TradeRow
	Position           float64
	UnallocatedFunding float64
	Flags              []Flag

	funding float64
}

type Report struct {
	Run      journal.Run
	Assets   []AssetReport
	Snapshot journal.AccountSnapshot
}

func (r *Rebuilder) logger() *slog.Logger {
	if r.Logger == nil {
		return slog.Default()
	}
	return r.Logger
}

func (r *Rebuilder) now() time.Time {
	if r.Now == nil {
		return time.Now()
	}
	return r.Now()
}

func (r *Rebuilder) journal() journal.Journal {
	if r.Journal == nil {
		return journal.Nop{}
	}
	return r.Journal
}

// venueData is everything fetched for one run.
type venueData struct {
	fills   []ledger.Fill
	funding []ledger.FundingEvent
	account hyperliquid.Account
	orders  map[string][]ledger.OpenOrder
}

// fetch pulls the window concurrently. Only a fills failure is fatal;
// funding, account and order failures degrade to empty data.
func (r *Rebuilder) fetch(ctx context.Context, user string, start, end time.Time) (venueData, error) {
	log := r.logger()
	var d venueData

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		fills, err := r.Source.FillsByTime(ctx, user, start, end)
		if err != nil {
			return fmt.Errorf("fetch fills: %w", err)
		}
		d.fills = fills
		return nil
	})
	g.Go(func() error {
		funding, err := r.Source.Funding(ctx, user, start, end)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			log.Warn("funding unavailable, fees exclude funding", "error", err)
			return nil
		}
		d.funding = funding
		return nil
	})
	g.Go(func() error {
		acct, err := r.Source.AccountState(ctx, user)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			log.Warn("account state unavailable, live fields left blank", "error", err)
			return nil
		}
		d.account = acct
		return nil
	})
	g.Go(func() error {
		orders, err := r.Source.OpenOrders(ctx, user)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			log.Warn("open orders unavailable, TP/SL left blank", "error", err)
			return nil
		}
		d.orders = orders
		return nil
	})
	if err := g.Wait(); err != nil {
		return venueData{}, err
	}
	return d, nil
}

// Run rebuilds every asset over the lookback window and records the run,
// its rows and an account snapshot to the journal.
func (r *Rebuilder) Run(ctx context.Context, user string) (rep Report, err error) {
	started := time.Now()
	defer func() {
		metrics.RebuildsTotal.WithLabelValues(metrics.Outcome(err)).Inc()
		metrics.RebuildDuration.Observe(time.Since(started).Seconds())
	}()

	if r.Source == nil {
		return Report{}, fmt.Errorf("rebuild: no source configured")
	}

	now := r.now()
	start, end := Window(now, r.LookbackDays)
	runID := id.New()
	log := r.logger().With("run_id", runID)
	log.Info("rebuild start", "user", user, "start", start, "end", end)

	data, err := r.fetch(ctx, user, start, end)
	if err != nil {
		return Report{}, err
	}

	perps := hyperliquid.PerpOnly(data.fills)
	log.Info("fills fetched", "total", len(data.fills), "perps", len(perps), "funding_events", len(data.funding))

	byAsset := GroupByAsset(perps, r.Assets, log)
	fundingByAsset := GroupFunding(data.funding, r.Assets)
	order := assetOrder(byAsset, r.Assets)

	reports := make([]AssetReport, len(order))
	g, gctx := errgroup.WithContext(ctx)
	workers := r.Workers
	if workers <= 0 {
		workers = 1
	}
	g.SetLimit(workers)
	for i, asset := range order {
		i, asset := i, asset
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			ar, err := r.processAsset(asset, byAsset[asset], fundingByAsset[asset], data)
			if err != nil {
				return fmt.Errorf("asset %s: %w", asset, err)
			}
			reports[i] = ar
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Report{}, err
	}

	run := journal.Run{
		RunID:   runID,
		Created: now,
		User:    user,
		Start:   start,
		End:     end,
		Assets:  order,
		Fills:   len(perps),
	}
	for _, ar := range reports {
		run.Rows += len(ar.Rows)
		run.Funding += ar.funding
		for _, row := range ar.Rows {
			run.Fees += row.Fees
			if row.PnL == nil {
				continue
			}
			run.Closes++
			run.NetPnL += *row.PnL
			switch {
			case *row.PnL > 0:
				run.Wins++
			case *row.PnL < 0:
				run.Losses++
			}
		}
	}

	snap := Summarize(data.fills, data.funding, r.IncludeSpotFees)
	snap.RunID = runID
	snap.Time = now
	snap.AccountValue = data.account.Value
	snap.Withdrawable = data.account.Withdrawable
	snap.MarginUsed = data.account.MarginUsed

	if err := r.record(run, reports, snap); err != nil {
		return Report{}, err
	}

	for _, ar := range reports {
		for _, f := range ar.Flags {
			log.Warn("risk check", "asset", ar.Asset, "coin", f.Coin, "time", f.Time, "code", f.Code, "msg", f.Msg)
		}
	}
	log.Info("rebuild complete", "assets", len(order), "rows", run.Rows, "net_pnl", run.NetPnL)

	return Report{Run: run, Assets: reports, Snapshot: snap}, nil
}

// processAsset runs one asset through annotate, mark, merge and join.
func (r *Rebuilder) processAsset(asset string, fills []ledger.Fill, funding []ledger.FundingEvent, data venueData) (AssetReport, error) {
	ar := AssetReport{Asset: asset, Fills: len(fills)}
	if len(fills) == 0 {
		r.logger().Info("no fills for asset", "asset", asset)
		return ar, nil
	}

	res, err := ledger.Annotate(fills, funding)
	if err != nil {
		return ar, err
	}
	marked := ledger.MarkOpenContribution(res.Fills)
	merged := ledger.MergeByTimestamp(marked)
	rows := risk.ToTradeRows(merged, data.account.Positions, data.orders)

	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Time > rows[j].Time })

	for _, m := range merged {
		ar.funding += m.FundingAllocated
	}
	for _, row := range rows {
		for _, v := range risk.Check(r.Policy, row) {
			ar.Flags = append(ar.Flags, Flag{Time: row.Time, Coin: row.Coin, Violation: v})
		}
	}

	ar.Rows = rows
	ar.Position = res.Position
	ar.UnallocatedFunding = res.UnallocatedFunding

	metrics.FillsProcessed.WithLabelValues(asset).Add(float64(len(fills)))
	metrics.RowsEmitted.WithLabelValues(asset).Add(float64(len(rows)))
	metrics.UnallocatedFunding.WithLabelValues(asset).Set(res.UnallocatedFunding)

	r.logger().Info("asset processed", "asset", asset, "fills", len(fills), "rows", len(rows), "position", res.Position)
	return ar, nil
}

func (r *Rebuilder) record(run journal.Run, reports []AssetReport, snap journal.AccountSnapshot) error {
	j := r.journal()
	if err := j.RecordRun(run); err != nil {
		return fmt.Errorf("record run: %w", err)
	}
	for _, ar := range reports {
		for _, row := range ar.Rows {
			if err := j.RecordTrade(journal.NewTradeRecord(run.RunID, ar.Asset, row)); err != nil {
				return fmt.Errorf("record trade: %w", err)
			}
		}
	}
	if err := j.RecordSnapshot(snap); err != nil {
		return fmt.Errorf("record snapshot: %w", err)
	}
	return nil
}

// Summary fetches only what the account summary needs: fills for fees,
// funding and clearinghouse balances. Nothing is journaled.
func (r *Rebuilder) Summary(ctx context.Context, user string) (journal.AccountSnapshot, error) {
	if r.Source == nil {
		return journal.AccountSnapshot{}, fmt.Errorf("summary: no source configured")
	}
	now := r.now()
	start, end := Window(now, r.LookbackDays)

	acct, err := r.Source.AccountState(ctx, user)
	if err != nil {
		return journal.AccountSnapshot{}, err
	}
	fills, err := r.Source.FillsByTime(ctx, user, start, end)
	if err != nil {
		return journal.AccountSnapshot{}, fmt.Errorf("fetch fills: %w", err)
	}
	funding, err := r.Source.Funding(ctx, user, start, end)
	if err != nil {
		r.logger().Warn("funding unavailable", "error", err)
		funding = nil
	}

	snap := Summarize(fills, funding, r.IncludeSpotFees)
	snap.Time = now
	snap.AccountValue = acct.Value
	snap.Withdrawable = acct.Withdrawable
	snap.MarginUsed = acct.MarginUsed
	return snap, nil
}
