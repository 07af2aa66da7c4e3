// Package display turns trade rows into text cells and tables.
package display

import (
	"fmt"
	"io"
	"math"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/shopspring/decimal"

	"github.com/rustyeddy/perpjournal/journal"
	"github.com/rustyeddy/perpjournal/ledger"
)

// Columns are the headers matching Format's cells.
var Columns = []string{
	"Date", "Time", "Protocol", "Open/Close", "Direction",
	"Price", "Size", "Notional", "Collateral", "Leverage", "Fees",
	"Take Profit", "Stop Loss", "Liq. Price", "R:R", "PnL", "PnL %",
}

const (
	places  = 6
	tinyAbs = 1e-6
)

// Format renders a row as cells in loc. Missing values become empty cells.
func Format(row ledger.TradeRow, loc *time.Location) []string {
	if loc == nil {
		loc = time.UTC
	}
	ts := time.UnixMilli(row.Time).In(loc)

	lev := ""
	if row.Leverage != nil && finite(*row.Leverage) {
		lev = Number(*row.Leverage) + "x"
	}

	return []string{
		ts.Format("2006-01-02"),
		ts.Format("15:04:05"),
		row.Protocol,
		row.Action,
		row.Direction,
		optNumber(row.Price),
		optNumber(row.Size),
		optNumber(row.Notional),
		optNumber(row.Collateral),
		lev,
		Number(row.Fees),
		optNumber(row.TakeProfit),
		optNumber(row.StopLoss),
		optNumber(row.LiquidationPrice),
		fixed(row.RiskReward, 2, 1, ""),
		optNumber(row.PnL),
		fixed(row.PnLPct, 2, 100, "%"),
	}
}

// Number rounds x to six places and drops trailing zeros. Values smaller
// than a millionth print as 0.
func Number(x float64) string {
	if !finite(x) {
		return ""
	}
	if math.Abs(x) < tinyAbs {
		return "0"
	}
	return decimal.NewFromFloat(x).Round(places).String()
}

func optNumber(p *float64) string {
	if p == nil {
		return ""
	}
	return Number(*p)
}

func fixed(p *float64, prec int32, scale float64, suffix string) string {
	if p == nil || !finite(*p) {
		return ""
	}
	return decimal.NewFromFloat(*p * scale).StringFixed(prec) + suffix
}

func finite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}

func anys(cells []string) []any {
	out := make([]any, len(cells))
	for i, c := range cells {
		out[i] = c
	}
	return out
}

// RenderTable writes one asset's rows under a title line.
func RenderTable(w io.Writer, title string, rows []ledger.TradeRow, loc *time.Location) error {
	if title != "" {
		if _, err := fmt.Fprintf(w, "\n== %s (%d) ==\n", title, len(rows)); err != nil {
			return fmt.Errorf("write title: %w", err)
		}
	}
	table := tablewriter.NewWriter(w)
	table.Header(anys(Columns)...)
	for _, r := range rows {
		if err := table.Append(anys(Format(r, loc))...); err != nil {
			return fmt.Errorf("append row: %w", err)
		}
	}
	return table.Render()
}

// RenderSummary writes the account summary as a two column table.
func RenderSummary(w io.Writer, s journal.AccountSnapshot, loc *time.Location) error {
	if loc == nil {
		loc = time.UTC
	}
	table := tablewriter.NewWriter(w)
	table.Header("Metric", "Value")

	add := func(k, v string) error { return table.Append(k, v) }
	for _, kv := range [][2]string{
		{"As of", s.Time.In(loc).Format("2006-01-02 15:04:05")},
		{"Account value", optNumber(s.AccountValue)},
		{"Withdrawable", optNumber(s.Withdrawable)},
		{"Margin used", optNumber(s.MarginUsed)},
		{"Trading fees", Number(-s.TradeFees)},
		{"Perp fees", Number(s.PerpFees)},
		{"Spot fees", Number(s.SpotFees)},
		{"Funding net", Number(s.FundingNet)},
		{"Funding paid", Number(s.FundingPaid)},
		{"Funding received", Number(s.FundingReceived)},
		{"Fills", fmt.Sprintf("%d", s.Fills)},
		{"Funding events", fmt.Sprintf("%d", s.FundingEvents)},
	} {
		if err := add(kv[0], kv[1]); err != nil {
			return fmt.Errorf("append summary: %w", err)
		}
	}
	return table.Render()
}

// RenderRuns lists recorded rebuild runs.
func RenderRuns(w io.Writer, runs []journal.Run, loc *time.Location) error {
	if loc == nil {
		loc = time.UTC
	}
	table := tablewriter.NewWriter(w)
	table.Header("Run", "Created", "Window", "Rows", "Closes", "Win %", "Net PnL", "Fees")
	for _, r := range runs {
		err := table.Append(
			r.RunID,
			r.Created.In(loc).Format("2006-01-02 15:04"),
			r.Start.In(loc).Format("2006-01-02")+".."+r.End.In(loc).Format("2006-01-02"),
			fmt.Sprintf("%d", r.Rows),
			fmt.Sprintf("%d", r.Closes),
			fmt.Sprintf("%.1f", 100*r.WinRate()),
			Number(r.NetPnL),
			Number(r.Fees),
		)
		if err != nil {
			return fmt.Errorf("append run: %w", err)
		}
	}
	return table.Render()
}
