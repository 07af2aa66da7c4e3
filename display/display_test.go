package display_test

import (
	"bytes"
	"errors"
	"math"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/perpjournal/display"
	"github.com/rustyeddy/perpjournal/journal"
	"github.com/rustyeddy/perpjournal/ledger"
)

func p(x float64) *float64 { return &x }

func TestNumber(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   float64
		want string
	}{
		{101.2, "101.2"},
		{0.1 + 0.2, "0.3"},
		{1.23456789, "1.234568"},
		{-0.0000004, "0"},
		{0.000001, "0.000001"},
		{-42, "-42"},
		{math.NaN(), ""},
		{math.Inf(-1), ""},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.want, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, display.Number(tt.in))
		})
	}
}

func TestFormat(t *testing.T) {
	t.Parallel()

	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	row := ledger.TradeRow{
		Time:             time.Date(2024, 3, 15, 3, 30, 45, 0, time.UTC).UnixMilli(),
		Protocol:         "Hyperliquid",
		Action:           "Close",
		Direction:        "Long",
		Price:            p(120),
		Size:             p(4),
		Notional:         p(480),
		Leverage:         p(10),
		Fees:             5,
		TakeProfit:       p(130),
		StopLoss:         p(110),
		LiquidationPrice: p(91.123456789),
		RiskReward:       p(1),
		PnL:              p(75),
		PnLPct:           p(0.1875),
	}

	cells := display.Format(row, ny)
	require.Len(t, cells, len(display.Columns))

	want := []string{
		"2024-03-14", "23:30:45", "Hyperliquid", "Close", "Long",
		"120", "4", "480", "", "10x", "5",
		"130", "110", "91.123457", "1.00", "75", "18.75%",
	}
	assert.Equal(t, want, cells)
}

func TestFormat_BlanksForMissing(t *testing.T) {
	t.Parallel()

	cells := display.Format(ledger.TradeRow{Action: "Open", Direction: "Short"}, nil)
	assert.Equal(t, "1970-01-01", cells[0])
	assert.Equal(t, "00:00:00", cells[1])
	for i, c := range cells[5:] {
		if display.Columns[5+i] == "Fees" {
			assert.Equal(t, "0", c)
			continue
		}
		assert.Empty(t, c, display.Columns[5+i])
	}
}

func TestRenderTable(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	rows := []ledger.TradeRow{
		{Time: 1700000000000, Protocol: "Hyperliquid", Action: "Open", Direction: "Short", Price: p(2000.5), Size: p(0.25), Fees: 0.2},
	}
	require.NoError(t, display.RenderTable(&buf, "ETH", rows, time.UTC))

	out := buf.String()
	assert.Contains(t, out, "== ETH (1) ==")
	assert.Contains(t, out, "2000.5")
	assert.Contains(t, out, "Short")
	assert.Contains(t, out, "2023-11-14")
}

type failingWriter struct{}

var errWrite = errors.New("disk full")

func (failingWriter) Write([]byte) (int, error) { return 0, errWrite }

func TestRenderTable_WriteError(t *testing.T) {
	t.Parallel()

	err := display.RenderTable(failingWriter{}, "ETH", nil, time.UTC)
	require.Error(t, err)
	assert.ErrorIs(t, err, errWrite)
}

func TestRenderSummary(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	err := display.RenderSummary(&buf, journal.AccountSnapshot{
		Time:         time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		AccountValue: p(1523.75),
		TradeFees:    12.5,
		FundingNet:   -3.25,
		Fills:        7,
	}, nil)
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "1523.75")
	assert.Contains(t, out, "-12.5")
	assert.Contains(t, out, "-3.25")
	assert.Contains(t, out, "2024-01-01 00:00:00")
}

func TestRenderRuns(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	err := display.RenderRuns(&buf, []journal.Run{{
		RunID:   "01HZZZ",
		Created: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC),
		Start:   time.Date(2023, 12, 4, 0, 0, 0, 0, time.UTC),
		End:     time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
		Rows:    10,
		Closes:  4,
		Wins:    1,
		NetPnL:  99.5,
	}}, time.UTC)
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "01HZZZ")
	assert.Contains(t, out, "2023-12-04..2024-06-01")
	assert.Contains(t, out, "25.0")
	assert.Contains(t, out, "99.5")
}
