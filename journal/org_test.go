package journal

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatTradeOrg(t *testing.T) {
	t.Parallel()

	trade := TradeRecord{
		TradeID:          "01HV3K9Q8ZAB12345678",
		RunID:            "run-1",
		Asset:            "ETH",
		Time:             time.Date(2024, 3, 15, 10, 30, 45, 0, time.UTC),
		Coin:             "ETH",
		Protocol:         "Hyperliquid",
		Action:           "Open",
		Direction:        "Long",
		Price:            fptr(3500.5),
		Size:             fptr(0.25),
		Notional:         fptr(875.126),
		Collateral:       fptr(175.026),
		Leverage:         fptr(5),
		Fees:             0.3,
		TakeProfit:       fptr(3800),
		StopLoss:         fptr(3400),
		LiquidationPrice: fptr(2900),
		RiskReward:       fptr(2.98),
	}

	result := FormatTradeOrg(trade)

	assert.Contains(t, result, "** Open Long: ETH (12345678)")
	assert.Contains(t, result, ":PROPERTIES:")
	assert.Contains(t, result, ":TRADE_ID: 01HV3K9Q8ZAB12345678")
	assert.Contains(t, result, ":ID: 01HV3K9Q8ZAB12345678")
	assert.Contains(t, result, ":RUN_ID: run-1")
	assert.Contains(t, result, ":TIME: 2024-03-15T10:30:45Z")
	assert.Contains(t, result, ":PRICE: 3500.50000")
	assert.Contains(t, result, ":SIZE: 0.250000")
	assert.Contains(t, result, ":NOTIONAL: 875.13")
	assert.Contains(t, result, ":LEVERAGE: 5x")
	assert.Contains(t, result, ":COLLATERAL: 175.03")
	assert.Contains(t, result, ":TAKE_PROFIT: 3800.00000")
	assert.Contains(t, result, ":RR: 2.98")
	assert.NotContains(t, result, ":REALIZED_PL:")
	assert.Contains(t, result, ":END:")

	assert.Contains(t, result, "*** Thesis")
	assert.Contains(t, result, "*** Execution")
	assert.Contains(t, result, "*** Review")
}

func TestFormatTradeOrgClose(t *testing.T) {
	t.Parallel()

	trade := TradeRecord{
		TradeID:   "short",
		Coin:      "BTC",
		Action:    "Close",
		Direction: "Short",
		Price:     fptr(60000),
		Fees:      2,
		PnL:       fptr(-40.456),
		PnLPct:    fptr(-0.0202),
	}

	result := FormatTradeOrg(trade)
	assert.Contains(t, result, "** Close Short: BTC (short)")
	assert.Contains(t, result, ":REALIZED_PL: -40.46")
	assert.Contains(t, result, ":REALIZED_PCT: -2.02")
	assert.Contains(t, result, ":NOTIONAL: -")
	assert.NotContains(t, result, ":LEVERAGE:")
	assert.NotContains(t, result, ":TAKE_PROFIT:")
}

func TestFormatTradesOrg(t *testing.T) {
	t.Parallel()

	trades := []TradeRecord{
		{TradeID: "A", Coin: "BTC", Action: "Open", Direction: "Long"},
		{TradeID: "B", Coin: "ETH", Action: "Close", Direction: "Short"},
	}

	result := FormatTradesOrg(trades)
	assert.Equal(t, 2, strings.Count(result, ":PROPERTIES:"))
	assert.Contains(t, result, "\n\n** Close Short: ETH (B)")

	assert.Empty(t, FormatTradesOrg(nil))
}

func TestShortID(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"short", "abc", "abc"},
		{"exact", "12345678", "12345678"},
		{"ulid", "01HV3K9Q8ZABCDEFGHJKMNPQRS", "JKMNPQRS"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, shortID(tt.in))
		})
	}
}

func TestRunWriteOrg(t *testing.T) {
	t.Parallel()

	r := Run{
		RunID:   "RUN1",
		Created: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC),
		User:    "0xabc",
		Start:   time.Date(2023, 12, 4, 0, 0, 0, 0, time.UTC),
		End:     time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
		Assets:  []string{"BTC", "ETH"},
		Fills:   120,
		Rows:    80,
		Closes:  4,
		Wins:    3,
		Losses:  1,
		NetPnL:  512.346,
		Fees:    42.1,
	}

	var buf bytes.Buffer
	require.NoError(t, r.WriteOrg(&buf))
	out := buf.String()

	assert.Contains(t, out, "* REBUILD: 0xabc 2023-12-04..2024-06-01")
	assert.Contains(t, out, ":RUN_ID:      RUN1")
	assert.Contains(t, out, ":ASSETS:      BTC ETH")
	assert.Contains(t, out, ":NET_PNL:     512.35")
	assert.Contains(t, out, ":WIN_RATE:    75.00")
	assert.Contains(t, out, ":CREATED:     [2024-06-01 Sat 12:00]")
	assert.Contains(t, out, "| Wins    | 3 |")

	assert.InDelta(t, 0.0, Run{}.WinRate(), 1e-12)
}
