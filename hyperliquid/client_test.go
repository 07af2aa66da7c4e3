package hyperliquid

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/perpjournal/ledger"
)

type infoRequest struct {
	Type      string `json:"type"`
	User      string `json:"user"`
	StartTime int64  `json:"startTime"`
	EndTime   int64  `json:"endTime"`
}

func newTestClient(t *testing.T, h func(w http.ResponseWriter, req infoRequest)) *Client {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		var req infoRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		h(w, req)
	}))
	t.Cleanup(server.Close)

	return NewClient(
		WithBaseURL(server.URL),
		WithPageThrottle(0),
		WithBackoff(time.Millisecond, 2*time.Millisecond),
		WithMaxAttempts(3),
	)
}

func TestNewClient_Defaults(t *testing.T) {
	c := NewClient()
	assert.Equal(t, MainnetURL, c.baseURL)
	assert.Equal(t, defaultMaxAttempts, c.maxAttempts)
	assert.Equal(t, defaultBaseWait, c.baseWait)
	assert.Equal(t, defaultMaxWait, c.maxWait)
	assert.NotNil(t, c.httpClient)
	assert.NotNil(t, c.limiter)
	assert.NotNil(t, c.logger)
}

func TestPost_RetriesTransientFailures(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, req infoRequest) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		fmt.Fprint(w, `[]`)
	})

	var out []wireFill
	require.NoError(t, c.post(context.Background(), request{Type: "userFills"}, &out))
	assert.Equal(t, int32(3), calls.Load())
}

func TestPost_ErrorField(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, req infoRequest) {
		calls.Add(1)
		fmt.Fprint(w, `{"error":"unknown user"}`)
	})

	var out wireClearinghouse
	err := c.post(context.Background(), request{Type: "clearinghouseState"}, &out)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAPI)
	assert.Contains(t, err.Error(), "clearinghouseState")
	assert.Contains(t, err.Error(), "unknown user")
	assert.Equal(t, int32(3), calls.Load())
}

func TestPost_HTTPErrorSnippet(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, req infoRequest) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		fmt.Fprint(w, strings.Repeat("x", 1200))
	})

	var out []wireFill
	err := c.post(context.Background(), request{Type: "userFillsByTime"}, &out)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAPI)
	assert.Contains(t, err.Error(), "HTTP 422")
	assert.Contains(t, err.Error(), strings.Repeat("x", snippetLen))
	assert.NotContains(t, err.Error(), strings.Repeat("x", snippetLen+1))
}

func TestPost_ContextCanceled(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, req infoRequest) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var out []wireFill
	err := c.post(ctx, request{Type: "userFills"}, &out)
	assert.ErrorIs(t, err, context.Canceled)
}

func fillJSON(tm int64, coin, dir, px, sz string, tid int) map[string]any {
	m := map[string]any{
		"time": tm, "coin": coin, "dir": dir, "px": px, "sz": sz,
		"fee": "0.01", "oid": 42, "side": "B", "closedPnl": "0.0", "startPosition": "0.0",
	}
	if tid > 0 {
		m["tid"] = tid
	}
	return m
}

func TestFillsByTime_WalksBackward(t *testing.T) {
	all := []map[string]any{
		fillJSON(1000, "BTC", "Open Long", "100", "1", 1),
		fillJSON(2000, "BTC", "Open Long", "101", "1", 2),
		fillJSON(3000, "BTC", "Close Long", "102", "1", 3),
		fillJSON(3500, "@107", "Buy", "1.5", "10", 99),
		fillJSON(4000, "ETH", "Open Short", "2000", "0.5", 4),
		fillJSON(5000, "ETH", "Close Short", "1990", "0.5", 5),
	}

	var pages atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, req infoRequest) {
		assert.Equal(t, "userFillsByTime", req.Type)
		assert.Equal(t, "0xabc", req.User)
		pages.Add(1)

		var in []map[string]any
		for _, f := range all {
			tm := f["time"].(int64)
			if tm >= req.StartTime && tm <= req.EndTime {
				in = append(in, f)
			}
		}
		// newest two only, as a page limit
		sort.Slice(in, func(i, j int) bool { return in[i]["time"].(int64) > in[j]["time"].(int64) })
		if len(in) > 2 {
			in = in[:2]
		}
		assert.NoError(t, json.NewEncoder(w).Encode(in))
	})

	fills, err := c.FillsByTime(context.Background(), "0xabc", time.UnixMilli(0), time.UnixMilli(10000))
	require.NoError(t, err)
	require.Len(t, fills, 6)
	assert.Equal(t, int32(4), pages.Load())

	for i := 1; i < len(fills); i++ {
		assert.LessOrEqual(t, fills[i-1].Time, fills[i].Time)
	}
	assert.Equal(t, "Open Long", fills[0].Dir)
	assert.InDelta(t, 100.0, fills[0].Price, 1e-12)
	assert.InDelta(t, 0.01, fills[0].Fee, 1e-12)
	assert.Equal(t, "1", fills[0].TradeID)
	assert.Equal(t, "42", fills[0].OrderID)
	require.NotNil(t, fills[0].StartPosition)

	perps := PerpOnly(fills)
	assert.Len(t, perps, 5)
	for _, f := range perps {
		assert.False(t, IsSpotCoin(f.Coin))
	}
}

func TestFillsByTime_DedupesWithoutTid(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, req infoRequest) {
		if req.EndTime < 1000 {
			fmt.Fprint(w, `[]`)
			return
		}
		f := fillJSON(1000, "SOL", "Open Long", "20", "3", 0)
		delete(f, "closedPnl")
		assert.NoError(t, json.NewEncoder(w).Encode([]any{f, f}))
	})

	fills, err := c.FillsByTime(context.Background(), "0xabc", time.UnixMilli(0), time.UnixMilli(5000))
	require.NoError(t, err)
	require.Len(t, fills, 1)
	assert.Equal(t, "1000-42-20-3-Open Long", fills[0].TradeID)
	assert.Nil(t, fills[0].ClosedPnl)
}

func TestIsSpotCoin(t *testing.T) {
	t.Parallel()

	tests := []struct {
		coin string
		want bool
	}{
		{"BTC", false},
		{"kPEPE", false},
		{"@107", true},
		{"PURR/USDC", true},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.coin, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, IsSpotCoin(tt.coin))
		})
	}
}

func fundingJSON(tm int64, coin, usdc string) map[string]any {
	return map[string]any{
		"time": tm,
		"hash": "0x0",
		"delta": map[string]any{
			"type": "funding", "coin": coin, "usdc": usdc, "szi": "1.0", "fundingRate": "0.0000125",
		},
	}
}

func TestFunding_PagesForward(t *testing.T) {
	var firstPage []map[string]any
	for i := 1; i <= fundingPageSize; i++ {
		firstPage = append(firstPage, fundingJSON(int64(i), "BTC", "-0.1"))
	}

	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, req infoRequest) {
		assert.Equal(t, "userFunding", req.Type)
		switch calls.Add(1) {
		case 1:
			assert.Equal(t, int64(0), req.StartTime)
			assert.NoError(t, json.NewEncoder(w).Encode(firstPage))
		case 2:
			assert.Equal(t, int64(fundingPageSize+1), req.StartTime)
			assert.NoError(t, json.NewEncoder(w).Encode([]any{
				fundingJSON(fundingPageSize, "BTC", "-0.1"), // repeat
				fundingJSON(600, "ETH", "0.25"),
				fundingJSON(601, "", "1"),
			}))
		default:
			t.Errorf("unexpected page %d", calls.Load())
		}
	})

	events, err := c.Funding(context.Background(), "0xabc", time.UnixMilli(0), time.UnixMilli(10000))
	require.NoError(t, err)
	require.Len(t, events, fundingPageSize+1)
	assert.Equal(t, ledger.FundingEvent{Time: 600, Coin: "ETH", AmountUSD: 0.25}, events[len(events)-1])
	assert.Equal(t, int32(2), calls.Load())
}

func TestAccountState(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, req infoRequest) {
		assert.Equal(t, "clearinghouseState", req.Type)
		fmt.Fprint(w, `{
			"marginSummary": {"accountValue": "1523.75", "totalMarginUsed": "210.5", "totalNtlPos": "2100"},
			"withdrawable": "1300.25",
			"assetPositions": [
				{"type": "oneWay", "position": {
					"coin": "ETH", "szi": "-0.5", "entryPx": "2000", "liquidationPx": "2350.5",
					"marginUsed": "200", "leverage": {"type": "cross", "value": 5}}},
				{"coin": "BTC", "szi": "0.01", "entryPx": "60000", "liquidationPx": null,
					"marginUsed": "10.5", "leverage": {"type": "isolated", "value": 0}}
			]
		}`)
	})

	acct, err := c.AccountState(context.Background(), "0xabc")
	require.NoError(t, err)
	require.NotNil(t, acct.Value)
	assert.InDelta(t, 1523.75, *acct.Value, 1e-9)
	require.NotNil(t, acct.Withdrawable)
	assert.InDelta(t, 1300.25, *acct.Withdrawable, 1e-9)

	eth := acct.Positions["ETH"]
	require.NotNil(t, eth.Leverage)
	assert.InDelta(t, 5.0, *eth.Leverage, 1e-9)
	assert.InDelta(t, 2350.5, *eth.LiquidationPrice, 1e-9)
	assert.InDelta(t, -0.5, *eth.SignedSize, 1e-9)

	btc := acct.Positions["BTC"]
	assert.Nil(t, btc.Leverage)
	assert.Nil(t, btc.LiquidationPrice)
	require.NotNil(t, btc.MarginUsed)
	assert.InDelta(t, 10.5, *btc.MarginUsed, 1e-9)
}

func TestOpenOrders_FallsBackWhenEmpty(t *testing.T) {
	var seen []string
	c := newTestClient(t, func(w http.ResponseWriter, req infoRequest) {
		seen = append(seen, req.Type)
		switch req.Type {
		case "frontendOpenOrders":
			fmt.Fprint(w, `[]`)
		case "openOrders":
			fmt.Fprint(w, `[
				{"coin": "ETH", "side": "A", "limitPx": "2300", "sz": "0.5"},
				{"coin": "ETH", "side": "B", "limitPx": "1900", "triggerPx": "1950", "isTrigger": true, "orderType": "Stop Market", "reduceOnly": true, "origSz": "0.5"},
				{"coin": "ETH", "side": "X", "limitPx": "1"},
				{"coin": "BTC", "side": "sell", "px": "70000"}
			]`)
		}
	})

	orders, err := c.OpenOrders(context.Background(), "0xabc")
	require.NoError(t, err)
	assert.Equal(t, []string{"frontendOpenOrders", "openOrders"}, seen)

	require.Len(t, orders["ETH"], 2)
	assert.Equal(t, ledger.OpenOrder{Coin: "ETH", Side: ledger.OrderSell, Price: 2300, Kind: "limit", Size: 0.5}, orders["ETH"][0])
	stop := orders["ETH"][1]
	assert.Equal(t, ledger.OrderBuy, stop.Side)
	assert.InDelta(t, 1950.0, stop.Price, 1e-9)
	assert.Equal(t, "stop market", stop.Kind)
	assert.True(t, stop.ReduceOnly)
	assert.InDelta(t, 0.5, stop.Size, 1e-9)

	require.Len(t, orders["BTC"], 1)
	assert.InDelta(t, 70000.0, orders["BTC"][0].Price, 1e-9)
}

func TestOpenOrders_LimitWithZeroTrigger(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, req infoRequest) {
		fmt.Fprint(w, `[{"coin": "SOL", "side": "A", "limitPx": "180.5", "triggerPx": "0.0", "isTrigger": false, "orderType": "Limit", "sz": "3"}]`)
	})

	orders, err := c.OpenOrders(context.Background(), "0xabc")
	require.NoError(t, err)
	require.Len(t, orders["SOL"], 1)
	assert.InDelta(t, 180.5, orders["SOL"][0].Price, 1e-9)
	assert.Equal(t, "limit", orders["SOL"][0].Kind)
}
