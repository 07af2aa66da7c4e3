package hyperliquid

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/rustyeddy/perpjournal/ledger"
)

// Account is the venue's clearinghouse view of the user.
type Account struct {
	Value        *float64
	Withdrawable *float64
	MarginUsed   *float64
	Positions    map[string]ledger.LiveState
}

// AccountState fetches account value, withdrawable balance and live perp
// positions keyed by coin.
func (c *Client) AccountState(ctx context.Context, user string) (Account, error) {
	var chs wireClearinghouse
	if err := c.post(ctx, request{Type: "clearinghouseState", User: user}, &chs); err != nil {
		return Account{}, fmt.Errorf("clearinghouse state: %w", err)
	}

	acct := Account{
		Value:        floatPtr(chs.MarginSummary.AccountValue),
		Withdrawable: floatPtr(chs.Withdrawable),
		MarginUsed:   floatPtr(chs.MarginSummary.TotalMarginUsed),
		Positions:    make(map[string]ledger.LiveState),
	}

	entries := chs.AssetPositions
	if len(entries) == 0 {
		entries = chs.OpenPerpPositions
	}
	for _, e := range entries {
		p := e.pos()
		if p.Coin == "" {
			continue
		}
		st := ledger.LiveState{
			LiquidationPrice: floatPtr(p.LiquidationPx),
			MarginUsed:       floatPtr(p.MarginUsed),
			EntryPrice:       floatPtr(p.EntryPx),
			SignedSize:       floatPtr(p.Szi),
		}
		if p.Leverage != nil {
			if v, ok := toFloat(p.Leverage.Value); ok && v != 0 {
				st.Leverage = &v
			}
		}
		acct.Positions[p.Coin] = st
	}
	return acct, nil
}

// OpenOrders returns resting orders grouped by coin. frontendOpenOrders is
// asked first; openOrders is the fallback when that fails or is empty.
// Trigger orders are keyed on their trigger price.
func (c *Client) OpenOrders(ctx context.Context, user string) (map[string][]ledger.OpenOrder, error) {
	var raw []wireOrder
	err := c.post(ctx, request{Type: "frontendOpenOrders", User: user}, &raw)
	if err != nil || len(raw) == 0 {
		if err != nil {
			c.logger.Warn("frontendOpenOrders failed, falling back", "err", err)
		}
		raw = nil
		if err2 := c.post(ctx, request{Type: "openOrders", User: user}, &raw); err2 != nil {
			if err != nil {
				return nil, fmt.Errorf("open orders: %w", err2)
			}
			// The primary answered with no orders; trust it.
			c.logger.Warn("openOrders fallback failed", "err", err2)
			raw = nil
		}
	}

	out := make(map[string][]ledger.OpenOrder)
	for _, o := range raw {
		if oo, ok := toOrder(o); ok {
			out[oo.Coin] = append(out[oo.Coin], oo)
		}
	}
	return out, nil
}

func toOrder(o wireOrder) (ledger.OpenOrder, bool) {
	if o.Coin == "" {
		return ledger.OpenOrder{}, false
	}

	var side ledger.OrderSide
	switch strings.ToUpper(o.Side) {
	case "B", "BUY":
		side = ledger.OrderBuy
	case "A", "SELL":
		side = ledger.OrderSell
	default:
		return ledger.OpenOrder{}, false
	}

	limit, okLimit := toFloat(o.LimitPx)
	if !okLimit {
		limit, okLimit = toFloat(o.Px)
	}
	trigger, okTrigger := toFloat(o.TriggerPx)
	// Plain limit orders report triggerPx "0.0".
	okTrigger = okTrigger && trigger != 0
	isTrigger := o.IsTrigger || okTrigger

	var px float64
	var ok bool
	switch {
	case isTrigger && okTrigger:
		px, ok = trigger, true
	case okLimit:
		px, ok = limit, true
	}
	if !ok || math.IsNaN(px) || math.IsInf(px, 0) {
		return ledger.OpenOrder{}, false
	}

	kind := strings.ToLower(o.OrderType)
	if kind == "" {
		kind = "limit"
		if isTrigger {
			kind = "trigger"
		}
	}

	size, okSize := toFloat(o.Sz)
	if !okSize {
		size, _ = toFloat(o.OrigSz)
	}

	return ledger.OpenOrder{
		Coin:           o.Coin,
		Side:           side,
		Price:          px,
		Kind:           kind,
		ReduceOnly:     o.ReduceOnly,
		IsPositionTpsl: o.IsPositionTpsl,
		Size:           size,
	}, true
}
