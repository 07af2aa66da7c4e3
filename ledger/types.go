// Package ledger rebuilds perpetual-futures position history from an
// execution log. Fills are walked in time order against FIFO lot queues to
// produce realized PnL, funding attribution and the subset of opens that
// still back the live position.
package ledger

import "math"

// Epsilon is the tolerance for treating a quantity as zero. Lots at or below
// it are drained from the queue.
const Epsilon = 1e-7

// Fill is one execution report from the venue.
type Fill struct {
	Time  int64 // unix ms
	Coin  string
	Dir   string // venue label, e.g. "Open Long"
	Price float64
	Size  float64 // unsigned magnitude
	Fee   float64

	// Venue supplied running position before this fill, nil when absent.
	StartPosition *float64
	// Venue supplied realized PnL, nil when absent.
	ClosedPnl *float64

	OrderID string
	TradeID string
}

// FundingEvent is a signed funding cash flow. Negative amounts were paid by
// the account.
type FundingEvent struct {
	Time      int64
	Coin      string
	AmountUSD float64
}

// Lot is the unmatched remainder of an opening fill.
type Lot struct {
	Price    float64
	Quantity float64
}

// AnnotatedFill is a Fill decorated with position and PnL state.
type AnnotatedFill struct {
	Fill

	Action Action
	Side   Side
	Label  string

	PositionBefore float64
	PositionAfter  float64
	IsOpening      bool
	IsClosing      bool
	OpenedQty      float64
	ClosedQty      float64

	FundingAllocated float64
	RealizedPnl      float64
	RealizedBasis    float64
	RealizedPnlPct   *float64 // percent, 20 == 20%
	FeeTotal         float64  // trade fee plus allocated funding

	ContributesToOpenPosition bool
	OpenRemainder             float64

	PositionStartNotional *float64
	PositionStartPrice    *float64
	PositionStartTokens   *float64
}

// OrderSide is the side of a resting order.
type OrderSide string

const (
	OrderBuy  OrderSide = "buy"
	OrderSell OrderSide = "sell"
)

// OpenOrder is a resting limit or trigger order.
type OpenOrder struct {
	Coin           string
	Side           OrderSide
	Price          float64
	Kind           string
	ReduceOnly     bool
	IsPositionTpsl bool
	Size           float64
}

// LiveState is the venue's current view of one asset's position. Any field
// may be missing from the payload.
type LiveState struct {
	LiquidationPrice *float64
	Leverage         *float64
	MarginUsed       *float64
	EntryPrice       *float64
	SignedSize       *float64
}

// MergedTrade collapses the fills that share one timestamp.
type MergedTrade struct {
	Time   int64
	Coin   string
	Action Action
	Side   Side
	Dir    string

	Price float64 // size weighted
	Size  float64

	TradeFee         float64
	FundingAllocated float64
	FeeTotal         float64
	RealizedPnl      float64
	RealizedBasis    float64

	IsOpening                 bool
	IsClosing                 bool
	ContributesToOpenPosition bool
	OpenRemainder             float64

	PositionStartNotional *float64
	PositionStartPrice    *float64
	PositionStartTokens   *float64

	Fills int
}

// TradeRow is one display record. Nil pointers render as blanks.
type TradeRow struct {
	Time      int64
	Coin      string
	Protocol  string
	Action    string // Open | Close
	Direction string // Long | Short

	Price    *float64
	Size     *float64
	Notional *float64

	Collateral *float64
	Leverage   *float64
	Fees       float64

	TakeProfit       *float64
	StopLoss         *float64
	LiquidationPrice *float64
	RiskReward       *float64

	PnL    *float64
	PnLPct *float64 // fraction, 0.2 == 20%
}

func finite(x float64) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return 0
	}
	return x
}

func isFinite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}

// finitePtr returns the pointed value and whether it is usable.
func finitePtr(p *float64) (float64, bool) {
	if p == nil || !isFinite(*p) {
		return 0, false
	}
	return *p, true
}

func ptr(x float64) *float64 { return &x }
