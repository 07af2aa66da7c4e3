package risk

import (
	"math"

	"github.com/rustyeddy/perpjournal/ledger"
)

func isFinite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}

func value(p *float64) (float64, bool) {
	if p == nil || !isFinite(*p) {
		return 0, false
	}
	return *p, true
}

func ptr(x float64) *float64 { return &x }

// RewardRatio returns reward/risk for a position entered at price with the
// given take-profit and stop-loss levels. ok is false unless both levels are
// set, the price is finite and the risk is strictly positive.
func RewardRatio(side ledger.Side, price float64, tp, sl *float64) (rr float64, ok bool) {
	take, okTP := value(tp)
	stop, okSL := value(sl)
	if !okTP || !okSL || !isFinite(price) {
		return 0, false
	}

	var reward, risk float64
	if side == ledger.SideShort {
		reward = price - take
		risk = stop - price
	} else {
		reward = take - price
		risk = price - stop
	}
	if risk <= 0 || !isFinite(reward) {
		return 0, false
	}
	return reward / risk, true
}

// Collateral sizes the margin shown for an open position from its entry
// notional and the current leverage, falling back to the live margin figure.
func Collateral(startNotional, leverage, marginUsed *float64) *float64 {
	notional, okN := value(startNotional)
	lev, okL := value(leverage)
	if okN && okL && lev > 0 {
		return ptr(notional / lev)
	}
	if m, ok := value(marginUsed); ok {
		return ptr(m)
	}
	return nil
}
