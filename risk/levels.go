package risk

import "github.com/rustyeddy/perpjournal/ledger"

// Levels are the resting exit prices bracketing a position.
type Levels struct {
	TakeProfit *float64
	StopLoss   *float64
}

// MatchLevels picks the nearest resting exits around price. Only orders on
// the side that would reduce the position are eligible: sells for longs and
// buys for shorts. Orders resting exactly at price are ignored.
func MatchLevels(side ledger.Side, price float64, orders []ledger.OpenOrder) Levels {
	var lv Levels
	if !isFinite(price) {
		return lv
	}

	exit := ledger.OrderSell
	if side == ledger.SideShort {
		exit = ledger.OrderBuy
	}

	var above, below *float64
	for _, o := range orders {
		if o.Side != exit || !isFinite(o.Price) {
			continue
		}
		switch {
		case o.Price > price:
			if above == nil || o.Price < *above {
				above = ptr(o.Price)
			}
		case o.Price < price:
			if below == nil || o.Price > *below {
				below = ptr(o.Price)
			}
		}
	}

	if side == ledger.SideShort {
		lv.TakeProfit, lv.StopLoss = below, above
	} else {
		lv.TakeProfit, lv.StopLoss = above, below
	}
	return lv
}
