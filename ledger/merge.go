package ledger

import (
	"math"
	"sort"
)

// MergeByTimestamp folds fills sharing an identical timestamp into one
// trade, ascending by time. Quantities, fees, funding and realized PnL are
// summed so the group keeps its exact economics; price is size weighted.
//
// The merged action is whichever of open/close moved more quantity, with
// ties going to close. Within that action the larger of long/short wins,
// ties going to long.
func MergeByTimestamp(fills []AnnotatedFill) []MergedTrade {
	if len(fills) == 0 {
		return nil
	}

	groups := make(map[int64][]AnnotatedFill)
	var times []int64
	for _, f := range fills {
		if _, ok := groups[f.Time]; !ok {
			times = append(times, f.Time)
		}
		groups[f.Time] = append(groups[f.Time], f)
	}
	sort.Slice(times, func(i, j int) bool { return times[i] < times[j] })

	out := make([]MergedTrade, 0, len(times))
	for _, ts := range times {
		out = append(out, mergeGroup(ts, groups[ts]))
	}
	return out
}

func mergeGroup(ts int64, list []AnnotatedFill) MergedTrade {
	m := MergedTrade{
		Time:  ts,
		Coin:  list[0].Coin,
		Fills: len(list),
	}

	var weighted, pricedSize float64
	var openLong, openShort, closeLong, closeShort float64

	for _, f := range list {
		qty := math.Abs(finite(f.Size))
		m.Size += qty
		if isFinite(f.Price) && qty > 0 {
			weighted += f.Price * qty
			pricedSize += qty
		}

		m.TradeFee += finite(f.Fee)
		m.FundingAllocated += f.FundingAllocated
		m.FeeTotal += f.FeeTotal
		m.OpenRemainder += f.OpenRemainder

		if f.IsClosing {
			m.RealizedPnl += f.RealizedPnl
			m.RealizedBasis += f.RealizedBasis
		}

		if f.IsOpening {
			if f.Side == SideShort {
				openShort += qtyOr(f.OpenedQty, qty)
			} else {
				openLong += qtyOr(f.OpenedQty, qty)
			}
		}
		if f.IsClosing {
			if f.Side == SideShort {
				closeShort += qtyOr(f.ClosedQty, qty)
			} else {
				closeLong += qtyOr(f.ClosedQty, qty)
			}
		}

		m.IsOpening = m.IsOpening || f.IsOpening
		m.IsClosing = m.IsClosing || f.IsClosing
		m.ContributesToOpenPosition = m.ContributesToOpenPosition || f.ContributesToOpenPosition

		if m.PositionStartNotional == nil {
			if v, ok := finitePtr(f.PositionStartNotional); ok {
				m.PositionStartNotional = ptr(v)
				m.PositionStartPrice = copyPtr(f.PositionStartPrice)
				m.PositionStartTokens = copyPtr(f.PositionStartTokens)
			}
		}
	}

	if pricedSize > 0 {
		m.Price = weighted / pricedSize
	} else {
		m.Price = list[0].Price
	}

	openQty := openLong + openShort
	closeQty := closeLong + closeShort
	switch {
	case openQty > closeQty:
		m.Action = ActionOpen
		m.Side = largerSide(openLong, openShort)
	case closeQty > 0:
		m.Action = ActionClose
		m.Side = largerSide(closeLong, closeShort)
	default:
		// Nothing moved.
		m.Action = ActionOpen
		m.Side = SideLong
	}
	m.Dir = DirLabel(m.Action, m.Side)
	return m
}

func largerSide(long, short float64) Side {
	if long >= short {
		return SideLong
	}
	return SideShort
}

func qtyOr(q, fallback float64) float64 {
	if q > 0 {
		return q
	}
	return fallback
}

func copyPtr(p *float64) *float64 {
	if p == nil {
		return nil
	}
	return ptr(*p)
}
