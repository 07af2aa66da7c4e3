package ledger

import "math"

// MarkOpenContribution returns a copy of fills with the opens that still
// back the final position flagged. The final position is the last fill's
// PositionAfter; a flat account marks nothing.
//
// Walking backward, the most recent opening fills on the side of the final
// position are taken until their quantity covers |final|. The earliest
// marked fill sets the shared position-start price, tokens and notional on
// every marked fill.
func MarkOpenContribution(fills []AnnotatedFill) []AnnotatedFill {
	out := make([]AnnotatedFill, len(fills))
	copy(out, fills)
	for i := range out {
		out[i].ContributesToOpenPosition = false
		out[i].OpenRemainder = 0
		out[i].PositionStartNotional = nil
		out[i].PositionStartPrice = nil
		out[i].PositionStartTokens = nil
	}
	if len(out) == 0 {
		return out
	}

	final := out[len(out)-1].PositionAfter
	needed := math.Abs(final)
	if needed <= Epsilon {
		return out
	}
	want := SideLong
	if final < 0 {
		want = SideShort
	}

	first := -1
	for i := len(out) - 1; i >= 0 && needed > Epsilon; i-- {
		f := &out[i]
		if !f.IsOpening || f.Side != want {
			continue
		}
		take := min(needed, f.OpenedQty)
		if take <= 0 {
			continue
		}
		f.ContributesToOpenPosition = true
		f.OpenRemainder = take
		needed -= take
		first = i
	}
	if first < 0 {
		return out
	}

	start := out[first]
	tokens := start.OpenRemainder
	price := start.Price
	hasNotional := isFinite(price) && tokens > 0
	for i := range out {
		if !out[i].ContributesToOpenPosition {
			continue
		}
		if hasNotional {
			out[i].PositionStartNotional = ptr(price * tokens)
		}
		out[i].PositionStartPrice = ptr(price)
		out[i].PositionStartTokens = ptr(tokens)
	}
	return out
}
