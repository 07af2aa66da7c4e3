package ledger

import (
	"errors"
	"fmt"
	"math"
)

// ErrOutOfOrder is returned when fills or funding events are not ascending
// by time. The tracker never re-sorts its input.
var ErrOutOfOrder = errors.New("ledger: input not ascending by time")

// Tracker holds the running state for one asset: signed position, the long
// and short lot queues and the funding accrued since the last close.
type Tracker struct {
	position float64
	long     lotQueue
	short    lotQueue

	funding []FundingEvent
	next    int
	bucket  float64

	lastTime int64
	started  bool
}

// NewTracker returns a Tracker that will interleave the given funding events
// with the fills it is fed.
func NewTracker(funding []FundingEvent) (*Tracker, error) {
	for i := 1; i < len(funding); i++ {
		if funding[i].Time < funding[i-1].Time {
			return nil, fmt.Errorf("%w: funding event %d at %d precedes %d",
				ErrOutOfOrder, i, funding[i].Time, funding[i-1].Time)
		}
	}
	return &Tracker{funding: funding}, nil
}

// Position returns the signed running position.
func (t *Tracker) Position() float64 { return t.position }

// FundingBucket returns funding accrued but not yet allocated to a close.
func (t *Tracker) FundingBucket() float64 { return t.bucket }

// Lots returns a copy of the open lots for a side, oldest first.
func (t *Tracker) Lots(side Side) []Lot {
	if side == SideShort {
		return t.short.snapshot()
	}
	return t.long.snapshot()
}

// Apply processes the next fill and returns it annotated.
func (t *Tracker) Apply(f Fill) (AnnotatedFill, error) {
	if t.started && f.Time < t.lastTime {
		return AnnotatedFill{}, fmt.Errorf("%w: fill %s at %d precedes %d",
			ErrOutOfOrder, f.TradeID, f.Time, t.lastTime)
	}

	dir := Classify(f.Dir)
	qty := math.Abs(finite(f.Size))

	before := t.position
	if sp, ok := finitePtr(f.StartPosition); ok {
		before = sp
	}

	t.drainFunding(f.Time, before)

	var delta, pnl, basis float64
	switch {
	case dir.Action == ActionOpen && dir.Side == SideLong:
		t.long.push(f.Price, qty)
		delta = qty
	case dir.Action == ActionClose && dir.Side == SideLong:
		pnl, basis = t.long.consume(min(qty, math.Abs(before)), f.Price, SideLong)
		delta = -qty
	case dir.Action == ActionOpen && dir.Side == SideShort:
		t.short.push(f.Price, qty)
		delta = -qty
	case dir.Action == ActionClose && dir.Side == SideShort:
		pnl, basis = t.short.consume(min(qty, math.Abs(before)), f.Price, SideShort)
		delta = qty
	}

	after := before + delta
	absBefore, absAfter := math.Abs(before), math.Abs(after)

	a := AnnotatedFill{
		Fill:           f,
		Action:         dir.Action,
		Side:           dir.Side,
		Label:          dir.Label,
		PositionBefore: before,
		PositionAfter:  after,
		IsOpening:      absAfter > absBefore,
		IsClosing:      absAfter < absBefore,
	}
	if a.IsOpening {
		a.OpenedQty = absAfter - absBefore
	}
	if a.IsClosing {
		a.ClosedQty = absBefore - absAfter
	}

	if a.IsClosing && absBefore > 0 {
		frac := min(a.ClosedQty/absBefore, 1)
		alloc := finite(t.bucket * frac)
		t.bucket -= alloc
		a.FundingAllocated = alloc
	}

	if a.IsClosing {
		a.RealizedPnl = pnl
		if venue, ok := finitePtr(f.ClosedPnl); ok {
			a.RealizedPnl = venue
		}
		a.RealizedBasis = basis
		if basis > 0 {
			a.RealizedPnlPct = ptr(a.RealizedPnl / basis * 100)
		}
	}

	a.FeeTotal = finite(f.Fee) + a.FundingAllocated

	t.position = after
	t.lastTime = f.Time
	t.started = true
	return a, nil
}

// drainFunding moves every funding event up to ts into the bucket. Events
// that land while the account is flat are consumed without accruing.
func (t *Tracker) drainFunding(ts int64, position float64) {
	for t.next < len(t.funding) && t.funding[t.next].Time <= ts {
		if math.Abs(position) > Epsilon {
			t.bucket += finite(t.funding[t.next].AmountUSD)
		}
		t.next++
	}
}

// Annotation is the result of a forward pass over one asset's fills.
type Annotation struct {
	Fills     []AnnotatedFill
	Position  float64
	LongLots  []Lot
	ShortLots []Lot

	// UnallocatedFunding is funding accrued on the still-open position.
	UnallocatedFunding float64
}

// Annotate runs a fresh Tracker over fills, which must be ascending by time,
// interleaving funding events (also ascending).
func Annotate(fills []Fill, funding []FundingEvent) (Annotation, error) {
	t, err := NewTracker(funding)
	if err != nil {
		return Annotation{}, err
	}

	out := make([]AnnotatedFill, 0, len(fills))
	for i, f := range fills {
		a, err := t.Apply(f)
		if err != nil {
			return Annotation{}, fmt.Errorf("fill %d: %w", i, err)
		}
		out = append(out, a)
	}

	return Annotation{
		Fills:              out,
		Position:           t.Position(),
		LongLots:           t.Lots(SideLong),
		ShortLots:          t.Lots(SideShort),
		UnallocatedFunding: t.FundingBucket(),
	}, nil
}
