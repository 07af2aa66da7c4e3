package ledger

// lotQueue is a FIFO of open lots for one side.
type lotQueue struct {
	lots []Lot
}

func (q *lotQueue) push(price, qty float64) {
	if qty <= Epsilon {
		return
	}
	q.lots = append(q.lots, Lot{Price: price, Quantity: qty})
}

// consume matches up to need tokens from the front of the queue at the
// given close price and returns realized PnL and entry basis. Lots with a
// non-finite price are drained without contributing PnL or basis.
func (q *lotQueue) consume(need, closePrice float64, side Side) (pnl, basis float64) {
	for need > Epsilon && len(q.lots) > 0 {
		lot := &q.lots[0]
		take := min(need, lot.Quantity)
		if isFinite(lot.Price) && isFinite(closePrice) {
			pnl += side.Sign() * (closePrice - lot.Price) * take
			basis += lot.Price * take
		}
		lot.Quantity -= take
		need -= take
		if lot.Quantity <= Epsilon {
			q.lots = q.lots[1:]
		}
	}
	return pnl, basis
}

func (q *lotQueue) total() float64 {
	var sum float64
	for _, l := range q.lots {
		sum += l.Quantity
	}
	return sum
}

func (q *lotQueue) snapshot() []Lot {
	out := make([]Lot, len(q.lots))
	copy(out, q.lots)
	return out
}
