package hyperliquid

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/rustyeddy/perpjournal/ledger"
)

const (
	fillWindow   = 30 * 24 * time.Hour
	maxFillPages = 120
	maxFillRows  = 8000
)

// FillsByTime returns the user's fills in [start, end], ascending by time.
// The range is walked backward in 30 day windows; each page moves the window
// end to just before its oldest fill. Fills repeated across pages are
// dropped. Spot fills are included; see PerpOnly.
func (c *Client) FillsByTime(ctx context.Context, user string, start, end time.Time) ([]ledger.Fill, error) {
	startMs, endMs := start.UnixMilli(), end.UnixMilli()
	window := fillWindow.Milliseconds()

	seen := make(map[string]struct{})
	var out []ledger.Fill
	pages, fetched := 0, 0

	for cur := endMs; cur >= startMs && pages < maxFillPages && fetched < maxFillRows; pages++ {
		from := max(startMs, cur-window)

		var page []wireFill
		req := request{Type: "userFillsByTime", User: user, StartTime: ms(from), EndTime: ms(cur)}
		if err := c.post(ctx, req, &page); err != nil {
			return nil, fmt.Errorf("fills page %d: %w", pages, err)
		}

		if len(page) == 0 {
			cur = from - 1
			continue
		}

		oldest := int64(-1)
		for _, wf := range page {
			if oldest < 0 || wf.Time < oldest {
				oldest = wf.Time
			}
			k := wf.key()
			if _, dup := seen[k]; dup {
				continue
			}
			seen[k] = struct{}{}
			out = append(out, toFill(wf))
		}
		fetched += len(page)
		cur = oldest - 1

		c.logger.Debug("fills page", "page", pages, "rows", len(page), "oldest", oldest)
	}

	if pages >= maxFillPages || fetched >= maxFillRows {
		c.logger.Warn("fill history truncated", "pages", pages, "rows", fetched)
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Time < out[j].Time })
	return out, nil
}

// PerpOnly drops spot fills.
func PerpOnly(fills []ledger.Fill) []ledger.Fill {
	out := make([]ledger.Fill, 0, len(fills))
	for _, f := range fills {
		if !IsSpotCoin(f.Coin) {
			out = append(out, f)
		}
	}
	return out
}

func toFill(wf wireFill) ledger.Fill {
	return ledger.Fill{
		Time:          wf.Time,
		Coin:          wf.Coin,
		Dir:           wf.Dir,
		Price:         floatOrNaN(wf.Px),
		Size:          floatOrNaN(wf.Sz),
		Fee:           floatOrNaN(wf.Fee),
		StartPosition: floatPtr(wf.StartPosition),
		ClosedPnl:     floatPtr(wf.ClosedPnl),
		OrderID:       wf.Oid.String(),
		TradeID:       wf.key(),
	}
}
