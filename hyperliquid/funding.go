package hyperliquid

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/rustyeddy/perpjournal/ledger"
)

const (
	fundingPageSize = 500
	maxFundingPages = 800
)

// Funding returns the user's funding payments in [start, end], ascending.
// Pages walk forward from start; a short page ends the scan.
func (c *Client) Funding(ctx context.Context, user string, start, end time.Time) ([]ledger.FundingEvent, error) {
	from, endMs := start.UnixMilli(), end.UnixMilli()

	seen := make(map[string]struct{})
	var out []ledger.FundingEvent

	for pages := 0; from <= endMs && pages < maxFundingPages; pages++ {
		var rows []wireFunding
		req := request{Type: "userFunding", User: user, StartTime: ms(from), EndTime: ms(endMs)}
		if err := c.post(ctx, req, &rows); err != nil {
			return nil, fmt.Errorf("funding page %d: %w", pages, err)
		}
		if len(rows) == 0 {
			break
		}

		newest := int64(-1)
		for _, r := range rows {
			amt, ok := toFloat(r.Delta.Usdc)
			if r.Delta.Coin == "" || !ok {
				continue
			}
			k := fmt.Sprintf("%d:%s:%s", r.Time, r.Delta.Coin, r.Delta.Usdc.Decimal.String())
			if _, dup := seen[k]; dup {
				continue
			}
			seen[k] = struct{}{}

			out = append(out, ledger.FundingEvent{Time: r.Time, Coin: r.Delta.Coin, AmountUSD: amt})
			if r.Time > newest {
				newest = r.Time
			}
		}

		if newest <= from {
			from++
		} else {
			from = newest + 1
		}
		if len(rows) < fundingPageSize {
			break
		}
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Time < out[j].Time })
	return out, nil
}
