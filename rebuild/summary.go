package rebuild

import (
	"math"

	"github.com/rustyeddy/perpjournal/hyperliquid"
	"github.com/rustyeddy/perpjournal/journal"
	"github.com/rustyeddy/perpjournal/ledger"
)

// Summarize totals trading fees and funding over the window. Spot fees are
// always reported separately and only count toward TradeFees when
// includeSpot is set. Fills counts the fills that fed TradeFees.
func Summarize(fills []ledger.Fill, funding []ledger.FundingEvent, includeSpot bool) journal.AccountSnapshot {
	var s journal.AccountSnapshot

	for _, f := range fills {
		if math.IsNaN(f.Fee) || math.IsInf(f.Fee, 0) {
			continue
		}
		if hyperliquid.IsSpotCoin(f.Coin) {
			s.SpotFees += f.Fee
			if !includeSpot {
				continue
			}
		} else {
			s.PerpFees += f.Fee
		}
		s.TradeFees += f.Fee
		s.Fills++
	}

	for _, e := range funding {
		if math.IsNaN(e.AmountUSD) || math.IsInf(e.AmountUSD, 0) {
			continue
		}
		s.FundingNet += e.AmountUSD
		if e.AmountUSD < 0 {
			s.FundingPaid -= e.AmountUSD
		} else {
			s.FundingReceived += e.AmountUSD
		}
		s.FundingEvents++
	}
	return s
}
