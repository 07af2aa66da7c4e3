package risk

import (
	"fmt"

	"github.com/rustyeddy/perpjournal/ledger"
)

// Policy holds the thresholds rows are checked against. Zero disables a
// check.
type Policy struct {
	MinRR        float64
	MaxLeverage  float64
	RequireExits bool
	// Fraction of price; a liquidation level closer than this is flagged.
	MinLiqDistance float64
}

type Violation struct {
	Code string
	Msg  string
}

// Check flags open-position rows that breach the policy. Rows that no longer
// back the position are never flagged.
func Check(p Policy, row ledger.TradeRow) []Violation {
	var out []Violation
	add := func(code, msg string) {
		out = append(out, Violation{Code: code, Msg: msg})
	}

	if p.RequireExits && row.Leverage != nil && row.TakeProfit == nil && row.StopLoss == nil {
		add("NO_EXITS", "open position has no resting take-profit or stop-loss")
	}
	if p.MinRR > 0 && row.RiskReward != nil && *row.RiskReward < p.MinRR {
		add("RR_TOO_LOW", fmt.Sprintf("RR %.2f below minimum %.2f", *row.RiskReward, p.MinRR))
	}
	if p.MaxLeverage > 0 && row.Leverage != nil && *row.Leverage > p.MaxLeverage {
		add("LEVERAGE_TOO_HIGH", fmt.Sprintf("leverage %.1fx exceeds max %.1fx", *row.Leverage, p.MaxLeverage))
	}
	if p.MinLiqDistance > 0 && row.LiquidationPrice != nil && row.Price != nil && *row.Price > 0 {
		dist := *row.Price - *row.LiquidationPrice
		if row.Direction == ledger.SideShort.String() {
			dist = -dist
		}
		if frac := dist / *row.Price; frac < p.MinLiqDistance {
			add("LIQ_TOO_CLOSE", fmt.Sprintf("liquidation %.2f%% from entry, min %.2f%%", 100*frac, 100*p.MinLiqDistance))
		}
	}
	return out
}
