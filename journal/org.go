package journal

import (
	"fmt"
	"strings"
	"time"
)

// FormatTradeOrg renders a TradeRecord as an Org-mode block suitable for pasting into a journal.
// Structured facts go in a PROPERTIES drawer; the narrative headings are left
// for the trader to fill in.
func FormatTradeOrg(t TradeRecord) string {
	heading := fmt.Sprintf("** %s %s: %s (%s)", t.Action, t.Direction, t.Coin, shortID(t.TradeID))

	var b strings.Builder
	b.WriteString(heading)
	b.WriteString("\n")
	b.WriteString(":PROPERTIES:\n")
	b.WriteString(fmt.Sprintf(":TRADE_ID: %s\n", t.TradeID))
	b.WriteString(fmt.Sprintf(":ID: %s\n", t.TradeID))
	b.WriteString(fmt.Sprintf(":RUN_ID: %s\n", t.RunID))
	b.WriteString(fmt.Sprintf(":ASSET: %s\n", t.Asset))
	b.WriteString(fmt.Sprintf(":COIN: %s\n", t.Coin))
	b.WriteString(fmt.Sprintf(":PROTOCOL: %s\n", t.Protocol))
	b.WriteString(fmt.Sprintf(":TIME: %s\n", t.Time.UTC().Format(time.RFC3339)))
	b.WriteString(fmt.Sprintf(":PRICE: %s\n", orgNum(t.Price, 5)))
	b.WriteString(fmt.Sprintf(":SIZE: %s\n", orgNum(t.Size, 6)))
	b.WriteString(fmt.Sprintf(":NOTIONAL: %s\n", orgNum(t.Notional, 2)))
	b.WriteString(fmt.Sprintf(":FEES: %.2f\n", t.Fees))
	if t.Leverage != nil {
		b.WriteString(fmt.Sprintf(":LEVERAGE: %gx\n", *t.Leverage))
		b.WriteString(fmt.Sprintf(":COLLATERAL: %s\n", orgNum(t.Collateral, 2)))
		b.WriteString(fmt.Sprintf(":LIQUIDATION: %s\n", orgNum(t.LiquidationPrice, 5)))
	}
	if t.TakeProfit != nil || t.StopLoss != nil {
		b.WriteString(fmt.Sprintf(":TAKE_PROFIT: %s\n", orgNum(t.TakeProfit, 5)))
		b.WriteString(fmt.Sprintf(":STOP_LOSS: %s\n", orgNum(t.StopLoss, 5)))
		b.WriteString(fmt.Sprintf(":RR: %s\n", orgNum(t.RiskReward, 2)))
	}
	if t.PnL != nil {
		b.WriteString(fmt.Sprintf(":REALIZED_PL: %.2f\n", *t.PnL))
		if t.PnLPct != nil {
			b.WriteString(fmt.Sprintf(":REALIZED_PCT: %.2f\n", 100*(*t.PnLPct)))
		}
	}
	b.WriteString(":END:\n")
	b.WriteString("\n")
	b.WriteString("*** Thesis\n- \n\n")
	b.WriteString("*** Execution\n- \n\n")
	b.WriteString("*** Review\n- \n")

	return b.String()
}

// FormatTradesOrg renders multiple trades separated by blank lines.
func FormatTradesOrg(trades []TradeRecord) string {
	var b strings.Builder
	for i, t := range trades {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(FormatTradeOrg(t))
	}
	return b.String()
}

// shortID keeps the tail of an id. ULIDs minted close together share their
// time prefix, so the random tail is what tells them apart.
func shortID(full string) string {
	if len(full) <= 8 {
		return full
	}
	return full[len(full)-8:]
}

func orgNum(p *float64, prec int) string {
	if p == nil {
		return "-"
	}
	return fmt.Sprintf("%.*f", prec, *p)
}
