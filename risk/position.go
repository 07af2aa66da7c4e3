package risk

import (
	"math"

	"github.com/rustyeddy/perpjournal/ledger"
)

// Protocol labels every row produced here.
const Protocol = "Hyperliquid"

// ToTradeRow builds the display record for one merged trade. Live leverage,
// margin, liquidation price and resting exits are joined only when the trade
// still backs the open position; PnL only when it closed something.
func ToTradeRow(trade ledger.MergedTrade, live map[string]ledger.LiveState, orders map[string][]ledger.OpenOrder) ledger.TradeRow {
	row := ledger.TradeRow{
		Time:      trade.Time,
		Coin:      trade.Coin,
		Protocol:  Protocol,
		Action:    trade.Action.String(),
		Direction: trade.Side.String(),
		Fees:      trade.TradeFee - trade.FundingAllocated,
	}

	if isFinite(trade.Price) {
		row.Price = ptr(trade.Price)
	}
	if isFinite(trade.Size) {
		row.Size = ptr(trade.Size)
	}
	if row.Price != nil && row.Size != nil {
		row.Notional = ptr(trade.Price * trade.Size)
	}

	if trade.ContributesToOpenPosition {
		state := live[trade.Coin]
		row.Collateral = Collateral(trade.PositionStartNotional, state.Leverage, state.MarginUsed)
		if lev, ok := value(state.Leverage); ok {
			row.Leverage = ptr(lev)
		}
		if liq, ok := value(state.LiquidationPrice); ok {
			row.LiquidationPrice = ptr(liq)
		}

		lv := MatchLevels(trade.Side, trade.Price, orders[trade.Coin])
		row.TakeProfit, row.StopLoss = lv.TakeProfit, lv.StopLoss
		if rr, ok := RewardRatio(trade.Side, trade.Price, lv.TakeProfit, lv.StopLoss); ok {
			row.RiskReward = ptr(rr)
		}
	}

	if trade.IsClosing {
		pnl := trade.RealizedPnl - row.Fees
		row.PnL = ptr(pnl)
		if trade.RealizedBasis > 0 && !math.IsNaN(pnl) {
			row.PnLPct = ptr(pnl / trade.RealizedBasis)
		}
	}
	return row
}

// ToTradeRows maps every merged trade.
func ToTradeRows(trades []ledger.MergedTrade, live map[string]ledger.LiveState, orders map[string][]ledger.OpenOrder) []ledger.TradeRow {
	rows := make([]ledger.TradeRow, 0, len(trades))
	for _, t := range trades {
		rows = append(rows, ToTradeRow(t, live, orders))
	}
	return rows
}
