package journal

import (
	"time"

	"github.com/rustyeddy/perpjournal/ledger"
	"github.com/rustyeddy/perpjournal/pkg/id"
)

// TradeRecord is one persisted trade row. Nil pointers are stored as NULL.
type TradeRecord struct {
	TradeID string
	RunID   string
	Asset   string // asset table the row was grouped under

	Time      time.Time
	Coin      string
	Protocol  string
	Action    string
	Direction string

	Price    *float64
	Size     *float64
	Notional *float64

	Collateral *float64
	Leverage   *float64
	Fees       float64

	TakeProfit       *float64
	StopLoss         *float64
	LiquidationPrice *float64
	RiskReward       *float64

	PnL    *float64
	PnLPct *float64
}

// NewTradeRecord stamps a row for the given run. The trade id sorts by the
// row's own time.
func NewTradeRecord(runID, asset string, row ledger.TradeRow) TradeRecord {
	ts := time.UnixMilli(row.Time).UTC()
	return TradeRecord{
		TradeID:          id.At(ts),
		RunID:            runID,
		Asset:            asset,
		Time:             ts,
		Coin:             row.Coin,
		Protocol:         row.Protocol,
		Action:           row.Action,
		Direction:        row.Direction,
		Price:            row.Price,
		Size:             row.Size,
		Notional:         row.Notional,
		Collateral:       row.Collateral,
		Leverage:         row.Leverage,
		Fees:             row.Fees,
		TakeProfit:       row.TakeProfit,
		StopLoss:         row.StopLoss,
		LiquidationPrice: row.LiquidationPrice,
		RiskReward:       row.RiskReward,
		PnL:              row.PnL,
		PnLPct:           row.PnLPct,
	}
}

// Row converts the record back into a display row.
func (t TradeRecord) Row() ledger.TradeRow {
	return ledger.TradeRow{
		Time:             t.Time.UnixMilli(),
		Coin:             t.Coin,
		Protocol:         t.Protocol,
		Action:           t.Action,
		Direction:        t.Direction,
		Price:            t.Price,
		Size:             t.Size,
		Notional:         t.Notional,
		Collateral:       t.Collateral,
		Leverage:         t.Leverage,
		Fees:             t.Fees,
		TakeProfit:       t.TakeProfit,
		StopLoss:         t.StopLoss,
		LiquidationPrice: t.LiquidationPrice,
		RiskReward:       t.RiskReward,
		PnL:              t.PnL,
		PnLPct:           t.PnLPct,
	}
}

// AccountSnapshot is the account summary taken at the end of a run.
type AccountSnapshot struct {
	RunID string
	Time  time.Time

	AccountValue *float64
	Withdrawable *float64
	MarginUsed   *float64

	TradeFees float64 // perp fees, plus spot when configured
	PerpFees  float64
	SpotFees  float64

	FundingNet      float64
	FundingPaid     float64
	FundingReceived float64

	Fills         int
	FundingEvents int
}

type Journal interface {
	RecordRun(Run) error
	RecordTrade(TradeRecord) error
	RecordSnapshot(AccountSnapshot) error
	Close() error
}

// Nop discards everything.
type Nop struct{}

func (Nop) RecordRun(Run) error                  { return nil }
func (Nop) RecordTrade(TradeRecord) error        { return nil }
func (Nop) RecordSnapshot(AccountSnapshot) error { return nil }
func (Nop) Close() error                         { return nil }
