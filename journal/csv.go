package journal

import (
	"encoding/csv"
	"os"
	"strconv"
	"time"
)

var (
	tradeHeader = []string{
		"trade_id", "run_id", "asset", "time", "coin", "protocol", "action", "direction",
		"price", "size", "notional", "collateral", "leverage", "fees",
		"take_profit", "stop_loss", "liquidation_price", "risk_reward", "pnl", "pnl_pct",
	}
	snapshotHeader = []string{
		"run_id", "time", "account_value", "withdrawable", "margin_used",
		"trade_fees", "perp_fees", "spot_fees", "funding_net", "funding_paid", "funding_received",
		"fills", "funding_events",
	}
)

// CSVJournal appends trades and snapshots to two CSV files. Runs are not
// kept; every trade row carries its run id.
type CSVJournal struct {
	trades    *csv.Writer
	snapshots *csv.Writer
	tf, sf    *os.File
}

func NewCSV(tradesPath, snapshotsPath string) (*CSVJournal, error) {
	tf, err := os.Create(tradesPath)
	if err != nil {
		return nil, err
	}
	sf, err := os.Create(snapshotsPath)
	if err != nil {
		_ = tf.Close()
		return nil, err
	}

	tw := csv.NewWriter(tf)
	sw := csv.NewWriter(sf)

	if err := tw.Write(tradeHeader); err != nil {
		return nil, err
	}
	if err := sw.Write(snapshotHeader); err != nil {
		return nil, err
	}

	tw.Flush()
	if err := tw.Error(); err != nil {
		return nil, err
	}
	sw.Flush()
	if err := sw.Error(); err != nil {
		return nil, err
	}

	return &CSVJournal{tw, sw, tf, sf}, nil
}

func (j *CSVJournal) RecordRun(Run) error { return nil }

func (j *CSVJournal) RecordTrade(t TradeRecord) error {
	err := j.trades.Write([]string{
		t.TradeID,
		t.RunID,
		t.Asset,
		t.Time.UTC().Format(time.RFC3339Nano),
		t.Coin,
		t.Protocol,
		t.Action,
		t.Direction,
		fp(t.Price),
		fp(t.Size),
		fp(t.Notional),
		fp(t.Collateral),
		fp(t.Leverage),
		f(t.Fees),
		fp(t.TakeProfit),
		fp(t.StopLoss),
		fp(t.LiquidationPrice),
		fp(t.RiskReward),
		fp(t.PnL),
		fp(t.PnLPct),
	})
	if err != nil {
		return err
	}
	j.trades.Flush()
	return j.trades.Error()
}

func (j *CSVJournal) RecordSnapshot(s AccountSnapshot) error {
	err := j.snapshots.Write([]string{
		s.RunID,
		s.Time.UTC().Format(time.RFC3339),
		fp(s.AccountValue),
		fp(s.Withdrawable),
		fp(s.MarginUsed),
		f(s.TradeFees),
		f(s.PerpFees),
		f(s.SpotFees),
		f(s.FundingNet),
		f(s.FundingPaid),
		f(s.FundingReceived),
		strconv.Itoa(s.Fills),
		strconv.Itoa(s.FundingEvents),
	})
	if err != nil {
		return err
	}

	j.snapshots.Flush()
	return j.snapshots.Error()
}

func (j *CSVJournal) Close() error {
	j.trades.Flush()
	if err := j.trades.Error(); err != nil {
		return err
	}
	j.snapshots.Flush()
	if err := j.snapshots.Error(); err != nil {
		return err
	}

	if err := j.tf.Close(); err != nil {
		return err
	}
	if err := j.sf.Close(); err != nil {
		return err
	}
	return nil
}

func f(x float64) string {
	return strconv.FormatFloat(x, 'f', 6, 64)
}

// fp renders nil as an empty cell.
func fp(x *float64) string {
	if x == nil {
		return ""
	}
	return f(*x)
}
