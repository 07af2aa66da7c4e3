package journal

import (
	"database/sql"
	"math"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

type SQLite struct {
	db *sql.DB
}

func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(Schema); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &SQLite{db: db}, nil
}

func (j *SQLite) RecordRun(r Run) error {
	_, err := j.db.Exec(`
		INSERT INTO runs
		(run_id, created, user, window_start, window_end, assets, fills, row_count, closes, wins, losses, net_pnl, fees, funding)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.RunID, r.Created.UTC(), r.User, r.Start.UTC(), r.End.UTC(), strings.Join(r.Assets, ","),
		r.Fills, r.Rows, r.Closes, r.Wins, r.Losses, r.NetPnL, r.Fees, r.Funding,
	)
	return err
}

func (j *SQLite) RecordTrade(t TradeRecord) error {
	_, err := j.db.Exec(`
		INSERT INTO trades
		(trade_id, run_id, asset, time, coin, protocol, action, direction,
		 price, size, notional, collateral, leverage, fees,
		 take_profit, stop_loss, liquidation_price, risk_reward, pnl, pnl_pct)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.TradeID, t.RunID, t.Asset, t.Time.UTC(), t.Coin, t.Protocol, t.Action, t.Direction,
		nullable(t.Price), nullable(t.Size), nullable(t.Notional), nullable(t.Collateral), nullable(t.Leverage), t.Fees,
		nullable(t.TakeProfit), nullable(t.StopLoss), nullable(t.LiquidationPrice), nullable(t.RiskReward),
		nullable(t.PnL), nullable(t.PnLPct),
	)
	return err
}

func (j *SQLite) RecordSnapshot(s AccountSnapshot) error {
	_, err := j.db.Exec(`
		INSERT INTO snapshots
		(run_id, time, account_value, withdrawable, margin_used,
		 trade_fees, perp_fees, spot_fees, funding_net, funding_paid, funding_received,
		 fills, funding_events)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.RunID, s.Time.UTC(), nullable(s.AccountValue), nullable(s.Withdrawable), nullable(s.MarginUsed),
		s.TradeFees, s.PerpFees, s.SpotFees, s.FundingNet, s.FundingPaid, s.FundingReceived,
		s.Fills, s.FundingEvents,
	)
	return err
}

func (j *SQLite) Close() error {
	return j.db.Close()
}

func nullable(p *float64) sql.NullFloat64 {
	if p == nil || math.IsNaN(*p) || math.IsInf(*p, 0) {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *p, Valid: true}
}

func fromNull(n sql.NullFloat64) *float64 {
	if !n.Valid {
		return nil
	}
	v := n.Float64
	return &v
}
