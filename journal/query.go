package journal

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

const tradeColumns = `trade_id, run_id, asset, time, coin, protocol, action, direction,
	price, size, notional, collateral, leverage, fees,
	take_profit, stop_loss, liquidation_price, risk_reward, pnl, pnl_pct`

type scanner interface {
	Scan(dest ...any) error
}

func scanTrade(s scanner) (TradeRecord, error) {
	var (
		rec                                         TradeRecord
		price, size, notional, collateral, leverage sql.NullFloat64
		tp, sl, liq, rr, pnl, pnlPct                sql.NullFloat64
	)
	err := s.Scan(
		&rec.TradeID, &rec.RunID, &rec.Asset, &rec.Time, &rec.Coin, &rec.Protocol, &rec.Action, &rec.Direction,
		&price, &size, &notional, &collateral, &leverage, &rec.Fees,
		&tp, &sl, &liq, &rr, &pnl, &pnlPct,
	)
	if err != nil {
		return TradeRecord{}, err
	}
	rec.Price, rec.Size, rec.Notional = fromNull(price), fromNull(size), fromNull(notional)
	rec.Collateral, rec.Leverage = fromNull(collateral), fromNull(leverage)
	rec.TakeProfit, rec.StopLoss = fromNull(tp), fromNull(sl)
	rec.LiquidationPrice, rec.RiskReward = fromNull(liq), fromNull(rr)
	rec.PnL, rec.PnLPct = fromNull(pnl), fromNull(pnlPct)
	return rec, nil
}

func (j *SQLite) queryTrades(query string, args ...any) ([]TradeRecord, error) {
	rows, err := j.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []TradeRecord
	for rows.Next() {
		rec, err := scanTrade(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// GetTrade returns a single trade record by ID.
func (j *SQLite) GetTrade(tradeID string) (TradeRecord, error) {
	row := j.db.QueryRow(`SELECT `+tradeColumns+` FROM trades WHERE trade_id = ?`, tradeID)
	rec, err := scanTrade(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return TradeRecord{}, fmt.Errorf("trade %q not found", tradeID)
		}
		return TradeRecord{}, err
	}
	return rec, nil
}

// ListTradesByRun returns a run's rows, newest first.
func (j *SQLite) ListTradesByRun(runID string) ([]TradeRecord, error) {
	return j.queryTrades(`
		SELECT `+tradeColumns+`
		FROM trades
		WHERE run_id = ?
		ORDER BY time DESC, trade_id DESC`, runID)
}

// ListTradesByAsset returns the newest rows of one asset table across all
// runs. limit <= 0 means no limit.
func (j *SQLite) ListTradesByAsset(asset string, limit int) ([]TradeRecord, error) {
	if limit <= 0 {
		limit = -1
	}
	return j.queryTrades(`
		SELECT `+tradeColumns+`
		FROM trades
		WHERE asset = ?
		ORDER BY time DESC, trade_id DESC
		LIMIT ?`, asset, limit)
}

// ListTradesBetween returns rows of one run whose time is within [start, end).
func (j *SQLite) ListTradesBetween(runID string, start, end time.Time) ([]TradeRecord, error) {
	return j.queryTrades(`
		SELECT `+tradeColumns+`
		FROM trades
		WHERE run_id = ? AND time >= ? AND time < ?
		ORDER BY time ASC`, runID, start.UTC(), end.UTC())
}

// LatestRunID returns the most recently created run.
func (j *SQLite) LatestRunID() (string, error) {
	var runID string
	err := j.db.QueryRow(`SELECT run_id FROM runs ORDER BY created DESC, run_id DESC LIMIT 1`).Scan(&runID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", fmt.Errorf("no runs recorded")
		}
		return "", err
	}
	return runID, nil
}

// ListRuns returns runs newest first. limit <= 0 means no limit.
func (j *SQLite) ListRuns(limit int) ([]Run, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := j.db.Query(`
		SELECT run_id, created, user, window_start, window_end, assets,
			fills, row_count, closes, wins, losses, net_pnl, fees, funding
		FROM runs
		ORDER BY created DESC, run_id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		var (
			r      Run
			assets string
		)
		if err := rows.Scan(
			&r.RunID, &r.Created, &r.User, &r.Start, &r.End, &assets,
			&r.Fills, &r.Rows, &r.Closes, &r.Wins, &r.Losses, &r.NetPnL, &r.Fees, &r.Funding,
		); err != nil {
			return nil, err
		}
		if assets != "" {
			r.Assets = strings.Split(assets, ",")
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// LatestSnapshot returns the newest account snapshot.
func (j *SQLite) LatestSnapshot() (AccountSnapshot, error) {
	var (
		s                 AccountSnapshot
		value, wd, margin sql.NullFloat64
	)
	err := j.db.QueryRow(`
		SELECT run_id, time, account_value, withdrawable, margin_used,
			trade_fees, perp_fees, spot_fees, funding_net, funding_paid, funding_received,
			fills, funding_events
		FROM snapshots
		ORDER BY time DESC
		LIMIT 1`).Scan(
		&s.RunID, &s.Time, &value, &wd, &margin,
		&s.TradeFees, &s.PerpFees, &s.SpotFees, &s.FundingNet, &s.FundingPaid, &s.FundingReceived,
		&s.Fills, &s.FundingEvents,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return AccountSnapshot{}, fmt.Errorf("no snapshots recorded")
		}
		return AccountSnapshot{}, err
	}
	s.AccountValue, s.Withdrawable, s.MarginUsed = fromNull(value), fromNull(wd), fromNull(margin)
	return s, nil
}
