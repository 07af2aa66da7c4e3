package journal

const Schema = `
CREATE TABLE IF NOT EXISTS runs (
	run_id TEXT PRIMARY KEY,
	created DATETIME NOT NULL,
	user TEXT NOT NULL,
	window_start DATETIME NOT NULL,
	window_end DATETIME NOT NULL,
	assets TEXT NOT NULL,
	fills INTEGER NOT NULL,
	row_count INTEGER NOT NULL,
	closes INTEGER NOT NULL,
	wins INTEGER NOT NULL,
	losses INTEGER NOT NULL,
	net_pnl REAL NOT NULL,
	fees REAL NOT NULL,
	funding REAL NOT NULL
);

CREATE TABLE IF NOT EXISTS trades (
	trade_id TEXT PRIMARY KEY,
	run_id TEXT NOT NULL,
	asset TEXT NOT NULL,
	time DATETIME NOT NULL,
	coin TEXT NOT NULL,
	protocol TEXT NOT NULL,
	action TEXT NOT NULL,
	direction TEXT NOT NULL,
	price REAL,
	size REAL,
	notional REAL,
	collateral REAL,
	leverage REAL,
	fees REAL NOT NULL,
	take_profit REAL,
	stop_loss REAL,
	liquidation_price REAL,
	risk_reward REAL,
	pnl REAL,
	pnl_pct REAL
);

CREATE INDEX IF NOT EXISTS idx_trades_run ON trades(run_id);
CREATE INDEX IF NOT EXISTS idx_trades_asset_time ON trades(asset, time);

CREATE TABLE IF NOT EXISTS snapshots (
	run_id TEXT NOT NULL,
	time DATETIME NOT NULL,
	account_value REAL,
	withdrawable REAL,
	margin_used REAL,
	trade_fees REAL NOT NULL,
	perp_fees REAL NOT NULL,
	spot_fees REAL NOT NULL,
	funding_net REAL NOT NULL,
	funding_paid REAL NOT NULL,
	funding_received REAL NOT NULL,
	fills INTEGER NOT NULL,
	funding_events INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_snapshots_time ON snapshots(time);
`
