package sqlite

import (
	"context"

	"github.com/xraph/grove/migrate"
)

// Migrations is the grove migration group for the Vault store (SQLite).
var Migrations = migrate.NewGroup("vault")

func init() {
	Migrations.MustRegister(
		&migrate.Migration{
			Name:    "create_vault_states",
			Version: "20240101000001",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS vault_states (
    name            TEXT PRIMARY KEY,
    id              TEXT NOT NULL,
    asset_symbol    TEXT NOT NULL,
    asset_decimals  INTEGER NOT NULL DEFAULT 0,
    rate            INTEGER NOT NULL CHECK (rate > 0),
    fee_bps         INTEGER NOT NULL CHECK (fee_bps > 0),
    total_deposits  INTEGER NOT NULL DEFAULT 0 CHECK (total_deposits >= 0),
    total_shares    INTEGER NOT NULL DEFAULT 0 CHECK (total_shares >= 0),
    operator_shares INTEGER NOT NULL DEFAULT 0 CHECK (operator_shares >= 0),
    paused          INTEGER NOT NULL DEFAULT 0,
    version         INTEGER NOT NULL DEFAULT 0,
    created_at      TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at      TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_vault_states_id ON vault_states (id);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS vault_states`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_vault_positions",
			Version: "20240101000002",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS vault_positions (
    vault      TEXT NOT NULL,
    account    TEXT NOT NULL,
    balance    INTEGER NOT NULL DEFAULT 0 CHECK (balance >= 0),
    shares     INTEGER NOT NULL DEFAULT 0 CHECK (shares >= 0),
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    PRIMARY KEY (vault, account)
);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS vault_positions`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_vault_events",
			Version: "20240101000003",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS vault_events (
    id         TEXT PRIMARY KEY,
    vault      TEXT NOT NULL,
    seq        INTEGER NOT NULL,
    kind       TEXT NOT NULL,
    actor      TEXT NOT NULL DEFAULT '',
    amount     INTEGER NOT NULL DEFAULT 0,
    fee        INTEGER NOT NULL DEFAULT 0,
    net        INTEGER NOT NULL DEFAULT 0,
    shares     INTEGER NOT NULL DEFAULT 0,
    fee_shares INTEGER NOT NULL DEFAULT 0,
    payout     INTEGER NOT NULL DEFAULT 0,
    rate       INTEGER NOT NULL DEFAULT 0,
    fee_bps    INTEGER NOT NULL DEFAULT 0,
    previous   INTEGER NOT NULL DEFAULT 0,
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_vault_events_seq ON vault_events (vault, seq);
CREATE INDEX IF NOT EXISTS idx_vault_events_kind ON vault_events (vault, kind);
CREATE INDEX IF NOT EXISTS idx_vault_events_actor ON vault_events (vault, actor);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS vault_events`)
				return err
			},
		},
	)
}
