package vault

import (
	"log/slog"
	"time"

	"github.com/xraph/vault/auth"
	"github.com/xraph/vault/plugin"
)

// Option configures a Vault instance.
type Option func(*Vault)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(v *Vault) {
		v.logger = logger
		v.plugins.WithLogger(logger)
	}
}

// WithPlugin registers a plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(v *Vault) {
		_ = v.plugins.Register(p) //nolint:errcheck // best-effort plugin registration during init
	}
}

// WithAuthorizer replaces the default single-owner authorizer built from
// Config.Operator.
func WithAuthorizer(a auth.Authorizer) Option {
	return func(v *Vault) {
		v.auth = a
	}
}

// WithStrictBalances makes withdrawals fail with ErrBalanceUnderflow when
// the payout exceeds the caller's recorded balance.
func WithStrictBalances(strict bool) Option {
	return func(v *Vault) {
		v.config.StrictBalances = strict
	}
}

// WithMaxFeeBps caps UpdateFee. Zero removes the cap.
func WithMaxFeeBps(bps int64) Option {
	return func(v *Vault) {
		v.config.MaxFeeBps = bps
	}
}

// WithClock sets the time source used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(v *Vault) {
		if now != nil {
			v.clock = now
		}
	}
}

// WithoutMigrate skips store migration in Start. The schema must already
// exist.
func WithoutMigrate() Option {
	return func(v *Vault) {
		v.skipMigrate = true
	}
}
