// Package plugin provides an extensible plugin system for Vault.
// Plugins can hook into lifecycle and operation events to extend functionality.
package plugin

import (
	"context"

	"github.com/xraph/vault/event"
)

// Plugin is the base interface that all plugins must implement.
type Plugin interface {
	Name() string
}

// ──────────────────────────────────────────────────
// Lifecycle hooks
// ──────────────────────────────────────────────────

// OnInit is called once the vault has started.
type OnInit interface {
	Plugin
	OnInit(ctx context.Context, v interface{}) error
}

// OnShutdown is called when the vault is stopping.
type OnShutdown interface {
	Plugin
	OnShutdown(ctx context.Context) error
}

// ──────────────────────────────────────────────────
// Custody hooks
// ──────────────────────────────────────────────────

// OnDeposit is called after a deposit commits.
type OnDeposit interface {
	Plugin
	OnDeposit(ctx context.Context, evt *event.Event) error
}

// OnWithdraw is called after a withdrawal commits.
type OnWithdraw interface {
	Plugin
	OnWithdraw(ctx context.Context, evt *event.Event) error
}

// OnOperatorWithdraw is called after the operator redeems fee shares.
type OnOperatorWithdraw interface {
	Plugin
	OnOperatorWithdraw(ctx context.Context, evt *event.Event) error
}

// ──────────────────────────────────────────────────
// Yield hooks
// ──────────────────────────────────────────────────

// OnYieldAccumulated is called after external yield is folded into the rate.
type OnYieldAccumulated interface {
	Plugin
	OnYieldAccumulated(ctx context.Context, evt *event.Event) error
}

// ──────────────────────────────────────────────────
// Admin hooks
// ──────────────────────────────────────────────────

// OnRateUpdated is called after the operator sets a new rate.
type OnRateUpdated interface {
	Plugin
	OnRateUpdated(ctx context.Context, evt *event.Event) error
}

// OnFeeUpdated is called after the operator sets a new fee.
type OnFeeUpdated interface {
	Plugin
	OnFeeUpdated(ctx context.Context, evt *event.Event) error
}

// OnPaused is called after the vault is paused.
type OnPaused interface {
	Plugin
	OnPaused(ctx context.Context, evt *event.Event) error
}

// OnUnpaused is called after the vault is unpaused.
type OnUnpaused interface {
	Plugin
	OnUnpaused(ctx context.Context, evt *event.Event) error
}

// ──────────────────────────────────────────────────
// Failure hooks
// ──────────────────────────────────────────────────

// OnOperationFailed is called when an operation is rejected or rolled back.
type OnOperationFailed interface {
	Plugin
	OnOperationFailed(ctx context.Context, kind event.Kind, actor string, err error) error
}
