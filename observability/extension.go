// Package observability provides a metrics extension for Vault that records
// operation counts and volumes through a MetricFactory.
package observability

import (
	"context"
	"errors"

	"github.com/xraph/vault"
	"github.com/xraph/vault/event"
	"github.com/xraph/vault/plugin"
)

// Ensure MetricsExtension implements required interfaces.
var (
	_ plugin.Plugin             = (*MetricsExtension)(nil)
	_ plugin.OnInit             = (*MetricsExtension)(nil)
	_ plugin.OnDeposit          = (*MetricsExtension)(nil)
	_ plugin.OnWithdraw         = (*MetricsExtension)(nil)
	_ plugin.OnOperatorWithdraw = (*MetricsExtension)(nil)
	_ plugin.OnYieldAccumulated = (*MetricsExtension)(nil)
	_ plugin.OnRateUpdated      = (*MetricsExtension)(nil)
	_ plugin.OnFeeUpdated       = (*MetricsExtension)(nil)
	_ plugin.OnPaused           = (*MetricsExtension)(nil)
	_ plugin.OnUnpaused         = (*MetricsExtension)(nil)
	_ plugin.OnOperationFailed  = (*MetricsExtension)(nil)
)

// Counter interface for metric counters.
type Counter interface {
	Inc()
	Add(float64)
}

// Histogram interface for metric histograms.
type Histogram interface {
	Observe(float64)
}

// MetricFactory creates metrics.
type MetricFactory interface {
	Counter(name string) Counter
	Histogram(name string) Histogram
}

// MetricsExtension records vault operation metrics.
// Register it as a Vault plugin to automatically track custody metrics.
type MetricsExtension struct {
	factory MetricFactory

	// Custody metrics
	Deposits            Counter
	DepositVolume       Counter
	DepositSize         Histogram
	FeesCollected       Counter
	SharesMinted        Counter
	Withdrawals         Counter
	WithdrawVolume      Counter
	SharesBurned        Counter
	OperatorWithdrawals Counter
	OperatorPayouts     Counter

	// Yield metrics
	YieldAccumulations Counter
	YieldVolume        Counter
	Rate               Histogram

	// Admin metrics
	RateUpdates Counter
	FeeUpdates  Counter
	FeeBps      Histogram
	Pauses      Counter
	Unpauses    Counter

	// Error metrics
	OperationFailures Counter
	TransferFailures  Counter
	Unauthorized      Counter
	StoreConflicts    Counter
}

// NewMetricsExtension creates a MetricsExtension with the provided MetricFactory.
// Use app.Metrics() in forge extensions.
func NewMetricsExtension(factory MetricFactory) *MetricsExtension {
	return &MetricsExtension{
		factory: factory,

		// Custody metrics
		Deposits:            factory.Counter("vault.deposit.count"),
		DepositVolume:       factory.Counter("vault.deposit.volume"),
		DepositSize:         factory.Histogram("vault.deposit.size"),
		FeesCollected:       factory.Counter("vault.deposit.fees"),
		SharesMinted:        factory.Counter("vault.shares.minted"),
		Withdrawals:         factory.Counter("vault.withdraw.count"),
		WithdrawVolume:      factory.Counter("vault.withdraw.volume"),
		SharesBurned:        factory.Counter("vault.shares.burned"),
		OperatorWithdrawals: factory.Counter("vault.operator_withdraw.count"),
		OperatorPayouts:     factory.Counter("vault.operator_withdraw.volume"),

		// Yield metrics
		YieldAccumulations: factory.Counter("vault.yield.count"),
		YieldVolume:        factory.Counter("vault.yield.volume"),
		Rate:               factory.Histogram("vault.rate"),

		// Admin metrics
		RateUpdates: factory.Counter("vault.rate.updates"),
		FeeUpdates:  factory.Counter("vault.fee.updates"),
		FeeBps:      factory.Histogram("vault.fee.bps"),
		Pauses:      factory.Counter("vault.paused"),
		Unpauses:    factory.Counter("vault.unpaused"),

		// Error metrics
		OperationFailures: factory.Counter("vault.operation.failures"),
		TransferFailures:  factory.Counter("vault.transfer.failures"),
		Unauthorized:      factory.Counter("vault.unauthorized"),
		StoreConflicts:    factory.Counter("vault.store.conflicts"),
	}
}

// Name implements plugin.Plugin.
func (m *MetricsExtension) Name() string { return "observability-metrics" }

// OnInit implements plugin.OnInit.
func (m *MetricsExtension) OnInit(_ context.Context, _ interface{}) error {
	// No initialization needed
	return nil
}

// ──────────────────────────────────────────────────
// Custody hooks
// ──────────────────────────────────────────────────

// OnDeposit implements plugin.OnDeposit.
func (m *MetricsExtension) OnDeposit(_ context.Context, evt *event.Event) error {
	m.Deposits.Inc()
	m.DepositVolume.Add(float64(evt.Amount))
	m.DepositSize.Observe(float64(evt.Amount))
	m.FeesCollected.Add(float64(evt.Fee))
	m.SharesMinted.Add(float64(evt.Shares + evt.FeeShares))
	return nil
}

// OnWithdraw implements plugin.OnWithdraw.
func (m *MetricsExtension) OnWithdraw(_ context.Context, evt *event.Event) error {
	m.Withdrawals.Inc()
	m.WithdrawVolume.Add(float64(evt.Payout))
	m.SharesBurned.Add(float64(evt.Shares))
	return nil
}

// OnOperatorWithdraw implements plugin.OnOperatorWithdraw.
func (m *MetricsExtension) OnOperatorWithdraw(_ context.Context, evt *event.Event) error {
	m.OperatorWithdrawals.Inc()
	m.OperatorPayouts.Add(float64(evt.Payout))
	m.SharesBurned.Add(float64(evt.Shares))
	return nil
}

// ──────────────────────────────────────────────────
// Yield hooks
// ──────────────────────────────────────────────────

// OnYieldAccumulated implements plugin.OnYieldAccumulated.
func (m *MetricsExtension) OnYieldAccumulated(_ context.Context, evt *event.Event) error {
	m.YieldAccumulations.Inc()
	m.YieldVolume.Add(float64(evt.Amount))
	m.Rate.Observe(float64(evt.Rate))
	return nil
}

// ──────────────────────────────────────────────────
// Admin hooks
// ──────────────────────────────────────────────────

// OnRateUpdated implements plugin.OnRateUpdated.
func (m *MetricsExtension) OnRateUpdated(_ context.Context, evt *event.Event) error {
	m.RateUpdates.Inc()
	m.Rate.Observe(float64(evt.Rate))
	return nil
}

// OnFeeUpdated implements plugin.OnFeeUpdated.
func (m *MetricsExtension) OnFeeUpdated(_ context.Context, evt *event.Event) error {
	m.FeeUpdates.Inc()
	m.FeeBps.Observe(float64(evt.FeeBps))
	return nil
}

// OnPaused implements plugin.OnPaused.
func (m *MetricsExtension) OnPaused(_ context.Context, _ *event.Event) error {
	m.Pauses.Inc()
	return nil
}

// OnUnpaused implements plugin.OnUnpaused.
func (m *MetricsExtension) OnUnpaused(_ context.Context, _ *event.Event) error {
	m.Unpauses.Inc()
	return nil
}

// ──────────────────────────────────────────────────
// Failure hooks
// ──────────────────────────────────────────────────

// OnOperationFailed implements plugin.OnOperationFailed.
func (m *MetricsExtension) OnOperationFailed(_ context.Context, _ event.Kind, _ string, err error) error {
	m.OperationFailures.Inc()
	switch {
	case errors.Is(err, vault.ErrTransferFailed), errors.Is(err, vault.ErrRewardsAccumulationFailed):
		m.TransferFailures.Inc()
	case errors.Is(err, vault.ErrUnauthorized):
		m.Unauthorized.Inc()
	case errors.Is(err, vault.ErrConflict):
		m.StoreConflicts.Inc()
	}
	return nil
}
