// Package audithook bridges Vault operation events to an audit trail backend.
//
// It defines a local Recorder interface so the package does not import an
// audit backend directly. Callers inject a RecorderFunc adapter that bridges
// to their backend at wiring time.
package audithook

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/xraph/vault"
	"github.com/xraph/vault/event"
	"github.com/xraph/vault/plugin"
)

// Compile-time interface checks.
var (
	_ plugin.Plugin             = (*Extension)(nil)
	_ plugin.OnInit             = (*Extension)(nil)
	_ plugin.OnShutdown         = (*Extension)(nil)
	_ plugin.OnDeposit          = (*Extension)(nil)
	_ plugin.OnWithdraw         = (*Extension)(nil)
	_ plugin.OnOperatorWithdraw = (*Extension)(nil)
	_ plugin.OnYieldAccumulated = (*Extension)(nil)
	_ plugin.OnRateUpdated      = (*Extension)(nil)
	_ plugin.OnFeeUpdated       = (*Extension)(nil)
	_ plugin.OnPaused           = (*Extension)(nil)
	_ plugin.OnUnpaused         = (*Extension)(nil)
	_ plugin.OnOperationFailed  = (*Extension)(nil)
)

// Recorder is the interface that audit backends must implement.
type Recorder interface {
	Record(ctx context.Context, event *AuditEvent) error
}

// AuditEvent is a local representation of an audit event.
type AuditEvent struct {
	Action     string         `json:"action"`
	Resource   string         `json:"resource"`
	Category   string         `json:"category"`
	ResourceID string         `json:"resource_id,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	Outcome    string         `json:"outcome"`
	Severity   string         `json:"severity"`
	Reason     string         `json:"reason,omitempty"`
}

// RecorderFunc is an adapter to use a plain function as a Recorder.
type RecorderFunc func(ctx context.Context, event *AuditEvent) error

// Record implements Recorder.
func (f RecorderFunc) Record(ctx context.Context, event *AuditEvent) error {
	return f(ctx, event)
}

// Extension bridges Vault operation events to an audit trail backend.
type Extension struct {
	recorder Recorder
	enabled  map[string]bool // nil = all enabled
	logger   *slog.Logger
}

// New creates an Extension that emits audit events through the provided Recorder.
func New(r Recorder, opts ...Option) *Extension {
	e := &Extension{
		recorder: r,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name implements plugin.Plugin.
func (e *Extension) Name() string { return "audit-hook" }

// ──────────────────────────────────────────────────
// Lifecycle hooks
// ──────────────────────────────────────────────────

// OnInit implements plugin.OnInit.
func (e *Extension) OnInit(ctx context.Context, v interface{}) error {
	name := ""
	if vv, ok := v.(*vault.Vault); ok {
		name = vv.Config().Name
	}
	return e.record(ctx, ActionVaultStarted, SeverityInfo, OutcomeSuccess,
		ResourceVault, name, CategoryLifecycle, nil,
	)
}

// OnShutdown implements plugin.OnShutdown.
func (e *Extension) OnShutdown(ctx context.Context) error {
	return e.record(ctx, ActionVaultStopped, SeverityInfo, OutcomeSuccess,
		ResourceVault, "", CategoryLifecycle, nil,
	)
}

// ──────────────────────────────────────────────────
// Custody hooks
// ──────────────────────────────────────────────────

// OnDeposit implements plugin.OnDeposit.
func (e *Extension) OnDeposit(ctx context.Context, evt *event.Event) error {
	return e.record(ctx, ActionDeposit, SeverityInfo, OutcomeSuccess,
		ResourcePosition, evt.Actor, CategoryCustody, nil,
		"event_id", evt.ID.String(),
		"vault", evt.Vault,
		"amount", evt.Amount,
		"fee", evt.Fee,
		"net", evt.Net,
		"shares", evt.Shares,
		"fee_shares", evt.FeeShares,
		"rate", evt.Rate,
	)
}

// OnWithdraw implements plugin.OnWithdraw.
func (e *Extension) OnWithdraw(ctx context.Context, evt *event.Event) error {
	return e.record(ctx, ActionWithdraw, SeverityInfo, OutcomeSuccess,
		ResourcePosition, evt.Actor, CategoryCustody, nil,
		"event_id", evt.ID.String(),
		"vault", evt.Vault,
		"shares", evt.Shares,
		"payout", evt.Payout,
		"rate", evt.Rate,
	)
}

// OnOperatorWithdraw implements plugin.OnOperatorWithdraw.
func (e *Extension) OnOperatorWithdraw(ctx context.Context, evt *event.Event) error {
	return e.record(ctx, ActionOperatorWithdraw, SeverityWarning, OutcomeSuccess,
		ResourceVault, evt.Vault, CategoryCustody, nil,
		"event_id", evt.ID.String(),
		"operator", evt.Actor,
		"shares", evt.Shares,
		"payout", evt.Payout,
	)
}

// ──────────────────────────────────────────────────
// Yield hooks
// ──────────────────────────────────────────────────

// OnYieldAccumulated implements plugin.OnYieldAccumulated.
func (e *Extension) OnYieldAccumulated(ctx context.Context, evt *event.Event) error {
	return e.record(ctx, ActionYieldAccumulated, SeverityInfo, OutcomeSuccess,
		ResourceRate, evt.Vault, CategoryYield, nil,
		"event_id", evt.ID.String(),
		"operator", evt.Actor,
		"amount", evt.Amount,
		"previous_rate", evt.Previous,
		"rate", evt.Rate,
	)
}

// ──────────────────────────────────────────────────
// Admin hooks
// ──────────────────────────────────────────────────

// OnRateUpdated implements plugin.OnRateUpdated.
func (e *Extension) OnRateUpdated(ctx context.Context, evt *event.Event) error {
	return e.record(ctx, ActionRateUpdated, SeverityWarning, OutcomeSuccess,
		ResourceRate, evt.Vault, CategoryAdmin, nil,
		"operator", evt.Actor,
		"previous_rate", evt.Previous,
		"rate", evt.Rate,
	)
}

// OnFeeUpdated implements plugin.OnFeeUpdated.
func (e *Extension) OnFeeUpdated(ctx context.Context, evt *event.Event) error {
	return e.record(ctx, ActionFeeUpdated, SeverityWarning, OutcomeSuccess,
		ResourceFee, evt.Vault, CategoryAdmin, nil,
		"operator", evt.Actor,
		"previous_fee_bps", evt.Previous,
		"fee_bps", evt.FeeBps,
	)
}

// OnPaused implements plugin.OnPaused.
func (e *Extension) OnPaused(ctx context.Context, evt *event.Event) error {
	return e.record(ctx, ActionPaused, SeverityWarning, OutcomeSuccess,
		ResourceVault, evt.Vault, CategoryAdmin, nil,
		"operator", evt.Actor,
	)
}

// OnUnpaused implements plugin.OnUnpaused.
func (e *Extension) OnUnpaused(ctx context.Context, evt *event.Event) error {
	return e.record(ctx, ActionUnpaused, SeverityInfo, OutcomeSuccess,
		ResourceVault, evt.Vault, CategoryAdmin, nil,
		"operator", evt.Actor,
	)
}

// ──────────────────────────────────────────────────
// Failure hooks
// ──────────────────────────────────────────────────

// OnOperationFailed implements plugin.OnOperationFailed.
func (e *Extension) OnOperationFailed(ctx context.Context, kind event.Kind, actor string, opErr error) error {
	return e.record(ctx, ActionOperationFailed, failureSeverity(opErr), OutcomeFailure,
		ResourceVault, actor, categoryFor(kind), opErr,
		"kind", string(kind),
		"actor", actor,
	)
}

// failureSeverity ranks a rejected operation. Store conflicts are critical;
// unauthorized callers and failed transfers are errors; the rest are
// caller mistakes.
func failureSeverity(err error) string {
	switch {
	case errors.Is(err, vault.ErrConflict), errors.Is(err, vault.ErrStoreClosed):
		return SeverityCritical
	case errors.Is(err, vault.ErrUnauthorized),
		errors.Is(err, vault.ErrTransferFailed),
		errors.Is(err, vault.ErrRewardsAccumulationFailed):
		return SeverityError
	default:
		return SeverityWarning
	}
}

func categoryFor(kind event.Kind) string {
	switch kind {
	case event.KindYieldAccumulated:
		return CategoryYield
	case event.KindDeposit, event.KindWithdraw, event.KindOperatorWithdraw:
		return CategoryCustody
	default:
		return CategoryAdmin
	}
}

// ──────────────────────────────────────────────────
// Internal helpers
// ──────────────────────────────────────────────────

// record builds and sends an audit event if the action is enabled.
func (e *Extension) record(
	ctx context.Context,
	action, severity, outcome string,
	resource, resourceID, category string,
	err error,
	kvPairs ...any,
) error {
	if e.enabled != nil && !e.enabled[action] {
		return nil
	}

	meta := make(map[string]any, len(kvPairs)/2+1)
	for i := 0; i+1 < len(kvPairs); i += 2 {
		key, ok := kvPairs[i].(string)
		if !ok {
			key = fmt.Sprintf("%v", kvPairs[i])
		}
		meta[key] = kvPairs[i+1]
	}

	var reason string
	if err != nil {
		reason = err.Error()
		meta["error"] = err.Error()
	}

	evt := &AuditEvent{
		Action:     action,
		Resource:   resource,
		Category:   category,
		ResourceID: resourceID,
		Metadata:   meta,
		Outcome:    outcome,
		Severity:   severity,
		Reason:     reason,
	}

	if recErr := e.recorder.Record(ctx, evt); recErr != nil {
		e.logger.Warn("audit_hook: failed to record audit event",
			"action", action,
			"resource_id", resourceID,
			"error", recErr,
		)
	}
	return nil
}
