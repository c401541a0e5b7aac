package scenario

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/xraph/vault"
	"github.com/xraph/vault/asset"
	"github.com/xraph/vault/event"
	"github.com/xraph/vault/plugin"
	"github.com/xraph/vault/position"
	"github.com/xraph/vault/state"
	"github.com/xraph/vault/store/memory"
)

// Trace is the record of one scenario run.
type Trace struct {
	Scenario  string               `json:"scenario"`
	Steps     []StepResult         `json:"steps"`
	State     *state.State         `json:"state"`
	Positions []*position.Position `json:"positions"`
	Balances  []asset.Balance      `json:"balances"`
	Audit     *vault.AuditReport   `json:"audit"`
}

// StepResult is the outcome of one step and the vault figures right after
// it.
type StepResult struct {
	Index  int          `json:"index"`
	Op     Op           `json:"op"`
	Caller string       `json:"caller"`
	Event  *event.Event `json:"event,omitempty"`
	Code   string       `json:"code,omitempty"`
	Error  string       `json:"error,omitempty"`

	Rate          int64 `json:"rate"`
	FeeBps        int64 `json:"fee_bps"`
	TotalDeposits int64 `json:"total_deposits"`
	TotalShares   int64 `json:"total_shares"`

	// Mismatches lists expectations the step did not meet.
	Mismatches []string `json:"mismatches,omitempty"`
}

// Passed reports whether the step met its expectations.
func (r StepResult) Passed() bool { return len(r.Mismatches) == 0 }

// Passed reports whether every step met its expectations and the final
// audit is healthy.
func (t *Trace) Passed() bool {
	for _, s := range t.Steps {
		if !s.Passed() {
			return false
		}
	}
	return t.Audit == nil || t.Audit.Healthy()
}

// Failures counts steps with unmet expectations.
func (t *Trace) Failures() int {
	n := 0
	for _, s := range t.Steps {
		if !s.Passed() {
			n++
		}
	}
	return n
}

// RunOption configures Run.
type RunOption func(*runner)

// WithLogger sets the logger handed to the vault. Runs are silent by
// default.
func WithLogger(logger *slog.Logger) RunOption {
	return func(r *runner) { r.logger = logger }
}

// WithPlugin registers a vault plugin for the run.
func WithPlugin(p plugin.Plugin) RunOption {
	return func(r *runner) { r.plugins = append(r.plugins, p) }
}

type runner struct {
	logger  *slog.Logger
	plugins []plugin.Plugin
	token   *asset.Ledger
	vault   *vault.Vault
}

// Run builds a fresh in-memory vault, funds the accounts and replays the
// steps. Operation failures are recorded in the trace, not returned; the
// error result is reserved for scenarios that cannot be set up.
func Run(ctx context.Context, s *Scenario, opts ...RunOption) (*Trace, error) {
	r := &runner{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	for _, opt := range opts {
		opt(r)
	}

	if err := r.setup(ctx, s); err != nil {
		return nil, err
	}
	defer r.vault.Stop() //nolint:errcheck // memory store close never fails

	trace := &Trace{Scenario: s.Name, Steps: make([]StepResult, 0, len(s.Steps))}
	for i, st := range s.Steps {
		res, err := r.step(ctx, i+1, st)
		if err != nil {
			return nil, err
		}
		trace.Steps = append(trace.Steps, res)
	}

	var err error
	if trace.State, err = r.vault.State(ctx); err != nil {
		return nil, err
	}
	if trace.Positions, err = r.vault.Positions(ctx, position.ListOpts{NonZero: true}); err != nil {
		return nil, err
	}
	if trace.Audit, err = r.vault.Audit(ctx); err != nil {
		return nil, err
	}
	trace.Balances = r.token.Balances()

	return trace, nil
}

func (r *runner) setup(ctx context.Context, s *Scenario) error {
	cfg := s.Vault
	if cfg.Name == "" {
		cfg.Name = vault.DefaultConfig().Name
	}

	r.token = asset.NewLedger("vault:" + cfg.Name)
	for _, a := range s.Accounts {
		if a.Balance > 0 {
			if err := r.token.Mint(a.Name, a.Balance); err != nil {
				return fmt.Errorf("scenario: fund %s: %w", a.Name, err)
			}
		}
		allowance := a.Balance
		if a.Allowance != nil {
			allowance = *a.Allowance
		}
		if err := r.token.Approve(a.Name, allowance); err != nil {
			return fmt.Errorf("scenario: approve %s: %w", a.Name, err)
		}
	}

	vopts := []vault.Option{vault.WithLogger(r.logger)}
	for _, p := range r.plugins {
		vopts = append(vopts, vault.WithPlugin(p))
	}

	v, err := vault.New(memory.New(), r.token, cfg, vopts...)
	if err != nil {
		return fmt.Errorf("scenario: %w", err)
	}
	if err := v.Start(ctx); err != nil {
		return fmt.Errorf("scenario: start vault: %w", err)
	}
	r.vault = v
	return nil
}

func (r *runner) step(ctx context.Context, index int, st Step) (StepResult, error) {
	res := StepResult{Index: index, Op: st.Op, Caller: st.Caller}

	evt, err := r.apply(ctx, st)
	res.Event = evt
	if err != nil {
		res.Code = ErrorCode(err)
		res.Error = err.Error()
	}

	cur, serr := r.vault.State(ctx)
	if serr != nil {
		return res, serr
	}
	res.Rate = cur.Rate
	res.FeeBps = cur.FeeBps
	res.TotalDeposits = cur.TotalDeposits
	res.TotalShares = cur.TotalShares

	res.Mismatches = check(st.Expect, evt, res.Code)
	return res, nil
}

func (r *runner) apply(ctx context.Context, st Step) (*event.Event, error) {
	v := r.vault
	switch st.Op {
	case OpDeposit:
		return v.Deposit(ctx, st.Caller, st.Amount)
	case OpWithdraw:
		return v.Withdraw(ctx, st.Caller, st.Shares)
	case OpWithdrawOperatorShares:
		return v.WithdrawOperatorShares(ctx, st.Caller, st.Shares)
	case OpAccumulateYield:
		return v.AccumulateYield(ctx, st.Caller, st.Amount)
	case OpUpdateRate:
		return v.UpdateRate(ctx, st.Caller, st.Rate)
	case OpUpdateFee:
		return v.UpdateFee(ctx, st.Caller, st.FeeBps)
	case OpPause:
		return v.Pause(ctx, st.Caller)
	case OpUnpause:
		return v.Unpause(ctx, st.Caller)
	case OpMint:
		return nil, r.token.Mint(st.Caller, st.Amount)
	case OpApprove:
		return nil, r.token.Approve(st.Caller, st.Amount)
	default:
		return nil, fmt.Errorf("scenario: unknown op %q", st.Op)
	}
}

// check compares a step's outcome against its expectation. A step with no
// expectation must simply succeed.
func check(exp *Expect, evt *event.Event, code string) []string {
	if exp == nil {
		if code != "" {
			return []string{fmt.Sprintf("unexpected error %s", code)}
		}
		return nil
	}

	if exp.Error != "" {
		if code != exp.Error {
			return []string{fmt.Sprintf("error: got %q, want %q", code, exp.Error)}
		}
		return nil
	}
	if code != "" {
		return []string{fmt.Sprintf("unexpected error %s", code)}
	}
	if evt == nil {
		return nil
	}

	var out []string
	field := func(name string, want *int64, got int64) {
		if want != nil && *want != got {
			out = append(out, fmt.Sprintf("%s: got %d, want %d", name, got, *want))
		}
	}
	field("shares", exp.Shares, evt.Shares)
	field("fee_shares", exp.FeeShares, evt.FeeShares)
	field("fee", exp.Fee, evt.Fee)
	field("payout", exp.Payout, evt.Payout)
	field("rate", exp.Rate, evt.Rate)
	field("fee_bps", exp.FeeBps, evt.FeeBps)
	return out
}
