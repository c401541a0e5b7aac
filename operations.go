package vault

import (
	"context"
	"errors"
	"fmt"

	"github.com/xraph/vault/accounting"
	"github.com/xraph/vault/event"
	"github.com/xraph/vault/guard"
	"github.com/xraph/vault/id"
	"github.com/xraph/vault/position"
	"github.com/xraph/vault/state"
	"github.com/xraph/vault/store"
	"github.com/xraph/vault/types"
)

// change is what an operation wants written, computed against the current
// state inside the guard.
type change struct {
	next   *state.State
	before []*position.Position
	after  []*position.Position
	event  *event.Event

	// transfer runs after the commit. On failure the commit is reverted and
	// the error is wrapped with failure.
	transfer func(ctx context.Context) error
	failure  error
}

type planFunc func(ctx context.Context, cur *state.State) (*change, error)

// ──────────────────────────────────────────────────
// Custody
// ──────────────────────────────────────────────────

// Deposit pulls amount from caller and mints shares at the current rate.
// The fee is minted as operator shares.
func (v *Vault) Deposit(ctx context.Context, caller string, amount int64) (*event.Event, error) {
	return v.run(ctx, event.KindDeposit, caller, false, func(ctx context.Context, cur *state.State) (*change, error) {
		if amount <= 0 {
			return nil, ErrAmountMustBeGreaterThanZero
		}

		q, err := accounting.QuoteDeposit(amount, cur.FeeBps, cur.Rate)
		if err != nil {
			return nil, arithmetic(err)
		}

		pos, err := v.position(ctx, caller)
		if err != nil {
			return nil, err
		}

		next := cur.Clone()
		after := pos.Clone()
		for _, step := range []struct {
			dst   *int64
			delta int64
		}{
			{&next.TotalDeposits, q.Net},
			{&next.TotalShares, q.Shares},
			{&next.TotalShares, q.FeeShares},
			{&next.OperatorShares, q.FeeShares},
			{&after.Balance, q.Net},
			{&after.Shares, q.Shares},
		} {
			if *step.dst, err = accounting.Add(*step.dst, step.delta); err != nil {
				return nil, arithmetic(err)
			}
		}

		return &change{
			next:   next,
			before: []*position.Position{pos},
			after:  []*position.Position{after},
			event: &event.Event{
				Amount:    q.Amount,
				Fee:       q.Fee,
				Net:       q.Net,
				Shares:    q.Shares,
				FeeShares: q.FeeShares,
			},
			transfer: func(ctx context.Context) error { return v.transfer.Pull(ctx, caller, amount) },
			failure:  ErrTransferFailed,
		}, nil
	})
}

// Withdraw burns shares held by caller and pays out shares × rate.
func (v *Vault) Withdraw(ctx context.Context, caller string, shares int64) (*event.Event, error) {
	return v.run(ctx, event.KindWithdraw, caller, false, func(ctx context.Context, cur *state.State) (*change, error) {
		if shares <= 0 {
			return nil, ErrAmountMustBeGreaterThanZero
		}

		pos, err := v.position(ctx, caller)
		if err != nil {
			return nil, err
		}
		if pos.Shares < shares {
			return nil, fmt.Errorf("%w: %s holds %d, requested %d", ErrInsufficientShares, caller, pos.Shares, shares)
		}

		payout, err := accounting.Redeem(shares, cur.Rate)
		if err != nil {
			return nil, arithmetic(err)
		}
		if payout > cur.TotalDeposits {
			return nil, fmt.Errorf("%w: payout %d, deposits %d", ErrDepositsUnderflow, payout, cur.TotalDeposits)
		}

		next := cur.Clone()
		next.TotalShares -= shares
		next.TotalDeposits -= payout

		after := pos.Clone()
		after.Shares -= shares
		switch {
		case payout <= after.Balance:
			after.Balance -= payout
		case v.config.StrictBalances:
			return nil, fmt.Errorf("%w: payout %d, balance %d", ErrBalanceUnderflow, payout, after.Balance)
		default:
			after.Balance = 0
		}

		return &change{
			next:   next,
			before: []*position.Position{pos},
			after:  []*position.Position{after},
			event: &event.Event{
				Shares: shares,
				Payout: payout,
			},
			transfer: func(ctx context.Context) error { return v.transfer.Push(ctx, caller, payout) },
			failure:  ErrTransferFailed,
		}, nil
	})
}

// WithdrawOperatorShares redeems fee shares to the privileged caller.
// Deposits and account balances are left untouched.
func (v *Vault) WithdrawOperatorShares(ctx context.Context, caller string, shares int64) (*event.Event, error) {
	return v.run(ctx, event.KindOperatorWithdraw, caller, true, func(_ context.Context, cur *state.State) (*change, error) {
		if shares <= 0 {
			return nil, ErrAmountMustBeGreaterThanZero
		}
		if cur.OperatorShares < shares {
			return nil, fmt.Errorf("%w: operator holds %d, requested %d", ErrInsufficientShares, cur.OperatorShares, shares)
		}

		payout, err := accounting.Redeem(shares, cur.Rate)
		if err != nil {
			return nil, arithmetic(err)
		}

		next := cur.Clone()
		next.TotalShares -= shares
		next.OperatorShares -= shares

		return &change{
			next: next,
			event: &event.Event{
				Shares: shares,
				Payout: payout,
			},
			transfer: func(ctx context.Context) error { return v.transfer.Push(ctx, caller, payout) },
			failure:  ErrTransferFailed,
		}, nil
	})
}

// ──────────────────────────────────────────────────
// Yield
// ──────────────────────────────────────────────────

// AccumulateYield pulls amount from the privileged caller and spreads it
// over all outstanding shares by raising the rate to
// floor(totalDeposits / totalShares). The rate never decreases.
func (v *Vault) AccumulateYield(ctx context.Context, caller string, amount int64) (*event.Event, error) {
	return v.run(ctx, event.KindYieldAccumulated, caller, true, func(_ context.Context, cur *state.State) (*change, error) {
		if amount <= 0 {
			return nil, ErrAmountMustBeGreaterThanZero
		}
		if cur.TotalShares == 0 {
			return nil, ErrNoSharesOutstanding
		}

		next := cur.Clone()
		var err error
		if next.TotalDeposits, err = accounting.Add(cur.TotalDeposits, amount); err != nil {
			return nil, arithmetic(err)
		}
		rate, err := accounting.Rebase(next.TotalDeposits, next.TotalShares)
		if err != nil {
			return nil, arithmetic(err)
		}
		if rate < cur.Rate {
			v.logger.Warn("vault yield below current rate, keeping rate",
				"name", cur.Name,
				"amount", amount,
				"computed_rate", rate,
				"rate", cur.Rate,
			)
			rate = cur.Rate
		}
		next.Rate = rate

		return &change{
			next: next,
			event: &event.Event{
				Amount:   amount,
				Previous: cur.Rate,
			},
			transfer: func(ctx context.Context) error { return v.transfer.Pull(ctx, caller, amount) },
			failure:  ErrRewardsAccumulationFailed,
		}, nil
	})
}

// ──────────────────────────────────────────────────
// Administration
// ──────────────────────────────────────────────────

// UpdateRate reprices shares without moving custody.
func (v *Vault) UpdateRate(ctx context.Context, caller string, rate int64) (*event.Event, error) {
	return v.run(ctx, event.KindRateUpdated, caller, true, func(_ context.Context, cur *state.State) (*change, error) {
		if rate <= 0 {
			return nil, fmt.Errorf("%w: got %d", ErrRateUpdateFailed, rate)
		}
		next := cur.Clone()
		next.Rate = rate
		return &change{next: next, event: &event.Event{Previous: cur.Rate}}, nil
	})
}

// UpdateFee sets the deposit fee in basis points.
func (v *Vault) UpdateFee(ctx context.Context, caller string, feeBps int64) (*event.Event, error) {
	return v.run(ctx, event.KindFeeUpdated, caller, true, func(_ context.Context, cur *state.State) (*change, error) {
		if feeBps <= 0 {
			return nil, fmt.Errorf("%w: got %d", ErrManagerFeeUpdateFailed, feeBps)
		}
		if v.config.MaxFeeBps > 0 && feeBps > v.config.MaxFeeBps {
			return nil, fmt.Errorf("%w: %d > %d", ErrFeeTooHigh, feeBps, v.config.MaxFeeBps)
		}
		next := cur.Clone()
		next.FeeBps = feeBps
		return &change{next: next, event: &event.Event{Previous: cur.FeeBps}}, nil
	})
}

// Pause blocks every operation except Pause and Unpause.
func (v *Vault) Pause(ctx context.Context, caller string) (*event.Event, error) {
	return v.run(ctx, event.KindPaused, caller, true, setPaused(true))
}

// Unpause reopens the vault.
func (v *Vault) Unpause(ctx context.Context, caller string) (*event.Event, error) {
	return v.run(ctx, event.KindUnpaused, caller, true, setPaused(false))
}

func setPaused(paused bool) planFunc {
	return func(_ context.Context, cur *state.State) (*change, error) {
		next := cur.Clone()
		next.Paused = paused
		return &change{next: next, event: &event.Event{}}, nil
	}
}

// ──────────────────────────────────────────────────
// Execution
// ──────────────────────────────────────────────────

func (v *Vault) run(ctx context.Context, kind event.Kind, caller string, privileged bool, plan planFunc) (*event.Event, error) {
	evt, err := v.execute(ctx, kind, caller, privileged, plan)
	if err != nil {
		v.logger.Debug("vault operation rejected",
			"kind", string(kind),
			"actor", caller,
			"error", err,
		)
		// Reentry comes from a collaborator mid-operation; the outer
		// operation reports the outcome.
		if !errors.Is(err, ErrReentrantCall) {
			v.plugins.EmitOperationFailed(ctx, kind, caller, err)
		}
		return nil, err
	}

	v.logger.Debug("vault operation committed",
		"kind", string(kind),
		"actor", caller,
		"seq", evt.Seq,
		"rate", evt.Rate,
	)
	v.plugins.Emit(ctx, evt)

	return evt, nil
}

// execute runs the checks in a fixed order (authorization, reentrancy,
// pause gate, then the operation's own validation), commits, and only then
// calls out to the transferer.
func (v *Vault) execute(ctx context.Context, kind event.Kind, caller string, privileged bool, plan planFunc) (*event.Event, error) {
	if !v.started.Load() {
		return nil, ErrNotStarted
	}
	if privileged && !v.auth.IsPrivileged(ctx, caller) {
		return nil, fmt.Errorf("%w: %q may not run %s", ErrUnauthorized, caller, kind)
	}

	gctx, release, err := v.guard.Enter(ctx)
	if errors.Is(err, guard.ErrReentrant) {
		return nil, ErrReentrantCall
	}
	if err != nil {
		return nil, err
	}
	defer release()

	cur, err := v.store.GetState(gctx, v.config.Name)
	if err != nil {
		return nil, err
	}
	if cur.Paused && kind != event.KindPaused && kind != event.KindUnpaused {
		return nil, ErrPaused
	}

	c, err := plan(gctx, cur)
	if err != nil {
		return nil, err
	}

	now := v.clock().UTC()

	next := c.next
	next.Version = cur.Version + 1
	next.Touch(now)

	for _, p := range c.after {
		if p.CreatedAt.IsZero() {
			p.Entity = types.NewEntityAt(now)
		} else {
			p.Touch(now)
		}
	}

	evt := c.event
	evt.ID = id.NewEventID()
	evt.Vault = cur.Name
	evt.Seq = next.Version
	evt.Kind = kind
	evt.Actor = caller
	evt.Rate = next.Rate
	evt.FeeBps = next.FeeBps
	evt.CreatedAt = now

	if err := v.store.Commit(gctx, &store.Commit{
		ExpectedVersion: cur.Version,
		State:           next,
		Positions:       c.after,
		Append:          evt,
	}); err != nil {
		if cerr := v.undoPartial(gctx, err, cur, next, c.before, evt.ID); cerr != nil {
			return nil, errors.Join(err, cerr)
		}
		return nil, err
	}

	if c.transfer == nil {
		return evt, nil
	}
	if err := c.transfer(gctx); err != nil {
		if cerr := v.revert(gctx, cur, next.Version, c.before, evt.ID); cerr != nil {
			return nil, fmt.Errorf("%w: %w", c.failure, errors.Join(err, cerr))
		}
		return nil, fmt.Errorf("%w: %w", c.failure, err)
	}

	return evt, nil
}

// undoPartial reverts a commit that returned commitErr after the store had
// already moved to next.Version. A conflict means another writer owns that
// version, so it is left alone.
func (v *Vault) undoPartial(ctx context.Context, commitErr error, prev, next *state.State, before []*position.Position, evtID id.EventID) error {
	if errors.Is(commitErr, ErrConflict) {
		return nil
	}
	stored, err := v.store.GetState(ctx, prev.Name)
	if err != nil || stored.Version != next.Version {
		return nil
	}
	v.logger.Warn("vault commit failed after claiming version, reverting",
		"name", prev.Name,
		"version", next.Version,
		"error", commitErr,
	)
	return v.revert(ctx, prev, next.Version, before, evtID)
}

// revert restores prev and the positions as they were before a commit at
// version, and retracts the commit's event. Positions that did not exist
// before are deleted rather than written back empty.
func (v *Vault) revert(ctx context.Context, prev *state.State, version int64, before []*position.Position, evtID id.EventID) error {
	restored := prev.Clone()
	restored.Version = version + 1
	restored.Touch(v.clock().UTC())

	var (
		keep []*position.Position
		drop []string
	)
	for _, p := range before {
		if p.CreatedAt.IsZero() {
			drop = append(drop, p.Account)
			continue
		}
		keep = append(keep, p)
	}

	err := v.store.Commit(ctx, &store.Commit{
		ExpectedVersion: version,
		State:           restored,
		Positions:       keep,
		Drop:            drop,
		Retract:         evtID,
	})
	if err != nil {
		v.logger.Error("vault revert failed",
			"name", prev.Name,
			"version", version,
			"event_id", evtID.String(),
			"error", err,
		)
	}
	return err
}
