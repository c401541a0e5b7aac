// Package asset defines how a vault moves its custody asset and ships an
// in-memory token ledger that implements it.
package asset

import (
	"context"
	"errors"
)

// Transfer errors.
var (
	ErrInsufficientBalance   = errors.New("asset: insufficient balance")
	ErrInsufficientAllowance = errors.New("asset: insufficient allowance")
	ErrInvalidAmount         = errors.New("asset: amount must be positive")
	ErrInvalidAccount        = errors.New("asset: account is required")
)

// Transferer moves asset units between accounts and vault custody.
// Both calls must be atomic: they either move the full amount or return an
// error having moved nothing.
type Transferer interface {
	// Pull debits from and credits the vault's custody account.
	Pull(ctx context.Context, from string, amount int64) error
	// Push debits custody and credits to.
	Push(ctx context.Context, to string, amount int64) error
}

// BalanceReporter is implemented by transferers that can report how many
// units the vault currently holds.
type BalanceReporter interface {
	Custody(ctx context.Context) (int64, error)
}

// Funcs adapts plain functions to a Transferer. A nil func succeeds.
type Funcs struct {
	PullFunc func(ctx context.Context, from string, amount int64) error
	PushFunc func(ctx context.Context, to string, amount int64) error
}

// Pull implements Transferer.
func (f Funcs) Pull(ctx context.Context, from string, amount int64) error {
	if f.PullFunc == nil {
		return nil
	}
	return f.PullFunc(ctx, from, amount)
}

// Push implements Transferer.
func (f Funcs) Push(ctx context.Context, to string, amount int64) error {
	if f.PushFunc == nil {
		return nil
	}
	return f.PushFunc(ctx, to, amount)
}
