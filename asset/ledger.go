package asset

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
)

// Compile-time interface checks.
var (
	_ Transferer      = (*Ledger)(nil)
	_ BalanceReporter = (*Ledger)(nil)
)

// Ledger is an in-memory token with balances and allowances. Pulls spend
// the allowance an owner granted to the custody account, mirroring the
// approve-then-transferFrom flow of on-chain tokens.
type Ledger struct {
	mu         sync.Mutex
	custodian  string
	balances   map[string]int64
	allowances map[string]int64
}

// NewLedger creates an empty token ledger whose custody account is custodian.
func NewLedger(custodian string) *Ledger {
	return &Ledger{
		custodian:  custodian,
		balances:   make(map[string]int64),
		allowances: make(map[string]int64),
	}
}

// Custodian returns the custody account name.
func (l *Ledger) Custodian() string { return l.custodian }

// Mint credits amount to account.
func (l *Ledger) Mint(account string, amount int64) error {
	if account == "" {
		return ErrInvalidAccount
	}
	if amount <= 0 {
		return ErrInvalidAmount
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.balances[account] > math.MaxInt64-amount {
		return fmt.Errorf("asset: mint %d to %s: balance overflow", amount, account)
	}
	l.balances[account] += amount
	return nil
}

// Approve sets how much the custodian may pull from owner.
func (l *Ledger) Approve(owner string, amount int64) error {
	if owner == "" {
		return ErrInvalidAccount
	}
	if amount < 0 {
		return ErrInvalidAmount
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.allowances[owner] = amount
	return nil
}

// BalanceOf returns the balance of account.
func (l *Ledger) BalanceOf(account string) int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balances[account]
}

// Allowance returns what the custodian may still pull from owner.
func (l *Ledger) Allowance(owner string) int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.allowances[owner]
}

// Custody implements BalanceReporter.
func (l *Ledger) Custody(_ context.Context) (int64, error) {
	return l.BalanceOf(l.custodian), nil
}

// Balances returns a sorted snapshot of every non-zero balance.
func (l *Ledger) Balances() []Balance {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]Balance, 0, len(l.balances))
	for account, units := range l.balances {
		if units != 0 {
			out = append(out, Balance{Account: account, Units: units})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Account < out[j].Account })
	return out
}

// Balance is one account's holding in a Ledger snapshot.
type Balance struct {
	Account string `json:"account"`
	Units   int64  `json:"units"`
}

// Pull implements Transferer.
func (l *Ledger) Pull(_ context.Context, from string, amount int64) error {
	if from == "" {
		return ErrInvalidAccount
	}
	if amount <= 0 {
		return ErrInvalidAmount
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.allowances[from] < amount {
		return fmt.Errorf("%w: %s approved %d, need %d", ErrInsufficientAllowance, from, l.allowances[from], amount)
	}
	if l.balances[from] < amount {
		return fmt.Errorf("%w: %s holds %d, need %d", ErrInsufficientBalance, from, l.balances[from], amount)
	}

	l.allowances[from] -= amount
	l.balances[from] -= amount
	l.balances[l.custodian] += amount
	return nil
}

// Push implements Transferer.
func (l *Ledger) Push(_ context.Context, to string, amount int64) error {
	if to == "" {
		return ErrInvalidAccount
	}
	if amount <= 0 {
		return ErrInvalidAmount
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.balances[l.custodian] < amount {
		return fmt.Errorf("%w: custody holds %d, need %d", ErrInsufficientBalance, l.balances[l.custodian], amount)
	}

	l.balances[l.custodian] -= amount
	l.balances[to] += amount
	return nil
}
