// Package auth decides which identities may run privileged vault
// operations. The default implementation is a single owner whose role
// moves in two steps: the owner proposes a successor, and the successor
// accepts.
package auth

import (
	"context"
	"errors"
	"sync"
)

// Ownership errors.
var (
	ErrNotOwner       = errors.New("auth: caller is not the owner")
	ErrNotPending     = errors.New("auth: caller is not the pending owner")
	ErrNoPendingOwner = errors.New("auth: no ownership transfer pending")
	ErrInvalidOwner   = errors.New("auth: owner identity is required")
)

// Authorizer reports whether identity may run privileged operations.
type Authorizer interface {
	IsPrivileged(ctx context.Context, identity string) bool
}

// AuthorizerFunc adapts a plain function to an Authorizer.
type AuthorizerFunc func(ctx context.Context, identity string) bool

// IsPrivileged implements Authorizer.
func (f AuthorizerFunc) IsPrivileged(ctx context.Context, identity string) bool {
	return f(ctx, identity)
}

// Owner is a single-owner Authorizer with two-step transfer.
type Owner struct {
	mu      sync.RWMutex
	owner   string
	pending string
}

var _ Authorizer = (*Owner)(nil)

// NewOwner returns an Owner held by initial.
func NewOwner(initial string) *Owner {
	return &Owner{owner: initial}
}

// IsPrivileged implements Authorizer.
func (o *Owner) IsPrivileged(_ context.Context, identity string) bool {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return identity != "" && identity == o.owner
}

// Owner returns the current owner.
func (o *Owner) Owner() string {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.owner
}

// Pending returns the proposed owner, or "" when none is pending.
func (o *Owner) Pending() string {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.pending
}

// Propose nominates next as the new owner. Only the owner may propose, and
// a new proposal replaces any earlier one.
func (o *Owner) Propose(_ context.Context, caller, next string) error {
	if next == "" {
		return ErrInvalidOwner
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	if caller != o.owner {
		return ErrNotOwner
	}
	o.pending = next
	return nil
}

// Accept completes a pending transfer. Only the proposed owner may accept.
func (o *Owner) Accept(_ context.Context, caller string) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.pending == "" {
		return ErrNoPendingOwner
	}
	if caller != o.pending {
		return ErrNotPending
	}
	o.owner, o.pending = o.pending, ""
	return nil
}

// Cancel withdraws a pending proposal.
func (o *Owner) Cancel(_ context.Context, caller string) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if caller != o.owner {
		return ErrNotOwner
	}
	if o.pending == "" {
		return ErrNoPendingOwner
	}
	o.pending = ""
	return nil
}
