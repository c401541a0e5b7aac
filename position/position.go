package position

import (
	"context"

	"github.com/xraph/vault/types"
)

// Position is one account's holding in a vault. Shares are the
// authoritative claim; Balance tracks net deposited units for display.
type Position struct {
	types.Entity

	Vault   string `json:"vault"`
	Account string `json:"account"`
	Balance int64  `json:"balance"`
	Shares  int64  `json:"shares"`
}

// Empty returns the zero position for account.
func Empty(vault, account string) *Position {
	return &Position{Vault: vault, Account: account}
}

// Clone returns a copy that can be mutated independently.
func (p *Position) Clone() *Position {
	c := *p
	return &c
}

// IsZero reports whether the position holds nothing.
func (p *Position) IsZero() bool {
	return p.Balance == 0 && p.Shares == 0
}

// ListOpts filters and paginates position listings.
type ListOpts struct {
	// NonZero skips positions with no shares and no balance.
	NonZero bool
	Limit   int
	Offset  int
}

// Store persists positions.
type Store interface {
	GetPosition(ctx context.Context, vault, account string) (*Position, error)
	ListPositions(ctx context.Context, vault string, opts ListOpts) ([]*Position, error)
	SumShares(ctx context.Context, vault string) (int64, error)
}
