package state

import (
	"context"

	"github.com/xraph/vault/id"
	"github.com/xraph/vault/types"
)

// DefaultName is the vault name used when none is configured.
const DefaultName = "default"

// State is the single accounting record of a vault.
type State struct {
	types.Entity

	ID             id.VaultID  `json:"id"`
	Name           string      `json:"name"`
	Asset          types.Asset `json:"asset"`
	Rate           int64       `json:"rate"`
	FeeBps         int64       `json:"fee_bps"`
	TotalDeposits  int64       `json:"total_deposits"`
	TotalShares    int64       `json:"total_shares"`
	OperatorShares int64       `json:"operator_shares"`
	Paused         bool        `json:"paused"`
	Version        int64       `json:"version"`
}

// Clone returns a copy that can be mutated independently.
func (s *State) Clone() *State {
	c := *s
	return &c
}

// UserShares returns the shares held by depositors, excluding the operator pool.
func (s *State) UserShares() int64 {
	return s.TotalShares - s.OperatorShares
}

// Store persists vault state records.
type Store interface {
	CreateState(ctx context.Context, s *State) error
	GetState(ctx context.Context, name string) (*State, error)
}
