package vault

import (
	"github.com/xraph/vault/accounting"
	"github.com/xraph/vault/event"
	"github.com/xraph/vault/position"
	"github.com/xraph/vault/state"
	"github.com/xraph/vault/types"
)

// Re-export common types for convenience so users don't have to import the
// record packages.

// State is re-exported from state package.
type State = state.State

// Position is re-exported from position package.
type Position = position.Position

// Event is re-exported from event package.
type Event = event.Event

// Asset is re-exported from types package.
type Asset = types.Asset

// DepositQuote is re-exported from accounting package.
type DepositQuote = accounting.DepositQuote

// Re-export constructors
var (
	NewAsset  = types.NewAsset
	NewEntity = types.NewEntity
)
