package store

import (
	"context"

	"github.com/xraph/vault/event"
	"github.com/xraph/vault/id"
	"github.com/xraph/vault/position"
	"github.com/xraph/vault/state"
)

// Commit is the unit of change a vault operation writes.
//
// The state update is conditional: it applies only while the stored
// version equals ExpectedVersion, otherwise the commit fails with
// vault.ErrConflict and nothing is written. Positions are upserted by
// (vault, account) and Drop deletes the positions of the named accounts.
// Append inserts an event; Retract deletes one, which is how a compensating
// commit removes the event of a rolled-back operation.
//
// Every backend applies a Commit all-or-nothing.
type Commit struct {
	ExpectedVersion int64
	State           *state.State
	Positions       []*position.Position
	Drop            []string
	Append          *event.Event
	Retract         id.EventID
}

// Store is the unified storage interface for vault records.
// Methods are declared explicitly rather than embedded so every backend
// shows the full surface in one place.
type Store interface {
	// State methods
	CreateState(ctx context.Context, s *state.State) error
	GetState(ctx context.Context, name string) (*state.State, error)

	// Position methods
	GetPosition(ctx context.Context, vault, account string) (*position.Position, error)
	ListPositions(ctx context.Context, vault string, opts position.ListOpts) ([]*position.Position, error)
	SumShares(ctx context.Context, vault string) (int64, error)

	// Event methods
	GetEvent(ctx context.Context, eventID id.EventID) (*event.Event, error)
	ListEvents(ctx context.Context, vault string, opts event.ListOpts) ([]*event.Event, error)

	// Commit applies c as a single unit.
	Commit(ctx context.Context, c *Commit) error

	// Core methods
	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}

// compile-time checks that the composite covers each record store.
var (
	_ state.Store    = (Store)(nil)
	_ position.Store = (Store)(nil)
	_ event.Store    = (Store)(nil)
)
