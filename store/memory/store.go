// Package memory provides an in-process Store. It is the default for tests,
// the CLI simulator and the forge extension when no database is configured.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/xraph/vault"
	"github.com/xraph/vault/event"
	"github.com/xraph/vault/id"
	"github.com/xraph/vault/position"
	"github.com/xraph/vault/state"
	"github.com/xraph/vault/store"
)

var _ store.Store = (*Store)(nil)

type positionKey struct {
	vault   string
	account string
}

type Store struct {
	mu sync.RWMutex

	// State storage, keyed by vault name
	states map[string]*state.State

	// Position storage
	positions map[positionKey]*position.Position

	// Event log per vault, ascending Seq
	events map[string][]*event.Event
}

func New() *Store {
	return &Store{
		states:    make(map[string]*state.State),
		positions: make(map[positionKey]*position.Position),
		events:    make(map[string][]*event.Event),
	}
}

// State Store implementation
func (s *Store) CreateState(_ context.Context, st *state.State) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.states[st.Name]; exists {
		return fmt.Errorf("vault/memory: create state %q: %w", st.Name, vault.ErrAlreadyExists)
	}
	s.states[st.Name] = st.Clone()
	return nil
}

func (s *Store) GetState(_ context.Context, name string) (*state.State, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if st, ok := s.states[name]; ok {
		return st.Clone(), nil
	}
	return nil, fmt.Errorf("vault/memory: state %q: %w", name, vault.ErrNotFound)
}

// Position Store implementation
func (s *Store) GetPosition(_ context.Context, vaultName, account string) (*position.Position, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if p, ok := s.positions[positionKey{vaultName, account}]; ok {
		return p.Clone(), nil
	}
	return nil, fmt.Errorf("vault/memory: position %s/%s: %w", vaultName, account, vault.ErrNotFound)
}

func (s *Store) ListPositions(_ context.Context, vaultName string, opts position.ListOpts) ([]*position.Position, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*position.Position, 0)
	for k, p := range s.positions {
		if k.vault != vaultName {
			continue
		}
		if opts.NonZero && p.IsZero() {
			continue
		}
		result = append(result, p.Clone())
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Account < result[j].Account })

	return paginate(result, opts.Offset, opts.Limit), nil
}

func (s *Store) SumShares(_ context.Context, vaultName string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var sum int64
	for k, p := range s.positions {
		if k.vault == vaultName {
			sum += p.Shares
		}
	}
	return sum, nil
}

// Event Store implementation
func (s *Store) GetEvent(_ context.Context, eventID id.EventID) (*event.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	want := eventID.String()
	for _, log := range s.events {
		for _, e := range log {
			if e.ID.String() == want {
				c := *e
				return &c, nil
			}
		}
	}
	return nil, fmt.Errorf("vault/memory: event %s: %w", want, vault.ErrNotFound)
}

func (s *Store) ListEvents(_ context.Context, vaultName string, opts event.ListOpts) ([]*event.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*event.Event, 0)
	for _, e := range s.events[vaultName] {
		if opts.Kind != "" && e.Kind != opts.Kind {
			continue
		}
		if opts.Actor != "" && e.Actor != opts.Actor {
			continue
		}
		if e.Seq < opts.FromSeq {
			continue
		}
		c := *e
		result = append(result, &c)
	}

	return paginate(result, opts.Offset, opts.Limit), nil
}

// Commit applies c under a single lock, so it is fully atomic.
func (s *Store) Commit(_ context.Context, c *store.Commit) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.states[c.State.Name]
	if !ok {
		return fmt.Errorf("vault/memory: commit %q: %w", c.State.Name, vault.ErrNotFound)
	}
	if cur.Version != c.ExpectedVersion {
		return fmt.Errorf("vault/memory: commit %q at version %d, stored %d: %w",
			c.State.Name, c.ExpectedVersion, cur.Version, vault.ErrConflict)
	}

	s.states[c.State.Name] = c.State.Clone()

	for _, p := range c.Positions {
		s.positions[positionKey{p.Vault, p.Account}] = p.Clone()
	}
	for _, account := range c.Drop {
		delete(s.positions, positionKey{c.State.Name, account})
	}

	if c.Append != nil {
		e := *c.Append
		s.events[e.Vault] = append(s.events[e.Vault], &e)
	}

	if !c.Retract.IsNil() {
		want := c.Retract.String()
		log := s.events[c.State.Name]
		for i, e := range log {
			if e.ID.String() == want {
				s.events[c.State.Name] = append(log[:i:i], log[i+1:]...)
				break
			}
		}
	}

	return nil
}

// Store management
func (s *Store) Migrate(_ context.Context) error {
	return nil // No migration needed for memory store
}

func (s *Store) Ping(_ context.Context) error {
	return nil // Always available
}

func (s *Store) Close() error {
	return nil // Nothing to close
}

// Helper functions
func paginate[T any](result []T, offset, limit int) []T {
	start := min(max(offset, 0), len(result))
	if limit <= 0 || limit > len(result)-start {
		return result[start:]
	}
	return result[start : start+limit]
}
