// Package storetest holds the behaviour every store.Store backend must
// share. Backends call Run from their own tests with a constructor for a
// fresh, migrated store.
package storetest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/xraph/vault"
	"github.com/xraph/vault/event"
	"github.com/xraph/vault/id"
	"github.com/xraph/vault/position"
	"github.com/xraph/vault/state"
	"github.com/xraph/vault/store"
	"github.com/xraph/vault/types"
)

// Vault is the name of the state Seed creates.
const Vault = "default"

// Run exercises open's stores against the store.Store contract. open must
// return an empty store with its schema in place.
func Run(t *testing.T, open func(t *testing.T) store.Store) {
	t.Helper()

	tests := []struct {
		name string
		fn   func(t *testing.T, s store.Store)
	}{
		{"create state rejects duplicate", testCreateStateRejectsDuplicate},
		{"state round trip", testStateRoundTrip},
		{"commit version check", testCommitVersionCheck},
		{"commit retract", testCommitRetract},
		{"commit drop", testCommitDrop},
		{"commit upserts positions", testCommitUpsertsPositions},
		{"listings", testListings},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.fn(t, open(t))
		})
	}
}

// Seed creates the Vault state in s and returns it.
func Seed(t *testing.T, s store.Store) *state.State {
	t.Helper()
	st := &state.State{
		Entity: types.NewEntityAt(time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)),
		ID:     id.NewVaultID(),
		Name:   Vault,
		Asset:  types.NewAsset("USDC", 6),
		Rate:   50,
		FeeBps: 100,
	}
	if err := s.CreateState(context.Background(), st); err != nil {
		t.Fatalf("CreateState: %v", err)
	}
	return st
}

// Advance commits c on top of the stored state, filling in the version
// bookkeeping, and returns the new state.
func Advance(t *testing.T, s store.Store, c *store.Commit) *state.State {
	t.Helper()
	ctx := context.Background()

	cur, err := s.GetState(ctx, Vault)
	if err != nil {
		t.Fatalf("GetState: %v", err)
	}
	if c.State == nil {
		c.State = cur.Clone()
	}
	c.ExpectedVersion = cur.Version
	c.State.Version = cur.Version + 1
	if c.Append != nil {
		c.Append.Vault = Vault
		c.Append.Seq = c.State.Version
	}
	if err := s.Commit(ctx, c); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	return c.State
}

func testCreateStateRejectsDuplicate(t *testing.T, s store.Store) {
	st := Seed(t, s)
	err := s.CreateState(context.Background(), st)
	if !errors.Is(err, vault.ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}
}

func testStateRoundTrip(t *testing.T, s store.Store) {
	ctx := context.Background()
	st := Seed(t, s)

	got, err := s.GetState(ctx, Vault)
	if err != nil {
		t.Fatalf("GetState: %v", err)
	}
	if got.ID.String() != st.ID.String() || got.Asset != st.Asset || got.Rate != 50 || got.FeeBps != 100 {
		t.Errorf("state: got %+v, want %+v", got, st)
	}
	if !got.CreatedAt.Equal(st.CreatedAt) || !got.UpdatedAt.Equal(st.UpdatedAt) {
		t.Errorf("timestamps: got %v/%v, want %v/%v", got.CreatedAt, got.UpdatedAt, st.CreatedAt, st.UpdatedAt)
	}

	if _, err := s.GetState(ctx, "absent"); !errors.Is(err, vault.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func testCommitVersionCheck(t *testing.T, s store.Store) {
	ctx := context.Background()
	st := Seed(t, s)

	next := st.Clone()
	next.Version = 1
	next.TotalShares = 10
	evt := &event.Event{ID: id.NewEventID(), Vault: Vault, Seq: 1, Kind: event.KindDeposit}

	err := s.Commit(ctx, &store.Commit{
		ExpectedVersion: 0,
		State:           next,
		Positions:       []*position.Position{{Vault: Vault, Account: "alice", Shares: 10, Balance: 500}},
		Append:          evt,
	})
	if err != nil {
		t.Fatalf("Commit: %v", err)
	}

	stale := st.Clone()
	stale.Version = 1
	stale.TotalShares = 99
	err = s.Commit(ctx, &store.Commit{
		ExpectedVersion: 0,
		State:           stale,
		Positions:       []*position.Position{{Vault: Vault, Account: "bob", Shares: 99}},
	})
	if !errors.Is(err, vault.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}

	got, err := s.GetState(ctx, Vault)
	if err != nil {
		t.Fatalf("GetState: %v", err)
	}
	if got.TotalShares != 10 || got.Version != 1 {
		t.Errorf("state after conflict: %+v", got)
	}
	if _, err := s.GetPosition(ctx, Vault, "bob"); !errors.Is(err, vault.ErrNotFound) {
		t.Errorf("conflicting commit wrote a position: %v", err)
	}
	alice, err := s.GetPosition(ctx, Vault, "alice")
	if err != nil {
		t.Fatalf("GetPosition: %v", err)
	}
	if alice.Shares != 10 || alice.Balance != 500 {
		t.Errorf("alice: %+v", alice)
	}

	missing := st.Clone()
	missing.Name = "other"
	if err := s.Commit(ctx, &store.Commit{State: missing}); !errors.Is(err, vault.ErrNotFound) {
		t.Errorf("expected ErrNotFound for unknown vault, got %v", err)
	}
}

func testCommitRetract(t *testing.T, s store.Store) {
	ctx := context.Background()
	Seed(t, s)

	evt := &event.Event{ID: id.NewEventID(), Kind: event.KindPaused}
	Advance(t, s, &store.Commit{Append: evt})
	if _, err := s.GetEvent(ctx, evt.ID); err != nil {
		t.Fatalf("GetEvent: %v", err)
	}

	Advance(t, s, &store.Commit{Retract: evt.ID})
	if _, err := s.GetEvent(ctx, evt.ID); !errors.Is(err, vault.ErrNotFound) {
		t.Errorf("expected retracted event to be gone, got %v", err)
	}
}

func testCommitDrop(t *testing.T, s store.Store) {
	ctx := context.Background()
	Seed(t, s)

	Advance(t, s, &store.Commit{Positions: []*position.Position{
		{Vault: Vault, Account: "alice", Shares: 3},
		{Vault: Vault, Account: "bob", Shares: 4},
	}})
	Advance(t, s, &store.Commit{Drop: []string{"bob", "nobody"}})

	if _, err := s.GetPosition(ctx, Vault, "bob"); !errors.Is(err, vault.ErrNotFound) {
		t.Errorf("expected dropped position to be gone, got %v", err)
	}
	all, err := s.ListPositions(ctx, Vault, position.ListOpts{})
	if err != nil {
		t.Fatalf("ListPositions: %v", err)
	}
	if len(all) != 1 || all[0].Account != "alice" {
		t.Errorf("positions after drop: %+v", all)
	}
}

func testCommitUpsertsPositions(t *testing.T, s store.Store) {
	ctx := context.Background()
	Seed(t, s)

	created := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	Advance(t, s, &store.Commit{Positions: []*position.Position{
		{Entity: types.NewEntityAt(created), Vault: Vault, Account: "alice", Shares: 3, Balance: 150},
		{Entity: types.NewEntityAt(created), Vault: Vault, Account: "bob", Shares: 4, Balance: 200},
	}})

	updated := created.Add(time.Hour)
	Advance(t, s, &store.Commit{Positions: []*position.Position{
		{Entity: types.Entity{CreatedAt: created, UpdatedAt: updated}, Vault: Vault, Account: "alice", Shares: 1, Balance: 50},
		{Entity: types.NewEntityAt(updated), Vault: Vault, Account: "carol", Shares: 2, Balance: 100},
	}})

	tests := []struct {
		account string
		shares  int64
		balance int64
		updated time.Time
	}{
		{"alice", 1, 50, updated},
		{"bob", 4, 200, created},
		{"carol", 2, 100, updated},
	}
	for _, tt := range tests {
		p, err := s.GetPosition(ctx, Vault, tt.account)
		if err != nil {
			t.Fatalf("GetPosition %s: %v", tt.account, err)
		}
		if p.Shares != tt.shares || p.Balance != tt.balance {
			t.Errorf("%s: got shares=%d balance=%d, want %d/%d", tt.account, p.Shares, p.Balance, tt.shares, tt.balance)
		}
		if !p.UpdatedAt.Equal(tt.updated) {
			t.Errorf("%s: updated_at %v, want %v", tt.account, p.UpdatedAt, tt.updated)
		}
	}

	sum, err := s.SumShares(ctx, Vault)
	if err != nil {
		t.Fatalf("SumShares: %v", err)
	}
	if sum != 7 {
		t.Errorf("SumShares: got %d, want 7", sum)
	}
}

func testListings(t *testing.T, s store.Store) {
	ctx := context.Background()
	Seed(t, s)

	Advance(t, s, &store.Commit{Positions: []*position.Position{
		{Vault: Vault, Account: "carol", Shares: 3},
		{Vault: Vault, Account: "alice", Shares: 5},
		{Vault: Vault, Account: "bob"},
	}})

	for i, kind := range []event.Kind{event.KindDeposit, event.KindWithdraw, event.KindDeposit} {
		evt := &event.Event{ID: id.NewEventID(), Kind: kind, Actor: "alice"}
		if i == 2 {
			evt.Actor = "bob"
		}
		Advance(t, s, &store.Commit{Append: evt})
	}

	positions := []struct {
		name string
		opts position.ListOpts
		want []string
	}{
		{"all sorted", position.ListOpts{}, []string{"alice", "bob", "carol"}},
		{"non zero", position.ListOpts{NonZero: true}, []string{"alice", "carol"}},
		{"paged", position.ListOpts{Limit: 1, Offset: 1}, []string{"bob"}},
		{"offset past end", position.ListOpts{Offset: 10}, nil},
		{"negative offset", position.ListOpts{Offset: -1}, []string{"alice", "bob", "carol"}},
		{"negative limit", position.ListOpts{Limit: -1, Offset: 2}, []string{"carol"}},
	}
	for _, tt := range positions {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.ListPositions(ctx, Vault, tt.opts)
			if err != nil {
				t.Fatalf("ListPositions: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %d positions, want %d", len(got), len(tt.want))
			}
			for i, p := range got {
				if p.Account != tt.want[i] {
					t.Errorf("position %d: got %s, want %s", i, p.Account, tt.want[i])
				}
			}
		})
	}

	sum, err := s.SumShares(ctx, Vault)
	if err != nil {
		t.Fatalf("SumShares: %v", err)
	}
	if sum != 8 {
		t.Errorf("SumShares: got %d, want 8", sum)
	}
	if empty, _ := s.SumShares(ctx, "absent"); empty != 0 {
		t.Errorf("SumShares of unknown vault: got %d", empty)
	}

	events := []struct {
		name    string
		opts    event.ListOpts
		wantSeq []int64
	}{
		{"all", event.ListOpts{}, []int64{2, 3, 4}},
		{"by kind", event.ListOpts{Kind: event.KindDeposit}, []int64{2, 4}},
		{"by actor", event.ListOpts{Actor: "bob"}, []int64{4}},
		{"from seq", event.ListOpts{FromSeq: 3}, []int64{3, 4}},
		{"paged", event.ListOpts{Limit: 1, Offset: 1}, []int64{3}},
		{"negative paging", event.ListOpts{Limit: -5, Offset: -5}, []int64{2, 3, 4}},
	}
	for _, tt := range events {
		t.Run("events "+tt.name, func(t *testing.T) {
			got, err := s.ListEvents(ctx, Vault, tt.opts)
			if err != nil {
				t.Fatalf("ListEvents: %v", err)
			}
			if len(got) != len(tt.wantSeq) {
				t.Fatalf("got %d events, want %d", len(got), len(tt.wantSeq))
			}
			for i, e := range got {
				if e.Seq != tt.wantSeq[i] {
					t.Errorf("event %d: seq %d, want %d", i, e.Seq, tt.wantSeq[i])
				}
			}
		})
	}
}
