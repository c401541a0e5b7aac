package sqlite_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/sqlitedriver"

	"github.com/xraph/vault"
	"github.com/xraph/vault/asset"
	"github.com/xraph/vault/event"
	"github.com/xraph/vault/id"
	"github.com/xraph/vault/position"
	"github.com/xraph/vault/store"
	"github.com/xraph/vault/store/sqlite"
	"github.com/xraph/vault/store/storetest"
	"github.com/xraph/vault/types"
)

// openStore returns a migrated store over a fresh database file.
func openStore(t *testing.T) *sqlite.Store {
	t.Helper()
	ctx := context.Background()

	sdb := sqlitedriver.New()
	dsn := filepath.Join(t.TempDir(), "vault.db") + "?_pragma=busy_timeout(5000)"
	if err := sdb.Open(ctx, dsn); err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	db, err := grove.Open(sdb)
	if err != nil {
		t.Fatalf("grove.Open: %v", err)
	}

	s := sqlite.New(db)
	t.Cleanup(func() { _ = s.Close() })

	if err := s.Migrate(ctx); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	return s
}

func TestStoreContract(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store { return openStore(t) })
}

func TestMigrateIsRepeatable(t *testing.T) {
	s := openStore(t)
	if err := s.Migrate(context.Background()); err != nil {
		t.Fatalf("second Migrate: %v", err)
	}
	if err := s.Ping(context.Background()); err != nil {
		t.Fatalf("Ping: %v", err)
	}
}

func TestCommitIsAllOrNothing(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)
	storetest.Seed(t, s)

	first := &event.Event{ID: id.NewEventID(), Kind: event.KindDeposit}
	storetest.Advance(t, s, &store.Commit{
		Positions: []*position.Position{{Vault: storetest.Vault, Account: "alice", Shares: 10, Balance: 500}},
		Append:    first,
	})
	before, err := s.GetState(ctx, storetest.Vault)
	if err != nil {
		t.Fatalf("GetState: %v", err)
	}

	// Reusing the event ID makes the last write of the commit fail.
	next := before.Clone()
	next.Version++
	next.TotalShares = 200
	err = s.Commit(ctx, &store.Commit{
		ExpectedVersion: before.Version,
		State:           next,
		Positions: []*position.Position{
			{Vault: storetest.Vault, Account: "alice", Shares: 190, Balance: 9500},
			{Vault: storetest.Vault, Account: "bob", Shares: 10, Balance: 500},
		},
		Append: &event.Event{ID: first.ID, Vault: storetest.Vault, Seq: next.Version, Kind: event.KindDeposit},
	})
	if err == nil {
		t.Fatal("expected the duplicate event to fail the commit")
	}

	after, err := s.GetState(ctx, storetest.Vault)
	if err != nil {
		t.Fatalf("GetState: %v", err)
	}
	if after.Version != before.Version || after.TotalShares != before.TotalShares {
		t.Errorf("state changed by a failed commit: before %+v after %+v", before, after)
	}
	alice, err := s.GetPosition(ctx, storetest.Vault, "alice")
	if err != nil {
		t.Fatalf("GetPosition: %v", err)
	}
	if alice.Shares != 10 || alice.Balance != 500 {
		t.Errorf("alice changed by a failed commit: %+v", alice)
	}
	if _, err := s.GetPosition(ctx, storetest.Vault, "bob"); !errors.Is(err, vault.ErrNotFound) {
		t.Errorf("bob written by a failed commit: %v", err)
	}

	// The store is still usable at the old version.
	storetest.Advance(t, s, &store.Commit{Append: &event.Event{ID: id.NewEventID(), Kind: event.KindPaused}})
}

// newVault starts a vault over a fresh database. alice is funded and
// approved; dave has nothing, so pulling from him fails.
func newVault(t *testing.T) (*vault.Vault, *sqlite.Store, *asset.Ledger) {
	t.Helper()

	token := asset.NewLedger("vault")
	if err := token.Mint("alice", 100_000); err != nil {
		t.Fatalf("Mint: %v", err)
	}
	if err := token.Approve("alice", 100_000); err != nil {
		t.Fatalf("Approve: %v", err)
	}

	cfg := vault.DefaultConfig()
	cfg.Asset = types.NewAsset("USDC", 6)
	cfg.InitialRate = 50
	cfg.InitialFeeBps = 100
	cfg.Operator = "operator"

	s := openStore(t)
	v, err := vault.New(s, token, cfg, vault.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := v.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(func() { _ = v.Stop() })

	return v, s, token
}

func TestVaultDepositWithdraw(t *testing.T) {
	ctx := context.Background()
	v, _, token := newVault(t)

	dep, err := v.Deposit(ctx, "alice", 10000)
	if err != nil {
		t.Fatalf("Deposit: %v", err)
	}
	if dep.Shares != 198 || dep.FeeShares != 2 {
		t.Errorf("deposit event: %+v", dep)
	}

	wd, err := v.Withdraw(ctx, "alice", 98)
	if err != nil {
		t.Fatalf("Withdraw: %v", err)
	}
	if wd.Payout != 4900 {
		t.Errorf("payout: got %d, want 4900", wd.Payout)
	}

	p, err := v.Position(ctx, "alice")
	if err != nil {
		t.Fatalf("Position: %v", err)
	}
	if p.Shares != 100 || p.Balance != 5000 {
		t.Errorf("position: %+v", p)
	}
	if got := token.BalanceOf("alice"); got != 100_000-10000+4900 {
		t.Errorf("alice balance: %d", got)
	}

	st, err := v.State(ctx)
	if err != nil {
		t.Fatalf("State: %v", err)
	}
	if st.Version != 2 || st.TotalShares != 102 || st.OperatorShares != 2 || st.TotalDeposits != 5000 {
		t.Errorf("state: %+v", st)
	}

	events, err := v.Events(ctx, event.ListOpts{})
	if err != nil {
		t.Fatalf("Events: %v", err)
	}
	if len(events) != 2 || events[0].Kind != event.KindDeposit || events[1].Kind != event.KindWithdraw {
		t.Errorf("events: %+v", events)
	}

	r, err := v.Audit(ctx)
	if err != nil {
		t.Fatalf("Audit: %v", err)
	}
	if !r.SharesBalanced {
		t.Errorf("audit: %+v", r)
	}
}

func TestVaultFailedTransferIsReverted(t *testing.T) {
	ctx := context.Background()
	v, s, _ := newVault(t)

	if _, err := v.Deposit(ctx, "alice", 10000); err != nil {
		t.Fatalf("Deposit: %v", err)
	}
	before, err := v.State(ctx)
	if err != nil {
		t.Fatalf("State: %v", err)
	}

	if _, err := v.Deposit(ctx, "dave", 5000); !errors.Is(err, vault.ErrTransferFailed) {
		t.Fatalf("expected ErrTransferFailed, got %v", err)
	}

	after, err := v.State(ctx)
	if err != nil {
		t.Fatalf("State: %v", err)
	}
	if after.TotalShares != before.TotalShares ||
		after.TotalDeposits != before.TotalDeposits ||
		after.OperatorShares != before.OperatorShares {
		t.Errorf("state not restored: before %+v after %+v", before, after)
	}
	if after.Version != before.Version+2 {
		t.Errorf("version: got %d, want %d", after.Version, before.Version+2)
	}

	if _, err := s.GetPosition(ctx, "default", "dave"); !errors.Is(err, vault.ErrNotFound) {
		t.Errorf("failed first deposit left a position row: %v", err)
	}
	events, err := v.Events(ctx, event.ListOpts{})
	if err != nil {
		t.Fatalf("Events: %v", err)
	}
	if len(events) != 1 {
		t.Errorf("event log: got %d events, want 1", len(events))
	}
}
