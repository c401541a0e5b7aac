package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/sqlitedriver"
	_ "github.com/xraph/grove/drivers/sqlitedriver/sqlitemigrate"
	"github.com/xraph/grove/migrate"

	"github.com/xraph/vault"
	"github.com/xraph/vault/event"
	"github.com/xraph/vault/id"
	"github.com/xraph/vault/position"
	"github.com/xraph/vault/state"
	vaultstore "github.com/xraph/vault/store"
)

// compile-time interface check
var _ vaultstore.Store = (*Store)(nil)

// Store implements store.Store using SQLite via Grove ORM. Each Commit runs
// in one transaction.
type Store struct {
	db  *grove.DB
	sdb *sqlitedriver.SqliteDB
}

// New creates a new SQLite store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db:  db,
		sdb: sqlitedriver.Unwrap(db),
	}
}

// DB returns the underlying grove database for direct access.
func (s *Store) DB() *grove.DB { return s.db }

// Migrate creates the required tables and indexes using the grove orchestrator.
func (s *Store) Migrate(ctx context.Context) error {
	executor, err := migrate.NewExecutorFor(s.sdb)
	if err != nil {
		return fmt.Errorf("vault/sqlite: create migration executor: %w", err)
	}
	orch := migrate.NewOrchestrator(executor, Migrations)
	if _, err := orch.Migrate(ctx); err != nil {
		return fmt.Errorf("vault/sqlite: migration failed: %w", err)
	}
	return nil
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// ==================== State Store ====================

func (s *Store) CreateState(ctx context.Context, st *state.State) error {
	res, err := s.sdb.NewInsert(toStateModel(st)).
		OnConflict("(name) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("vault/sqlite: create state %q: %w", st.Name, err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("vault/sqlite: create state %q: %w", st.Name, vault.ErrAlreadyExists)
	}
	return nil
}

func (s *Store) GetState(ctx context.Context, name string) (*state.State, error) {
	m := new(stateModel)
	err := s.sdb.NewSelect(m).
		Where("name = ?", name).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, fmt.Errorf("vault/sqlite: state %q: %w", name, vault.ErrNotFound)
		}
		return nil, err
	}
	return fromStateModel(m)
}

// ==================== Position Store ====================

func (s *Store) GetPosition(ctx context.Context, vaultName, account string) (*position.Position, error) {
	m := new(positionModel)
	err := s.sdb.NewSelect(m).
		Where("vault = ?", vaultName).
		Where("account = ?", account).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, fmt.Errorf("vault/sqlite: position %s/%s: %w", vaultName, account, vault.ErrNotFound)
		}
		return nil, err
	}
	return fromPositionModel(m), nil
}

func (s *Store) ListPositions(ctx context.Context, vaultName string, opts position.ListOpts) ([]*position.Position, error) {
	var models []positionModel
	q := s.sdb.NewSelect(&models).Where("vault = ?", vaultName)

	if opts.NonZero {
		q = q.Where("(shares <> 0 OR balance <> 0)")
	}
	q = page(q, opts.Limit, opts.Offset)
	q = q.OrderExpr("account ASC")

	if err := q.Scan(ctx); err != nil {
		return nil, err
	}

	result := make([]*position.Position, len(models))
	for i := range models {
		result[i] = fromPositionModel(&models[i])
	}
	return result, nil
}

func (s *Store) SumShares(ctx context.Context, vaultName string) (int64, error) {
	var total int64
	err := s.sdb.NewRaw(`
		SELECT COALESCE(SUM(shares), 0) FROM vault_positions WHERE vault = ?
	`, vaultName).Scan(ctx, &total)
	if err != nil {
		return 0, err
	}
	return total, nil
}

// ==================== Event Store ====================

func (s *Store) GetEvent(ctx context.Context, eventID id.EventID) (*event.Event, error) {
	m := new(eventModel)
	err := s.sdb.NewSelect(m).
		Where("id = ?", eventID.String()).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, fmt.Errorf("vault/sqlite: event %s: %w", eventID, vault.ErrNotFound)
		}
		return nil, err
	}
	return fromEventModel(m)
}

func (s *Store) ListEvents(ctx context.Context, vaultName string, opts event.ListOpts) ([]*event.Event, error) {
	var models []eventModel
	q := s.sdb.NewSelect(&models).Where("vault = ?", vaultName)

	if opts.Kind != "" {
		q = q.Where("kind = ?", string(opts.Kind))
	}
	if opts.Actor != "" {
		q = q.Where("actor = ?", opts.Actor)
	}
	if opts.FromSeq > 0 {
		q = q.Where("seq >= ?", opts.FromSeq)
	}
	q = page(q, opts.Limit, opts.Offset)
	q = q.OrderExpr("seq ASC")

	if err := q.Scan(ctx); err != nil {
		return nil, err
	}

	result := make([]*event.Event, len(models))
	for i := range models {
		e, err := fromEventModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = e
	}
	return result, nil
}

// ==================== Commit ====================

// Commit applies c inside one transaction. A version conflict rolls back
// before anything else is written.
func (s *Store) Commit(ctx context.Context, c *vaultstore.Commit) error {
	tx, err := s.sdb.BeginTxQuery(ctx, nil)
	if err != nil {
		return fmt.Errorf("vault/sqlite: begin commit: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	claimed, err := claimVersion(ctx, tx, c)
	if err != nil {
		return err
	}
	if !claimed {
		_ = tx.Rollback()
		if _, err := s.GetState(ctx, c.State.Name); err != nil {
			return err
		}
		return fmt.Errorf("vault/sqlite: commit %q at version %d: %w", c.State.Name, c.ExpectedVersion, vault.ErrConflict)
	}

	for _, p := range c.Positions {
		_, err := tx.NewInsert(toPositionModel(p)).
			OnConflict("(vault, account) DO UPDATE").
			Set("balance = EXCLUDED.balance").
			Set("shares = EXCLUDED.shares").
			Set("updated_at = EXCLUDED.updated_at").
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("vault/sqlite: commit position %s/%s: %w", p.Vault, p.Account, err)
		}
	}

	for _, account := range c.Drop {
		_, err := tx.NewDelete((*positionModel)(nil)).
			Where("vault = ?", c.State.Name).
			Where("account = ?", account).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("vault/sqlite: drop position %s/%s: %w", c.State.Name, account, err)
		}
	}

	if c.Append != nil {
		if _, err := tx.NewInsert(toEventModel(c.Append)).Exec(ctx); err != nil {
			return fmt.Errorf("vault/sqlite: commit event: %w", err)
		}
	}

	if !c.Retract.IsNil() {
		_, err := tx.NewDelete((*eventModel)(nil)).
			Where("id = ?", c.Retract.String()).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("vault/sqlite: retract event %s: %w", c.Retract, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("vault/sqlite: commit %q: %w", c.State.Name, err)
	}
	return nil
}

// claimVersion writes the new state only while the stored version still
// equals c.ExpectedVersion, and reports whether it did.
func claimVersion(ctx context.Context, tx *sqlitedriver.SqliteTx, c *vaultstore.Commit) (bool, error) {
	st := c.State
	res, err := tx.NewUpdate((*stateModel)(nil)).
		Set("rate = ?", st.Rate).
		Set("fee_bps = ?", st.FeeBps).
		Set("total_deposits = ?", st.TotalDeposits).
		Set("total_shares = ?", st.TotalShares).
		Set("operator_shares = ?", st.OperatorShares).
		Set("paused = ?", st.Paused).
		Set("version = ?", st.Version).
		Set("updated_at = ?", st.UpdatedAt).
		Where("name = ?", st.Name).
		Where("version = ?", c.ExpectedVersion).
		Exec(ctx)
	if err != nil {
		return false, fmt.Errorf("vault/sqlite: commit state %q: %w", st.Name, err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}

// page applies limit and offset. SQLite rejects OFFSET without LIMIT, so an
// offset alone gets an unbounded limit.
func page(q *sqlitedriver.SelectQuery, limit, offset int) *sqlitedriver.SelectQuery {
	switch {
	case limit > 0:
		q = q.Limit(limit)
	case offset > 0:
		q = q.Limit(math.MaxInt)
	}
	if offset > 0 {
		q = q.Offset(offset)
	}
	return q
}

// isNoRows checks for the standard sql.ErrNoRows sentinel.
func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
