package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/pgdriver"
	_ "github.com/xraph/grove/drivers/pgdriver/pgmigrate"
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

// Store implements store.Store using PostgreSQL via Grove ORM.
//
// Commit runs in a single transaction. It claims the next state version
// with a conditional update before writing positions and events, so
// concurrent writers to the same vault fail with vault.ErrConflict rather
// than interleave, and a failed write leaves nothing behind.
type Store struct {
	db *grove.DB
	pg *pgdriver.PgDB
}

// New creates a new PostgreSQL store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db: db,
		pg: pgdriver.Unwrap(db),
	}
}

// DB returns the underlying grove database for direct access.
func (s *Store) DB() *grove.DB { return s.db }

// Migrate creates the required tables and indexes using the grove orchestrator.
func (s *Store) Migrate(ctx context.Context) error {
	executor, err := migrate.NewExecutorFor(s.pg)
	if err != nil {
		return fmt.Errorf("vault/postgres: create migration executor: %w", err)
	}
	orch := migrate.NewOrchestrator(executor, Migrations)
	if _, err := orch.Migrate(ctx); err != nil {
		return fmt.Errorf("vault/postgres: migration failed: %w", err)
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
	res, err := s.pg.NewInsert(toStateModel(st)).
		OnConflict("(name) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("vault/postgres: create state %q: %w", st.Name, err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("vault/postgres: create state %q: %w", st.Name, vault.ErrAlreadyExists)
	}
	return nil
}

func (s *Store) GetState(ctx context.Context, name string) (*state.State, error) {
	m := new(stateModel)
	err := s.pg.NewSelect(m).
		Where("name = $1", name).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, fmt.Errorf("vault/postgres: state %q: %w", name, vault.ErrNotFound)
		}
		return nil, err
	}
	return fromStateModel(m)
}

// ==================== Position Store ====================

func (s *Store) GetPosition(ctx context.Context, vaultName, account string) (*position.Position, error) {
	m := new(positionModel)
	err := s.pg.NewSelect(m).
		Where("vault = $1", vaultName).
		Where("account = $2", account).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, fmt.Errorf("vault/postgres: position %s/%s: %w", vaultName, account, vault.ErrNotFound)
		}
		return nil, err
	}
	return fromPositionModel(m), nil
}

func (s *Store) ListPositions(ctx context.Context, vaultName string, opts position.ListOpts) ([]*position.Position, error) {
	var models []positionModel
	q := s.pg.NewSelect(&models).Where("vault = $1", vaultName)

	if opts.NonZero {
		q = q.Where("(shares <> 0 OR balance <> 0)")
	}
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		q = q.Offset(opts.Offset)
	}
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
	err := s.pg.NewRaw(`
		SELECT COALESCE(SUM(shares), 0) FROM vault_positions WHERE vault = $1
	`, vaultName).Scan(ctx, &total)
	if err != nil {
		return 0, err
	}
	return total, nil
}

// ==================== Event Store ====================

func (s *Store) GetEvent(ctx context.Context, eventID id.EventID) (*event.Event, error) {
	m := new(eventModel)
	err := s.pg.NewSelect(m).
		Where("id = $1", eventID.String()).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, fmt.Errorf("vault/postgres: event %s: %w", eventID, vault.ErrNotFound)
		}
		return nil, err
	}
	return fromEventModel(m)
}

func (s *Store) ListEvents(ctx context.Context, vaultName string, opts event.ListOpts) ([]*event.Event, error) {
	var models []eventModel
	q := s.pg.NewSelect(&models).Where("vault = $1", vaultName)

	argIdx := 1
	if opts.Kind != "" {
		argIdx++
		q = q.Where(fmt.Sprintf("kind = $%d", argIdx), string(opts.Kind))
	}
	if opts.Actor != "" {
		argIdx++
		q = q.Where(fmt.Sprintf("actor = $%d", argIdx), opts.Actor)
	}
	if opts.FromSeq > 0 {
		argIdx++
		q = q.Where(fmt.Sprintf("seq >= $%d", argIdx), opts.FromSeq)
	}
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		q = q.Offset(opts.Offset)
	}
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
	tx, err := s.pg.BeginTxQuery(ctx, nil)
	if err != nil {
		return fmt.Errorf("vault/postgres: begin commit: %w", err)
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
		return fmt.Errorf("vault/postgres: commit %q at version %d: %w", c.State.Name, c.ExpectedVersion, vault.ErrConflict)
	}

	for _, p := range c.Positions {
		_, err := tx.NewInsert(toPositionModel(p)).
			OnConflict("(vault, account) DO UPDATE").
			Set("balance = EXCLUDED.balance").
			Set("shares = EXCLUDED.shares").
			Set("updated_at = EXCLUDED.updated_at").
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("vault/postgres: commit position %s/%s: %w", p.Vault, p.Account, err)
		}
	}

	for _, account := range c.Drop {
		_, err := tx.NewDelete((*positionModel)(nil)).
			Where("vault = $1", c.State.Name).
			Where("account = $2", account).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("vault/postgres: drop position %s/%s: %w", c.State.Name, account, err)
		}
	}

	if c.Append != nil {
		if _, err := tx.NewInsert(toEventModel(c.Append)).Exec(ctx); err != nil {
			return fmt.Errorf("vault/postgres: commit event: %w", err)
		}
	}

	if !c.Retract.IsNil() {
		_, err := tx.NewDelete((*eventModel)(nil)).
			Where("id = $1", c.Retract.String()).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("vault/postgres: retract event %s: %w", c.Retract, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("vault/postgres: commit %q: %w", c.State.Name, err)
	}
	return nil
}

// claimVersion writes the new state only while the stored version still
// equals c.ExpectedVersion, and reports whether it did. The row lock it
// takes holds off concurrent writers until the transaction ends.
func claimVersion(ctx context.Context, tx *pgdriver.PgTx, c *vaultstore.Commit) (bool, error) {
	st := c.State
	res, err := tx.NewUpdate((*stateModel)(nil)).
		Set("rate = $1", st.Rate).
		Set("fee_bps = $2", st.FeeBps).
		Set("total_deposits = $3", st.TotalDeposits).
		Set("total_shares = $4", st.TotalShares).
		Set("operator_shares = $5", st.OperatorShares).
		Set("paused = $6", st.Paused).
		Set("version = $7", st.Version).
		Set("updated_at = $8", st.UpdatedAt).
		Where("name = $9", st.Name).
		Where("version = $10", c.ExpectedVersion).
		Exec(ctx)
	if err != nil {
		return false, fmt.Errorf("vault/postgres: commit state %q: %w", st.Name, err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}

// isNoRows checks for the standard sql.ErrNoRows sentinel.
func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
