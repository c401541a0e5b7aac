package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/mongodriver"

	"github.com/xraph/vault"
	"github.com/xraph/vault/event"
	"github.com/xraph/vault/id"
	"github.com/xraph/vault/position"
	"github.com/xraph/vault/state"
	vaultstore "github.com/xraph/vault/store"
)

// Collection name constants.
const (
	colStates    = "vault_states"
	colPositions = "vault_positions"
	colEvents    = "vault_events"
)

// compile-time interface check
var _ vaultstore.Store = (*Store)(nil)

// Store implements store.Store using MongoDB via Grove ORM.
//
// Commit runs in a session transaction. The state document is updated
// first with a filter on its version, which is what rejects a concurrent
// writer.
type Store struct {
	db  *grove.DB
	mdb *mongodriver.MongoDB
}

// New creates a new MongoDB store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db:  db,
		mdb: mongodriver.Unwrap(db),
	}
}

// DB returns the underlying grove database for direct access.
func (s *Store) DB() *grove.DB { return s.db }

// Migrate creates indexes for all vault collections.
func (s *Store) Migrate(ctx context.Context) error {
	indexes := migrationIndexes()

	for col, models := range indexes {
		if len(models) == 0 {
			continue
		}
		_, err := s.mdb.Collection(col).Indexes().CreateMany(ctx, models)
		if err != nil {
			return fmt.Errorf("vault/mongo: migrate %s indexes: %w", col, err)
		}
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
	_, err := s.mdb.NewInsert(toStateModel(st)).Exec(ctx)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("vault/mongo: create state %q: %w", st.Name, vault.ErrAlreadyExists)
		}
		return fmt.Errorf("vault/mongo: create state: %w", err)
	}
	return nil
}

func (s *Store) GetState(ctx context.Context, name string) (*state.State, error) {
	var m stateModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": name}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, fmt.Errorf("vault/mongo: state %q: %w", name, vault.ErrNotFound)
		}
		return nil, fmt.Errorf("vault/mongo: get state: %w", err)
	}
	return fromStateModel(&m)
}

// ==================== Position Store ====================

func (s *Store) GetPosition(ctx context.Context, vaultName, account string) (*position.Position, error) {
	var m positionModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": positionKey(vaultName, account)}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, fmt.Errorf("vault/mongo: position %s/%s: %w", vaultName, account, vault.ErrNotFound)
		}
		return nil, fmt.Errorf("vault/mongo: get position: %w", err)
	}
	return fromPositionModel(&m), nil
}

func (s *Store) ListPositions(ctx context.Context, vaultName string, opts position.ListOpts) ([]*position.Position, error) {
	var models []positionModel

	filter := bson.M{"vault": vaultName}
	if opts.NonZero {
		filter["$or"] = bson.A{
			bson.M{"shares": bson.M{"$ne": 0}},
			bson.M{"balance": bson.M{"$ne": 0}},
		}
	}

	q := s.mdb.NewFind(&models).
		Filter(filter).
		Sort(bson.D{{Key: "account", Value: 1}})

	if opts.Limit > 0 {
		q = q.Limit(int64(opts.Limit))
	}
	if opts.Offset > 0 {
		q = q.Skip(int64(opts.Offset))
	}

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("vault/mongo: list positions: %w", err)
	}

	result := make([]*position.Position, len(models))
	for i := range models {
		result[i] = fromPositionModel(&models[i])
	}
	return result, nil
}

func (s *Store) SumShares(ctx context.Context, vaultName string) (int64, error) {
	pipeline := bson.A{
		bson.M{"$match": bson.M{"vault": vaultName}},
		bson.M{
			"$group": bson.M{
				"_id":   nil,
				"total": bson.M{"$sum": "$shares"},
			},
		},
	}

	cursor, err := s.mdb.Collection(colPositions).Aggregate(ctx, pipeline)
	if err != nil {
		return 0, fmt.Errorf("vault/mongo: sum shares: %w", err)
	}
	defer cursor.Close(ctx)

	var results []struct {
		Total int64 `bson:"total"`
	}
	if err := cursor.All(ctx, &results); err != nil {
		return 0, fmt.Errorf("vault/mongo: sum shares decode: %w", err)
	}

	if len(results) == 0 {
		return 0, nil
	}
	return results[0].Total, nil
}

// ==================== Event Store ====================

func (s *Store) GetEvent(ctx context.Context, eventID id.EventID) (*event.Event, error) {
	var m eventModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": eventID.String()}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, fmt.Errorf("vault/mongo: event %s: %w", eventID, vault.ErrNotFound)
		}
		return nil, fmt.Errorf("vault/mongo: get event: %w", err)
	}
	return fromEventModel(&m)
}

func (s *Store) ListEvents(ctx context.Context, vaultName string, opts event.ListOpts) ([]*event.Event, error) {
	var models []eventModel

	filter := bson.M{"vault": vaultName}
	if opts.Kind != "" {
		filter["kind"] = string(opts.Kind)
	}
	if opts.Actor != "" {
		filter["actor"] = opts.Actor
	}
	if opts.FromSeq > 0 {
		filter["seq"] = bson.M{"$gte": opts.FromSeq}
	}

	q := s.mdb.NewFind(&models).
		Filter(filter).
		Sort(bson.D{{Key: "seq", Value: 1}})

	if opts.Limit > 0 {
		q = q.Limit(int64(opts.Limit))
	}
	if opts.Offset > 0 {
		q = q.Skip(int64(opts.Offset))
	}

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("vault/mongo: list events: %w", err)
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

// Commit applies c inside a multi-document transaction. MongoDB only runs
// transactions on a replica set or sharded cluster, so a standalone server
// rejects every commit.
func (s *Store) Commit(ctx context.Context, c *vaultstore.Commit) error {
	raw, err := s.mdb.GroveTx(ctx, 0, false)
	if err != nil {
		return fmt.Errorf("vault/mongo: begin commit: %w", err)
	}
	tx, ok := raw.(*mongodriver.MongoTx)
	if !ok {
		return fmt.Errorf("vault/mongo: begin commit: unexpected transaction type %T", raw)
	}
	done := false
	defer func() {
		if !done {
			_ = tx.Rollback()
		}
	}()

	st := c.State
	res, err := tx.NewUpdate((*stateModel)(nil)).
		Filter(bson.M{"_id": st.Name, "version": c.ExpectedVersion}).
		Set("rate", st.Rate).
		Set("fee_bps", st.FeeBps).
		Set("total_deposits", st.TotalDeposits).
		Set("total_shares", st.TotalShares).
		Set("operator_shares", st.OperatorShares).
		Set("paused", st.Paused).
		Set("version", st.Version).
		Set("updated_at", st.UpdatedAt).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("vault/mongo: commit state %q: %w", st.Name, err)
	}
	if res.MatchedCount() == 0 {
		done = true
		_ = tx.Rollback()
		if _, err := s.GetState(ctx, st.Name); err != nil {
			return err
		}
		return fmt.Errorf("vault/mongo: commit %q at version %d: %w", st.Name, c.ExpectedVersion, vault.ErrConflict)
	}

	for _, p := range c.Positions {
		m := toPositionModel(p)
		_, err := tx.NewUpdate(m).
			Filter(bson.M{"_id": m.Key}).
			SetUpdate(bson.M{"$set": bson.M{
				"_id":        m.Key,
				"vault":      m.Vault,
				"account":    m.Account,
				"balance":    m.Balance,
				"shares":     m.Shares,
				"created_at": m.CreatedAt,
				"updated_at": m.UpdatedAt,
			}}).
			Upsert().
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("vault/mongo: commit position %s: %w", m.Key, err)
		}
	}

	for _, account := range c.Drop {
		_, err := tx.NewDelete((*positionModel)(nil)).
			Filter(bson.M{"_id": positionKey(st.Name, account)}).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("vault/mongo: drop position %s/%s: %w", st.Name, account, err)
		}
	}

	if c.Append != nil {
		if _, err := tx.NewInsert(toEventModel(c.Append)).Exec(ctx); err != nil {
			return fmt.Errorf("vault/mongo: commit event: %w", err)
		}
	}

	if !c.Retract.IsNil() {
		_, err := tx.NewDelete((*eventModel)(nil)).
			Filter(bson.M{"_id": c.Retract.String()}).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("vault/mongo: retract event %s: %w", c.Retract, err)
		}
	}

	done = true
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("vault/mongo: commit %q: %w", st.Name, err)
	}
	return nil
}

// isNoDocuments checks if an error wraps mongo.ErrNoDocuments.
func isNoDocuments(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments)
}

// migrationIndexes returns the index definitions for all vault collections.
func migrationIndexes() map[string][]mongo.IndexModel {
	return map[string][]mongo.IndexModel{
		colStates: {
			{
				Keys:    bson.D{{Key: "vault_id", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
		},
		colPositions: {
			{Keys: bson.D{{Key: "vault", Value: 1}, {Key: "account", Value: 1}}},
		},
		colEvents: {
			{
				Keys:    bson.D{{Key: "vault", Value: 1}, {Key: "seq", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
			{Keys: bson.D{{Key: "vault", Value: 1}, {Key: "kind", Value: 1}}},
			{Keys: bson.D{{Key: "vault", Value: 1}, {Key: "actor", Value: 1}}},
		},
	}
}
