package vault

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/xraph/vault/accounting"
	"github.com/xraph/vault/asset"
	"github.com/xraph/vault/auth"
	"github.com/xraph/vault/event"
	"github.com/xraph/vault/guard"
	"github.com/xraph/vault/id"
	"github.com/xraph/vault/plugin"
	"github.com/xraph/vault/position"
	"github.com/xraph/vault/state"
	"github.com/xraph/vault/store"
	"github.com/xraph/vault/types"
)

// Vault is the share-based custody engine.
type Vault struct {
	store    store.Store
	transfer asset.Transferer
	auth     auth.Authorizer
	plugins  *plugin.Registry
	logger   *slog.Logger
	guard    *guard.Guard
	clock    func() time.Time

	config      Config
	skipMigrate bool
	started     atomic.Bool
}

// New creates a new Vault instance. The store and transferer are required
// and cfg must validate; otherwise New fails with ErrInvalidConfig.
func New(s store.Store, t asset.Transferer, cfg Config, opts ...Option) (*Vault, error) {
	if s == nil {
		return nil, fmt.Errorf("%w: store is required", ErrInvalidConfig)
	}
	if t == nil {
		return nil, fmt.Errorf("%w: transferer is required", ErrInvalidConfig)
	}

	v := &Vault{
		store:    s,
		transfer: t,
		plugins:  plugin.NewRegistry(),
		logger:   slog.Default(),
		guard:    guard.New(),
		clock:    time.Now,
		config:   cfg.withDefaults(),
	}

	for _, opt := range opts {
		opt(v)
	}

	if err := v.config.Validate(); err != nil {
		return nil, err
	}
	if v.auth == nil {
		v.auth = auth.NewOwner(v.config.Operator)
	}

	return v, nil
}

// Start migrates the store and loads the vault's state, creating it from
// the configuration on first start. WithoutMigrate skips the migration.
func (v *Vault) Start(ctx context.Context) error {
	if !v.skipMigrate {
		if err := v.store.Migrate(ctx); err != nil {
			return err
		}
	}

	st, err := v.bootstrap(ctx)
	if err != nil {
		return err
	}

	v.started.Store(true)

	// Initialize plugins
	v.plugins.EmitInit(ctx, v)

	v.logger.Info("vault started",
		"name", st.Name,
		"asset", st.Asset.Symbol,
		"rate", st.Rate,
		"fee_bps", st.FeeBps,
		"version", st.Version,
		"paused", st.Paused,
	)

	return nil
}

func (v *Vault) bootstrap(ctx context.Context) (*state.State, error) {
	st, err := v.store.GetState(ctx, v.config.Name)
	switch {
	case err == nil:
	case errors.Is(err, ErrNotFound):
		st = &state.State{
			Entity: types.NewEntityAt(v.clock()),
			ID:     id.NewVaultID(),
			Name:   v.config.Name,
			Asset:  v.config.Asset,
			Rate:   v.config.InitialRate,
			FeeBps: v.config.InitialFeeBps,
		}
		err = v.store.CreateState(ctx, st)
		if errors.Is(err, ErrAlreadyExists) {
			// Another process created it first.
			st, err = v.store.GetState(ctx, v.config.Name)
		}
		if err != nil {
			return nil, err
		}
		v.logger.Info("vault state created", "name", st.Name, "id", st.ID.String())
	default:
		return nil, err
	}

	if !st.Asset.Equal(v.config.Asset) {
		return nil, fmt.Errorf("%w: vault %q holds %s, configured asset is %s",
			ErrInvalidConfig, st.Name, st.Asset, v.config.Asset)
	}
	return st, nil
}

// Stop shuts down the Vault.
func (v *Vault) Stop() error {
	v.started.Store(false)

	ctx := context.Background()
	v.plugins.EmitShutdown(ctx)

	return v.store.Close()
}

// Config returns the effective configuration.
func (v *Vault) Config() Config { return v.config }

// Store returns the underlying store.
func (v *Vault) Store() store.Store { return v.store }

// Plugins returns the plugin registry.
func (v *Vault) Plugins() *plugin.Registry { return v.plugins }

// Authorizer returns the authorizer deciding privileged access.
func (v *Vault) Authorizer() auth.Authorizer { return v.auth }

// ──────────────────────────────────────────────────
// Views
// ──────────────────────────────────────────────────

// State returns the current vault state.
func (v *Vault) State(ctx context.Context) (*state.State, error) {
	if !v.started.Load() {
		return nil, ErrNotStarted
	}
	release, err := v.guard.Read(ctx)
	if err != nil {
		return nil, err
	}
	defer release()
	return v.store.GetState(ctx, v.config.Name)
}

// IsPaused reports whether value-moving operations are blocked.
func (v *Vault) IsPaused(ctx context.Context) (bool, error) {
	st, err := v.State(ctx)
	if err != nil {
		return false, err
	}
	return st.Paused, nil
}

// Position returns account's holding. Accounts that never deposited get a
// zero position.
func (v *Vault) Position(ctx context.Context, account string) (*position.Position, error) {
	if !v.started.Load() {
		return nil, ErrNotStarted
	}
	release, err := v.guard.Read(ctx)
	if err != nil {
		return nil, err
	}
	defer release()
	return v.position(ctx, account)
}

func (v *Vault) position(ctx context.Context, account string) (*position.Position, error) {
	p, err := v.store.GetPosition(ctx, v.config.Name, account)
	if errors.Is(err, ErrNotFound) {
		return position.Empty(v.config.Name, account), nil
	}
	return p, err
}

// Positions lists holdings in the vault.
func (v *Vault) Positions(ctx context.Context, opts position.ListOpts) ([]*position.Position, error) {
	if !v.started.Load() {
		return nil, ErrNotStarted
	}
	release, err := v.guard.Read(ctx)
	if err != nil {
		return nil, err
	}
	defer release()
	return v.store.ListPositions(ctx, v.config.Name, opts)
}

// Events lists the vault's event log in sequence order.
func (v *Vault) Events(ctx context.Context, opts event.ListOpts) ([]*event.Event, error) {
	if !v.started.Load() {
		return nil, ErrNotStarted
	}
	release, err := v.guard.Read(ctx)
	if err != nil {
		return nil, err
	}
	defer release()
	return v.store.ListEvents(ctx, v.config.Name, opts)
}

// PreviewDeposit quotes a deposit of amount at the current rate and fee
// without changing anything.
func (v *Vault) PreviewDeposit(ctx context.Context, amount int64) (accounting.DepositQuote, error) {
	if amount <= 0 {
		return accounting.DepositQuote{}, ErrAmountMustBeGreaterThanZero
	}
	st, err := v.State(ctx)
	if err != nil {
		return accounting.DepositQuote{}, err
	}
	q, err := accounting.QuoteDeposit(amount, st.FeeBps, st.Rate)
	if err != nil {
		return accounting.DepositQuote{}, arithmetic(err)
	}
	return q, nil
}

// PreviewRedeem returns the payout for shares at the current rate.
func (v *Vault) PreviewRedeem(ctx context.Context, shares int64) (int64, error) {
	if shares <= 0 {
		return 0, ErrAmountMustBeGreaterThanZero
	}
	st, err := v.State(ctx)
	if err != nil {
		return 0, err
	}
	payout, err := accounting.Redeem(shares, st.Rate)
	if err != nil {
		return 0, arithmetic(err)
	}
	return payout, nil
}
