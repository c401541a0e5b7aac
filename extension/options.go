package extension

import (
	"github.com/xraph/vault"
	"github.com/xraph/vault/asset"
	"github.com/xraph/vault/plugin"
	"github.com/xraph/vault/store"
	"github.com/xraph/vault/types"
)

// Option configures the Vault Forge extension.
type Option func(*Extension)

// WithStore sets the store for the vault engine.
func WithStore(s store.Store) Option {
	return func(e *Extension) {
		e.store = s
	}
}

// WithTransferer sets the asset-transfer collaborator. It is required.
func WithTransferer(t asset.Transferer) Option {
	return func(e *Extension) {
		e.transfer = t
	}
}

// WithVaultOption passes a vault.Option through to the underlying engine.
func WithVaultOption(opt vault.Option) Option {
	return func(e *Extension) {
		e.vaultOpts = append(e.vaultOpts, opt)
	}
}

// WithPlugin registers a vault plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(e *Extension) {
		e.vaultOpts = append(e.vaultOpts, vault.WithPlugin(p))
	}
}

// WithConfig sets the Forge extension configuration.
func WithConfig(cfg Config) Option {
	return func(e *Extension) { e.config = cfg }
}

// WithDisableMigrate prevents store migration on start.
func WithDisableMigrate() Option {
	return func(e *Extension) { e.config.DisableMigrate = true }
}

// WithRequireConfig requires config to be present in YAML files.
// If true and no config is found, Register returns an error.
func WithRequireConfig(require bool) Option {
	return func(e *Extension) { e.config.RequireConfig = require }
}

// WithName sets the vault name.
func WithName(name string) Option {
	return func(e *Extension) { e.config.Name = name }
}

// WithAsset sets the custody asset.
func WithAsset(a types.Asset) Option {
	return func(e *Extension) { e.config.Asset = a }
}

// WithOperator sets the privileged identity.
func WithOperator(operator string) Option {
	return func(e *Extension) { e.config.Operator = operator }
}

// WithInitialRate sets the rate used when the vault is first created.
func WithInitialRate(rate int64) Option {
	return func(e *Extension) { e.config.InitialRate = rate }
}

// WithInitialFeeBps sets the fee used when the vault is first created.
func WithInitialFeeBps(bps int64) Option {
	return func(e *Extension) { e.config.InitialFeeBps = bps }
}
