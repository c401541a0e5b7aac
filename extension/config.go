package extension

import (
	"github.com/xraph/vault"
	"github.com/xraph/vault/types"
)

// Config holds the Vault extension configuration.
// Fields can be set programmatically via Option functions or loaded from
// YAML configuration files (under "extensions.vault" or "vault" keys).
type Config struct {
	// DisableMigrate prevents store migration on start. The vault is still
	// started; the store schema is expected to exist.
	DisableMigrate bool `json:"disable_migrate" mapstructure:"disable_migrate" yaml:"disable_migrate"`

	// Name keys the vault's records in the store (default: "default").
	Name string `json:"name" mapstructure:"name" yaml:"name"`

	// Asset is the custody asset.
	Asset types.Asset `json:"asset" mapstructure:"asset" yaml:"asset"`

	// InitialRate is the asset units per share at creation (default: 1).
	InitialRate int64 `json:"initial_rate" mapstructure:"initial_rate" yaml:"initial_rate"`

	// InitialFeeBps is the deposit fee in basis points.
	InitialFeeBps int64 `json:"initial_fee_bps" mapstructure:"initial_fee_bps" yaml:"initial_fee_bps"`

	// Operator is the privileged identity.
	Operator string `json:"operator" mapstructure:"operator" yaml:"operator"`

	// MaxFeeBps caps fee updates when > 0.
	MaxFeeBps int64 `json:"max_fee_bps" mapstructure:"max_fee_bps" yaml:"max_fee_bps"`

	// StrictBalances rejects withdrawals that would push a balance negative.
	StrictBalances bool `json:"strict_balances" mapstructure:"strict_balances" yaml:"strict_balances"`

	// RequireConfig requires config to be present in YAML files.
	// If true and no config is found, Register returns an error.
	RequireConfig bool `json:"-" yaml:"-"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	d := vault.DefaultConfig()
	return Config{
		Name:        d.Name,
		InitialRate: d.InitialRate,
	}
}

// VaultConfig converts the extension config into engine construction
// parameters.
func (c Config) VaultConfig() vault.Config {
	return vault.Config{
		Name:           c.Name,
		Asset:          types.NewAsset(c.Asset.Symbol, c.Asset.Decimals),
		InitialRate:    c.InitialRate,
		InitialFeeBps:  c.InitialFeeBps,
		Operator:       c.Operator,
		MaxFeeBps:      c.MaxFeeBps,
		StrictBalances: c.StrictBalances,
	}
}
