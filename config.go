package vault

import (
	"fmt"

	"github.com/xraph/vault/accounting"
	"github.com/xraph/vault/state"
	"github.com/xraph/vault/types"
)

// Config holds the one-time construction parameters of a vault.
type Config struct {
	// Name keys the vault's records in the store (default: "default").
	Name string `json:"name" mapstructure:"name" yaml:"name"`

	// Asset is the custody asset. It is immutable once the vault's state
	// has been created.
	Asset types.Asset `json:"asset" mapstructure:"asset" yaml:"asset"`

	// InitialRate is the asset units per share at creation. Must be > 0.
	InitialRate int64 `json:"initial_rate" mapstructure:"initial_rate" yaml:"initial_rate"`

	// InitialFeeBps is the deposit fee in basis points. Must be > 0.
	InitialFeeBps int64 `json:"initial_fee_bps" mapstructure:"initial_fee_bps" yaml:"initial_fee_bps"`

	// Operator is the privileged identity used by the default authorizer.
	Operator string `json:"operator" mapstructure:"operator" yaml:"operator"`

	// MaxFeeBps caps UpdateFee when > 0. Zero leaves the fee uncapped.
	MaxFeeBps int64 `json:"max_fee_bps" mapstructure:"max_fee_bps" yaml:"max_fee_bps"`

	// StrictBalances rejects withdrawals whose payout exceeds the caller's
	// recorded balance instead of clamping the balance to zero.
	StrictBalances bool `json:"strict_balances" mapstructure:"strict_balances" yaml:"strict_balances"`
}

// DefaultConfig returns a Config with the default vault name and a rate of
// one unit per share. Asset, fee and operator must still be set.
func DefaultConfig() Config {
	return Config{
		Name:        state.DefaultName,
		InitialRate: 1,
	}
}

// Validate checks every field and reports all failures at once.
func (c Config) Validate() error {
	var errs MultiError

	if c.Name == "" {
		errs.Add(ValidationError{Field: "name", Message: "must not be empty"})
	}
	if err := c.Asset.Validate(); err != nil {
		errs.Add(ValidationError{Field: "asset", Message: err.Error()})
	}
	if c.InitialRate <= 0 {
		errs.Add(ValidationError{Field: "initial_rate", Message: fmt.Sprintf("must be greater than zero, got %d", c.InitialRate)})
	}
	if c.InitialFeeBps <= 0 {
		errs.Add(ValidationError{Field: "initial_fee_bps", Message: fmt.Sprintf("must be greater than zero, got %d", c.InitialFeeBps)})
	}
	if c.MaxFeeBps < 0 {
		errs.Add(ValidationError{Field: "max_fee_bps", Message: "must not be negative"})
	}
	if c.MaxFeeBps > 0 && c.InitialFeeBps > c.MaxFeeBps {
		errs.Add(ValidationError{Field: "initial_fee_bps", Message: fmt.Sprintf("exceeds max_fee_bps %d", c.MaxFeeBps)})
	}
	if c.MaxFeeBps > accounting.FeeDenominator {
		errs.Add(ValidationError{Field: "max_fee_bps", Message: fmt.Sprintf("must not exceed %d", accounting.FeeDenominator)})
	}

	return errs.ErrOrNil()
}

// withDefaults fills zero-valued fields that have a default.
func (c Config) withDefaults() Config {
	if c.Name == "" {
		c.Name = state.DefaultName
	}
	return c
}
