package types

import (
	"fmt"
	"strings"
)

// MaxDecimals bounds Asset.Decimals so that 10^Decimals fits in an int64.
const MaxDecimals = 18

// Asset identifies the single fungible asset a vault holds in custody.
// Amounts are always expressed in the asset's smallest unit.
type Asset struct {
	Symbol   string `json:"symbol"   yaml:"symbol"   mapstructure:"symbol"`
	Decimals int    `json:"decimals" yaml:"decimals" mapstructure:"decimals"`
}

// NewAsset returns an Asset with the symbol normalized to upper case.
func NewAsset(symbol string, decimals int) Asset {
	return Asset{Symbol: strings.ToUpper(strings.TrimSpace(symbol)), Decimals: decimals}
}

// IsZero reports whether the asset handle is unset.
func (a Asset) IsZero() bool { return a.Symbol == "" }

// Equal compares assets case-insensitively by symbol and exactly by decimals.
func (a Asset) Equal(other Asset) bool {
	return strings.EqualFold(a.Symbol, other.Symbol) && a.Decimals == other.Decimals
}

// Validate checks the asset handle is usable.
func (a Asset) Validate() error {
	if a.IsZero() {
		return fmt.Errorf("asset: symbol is required")
	}
	if a.Decimals < 0 || a.Decimals > MaxDecimals {
		return fmt.Errorf("asset: decimals must be between 0 and %d, got %d", MaxDecimals, a.Decimals)
	}
	return nil
}

// Format renders units in major denomination without the symbol.
// For an asset with 6 decimals: "1.500000" for 1500000.
func (a Asset) Format(units int64) string {
	if a.Decimals <= 0 {
		return fmt.Sprintf("%d", units)
	}

	divisor := uint64(1)
	for i := 0; i < a.Decimals; i++ {
		divisor *= 10
	}

	negative := units < 0
	abs := uint64(units)
	if negative {
		abs = uint64(-(units + 1)) + 1
	}

	result := fmt.Sprintf("%d.%0*d", abs/divisor, a.Decimals, abs%divisor)
	if negative {
		return "-" + result
	}
	return result
}

// Display renders units with the symbol suffix, e.g. "1.50 USDC".
func (a Asset) Display(units int64) string {
	return a.Format(units) + " " + a.Symbol
}

// String returns the asset symbol.
func (a Asset) String() string { return a.Symbol }
