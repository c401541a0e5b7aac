package extension

import (
	"testing"

	"github.com/xraph/vault/types"
)

func TestMergeWithDefaults(t *testing.T) {
	cfg := mergeWithDefaults(Config{Operator: "ops"})
	if cfg.Name != "default" {
		t.Errorf("Name: got %q, want default", cfg.Name)
	}
	if cfg.InitialRate != 1 {
		t.Errorf("InitialRate: got %d, want 1", cfg.InitialRate)
	}
	if cfg.Operator != "ops" {
		t.Errorf("Operator: got %q", cfg.Operator)
	}
}

func TestMergeConfigurations(t *testing.T) {
	tests := []struct {
		name         string
		yaml         Config
		programmatic Config
		check        func(t *testing.T, cfg Config)
	}{
		{
			name:         "yaml wins over programmatic",
			yaml:         Config{Name: "treasury", InitialFeeBps: 50},
			programmatic: Config{Name: "other", InitialFeeBps: 100},
			check: func(t *testing.T, cfg Config) {
				if cfg.Name != "treasury" || cfg.InitialFeeBps != 50 {
					t.Errorf("got %+v", cfg)
				}
			},
		},
		{
			name:         "programmatic fills gaps",
			yaml:         Config{InitialFeeBps: 50},
			programmatic: Config{Asset: types.NewAsset("usdc", 6), Operator: "ops", MaxFeeBps: 500},
			check: func(t *testing.T, cfg Config) {
				if cfg.Asset.Symbol != "USDC" || cfg.Operator != "ops" || cfg.MaxFeeBps != 500 {
					t.Errorf("got %+v", cfg)
				}
				if cfg.Name != "default" || cfg.InitialRate != 1 {
					t.Errorf("defaults not applied: %+v", cfg)
				}
			},
		},
		{
			name:         "programmatic flags override",
			yaml:         Config{},
			programmatic: Config{DisableMigrate: true, StrictBalances: true},
			check: func(t *testing.T, cfg Config) {
				if !cfg.DisableMigrate || !cfg.StrictBalances {
					t.Errorf("flags not carried: %+v", cfg)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, mergeConfigurations(tt.yaml, tt.programmatic))
		})
	}
}

func TestVaultConfigValidates(t *testing.T) {
	cfg := mergeWithDefaults(Config{
		Asset:         types.Asset{Symbol: "usdc", Decimals: 6},
		InitialFeeBps: 100,
		Operator:      "ops",
	})

	vc := cfg.VaultConfig()
	if err := vc.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if vc.Asset.Symbol != "USDC" {
		t.Errorf("asset symbol not normalized: %q", vc.Asset.Symbol)
	}

	if err := (Config{}).VaultConfig().Validate(); err == nil {
		t.Error("expected empty config to fail validation")
	}
}
