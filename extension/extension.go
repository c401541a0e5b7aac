// Package extension provides the Forge extension adapter for Vault.
//
// It implements the forge.Extension interface to integrate a Vault
// into a Forge application with DI registration and lifecycle management.
//
// Configuration can be provided programmatically via Option functions
// or via YAML configuration files under "extensions.vault" or "vault" keys.
package extension

import (
	"context"
	"errors"

	"github.com/xraph/forge"
	"github.com/xraph/vessel"

	"github.com/xraph/vault"
	"github.com/xraph/vault/asset"
	"github.com/xraph/vault/store"
	"github.com/xraph/vault/store/memory"
)

// ExtensionName is the name registered with Forge.
const ExtensionName = "vault"

// ExtensionDescription is the human-readable description.
const ExtensionDescription = "Share-based custody vault with yield accrual"

// ExtensionVersion is the semantic version.
const ExtensionVersion = "0.1.0"

// Ensure Extension implements forge.Extension at compile time.
var _ forge.Extension = (*Extension)(nil)

// Extension adapts Vault as a Forge extension.
type Extension struct {
	*forge.BaseExtension

	config    Config
	engine    *vault.Vault
	store     store.Store
	transfer  asset.Transferer
	vaultOpts []vault.Option
}

// New creates a new Vault Forge extension with the given options.
func New(opts ...Option) *Extension {
	e := &Extension{
		BaseExtension: forge.NewBaseExtension(ExtensionName, ExtensionVersion, ExtensionDescription),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Engine returns the underlying Vault instance.
// This is nil until Register is called.
func (e *Extension) Engine() *vault.Vault { return e.engine }

// Register implements [forge.Extension]. It loads configuration,
// constructs the vault, and registers it in the DI container.
func (e *Extension) Register(fapp forge.App) error {
	if err := e.BaseExtension.Register(fapp); err != nil {
		return err
	}

	if err := e.loadConfiguration(); err != nil {
		return err
	}

	if e.transfer == nil {
		return errors.New("vault: extension requires an asset transferer; use WithTransferer")
	}

	// Use memory store if no store was provided programmatically.
	if e.store == nil {
		e.store = memory.New()
	}

	opts := append([]vault.Option(nil), e.vaultOpts...)
	if e.config.DisableMigrate {
		opts = append(opts, vault.WithoutMigrate())
	}

	eng, err := vault.New(e.store, e.transfer, e.config.VaultConfig(), opts...)
	if err != nil {
		return err
	}
	e.engine = eng

	return vessel.Provide(fapp.Container(), func() (*vault.Vault, error) {
		return e.engine, nil
	})
}

// Start implements [forge.Extension].
func (e *Extension) Start(ctx context.Context) error {
	if e.engine == nil {
		return errors.New("vault: extension not initialized")
	}

	if err := e.engine.Start(ctx); err != nil {
		return err
	}

	e.MarkStarted()
	return nil
}

// Stop implements [forge.Extension].
func (e *Extension) Stop(_ context.Context) error {
	if e.engine != nil {
		if err := e.engine.Stop(); err != nil {
			e.MarkStopped()
			return err
		}
	}
	e.MarkStopped()
	return nil
}

// Health implements [forge.Extension]. A started vault that is paused is
// still healthy; only store connectivity is checked.
func (e *Extension) Health(ctx context.Context) error {
	if e.store == nil {
		return errors.New("vault: store not initialized")
	}
	return e.store.Ping(ctx)
}

// --- Config Loading ---

// loadConfiguration loads config from YAML files or programmatic sources.
func (e *Extension) loadConfiguration() error {
	programmaticConfig := e.config

	// Try loading from config file.
	fileConfig, configLoaded := e.tryLoadFromConfigFile()

	if !configLoaded {
		if programmaticConfig.RequireConfig {
			return errors.New("vault: configuration is required but not found in config files; " +
				"ensure 'extensions.vault' or 'vault' key exists in your config")
		}

		// Use programmatic config merged with defaults.
		e.config = mergeWithDefaults(programmaticConfig)
	} else {
		// Config loaded from YAML -- merge with programmatic options.
		e.config = mergeConfigurations(fileConfig, programmaticConfig)
	}

	e.Logger().Debug("vault: configuration loaded",
		forge.F("name", e.config.Name),
		forge.F("asset", e.config.Asset.Symbol),
		forge.F("operator", e.config.Operator),
		forge.F("initial_rate", e.config.InitialRate),
		forge.F("initial_fee_bps", e.config.InitialFeeBps),
		forge.F("max_fee_bps", e.config.MaxFeeBps),
		forge.F("strict_balances", e.config.StrictBalances),
		forge.F("disable_migrate", e.config.DisableMigrate),
	)

	return nil
}

// tryLoadFromConfigFile attempts to load config from YAML files.
func (e *Extension) tryLoadFromConfigFile() (Config, bool) {
	cm := e.App().Config()

	for _, key := range []string{"extensions.vault", "vault"} {
		if !cm.IsSet(key) {
			continue
		}
		var cfg Config
		if err := cm.Bind(key, &cfg); err != nil {
			e.Logger().Warn("vault: failed to bind config",
				forge.F("key", key),
				forge.F("error", err.Error()),
			)
			continue
		}
		e.Logger().Debug("vault: loaded config from file",
			forge.F("key", key),
		)
		return cfg, true
	}

	return Config{}, false
}

// mergeWithDefaults fills zero-valued fields with defaults.
func mergeWithDefaults(cfg Config) Config {
	defaults := DefaultConfig()
	if cfg.Name == "" {
		cfg.Name = defaults.Name
	}
	if cfg.InitialRate == 0 {
		cfg.InitialRate = defaults.InitialRate
	}
	return cfg
}

// mergeConfigurations merges YAML config with programmatic options.
// YAML config takes precedence; programmatic values fill gaps and
// programmatic bool flags override when true.
func mergeConfigurations(yamlConfig, programmaticConfig Config) Config {
	if programmaticConfig.DisableMigrate {
		yamlConfig.DisableMigrate = true
	}
	if programmaticConfig.StrictBalances {
		yamlConfig.StrictBalances = true
	}

	if yamlConfig.Name == "" {
		yamlConfig.Name = programmaticConfig.Name
	}
	if yamlConfig.Asset.IsZero() {
		yamlConfig.Asset = programmaticConfig.Asset
	}
	if yamlConfig.Operator == "" {
		yamlConfig.Operator = programmaticConfig.Operator
	}
	if yamlConfig.InitialRate == 0 {
		yamlConfig.InitialRate = programmaticConfig.InitialRate
	}
	if yamlConfig.InitialFeeBps == 0 {
		yamlConfig.InitialFeeBps = programmaticConfig.InitialFeeBps
	}
	if yamlConfig.MaxFeeBps == 0 {
		yamlConfig.MaxFeeBps = programmaticConfig.MaxFeeBps
	}

	// Fill remaining zeros with defaults.
	return mergeWithDefaults(yamlConfig)
}
