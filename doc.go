// Package vault provides a share-based custody engine for Go applications.
//
// Vault is designed as a library, not a service. Depositors hand the vault
// units of a single asset and receive shares at the current exchange rate.
// An operator injects yield, which raises the rate for every outstanding
// share, and collects a deposit fee as shares of its own. It provides:
//
//   - Integer share accounting with overflow-checked arithmetic
//   - Operator fee shares minted on every deposit
//   - Yield distribution by rate recomputation
//   - A pause gate and a non-reentrant operation guard
//   - An append-only event log and typed plugin hooks
//   - Memory, PostgreSQL, SQLite and MongoDB stores
//
// # Quick Start
//
// Create a vault with your preferred store and asset transferer:
//
//	import (
//	    "github.com/xraph/vault"
//	    "github.com/xraph/vault/asset"
//	    "github.com/xraph/vault/store/memory"
//	    "github.com/xraph/vault/types"
//	)
//
//	token := asset.NewLedger("vault")
//
//	cfg := vault.DefaultConfig()
//	cfg.Asset = types.NewAsset("USDC", 6)
//	cfg.InitialRate = 50
//	cfg.InitialFeeBps = 100
//	cfg.Operator = "operator"
//
//	v, err := vault.New(memory.New(), token, cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Start the vault (migrates the store, creates state on first run)
//	if err := v.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer v.Stop()
//
// # Core Concepts
//
// Deposits charge a fee in basis points. The remainder buys shares for the
// depositor and the fee buys shares for the operator:
//
//	evt, err := v.Deposit(ctx, "alice", 10000)
//	// evt.Fee == 100, evt.Net == 9900, evt.Shares == 198, evt.FeeShares == 2
//
// Yield raises the rate to floor(totalDeposits / totalShares):
//
//	_, err = v.AccumulateYield(ctx, "operator", 10000) // rate 50 -> 99
//
// Withdrawals redeem shares at the current rate:
//
//	evt, err = v.Withdraw(ctx, "alice", 198) // evt.Payout == 19602
//
// # Atomicity
//
// Every operation runs inside the guard: checks, then a versioned commit,
// then the asset transfer. When the transfer fails the commit is reverted
// and the error wraps ErrTransferFailed (or ErrRewardsAccumulationFailed
// for yield). A transferer that calls back into the vault with the context
// it was given gets ErrReentrantCall.
//
// # TypeID
//
// Vaults and events use TypeID for globally unique, type-safe identifiers:
//
//	vault_01h2xcejqtf2nbrexx3vqjhp41  // Vault ID
//	vevt_01h455vb4pex5vsknk084sn02q   // Event ID
package vault
