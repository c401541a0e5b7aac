package audithook

// Action constants for audit events.
const (
	// Lifecycle actions
	ActionVaultStarted = "vault.started"
	ActionVaultStopped = "vault.stopped"

	// Custody actions
	ActionDeposit          = "vault.deposit"
	ActionWithdraw         = "vault.withdraw"
	ActionOperatorWithdraw = "vault.operator_withdraw"

	// Yield actions
	ActionYieldAccumulated = "vault.yield_accumulated"

	// Admin actions
	ActionRateUpdated = "vault.rate_updated"
	ActionFeeUpdated  = "vault.fee_updated"
	ActionPaused      = "vault.paused"
	ActionUnpaused    = "vault.unpaused"

	// Failure actions
	ActionOperationFailed = "vault.operation_failed"
)

// Resource constants for audit events.
const (
	ResourceVault    = "vault"
	ResourcePosition = "position"
	ResourceRate     = "rate"
	ResourceFee      = "fee"
)

// Category constants for audit events.
const (
	CategoryCustody   = "custody"
	CategoryYield     = "yield"
	CategoryAdmin     = "admin"
	CategoryLifecycle = "lifecycle"
)

// Severity levels for audit events.
const (
	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityError    = "error"
	SeverityCritical = "critical"
)

// Outcome values for audit events.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)
