package vault

import (
	"errors"
	"fmt"

	"github.com/xraph/vault/accounting"
	"github.com/xraph/vault/guard"
)

// Sentinel errors for common failure scenarios.
var (
	// Input errors
	ErrAmountMustBeGreaterThanZero = errors.New("vault: amount must be greater than zero")
	ErrRateUpdateFailed            = errors.New("vault: rate update failed: rate must be greater than zero")
	ErrManagerFeeUpdateFailed      = errors.New("vault: manager fee update failed: fee must be greater than zero")
	ErrFeeTooHigh                  = errors.New("vault: fee exceeds configured maximum")
	ErrInvalidConfig               = errors.New("vault: invalid configuration")

	// Holding errors
	ErrInsufficientShares = errors.New("vault: insufficient shares")
	ErrDepositsUnderflow  = errors.New("vault: payout exceeds total deposits")
	ErrBalanceUnderflow   = errors.New("vault: payout exceeds recorded balance")

	// Collaborator errors
	ErrTransferFailed            = errors.New("vault: transfer failed")
	ErrRewardsAccumulationFailed = errors.New("vault: rewards accumulation failed")

	// Precondition errors
	ErrNoSharesOutstanding = errors.New("vault: no shares outstanding")
	ErrPaused              = errors.New("vault: paused")
	ErrUnauthorized        = errors.New("vault: unauthorized")
	ErrReentrantCall       = fmt.Errorf("vault: %w", guard.ErrReentrant)
	ErrNotStarted          = errors.New("vault: not started")
	ErrOverflow            = errors.New("vault: arithmetic overflow")

	// Store errors
	ErrNotFound      = errors.New("vault: not found")
	ErrAlreadyExists = errors.New("vault: already exists")
	ErrConflict      = errors.New("vault: concurrent modification")
	ErrStoreClosed   = errors.New("vault: store is closed")
	ErrStoreNotReady = errors.New("vault: store not ready")
)

// ValidationError represents a configuration field that failed validation.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("vault: validation failed for %s: %s", e.Field, e.Message)
}

// Unwrap lets errors.Is match ErrInvalidConfig.
func (e ValidationError) Unwrap() error { return ErrInvalidConfig }

// MultiError represents multiple errors that occurred.
type MultiError struct {
	Errors []error
}

func (e MultiError) Error() string {
	if len(e.Errors) == 0 {
		return "vault: no errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	return fmt.Sprintf("vault: %d errors occurred: %v", len(e.Errors), e.Errors[0])
}

// Unwrap exposes every collected error to errors.Is and errors.As.
func (e MultiError) Unwrap() []error { return e.Errors }

// Add adds an error to the multi-error.
func (e *MultiError) Add(err error) {
	if err != nil {
		e.Errors = append(e.Errors, err)
	}
}

// HasErrors returns true if there are any errors.
func (e MultiError) HasErrors() bool {
	return len(e.Errors) > 0
}

// ErrOrNil returns e when it holds errors and nil otherwise.
func (e MultiError) ErrOrNil() error {
	if e.HasErrors() {
		return e
	}
	return nil
}

// IsNotFound returns true if the error is a not found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsInputError returns true if the error rejects the caller's arguments.
func IsInputError(err error) bool {
	return errors.Is(err, ErrAmountMustBeGreaterThanZero) ||
		errors.Is(err, ErrRateUpdateFailed) ||
		errors.Is(err, ErrManagerFeeUpdateFailed) ||
		errors.Is(err, ErrFeeTooHigh) ||
		errors.Is(err, ErrInvalidConfig)
}

// IsInsufficient returns true if the error reports a shortfall in holdings.
func IsInsufficient(err error) bool {
	return errors.Is(err, ErrInsufficientShares) ||
		errors.Is(err, ErrDepositsUnderflow) ||
		errors.Is(err, ErrBalanceUnderflow)
}

// IsRetryable returns true if the error is temporary and the operation can be retried.
// The vault never retries on its own.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrConflict) ||
		errors.Is(err, ErrStoreNotReady)
}

// arithmetic maps an accounting failure onto a vault sentinel.
func arithmetic(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, accounting.ErrDivideByZero):
		return fmt.Errorf("%w: %w", ErrNoSharesOutstanding, err)
	default:
		return fmt.Errorf("%w: %w", ErrOverflow, err)
	}
}
