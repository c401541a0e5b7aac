package scenario

import (
	"errors"

	"github.com/xraph/vault"
)

// codes maps stable error codes to vault sentinels, most specific first.
var codes = []struct {
	code string
	err  error
}{
	{"amount_must_be_greater_than_zero", vault.ErrAmountMustBeGreaterThanZero},
	{"rate_update_failed", vault.ErrRateUpdateFailed},
	{"manager_fee_update_failed", vault.ErrManagerFeeUpdateFailed},
	{"fee_too_high", vault.ErrFeeTooHigh},
	{"insufficient_shares", vault.ErrInsufficientShares},
	{"deposits_underflow", vault.ErrDepositsUnderflow},
	{"balance_underflow", vault.ErrBalanceUnderflow},
	{"transfer_failed", vault.ErrTransferFailed},
	{"rewards_accumulation_failed", vault.ErrRewardsAccumulationFailed},
	{"no_shares_outstanding", vault.ErrNoSharesOutstanding},
	{"paused", vault.ErrPaused},
	{"unauthorized", vault.ErrUnauthorized},
	{"reentrant_call", vault.ErrReentrantCall},
	{"overflow", vault.ErrOverflow},
	{"conflict", vault.ErrConflict},
}

// ErrorCode returns the stable code of err, "error" for an unrecognized
// failure, or "" for nil.
func ErrorCode(err error) string {
	if err == nil {
		return ""
	}
	for _, c := range codes {
		if errors.Is(err, c.err) {
			return c.code
		}
	}
	return "error"
}

func knownCode(code string) bool {
	if code == "error" {
		return true
	}
	for _, c := range codes {
		if c.code == code {
			return true
		}
	}
	return false
}
