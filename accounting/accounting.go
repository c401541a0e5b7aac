// Package accounting implements the integer share arithmetic behind a vault.
//
// All values are int64 asset units, share counts or basis points. Every
// division floors toward zero and every product is overflow-checked, so a
// caller never sees a silently wrapped result.
package accounting

import (
	"errors"
	"math"
	"math/bits"
)

// FeeDenominator is the basis point scale: 10000 bps == 100%.
const FeeDenominator int64 = 10000

// Arithmetic errors.
var (
	ErrOverflow     = errors.New("accounting: arithmetic overflow")
	ErrUnderflow    = errors.New("accounting: arithmetic underflow")
	ErrDivideByZero = errors.New("accounting: division by zero")
	ErrNegative     = errors.New("accounting: negative operand")
)

// DepositQuote is the breakdown of a single deposit.
type DepositQuote struct {
	Amount    int64 `json:"amount"`
	Fee       int64 `json:"fee"`
	Net       int64 `json:"net"`
	Shares    int64 `json:"shares"`
	FeeShares int64 `json:"fee_shares"`
}

// Add returns a+b for non-negative operands.
func Add(a, b int64) (int64, error) {
	if a < 0 || b < 0 {
		return 0, ErrNegative
	}
	if a > math.MaxInt64-b {
		return 0, ErrOverflow
	}
	return a + b, nil
}

// Sub returns a-b, rejecting results below zero.
func Sub(a, b int64) (int64, error) {
	if a < 0 || b < 0 {
		return 0, ErrNegative
	}
	if b > a {
		return 0, ErrUnderflow
	}
	return a - b, nil
}

// Mul returns a*b for non-negative operands.
func Mul(a, b int64) (int64, error) {
	if a < 0 || b < 0 {
		return 0, ErrNegative
	}
	hi, lo := bits.Mul64(uint64(a), uint64(b))
	if hi != 0 || lo > math.MaxInt64 {
		return 0, ErrOverflow
	}
	return int64(lo), nil
}

// MulDiv returns floor(a*b/d) using a 128-bit intermediate product.
func MulDiv(a, b, d int64) (int64, error) {
	if a < 0 || b < 0 || d < 0 {
		return 0, ErrNegative
	}
	if d == 0 {
		return 0, ErrDivideByZero
	}
	hi, lo := bits.Mul64(uint64(a), uint64(b))
	if hi >= uint64(d) {
		return 0, ErrOverflow
	}
	q, _ := bits.Div64(hi, lo, uint64(d))
	if q > math.MaxInt64 {
		return 0, ErrOverflow
	}
	return int64(q), nil
}

// Fee returns floor(amount*feeBps/FeeDenominator).
func Fee(amount, feeBps int64) (int64, error) {
	return MulDiv(amount, feeBps, FeeDenominator)
}

// SharesFor returns floor(units/rate).
func SharesFor(units, rate int64) (int64, error) {
	if units < 0 || rate < 0 {
		return 0, ErrNegative
	}
	if rate == 0 {
		return 0, ErrDivideByZero
	}
	return units / rate, nil
}

// QuoteDeposit splits a gross deposit into fee, net amount and the shares
// minted to the depositor and the operator. A fee larger than the amount
// (feeBps above FeeDenominator) is rejected with ErrUnderflow.
func QuoteDeposit(amount, feeBps, rate int64) (DepositQuote, error) {
	fee, err := Fee(amount, feeBps)
	if err != nil {
		return DepositQuote{}, err
	}
	net, err := Sub(amount, fee)
	if err != nil {
		return DepositQuote{}, err
	}
	shares, err := SharesFor(net, rate)
	if err != nil {
		return DepositQuote{}, err
	}
	feeShares, err := SharesFor(fee, rate)
	if err != nil {
		return DepositQuote{}, err
	}
	return DepositQuote{
		Amount:    amount,
		Fee:       fee,
		Net:       net,
		Shares:    shares,
		FeeShares: feeShares,
	}, nil
}

// Redeem returns the asset units paid out for shares at rate.
func Redeem(shares, rate int64) (int64, error) {
	return Mul(shares, rate)
}

// Rebase returns floor(totalDeposits/totalShares), the rate that spreads
// all attributed deposits evenly over outstanding shares.
func Rebase(totalDeposits, totalShares int64) (int64, error) {
	if totalShares == 0 {
		return 0, ErrDivideByZero
	}
	return SharesFor(totalDeposits, totalShares)
}

// Dust returns the asset units a quote leaves uncredited to any share.
func (q DepositQuote) Dust(rate int64) int64 {
	return q.Amount - (q.Shares+q.FeeShares)*rate
}
