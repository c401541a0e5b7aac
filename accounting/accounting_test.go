package accounting

import (
	"errors"
	"math"
	"testing"
)

func TestQuoteDeposit(t *testing.T) {
	tests := []struct {
		name      string
		amount    int64
		feeBps    int64
		rate      int64
		fee       int64
		net       int64
		shares    int64
		feeShares int64
	}{
		{"one percent at rate 50", 10000, 100, 50, 100, 9900, 198, 2},
		{"fee truncates to zero", 99, 100, 1, 0, 99, 99, 0},
		{"shares truncate", 1000, 250, 7, 25, 975, 139, 3},
		{"full fee", 5000, 10000, 10, 5000, 0, 0, 500},
		{"rate one", 12345, 1, 1, 1, 12344, 12344, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := QuoteDeposit(tt.amount, tt.feeBps, tt.rate)
			if err != nil {
				t.Fatalf("QuoteDeposit: %v", err)
			}
			if q.Fee != tt.fee {
				t.Errorf("Fee: got %d, want %d", q.Fee, tt.fee)
			}
			if q.Net != tt.net {
				t.Errorf("Net: got %d, want %d", q.Net, tt.net)
			}
			if q.Shares != tt.shares {
				t.Errorf("Shares: got %d, want %d", q.Shares, tt.shares)
			}
			if q.FeeShares != tt.feeShares {
				t.Errorf("FeeShares: got %d, want %d", q.FeeShares, tt.feeShares)
			}
		})
	}
}

func TestQuoteDepositMatchesFormula(t *testing.T) {
	for amount := int64(1); amount <= 3000; amount += 37 {
		for _, feeBps := range []int64{1, 30, 100, 999, 5000} {
			for _, rate := range []int64{1, 3, 50, 101} {
				q, err := QuoteDeposit(amount, feeBps, rate)
				if err != nil {
					t.Fatalf("QuoteDeposit(%d, %d, %d): %v", amount, feeBps, rate, err)
				}
				fee := amount * feeBps / FeeDenominator
				if q.Shares != (amount-fee)/rate {
					t.Fatalf("shares for (%d, %d, %d): got %d, want %d", amount, feeBps, rate, q.Shares, (amount-fee)/rate)
				}
				if q.FeeShares != fee/rate {
					t.Fatalf("fee shares for (%d, %d, %d): got %d, want %d", amount, feeBps, rate, q.FeeShares, fee/rate)
				}
				if d := q.Dust(rate); d < 0 || d > 2*(rate-1) {
					t.Fatalf("dust for (%d, %d, %d) out of range: %d", amount, feeBps, rate, d)
				}
			}
		}
	}
}

func TestQuoteDepositErrors(t *testing.T) {
	tests := []struct {
		name   string
		amount int64
		feeBps int64
		rate   int64
		want   error
	}{
		{"zero rate", 100, 100, 0, ErrDivideByZero},
		{"fee above amount", 100, 20000, 1, ErrUnderflow},
		{"negative amount", -1, 100, 1, ErrNegative},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := QuoteDeposit(tt.amount, tt.feeBps, tt.rate)
			if !errors.Is(err, tt.want) {
				t.Errorf("got %v, want %v", err, tt.want)
			}
		})
	}
}

func TestMulDiv(t *testing.T) {
	got, err := MulDiv(math.MaxInt64, 100, 10000)
	if err != nil {
		t.Fatalf("MulDiv: %v", err)
	}
	if want := int64(math.MaxInt64 / 100); got != want {
		t.Errorf("got %d, want %d", got, want)
	}

	if _, err := MulDiv(math.MaxInt64, 3, 1); !errors.Is(err, ErrOverflow) {
		t.Errorf("expected ErrOverflow, got %v", err)
	}
	if _, err := MulDiv(1, 1, 0); !errors.Is(err, ErrDivideByZero) {
		t.Errorf("expected ErrDivideByZero, got %v", err)
	}
}

func TestMulAddSub(t *testing.T) {
	if _, err := Mul(math.MaxInt64, 2); !errors.Is(err, ErrOverflow) {
		t.Errorf("Mul: expected ErrOverflow, got %v", err)
	}
	if _, err := Add(math.MaxInt64, 1); !errors.Is(err, ErrOverflow) {
		t.Errorf("Add: expected ErrOverflow, got %v", err)
	}
	if _, err := Sub(1, 2); !errors.Is(err, ErrUnderflow) {
		t.Errorf("Sub: expected ErrUnderflow, got %v", err)
	}
	if v, err := Redeem(198, 99); err != nil || v != 19602 {
		t.Errorf("Redeem: got %d, %v", v, err)
	}
}

func TestRebase(t *testing.T) {
	rate, err := Rebase(19900, 200)
	if err != nil {
		t.Fatalf("Rebase: %v", err)
	}
	if rate != 99 {
		t.Errorf("rate: got %d, want 99", rate)
	}

	if _, err := Rebase(100, 0); !errors.Is(err, ErrDivideByZero) {
		t.Errorf("expected ErrDivideByZero, got %v", err)
	}
}
