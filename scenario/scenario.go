// Package scenario replays a scripted sequence of vault operations against
// an in-memory vault and records what happened.
//
// Scenarios are YAML documents:
//
//	name: quick start
//	vault:
//	  asset: {symbol: USDC, decimals: 6}
//	  initial_rate: 50
//	  initial_fee_bps: 100
//	  operator: operator
//	accounts:
//	  - {name: alice, balance: 10000}
//	  - {name: operator, balance: 10000}
//	steps:
//	  - {op: deposit, caller: alice, amount: 10000, expect: {shares: 198}}
//	  - {op: accumulate_yield, caller: operator, amount: 10000, expect: {rate: 99}}
//	  - {op: withdraw, caller: alice, shares: 198, expect: {payout: 19602}}
//
// Unknown keys are rejected so that a typo in an expectation cannot pass
// silently.
package scenario

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/xraph/vault"
)

// Op names a scenario step.
type Op string

const (
	OpDeposit                Op = "deposit"
	OpWithdraw               Op = "withdraw"
	OpWithdrawOperatorShares Op = "withdraw_operator_shares"
	OpAccumulateYield        Op = "accumulate_yield"
	OpUpdateRate             Op = "update_rate"
	OpUpdateFee              Op = "update_fee"
	OpPause                  Op = "pause"
	OpUnpause                Op = "unpause"

	// Asset-side steps act on the token ledger, not the vault.
	OpMint    Op = "mint"
	OpApprove Op = "approve"
)

// Ops lists every supported step kind.
func Ops() []Op {
	return []Op{
		OpDeposit, OpWithdraw, OpWithdrawOperatorShares, OpAccumulateYield,
		OpUpdateRate, OpUpdateFee, OpPause, OpUnpause, OpMint, OpApprove,
	}
}

// Valid reports whether o is a known op.
func (o Op) Valid() bool {
	for _, known := range Ops() {
		if o == known {
			return true
		}
	}
	return false
}

// Scenario is a vault configuration, initial token holdings and a list of
// steps.
type Scenario struct {
	Name        string       `yaml:"name"`
	Description string       `yaml:"description,omitempty"`
	Vault       vault.Config `yaml:"vault"`
	Accounts    []Account    `yaml:"accounts"`
	Steps       []Step       `yaml:"steps"`
}

// Account funds a token holder before the first step. Allowance defaults
// to Balance.
type Account struct {
	Name      string `yaml:"name"`
	Balance   int64  `yaml:"balance"`
	Allowance *int64 `yaml:"allowance,omitempty"`
}

// Step is one operation. Amount feeds deposit, accumulate_yield, mint and
// approve; Shares feeds the withdrawals; Rate and FeeBps feed the updates.
type Step struct {
	Op     Op      `yaml:"op"`
	Caller string  `yaml:"caller"`
	Amount int64   `yaml:"amount,omitempty"`
	Shares int64   `yaml:"shares,omitempty"`
	Rate   int64   `yaml:"rate,omitempty"`
	FeeBps int64   `yaml:"fee_bps,omitempty"`
	Expect *Expect `yaml:"expect,omitempty"`
}

// Expect asserts on a step's outcome. Unset fields are not checked. Error
// holds an error code (see ErrorCode); when set, the step must fail with it.
type Expect struct {
	Error     string `yaml:"error,omitempty"`
	Shares    *int64 `yaml:"shares,omitempty"`
	FeeShares *int64 `yaml:"fee_shares,omitempty"`
	Fee       *int64 `yaml:"fee,omitempty"`
	Payout    *int64 `yaml:"payout,omitempty"`
	Rate      *int64 `yaml:"rate,omitempty"`
	FeeBps    *int64 `yaml:"fee_bps,omitempty"`
}

// Load decodes a scenario from r, rejecting unknown fields.
func Load(r io.Reader) (*Scenario, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var s Scenario
	if err := dec.Decode(&s); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("scenario: empty document")
		}
		return nil, fmt.Errorf("scenario: decode: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// LoadFile reads and decodes the scenario at path.
func LoadFile(path string) (*Scenario, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("scenario: %w", err)
	}
	defer f.Close()

	return Load(f)
}

// Validate checks the document shape. Vault configuration is validated
// when the vault is constructed.
func (s *Scenario) Validate() error {
	var errs vault.MultiError

	if len(s.Steps) == 0 {
		errs.Add(errors.New("scenario: at least one step is required"))
	}

	seen := make(map[string]bool, len(s.Accounts))
	for i, a := range s.Accounts {
		switch {
		case a.Name == "":
			errs.Add(fmt.Errorf("scenario: account %d: name is required", i))
		case seen[a.Name]:
			errs.Add(fmt.Errorf("scenario: account %q listed twice", a.Name))
		}
		seen[a.Name] = true
		if a.Balance < 0 || (a.Allowance != nil && *a.Allowance < 0) {
			errs.Add(fmt.Errorf("scenario: account %q: amounts must not be negative", a.Name))
		}
	}

	for i, st := range s.Steps {
		if !st.Op.Valid() {
			errs.Add(fmt.Errorf("scenario: step %d: unknown op %q", i+1, st.Op))
		}
		if st.Caller == "" {
			errs.Add(fmt.Errorf("scenario: step %d: caller is required", i+1))
		}
		if st.Expect != nil && st.Expect.Error != "" && !knownCode(st.Expect.Error) {
			errs.Add(fmt.Errorf("scenario: step %d: unknown error code %q", i+1, st.Expect.Error))
		}
	}

	return errs.ErrOrNil()
}
