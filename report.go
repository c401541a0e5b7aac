package vault

import (
	"context"
	"fmt"

	"github.com/xraph/vault/accounting"
	"github.com/xraph/vault/asset"
)

// AuditReport reconciles the vault's books against its positions and,
// when the transferer can report it, against custody.
type AuditReport struct {
	Name    string `json:"name"`
	Version int64  `json:"version"`

	TotalShares    int64 `json:"total_shares"`
	OperatorShares int64 `json:"operator_shares"`
	PositionShares int64 `json:"position_shares"`
	// SharesBalanced holds when PositionShares + OperatorShares == TotalShares.
	SharesBalanced bool `json:"shares_balanced"`

	TotalDeposits int64 `json:"total_deposits"`
	// Liabilities is TotalShares × Rate, the units owed if every share
	// were redeemed now.
	Liabilities int64 `json:"liabilities"`

	CustodyKnown bool  `json:"custody_known"`
	Custody      int64 `json:"custody,omitempty"`
	// Surplus is Custody − Liabilities. Negative means the vault cannot
	// honor every redemption at the current rate.
	Surplus int64 `json:"surplus,omitempty"`
}

// Solvent reports whether custody covers liabilities. It is true when
// custody is unknown.
func (r *AuditReport) Solvent() bool {
	return !r.CustodyKnown || r.Surplus >= 0
}

// Healthy reports whether shares balance and the vault is solvent.
func (r *AuditReport) Healthy() bool {
	return r.SharesBalanced && r.Solvent()
}

// Audit builds an AuditReport from a consistent snapshot of state and
// positions.
func (v *Vault) Audit(ctx context.Context) (*AuditReport, error) {
	if !v.started.Load() {
		return nil, ErrNotStarted
	}

	r, err := v.snapshot(ctx)
	if err != nil {
		return nil, err
	}

	if !r.Healthy() {
		v.logger.Warn("vault audit found discrepancies",
			"name", r.Name,
			"shares_balanced", r.SharesBalanced,
			"custody_known", r.CustodyKnown,
			"surplus", r.Surplus,
		)
	}

	return r, nil
}

func (v *Vault) snapshot(ctx context.Context) (*AuditReport, error) {
	release, err := v.guard.Read(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	st, err := v.store.GetState(ctx, v.config.Name)
	if err != nil {
		return nil, err
	}
	sum, err := v.store.SumShares(ctx, v.config.Name)
	if err != nil {
		return nil, err
	}

	r := &AuditReport{
		Name:           st.Name,
		Version:        st.Version,
		TotalShares:    st.TotalShares,
		OperatorShares: st.OperatorShares,
		PositionShares: sum,
		SharesBalanced: sum+st.OperatorShares == st.TotalShares,
		TotalDeposits:  st.TotalDeposits,
	}
	if r.Liabilities, err = accounting.Mul(st.TotalShares, st.Rate); err != nil {
		return nil, arithmetic(err)
	}

	reporter, ok := v.transfer.(asset.BalanceReporter)
	if !ok {
		return r, nil
	}
	custody, err := reporter.Custody(ctx)
	if err != nil {
		return nil, fmt.Errorf("vault: read custody: %w", err)
	}
	r.CustodyKnown = true
	r.Custody = custody
	r.Surplus = custody - r.Liabilities

	return r, nil
}
