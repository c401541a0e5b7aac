package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/xraph/vault"
	"github.com/xraph/vault/accounting"
)

// QuoteOptions holds flags for the quote command.
type QuoteOptions struct {
	*RootOptions
	Amount int64 // gross deposit to quote
	Shares int64 // shares to redeem
	Rate   int64
	FeeBps int64
}

// QuoteResult is the settlement preview printed by quote.
type QuoteResult struct {
	Rate    int64                    `json:"rate"`
	FeeBps  int64                    `json:"fee_bps"`
	Deposit *accounting.DepositQuote `json:"deposit,omitempty"`
	Dust    int64                    `json:"dust,omitempty"`
	Redeem  *Redemption              `json:"redeem,omitempty"`
}

// Redemption previews a withdrawal of Shares at the quoted rate.
type Redemption struct {
	Shares int64 `json:"shares"`
	Payout int64 `json:"payout"`
}

func (r QuoteResult) String() string {
	var b strings.Builder
	if d := r.Deposit; d != nil {
		fmt.Fprintf(&b, "deposit: amount=%d fee_bps=%d rate=%d\n", d.Amount, r.FeeBps, r.Rate)
		fmt.Fprintf(&b, "  fee=%d net=%d shares=%d fee_shares=%d dust=%d\n", d.Fee, d.Net, d.Shares, d.FeeShares, r.Dust)
	}
	if w := r.Redeem; w != nil {
		fmt.Fprintf(&b, "redeem: shares=%d rate=%d payout=%d\n", w.Shares, r.Rate, w.Payout)
	}
	return b.String()
}

// NewQuoteCommand creates the quote command.
func NewQuoteCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &QuoteOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "quote",
		Short: "Preview how a deposit or redemption settles",
		Long: `Preview the fee, net amount and shares of a deposit, or the payout of a
redemption, at a given rate and fee.

Fees and shares round down. Dust is the part of a deposit that buys no
whole share at the quoted rate.

Examples:
  vaultctl quote --amount 10000 --rate 50 --fee-bps 100
  vaultctl quote --shares 198 --rate 99
  vaultctl quote --amount 10000 --shares 198 --rate 50 --fee-bps 100 --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuote(opts, cmd)
		},
	}

	cmd.Flags().Int64Var(&opts.Amount, "amount", 0, "gross deposit in asset units")
	cmd.Flags().Int64Var(&opts.Shares, "shares", 0, "shares to redeem")
	cmd.Flags().Int64Var(&opts.Rate, "rate", vault.DefaultConfig().InitialRate, "asset units per share")
	cmd.Flags().Int64Var(&opts.FeeBps, "fee-bps", 0, "deposit fee in basis points")

	return cmd
}

func runQuote(opts *QuoteOptions, cmd *cobra.Command) error {
	switch {
	case opts.Amount <= 0 && opts.Shares <= 0:
		return NewExitError(ExitCommandError, "one of --amount or --shares must be greater than zero")
	case opts.Amount < 0 || opts.Shares < 0:
		return NewExitError(ExitCommandError, "--amount and --shares must not be negative")
	case opts.Rate <= 0:
		return NewExitError(ExitCommandError, fmt.Sprintf("--rate must be greater than zero, got %d", opts.Rate))
	case opts.FeeBps < 0 || opts.FeeBps > accounting.FeeDenominator:
		return NewExitError(ExitCommandError,
			fmt.Sprintf("--fee-bps must be between 0 and %d, got %d", accounting.FeeDenominator, opts.FeeBps))
	}

	res := QuoteResult{Rate: opts.Rate, FeeBps: opts.FeeBps}

	if opts.Amount > 0 {
		q, err := accounting.QuoteDeposit(opts.Amount, opts.FeeBps, opts.Rate)
		if err != nil {
			return WrapExitError(ExitCommandError, "quote deposit", err)
		}
		res.Deposit = &q
		res.Dust = q.Dust(opts.Rate)
	}

	if opts.Shares > 0 {
		payout, err := accounting.Redeem(opts.Shares, opts.Rate)
		if err != nil {
			return WrapExitError(ExitCommandError, "quote redemption", err)
		}
		res.Redeem = &Redemption{Shares: opts.Shares, Payout: payout}
	}

	return opts.formatter(cmd).Success(res)
}
