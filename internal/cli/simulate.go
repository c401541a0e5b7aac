package cli

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/xraph/vault/event"
	"github.com/xraph/vault/scenario"
)

// SimulateOptions holds flags for the simulate command.
type SimulateOptions struct {
	*RootOptions
}

// NewSimulateCommand creates the simulate command.
func NewSimulateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SimulateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "simulate <scenario.yaml>",
		Short: "Replay a scenario against an in-memory vault",
		Long: `Replay a scenario file against a fresh in-memory vault.

Every step runs in order; rejected operations are reported with their
error code and leave the vault untouched. Steps with an expect block are
checked against the resulting event.

Exit codes:
  0 - All expectations met and the final audit is healthy
  1 - One or more expectations failed or the audit found discrepancies
  2 - Command error (unreadable scenario, invalid vault config)

Examples:
  vaultctl simulate ./scenarios/quickstart.yaml
  vaultctl simulate ./scenarios/quickstart.yaml --format json
  vaultctl simulate ./scenarios/quickstart.yaml -v`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSimulate(opts, args[0], cmd)
		},
	}

	return cmd
}

func runSimulate(opts *SimulateOptions, path string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	s, err := scenario.LoadFile(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "load scenario", err)
	}
	formatter.VerboseLog("loaded scenario %q with %d steps", s.Name, len(s.Steps))

	var runOpts []scenario.RunOption
	if opts.Verbose {
		runOpts = append(runOpts, scenario.WithLogger(slog.New(
			slog.NewTextHandler(formatter.GetErrWriter(), &slog.HandlerOptions{Level: slog.LevelDebug}),
		)))
	}

	trace, err := scenario.Run(cmd.Context(), s, runOpts...)
	if err != nil {
		return WrapExitError(ExitCommandError, "run scenario", err)
	}

	if opts.Format == "json" {
		if err := formatter.Success(trace); err != nil {
			return err
		}
	} else {
		writeTrace(cmd.OutOrStdout(), trace)
	}

	if !trace.Passed() {
		return NewExitError(ExitFailure,
			fmt.Sprintf("scenario %q failed: %d step(s) unmet", trace.Scenario, trace.Failures()))
	}
	return nil
}

// writeTrace renders a trace as plain text. Output carries no IDs or
// timestamps so identical scenarios render identically.
func writeTrace(w io.Writer, t *scenario.Trace) {
	fmt.Fprintf(w, "scenario: %s\n", t.Scenario)

	for _, step := range t.Steps {
		fmt.Fprintf(w, "%2d  %-24s  %-10s  %s\n", step.Index, step.Op, step.Caller, stepDetail(step))
		for _, m := range step.Mismatches {
			fmt.Fprintf(w, "    ! %s\n", m)
		}
	}

	if st := t.State; st != nil {
		fmt.Fprintf(w, "state: rate=%d fee_bps=%d total_deposits=%d total_shares=%d operator_shares=%d paused=%t\n",
			st.Rate, st.FeeBps, st.TotalDeposits, st.TotalShares, st.OperatorShares, st.Paused)
	}

	if a := t.Audit; a != nil {
		custody, surplus := "unknown", "unknown"
		if a.CustodyKnown {
			custody = fmt.Sprint(a.Custody)
			surplus = fmt.Sprint(a.Surplus)
		}
		fmt.Fprintf(w, "audit: liabilities=%d custody=%s surplus=%s shares_balanced=%t\n",
			a.Liabilities, custody, surplus, a.SharesBalanced)
	}

	for _, p := range t.Positions {
		fmt.Fprintf(w, "position: %s shares=%d balance=%d\n", p.Account, p.Shares, p.Balance)
	}
	for _, b := range t.Balances {
		fmt.Fprintf(w, "balance: %s %d\n", b.Account, b.Units)
	}

	if t.Passed() {
		fmt.Fprintln(w, "result: PASS")
		return
	}
	fmt.Fprintf(w, "result: FAIL (%d failing)\n", t.Failures())
}

func stepDetail(step scenario.StepResult) string {
	if step.Code != "" {
		return "rejected " + step.Code
	}
	e := step.Event
	if e == nil {
		return "ok"
	}

	switch e.Kind {
	case event.KindDeposit:
		return fmt.Sprintf("amount=%d fee=%d shares=%d fee_shares=%d", e.Amount, e.Fee, e.Shares, e.FeeShares)
	case event.KindWithdraw, event.KindOperatorWithdraw:
		return fmt.Sprintf("shares=%d payout=%d", e.Shares, e.Payout)
	case event.KindYieldAccumulated:
		return fmt.Sprintf("amount=%d rate=%d->%d", e.Amount, e.Previous, e.Rate)
	case event.KindRateUpdated:
		return fmt.Sprintf("rate=%d->%d", e.Previous, e.Rate)
	case event.KindFeeUpdated:
		return fmt.Sprintf("fee_bps=%d->%d", e.Previous, e.FeeBps)
	default:
		return strings.ReplaceAll(string(e.Kind), "_", " ")
	}
}
