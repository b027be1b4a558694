package main

import (
	"github.com/Veraticus/spice-forecast/internal/cli"
	"github.com/spf13/cobra"
)

func fixedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fixed",
		Short: "Show recurring fixed expenses",
		Long: `Separate recurring fixed obligations from variable spending.

A merchant is treated as a fixed expense when its charges are consistent in
amount and day of month, or when it matches a known recurring merchant such
as a streaming service, utility or rent payment.

Examples:
  # Classify everything imported so far
  spice fixed

  # Only this year, as JSON
  spice fixed --from 2024-01-01 --output json`,
		RunE: runFixed,
	}

	addHistoryFlags(cmd)
	return cmd
}

func runFixed(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	format, err := outputFormat(cmd)
	if err != nil {
		return err
	}
	filter, err := historyFilter(cmd)
	if err != nil {
		return err
	}

	env, err := newAnalysisEnv(ctx)
	if err != nil {
		return err
	}
	defer env.close()

	txns, err := env.history(ctx, filter)
	if err != nil {
		return err
	}

	result := env.classifier.Classify(txns)
	return writeOutput(cmd.OutOrStdout(), format, result, func() string {
		return cli.RenderFixedExpenses(result)
	})
}
