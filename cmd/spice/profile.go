package main

import (
	"github.com/Veraticus/spice-forecast/internal/cli"
	"github.com/spf13/cobra"
)

func profileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Classify your intra-month spending rhythm",
		Long: `Classify how spending is distributed across the month.

Profiles: front-loader, back-loader, payday spiker, steady spender and
variable spender. Histories with too few transactions are reported as
variable.

Examples:
  spice profile
  spice profile --account checking --output json`,
		RunE: runProfile,
	}

	addHistoryFlags(cmd)
	return cmd
}

func runProfile(cmd *cobra.Command, _ []string) error {
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

	result := env.profiler.Analyze(txns)
	return writeOutput(cmd.OutOrStdout(), format, result, func() string {
		return cli.RenderProfile(result)
	})
}
