package main

import (
	"github.com/Veraticus/spice-forecast/internal/cli"
	"github.com/Veraticus/spice-forecast/internal/model"
	"github.com/spf13/cobra"
)

type patternsReport struct {
	Pattern  model.SpendingPattern `json:"pattern"`
	Holidays []model.HolidayConfig `json:"holidays"`
}

func patternsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "patterns",
		Short: "Show day-of-week and holiday spending patterns",
		Long: `Quantify calendar effects relative to your average daily spending.

Reports a factor for each day of the week, the weekend to weekday ratio,
and a multiplier for each configured holiday window. Holidays that appear
in fewer than two years of history keep their default multiplier.

Examples:
  spice patterns
  spice patterns --from 2023-01-01 --output json`,
		RunE: runPatterns,
	}

	addHistoryFlags(cmd)
	return cmd
}

func runPatterns(cmd *cobra.Command, _ []string) error {
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

	report := patternsReport{
		Pattern:  env.analyzer.Analyze(txns),
		Holidays: env.analyzer.Holidays(),
	}
	return writeOutput(cmd.OutOrStdout(), format, report, func() string {
		return cli.RenderPattern(report.Pattern, report.Holidays)
	})
}
