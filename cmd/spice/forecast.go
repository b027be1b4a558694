package main

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/Veraticus/spice-forecast/internal/cli"
	"github.com/Veraticus/spice-forecast/internal/common"
	"github.com/Veraticus/spice-forecast/internal/forecast"
	"github.com/spf13/cobra"
)

func forecastCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "forecast",
		Short: "Forecast spending for the coming days",
		Long: `Project day-by-day spending from your fixed expenses, spender profile
and calendar patterns, with a confidence score.

Fixed expenses land on their expected day of month. Variable spending is
spread using your profile's monthly curve, then scaled by the day-of-week
factor and any holiday multiplier. Confidence is capped by how much history
is available.

Examples:
  # Next 30 days, starting the day after your latest transaction
  spice forecast

  # A specific window
  spice forecast --start 2024-11-20 --horizon 14

  # Machine-readable output
  spice forecast --output json`,
		RunE: runForecast,
	}

	addHistoryFlags(cmd)
	cmd.Flags().IntP("horizon", "n", 0, "Number of days to forecast (default from forecast.default_horizon, 30)")
	cmd.Flags().String("start", "", "First forecast day (YYYY-MM-DD, default: day after the latest transaction)")

	return cmd
}

func runForecast(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	format, err := outputFormat(cmd)
	if err != nil {
		return err
	}
	filter, err := historyFilter(cmd)
	if err != nil {
		return err
	}

	var req forecast.Request
	if start, _ := cmd.Flags().GetString("start"); start != "" {
		if req.Start, err = parseDate(start, "start"); err != nil {
			return err
		}
	}

	env, err := newAnalysisEnv(ctx)
	if err != nil {
		return err
	}
	defer env.close()

	req.HorizonDays = env.cfg.DefaultHorizon
	if cmd.Flags().Changed("horizon") {
		req.HorizonDays, _ = cmd.Flags().GetInt("horizon")
	}

	composer, err := env.composer()
	if err != nil {
		return common.NewUserError("Invalid forecast settings", err)
	}

	result, err := composer.ForecastFromProvider(ctx, env.store, filter, req)
	if errors.Is(err, common.ErrInvalidHorizon) {
		return common.NewUserError(fmt.Sprintf("--horizon must be between 1 and %d days", env.cfg.Forecast.MaxHorizonDays), err)
	}
	if err != nil {
		return err
	}

	if result.ConfidenceBreakdown.HistoryMonths == 0 && len(result.Classification.Fixed) == 0 {
		slog.Warn("Forecast is based on little or no history; import more transactions for a better estimate")
	}

	return writeOutput(cmd.OutOrStdout(), format, result, func() string {
		return cli.RenderForecast(result)
	})
}
