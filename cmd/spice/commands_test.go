package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Veraticus/spice-forecast/internal/common"
	"github.com/Veraticus/spice-forecast/internal/config"
	"github.com/Veraticus/spice-forecast/internal/model"
	"github.com/Veraticus/spice-forecast/internal/profile"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// historyCSV is 91 days of $12 coffee plus a monthly streaming charge.
func historyCSV() string {
	var b strings.Builder
	b.WriteString("Date,Merchant,Amount,MCC\n")
	start := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 91; i++ {
		d := start.AddDate(0, 0, i)
		fmt.Fprintf(&b, "%s,Corner Cafe,12.00,5814\n", d.Format(time.DateOnly))
		if d.Day() == 5 {
			fmt.Fprintf(&b, "%s,Netflix,15.99,4899\n", d.Format(time.DateOnly))
		}
	}
	return b.String()
}

func seedHistory(t *testing.T) {
	t.Helper()
	useTestDatabase(t)

	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{"history.csv": historyCSV()})

	cmd := importCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--account", "checking", filepath.Join(dir, "history.csv")})
	require.NoError(t, cmd.Execute())
}

func run(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestFixedCmd_JSON(t *testing.T) {
	seedHistory(t)

	out, err := run(t, fixedCmd(), "--output", "json")
	require.NoError(t, err)

	var result model.ExpenseClassification
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	require.Len(t, result.Fixed, 1)
	assert.Equal(t, "Netflix", result.Fixed[0].MerchantName)
	assert.Equal(t, 5, result.Fixed[0].ExpectedDay)
	assert.InDelta(t, 15.99, result.Fixed[0].ExpectedAmount, 1e-9)
	assert.Positive(t, result.VariableAverage)
}

func TestFixedCmd_Table(t *testing.T) {
	seedHistory(t)

	out, err := run(t, fixedCmd())
	require.NoError(t, err)
	assert.Contains(t, out, "Fixed Expenses")
	assert.Contains(t, out, "Netflix")
}

func TestProfileCmd_JSON(t *testing.T) {
	seedHistory(t)

	out, err := run(t, profileCmd(), "--output", "json", "--account", "checking")
	require.NoError(t, err)

	var result profile.Analysis
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, model.ProfileSteady, result.Profile)
	assert.Positive(t, result.Distribution.Total)
}

func TestPatternsCmd_JSON(t *testing.T) {
	seedHistory(t)

	out, err := run(t, patternsCmd(), "--output", "json")
	require.NoError(t, err)

	var report patternsReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.NotEmpty(t, report.Holidays)
	assert.Positive(t, report.Pattern.DailyAverage)

	var sum float64
	for _, f := range report.Pattern.DayOfWeekFactors {
		sum += f
	}
	assert.InDelta(t, 7, sum, 1e-6)
}

func TestForecastCmd_JSON(t *testing.T) {
	seedHistory(t)

	out, err := run(t, forecastCmd(), "--output", "json", "--start", "2024-04-01", "--horizon", "7")
	require.NoError(t, err)

	var result model.ForecastResult
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, time.Date(2024, time.April, 1, 0, 0, 0, 0, time.UTC), result.Start)
	assert.Equal(t, 7, result.HorizonDays)
	require.Len(t, result.Days, 7)

	// Netflix lands on the 5th.
	assert.InDelta(t, 15.99, result.Days[4].Fixed, 1e-9)
	assert.InDelta(t, result.FixedPortion+result.VariablePortion, result.ProjectedTotal, 1e-9)
	assert.LessOrEqual(t, result.Confidence, 0.95)
	assert.Positive(t, result.Confidence)
}

func TestForecastCmd_DefaultHorizonFromConfig(t *testing.T) {
	seedHistory(t)
	viper.Set(config.KeyDefaultHorizon, 10)

	out, err := run(t, forecastCmd(), "--output", "json")
	require.NoError(t, err)

	var result model.ForecastResult
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Len(t, result.Days, 10)
	// Starts the day after the latest transaction (2024-03-31).
	assert.Equal(t, time.Date(2024, time.April, 1, 0, 0, 0, 0, time.UTC), result.Start)
}

func TestForecastCmd_Errors(t *testing.T) {
	seedHistory(t)

	tests := []struct {
		wantIs error
		name   string
		args   []string
	}{
		{name: "horizon too long", args: []string{"--horizon", "400"}, wantIs: common.ErrInvalidHorizon},
		{name: "zero horizon", args: []string{"--horizon", "0"}, wantIs: common.ErrInvalidHorizon},
		{name: "bad start", args: []string{"--start", "04/01/2024"}},
		{name: "bad output", args: []string{"--output", "xml"}, wantIs: common.ErrInvalidConfig},
		{name: "inverted range", args: []string{"--from", "2024-03-01", "--to", "2024-02-01"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, forecastCmd(), tt.args...)
			var userErr *common.UserError
			require.ErrorAs(t, err, &userErr)
			if tt.wantIs != nil {
				assert.ErrorIs(t, err, tt.wantIs)
			}
		})
	}
}

func TestAnalysisCmds_NoHistory(t *testing.T) {
	for _, newCmd := range []func() *cobra.Command{fixedCmd, profileCmd, patternsCmd} {
		cmd := newCmd()
		t.Run(cmd.Name(), func(t *testing.T) {
			useTestDatabase(t)

			_, err := run(t, cmd)
			assert.ErrorIs(t, err, common.ErrNoTransactions)
		})
	}
}

func TestHistoryFilter(t *testing.T) {
	cmd := fixedCmd()
	require.NoError(t, cmd.ParseFlags([]string{"--from", "2024-01-01", "--to", "2024-01-31", "--account", " checking "}))

	filter, err := historyFilter(cmd)
	require.NoError(t, err)
	require.NotNil(t, filter.StartDate)
	require.NotNil(t, filter.EndDate)
	assert.Equal(t, time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC), *filter.StartDate)
	assert.Equal(t, 31, filter.EndDate.Day())
	assert.Equal(t, 23, filter.EndDate.Hour())
	assert.Equal(t, "checking", filter.AccountID)
}

func TestMigrateCmd(t *testing.T) {
	useTestDatabase(t)

	out, err := run(t, migrateCmd())
	require.NoError(t, err)
	assert.Contains(t, out, "Database schema is up to date")

	out, err = run(t, migrateCmd(), "--status")
	require.NoError(t, err)
	assert.Contains(t, out, "Schema version: 2 of 2")
}

func TestVersionCmd(t *testing.T) {
	out, err := run(t, versionCmd())
	require.NoError(t, err)
	assert.Equal(t, "spice dev\n", out)
}

func TestRootCmd_Help(t *testing.T) {
	out, err := run(t, rootCmd, "--help")
	require.NoError(t, err)

	for _, name := range []string{"import", "fixed", "profile", "patterns", "forecast", "migrate", "version"} {
		assert.Contains(t, out, name)
	}
}
