package cli

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/Veraticus/spice-forecast/internal/model"
	"github.com/Veraticus/spice-forecast/internal/profile"
	"github.com/stretchr/testify/assert"
)

func TestFormatMoney(t *testing.T) {
	tests := []struct {
		want   string
		amount float64
	}{
		{amount: 0, want: "$0.00"},
		{amount: 15.99, want: "$15.99"},
		{amount: 1234.5, want: "$1,234.50"},
		{amount: 1234567.891, want: "$1,234,567.89"},
		{amount: -42.1, want: "-$42.10"},
		{amount: 999.999, want: "$1,000.00"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatMoney(tt.amount))
		})
	}
}

func TestFormatPercent(t *testing.T) {
	assert.Equal(t, "0%", FormatPercent(0))
	assert.Equal(t, "40%", FormatPercent(0.4))
	assert.Equal(t, "95%", FormatPercent(0.951))
	assert.Equal(t, "100%", FormatPercent(1))
}

func TestSumMoney(t *testing.T) {
	assert.InDelta(t, 0.3, SumMoney(0.1, 0.2), 1e-12)
	assert.InDelta(t, 31.98, SumMoney(15.99, 15.99), 1e-12)
	assert.Zero(t, SumMoney())
}

func TestOrdinal(t *testing.T) {
	for day, want := range map[int]string{1: "1st", 2: "2nd", 3: "3rd", 4: "4th", 11: "11th", 12: "12th", 13: "13th", 21: "21st", 22: "22nd", 31: "31st"} {
		assert.Equal(t, want, ordinal(day))
	}
}

func TestRenderTable(t *testing.T) {
	out := RenderTable([]string{"Name", "Amount"}, [][]string{
		{"Netflix", "$15.99"},
		{"Rent", "$1,500.00"},
	})

	lines := strings.Split(out, "\n")
	assert.GreaterOrEqual(t, len(lines), 3)
	assert.Contains(t, out, "Netflix")
	assert.Contains(t, out, "$1,500.00")

	netflix := lines[len(lines)-2]
	rent := lines[len(lines)-1]
	assert.Equal(t, strings.Index(netflix, "$"), strings.Index(rent, "$"), "columns should align")
}

func TestRenderFixedExpenses(t *testing.T) {
	c := model.ExpenseClassification{
		Fixed: []model.FixedExpense{
			{MerchantName: "Netflix", Category: "Streaming", ExpectedAmount: 15.99, ExpectedDay: 5, OccurrenceCount: 6, Confidence: 0.9},
		},
		FixedTotal:      15.99,
		VariableAverage: 812.4,
	}

	out := RenderFixedExpenses(c)
	assert.Contains(t, out, "Fixed Expenses")
	assert.Contains(t, out, "Netflix")
	assert.Contains(t, out, "5th")
	assert.Contains(t, out, "90%")
	assert.Contains(t, out, "$812.40")
	assert.NotContains(t, out, "Skipped")

	empty := RenderFixedExpenses(model.ExpenseClassification{})
	assert.Contains(t, empty, "No fixed expenses detected.")
}

func TestRenderProfile(t *testing.T) {
	a := profile.Analysis{
		Profile: model.ProfilePaydaySpiker,
		Distribution: model.IntraMonthDistribution{
			FirstThird: 500, MiddleThird: 300, LastThird: 200, Total: 1000,
		},
		Spikes: []profile.Spike{{Center: 15, Day: 16, Average: 120, Threshold: 80}},
	}

	out := RenderProfile(a)
	assert.Contains(t, out, "Payday Spiker")
	assert.Contains(t, out, "50%")
	assert.Contains(t, out, "Spike on day 16 near payday 15")
}

func TestRenderPattern(t *testing.T) {
	p := model.SpendingPattern{
		DayOfWeekFactors:      [7]float64{1.4, 0.9, 0.9, 0.9, 0.9, 0.9, 1.1},
		DailyAverage:          50,
		WeekendAverage:        62.5,
		WeekdayAverage:        45,
		WeekendToWeekdayRatio: 1.39,
		HolidayMultipliers:    map[string]float64{"Christmas Season": 1.8},
	}
	holidays := []model.HolidayConfig{
		{Name: "Christmas Season", Month: time.December, StartDay: 20, EndDay: 31, DefaultMultiplier: 1.8},
	}

	out := RenderPattern(p, holidays)
	assert.Contains(t, out, "$50.00")
	assert.Contains(t, out, "Sunday")
	assert.Contains(t, out, "1.40x")
	assert.Contains(t, out, "Dec 20-31")
	assert.Contains(t, out, "1.80x")
	assert.Less(t, strings.Index(out, "Monday"), strings.Index(out, "Sunday"), "week should start on Monday")
}

func TestRenderForecast(t *testing.T) {
	start := time.Date(2024, time.November, 25, 0, 0, 0, 0, time.UTC)
	r := &model.ForecastResult{
		Start:       start,
		HorizonDays: 2,
		Profile:     model.ProfileSteady,
		Days: []model.DayProjection{
			{Date: start, Holiday: "Black Friday/Cyber Monday", Variable: 60, Total: 60},
			{Date: start.AddDate(0, 0, 1), Holiday: "Black Friday/Cyber Monday", Fixed: 15.99, Variable: 60, Total: 75.99},
		},
		ProjectedTotal:  135.99,
		FixedPortion:    15.99,
		VariablePortion: 120,
		Confidence:      0.8,
		ConfidenceBreakdown: model.ConfidenceBreakdown{
			Ceiling:       0.95,
			HistoryMonths: 4,
		},
		Skipped:  []model.SkippedRecord{{Index: 3, Err: errors.New("missing date")}},
		CacheHit: true,
	}

	out := RenderForecast(r)
	assert.Contains(t, out, "2024-11-25 to 2024-11-26")
	assert.Contains(t, out, "$135.99")
	assert.Contains(t, out, "80%")
	assert.Contains(t, out, "Black Friday")
	assert.Contains(t, out, "(cached)")
	assert.Contains(t, out, "Skipped 1 malformed record(s)")
}

func TestRenderSkipped_Truncates(t *testing.T) {
	skipped := make([]model.SkippedRecord, maxSkippedShown+3)
	for i := range skipped {
		skipped[i] = model.SkippedRecord{Index: i, Err: errors.New("bad")}
	}

	out := renderSkipped(skipped)
	assert.Contains(t, out, "... and 3 more")
	assert.Empty(t, renderSkipped(nil))
}
