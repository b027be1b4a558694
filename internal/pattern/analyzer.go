// Package pattern measures calendar effects on spending: day-of-week,
// weekend versus weekday, and holiday seasons.
package pattern

import (
	"log/slog"
	"time"

	"github.com/Veraticus/spice-forecast/internal/common"
	"github.com/Veraticus/spice-forecast/internal/model"
)

// DefaultDayOfWeekFactors are used when there is no usable history, indexed by time.Weekday.
var DefaultDayOfWeekFactors = [7]float64{
	time.Sunday:    1.3,
	time.Monday:    0.85,
	time.Tuesday:   0.9,
	time.Wednesday: 0.95,
	time.Thursday:  1.0,
	time.Friday:    1.1,
	time.Saturday:  1.4,
}

// minHolidayDates is the number of distinct dates with data a holiday window
// needs before its multiplier is measured instead of defaulted.
const minHolidayDates = 2

// Analyzer derives spending patterns. It holds no mutable state.
type Analyzer struct {
	holidays []model.HolidayConfig
}

// NewAnalyzer creates an analyzer for the holiday catalog.
func NewAnalyzer(holidays []model.HolidayConfig) (*Analyzer, error) {
	if err := ValidateHolidays(holidays); err != nil {
		return nil, err
	}
	return &Analyzer{holidays: append([]model.HolidayConfig(nil), holidays...)}, nil
}

// Holidays returns a copy of the catalog.
func (a *Analyzer) Holidays() []model.HolidayConfig {
	return append([]model.HolidayConfig(nil), a.holidays...)
}

// HolidayFor returns the holiday window containing the date, if any.
func (a *Analyzer) HolidayFor(date time.Time) (model.HolidayConfig, bool) {
	for _, h := range a.holidays {
		if h.Contains(date) {
			return h, true
		}
	}
	return model.HolidayConfig{}, false
}

// dailyTotal is the summed effective amount of one calendar date.
type dailyTotal struct {
	date  time.Time
	total float64
}

// Analyze computes the spending pattern of a history.
func (a *Analyzer) Analyze(transactions []model.Transaction) model.SpendingPattern {
	valid, skipped := model.Screen(transactions)
	days := collapseByDate(valid)

	totals := make([]float64, len(days))
	for i, d := range days {
		totals[i] = d.total
	}

	result := model.SpendingPattern{
		DailyAverage:     common.Mean(totals),
		DayOfWeekFactors: DefaultDayOfWeekFactors,
		Skipped:          skipped,
	}

	if factors, ok := dayOfWeekFactors(days, result.DailyAverage); ok {
		result.DayOfWeekFactors = factors
	}

	result.WeekendAverage, result.WeekdayAverage = weekendWeekday(days)
	result.WeekendToWeekdayRatio = common.SafeDiv(result.WeekendAverage, result.WeekdayAverage, 1.0)
	result.HolidayMultipliers = a.holidayMultipliers(days)

	slog.Debug("Analyzed spending pattern",
		"dates", len(days),
		"skipped", len(skipped),
		"daily_average", result.DailyAverage,
		"weekend_ratio", result.WeekendToWeekdayRatio)

	return result
}

// collapseByDate sums effective amounts per calendar date so several purchases
// on one day count as a single observation.
func collapseByDate(transactions []model.Transaction) []dailyTotal {
	index := make(map[time.Time]int)
	var days []dailyTotal

	for _, txn := range transactions {
		y, m, d := txn.Date.Date()
		date := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
		i, ok := index[date]
		if !ok {
			i = len(days)
			index[date] = i
			days = append(days, dailyTotal{date: date})
		}
		days[i].total += txn.EffectiveAmount()
	}

	return days
}

// dayOfWeekFactors returns per-weekday averages relative to the overall daily
// average, rescaled to a mean of exactly 1. Weekdays without data count as 1.
func dayOfWeekFactors(days []dailyTotal, overall float64) ([7]float64, bool) {
	var factors [7]float64
	if len(days) == 0 || overall <= 0 {
		return factors, false
	}

	var sums, counts [7]float64
	for _, d := range days {
		wd := d.date.Weekday()
		sums[wd] += d.total
		counts[wd]++
	}

	var sum float64
	for wd := range factors {
		factors[wd] = 1
		if counts[wd] > 0 {
			factors[wd] = sums[wd] / counts[wd] / overall
		}
		sum += factors[wd]
	}
	if sum <= 0 {
		return factors, false
	}

	scale := float64(len(factors)) / sum
	for wd := range factors {
		factors[wd] *= scale
	}
	return factors, true
}

func weekendWeekday(days []dailyTotal) (weekend, weekday float64) {
	var weekendTotals, weekdayTotals []float64
	for _, d := range days {
		switch d.date.Weekday() {
		case time.Saturday, time.Sunday:
			weekendTotals = append(weekendTotals, d.total)
		default:
			weekdayTotals = append(weekdayTotals, d.total)
		}
	}
	return common.Mean(weekendTotals), common.Mean(weekdayTotals)
}

// holidayMultipliers measures each holiday window against the average of all
// dates outside every window. Every catalog entry is present in the result.
func (a *Analyzer) holidayMultipliers(days []dailyTotal) map[string]float64 {
	inWindow := make(map[string][]float64, len(a.holidays))
	var baseline []float64

	for _, d := range days {
		h, ok := a.HolidayFor(d.date)
		if !ok {
			baseline = append(baseline, d.total)
			continue
		}
		inWindow[h.Name] = append(inWindow[h.Name], d.total)
	}

	baselineAverage := common.Mean(baseline)
	multipliers := make(map[string]float64, len(a.holidays))

	for _, h := range a.holidays {
		totals := inWindow[h.Name]
		if len(totals) < minHolidayDates || baselineAverage <= 0 {
			multipliers[h.Name] = h.DefaultMultiplier
			continue
		}
		multipliers[h.Name] = common.Mean(totals) / baselineAverage
	}

	return multipliers
}
