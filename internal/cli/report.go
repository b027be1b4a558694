package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/Veraticus/spice-forecast/internal/model"
	"github.com/Veraticus/spice-forecast/internal/profile"
	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"
)

// maxSkippedShown limits how many skipped records a report lists.
const maxSkippedShown = 5

// FormatMoney renders an amount as dollars with thousands separators, e.g. -$1,234.50.
func FormatMoney(amount float64) string {
	d := decimal.NewFromFloat(amount).Round(2)
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Abs()
	}

	fixed := d.StringFixed(2)
	whole, cents, _ := strings.Cut(fixed, ".")

	var b strings.Builder
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}

	return sign + "$" + b.String() + "." + cents
}

// FormatPercent renders a ratio in [0,1] as a whole percentage.
func FormatPercent(ratio float64) string {
	return decimal.NewFromFloat(ratio*100).Round(0).String() + "%"
}

// SumMoney adds amounts at cent precision.
func SumMoney(amounts ...float64) float64 {
	total := decimal.Zero
	for _, a := range amounts {
		total = total.Add(decimal.NewFromFloat(a).Round(2))
	}
	return total.InexactFloat64()
}

// RenderTable lays out rows under a header with aligned columns.
func RenderTable(headers []string, rows [][]string) string {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range rows {
		for i := 0; i < len(row) && i < len(widths); i++ {
			widths[i] = max(widths[i], lipgloss.Width(row[i]))
		}
	}

	cells := make([]string, len(headers))
	for i, h := range headers {
		cells[i] = TableCellStyle.Width(widths[i] + 2).Render(h)
	}

	lines := []string{TableHeaderStyle.Render(lipgloss.JoinHorizontal(lipgloss.Top, cells...))}
	for _, row := range rows {
		rendered := make([]string, 0, len(widths))
		for i := range widths {
			value := ""
			if i < len(row) {
				value = row[i]
			}
			rendered = append(rendered, TableCellStyle.Width(widths[i]+2).Render(value))
		}
		lines = append(lines, lipgloss.JoinHorizontal(lipgloss.Top, rendered...))
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

// RenderFixedExpenses lists detected fixed expenses and the variable monthly average.
func RenderFixedExpenses(c model.ExpenseClassification) string {
	var b strings.Builder

	if len(c.Fixed) == 0 {
		b.WriteString(FormatInfo("No fixed expenses detected."))
	} else {
		rows := make([][]string, 0, len(c.Fixed))
		for _, f := range c.Fixed {
			rows = append(rows, []string{
				f.MerchantName,
				f.Category,
				FormatMoney(f.ExpectedAmount),
				ordinal(f.ExpectedDay),
				fmt.Sprintf("%d", f.OccurrenceCount),
				ConfidenceStyle(f.Confidence).Render(FormatPercent(f.Confidence)),
			})
		}
		b.WriteString(RenderTable([]string{"Merchant", "Category", "Amount", "Day", "Seen", "Confidence"}, rows))
	}

	b.WriteString("\n\n")
	b.WriteString(fmt.Sprintf("%s %s\n", BoldStyle.Render("Fixed per month:"), FormatMoney(c.FixedTotal)))
	b.WriteString(fmt.Sprintf("%s %s", BoldStyle.Render("Variable per month:"), FormatMoney(c.VariableAverage)))

	return RenderBox(ChartIcon+" Fixed Expenses", b.String()) + renderSkipped(c.Skipped)
}

// RenderProfile describes the spender profile and the intra-month split behind it.
func RenderProfile(a profile.Analysis) string {
	var b strings.Builder

	b.WriteString(BoldStyle.Render(a.Profile.Label()))
	b.WriteString("\n")
	b.WriteString(SubtleStyle.Render(a.Profile.Description()))
	b.WriteString("\n\n")

	d := a.Distribution
	share := func(part float64) string {
		if d.Total <= 0 {
			return "-"
		}
		return FormatPercent(part / d.Total)
	}
	b.WriteString(RenderTable([]string{"Days", "Spent", "Share"}, [][]string{
		{"1-10", FormatMoney(d.FirstThird), share(d.FirstThird)},
		{"11-20", FormatMoney(d.MiddleThird), share(d.MiddleThird)},
		{"21-31", FormatMoney(d.LastThird), share(d.LastThird)},
	}))

	for _, s := range a.Spikes {
		b.WriteString("\n")
		b.WriteString(FormatInfo(fmt.Sprintf("Spike on day %d near payday %d: %s/day vs %s threshold",
			s.Day, s.Center, FormatMoney(s.Average), FormatMoney(s.Threshold))))
	}

	return RenderBox(CalendarIcon+" Spender Profile", b.String()) + renderSkipped(a.Skipped)
}

// RenderPattern shows day-of-week factors, the weekend ratio and holiday multipliers.
func RenderPattern(p model.SpendingPattern, holidays []model.HolidayConfig) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("%s %s\n\n", BoldStyle.Render("Daily average:"), FormatMoney(p.DailyAverage)))

	rows := make([][]string, 0, len(p.DayOfWeekFactors))
	for i := range p.DayOfWeekFactors {
		day := (time.Monday + time.Weekday(i)) % 7
		rows = append(rows, []string{day.String(), fmt.Sprintf("%.2fx", p.DayOfWeekFactors[day])})
	}
	b.WriteString(RenderTable([]string{"Day", "Factor"}, rows))

	b.WriteString(fmt.Sprintf("\n\n%s %s weekend / %s weekday (%.2fx)\n\n",
		BoldStyle.Render("Weekend vs weekday:"),
		FormatMoney(p.WeekendAverage), FormatMoney(p.WeekdayAverage), p.WeekendToWeekdayRatio))

	holidayRows := make([][]string, 0, len(holidays))
	for _, h := range holidays {
		multiplier := p.HolidayMultipliers[h.Name]
		holidayRows = append(holidayRows, []string{
			h.Name,
			fmt.Sprintf("%s %d-%d", h.Month.String()[:3], h.StartDay, h.EndDay),
			fmt.Sprintf("%.2fx", multiplier),
		})
	}
	b.WriteString(RenderTable([]string{"Holiday", "Window", "Multiplier"}, holidayRows))

	return RenderBox(ChartIcon+" Spending Patterns", b.String()) + renderSkipped(p.Skipped)
}

// RenderForecast shows the projected totals, the confidence breakdown and the daily projection.
func RenderForecast(r *model.ForecastResult) string {
	var b strings.Builder

	end := r.Start.AddDate(0, 0, r.HorizonDays-1)
	b.WriteString(SubtleStyle.Render(fmt.Sprintf("%s to %s (%d days), %s",
		r.Start.Format(time.DateOnly), end.Format(time.DateOnly), r.HorizonDays, r.Profile.Label())))
	b.WriteString("\n\n")

	b.WriteString(fmt.Sprintf("%s %s\n", BoldStyle.Render("Projected total:"), FormatMoney(r.ProjectedTotal)))
	b.WriteString(fmt.Sprintf("  fixed    %s\n", FormatMoney(r.FixedPortion)))
	b.WriteString(fmt.Sprintf("  variable %s\n\n", FormatMoney(r.VariablePortion)))

	c := r.ConfidenceBreakdown
	b.WriteString(fmt.Sprintf("%s %s", BoldStyle.Render("Confidence:"), ConfidenceStyle(r.Confidence).Render(FormatPercent(r.Confidence))))
	b.WriteString(SubtleStyle.Render(fmt.Sprintf(" (ceiling %s from %.1f months of history)", FormatPercent(c.Ceiling), c.HistoryMonths)))
	b.WriteString("\n")
	b.WriteString(RenderTable([]string{"Signal", "Score"}, [][]string{
		{"Data quantity", FormatPercent(c.DataQuantity)},
		{"Pattern consistency", FormatPercent(c.PatternConsistency)},
		{"Fixed detection", FormatPercent(c.FixedDetection)},
		{"Profile clarity", FormatPercent(c.ProfileClarity)},
	}))
	b.WriteString("\n\n")

	rows := make([][]string, 0, len(r.Days))
	for _, d := range r.Days {
		date := d.Date.Format("Mon Jan 02")
		if d.Holiday != "" {
			date = HolidayStyle.Render(date + " " + d.Holiday)
		}
		rows = append(rows, []string{date, FormatMoney(d.Fixed), FormatMoney(d.Variable), FormatMoney(d.Total)})
	}
	b.WriteString(RenderTable([]string{"Date", "Fixed", "Variable", "Total"}, rows))

	title := CalendarIcon + " Spending Forecast"
	if r.CacheHit {
		title += SubtleStyle.Render(" (cached)")
	}
	return RenderBox(title, b.String()) + renderSkipped(r.Skipped)
}

func renderSkipped(skipped []model.SkippedRecord) string {
	if len(skipped) == 0 {
		return ""
	}

	lines := []string{"", FormatWarning(fmt.Sprintf("Skipped %d malformed record(s)", len(skipped)))}
	for i, s := range skipped {
		if i == maxSkippedShown {
			lines = append(lines, SubtleStyle.Render(fmt.Sprintf("  ... and %d more", len(skipped)-maxSkippedShown)))
			break
		}
		lines = append(lines, SubtleStyle.Render("  "+s.String()))
	}
	return strings.Join(lines, "\n")
}

func ordinal(day int) string {
	suffix := "th"
	if day%100 < 11 || day%100 > 13 {
		switch day % 10 {
		case 1:
			suffix = "st"
		case 2:
			suffix = "nd"
		case 3:
			suffix = "rd"
		}
	}
	return fmt.Sprintf("%d%s", day, suffix)
}
