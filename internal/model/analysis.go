package model

import "time"

// FixedExpense is a recurring obligation inferred from repeated, consistent
// charges to one merchant. It is recomputed on every classification.
type FixedExpense struct {
	LastOccurrence  time.Time `json:"last_occurrence"`
	MerchantName    string    `json:"merchant_name"`
	Category        string    `json:"category"`
	TransactionIDs  []string  `json:"transaction_ids,omitempty"`
	ExpectedAmount  float64   `json:"expected_amount"`
	Confidence      float64   `json:"confidence"`
	ExpectedDay     int       `json:"expected_day"`
	OccurrenceCount int       `json:"occurrence_count"`
}

// ExpenseClassification partitions a transaction history into fixed and variable spending.
type ExpenseClassification struct {
	Fixed           []FixedExpense  `json:"fixed"`
	Variable        []Transaction   `json:"-"`
	Skipped         []SkippedRecord `json:"-"`
	FixedTotal      float64         `json:"fixed_total"`
	VariableAverage float64         `json:"variable_average"` // Monthly
}

// SpenderProfile labels how spending is distributed across a month.
type SpenderProfile string

// Spender profiles.
const (
	ProfileFrontLoader  SpenderProfile = "front-loader"
	ProfileBackLoader   SpenderProfile = "back-loader"
	ProfilePaydaySpiker SpenderProfile = "payday-spiker"
	ProfileSteady       SpenderProfile = "steady"
	ProfileVariable     SpenderProfile = "variable"
)

// Label returns a short display name for the profile.
func (p SpenderProfile) Label() string {
	switch p {
	case ProfileFrontLoader:
		return "Front-Loader"
	case ProfileBackLoader:
		return "Back-Loader"
	case ProfilePaydaySpiker:
		return "Payday Spiker"
	case ProfileSteady:
		return "Steady Spender"
	default:
		return "Variable Spender"
	}
}

// Description returns one sentence explaining the profile.
func (p SpenderProfile) Description() string {
	switch p {
	case ProfileFrontLoader:
		return "Most spending happens in the first ten days of the month."
	case ProfileBackLoader:
		return "Most spending happens in the last third of the month."
	case ProfilePaydaySpiker:
		return "Spending spikes around the 1st and the 15th."
	case ProfileSteady:
		return "Spending is spread evenly across the month."
	default:
		return "Spending follows no consistent monthly rhythm."
	}
}

// IntraMonthDistribution holds effective-amount sums by day-of-month thirds:
// days 1-10, 11-20 and 21-31.
type IntraMonthDistribution struct {
	FirstThird  float64 `json:"first_third"`
	MiddleThird float64 `json:"middle_third"`
	LastThird   float64 `json:"last_third"`
	Total       float64 `json:"total"`
}

// HolidayConfig describes a fixed calendar window with elevated spending.
type HolidayConfig struct {
	Name              string     `json:"name" mapstructure:"name"`
	Month             time.Month `json:"month" mapstructure:"month"`
	StartDay          int        `json:"start_day" mapstructure:"start_day"`
	EndDay            int        `json:"end_day" mapstructure:"end_day"`
	DefaultMultiplier float64    `json:"default_multiplier" mapstructure:"default_multiplier"`
}

// Contains reports whether the date's month and day fall in the window.
// The year is ignored.
func (h HolidayConfig) Contains(date time.Time) bool {
	return date.Month() == h.Month && date.Day() >= h.StartDay && date.Day() <= h.EndDay
}

// SpendingPattern quantifies calendar effects relative to the historical daily average.
type SpendingPattern struct {
	HolidayMultipliers    map[string]float64 `json:"holiday_multipliers"`
	Skipped               []SkippedRecord    `json:"-"`
	DayOfWeekFactors      [7]float64         `json:"day_of_week_factors"` // Indexed by time.Weekday
	WeekendAverage        float64            `json:"weekend_average"`
	WeekdayAverage        float64            `json:"weekday_average"`
	WeekendToWeekdayRatio float64            `json:"weekend_to_weekday_ratio"`
	DailyAverage          float64            `json:"daily_average"`
}

// DayProjection is the forecast for a single future date.
type DayProjection struct {
	Date     time.Time `json:"date"`
	Holiday  string    `json:"holiday,omitempty"`
	Fixed    float64   `json:"fixed"`
	Variable float64   `json:"variable"`
	Total    float64   `json:"total"`
}

// ConfidenceBreakdown records the inputs of a forecast confidence score.
type ConfidenceBreakdown struct {
	DataQuantity       float64 `json:"data_quantity"`
	PatternConsistency float64 `json:"pattern_consistency"`
	FixedDetection     float64 `json:"fixed_detection"`
	ProfileClarity     float64 `json:"profile_clarity"`
	Blended            float64 `json:"blended"`
	Ceiling            float64 `json:"ceiling"`
	HistoryMonths      float64 `json:"history_months"`
}

// ForecastResult is the projected spending over a horizon.
type ForecastResult struct {
	Start               time.Time             `json:"start"`
	Pattern             SpendingPattern       `json:"pattern"`
	Profile             SpenderProfile        `json:"profile"`
	Classification      ExpenseClassification `json:"classification"`
	Days                []DayProjection       `json:"days"`
	Skipped             []SkippedRecord       `json:"-"`
	ConfidenceBreakdown ConfidenceBreakdown   `json:"confidence_breakdown"`
	ProjectedTotal      float64               `json:"projected_total"`
	FixedPortion        float64               `json:"fixed_portion"`
	VariablePortion     float64               `json:"variable_portion"`
	Confidence          float64               `json:"confidence"`
	HorizonDays         int                   `json:"horizon_days"`
	CacheHit            bool                  `json:"cache_hit"`
}
