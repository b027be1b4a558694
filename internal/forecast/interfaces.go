package forecast

import (
	"time"

	"github.com/Veraticus/spice-forecast/internal/model"
	"github.com/Veraticus/spice-forecast/internal/profile"
)

// ExpenseClassifier separates fixed expenses from variable spending.
type ExpenseClassifier interface {
	Classify(transactions []model.Transaction) model.ExpenseClassification
}

// SpenderProfiler labels the monthly rhythm and supplies its day-of-month curve.
type SpenderProfiler interface {
	Analyze(transactions []model.Transaction) profile.Analysis
	Curve(p model.SpenderProfile) profile.Curve
}

// PatternAnalyzer measures calendar effects and resolves holiday windows.
type PatternAnalyzer interface {
	Analyze(transactions []model.Transaction) model.SpendingPattern
	HolidayFor(date time.Time) (model.HolidayConfig, bool)
}
