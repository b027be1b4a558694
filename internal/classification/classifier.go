package classification

import (
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/Veraticus/spice-forecast/internal/common"
	"github.com/Veraticus/spice-forecast/internal/model"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Confidence weights for a merchant group.
const (
	amountWeight  = 0.35
	timingWeight  = 0.35
	patternWeight = 0.30

	// Bonus for groups with at least three occurrences, and again for six.
	occurrenceBonus = 0.10
)

// Defaults for Options.
const (
	DefaultMaxAmountCV                = 0.10
	DefaultMaxDaySpread               = 3.0
	DefaultSingleOccurrenceConfidence = 0.50
)

// CategoryOther is reported when neither the transactions nor the pattern name a category.
const CategoryOther = "Other"

// AcceptanceRule is one row of the fixed-expense threshold table.
// A merchant group is accepted when it satisfies any rule.
type AcceptanceRule struct {
	Name                string
	MinConfidence       float64
	RequirePatternMatch bool
}

// DefaultAcceptanceRules returns the standard threshold table.
//
//	general                   any group       confidence >= 0.60
//	known recurring merchant  pattern match   confidence >= 0.30
func DefaultAcceptanceRules() []AcceptanceRule {
	return []AcceptanceRule{
		{Name: "general", MinConfidence: 0.60},
		{Name: "known recurring merchant", MinConfidence: 0.30, RequirePatternMatch: true},
	}
}

// Options tune the classifier.
type Options struct {
	FixedMCCs       map[string]string
	Patterns        []Pattern
	AcceptanceRules []AcceptanceRule
	MaxAmountCV     float64
	MaxDaySpread    float64
	// SingleOccurrenceConfidence is assigned to a merchant seen once that
	// matches a recurring pattern. Such merchants have no variance to measure.
	SingleOccurrenceConfidence float64
}

// DefaultOptions returns the standard classifier configuration.
func DefaultOptions() Options {
	return Options{
		Patterns:                   DefaultRecurringPatterns(),
		FixedMCCs:                  DefaultFixedMCCs(),
		AcceptanceRules:            DefaultAcceptanceRules(),
		MaxAmountCV:                DefaultMaxAmountCV,
		MaxDaySpread:               DefaultMaxDaySpread,
		SingleOccurrenceConfidence: DefaultSingleOccurrenceConfidence,
	}
}

// Validate checks option ranges.
func (o Options) Validate() error {
	if o.MaxAmountCV < 0 {
		return fmt.Errorf("%w: max amount CV must not be negative", common.ErrInvalidConfig)
	}
	if o.MaxDaySpread < 0 {
		return fmt.Errorf("%w: max day spread must not be negative", common.ErrInvalidConfig)
	}
	if o.SingleOccurrenceConfidence < 0 || o.SingleOccurrenceConfidence > 1 {
		return fmt.Errorf("%w: single occurrence confidence must be within [0,1]", common.ErrInvalidConfig)
	}
	if len(o.AcceptanceRules) == 0 {
		return fmt.Errorf("%w: at least one acceptance rule is required", common.ErrInvalidConfig)
	}
	return nil
}

// Classifier partitions transactions into fixed expenses and variable spending.
// It holds no mutable state; Classify is safe for concurrent use.
type Classifier struct {
	detector *PatternDetector
	opts     Options
}

// NewClassifier creates a classifier.
func NewClassifier(opts Options) (*Classifier, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	detector, err := NewPatternDetector(opts.Patterns, opts.FixedMCCs)
	if err != nil {
		return nil, fmt.Errorf("failed to build recurring pattern detector: %w", err)
	}
	slog.Debug("Loaded recurring-expense catalog",
		"patterns", detector.GetPatternCount(),
		"fixed_mccs", len(opts.FixedMCCs))

	return &Classifier{
		detector: detector,
		opts:     opts,
	}, nil
}

// merchantGroup collects the transactions charged by one merchant.
type merchantGroup struct {
	key     string
	display string
	indices []int
}

// groupStats is the consistency evaluation of a merchant group.
type groupStats struct {
	match            *Match
	cv               float64
	daySpread        float64
	confidence       float64
	amountConsistent bool
	timingConsistent bool
}

// Classify separates fixed expenses from variable spending.
func (c *Classifier) Classify(transactions []model.Transaction) model.ExpenseClassification {
	valid, skipped := model.Screen(transactions)

	result := model.ExpenseClassification{
		Fixed:    []model.FixedExpense{},
		Variable: []model.Transaction{},
		Skipped:  skipped,
	}
	if len(valid) == 0 {
		return result
	}

	groups := groupByMerchant(valid)
	captured := make(map[int]bool, len(valid))

	for _, g := range groups {
		expense, ok := c.evaluate(g, valid)
		if !ok {
			continue
		}
		for _, idx := range g.indices {
			captured[idx] = true
		}
		result.Fixed = append(result.Fixed, expense)
		result.FixedTotal += expense.ExpectedAmount
	}

	var variableSum float64
	for i, txn := range valid {
		if captured[i] {
			continue
		}
		result.Variable = append(result.Variable, txn)
		variableSum += txn.EffectiveAmount()
	}

	months := model.DaySpan(valid) / 30
	result.VariableAverage = variableSum / math.Max(1, months)

	sort.SliceStable(result.Fixed, func(i, j int) bool {
		if result.Fixed[i].ExpectedAmount != result.Fixed[j].ExpectedAmount {
			return result.Fixed[i].ExpectedAmount > result.Fixed[j].ExpectedAmount
		}
		return result.Fixed[i].MerchantName < result.Fixed[j].MerchantName
	})

	slog.Debug("Classified expenses",
		"transactions", len(valid),
		"skipped", len(skipped),
		"fixed", len(result.Fixed),
		"variable", len(result.Variable),
		"fixed_total", result.FixedTotal,
		"variable_average", result.VariableAverage)

	return result
}

// groupByMerchant groups transaction indices by normalized merchant name,
// in order of first appearance. Transactions without a merchant are not grouped.
func groupByMerchant(transactions []model.Transaction) []*merchantGroup {
	byKey := make(map[string]*merchantGroup)
	var ordered []*merchantGroup

	for i, txn := range transactions {
		display := txn.Merchant()
		key := strings.ToLower(display)
		if key == "" {
			continue
		}
		g, ok := byKey[key]
		if !ok {
			g = &merchantGroup{key: key, display: display}
			byKey[key] = g
			ordered = append(ordered, g)
		}
		g.indices = append(g.indices, i)
	}

	return ordered
}

// evaluate scores a merchant group and builds its fixed expense when accepted.
func (c *Classifier) evaluate(g *merchantGroup, transactions []model.Transaction) (model.FixedExpense, bool) {
	members := make([]model.Transaction, len(g.indices))
	for i, idx := range g.indices {
		members[i] = transactions[idx]
	}

	match := c.detector.Detect(g.display, firstMCC(members))

	if len(members) < 2 {
		if match == nil {
			return model.FixedExpense{}, false
		}
		return c.buildExpense(g, members, match, c.opts.SingleOccurrenceConfidence), true
	}

	stats := c.score(members, match)
	if !c.accepts(stats) {
		return model.FixedExpense{}, false
	}

	slog.Debug("Detected fixed expense",
		"merchant", g.display,
		"occurrences", len(members),
		"cv", stats.cv,
		"day_spread", stats.daySpread,
		"confidence", stats.confidence)

	return c.buildExpense(g, members, match, stats.confidence), true
}

// score computes the consistency measures and confidence of a group of two or more.
func (c *Classifier) score(members []model.Transaction, match *Match) groupStats {
	amounts := make([]float64, len(members))
	days := make([]float64, len(members))
	for i, txn := range members {
		amounts[i] = txn.EffectiveAmount()
		days[i] = float64(txn.Date.Day())
	}

	stats := groupStats{
		match:     match,
		cv:        common.CoefficientOfVariation(amounts),
		daySpread: maxDeviation(days),
	}
	stats.amountConsistent = stats.cv <= c.opts.MaxAmountCV
	stats.timingConsistent = stats.daySpread <= c.opts.MaxDaySpread

	if stats.amountConsistent {
		stats.confidence += amountWeight
	}
	if stats.timingConsistent {
		stats.confidence += timingWeight
	}
	if match != nil {
		stats.confidence += patternWeight
	}
	if len(members) >= 3 {
		stats.confidence += occurrenceBonus
	}
	if len(members) >= 6 {
		stats.confidence += occurrenceBonus
	}
	stats.confidence = math.Min(stats.confidence, 1.0)

	return stats
}

// accepts applies the threshold table.
func (c *Classifier) accepts(stats groupStats) bool {
	for _, rule := range c.opts.AcceptanceRules {
		if rule.RequirePatternMatch && stats.match == nil {
			continue
		}
		if stats.confidence >= rule.MinConfidence {
			return true
		}
	}
	return false
}

func (c *Classifier) buildExpense(g *merchantGroup, members []model.Transaction, match *Match, confidence float64) model.FixedExpense {
	amounts := make([]float64, len(members))
	days := make([]float64, len(members))
	ids := make([]string, 0, len(members))
	var last time.Time
	category := ""

	for i, txn := range members {
		amounts[i] = txn.EffectiveAmount()
		days[i] = float64(txn.Date.Day())
		if txn.ID != "" {
			ids = append(ids, txn.ID)
		}
		if txn.Date.After(last) {
			last = txn.Date
		}
		if category == "" {
			category = txn.CategoryName()
		}
	}

	if category == "" && match != nil {
		category = match.Category
	}
	if category == "" {
		category = CategoryOther
	}

	return model.FixedExpense{
		MerchantName:    titleCase(g.display),
		ExpectedAmount:  common.Mean(amounts),
		ExpectedDay:     int(math.Round(common.Mean(days))),
		Category:        category,
		Confidence:      common.Clamp(confidence, 0, 1),
		LastOccurrence:  last,
		OccurrenceCount: len(members),
		TransactionIDs:  ids,
	}
}

// maxDeviation is the largest absolute distance from the mean.
func maxDeviation(values []float64) float64 {
	mean := common.Mean(values)
	var spread float64
	for _, v := range values {
		spread = math.Max(spread, math.Abs(v-mean))
	}
	return spread
}

func firstMCC(transactions []model.Transaction) string {
	for _, txn := range transactions {
		if txn.MCCCode != "" {
			return txn.MCCCode
		}
	}
	return ""
}

// titleCase normalizes merchant names like "NETFLIX.COM" to "Netflix.com".
func titleCase(name string) string {
	return cases.Title(language.English).String(strings.ToLower(strings.TrimSpace(name)))
}
