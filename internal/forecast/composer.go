// Package forecast composes the expense, profile and pattern analyses into a
// day-by-day spending projection with a confidence score.
package forecast

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Veraticus/spice-forecast/internal/common"
	"github.com/Veraticus/spice-forecast/internal/model"
	"github.com/Veraticus/spice-forecast/internal/profile"
	"github.com/Veraticus/spice-forecast/internal/service"
	"golang.org/x/sync/errgroup"
)

// Defaults for Options.
const (
	DefaultCacheTTL       = 5 * time.Minute
	DefaultCacheCapacity  = 10
	DefaultMaxHorizonDays = 366
	DefaultHorizonDays    = 30
)

// Confidence blend weights.
const (
	dataQuantityWeight       = 0.30
	patternConsistencyWeight = 0.30
	fixedDetectionWeight     = 0.20
	profileClarityWeight     = 0.20

	// Months of history at which data quantity saturates.
	fullHistoryMonths = 3.0
	daysPerMonth      = 30.0
)

// confidenceCeiling caps the blended confidence by months of history.
type confidenceCeiling struct {
	belowMonths float64
	ceiling     float64
}

var ceilings = []confidenceCeiling{
	{belowMonths: 1, ceiling: 0.40},
	{belowMonths: 2, ceiling: 0.60},
	{belowMonths: 3, ceiling: 0.80},
}

const (
	noHistoryCeiling   = 0.20
	fullHistoryCeiling = 0.95
)

var profileClarity = map[model.SpenderProfile]float64{
	model.ProfileSteady:       0.90,
	model.ProfileFrontLoader:  0.80,
	model.ProfileBackLoader:   0.80,
	model.ProfilePaydaySpiker: 0.75,
	model.ProfileVariable:     0.40,
}

// Options configure the composer.
type Options struct {
	// Now supplies the clock for cache expiry and default start dates.
	Now            func() time.Time
	CacheTTL       time.Duration
	CacheCapacity  int // 0 disables caching
	MaxHorizonDays int
}

// DefaultOptions returns the standard composer configuration.
func DefaultOptions() Options {
	return Options{
		Now:            time.Now,
		CacheTTL:       DefaultCacheTTL,
		CacheCapacity:  DefaultCacheCapacity,
		MaxHorizonDays: DefaultMaxHorizonDays,
	}
}

// Validate checks option ranges.
func (o Options) Validate() error {
	if o.CacheCapacity < 0 {
		return fmt.Errorf("%w: cache capacity must not be negative, got %d", common.ErrInvalidConfig, o.CacheCapacity)
	}
	if o.CacheCapacity > 0 && o.CacheTTL <= 0 {
		return fmt.Errorf("%w: cache ttl must be positive, got %s", common.ErrInvalidConfig, o.CacheTTL)
	}
	if o.MaxHorizonDays < 1 {
		return fmt.Errorf("%w: max horizon must be at least 1 day, got %d", common.ErrInvalidConfig, o.MaxHorizonDays)
	}
	return nil
}

// Request selects the forecast window.
type Request struct {
	// Start is the first projected day. Zero means the day after the latest transaction.
	Start       time.Time
	HorizonDays int
}

// Composer produces forecasts from the three leaf analyses.
type Composer struct {
	classifier ExpenseClassifier
	profiler   SpenderProfiler
	analyzer   PatternAnalyzer
	cache      *resultCache
	opts       Options
}

// NewComposer creates a composer over the given analyses.
func NewComposer(classifier ExpenseClassifier, profiler SpenderProfiler, analyzer PatternAnalyzer, opts Options) (*Composer, error) {
	if classifier == nil || profiler == nil || analyzer == nil {
		return nil, fmt.Errorf("%w: composer requires a classifier, profiler and analyzer", common.ErrInvalidConfig)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	return &Composer{
		classifier: classifier,
		profiler:   profiler,
		analyzer:   analyzer,
		cache:      newResultCache(opts.CacheCapacity, opts.CacheTTL, opts.Now),
		opts:       opts,
	}, nil
}

// ForecastFromProvider loads transactions from the provider and forecasts them.
func (c *Composer) ForecastFromProvider(ctx context.Context, provider service.TransactionProvider, filter service.TransactionFilter, req Request) (*model.ForecastResult, error) {
	txns, err := provider.GetTransactions(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to load transactions: %w", err)
	}
	return c.Forecast(ctx, txns, req)
}

// Forecast projects spending over the requested horizon. Malformed records are
// skipped and reported in the result.
func (c *Composer) Forecast(ctx context.Context, transactions []model.Transaction, req Request) (*model.ForecastResult, error) {
	if req.HorizonDays < 1 || req.HorizonDays > c.opts.MaxHorizonDays {
		return nil, fmt.Errorf("%w: %d days, must be between 1 and %d", common.ErrInvalidHorizon, req.HorizonDays, c.opts.MaxHorizonDays)
	}

	valid, skipped := model.Screen(transactions)
	start := c.resolveStart(valid, req.Start)

	key := cacheKey(transactions, start, req.HorizonDays)
	if cached, ok := c.cache.get(key); ok {
		slog.Debug("Forecast cache hit", "start", start.Format(time.DateOnly), "horizon", req.HorizonDays)
		cached.CacheHit = true
		return &cached, nil
	}

	var (
		classification model.ExpenseClassification
		analysis       profile.Analysis
		pattern        model.SpendingPattern
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := gctx.Err(); err != nil {
			return err
		}
		classification = c.classifier.Classify(valid)
		return nil
	})
	g.Go(func() error {
		if err := gctx.Err(); err != nil {
			return err
		}
		analysis = c.profiler.Analyze(valid)
		return nil
	})
	g.Go(func() error {
		if err := gctx.Err(); err != nil {
			return err
		}
		pattern = c.analyzer.Analyze(valid)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("forecast canceled: %w", err)
	}

	result := model.ForecastResult{
		Start:          start,
		HorizonDays:    req.HorizonDays,
		Classification: classification,
		Profile:        analysis.Profile,
		Pattern:        pattern,
		Skipped:        skipped,
	}

	c.project(&result, c.profiler.Curve(analysis.Profile))
	result.ConfidenceBreakdown = confidence(valid, classification, analysis.Profile, pattern)
	result.Confidence = result.ConfidenceBreakdown.Blended

	c.cache.set(key, result)

	slog.Debug("Composed forecast",
		"start", start.Format(time.DateOnly),
		"horizon", req.HorizonDays,
		"profile", result.Profile,
		"projected_total", result.ProjectedTotal,
		"confidence", result.Confidence,
		"skipped", len(skipped))

	// Variable transactions share category lists with the input.
	out := cloneResult(result)
	return &out, nil
}

// resolveStart truncates the requested start to a UTC calendar date, or picks
// the day after the latest transaction when none is requested.
func (c *Composer) resolveStart(valid []model.Transaction, requested time.Time) time.Time {
	if requested.IsZero() {
		requested = c.opts.Now()
		if len(valid) > 0 {
			latest := valid[0].Date
			for _, txn := range valid[1:] {
				if txn.Date.After(latest) {
					latest = txn.Date
				}
			}
			requested = calendarDate(latest).AddDate(0, 0, 1)
		}
	}
	return calendarDate(requested)
}

func calendarDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// project fills in the per-day projection and the totals.
func (c *Composer) project(result *model.ForecastResult, curve profile.Curve) {
	dailyVariable := result.Classification.VariableAverage / daysPerMonth
	result.Days = make([]model.DayProjection, 0, result.HorizonDays)

	for i := 0; i < result.HorizonDays; i++ {
		date := result.Start.AddDate(0, 0, i)
		day := model.DayProjection{Date: date}

		lastDay := daysIn(date)
		for _, fixed := range result.Classification.Fixed {
			if min(max(fixed.ExpectedDay, 1), lastDay) == date.Day() {
				day.Fixed += fixed.ExpectedAmount
			}
		}

		multiplier := curve.Weight(date.Day()) * result.Pattern.DayOfWeekFactors[date.Weekday()]
		if h, ok := c.analyzer.HolidayFor(date); ok {
			day.Holiday = h.Name
			if m, ok := result.Pattern.HolidayMultipliers[h.Name]; ok {
				multiplier *= m
			} else {
				multiplier *= h.DefaultMultiplier
			}
		}
		day.Variable = dailyVariable * multiplier
		day.Total = day.Fixed + day.Variable

		result.FixedPortion += day.Fixed
		result.VariablePortion += day.Variable
		result.Days = append(result.Days, day)
	}

	result.ProjectedTotal = result.FixedPortion + result.VariablePortion
}

func daysIn(date time.Time) int {
	return time.Date(date.Year(), date.Month()+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// confidence blends the component scores and applies the history ceiling.
func confidence(valid []model.Transaction, classification model.ExpenseClassification, p model.SpenderProfile, pattern model.SpendingPattern) model.ConfidenceBreakdown {
	months := model.DaySpan(valid) / daysPerMonth

	b := model.ConfidenceBreakdown{
		HistoryMonths:  months,
		DataQuantity:   min(1, months/fullHistoryMonths),
		ProfileClarity: profileClarity[p],
	}

	if pattern.DailyAverage > 0 {
		b.PatternConsistency = 1 / (1 + common.CoefficientOfVariation(pattern.DayOfWeekFactors[:]))
	}

	if len(classification.Fixed) > 0 {
		scores := make([]float64, len(classification.Fixed))
		for i, f := range classification.Fixed {
			scores[i] = f.Confidence
		}
		b.FixedDetection = common.Mean(scores)
	}

	b.Ceiling = ceilingFor(len(valid), months)
	blended := dataQuantityWeight*b.DataQuantity +
		patternConsistencyWeight*b.PatternConsistency +
		fixedDetectionWeight*b.FixedDetection +
		profileClarityWeight*b.ProfileClarity
	b.Blended = common.Clamp(min(blended, b.Ceiling), 0, 1)

	return b
}

func ceilingFor(count int, months float64) float64 {
	if count == 0 {
		return noHistoryCeiling
	}
	for _, c := range ceilings {
		if months < c.belowMonths {
			return c.ceiling
		}
	}
	return fullHistoryCeiling
}
