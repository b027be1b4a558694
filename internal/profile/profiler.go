// Package profile classifies the intra-month rhythm of a spending history
// and produces day-of-month weight curves for each rhythm.
package profile

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/Veraticus/spice-forecast/internal/common"
	"github.com/Veraticus/spice-forecast/internal/model"
)

// Defaults for Options.
const (
	DefaultMinTransactions = 20
	DefaultSpikeMultiplier = 2.5
	DefaultSpikeWindow     = 3
	DefaultShareThreshold  = 0.50
	DefaultSteadyTolerance = 0.15
)

// DefaultPaydays are the days of month checked for payday spikes.
var DefaultPaydays = []int{1, 15}

// Options tune the profiler.
type Options struct {
	Paydays         []int
	SpikeMultiplier float64
	ShareThreshold  float64
	SteadyTolerance float64
	MinTransactions int
	SpikeWindow     int
}

// DefaultOptions returns the standard profiler configuration.
func DefaultOptions() Options {
	return Options{
		Paydays:         append([]int(nil), DefaultPaydays...),
		SpikeMultiplier: DefaultSpikeMultiplier,
		ShareThreshold:  DefaultShareThreshold,
		SteadyTolerance: DefaultSteadyTolerance,
		MinTransactions: DefaultMinTransactions,
		SpikeWindow:     DefaultSpikeWindow,
	}
}

// Validate checks option ranges.
func (o Options) Validate() error {
	if o.MinTransactions < 0 {
		return fmt.Errorf("%w: min transactions must not be negative", common.ErrInvalidConfig)
	}
	if o.SpikeMultiplier <= 0 {
		return fmt.Errorf("%w: spike multiplier must be positive", common.ErrInvalidConfig)
	}
	if o.SpikeWindow < 0 {
		return fmt.Errorf("%w: spike window must not be negative", common.ErrInvalidConfig)
	}
	if o.ShareThreshold <= 0 || o.ShareThreshold > 1 {
		return fmt.Errorf("%w: share threshold must be within (0,1]", common.ErrInvalidConfig)
	}
	if o.SteadyTolerance < 0 {
		return fmt.Errorf("%w: steady tolerance must not be negative", common.ErrInvalidConfig)
	}
	for _, day := range o.Paydays {
		if day < 1 || day > DaysInCurve {
			return fmt.Errorf("%w: payday %d outside 1-%d", common.ErrInvalidConfig, day, DaysInCurve)
		}
	}
	return nil
}

// Spike is a payday window whose busiest day exceeded the threshold.
type Spike struct {
	Center    int     `json:"center"`
	Day       int     `json:"day"`
	Average   float64 `json:"average"`
	Threshold float64 `json:"threshold"`
}

// Analysis is the full profiler output for one history.
type Analysis struct {
	Profile      model.SpenderProfile         `json:"profile"`
	Spikes       []Spike                      `json:"spikes"`
	Skipped      []model.SkippedRecord        `json:"-"`
	Distribution model.IntraMonthDistribution `json:"distribution"`
}

// Profiler assigns spender profiles. It holds no mutable state.
type Profiler struct {
	opts Options
}

// NewProfiler creates a profiler.
func NewProfiler(opts Options) (*Profiler, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return &Profiler{opts: opts}, nil
}

// Profile returns the spender profile of the history.
func (p *Profiler) Profile(transactions []model.Transaction) model.SpenderProfile {
	return p.Analyze(transactions).Profile
}

// Distribution sums effective amounts into day-of-month thirds.
func (p *Profiler) Distribution(transactions []model.Transaction) model.IntraMonthDistribution {
	valid, _ := model.Screen(transactions)
	return distribution(valid)
}

// Analyze computes the distribution, payday spikes and resulting profile.
func (p *Profiler) Analyze(transactions []model.Transaction) Analysis {
	valid, skipped := model.Screen(transactions)

	result := Analysis{
		Profile:      model.ProfileVariable,
		Distribution: distribution(valid),
		Skipped:      skipped,
	}

	if len(valid) < p.opts.MinTransactions {
		slog.Debug("Too few transactions to profile",
			"transactions", len(valid),
			"required", p.opts.MinTransactions)
		return result
	}

	result.Spikes = p.detectSpikes(valid)
	result.Profile = p.classify(result.Distribution, len(result.Spikes) > 0)

	slog.Debug("Profiled spending rhythm",
		"profile", result.Profile,
		"spikes", len(result.Spikes),
		"first_third", result.Distribution.FirstThird,
		"middle_third", result.Distribution.MiddleThird,
		"last_third", result.Distribution.LastThird)

	return result
}

func (p *Profiler) classify(dist model.IntraMonthDistribution, spiked bool) model.SpenderProfile {
	if spiked {
		return model.ProfilePaydaySpiker
	}
	if dist.Total <= 0 {
		return model.ProfileVariable
	}

	first := dist.FirstThird / dist.Total
	middle := dist.MiddleThird / dist.Total
	last := dist.LastThird / dist.Total

	switch {
	case first > p.opts.ShareThreshold:
		return model.ProfileFrontLoader
	case last > p.opts.ShareThreshold:
		return model.ProfileBackLoader
	case p.nearThird(first) && p.nearThird(middle) && p.nearThird(last):
		return model.ProfileSteady
	default:
		return model.ProfileVariable
	}
}

func (p *Profiler) nearThird(share float64) bool {
	return math.Abs(share-1.0/3.0) <= p.opts.SteadyTolerance
}

// detectSpikes compares each payday window's busiest day against the mean of
// all per-day averages.
func (p *Profiler) detectSpikes(transactions []model.Transaction) []Spike {
	var sums, counts [DaysInCurve + 1]float64
	for _, txn := range transactions {
		day := txn.Date.Day()
		sums[day] += txn.EffectiveAmount()
		counts[day]++
	}

	var averages [DaysInCurve + 1]float64
	var overall []float64
	for day := 1; day <= DaysInCurve; day++ {
		if counts[day] == 0 {
			continue
		}
		averages[day] = sums[day] / counts[day]
		overall = append(overall, averages[day])
	}

	mean := common.Mean(overall)
	if mean <= 0 {
		return nil
	}
	threshold := p.opts.SpikeMultiplier * mean

	var spikes []Spike
	for _, center := range p.opts.Paydays {
		peakDay, peak := 0, math.Inf(-1)
		for day := max(1, center-p.opts.SpikeWindow); day <= min(DaysInCurve, center+p.opts.SpikeWindow); day++ {
			if counts[day] == 0 {
				continue
			}
			if averages[day] > peak {
				peakDay, peak = day, averages[day]
			}
		}
		if peakDay != 0 && peak > threshold {
			spikes = append(spikes, Spike{
				Center:    center,
				Day:       peakDay,
				Average:   peak,
				Threshold: threshold,
			})
		}
	}

	return spikes
}

// distribution buckets effective amounts into days 1-10, 11-20 and 21-31.
func distribution(transactions []model.Transaction) model.IntraMonthDistribution {
	var dist model.IntraMonthDistribution
	for _, txn := range transactions {
		amount := txn.EffectiveAmount()
		switch day := txn.Date.Day(); {
		case day <= 10:
			dist.FirstThird += amount
		case day <= 20:
			dist.MiddleThird += amount
		default:
			dist.LastThird += amount
		}
		dist.Total += amount
	}
	return dist
}
