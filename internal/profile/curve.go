package profile

import (
	"math"

	"github.com/Veraticus/spice-forecast/internal/model"
)

// DaysInCurve is the number of day-of-month weights in a curve.
const DaysInCurve = 31

// Curve shape constants.
const (
	decayRate       = 0.08
	paydayPeak      = 3.0
	paydayShoulder  = 1.5
	paydayBaseline  = 0.8
	paydayShoulders = 2
)

// Curve holds relative spending weights for days 1..31 (index 0 is day 1).
// Generated curves always sum to DaysInCurve, so a weight of 1 is an average day.
type Curve [DaysInCurve]float64

// Weight returns the weight of a day of month, clamping day to [1,31].
func (c Curve) Weight(day int) float64 {
	day = max(1, min(DaysInCurve, day))
	return c[day-1]
}

// Sum returns the total of all weights.
func (c Curve) Sum() float64 {
	var sum float64
	for _, w := range c {
		sum += w
	}
	return sum
}

// Curve generates the normalized day-of-month curve for a profile.
func (p *Profiler) Curve(profile model.SpenderProfile) Curve {
	return CurveFor(profile, p.opts.Paydays)
}

// CurveFor generates the normalized curve for a profile with the given paydays.
func CurveFor(profile model.SpenderProfile, paydays []int) Curve {
	var c Curve

	for i := range c {
		day := i + 1
		switch profile {
		case model.ProfileFrontLoader:
			c[i] = math.Exp(-decayRate * float64(day-1))
		case model.ProfileBackLoader:
			c[i] = math.Exp(-decayRate * float64(DaysInCurve-day))
		case model.ProfilePaydaySpiker:
			c[i] = paydayWeight(day, paydays)
		default:
			c[i] = 1
		}
	}

	return c.normalized()
}

func paydayWeight(day int, paydays []int) float64 {
	weight := paydayBaseline
	for _, payday := range paydays {
		distance := day - payday
		if distance < 0 {
			distance = -distance
		}
		switch {
		case distance == 0:
			return paydayPeak
		case distance <= paydayShoulders:
			weight = paydayShoulder
		}
	}
	return weight
}

// normalized rescales the curve so it sums to DaysInCurve.
func (c Curve) normalized() Curve {
	sum := c.Sum()
	if sum <= 0 {
		for i := range c {
			c[i] = 1
		}
		return c
	}
	scale := DaysInCurve / sum
	for i := range c {
		c[i] *= scale
	}
	return c
}
