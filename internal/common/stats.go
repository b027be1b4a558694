package common

import "math"

// Mean returns the arithmetic mean, or 0 for an empty slice.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// StdDev returns the population standard deviation, or 0 for an empty slice.
func StdDev(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	mean := Mean(values)
	var sq float64
	for _, v := range values {
		d := v - mean
		sq += d * d
	}
	return math.Sqrt(sq / float64(len(values)))
}

// CoefficientOfVariation returns stddev/mean. A non-positive mean has no
// meaningful scale and reports +Inf, i.e. maximally inconsistent.
func CoefficientOfVariation(values []float64) float64 {
	mean := Mean(values)
	if mean <= 0 {
		return math.Inf(1)
	}
	return StdDev(values) / mean
}

// SafeDiv returns num/den, or fallback when den is zero.
func SafeDiv(num, den, fallback float64) float64 {
	if den == 0 {
		return fallback
	}
	return num / den
}

// Clamp limits v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
