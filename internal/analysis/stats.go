package analysis

import (
	"math"

	"github.com/samber/lo"
)

// present drops NaN values.
func present(x []float64) []float64 {
	return lo.Filter(x, func(v float64, _ int) bool { return !math.IsNaN(v) })
}

// Mean is the arithmetic mean of the non-NaN values of x, NaN when none remain.
func Mean(x []float64) float64 {
	vals := present(x)
	if len(vals) == 0 {
		return math.NaN()
	}
	return lo.Sum(vals) / float64(len(vals))
}

// SampleStd is the standard deviation of the non-NaN values of x with
// Bessel's correction (divide by n-1). NaN when fewer than two values remain.
func SampleStd(x []float64) float64 {
	vals := present(x)
	if len(vals) < 2 {
		return math.NaN()
	}
	mean := lo.Sum(vals) / float64(len(vals))
	var variance float64
	for _, v := range vals {
		diff := v - mean
		variance += diff * diff
	}
	variance /= float64(len(vals) - 1)
	return math.Sqrt(variance)
}

// ZScore returns (mean(subset) - mean(all)) / std(all). The result is NaN,
// never infinite, when the subset is empty, when all has fewer than two
// values, or when std(all) is zero.
func ZScore(subset, all []float64) float64 {
	sub := Mean(subset)
	std := SampleStd(all)
	if math.IsNaN(sub) || math.IsNaN(std) || std == 0 {
		return math.NaN()
	}
	return (sub - Mean(all)) / std
}

func masked(x []float64, mask []bool) []float64 {
	return lo.Filter(x, func(_ float64, i int) bool { return mask[i] })
}
