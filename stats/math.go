package stats

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Basic statistical functions shared by aggregation and calibration, using gonum for robustness

// Mean calculates the arithmetic mean of a slice using gonum
func Mean(data []float64) float64 {
	if len(data) == 0 {
		return 0.0
	}
	return stat.Mean(data, nil)
}

// Variance calculates the population variance of a slice
func Variance(data []float64) float64 {
	if len(data) == 0 {
		return 0.0
	}

	mean := Mean(data)
	variance := 0.0
	for _, v := range data {
		diff := v - mean
		variance += diff * diff
	}

	return variance / float64(len(data))
}

// StandardDeviation calculates the population standard deviation
func StandardDeviation(data []float64) float64 {
	return math.Sqrt(Variance(data))
}

// Correlation calculates Pearson correlation coefficient between two series
func Correlation(x, y []float64) float64 {
	if len(x) != len(y) || len(x) < 2 {
		return 0.0
	}

	r := stat.Correlation(x, y, nil)
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return 0.0
	}

	return r
}

// Quantile calculates the p-th quantile (p between 0 and 1)
func Quantile(data []float64, p float64) float64 {
	if len(data) == 0 || p < 0 || p > 1 {
		return 0.0
	}

	sorted := make([]float64, len(data))
	copy(sorted, data)
	sort.Float64s(sorted)

	return stat.Quantile(p, stat.Empirical, sorted, nil)
}

// Clamp constrains a value to a range
func Clamp(value, min, max float64) float64 {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}

// ClampUnit constrains a value to [0, 1], mapping non-finite inputs to the
// boundary nearest their sign rather than propagating them
func ClampUnit(value float64) float64 {
	if math.IsNaN(value) {
		return 0.0
	}
	if math.IsInf(value, 1) {
		return 1.0
	}
	if math.IsInf(value, -1) {
		return 0.0
	}
	return Clamp(value, 0.0, 1.0)
}

// Sigmoid computes the standard logistic function
func Sigmoid(x float64) float64 {
	return 1.0 / (1.0 + math.Exp(-x))
}

// Logit computes the inverse of Sigmoid on a value clamped away from 0 and 1
func Logit(p float64) float64 {
	p = Clamp(p, 1e-6, 1.0-1e-6)
	return math.Log(p / (1.0 - p))
}

// Logistic computes a parameterized logistic curve with the given midpoint and slope
func Logistic(x, midpoint, slope float64) float64 {
	return 1.0 / (1.0 + math.Exp(-slope*(x-midpoint)))
}

// Interpolate performs linear interpolation of y over breakpoints x at xi.
// Inputs outside the breakpoint range clamp to the boundary values.
func Interpolate(x, y []float64, xi float64) float64 {
	if len(x) != len(y) || len(x) == 0 {
		return 0.0
	}
	if len(x) == 1 {
		return y[0]
	}

	if xi <= x[0] {
		return y[0]
	}
	if xi >= x[len(x)-1] {
		return y[len(y)-1]
	}

	// Binary search for the interval
	left := 0
	right := len(x) - 1

	for right-left > 1 {
		mid := (left + right) / 2
		if x[mid] <= xi {
			left = mid
		} else {
			right = mid
		}
	}

	if x[right] == x[left] {
		return y[left]
	}

	t := (xi - x[left]) / (x[right] - x[left])
	return y[left] + t*(y[right]-y[left])
}

// WeightedMean calculates the weighted arithmetic mean; zero total weight yields 0
func WeightedMean(values, weights []float64) float64 {
	if len(values) != len(weights) || len(values) == 0 {
		return 0.0
	}

	sum := 0.0
	totalWeight := 0.0
	for i, v := range values {
		sum += v * weights[i]
		totalWeight += weights[i]
	}

	if totalWeight < 1e-12 {
		return 0.0
	}

	return sum / totalWeight
}
