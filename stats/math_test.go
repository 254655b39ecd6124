package stats_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cadenzalabs/harmonia/stats"
)

func TestClampUnit(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{0.5, 0.5},
		{-0.1, 0.0},
		{1.7, 1.0},
		{math.NaN(), 0.0},
		{math.Inf(1), 1.0},
		{math.Inf(-1), 0.0},
	}

	for _, tt := range tests {
		assert.InDelta(t, tt.want, stats.ClampUnit(tt.in), 1e-12)
	}
}

func TestLogitSigmoidInverse(t *testing.T) {
	for _, p := range []float64{0.1, 0.3, 0.5, 0.7, 0.9} {
		assert.InDelta(t, p, stats.Sigmoid(stats.Logit(p)), 1e-9)
	}

	// Boundary inputs clamp rather than diverge
	assert.False(t, math.IsInf(stats.Logit(0.0), 0))
	assert.False(t, math.IsInf(stats.Logit(1.0), 0))
}

func TestInterpolate(t *testing.T) {
	x := []float64{0.0, 0.5, 1.0}
	y := []float64{0.0, 0.8, 1.0}

	assert.InDelta(t, 0.4, stats.Interpolate(x, y, 0.25), 1e-9)
	assert.InDelta(t, 0.8, stats.Interpolate(x, y, 0.5), 1e-9)
	assert.InDelta(t, 0.0, stats.Interpolate(x, y, -1.0), 1e-9, "clamps below the range")
	assert.InDelta(t, 1.0, stats.Interpolate(x, y, 2.0), 1e-9, "clamps above the range")
}

func TestWeightedMean(t *testing.T) {
	assert.InDelta(t, 0.75,
		stats.WeightedMean([]float64{0.5, 1.0}, []float64{1.0, 1.0}), 1e-9)
	assert.InDelta(t, 1.0,
		stats.WeightedMean([]float64{0.5, 1.0}, []float64{0.0, 1.0}), 1e-9)
	assert.Zero(t, stats.WeightedMean([]float64{0.5}, []float64{0.0}), "zero total weight")
	assert.Zero(t, stats.WeightedMean(nil, nil))
}

func TestCorrelationDegenerateInputs(t *testing.T) {
	assert.Zero(t, stats.Correlation([]float64{1, 2}, []float64{1}))
	assert.Zero(t, stats.Correlation([]float64{0.5, 0.5, 0.5}, []float64{0.1, 0.2, 0.3}),
		"constant input yields zero, not NaN")

	x := []float64{0.1, 0.2, 0.3, 0.4}
	assert.InDelta(t, 1.0, stats.Correlation(x, x), 1e-9)
}
