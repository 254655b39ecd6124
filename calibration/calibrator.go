package calibration

import (
	"fmt"
	"math"
	"sort"

	"github.com/cadenzalabs/harmonia/logging"
	"github.com/cadenzalabs/harmonia/stats"
)

// FitMethod selects the calibration transform to fit
type FitMethod string

const (
	FitAuto     FitMethod = "auto"
	FitPlatt    FitMethod = "platt"
	FitIsotonic FitMethod = "isotonic"
	FitIdentity FitMethod = "identity"
)

// CalibratorConfig holds the quality gates and fitting parameters.
// All gates must pass for a non-identity mapping to be returned.
type CalibratorConfig struct {
	MinSamples     int     `json:"min_samples"`      // fewer samples -> identity
	MinVariance    float64 `json:"min_variance"`     // target variance below -> identity
	MinCorrelation float64 `json:"min_correlation"`  // |pearson(raw, target)| below -> identity
	MaxECEIncrease float64 `json:"max_ece_increase"` // held-out ECE degradation budget
	NumBins        int     `json:"num_bins"`         // reliability-diagram bins
	HoldoutEvery   int     `json:"holdout_every"`    // every k-th sample held out for gating

	// Platt fitting
	PlattThresholds []float64 `json:"platt_thresholds"` // binarization thresholds tried
	PlattIterations int       `json:"platt_iterations"`
	PlattLearnRate  float64   `json:"platt_learn_rate"`
}

// DefaultCalibratorConfig returns the production gate settings
func DefaultCalibratorConfig() CalibratorConfig {
	return CalibratorConfig{
		MinSamples:      20,
		MinVariance:     1e-3,
		MinCorrelation:  0.2,
		MaxECEIncrease:  0.02,
		NumBins:         10,
		HoldoutEvery:    5,
		PlattThresholds: []float64{0.3, 0.4, 0.5, 0.6, 0.7},
		PlattIterations: 300,
		PlattLearnRate:  0.1,
	}
}

// Calibrator fits and applies confidence recalibration mappings.
// Fitting is an offline/batch step; the fitted Mapping is what analysis
// consumes. Gate rejections degrade to identity, never to an error.
type Calibrator struct {
	config CalibratorConfig
	logger logging.Logger
}

// NewCalibrator creates a calibrator with default quality gates
func NewCalibrator() *Calibrator {
	return NewCalibratorWithConfig(DefaultCalibratorConfig())
}

// NewCalibratorWithConfig creates a calibrator with custom gates
func NewCalibratorWithConfig(config CalibratorConfig) *Calibrator {
	if config.NumBins <= 0 {
		config.NumBins = 10
	}
	if config.HoldoutEvery <= 1 {
		config.HoldoutEvery = 5
	}
	return &Calibrator{
		config: config,
		logger: logging.WithFields(logging.Fields{
			"component": "calibrator",
		}),
	}
}

// Fit fits a calibration mapping from raw scores to supervised targets.
// Mismatched input lengths are a caller error; every other degenerate input
// degrades gracefully to the identity mapping with PassedGates == false.
func (c *Calibrator) Fit(raw, targets []float64, method FitMethod) (Mapping, error) {
	if len(raw) != len(targets) {
		return Mapping{}, fmt.Errorf("raw and target lengths differ: %d vs %d", len(raw), len(targets))
	}

	metrics := Metrics{
		SampleCount: len(raw),
		Correlation: stats.Correlation(raw, targets),
		Variance:    stats.Variance(targets),
	}

	if method == FitIdentity {
		return IdentityMapping(metrics), nil
	}

	if reason, ok := c.checkPreGates(metrics); !ok {
		c.logger.Debug("Calibration gate rejected fit", logging.Fields{
			"reason":  reason,
			"samples": metrics.SampleCount,
		})
		return IdentityMapping(metrics), nil
	}

	trainX, trainY, holdX, holdY := c.split(raw, targets)
	baselineECE := c.ECE(holdX, holdY)

	var candidates []Mapping
	if method == FitAuto || method == FitPlatt {
		if platt, ok := c.fitPlatt(trainX, trainY); ok {
			candidates = append(candidates, Mapping{Type: MappingPlatt, Platt: &platt})
		}
	}
	if method == FitAuto || method == FitIsotonic {
		if iso, ok := c.fitIsotonic(trainX, trainY); ok {
			candidates = append(candidates, Mapping{Type: MappingIsotonic, Isotonic: &iso})
		}
	}

	best := IdentityMapping(metrics)
	bestBrier := math.Inf(1)

	for _, candidate := range candidates {
		calibrated := make([]float64, len(holdX))
		for i, x := range holdX {
			calibrated[i] = candidate.Apply(x)
		}

		ece := c.ECE(calibrated, holdY)
		if ece > baselineECE+c.config.MaxECEIncrease {
			// The critical guard: a mapping that makes held-out
			// calibration worse is never deployed
			c.logger.Debug("Fit rejected by ECE gate", logging.Fields{
				"mapping_type": string(candidate.Type),
				"baseline_ece": baselineECE,
				"fitted_ece":   ece,
			})
			continue
		}

		brier := c.Brier(calibrated, holdY)
		if brier < bestBrier {
			candidate.Metrics = metrics
			candidate.Metrics.ECE = ece
			candidate.Metrics.Brier = brier
			candidate.PassedGates = true
			best = candidate
			bestBrier = brier
		}
	}

	if best.PassedGates {
		c.logger.Info("Fitted calibration mapping", logging.Fields{
			"mapping_type": string(best.Type),
			"samples":      metrics.SampleCount,
			"holdout_ece":  best.Metrics.ECE,
		})
	}

	return best, nil
}

func (c *Calibrator) checkPreGates(metrics Metrics) (string, bool) {
	if metrics.SampleCount < c.config.MinSamples {
		return "min_samples", false
	}
	if metrics.Variance < c.config.MinVariance {
		return "min_variance", false
	}
	if math.Abs(metrics.Correlation) < c.config.MinCorrelation {
		return "min_correlation", false
	}
	return "", true
}

// split partitions samples deterministically: every k-th sample is held out
// for the ECE gate, the rest train the mapping
func (c *Calibrator) split(raw, targets []float64) (trainX, trainY, holdX, holdY []float64) {
	for i := range raw {
		if i%c.config.HoldoutEvery == 0 {
			holdX = append(holdX, raw[i])
			holdY = append(holdY, targets[i])
		} else {
			trainX = append(trainX, raw[i])
			trainY = append(trainY, targets[i])
		}
	}
	return trainX, trainY, holdX, holdY
}

// fitPlatt fits sigmoid(a*logit(x) + b) against a binarized target, trying
// each configured binarization threshold and keeping the fit with the lowest
// training log-loss
func (c *Calibrator) fitPlatt(x, y []float64) (PlattParams, bool) {
	if len(x) < 2 {
		return PlattParams{}, false
	}

	z := make([]float64, len(x))
	for i, v := range x {
		z[i] = stats.Logit(stats.ClampUnit(v))
	}

	bestLoss := math.Inf(1)
	var best PlattParams
	found := false

	for _, threshold := range c.config.PlattThresholds {
		binary := make([]float64, len(y))
		positives := 0
		for i, t := range y {
			if t >= threshold {
				binary[i] = 1.0
				positives++
			}
		}
		// A threshold that separates nothing carries no signal
		if positives == 0 || positives == len(y) {
			continue
		}

		a, b := c.logisticRegression(z, binary)
		loss := logLoss(z, binary, a, b)
		if loss < bestLoss {
			bestLoss = loss
			best = PlattParams{A: a, B: b}
			found = true
		}
	}

	return best, found
}

// logisticRegression fits p = sigmoid(a*z + b) by gradient descent.
// Deterministic: fixed initialization, iterations and learning rate.
func (c *Calibrator) logisticRegression(z, y []float64) (float64, float64) {
	a, b := 1.0, 0.0
	n := float64(len(z))

	for iter := 0; iter < c.config.PlattIterations; iter++ {
		gradA, gradB := 0.0, 0.0
		for i := range z {
			p := stats.Sigmoid(a*z[i] + b)
			gradA += (p - y[i]) * z[i]
			gradB += p - y[i]
		}
		a -= c.config.PlattLearnRate * gradA / n
		b -= c.config.PlattLearnRate * gradB / n
	}

	return a, b
}

func logLoss(z, y []float64, a, b float64) float64 {
	loss := 0.0
	for i := range z {
		p := stats.Clamp(stats.Sigmoid(a*z[i]+b), 1e-9, 1.0-1e-9)
		loss += -y[i]*math.Log(p) - (1.0-y[i])*math.Log(1.0-p)
	}
	return loss / float64(len(z))
}

// fitIsotonic fits a monotone non-decreasing step mapping by pool-adjacent-
// violators, then emits the pooled blocks as piecewise-linear breakpoints
func (c *Calibrator) fitIsotonic(x, y []float64) (IsotonicParams, bool) {
	if len(x) < 2 {
		return IsotonicParams{}, false
	}

	type sample struct{ x, y float64 }
	samples := make([]sample, len(x))
	for i := range x {
		samples[i] = sample{x: stats.ClampUnit(x[i]), y: stats.ClampUnit(y[i])}
	}
	sort.Slice(samples, func(i, j int) bool { return samples[i].x < samples[j].x })

	type block struct {
		sumX, sumY float64
		count      float64
	}
	var blocks []block
	for _, s := range samples {
		blocks = append(blocks, block{sumX: s.x, sumY: s.y, count: 1})
		// Pool while the last block violates monotonicity
		for len(blocks) >= 2 {
			last := len(blocks) - 1
			if blocks[last].sumY/blocks[last].count >= blocks[last-1].sumY/blocks[last-1].count {
				break
			}
			blocks[last-1].sumX += blocks[last].sumX
			blocks[last-1].sumY += blocks[last].sumY
			blocks[last-1].count += blocks[last].count
			blocks = blocks[:last]
		}
	}

	params := IsotonicParams{}
	for _, blk := range blocks {
		bx := blk.sumX / blk.count
		by := blk.sumY / blk.count
		// Merge breakpoints with equal x to keep X strictly increasing
		if n := len(params.X); n > 0 && bx <= params.X[n-1] {
			params.Y[n-1] = by
			continue
		}
		params.X = append(params.X, bx)
		params.Y = append(params.Y, by)
	}

	if len(params.X) < 2 {
		return IsotonicParams{}, false
	}

	return params, true
}

// ECE computes the expected calibration error over equal-width bins
func (c *Calibrator) ECE(predictions, targets []float64) float64 {
	if len(predictions) == 0 || len(predictions) != len(targets) {
		return 0.0
	}

	bins := c.config.NumBins
	sumPred := make([]float64, bins)
	sumTarget := make([]float64, bins)
	counts := make([]int, bins)

	for i, p := range predictions {
		idx := binIndex(p, bins)
		sumPred[idx] += p
		sumTarget[idx] += targets[i]
		counts[idx]++
	}

	n := float64(len(predictions))
	ece := 0.0
	for i := 0; i < bins; i++ {
		if counts[i] == 0 {
			continue
		}
		cnt := float64(counts[i])
		ece += (cnt / n) * math.Abs(sumPred[i]/cnt-sumTarget[i]/cnt)
	}

	return ece
}

// Brier computes the mean squared error between predictions and targets
func (c *Calibrator) Brier(predictions, targets []float64) float64 {
	if len(predictions) == 0 || len(predictions) != len(targets) {
		return 0.0
	}

	sum := 0.0
	for i, p := range predictions {
		diff := p - targets[i]
		sum += diff * diff
	}

	return sum / float64(len(predictions))
}

func binIndex(p float64, bins int) int {
	idx := int(stats.ClampUnit(p) * float64(bins))
	if idx >= bins {
		idx = bins - 1
	}
	return idx
}
