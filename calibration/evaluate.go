package calibration

import (
	"fmt"

	"github.com/cadenzalabs/harmonia/stats"
)

// ReliabilityBin is one bin of a reliability diagram
type ReliabilityBin struct {
	Center         float64 `json:"center"`
	MeanConfidence float64 `json:"mean_confidence"`
	Reliability    float64 `json:"reliability"` // empirical mean target in the bin
	Count          int     `json:"count"`
}

// MetricPair compares a metric before and after calibration
type MetricPair struct {
	Baseline   float64 `json:"baseline"`
	Calibrated float64 `json:"calibrated"`
}

// Report is the output of evaluating a mapping against labeled data
type Report struct {
	SampleCount int     `json:"sample_count"`
	Correlation float64 `json:"correlation"`
	Variance    float64 `json:"variance"`

	ECE   MetricPair `json:"ece"`
	Brier MetricPair `json:"brier"`

	Reliability []ReliabilityBin `json:"reliability"`

	ECEImprovement   float64  `json:"ece_improvement"`
	BrierImprovement float64  `json:"brier_improvement"`
	Improved         bool     `json:"improved"`
	Warnings         []string `json:"warnings,omitempty"`
}

// Evaluate computes baseline vs. calibrated calibration quality for a mapping,
// a reliability-diagram binning of the calibrated predictions, and free-text
// warnings for degenerate inputs
func (c *Calibrator) Evaluate(raw, targets []float64, mapping Mapping) (*Report, error) {
	if len(raw) != len(targets) {
		return nil, fmt.Errorf("raw and target lengths differ: %d vs %d", len(raw), len(targets))
	}

	calibrated := make([]float64, len(raw))
	for i, x := range raw {
		calibrated[i] = mapping.Apply(x)
	}

	report := &Report{
		SampleCount: len(raw),
		Correlation: stats.Correlation(raw, targets),
		Variance:    stats.Variance(targets),
		ECE: MetricPair{
			Baseline:   c.ECE(raw, targets),
			Calibrated: c.ECE(calibrated, targets),
		},
		Brier: MetricPair{
			Baseline:   c.Brier(raw, targets),
			Calibrated: c.Brier(calibrated, targets),
		},
		Reliability: c.reliabilityBins(calibrated, targets),
	}

	report.ECEImprovement = report.ECE.Baseline - report.ECE.Calibrated
	report.BrierImprovement = report.Brier.Baseline - report.Brier.Calibrated
	report.Improved = report.ECEImprovement > 0 || report.BrierImprovement > 0

	if report.SampleCount < c.config.MinSamples {
		report.Warnings = append(report.Warnings,
			fmt.Sprintf("only %d samples (below %d); metrics are unstable", report.SampleCount, c.config.MinSamples))
	}
	if report.Variance < c.config.MinVariance {
		report.Warnings = append(report.Warnings,
			fmt.Sprintf("target variance %.5f is below %.5f; there is little signal to evaluate against", report.Variance, c.config.MinVariance))
	}

	return report, nil
}

func (c *Calibrator) reliabilityBins(predictions, targets []float64) []ReliabilityBin {
	bins := make([]ReliabilityBin, c.config.NumBins)
	width := 1.0 / float64(c.config.NumBins)
	for i := range bins {
		bins[i].Center = (float64(i) + 0.5) * width
	}

	sumPred := make([]float64, c.config.NumBins)
	sumTarget := make([]float64, c.config.NumBins)

	for i, p := range predictions {
		idx := binIndex(p, c.config.NumBins)
		sumPred[idx] += p
		sumTarget[idx] += targets[i]
		bins[idx].Count++
	}

	for i := range bins {
		if bins[i].Count > 0 {
			cnt := float64(bins[i].Count)
			bins[i].MeanConfidence = sumPred[i] / cnt
			bins[i].Reliability = sumTarget[i] / cnt
		}
	}

	return bins
}
