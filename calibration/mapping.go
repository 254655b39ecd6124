package calibration

import (
	"github.com/cadenzalabs/harmonia/stats"
)

// MappingType identifies the calibration transform a mapping applies
type MappingType string

const (
	MappingIdentity MappingType = "identity"
	MappingPlatt    MappingType = "platt"
	MappingIsotonic MappingType = "isotonic"
)

// PlattParams are the scale and offset of a fitted Platt mapping:
// sigmoid(A * logit(x) + B)
type PlattParams struct {
	A float64 `json:"a" yaml:"a"`
	B float64 `json:"b" yaml:"b"`
}

// IsotonicParams are parallel breakpoint arrays of a fitted monotone,
// piecewise-linear mapping. X is non-decreasing; Apply interpolates
// between the nearest breakpoints and clamps outside the learned range.
type IsotonicParams struct {
	X []float64 `json:"x" yaml:"x"`
	Y []float64 `json:"y" yaml:"y"`
}

// Metrics is the snapshot recorded when a mapping is fit
type Metrics struct {
	SampleCount int     `json:"sample_count"`
	Correlation float64 `json:"correlation"`
	Variance    float64 `json:"variance"`
	ECE         float64 `json:"ece"`   // held-out expected calibration error
	Brier       float64 `json:"brier"` // held-out Brier score
}

// Mapping is the immutable output of fitting one calibration stage-set.
// A mapping that failed quality gates has Type == MappingIdentity and
// PassedGates == false; applying it is always safe.
type Mapping struct {
	Type        MappingType     `json:"mapping_type"`
	Platt       *PlattParams    `json:"platt,omitempty"`
	Isotonic    *IsotonicParams `json:"isotonic,omitempty"`
	Metrics     Metrics         `json:"metrics"`
	PassedGates bool            `json:"passed_gates"`
}

// IdentityMapping returns the fallback mapping used when fitting is rejected
func IdentityMapping(metrics Metrics) Mapping {
	return Mapping{
		Type:        MappingIdentity,
		Metrics:     metrics,
		PassedGates: false,
	}
}

// Apply maps a raw confidence through the fitted transform. Input and output
// are clamped to [0, 1]; non-finite input clamps to the boundary nearest its
// sign and never propagates.
func (m Mapping) Apply(x float64) float64 {
	x = stats.ClampUnit(x)

	switch m.Type {
	case MappingPlatt:
		if m.Platt == nil {
			return x
		}
		return stats.ClampUnit(stats.Sigmoid(m.Platt.A*stats.Logit(x) + m.Platt.B))
	case MappingIsotonic:
		if m.Isotonic == nil || len(m.Isotonic.X) == 0 {
			return x
		}
		return stats.ClampUnit(stats.Interpolate(m.Isotonic.X, m.Isotonic.Y, x))
	default:
		return x
	}
}
