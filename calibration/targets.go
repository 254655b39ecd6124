package calibration

import (
	"github.com/cadenzalabs/harmonia/evidence"
	"github.com/cadenzalabs/harmonia/stats"
)

// SpanAnnotation is a ground-truth label over a half-open span of the input:
// Label is 1.0 where the named track's interpretation is correct, 0.0 where
// it is not, with fractional values allowed for partially correct regions
type SpanAnnotation struct {
	Span  evidence.Span `json:"span"`
	Track string        `json:"track"`
	Label float64       `json:"label"`
}

// TargetBuilderConfig weights the heuristic target blend
type TargetBuilderConfig struct {
	ScoreWeight   float64 `json:"score_weight"`
	SupportWeight float64 `json:"support_weight"`
	SpreadWeight  float64 `json:"spread_weight"`
}

// DefaultTargetBuilderConfig returns the heuristic blend weights
func DefaultTargetBuilderConfig() TargetBuilderConfig {
	return TargetBuilderConfig{
		ScoreWeight:   0.5,
		SupportWeight: 0.3,
		SpreadWeight:  0.2,
	}
}

// TargetBuilder produces supervised calibration targets from evidence,
// either heuristically or from ground-truth span annotations
type TargetBuilder struct {
	config TargetBuilderConfig
}

// NewTargetBuilder creates a target builder with default blend weights
func NewTargetBuilder() *TargetBuilder {
	return &TargetBuilder{config: DefaultTargetBuilderConfig()}
}

// NewTargetBuilderWithConfig creates a target builder with custom weights
func NewTargetBuilderWithConfig(config TargetBuilderConfig) *TargetBuilder {
	return &TargetBuilder{config: config}
}

// FromEvidence derives (raw score, heuristic target) pairs from matched
// evidence when no ground truth exists. The heuristic treats corroboration as
// signal: a match agreeing with other matches on the same track, covering a
// wider span, earns a higher target than its raw score alone suggests.
func (tb *TargetBuilder) FromEvidence(evidenceList []evidence.Evidence) (raw, targets []float64) {
	if len(evidenceList) == 0 {
		return nil, nil
	}

	maxLen := 0
	for _, ev := range evidenceList {
		if ev.Span.Len() > maxLen {
			maxLen = ev.Span.Len()
		}
	}

	raw = make([]float64, len(evidenceList))
	targets = make([]float64, len(evidenceList))

	for i, ev := range evidenceList {
		raw[i] = stats.ClampUnit(ev.RawScore)

		support := tb.trackSupport(evidenceList, i)

		spread := 0.0
		if maxLen > 0 {
			spread = float64(ev.Span.Len()) / float64(maxLen)
		}

		targets[i] = stats.ClampUnit(
			tb.config.ScoreWeight*raw[i] +
				tb.config.SupportWeight*support +
				tb.config.SpreadWeight*spread)
	}

	return raw, targets
}

// FromAnnotations derives (raw score, target) pairs against ground-truth span
// annotations: each evidence's target is the label of matching-track
// annotations weighted by span overlap, 0 when nothing annotated covers it
func (tb *TargetBuilder) FromAnnotations(evidenceList []evidence.Evidence, annotations []SpanAnnotation) (raw, targets []float64) {
	if len(evidenceList) == 0 {
		return nil, nil
	}

	raw = make([]float64, len(evidenceList))
	targets = make([]float64, len(evidenceList))

	for i, ev := range evidenceList {
		raw[i] = stats.ClampUnit(ev.RawScore)

		best := 0.0
		found := false
		for _, ann := range annotations {
			if _, ok := ev.TrackWeights[ann.Track]; !ok {
				continue
			}
			if !ev.Span.Overlaps(ann.Span) {
				continue
			}
			weighted := ann.Label * ev.Span.OverlapFraction(ann.Span)
			if !found || weighted > best {
				best = weighted
				found = true
			}
		}

		targets[i] = stats.ClampUnit(best)
	}

	return raw, targets
}

// trackSupport measures how much the rest of the evidence list corroborates
// evidence i on its own tracks, as a fraction of the other matches
func (tb *TargetBuilder) trackSupport(evidenceList []evidence.Evidence, i int) float64 {
	if len(evidenceList) < 2 {
		return 0.0
	}

	supporters := 0
	for j, other := range evidenceList {
		if j == i {
			continue
		}
		for track := range evidenceList[i].TrackWeights {
			if _, ok := other.TrackWeights[track]; ok {
				supporters++
				break
			}
		}
	}

	return float64(supporters) / float64(len(evidenceList)-1)
}
