package analysis

import (
	"fmt"

	"github.com/cadenzalabs/harmonia/analysis/config"
	"github.com/cadenzalabs/harmonia/logging"
	"github.com/cadenzalabs/harmonia/patterns"
)

// Progression classifications produced by arbitration
const (
	ProgressionClearFunctional = "clear_functional"
	ProgressionClearModal      = "clear_modal"
	ProgressionAmbiguous       = "ambiguous"
)

// ArbitrationResult records which interpretation won and why
type ArbitrationResult struct {
	Primary         Summary   `json:"primary"`
	Alternatives    []Summary `json:"alternatives,omitempty"`
	ConfidenceGap   float64   `json:"confidence_gap"`
	ProgressionType string    `json:"progression_type"`
	Rationale       string    `json:"rationale"`
	Warnings        []string  `json:"warnings,omitempty"`
}

func (r ArbitrationResult) toMap() map[string]any {
	return map[string]any{
		"confidence_gap":   r.ConfidenceGap,
		"progression_type": r.ProgressionType,
		"rationale":        r.Rationale,
		"warnings":         stringsToAny(r.Warnings),
	}
}

func arbitrationFromMap(m map[string]any) ArbitrationResult {
	return ArbitrationResult{
		ConfidenceGap:   asFloat(m["confidence_gap"]),
		ProgressionType: asString(m["progression_type"]),
		Rationale:       asString(m["rationale"]),
		Warnings:        asStrings(m["warnings"]),
	}
}

// Arbitrator chooses the primary interpretation between competing track
// summaries and raises sanity warnings, never errors, on implausible outcomes
type Arbitrator struct {
	config config.ArbitrationConfig
	logger logging.Logger
}

// NewArbitrator creates an arbitrator with the default thresholds
func NewArbitrator() *Arbitrator {
	return NewArbitratorWithConfig(config.DefaultArbitrationConfig())
}

// NewArbitratorWithConfig creates an arbitrator with custom thresholds
func NewArbitratorWithConfig(cfg config.ArbitrationConfig) *Arbitrator {
	return &Arbitrator{
		config: cfg,
		logger: logging.WithFields(logging.Fields{
			"component": "arbitrator",
		}),
	}
}

// Arbitrate picks the higher-confidence summary as primary. Ties break toward
// functional, the conventional default reading. When the gap is within the
// ambiguity threshold the losing summary is kept as an alternative.
func (a *Arbitrator) Arbitrate(functional, modal Summary, chordSymbols []string) ArbitrationResult {
	result := ArbitrationResult{
		ConfidenceGap: abs(functional.Confidence - modal.Confidence),
	}

	primary, secondary := functional, modal
	if modal.Confidence > functional.Confidence {
		primary, secondary = modal, functional
	}
	result.Primary = primary

	switch {
	case result.ConfidenceGap <= a.config.AmbiguityGap:
		result.ProgressionType = ProgressionAmbiguous
		result.Alternatives = []Summary{secondary}
		result.Rationale = fmt.Sprintf(
			"%s and %s confidences within %.2f of each other; presenting %s with %s as alternative",
			functional.Track, modal.Track, a.config.AmbiguityGap, primary.Track, secondary.Track)
	case primary.Track == patterns.TrackFunctional:
		result.ProgressionType = ProgressionClearFunctional
		result.Rationale = fmt.Sprintf(
			"functional confidence %.2f exceeds modal %.2f by more than %.2f",
			functional.Confidence, modal.Confidence, a.config.AmbiguityGap)
	default:
		result.ProgressionType = ProgressionClearModal
		result.Rationale = fmt.Sprintf(
			"modal confidence %.2f exceeds functional %.2f by more than %.2f",
			modal.Confidence, functional.Confidence, a.config.AmbiguityGap)
	}

	if warning := a.modalDominanceWarning(functional, modal); warning != "" {
		result.Warnings = append(result.Warnings, warning)
		a.logger.Warn(warning, logging.Fields{
			"functional_confidence": functional.Confidence,
			"modal_confidence":      modal.Confidence,
		})
	}

	return result
}

// modalDominanceWarning flags progressions that resolve like textbook
// functional harmony yet score implausibly modal. The modal vamp heuristics
// are known to over-trigger on tonic pedals, so this is a sanity check on the
// output, not a veto.
func (a *Arbitrator) modalDominanceWarning(functional, modal Summary) string {
	if modal.Confidence-functional.Confidence <= a.config.ModalDominanceMargin {
		return ""
	}
	if !looksObviouslyFunctional(functional.RomanNumerals) {
		return ""
	}
	return fmt.Sprintf(
		"modal confidence %.2f dominates functional %.2f on a progression resolving V to I; modal heuristics may be over-triggering",
		modal.Confidence, functional.Confidence)
}

// looksObviouslyFunctional reports whether the romans contain a dominant to
// tonic resolution, the strongest functional signature
func looksObviouslyFunctional(romans []string) bool {
	for i := 0; i+1 < len(romans); i++ {
		from := romanBase(romans[i])
		to := romanBase(romans[i+1])
		if (from == "V" || from == "v") && (to == "I" || to == "i") {
			return true
		}
	}
	return false
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
