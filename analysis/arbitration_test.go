package analysis_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cadenzalabs/harmonia/analysis"
	"github.com/cadenzalabs/harmonia/patterns"
)

func functionalSummary(confidence float64, romans ...string) analysis.Summary {
	return analysis.Summary{
		Type:          analysis.AnalysisHarmonic,
		Track:         patterns.TrackFunctional,
		Confidence:    confidence,
		RomanNumerals: romans,
	}
}

func modalSummary(confidence float64) analysis.Summary {
	return analysis.Summary{
		Type:       analysis.AnalysisHarmonic,
		Track:      patterns.TrackModal,
		Confidence: confidence,
	}
}

func TestArbitrateClearFunctional(t *testing.T) {
	result := analysis.NewArbitrator().Arbitrate(
		functionalSummary(0.9, "V", "I"), modalSummary(0.2), nil)

	assert.Equal(t, patterns.TrackFunctional, result.Primary.Track)
	assert.Equal(t, analysis.ProgressionClearFunctional, result.ProgressionType)
	assert.Empty(t, result.Alternatives)
	assert.InDelta(t, 0.7, result.ConfidenceGap, 1e-9)
	assert.NotEmpty(t, result.Rationale)
}

func TestArbitrateClearModal(t *testing.T) {
	result := analysis.NewArbitrator().Arbitrate(
		functionalSummary(0.1), modalSummary(0.8), nil)

	assert.Equal(t, patterns.TrackModal, result.Primary.Track)
	assert.Equal(t, analysis.ProgressionClearModal, result.ProgressionType)
	assert.Empty(t, result.Alternatives)
}

func TestArbitrateAmbiguousKeepsAlternative(t *testing.T) {
	result := analysis.NewArbitrator().Arbitrate(
		functionalSummary(0.62), modalSummary(0.55), nil)

	assert.Equal(t, analysis.ProgressionAmbiguous, result.ProgressionType)
	assert.Equal(t, patterns.TrackFunctional, result.Primary.Track)
	require.Len(t, result.Alternatives, 1)
	assert.Equal(t, patterns.TrackModal, result.Alternatives[0].Track)
}

func TestArbitrateTieBreaksFunctional(t *testing.T) {
	result := analysis.NewArbitrator().Arbitrate(
		functionalSummary(0.5), modalSummary(0.5), nil)

	assert.Equal(t, patterns.TrackFunctional, result.Primary.Track)
	assert.Equal(t, analysis.ProgressionAmbiguous, result.ProgressionType)
}

func TestArbitrateModalDominanceWarning(t *testing.T) {
	// Obviously functional resolution, implausibly modal confidence
	result := analysis.NewArbitrator().Arbitrate(
		functionalSummary(0.2, "I", "V", "I"), modalSummary(0.9), nil)

	require.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0], "modal")
	assert.Equal(t, analysis.ProgressionClearModal, result.ProgressionType,
		"the warning is a sanity check, not a veto")
}

func TestArbitrateNoWarningWithoutFunctionalShape(t *testing.T) {
	result := analysis.NewArbitrator().Arbitrate(
		functionalSummary(0.2, "i", "IV"), modalSummary(0.9), nil)

	assert.Empty(t, result.Warnings)
}

func TestArbitrateNoWarningWithinMargin(t *testing.T) {
	result := analysis.NewArbitrator().Arbitrate(
		functionalSummary(0.6, "V", "I"), modalSummary(0.8), nil)

	assert.Empty(t, result.Warnings)
}
