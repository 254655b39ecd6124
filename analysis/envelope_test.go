package analysis_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cadenzalabs/harmonia/analysis"
)

func TestEnvelopeRoundTrip(t *testing.T) {
	engine := analysis.NewPatternEngine()

	input := analysis.NewAnalysisContext("C major",
		[]string{"C", "Dm", "G", "C"}, nil, nil, nil, nil)
	env, err := engine.Analyze(input)
	require.NoError(t, err)
	require.NotEmpty(t, env.Evidence)

	rebuilt := analysis.EnvelopeFromMap(env.ToMap())

	assert.Equal(t, env.ID, rebuilt.ID)
	assert.Equal(t, env.SchemaVersion, rebuilt.SchemaVersion)
	assert.Equal(t, env.ChordSymbols, rebuilt.ChordSymbols)
	assert.Equal(t, env.Primary, rebuilt.Primary, "primary summary survives the round trip, nested lists included")
	assert.Equal(t, env.Alternatives, rebuilt.Alternatives)
	assert.Equal(t, env.Evidence, rebuilt.Evidence)
	assert.Equal(t, env.Arbitration.ProgressionType, rebuilt.Arbitration.ProgressionType)
	assert.Equal(t, env.Arbitration.Warnings, rebuilt.Arbitration.Warnings)
	assert.InDelta(t, env.Arbitration.ConfidenceGap, rebuilt.Arbitration.ConfidenceGap, 1e-12)
	assert.InDelta(t, env.AnalysisTimeMs, rebuilt.AnalysisTimeMs, 1e-12)
}

func TestEnvelopeSchemaVersionPresent(t *testing.T) {
	engine := analysis.NewPatternEngine()

	input := analysis.NewAnalysisContext("C major", []string{"G", "C"}, nil, nil, nil, nil)
	env, err := engine.Analyze(input)
	require.NoError(t, err)

	m := env.ToMap()
	assert.Equal(t, analysis.EnvelopeSchemaVersion, m["schema_version"])
	assert.NotEmpty(t, m["id"])
}

func TestSummaryRoundTripWithSubSummaries(t *testing.T) {
	original := analysis.Summary{
		Type:          analysis.AnalysisScale,
		Track:         "modal",
		TrackLabel:    "Modal Harmony",
		Confidence:    0.72,
		RawConfidence: 0.65,
		KeyHint:       "D dorian",
		Mode:          "dorian",
		RomanNumerals: []string{"i", "IV"},
		Scale:         &analysis.ScaleSummary{Name: "D dorian", Mode: "dorian", Character: "minor with a raised 6th"},
		Melody:        &analysis.MelodySummary{NoteCount: 7, Contour: "arch"},
		Bucket:        "harmony_modal_marked",
	}

	rebuilt := analysis.SummaryFromMap(original.ToMap())
	assert.Equal(t, original, rebuilt)
}

func TestContextRoundTrip(t *testing.T) {
	original := analysis.NewAnalysisContext("C major",
		[]string{"G", "C"}, []string{"V", "I"}, []string{"B3", "C4"},
		[]string{"C ionian"}, map[string]string{"source": "lead sheet"})

	rebuilt := analysis.ContextFromMap(original.ToMap())
	assert.Equal(t, original, rebuilt)
}
