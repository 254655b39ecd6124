package analysis_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cadenzalabs/harmonia/analysis"
	"github.com/cadenzalabs/harmonia/analysis/config"
	"github.com/cadenzalabs/harmonia/patterns"
)

func TestAnalyzeRejectsInvalidInput(t *testing.T) {
	engine := analysis.NewPatternEngine()

	tests := []struct {
		name  string
		input analysis.AnalysisContext
	}{
		{
			name:  "empty input",
			input: analysis.AnalysisContext{},
		},
		{
			name:  "scales without key hint",
			input: analysis.AnalysisContext{Scales: []string{"D dorian"}},
		},
		{
			name:  "melody without harmonic context or key",
			input: analysis.AnalysisContext{Melody: []string{"C4", "D4"}},
		},
		{
			name: "conflicting sequence lengths",
			input: analysis.AnalysisContext{
				Chords:        []string{"G", "C"},
				RomanNumerals: []string{"V"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := engine.Analyze(tt.input)
			var valErr *analysis.ValidationError
			require.ErrorAs(t, err, &valErr)
		})
	}
}

// The G-C/"C major" case is a guarded regression: without key-aware
// romanization the two chords were once mislabeled as a chromatic mediant.
func TestAnalyzeDominantTonicClassifiesFunctional(t *testing.T) {
	engine := analysis.NewPatternEngine()

	input := analysis.NewAnalysisContext("C major", []string{"G", "C"}, nil, nil, nil, nil)
	env, err := engine.Analyze(input)
	require.NoError(t, err)

	assert.Equal(t, patterns.TrackFunctional, env.Primary.Track)
	assert.Equal(t, []string{"V", "I"}, env.Primary.RomanNumerals)
	assert.Greater(t, env.Primary.Confidence, 0.0)

	for _, ev := range env.Evidence {
		assert.False(t, strings.HasPrefix(ev.PatternID, "chromatic."),
			"V-I must never register chromatic-mediant evidence, got %s", ev.PatternID)
	}
}

func TestAnalyzeMatchesInsideLongerProgression(t *testing.T) {
	engine := analysis.NewPatternEngine()

	input := analysis.NewAnalysisContext("C major",
		[]string{"C", "Dm", "G", "C"}, nil, nil, nil, nil)
	env, err := engine.Analyze(input)
	require.NoError(t, err)

	ids := make(map[string]bool)
	for _, ev := range env.Evidence {
		ids[ev.PatternID] = true
	}
	assert.True(t, ids["cadence.authentic"], "V-I inside a longer progression still matches")
	assert.True(t, ids["cadence.two_five_one"], "ii-V-I spans positions 1..4")
}

func TestAnalyzeBarePatternTokenMatchesExtension(t *testing.T) {
	engine := analysis.NewPatternEngine()

	input := analysis.NewAnalysisContext("C major", nil,
		[]string{"ii", "V7", "I"}, nil, nil, nil)
	env, err := engine.Analyze(input)
	require.NoError(t, err)

	found := false
	for _, ev := range env.Evidence {
		if ev.PatternID == "cadence.two_five_one" {
			found = true
		}
	}
	assert.True(t, found, "bare V in the pattern accepts the V7 input token")
}

func TestAnalyzeModalVamp(t *testing.T) {
	engine := analysis.NewPatternEngine()

	input := analysis.NewAnalysisContext("D dorian", nil,
		[]string{"i", "IV", "i", "IV"}, nil, nil, nil)
	env, err := engine.Analyze(input)
	require.NoError(t, err)

	assert.Equal(t, patterns.TrackModal, env.Primary.Track)
	assert.Equal(t, "dorian", env.Primary.Mode)
}

func TestAnalyzeNoMatchesIsNotAnError(t *testing.T) {
	engine := analysis.NewPatternEngine()

	input := analysis.NewAnalysisContext("C major", nil,
		[]string{"iii", "vi"}, nil, nil, nil)
	env, err := engine.Analyze(input)
	require.NoError(t, err)

	assert.Empty(t, env.Evidence)
	assert.Zero(t, env.Primary.Confidence)
	assert.Equal(t, analysis.ProgressionAmbiguous, env.Arbitration.ProgressionType)
}

func TestAnalyzeScaleAndMelodySummaries(t *testing.T) {
	engine := analysis.NewPatternEngine()

	input := analysis.NewAnalysisContext("D dorian", nil, nil,
		[]string{"D4", "E4", "F4", "G4", "A4"},
		[]string{"D dorian"}, nil)
	env, err := engine.Analyze(input)
	require.NoError(t, err)

	require.NotNil(t, env.Primary.Scale)
	assert.Equal(t, "dorian", env.Primary.Scale.Mode)

	require.NotNil(t, env.Primary.Melody)
	assert.Equal(t, 5, env.Primary.Melody.NoteCount)
	assert.Equal(t, "ascending", env.Primary.Melody.Contour)
	assert.Equal(t, analysis.AnalysisScale, env.Primary.Type)
}

func TestAnalyzeJazzProfileSubstitution(t *testing.T) {
	engine := analysis.NewPatternEngineWithConfig(config.StyleOptimizedEngineConfig("jazz"))

	// The tritone substitution stands in for V under the jazz profile
	input := analysis.NewAnalysisContext("C major", nil,
		[]string{"ii", "bII7", "I"}, nil, nil, nil)
	env, err := engine.Analyze(input)
	require.NoError(t, err)

	found := false
	for _, ev := range env.Evidence {
		if ev.PatternID == "cadence.two_five_one" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestAnalyzeContextCancellation(t *testing.T) {
	engine := analysis.NewPatternEngine()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	input := analysis.NewAnalysisContext("C major", []string{"G", "C"}, nil, nil, nil, nil)
	_, err := engine.AnalyzeContext(ctx, input)
	assert.ErrorIs(t, err, context.Canceled)

	env, err := engine.AnalyzeContext(context.Background(), input)
	require.NoError(t, err)
	assert.NotNil(t, env)
}

func TestAnalyzeCustomDocument(t *testing.T) {
	engine := analysis.NewPatternEngine()

	doc, err := patterns.NewLoader().Parse([]byte(`
version: 1
patterns:
  - id: custom.lydian_color
    name: Lydian II Color
    scope: [harmonic]
    track: [modal]
    matchers:
      roman_seq: [I, II]
    evidence:
      weight: 0.8
      confidence_fn: identity
`), "custom.yaml")
	require.NoError(t, err)

	engine.SetDocument(doc)

	input := analysis.NewAnalysisContext("C lydian", nil, []string{"I", "II"}, nil, nil, nil)
	env, err := engine.Analyze(input)
	require.NoError(t, err)

	require.Len(t, env.Evidence, 1)
	assert.Equal(t, "custom.lydian_color", env.Evidence[0].PatternID)
	assert.Equal(t, patterns.TrackModal, env.Primary.Track)
}

type stubEducation map[string]string

func (s stubEducation) SummaryCard(id string) (string, bool) {
	card, ok := s[id]
	return card, ok
}

func (s stubEducation) Explanation(id string) (string, bool) { return "", false }

type stubGlossary map[string]string

func (s stubGlossary) Lookup(term string) (string, string, bool) {
	label, ok := s[term]
	return label, "", ok
}

func TestAnalyzeWithCollaborators(t *testing.T) {
	engine := analysis.NewPatternEngine()
	engine.SetCollaborators(
		stubGlossary{"functional": "Functional Harmony"},
		stubEducation{"cadence.authentic": "The strongest close in tonal music."},
	)

	input := analysis.NewAnalysisContext("C major", []string{"G", "C"}, nil, nil, nil, nil)
	env, err := engine.Analyze(input)
	require.NoError(t, err)

	assert.Equal(t, "Functional Harmony", env.Primary.TrackLabel)
	require.NotEmpty(t, env.Primary.Patterns)
	assert.Equal(t, "The strongest close in tonal music.", env.Primary.Patterns[0].Description)
}

func TestContextFromScore(t *testing.T) {
	score := &analysis.ScoreFile{
		ChordSymbols: []string{"G", "C"},
		KeyHint:      "C major",
		Metadata:     map[string]string{"title": "Etude"},
	}

	input := analysis.ContextFromScore(score)
	require.NoError(t, input.Validate())

	env, err := analysis.NewPatternEngine().Analyze(input)
	require.NoError(t, err)
	assert.Equal(t, patterns.TrackFunctional, env.Primary.Track)

	empty := analysis.ContextFromScore(nil)
	assert.Error(t, empty.Validate())
}
