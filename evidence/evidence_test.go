package evidence_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cadenzalabs/harmonia/evidence"
)

func TestSpanOverlaps(t *testing.T) {
	tests := []struct {
		name    string
		a, b    evidence.Span
		overlap bool
	}{
		{
			name:    "partial overlap",
			a:       evidence.Span{Start: 0, End: 3},
			b:       evidence.Span{Start: 2, End: 5},
			overlap: true,
		},
		{
			name:    "disjoint",
			a:       evidence.Span{Start: 0, End: 3},
			b:       evidence.Span{Start: 5, End: 7},
			overlap: false,
		},
		{
			name:    "adjacent half-open spans do not overlap",
			a:       evidence.Span{Start: 0, End: 3},
			b:       evidence.Span{Start: 3, End: 5},
			overlap: false,
		},
		{
			name:    "containment",
			a:       evidence.Span{Start: 0, End: 6},
			b:       evidence.Span{Start: 2, End: 4},
			overlap: true,
		},
		{
			name:    "identical",
			a:       evidence.Span{Start: 1, End: 4},
			b:       evidence.Span{Start: 1, End: 4},
			overlap: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.overlap, tt.a.Overlaps(tt.b))
			assert.Equal(t, tt.a.Overlaps(tt.b), tt.b.Overlaps(tt.a), "overlap must be symmetric")
		})
	}
}

func TestSpanOverlapFraction(t *testing.T) {
	a := evidence.Span{Start: 0, End: 4}
	b := evidence.Span{Start: 2, End: 4}

	// Intersection is 2 tokens, the shorter span covers 2
	assert.InDelta(t, 1.0, a.OverlapFraction(b), 1e-9)
	assert.InDelta(t, 1.0, b.OverlapFraction(a), 1e-9)

	c := evidence.Span{Start: 3, End: 7}
	assert.InDelta(t, 0.25, a.OverlapFraction(c), 1e-9)

	disjoint := evidence.Span{Start: 10, End: 12}
	assert.Zero(t, a.OverlapFraction(disjoint))
}

func TestEvidenceFamily(t *testing.T) {
	tests := []struct {
		patternID string
		family    string
	}{
		{"cadence.authentic", "cadence"},
		{"modal.dorian_vamp", "modal"},
		{"standalone", "standalone"},
	}

	for _, tt := range tests {
		ev := evidence.Evidence{PatternID: tt.patternID}
		assert.Equal(t, tt.family, ev.Family())
	}
}

func TestNewCopiesMaps(t *testing.T) {
	weights := map[string]float64{"functional": 0.9}
	features := map[string]float64{"token_count": 2}

	ev := evidence.New("cadence.authentic", evidence.Span{Start: 0, End: 2}, 0.9, weights, features)

	weights["functional"] = 0.1
	features["token_count"] = 99

	assert.InDelta(t, 0.9, ev.TrackWeights["functional"], 1e-9)
	assert.InDelta(t, 2.0, ev.Features["token_count"], 1e-9)
}
