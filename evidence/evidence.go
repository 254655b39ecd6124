package evidence

import (
	"maps"
	"strings"
)

// Span is a half-open interval [Start, End) over the input token sequence
type Span struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Len returns the number of tokens the span covers
func (s Span) Len() int {
	if s.End < s.Start {
		return 0
	}
	return s.End - s.Start
}

// Overlaps reports whether two half-open spans intersect. Overlap is
// symmetric: a.Overlaps(b) == b.Overlaps(a).
func (s Span) Overlaps(other Span) bool {
	return s.Start < other.End && other.Start < s.End
}

// OverlapFraction returns the intersection length divided by the shorter
// span's length, in [0, 1]
func (s Span) OverlapFraction(other Span) float64 {
	if !s.Overlaps(other) {
		return 0.0
	}

	start := s.Start
	if other.Start > start {
		start = other.Start
	}
	end := s.End
	if other.End < end {
		end = other.End
	}

	shorter := s.Len()
	if other.Len() < shorter {
		shorter = other.Len()
	}
	if shorter == 0 {
		return 0.0
	}

	return float64(end-start) / float64(shorter)
}

// Evidence is one successful pattern match. It is a value object: the matcher
// creates it with its own feature and track-weight maps (never aliased across
// instances) and the aggregator consumes it without mutation.
type Evidence struct {
	PatternID    string             `json:"pattern_id"`
	TrackWeights map[string]float64 `json:"track_weights"`
	Features     map[string]float64 `json:"features,omitempty"`
	RawScore     float64            `json:"raw_score"`
	Uncertainty  float64            `json:"uncertainty,omitempty"`
	Span         Span               `json:"span"`
	OverlapOK    bool               `json:"overlap_ok,omitempty"`
}

// New creates an Evidence record with defensive copies of the weight and
// feature maps so callers can reuse theirs
func New(patternID string, span Span, rawScore float64, trackWeights, features map[string]float64) Evidence {
	ev := Evidence{
		PatternID:    patternID,
		TrackWeights: make(map[string]float64, len(trackWeights)),
		RawScore:     rawScore,
		Span:         span,
	}
	maps.Copy(ev.TrackWeights, trackWeights)
	if features != nil {
		ev.Features = make(map[string]float64, len(features))
		maps.Copy(ev.Features, features)
	}
	return ev
}

// Family returns the pattern family, the substring before the first '.'
// in the pattern ID
func (e Evidence) Family() string {
	if idx := strings.IndexByte(e.PatternID, '.'); idx >= 0 {
		return e.PatternID[:idx]
	}
	return e.PatternID
}

// Overlaps reports whether two Evidence spans intersect
func (e Evidence) Overlaps(other Evidence) bool {
	return e.Span.Overlaps(other.Span)
}
