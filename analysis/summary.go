package analysis

import (
	"github.com/cadenzalabs/harmonia/evidence"
)

// Analysis type tags carried by Summary
const (
	AnalysisHarmonic = "harmonic"
	AnalysisScale    = "scale"
	AnalysisMelody   = "melody"
)

// PatternRef is a structured reference to one matched pattern, enough for a
// consumer to explain the result without reloading the pattern library
type PatternRef struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Family      string        `json:"family"`
	Span        evidence.Span `json:"span"`
	Score       float64       `json:"score"`
	Description string        `json:"description,omitempty"`
}

// ScaleSummary characterizes a candidate scale named in the input
type ScaleSummary struct {
	Name      string `json:"name"`
	Mode      string `json:"mode,omitempty"`
	Character string `json:"character,omitempty"`
}

// MelodySummary characterizes the melodic line of the input
type MelodySummary struct {
	NoteCount int    `json:"note_count"`
	Contour   string `json:"contour,omitempty"`
}

// Summary is one track's interpretation of the input: its confidence, the
// roman numerals it analyzed, and the patterns backing it
type Summary struct {
	Type          string         `json:"type"`
	Track         string         `json:"track"`
	TrackLabel    string         `json:"track_label,omitempty"`
	Confidence    float64        `json:"confidence"`
	RawConfidence float64        `json:"raw_confidence"`
	KeyHint       string         `json:"key_hint,omitempty"`
	Mode          string         `json:"mode,omitempty"`
	RomanNumerals []string       `json:"roman_numerals,omitempty"`
	Patterns      []PatternRef   `json:"patterns,omitempty"`
	Scale         *ScaleSummary  `json:"scale,omitempty"`
	Melody        *MelodySummary `json:"melody,omitempty"`
	Bucket        string         `json:"bucket,omitempty"`
}

// ToMap renders the summary as a plain nested map with stable field names
func (s Summary) ToMap() map[string]any {
	m := map[string]any{
		"type":           s.Type,
		"track":          s.Track,
		"track_label":    s.TrackLabel,
		"confidence":     s.Confidence,
		"raw_confidence": s.RawConfidence,
		"key_hint":       s.KeyHint,
		"mode":           s.Mode,
		"roman_numerals": stringsToAny(s.RomanNumerals),
		"bucket":         s.Bucket,
	}

	patterns := make([]any, len(s.Patterns))
	for i, ref := range s.Patterns {
		patterns[i] = patternRefToMap(ref)
	}
	m["patterns"] = patterns

	if s.Scale != nil {
		m["scale"] = map[string]any{
			"name":      s.Scale.Name,
			"mode":      s.Scale.Mode,
			"character": s.Scale.Character,
		}
	}
	if s.Melody != nil {
		m["melody"] = map[string]any{
			"note_count": s.Melody.NoteCount,
			"contour":    s.Melody.Contour,
		}
	}

	return m
}

// SummaryFromMap rebuilds a summary from its map representation
func SummaryFromMap(m map[string]any) Summary {
	s := Summary{
		Type:          asString(m["type"]),
		Track:         asString(m["track"]),
		TrackLabel:    asString(m["track_label"]),
		Confidence:    asFloat(m["confidence"]),
		RawConfidence: asFloat(m["raw_confidence"]),
		KeyHint:       asString(m["key_hint"]),
		Mode:          asString(m["mode"]),
		RomanNumerals: asStrings(m["roman_numerals"]),
		Bucket:        asString(m["bucket"]),
	}

	for _, refMap := range asMaps(m["patterns"]) {
		s.Patterns = append(s.Patterns, patternRefFromMap(refMap))
	}

	if scale, ok := m["scale"].(map[string]any); ok {
		s.Scale = &ScaleSummary{
			Name:      asString(scale["name"]),
			Mode:      asString(scale["mode"]),
			Character: asString(scale["character"]),
		}
	}
	if melody, ok := m["melody"].(map[string]any); ok {
		s.Melody = &MelodySummary{
			NoteCount: asInt(melody["note_count"]),
			Contour:   asString(melody["contour"]),
		}
	}

	return s
}

func patternRefToMap(ref PatternRef) map[string]any {
	return map[string]any{
		"id":          ref.ID,
		"name":        ref.Name,
		"family":      ref.Family,
		"span":        spanToMap(ref.Span),
		"score":       ref.Score,
		"description": ref.Description,
	}
}

func patternRefFromMap(m map[string]any) PatternRef {
	ref := PatternRef{
		ID:          asString(m["id"]),
		Name:        asString(m["name"]),
		Family:      asString(m["family"]),
		Score:       asFloat(m["score"]),
		Description: asString(m["description"]),
	}
	if span, ok := m["span"].(map[string]any); ok {
		ref.Span = spanFromMap(span)
	}
	return ref
}

func spanToMap(span evidence.Span) map[string]any {
	return map[string]any{
		"start": span.Start,
		"end":   span.End,
	}
}

func spanFromMap(m map[string]any) evidence.Span {
	return evidence.Span{
		Start: asInt(m["start"]),
		End:   asInt(m["end"]),
	}
}

func evidenceToMap(ev evidence.Evidence) map[string]any {
	m := map[string]any{
		"pattern_id":  ev.PatternID,
		"raw_score":   ev.RawScore,
		"uncertainty": ev.Uncertainty,
		"span":        spanToMap(ev.Span),
		"overlap_ok":  ev.OverlapOK,
	}

	weights := make(map[string]any, len(ev.TrackWeights))
	for track, w := range ev.TrackWeights {
		weights[track] = w
	}
	m["track_weights"] = weights

	if len(ev.Features) > 0 {
		features := make(map[string]any, len(ev.Features))
		for name, v := range ev.Features {
			features[name] = v
		}
		m["features"] = features
	}

	return m
}

func evidenceFromMap(m map[string]any) evidence.Evidence {
	ev := evidence.Evidence{
		PatternID:    asString(m["pattern_id"]),
		TrackWeights: asFloatMap(m["track_weights"]),
		Features:     asFloatMap(m["features"]),
		RawScore:     asFloat(m["raw_score"]),
		Uncertainty:  asFloat(m["uncertainty"]),
		OverlapOK:    asBool(m["overlap_ok"]),
	}
	if span, ok := m["span"].(map[string]any); ok {
		ev.Span = spanFromMap(span)
	}
	return ev
}
