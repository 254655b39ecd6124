package analysis

import (
	"fmt"
	"maps"
)

// AnalysisContext is the immutable input to one analysis call: a key hint,
// the harmonic token sequences, melody notes, candidate scales and free-form
// metadata. Create one per call; the engine never mutates it.
type AnalysisContext struct {
	KeyHint       string            `json:"key_hint,omitempty"`
	Chords        []string          `json:"chords,omitempty"`
	RomanNumerals []string          `json:"roman_numerals,omitempty"`
	Melody        []string          `json:"melody,omitempty"`
	Scales        []string          `json:"scales,omitempty"`
	Metadata      map[string]string `json:"metadata,omitempty"`
}

// NewAnalysisContext builds a context with defensive copies of its inputs
func NewAnalysisContext(keyHint string, chords, romanNumerals, melody, scales []string, metadata map[string]string) AnalysisContext {
	ctx := AnalysisContext{
		KeyHint:       keyHint,
		Chords:        append([]string(nil), chords...),
		RomanNumerals: append([]string(nil), romanNumerals...),
		Melody:        append([]string(nil), melody...),
		Scales:        append([]string(nil), scales...),
	}
	if metadata != nil {
		ctx.Metadata = make(map[string]string, len(metadata))
		maps.Copy(ctx.Metadata, metadata)
	}
	return ctx
}

// ValidationError reports invalid analysis input. Invalid input is the only
// user-visible failure mode; merely ambiguous input is never an error.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid analysis input: %s: %s", e.Field, e.Reason)
}

// Validate checks the context against the input rules: at least one token
// sequence, a key hint wherever scale or melody analysis needs one, and
// consistent parallel sequences
func (c AnalysisContext) Validate() error {
	if len(c.Chords) == 0 && len(c.RomanNumerals) == 0 && len(c.Melody) == 0 && len(c.Scales) == 0 {
		return &ValidationError{Field: "chords", Reason: "no input: chords, roman numerals, melody or scales required"}
	}

	if len(c.Scales) > 0 && c.KeyHint == "" {
		return &ValidationError{Field: "key_hint", Reason: "scale analysis requires a key hint"}
	}
	if len(c.Melody) > 0 && len(c.Chords) == 0 && len(c.RomanNumerals) == 0 && c.KeyHint == "" {
		return &ValidationError{Field: "key_hint", Reason: "melody analysis requires a key hint"}
	}

	if len(c.Chords) > 0 && len(c.RomanNumerals) > 0 && len(c.Chords) != len(c.RomanNumerals) {
		return &ValidationError{
			Field:  "roman_numerals",
			Reason: fmt.Sprintf("length %d conflicts with %d chords", len(c.RomanNumerals), len(c.Chords)),
		}
	}

	return nil
}

// ToMap renders the context as a plain nested map with stable field names
func (c AnalysisContext) ToMap() map[string]any {
	m := map[string]any{
		"key_hint":       c.KeyHint,
		"chords":         stringsToAny(c.Chords),
		"roman_numerals": stringsToAny(c.RomanNumerals),
		"melody":         stringsToAny(c.Melody),
		"scales":         stringsToAny(c.Scales),
	}
	if len(c.Metadata) > 0 {
		meta := make(map[string]any, len(c.Metadata))
		for k, v := range c.Metadata {
			meta[k] = v
		}
		m["metadata"] = meta
	}
	return m
}

// ContextFromMap rebuilds a context from its map representation
func ContextFromMap(m map[string]any) AnalysisContext {
	ctx := AnalysisContext{
		KeyHint:       asString(m["key_hint"]),
		Chords:        asStrings(m["chords"]),
		RomanNumerals: asStrings(m["roman_numerals"]),
		Melody:        asStrings(m["melody"]),
		Scales:        asStrings(m["scales"]),
	}
	if meta, ok := m["metadata"].(map[string]any); ok {
		ctx.Metadata = make(map[string]string, len(meta))
		for k, v := range meta {
			ctx.Metadata[k] = asString(v)
		}
	}
	return ctx
}
