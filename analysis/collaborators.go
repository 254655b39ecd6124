package analysis

// Optional collaborator interfaces. The engine accepts these as nilable
// capabilities: a nil collaborator means the capability is absent and the
// engine proceeds without it.

// GlossaryLookup annotates feature and term keys with human-readable text
type GlossaryLookup interface {
	// Lookup returns a display label and tooltip for a term key.
	// ok is false when the term is unknown; that is not an error.
	Lookup(term string) (label, tooltip string, ok bool)
}

// EducationalContent provides teaching material for matched patterns
type EducationalContent interface {
	// SummaryCard returns a short description of a pattern, ok=false when
	// no content exists for the id
	SummaryCard(patternID string) (card string, ok bool)

	// Explanation returns the full teaching text for a pattern, ok=false
	// when no content exists for the id
	Explanation(patternID string) (text string, ok bool)
}

// ScoreFile is the chord content extracted from an externally-authored
// notation file
type ScoreFile struct {
	ChordSymbols []string          `json:"chord_symbols"`
	KeyHint      string            `json:"key_hint,omitempty"`
	Metadata     map[string]string `json:"metadata,omitempty"`
	Structure    []string          `json:"structure,omitempty"`
}

// NotationAdapter extracts chord symbols from notation files. The engine
// never parses notation itself.
type NotationAdapter interface {
	Extract(path string) (*ScoreFile, error)
}

// ContextFromScore builds an analysis context from extracted score content
func ContextFromScore(score *ScoreFile) AnalysisContext {
	if score == nil {
		return AnalysisContext{}
	}
	return NewAnalysisContext(score.KeyHint, score.ChordSymbols, nil, nil, nil, score.Metadata)
}
