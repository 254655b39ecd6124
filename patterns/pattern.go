package patterns

import "strings"

// SchemaVersion is the pattern document schema version this library reads and writes
const SchemaVersion = 1

// Track names competing for the primary interpretation
const (
	TrackFunctional = "functional"
	TrackModal      = "modal"
)

// Document is a declarative pattern library loaded from a YAML or JSON file.
// Documents are loaded once at startup and read-only afterward.
type Document struct {
	Version  int       `yaml:"version" json:"version" validate:"required,gte=1"`
	Patterns []Pattern `yaml:"patterns" json:"patterns" validate:"required,min=1,dive"`
}

// Pattern is one named matcher over a harmonic token sequence.
// Identity is the ID field; duplicate IDs are rejected at load time.
type Pattern struct {
	ID       string       `yaml:"id" json:"id" validate:"required"`
	Name     string       `yaml:"name" json:"name" validate:"required"`
	Scope    []string     `yaml:"scope" json:"scope" validate:"required,min=1"`
	Track    []string     `yaml:"track" json:"track" validate:"required,min=1"`
	Matchers MatcherSpec  `yaml:"matchers" json:"matchers"`
	Evidence EvidenceSpec `yaml:"evidence" json:"evidence"`

	// SourceFile records which document the pattern came from; set by the
	// loader, empty for built-in patterns
	SourceFile string `yaml:"-" json:"-"`
}

// Family returns the pattern family, the substring before the first '.'
// in the pattern ID ("cadence.authentic" -> "cadence")
func (p Pattern) Family() string {
	if idx := strings.IndexByte(p.ID, '.'); idx >= 0 {
		return p.ID[:idx]
	}
	return p.ID
}

// HasTrack reports whether the pattern contributes to the named track
func (p Pattern) HasTrack(track string) bool {
	for _, t := range p.Track {
		if t == track {
			return true
		}
	}
	return false
}

// MatcherSpec declares an ordered-sequence matcher over roman numerals or
// chord symbols. Exactly one of RomanSeq or ChordSeq must be set.
type MatcherSpec struct {
	RomanSeq []string   `yaml:"roman_seq,omitempty" json:"roman_seq,omitempty"`
	ChordSeq []string   `yaml:"chord_seq,omitempty" json:"chord_seq,omitempty"`
	Window   WindowSpec `yaml:"window" json:"window"`
}

// Tokens returns the declared token sequence regardless of which
// sequence kind the matcher uses
func (m MatcherSpec) Tokens() []string {
	if len(m.RomanSeq) > 0 {
		return m.RomanSeq
	}
	return m.ChordSeq
}

// IsRoman reports whether the matcher operates on roman numerals
func (m MatcherSpec) IsRoman() bool {
	return len(m.RomanSeq) > 0
}

// WindowSpec constrains the sliding-window lengths a matcher scans.
// Zero values default to the matcher sequence length on both bounds.
type WindowSpec struct {
	MinLen    int  `yaml:"min_len,omitempty" json:"min_len,omitempty" validate:"gte=0"`
	MaxLen    int  `yaml:"max_len,omitempty" json:"max_len,omitempty" validate:"gte=0"`
	OverlapOK bool `yaml:"overlap_ok,omitempty" json:"overlap_ok,omitempty"`
}

// Bounds resolves the effective [min, max] window bounds for a matcher
// with the given sequence length
func (w WindowSpec) Bounds(seqLen int) (int, int) {
	minLen := w.MinLen
	maxLen := w.MaxLen
	if minLen == 0 {
		minLen = seqLen
	}
	if maxLen == 0 {
		maxLen = seqLen
	}
	if maxLen < minLen {
		maxLen = minLen
	}
	return minLen, maxLen
}

// EvidenceSpec declares how a successful match scores: a base weight in
// [0, 1] passed through the named confidence function from the registry
type EvidenceSpec struct {
	Weight       float64 `yaml:"weight" json:"weight" validate:"gte=0,lte=1"`
	ConfidenceFn string  `yaml:"confidence_fn" json:"confidence_fn" validate:"required"`
}
