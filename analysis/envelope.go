package analysis

import (
	"github.com/google/uuid"

	"github.com/cadenzalabs/harmonia/evidence"
)

// EnvelopeSchemaVersion tags serialized envelopes for forward compatibility
const EnvelopeSchemaVersion = 1

// Envelope is the immutable result of one analysis call: the primary
// interpretation, any alternatives, the raw evidence behind them, and the
// arbitration record explaining the choice
type Envelope struct {
	ID             string              `json:"id"`
	SchemaVersion  int                 `json:"schema_version"`
	Primary        Summary             `json:"primary"`
	Alternatives   []Summary           `json:"alternatives,omitempty"`
	ChordSymbols   []string            `json:"chord_symbols,omitempty"`
	Evidence       []evidence.Evidence `json:"evidence,omitempty"`
	Arbitration    ArbitrationResult   `json:"arbitration"`
	AnalysisTimeMs float64             `json:"analysis_time_ms"`
}

func newEnvelope(primary Summary, chordSymbols []string, evidenceList []evidence.Evidence, arbitration ArbitrationResult, elapsedMs float64) *Envelope {
	return &Envelope{
		ID:             uuid.New().String(),
		SchemaVersion:  EnvelopeSchemaVersion,
		Primary:        primary,
		Alternatives:   arbitration.Alternatives,
		ChordSymbols:   chordSymbols,
		Evidence:       evidenceList,
		Arbitration:    arbitration,
		AnalysisTimeMs: elapsedMs,
	}
}

// ToMap renders the envelope as a plain nested map with stable field names
func (e *Envelope) ToMap() map[string]any {
	alternatives := make([]any, len(e.Alternatives))
	for i, alt := range e.Alternatives {
		alternatives[i] = alt.ToMap()
	}

	evidenceMaps := make([]any, len(e.Evidence))
	for i, ev := range e.Evidence {
		evidenceMaps[i] = evidenceToMap(ev)
	}

	return map[string]any{
		"id":               e.ID,
		"schema_version":   e.SchemaVersion,
		"primary":          e.Primary.ToMap(),
		"alternatives":     alternatives,
		"chord_symbols":    stringsToAny(e.ChordSymbols),
		"evidence":         evidenceMaps,
		"arbitration":      e.Arbitration.toMap(),
		"analysis_time_ms": e.AnalysisTimeMs,
	}
}

// EnvelopeFromMap rebuilds an envelope from its map representation
func EnvelopeFromMap(m map[string]any) *Envelope {
	e := &Envelope{
		ID:             asString(m["id"]),
		SchemaVersion:  asInt(m["schema_version"]),
		ChordSymbols:   asStrings(m["chord_symbols"]),
		AnalysisTimeMs: asFloat(m["analysis_time_ms"]),
	}

	if primary, ok := m["primary"].(map[string]any); ok {
		e.Primary = SummaryFromMap(primary)
	}
	for _, altMap := range asMaps(m["alternatives"]) {
		e.Alternatives = append(e.Alternatives, SummaryFromMap(altMap))
	}
	for _, evMap := range asMaps(m["evidence"]) {
		e.Evidence = append(e.Evidence, evidenceFromMap(evMap))
	}
	if arb, ok := m["arbitration"].(map[string]any); ok {
		e.Arbitration = arbitrationFromMap(arb)
	}

	return e
}
