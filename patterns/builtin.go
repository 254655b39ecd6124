package patterns

// DefaultDocument returns the built-in pattern library. The engine is usable
// without any external pattern files; external documents merge on top of (or
// replace) this set.
//
// Families:
//   - cadence.*   functional cadential motion
//   - foil.*      trivially functional shapes used as arbitration sanity anchors
//   - modal.*     characteristic modal color progressions
//   - chromatic.* chromatic third-relations and borrowed colors
func DefaultDocument() *Document {
	return &Document{
		Version: SchemaVersion,
		Patterns: []Pattern{
			{
				ID:    "cadence.authentic",
				Name:  "Authentic Cadence",
				Scope: []string{"harmonic"},
				Track: []string{TrackFunctional},
				Matchers: MatcherSpec{
					RomanSeq: []string{"V", "I"},
					Window:   WindowSpec{MinLen: 2, MaxLen: 2},
				},
				Evidence: EvidenceSpec{Weight: 0.9, ConfidenceFn: "identity"},
			},
			{
				ID:    "cadence.two_five_one",
				Name:  "ii-V-I Cadence",
				Scope: []string{"harmonic"},
				Track: []string{TrackFunctional},
				Matchers: MatcherSpec{
					RomanSeq: []string{"ii", "V", "I"},
					Window:   WindowSpec{MinLen: 3, MaxLen: 3},
				},
				Evidence: EvidenceSpec{Weight: 0.95, ConfidenceFn: "identity"},
			},
			{
				ID:    "cadence.plagal",
				Name:  "Plagal Cadence",
				Scope: []string{"harmonic"},
				Track: []string{TrackFunctional},
				Matchers: MatcherSpec{
					RomanSeq: []string{"IV", "I"},
					Window:   WindowSpec{MinLen: 2, MaxLen: 2},
				},
				Evidence: EvidenceSpec{Weight: 0.7, ConfidenceFn: "identity"},
			},
			{
				ID:    "cadence.deceptive",
				Name:  "Deceptive Cadence",
				Scope: []string{"harmonic"},
				Track: []string{TrackFunctional},
				Matchers: MatcherSpec{
					RomanSeq: []string{"V", "vi"},
					Window:   WindowSpec{MinLen: 2, MaxLen: 2},
				},
				Evidence: EvidenceSpec{Weight: 0.75, ConfidenceFn: "identity"},
			},
			{
				ID:    "cadence.half",
				Name:  "Half Cadence",
				Scope: []string{"harmonic"},
				Track: []string{TrackFunctional},
				Matchers: MatcherSpec{
					RomanSeq: []string{"I", "V"},
					Window:   WindowSpec{MinLen: 2, MaxLen: 2, OverlapOK: true},
				},
				Evidence: EvidenceSpec{Weight: 0.5, ConfidenceFn: "identity"},
			},
			{
				ID:    "foil.I_V_I",
				Name:  "Tonic-Dominant-Tonic Foil",
				Scope: []string{"harmonic"},
				Track: []string{TrackFunctional},
				Matchers: MatcherSpec{
					RomanSeq: []string{"I", "V", "I"},
					Window:   WindowSpec{MinLen: 3, MaxLen: 3, OverlapOK: true},
				},
				Evidence: EvidenceSpec{Weight: 0.85, ConfidenceFn: "identity"},
			},
			{
				ID:    "modal.dorian_vamp",
				Name:  "Dorian i-IV Vamp",
				Scope: []string{"harmonic"},
				Track: []string{TrackModal},
				Matchers: MatcherSpec{
					RomanSeq: []string{"i", "IV"},
					Window:   WindowSpec{MinLen: 2, MaxLen: 2, OverlapOK: true},
				},
				Evidence: EvidenceSpec{Weight: 0.8, ConfidenceFn: "logistic_dorian"},
			},
			{
				ID:    "modal.mixolydian_cadence",
				Name:  "Mixolydian bVII-I Cadence",
				Scope: []string{"harmonic"},
				Track: []string{TrackModal},
				Matchers: MatcherSpec{
					RomanSeq: []string{"bVII", "I"},
					Window:   WindowSpec{MinLen: 2, MaxLen: 2},
				},
				Evidence: EvidenceSpec{Weight: 0.8, ConfidenceFn: "logistic_mixolydian"},
			},
			{
				ID:    "modal.phrygian_cadence",
				Name:  "Phrygian bII-i Cadence",
				Scope: []string{"harmonic"},
				Track: []string{TrackModal},
				Matchers: MatcherSpec{
					RomanSeq: []string{"bII", "i"},
					Window:   WindowSpec{MinLen: 2, MaxLen: 2},
				},
				Evidence: EvidenceSpec{Weight: 0.8, ConfidenceFn: "logistic_phrygian"},
			},
			{
				ID:    "modal.aeolian_cadence",
				Name:  "Aeolian bVI-bVII-i Cadence",
				Scope: []string{"harmonic"},
				Track: []string{TrackModal},
				Matchers: MatcherSpec{
					RomanSeq: []string{"bVI", "bVII", "i"},
					Window:   WindowSpec{MinLen: 3, MaxLen: 3},
				},
				Evidence: EvidenceSpec{Weight: 0.85, ConfidenceFn: "logistic"},
			},
			{
				ID:    "modal.andalusian",
				Name:  "Andalusian Descent",
				Scope: []string{"harmonic"},
				Track: []string{TrackModal, TrackFunctional},
				Matchers: MatcherSpec{
					RomanSeq: []string{"i", "bVII", "bVI", "V"},
					Window:   WindowSpec{MinLen: 4, MaxLen: 4},
				},
				Evidence: EvidenceSpec{Weight: 0.85, ConfidenceFn: "logistic"},
			},
			{
				ID:    "chromatic.mediant_major",
				Name:  "Chromatic Mediant (bVI-I)",
				Scope: []string{"harmonic"},
				Track: []string{TrackModal},
				Matchers: MatcherSpec{
					RomanSeq: []string{"bVI", "I"},
					Window:   WindowSpec{MinLen: 2, MaxLen: 2},
				},
				Evidence: EvidenceSpec{Weight: 0.6, ConfidenceFn: "logistic"},
			},
			{
				ID:    "chromatic.mediant_minor",
				Name:  "Chromatic Mediant (bIII-I)",
				Scope: []string{"harmonic"},
				Track: []string{TrackModal},
				Matchers: MatcherSpec{
					RomanSeq: []string{"bIII", "I"},
					Window:   WindowSpec{MinLen: 2, MaxLen: 2},
				},
				Evidence: EvidenceSpec{Weight: 0.6, ConfidenceFn: "logistic"},
			},
		},
	}
}
