package analysis

import (
	"context"
	"strings"
	"time"

	"github.com/cadenzalabs/harmonia/analysis/config"
	"github.com/cadenzalabs/harmonia/calibration"
	"github.com/cadenzalabs/harmonia/evidence"
	"github.com/cadenzalabs/harmonia/logging"
	"github.com/cadenzalabs/harmonia/patterns"
	"github.com/cadenzalabs/harmonia/stats"
)

// PatternEngine orchestrates one analysis call: pattern matching over the
// input token sequences, evidence aggregation, optional calibration, summary
// construction and arbitration. Behavior is data-driven: analytic changes
// happen by editing the pattern document, not this code.
type PatternEngine struct {
	config      *config.EngineConfig
	document    *patterns.Document
	registry    *patterns.Registry
	byID        map[string]*patterns.Pattern
	tracks      map[string]bool
	aggregator  *evidence.Aggregator
	arbitrator  *Arbitrator
	calibration *calibration.Service
	glossary    GlossaryLookup
	education   EducationalContent
	logger      logging.Logger
}

// NewPatternEngine creates an engine over the built-in pattern library with
// default configuration and no calibration
func NewPatternEngine() *PatternEngine {
	return NewPatternEngineWithConfig(config.DefaultEngineConfig())
}

// NewPatternEngineWithConfig creates an engine with custom configuration
func NewPatternEngineWithConfig(cfg *config.EngineConfig) *PatternEngine {
	if cfg == nil {
		cfg = config.DefaultEngineConfig()
	}

	tracks := make(map[string]bool, len(cfg.Tracks))
	for _, track := range cfg.Tracks {
		tracks[track] = true
	}

	e := &PatternEngine{
		config:     cfg,
		tracks:     tracks,
		registry:   patterns.NewRegistry(),
		aggregator: evidence.NewAggregatorWithConfig(cfg.Aggregator),
		arbitrator: NewArbitratorWithConfig(cfg.Arbitration),
		logger: logging.WithFields(logging.Fields{
			"component": "pattern_engine",
		}),
	}
	e.SetDocument(patterns.DefaultDocument())

	return e
}

// SetDocument replaces the pattern library. Patterns are indexed by id once
// here; the document is read-only afterwards.
func (e *PatternEngine) SetDocument(doc *patterns.Document) {
	e.document = doc
	e.byID = make(map[string]*patterns.Pattern, len(doc.Patterns))
	for i := range doc.Patterns {
		e.byID[doc.Patterns[i].ID] = &doc.Patterns[i]
	}
	e.logger.Debug("pattern library loaded", logging.Fields{
		"patterns": len(doc.Patterns),
	})
}

// LoadPatterns merges pattern documents from the given files and installs the
// result as the engine's library
func (e *PatternEngine) LoadPatterns(paths ...string) error {
	doc, err := patterns.NewLoader().Merge(paths...)
	if err != nil {
		return err
	}
	e.SetDocument(doc)
	return nil
}

// Registry exposes the engine's confidence-function registry so callers can
// register custom scoring functions before analysis
func (e *PatternEngine) Registry() *patterns.Registry {
	return e.registry
}

// SetCalibration installs a calibration service; nil disables calibration
func (e *PatternEngine) SetCalibration(svc *calibration.Service) {
	e.calibration = svc
}

// SetCollaborators installs the optional glossary and educational-content
// collaborators; either may be nil
func (e *PatternEngine) SetCollaborators(glossary GlossaryLookup, education EducationalContent) {
	e.glossary = glossary
	e.education = education
}

// Analyze classifies the input against the pattern library and returns the
// arbitrated result envelope. The only error is invalid input; an input that
// matches nothing returns a valid low-confidence envelope.
func (e *PatternEngine) Analyze(input AnalysisContext) (*Envelope, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	start := time.Now()

	romans := input.RomanNumerals
	if len(romans) == 0 && len(input.Chords) > 0 {
		if derived, ok := romanizeChords(input.Chords, input.KeyHint); ok {
			romans = derived
		}
	}

	evidenceList := e.match(romans, input.Chords)
	aggregated := e.aggregator.Aggregate(evidenceList)

	features := e.routingFeatures(input, romans, evidenceList, aggregated)

	functional := e.buildSummary(patterns.TrackFunctional, input, romans, evidenceList, aggregated, features)
	modal := e.buildSummary(patterns.TrackModal, input, romans, evidenceList, aggregated, features)

	arbitration := e.arbitrator.Arbitrate(functional, modal, input.Chords)

	elapsedMs := float64(time.Since(start).Microseconds()) / 1000.0
	env := newEnvelope(arbitration.Primary, input.Chords, evidenceList, arbitration, elapsedMs)

	e.logger.Debug("analysis complete", logging.Fields{
		"evidence_count":   len(evidenceList),
		"primary_track":    env.Primary.Track,
		"progression_type": arbitration.ProgressionType,
	})

	return env, nil
}

// AnalyzeContext is Analyze with cancellation: a context canceled before the
// call starts returns the context's error
func (e *PatternEngine) AnalyzeContext(ctx context.Context, input AnalysisContext) (*Envelope, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return e.Analyze(input)
}

// match scans every pattern's matchers over the appropriate token sequence
// and collects one Evidence per successful window match
func (e *PatternEngine) match(romans, chords []string) []evidence.Evidence {
	var out []evidence.Evidence

	for i := range e.document.Patterns {
		p := &e.document.Patterns[i]
		matcher := p.Matchers

		seq := chords
		if matcher.IsRoman() {
			seq = romans
		}

		tokens := matcher.Tokens()
		if len(tokens) == 0 || len(seq) < len(tokens) {
			continue
		}

		minLen, maxLen := matcher.Window.Bounds(len(tokens))
		if len(tokens) < minLen || len(tokens) > maxLen {
			continue
		}

		for start := 0; start+len(tokens) <= len(seq); start++ {
			if !e.matchTokens(tokens, seq[start:start+len(tokens)]) {
				continue
			}
			out = append(out, e.newEvidence(p, matcher, evidence.Span{
				Start: start,
				End:   start + len(tokens),
			}))
		}
	}

	return out
}

// matchTokens tests positional compatibility between pattern tokens and an
// input window: exact match, a profile substitution, or a bare pattern token
// standing for any extension of the same degree (V matches V7, not vice versa)
func (e *PatternEngine) matchTokens(patternTokens, window []string) bool {
	for i, pt := range patternTokens {
		in := window[i]
		if pt == in {
			continue
		}
		if e.config.Profile.Substitutes(pt, in) {
			continue
		}
		if romanBase(pt) == pt && romanBase(in) == pt {
			continue
		}
		return false
	}
	return true
}

func (e *PatternEngine) newEvidence(p *patterns.Pattern, matcher patterns.MatcherSpec, span evidence.Span) evidence.Evidence {
	fn, err := e.registry.Get(p.Evidence.ConfidenceFn)
	if err != nil {
		e.logger.Warn("unknown confidence function, using identity", logging.Fields{
			"pattern_id":    p.ID,
			"confidence_fn": p.Evidence.ConfidenceFn,
		})
		fn = func(score float64) float64 { return score }
	}

	raw := stats.ClampUnit(fn(p.Evidence.Weight))

	// Only configured tracks receive weight; a pattern tagged for a track
	// the engine does not run contributes nothing there
	weights := make(map[string]float64, len(p.Track))
	for _, track := range p.Track {
		if e.tracks[track] {
			weights[track] = p.Evidence.Weight
		}
	}

	features := map[string]float64{
		calibration.FeatureEvidenceStrength: raw,
	}
	if p.HasTrack(patterns.TrackModal) {
		features[calibration.FeatureModalMarked] = 1.0
	}

	ev := evidence.New(p.ID, span, raw, weights, features)
	ev.Uncertainty = stats.ClampUnit(1.0 - raw)
	ev.OverlapOK = matcher.Window.OverlapOK
	return ev
}

// routingFeatures assembles the feature map consumed by calibration bucket
// routing and uncertainty scoring
func (e *PatternEngine) routingFeatures(input AnalysisContext, romans []string, evidenceList []evidence.Evidence, aggregated evidence.AggregateResult) map[string]float64 {
	tokenCount := len(romans)
	if tokenCount == 0 {
		tokenCount = len(input.Chords)
	}
	melodyOnly := len(input.Melody) > 0 && tokenCount == 0
	if melodyOnly {
		tokenCount = len(input.Melody)
	}

	features := map[string]float64{
		calibration.FeatureTokenCount:       float64(tokenCount),
		calibration.FeatureOutsideKeyRatio:  outsideKeyRatio(romans),
		calibration.FeatureEvidenceStrength: aggregated.Combined,
	}
	if melodyOnly {
		features[calibration.FeatureMelody] = 1.0
	}

	functional := aggregated.TrackConfidence[patterns.TrackFunctional]
	modal := aggregated.TrackConfidence[patterns.TrackModal]
	if functional > 0 && modal > 0 {
		features[calibration.FeatureAmbiguity] = stats.ClampUnit(1.0 - abs(functional-modal))
	}

	for _, ev := range evidenceList {
		if _, ok := ev.TrackWeights[patterns.TrackModal]; ok {
			features[calibration.FeatureModalMarked] = 1.0
			break
		}
	}

	return features
}

func (e *PatternEngine) buildSummary(track string, input AnalysisContext, romans []string, evidenceList []evidence.Evidence, aggregated evidence.AggregateResult, features map[string]float64) Summary {
	raw := aggregated.TrackConfidence[track]

	summary := Summary{
		Type:          AnalysisHarmonic,
		Track:         track,
		Confidence:    raw,
		RawConfidence: raw,
		KeyHint:       input.KeyHint,
		RomanNumerals: romans,
	}

	if _, mode, ok := parseKeyHint(input.KeyHint); ok {
		summary.Mode = mode
	}

	if e.glossary != nil {
		if label, _, ok := e.glossary.Lookup(track); ok {
			summary.TrackLabel = label
		}
	}

	if e.calibration != nil {
		calibrated := e.calibration.Calibrate(track, raw, features)
		summary.Confidence = calibrated.Confidence
		summary.Bucket = calibrated.Bucket
	}

	for _, ev := range evidenceList {
		if _, ok := ev.TrackWeights[track]; !ok {
			continue
		}
		ref := PatternRef{
			ID:     ev.PatternID,
			Family: ev.Family(),
			Span:   ev.Span,
			Score:  ev.RawScore,
		}
		if p, ok := e.byID[ev.PatternID]; ok {
			ref.Name = p.Name
		}
		if e.education != nil {
			if card, ok := e.education.SummaryCard(ev.PatternID); ok {
				ref.Description = card
			}
		}
		summary.Patterns = append(summary.Patterns, ref)
	}

	if len(input.Scales) > 0 {
		summary.Scale = scaleSummary(input.Scales[0])
		if len(romans) == 0 && len(input.Chords) == 0 {
			summary.Type = AnalysisScale
		}
	}
	if len(input.Melody) > 0 {
		summary.Melody = melodySummary(input.Melody)
		if len(romans) == 0 && len(input.Chords) == 0 && len(input.Scales) == 0 {
			summary.Type = AnalysisMelody
		}
	}

	return summary
}

var modeCharacters = map[string]string{
	"ionian":     "major",
	"dorian":     "minor with a raised 6th",
	"phrygian":   "minor with a lowered 2nd",
	"lydian":     "major with a raised 4th",
	"mixolydian": "major with a lowered 7th",
	"aeolian":    "natural minor",
	"locrian":    "diminished, rarely tonicized",
}

func scaleSummary(name string) *ScaleSummary {
	s := &ScaleSummary{Name: name}
	lower := strings.ToLower(name)
	for mode, character := range modeCharacters {
		if strings.Contains(lower, mode) {
			s.Mode = mode
			s.Character = character
			break
		}
	}
	return s
}

func melodySummary(notes []string) *MelodySummary {
	s := &MelodySummary{NoteCount: len(notes)}
	if len(notes) < 2 {
		s.Contour = "static"
		return s
	}

	pitches := make([]int, 0, len(notes))
	for _, note := range notes {
		if p, ok := notePitch(note); ok {
			pitches = append(pitches, p)
		}
	}
	if len(pitches) < 2 {
		s.Contour = "static"
		return s
	}

	first, last := pitches[0], pitches[len(pitches)-1]
	peak := pitches[0]
	for _, p := range pitches {
		if p > peak {
			peak = p
		}
	}

	switch {
	case peak > first && peak > last:
		s.Contour = "arch"
	case last > first:
		s.Contour = "ascending"
	case last < first:
		s.Contour = "descending"
	default:
		s.Contour = "static"
	}

	return s
}

// notePitch converts a note name with optional octave ("F#4") to an absolute
// semitone number; notes without an octave assume octave 4
func notePitch(note string) (int, bool) {
	note = strings.TrimSpace(note)
	if note == "" {
		return 0, false
	}

	octave := 4
	last := note[len(note)-1]
	if last >= '0' && last <= '9' {
		octave = int(last - '0')
		note = note[:len(note)-1]
	}

	pc, ok := parsePitchClass(note)
	if !ok {
		return 0, false
	}
	return octave*12 + pc, true
}
