package calibration

import (
	"fmt"
	"os"

	"github.com/goccy/go-yaml"

	"github.com/cadenzalabs/harmonia/logging"
	"github.com/cadenzalabs/harmonia/stats"
)

// MappingDocumentVersion is the calibration mapping schema version this
// library reads
const MappingDocumentVersion = 1

// Feature names consumed by bucket routing and uncertainty scoring
const (
	FeatureMelody           = "melody"
	FeatureTokenCount       = "token_count"
	FeatureAmbiguity        = "ambiguity"
	FeatureOutsideKeyRatio  = "outside_key_ratio"
	FeatureModalMarked      = "modal_marked"
	FeatureEvidenceStrength = "evidence_strength"
)

// GlobalBucket is the per-track fallback parameter set
const GlobalBucket = "GLOBAL"

// UncertaintySpec configures stage four, the uncertainty-aware shrinkage
// toward 0.5. Method "identity" skips the stage entirely.
type UncertaintySpec struct {
	Method    string  `json:"method" yaml:"method"`
	Alpha     float64 `json:"alpha" yaml:"alpha"`
	LambdaMax float64 `json:"lambda_max" yaml:"lambda_max"`
}

// StageParams holds the learned parameters of one bucket (or GLOBAL)
type StageParams struct {
	Platt       *PlattParams     `json:"platt,omitempty" yaml:"platt,omitempty"`
	Isotonic    *IsotonicParams  `json:"isotonic,omitempty" yaml:"isotonic,omitempty"`
	Uncertainty *UncertaintySpec `json:"uncertainty,omitempty" yaml:"uncertainty,omitempty"`
}

// TrackParams holds a track's GLOBAL fallback and its per-bucket overrides
type TrackParams struct {
	Global  *StageParams            `json:"GLOBAL,omitempty" yaml:"GLOBAL,omitempty"`
	Buckets map[string]*StageParams `json:"buckets,omitempty" yaml:"buckets,omitempty"`
}

// MappingDocument is the on-disk calibration parameter mapping produced by
// offline fitting and consumed at analysis time
type MappingDocument struct {
	Version   int                     `json:"version" yaml:"version"`
	CreatedAt string                  `json:"created_at" yaml:"created_at"`
	Tracks    map[string]*TrackParams `json:"tracks" yaml:"tracks"`
}

// LoadMappingDocument reads and validates a calibration mapping file.
// A missing or malformed file is fatal to the load call, never retried.
func LoadMappingDocument(path string) (*MappingDocument, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read calibration mapping %s: %w", path, err)
	}

	var doc MappingDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse calibration mapping %s: %w", path, err)
	}

	if doc.Version > MappingDocumentVersion {
		return nil, fmt.Errorf("calibration mapping %s: version %d is newer than supported version %d",
			path, doc.Version, MappingDocumentVersion)
	}

	for track, params := range doc.Tracks {
		if err := validateStageParams(params.Global, fmt.Sprintf("tracks.%s.GLOBAL", track)); err != nil {
			return nil, fmt.Errorf("calibration mapping %s: %w", path, err)
		}
		for bucket, bucketParams := range params.Buckets {
			if err := validateStageParams(bucketParams, fmt.Sprintf("tracks.%s.buckets.%s", track, bucket)); err != nil {
				return nil, fmt.Errorf("calibration mapping %s: %w", path, err)
			}
		}
	}

	return &doc, nil
}

func validateStageParams(params *StageParams, path string) error {
	if params == nil || params.Isotonic == nil {
		return nil
	}
	if len(params.Isotonic.X) != len(params.Isotonic.Y) {
		return fmt.Errorf("%s.isotonic: x and y lengths differ (%d vs %d)",
			path, len(params.Isotonic.X), len(params.Isotonic.Y))
	}
	for i := 1; i < len(params.Isotonic.X); i++ {
		if params.Isotonic.X[i] < params.Isotonic.X[i-1] {
			return fmt.Errorf("%s.isotonic.x[%d]: breakpoints must be non-decreasing", path, i)
		}
	}
	return nil
}

// ServiceConfig tunes bucket routing and the final open-interval clamp
type ServiceConfig struct {
	ShortTokenCount    int     `json:"short_token_count"`   // below this the input routes to the short bucket
	AmbiguityThreshold float64 `json:"ambiguity_threshold"` // ambiguity feature above -> ambiguous bucket
	ChromaticThreshold float64 `json:"chromatic_threshold"` // outside-key ratio above -> chromatic bucket
	Epsilon            float64 `json:"epsilon"`             // keeps output inside the open interval (0, 1)
}

// DefaultServiceConfig returns the deployed routing thresholds
func DefaultServiceConfig() ServiceConfig {
	return ServiceConfig{
		ShortTokenCount:    3,
		AmbiguityThreshold: 0.4,
		ChromaticThreshold: 0.25,
		Epsilon:            1e-6,
	}
}

// CalibratedResult records what the pipeline did to one raw confidence
type CalibratedResult struct {
	Confidence  float64 `json:"confidence"`
	Raw         float64 `json:"raw"`
	Bucket      string  `json:"bucket"`
	Uncertainty float64 `json:"uncertainty"`
	Lambda      float64 `json:"lambda"`
}

// Service is the deployed, feature-routed calibration pipeline applied at
// analysis time: bucket routing, Platt scaling, isotonic regression, then
// uncertainty-aware shrinkage, in that order. A nil mapping document yields
// identity behavior aside from the final open-interval clamp.
type Service struct {
	doc    *MappingDocument
	config ServiceConfig
	logger logging.Logger
}

// NewService creates a calibration service with default routing thresholds
func NewService(doc *MappingDocument) *Service {
	return NewServiceWithConfig(doc, DefaultServiceConfig())
}

// NewServiceWithConfig creates a calibration service with custom thresholds
func NewServiceWithConfig(doc *MappingDocument, config ServiceConfig) *Service {
	if config.Epsilon <= 0 {
		config.Epsilon = 1e-6
	}
	return &Service{
		doc:    doc,
		config: config,
		logger: logging.WithFields(logging.Fields{
			"component": "calibration_service",
		}),
	}
}

// RouteBucket maps a feature map to a bucket name. Routing is pure, total and
// deterministic: the melody/harmony branch decides the prefix, then the first
// matching class in a fixed precedence order (short, ambiguous, chromatic,
// modal_marked, simple) decides the suffix. Every input maps to exactly one
// bucket; the simple class is the guaranteed default.
func (s *Service) RouteBucket(track string, features map[string]float64) string {
	branch := "harmony"
	if features[FeatureMelody] > 0.5 {
		branch = "melody"
	}

	switch {
	case features[FeatureTokenCount] > 0 && features[FeatureTokenCount] < float64(s.config.ShortTokenCount):
		return branch + "_short"
	case features[FeatureAmbiguity] > s.config.AmbiguityThreshold:
		return branch + "_ambiguous"
	case features[FeatureOutsideKeyRatio] > s.config.ChromaticThreshold:
		return branch + "_chromatic"
	case features[FeatureModalMarked] > 0.5:
		return branch + "_modal_marked"
	default:
		return branch + "_simple"
	}
}

// Calibrate applies the 4-stage pipeline to one raw track confidence.
// Stages with no learned parameters (bucket or GLOBAL) pass through; the
// output is always inside the open interval (0, 1).
func (s *Service) Calibrate(track string, confidence float64, features map[string]float64) CalibratedResult {
	result := CalibratedResult{
		Raw:    confidence,
		Bucket: s.RouteBucket(track, features),
	}

	x := stats.ClampUnit(confidence)

	platt := s.lookupPlatt(track, result.Bucket)
	if platt != nil {
		x = stats.ClampUnit(stats.Sigmoid(platt.A*stats.Logit(x) + platt.B))
	}

	isotonic := s.lookupIsotonic(track, result.Bucket)
	if isotonic != nil && len(isotonic.X) > 0 {
		x = stats.ClampUnit(stats.Interpolate(isotonic.X, isotonic.Y, x))
	}

	uncertainty := s.lookupUncertainty(track, result.Bucket)
	if uncertainty != nil && uncertainty.Method != "identity" {
		result.Uncertainty = s.uncertaintyScore(features)
		result.Lambda = uncertainty.Alpha * result.Uncertainty
		if result.Lambda > uncertainty.LambdaMax {
			result.Lambda = uncertainty.LambdaMax
		}
		x = (1.0-result.Lambda)*x + result.Lambda*0.5
	}

	// Never exactly 0 or 1: downstream consumers divide by and take logs
	// of these confidences
	result.Confidence = stats.Clamp(x, s.config.Epsilon, 1.0-s.config.Epsilon)

	s.logger.Debug("Calibrated confidence", logging.Fields{
		"track":      track,
		"bucket":     result.Bucket,
		"raw":        result.Raw,
		"confidence": result.Confidence,
		"lambda":     result.Lambda,
	})

	return result
}

// uncertaintyScore combines routing features into an uncertainty in [0, 1]:
// fewer or weaker signals mean higher uncertainty
func (s *Service) uncertaintyScore(features map[string]float64) float64 {
	strength := stats.ClampUnit(features[FeatureEvidenceStrength])
	outsideKey := stats.ClampUnit(features[FeatureOutsideKeyRatio])

	shortness := 1.0
	if count := features[FeatureTokenCount]; count > 0 {
		shortness = stats.ClampUnit(1.0 - count/8.0)
	}

	return stats.ClampUnit(0.45*(1.0-strength) + 0.35*outsideKey + 0.2*shortness)
}

func (s *Service) trackParams(track string) *TrackParams {
	if s.doc == nil {
		return nil
	}
	return s.doc.Tracks[track]
}

func (s *Service) bucketParams(track, bucket string) *StageParams {
	params := s.trackParams(track)
	if params == nil {
		return nil
	}
	return params.Buckets[bucket]
}

func (s *Service) globalParams(track string) *StageParams {
	params := s.trackParams(track)
	if params == nil {
		return nil
	}
	return params.Global
}

func (s *Service) lookupPlatt(track, bucket string) *PlattParams {
	if p := s.bucketParams(track, bucket); p != nil && p.Platt != nil {
		return p.Platt
	}
	if g := s.globalParams(track); g != nil {
		return g.Platt
	}
	return nil
}

func (s *Service) lookupIsotonic(track, bucket string) *IsotonicParams {
	if p := s.bucketParams(track, bucket); p != nil && p.Isotonic != nil {
		return p.Isotonic
	}
	if g := s.globalParams(track); g != nil {
		return g.Isotonic
	}
	return nil
}

func (s *Service) lookupUncertainty(track, bucket string) *UncertaintySpec {
	if p := s.bucketParams(track, bucket); p != nil && p.Uncertainty != nil {
		return p.Uncertainty
	}
	if g := s.globalParams(track); g != nil {
		return g.Uncertainty
	}
	return nil
}
