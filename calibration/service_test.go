package calibration_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cadenzalabs/harmonia/calibration"
)

func TestRouteBucketTotalAndDeterministic(t *testing.T) {
	svc := calibration.NewService(nil)

	tests := []struct {
		name     string
		features map[string]float64
		want     string
	}{
		{
			name:     "empty features default to harmony_simple",
			features: map[string]float64{},
			want:     "harmony_simple",
		},
		{
			name: "short progression",
			features: map[string]float64{
				calibration.FeatureTokenCount: 2,
			},
			want: "harmony_short",
		},
		{
			name: "ambiguous",
			features: map[string]float64{
				calibration.FeatureTokenCount: 6,
				calibration.FeatureAmbiguity:  0.8,
			},
			want: "harmony_ambiguous",
		},
		{
			name: "chromatic",
			features: map[string]float64{
				calibration.FeatureTokenCount:      6,
				calibration.FeatureOutsideKeyRatio: 0.5,
			},
			want: "harmony_chromatic",
		},
		{
			name: "modal marked",
			features: map[string]float64{
				calibration.FeatureTokenCount:  6,
				calibration.FeatureModalMarked: 1,
			},
			want: "harmony_modal_marked",
		},
		{
			name: "melody branch",
			features: map[string]float64{
				calibration.FeatureMelody:     1,
				calibration.FeatureTokenCount: 8,
			},
			want: "melody_simple",
		},
		{
			name: "short wins over ambiguous in precedence",
			features: map[string]float64{
				calibration.FeatureTokenCount: 2,
				calibration.FeatureAmbiguity:  0.9,
			},
			want: "harmony_short",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := svc.RouteBucket("functional", tt.features)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, got, svc.RouteBucket("functional", tt.features),
				"identical features must route to the identical bucket")
		})
	}
}

func TestCalibrateWithoutMappingIsNearIdentity(t *testing.T) {
	svc := calibration.NewService(nil)

	for _, raw := range []float64{0.0, 0.25, 0.5, 0.75, 1.0} {
		result := svc.Calibrate("functional", raw, map[string]float64{})
		assert.InDelta(t, raw, result.Confidence, 1e-5)
		assert.Greater(t, result.Confidence, 0.0, "output stays inside the open interval")
		assert.Less(t, result.Confidence, 1.0)
	}
}

func TestCalibrateAppliesStages(t *testing.T) {
	doc := &calibration.MappingDocument{
		Version: 1,
		Tracks: map[string]*calibration.TrackParams{
			"functional": {
				Global: &calibration.StageParams{
					Platt: &calibration.PlattParams{A: 1.0, B: 0.5},
					Uncertainty: &calibration.UncertaintySpec{
						Method:    "shrink",
						Alpha:     0.5,
						LambdaMax: 0.3,
					},
				},
			},
		},
	}

	svc := calibration.NewService(doc)
	features := map[string]float64{
		calibration.FeatureTokenCount:       6,
		calibration.FeatureEvidenceStrength: 0.9,
	}

	result := svc.Calibrate("functional", 0.5, features)

	// Platt with B=0.5 pushes 0.5 upward; shrinkage then pulls back toward 0.5
	assert.Greater(t, result.Confidence, 0.5)
	assert.Less(t, result.Confidence, 1.0)
	assert.Greater(t, result.Lambda, 0.0)
	assert.LessOrEqual(t, result.Lambda, 0.3)
	assert.Equal(t, "harmony_simple", result.Bucket)
}

func TestCalibrateBucketOverridesGlobal(t *testing.T) {
	doc := &calibration.MappingDocument{
		Version: 1,
		Tracks: map[string]*calibration.TrackParams{
			"functional": {
				Global: &calibration.StageParams{
					Platt: &calibration.PlattParams{A: 1.0, B: 2.0},
				},
				Buckets: map[string]*calibration.StageParams{
					"harmony_short": {
						Platt: &calibration.PlattParams{A: 1.0, B: -2.0},
					},
				},
			},
		},
	}

	svc := calibration.NewService(doc)
	short := map[string]float64{calibration.FeatureTokenCount: 2}
	long := map[string]float64{calibration.FeatureTokenCount: 6}

	shortResult := svc.Calibrate("functional", 0.5, short)
	longResult := svc.Calibrate("functional", 0.5, long)

	assert.Less(t, shortResult.Confidence, 0.5, "short bucket's negative offset applies")
	assert.Greater(t, longResult.Confidence, 0.5, "other buckets fall back to GLOBAL")
}

func TestCalibrateIdentityUncertaintySkipsShrinkage(t *testing.T) {
	doc := &calibration.MappingDocument{
		Version: 1,
		Tracks: map[string]*calibration.TrackParams{
			"functional": {
				Global: &calibration.StageParams{
					Uncertainty: &calibration.UncertaintySpec{Method: "identity", Alpha: 1.0, LambdaMax: 0.5},
				},
			},
		},
	}

	result := calibration.NewService(doc).Calibrate("functional", 0.9, map[string]float64{})
	assert.InDelta(t, 0.9, result.Confidence, 1e-5)
	assert.Zero(t, result.Lambda)
}

func TestLoadMappingDocument(t *testing.T) {
	valid := `
version: 1
created_at: "2026-08-01T00:00:00Z"
tracks:
  functional:
    GLOBAL:
      platt:
        a: 1.2
        b: -0.1
    buckets:
      harmony_short:
        isotonic:
          x: [0.1, 0.5, 0.9]
          y: [0.2, 0.5, 0.8]
`

	path := filepath.Join(t.TempDir(), "mapping.yaml")
	require.NoError(t, os.WriteFile(path, []byte(valid), 0o644))

	doc, err := calibration.LoadMappingDocument(path)
	require.NoError(t, err)
	require.Contains(t, doc.Tracks, "functional")
	assert.InDelta(t, 1.2, doc.Tracks["functional"].Global.Platt.A, 1e-9)
	assert.Len(t, doc.Tracks["functional"].Buckets["harmony_short"].Isotonic.X, 3)
}

func TestLoadMappingDocumentRejectsBadDocuments(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{
			name: "unsupported version",
			doc:  "version: 99\ntracks: {}\n",
		},
		{
			name: "isotonic length mismatch",
			doc: `
version: 1
tracks:
  functional:
    GLOBAL:
      isotonic:
        x: [0.1, 0.9]
        y: [0.2]
`,
		},
		{
			name: "isotonic breakpoints decreasing",
			doc: `
version: 1
tracks:
  functional:
    GLOBAL:
      isotonic:
        x: [0.9, 0.1]
        y: [0.8, 0.2]
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "mapping.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.doc), 0o644))

			_, err := calibration.LoadMappingDocument(path)
			assert.Error(t, err)
		})
	}
}

func TestLoadMappingDocumentMissingFile(t *testing.T) {
	_, err := calibration.LoadMappingDocument(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}
