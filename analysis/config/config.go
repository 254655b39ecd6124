package config

import (
	"github.com/cadenzalabs/harmonia/evidence"
)

// StyleProfile declares style-level matching behavior, chiefly the
// substitution sets: which input tokens may stand in for a pattern token
// (e.g. a tritone substitution standing in for V in the jazz profile)
type StyleProfile struct {
	Name          string              `json:"name"`
	Substitutions map[string][]string `json:"substitutions,omitempty"` // pattern token -> acceptable substitutes
}

// Substitutes reports whether the profile accepts input as a stand-in for
// the given pattern token
func (p StyleProfile) Substitutes(patternToken, input string) bool {
	for _, sub := range p.Substitutions[patternToken] {
		if sub == input {
			return true
		}
	}
	return false
}

// DefaultStyleProfile matches tokens literally with no substitutions
func DefaultStyleProfile() StyleProfile {
	return StyleProfile{Name: "common_practice"}
}

// JazzStyleProfile admits the usual jazz reharmonizations: tritone
// substitutes for dominants and the backdoor dominant for V
func JazzStyleProfile() StyleProfile {
	return StyleProfile{
		Name: "jazz",
		Substitutions: map[string][]string{
			"V":  {"bII7", "♭II7", "bVII7"},
			"V7": {"bII7", "♭II7"},
			"ii": {"iim7", "iiø7"},
		},
	}
}

// ModalStyleProfile loosens tonic quality so vamps over either tonic color
// still register as the same degree
func ModalStyleProfile() StyleProfile {
	return StyleProfile{
		Name: "modal",
		Substitutions: map[string][]string{
			"i": {"i7", "im7"},
			"I": {"I7", "Imaj7"},
		},
	}
}

// ArbitrationConfig tunes the primary-interpretation decision rule
type ArbitrationConfig struct {
	// AmbiguityGap is the confidence gap above which a progression
	// classifies as clearly one track's
	AmbiguityGap float64 `json:"ambiguity_gap"`

	// ModalDominanceMargin is the margin by which modal confidence must
	// exceed functional before an obviously functional progression raises
	// a sanity warning
	ModalDominanceMargin float64 `json:"modal_dominance_margin"`
}

// DefaultArbitrationConfig returns the deployed arbitration thresholds
func DefaultArbitrationConfig() ArbitrationConfig {
	return ArbitrationConfig{
		AmbiguityGap:         0.15,
		ModalDominanceMargin: 0.4,
	}
}

// EngineConfig configures a PatternEngine
type EngineConfig struct {
	Tracks      []string                  `json:"tracks"`
	Aggregator  evidence.AggregatorConfig `json:"aggregator"`
	Arbitration ArbitrationConfig         `json:"arbitration"`
	Profile     StyleProfile              `json:"profile"`
}

// DefaultEngineConfig returns an engine configuration with the built-in
// tracks, max-pool aggregation and the common-practice style profile
func DefaultEngineConfig() *EngineConfig {
	return &EngineConfig{
		Tracks:      []string{"functional", "modal"},
		Aggregator:  evidence.DefaultAggregatorConfig(),
		Arbitration: DefaultArbitrationConfig(),
		Profile:     DefaultStyleProfile(),
	}
}

// StyleOptimizedEngineConfig returns an engine configuration tuned for a
// named style
func StyleOptimizedEngineConfig(style string) *EngineConfig {
	cfg := DefaultEngineConfig()

	switch style {
	case "jazz":
		cfg.Profile = JazzStyleProfile()
		cfg.Aggregator.Strategy = evidence.SoftNMS

	case "modal":
		cfg.Profile = ModalStyleProfile()
		cfg.Arbitration.AmbiguityGap = 0.1

	case "pop":
		cfg.Aggregator.DiversityBonusRate = 0.15
	}

	return cfg
}
