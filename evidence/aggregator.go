package evidence

import (
	"sort"

	"github.com/cadenzalabs/harmonia/logging"
	"github.com/cadenzalabs/harmonia/stats"
)

// Strategy selects how overlapping Evidence compete during aggregation
type Strategy string

const (
	// MaxPool keeps only the single highest raw-score match among any set of
	// mutually overlapping matches
	MaxPool Strategy = "max_pool"

	// SoftNMS keeps all matches but decays the later-considered match of each
	// overlapping pair by score *= 1 - decay_rate * overlap_fraction
	SoftNMS Strategy = "soft_nms"
)

// AggregatorConfig tunes conflict resolution and the diversity bonus
type AggregatorConfig struct {
	Strategy           Strategy `json:"strategy"`
	DecayRate          float64  `json:"decay_rate"`           // soft_nms only
	DiversityBonusRate float64  `json:"diversity_bonus_rate"` // per extra pattern family
}

// DefaultAggregatorConfig returns sensible aggregation defaults.
//
// The heuristic strategies here deliberately replace the exact
// weighted-interval-scheduling optimum an earlier matcher design used: the
// DP cover is optimal for a single additive objective, but per-track
// score-weighted means have no single objective to optimize, and the
// heuristics keep the debug breakdown explainable per match.
func DefaultAggregatorConfig() AggregatorConfig {
	return AggregatorConfig{
		Strategy:           MaxPool,
		DecayRate:          0.5,
		DiversityBonusRate: 0.1,
	}
}

// Breakdown exposes the aggregation internals for explainability and tests
type Breakdown struct {
	EvidenceCount  int      `json:"evidence_count"`
	ResolvedCount  int      `json:"resolved_count"`
	DiversityBonus float64  `json:"diversity_bonus"`
	Families       []string `json:"families,omitempty"`
	DiscardedIDs   []string `json:"discarded_ids,omitempty"`
}

// AggregateResult carries per-track and combined confidences in [0, 1]
type AggregateResult struct {
	TrackConfidence map[string]float64 `json:"track_confidence"`
	Combined        float64            `json:"combined"`
	Breakdown       Breakdown          `json:"debug_breakdown"`
}

// Aggregator turns a list of Evidence into per-track and combined confidence,
// resolving overlapping matches first
type Aggregator struct {
	config AggregatorConfig
	logger logging.Logger
}

// NewAggregator creates an aggregator with default configuration
func NewAggregator() *Aggregator {
	return NewAggregatorWithConfig(DefaultAggregatorConfig())
}

// NewAggregatorWithConfig creates an aggregator with custom configuration
func NewAggregatorWithConfig(config AggregatorConfig) *Aggregator {
	if config.Strategy == "" {
		config.Strategy = MaxPool
	}
	return &Aggregator{
		config: config,
		logger: logging.WithFields(logging.Fields{
			"component": "aggregator",
		}),
	}
}

// Aggregate resolves overlap conflicts, distributes raw scores into tracks,
// and applies the diversity bonus. Empty input is a defined terminal case
// yielding all-zero confidences, not an error.
func (a *Aggregator) Aggregate(evidenceList []Evidence) AggregateResult {
	result := AggregateResult{
		TrackConfidence: make(map[string]float64),
		Breakdown: Breakdown{
			EvidenceCount: len(evidenceList),
		},
	}

	if len(evidenceList) == 0 {
		return result
	}

	var resolved []Evidence
	switch a.config.Strategy {
	case SoftNMS:
		resolved = a.resolveSoftNMS(evidenceList)
	default:
		resolved = a.resolveMaxPool(evidenceList, &result.Breakdown)
	}
	result.Breakdown.ResolvedCount = len(resolved)

	// Per-track score-weighted means, bounded in [0, 1] by construction
	trackScores := make(map[string][]float64)
	trackWeights := make(map[string][]float64)
	var allScores, allWeights []float64

	for _, ev := range resolved {
		total := 0.0
		for track, weight := range ev.TrackWeights {
			if weight <= 0 {
				continue
			}
			trackScores[track] = append(trackScores[track], ev.RawScore)
			trackWeights[track] = append(trackWeights[track], weight)
			total += weight
		}
		allScores = append(allScores, ev.RawScore)
		allWeights = append(allWeights, total)
	}

	for track := range trackScores {
		result.TrackConfidence[track] = stats.ClampUnit(
			stats.WeightedMean(trackScores[track], trackWeights[track]))
	}

	combined := stats.ClampUnit(stats.WeightedMean(allScores, allWeights))

	// Diversity bonus: evidence spanning several pattern families is a
	// stronger signal than the same mass from one family
	families := distinctFamilies(resolved)
	result.Breakdown.Families = families
	if len(families) >= 2 {
		bonus := 1.0 + float64(len(families)-1)*a.config.DiversityBonusRate
		result.Breakdown.DiversityBonus = bonus
		combined = stats.ClampUnit(combined * bonus)
	}

	result.Combined = combined

	a.logger.Debug("Aggregated evidence", logging.Fields{
		"strategy":       string(a.config.Strategy),
		"evidence_count": result.Breakdown.EvidenceCount,
		"resolved_count": result.Breakdown.ResolvedCount,
		"combined":       result.Combined,
	})

	return result
}

// resolveMaxPool keeps the highest raw-score match of each mutually
// overlapping set, discarding the rest
func (a *Aggregator) resolveMaxPool(evidenceList []Evidence, breakdown *Breakdown) []Evidence {
	order := make([]int, len(evidenceList))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(x, y int) bool {
		return evidenceList[order[x]].RawScore > evidenceList[order[y]].RawScore
	})

	var kept []Evidence
	for _, idx := range order {
		candidate := evidenceList[idx]
		conflict := false
		for _, winner := range kept {
			if candidate.Overlaps(winner) && !(candidate.OverlapOK && winner.OverlapOK) {
				conflict = true
				break
			}
		}
		if conflict {
			breakdown.DiscardedIDs = append(breakdown.DiscardedIDs, candidate.PatternID)
			continue
		}
		kept = append(kept, candidate)
	}

	// Restore input order for deterministic downstream output
	sort.SliceStable(kept, func(x, y int) bool {
		return kept[x].Span.Start < kept[y].Span.Start
	})

	return kept
}

// resolveSoftNMS keeps every match but decays each later-considered match by
// its overlap with every earlier one; scores never decay below zero
func (a *Aggregator) resolveSoftNMS(evidenceList []Evidence) []Evidence {
	resolved := make([]Evidence, len(evidenceList))
	copy(resolved, evidenceList)

	for j := 1; j < len(resolved); j++ {
		for i := 0; i < j; i++ {
			if !resolved[j].Overlaps(resolved[i]) {
				continue
			}
			if resolved[j].OverlapOK && resolved[i].OverlapOK {
				continue
			}
			fraction := resolved[j].Span.OverlapFraction(resolved[i].Span)
			resolved[j].RawScore *= 1.0 - a.config.DecayRate*fraction
			if resolved[j].RawScore < 0 {
				resolved[j].RawScore = 0
			}
		}
	}

	return resolved
}

func distinctFamilies(evidenceList []Evidence) []string {
	seen := make(map[string]bool)
	var families []string
	for _, ev := range evidenceList {
		family := ev.Family()
		if !seen[family] {
			seen[family] = true
			families = append(families, family)
		}
	}
	sort.Strings(families)
	return families
}
