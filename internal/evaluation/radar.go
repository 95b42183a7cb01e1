package evaluation

import (
	"lcdkit/internal/rating"
	"lcdkit/internal/taxonomy"
)

// RadarChartData maps each concept to a score in [0,4] per strategy id.
type RadarChartData map[rating.Concept]map[string]float64

// EmptyRadar returns zero scores for every strategy of tax under each concept.
func EmptyRadar(tax *taxonomy.Taxonomy) RadarChartData {
	out := make(RadarChartData, len(rating.Concepts))
	for _, concept := range rating.Concepts {
		scores := make(map[string]float64, tax.Len())
		for _, s := range tax.Strategies() {
			scores[s.ID] = 0
		}
		out[concept] = scores
	}
	return out
}

// StrategyScore projects a strategy onto the radar scale at the checklist's
// active level: its own rating at Simplified, the mean of its rated
// sub-strategies at Normal, the mean of all its rated guidelines at
// Detailed. Nothing rated scores 0.
func StrategyScore(c *Checklist, s taxonomy.Strategy) float64 {
	var levels []rating.EvaluationLevel
	switch c.Level() {
	case rating.Normal:
		for _, sub := range s.SubStrategies {
			levels = append(levels, c.SubStrategy(sub.ID))
		}
	case rating.Detailed:
		for _, sub := range s.SubStrategies {
			levels = append(levels, c.guidelineLevels(sub)...)
		}
	default:
		levels = []rating.EvaluationLevel{c.Strategy(s.ID)}
	}
	mean, ok := MeanScore(levels)
	if !ok {
		return 0
	}
	return mean
}

// Project computes a complete radar data set for every strategy and concept.
// The result is a fresh value and is meant to replace the previous one.
func Project(tax *taxonomy.Taxonomy, store *Store) RadarChartData {
	out := EmptyRadar(tax)
	for _, concept := range rating.Concepts {
		c, err := store.Checklist(concept)
		if err != nil {
			continue
		}
		for _, s := range tax.Strategies() {
			out[concept][s.ID] = StrategyScore(c, s)
		}
	}
	return out
}

// Clone returns a deep copy.
func (r RadarChartData) Clone() RadarChartData {
	out := make(RadarChartData, len(r))
	for concept, scores := range r {
		inner := make(map[string]float64, len(scores))
		for k, v := range scores {
			inner[k] = v
		}
		out[concept] = inner
	}
	return out
}
