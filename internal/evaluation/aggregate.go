package evaluation

import (
	"github.com/montanaflynn/stats"

	"lcdkit/internal/rating"
)

// Aggregate rolls sibling ratings up into one summary rating: the mean of
// the rated entries, quantized onto the 5-point vocabulary. N/A entries are
// left out of both sum and count; with nothing rated the result is N/A.
func Aggregate(levels []rating.EvaluationLevel) rating.EvaluationLevel {
	mean, ok := MeanScore(levels)
	if !ok {
		return rating.NotApplicable
	}
	return rating.FromMean(mean)
}

// MeanScore averages the numeric scores of the rated entries. ok is false
// when no entry is rated.
func MeanScore(levels []rating.EvaluationLevel) (mean float64, ok bool) {
	scores := make([]float64, 0, len(levels))
	for _, level := range levels {
		if level.IsRated() {
			scores = append(scores, level.Score())
		}
	}
	if len(scores) == 0 {
		return 0, false
	}
	mean, err := stats.Mean(scores)
	if err != nil {
		return 0, false
	}
	return mean, true
}
