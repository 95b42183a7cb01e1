package rating

import (
	"fmt"
	"strings"
)

// EvaluationLevel is an ordinal rating entered on a checklist cell.
// The 5-point and 4-point vocabularies share one numeric domain, so both
// are values of the same type; only the display projection differs.
type EvaluationLevel string

const (
	Excellent     EvaluationLevel = "Excellent"
	Good          EvaluationLevel = "Good"
	Mediocre      EvaluationLevel = "Mediocre"
	Poor          EvaluationLevel = "Poor"
	Yes           EvaluationLevel = "Yes"
	Partially     EvaluationLevel = "Partially"
	No            EvaluationLevel = "No"
	NotApplicable EvaluationLevel = "N/A"
)

// Vocabulary selects which labels a selector offers.
type Vocabulary string

const (
	FivePoint Vocabulary = "five-point"
	FourPoint Vocabulary = "four-point"
)

var scores = map[EvaluationLevel]float64{
	Excellent:     4,
	Good:          3,
	Mediocre:      2,
	Poor:          1,
	Yes:           4,
	Partially:     2.5,
	No:            1,
	NotApplicable: 0,
}

// Score returns the numeric value used for averaging. N/A, the empty
// value and unknown labels score 0 and are never counted.
func (l EvaluationLevel) Score() float64 {
	return scores[l]
}

// IsRated reports whether the level takes part in averages.
func (l EvaluationLevel) IsRated() bool {
	return l.Score() > 0
}

// OrNA maps the empty value to N/A.
func (l EvaluationLevel) OrNA() EvaluationLevel {
	if l == "" {
		return NotApplicable
	}
	return l
}

// Valid reports whether l is a label of either vocabulary or empty.
func (l EvaluationLevel) Valid() bool {
	_, ok := scores[l.OrNA()]
	return ok
}

func (l EvaluationLevel) String() string {
	return string(l.OrNA())
}

// MarshalText implements encoding.TextMarshaler.
func (l EvaluationLevel) MarshalText() ([]byte, error) {
	return []byte(l.OrNA()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (l *EvaluationLevel) UnmarshalText(text []byte) error {
	parsed, err := ParseEvaluationLevel(string(text))
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}

// Options lists the selectable labels of a vocabulary in display order.
func (v Vocabulary) Options() []EvaluationLevel {
	switch v {
	case FourPoint:
		return []EvaluationLevel{Yes, Partially, No, NotApplicable}
	default:
		return []EvaluationLevel{Excellent, Good, Mediocre, Poor, NotApplicable}
	}
}

// ParseEvaluationLevel accepts any label of either vocabulary, case-insensitively.
func ParseEvaluationLevel(s string) (EvaluationLevel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "excellent":
		return Excellent, nil
	case "good":
		return Good, nil
	case "mediocre":
		return Mediocre, nil
	case "poor":
		return Poor, nil
	case "yes":
		return Yes, nil
	case "partially":
		return Partially, nil
	case "no":
		return No, nil
	case "n/a", "na", "":
		return NotApplicable, nil
	default:
		return "", fmt.Errorf("invalid evaluation level %q", s)
	}
}

// FromMean quantizes a mean score onto the 5-point vocabulary using
// inclusive lower thresholds.
func FromMean(mean float64) EvaluationLevel {
	switch {
	case mean >= 3.5:
		return Excellent
	case mean >= 2.5:
		return Good
	case mean >= 1.5:
		return Mediocre
	default:
		return Poor
	}
}
