package rating

import (
	"fmt"
	"strings"
)

// PriorityLevel tags a strategy or sub-strategy with a strategic priority.
// It is a separate axis from EvaluationLevel.
type PriorityLevel string

const (
	PriorityNone PriorityLevel = "None"
	PriorityLow  PriorityLevel = "Low"
	PriorityMid  PriorityLevel = "Mid"
	PriorityHigh PriorityLevel = "High"
)

// Priorities lists the levels in ascending order.
var Priorities = []PriorityLevel{PriorityNone, PriorityLow, PriorityMid, PriorityHigh}

// Rank orders priorities None < Low < Mid < High. Unknown values rank as None.
func (p PriorityLevel) Rank() int {
	switch p {
	case PriorityLow:
		return 1
	case PriorityMid:
		return 2
	case PriorityHigh:
		return 3
	default:
		return 0
	}
}

// OrNone maps the empty value to None.
func (p PriorityLevel) OrNone() PriorityLevel {
	if p == "" {
		return PriorityNone
	}
	return p
}

// Valid reports whether p is a known priority or empty.
func (p PriorityLevel) Valid() bool {
	switch p.OrNone() {
	case PriorityNone, PriorityLow, PriorityMid, PriorityHigh:
		return true
	default:
		return false
	}
}

func (p PriorityLevel) String() string {
	return string(p.OrNone())
}

// MarshalText implements encoding.TextMarshaler.
func (p PriorityLevel) MarshalText() ([]byte, error) {
	return []byte(p.OrNone()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *PriorityLevel) UnmarshalText(text []byte) error {
	parsed, err := ParsePriorityLevel(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// ParsePriorityLevel parses a priority label case-insensitively.
// "Medium" is accepted as an alias for Mid.
func ParsePriorityLevel(s string) (PriorityLevel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "none", "":
		return PriorityNone, nil
	case "low":
		return PriorityLow, nil
	case "mid", "medium":
		return PriorityMid, nil
	case "high":
		return PriorityHigh, nil
	default:
		return "", fmt.Errorf("invalid priority level %q", s)
	}
}
