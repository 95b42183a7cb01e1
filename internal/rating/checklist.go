package rating

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidLevel is returned when a level outside its vocabulary reaches
// an engine entry point.
var ErrInvalidLevel = errors.New("invalid level")

// ChecklistLevel selects the taxonomy depth a concept is rated at directly.
type ChecklistLevel string

const (
	Simplified ChecklistLevel = "Simplified"
	Normal     ChecklistLevel = "Normal"
	Detailed   ChecklistLevel = "Detailed"
)

// OrDefault maps the empty value to Simplified.
func (l ChecklistLevel) OrDefault() ChecklistLevel {
	if l == "" {
		return Simplified
	}
	return l
}

// Valid reports whether l is one of the three levels or empty.
func (l ChecklistLevel) Valid() bool {
	switch l.OrDefault() {
	case Simplified, Normal, Detailed:
		return true
	default:
		return false
	}
}

func (l ChecklistLevel) String() string {
	return string(l.OrDefault())
}

// MarshalText implements encoding.TextMarshaler.
func (l ChecklistLevel) MarshalText() ([]byte, error) {
	return []byte(l.OrDefault()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (l *ChecklistLevel) UnmarshalText(text []byte) error {
	parsed, err := ParseChecklistLevel(string(text))
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}

// ParseChecklistLevel parses a checklist level case-insensitively.
func ParseChecklistLevel(s string) (ChecklistLevel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "simplified", "":
		return Simplified, nil
	case "normal":
		return Normal, nil
	case "detailed":
		return Detailed, nil
	default:
		return "", fmt.Errorf("invalid checklist level %q", s)
	}
}

// Concept identifies one of the two product alternatives under evaluation.
type Concept string

const (
	ConceptA Concept = "A"
	ConceptB Concept = "B"
)

// Concepts lists every concept in display order.
var Concepts = []Concept{ConceptA, ConceptB}

// ParseConcept parses "A" or "B" case-insensitively.
func ParseConcept(s string) (Concept, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "A":
		return ConceptA, nil
	case "B":
		return ConceptB, nil
	default:
		return "", fmt.Errorf("invalid concept %q", s)
	}
}

// Valid reports whether c is a known concept.
func (c Concept) Valid() bool {
	return c == ConceptA || c == ConceptB
}
