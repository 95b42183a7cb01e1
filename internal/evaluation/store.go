package evaluation

import (
	"fmt"

	"lcdkit/internal/rating"
)

// Store keeps one independent checklist per concept.
type Store struct {
	checklists map[rating.Concept]*Checklist
}

// NewStore returns a store with an empty Simplified checklist per concept.
func NewStore() *Store {
	s := &Store{checklists: make(map[rating.Concept]*Checklist, len(rating.Concepts))}
	s.ResetAll()
	return s
}

// Checklist returns the checklist of a concept.
func (s *Store) Checklist(concept rating.Concept) (*Checklist, error) {
	c, ok := s.checklists[concept]
	if !ok {
		return nil, fmt.Errorf("unknown concept %q", concept)
	}
	return c, nil
}

// Reset restores one concept to its default empty checklist.
func (s *Store) Reset(concept rating.Concept) error {
	if !concept.Valid() {
		return fmt.Errorf("unknown concept %q", concept)
	}
	s.checklists[concept] = NewChecklist()
	return nil
}

// ResetAll restores every concept to its default.
func (s *Store) ResetAll() {
	for _, concept := range rating.Concepts {
		s.checklists[concept] = NewChecklist()
	}
}

// Snapshot copies every concept's checklist.
func (s *Store) Snapshot() map[rating.Concept]Data {
	out := make(map[rating.Concept]Data, len(s.checklists))
	for concept, c := range s.checklists {
		out[concept] = c.Snapshot()
	}
	return out
}
