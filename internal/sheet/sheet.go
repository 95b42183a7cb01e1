package sheet

import (
	"fmt"
	"os"
	"sort"

	"lcdkit/internal/evaluation"
	"lcdkit/internal/rating"
	"lcdkit/internal/session"
	"lcdkit/internal/taxonomy"
)

// Sheet is a validated evaluation sheet: the ratings, priorities and
// project data of one evaluation, ready to be applied to a session.
type Sheet struct {
	Source     string
	Project    *session.ProjectData
	Concepts   map[rating.Concept]ConceptSheet
	Priorities []PriorityEntry
}

// ConceptSheet holds the entered ratings of one concept.
type ConceptSheet struct {
	Level         rating.ChecklistLevel
	Strategies    map[string]rating.EvaluationLevel
	SubStrategies map[string]rating.EvaluationLevel
	// Guidelines is keyed by sub-strategy id, then guideline id.
	Guidelines map[string]map[string]rating.EvaluationLevel
}

// PriorityEntry sets a strategy priority (SubStrategyID empty) or a
// sub-strategy priority and answer. Nil fields are left untouched.
type PriorityEntry struct {
	StrategyID    string
	SubStrategyID string
	Priority      *rating.PriorityLevel
	Answer        *string
}

// Load reads and validates the sheet at path.
func Load(path string) (Sheet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Sheet{}, fmt.Errorf("read sheet %s: %w", path, err)
	}
	return ParseAndValidate(data, path)
}

// Apply replays the sheet through the session entry points. Each concept
// is switched to its level, then rated finest cells first so that
// propagation sees complete data, then recomputed.
func (s Sheet) Apply(sess *session.Session) error {
	if s.Project != nil {
		sess.SetProjectData(*s.Project)
	}

	for _, concept := range rating.Concepts {
		cs, ok := s.Concepts[concept]
		if !ok {
			continue
		}
		if err := sess.SetChecklistLevel(concept, cs.Level); err != nil {
			return fmt.Errorf("apply %s: %w", s.Source, err)
		}
		for _, subID := range sortedKeys(cs.Guidelines) {
			for _, gID := range sortedKeys(cs.Guidelines[subID]) {
				ref := evaluation.GuidelineRef(subID, gID)
				if err := sess.SetEvaluation(concept, ref, cs.Guidelines[subID][gID]); err != nil {
					return fmt.Errorf("apply %s: concept %s guideline %s: %w", s.Source, concept, gID, err)
				}
			}
		}
		for _, id := range sortedKeys(cs.SubStrategies) {
			if err := sess.SetEvaluation(concept, evaluation.SubStrategyRef(id), cs.SubStrategies[id]); err != nil {
				return fmt.Errorf("apply %s: concept %s sub-strategy %s: %w", s.Source, concept, id, err)
			}
		}
		for _, id := range sortedKeys(cs.Strategies) {
			if err := sess.SetEvaluation(concept, evaluation.StrategyRef(id), cs.Strategies[id]); err != nil {
				return fmt.Errorf("apply %s: concept %s strategy %s: %w", s.Source, concept, id, err)
			}
		}
		if err := sess.Recompute(concept); err != nil {
			return fmt.Errorf("apply %s: %w", s.Source, err)
		}
	}

	for _, p := range s.Priorities {
		if p.Priority != nil {
			if err := sess.SetPriority(p.StrategyID, p.SubStrategyID, *p.Priority); err != nil {
				return fmt.Errorf("apply %s: priorities.%s: %w", s.Source, p.StrategyID, err)
			}
		}
		if p.Answer != nil && p.SubStrategyID != "" {
			sess.SetAnswer(p.StrategyID, p.SubStrategyID, *p.Answer)
		}
	}
	return nil
}

// UnknownIDs lists the ids the sheet rates that tax does not define.
// They are still applied; callers usually print them as warnings.
func (s Sheet) UnknownIDs(tax *taxonomy.Taxonomy) []string {
	seen := make(map[string]struct{})
	note := func(id string) { seen[id] = struct{}{} }

	for _, cs := range s.Concepts {
		for id := range cs.Strategies {
			if _, ok := tax.Strategy(id); !ok {
				note(id)
			}
		}
		for id := range cs.SubStrategies {
			if _, _, ok := tax.FindSubStrategy(id); !ok {
				note(id)
			}
		}
		for subID, gs := range cs.Guidelines {
			for gID := range gs {
				if _, ok := tax.Guideline(subID, gID); !ok {
					note(gID)
				}
			}
		}
	}
	for _, p := range s.Priorities {
		if p.SubStrategyID == "" {
			if _, ok := tax.Strategy(p.StrategyID); !ok {
				note(p.StrategyID)
			}
			continue
		}
		if _, ok := tax.SubStrategy(p.StrategyID, p.SubStrategyID); !ok {
			note(p.SubStrategyID)
		}
	}

	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
