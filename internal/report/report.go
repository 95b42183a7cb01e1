package report

import (
	"lcdkit/internal/evaluation"
	"lcdkit/internal/rating"
	"lcdkit/internal/session"
)

// SchemaVersion is stamped on every JSON report. LoadJSON refuses other
// versions.
const SchemaVersion = 1

// Report is a flat, render-ready view of a session.
type Report struct {
	SchemaVersion int                                     `json:"schema_version"`
	Project       session.ProjectData                     `json:"project"`
	Levels        map[rating.Concept]rating.ChecklistLevel `json:"levels"`
	Checklist     []ChecklistRow                          `json:"checklist"`
	Radar         []RadarRow                              `json:"radar"`
	Priorities    []PriorityRow                           `json:"priorities"`
	Ideas         []session.EcoIdea                       `json:"ideas"`
}

// ChecklistRow is one cell pair of the checklist tree.
type ChecklistRow struct {
	Kind evaluation.Kind        `json:"kind"`
	ID   string                 `json:"id"`
	Name string                 `json:"name"`
	A    rating.EvaluationLevel `json:"a"`
	B    rating.EvaluationLevel `json:"b"`
}

// RadarRow holds both concepts' radar scores for a strategy.
type RadarRow struct {
	StrategyID string  `json:"strategy_id"`
	Name       string  `json:"name"`
	A          float64 `json:"a"`
	B          float64 `json:"b"`
	Insight    string  `json:"insight,omitempty"`
}

// PriorityRow is a strategy or sub-strategy line of the qualitative
// evaluation.
type PriorityRow struct {
	StrategyID    string               `json:"strategy_id"`
	SubStrategyID string               `json:"sub_strategy_id,omitempty"`
	Name          string               `json:"name"`
	Priority      rating.PriorityLevel `json:"priority"`
	Computed      bool                 `json:"computed,omitempty"`
	Answer        string               `json:"answer,omitempty"`
}

// Build collects the session state in taxonomy order. Strategies listed
// in hidden are left out of the checklist but kept on the radar.
func Build(sess *session.Session, hidden []string) Report {
	skip := make(map[string]struct{}, len(hidden))
	for _, id := range hidden {
		skip[id] = struct{}{}
	}

	checklists := sess.Checklists()
	a, b := checklists[rating.ConceptA], checklists[rating.ConceptB]
	radar := sess.RadarScores()
	insights := sess.Insights()
	qualitative := sess.Qualitative()
	policy := sess.Policy()

	r := Report{
		SchemaVersion: SchemaVersion,
		Project:       sess.Project(),
		Levels: map[rating.Concept]rating.ChecklistLevel{
			rating.ConceptA: a.Level.OrDefault(),
			rating.ConceptB: b.Level.OrDefault(),
		},
		Ideas: sess.Ideas(),
	}

	for _, s := range sess.Taxonomy().Strategies() {
		r.Radar = append(r.Radar, RadarRow{
			StrategyID: s.ID,
			Name:       s.Name,
			A:          radar[rating.ConceptA][s.ID],
			B:          radar[rating.ConceptB][s.ID],
			Insight:    insights[s.ID],
		})

		r.Priorities = append(r.Priorities, PriorityRow{
			StrategyID: s.ID,
			Name:       s.Name,
			Priority:   sess.DisplayPriority(s.ID),
			Computed:   policy.IsComputed(s.ID),
		})
		for _, sub := range s.SubStrategies {
			entry := qualitative.SubStrategy(s.ID, sub.ID)
			r.Priorities = append(r.Priorities, PriorityRow{
				StrategyID:    s.ID,
				SubStrategyID: sub.ID,
				Name:          sub.Name,
				Priority:      entry.Priority.OrNone(),
				Answer:        entry.Answer,
			})
		}

		if _, hide := skip[s.ID]; hide {
			continue
		}
		r.Checklist = append(r.Checklist, ChecklistRow{
			Kind: evaluation.KindStrategy,
			ID:   s.ID,
			Name: s.Name,
			A:    a.Strategies[s.ID].OrNA(),
			B:    b.Strategies[s.ID].OrNA(),
		})
		for _, sub := range s.SubStrategies {
			r.Checklist = append(r.Checklist, ChecklistRow{
				Kind: evaluation.KindSubStrategy,
				ID:   sub.ID,
				Name: sub.Name,
				A:    a.SubStrategies[sub.ID].OrNA(),
				B:    b.SubStrategies[sub.ID].OrNA(),
			})
			for _, g := range sub.Guidelines {
				r.Checklist = append(r.Checklist, ChecklistRow{
					Kind: evaluation.KindGuideline,
					ID:   g.ID,
					Name: g.Name,
					A:    a.Guidelines[sub.ID][g.ID].OrNA(),
					B:    b.Guidelines[sub.ID][g.ID].OrNA(),
				})
			}
		}
	}
	return r
}

// Level returns the value of a row for one concept.
func (row ChecklistRow) Level(concept rating.Concept) rating.EvaluationLevel {
	if concept == rating.ConceptB {
		return row.B
	}
	return row.A
}

// Score returns the radar score of a row for one concept.
func (row RadarRow) Score(concept rating.Concept) float64 {
	if concept == rating.ConceptB {
		return row.B
	}
	return row.A
}
