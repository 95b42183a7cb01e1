package session

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// ErrIdeaNotFound is returned when an eco idea id is unknown.
var ErrIdeaNotFound = errors.New("eco idea not found")

// ProjectData is the project sheet filled in before the evaluation.
type ProjectData struct {
	ProjectName                string `json:"project_name" yaml:"project_name"`
	Company                    string `json:"company" yaml:"company"`
	Designer                   string `json:"designer" yaml:"designer"`
	FunctionalUnit             string `json:"functional_unit" yaml:"functional_unit"`
	DescriptionExistingProduct string `json:"description_existing_product" yaml:"description_existing_product"`
}

// EcoIdea is a sticky note on a strategy's idea board.
type EcoIdea struct {
	ID            string  `json:"id"`
	Text          string  `json:"text"`
	StrategyID    string  `json:"strategy_id"`
	SubStrategyID string  `json:"sub_strategy_id,omitempty"`
	GuidelineID   string  `json:"guideline_id,omitempty"`
	X             float64 `json:"x"`
	Y             float64 `json:"y"`
}

func newIdeaID() string {
	return uuid.NewString()
}

// Project returns the project sheet.
func (s *Session) Project() ProjectData {
	return s.project
}

// SetProjectData replaces the project sheet.
func (s *Session) SetProjectData(data ProjectData) {
	s.project = data
	s.record("project_data_set", data)
}

// AddIdea stores a new idea and returns it with its generated id.
func (s *Session) AddIdea(idea EcoIdea) (EcoIdea, error) {
	if idea.StrategyID == "" {
		return EcoIdea{}, fmt.Errorf("eco idea requires a strategy id")
	}
	idea.ID = s.newID()
	s.ideas = append(s.ideas, idea)
	s.record("idea_added", map[string]string{"id": idea.ID, "strategy_id": idea.StrategyID})
	return idea, nil
}

// UpdateIdeaText replaces the text of an idea.
func (s *Session) UpdateIdeaText(id, text string) (EcoIdea, error) {
	return s.updateIdea(id, "idea_text_set", func(idea *EcoIdea) {
		idea.Text = text
	})
}

// MoveIdea sets the board position of an idea.
func (s *Session) MoveIdea(id string, x, y float64) (EcoIdea, error) {
	return s.updateIdea(id, "idea_moved", func(idea *EcoIdea) {
		idea.X = x
		idea.Y = y
	})
}

// DeleteIdea removes an idea.
func (s *Session) DeleteIdea(id string) error {
	for i := range s.ideas {
		if s.ideas[i].ID == id {
			s.ideas = append(s.ideas[:i], s.ideas[i+1:]...)
			s.record("idea_deleted", map[string]string{"id": id})
			return nil
		}
	}
	return fmt.Errorf("delete idea %s: %w", id, ErrIdeaNotFound)
}

// Ideas returns every idea in creation order.
func (s *Session) Ideas() []EcoIdea {
	return append([]EcoIdea(nil), s.ideas...)
}

// IdeasFor returns the ideas on one strategy's board.
func (s *Session) IdeasFor(strategyID string) []EcoIdea {
	var out []EcoIdea
	for _, idea := range s.ideas {
		if idea.StrategyID == strategyID {
			out = append(out, idea)
		}
	}
	return out
}

// SetInsight stores the radar-chart insight text of a strategy.
func (s *Session) SetInsight(strategyID, text string) {
	s.insights[strategyID] = text
	s.record("insight_set", map[string]string{"strategy_id": strategyID})
}

// Insights returns a copy of the radar insights.
func (s *Session) Insights() map[string]string {
	out := make(map[string]string, len(s.insights))
	for k, v := range s.insights {
		out[k] = v
	}
	return out
}

func (s *Session) updateIdea(id, eventType string, apply func(*EcoIdea)) (EcoIdea, error) {
	for i := range s.ideas {
		if s.ideas[i].ID == id {
			apply(&s.ideas[i])
			s.record(eventType, map[string]string{"id": id})
			return s.ideas[i], nil
		}
	}
	return EcoIdea{}, fmt.Errorf("update idea %s: %w", id, ErrIdeaNotFound)
}
