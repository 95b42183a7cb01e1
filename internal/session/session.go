package session

import (
	"errors"
	"fmt"
	"io"
	"os"

	"lcdkit/internal/evaluation"
	"lcdkit/internal/priority"
	"lcdkit/internal/rating"
	"lcdkit/internal/taxonomy"
)

// Section names accepted by ResetSection.
const (
	SectionProjectData           = "projectData"
	SectionQualitativeEvaluation = "qualitativeEvaluation"
	SectionEcoIdeas              = "ecoIdeas"
	SectionEvaluationChecklists  = "evaluationChecklists"
	SectionRadarChart            = "radarChart"
	SectionRadarInsights         = "radarInsights"
)

// Sections lists every resettable section.
var Sections = []string{
	SectionProjectData,
	SectionQualitativeEvaluation,
	SectionEcoIdeas,
	SectionEvaluationChecklists,
	SectionRadarChart,
	SectionRadarInsights,
}

// ErrUnknownSection is returned by ResetSection for an unrecognized name.
var ErrUnknownSection = errors.New("unknown section")

// Auditor records engine mutations. *audit.Logger satisfies it.
type Auditor interface {
	LogEvent(actor string, eventType string, payload any) error
}

// Options configures a Session.
type Options struct {
	Policy  priority.Policy
	Auditor Auditor
	// Actor is recorded with every audit event.
	Actor string
	// Log receives operator warnings; stderr when nil.
	Log io.Writer
}

// Session is the in-memory state of one evaluation workflow. It is not
// safe for concurrent use; callers serialize access.
type Session struct {
	tax       *taxonomy.Taxonomy
	questions taxonomy.QuestionBank
	loaded    bool

	policy      priority.Policy
	checklists  *evaluation.Store
	qualitative priority.Evaluation
	radar       evaluation.RadarChartData
	project     ProjectData
	ideas       []EcoIdea
	insights    map[string]string

	auditor Auditor
	actor   string
	logw    io.Writer
	newID   func() string
}

// New returns a session with no content installed. Until Install is
// called every structure is empty and every lookup misses.
func New(opts Options) *Session {
	s := &Session{
		tax:       taxonomy.Empty(),
		questions: taxonomy.QuestionBank{},
		policy:    opts.Policy,
		auditor:   opts.Auditor,
		actor:     opts.Actor,
		logw:      opts.Log,
		newID:     newIdeaID,
	}
	if s.actor == "" {
		s.actor = "lcdkit"
	}
	if s.logw == nil {
		s.logw = os.Stderr
	}
	s.checklists = evaluation.NewStore()
	s.qualitative = priority.Evaluation{}
	s.radar = evaluation.EmptyRadar(s.tax)
	s.insights = make(map[string]string)
	return s
}

// Install sets the loaded content and initializes every dependent
// structure to its default for the new taxonomy.
func (s *Session) Install(content taxonomy.Content) {
	s.tax = content.Taxonomy
	if s.tax == nil {
		s.tax = taxonomy.Empty()
	}
	s.questions = content.Questions
	if s.questions == nil {
		s.questions = taxonomy.QuestionBank{}
	}
	s.loaded = true
	s.checklists.ResetAll()
	s.qualitative = priority.New(s.tax)
	s.radar = evaluation.EmptyRadar(s.tax)
	s.record("content_installed", map[string]int{"strategies": s.tax.Len()})
}

// Loaded reports whether content has been installed.
func (s *Session) Loaded() bool {
	return s.loaded
}

// Taxonomy returns the installed taxonomy.
func (s *Session) Taxonomy() *taxonomy.Taxonomy {
	return s.tax
}

// Questions returns the guiding questions of a sub-strategy.
func (s *Session) Questions(subStrategyID string) []string {
	return s.questions.For(subStrategyID)
}

// Policy returns the priority display policy.
func (s *Session) Policy() priority.Policy {
	return s.policy
}

// SetEvaluation rates one checklist cell of a concept and propagates the
// change upward, then refreshes the radar data.
func (s *Session) SetEvaluation(concept rating.Concept, ref evaluation.Ref, level rating.EvaluationLevel) error {
	c, err := s.checklists.Checklist(concept)
	if err != nil {
		return err
	}
	if err := c.Set(s.tax, ref, level); err != nil {
		return err
	}
	s.refreshRadar()
	s.record("evaluation_set", map[string]string{
		"concept":         string(concept),
		"kind":            string(ref.Kind),
		"strategy_id":     ref.StrategyID,
		"sub_strategy_id": ref.SubStrategyID,
		"guideline_id":    ref.GuidelineID,
		"level":           level.String(),
	})
	return nil
}

// SetChecklistLevel switches the granularity a concept is rated at.
func (s *Session) SetChecklistLevel(concept rating.Concept, level rating.ChecklistLevel) error {
	c, err := s.checklists.Checklist(concept)
	if err != nil {
		return err
	}
	if err := c.SetLevel(level); err != nil {
		return err
	}
	s.refreshRadar()
	s.record("checklist_level_set", map[string]string{
		"concept": string(concept),
		"level":   level.String(),
	})
	return nil
}

// Recompute rebuilds the derived cells of a concept from its entered cells.
func (s *Session) Recompute(concept rating.Concept) error {
	c, err := s.checklists.Checklist(concept)
	if err != nil {
		return err
	}
	c.Recompute(s.tax)
	s.refreshRadar()
	return nil
}

// Checklist returns a copy of a concept's checklist.
func (s *Session) Checklist(concept rating.Concept) (evaluation.Data, error) {
	c, err := s.checklists.Checklist(concept)
	if err != nil {
		return evaluation.Data{}, err
	}
	return c.Snapshot(), nil
}

// Checklists returns copies of every concept's checklist.
func (s *Session) Checklists() map[rating.Concept]evaluation.Data {
	return s.checklists.Snapshot()
}

// Editable reports whether cells of a kind accept direct edits for a concept.
func (s *Session) Editable(concept rating.Concept, kind evaluation.Kind) (bool, error) {
	c, err := s.checklists.Checklist(concept)
	if err != nil {
		return false, err
	}
	return !c.Derived(kind), nil
}

// RadarScores returns a copy of the current radar data.
func (s *Session) RadarScores() evaluation.RadarChartData {
	return s.radar.Clone()
}

// SetPriority sets a sub-strategy priority, or the strategy's own priority
// when subStrategyID is empty.
func (s *Session) SetPriority(strategyID, subStrategyID string, level rating.PriorityLevel) error {
	if err := s.policy.Set(s.qualitative, strategyID, subStrategyID, level); err != nil {
		return err
	}
	s.record("priority_set", map[string]string{
		"strategy_id":     strategyID,
		"sub_strategy_id": subStrategyID,
		"priority":        level.String(),
	})
	return nil
}

// SetAnswer stores the freeform answer of a sub-strategy.
func (s *Session) SetAnswer(strategyID, subStrategyID, answer string) {
	priority.SetAnswer(s.qualitative, strategyID, subStrategyID, answer)
	s.record("answer_set", map[string]string{
		"strategy_id":     strategyID,
		"sub_strategy_id": subStrategyID,
	})
}

// Qualitative returns a copy of the qualitative evaluation.
func (s *Session) Qualitative() priority.Evaluation {
	return s.qualitative.Clone()
}

// DisplayPriority returns the priority shown for a strategy: the rollup
// for computed strategies, the direct value otherwise. Unknown ids are None.
func (s *Session) DisplayPriority(strategyID string) rating.PriorityLevel {
	st, ok := s.tax.Strategy(strategyID)
	if !ok {
		st = taxonomy.Strategy{ID: strategyID}
	}
	return s.policy.Display(st, s.qualitative)
}

// ResetConcept restores one concept's checklist to its default.
func (s *Session) ResetConcept(concept rating.Concept) error {
	if err := s.checklists.Reset(concept); err != nil {
		return err
	}
	s.refreshRadar()
	s.record("concept_reset", map[string]string{"concept": string(concept)})
	return nil
}

// ResetAll restores every section to its default.
func (s *Session) ResetAll() {
	for _, section := range Sections {
		_ = s.resetSection(section)
	}
	s.record("reset_all", nil)
}

// ResetSection restores one section to its default, leaving the others
// untouched. Resetting the radar chart zeroes it until the next checklist
// change.
func (s *Session) ResetSection(section string) error {
	if err := s.resetSection(section); err != nil {
		return err
	}
	s.record("section_reset", map[string]string{"section": section})
	return nil
}

func (s *Session) resetSection(section string) error {
	switch section {
	case SectionProjectData:
		s.project = ProjectData{}
	case SectionQualitativeEvaluation:
		s.qualitative = priority.New(s.tax)
	case SectionEcoIdeas:
		s.ideas = nil
	case SectionEvaluationChecklists:
		s.checklists.ResetAll()
		s.refreshRadar()
	case SectionRadarChart:
		s.radar = evaluation.EmptyRadar(s.tax)
	case SectionRadarInsights:
		s.insights = make(map[string]string)
	default:
		return fmt.Errorf("reset %q: %w", section, ErrUnknownSection)
	}
	return nil
}

func (s *Session) refreshRadar() {
	s.radar = evaluation.Project(s.tax, s.checklists)
}

func (s *Session) record(eventType string, payload any) {
	if s.auditor == nil {
		return
	}
	if err := s.auditor.LogEvent(s.actor, eventType, payload); err != nil {
		fmt.Fprintf(s.logw, "audit log failed: %v\n", err)
	}
}
