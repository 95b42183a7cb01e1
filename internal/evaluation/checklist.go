package evaluation

import (
	"errors"
	"fmt"

	"lcdkit/internal/rating"
	"lcdkit/internal/taxonomy"
)

// ErrDerivedCell is returned when a cell that is computed at the active
// checklist level is edited directly.
var ErrDerivedCell = errors.New("cell is derived at the active checklist level")

// Kind names the taxonomy depth of a checklist cell.
type Kind string

const (
	KindStrategy    Kind = "strategy"
	KindSubStrategy Kind = "subStrategy"
	KindGuideline   Kind = "guideline"
)

// ParseKind parses a cell kind.
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindStrategy, KindSubStrategy, KindGuideline:
		return Kind(s), nil
	case "sub_strategy", "substrategy":
		return KindSubStrategy, nil
	default:
		return "", fmt.Errorf("invalid cell kind %q", s)
	}
}

// GuidelineKey identifies a guideline. Guideline ids repeat across
// sub-strategies, so the owning sub-strategy is part of the key.
type GuidelineKey struct {
	SubStrategyID string `json:"sub_strategy_id" yaml:"sub_strategy_id"`
	GuidelineID   string `json:"guideline_id" yaml:"guideline_id"`
}

// Ref addresses one checklist cell. Only the ids relevant to the kind
// are read: StrategyID for strategies, SubStrategyID for sub-strategies,
// SubStrategyID and GuidelineID for guidelines.
type Ref struct {
	Kind          Kind
	StrategyID    string
	SubStrategyID string
	GuidelineID   string
}

// StrategyRef addresses a strategy cell.
func StrategyRef(id string) Ref {
	return Ref{Kind: KindStrategy, StrategyID: id}
}

// SubStrategyRef addresses a sub-strategy cell.
func SubStrategyRef(id string) Ref {
	return Ref{Kind: KindSubStrategy, SubStrategyID: id}
}

// GuidelineRef addresses a guideline cell.
func GuidelineRef(subStrategyID, guidelineID string) Ref {
	return Ref{Kind: KindGuideline, SubStrategyID: subStrategyID, GuidelineID: guidelineID}
}

// Checklist holds one concept's ratings at all three depths. Cells at the
// active level are entered directly; coarser cells are derived and refuse
// direct edits; finer cells may be pre-filled and are kept as entered.
type Checklist struct {
	level         rating.ChecklistLevel
	strategies    map[string]rating.EvaluationLevel
	subStrategies map[string]rating.EvaluationLevel
	guidelines    map[GuidelineKey]rating.EvaluationLevel
}

// NewChecklist returns an empty checklist at the Simplified level.
func NewChecklist() *Checklist {
	return &Checklist{
		level:         rating.Simplified,
		strategies:    make(map[string]rating.EvaluationLevel),
		subStrategies: make(map[string]rating.EvaluationLevel),
		guidelines:    make(map[GuidelineKey]rating.EvaluationLevel),
	}
}

// Level returns the active checklist level.
func (c *Checklist) Level() rating.ChecklistLevel {
	return c.level
}

// SetLevel switches the active level. Existing ratings are neither
// cleared nor recomputed.
func (c *Checklist) SetLevel(level rating.ChecklistLevel) error {
	if !level.Valid() {
		return fmt.Errorf("set checklist level %q: %w", string(level), rating.ErrInvalidLevel)
	}
	c.level = level.OrDefault()
	return nil
}

// Strategy returns a strategy rating; unknown ids read as N/A.
func (c *Checklist) Strategy(id string) rating.EvaluationLevel {
	return c.strategies[id].OrNA()
}

// SubStrategy returns a sub-strategy rating; unknown ids read as N/A.
func (c *Checklist) SubStrategy(id string) rating.EvaluationLevel {
	return c.subStrategies[id].OrNA()
}

// Guideline returns a guideline rating; unknown keys read as N/A.
func (c *Checklist) Guideline(subStrategyID, guidelineID string) rating.EvaluationLevel {
	return c.guidelines[GuidelineKey{SubStrategyID: subStrategyID, GuidelineID: guidelineID}].OrNA()
}

// Derived reports whether cells of the given kind are computed at the
// active level.
func (c *Checklist) Derived(kind Kind) bool {
	switch kind {
	case KindStrategy:
		return c.level != rating.Simplified
	case KindSubStrategy:
		return c.level == rating.Detailed
	default:
		return false
	}
}

// Set stores a rating and propagates it upward through tax:
// a guideline edit at Detailed recomputes its sub-strategy and then its
// strategy; a sub-strategy edit at Normal recomputes its strategy.
// Ids missing from tax are stored but have nothing to propagate to.
func (c *Checklist) Set(tax *taxonomy.Taxonomy, ref Ref, level rating.EvaluationLevel) error {
	if !level.Valid() {
		return fmt.Errorf("set %s rating %q: %w", ref.Kind, string(level), rating.ErrInvalidLevel)
	}
	if c.Derived(ref.Kind) {
		return fmt.Errorf("set %s rating at %s level: %w", ref.Kind, c.level, ErrDerivedCell)
	}
	level = level.OrNA()

	switch ref.Kind {
	case KindStrategy:
		c.strategies[ref.StrategyID] = level
	case KindSubStrategy:
		c.subStrategies[ref.SubStrategyID] = level
		if c.level == rating.Normal {
			c.rollUpStrategy(tax, ref.SubStrategyID)
		}
	case KindGuideline:
		c.guidelines[GuidelineKey{SubStrategyID: ref.SubStrategyID, GuidelineID: ref.GuidelineID}] = level
		if c.level == rating.Detailed {
			c.rollUpSubStrategy(tax, ref.SubStrategyID)
			c.rollUpStrategy(tax, ref.SubStrategyID)
		}
	default:
		return fmt.Errorf("invalid cell kind %q", ref.Kind)
	}
	return nil
}

// Recompute rebuilds every derived cell from the cells entered at the
// active level. Calling it repeatedly yields the same result.
func (c *Checklist) Recompute(tax *taxonomy.Taxonomy) {
	if c.level == rating.Simplified {
		return
	}
	for _, s := range tax.Strategies() {
		if c.level == rating.Detailed {
			for _, sub := range s.SubStrategies {
				c.subStrategies[sub.ID] = c.aggregateGuidelines(sub)
			}
		}
		c.strategies[s.ID] = c.aggregateSubStrategies(s)
	}
}

func (c *Checklist) rollUpSubStrategy(tax *taxonomy.Taxonomy, subStrategyID string) {
	_, sub, ok := tax.FindSubStrategy(subStrategyID)
	if !ok {
		return
	}
	c.subStrategies[sub.ID] = c.aggregateGuidelines(sub)
}

func (c *Checklist) rollUpStrategy(tax *taxonomy.Taxonomy, subStrategyID string) {
	owner, _, ok := tax.FindSubStrategy(subStrategyID)
	if !ok {
		return
	}
	c.strategies[owner.ID] = c.aggregateSubStrategies(owner)
}

func (c *Checklist) aggregateGuidelines(sub taxonomy.SubStrategy) rating.EvaluationLevel {
	return Aggregate(c.guidelineLevels(sub))
}

func (c *Checklist) aggregateSubStrategies(s taxonomy.Strategy) rating.EvaluationLevel {
	levels := make([]rating.EvaluationLevel, 0, len(s.SubStrategies))
	for _, sub := range s.SubStrategies {
		levels = append(levels, c.SubStrategy(sub.ID))
	}
	return Aggregate(levels)
}

func (c *Checklist) guidelineLevels(sub taxonomy.SubStrategy) []rating.EvaluationLevel {
	levels := make([]rating.EvaluationLevel, 0, len(sub.Guidelines))
	for _, g := range sub.Guidelines {
		levels = append(levels, c.Guideline(sub.ID, g.ID))
	}
	return levels
}

// Data is a serializable copy of a checklist.
type Data struct {
	Level         rating.ChecklistLevel             `json:"level"`
	Strategies    map[string]rating.EvaluationLevel `json:"strategies"`
	SubStrategies map[string]rating.EvaluationLevel `json:"sub_strategies"`
	// Guidelines is keyed by sub-strategy id, then guideline id.
	Guidelines map[string]map[string]rating.EvaluationLevel `json:"guidelines"`
}

// Snapshot returns a copy of the checklist that shares no state with it.
func (c *Checklist) Snapshot() Data {
	d := Data{
		Level:         c.level,
		Strategies:    make(map[string]rating.EvaluationLevel, len(c.strategies)),
		SubStrategies: make(map[string]rating.EvaluationLevel, len(c.subStrategies)),
		Guidelines:    make(map[string]map[string]rating.EvaluationLevel),
	}
	for k, v := range c.strategies {
		d.Strategies[k] = v
	}
	for k, v := range c.subStrategies {
		d.SubStrategies[k] = v
	}
	for k, v := range c.guidelines {
		inner, ok := d.Guidelines[k.SubStrategyID]
		if !ok {
			inner = make(map[string]rating.EvaluationLevel)
			d.Guidelines[k.SubStrategyID] = inner
		}
		inner[k.GuidelineID] = v
	}
	return d
}
