package priority

import (
	"errors"
	"fmt"
	"sort"

	"lcdkit/internal/rating"
	"lcdkit/internal/taxonomy"
)

// ErrComputedPriority is returned when a direct priority is set on a
// strategy whose displayed priority is rolled up from its sub-strategies.
var ErrComputedPriority = errors.New("strategy priority is computed from its sub-strategies")

// SubStrategyEntry is the qualitative evaluation of one sub-strategy.
type SubStrategyEntry struct {
	Priority rating.PriorityLevel `json:"priority"`
	Answer   string               `json:"answer,omitempty"`
}

// StrategyEntry holds the directly set priority of a strategy and the
// entries of its sub-strategies.
type StrategyEntry struct {
	Priority      rating.PriorityLevel        `json:"priority"`
	SubStrategies map[string]SubStrategyEntry `json:"sub_strategies"`
}

// Evaluation is the qualitative evaluation keyed by strategy id.
type Evaluation map[string]StrategyEntry

// New returns an evaluation with every strategy and sub-strategy of tax at None.
func New(tax *taxonomy.Taxonomy) Evaluation {
	e := make(Evaluation, tax.Len())
	for _, s := range tax.Strategies() {
		entry := StrategyEntry{
			Priority:      rating.PriorityNone,
			SubStrategies: make(map[string]SubStrategyEntry, len(s.SubStrategies)),
		}
		for _, sub := range s.SubStrategies {
			entry.SubStrategies[sub.ID] = SubStrategyEntry{Priority: rating.PriorityNone}
		}
		e[s.ID] = entry
	}
	return e
}

// SubStrategy returns the entry of a sub-strategy; missing entries are None.
func (e Evaluation) SubStrategy(strategyID, subStrategyID string) SubStrategyEntry {
	entry := e[strategyID].SubStrategies[subStrategyID]
	entry.Priority = entry.Priority.OrNone()
	return entry
}

// Direct returns the directly set priority of a strategy.
func (e Evaluation) Direct(strategyID string) rating.PriorityLevel {
	return e[strategyID].Priority.OrNone()
}

// Clone returns a deep copy.
func (e Evaluation) Clone() Evaluation {
	out := make(Evaluation, len(e))
	for id, entry := range e {
		subs := make(map[string]SubStrategyEntry, len(entry.SubStrategies))
		for k, v := range entry.SubStrategies {
			subs[k] = v
		}
		entry.SubStrategies = subs
		out[id] = entry
	}
	return out
}

func (e Evaluation) entry(strategyID string) StrategyEntry {
	entry, ok := e[strategyID]
	if !ok {
		entry = StrategyEntry{Priority: rating.PriorityNone}
	}
	if entry.SubStrategies == nil {
		entry.SubStrategies = make(map[string]SubStrategyEntry)
	}
	return entry
}

// HighestPriority is the maximum priority over a strategy's sub-strategies,
// ordered None < Low < Mid < High. Unrated sub-strategies count as None.
func HighestPriority(s taxonomy.Strategy, e Evaluation) rating.PriorityLevel {
	highest := rating.PriorityNone
	for _, sub := range s.SubStrategies {
		p := e.SubStrategy(s.ID, sub.ID).Priority
		if p.Rank() > highest.Rank() {
			highest = p
		}
	}
	return highest
}

// Policy lists the strategies whose displayed priority is the computed
// rollup. All other strategies take a directly edited priority.
type Policy struct {
	computed map[string]struct{}
}

// NewPolicy builds a policy from strategy ids.
func NewPolicy(computedStrategyIDs []string) Policy {
	p := Policy{computed: make(map[string]struct{}, len(computedStrategyIDs))}
	for _, id := range computedStrategyIDs {
		p.computed[id] = struct{}{}
	}
	return p
}

// IsComputed reports whether a strategy displays the rollup.
func (p Policy) IsComputed(strategyID string) bool {
	_, ok := p.computed[strategyID]
	return ok
}

// ComputedIDs returns the configured strategy ids, sorted.
func (p Policy) ComputedIDs() []string {
	ids := make([]string, 0, len(p.computed))
	for id := range p.computed {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Display returns the priority shown for a strategy under the policy.
func (p Policy) Display(s taxonomy.Strategy, e Evaluation) rating.PriorityLevel {
	if p.IsComputed(s.ID) {
		return HighestPriority(s, e)
	}
	return e.Direct(s.ID)
}

// Set records a priority. An empty subStrategyID targets the strategy
// itself, which is refused for computed strategies. Unknown ids create
// their entries.
func (p Policy) Set(e Evaluation, strategyID, subStrategyID string, level rating.PriorityLevel) error {
	if !level.Valid() {
		return fmt.Errorf("set priority %q: %w", string(level), rating.ErrInvalidLevel)
	}
	level = level.OrNone()
	entry := e.entry(strategyID)
	if subStrategyID == "" {
		if p.IsComputed(strategyID) {
			return fmt.Errorf("set priority of strategy %s: %w", strategyID, ErrComputedPriority)
		}
		entry.Priority = level
		e[strategyID] = entry
		return nil
	}
	sub := entry.SubStrategies[subStrategyID]
	sub.Priority = level
	entry.SubStrategies[subStrategyID] = sub
	e[strategyID] = entry
	return nil
}

// SetAnswer records the freeform answer of a sub-strategy.
func SetAnswer(e Evaluation, strategyID, subStrategyID, answer string) {
	entry := e.entry(strategyID)
	sub := entry.SubStrategies[subStrategyID]
	sub.Priority = sub.Priority.OrNone()
	sub.Answer = answer
	entry.SubStrategies[subStrategyID] = sub
	e[strategyID] = entry
}
