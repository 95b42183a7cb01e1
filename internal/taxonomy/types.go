package taxonomy

// Guideline is a leaf of the taxonomy. Its id is only unique within its
// sub-strategy, so lookups always pair it with the sub-strategy id.
type Guideline struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// SubStrategy groups guidelines under a strategy. Its id is a dotted path
// prefixed by the parent strategy id, e.g. "1.4".
type SubStrategy struct {
	ID         string      `json:"id"`
	Name       string      `json:"name"`
	Guidelines []Guideline `json:"guidelines"`
}

// Strategy is the coarsest level of the taxonomy.
type Strategy struct {
	ID            string        `json:"id"`
	Name          string        `json:"name"`
	SubStrategies []SubStrategy `json:"sub_strategies"`
}

type subRef struct {
	strategy int
	sub      int
}

// Taxonomy is the read-only, ordered strategy forest loaded at startup.
// A nil or empty Taxonomy is valid and answers every lookup with a miss.
type Taxonomy struct {
	strategies []Strategy

	strategyIndex map[string]int
	subIndex      map[string]subRef
}

// New indexes the given strategies. The slice is copied.
func New(strategies []Strategy) *Taxonomy {
	t := &Taxonomy{
		strategies:    cloneStrategies(strategies),
		strategyIndex: make(map[string]int, len(strategies)),
		subIndex:      make(map[string]subRef),
	}
	for si, s := range t.strategies {
		t.strategyIndex[s.ID] = si
		for ssi, sub := range s.SubStrategies {
			t.subIndex[sub.ID] = subRef{strategy: si, sub: ssi}
		}
	}
	return t
}

// Empty returns a taxonomy with no strategies.
func Empty() *Taxonomy {
	return New(nil)
}

// Strategies returns a copy of the strategies in file order.
func (t *Taxonomy) Strategies() []Strategy {
	if t == nil {
		return nil
	}
	return cloneStrategies(t.strategies)
}

// Len returns the number of strategies.
func (t *Taxonomy) Len() int {
	if t == nil {
		return 0
	}
	return len(t.strategies)
}

// Strategy returns the strategy with the given id, if present.
func (t *Taxonomy) Strategy(id string) (Strategy, bool) {
	if t == nil {
		return Strategy{}, false
	}
	idx, ok := t.strategyIndex[id]
	if !ok {
		return Strategy{}, false
	}
	return t.strategies[idx], true
}

// SubStrategy returns a sub-strategy of the given strategy, if present.
func (t *Taxonomy) SubStrategy(strategyID, subStrategyID string) (SubStrategy, bool) {
	owner, sub, ok := t.FindSubStrategy(subStrategyID)
	if !ok || owner.ID != strategyID {
		return SubStrategy{}, false
	}
	return sub, true
}

// FindSubStrategy returns a sub-strategy and its owning strategy.
func (t *Taxonomy) FindSubStrategy(subStrategyID string) (Strategy, SubStrategy, bool) {
	if t == nil {
		return Strategy{}, SubStrategy{}, false
	}
	ref, ok := t.subIndex[subStrategyID]
	if !ok {
		return Strategy{}, SubStrategy{}, false
	}
	owner := t.strategies[ref.strategy]
	return owner, owner.SubStrategies[ref.sub], true
}

// Guideline returns the guideline with the given id inside a sub-strategy.
func (t *Taxonomy) Guideline(subStrategyID, guidelineID string) (Guideline, bool) {
	_, sub, ok := t.FindSubStrategy(subStrategyID)
	if !ok {
		return Guideline{}, false
	}
	for _, g := range sub.Guidelines {
		if g.ID == guidelineID {
			return g, true
		}
	}
	return Guideline{}, false
}

func cloneStrategies(in []Strategy) []Strategy {
	if len(in) == 0 {
		return nil
	}
	out := make([]Strategy, len(in))
	for i, s := range in {
		subs := make([]SubStrategy, len(s.SubStrategies))
		for j, sub := range s.SubStrategies {
			sub.Guidelines = append([]Guideline(nil), sub.Guidelines...)
			subs[j] = sub
		}
		s.SubStrategies = subs
		out[i] = s
	}
	return out
}
