package evaluation

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lcdkit/internal/rating"
	"lcdkit/internal/taxonomy"
)

func fixtureTaxonomy() *taxonomy.Taxonomy {
	return taxonomy.New([]taxonomy.Strategy{
		{
			ID:   "1",
			Name: "Low-impact materials",
			SubStrategies: []taxonomy.SubStrategy{
				{ID: "1.1", Name: "Clean", Guidelines: []taxonomy.Guideline{{ID: "1.1.1"}, {ID: "1.1.2"}}},
				{ID: "1.2", Name: "Renewable", Guidelines: []taxonomy.Guideline{{ID: "1.2.1"}, {ID: "1.2.2"}}},
			},
		},
		{
			ID:   "2",
			Name: "Material reduction",
			SubStrategies: []taxonomy.SubStrategy{
				{ID: "2.1", Name: "Weight", Guidelines: []taxonomy.Guideline{{ID: "2.1.1"}}},
			},
		},
		{ID: "3", Name: "No sub-strategies"},
	})
}

func TestAggregate(t *testing.T) {
	cases := []struct {
		name   string
		levels []rating.EvaluationLevel
		want   rating.EvaluationLevel
	}{
		{"empty", nil, rating.NotApplicable},
		{"all n/a", []rating.EvaluationLevel{rating.NotApplicable, rating.NotApplicable}, rating.NotApplicable},
		{"mean 3.5 is excellent", []rating.EvaluationLevel{rating.Excellent, rating.Good}, rating.Excellent},
		{"boundary 3.5 with four entries", []rating.EvaluationLevel{rating.Excellent, rating.Excellent, rating.Good, rating.Good}, rating.Excellent},
		{"n/a excluded from denominator", []rating.EvaluationLevel{rating.Poor, rating.NotApplicable, rating.NotApplicable}, rating.Poor},
		{"four-point vocabulary normalizes", []rating.EvaluationLevel{rating.Yes, rating.No}, rating.Good},
		{"partially alone", []rating.EvaluationLevel{rating.Partially}, rating.Good},
		{"mediocre band", []rating.EvaluationLevel{rating.Good, rating.Poor}, rating.Mediocre},
		{"poor band", []rating.EvaluationLevel{rating.Poor, rating.Poor, rating.Mediocre}, rating.Poor},
		{"empty strings read as n/a", []rating.EvaluationLevel{"", rating.Good}, rating.Good},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Aggregate(tc.levels))
		})
	}
}

func TestEndToEndDetailedRollup(t *testing.T) {
	tax := fixtureTaxonomy()
	store := NewStore()
	a, err := store.Checklist(rating.ConceptA)
	require.NoError(t, err)
	require.NoError(t, a.SetLevel(rating.Detailed))

	require.NoError(t, a.Set(tax, GuidelineRef("1.1", "1.1.1"), rating.Good))
	require.NoError(t, a.Set(tax, GuidelineRef("1.1", "1.1.2"), rating.Mediocre))
	require.NoError(t, a.Set(tax, GuidelineRef("1.2", "1.2.1"), rating.Poor))
	require.NoError(t, a.Set(tax, GuidelineRef("1.2", "1.2.2"), rating.Poor))

	assert.Equal(t, rating.Good, a.SubStrategy("1.1"))
	assert.Equal(t, rating.Poor, a.SubStrategy("1.2"))
	assert.Equal(t, rating.Mediocre, a.Strategy("1"))

	radar := Project(tax, store)
	assert.Equal(t, 1.75, radar[rating.ConceptA]["1"])
	assert.Equal(t, 0.0, radar[rating.ConceptB]["1"])
}

func TestNormalLevelRollsUpSubStrategies(t *testing.T) {
	tax := fixtureTaxonomy()
	c := NewChecklist()
	require.NoError(t, c.SetLevel(rating.Normal))

	require.NoError(t, c.Set(tax, SubStrategyRef("1.1"), rating.Excellent))
	assert.Equal(t, rating.Excellent, c.Strategy("1"))

	require.NoError(t, c.Set(tax, SubStrategyRef("1.2"), rating.Poor))
	assert.Equal(t, rating.Good, c.Strategy("1"))

	require.NoError(t, c.Set(tax, SubStrategyRef("1.2"), rating.NotApplicable))
	assert.Equal(t, rating.Excellent, c.Strategy("1"))
	require.NoError(t, c.Set(tax, SubStrategyRef("1.2"), rating.Poor))

	s1, _ := tax.Strategy("1")
	assert.Equal(t, 2.5, StrategyScore(c, s1))
}

func TestDerivedCellsRejectEdits(t *testing.T) {
	tax := fixtureTaxonomy()
	c := NewChecklist()

	require.NoError(t, c.SetLevel(rating.Normal))
	err := c.Set(tax, StrategyRef("1"), rating.Good)
	assert.True(t, errors.Is(err, ErrDerivedCell))

	require.NoError(t, c.SetLevel(rating.Detailed))
	err = c.Set(tax, SubStrategyRef("1.1"), rating.Good)
	assert.True(t, errors.Is(err, ErrDerivedCell))
	err = c.Set(tax, StrategyRef("1"), rating.Good)
	assert.True(t, errors.Is(err, ErrDerivedCell))

	assert.Equal(t, rating.NotApplicable, c.Strategy("1"))
	assert.Equal(t, rating.NotApplicable, c.SubStrategy("1.1"))
}

func TestUnknownLabelsAreRejected(t *testing.T) {
	tax := fixtureTaxonomy()
	c := NewChecklist()

	err := c.SetLevel("Bogus")
	assert.True(t, errors.Is(err, rating.ErrInvalidLevel))
	assert.Equal(t, rating.Simplified, c.Level())
	assert.False(t, c.Derived(KindStrategy))

	err = c.Set(tax, StrategyRef("1"), "Great")
	assert.True(t, errors.Is(err, rating.ErrInvalidLevel))
	assert.Equal(t, rating.NotApplicable, c.Strategy("1"))

	require.NoError(t, c.SetLevel(""))
	assert.Equal(t, rating.Simplified, c.Level())
	require.NoError(t, c.Set(tax, StrategyRef("1"), ""))
}

func TestSimplifiedStoresFinerCellsWithoutPropagation(t *testing.T) {
	tax := fixtureTaxonomy()
	c := NewChecklist()

	require.NoError(t, c.Set(tax, StrategyRef("1"), rating.Poor))
	require.NoError(t, c.Set(tax, SubStrategyRef("1.1"), rating.Excellent))
	require.NoError(t, c.Set(tax, GuidelineRef("1.1", "1.1.1"), rating.Excellent))

	assert.Equal(t, rating.Poor, c.Strategy("1"))
	assert.Equal(t, rating.Excellent, c.SubStrategy("1.1"))
}

func TestSwitchingLevelKeepsData(t *testing.T) {
	tax := fixtureTaxonomy()
	c := NewChecklist()
	require.NoError(t, c.SetLevel(rating.Detailed))
	require.NoError(t, c.Set(tax, GuidelineRef("2.1", "2.1.1"), rating.Excellent))

	require.NoError(t, c.SetLevel(rating.Simplified))
	assert.Equal(t, rating.Simplified, c.Level())
	assert.Equal(t, rating.Excellent, c.Guideline("2.1", "2.1.1"))
	assert.Equal(t, rating.Excellent, c.Strategy("2"))

	s2, _ := tax.Strategy("2")
	assert.Equal(t, 4.0, StrategyScore(c, s2))
}

func TestRecomputeIsIdempotent(t *testing.T) {
	tax := fixtureTaxonomy()
	c := NewChecklist()
	require.NoError(t, c.SetLevel(rating.Detailed))
	require.NoError(t, c.Set(tax, GuidelineRef("1.1", "1.1.1"), rating.Yes))
	require.NoError(t, c.Set(tax, GuidelineRef("1.2", "1.2.1"), rating.Partially))

	c.Recompute(tax)
	first := c.Snapshot()
	c.Recompute(tax)
	second := c.Snapshot()
	assert.Equal(t, first, second)
	assert.Equal(t, rating.Excellent, c.SubStrategy("1.1"))
	assert.Equal(t, rating.Good, c.SubStrategy("1.2"))
	assert.Equal(t, rating.NotApplicable, c.Strategy("3"))
}

func TestConceptIsolation(t *testing.T) {
	tax := fixtureTaxonomy()
	store := NewStore()
	a, _ := store.Checklist(rating.ConceptA)
	b, _ := store.Checklist(rating.ConceptB)
	require.NoError(t, b.Set(tax, StrategyRef("1"), rating.Good))
	before := b.Snapshot()

	require.NoError(t, a.SetLevel(rating.Detailed))
	require.NoError(t, a.Set(tax, GuidelineRef("1.1", "1.1.1"), rating.Poor))
	require.NoError(t, store.Reset(rating.ConceptA))

	assert.Equal(t, before, b.Snapshot())
	assert.Equal(t, rating.Good, b.Strategy("1"))
}

func TestRadarAllNotApplicableIsZero(t *testing.T) {
	tax := fixtureTaxonomy()
	store := NewStore()
	a, _ := store.Checklist(rating.ConceptA)
	require.NoError(t, a.SetLevel(rating.Detailed))
	require.NoError(t, a.Set(tax, GuidelineRef("1.1", "1.1.1"), rating.NotApplicable))
	require.NoError(t, a.Set(tax, GuidelineRef("1.1", "1.1.2"), rating.NotApplicable))

	radar := Project(tax, store)
	score := radar[rating.ConceptA]["1"]
	assert.False(t, math.IsNaN(score))
	assert.Equal(t, 0.0, score)
	assert.Equal(t, 0.0, radar[rating.ConceptA]["3"])
}

func TestUnknownIdsAreTotal(t *testing.T) {
	tax := fixtureTaxonomy()
	c := NewChecklist()
	require.NoError(t, c.SetLevel(rating.Detailed))

	require.NoError(t, c.Set(tax, GuidelineRef("9.9", "9.9.1"), rating.Good))
	assert.Equal(t, rating.Good, c.Guideline("9.9", "9.9.1"))
	assert.Equal(t, rating.NotApplicable, c.SubStrategy("9.9"))
	assert.Equal(t, rating.NotApplicable, c.Guideline("1.1", "9.9.1"))

	empty := Project(taxonomy.Empty(), NewStore())
	assert.Empty(t, empty[rating.ConceptA])
	assert.Empty(t, empty[rating.ConceptB])

	assert.Equal(t, rating.NotApplicable, Aggregate([]rating.EvaluationLevel{"unknown"}))
}

func TestGuidelineKeysDoNotCollideAcrossSubStrategies(t *testing.T) {
	tax := taxonomy.New([]taxonomy.Strategy{{
		ID: "1",
		SubStrategies: []taxonomy.SubStrategy{
			{ID: "1.1", Guidelines: []taxonomy.Guideline{{ID: "g"}}},
			{ID: "1.2", Guidelines: []taxonomy.Guideline{{ID: "g"}}},
		},
	}})
	c := NewChecklist()
	require.NoError(t, c.SetLevel(rating.Detailed))
	require.NoError(t, c.Set(tax, GuidelineRef("1.1", "g"), rating.Excellent))
	require.NoError(t, c.Set(tax, GuidelineRef("1.2", "g"), rating.Poor))

	assert.Equal(t, rating.Excellent, c.SubStrategy("1.1"))
	assert.Equal(t, rating.Poor, c.SubStrategy("1.2"))
}

func TestStoreRejectsUnknownConcept(t *testing.T) {
	store := NewStore()
	_, err := store.Checklist("C")
	assert.Error(t, err)
	assert.Error(t, store.Reset("C"))
}

func TestParseKind(t *testing.T) {
	k, err := ParseKind("sub_strategy")
	require.NoError(t, err)
	assert.Equal(t, KindSubStrategy, k)
	_, err = ParseKind("leaf")
	assert.Error(t, err)
}
