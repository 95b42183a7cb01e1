package report

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"lcdkit/internal/evaluation"
	"lcdkit/internal/priority"
	"lcdkit/internal/rating"
	"lcdkit/internal/session"
	"lcdkit/internal/taxonomy"
)

const strategies = `
1.Low-impact materials
1.1.Clean materials
Avoid hazardous materials
Avoid hazardous additives
1.2.Renewable materials
Use renewable materials
Use bio-based materials
7.System level
7.1.Services
Offer product-service systems
`

func parseTaxonomy(t *testing.T) *taxonomy.Taxonomy {
	t.Helper()
	tax, err := taxonomy.ParseStrategies([]byte(strategies))
	require.NoError(t, err)
	return tax
}

func ratedSession(t *testing.T) *session.Session {
	t.Helper()
	s := session.New(session.Options{Policy: priority.NewPolicy([]string{"1"})})
	s.Install(taxonomy.Content{Taxonomy: parseTaxonomy(t)})
	s.SetProjectData(session.ProjectData{ProjectName: "Kettle", Company: "Acme"})

	require.NoError(t, s.SetChecklistLevel(rating.ConceptA, rating.Detailed))
	for _, cell := range []struct {
		sub, g string
		level  rating.EvaluationLevel
	}{
		{"1.1", "1.1.1", rating.Good},
		{"1.1", "1.1.2", rating.Mediocre},
		{"1.2", "1.2.1", rating.Poor},
		{"1.2", "1.2.2", rating.Poor},
	} {
		require.NoError(t, s.SetEvaluation(rating.ConceptA, evaluation.GuidelineRef(cell.sub, cell.g), cell.level))
	}
	require.NoError(t, s.SetEvaluation(rating.ConceptB, evaluation.StrategyRef("1"), rating.Good))
	require.NoError(t, s.SetEvaluation(rating.ConceptB, evaluation.StrategyRef("7"), rating.Excellent))
	require.NoError(t, s.SetPriority("1", "1.2", rating.PriorityHigh))
	s.SetAnswer("1", "1.2", "bio-based resin")
	s.SetInsight("1", "B wins on materials")
	_, err := s.AddIdea(session.EcoIdea{Text: "Use recycled PP", StrategyID: "1"})
	require.NoError(t, err)
	return s
}

func TestBuildHidesStrategiesFromChecklistOnly(t *testing.T) {
	r := Build(ratedSession(t), []string{"7"})

	for _, row := range r.Checklist {
		assert.False(t, strings.HasPrefix(row.ID, "7"), "row %s should be hidden", row.ID)
	}
	require.Len(t, r.Radar, 2)
	assert.Equal(t, "7", r.Radar[1].StrategyID)
	assert.Equal(t, 4.0, r.Radar[1].B)

	assert.Equal(t, 1.75, r.Radar[0].A)
	assert.Equal(t, 3.0, r.Radar[0].B)
	assert.Equal(t, "B wins on materials", r.Radar[0].Insight)

	require.NotEmpty(t, r.Checklist)
	assert.Equal(t, ChecklistRow{Kind: evaluation.KindStrategy, ID: "1", Name: "Low-impact materials", A: rating.Mediocre, B: rating.Good}, r.Checklist[0])

	assert.Equal(t, PriorityRow{StrategyID: "1", Name: "Low-impact materials", Priority: rating.PriorityHigh, Computed: true}, r.Priorities[0])
	assert.Equal(t, "bio-based resin", r.Priorities[2].Answer)
	assert.Equal(t, rating.Detailed, r.Levels[rating.ConceptA])
	assert.Equal(t, rating.Simplified, r.Levels[rating.ConceptB])
}

func TestDiffConcepts(t *testing.T) {
	text, err := Diff(Build(ratedSession(t), nil))
	require.NoError(t, err)
	assert.Contains(t, text, "--- concept A")
	assert.Contains(t, text, "+++ concept B")
	assert.Contains(t, text, "-level: Detailed")
	assert.Contains(t, text, "+level: Simplified")
	assert.Contains(t, text, "+1 Low-impact materials: Good")

	empty := session.New(session.Options{})
	empty.Install(taxonomy.Content{Taxonomy: parseTaxonomy(t)})
	text, err = Diff(Build(empty, nil))
	require.NoError(t, err)
	assert.Empty(t, text)
}

func TestWriteFormats(t *testing.T) {
	r := Build(ratedSession(t), []string{"7"})

	var text bytes.Buffer
	require.NoError(t, Write(&text, r, "text"))
	assert.Contains(t, text.String(), "Project: Kettle")
	assert.Contains(t, text.String(), "High (computed)")

	var md bytes.Buffer
	require.NoError(t, Write(&md, r, "markdown"))
	assert.Contains(t, md.String(), "# Kettle")
	assert.Contains(t, md.String(), "| 1.1.2 | Avoid hazardous additives | Mediocre | N/A |")

	var html bytes.Buffer
	require.NoError(t, Write(&html, r, "html"))
	assert.Contains(t, html.String(), "<table>")
	assert.Contains(t, html.String(), "Kettle")

	assert.Error(t, Write(&bytes.Buffer{}, r, "pdf"))
}

func TestJSONRoundTrip(t *testing.T) {
	r := Build(ratedSession(t), nil)
	path := filepath.Join(t.TempDir(), "exports", "report.json")
	require.NoError(t, WriteJSON(path, r))

	loaded, err := LoadJSON(path)
	require.NoError(t, err)
	assert.Equal(t, r.Radar, loaded.Radar)
	assert.Equal(t, r.Checklist, loaded.Checklist)
	assert.Equal(t, SchemaVersion, loaded.SchemaVersion)

	matches, err := filepath.Glob(filepath.Join(filepath.Dir(path), "*.tmp-*"))
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestXLSXExportReadsBack(t *testing.T) {
	r := Build(ratedSession(t), []string{"7"})
	path := filepath.Join(t.TempDir(), "report.xlsx")
	require.NoError(t, SaveXLSX(path, r))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SheetChecklist, SheetRadar, SheetPriorities, SheetProject, SheetIdeas}, f.GetSheetList())

	rows, err := f.GetRows(SheetChecklist)
	require.NoError(t, err)
	require.Len(t, rows, len(r.Checklist)+1)
	assert.Equal(t, []string{"strategy", "1", "Low-impact materials", "Mediocre", "Good"}, rows[1])

	radar, err := f.GetRows(SheetRadar)
	require.NoError(t, err)
	assert.Equal(t, "1.75", radar[1][2])

	project, err := f.GetRows(SheetProject)
	require.NoError(t, err)
	assert.Equal(t, []string{"Project name", "Kettle"}, project[1])

	ideas, err := f.GetRows(SheetIdeas)
	require.NoError(t, err)
	require.Len(t, ideas, 2)
	assert.Equal(t, "Use recycled PP", ideas[1][4])
}
