package taxonomy

import (
	"bufio"
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const strategiesFixture = `
1.Selection of low-impact materials
1.1.Clean materials
Avoid materials and additives which are hazardous
Avoid materials which emit hazardous substances
1.2.Renewable materials
Use renewable materials

2.Reduction of materials usage
2.1.Weight reduction
Reduce the weight of products
  stray text without a letter start is a guideline too
- bullet lines are ignored
`

func mustParseStrategies(t *testing.T, data string) *Taxonomy {
	t.Helper()
	tax, err := ParseStrategies([]byte(data))
	require.NoError(t, err)
	return tax
}

func TestParseStrategies(t *testing.T) {
	tax := mustParseStrategies(t, strategiesFixture)
	require.Equal(t, 2, tax.Len())

	s1, ok := tax.Strategy("1")
	require.True(t, ok)
	assert.Equal(t, "Selection of low-impact materials", s1.Name)
	require.Len(t, s1.SubStrategies, 2)
	assert.Equal(t, "1.1", s1.SubStrategies[0].ID)
	assert.Equal(t, "Clean materials", s1.SubStrategies[0].Name)
	require.Len(t, s1.SubStrategies[0].Guidelines, 2)
	assert.Equal(t, "1.1.1", s1.SubStrategies[0].Guidelines[0].ID)
	assert.Equal(t, "1.1.2", s1.SubStrategies[0].Guidelines[1].ID)

	s2, ok := tax.Strategy("2")
	require.True(t, ok)
	require.Len(t, s2.SubStrategies, 1)
	assert.Len(t, s2.SubStrategies[0].Guidelines, 2)
}

func TestParseStrategiesDropsOrphans(t *testing.T) {
	data := []byte(`
Guideline before any strategy
1.1.Sub-strategy before any strategy
1.Only strategy
2.1.Sub-strategy of another strategy
Orphan guideline
1.1.Real sub
First guideline
1.Only strategy repeated
1.1.Real sub
Second guideline
`)
	tax, err := ParseStrategies(data)
	require.NoError(t, err)
	require.Equal(t, 1, tax.Len())
	s, _ := tax.Strategy("1")
	require.Len(t, s.SubStrategies, 1)
	require.Len(t, s.SubStrategies[0].Guidelines, 2)
	assert.Equal(t, "1.1.2", s.SubStrategies[0].Guidelines[1].ID)
	assert.Equal(t, "Second guideline", s.SubStrategies[0].Guidelines[1].Name)
}

func TestGuidelineLookupIsScopedToSubStrategy(t *testing.T) {
	tax := New([]Strategy{{
		ID: "1",
		SubStrategies: []SubStrategy{
			{ID: "1.1", Guidelines: []Guideline{{ID: "g", Name: "first"}}},
			{ID: "1.2", Guidelines: []Guideline{{ID: "g", Name: "second"}}},
		},
	}})

	g, ok := tax.Guideline("1.2", "g")
	require.True(t, ok)
	assert.Equal(t, "second", g.Name)

	_, ok = tax.Guideline("1.3", "g")
	assert.False(t, ok)

	owner, sub, ok := tax.FindSubStrategy("1.2")
	require.True(t, ok)
	assert.Equal(t, "1", owner.ID)
	assert.Equal(t, "1.2", sub.ID)

	_, ok = tax.SubStrategy("2", "1.2")
	assert.False(t, ok)
}

func TestNilTaxonomyIsTotal(t *testing.T) {
	var tax *Taxonomy
	assert.Equal(t, 0, tax.Len())
	assert.Nil(t, tax.Strategies())
	_, ok := tax.Strategy("1")
	assert.False(t, ok)
	_, ok = tax.Guideline("1.1", "1.1.1")
	assert.False(t, ok)
}

func TestStrategiesReturnsCopy(t *testing.T) {
	tax := mustParseStrategies(t, strategiesFixture)
	copied := tax.Strategies()
	copied[0].SubStrategies[0].Guidelines[0].Name = "mutated"

	s1, _ := tax.Strategy("1")
	assert.NotEqual(t, "mutated", s1.SubStrategies[0].Guidelines[0].Name)
}

func TestParseQuestions(t *testing.T) {
	bank, err := ParseQuestions([]byte(`
- question before any header is ignored
## 1.1 Clean materials
- Which materials are hazardous?
-  Can they be substituted?
not a question
##1.2
- Are renewable sources available?
## 1.1
- Restarted block
`))
	require.NoError(t, err)
	assert.Equal(t, []string{"Restarted block"}, bank.For("1.1"))
	assert.Equal(t, []string{"Are renewable sources available?"}, bank.For("1.2"))
	assert.Nil(t, bank.For("9.9"))

	var empty QuestionBank
	assert.Nil(t, empty.For("1.1"))
}

func TestOversizedLineFailsWholeFile(t *testing.T) {
	long := strings.Repeat("x", 2*maxLineSize)
	data := "1.First\n1.1.Sub\nGuideline one\n" + long + "\n2.Second\n2.1.Sub two\n"

	tax, err := ParseStrategies([]byte(data))
	require.ErrorIs(t, err, bufio.ErrTooLong)
	assert.Nil(t, tax)

	_, err = ParseQuestions([]byte("## 1.1\n- " + long + "\n"))
	require.ErrorIs(t, err, bufio.ErrTooLong)

	path := filepath.Join(t.TempDir(), "LCD-strategies.txt")
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))
	var logs bytes.Buffer
	content := Load(context.Background(), path, "", &logs)
	assert.Equal(t, 0, content.Taxonomy.Len())
	assert.Contains(t, logs.String(), "load strategies: "+path+": parse strategies: line 4:")
}

func TestLoadDegradesToEmpty(t *testing.T) {
	var logs bytes.Buffer
	content := Load(context.Background(), filepath.Join(t.TempDir(), "missing.txt"), "", &logs)

	assert.Equal(t, 0, content.Taxonomy.Len())
	assert.Empty(t, content.Questions)
	assert.Contains(t, logs.String(), "load strategies")
	assert.Contains(t, logs.String(), "load guiding questions")
}

func TestLoadFromFilesAndHTTP(t *testing.T) {
	dir := t.TempDir()
	strategiesPath := filepath.Join(dir, "LCD-strategies.txt")
	require.NoError(t, os.WriteFile(strategiesPath, []byte(strategiesFixture), 0o644))

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/questions.txt" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte("## 2.1\n- Lighter?\n"))
	}))
	defer srv.Close()

	var logs bytes.Buffer
	content := Load(context.Background(), strategiesPath, srv.URL+"/questions.txt", &logs)
	assert.Empty(t, logs.String())
	assert.Equal(t, 2, content.Taxonomy.Len())
	assert.Equal(t, []string{"Lighter?"}, content.Questions.For("2.1"))

	_, err := ReadQuestions(context.Background(), srv.URL+"/missing.txt")
	assert.Error(t, err)
}
