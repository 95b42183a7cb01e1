package report

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
	"github.com/pmezard/go-difflib/difflib"

	"lcdkit/internal/evaluation"
	"lcdkit/internal/rating"
)

// WriteText renders the report as aligned plain-text tables.
func WriteText(w io.Writer, r Report) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)

	if name := r.Project.ProjectName; name != "" {
		fmt.Fprintf(tw, "Project: %s\n", name)
	}
	fmt.Fprintf(tw, "Checklist levels: A=%s B=%s\n\n", r.Levels[rating.ConceptA], r.Levels[rating.ConceptB])

	fmt.Fprintln(tw, "ID\tNAME\tA\tB")
	for _, row := range r.Checklist {
		fmt.Fprintf(tw, "%s\t%s%s\t%s\t%s\n", row.ID, indent(row.Kind), row.Name, row.A, row.B)
	}

	fmt.Fprintln(tw, "\nSTRATEGY\tNAME\tRADAR A\tRADAR B")
	for _, row := range r.Radar {
		fmt.Fprintf(tw, "%s\t%s\t%.2f\t%.2f\n", row.StrategyID, row.Name, row.A, row.B)
	}

	fmt.Fprintln(tw, "\nID\tNAME\tPRIORITY\tANSWER")
	for _, row := range r.Priorities {
		id := row.StrategyID
		name := row.Name
		if row.SubStrategyID != "" {
			id = row.SubStrategyID
			name = "  " + name
		}
		label := row.Priority.String()
		if row.Computed {
			label += " (computed)"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", id, name, label, row.Answer)
	}

	if len(r.Ideas) > 0 {
		fmt.Fprintln(tw, "\nSTRATEGY\tIDEA")
		for _, idea := range r.Ideas {
			fmt.Fprintf(tw, "%s\t%s\n", idea.StrategyID, idea.Text)
		}
	}
	return tw.Flush()
}

// ConceptText renders one concept's checklist as one line per cell.
func ConceptText(r Report, concept rating.Concept) string {
	var b strings.Builder
	fmt.Fprintf(&b, "level: %s\n", r.Levels[concept])
	for _, row := range r.Checklist {
		fmt.Fprintf(&b, "%s %s: %s\n", row.ID, row.Name, row.Level(concept))
	}
	for _, row := range r.Radar {
		fmt.Fprintf(&b, "radar %s: %.2f\n", row.StrategyID, row.Score(concept))
	}
	return b.String()
}

// Diff returns a unified diff of concept A against concept B, or an empty
// string when both are rated identically.
func Diff(r Report) (string, error) {
	diff := difflib.UnifiedDiff{
		A:        difflib.SplitLines(ConceptText(r, rating.ConceptA)),
		B:        difflib.SplitLines(ConceptText(r, rating.ConceptB)),
		FromFile: "concept A",
		ToFile:   "concept B",
		Context:  1,
	}
	text, err := difflib.GetUnifiedDiffString(diff)
	if err != nil {
		return "", fmt.Errorf("diff concepts: %w", err)
	}
	return text, nil
}

// Markdown renders the report as a Markdown document.
func Markdown(r Report) string {
	var b strings.Builder
	title := r.Project.ProjectName
	if title == "" {
		title = "LCD evaluation"
	}
	fmt.Fprintf(&b, "# %s\n\n", title)

	project := [][2]string{
		{"Company", r.Project.Company},
		{"Designer", r.Project.Designer},
		{"Functional unit", r.Project.FunctionalUnit},
		{"Existing product", r.Project.DescriptionExistingProduct},
	}
	for _, field := range project {
		if field[1] != "" {
			fmt.Fprintf(&b, "- **%s:** %s\n", field[0], field[1])
		}
	}

	fmt.Fprintf(&b, "\n## Checklist\n\n")
	fmt.Fprintf(&b, "Levels: concept A %s, concept B %s.\n\n", r.Levels[rating.ConceptA], r.Levels[rating.ConceptB])
	b.WriteString("| ID | Name | A | B |\n|---|---|---|---|\n")
	for _, row := range r.Checklist {
		name := mdEscape(row.Name)
		if row.Kind == evaluation.KindStrategy {
			name = "**" + name + "**"
		}
		fmt.Fprintf(&b, "| %s | %s | %s | %s |\n", row.ID, name, row.A, row.B)
	}

	b.WriteString("\n## Radar\n\n| Strategy | Name | A | B | Insight |\n|---|---|---|---|---|\n")
	for _, row := range r.Radar {
		fmt.Fprintf(&b, "| %s | %s | %.2f | %.2f | %s |\n", row.StrategyID, mdEscape(row.Name), row.A, row.B, mdEscape(row.Insight))
	}

	b.WriteString("\n## Priorities\n\n| ID | Name | Priority | Answer |\n|---|---|---|---|\n")
	for _, row := range r.Priorities {
		id := row.StrategyID
		if row.SubStrategyID != "" {
			id = row.SubStrategyID
		}
		fmt.Fprintf(&b, "| %s | %s | %s | %s |\n", id, mdEscape(row.Name), row.Priority, mdEscape(row.Answer))
	}

	if len(r.Ideas) > 0 {
		b.WriteString("\n## Eco ideas\n\n")
		for _, idea := range r.Ideas {
			fmt.Fprintf(&b, "- (%s) %s\n", idea.StrategyID, idea.Text)
		}
	}
	return b.String()
}

// HTML renders the Markdown report to an HTML fragment.
func HTML(r Report) []byte {
	p := parser.NewWithExtensions(parser.CommonExtensions)
	renderer := html.NewRenderer(html.RendererOptions{Flags: html.CommonFlags})
	return markdown.ToHTML([]byte(Markdown(r)), p, renderer)
}

// Write renders r to w in one of the text, json, markdown or html formats.
func Write(w io.Writer, r Report, format string) error {
	switch strings.ToLower(format) {
	case "", "text":
		return WriteText(w, r)
	case "json":
		data, err := marshalJSON(r)
		if err != nil {
			return err
		}
		_, err = w.Write(data)
		return err
	case "markdown", "md":
		_, err := io.WriteString(w, Markdown(r))
		return err
	case "html":
		_, err := io.Copy(w, bytes.NewReader(HTML(r)))
		return err
	default:
		return fmt.Errorf("unknown report format %q", format)
	}
}

func indent(kind evaluation.Kind) string {
	switch kind {
	case evaluation.KindSubStrategy:
		return "  "
	case evaluation.KindGuideline:
		return "    "
	default:
		return ""
	}
}

func mdEscape(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.ReplaceAll(s, "\n", " ")
}
