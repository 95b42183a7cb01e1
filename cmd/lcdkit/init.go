package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"lcdkit/internal/audit"
	"lcdkit/internal/config"
	"lcdkit/internal/workspace"
)

func runInit(args []string, workspacePath string) error {
	fs := flag.NewFlagSet("init", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	template := fs.String("template", "minimal", "Workspace template (default: minimal)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *template != "minimal" {
		return fmt.Errorf("unknown template: %s", *template)
	}
	if strings.TrimSpace(workspacePath) == "" {
		return fmt.Errorf("--workspace is required")
	}

	root, err := workspace.ResolveRoot(workspacePath)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return fmt.Errorf("create workspace root: %w", err)
	}
	ws, err := workspace.Resolve(root)
	if err != nil {
		return err
	}
	if err := ws.EnsureDirs(); err != nil {
		return err
	}

	files := []struct {
		path     string
		contents string
	}{
		{ws.ConfigPath, minimalConfigTemplate},
		{ws.StrategiesPath, minimalStrategiesTemplate},
		{ws.QuestionsPath, minimalQuestionsTemplate},
		{filepath.Join(ws.SheetsDir, "example.yml"), minimalSheetTemplate},
	}
	for _, f := range files {
		if err := writeFileIfMissing(f.path, f.contents); err != nil {
			return err
		}
	}

	cfg, err := config.Load(ws.ConfigPath)
	if err != nil {
		return err
	}
	if cfg.AuditEnabled() {
		dbPath, err := auditDBPath(ws, cfg)
		if err != nil {
			return err
		}
		if err := audit.NewLogger(dbPath).LogEvent(cfg.Audit.Actor, "workspace_initialized", map[string]any{
			"workspace": ws.Root,
			"template":  *template,
		}); err != nil {
			fmt.Fprintln(os.Stderr, "audit log failed:", err)
		}
	}

	fmt.Fprintf(os.Stdout, "Initialized workspace: %s\n", ws.Root)
	fmt.Fprintln(os.Stdout, "Next steps:")
	fmt.Fprintf(os.Stdout, "  %s --workspace %s evaluate --sheet sheets/example.yml\n", appName, ws.Root)
	fmt.Fprintf(os.Stdout, "  %s --workspace %s serve\n", appName, ws.Root)
	return nil
}

func writeFileIfMissing(path string, contents string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("stat %s: %w", path, err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("ensure dir for %s: %w", path, err)
	}
	return os.WriteFile(path, []byte(contents), 0o644)
}

const minimalConfigTemplate = `content:
  strategies: content/LCD-strategies.txt
  questions: content/guiding-questions.txt
priority:
  computed_strategies: ["1", "2", "3", "4"]
checklist:
  hidden_strategies: ["7"]
  vocabulary: five-point
server:
  addr: 127.0.0.1:8080
audit:
  enabled: true
  actor: cli
`

const minimalStrategiesTemplate = `1.Minimising materials consumption
1.1.Minimise material content
Dematerialise the product or some of its components
Minimise the overall dimensions of the product
1.2.Minimise scraps and discards
Select processes that reduce scraps and discarded materials
2.Minimising energy consumption
2.1.Minimise energy consumption during usage
Select systems with highly efficient energy consumption
3.Minimising resource toxicity
3.1.Select non-toxic and harmless resources
Avoid toxic or harmful materials for product components
4.Renewable and bio-compatible resources
4.1.Select renewable and bio-compatible materials
Use renewable materials
5.Product lifespan optimisation
5.1.Design for reliability
Reduce the overall number of components
5.2.Facilitate upgrading and adaptability
Enable and facilitate software upgrading
6.Extending the lifespan of materials
6.1.Adopt the cascade approach
Arrange and facilitate recycling in other industrial sectors
7.Design for disassembly
7.1.Reduce and facilitate operations of disassembly
Reduce the number of components
`

const minimalQuestionsTemplate = `## 1.1
- Which components could be removed without losing function?
- Can the product be made smaller or lighter?
## 5.1
- Which components fail first?
`

const minimalSheetTemplate = `project:
  project_name: Example
concepts:
  A:
    level: Normal
    sub_strategies: {"1.1": Good, "1.2": Mediocre}
  B:
    level: Simplified
    strategies: {"1": Excellent, "5": Good}
priorities:
  "1":
    sub_strategies:
      "1.1": {priority: High, answer: "Housing is oversized"}
  "5": {priority: Mid}
`
