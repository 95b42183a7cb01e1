package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"lcdkit/internal/audit"
	"lcdkit/internal/config"
	"lcdkit/internal/priority"
	"lcdkit/internal/report"
	"lcdkit/internal/server"
	"lcdkit/internal/session"
	"lcdkit/internal/sheet"
	"lcdkit/internal/taxonomy"
	"lcdkit/internal/workspace"
)

const appName = "lcdkit"

func main() {
	flag.String("workspace", ".", "Path to workspace root")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "%s: Lifecycle Design Strategy evaluation toolkit\n\n", appName)
		fmt.Fprintf(os.Stderr, "Usage:\n  %s [--workspace DIR] [command] [flags]\n\n", appName)
		fmt.Fprintln(os.Stderr, "Commands:")
		fmt.Fprintln(os.Stderr, "  init       Initialize a new workspace")
		fmt.Fprintln(os.Stderr, "  taxonomy   Print the strategy tree")
		fmt.Fprintln(os.Stderr, "  questions  Print guiding questions")
		fmt.Fprintln(os.Stderr, "  evaluate   Apply an evaluation sheet and print the report")
		fmt.Fprintln(os.Stderr, "  compare    Diff concept A against concept B")
		fmt.Fprintln(os.Stderr, "  export     Write an evaluation sheet as an XLSX workbook")
		fmt.Fprintln(os.Stderr, "  show       Render a saved JSON report")
		fmt.Fprintln(os.Stderr, "  serve      Run the JSON API")
		fmt.Fprintln(os.Stderr, "  audit      Show recent audit events")
		fmt.Fprintln(os.Stderr, "  help       Show this help")
		fmt.Fprintln(os.Stderr, "\nFlags:")
		flag.PrintDefaults()
	}

	workspacePath, remaining, err := extractWorkspaceFlag(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	args := remaining
	if len(args) == 0 || args[0] == "help" || args[0] == "-h" || args[0] == "--help" {
		flag.Usage()
		return
	}

	var run func([]string, string) error
	switch args[0] {
	case "init":
		run = runInit
	case "taxonomy":
		run = runTaxonomy
	case "questions":
		run = runQuestions
	case "evaluate":
		run = runEvaluate
	case "compare":
		run = runCompare
	case "export":
		run = runExport
	case "show":
		run = runShow
	case "serve":
		run = runServe
	case "audit":
		run = runAudit
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", args[0])
		flag.Usage()
		os.Exit(1)
	}
	if err := run(args[1:], workspacePath); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func extractWorkspaceFlag(args []string) (string, []string, error) {
	workspacePath := "."
	if env := os.Getenv("LCDKIT_WORKSPACE"); env != "" {
		workspacePath = env
	}
	remaining := make([]string, 0, len(args))
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == "--workspace" {
			if i+1 >= len(args) {
				return "", nil, fmt.Errorf("--workspace requires a value")
			}
			workspacePath = args[i+1]
			i++
			continue
		}
		if strings.HasPrefix(arg, "--workspace=") {
			workspacePath = strings.TrimPrefix(arg, "--workspace=")
			continue
		}
		remaining = append(remaining, arg)
	}
	return workspacePath, remaining, nil
}

// app bundles what every engine command needs.
type app struct {
	ws     *workspace.Workspace
	cfg    config.Config
	sess   *session.Session
	logger *audit.Logger
}

func loadApp(ctx context.Context, workspacePath string) (*app, error) {
	ws, err := workspace.Resolve(workspacePath)
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(ws.ConfigPath)
	if err != nil {
		return nil, err
	}

	strategiesPath, err := ws.ResolvePath(cfg.Content.Strategies)
	if err != nil {
		return nil, fmt.Errorf("resolve content.strategies: %w", err)
	}
	questionsPath, err := ws.ResolvePath(cfg.Content.Questions)
	if err != nil {
		return nil, fmt.Errorf("resolve content.questions: %w", err)
	}
	content := taxonomy.Load(ctx, strategiesPath, questionsPath, os.Stderr)

	a := &app{ws: ws, cfg: cfg}
	opts := session.Options{
		Policy: priority.NewPolicy(cfg.Priority.ComputedStrategies),
		Actor:  cfg.Audit.Actor,
		Log:    os.Stderr,
	}
	if cfg.AuditEnabled() {
		dbPath, err := auditDBPath(ws, cfg)
		if err != nil {
			return nil, err
		}
		a.logger = audit.NewLogger(dbPath)
		opts.Auditor = a.logger
	}
	a.sess = session.New(opts)
	a.sess.Install(content)
	return a, nil
}

// auditDBPath resolves audit.db against the workspace.
func auditDBPath(ws *workspace.Workspace, cfg config.Config) (string, error) {
	if cfg.Audit.DB == "" {
		return ws.AuditDBPath, nil
	}
	path, err := ws.ResolvePath(cfg.Audit.DB)
	if err != nil {
		return "", fmt.Errorf("resolve audit.db: %w", err)
	}
	return path, nil
}

// applySheet loads a sheet relative to the workspace and applies it.
func (a *app) applySheet(path string) error {
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("--sheet is required")
	}
	resolved, err := a.ws.ResolvePath(path)
	if err != nil {
		return fmt.Errorf("resolve --sheet: %w", err)
	}
	sh, err := sheet.Load(resolved)
	if err != nil {
		return err
	}
	for _, id := range sh.UnknownIDs(a.sess.Taxonomy()) {
		fmt.Fprintf(os.Stderr, "warning: %s: id %s is not in the taxonomy\n", resolved, id)
	}
	return sh.Apply(a.sess)
}

func (a *app) report() report.Report {
	return report.Build(a.sess, a.cfg.Checklist.HiddenStrategies)
}

func runTaxonomy(args []string, workspacePath string) error {
	fs := flag.NewFlagSet("taxonomy", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	asJSON := fs.Bool("json", false, "Print the taxonomy as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}

	a, err := loadApp(context.Background(), workspacePath)
	if err != nil {
		return err
	}
	strategies := a.sess.Taxonomy().Strategies()
	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(strategies)
	}
	if len(strategies) == 0 {
		fmt.Fprintln(os.Stdout, "No strategies loaded.")
		return nil
	}
	for _, s := range strategies {
		fmt.Fprintf(os.Stdout, "%s. %s\n", s.ID, s.Name)
		for _, sub := range s.SubStrategies {
			fmt.Fprintf(os.Stdout, "  %s %s\n", sub.ID, sub.Name)
			for _, g := range sub.Guidelines {
				fmt.Fprintf(os.Stdout, "    %s %s\n", g.ID, g.Name)
			}
		}
	}
	return nil
}

func runQuestions(args []string, workspacePath string) error {
	fs := flag.NewFlagSet("questions", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	subID := fs.String("sub", "", "Sub-strategy id (default: all)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	a, err := loadApp(context.Background(), workspacePath)
	if err != nil {
		return err
	}
	if *subID != "" {
		for _, q := range a.sess.Questions(*subID) {
			fmt.Fprintf(os.Stdout, "- %s\n", q)
		}
		return nil
	}
	for _, s := range a.sess.Taxonomy().Strategies() {
		for _, sub := range s.SubStrategies {
			questions := a.sess.Questions(sub.ID)
			if len(questions) == 0 {
				continue
			}
			fmt.Fprintf(os.Stdout, "%s %s\n", sub.ID, sub.Name)
			for _, q := range questions {
				fmt.Fprintf(os.Stdout, "  - %s\n", q)
			}
		}
	}
	return nil
}

func runEvaluate(args []string, workspacePath string) error {
	fs := flag.NewFlagSet("evaluate", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	sheetPath := fs.String("sheet", "", "Path to evaluation sheet (YAML)")
	outPath := fs.String("out", "", "Write the report to a file instead of stdout")
	format := fs.String("format", "text", "Report format: text, json, markdown, html")
	if err := fs.Parse(args); err != nil {
		return err
	}

	a, err := loadApp(context.Background(), workspacePath)
	if err != nil {
		return err
	}
	if err := a.applySheet(*sheetPath); err != nil {
		return err
	}
	r := a.report()

	if *outPath == "" {
		return report.Write(os.Stdout, r, *format)
	}
	out, err := a.ws.ResolvePath(*outPath)
	if err != nil {
		return fmt.Errorf("resolve --out: %w", err)
	}
	if strings.EqualFold(*format, "json") {
		if err := report.WriteJSON(out, r); err != nil {
			return err
		}
	} else {
		var buf bytes.Buffer
		if err := report.Write(&buf, r, *format); err != nil {
			return err
		}
		if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
			return fmt.Errorf("ensure report dir: %w", err)
		}
		if err := os.WriteFile(out, buf.Bytes(), 0o644); err != nil {
			return fmt.Errorf("write report: %w", err)
		}
	}
	fmt.Fprintf(os.Stdout, "Wrote %s\n", out)
	return nil
}

func runCompare(args []string, workspacePath string) error {
	fs := flag.NewFlagSet("compare", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	sheetPath := fs.String("sheet", "", "Path to evaluation sheet (YAML)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	a, err := loadApp(context.Background(), workspacePath)
	if err != nil {
		return err
	}
	if err := a.applySheet(*sheetPath); err != nil {
		return err
	}
	diff, err := report.Diff(a.report())
	if err != nil {
		return err
	}
	if diff == "" {
		fmt.Fprintln(os.Stdout, "Concepts A and B are rated identically.")
		return nil
	}
	fmt.Fprint(os.Stdout, diff)
	return nil
}

func runExport(args []string, workspacePath string) error {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	sheetPath := fs.String("sheet", "", "Path to evaluation sheet (YAML)")
	outPath := fs.String("out", "", "Output workbook (default: exports/<sheet>.xlsx)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	a, err := loadApp(context.Background(), workspacePath)
	if err != nil {
		return err
	}
	if err := a.applySheet(*sheetPath); err != nil {
		return err
	}

	out := *outPath
	if out == "" {
		base := strings.TrimSuffix(filepath.Base(*sheetPath), filepath.Ext(*sheetPath))
		out = filepath.Join(a.ws.ExportsDir, base+".xlsx")
	}
	out, err = a.ws.ResolvePath(out)
	if err != nil {
		return fmt.Errorf("resolve --out: %w", err)
	}
	if err := report.SaveXLSX(out, a.report()); err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "Wrote %s\n", out)
	return nil
}

func runShow(args []string, workspacePath string) error {
	fs := flag.NewFlagSet("show", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	reportPath := fs.String("report", "", "Path to a report written by evaluate --format json")
	format := fs.String("format", "text", "Output format: text, json, markdown, html, xlsx")
	outPath := fs.String("out", "", "Output file (required for xlsx)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if strings.TrimSpace(*reportPath) == "" {
		return fmt.Errorf("--report is required")
	}

	ws, err := workspace.Resolve(workspacePath)
	if err != nil {
		return err
	}
	in, err := ws.ResolvePath(*reportPath)
	if err != nil {
		return fmt.Errorf("resolve --report: %w", err)
	}
	r, err := report.LoadJSON(in)
	if err != nil {
		return fmt.Errorf("%s: %w", in, err)
	}

	if strings.EqualFold(*format, "xlsx") {
		if *outPath == "" {
			return fmt.Errorf("--out is required for xlsx")
		}
		out, err := ws.ResolvePath(*outPath)
		if err != nil {
			return fmt.Errorf("resolve --out: %w", err)
		}
		if err := report.SaveXLSX(out, r); err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "Wrote %s\n", out)
		return nil
	}
	if *outPath != "" {
		return fmt.Errorf("--out is only supported for xlsx")
	}
	return report.Write(os.Stdout, r, *format)
}

func runServe(args []string, workspacePath string) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	addr := fs.String("addr", "", "Listen address (default: server.addr from lcdkit.yml)")
	sheetPath := fs.String("sheet", "", "Optional evaluation sheet to preload")
	if err := fs.Parse(args); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := loadApp(ctx, workspacePath)
	if err != nil {
		return err
	}
	if *sheetPath != "" {
		if err := a.applySheet(*sheetPath); err != nil {
			return err
		}
	}
	listen := *addr
	if listen == "" {
		listen = a.cfg.Server.Addr
	}

	srv := server.New(a.sess, server.Options{
		HiddenStrategies: a.cfg.Checklist.HiddenStrategies,
		Vocabulary:       a.cfg.Checklist.Vocabulary,
		RequestLog:       true,
		Log:              os.Stderr,
	})
	return srv.ListenAndServe(ctx, listen)
}

func runAudit(args []string, workspacePath string) error {
	fs := flag.NewFlagSet("audit", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	limit := fs.Int("limit", 20, "Number of events to show")
	asJSON := fs.Bool("json", false, "Print events as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}

	ws, err := workspace.Resolve(workspacePath)
	if err != nil {
		return err
	}
	cfg, err := config.Load(ws.ConfigPath)
	if err != nil {
		return err
	}
	dbPath, err := auditDBPath(ws, cfg)
	if err != nil {
		return err
	}

	events, err := audit.NewLogger(dbPath).Recent(*limit)
	if err != nil {
		return err
	}
	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(events)
	}
	if len(events) == 0 {
		fmt.Fprintln(os.Stdout, "No audit events.")
		return nil
	}
	for _, e := range events {
		fmt.Fprintf(os.Stdout, "%s\t%s\t%s\t%s\n", e.Timestamp, e.Actor, e.Type, e.PayloadJSON)
	}
	return nil
}
