package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/XavierBriggs/Augur/adapters/tabular"
	"github.com/XavierBriggs/Augur/internal/config"
	"github.com/XavierBriggs/Augur/internal/kickoff"
	"github.com/XavierBriggs/Augur/internal/logging"
	"github.com/XavierBriggs/Augur/internal/processor"
	"github.com/XavierBriggs/Augur/internal/teams"
	"github.com/XavierBriggs/Augur/pkg/models"
	"github.com/XavierBriggs/Augur/sports"
	"github.com/sirupsen/logrus"
)

const usage = `usage: augur-cli <command> [flags]

commands:
  process   run the pipeline over a payload file and print the sorted board
  suggest   show the closest team table entry for a slug
`

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprint(stderr, usage)
		return 2
	}

	switch args[0] {
	case "process":
		return runProcess(args[1:], stdout, stderr)
	case "suggest":
		return runSuggest(args[1:], stdout, stderr)
	default:
		fmt.Fprintf(stderr, "unknown command %q\n\n%s", args[0], usage)
		return 2
	}
}

func runProcess(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("process", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		in        = fs.String("in", "", "Path to payload JSON (required)")
		format    = fs.String("format", config.FormatNested, "Payload format: nested, tabular")
		nowStr    = fs.String("now", "", "Evaluate the future filter at this RFC3339 instant (default: now)")
		grace     = fs.Duration("grace", kickoff.DefaultGrace, "Post-kickoff grace buffer")
		tablesDir = fs.String("tables", "", "Reference tables directory (default: embedded)")
		logLevel  = fs.String("log-level", "warn", "Log level")
		report    = fs.Bool("report", false, "Print the processing report instead of the board")
	)
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *in == "" {
		fmt.Fprintln(stderr, "✗ -in is required")
		return 2
	}

	now := time.Now
	if *nowStr != "" {
		t, err := time.Parse(time.RFC3339, *nowStr)
		if err != nil {
			fmt.Fprintf(stderr, "✗ invalid -now: %v\n", err)
			return 2
		}
		now = func() time.Time { return t }
	}

	data, err := os.ReadFile(*in)
	if err != nil {
		fmt.Fprintf(stderr, "✗ read payload: %v\n", err)
		return 1
	}

	log := logging.InitLogger(*logLevel, "text")
	log.SetOutput(stderr)

	payload, err := decode(data, *format, log)
	if err != nil {
		fmt.Fprintf(stderr, "✗ %v\n", err)
		return 1
	}

	tables, err := loadTables(*tablesDir)
	if err != nil {
		fmt.Fprintf(stderr, "✗ load tables: %v\n", err)
		return 1
	}

	proc, err := processor.Assemble(processor.Options{
		Tables: tables,
		Grace:  *grace,
		Now:    now,
		Logger: log,
	})
	if err != nil {
		fmt.Fprintf(stderr, "✗ %v\n", err)
		return 1
	}

	records, rep, err := proc.ProcessPayload(payload)
	if err != nil {
		fmt.Fprintf(stderr, "✗ %v\n", err)
		return 1
	}

	var out interface{} = models.Board{
		GeneratedAt: payload.GeneratedAt,
		BuiltAt:     now().UTC(),
		Count:       len(records),
		Games:       records,
	}
	if *report {
		out = rep
	}

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		fmt.Fprintf(stderr, "✗ encode: %v\n", err)
		return 1
	}
	return 0
}

func runSuggest(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("suggest", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		slug      = fs.String("slug", "", "Team slug (required)")
		sport     = fs.String("sport", "", "Sport code, aliases accepted (required)")
		tablesDir = fs.String("tables", "", "Reference tables directory (default: embedded)")
		minConf   = fs.Float64("min", teams.DefaultMinConfidence, "Minimum confidence")
	)
	if err := fs.Parse(args); err != nil {
		return 2
	}

	code, ok := models.NormalizeSport(*sport)
	if *slug == "" || !ok {
		fmt.Fprintln(stderr, "✗ -slug and a supported -sport are required")
		return 2
	}

	tables, err := loadTables(*tablesDir)
	if err != nil {
		fmt.Fprintf(stderr, "✗ load tables: %v\n", err)
		return 1
	}

	matcher := teams.NewFuzzyMatcher(tables)
	matcher.MinConfidence = *minConf

	match, found := matcher.Suggest(*slug, code)
	if !found {
		fmt.Fprintf(stdout, "✗ no match for %s (%s)\n", *slug, code)
		return 1
	}

	fmt.Fprintf(stdout, "✓ %s → %s (%s, %.2f %s)\n", *slug, match.Slug, match.Team.FullName, match.Confidence, match.Method)
	return 0
}

func decode(data []byte, format string, log *logrus.Logger) (*models.Payload, error) {
	switch format {
	case config.FormatNested:
		return processor.DecodePayload(data)
	case config.FormatTabular:
		var raw models.TabularPayload
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("%w: %w", models.ErrInvalidPayload, err)
		}
		return tabular.NewAdapter(logging.Component(log, "tabular")).Adapt(&raw)
	default:
		return nil, fmt.Errorf("unknown format %q", format)
	}
}

func loadTables(dir string) (*sports.Tables, error) {
	if dir == "" {
		return sports.DefaultTables()
	}
	return sports.LoadTablesDir(dir)
}
