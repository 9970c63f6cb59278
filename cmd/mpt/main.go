// Command mpt is the CLI front-end for the MPT/best-parse engine. It is the
// only part of this module allowed to touch flag parsing, stdout/stderr,
// and process exit codes; everything else lives in library packages with no
// dependency on os.Args.
package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/mattn/go-runewidth"
	"gopkg.in/yaml.v3"

	"github.com/cirdeirf/mpt/inside"
	"github.com/cirdeirf/mpt/internal/experiment"
	"github.com/cirdeirf/mpt/mpterr"
	"github.com/cirdeirf/mpt/mptlog"
	"github.com/cirdeirf/mpt/pta/parse"
	"github.com/cirdeirf/mpt/search"
)

// version is reported by -version. Set at build time with
// -ldflags "-X main.version=...".
var version = "dev"

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr *os.File) int {
	fs := newFlagSet(stderr)
	opts, err := fs.parse(args)
	if err != nil {
		if err == errUsage {
			return 0
		}
		fmt.Fprintln(stderr, err)
		return 2
	}

	logger := mptlog.New(mptlog.FromVerbosity(opts.verbosity), stderr)

	switch {
	case opts.showVersion:
		fmt.Fprintf(stdout, "mpt version %s\n", version)
		return 0

	case opts.generateConfig != "":
		return runGenerate(opts, stdout, stderr)

	case opts.experimentManifest != "":
		return runExperiment(opts, stdout, stderr, logger)

	default:
		return runQuery(opts, stdout, stderr, logger)
	}
}

// runQuery handles the default mode: parse one PTA file, run MPT or
// best-parse, print the result record.
func runQuery(opts *options, stdout, stderr *os.File, logger mptlog.Logger) int {
	if opts.inputFile == "" {
		fmt.Fprintln(stderr, "mpt: missing input file (see -h)")
		return 2
	}

	f, err := os.Open(opts.inputFile)
	if err != nil {
		fmt.Fprintf(stderr, "mpt: %v\n", err)
		return 1
	}
	defer f.Close()

	a, err := parse.Parse(f)
	if err != nil {
		return reportErr(stderr, err)
	}

	bounds := inside.Compute(a, logger)
	searchOpts := search.DefaultOptions()
	searchOpts.Logger = logger
	if opts.maxInsertions > 0 {
		searchOpts.MaxInsertions = opts.maxInsertions
	}

	var result *search.Result
	if opts.bestParse {
		result, err = search.BestParse(a, bounds, searchOpts)
	} else {
		result, err = search.MPT(a, bounds, searchOpts)
	}
	if err != nil {
		return reportErr(stderr, err)
	}

	printResult(stdout, result, opts)
	return 0
}

func runGenerate(opts *options, stdout, stderr *os.File) int {
	cfg, err := experiment.LoadGeneratorConfig(opts.generateConfig)
	if err != nil {
		fmt.Fprintf(stderr, "mpt: %v\n", err)
		return 1
	}
	a, err := experiment.GenerateRandomPTA(cfg)
	if err != nil {
		fmt.Fprintf(stderr, "mpt: %v\n", err)
		return 1
	}
	if _, err := a.WriteTo(stdout); err != nil {
		fmt.Fprintf(stderr, "mpt: writing generated automaton: %v\n", err)
		return 1
	}
	return 0
}

func runExperiment(opts *options, stdout, stderr *os.File, logger mptlog.Logger) int {
	m, err := experiment.LoadManifest(opts.experimentManifest)
	if err != nil {
		fmt.Fprintf(stderr, "mpt: %v\n", err)
		return 1
	}

	searchOpts := search.DefaultOptions()
	searchOpts.Logger = logger
	if opts.bestParse {
		for i := range m.Runs {
			m.Runs[i].BestParse = true
		}
	}

	baseDir := "."
	if idx := strings.LastIndexByte(opts.experimentManifest, '/'); idx >= 0 {
		baseDir = opts.experimentManifest[:idx]
	}

	results, err := experiment.RunBatch(context.Background(), m, baseDir, searchOpts, logger)
	if err != nil {
		fmt.Fprintf(stderr, "mpt: batch run: %v\n", err)
		return 1
	}

	printBatchTable(stdout, results)

	for _, r := range results {
		if r.Err != nil {
			return 1
		}
	}
	return 0
}

// printResult writes the result record, either as plain text (piping /
// scripting friendly) or as YAML when -yaml is given. isatty only decides
// whether stdout is interactive; today that flag is unused beyond the
// decision itself, left as the hook a colourised renderer would check.
func printResult(stdout *os.File, r *search.Result, opts *options) {
	if opts.yamlOutput {
		printResultYAML(stdout, r)
		return
	}
	_ = isatty.IsTerminal(stdout.Fd()) || isatty.IsCygwinTerminal(stdout.Fd())
	fmt.Fprintf(stdout, "%s\n", r.Tree)
	fmt.Fprintf(stdout, "probability: %v\n", r.Probability)
	if !opts.bestParse {
		fmt.Fprintf(stdout, "insertions: %d\n", r.Insertions)
	}
	fmt.Fprintf(stdout, "elapsed: %s\n", r.Elapsed)
}

// resultRecord mirrors search.Result for YAML emission: search.Result's
// Elapsed is a time.Duration, which yaml.v3 would otherwise marshal as a
// bare integer of nanoseconds, so -yaml output renders it as a string.
type resultRecord struct {
	Tree        string  `yaml:"tree"`
	Probability float64 `yaml:"probability"`
	Insertions  int     `yaml:"insertions,omitempty"`
	Elapsed     string  `yaml:"elapsed"`
}

func printResultYAML(stdout *os.File, r *search.Result) {
	rec := resultRecord{
		Tree:        r.Tree,
		Probability: r.Probability,
		Insertions:  r.Insertions,
		Elapsed:     r.Elapsed.String(),
	}
	enc := yaml.NewEncoder(stdout)
	defer enc.Close()
	_ = enc.Encode(rec)
}

// printBatchTable renders one row per manifest run, columns aligned with
// go-runewidth the way a terminal formatter measures display width rather
// than byte length (state/symbol identifiers may be multi-byte UTF-8).
func printBatchTable(stdout *os.File, results []experiment.BatchResult) {
	headers := []string{"name", "probability", "insertions", "elapsed", "status"}
	rows := make([][]string, 0, len(results))
	for _, br := range results {
		if br.Err != nil {
			rows = append(rows, []string{br.Run.Name, "-", "-", "-", br.Err.Error()})
			continue
		}
		rows = append(rows, []string{
			br.Run.Name,
			fmt.Sprintf("%v", br.Result.Probability),
			fmt.Sprintf("%d", br.Result.Insertions),
			br.Result.Elapsed.String(),
			"ok",
		})
	}

	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = runewidth.StringWidth(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if w := runewidth.StringWidth(cell); w > widths[i] {
				widths[i] = w
			}
		}
	}

	writeRow := func(row []string) {
		var b strings.Builder
		for i, cell := range row {
			b.WriteString(runewidth.FillRight(cell, widths[i]))
			if i < len(row)-1 {
				b.WriteString("  ")
			}
		}
		fmt.Fprintln(stdout, b.String())
	}
	writeRow(headers)
	writeRow(rowOfDashes(widths))
	for _, row := range rows {
		writeRow(row)
	}
}

func rowOfDashes(widths []int) []string {
	out := make([]string, len(widths))
	for i, w := range widths {
		out[i] = strings.Repeat("-", w)
	}
	return out
}

func reportErr(stderr *os.File, err error) int {
	fmt.Fprintf(stderr, "mpt: %v\n", err)
	if me, ok := err.(*mpterr.Error); ok {
		switch me.Kind {
		case mpterr.NoAcceptingTree:
			return 3
		case mpterr.ParseErr:
			return 4
		case mpterr.InvalidAutomaton:
			return 5
		case mpterr.IO:
			return 6
		}
	}
	return 1
}
