package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
)

// options collects every CLI flag, plus the single positional input-file
// argument.
type options struct {
	bestParse          bool
	experimentManifest string
	generateConfig     string
	showVersion        bool
	yamlOutput         bool
	maxInsertions      int
	verbosity          int
	inputFile          string
}

// errUsage is returned by flagSet.parse when -h/-help was requested: run()
// treats it as "already handled, exit 0", the same convention flag.FlagSet
// itself uses internally for ExitOnError/ContinueOnError callers that want
// to distinguish "printed usage" from "a real parse error".
var errUsage = errors.New("usage requested")

type flagSet struct {
	fs *flag.FlagSet
	o  options
	v1 bool
	v2 bool
	v3 bool
}

func newFlagSet(stderr *os.File) *flagSet {
	f := &flagSet{fs: flag.NewFlagSet("mpt", flag.ContinueOnError)}
	f.fs.SetOutput(stderr)
	f.fs.BoolVar(&f.o.bestParse, "b", false, "compute the best parse (single best run) instead of the most probable tree")
	f.fs.StringVar(&f.o.experimentManifest, "e", "", "run a batch of experiments described by the given YAML manifest")
	f.fs.StringVar(&f.o.generateConfig, "g", "", "generate a synthetic PTA from the given YAML generator config and print it")
	f.fs.BoolVar(&f.o.showVersion, "version", false, "print the version and exit")
	f.fs.BoolVar(&f.o.yamlOutput, "yaml", false, "emit the result record as YAML instead of plain text")
	f.fs.IntVar(&f.o.maxInsertions, "max-insertions", 0, "abort the search after this many frontier insertions (0 = unbounded)")
	f.fs.BoolVar(&f.v1, "v", false, "verbose logging (warnings)")
	f.fs.BoolVar(&f.v2, "vv", false, "more verbose logging (info)")
	f.fs.BoolVar(&f.v3, "vvv", false, "most verbose logging (debug)")
	f.fs.Usage = func() {
		fmt.Fprintf(stderr, "usage: mpt [flags] <input.pta>\n\n")
		f.fs.PrintDefaults()
	}
	return f
}

func (f *flagSet) parse(args []string) (*options, error) {
	if err := f.fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil, errUsage
		}
		return nil, err
	}

	switch {
	case f.v3:
		f.o.verbosity = 3
	case f.v2:
		f.o.verbosity = 2
	case f.v1:
		f.o.verbosity = 1
	default:
		f.o.verbosity = 0
	}

	if f.fs.NArg() > 0 {
		f.o.inputFile = f.fs.Arg(0)
	}

	return &f.o, nil
}
