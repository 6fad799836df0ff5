// Command tsgrep is a structural code search tool: given a tree-sitter
// query and a set of source files, it emits every source line that
// participates in a query match, in a grep-compatible format.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/jayvdb/tsgrep/internal/obs"
	"github.com/jayvdb/tsgrep/pkg/mcplog"
	"github.com/jayvdb/tsgrep/pkg/mcpsearch"
	"github.com/jayvdb/tsgrep/pkg/orchestrator"
	"github.com/jayvdb/tsgrep/pkg/watch"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if len(args) > 0 && args[0] == "mcp-serve" {
		return runMCPServe(args[1:])
	}
	return runSearch(args)
}

func runSearch(args []string) int {
	fs := flag.NewFlagSet("tsgrep", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() { printUsage(fs) }

	var (
		queryFile   = fs.String("query-file", "", "query source from file")
		querySource = fs.String("query-source", "", "query source inline")
		capture     = fs.String("capture", "", "capture name to extract (default: first)")
		language    = fs.String("language", "", "one of: rust, typescript, javascript, go, python (extensible)")
		filterPath  = fs.String("filter", "", "plugin shared library")
		filterArg   = fs.String("filter-arg", "", "argument for plugin")
		vimgrep     = fs.Bool("vimgrep", false, "one line per match with column")
		watchFlag   = fs.Bool("watch", false, "re-run on file change")
		verbose     = fs.Bool("verbose", false, "debug logging to stderr")
	)
	fs.StringVar(queryFile, "Q", "", "query source from file (shorthand)")
	fs.StringVar(querySource, "q", "", "query source inline (shorthand)")
	fs.StringVar(capture, "c", "", "capture name to extract (shorthand)")
	fs.StringVar(language, "l", "", "force a single grammar (shorthand)")
	fs.StringVar(filterPath, "f", "", "plugin shared library (shorthand)")
	fs.StringVar(filterArg, "a", "", "argument for plugin (shorthand)")

	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 1
	}

	level := obs.LevelInfo
	if *verbose {
		level = obs.LevelDebug
	}
	logger := obs.NewLogger(obs.Config{Level: level, Format: obs.FormatText, Output: os.Stderr})

	cfg := orchestrator.RunConfig{
		QueryFile:   *queryFile,
		QuerySource: *querySource,
		Capture:     *capture,
		Language:    *language,
		Filter:      *filterPath,
		FilterArg:   *filterArg,
		Vimgrep:     *vimgrep,
		Paths:       fs.Args(),
		Out:         os.Stdout,
		ErrOut:      os.Stderr,
		Logger:      logger,
	}

	if *watchFlag {
		w, err := watch.New(cfg, logger)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %s\n", err)
			return 1
		}
		defer w.Stop()
		return w.Run()
	}

	return orchestrator.Run(cfg)
}

func runMCPServe(args []string) int {
	fs := flag.NewFlagSet("tsgrep mcp-serve", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	logPath := fs.String("log", "", "path to a JSONL tool-call log (disabled by default)")
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 1
	}

	logger := obs.NewLogger(obs.DefaultConfig())

	toolLog, err := mcplog.NewLogger(*logPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %s\n", err)
		return 1
	}

	srv := mcpsearch.NewServer(logger, toolLog)
	defer srv.Close()

	if err := srv.ServeStdio(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %s\n", err)
		return 1
	}
	return 0
}

func printUsage(fs *flag.FlagSet) {
	fmt.Fprintln(os.Stderr, "Usage: tsgrep [OPTIONS] <--query-file PATH | --query-source STR | --filter PATH> [PATHS]...")
	fmt.Fprintln(os.Stderr, "       tsgrep mcp-serve [--log PATH]")
	fmt.Fprintln(os.Stderr)
	fs.PrintDefaults()
}
