// Package orchestrator wires every other component into one run: it
// validates the resolved configuration, builds the query/plugin/walker/
// match-engine stack, drives a worker pool one task per file (spec.md §4.8,
// §5), and returns the process exit code.
package orchestrator

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/jayvdb/tsgrep/internal/taxonomy"
	"github.com/jayvdb/tsgrep/pkg/filecache"
	"github.com/jayvdb/tsgrep/pkg/format"
	"github.com/jayvdb/tsgrep/pkg/matchengine"
	"github.com/jayvdb/tsgrep/pkg/parsing"
	"github.com/jayvdb/tsgrep/pkg/plugin"
	"github.com/jayvdb/tsgrep/pkg/registry"
	"github.com/jayvdb/tsgrep/pkg/resolver"
	"github.com/jayvdb/tsgrep/pkg/tsquery"
	"github.com/jayvdb/tsgrep/pkg/util"
	"github.com/jayvdb/tsgrep/pkg/walker"
)

// RunConfig is the resolved set of options a run executes with, mirroring
// spec.md §3's Run Configuration table plus the exclude-glob, worker-count,
// output-writer and logger fields SPEC_FULL.md §5 adds. Watch mode is not a
// RunConfig field: cmd/tsgrep wraps a RunConfig in a watch.Watcher.
type RunConfig struct {
	QueryFile   string
	QuerySource string
	Capture     string
	Language    string
	Filter      string
	FilterArg   string
	Vimgrep     bool
	Paths       []string

	// ExcludeGlobs layers additional doublestar patterns on top of the
	// walker's built-in defaults.
	ExcludeGlobs []string

	// WorkerCount overrides util.GetOptimalPoolSize() when positive; tests
	// set this to keep scheduling deterministic.
	WorkerCount int

	// Out is where matched line records are written; defaults to os.Stdout.
	// mcpsearch substitutes an in-memory buffer so a search's output can be
	// returned as an MCP tool result instead of printed.
	Out io.Writer

	// ErrOut is where "error: <message>" config/fatal errors are written;
	// defaults to os.Stderr. mcpsearch substitutes a buffer for the same
	// reason as Out.
	ErrOut io.Writer

	Logger *slog.Logger
}

// Run executes one search according to cfg and returns a process exit code:
// 0 on success (including zero matches), non-zero on any configuration,
// query, plugin, or I/O failure affecting the run as a whole (spec.md §7).
func Run(cfg RunConfig) int {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	errOut := cfg.ErrOut
	if errOut == nil {
		errOut = os.Stderr
	}

	if err := validateOptions(cfg); err != nil {
		fmt.Fprintf(errOut, "error: %s\n", err)
		return 1
	}

	reg := registry.Builtin()

	var forced *registry.Grammar
	if cfg.Language != "" {
		g, err := reg.ByName(cfg.Language)
		if err != nil {
			fmt.Fprintf(errOut, "error: %s '%s'\n", taxonomy.ErrInvalidLanguage, cfg.Language)
			return 1
		}
		forced = g
	}

	querySource, hasQuery, err := readQuery(cfg)
	if err != nil {
		fmt.Fprintf(errOut, "error: %s\n", err)
		return 1
	}

	cache := filecache.New(logger)
	defer cache.Close()

	parsers := parsing.NewManager(cfg.WorkerCount, logger)
	defer parsers.Close()

	queries := tsquery.NewCompiler(0, logger)
	defer queries.Close()

	// An explicit --language fixes a single grammar for the whole run, so
	// the query can (and must) be validated eagerly: with no candidate
	// files this is the only chance to report invalid-query/invalid-
	// capture-name before the run exits. Without --language, the grammar
	// is only known per file (single-extension match or try-parse winner),
	// so compilation happens lazily in the match engine; a compile failure
	// there is a per-file error, not a run-aborting one, exactly like a
	// losing try-parse candidate.
	if hasQuery && forced != nil {
		if _, err := queries.Compile(forced, extensionFor(forced), querySource, cfg.Capture); err != nil {
			return reportCompileError(errOut, err, cfg.Capture)
		}
	}

	var filterHandle *plugin.Handle
	if cfg.Filter != "" {
		filterHandle, err = loadPlugin(cfg.Filter, cfg.FilterArg)
		if err != nil {
			fmt.Fprintf(errOut, "error: %s\n", err)
			return 1
		}
		defer filterHandle.Close()
	}

	var resolverOpts []resolver.Option
	if forced != nil {
		resolverOpts = append(resolverOpts, resolver.WithForcedLanguage(forced))
	}
	if hasQuery {
		resolverOpts = append(resolverOpts, resolver.WithQuery(querySource, cfg.Capture))
	}
	res := resolver.New(reg, parsers, queries, logger, resolverOpts...)

	extAllowed := extensionPredicate(reg, forced)
	w := walker.New(extAllowed, cfg.ExcludeGlobs, logger)

	files, err := w.Walk(cfg.Paths)
	if err != nil {
		fmt.Fprintf(errOut, "error: %s\n", err)
		return 1
	}

	engine := matchengine.New(matchengine.Config{
		Cache:       cache,
		Resolver:    res,
		Parsers:     parsers,
		Queries:     queries,
		QuerySource: querySource,
		Capture:     cfg.Capture,
		HasQuery:    hasQuery,
		Filter:      filterHandle,
		Vimgrep:     cfg.Vimgrep,
	})

	out := cfg.Out
	if out == nil {
		out = os.Stdout
	}
	mode := format.Grep
	if cfg.Vimgrep {
		mode = format.Vimgrep
	}
	writer := format.New(out, mode)

	processAll(files, engine, writer, logger, cfg.WorkerCount)
	return 0
}

// validateOptions enforces spec.md §4.8's option-exclusivity and
// required-input rules before any file work begins.
func validateOptions(cfg RunConfig) error {
	if cfg.QueryFile != "" && cfg.QuerySource != "" {
		return taxonomy.ErrMutuallyExclusiveOptions
	}
	if cfg.QueryFile == "" && cfg.QuerySource == "" && cfg.Filter == "" {
		return taxonomy.ErrMissingRequiredInput
	}
	return nil
}

func readQuery(cfg RunConfig) (source string, hasQuery bool, err error) {
	switch {
	case cfg.QuerySource != "":
		return cfg.QuerySource, true, nil
	case cfg.QueryFile != "":
		data, err := os.ReadFile(cfg.QueryFile)
		if err != nil {
			return "", false, fmt.Errorf("%w %q", taxonomy.ErrQueryFileUnreadable, cfg.QueryFile)
		}
		return string(data), true, nil
	default:
		return "", false, nil
	}
}

func reportCompileError(errOut io.Writer, err error, capture string) int {
	switch {
	case isErr(err, taxonomy.ErrInvalidCaptureName):
		fmt.Fprintf(errOut, "error: %s '%s'\n", taxonomy.ErrInvalidCaptureName, capture)
	default:
		fmt.Fprintf(errOut, "error: %s\n", taxonomy.ErrInvalidQuery)
	}
	return 1
}

func isErr(err, target error) bool {
	for e := err; e != nil; e = unwrap(e) {
		if e == target {
			return true
		}
	}
	return false
}

func unwrap(err error) error {
	type unwrapper interface{ Unwrap() error }
	if u, ok := err.(unwrapper); ok {
		return u.Unwrap()
	}
	return nil
}

func loadPlugin(path, arg string) (*plugin.Handle, error) {
	native := plugin.NativeLibraryName(libNameFromPath(path))
	candidate := filepath.Join(filepath.Dir(path), native)
	if _, statErr := os.Stat(candidate); statErr == nil {
		path = candidate
	}

	h, err := plugin.Load(path)
	if err != nil {
		return nil, err
	}
	if h.RequiresArgument() {
		if arg == "" {
			h.Close()
			return nil, taxonomy.ErrPluginExpectsArgument
		}
		if err := h.SetArgument(arg); err != nil {
			h.Close()
			return nil, err
		}
	}
	return h, nil
}

func libNameFromPath(path string) string {
	base := filepath.Base(path)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	base = strings.TrimPrefix(base, "lib")
	return base
}

// extensionFor returns a representative extension for compiling a query
// against g up front, before any file is known.
func extensionFor(g *registry.Grammar) string {
	if len(g.Extensions) == 0 {
		return ""
	}
	return g.Extensions[0]
}

// extensionPredicate returns the set of extensions the walker should admit:
// every extension the forced grammar claims, or every extension any
// registered grammar claims when auto-detection is active.
func extensionPredicate(reg *registry.Registry, forced *registry.Grammar) func(ext string) bool {
	if forced != nil {
		return forced.ClaimsExtension
	}
	allowed := make(map[string]bool)
	for _, g := range reg.Grammars() {
		for _, ext := range g.Extensions {
			allowed[ext] = true
		}
	}
	return func(ext string) bool { return allowed[ext] }
}

// fileJob and fileError mirror indexer.FileJob / FileError's shape,
// generalized from "extract symbols" to "produce line records".
type fileJob struct {
	path string
}

type fileError struct {
	path string
	err  error
}

// processAll drives a worker pool over files, one task per file, writing
// each file's records to writer as soon as that file's pipeline finishes.
// Per-file errors are logged and do not cancel siblings (spec.md §7).
func processAll(files []string, engine *matchengine.Engine, writer *format.Writer, logger *slog.Logger, workerOverride int) {
	numWorkers := util.GetOptimalPoolSizeWithOverride(workerOverride)
	if numWorkers > len(files) && len(files) > 0 {
		numWorkers = len(files)
	}
	if numWorkers < 1 {
		numWorkers = 1
	}

	jobs := make(chan fileJob, numWorkers*2)
	errs := make(chan fileError, numWorkers)
	done := make(chan struct{})

	var processed atomic.Int64

	for i := 0; i < numWorkers; i++ {
		go func() {
			for job := range jobs {
				records, err := engine.Process(job.path, filepath.Ext(job.path))
				if err != nil {
					errs <- fileError{path: job.path, err: err}
					continue
				}
				if writeErr := writer.Write(records); writeErr != nil {
					errs <- fileError{path: job.path, err: writeErr}
				}
				processed.Add(1)
			}
			done <- struct{}{}
		}()
	}

	go func() {
		for _, f := range files {
			jobs <- fileJob{path: f}
		}
		close(jobs)
	}()

	go func() {
		for i := 0; i < numWorkers; i++ {
			<-done
		}
		close(errs)
	}()

	for e := range errs {
		logger.Warn("skipping file", "path", e.path, "error", e.err)
	}
	logger.Debug("run complete", "files_processed", processed.Load(), "files_total", len(files))
}
