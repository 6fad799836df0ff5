// Package resolver picks which grammar parses a given file: an explicit
// --language flag, a single matching extension, or a try-parse fallback
// across every grammar that claims an ambiguous extension.
package resolver

import (
	"log/slog"

	"github.com/jayvdb/tsgrep/pkg/parsing"
	"github.com/jayvdb/tsgrep/pkg/registry"
	"github.com/jayvdb/tsgrep/pkg/tsquery"
)

// Resolver resolves a grammar for a file, optionally forced to a single
// language, optionally carrying a query to try-compile during fallback.
type Resolver struct {
	registry *registry.Registry
	parsers  *parsing.Manager
	queries  *tsquery.Compiler

	forced *registry.Grammar

	querySource string
	captureName string
	hasQuery    bool

	logger *slog.Logger
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithForcedLanguage makes the resolver always use g, regardless of
// extension, per spec.md §4.3 step 1.
func WithForcedLanguage(g *registry.Grammar) Option {
	return func(r *Resolver) { r.forced = g }
}

// WithQuery supplies the query the resolver should try-compile against
// each candidate grammar during ambiguous-extension fallback. Without a
// query, fallback requires only a successful parse.
func WithQuery(source, captureName string) Option {
	return func(r *Resolver) {
		r.querySource = source
		r.captureName = captureName
		r.hasQuery = true
	}
}

// New creates a Resolver over reg, using pm to attempt parses and qc to
// attempt query compilation during try-parse fallback.
func New(reg *registry.Registry, pm *parsing.Manager, qc *tsquery.Compiler, logger *slog.Logger, opts ...Option) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Resolver{registry: reg, parsers: pm, queries: qc, logger: logger}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Result is the outcome of resolving a file: the grammar to use, or Skip
// when no grammar applies. Trees parsed while probing candidates during
// fallback are closed, not returned; the caller parses the file again.
type Result struct {
	Grammar *registry.Grammar
	Skip    bool
}

// Resolve decides which grammar should parse a file with the given
// extension. Skip is true when no grammar can handle the file and it
// should be silently dropped from the walk.
func (r *Resolver) Resolve(ext string, source []byte) Result {
	if r.forced != nil {
		return Result{Grammar: r.forced}
	}

	candidates := r.registry.ByExtension(ext)
	if len(candidates) == 0 {
		return Result{Skip: true}
	}
	if len(candidates) == 1 {
		return Result{Grammar: candidates[0]}
	}

	for _, g := range candidates {
		if r.tryParse(g, ext, source) {
			return Result{Grammar: g}
		}
	}
	r.logger.Debug("no candidate grammar succeeded for ambiguous extension", "ext", ext)
	return Result{Skip: true}
}

// tryParse attempts to compile the resolver's query (if any) and parse
// source against g, reporting whether both succeeded.
func (r *Resolver) tryParse(g *registry.Grammar, ext string, source []byte) bool {
	if r.hasQuery {
		if _, err := r.queries.Compile(g, ext, r.querySource, r.captureName); err != nil {
			return false
		}
	}

	tree, err := r.parsers.Parse(source, g, ext)
	if err != nil || tree == nil {
		return false
	}
	tree.Close()
	return true
}
