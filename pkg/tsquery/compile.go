// Package tsquery compiles tree-sitter queries against a grammar and
// resolves a user-chosen capture name to the capture index the match engine
// should extract, caching compiled queries across the many files a single
// run processes.
package tsquery

import (
	"fmt"
	"log/slog"

	lru "github.com/hashicorp/golang-lru/v2"
	ts "github.com/tree-sitter/go-tree-sitter"

	"github.com/jayvdb/tsgrep/internal/taxonomy"
	"github.com/jayvdb/tsgrep/pkg/registry"
)

// Compiled is a query compiled against one grammar, with the capture index
// resolved from the user's (or default) capture name.
type Compiled struct {
	Query        *ts.Query
	CaptureIndex uint32
	CaptureNames []string
}

// cacheKey identifies a compiled query. The query source and capture name
// are part of the key because the same grammar may be asked to compile many
// distinct queries (or the same query queried by different capture names)
// over the course of a run.
type cacheKey struct {
	grammar string
	source  string
	capture string
}

// Compiler compiles and caches queries. The cache is sized to absorb the
// worst case of the Language Resolver's try-parse fallback: the same query
// text compiled once per candidate grammar, for every ambiguous file in a
// large tree.
type Compiler struct {
	cache  *lru.Cache[cacheKey, *Compiled]
	logger *slog.Logger
}

// NewCompiler creates a Compiler with the given cache capacity. A capacity
// of 0 uses a sensible default.
func NewCompiler(capacity int, logger *slog.Logger) *Compiler {
	if logger == nil {
		logger = slog.Default()
	}
	if capacity <= 0 {
		capacity = 512
	}
	cache, err := lru.New[cacheKey, *Compiled](capacity)
	if err != nil {
		// Only returns an error for a non-positive size, which cannot
		// happen given the guard above.
		panic(fmt.Sprintf("tsquery: failed to create query cache: %v", err))
	}
	return &Compiler{cache: cache, logger: logger}
}

// Compile compiles source against grammar and resolves captureName to an
// index. An empty captureName resolves to the first capture in the query
// (index 0). Results are cached by (grammar, source, captureName).
func (c *Compiler) Compile(grammar *registry.Grammar, ext, source, captureName string) (*Compiled, error) {
	key := cacheKey{grammar: grammar.Name, source: source, capture: captureName}

	if cached, ok := c.cache.Get(key); ok {
		return cached, nil
	}

	langPtr := grammar.LanguagePointer(ext)
	if langPtr == nil {
		return nil, fmt.Errorf("tsquery: grammar %s has no language pointer for %s", grammar.Name, ext)
	}
	lang := ts.NewLanguage(langPtr)

	query, qerr := ts.NewQuery(lang, source)
	if qerr != nil {
		return nil, fmt.Errorf("%w: %s", taxonomy.ErrInvalidQuery, qerr.Message)
	}

	names := query.CaptureNames()

	index := uint32(0)
	if captureName != "" {
		idx, ok := findCapture(names, captureName)
		if !ok {
			query.Close()
			return nil, fmt.Errorf("%w '%s'", taxonomy.ErrInvalidCaptureName, captureName)
		}
		index = idx
	}

	compiled := &Compiled{
		Query:        query,
		CaptureIndex: index,
		CaptureNames: names,
	}
	c.cache.Add(key, compiled)
	c.logger.Debug("compiled query", "grammar", grammar.Name, "capture", captureName, "index", index)
	return compiled, nil
}

func findCapture(names []string, want string) (uint32, bool) {
	for i, name := range names {
		if name == want {
			return uint32(i), true
		}
	}
	return 0, false
}

// Close releases every cached compiled query's native resources.
func (c *Compiler) Close() {
	for _, key := range c.cache.Keys() {
		if compiled, ok := c.cache.Peek(key); ok && compiled.Query != nil {
			compiled.Query.Close()
		}
	}
	c.cache.Purge()
}
