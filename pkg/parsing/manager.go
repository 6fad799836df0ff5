// Package parsing owns tree-sitter parser lifecycles: lazy, per-grammar
// pools of parsers that worker goroutines acquire and release around each
// parse, sized to match the orchestrator's worker pool so neither ever
// blocks waiting on the other.
package parsing

import (
	"fmt"
	"log/slog"
	"sync"

	ts "github.com/tree-sitter/go-tree-sitter"

	"github.com/jayvdb/tsgrep/pkg/registry"
	"github.com/jayvdb/tsgrep/pkg/util"
)

// poolKey identifies a parser pool: a grammar bound to a specific file
// extension, since some grammars (TypeScript) parse different extensions
// with different language variants (.ts vs .tsx).
type poolKey struct {
	grammar string
	ext     string
}

func (k poolKey) String() string { return k.grammar + k.ext }

// Manager owns one parser pool per (grammar, extension) pair, created on
// first use. It must be closed via Close() to release native parser
// resources.
type Manager struct {
	mu     sync.RWMutex
	pools  map[poolKey]*parserPool
	logger *slog.Logger

	poolSize int
}

// NewManager creates a Manager. poolSize, if zero, defaults to
// util.GetOptimalPoolSize() — the same CPU-aware formula the orchestrator
// uses to size its worker pool, so parsers never become the bottleneck.
func NewManager(poolSize int, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		pools:    make(map[poolKey]*parserPool),
		logger:   logger,
		poolSize: util.GetOptimalPoolSizeWithOverride(poolSize),
	}
}

// Parse parses source using the given grammar, treating the file as having
// extension ext (this selects a grammar variant, e.g. TypeScript's "tsx").
// The returned tree must be closed by the caller.
func (m *Manager) Parse(source []byte, g *registry.Grammar, ext string) (*ts.Tree, error) {
	pool, err := m.getOrCreatePool(g, ext)
	if err != nil {
		return nil, fmt.Errorf("parsing: %w", err)
	}

	parser, err := pool.acquire()
	if err != nil {
		return nil, err
	}
	defer pool.release(parser)

	tree := parser.Parse(source, nil)
	if tree == nil {
		return nil, fmt.Errorf("parsing: parser returned nil tree for grammar %s", g.Name)
	}
	return tree, nil
}

func (m *Manager) getOrCreatePool(g *registry.Grammar, ext string) (*parserPool, error) {
	key := poolKey{grammar: g.Name, ext: ext}

	m.mu.RLock()
	pool, ok := m.pools[key]
	m.mu.RUnlock()
	if ok {
		return pool, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if pool, ok = m.pools[key]; ok {
		return pool, nil
	}

	langPtr := g.LanguagePointer(ext)
	if langPtr == nil {
		return nil, fmt.Errorf("grammar %s has no language pointer for %s", g.Name, ext)
	}

	pool = newParserPool(key, langPtr, m.poolSize, m.logger)
	m.pools[key] = pool
	m.logger.Debug("created parser pool", "grammar", g.Name, "ext", ext, "size", m.poolSize)
	return pool, nil
}

// Close releases every parser pool's native resources. The Manager must not
// be used afterwards.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for key, pool := range m.pools {
		pool.close()
		m.logger.Debug("closed parser pool", "key", key.String())
	}
	m.pools = make(map[poolKey]*parserPool)
	return nil
}
