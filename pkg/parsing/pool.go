package parsing

import (
	"fmt"
	"log/slog"
	"sync"
	"unsafe"

	ts "github.com/tree-sitter/go-tree-sitter"
)

// parserPool is a channel-backed pool of tree-sitter parsers all bound to
// the same grammar+extension pair. Parsers are created lazily, up to
// maxSize, and shared across worker goroutines.
type parserPool struct {
	pool    chan *ts.Parser
	langPtr unsafe.Pointer
	key     poolKey
	maxSize int

	mu      sync.Mutex
	created int

	logger *slog.Logger
}

func newParserPool(key poolKey, langPtr unsafe.Pointer, maxSize int, logger *slog.Logger) *parserPool {
	return &parserPool{
		pool:    make(chan *ts.Parser, maxSize),
		langPtr: langPtr,
		key:     key,
		maxSize: maxSize,
		logger:  logger,
	}
}

func (p *parserPool) acquire() (*ts.Parser, error) {
	select {
	case parser := <-p.pool:
		return parser, nil
	default:
		return p.createOrWait()
	}
}

func (p *parserPool) createOrWait() (*ts.Parser, error) {
	p.mu.Lock()

	if p.created < p.maxSize {
		parser := ts.NewParser()
		if parser == nil {
			p.mu.Unlock()
			return nil, fmt.Errorf("parsing: failed to allocate parser for %s", p.key)
		}
		if err := parser.SetLanguage(ts.NewLanguage(p.langPtr)); err != nil {
			parser.Close()
			p.mu.Unlock()
			return nil, fmt.Errorf("parsing: set language for %s: %w", p.key, err)
		}
		p.created++
		p.logger.Debug("created parser", "grammar", p.key.grammar, "ext", p.key.ext, "pool_size", p.created)
		p.mu.Unlock()
		return parser, nil
	}

	p.mu.Unlock()
	return <-p.pool, nil
}

func (p *parserPool) release(parser *ts.Parser) {
	if parser == nil {
		return
	}
	select {
	case p.pool <- parser:
	default:
		parser.Close()
		p.logger.Warn("parser pool full, closing excess parser", "grammar", p.key.grammar)
	}
}

func (p *parserPool) close() {
	close(p.pool)
	for parser := range p.pool {
		if parser != nil {
			parser.Close()
		}
	}
}

func (p *parserPool) createdCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.created
}
