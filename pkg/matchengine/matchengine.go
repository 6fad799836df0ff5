// Package matchengine runs the per-file pipeline spec.md §4.6 describes:
// read, parse, query, optional filter, and byte-range-to-line expansion.
package matchengine

import (
	"fmt"
	"sort"
	"unicode/utf8"

	ts "github.com/tree-sitter/go-tree-sitter"

	"github.com/jayvdb/tsgrep/pkg/filecache"
	"github.com/jayvdb/tsgrep/pkg/parsing"
	"github.com/jayvdb/tsgrep/pkg/plugin"
	"github.com/jayvdb/tsgrep/pkg/resolver"
	"github.com/jayvdb/tsgrep/pkg/tsquery"
)

// LineRecord is one printable match: a file path, a 1-based line and column,
// and the full text of that source line.
type LineRecord struct {
	Path   string
	Line   uint32
	Column uint32
	Text   string
}

// Engine runs the match pipeline for one file at a time. An Engine is safe
// for concurrent use by multiple worker goroutines; each call to Process
// operates on its own tree and slice, sharing only the read-only query
// compiler (and its cache), parser pool, and plugin handle.
type Engine struct {
	cache    *filecache.Cache
	resolver *resolver.Resolver
	parsers  *parsing.Manager
	queries  *tsquery.Compiler

	// querySource/captureName are recompiled, per file, against whichever
	// grammar the resolver picks: when --language is not forced, a single
	// query source may end up compiled against different grammars across
	// the run (the resolver's try-parse fallback already does this during
	// ambiguous-extension resolution; a non-ambiguous extension match still
	// needs its own compile, which this lazily performs and the tsquery
	// cache makes free after the first file of that grammar).
	querySource string
	captureName string
	hasQuery    bool

	filter  *plugin.Handle // nil when there is no filter
	vimgrep bool
}

// Config configures an Engine.
type Config struct {
	Cache       *filecache.Cache
	Resolver    *resolver.Resolver
	Parsers     *parsing.Manager
	Queries     *tsquery.Compiler
	QuerySource string
	Capture     string
	HasQuery    bool
	Filter      *plugin.Handle
	Vimgrep     bool
}

// New creates an Engine from cfg.
func New(cfg Config) *Engine {
	return &Engine{
		cache:       cfg.Cache,
		resolver:    cfg.Resolver,
		parsers:     cfg.Parsers,
		queries:     cfg.Queries,
		querySource: cfg.QuerySource,
		captureName: cfg.Capture,
		hasQuery:    cfg.HasQuery,
		filter:      cfg.Filter,
		vimgrep:     cfg.Vimgrep,
	}
}

// Process runs the full pipeline for one file with the given extension,
// returning the line records it produced. A file no grammar claims is
// silently skipped and yields nil, nil, as does a file with no matches.
func (e *Engine) Process(path, ext string) ([]LineRecord, error) {
	source, err := e.cache.Get(path)
	if err != nil {
		return nil, fmt.Errorf("matchengine: %w", err)
	}

	if !utf8.Valid(source) {
		return nil, fmt.Errorf("matchengine: %s: invalid UTF-8", path)
	}

	result := e.resolver.Resolve(ext, source)
	if result.Skip {
		return nil, nil
	}

	var compiled *tsquery.Compiled
	if e.hasQuery {
		compiled, err = e.queries.Compile(result.Grammar, ext, e.querySource, e.captureName)
		if err != nil {
			return nil, fmt.Errorf("matchengine: %s: %w", path, err)
		}
	}

	tree, err := e.parsers.Parse(source, result.Grammar, ext)
	if err != nil {
		return nil, fmt.Errorf("matchengine: parse %s: %w", path, err)
	}
	defer tree.Close()

	ranges, err := e.collectRanges(tree, source, compiled)
	if err != nil {
		return nil, err
	}

	records, err := e.expandToLines(path, source, ranges)
	if err != nil {
		return nil, err
	}
	return dedupeAdjacent(records, e.vimgrep), nil
}

// collectRanges returns the byte range of every surviving capture (or, with
// no query, every node surviving a depth-first filter walk).
func (e *Engine) collectRanges(tree *ts.Tree, source []byte, compiled *tsquery.Compiled) (ranges [][2]uint32, err error) {
	if compiled != nil {
		captures, err := tsquery.ExtractCaptures(compiled, tree, source)
		if err != nil {
			return nil, fmt.Errorf("matchengine: %w", err)
		}
		for _, c := range captures {
			if e.filter != nil {
				keep, ferr := e.filter.Filter(c.Node.Kind(), source, uint32(c.StartByte), uint32(c.EndByte))
				if ferr != nil {
					return nil, fmt.Errorf("matchengine: %w", ferr)
				}
				if !keep {
					continue
				}
			}
			ranges = append(ranges, [2]uint32{uint32(c.StartByte), uint32(c.EndByte)})
		}
		return ranges, nil
	}

	// No query: walk every node depth-first, pre-order, through the filter.
	if e.filter == nil {
		return nil, nil
	}
	walkPreOrder(tree.RootNode(), func(n *ts.Node) {
		keep, ferr := e.filter.Filter(n.Kind(), source, uint32(n.StartByte()), uint32(n.EndByte()))
		if ferr != nil || !keep {
			return
		}
		ranges = append(ranges, [2]uint32{uint32(n.StartByte()), uint32(n.EndByte())})
	})
	return ranges, nil
}

func walkPreOrder(n *ts.Node, visit func(*ts.Node)) {
	if n == nil {
		return
	}
	visit(n)
	count := n.ChildCount()
	for i := uint(0); i < uint(count); i++ {
		child := n.Child(uint(i))
		walkPreOrder(child, visit)
	}
}

// expandToLines converts byte ranges into LineRecords per spec.md §4.6: grep
// mode emits every source line a range intersects; vimgrep mode emits a
// single record at the range's starting line and column.
func (e *Engine) expandToLines(path string, source []byte, ranges [][2]uint32) ([]LineRecord, error) {
	lineStarts := computeLineStarts(source)

	var records []LineRecord
	for _, r := range ranges {
		startLine, startCol := lineAndColumn(lineStarts, r[0])

		if e.vimgrep {
			records = append(records, LineRecord{
				Path:   path,
				Line:   startLine,
				Column: startCol,
				Text:   lineText(source, lineStarts, startLine),
			})
			continue
		}

		endLine, _ := lineAndColumn(lineStarts, r[1])
		if r[1] > r[0] && byteIsLineStart(source, r[1], lineStarts, endLine) {
			// Exclusive end that lands exactly on a line boundary does not
			// pull in the following, untouched line.
			endLine--
		}
		for line := startLine; line <= endLine; line++ {
			// The match starts at startCol on its first line and covers
			// every later line from its first column.
			col := uint32(1)
			if line == startLine {
				col = startCol
			}
			records = append(records, LineRecord{
				Path:   path,
				Line:   line,
				Column: col,
				Text:   lineText(source, lineStarts, line),
			})
		}
	}
	return records, nil
}

func byteIsLineStart(source []byte, pos uint32, lineStarts []uint32, line uint32) bool {
	idx := int(line) - 1
	if idx < 0 || idx >= len(lineStarts) {
		return false
	}
	return lineStarts[idx] == pos
}

// computeLineStarts returns the byte offset of the first character of each
// 1-based line.
func computeLineStarts(source []byte) []uint32 {
	starts := []uint32{0}
	for i, b := range source {
		if b == '\n' {
			starts = append(starts, uint32(i+1))
		}
	}
	return starts
}

// lineAndColumn returns the 1-based line and column containing byte offset
// pos.
func lineAndColumn(lineStarts []uint32, pos uint32) (line, column uint32) {
	idx := sort.Search(len(lineStarts), func(i int) bool { return lineStarts[i] > pos }) - 1
	if idx < 0 {
		idx = 0
	}
	return uint32(idx + 1), pos - lineStarts[idx] + 1
}

func lineText(source []byte, lineStarts []uint32, line uint32) string {
	idx := int(line) - 1
	if idx < 0 || idx >= len(lineStarts) {
		return ""
	}
	start := lineStarts[idx]
	end := uint32(len(source))
	if idx+1 < len(lineStarts) {
		end = lineStarts[idx+1] - 1 // exclude the trailing '\n'
	}
	if end > uint32(len(source)) {
		end = uint32(len(source))
	}
	if start > end {
		return ""
	}
	text := source[start:end]
	if n := len(text); n > 0 && text[n-1] == '\r' {
		text = text[:n-1]
	}
	return string(text)
}

// dedupeAdjacent sorts by (line, column) and, in grep mode, coalesces
// adjacent records sharing (path, line), per spec.md §4.6. Vimgrep records
// are one per match and are only sorted.
func dedupeAdjacent(records []LineRecord, vimgrep bool) []LineRecord {
	sort.Slice(records, func(i, j int) bool {
		if records[i].Line != records[j].Line {
			return records[i].Line < records[j].Line
		}
		return records[i].Column < records[j].Column
	})
	if vimgrep {
		return records
	}

	out := records[:0:0]
	for i, r := range records {
		if i > 0 {
			prev := out[len(out)-1]
			if prev.Path == r.Path && prev.Line == r.Line {
				continue
			}
		}
		out = append(out, r)
	}
	return out
}
