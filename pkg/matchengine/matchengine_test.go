package matchengine_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jayvdb/tsgrep/pkg/filecache"
	"github.com/jayvdb/tsgrep/pkg/matchengine"
	"github.com/jayvdb/tsgrep/pkg/parsing"
	"github.com/jayvdb/tsgrep/pkg/registry"
	"github.com/jayvdb/tsgrep/pkg/resolver"
	"github.com/jayvdb/tsgrep/pkg/tsquery"
)

func writeTemp(t *testing.T, name, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func newEngine(t *testing.T, querySource, capture string, vimgrep bool) *matchengine.Engine {
	t.Helper()
	reg := registry.Builtin()
	rustGrammar, err := reg.ByName("rust")
	require.NoError(t, err)

	cache := filecache.New(nil)
	t.Cleanup(func() { cache.Close() })
	parsers := parsing.NewManager(1, nil)
	t.Cleanup(func() { parsers.Close() })
	queries := tsquery.NewCompiler(0, nil)
	t.Cleanup(queries.Close)

	res := resolver.New(reg, parsers, queries, nil, resolver.WithForcedLanguage(rustGrammar))

	return matchengine.New(matchengine.Config{
		Cache:       cache,
		Resolver:    res,
		Parsers:     parsers,
		Queries:     queries,
		QuerySource: querySource,
		Capture:     capture,
		HasQuery:    querySource != "",
		Vimgrep:     vimgrep,
	})
}

func TestProcessGrepModeEmitsEveryTouchedLine(t *testing.T) {
	path := writeTemp(t, "lib.rs", "fn add(left: usize, right: usize) -> usize {\n    left + right\n}\n")

	e := newEngine(t, "(function_item) @function_item", "", false)
	records, err := e.Process(path, ".rs")
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, uint32(1), records[0].Line)
	assert.Equal(t, "fn add(left: usize, right: usize) -> usize {", records[0].Text)
	assert.Equal(t, uint32(2), records[1].Line)
	assert.Equal(t, "    left + right", records[1].Text)
	assert.Equal(t, uint32(3), records[2].Line)
	assert.Equal(t, "}", records[2].Text)
}

func TestProcessVimgrepModeEmitsSingleRecordAtStart(t *testing.T) {
	path := writeTemp(t, "lib.rs", "fn add(left: usize, right: usize) -> usize {\n    left + right\n}\n")

	e := newEngine(t, "(function_item) @function_item", "", true)
	records, err := e.Process(path, ".rs")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, uint32(1), records[0].Line)
	assert.Equal(t, uint32(1), records[0].Column)
}

func TestProcessNoMatchesReturnsEmptySlice(t *testing.T) {
	path := writeTemp(t, "lib.rs", "fn add() -> usize { 1 }\n")

	e := newEngine(t, `(function_item name: (identifier) @name (#eq? @name "subtract")) @function_item`, "", false)
	records, err := e.Process(path, ".rs")
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestProcessInvalidUTF8ReturnsError(t *testing.T) {
	path := writeTemp(t, "lib.rs", "")
	require.NoError(t, os.WriteFile(path, []byte{0xff, 0xfe, 0xfd}, 0o644))

	e := newEngine(t, "(function_item) @function_item", "", false)
	_, err := e.Process(path, ".rs")
	assert.Error(t, err)
}

func TestProcessDedupesOverlappingCapturesOnSameLine(t *testing.T) {
	path := writeTemp(t, "lib.rs", "fn a() {} fn b() {}\n")

	e := newEngine(t, "(function_item) @function_item", "", false)
	records, err := e.Process(path, ".rs")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "fn a() {} fn b() {}", records[0].Text)
}
