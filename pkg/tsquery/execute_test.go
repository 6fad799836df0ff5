package tsquery_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jayvdb/tsgrep/pkg/parsing"
	"github.com/jayvdb/tsgrep/pkg/tsquery"
)

func TestExtractCapturesFindsEveryFunctionName(t *testing.T) {
	g := rustGrammar(t)
	c := tsquery.NewCompiler(0, nil)
	defer c.Close()

	compiled, err := c.Compile(g, ".rs", "(function_item name: (identifier) @fn.name)", "")
	require.NoError(t, err)

	source := []byte("fn helpers() {}\nfn stop() {}\n")
	m := parsing.NewManager(0, nil)
	defer m.Close()

	tree, err := m.Parse(source, g, ".rs")
	require.NoError(t, err)
	defer tree.Close()

	captures, err := tsquery.ExtractCaptures(compiled, tree, source)
	require.NoError(t, err)
	require.Len(t, captures, 2)
	assert.Equal(t, "helpers", captures[0].Node.Utf8Text(source))
	assert.Equal(t, "stop", captures[1].Node.Utf8Text(source))
}

func TestExtractCapturesNilTreeErrors(t *testing.T) {
	g := rustGrammar(t)
	c := tsquery.NewCompiler(0, nil)
	defer c.Close()

	compiled, err := c.Compile(g, ".rs", "(function_item name: (identifier) @fn.name)", "")
	require.NoError(t, err)

	_, err = tsquery.ExtractCaptures(compiled, nil, []byte("fn x() {}"))
	assert.Error(t, err)
}
