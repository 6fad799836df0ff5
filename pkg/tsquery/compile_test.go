package tsquery_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jayvdb/tsgrep/internal/taxonomy"
	"github.com/jayvdb/tsgrep/pkg/registry"
	"github.com/jayvdb/tsgrep/pkg/tsquery"
)

func rustGrammar(t *testing.T) *registry.Grammar {
	t.Helper()
	g, err := registry.Builtin().ByName("rust")
	require.NoError(t, err)
	return g
}

func TestCompileDefaultCaptureIsFirst(t *testing.T) {
	c := tsquery.NewCompiler(0, nil)
	defer c.Close()

	compiled, err := c.Compile(rustGrammar(t), ".rs", "(function_item name: (identifier) @fn.name)", "")
	require.NoError(t, err)
	assert.Equal(t, uint32(0), compiled.CaptureIndex)
	assert.Equal(t, []string{"fn.name"}, compiled.CaptureNames)
}

func TestCompileExplicitCapture(t *testing.T) {
	c := tsquery.NewCompiler(0, nil)
	defer c.Close()

	compiled, err := c.Compile(rustGrammar(t), ".rs",
		"(function_item name: (identifier) @fn.name) @fn.whole", "fn.whole")
	require.NoError(t, err)
	assert.Equal(t, uint32(1), compiled.CaptureIndex)
}

func TestCompileUnknownCaptureNameFails(t *testing.T) {
	c := tsquery.NewCompiler(0, nil)
	defer c.Close()

	_, err := c.Compile(rustGrammar(t), ".rs", "(function_item name: (identifier) @fn.name)", "function_itemz")
	require.Error(t, err)
	assert.True(t, errors.Is(err, taxonomy.ErrInvalidCaptureName))
}

func TestCompileInvalidQueryFails(t *testing.T) {
	c := tsquery.NewCompiler(0, nil)
	defer c.Close()

	_, err := c.Compile(rustGrammar(t), ".rs", "(not_a_real_node", "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, taxonomy.ErrInvalidQuery))
}

func TestCompileCachesByKey(t *testing.T) {
	c := tsquery.NewCompiler(0, nil)
	defer c.Close()

	query := "(function_item name: (identifier) @fn.name)"
	first, err := c.Compile(rustGrammar(t), ".rs", query, "")
	require.NoError(t, err)

	second, err := c.Compile(rustGrammar(t), ".rs", query, "")
	require.NoError(t, err)

	assert.Same(t, first, second)
}
