package resolver_test

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jayvdb/tsgrep/pkg/parsing"
	"github.com/jayvdb/tsgrep/pkg/registry"
	"github.com/jayvdb/tsgrep/pkg/resolver"
	"github.com/jayvdb/tsgrep/pkg/tsquery"
)

func newTestDeps(t *testing.T) (*registry.Registry, *parsing.Manager, *tsquery.Compiler) {
	t.Helper()
	reg := registry.Builtin()
	pm := parsing.NewManager(0, nil)
	t.Cleanup(func() { pm.Close() })
	qc := tsquery.NewCompiler(0, nil)
	t.Cleanup(qc.Close)
	return reg, pm, qc
}

func TestResolveSingleExtensionMatch(t *testing.T) {
	reg, pm, qc := newTestDeps(t)
	r := resolver.New(reg, pm, qc, nil)

	result := r.Resolve(".rs", []byte("fn main() {}"))
	require.False(t, result.Skip)
	assert.Equal(t, "rust", result.Grammar.Name)
}

func TestResolveUnknownExtensionSkips(t *testing.T) {
	reg, pm, qc := newTestDeps(t)
	r := resolver.New(reg, pm, qc, nil)

	result := r.Resolve(".rb", []byte("puts 1"))
	assert.True(t, result.Skip)
}

func TestResolveForcedLanguageIgnoresExtension(t *testing.T) {
	reg, pm, qc := newTestDeps(t)
	rustGrammar, err := reg.ByName("rust")
	require.NoError(t, err)

	r := resolver.New(reg, pm, qc, nil, resolver.WithForcedLanguage(rustGrammar))

	result := r.Resolve(".rb", []byte("fn main() {}"))
	require.False(t, result.Skip)
	assert.Equal(t, "rust", result.Grammar.Name)
}

func TestResolveAmbiguousExtensionTriesCandidatesInOrder(t *testing.T) {
	builtin := registry.Builtin()
	rustGrammar, err := builtin.ByName("rust")
	require.NoError(t, err)
	jsGrammar, err := builtin.ByName("javascript")
	require.NoError(t, err)

	reg := registry.New()
	reg.Register(registry.NewGrammar("javascript", []string{".x"}, func(string) unsafe.Pointer {
		return jsGrammar.LanguagePointer(".js")
	}))
	reg.Register(registry.NewGrammar("rust", []string{".x"}, func(string) unsafe.Pointer {
		return rustGrammar.LanguagePointer(".rs")
	}))

	pm := parsing.NewManager(0, nil)
	defer pm.Close()
	qc := tsquery.NewCompiler(0, nil)
	defer qc.Close()

	// "function_item" exists only in the rust grammar, so compilation fails
	// against javascript (registered first) and the fallback moves on to rust.
	r := resolver.New(reg, pm, qc, nil, resolver.WithQuery("(function_item) @fn", ""))

	result := r.Resolve(".x", []byte("fn main() {}"))
	require.False(t, result.Skip)
	assert.Equal(t, "rust", result.Grammar.Name)
}
