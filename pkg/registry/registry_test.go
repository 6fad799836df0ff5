package registry_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jayvdb/tsgrep/pkg/registry"
)

func TestBuiltinRegistersExpectedLanguages(t *testing.T) {
	r := registry.Builtin()

	names := make([]string, 0)
	for _, g := range r.Grammars() {
		names = append(names, g.Name)
	}
	assert.Contains(t, names, "rust")
	assert.Contains(t, names, "typescript")
	assert.Contains(t, names, "javascript")
}

func TestByExtensionResolvesTSX(t *testing.T) {
	r := registry.Builtin()

	grammars := r.ByExtension(".tsx")
	require.Len(t, grammars, 1)
	assert.Equal(t, "typescript", grammars[0].Name)
}

func TestByExtensionUnknownIsEmpty(t *testing.T) {
	r := registry.Builtin()
	assert.Empty(t, r.ByExtension(".rb"))
}

func TestByNameUnknownErrors(t *testing.T) {
	r := registry.Builtin()
	_, err := r.ByName("cobol")
	assert.Error(t, err)
}

func TestRegisterDuplicatePanics(t *testing.T) {
	r := registry.New()
	g := &registry.Grammar{Name: "dup", Extensions: []string{".x"}}
	r.Register(g)
	assert.Panics(t, func() { r.Register(g) })
}
