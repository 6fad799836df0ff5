package registry

import (
	"unsafe"

	ts_go "github.com/tree-sitter/tree-sitter-go/bindings/go"
	ts_javascript "github.com/tree-sitter/tree-sitter-javascript/bindings/go"
	ts_python "github.com/tree-sitter/tree-sitter-python/bindings/go"
	ts_rust "github.com/tree-sitter/tree-sitter-rust/bindings/go"
	ts_typescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"
)

// Builtin returns the registry of grammars compiled into tsgrep: rust,
// typescript, javascript, go, and python. Adding a language is exactly
// these few lines and does not touch any other component.
func Builtin() *Registry {
	r := New()

	r.Register(&Grammar{
		Name:       "rust",
		Extensions: []string{".rs"},
		language:   func(string) unsafe.Pointer { return ts_rust.Language() },
	})

	r.Register(&Grammar{
		Name:       "typescript",
		Extensions: []string{".ts", ".mts", ".cts", ".tsx"},
		variantFor: map[string]string{".tsx": "tsx"},
		language: func(variant string) unsafe.Pointer {
			if variant == "tsx" {
				return ts_typescript.LanguageTSX()
			}
			return ts_typescript.LanguageTypescript()
		},
	})

	r.Register(&Grammar{
		Name:       "javascript",
		Extensions: []string{".js", ".jsx", ".mjs", ".cjs"},
		language:   func(string) unsafe.Pointer { return ts_javascript.Language() },
	})

	r.Register(&Grammar{
		Name:       "go",
		Extensions: []string{".go"},
		language:   func(string) unsafe.Pointer { return ts_go.Language() },
	})

	r.Register(&Grammar{
		Name:       "python",
		Extensions: []string{".py", ".pyi"},
		language:   func(string) unsafe.Pointer { return ts_python.Language() },
	})

	return r
}
