// Package registry enumerates the tree-sitter grammars tsgrep knows how to
// parse: the file extensions each one claims, and factories that hand back
// an opaque language handle for a given grammar variant.
package registry

import "unsafe"

// Grammar is a named tree-sitter language definition plus the file
// extensions it claims. Grammars are process-global and immutable after
// registration; the same *Grammar value is shared read-only across every
// worker goroutine.
type Grammar struct {
	// Name identifies the grammar on the command line (--language) and in
	// capture-name bookkeeping. Lowercase, e.g. "rust", "typescript".
	Name string

	// Extensions lists the file extensions (including the leading dot,
	// lowercase) this grammar claims. A single grammar may claim several,
	// e.g. typescript claims both ".ts" and ".tsx".
	Extensions []string

	// language returns an unsafe.Pointer to the compiled TSLanguage for the
	// given variant. variant is "" for the grammar's default behavior; a
	// non-empty variant selects an alternate grammar build exposed by the
	// same C binding (tsgrep uses this for TypeScript's "tsx" variant).
	language func(variant string) unsafe.Pointer

	// variantFor maps a file extension to the variant string to request
	// from language. Extensions not present here use the default variant.
	variantFor map[string]string
}

// NewGrammar constructs a Grammar directly, for registering a grammar with
// no variants. Use this outside package registry; the variantFor field is
// only reachable from Builtin's multi-variant grammars like TypeScript.
func NewGrammar(name string, extensions []string, language func(variant string) unsafe.Pointer) *Grammar {
	return &Grammar{Name: name, Extensions: extensions, language: language}
}

// LanguagePointer returns the tree-sitter language pointer for parsing a
// file with the given extension under this grammar.
func (g *Grammar) LanguagePointer(ext string) unsafe.Pointer {
	variant := g.variantFor[ext]
	return g.language(variant)
}

// ClaimsExtension reports whether this grammar claims the given (lowercase,
// dot-prefixed) extension.
func (g *Grammar) ClaimsExtension(ext string) bool {
	for _, e := range g.Extensions {
		if e == ext {
			return true
		}
	}
	return false
}

// String returns the grammar's name, satisfying fmt.Stringer for logging.
func (g *Grammar) String() string {
	return g.Name
}
