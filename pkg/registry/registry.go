package registry

import "fmt"

// Registry holds the set of grammars tsgrep can parse, in a fixed
// registration order. The order matters: it is the tie-break the Language
// Resolver uses when a file extension is ambiguous (claimed by more than
// one grammar) and a try-parse fallback is needed.
type Registry struct {
	order []*Grammar
	byExt map[string][]*Grammar
	byName map[string]*Grammar
}

// New creates an empty registry. Use Register to populate it, or call
// Builtin() for the default registry shipped with tsgrep.
func New() *Registry {
	return &Registry{
		byExt:  make(map[string][]*Grammar),
		byName: make(map[string]*Grammar),
	}
}

// Register adds a grammar to the registry. Registration order is preserved
// and used as the tie-break for ambiguous extensions. Register panics on a
// duplicate grammar name, since the registry is built once at process
// startup from a fixed, known-good list.
func (r *Registry) Register(g *Grammar) {
	if _, exists := r.byName[g.Name]; exists {
		panic(fmt.Sprintf("registry: grammar %q already registered", g.Name))
	}
	r.order = append(r.order, g)
	r.byName[g.Name] = g
	for _, ext := range g.Extensions {
		r.byExt[ext] = append(r.byExt[ext], g)
	}
}

// Grammars returns every registered grammar in registration order.
func (r *Registry) Grammars() []*Grammar {
	out := make([]*Grammar, len(r.order))
	copy(out, r.order)
	return out
}

// ByName looks up a grammar by its command-line name.
func (r *Registry) ByName(name string) (*Grammar, error) {
	g, ok := r.byName[name]
	if !ok {
		return nil, fmt.Errorf("unknown language: %s", name)
	}
	return g, nil
}

// ByExtension returns every grammar that claims the given extension, in
// registration order. The slice is empty if no grammar claims it, and has
// more than one element when the extension is ambiguous.
func (r *Registry) ByExtension(ext string) []*Grammar {
	return r.byExt[ext]
}
