// Package plugin loads a filter shared library (the C-ABI extension point
// spec.md §4.4 describes) via purego's cross-platform dlopen/dlsym, and
// wraps its filter entry point so a panic during the call surfaces as an
// error instead of taking the whole process down.
package plugin

import (
	"fmt"
	"sync"
	"unsafe"

	"github.com/ebitengine/purego"

	"github.com/jayvdb/tsgrep/internal/taxonomy"
)

type filterFunc func(nodeKind string, bytes unsafe.Pointer, bytesLen uintptr, rangeStart uintptr, rangeEnd uintptr, arg unsafe.Pointer) bool
type parseArgumentFunc func(arg string) unsafe.Pointer
type freeArgumentFunc func(arg unsafe.Pointer)

// Handle is a loaded filter plugin: its resolved entry points plus whatever
// opaque argument pointer_parse_argument produced, owned for the run's
// lifetime.
type Handle struct {
	lib uintptr

	filter        filterFunc
	parseArgument parseArgumentFunc
	freeArgument  freeArgumentFunc

	arg unsafe.Pointer

	// mu serializes every call into the plugin: the ABI makes no promise
	// that filter is reentrant or thread-safe, so tsgrep treats it as a
	// single-caller resource shared by every worker goroutine.
	mu sync.Mutex
}

// Load dlopens path and resolves filter, parse_argument (optional), and
// free_argument (required when parse_argument is present).
func Load(path string) (*Handle, error) {
	lib, err := purego.Dlopen(path, purego.RTLD_NOW|purego.RTLD_GLOBAL)
	if err != nil {
		return nil, fmt.Errorf("plugin: load %s: %w", path, err)
	}

	h := &Handle{lib: lib}

	purego.RegisterLibFunc(&h.filter, lib, "filter")

	if hasSymbol(lib, "parse_argument") {
		purego.RegisterLibFunc(&h.parseArgument, lib, "parse_argument")
		purego.RegisterLibFunc(&h.freeArgument, lib, "free_argument")
	}

	return h, nil
}

// RequiresArgument reports whether this plugin exposes parse_argument and
// therefore needs a --filter-arg value before it can run.
func (h *Handle) RequiresArgument() bool {
	return h.parseArgument != nil
}

// SetArgument parses raw via the plugin's parse_argument and stores the
// resulting opaque pointer for every subsequent Filter call. raw's caller is
// responsible for having checked RequiresArgument() first: calling this on a
// plugin with no parse_argument is a programmer error.
func (h *Handle) SetArgument(raw string) error {
	ptr := h.parseArgument(raw)
	if ptr == nil {
		return fmt.Errorf("%w %q", taxonomy.ErrPluginArgumentUnparseable, raw)
	}
	h.arg = ptr
	return nil
}

// Filter invokes the plugin's filter entry point on one candidate node,
// identified by its tree-sitter node kind and byte range within source.
// A panic during the call is recovered and returned as an error instead of
// crashing the process. The caller decides what that error means for the
// run; it does not by itself change the run's exit code.
func (h *Handle) Filter(nodeKind string, source []byte, start, end uint32) (matched bool, err error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("plugin: filter panicked: %v", r)
		}
	}()

	var bytesPtr unsafe.Pointer
	if len(source) > 0 {
		bytesPtr = unsafe.Pointer(&source[0])
	}

	matched = h.filter(nodeKind, bytesPtr, uintptr(len(source)), uintptr(start), uintptr(end), h.arg)
	return matched, nil
}

// Close releases the argument pointer via free_argument. The loaded library
// itself is intentionally never dlclose'd: tree-sitter grammars loaded the
// same way are never unloaded either, since doing so safely would require
// every node/tree referencing the library's code to have already been
// dropped.
func (h *Handle) Close() {
	if h.freeArgument != nil && h.arg != nil {
		h.freeArgument(h.arg)
		h.arg = nil
	}
}

func hasSymbol(lib uintptr, name string) bool {
	_, err := purego.Dlsym(lib, name)
	return err == nil
}
