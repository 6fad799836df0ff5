// Package walker enumerates candidate source files: explicit paths given on
// the command line, or a recursive walk from the working directory honoring
// nested .gitignore files and a built-in exclude list.
package walker

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// defaultExcludes mirrors the directories every source-search tool skips by
// default; doublestar glob syntax against the walk-relative, slash-separated
// path.
var defaultExcludes = []string{
	"**/.git/**",
	"**/node_modules/**",
	"**/vendor/**",
	"**/target/**",
	"**/.venv/**",
	"**/venv/**",
	"**/__pycache__/**",
	"**/dist/**",
	"**/build/**",
}

// Walker enumerates files whose extension is claimed by ExtAllowed.
type Walker struct {
	// ExtAllowed reports whether a file with the given extension (lowercase,
	// dot-prefixed) should be yielded. Typically backed by the active
	// grammar set: every registered grammar, or just the one --language
	// forced.
	ExtAllowed func(ext string) bool

	// ExtraExcludes are additional doublestar glob patterns layered on top
	// of defaultExcludes.
	ExtraExcludes []string

	logger *slog.Logger
}

// New creates a Walker. logger may be nil.
func New(extAllowed func(ext string) bool, extraExcludes []string, logger *slog.Logger) *Walker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Walker{ExtAllowed: extAllowed, ExtraExcludes: extraExcludes, logger: logger}
}

// Walk yields candidate file paths for the given explicit paths. An empty
// paths list walks recursively from ".". Each explicit directory expands
// recursively under the same ignore rules as the implicit walk; each
// explicit file is yielded verbatim, preserving any "./" prefix, as long as
// its extension is known.
func (w *Walker) Walk(paths []string) ([]string, error) {
	if len(paths) == 0 {
		return w.walkRoot(".")
	}

	var out []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("walker: %w", err)
		}
		if info.IsDir() {
			files, err := w.walkRoot(p)
			if err != nil {
				return nil, err
			}
			out = append(out, files...)
			continue
		}
		if w.extAllowed(filepath.Ext(p)) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (w *Walker) extAllowed(ext string) bool {
	if w.ExtAllowed == nil {
		return true
	}
	return w.ExtAllowed(strings.ToLower(ext))
}

func (w *Walker) walkRoot(root string) ([]string, error) {
	cache := newGitignoreCache(root)
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("walker: %w", err)
	}

	var out []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			w.logger.Warn("walk error", "path", path, "error", err)
			return nil
		}

		absPath, _ := filepath.Abs(path)
		relPath := filepath.ToSlash(mustRel(absRoot, absPath))

		if matchesAny(defaultExcludes, relPath) || matchesAny(w.ExtraExcludes, relPath) {
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			cache.load(absPath)
			if cache.shouldIgnore(absPath) {
				return fs.SkipDir
			}
			return nil
		}

		if cache.shouldIgnore(absPath) {
			return nil
		}
		if !w.extAllowed(filepath.Ext(path)) {
			return nil
		}
		out = append(out, path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walker: %w", err)
	}
	return out, nil
}

func matchesAny(patterns []string, relPath string) bool {
	for _, p := range patterns {
		if matched, _ := doublestar.Match(p, relPath); matched {
			return true
		}
	}
	return false
}

func mustRel(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return path
	}
	return rel
}
