// Package taxonomy models the small closed set of error kinds tsgrep's CLI
// layer maps to exact stderr text, and wraps them the way the rest of the
// codebase wraps errors: fmt.Errorf("...: %w", err).
package taxonomy

import "errors"

var (
	// ErrInvalidQuery means query compilation rejected the source.
	ErrInvalidQuery = errors.New("invalid query")

	// ErrInvalidCaptureName means a user-supplied capture name is not among
	// the query's captures.
	ErrInvalidCaptureName = errors.New("invalid capture name")

	// ErrQueryFileUnreadable means the --query-file path could not be read.
	ErrQueryFileUnreadable = errors.New("couldn't read query file")

	// ErrPluginExpectsArgument means the plugin exposes parse_argument but
	// the user supplied no --filter-arg.
	ErrPluginExpectsArgument = errors.New("plugin expected '--filter-arg <ARGUMENT>'")

	// ErrPluginArgumentUnparseable means parse_argument rejected the
	// supplied string.
	ErrPluginArgumentUnparseable = errors.New("plugin couldn't parse argument")

	// ErrMutuallyExclusiveOptions means --query-source and --query-file were
	// both supplied.
	ErrMutuallyExclusiveOptions = errors.New("--query-source and --query-file are mutually exclusive")

	// ErrMissingRequiredInput means none of --query-file, --query-source, or
	// --filter was supplied.
	ErrMissingRequiredInput = errors.New("one of --query-file, --query-source, or --filter is required")

	// ErrInvalidLanguage means --language named a grammar the registry does
	// not know.
	ErrInvalidLanguage = errors.New("invalid language")
)
