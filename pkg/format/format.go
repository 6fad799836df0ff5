// Package format serializes matchengine.LineRecords to stdout in grep or
// vimgrep style (spec.md §4.7), guarding the shared writer so one file's
// records are written atomically with respect to every other file's.
package format

import (
	"bufio"
	"fmt"
	"io"
	"sync"

	"github.com/jayvdb/tsgrep/pkg/matchengine"
)

// Mode selects the output line shape.
type Mode int

const (
	// Grep emits "PATH:LINE:TEXT" — one record per source line touched by
	// a match, no column.
	Grep Mode = iota
	// Vimgrep emits "PATH:LINE:COL:TEXT" — one record per match, at its
	// starting line and column.
	Vimgrep
)

// Writer serializes LineRecords to an underlying io.Writer (ordinarily
// os.Stdout). A single Writer is shared by every worker goroutine; Write
// takes a whole file's records at once and holds the lock only for that
// batch, so interleaved bytes from two files never appear, matching spec.md
// §5's "serializes per-file flushes under a single lock" resource rule.
type Writer struct {
	mu   sync.Mutex
	out  *bufio.Writer
	mode Mode
}

// New creates a Writer over w in the given mode.
func New(w io.Writer, mode Mode) *Writer {
	return &Writer{out: bufio.NewWriter(w), mode: mode}
}

// Write emits records for one file as a single atomic batch and flushes.
// records must already be sorted and deduplicated per matchengine's
// contract; Write does not reorder them.
func (w *Writer) Write(records []matchengine.LineRecord) error {
	if len(records) == 0 {
		return nil
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	for _, r := range records {
		var err error
		if w.mode == Vimgrep {
			_, err = fmt.Fprintf(w.out, "%s:%d:%d:%s\n", r.Path, r.Line, r.Column, r.Text)
		} else {
			_, err = fmt.Fprintf(w.out, "%s:%d:%s\n", r.Path, r.Line, r.Text)
		}
		if err != nil {
			return fmt.Errorf("format: write: %w", err)
		}
	}
	return w.out.Flush()
}
