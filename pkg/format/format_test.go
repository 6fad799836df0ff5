package format

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jayvdb/tsgrep/pkg/matchengine"
)

func TestWriteGrep(t *testing.T) {
	var buf bytes.Buffer
	w := New(&buf, Grep)

	err := w.Write([]matchengine.LineRecord{
		{Path: "src/lib.rs", Line: 1, Column: 1, Text: "fn add(a: i32, b: i32) -> i32 {"},
		{Path: "src/lib.rs", Line: 2, Column: 1, Text: "    a + b"},
	})
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Equal(t, []string{
		"src/lib.rs:1:fn add(a: i32, b: i32) -> i32 {",
		"src/lib.rs:2:    a + b",
	}, lines)
}

func TestWriteVimgrep(t *testing.T) {
	var buf bytes.Buffer
	w := New(&buf, Vimgrep)

	err := w.Write([]matchengine.LineRecord{
		{Path: "src/lib.rs", Line: 1, Column: 5, Text: "fn add(a: i32, b: i32) -> i32 {"},
	})
	require.NoError(t, err)

	require.Equal(t, "src/lib.rs:1:5:fn add(a: i32, b: i32) -> i32 {\n", buf.String())
}

func TestWriteEmptyIsNoop(t *testing.T) {
	var buf bytes.Buffer
	w := New(&buf, Grep)
	require.NoError(t, w.Write(nil))
	require.Equal(t, "", buf.String())
}

func TestWriteConcurrentFilesDoNotInterleave(t *testing.T) {
	var buf bytes.Buffer
	w := New(&buf, Grep)

	done := make(chan struct{})
	for i := 0; i < 8; i++ {
		go func(n int) {
			defer func() { done <- struct{}{} }()
			records := make([]matchengine.LineRecord, 50)
			for j := range records {
				records[j] = matchengine.LineRecord{Path: fmt.Sprintf("file%d", n), Line: uint32(j + 1), Text: strings.Repeat("x", 20)}
			}
			_ = w.Write(records)
		}(i)
	}
	for i := 0; i < 8; i++ {
		<-done
	}

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 400)
	// Each file's 50 lines must form one contiguous block.
	for start := 0; start < len(lines); start += 50 {
		path, _, _ := strings.Cut(lines[start], ":")
		for _, line := range lines[start : start+50] {
			require.True(t, strings.HasPrefix(path, "file") && strings.HasPrefix(line, path+":"))
		}
	}
}
