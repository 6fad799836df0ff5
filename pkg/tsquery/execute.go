package tsquery

import (
	"fmt"

	ts "github.com/tree-sitter/go-tree-sitter"
)

// Capture is a single node captured at the resolved capture index.
type Capture struct {
	Node      ts.Node
	StartByte uint
	EndByte   uint
}

// ExtractCaptures runs compiled.Query over tree and returns every captured
// node at compiled.CaptureIndex, across every match. Captures at other
// indices in the same pattern are ignored: the resolved index is the only
// one the match engine emits records for.
func ExtractCaptures(compiled *Compiled, tree *ts.Tree, source []byte) ([]Capture, error) {
	if tree == nil {
		return nil, fmt.Errorf("tsquery: tree is nil")
	}
	if compiled == nil || compiled.Query == nil {
		return nil, fmt.Errorf("tsquery: compiled query is nil")
	}

	cursor := ts.NewQueryCursor()
	defer cursor.Close()

	iter := cursor.Matches(compiled.Query, tree.RootNode(), source)

	var captures []Capture
	for {
		match := iter.Next()
		if match == nil {
			break
		}
		for _, capture := range match.Captures {
			if capture.Index != compiled.CaptureIndex {
				continue
			}
			captures = append(captures, Capture{
				Node:      capture.Node,
				StartByte: uint(capture.Node.StartByte()),
				EndByte:   uint(capture.Node.EndByte()),
			})
		}
	}
	return captures, nil
}
