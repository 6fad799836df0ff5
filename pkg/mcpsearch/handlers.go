package mcpsearch

import (
	"bytes"
	"context"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/jayvdb/tsgrep/pkg/orchestrator"
)

// handleSearch runs one tsgrep search and returns its grep/vimgrep output as
// the tool result text, capturing the orchestrator's writer into a buffer
// instead of stdout.
func (s *Server) handleSearch(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()

	querySource, _ := args["query"].(string)
	capture, _ := args["capture"].(string)
	language, _ := args["language"].(string)
	filter, _ := args["filter"].(string)
	filterArg, _ := args["filter_arg"].(string)
	vimgrep, _ := args["vimgrep"].(bool)
	paths := stringSlice(args["paths"])

	if querySource == "" && filter == "" {
		return mcp.NewToolResultError("one of query or filter is required"), nil
	}

	var out, errOut bytes.Buffer
	code := orchestrator.Run(orchestrator.RunConfig{
		QuerySource: querySource,
		Capture:     capture,
		Language:    language,
		Filter:      filter,
		FilterArg:   filterArg,
		Vimgrep:     vimgrep,
		Paths:       paths,
		Out:         &out,
		ErrOut:      &errOut,
		Logger:      s.logger,
	})
	if code != 0 {
		return mcp.NewToolResultError(errOut.String()), nil
	}
	if out.Len() == 0 {
		return mcp.NewToolResultText("no matches"), nil
	}
	return mcp.NewToolResultText(out.String()), nil
}

func stringSlice(v any) []string {
	raw, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
