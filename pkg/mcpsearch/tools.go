package mcpsearch

import "github.com/mark3labs/mcp-go/mcp"

// searchTool describes the "search" MCP tool: run a tree-sitter query (or
// filter-plugin) against the current workspace and return grep-formatted
// matches, the same shape tsgrep prints to stdout.
func searchTool() mcp.Tool {
	return mcp.NewTool("search",
		mcp.WithDescription("Run a tree-sitter structural query against source files and return grep-formatted matches"),
		mcp.WithString("query",
			mcp.Description("Tree-sitter query source, e.g. \"(function_item) @f\". Required unless filter is given."),
		),
		mcp.WithString("capture",
			mcp.Description("Capture name to extract; defaults to the query's first capture"),
		),
		mcp.WithString("language",
			mcp.Description("Force a single grammar (rust, typescript, javascript, go, python); omit to auto-detect"),
		),
		mcp.WithString("filter",
			mcp.Description("Path to a filter-plugin shared library; may be combined with or used instead of query"),
		),
		mcp.WithString("filter_arg",
			mcp.Description("Argument string passed to the filter plugin's parse_argument"),
		),
		mcp.WithBoolean("vimgrep",
			mcp.Description("Emit one line per match with a column number instead of whole-line spans"),
		),
		mcp.WithArray("paths",
			mcp.Description("Explicit file or directory paths to search; omit to search the whole workspace"),
			mcp.Items(map[string]any{"type": "string"}),
		),
	)
}
