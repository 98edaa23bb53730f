package tools

import (
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// FormatResponse renders v as indented JSON inside a single text block.
func FormatResponse(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("format response: %w", err)
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: string(data)}},
	}, nil
}

// EmptyResponse is a successful result with no content blocks.
func EmptyResponse() *mcp.CallToolResult {
	return &mcp.CallToolResult{Content: []mcp.Content{}}
}

// ResultText returns the text of the first content block, if any.
func ResultText(res *mcp.CallToolResult) (string, bool) {
	if res == nil || len(res.Content) == 0 {
		return "", false
	}
	text, ok := res.Content[0].(*mcp.TextContent)
	if !ok {
		return "", false
	}
	return text.Text, true
}
