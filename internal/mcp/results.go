package mcp

import (
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/clif-c-of-mcp-server/internal/domain"
)

// jsonResult renders v as indented JSON text content.
func jsonResult(v any) *mcp.CallToolResult {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errorResult(domain.ErrInternalServer, "Failed to encode result", err.Error())
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(data)},
		},
	}
}

// errorResult renders an MCPError as an error tool result.
func errorResult(code, message, details string) *mcp.CallToolResult {
	mcpErr := domain.NewMCPError(code, message, details, "")

	text, err := json.Marshal(mcpErr)
	if err != nil {
		text = []byte(fmt.Sprintf("Error: %s", mcpErr.Error()))
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(text)},
		},
		IsError: true,
	}
}
