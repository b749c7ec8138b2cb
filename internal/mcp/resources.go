package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Resource URIs
const (
	ResourceReferenceTables = "clif://reference/tables"
	ResourceHistory         = "clif://history"
)

var resourceURIs = []string{ResourceReferenceTables, ResourceHistory}

const jsonMIMEType = "application/json"

func (s *Server) registerResources() {
	s.mcpServer.AddResource(&mcp.Resource{
		URI:         ResourceReferenceTables,
		Name:        "reference-tables",
		Description: "Input ranges, organ score bands, ACLF grading rules and 28-day mortality",
		MIMEType:    jsonMIMEType,
	}, s.readReferenceTables)

	s.mcpServer.AddResource(&mcp.Resource{
		URI:         ResourceHistory,
		Name:        "history",
		Description: "Saved evaluations, newest first",
		MIMEType:    jsonMIMEType,
	}, s.readHistory)
}

func (s *Server) readReferenceTables(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	return jsonResource(ResourceReferenceTables, referenceTables())
}

func (s *Server) readHistory(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	return jsonResource(ResourceHistory, s.history.List())
}

func jsonResource(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s: %w", uri, err)
	}
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{
			{URI: uri, MIMEType: jsonMIMEType, Text: string(data)},
		},
	}, nil
}
