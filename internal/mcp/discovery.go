package mcp

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/withObsrvr/nebu-mcp/internal/extract"
)

type listParams struct {
	Type string `json:"type,omitempty" jsonschema:"filter by processor type: origin, transform, sink, or all (default all)"`
}

func (h *handler) listHandler(ctx context.Context, req *mcp.CallToolRequest, params listParams) (*mcp.CallToolResult, any, error) {
	result, fault := h.engine.ListProcessors(ctx, params.Type)
	if fault != nil {
		return faultResult(fault)
	}
	return jsonResult(result)
}

type describeParams struct {
	Name string `json:"name" jsonschema:"processor name (e.g. token-transfer)"`
}

func (h *handler) describeHandler(ctx context.Context, req *mcp.CallToolRequest, params describeParams) (*mcp.CallToolResult, any, error) {
	if params.Name == "" {
		return faultResult(&extract.Fault{Message: "name is required"})
	}

	result, fault := h.engine.Describe(ctx, params.Name)
	if fault != nil {
		return faultResult(fault)
	}
	return jsonResult(result)
}
