package mcp

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/withObsrvr/nebu-mcp/internal/extract"
)

type fetchParams struct {
	StartLedger int64  `json:"start_ledger" jsonschema:"first ledger to fetch"`
	EndLedger   int64  `json:"end_ledger" jsonschema:"last ledger to fetch (inclusive; bounded per call)"`
	OutputFile  string `json:"output_file" jsonschema:"file path to save XDR data"`
}

func (h *handler) fetchHandler(ctx context.Context, req *mcp.CallToolRequest, params fetchParams) (*mcp.CallToolResult, any, error) {
	if params.OutputFile == "" {
		return faultResult(&extract.Fault{Message: "output_file is required"})
	}

	result, fault := h.engine.Fetch(ctx, extract.FetchRequest{
		StartLedger: params.StartLedger,
		EndLedger:   params.EndLedger,
		OutputFile:  params.OutputFile,
	})
	if fault != nil {
		return faultResult(fault)
	}
	return jsonResult(result)
}
