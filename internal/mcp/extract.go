package mcp

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/withObsrvr/nebu-mcp/internal/extract"
)

type extractParams struct {
	Processor   string `json:"processor" jsonschema:"processor to use (e.g. token-transfer, contract-events)"`
	StartLedger int64  `json:"start_ledger" jsonschema:"first ledger to process"`
	EndLedger   int64  `json:"end_ledger" jsonschema:"last ledger to process (inclusive; bounded per call)"`
	Filter      string `json:"filter,omitempty" jsonschema:"optional jq filter expression (e.g. select(.transfer.assetCode == \"USDC\"))"`
	Limit       int    `json:"limit,omitempty" jsonschema:"maximum events to return (default 100, max 1000)"`
	Format      string `json:"format,omitempty" jsonschema:"output format: full, compact, or summary (default compact)"`
}

func (h *handler) extractHandler(ctx context.Context, req *mcp.CallToolRequest, params extractParams) (*mcp.CallToolResult, any, error) {
	if params.Processor == "" {
		return faultResult(&extract.Fault{Message: "processor is required"})
	}

	result, fault := h.engine.Extract(ctx, extract.ExtractRequest{
		Processor:   params.Processor,
		StartLedger: params.StartLedger,
		EndLedger:   params.EndLedger,
		Filter:      params.Filter,
		Limit:       params.Limit,
		Format:      params.Format,
	})
	if fault != nil {
		return faultResult(fault)
	}
	return jsonResult(result)
}

type pipelineParams struct {
	Pipeline    string `json:"pipeline" jsonschema:"pipeline command with processors separated by | (e.g. 'token-transfer | usdc-filter')"`
	StartLedger int64  `json:"start_ledger" jsonschema:"first ledger to process"`
	EndLedger   int64  `json:"end_ledger" jsonschema:"last ledger to process (inclusive; bounded per call)"`
	Limit       int    `json:"limit,omitempty" jsonschema:"maximum events to return (default 100, max 1000)"`
	Format      string `json:"format,omitempty" jsonschema:"output format: full, compact, or summary (default compact)"`
}

func (h *handler) pipelineHandler(ctx context.Context, req *mcp.CallToolRequest, params pipelineParams) (*mcp.CallToolResult, any, error) {
	if params.Pipeline == "" {
		return faultResult(&extract.Fault{Message: "pipeline is required"})
	}

	result, fault := h.engine.Pipeline(ctx, extract.PipelineRequest{
		Pipeline:    params.Pipeline,
		StartLedger: params.StartLedger,
		EndLedger:   params.EndLedger,
		Limit:       params.Limit,
		Format:      params.Format,
	})
	if fault != nil {
		return faultResult(fault)
	}
	return jsonResult(result)
}
