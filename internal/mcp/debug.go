package mcp

import (
	"context"
	"os"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/withObsrvr/nebu-mcp/internal/config"
	"github.com/withObsrvr/nebu-mcp/internal/runlog"
)

type debugEnvParams struct{}

// envReport is the nebu_debug_env payload. Auth material is masked.
type envReport struct {
	RPCURL        string   `json:"NEBU_RPC_URL"`
	RPCAuth       string   `json:"NEBU_RPC_AUTH"`
	Network       string   `json:"NEBU_NETWORK"`
	PathPrefix    string   `json:"PATH"`
	SearchDirs    []string `json:"search_dirs"`
	TokenTransfer string   `json:"token_transfer_path,omitempty"`
	Nebu          string   `json:"nebu_path,omitempty"`
}

func (h *handler) debugEnvHandler(ctx context.Context, req *mcp.CallToolRequest, _ debugEnvParams) (*mcp.CallToolResult, any, error) {
	report := envReport{
		RPCURL:     envOr(config.EnvRPCURL, "NOT SET"),
		Network:    envOr(config.EnvNetwork, "NOT SET"),
		RPCAuth:    "NOT SET",
		SearchDirs: h.engine.Locator.Searched(),
	}
	if os.Getenv(config.EnvRPCAuth) != "" {
		report.RPCAuth = "***"
	}

	path := os.Getenv("PATH")
	if len(path) > 200 {
		path = path[:200] + "..."
	}
	report.PathPrefix = path

	if p, err := h.engine.Locator.Resolve("token-transfer"); err == nil {
		report.TokenTransfer = p
	}
	if p, err := h.engine.Locator.Resolve("nebu"); err == nil {
		report.Nebu = p
	}

	return jsonResult(report)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

type debugExtractParams struct {
	Ledger int64 `json:"ledger" jsonschema:"single ledger to test"`
}

func (h *handler) debugExtractHandler(ctx context.Context, req *mcp.CallToolRequest, params debugExtractParams) (*mcp.CallToolResult, any, error) {
	result, fault := h.engine.Probe(ctx, params.Ledger)
	if fault != nil {
		return faultResult(fault)
	}
	return jsonResult(result)
}

type debugRunsParams struct {
	Limit int `json:"limit,omitempty" jsonschema:"maximum runs to return (default 10)"`
}

type runsReport struct {
	Runs  []runlog.Record `json:"runs"`
	Count int             `json:"count"`
}

func (h *handler) debugRunsHandler(ctx context.Context, req *mcp.CallToolRequest, params debugRunsParams) (*mcp.CallToolResult, any, error) {
	limit := params.Limit
	if limit <= 0 {
		limit = 10
	}

	runs := h.log.Recent(limit)
	if runs == nil {
		runs = []runlog.Record{}
	}
	return jsonResult(&runsReport{Runs: runs, Count: len(runs)})
}
