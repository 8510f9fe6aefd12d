// Package mcp provides the nebu MCP server, registering all tools and
// publishing model instructions. Tool responses are structured JSON so
// the calling agent can parse counts, truncation flags, and suggestions.
package mcp

import (
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	nebumcp "github.com/withObsrvr/nebu-mcp"
	"github.com/withObsrvr/nebu-mcp/internal/config"
	"github.com/withObsrvr/nebu-mcp/internal/extract"
	"github.com/withObsrvr/nebu-mcp/internal/runlog"
)

//go:embed instructions.md
var Instructions string

// handler holds shared dependencies for all tool handlers.
type handler struct {
	engine *extract.Engine
	log    *runlog.Log
}

// NewServer creates an MCP server with all nebu tools registered.
func NewServer(cfg *config.Config, engine *extract.Engine, log *runlog.Log) *mcp.Server {
	h := &handler{engine: engine, log: log}

	mcpOpts := &mcp.ServerOptions{
		Instructions: Instructions,
		Capabilities: &mcp.ServerCapabilities{
			Tools: &mcp.ToolCapabilities{ListChanged: false},
		},
	}
	s := mcp.NewServer(&mcp.Implementation{Name: "nebu-mcp", Version: nebumcp.Version}, mcpOpts)

	mcp.AddTool(s, &mcp.Tool{
		Name: "nebu_extract_events",
		Description: fmt.Sprintf(`Extract blockchain events from Stellar ledgers.

Returns up to %d events per call; max %d ledgers per call. Prefer the compact
or summary format to keep responses small.`,
			cfg.MaxResultLimit(), cfg.MaxLedgerRange()),
	}, h.extractHandler)

	mcp.AddTool(s, &mcp.Tool{
		Name: "nebu_run_pipeline",
		Description: `Run a multi-processor pipeline (e.g. 'token-transfer | usdc-filter | amount-filter --min 1000000').

Each stage's output feeds the next as newline-delimited JSON. Ledger arguments
go to the first stage; output is capped by the limit.`,
	}, h.pipelineHandler)

	mcp.AddTool(s, &mcp.Tool{
		Name:        "nebu_fetch_ledgers",
		Description: "Fetch raw ledger data (XDR) to a file - use nebu_extract_events for most cases.",
	}, h.fetchHandler)

	mcp.AddTool(s, &mcp.Tool{
		Name:        "nebu_list_processors",
		Description: "List available processors for Stellar data extraction.",
	}, h.listHandler)

	mcp.AddTool(s, &mcp.Tool{
		Name:        "nebu_describe_processor",
		Description: "Get detailed info about a processor including schema and examples.",
	}, h.describeHandler)

	mcp.AddTool(s, &mcp.Tool{
		Name:        "nebu_debug_env",
		Description: "Debug: show environment variables and processor paths.",
	}, h.debugEnvHandler)

	mcp.AddTool(s, &mcp.Tool{
		Name:        "nebu_debug_extract",
		Description: "Debug: run a verbose single-ledger extraction probe.",
	}, h.debugExtractHandler)

	mcp.AddTool(s, &mcp.Tool{
		Name:        "nebu_debug_runs",
		Description: "Debug: show recent extraction runs (commands, outcomes, durations).",
	}, h.debugRunsHandler)

	return s
}

// jsonResult marshals a structured response into a text content block.
func jsonResult(v any) (*mcp.CallToolResult, any, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, nil, fmt.Errorf("marshalling response: %w", err)
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: string(data)}},
	}, nil, nil
}

// faultResult marshals a Fault payload and flags the result as an error.
func faultResult(f *extract.Fault) (*mcp.CallToolResult, any, error) {
	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return nil, nil, fmt.Errorf("marshalling fault: %w", err)
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: string(data)}},
		IsError: true,
	}, nil, nil
}
