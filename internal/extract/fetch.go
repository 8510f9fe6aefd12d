package extract

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/withObsrvr/nebu-mcp/internal/pipeline"
	"github.com/withObsrvr/nebu-mcp/internal/runner"
)

// nebuInstallHint tells the agent how to obtain the nebu CLI.
const nebuInstallHint = "Install with: go install github.com/withObsrvr/nebu/cmd/nebu@latest"

// FetchRequest asks for raw ledger XDR to be written to a file.
type FetchRequest struct {
	StartLedger int64
	EndLedger   int64
	OutputFile  string
}

// FetchResult reports where the raw ledger data landed.
type FetchResult struct {
	File        string   `json:"file"`
	LedgerRange [2]int64 `json:"ledger_range"`
	Ledgers     int64    `json:"ledgers"`
	Bytes       int64    `json:"bytes"`
}

// Fetch runs `nebu fetch -q <start> <end>` redirected into the output
// file. This is a passthrough: no decoding or formatting happens here.
func (e *Engine) Fetch(ctx context.Context, req FetchRequest) (*FetchResult, *Fault) {
	rng, f := e.validateRange(req.StartLedger, req.EndLedger)
	if f != nil {
		return nil, f
	}

	nebuPath, err := e.Locator.Resolve("nebu")
	if err != nil {
		return nil, &Fault{
			Message:    "nebu CLI not found",
			Suggestion: nebuInstallHint,
		}
	}

	if dir := filepath.Dir(req.OutputFile); dir != "." {
		if _, err := os.Stat(dir); err != nil {
			return nil, faultf("Output directory does not exist: %s", dir)
		}
	}

	command := fmt.Sprintf("%s fetch -q %d %d > %s",
		pipeline.Quote(nebuPath), rng.Start, rng.End, pipeline.Quote(req.OutputFile))

	res, f := e.runChain(ctx, "fetch", command, e.Config.Timeout())
	if f != nil {
		return nil, f
	}
	if res.Outcome == runner.TimedOut {
		return nil, faultf("Fetch timed out after %ds", int(e.Config.Timeout().Seconds())).
			suggest("Try a smaller ledger range")
	}
	if res.Outcome == runner.NonZeroExit {
		return nil, faultf("Fetch failed: %s", strings.TrimSpace(string(res.Stderr)))
	}
	e.record("fetch", command, res, 0)

	var size int64
	if info, err := os.Stat(req.OutputFile); err == nil {
		size = info.Size()
	}

	return &FetchResult{
		File:        req.OutputFile,
		LedgerRange: [2]int64{rng.Start, rng.End},
		Ledgers:     rng.Ledgers(),
		Bytes:       size,
	}, nil
}
