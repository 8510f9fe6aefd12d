package extract

import (
	"context"

	"github.com/withObsrvr/nebu-mcp/internal/ledger"
	"github.com/withObsrvr/nebu-mcp/internal/pipeline"
	"github.com/withObsrvr/nebu-mcp/internal/runner"
)

// probeProcessor is the processor exercised by the debug probe.
const probeProcessor = "token-transfer"

// ProbeResult echoes the raw execution of a single-ledger debug run.
type ProbeResult struct {
	Command    string `json:"command"`
	Outcome    string `json:"outcome"`
	ReturnCode int    `json:"returncode"`
	Stdout     string `json:"stdout"`
	Stderr     string `json:"stderr,omitempty"`
}

// Probe runs a verbose single-ledger extraction under the short debug
// timeout, returning the raw command and trimmed output rather than
// decoded events.
func (e *Engine) Probe(ctx context.Context, seq int64) (*ProbeResult, *Fault) {
	if seq < 0 {
		return nil, faultf("ledger must be >= 0")
	}
	rng := ledger.Range{Start: seq, End: seq}

	command, err := pipeline.Compose(pipeline.Single(probeProcessor), rng, "", 3, e.Locator)
	if err != nil {
		return nil, e.notFoundFault(probeProcessor, true)
	}

	res, f := e.runChain(ctx, "probe", command, e.Config.ProbeTimeout())
	if f != nil {
		return nil, f
	}
	if res.Outcome == runner.TimedOut {
		return nil, faultf("Probe timed out after %ds", int(e.Config.ProbeTimeout().Seconds())).
			suggest("Check that the processor can reach its data source")
	}

	e.record("probe", command, res, 0)
	return &ProbeResult{
		Command:    command,
		Outcome:    string(res.Outcome),
		ReturnCode: res.ExitCode,
		Stdout:     head(string(res.Stdout), 1000),
		Stderr:     head(string(res.Stderr), 500),
	}, nil
}

func head(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
