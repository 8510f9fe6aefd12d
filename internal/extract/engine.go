// Package extract is the extraction engine: it validates requests,
// locates processors, composes bounded shell chains, executes them,
// and reduces the decoded events to the requested output tier. It is
// consumed by both the MCP server and the CLI subcommands.
package extract

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/withObsrvr/nebu-mcp/internal/config"
	"github.com/withObsrvr/nebu-mcp/internal/event"
	"github.com/withObsrvr/nebu-mcp/internal/format"
	"github.com/withObsrvr/nebu-mcp/internal/ledger"
	"github.com/withObsrvr/nebu-mcp/internal/pipeline"
	"github.com/withObsrvr/nebu-mcp/internal/processor"
	"github.com/withObsrvr/nebu-mcp/internal/runlog"
	"github.com/withObsrvr/nebu-mcp/internal/runner"
)

// Engine holds shared dependencies for all extraction operations.
// All state is request-scoped; concurrent calls are independent.
type Engine struct {
	Config  *config.Config
	Locator *processor.Locator
	Runner  *runner.Runner
	Log     *runlog.Log // nil disables run history
}

// ExtractRequest is a single-processor extraction call.
type ExtractRequest struct {
	Processor   string
	StartLedger int64
	EndLedger   int64
	Filter      string // optional jq expression
	Limit       int
	Format      string
}

// PipelineRequest is a multi-stage pipeline call.
type PipelineRequest struct {
	Pipeline    string
	StartLedger int64
	EndLedger   int64
	Limit       int
	Format      string
}

// EventsResult is the full/compact response shape.
type EventsResult struct {
	Events    any    `json:"events"`
	Count     int    `json:"count"`
	Pipeline  string `json:"pipeline,omitempty"`
	Truncated bool   `json:"truncated"`
}

// Extract runs one processor over a ledger range, optionally filtered
// through jq, and reduces the output to the requested format.
func (e *Engine) Extract(ctx context.Context, req ExtractRequest) (any, *Fault) {
	rng, f := e.validateRange(req.StartLedger, req.EndLedger)
	if f != nil {
		return nil, f
	}
	limit := e.clampLimit(req.Limit)
	outFormat, err := format.Parse(req.Format, e.Config.DefaultOutputFormat())
	if err != nil {
		return nil, faultf("%v", err)
	}

	command, composeErr := pipeline.Compose(pipeline.Single(req.Processor), rng, req.Filter, limit, e.Locator)
	if composeErr != nil {
		return nil, e.notFoundFault(req.Processor, true)
	}

	res, f := e.runChain(ctx, "extract", command, e.Config.Timeout())
	if f != nil {
		return nil, f
	}
	if res.Outcome == runner.TimedOut {
		return nil, faultf("Extraction timed out after %ds", int(e.Config.Timeout().Seconds())).
			suggest("Try a smaller ledger range or fewer events")
	}
	if res.Outcome == runner.NonZeroExit {
		stderr := strings.TrimSpace(string(res.Stderr))
		if missingBinary(stderr) {
			return nil, faultf("Processor '%s' not found or not installed", req.Processor).
				suggest("Install the processor with: nebu install %s", req.Processor)
		}
		return nil, faultf("Extraction failed: %s", stderr)
	}

	events := event.Decode(res.Stdout)
	e.record("extract", command, res, len(events))
	return e.reduce(events, rng, limit, outFormat, ""), nil
}

// Pipeline runs an ordered processor chain. Every stage must resolve
// before anything is spawned; an unresolved stage aborts composition
// naming the stage.
func (e *Engine) Pipeline(ctx context.Context, req PipelineRequest) (any, *Fault) {
	rng, f := e.validateRange(req.StartLedger, req.EndLedger)
	if f != nil {
		return nil, f
	}
	limit := e.clampLimit(req.Limit)
	outFormat, err := format.Parse(req.Format, e.Config.DefaultOutputFormat())
	if err != nil {
		return nil, faultf("%v", err)
	}

	spec, parseErr := pipeline.Parse(req.Pipeline)
	if parseErr != nil {
		return nil, faultf("%v", parseErr)
	}

	command, composeErr := pipeline.Compose(spec, rng, "", limit, e.Locator)
	if composeErr != nil {
		var unresolved *pipeline.UnresolvedStageError
		if errors.As(composeErr, &unresolved) {
			return nil, e.notFoundFault(unresolved.Name, false)
		}
		return nil, faultf("%v", composeErr)
	}

	res, f := e.runChain(ctx, "pipeline", command, e.Config.Timeout())
	if f != nil {
		return nil, f
	}
	if res.Outcome == runner.TimedOut {
		return nil, faultf("Pipeline timed out after %ds", int(e.Config.Timeout().Seconds())).
			suggest("Try a smaller ledger range or simpler pipeline")
	}
	if res.Outcome == runner.NonZeroExit {
		return nil, faultf("Pipeline failed: %s", strings.TrimSpace(string(res.Stderr)))
	}

	events := event.Decode(res.Stdout)
	e.record("pipeline", command, res, len(events))
	return e.reduce(events, rng, limit, outFormat, req.Pipeline), nil
}

// reduce applies the output projection. An empty stdout (a processor
// that matched nothing) is a valid, empty result.
func (e *Engine) reduce(events []event.Event, rng ledger.Range, limit int, f format.Format, pipelineText string) any {
	truncated := len(events) >= limit

	switch f {
	case format.Summary:
		return format.Summarize(events, rng, limit)
	case format.Compact:
		return &EventsResult{
			Events:    format.CompactAll(events),
			Count:     len(events),
			Pipeline:  pipelineText,
			Truncated: truncated,
		}
	default: // full
		raw := make([]json.RawMessage, len(events))
		for i, ev := range events {
			raw[i] = ev.Raw
		}
		return &EventsResult{
			Events:    raw,
			Count:     len(events),
			Pipeline:  pipelineText,
			Truncated: truncated,
		}
	}
}

func (e *Engine) validateRange(start, end int64) (ledger.Range, *Fault) {
	rng, err := ledger.Validate(start, end, e.Config.MaxLedgerRange())
	if err == nil {
		return rng, nil
	}
	var tooLarge *ledger.TooLargeError
	if errors.As(err, &tooLarge) {
		return ledger.Range{}, faultf("Ledger range too large (%d). Maximum is %d ledgers per call.", tooLarge.Span, tooLarge.Max).
			suggest("Try a smaller range: --start-ledger %d --end-ledger %d", start, tooLarge.SuggestedEnd)
	}
	return ledger.Range{}, faultf("%v", err)
}

// clampLimit clamps a caller-supplied limit to [1, MaxResultLimit],
// substituting the default for zero or negative values.
func (e *Engine) clampLimit(limit int) int {
	if limit <= 0 {
		limit = e.Config.DefaultResultLimit()
	}
	if max := e.Config.MaxResultLimit(); limit > max {
		limit = max
	}
	return limit
}

func (e *Engine) notFoundFault(name string, searched bool) *Fault {
	f := faultf("Processor '%s' not found", name).
		suggest("Install with: nebu install %s", name)
	if searched {
		f.Searched = e.Locator.Searched()
	}
	return f
}

// runChain executes a composed shell chain; only spawn failures reach
// the returned fault, outcome classification is left to the caller.
func (e *Engine) runChain(ctx context.Context, tool, command string, timeout time.Duration) (*runner.Result, *Fault) {
	res, err := e.Runner.RunShell(ctx, command, timeout)
	if err != nil {
		return nil, faultf("%s failed to start: %v", tool, err)
	}
	if res.Outcome != runner.Success {
		e.record(tool, command, res, 0)
	}
	return res, nil
}

func (e *Engine) record(tool, command string, res *runner.Result, events int) {
	if e.Log == nil {
		return
	}
	e.Log.Add(runlog.Record{
		ID:         res.RunID,
		Tool:       tool,
		Command:    command,
		Outcome:    res.Outcome,
		ExitCode:   res.ExitCode,
		Duration:   res.Duration,
		Events:     events,
		StderrTail: tail(string(res.Stderr), 500),
	})
}

// missingBinary reports whether stderr indicates an uninstalled
// processor rather than a processing failure.
func missingBinary(stderr string) bool {
	s := strings.ToLower(stderr)
	return strings.Contains(s, "not found") || strings.Contains(s, "command not found")
}

func tail(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
