package extract

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/withObsrvr/nebu-mcp/internal/runner"
)

// ProcessorInfo describes one installed processor.
type ProcessorInfo struct {
	Name        string `json:"name"`
	Type        string `json:"type"` // origin, transform, sink
	Description string `json:"description"`
}

// ProcessorList is the nebu_list_processors response.
type ProcessorList struct {
	Processors []ProcessorInfo `json:"processors"`
	Count      int             `json:"count"`
}

// ListProcessors shells out to `nebu list --json` and optionally
// filters by processor type.
func (e *Engine) ListProcessors(ctx context.Context, typ string) (*ProcessorList, *Fault) {
	nebuPath, err := e.Locator.Resolve("nebu")
	if err != nil {
		return nil, &Fault{Message: "nebu CLI not found", Suggestion: nebuInstallHint}
	}

	res, runErr := e.Runner.Run(ctx, []string{nebuPath, "list", "--json"}, e.Config.ProbeTimeout())
	if runErr != nil {
		return nil, faultf("Failed to list processors: %v", runErr)
	}
	if res.Outcome != runner.Success {
		return nil, faultf("Failed to list processors: %s", strings.TrimSpace(string(res.Stderr)))
	}

	var all []ProcessorInfo
	if err := json.Unmarshal(res.Stdout, &all); err != nil {
		return nil, faultf("Failed to parse processor list: %v", err)
	}

	list := &ProcessorList{Processors: []ProcessorInfo{}}
	for _, p := range all {
		if typ == "" || typ == "all" || p.Type == typ {
			list.Processors = append(list.Processors, p)
		}
	}
	list.Count = len(list.Processors)
	return list, nil
}

// Describe shells out to `nebu describe <name> --json` and returns the
// processor's documentation object verbatim.
func (e *Engine) Describe(ctx context.Context, name string) (map[string]any, *Fault) {
	nebuPath, err := e.Locator.Resolve("nebu")
	if err != nil {
		return nil, &Fault{Message: "nebu CLI not found", Suggestion: nebuInstallHint}
	}

	res, runErr := e.Runner.Run(ctx, []string{nebuPath, "describe", name, "--json"}, e.Config.ProbeTimeout())
	if runErr != nil {
		return nil, faultf("Failed to describe processor: %v", runErr)
	}
	if res.Outcome != runner.Success {
		stderr := strings.TrimSpace(string(res.Stderr))
		if missingBinary(stderr) {
			return nil, faultf("Processor '%s' not found", name).
				suggest("Use nebu_list_processors to see available processors")
		}
		return nil, faultf("Failed to describe processor: %s", stderr)
	}

	var doc map[string]any
	if err := json.Unmarshal(res.Stdout, &doc); err != nil {
		return nil, faultf("Failed to parse processor details: %v", err)
	}
	return doc, nil
}
