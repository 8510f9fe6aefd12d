package extract

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/withObsrvr/nebu-mcp/internal/config"
	"github.com/withObsrvr/nebu-mcp/internal/format"
	"github.com/withObsrvr/nebu-mcp/internal/processor"
	"github.com/withObsrvr/nebu-mcp/internal/runlog"
	"github.com/withObsrvr/nebu-mcp/internal/runner"
)

// summaryScript emits 3 transfer events (USDC, USDC, XLM) and 1 burn (USDC).
const summaryScript = `#!/bin/sh
echo '{"transfer":{"from":"GAAA","to":"GBBB","amount":"100","assetCode":"USDC"},"meta":{"ledgerSequence":1000,"txHash":"abcdef1234567890"}}'
echo '{"transfer":{"from":"GAAA","to":"GCCC","amount":"200","assetCode":"USDC"},"meta":{"ledgerSequence":1001,"txHash":"bbbbbb1234567890"}}'
echo '{"transfer":{"from":"GDDD","to":"GBBB","amount":"300","assetCode":"XLM"},"meta":{"ledgerSequence":1002,"txHash":"cccccc1234567890"}}'
echo '{"burn":{"from":"GAAA","amount":"50","assetCode":"USDC"},"meta":{"ledgerSequence":1003,"txHash":"dddddd1234567890"}}'
`

// installProcessor writes an executable fake processor into dir.
func installProcessor(t *testing.T, dir, name, script string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(script), 0o755); err != nil {
		t.Fatal(err)
	}
}

// newTestEngine builds an engine whose locator only searches dir.
func newTestEngine(t *testing.T, dir string, cfg *config.Config) *Engine {
	t.Helper()
	if cfg == nil {
		cfg = &config.Config{}
	}
	return &Engine{
		Config:  cfg,
		Locator: &processor.Locator{Dirs: []string{dir}},
		Runner:  &runner.Runner{},
		Log:     runlog.New(10),
	}
}

func TestExtract_Summary(t *testing.T) {
	dir := t.TempDir()
	installProcessor(t, dir, "token-transfer", summaryScript)
	e := newTestEngine(t, dir, nil)

	result, fault := e.Extract(context.Background(), ExtractRequest{
		Processor:   "token-transfer",
		StartLedger: 1000,
		EndLedger:   1005,
		Limit:       50,
		Format:      "summary",
	})
	if fault != nil {
		t.Fatalf("fault: %v", fault)
	}

	s, ok := result.(*format.SummaryResult)
	if !ok {
		t.Fatalf("result type %T, want *format.SummaryResult", result)
	}
	if s.TotalEvents != 4 {
		t.Errorf("TotalEvents = %d, want 4", s.TotalEvents)
	}
	if s.ByType["transfer"] != 3 || s.ByType["burn"] != 1 {
		t.Errorf("ByType = %v, want transfer:3 burn:1", s.ByType)
	}
	if s.ByAsset["USDC"] != 3 || s.ByAsset["XLM"] != 1 {
		t.Errorf("ByAsset = %v, want USDC:3 XLM:1", s.ByAsset)
	}
	if s.LedgerRange != [2]int64{1000, 1005} {
		t.Errorf("LedgerRange = %v, want [1000 1005]", s.LedgerRange)
	}
	if s.Truncated {
		t.Error("Truncated = true, want false")
	}
}

func TestExtract_CompactDefault(t *testing.T) {
	dir := t.TempDir()
	installProcessor(t, dir, "token-transfer", summaryScript)
	e := newTestEngine(t, dir, nil)

	result, fault := e.Extract(context.Background(), ExtractRequest{
		Processor:   "token-transfer",
		StartLedger: 1000,
		EndLedger:   1005,
	})
	if fault != nil {
		t.Fatalf("fault: %v", fault)
	}

	r, ok := result.(*EventsResult)
	if !ok {
		t.Fatalf("result type %T, want *EventsResult", result)
	}
	if r.Count != 4 {
		t.Errorf("Count = %d, want 4", r.Count)
	}
	if r.Truncated {
		t.Error("Truncated = true, want false")
	}
	events, ok := r.Events.([]format.CompactEvent)
	if !ok {
		t.Fatalf("Events type %T, want []format.CompactEvent", r.Events)
	}
	if events[0].Type != "transfer" || events[0].Tx != "abcdef123456..." {
		t.Errorf("events[0] = %+v", events[0])
	}
}

func TestExtract_FullPassthrough(t *testing.T) {
	dir := t.TempDir()
	installProcessor(t, dir, "token-transfer", summaryScript)
	e := newTestEngine(t, dir, nil)

	result, fault := e.Extract(context.Background(), ExtractRequest{
		Processor:   "token-transfer",
		StartLedger: 1000,
		EndLedger:   1005,
		Format:      "full",
	})
	if fault != nil {
		t.Fatalf("fault: %v", fault)
	}

	r := result.(*EventsResult)
	raw, ok := r.Events.([]json.RawMessage)
	if !ok {
		t.Fatalf("Events type %T, want []json.RawMessage", r.Events)
	}
	if len(raw) != 4 {
		t.Fatalf("len = %d, want 4", len(raw))
	}
	if !strings.Contains(string(raw[0]), `"from":"GAAA"`) {
		t.Errorf("raw[0] = %s, want source object verbatim", raw[0])
	}
}

func TestExtract_LimitTruncates(t *testing.T) {
	dir := t.TempDir()
	installProcessor(t, dir, "token-transfer", summaryScript)
	e := newTestEngine(t, dir, nil)

	result, fault := e.Extract(context.Background(), ExtractRequest{
		Processor:   "token-transfer",
		StartLedger: 1000,
		EndLedger:   1005,
		Limit:       2,
	})
	if fault != nil {
		t.Fatalf("fault: %v", fault)
	}

	r := result.(*EventsResult)
	if r.Count != 2 {
		t.Errorf("Count = %d, want 2 (head cap)", r.Count)
	}
	if !r.Truncated {
		t.Error("Truncated = false, want true when count >= limit")
	}
}

func TestExtract_EmptyOutputIsNotAnError(t *testing.T) {
	dir := t.TempDir()
	installProcessor(t, dir, "contract-events", "#!/bin/sh\nexit 0\n")
	e := newTestEngine(t, dir, nil)

	result, fault := e.Extract(context.Background(), ExtractRequest{
		Processor:   "contract-events",
		StartLedger: 1,
		EndLedger:   2,
	})
	if fault != nil {
		t.Fatalf("fault: %v", fault)
	}
	if r := result.(*EventsResult); r.Count != 0 || r.Truncated {
		t.Errorf("Count/Truncated = %d/%v, want 0/false", r.Count, r.Truncated)
	}
}

func TestExtract_ProcessorNotFound(t *testing.T) {
	e := newTestEngine(t, t.TempDir(), nil)

	_, fault := e.Extract(context.Background(), ExtractRequest{
		Processor:   "token-transfer",
		StartLedger: 1,
		EndLedger:   2,
	})
	if fault == nil {
		t.Fatal("expected fault")
	}
	if fault.Message != "Processor 'token-transfer' not found" {
		t.Errorf("Message = %q", fault.Message)
	}
	if fault.Suggestion != "Install with: nebu install token-transfer" {
		t.Errorf("Suggestion = %q", fault.Suggestion)
	}
	if len(fault.Searched) == 0 || fault.Searched[0] != "PATH" {
		t.Errorf("Searched = %v, want PATH first", fault.Searched)
	}
}

func TestExtract_RangeInverted(t *testing.T) {
	e := newTestEngine(t, t.TempDir(), nil)

	_, fault := e.Extract(context.Background(), ExtractRequest{
		Processor:   "token-transfer",
		StartLedger: 1005,
		EndLedger:   1000,
	})
	if fault == nil {
		t.Fatal("expected fault")
	}
	if !strings.Contains(fault.Message, "end_ledger must be >= start_ledger") {
		t.Errorf("Message = %q", fault.Message)
	}
}

func TestExtract_RangeTooLarge(t *testing.T) {
	e := newTestEngine(t, t.TempDir(), nil)

	_, fault := e.Extract(context.Background(), ExtractRequest{
		Processor:   "token-transfer",
		StartLedger: 1000,
		EndLedger:   1500,
	})
	if fault == nil {
		t.Fatal("expected fault")
	}
	if !strings.Contains(fault.Message, "Ledger range too large (500)") {
		t.Errorf("Message = %q", fault.Message)
	}
	if fault.Suggestion != "Try a smaller range: --start-ledger 1000 --end-ledger 1100" {
		t.Errorf("Suggestion = %q", fault.Suggestion)
	}
}

func TestExtract_Timeout(t *testing.T) {
	dir := t.TempDir()
	installProcessor(t, dir, "slow-origin", "#!/bin/sh\nsleep 30\n")
	e := newTestEngine(t, dir, &config.Config{RawTimeout: "300ms"})

	_, fault := e.Extract(context.Background(), ExtractRequest{
		Processor:   "slow-origin",
		StartLedger: 1,
		EndLedger:   2,
	})
	if fault == nil {
		t.Fatal("expected fault")
	}
	if !strings.Contains(fault.Message, "timed out") {
		t.Errorf("Message = %q, want timeout", fault.Message)
	}
	if !strings.Contains(fault.Suggestion, "smaller ledger range") {
		t.Errorf("Suggestion = %q", fault.Suggestion)
	}
}

func TestExtract_NonZeroExit(t *testing.T) {
	dir := t.TempDir()
	installProcessor(t, dir, "broken", "#!/bin/sh\necho 'rpc connection refused' >&2\nexit 2\n")
	e := newTestEngine(t, dir, nil)

	_, fault := e.Extract(context.Background(), ExtractRequest{
		Processor:   "broken",
		StartLedger: 1,
		EndLedger:   2,
	})
	if fault == nil {
		t.Fatal("expected fault")
	}
	if !strings.Contains(fault.Message, "Extraction failed: rpc connection refused") {
		t.Errorf("Message = %q", fault.Message)
	}
}

func TestExtract_MissingBinaryStderr(t *testing.T) {
	dir := t.TempDir()
	installProcessor(t, dir, "half-installed", "#!/bin/sh\necho 'helper: command not found' >&2\nexit 127\n")
	e := newTestEngine(t, dir, nil)

	_, fault := e.Extract(context.Background(), ExtractRequest{
		Processor:   "half-installed",
		StartLedger: 1,
		EndLedger:   2,
	})
	if fault == nil {
		t.Fatal("expected fault")
	}
	if fault.Message != "Processor 'half-installed' not found or not installed" {
		t.Errorf("Message = %q", fault.Message)
	}
	if !strings.Contains(fault.Suggestion, "nebu install half-installed") {
		t.Errorf("Suggestion = %q", fault.Suggestion)
	}
}

func TestPipeline_TwoStages(t *testing.T) {
	dir := t.TempDir()
	installProcessor(t, dir, "token-transfer", summaryScript)
	installProcessor(t, dir, "usdc-filter", "#!/bin/sh\ngrep USDC\n")
	e := newTestEngine(t, dir, nil)

	result, fault := e.Pipeline(context.Background(), PipelineRequest{
		Pipeline:    "token-transfer | usdc-filter",
		StartLedger: 1000,
		EndLedger:   1005,
	})
	if fault != nil {
		t.Fatalf("fault: %v", fault)
	}

	r := result.(*EventsResult)
	if r.Count != 3 {
		t.Errorf("Count = %d, want 3 (XLM transfer filtered out)", r.Count)
	}
	if r.Pipeline != "token-transfer | usdc-filter" {
		t.Errorf("Pipeline = %q, want the caller's expression", r.Pipeline)
	}
}

func TestPipeline_UnresolvedStage(t *testing.T) {
	dir := t.TempDir()
	installProcessor(t, dir, "a", summaryScript)
	e := newTestEngine(t, dir, nil)

	_, fault := e.Pipeline(context.Background(), PipelineRequest{
		Pipeline:    "a | b --x 5",
		StartLedger: 1,
		EndLedger:   2,
	})
	if fault == nil {
		t.Fatal("expected fault")
	}
	if fault.Message != "Processor 'b' not found" {
		t.Errorf("Message = %q, want to name stage b", fault.Message)
	}
	if fault.Suggestion != "Install with: nebu install b" {
		t.Errorf("Suggestion = %q", fault.Suggestion)
	}
}

func TestPipeline_Empty(t *testing.T) {
	e := newTestEngine(t, t.TempDir(), nil)

	_, fault := e.Pipeline(context.Background(), PipelineRequest{
		Pipeline:    "  ",
		StartLedger: 1,
		EndLedger:   2,
	})
	if fault == nil {
		t.Fatal("expected fault for empty pipeline")
	}
}

func TestClampLimit(t *testing.T) {
	e := newTestEngine(t, t.TempDir(), &config.Config{RawDefaultLimit: 100, RawMaxLimit: 1000})

	cases := []struct {
		in, want int
	}{
		{0, 100},
		{-5, 100},
		{1, 1},
		{500, 500},
		{1000, 1000},
		{5000, 1000},
	}
	for _, tc := range cases {
		if got := e.clampLimit(tc.in); got != tc.want {
			t.Errorf("clampLimit(%d) = %d, want %d", tc.in, got, tc.want)
		}
	}
}

func TestExtract_RecordsRunLog(t *testing.T) {
	dir := t.TempDir()
	installProcessor(t, dir, "token-transfer", summaryScript)
	e := newTestEngine(t, dir, nil)

	if _, fault := e.Extract(context.Background(), ExtractRequest{
		Processor:   "token-transfer",
		StartLedger: 1000,
		EndLedger:   1005,
	}); fault != nil {
		t.Fatalf("fault: %v", fault)
	}

	recent := e.Log.Recent(1)
	if len(recent) != 1 {
		t.Fatalf("runlog records = %d, want 1", len(recent))
	}
	rec := recent[0]
	if rec.Tool != "extract" {
		t.Errorf("Tool = %q, want extract", rec.Tool)
	}
	if rec.Events != 4 {
		t.Errorf("Events = %d, want 4", rec.Events)
	}
	if !strings.Contains(rec.Command, "--start-ledger 1000") {
		t.Errorf("Command = %q", rec.Command)
	}
}
