package runner

import (
	"context"
	"strings"
	"testing"
	"time"
)

func TestRunShell_Success(t *testing.T) {
	r := &Runner{}
	res, err := r.RunShell(context.Background(), "echo hello", 10*time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Outcome != Success {
		t.Errorf("Outcome = %s, want success", res.Outcome)
	}
	if res.ExitCode != 0 {
		t.Errorf("ExitCode = %d, want 0", res.ExitCode)
	}
	if !strings.Contains(string(res.Stdout), "hello") {
		t.Errorf("Stdout = %q, want to contain 'hello'", res.Stdout)
	}
	if res.RunID == "" {
		t.Error("RunID is empty")
	}
}

func TestRunShell_EmptyStdoutIsSuccess(t *testing.T) {
	r := &Runner{}
	res, err := r.RunShell(context.Background(), "true", 10*time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Outcome != Success {
		t.Errorf("Outcome = %s, want success", res.Outcome)
	}
	if len(res.Stdout) != 0 {
		t.Errorf("Stdout = %q, want empty", res.Stdout)
	}
}

func TestRunShell_NonZeroExit(t *testing.T) {
	r := &Runner{}
	res, err := r.RunShell(context.Background(), "echo oops >&2; exit 3", 10*time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Outcome != NonZeroExit {
		t.Errorf("Outcome = %s, want non_zero_exit", res.Outcome)
	}
	if res.ExitCode != 3 {
		t.Errorf("ExitCode = %d, want 3", res.ExitCode)
	}
	if !strings.Contains(string(res.Stderr), "oops") {
		t.Errorf("Stderr = %q, want to contain 'oops'", res.Stderr)
	}
}

func TestRunShell_SigpipeExitIsSuccess(t *testing.T) {
	r := &Runner{}
	res, err := r.RunShell(context.Background(), "exit 141", 10*time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Outcome != Success {
		t.Errorf("Outcome = %s, want success for exit 141 (SIGPIPE at line cap)", res.Outcome)
	}
}

func TestRunShell_HeadCapTruncatesChain(t *testing.T) {
	r := &Runner{}
	res, err := r.RunShell(context.Background(), "yes '{}' | head -n 3", 10*time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Outcome != Success {
		t.Errorf("Outcome = %s, want success (stderr: %s)", res.Outcome, res.Stderr)
	}
	lines := strings.Count(string(res.Stdout), "\n")
	if lines != 3 {
		t.Errorf("lines = %d, want 3", lines)
	}
}

func TestRunShell_TimeoutKillsPipelineGroup(t *testing.T) {
	r := &Runner{}
	start := time.Now()
	res, err := r.RunShell(context.Background(), "sleep 30 | sleep 30", 100*time.Millisecond)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Outcome != TimedOut {
		t.Errorf("Outcome = %s, want timed_out", res.Outcome)
	}
	// The whole process group must be reaped before returning; if any
	// stage survived the kill, Wait would have blocked far longer.
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("RunShell took %s after timeout, group not killed", elapsed)
	}
}

func TestRunShell_OutputCap(t *testing.T) {
	r := &Runner{MaxOutput: 100}
	res, err := r.RunShell(context.Background(), "dd if=/dev/zero bs=200 count=1 2>/dev/null", 10*time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Stdout) > 100 {
		t.Errorf("len(Stdout) = %d, want <= 100", len(res.Stdout))
	}
}

func TestRunShell_EmptyCommand(t *testing.T) {
	r := &Runner{}
	if _, err := r.RunShell(context.Background(), "", time.Second); err == nil {
		t.Fatal("expected error for empty command")
	}
}

func TestRun_Argv(t *testing.T) {
	r := &Runner{}
	res, err := r.Run(context.Background(), []string{"echo", "hi"}, 10*time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Outcome != Success {
		t.Errorf("Outcome = %s, want success", res.Outcome)
	}
	if !strings.Contains(string(res.Stdout), "hi") {
		t.Errorf("Stdout = %q, want to contain 'hi'", res.Stdout)
	}
}

func TestRun_BinaryNotFound(t *testing.T) {
	r := &Runner{}
	_, err := r.Run(context.Background(), []string{"nonexistent-binary-xyz-123"}, time.Second)
	if err == nil {
		t.Fatal("expected error for missing binary")
	}
	if !strings.Contains(err.Error(), "nonexistent-binary-xyz-123") {
		t.Errorf("error = %q, want to mention the binary name", err)
	}
}

func TestRun_EmptyArgv(t *testing.T) {
	r := &Runner{}
	if _, err := r.Run(context.Background(), nil, time.Second); err == nil {
		t.Fatal("expected error for empty argv")
	}
}
