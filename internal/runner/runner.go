// Package runner executes composed commands with hard wall-clock
// timeouts and output size limits. Shell chains run in their own
// process group so a timeout kills every pipeline stage, not just the
// head of the pipe.
package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"syscall"
	"time"

	"github.com/google/uuid"
)

// sigpipeExit is the shell's report of a final stage killed by SIGPIPE
// (128 + 13). The chain runs without pipefail, so this only surfaces
// when the tail stage itself takes the signal; it is expected at the
// line cap, not a failure.
const sigpipeExit = 141

// Runner executes commands with bounded captured output.
type Runner struct {
	MaxOutput int // bytes per stream
}

// RunShell executes a composed shell chain via `sh -c` with stdin at
// /dev/null (a stage must never block on input that will not arrive;
// the parent's stdin carries the agent protocol). The child runs in
// its own process group; on timeout the whole group is killed before
// returning.
func (r *Runner) RunShell(ctx context.Context, command string, timeout time.Duration) (*Result, error) {
	if command == "" {
		return nil, fmt.Errorf("empty command")
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.Command("sh", "-c", command)
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	// cmd.Stdin left nil: the child reads from /dev/null.

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &limitWriter{buf: &stdout, limit: r.maxOutput()}
	cmd.Stderr = &limitWriter{buf: &stderr, limit: r.maxOutput()}

	start := time.Now()
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("starting shell: %w", err)
	}

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	result := &Result{RunID: uuid.New().String()}

	select {
	case waitErr := <-done:
		result.Duration = time.Since(start)
		result.ExitCode = exitCode(waitErr)
		if waitErr != nil && result.ExitCode < 0 {
			var exitErr *exec.ExitError
			if !errors.As(waitErr, &exitErr) {
				return nil, fmt.Errorf("executing shell: %w", waitErr)
			}
		}
		if result.ExitCode == 0 || result.ExitCode == sigpipeExit {
			result.Outcome = Success
		} else {
			result.Outcome = NonZeroExit
		}
	case <-ctx.Done():
		// Kill the entire process group, then reap the shell. A plain
		// kill of cmd.Process would orphan later pipeline stages.
		_ = syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
		<-done
		result.Duration = time.Since(start)
		result.ExitCode = -1
		result.Outcome = TimedOut
	}

	result.Stdout = stdout.Bytes()
	result.Stderr = stderr.Bytes()
	return result, nil
}

// Run executes a plain argv (no shell) with the given timeout. Used for
// discovery calls like `nebu list --json` where no pipe chain exists.
func (r *Runner) Run(ctx context.Context, argv []string, timeout time.Duration) (*Result, error) {
	if len(argv) == 0 {
		return nil, fmt.Errorf("empty argv")
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &limitWriter{buf: &stdout, limit: r.maxOutput()}
	cmd.Stderr = &limitWriter{buf: &stderr, limit: r.maxOutput()}

	start := time.Now()
	runErr := cmd.Run()

	result := &Result{
		RunID:    uuid.New().String(),
		Duration: time.Since(start),
		Stdout:   stdout.Bytes(),
		Stderr:   stderr.Bytes(),
	}

	if ctx.Err() == context.DeadlineExceeded {
		result.ExitCode = -1
		result.Outcome = TimedOut
		return result, nil
	}

	result.ExitCode = exitCode(runErr)
	if runErr != nil && result.ExitCode < 0 {
		var exitErr *exec.ExitError
		if !errors.As(runErr, &exitErr) {
			// Binary not found or other exec error.
			return nil, fmt.Errorf("executing %s: %w", argv[0], runErr)
		}
	}
	if result.ExitCode == 0 {
		result.Outcome = Success
	} else {
		result.Outcome = NonZeroExit
	}
	return result, nil
}

func (r *Runner) maxOutput() int {
	if r.MaxOutput > 0 {
		return r.MaxOutput
	}
	return 10 << 20
}

func exitCode(waitErr error) int {
	if waitErr == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(waitErr, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}

// limitWriter writes up to limit bytes to buf, then silently discards the rest.
type limitWriter struct {
	buf   *bytes.Buffer
	limit int
}

func (w *limitWriter) Write(p []byte) (int, error) {
	remaining := w.limit - w.buf.Len()
	if remaining <= 0 {
		return len(p), nil // discard
	}
	if len(p) > remaining {
		// Write only what fits, but report all bytes as consumed
		// to avoid short write errors from io.Copy.
		w.buf.Write(p[:remaining])
		return len(p), nil
	}
	return w.buf.Write(p)
}
