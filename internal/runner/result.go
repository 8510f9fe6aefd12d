package runner

import "time"

// Outcome classifies how an execution ended.
type Outcome string

const (
	// Success means the command exited cleanly. Exit status 141
	// (SIGPIPE from the trailing head stage closing the pipe at the
	// line cap) also counts as success.
	Success Outcome = "success"
	// NonZeroExit means the command exited with a failure status.
	NonZeroExit Outcome = "non_zero_exit"
	// TimedOut means the wall-clock deadline expired and the process
	// group was killed.
	TimedOut Outcome = "timed_out"
)

// Result holds the output of one command execution.
type Result struct {
	RunID    string        // unique identifier for this run
	Outcome  Outcome       // how the execution ended
	ExitCode int           // process exit code (-1 when killed)
	Stdout   []byte        // captured stdout (may be truncated)
	Stderr   []byte        // captured stderr (may be truncated)
	Duration time.Duration // wall-clock time spent
}
