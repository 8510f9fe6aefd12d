package extract

import "fmt"

// Fault is a terminal, caller-facing failure. Every fault is reported
// once, synchronously; there are no retries. Suggestion, when present,
// tells the agent how to adjust the call (narrower range, install
// command, simpler pipeline).
type Fault struct {
	Message    string   `json:"error"`
	Suggestion string   `json:"suggestion,omitempty"`
	Searched   []string `json:"searched,omitempty"`
}

func (f *Fault) Error() string { return f.Message }

func faultf(format string, args ...any) *Fault {
	return &Fault{Message: fmt.Sprintf(format, args...)}
}

func (f *Fault) suggest(format string, args ...any) *Fault {
	f.Suggestion = fmt.Sprintf(format, args...)
	return f
}
