// Package pipeline parses processor chains and composes them into a
// single bounded shell command. Composition is the only place untrusted
// text meets the shell: every token is quoted individually, and the
// shell is used solely for the `|` chain between stages.
package pipeline

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/withObsrvr/nebu-mcp/internal/ledger"
)

// ErrEmpty is returned when a pipeline expression contains no stages.
var ErrEmpty = errors.New("empty pipeline")

// UnresolvedStageError reports a stage whose processor name could not
// be resolved. Composition aborts on the first such stage, before any
// process is spawned.
type UnresolvedStageError struct {
	Name string
}

func (e *UnresolvedStageError) Error() string {
	return fmt.Sprintf("processor %q not found", e.Name)
}

// Resolver maps a logical processor name to an executable path.
// Implemented by processor.Locator.
type Resolver interface {
	Resolve(name string) (string, error)
}

// Stage is one element of a processor chain: the logical processor name
// and its remaining arguments as opaque tokens.
type Stage struct {
	Name string
	Args []string
}

// Spec is an ordered, non-empty processor chain.
type Spec struct {
	Stages []Stage
}

// Single builds a one-stage Spec for a bare processor invocation.
func Single(name string) *Spec {
	return &Spec{Stages: []Stage{{Name: name}}}
}

// Parse splits a pipeline expression on "|" into stages. Stage argument
// text is tokenized on whitespace; shell metacharacters never pass
// through unquoted.
func Parse(text string) (*Spec, error) {
	var stages []Stage
	for _, part := range strings.Split(text, "|") {
		fields := strings.Fields(part)
		if len(fields) == 0 {
			if strings.TrimSpace(text) == "" {
				return nil, ErrEmpty
			}
			return nil, fmt.Errorf("pipeline has an empty stage: %q", text)
		}
		stages = append(stages, Stage{Name: fields[0], Args: fields[1:]})
	}
	if len(stages) == 0 {
		return nil, ErrEmpty
	}
	return &Spec{Stages: stages}, nil
}

// Compose resolves every stage and assembles the shell chain:
//
//	<path0> --start-ledger N --end-ledger M -q <args0> [| jq -c <filter>] [| <pathN> <argsN>]... | head -n <limit>
//
// Ledger arguments go to the first stage only; the trailing head stage
// caps total emitted lines, which backpressures every stage once the
// cap is reached. All stage names must resolve or composition fails
// naming the offending stage.
func Compose(spec *Spec, rng ledger.Range, filter string, limit int, res Resolver) (string, error) {
	if spec == nil || len(spec.Stages) == 0 {
		return "", ErrEmpty
	}

	var chain []string
	for i, stage := range spec.Stages {
		path, err := res.Resolve(stage.Name)
		if err != nil {
			return "", &UnresolvedStageError{Name: stage.Name}
		}

		argv := []string{path}
		if i == 0 {
			argv = append(argv,
				"--start-ledger", strconv.FormatInt(rng.Start, 10),
				"--end-ledger", strconv.FormatInt(rng.End, 10),
				"-q",
			)
		}
		argv = append(argv, stage.Args...)
		chain = append(chain, joinQuoted(argv))

		if i == 0 && filter != "" {
			chain = append(chain, joinQuoted([]string{"jq", "-c", filter}))
		}
	}

	chain = append(chain, "head -n "+strconv.Itoa(limit))
	return strings.Join(chain, " | "), nil
}

func joinQuoted(argv []string) string {
	quoted := make([]string, len(argv))
	for i, a := range argv {
		quoted[i] = Quote(a)
	}
	return strings.Join(quoted, " ")
}

// safeChars are tokens that need no quoting at all.
const safeChars = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789@%+=:,./_-"

// Quote wraps a token in POSIX single quotes unless it is trivially
// safe. Embedded single quotes are escaped as '\'' so untrusted text
// cannot terminate the shell string early.
func Quote(s string) string {
	if s == "" {
		return "''"
	}
	safe := true
	for _, r := range s {
		if !strings.ContainsRune(safeChars, r) {
			safe = false
			break
		}
	}
	if safe {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
