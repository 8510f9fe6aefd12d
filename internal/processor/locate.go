// Package processor resolves logical processor names to executable paths.
package processor

import (
	"errors"
	"os"
	"os/exec"
	"path/filepath"
)

// ErrNotFound is returned when no candidate location holds an executable
// with the requested name.
var ErrNotFound = errors.New("processor not found")

// Locator searches for processor binaries. PATH is probed first, then
// each directory in Dirs in order. First match wins.
type Locator struct {
	Dirs []string
}

// Default returns a Locator probing the conventional install locations
// after PATH. extra directories, if any, are probed before the built-in
// ones.
func Default(extra ...string) *Locator {
	dirs := append([]string{}, extra...)
	if home, err := os.UserHomeDir(); err == nil {
		dirs = append(dirs,
			filepath.Join(home, "go", "bin"),
			filepath.Join(home, ".local", "bin"),
		)
	}
	dirs = append(dirs, "/usr/local/bin")
	return &Locator{Dirs: dirs}
}

// Resolve returns the executable path for a logical processor name.
// The search is a pure filesystem probe; results are not cached.
func (l *Locator) Resolve(name string) (string, error) {
	if name == "" {
		return "", ErrNotFound
	}

	if path, err := exec.LookPath(name); err == nil {
		return path, nil
	}

	for _, dir := range l.Dirs {
		candidate := filepath.Join(dir, name)
		if isExecutable(candidate) {
			return candidate, nil
		}
	}

	return "", ErrNotFound
}

// Searched lists the probed locations, for error payloads.
func (l *Locator) Searched() []string {
	out := make([]string, 0, len(l.Dirs)+1)
	out = append(out, "PATH")
	out = append(out, l.Dirs...)
	return out
}

func isExecutable(path string) bool {
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return false
	}
	return info.Mode().Perm()&0o111 != 0
}
