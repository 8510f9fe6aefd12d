// Package format reduces decoded events to one of three output tiers,
// trading completeness for response size.
package format

import "fmt"

// Format selects an output projection.
type Format string

const (
	// Full passes decoded events through unchanged.
	Full Format = "full"
	// Compact keeps only the essential fields per event.
	Compact Format = "compact"
	// Summary aggregates counts by type and by asset.
	Summary Format = "summary"
)

// Parse validates a format name, defaulting to fallback when empty.
func Parse(s, fallback string) (Format, error) {
	if s == "" {
		s = fallback
	}
	switch Format(s) {
	case Full, Compact, Summary:
		return Format(s), nil
	}
	return "", fmt.Errorf("unknown format %q (want full, compact, or summary)", s)
}
