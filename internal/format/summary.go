package format

import (
	"github.com/withObsrvr/nebu-mcp/internal/event"
	"github.com/withObsrvr/nebu-mcp/internal/ledger"
)

// unknownAsset labels matched events that carry no assetCode.
const unknownAsset = "unknown"

// SummaryResult aggregates event counts for the summary format.
// ledger_range echoes the caller's range, not bounds derived from data.
type SummaryResult struct {
	TotalEvents int            `json:"total_events"`
	ByType      map[string]int `json:"by_type"`
	ByAsset     map[string]int `json:"by_asset"`
	LedgerRange [2]int64       `json:"ledger_range"`
	Truncated   bool           `json:"truncated"`
}

// Summarize counts events by kind and by asset code. Events with no
// vocabulary kind contribute to total_events only, so by_type sums to
// the number of kind-matched events.
func Summarize(events []event.Event, rng ledger.Range, limit int) *SummaryResult {
	s := &SummaryResult{
		TotalEvents: len(events),
		ByType:      make(map[string]int),
		ByAsset:     make(map[string]int),
		LedgerRange: [2]int64{rng.Start, rng.End},
		Truncated:   len(events) >= limit,
	}

	for _, ev := range events {
		if ev.Kind == "" {
			continue
		}
		s.ByType[string(ev.Kind)]++

		asset, _ := ev.Body["assetCode"].(string)
		if asset == "" {
			asset = unknownAsset
		}
		s.ByAsset[asset]++
	}

	return s
}
