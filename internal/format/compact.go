package format

import "github.com/withObsrvr/nebu-mcp/internal/event"

// shortTxLen is how many hash characters survive compaction.
const shortTxLen = 12

// CompactEvent is the reduced per-event shape. Every field is optional;
// fields absent from the source event are omitted.
type CompactEvent struct {
	Type   string `json:"type,omitempty"`
	Ledger int64  `json:"ledger,omitempty"`
	Tx     string `json:"tx,omitempty"`
	From   string `json:"from,omitempty"`
	To     string `json:"to,omitempty"`
	Amount any    `json:"amount,omitempty"`
	Asset  string `json:"asset,omitempty"`
}

// CompactOne projects a single event to its compact form.
func CompactOne(ev event.Event) CompactEvent {
	c := CompactEvent{
		Type:   string(ev.Kind),
		Ledger: ev.Meta.LedgerSequence,
	}

	if ev.Meta.TxHash != "" {
		tx := ev.Meta.TxHash
		if len(tx) > shortTxLen {
			tx = tx[:shortTxLen]
		}
		c.Tx = tx + "..."
	}

	if ev.Body != nil {
		c.From, _ = ev.Body["from"].(string)
		c.To, _ = ev.Body["to"].(string)
		c.Amount = ev.Body["amount"]
		c.Asset, _ = ev.Body["assetCode"].(string)
	}

	return c
}

// CompactAll projects every event in order.
func CompactAll(events []event.Event) []CompactEvent {
	out := make([]CompactEvent, len(events))
	for i, ev := range events {
		out[i] = CompactOne(ev)
	}
	return out
}
