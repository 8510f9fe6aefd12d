// Package event decodes the newline-delimited JSON emitted by
// processors into a tagged event union. The wire shape is one object
// per line, keyed by event kind, plus a meta object:
//
//	{"transfer": {"from": "G...", "to": "G...", "amount": "100", "assetCode": "USDC"},
//	 "meta": {"ledgerSequence": 1000, "txHash": "abc..."}}
package event

import (
	"bytes"
	"encoding/json"
)

// Kind identifies an event's variant.
type Kind string

// The fixed event vocabulary. Detection checks keys in this order and
// the first match wins; an event object carries exactly one kind key.
const (
	Transfer Kind = "transfer"
	Mint     Kind = "mint"
	Burn     Kind = "burn"
	Clawback Kind = "clawback"
	Fee      Kind = "fee"
)

// Kinds is the detection order for the fixed vocabulary.
var Kinds = []Kind{Transfer, Mint, Burn, Clawback, Fee}

// Meta carries the ledger position of an event.
type Meta struct {
	LedgerSequence int64  `json:"ledgerSequence"`
	TxHash         string `json:"txHash"`
}

// Event is one decoded record. Kind is empty when no vocabulary key was
// present; Raw preserves the source object verbatim for full output.
// Events are never mutated, only projected into new output objects.
type Event struct {
	Kind Kind
	Body map[string]any
	Meta Meta
	Raw  json.RawMessage
}

// Decode splits raw processor output into events, one per non-empty
// line. Lines that fail to parse are dropped silently: the last line
// emitted before the pipe closes at the line cap may be incomplete.
// Decode is a pure function of its input and preserves source order.
func Decode(raw []byte) []Event {
	var events []Event
	for _, line := range bytes.Split(raw, []byte("\n")) {
		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}

		var obj map[string]json.RawMessage
		if err := json.Unmarshal(line, &obj); err != nil {
			continue
		}

		ev := Event{Raw: append(json.RawMessage(nil), line...)}
		for _, k := range Kinds {
			body, ok := obj[string(k)]
			if !ok {
				continue
			}
			var fields map[string]any
			if err := json.Unmarshal(body, &fields); err == nil {
				ev.Kind = k
				ev.Body = fields
			}
			break
		}
		if meta, ok := obj["meta"]; ok {
			_ = json.Unmarshal(meta, &ev.Meta)
		}

		events = append(events, ev)
	}
	return events
}
