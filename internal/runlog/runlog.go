// Package runlog keeps a bounded in-memory history of recent
// executions for debugging. Records hold command diagnostics only —
// never event payloads.
package runlog

import (
	"fmt"
	"sync"
	"time"

	"github.com/withObsrvr/nebu-mcp/internal/runner"
)

// Record is one execution's diagnostics.
type Record struct {
	ID         string         `json:"id"`
	Tool       string         `json:"tool"`
	Command    string         `json:"command"`
	Outcome    runner.Outcome `json:"outcome"`
	ExitCode   int            `json:"exit_code"`
	Duration   time.Duration  `json:"-"`
	DurationMS int64          `json:"duration_ms"`
	Events     int            `json:"events"`
	StderrTail string         `json:"stderr_tail,omitempty"`
}

// Log is a fixed-capacity history, most recent first. Oldest records
// are evicted once capacity is exceeded.
type Log struct {
	mu  sync.Mutex
	cap int

	// Doubly-linked list, most recent at head.
	head, tail *entry
	items      map[string]*entry
}

type entry struct {
	record Record
	prev   *entry
	next   *entry
}

// New creates a Log with the given capacity. Capacity must be >= 1.
func New(cap int) *Log {
	if cap < 1 {
		cap = 1
	}
	return &Log{
		cap:   cap,
		items: make(map[string]*entry, cap),
	}
}

// Add records an execution, evicting the oldest record when full.
func (l *Log) Add(rec Record) {
	rec.DurationMS = rec.Duration.Milliseconds()

	l.mu.Lock()
	defer l.mu.Unlock()

	if e, ok := l.items[rec.ID]; ok {
		e.record = rec
		l.moveToFront(e)
		return
	}

	e := &entry{record: rec}
	l.items[rec.ID] = e
	l.pushFront(e)
	if len(l.items) > l.cap {
		l.evict()
	}
}

// Get returns the record with the given run ID.
func (l *Log) Get(id string) (Record, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.items[id]
	if !ok {
		return Record{}, fmt.Errorf("run %s not found", id)
	}
	return e.record, nil
}

// Recent returns up to n records, most recent first.
func (l *Log) Recent(n int) []Record {
	l.mu.Lock()
	defer l.mu.Unlock()

	var out []Record
	for e := l.head; e != nil && len(out) < n; e = e.next {
		out = append(out, e.record)
	}
	return out
}

func (l *Log) pushFront(e *entry) {
	e.prev = nil
	e.next = l.head
	if l.head != nil {
		l.head.prev = e
	}
	l.head = e
	if l.tail == nil {
		l.tail = e
	}
}

func (l *Log) moveToFront(e *entry) {
	if l.head == e {
		return
	}
	l.remove(e)
	l.pushFront(e)
}

func (l *Log) remove(e *entry) {
	if e.prev != nil {
		e.prev.next = e.next
	} else {
		l.head = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	} else {
		l.tail = e.prev
	}
	e.prev = nil
	e.next = nil
}

func (l *Log) evict() {
	if l.tail == nil {
		return
	}
	e := l.tail
	l.remove(e)
	delete(l.items, e.record.ID)
}
