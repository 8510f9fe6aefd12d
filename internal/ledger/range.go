// Package ledger validates inclusive ledger ranges before any process
// is spawned, guarding against unbounded extraction work.
package ledger

import (
	"errors"
	"fmt"
)

// ErrInverted is returned when end < start or start is negative.
var ErrInverted = errors.New("end_ledger must be >= start_ledger")

// TooLargeError is returned when a range spans more ledgers than allowed.
// SuggestedEnd is a valid replacement end starting at the same start.
type TooLargeError struct {
	Span         int64
	Max          int64
	SuggestedEnd int64
}

func (e *TooLargeError) Error() string {
	return fmt.Sprintf("ledger range too large (%d), maximum is %d ledgers per call", e.Span, e.Max)
}

// Range is a validated inclusive ledger range.
type Range struct {
	Start int64
	End   int64
}

// Ledgers returns the number of ledgers covered by the range.
func (r Range) Ledgers() int64 {
	return r.End - r.Start + 1
}

// Validate checks that 0 <= start <= end and end-start <= max.
func Validate(start, end, max int64) (Range, error) {
	if start < 0 || end < start {
		return Range{}, ErrInverted
	}
	if span := end - start; span > max {
		return Range{}, &TooLargeError{
			Span:         span,
			Max:          max,
			SuggestedEnd: start + max,
		}
	}
	return Range{Start: start, End: end}, nil
}
