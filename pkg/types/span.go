package types

import "fmt"

// OffsetSpan is byte range [Start, End) - half-open interval.
type OffsetSpan struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Span constructs an OffsetSpan.
func Span(start, end int) OffsetSpan {
	return OffsetSpan{Start: start, End: end}
}

// Len returns End - Start.
func (s OffsetSpan) Len() int {
	return s.End - s.Start
}

// Empty reports whether the span covers no bytes.
func (s OffsetSpan) Empty() bool {
	return s.End <= s.Start
}

// Within reports whether the span is well-formed and lies inside [0, length].
func (s OffsetSpan) Within(length int) bool {
	return s.Start >= 0 && s.Start <= s.End && s.End <= length
}

// Contains reports whether o lies entirely inside s.
func (s OffsetSpan) Contains(o OffsetSpan) bool {
	return s.Start <= o.Start && o.End <= s.End
}

// Shift moves both ends by delta.
func (s OffsetSpan) Shift(delta int) OffsetSpan {
	return OffsetSpan{Start: s.Start + delta, End: s.End + delta}
}

// Cover returns the smallest span containing s and o.
func (s OffsetSpan) Cover(o OffsetSpan) OffsetSpan {
	return OffsetSpan{Start: min(s.Start, o.Start), End: max(s.End, o.End)}
}

// String renders the span as [start,end).
func (s OffsetSpan) String() string {
	return fmt.Sprintf("[%d,%d)", s.Start, s.End)
}

// ID is the identity of a span in a host annotation store.
// The zero ID means the span has no external identity.
type ID int64

// Valid reports whether the ID refers to a stored span.
func (id ID) Valid() bool {
	return id != 0
}
