// Package capture holds the per-group capture records written by the
// processor and turns them into structured capture values.
package capture

import "github.com/KromDaniel/regvm/internal/program"

// span is one entry of a capture history. Histories are persistent lists:
// entries are never mutated, so a snapshot is a pointer copy.
type span struct {
	rng      program.Range
	value    any
	hasValue bool
	prev     *span
	depth    int
}

// Entry is a single recorded capture.
type Entry struct {
	Range    program.Range
	Value    any
	HasValue bool
}

// StoredCapture is the record of one capture group during a match. The
// zero value is an empty capture. Copying a StoredCapture yields an
// independent snapshot.
type StoredCapture struct {
	top   *span
	start int
	open  bool
}

// Begin records the position where the group was entered.
func (c *StoredCapture) Begin(pos int) {
	c.start = pos
	c.open = true
}

// End appends the span from the begin position to pos. The span is
// normalized so reverse matching produces the same ranges.
func (c *StoredCapture) End(pos int) bool {
	if !c.open {
		return false
	}
	lo, hi := c.start, pos
	if lo > hi {
		lo, hi = hi, lo
	}
	c.Push(program.Range{Lo: lo, Hi: hi})
	c.open = false
	return true
}

// Push appends r to the history.
func (c *StoredCapture) Push(r program.Range) {
	depth := 1
	if c.top != nil {
		depth = c.top.depth + 1
	}
	c.top = &span{rng: r, prev: c.top, depth: depth}
}

// SetValue attaches a transformed value to the latest span.
func (c *StoredCapture) SetValue(v any) bool {
	if c.top == nil {
		return false
	}
	top := *c.top
	top.value, top.hasValue = v, true
	c.top = &top
	return true
}

// TruncateAfter drops spans that reach beyond pos (before pos when
// reverse), which are the spans of repetitions a quantifier gave back.
func (c *StoredCapture) TruncateAfter(pos int, reverse bool) {
	for c.top != nil {
		if reverse && c.top.rng.Lo >= pos || !reverse && c.top.rng.Hi <= pos {
			return
		}
		c.top = c.top.prev
	}
}

// IsEmpty reports whether the group has never completed.
func (c StoredCapture) IsEmpty() bool { return c.top == nil }

// Len returns the number of recorded spans.
func (c StoredCapture) Len() int {
	if c.top == nil {
		return 0
	}
	return c.top.depth
}

// Latest returns the most recent span.
func (c StoredCapture) Latest() (program.Range, bool) {
	if c.top == nil {
		return program.Range{}, false
	}
	return c.top.rng, true
}

// LatestEntry returns the most recent span and its value.
func (c StoredCapture) LatestEntry() (Entry, bool) {
	if c.top == nil {
		return Entry{}, false
	}
	return Entry{Range: c.top.rng, Value: c.top.value, HasValue: c.top.hasValue}, true
}

// History returns all spans, oldest first.
func (c StoredCapture) History() []Entry {
	out := make([]Entry, c.Len())
	i := len(out) - 1
	for s := c.top; s != nil; s = s.prev {
		out[i] = Entry{Range: s.rng, Value: s.value, HasValue: s.hasValue}
		i--
	}
	return out
}
