package capture

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/KromDaniel/regvm/internal/program"
)

// Kind tags a structured capture value.
type Kind uint8

const (
	Void Kind = iota
	AtomKind
	ArrayKind
	SomeKind
	NoneKind
	TupleKind
)

// Capture is a structured capture value.
//
//   - Void: the pattern has no captures.
//   - AtomKind: one captured span (Matched is false for a group that never
//     participated outside any optional context).
//   - ArrayKind: one element per repetition.
//   - SomeKind / NoneKind: an optional group that did or did not match.
//   - TupleKind: sibling captures.
type Capture struct {
	Kind     Kind
	Name     string
	Range    program.Range
	Text     string
	Value    any
	HasValue bool
	Matched  bool
	Elements []Capture
}

// Some returns the wrapped value of a SomeKind capture.
func (c Capture) Some() (Capture, bool) {
	if c.Kind != SomeKind || len(c.Elements) == 0 {
		return Capture{}, false
	}
	return c.Elements[0], true
}

// Flatten returns every atom in depth-first order.
func (c Capture) Flatten() []Capture {
	var out []Capture
	var walk func(Capture)
	walk = func(c Capture) {
		if c.Kind == AtomKind {
			out = append(out, c)
			return
		}
		for _, e := range c.Elements {
			walk(e)
		}
	}
	walk(c)
	return out
}

func (c Capture) String() string {
	var b strings.Builder
	c.write(&b)
	return b.String()
}

func (c Capture) write(b *strings.Builder) {
	switch c.Kind {
	case Void:
		b.WriteString("()")
	case AtomKind:
		switch {
		case c.HasValue:
			fmt.Fprintf(b, "%v", c.Value)
		case c.Matched:
			b.WriteString(strconv.Quote(c.Text))
		default:
			b.WriteString("<unmatched>")
		}
	case NoneKind:
		b.WriteString("none")
	case SomeKind:
		b.WriteString("some(")
		if len(c.Elements) > 0 {
			c.Elements[0].write(b)
		}
		b.WriteByte(')')
	case ArrayKind, TupleKind:
		open, close := byte('['), byte(']')
		if c.Kind == TupleKind {
			open, close = '(', ')'
		}
		b.WriteByte(open)
		for i, e := range c.Elements {
			if i > 0 {
				b.WriteString(", ")
			}
			e.write(b)
		}
		b.WriteByte(close)
	}
}
