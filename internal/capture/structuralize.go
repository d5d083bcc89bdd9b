package capture

import (
	"github.com/pkg/errors"

	"github.com/KromDaniel/regvm/internal/program"
)

// cursor walks the flat capture list in register order.
type cursor struct {
	caps []StoredCapture
	i    int
}

func (c *cursor) next() (StoredCapture, error) {
	if c.i >= len(c.caps) {
		return StoredCapture{}, errors.Wrapf(program.ErrCaptureMismatch, "structure needs register %d, have %d", c.i, len(c.caps))
	}
	c.i++
	return c.caps[c.i-1], nil
}

func (c *cursor) peek() (StoredCapture, error) {
	if c.i >= len(c.caps) {
		return StoredCapture{}, errors.Wrapf(program.ErrCaptureMismatch, "structure needs register %d, have %d", c.i, len(c.caps))
	}
	return c.caps[c.i], nil
}

func (c *cursor) skip(n int) error {
	if c.i+n > len(c.caps) {
		return errors.Wrapf(program.ErrCaptureMismatch, "cannot skip %d registers at %d of %d", n, c.i, len(c.caps))
	}
	c.i += n
	return nil
}

type frame struct {
	node  *program.CaptureStructure
	next  int
	parts []Capture
}

// Structuralize builds the structured capture value described by s from the
// flat capture registers of a finished match. Registers are consumed in the
// same depth-first order in which the compiler allocated them.
func Structuralize(s program.CaptureStructure, caps []StoredCapture, input string) (Capture, error) {
	cur := cursor{caps: caps}
	stack := []frame{{node: &s}}

	var result Capture
	have := false
	for len(stack) > 0 {
		f := &stack[len(stack)-1]
		if have {
			switch f.node.Kind {
			case program.StructTuple:
				f.parts = append(f.parts, result)
				have = false
			case program.StructOptional:
				result = Capture{Kind: SomeKind, Elements: []Capture{result}}
				stack = stack[:len(stack)-1]
				continue
			default:
				return Capture{}, errors.Wrapf(program.ErrCaptureMismatch, "%s cannot hold a child value", f.node)
			}
		}

		switch f.node.Kind {
		case program.StructEmpty:
			result, have = Capture{Kind: Void}, true
			stack = stack[:len(stack)-1]

		case program.StructAtom:
			reg, err := cur.next()
			if err != nil {
				return Capture{}, err
			}
			result, have = atom(f.node.Name, reg, input), true
			stack = stack[:len(stack)-1]

		case program.StructArray:
			child := f.node.Child()
			if child.CaptureCount() != 1 {
				return Capture{}, errors.Wrapf(program.ErrCaptureMismatch, "array of %s", child)
			}
			reg, err := cur.next()
			if err != nil {
				return Capture{}, err
			}
			elems, err := elements(child, reg.History(), input)
			if err != nil {
				return Capture{}, err
			}
			result, have = Capture{Kind: ArrayKind, Elements: elems}, true
			stack = stack[:len(stack)-1]

		case program.StructOptional:
			reg, err := cur.peek()
			if err != nil {
				return Capture{}, err
			}
			child := &f.node.Children[0]
			if reg.IsEmpty() {
				if err := cur.skip(child.CaptureCount()); err != nil {
					return Capture{}, err
				}
				result, have = Capture{Kind: NoneKind}, true
				stack = stack[:len(stack)-1]
				continue
			}
			stack = append(stack, frame{node: child})

		case program.StructTuple:
			if f.next < len(f.node.Children) {
				child := &f.node.Children[f.next]
				f.next++
				stack = append(stack, frame{node: child})
				continue
			}
			result, have = Capture{Kind: TupleKind, Elements: f.parts}, true
			stack = stack[:len(stack)-1]

		default:
			return Capture{}, errors.Wrapf(program.ErrCaptureMismatch, "unknown structure kind %d", f.node.Kind)
		}
	}
	if cur.i != len(caps) {
		return Capture{}, errors.Wrapf(program.ErrCaptureMismatch, "structure used %d of %d registers", cur.i, len(caps))
	}
	return result, nil
}

func atom(name string, reg StoredCapture, input string) Capture {
	e, ok := reg.LatestEntry()
	if !ok {
		return Capture{Kind: AtomKind, Name: name, Range: program.Range{Lo: -1, Hi: -1}}
	}
	return entryAtom(name, e, input)
}

func entryAtom(name string, e Entry, input string) Capture {
	return Capture{
		Kind:     AtomKind,
		Name:     name,
		Range:    e.Range,
		Text:     input[e.Range.Lo:e.Range.Hi],
		Value:    e.Value,
		HasValue: e.HasValue,
		Matched:  true,
	}
}

// elements builds one array element per history entry. The element shape is
// a chain of optionals and arrays around a single atom.
func elements(child program.CaptureStructure, history []Entry, input string) ([]Capture, error) {
	var chain []program.StructureKind
	node := child
	for node.Kind != program.StructAtom {
		if node.Kind != program.StructOptional && node.Kind != program.StructArray {
			return nil, errors.Wrapf(program.ErrCaptureMismatch, "array element %s", child)
		}
		chain = append(chain, node.Kind)
		node = node.Child()
	}
	out := make([]Capture, len(history))
	for i, e := range history {
		v := entryAtom(node.Name, e, input)
		for j := len(chain) - 1; j >= 0; j-- {
			kind := SomeKind
			if chain[j] == program.StructArray {
				kind = ArrayKind
			}
			v = Capture{Kind: kind, Elements: []Capture{v}}
		}
		out[i] = v
	}
	return out, nil
}
