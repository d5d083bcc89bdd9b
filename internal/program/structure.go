package program

import "strings"

// StructureKind tags a CaptureStructure node.
type StructureKind uint8

const (
	StructEmpty StructureKind = iota
	StructAtom
	StructArray
	StructOptional
	StructTuple
)

// CaptureStructure describes the shape of a pattern's captures. Atoms
// appear in the depth-first pre-order of the capture groups, which is also
// the order of the capture registers.
type CaptureStructure struct {
	Kind     StructureKind
	Name     string             // atoms only
	Children []CaptureStructure // one child for arrays and optionals
}

// EmptyStructure is the structure of a pattern without captures.
var EmptyStructure = CaptureStructure{Kind: StructEmpty}

// Atom returns a leaf for one capture group.
func Atom(name string) CaptureStructure {
	return CaptureStructure{Kind: StructAtom, Name: name}
}

// Array wraps a structure that may repeat.
func Array(child CaptureStructure) CaptureStructure {
	return CaptureStructure{Kind: StructArray, Children: []CaptureStructure{child}}
}

// Optional wraps a structure that may not participate.
func Optional(child CaptureStructure) CaptureStructure {
	return CaptureStructure{Kind: StructOptional, Children: []CaptureStructure{child}}
}

// Tuple groups sibling structures.
func Tuple(children ...CaptureStructure) CaptureStructure {
	return CaptureStructure{Kind: StructTuple, Children: children}
}

// Child returns the wrapped structure of an array or optional.
func (s CaptureStructure) Child() CaptureStructure {
	if len(s.Children) == 0 {
		return EmptyStructure
	}
	return s.Children[0]
}

// CaptureCount returns the number of atoms, which equals the number of
// capture registers the structure consumes.
func (s CaptureStructure) CaptureCount() int {
	switch s.Kind {
	case StructAtom:
		return 1
	case StructEmpty:
		return 0
	}
	n := 0
	for _, c := range s.Children {
		n += c.CaptureCount()
	}
	return n
}

func (s CaptureStructure) String() string {
	var b strings.Builder
	s.write(&b)
	return b.String()
}

func (s CaptureStructure) write(b *strings.Builder) {
	switch s.Kind {
	case StructEmpty:
		b.WriteString("empty")
	case StructAtom:
		b.WriteString("atom")
	case StructArray:
		b.WriteString("array(")
		s.Child().write(b)
		b.WriteByte(')')
	case StructOptional:
		b.WriteString("optional(")
		s.Child().write(b)
		b.WriteByte(')')
	case StructTuple:
		b.WriteString("tuple(")
		for i, c := range s.Children {
			if i > 0 {
				b.WriteString(", ")
			}
			c.write(b)
		}
		b.WriteByte(')')
	}
}
