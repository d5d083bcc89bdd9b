// Package replace parses replacement templates and expands them against
// matches.
package replace

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/pkg/errors"
)

// ErrReference is returned when a template names a group the pattern does
// not have.
var ErrReference = errors.New("invalid group reference")

// SegmentKind tells a literal from a group reference.
type SegmentKind uint8

const (
	// Text is literal output.
	Text SegmentKind = iota
	// Group is a reference to a capture group. Group 0 is the whole match.
	Group
	// NamedGroup is a reference by name that has not been bound yet.
	NamedGroup
)

// Segment is one piece of a template.
type Segment struct {
	Kind  SegmentKind
	Text  string // Text: the literal; NamedGroup: the group name
	Group int    // Group: the group number
}

// Template is a parsed replacement template.
//
// Syntax:
//   - $0 or ${0}: the whole match
//   - $1 .. $99 or ${N}: a group by number
//   - $name or ${name}: a group by name
//   - $$: a literal dollar sign
//
// A "$" that starts none of these is literal.
type Template struct {
	Source   string
	Segments []Segment
}

// Parse parses a replacement template.
func Parse(src string) (*Template, error) {
	t := &Template{Source: src}
	var lit strings.Builder
	flush := func() {
		if lit.Len() > 0 {
			t.Segments = append(t.Segments, Segment{Kind: Text, Text: lit.String()})
			lit.Reset()
		}
	}

	for i := 0; i < len(src); {
		if src[i] != '$' || i+1 == len(src) {
			lit.WriteByte(src[i])
			i++
			continue
		}
		next := src[i+1]
		switch {
		case next == '$':
			lit.WriteByte('$')
			i += 2
		case next == '{':
			seg, n, err := parseBraced(src[i:])
			if err != nil {
				return nil, errors.Wrapf(err, "at offset %d", i)
			}
			flush()
			t.Segments = append(t.Segments, seg)
			i += n
		case next >= '0' && next <= '9':
			n := 2
			group := int(next - '0')
			if group > 0 && i+2 < len(src) && isDigit(src[i+2]) {
				group = group*10 + int(src[i+2]-'0')
				n = 3
			}
			flush()
			t.Segments = append(t.Segments, Segment{Kind: Group, Group: group})
			i += n
		case isASCIIName(next, true):
			end := i + 2
			for end < len(src) && isASCIIName(src[end], false) {
				end++
			}
			flush()
			t.Segments = append(t.Segments, Segment{Kind: NamedGroup, Text: src[i+1 : end]})
			i = end
		default:
			lit.WriteByte('$')
			i++
		}
	}
	flush()
	return t, nil
}

// parseBraced parses "${...}" at the start of s and returns the number of
// bytes it spans.
func parseBraced(s string) (Segment, int, error) {
	end := strings.IndexByte(s, '}')
	if end < 0 {
		return Segment{}, 0, errors.New("unclosed ${")
	}
	ref := s[2:end]
	switch {
	case ref == "":
		return Segment{}, 0, errors.New("empty ${}")
	case isDigit(ref[0]):
		group := 0
		for i := 0; i < len(ref); i++ {
			if !isDigit(ref[i]) {
				return Segment{}, 0, errors.Errorf("invalid group number ${%s}", ref)
			}
			group = group*10 + int(ref[i]-'0')
		}
		return Segment{Kind: Group, Group: group}, end + 1, nil
	case !isName(ref):
		return Segment{}, 0, errors.Errorf("invalid group name ${%s}", ref)
	}
	return Segment{Kind: NamedGroup, Text: ref}, end + 1, nil
}

// Bind resolves named references against names, the group names in group
// order, and checks that every group number exists.
func (t *Template) Bind(names []string) (*Template, error) {
	bound := &Template{Source: t.Source, Segments: make([]Segment, len(t.Segments))}
	for i, seg := range t.Segments {
		switch seg.Kind {
		case NamedGroup:
			group := 0
			for j, name := range names {
				if name == seg.Text {
					group = j + 1
					break
				}
			}
			if group == 0 {
				return nil, errors.Wrapf(ErrReference, "no group named %q", seg.Text)
			}
			seg = Segment{Kind: Group, Group: group}
		case Group:
			if seg.Group > len(names) {
				return nil, errors.Wrapf(ErrReference, "group %d of %d", seg.Group, len(names))
			}
		}
		bound.Segments[i] = seg
	}
	return bound, nil
}

// Groups supplies the text of a match and its groups. ok is false for a
// group that did not participate.
type Groups interface {
	String() string
	GroupText(i int) (text string, ok bool)
}

// Expand appends the template expanded against m to b. The template must be
// bound; unbound names and groups that did not participate expand to "".
func (t *Template) Expand(b *strings.Builder, m Groups) {
	for _, seg := range t.Segments {
		switch {
		case seg.Kind == Text:
			b.WriteString(seg.Text)
		case seg.Kind == Group && seg.Group == 0:
			b.WriteString(m.String())
		case seg.Kind == Group:
			if text, ok := m.GroupText(seg.Group); ok {
				b.WriteString(text)
			}
		}
	}
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isNameStart(r rune) bool {
	return r == '_' || unicode.IsLetter(r)
}

func isNameContinue(r rune) bool {
	return isNameStart(r) || unicode.IsDigit(r)
}

// isASCIIName reports whether c may start (or continue) an unbraced name.
func isASCIIName(c byte, start bool) bool {
	if c >= utf8.RuneSelf {
		return false
	}
	if start {
		return isNameStart(rune(c))
	}
	return isNameContinue(rune(c))
}

func isName(s string) bool {
	for i, r := range s {
		if i == 0 && !isNameStart(r) || !isNameContinue(r) {
			return false
		}
	}
	return s != ""
}
