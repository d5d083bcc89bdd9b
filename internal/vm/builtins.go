package vm

import (
	"unicode"
	"unicode/utf8"

	"github.com/KromDaniel/regvm/internal/program"
	"github.com/KromDaniel/regvm/pkg/ast"
)

func isNewline(r rune) bool {
	switch r {
	case '\n', '\v', '\f', '\r', 0x85, 0x2028, 0x2029:
		return true
	}
	return false
}

func isHorizontalWhitespace(r rune) bool {
	return r == ' ' || r == '\t' || unicode.Is(unicode.Zs, r)
}

func isWordScalar(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsNumber(r) ||
		unicode.IsMark(r) || unicode.Is(unicode.Pc, r)
}

func isASCIIDigit(b byte) bool { return b >= '0' && b <= '9' }

func isASCIIVertical(b byte) bool { return b >= '\n' && b <= '\r' }

func isASCIIWhitespace(b byte) bool { return b == ' ' || b >= '\t' && b <= '\r' }

func isASCIIWord(b byte) bool {
	return b == '_' || b >= '0' && b <= '9' || b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z'
}

func isASCIIString(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}

// quickBuiltin classifies an ASCII byte. It mirrors classify for the
// ASCII range.
func quickBuiltin(class ast.BuiltinClass, b byte) bool {
	switch class {
	case ast.AnyGrapheme:
		return true
	case ast.Digit:
		return isASCIIDigit(b)
	case ast.HorizontalWhitespace:
		return b == ' ' || b == '\t'
	case ast.VerticalWhitespace, ast.NewlineSequence:
		return isASCIIVertical(b)
	case ast.Whitespace:
		return isASCIIWhitespace(b)
	case ast.Word:
		return isASCIIWord(b)
	}
	return false
}

// classify tests the first scalar of a character against a builtin class.
func classify(class ast.BuiltinClass, r rune) bool {
	switch class {
	case ast.AnyGrapheme:
		return true
	case ast.Digit:
		return unicode.IsNumber(r)
	case ast.HorizontalWhitespace:
		return isHorizontalWhitespace(r)
	case ast.VerticalWhitespace, ast.NewlineSequence:
		return isNewline(r)
	case ast.Whitespace:
		return unicode.IsSpace(r)
	case ast.Word:
		return isWordScalar(r)
	}
	return false
}

func (p *Processor) isWordAt(pos int, strict bool) bool {
	if pos < p.subject.Lo || pos >= p.subject.Hi {
		return false
	}
	r, _ := p.in.scalarAt(pos, p.subject.Hi)
	if strict {
		return r < utf8.RuneSelf && isASCIIWord(byte(r))
	}
	return isWordScalar(r)
}

func (p *Processor) isWordBefore(pos int, strict bool) bool {
	if pos <= p.subject.Lo || pos > p.subject.Hi {
		return false
	}
	r, _ := p.in.scalarBefore(pos, p.subject.Lo)
	if strict {
		return r < utf8.RuneSelf && isASCIIWord(byte(r))
	}
	return isWordScalar(r)
}

// builtinAssert evaluates a builtin assertion at the current position.
func (p *Processor) builtinAssert(kind ast.AssertionKind, flags program.Flags) bool {
	pos := p.pos
	subject := p.subject
	strict := flags.Has(program.FlagStrictASCII)
	switch kind {
	case ast.StartOfSubject, ast.Caret:
		return pos == subject.Lo

	case ast.EndOfSubject:
		return pos == subject.Hi

	case ast.EndOfSubjectBeforeNewline, ast.Dollar:
		if pos == subject.Hi {
			return true
		}
		r, _ := p.in.scalarAt(pos, subject.Hi)
		if !isNewline(r) {
			return false
		}
		return p.in.nextUnit(pos, subject.Hi, flags.Has(program.FlagScalarSemantics)) == subject.Hi

	case ast.StartOfLine:
		if pos == subject.Lo {
			return true
		}
		r, _ := p.in.scalarBefore(pos, subject.Lo)
		return isNewline(r)

	case ast.EndOfLine:
		if pos == subject.Hi {
			return true
		}
		r, _ := p.in.scalarAt(pos, subject.Hi)
		return isNewline(r)

	case ast.WordBoundary:
		return p.isWordBefore(pos, strict) != p.isWordAt(pos, strict)

	case ast.NotWordBoundary:
		return p.isWordBefore(pos, strict) == p.isWordAt(pos, strict)

	case ast.SearchStart:
		return pos == p.search.Lo

	case ast.TextSegment:
		return p.in.isBoundary(pos)

	case ast.NotTextSegment:
		return !p.in.isBoundary(pos)
	}
	return false
}
