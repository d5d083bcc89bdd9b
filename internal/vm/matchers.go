package vm

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/rivo/uniseg"
	"golang.org/x/text/cases"

	"github.com/KromDaniel/regvm/internal/program"
	"github.com/KromDaniel/regvm/pkg/ast"
)

// Every matcher takes the position to match at and returns the position
// after the match. Reverse matchers (FlagReverse) consume the text before
// the position and return the new, smaller position.

func equalFoldRune(a, b rune) bool {
	if a == b {
		return true
	}
	for f := unicode.SimpleFold(a); f != a; f = unicode.SimpleFold(f) {
		if f == b {
			return true
		}
	}
	return false
}

func (p *Processor) foldEqual(a, b string) bool {
	if a == b {
		return true
	}
	if p.folder == nil {
		c := cases.Fold()
		p.folder = &c
	}
	return p.folder.String(a) == p.folder.String(b)
}

// matchCharacter matches one character from the element table.
func (p *Processor) matchCharacter(pos int, char string, flags program.Flags) (int, bool) {
	if flags.Has(program.FlagScalarSemantics) {
		return p.matchSequence(pos, char, flags)
	}
	if flags.Has(program.FlagReverse) {
		return p.reverseMatchCharacter(pos, char, flags)
	}
	end := p.search.Hi
	if pos >= end {
		return pos, false
	}
	next := p.in.nextCharacter(pos, end)
	got := p.in.s[pos:next]
	if got == char || flags.Has(program.FlagCaseInsensitive) && p.foldEqual(got, char) {
		return next, true
	}
	return pos, false
}

// matchScalar matches one scalar. With FlagBoundaryCheck the scalar must
// also end a character.
func (p *Processor) matchScalar(pos int, r rune, flags program.Flags) (int, bool) {
	if flags.Has(program.FlagReverse) {
		return p.reverseMatchScalar(pos, r, flags)
	}
	end := p.search.Hi
	if pos >= end {
		return pos, false
	}
	var got rune
	size := 1
	if b := p.in.s[pos]; b < utf8.RuneSelf {
		got = rune(b)
	} else {
		got, size = p.in.scalarAt(pos, end)
	}
	if got != r && !(flags.Has(program.FlagCaseInsensitive) && equalFoldRune(got, r)) {
		return pos, false
	}
	next := pos + size
	if flags.Has(program.FlagBoundaryCheck) && !p.in.isBoundary(next) {
		return pos, false
	}
	return next, true
}

// matchSequence matches a literal sequence.
func (p *Processor) matchSequence(pos int, seq string, flags program.Flags) (int, bool) {
	if flags.Has(program.FlagReverse) {
		return p.reverseMatchSequence(pos, seq, flags)
	}
	if seq == "" {
		return pos, true
	}
	end := p.search.Hi
	scalar := flags.Has(program.FlagScalarSemantics)
	if !flags.Has(program.FlagCaseInsensitive) {
		if !strings.HasPrefix(p.in.s[pos:end], seq) {
			return pos, false
		}
		next := pos + len(seq)
		if !scalar && next != end && !p.in.isBoundary(next) {
			return pos, false
		}
		return next, true
	}

	cur := pos
	if scalar {
		for _, want := range seq {
			if cur >= end {
				return pos, false
			}
			got, size := p.in.scalarAt(cur, end)
			if !equalFoldRune(got, want) {
				return pos, false
			}
			cur += size
		}
		return cur, true
	}
	g := uniseg.NewGraphemes(seq)
	for g.Next() {
		if cur >= end {
			return pos, false
		}
		next := p.in.nextCharacter(cur, end)
		if !p.foldEqual(p.in.s[cur:next], g.Str()) {
			return pos, false
		}
		cur = next
	}
	return cur, true
}

// matchBitset matches one character against an ASCII bitset. Under
// grapheme semantics CR-LF is a single character matched only by an
// inverted set that admits CR; under scalar semantics only the CR is tested.
func (p *Processor) matchBitset(pos int, set program.ASCIIBitset, flags program.Flags) (int, bool) {
	if flags.Has(program.FlagReverse) {
		return p.reverseMatchBitset(pos, set, flags)
	}
	end := p.search.Hi
	if pos >= end {
		return pos, false
	}
	scalar := flags.Has(program.FlagScalarSemantics)
	if b, next, crlf, ok := p.in.quickASCII(pos, end); ok {
		if crlf {
			if scalar {
				return pos + 1, set.MatchesByte('\r')
			}
			return next, set.MatchesCharacter("\r\n")
		}
		return next, set.MatchesByte(b)
	}
	if scalar {
		r, size := p.in.scalarAt(pos, end)
		return pos + size, set.MatchesScalar(r)
	}
	next := p.in.nextCharacter(pos, end)
	return next, set.MatchesCharacter(p.in.s[pos:next])
}

// matchBuiltin matches one character of a builtin class. CR-LF is one
// character under grapheme semantics; under scalar semantics the whitespace
// classes give back the LF and only the newline-sequence class consumes the
// full pair.
func (p *Processor) matchBuiltin(pos int, class ast.BuiltinClass, flags program.Flags) (int, bool) {
	if flags.Has(program.FlagReverse) {
		return p.reverseMatchBuiltin(pos, class, flags)
	}
	end := p.search.Hi
	if pos >= end {
		return pos, false
	}
	scalar := flags.Has(program.FlagScalarSemantics)
	inverted := flags.Has(program.FlagInverted)

	if b, next, crlf, ok := p.in.quickASCII(pos, end); ok {
		matched := quickBuiltin(class, b)
		if crlf && scalar && class != ast.NewlineSequence && class != ast.AnyGrapheme {
			next = pos + 1
		}
		if matched == inverted {
			return pos, false
		}
		return next, true
	}

	r, size := p.in.scalarAt(pos, end)
	charEnd := p.in.nextCharacter(pos, end)
	next := charEnd
	if scalar && class != ast.AnyGrapheme {
		next = pos + size
	}
	matched := classify(class, r)
	if class == ast.NewlineSequence && scalar && r == '\r' && next < end && p.in.s[next] == '\n' {
		next++
	}
	if matched && flags.Has(program.FlagStrictASCII) {
		if scalar {
			matched = r < utf8.RuneSelf
		} else {
			matched = isASCIIString(p.in.s[pos:charEnd])
		}
	}
	if matched == inverted {
		return pos, false
	}
	return next, true
}

// matchAny matches any character, excluding newlines unless
// FlagAnyMatchesNewline is set.
func (p *Processor) matchAny(pos int, flags program.Flags) (int, bool) {
	if flags.Has(program.FlagReverse) {
		return p.reverseMatchAny(pos, flags)
	}
	end := p.search.Hi
	if pos >= end {
		return pos, false
	}
	if !flags.Has(program.FlagAnyMatchesNewline) {
		if b := p.in.s[pos]; b < utf8.RuneSelf {
			if isASCIIVertical(b) {
				return pos, false
			}
		} else if r, _ := p.in.scalarAt(pos, end); isNewline(r) {
			return pos, false
		}
	}
	return p.in.nextUnit(pos, end, flags.Has(program.FlagScalarSemantics)), true
}

// advanceBy moves n characters (scalars in scalar mode).
func (p *Processor) advanceBy(pos, n int, flags program.Flags) (int, bool) {
	scalar := flags.Has(program.FlagScalarSemantics)
	for i := 0; i < n; i++ {
		if flags.Has(program.FlagReverse) {
			if pos <= p.subject.Lo {
				return pos, false
			}
			pos = p.in.prevUnit(pos, p.subject.Lo, scalar)
			continue
		}
		if pos >= p.search.Hi {
			return pos, false
		}
		pos = p.in.nextUnit(pos, p.search.Hi, scalar)
	}
	return pos, true
}
