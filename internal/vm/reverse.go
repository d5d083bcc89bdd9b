package vm

import (
	"strings"
	"unicode/utf8"

	"github.com/rivo/uniseg"

	"github.com/KromDaniel/regvm/internal/program"
	"github.com/KromDaniel/regvm/pkg/ast"
)

// Reverse matchers run inside lookbehind bodies. They read the text ending
// at pos and may look back as far as the start of the subject.

func (p *Processor) reverseMatchCharacter(pos int, char string, flags program.Flags) (int, bool) {
	start := p.subject.Lo
	if pos <= start {
		return pos, false
	}
	prev := p.in.prevCharacter(pos, start)
	got := p.in.s[prev:pos]
	if got == char || flags.Has(program.FlagCaseInsensitive) && p.foldEqual(got, char) {
		return prev, true
	}
	return pos, false
}

func (p *Processor) reverseMatchScalar(pos int, r rune, flags program.Flags) (int, bool) {
	start := p.subject.Lo
	if pos <= start {
		return pos, false
	}
	got, size := p.in.scalarBefore(pos, start)
	if got != r && !(flags.Has(program.FlagCaseInsensitive) && equalFoldRune(got, r)) {
		return pos, false
	}
	prev := pos - size
	if flags.Has(program.FlagBoundaryCheck) && !p.in.isBoundary(prev) {
		return pos, false
	}
	return prev, true
}

func (p *Processor) reverseMatchSequence(pos int, seq string, flags program.Flags) (int, bool) {
	if seq == "" {
		return pos, true
	}
	start := p.subject.Lo
	scalar := flags.Has(program.FlagScalarSemantics)
	if !flags.Has(program.FlagCaseInsensitive) {
		if !strings.HasSuffix(p.in.s[start:pos], seq) {
			return pos, false
		}
		prev := pos - len(seq)
		if !scalar && prev != start && !p.in.isBoundary(prev) {
			return pos, false
		}
		return prev, true
	}

	cur := pos
	if scalar {
		for rest := seq; rest != ""; {
			want, wsize := utf8.DecodeLastRuneInString(rest)
			rest = rest[:len(rest)-wsize]
			if cur <= start {
				return pos, false
			}
			got, size := p.in.scalarBefore(cur, start)
			if !equalFoldRune(got, want) {
				return pos, false
			}
			cur -= size
		}
		return cur, true
	}
	var chars []string
	g := uniseg.NewGraphemes(seq)
	for g.Next() {
		chars = append(chars, g.Str())
	}
	for i := len(chars) - 1; i >= 0; i-- {
		if cur <= start {
			return pos, false
		}
		prev := p.in.prevCharacter(cur, start)
		if !p.foldEqual(p.in.s[prev:cur], chars[i]) {
			return pos, false
		}
		cur = prev
	}
	return cur, true
}

func (p *Processor) reverseMatchBitset(pos int, set program.ASCIIBitset, flags program.Flags) (int, bool) {
	start := p.subject.Lo
	if pos <= start {
		return pos, false
	}
	if flags.Has(program.FlagScalarSemantics) {
		r, size := p.in.scalarBefore(pos, start)
		return pos - size, set.MatchesScalar(r)
	}
	prev := p.in.prevCharacter(pos, start)
	return prev, set.MatchesCharacter(p.in.s[prev:pos])
}

func (p *Processor) reverseMatchBuiltin(pos int, class ast.BuiltinClass, flags program.Flags) (int, bool) {
	start := p.subject.Lo
	if pos <= start {
		return pos, false
	}
	scalar := flags.Has(program.FlagScalarSemantics)
	charStart := p.in.prevCharacter(pos, start)

	var r rune
	prev := charStart
	if scalar && class != ast.AnyGrapheme {
		var size int
		r, size = p.in.scalarBefore(pos, start)
		prev = pos - size
		if class == ast.NewlineSequence && r == '\n' && prev > start && p.in.s[prev-1] == '\r' {
			prev--
			r = '\r'
		}
	} else {
		r, _ = p.in.scalarAt(charStart, pos)
	}
	matched := classify(class, r)
	if matched && flags.Has(program.FlagStrictASCII) {
		if scalar {
			matched = r < utf8.RuneSelf
		} else {
			matched = isASCIIString(p.in.s[charStart:pos])
		}
	}
	if matched == flags.Has(program.FlagInverted) {
		return pos, false
	}
	return prev, true
}

func (p *Processor) reverseMatchAny(pos int, flags program.Flags) (int, bool) {
	start := p.subject.Lo
	if pos <= start {
		return pos, false
	}
	scalar := flags.Has(program.FlagScalarSemantics)
	prev := p.in.prevUnit(pos, start, scalar)
	if !flags.Has(program.FlagAnyMatchesNewline) {
		if r, _ := p.in.scalarAt(prev, pos); isNewline(r) {
			return pos, false
		}
	}
	return prev, true
}
