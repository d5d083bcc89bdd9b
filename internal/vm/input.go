package vm

import (
	"unicode/utf8"

	"github.com/bits-and-blooms/bitset"
	"github.com/rivo/uniseg"
)

// input is the subject string plus a lazily computed map of grapheme
// cluster boundaries. ASCII text never needs the map.
type input struct {
	s     string
	marks *bitset.BitSet
}

func newInput(s string) *input {
	return &input{s: s}
}

func (in *input) boundaries() *bitset.BitSet {
	if in.marks == nil {
		marks := bitset.New(uint(len(in.s) + 1))
		g := uniseg.NewGraphemes(in.s)
		for g.Next() {
			from, _ := g.Positions()
			marks.Set(uint(from))
		}
		marks.Set(uint(len(in.s)))
		in.marks = marks
	}
	return in.marks
}

// isBoundary reports whether pos lies on a grapheme cluster boundary.
func (in *input) isBoundary(pos int) bool {
	if pos <= 0 || pos >= len(in.s) {
		return true
	}
	prev, cur := in.s[pos-1], in.s[pos]
	if prev < utf8.RuneSelf && cur < utf8.RuneSelf {
		return !(prev == '\r' && cur == '\n')
	}
	if utf8.RuneStart(cur) && cur < 0xCC && prev < utf8.RuneSelf {
		return true
	}
	return in.boundaries().Test(uint(pos))
}

// quickASCII recognizes an ASCII character at pos without segmentation. A
// following byte below 0xCC cannot start an extending scalar, so the
// character ends after the ASCII byte (or after LF for CR-LF). ok is false
// when the slow path is needed.
func (in *input) quickASCII(pos, end int) (b byte, next int, crlf bool, ok bool) {
	if pos >= end {
		return 0, pos, false, false
	}
	b = in.s[pos]
	if b >= utf8.RuneSelf {
		return 0, pos, false, false
	}
	next = pos + 1
	if next == end {
		return b, next, false, true
	}
	tail := in.s[next]
	if tail >= 0xCC {
		return 0, pos, false, false
	}
	if b == '\r' && tail == '\n' {
		next++
		if next != end && in.s[next] >= 0xCC {
			return 0, pos, false, false
		}
		return b, next, true, true
	}
	return b, next, false, true
}

// nextCharacter returns the end of the character starting at pos, clamped
// to end.
func (in *input) nextCharacter(pos, end int) int {
	if pos >= end {
		return end
	}
	if _, next, _, ok := in.quickASCII(pos, end); ok {
		return next
	}
	n, ok := in.boundaries().NextSet(uint(pos + 1))
	if !ok || int(n) > end {
		return end
	}
	return int(n)
}

// prevCharacter returns the start of the character ending at pos, clamped
// to start.
func (in *input) prevCharacter(pos, start int) int {
	if pos <= start {
		return start
	}
	last := in.s[pos-1]
	if last < utf8.RuneSelf && (pos-1 == start || in.s[pos-2] < utf8.RuneSelf) {
		if last == '\n' && pos-2 >= start && in.s[pos-2] == '\r' {
			return pos - 2
		}
		return pos - 1
	}
	marks := in.boundaries()
	for i := pos - 1; i > start; i-- {
		if marks.Test(uint(i)) {
			return i
		}
	}
	return start
}

// nextScalar returns the end of the scalar starting at pos, clamped to end.
func (in *input) nextScalar(pos, end int) int {
	if pos >= end {
		return end
	}
	_, size := utf8.DecodeRuneInString(in.s[pos:end])
	return pos + size
}

// prevScalar returns the start of the scalar ending at pos, clamped to start.
func (in *input) prevScalar(pos, start int) int {
	if pos <= start {
		return start
	}
	_, size := utf8.DecodeLastRuneInString(in.s[start:pos])
	return pos - size
}

func (in *input) scalarAt(pos, end int) (rune, int) {
	return utf8.DecodeRuneInString(in.s[pos:end])
}

func (in *input) scalarBefore(pos, start int) (rune, int) {
	return utf8.DecodeLastRuneInString(in.s[start:pos])
}

// nextUnit steps one character, or one scalar in scalar mode.
func (in *input) nextUnit(pos, end int, scalar bool) int {
	if scalar {
		return in.nextScalar(pos, end)
	}
	return in.nextCharacter(pos, end)
}

// prevUnit steps back one character, or one scalar in scalar mode.
func (in *input) prevUnit(pos, start int, scalar bool) int {
	if scalar {
		return in.prevScalar(pos, start)
	}
	return in.prevCharacter(pos, start)
}

// nextNewline returns the first position in [pos, end) where a newline
// scalar starts, or end.
func (in *input) nextNewline(pos, end int) int {
	for i := pos; i < end; {
		b := in.s[i]
		if b < utf8.RuneSelf {
			if b >= '\n' && b <= '\r' {
				return i
			}
			i++
			continue
		}
		r, size := utf8.DecodeRuneInString(in.s[i:end])
		if isNewline(r) {
			return i
		}
		i += size
	}
	return end
}
