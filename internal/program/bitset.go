package program

import (
	"unicode/utf8"

	"github.com/KromDaniel/regvm/pkg/ast"
)

// ASCIIBitset is a 128-bit membership set over ASCII bytes. It is
// comparable, so identical sets share one constant-table entry.
type ASCIIBitset struct {
	Lo, Hi   uint64
	Inverted bool
}

func swapCase(c byte) (byte, bool) {
	switch {
	case c >= 'a' && c <= 'z':
		return c - 'a' + 'A', true
	case c >= 'A' && c <= 'Z':
		return c - 'A' + 'a', true
	}
	return 0, false
}

func (b *ASCIIBitset) set(c byte) {
	if c < 64 {
		b.Lo |= 1 << c
	} else {
		b.Hi |= 1 << (c - 64)
	}
}

// Insert adds c, and its other case when caseInsensitive is set.
func (b *ASCIIBitset) Insert(c byte, caseInsensitive bool) {
	if c >= utf8.RuneSelf {
		return
	}
	b.set(c)
	if caseInsensitive {
		if other, ok := swapCase(c); ok {
			b.set(other)
		}
	}
}

// InsertRange adds every byte in [lo, hi].
func (b *ASCIIBitset) InsertRange(lo, hi byte, caseInsensitive bool) {
	for c := int(lo); c <= int(hi) && c < utf8.RuneSelf; c++ {
		b.Insert(byte(c), caseInsensitive)
	}
}

// Union returns the union of two non-inverted sets.
func (b ASCIIBitset) Union(o ASCIIBitset) ASCIIBitset {
	return ASCIIBitset{Lo: b.Lo | o.Lo, Hi: b.Hi | o.Hi, Inverted: b.Inverted}
}

// IsSet reports raw membership, ignoring inversion.
func (b ASCIIBitset) IsSet(c byte) bool {
	if c < 64 {
		return b.Lo&(1<<c) != 0
	}
	if c < 128 {
		return b.Hi&(1<<(c-64)) != 0
	}
	return false
}

// MatchesByte reports membership of an ASCII byte, honoring inversion.
func (b ASCIIBitset) MatchesByte(c byte) bool {
	if c >= utf8.RuneSelf {
		return b.Inverted
	}
	return b.IsSet(c) != b.Inverted
}

// MatchesScalar reports membership of a scalar. Non-ASCII scalars are only
// members of inverted sets.
func (b ASCIIBitset) MatchesScalar(r rune) bool {
	if r < 0 || r >= utf8.RuneSelf {
		return b.Inverted
	}
	return b.MatchesByte(byte(r))
}

// MatchesCharacter reports membership of a character. Only single-scalar
// ASCII characters can be members. CR-LF is a member of an inverted set
// only when the set would accept its CR.
func (b ASCIIBitset) MatchesCharacter(char string) bool {
	if char == "\r\n" {
		return b.Inverted && b.MatchesByte('\r')
	}
	if len(char) != 1 {
		return b.Inverted
	}
	return b.MatchesByte(char[0])
}

// BitsetFromCharSet converts a character set whose members are all ASCII.
// It returns false when any range reaches beyond ASCII.
func BitsetFromCharSet(set ast.CharSet, caseInsensitive bool) (ASCIIBitset, bool) {
	b := ASCIIBitset{Inverted: set.Inverted}
	for _, r := range set.Ranges {
		if r.Lo < 0 || r.Hi >= utf8.RuneSelf || r.Lo > r.Hi {
			return ASCIIBitset{}, false
		}
		b.InsertRange(byte(r.Lo), byte(r.Hi), caseInsensitive)
	}
	return b, true
}
