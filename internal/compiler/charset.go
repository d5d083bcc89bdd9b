package compiler

import (
	"unicode"
	"unicode/utf8"

	"github.com/rivo/uniseg"

	"github.com/KromDaniel/regvm/pkg/ast"
)

// runeInSet reports membership of r, folding case when asked.
func runeInSet(ranges []ast.RuneRange, r rune, caseInsensitive bool) bool {
	in := func(r rune) bool {
		for _, rr := range ranges {
			if r >= rr.Lo && r <= rr.Hi {
				return true
			}
		}
		return false
	}
	if in(r) {
		return true
	}
	if caseInsensitive {
		for f := unicode.SimpleFold(r); f != r; f = unicode.SimpleFold(f) {
			if in(f) {
				return true
			}
		}
	}
	return false
}

// charSetConsumer builds the matcher for a character set with non-ASCII
// members. Under grapheme semantics a character is tested by its first
// scalar and consumed whole.
func charSetConsumer(set ast.CharSet, opts ast.MatchingOptions, reverse bool) ast.ConsumeFunc {
	scalar := opts.SemanticLevel == ast.UnicodeScalar
	ci := opts.CaseInsensitive
	test := func(r rune) bool {
		return runeInSet(set.Ranges, r, ci) != set.Inverted
	}
	if reverse {
		return func(input string, bounds ast.Range, pos int) (int, bool, error) {
			if pos <= bounds.Lo {
				return pos, false, nil
			}
			r, size := utf8.DecodeLastRuneInString(input[bounds.Lo:pos])
			start := pos - size
			if !scalar {
				start = characterStartBefore(input, bounds.Lo, pos)
				r, _ = utf8.DecodeRuneInString(input[start:pos])
			}
			return start, test(r), nil
		}
	}
	return func(input string, bounds ast.Range, pos int) (int, bool, error) {
		if pos >= bounds.Hi {
			return pos, false, nil
		}
		r, size := utf8.DecodeRuneInString(input[pos:bounds.Hi])
		next := pos + size
		if !scalar {
			cluster, _, _, _ := uniseg.FirstGraphemeClusterInString(input[pos:bounds.Hi], -1)
			next = pos + len(cluster)
		}
		return next, test(r), nil
	}
}

// characterStartBefore finds the start of the character ending at pos by
// segmenting forward from the nearest earlier ASCII control or space, where
// a cluster always starts.
func characterStartBefore(input string, lo, pos int) int {
	anchor := lo
	for i := pos - 1; i > lo; i-- {
		if b := input[i]; b < ' ' || b == ' ' {
			anchor = i
			if b == '\n' && i > lo && input[i-1] == '\r' {
				anchor--
			}
			break
		}
	}
	start := anchor
	state := -1
	rest := input[anchor:pos]
	for rest != "" {
		var cluster string
		cluster, rest, _, state = uniseg.FirstGraphemeClusterInString(rest, state)
		if rest != "" {
			start += len(cluster)
		}
	}
	return start
}
