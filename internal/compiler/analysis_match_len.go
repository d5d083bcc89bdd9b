package compiler

import (
	"unicode/utf8"

	"github.com/KromDaniel/regvm/pkg/ast"
)

// MatchLengthAnalysis holds the computed match length bounds for a pattern.
type MatchLengthAnalysis struct {
	// MinMatchLen is the minimum number of bytes any match can have.
	// Always >= 0.
	MinMatchLen int

	// MaxMatchLen is the maximum number of bytes any match can have.
	// -1 means unbounded (e.g., patterns with * or + quantifiers, or
	// pluggable consumers).
	MaxMatchLen int
}

// AnalyzeMatchLength computes the minimum and maximum match lengths for a
// pattern. The executor uses the minimum to stop searching once too little
// input remains.
func AnalyzeMatchLength(tree ast.Node, opts ast.MatchingOptions) MatchLengthAnalysis {
	if tree == nil {
		return MatchLengthAnalysis{}
	}
	return MatchLengthAnalysis{
		MinMatchLen: minMatchLen(tree, opts),
		MaxMatchLen: maxMatchLen(tree, opts),
	}
}

// minMatchLen computes the minimum number of bytes required for a match.
func minMatchLen(n ast.Node, opts ast.MatchingOptions) int {
	switch n := n.(type) {
	case ast.Char:
		if opts.CaseInsensitive {
			// Case folding may change the encoded length.
			return 1
		}
		return len(n)

	case ast.Literal:
		if opts.CaseInsensitive {
			return utf8.RuneCountInString(string(n))
		}
		return len(n)

	case ast.CharSet:
		if n.Inverted || opts.CaseInsensitive || len(n.Ranges) == 0 {
			return 1
		}
		// The smallest rune in any range determines min bytes
		minLen := utf8.UTFMax
		for _, r := range n.Ranges {
			if l := utf8.RuneLen(r.Lo); l > 0 && l < minLen {
				minLen = l
			}
		}
		return minLen

	case ast.Builtin, ast.Any:
		return 1

	case ast.Capture:
		return minMatchLen(n.Child, opts)

	case ast.Atomic:
		return minMatchLen(n.Child, opts)

	case ast.WithOptions:
		return minMatchLen(n.Child, opts.Apply(n.Enable, n.Disable))

	case ast.Quantification:
		return n.Min * minMatchLen(n.Child, opts)

	case ast.Concat:
		total := 0
		for _, sub := range n {
			total += minMatchLen(sub, opts)
		}
		return total

	case ast.Alternation:
		if len(n) == 0 {
			return 0
		}
		min := minMatchLen(n[0], opts)
		for _, sub := range n[1:] {
			if subMin := minMatchLen(sub, opts); subMin < min {
				min = subMin
			}
		}
		return min
	}
	// Assertions, lookaround, backreferences and pluggable consumers
	return 0
}

// maxMatchLen computes the maximum number of bytes a match can have.
// Returns -1 if the match length is unbounded.
func maxMatchLen(n ast.Node, opts ast.MatchingOptions) int {
	switch n := n.(type) {
	case ast.Empty, ast.Assertion, ast.CustomAssertion, ast.Lookaround, ast.Abort:
		return 0

	case ast.Char, ast.Literal, ast.CharSet, ast.Builtin, ast.Any:
		// Any character can be an arbitrarily long grapheme cluster, and
		// case folding can change lengths.
		if opts.SemanticLevel == ast.GraphemeCluster || opts.CaseInsensitive {
			if lit, ok := n.(ast.Literal); ok && isASCIIOnly(string(lit)) && !opts.CaseInsensitive {
				return len(lit)
			}
			return -1
		}
		switch n := n.(type) {
		case ast.Char:
			return len(n)
		case ast.Literal:
			return len(n)
		case ast.Builtin:
			if n.Class == ast.NewlineSequence {
				return 2
			}
			if n.Class == ast.AnyGrapheme {
				return -1
			}
		}
		return utf8.UTFMax

	case ast.Capture:
		return maxMatchLen(n.Child, opts)

	case ast.Atomic:
		return maxMatchLen(n.Child, opts)

	case ast.WithOptions:
		return maxMatchLen(n.Child, opts.Apply(n.Enable, n.Disable))

	case ast.Quantification:
		if n.MaxExtra == ast.Unbounded {
			return -1
		}
		sub := maxMatchLen(n.Child, opts)
		if sub < 0 {
			return -1
		}
		return (n.Min + n.MaxExtra) * sub

	case ast.Concat:
		total := 0
		for _, sub := range n {
			l := maxMatchLen(sub, opts)
			if l < 0 {
				return -1
			}
			total += l
		}
		return total

	case ast.Alternation:
		max := 0
		for _, sub := range n {
			l := maxMatchLen(sub, opts)
			if l < 0 {
				return -1
			}
			if l > max {
				max = l
			}
		}
		return max
	}
	// Backreferences and pluggable consumers
	return -1
}

func isASCIIOnly(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}
