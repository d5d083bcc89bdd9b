package syntax

import (
	gosyntax "regexp/syntax"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/KromDaniel/regvm/internal/program"
	"github.com/KromDaniel/regvm/pkg/ast"
)

func TestParse(t *testing.T) {
	tests := []struct {
		pattern string
		opts    ast.MatchingOptions
		want    ast.Node
	}{
		{"a", ast.MatchingOptions{}, ast.Char("a")},
		{"abc", ast.MatchingOptions{}, ast.Literal("abc")},
		{"", ast.MatchingOptions{}, ast.Empty{}},
		{"^", ast.MatchingOptions{}, ast.Assertion{Kind: ast.StartOfSubject}},
		{"(?m)^", ast.MatchingOptions{}, ast.Assertion{Kind: ast.StartOfLine}},
		{`\b`, ast.MatchingOptions{}, ast.Assertion{Kind: ast.WordBoundary}},
		{`\B`, ast.MatchingOptions{}, ast.Assertion{Kind: ast.NotWordBoundary}},
		{`\z`, ast.MatchingOptions{}, ast.Assertion{Kind: ast.EndOfSubject}},
		{".", ast.MatchingOptions{}, ast.Any{}},
		{".", ast.MatchingOptions{DotMatchesNewline: true}, ast.Any{}},
		{"(?s).", ast.MatchingOptions{}, ast.WithOptions{Enable: ast.DotMatchesNewline, Child: ast.Any{}}},
		// Folded literals hold the smallest scalar of each case orbit.
		{"(?i)ab", ast.MatchingOptions{}, ast.WithOptions{Enable: ast.CaseInsensitive, Child: ast.Literal("AB")}},
		{"ab", ast.MatchingOptions{CaseInsensitive: true}, ast.Literal("AB")},
		{"(?i)a", ast.MatchingOptions{}, ast.WithOptions{Enable: ast.CaseInsensitive, Child: ast.Char("A")}},
		{"[a-c]", ast.MatchingOptions{}, ast.CharSet{Ranges: []ast.RuneRange{{Lo: 'a', Hi: 'c'}}}},
		{"[^a]", ast.MatchingOptions{}, ast.CharSet{
			Ranges:   []ast.RuneRange{{Lo: 'a', Hi: 'a'}},
			Inverted: true,
		}},
		{`(?P<x>a)`, ast.MatchingOptions{}, ast.Capture{Name: "x", Child: ast.Char("a")}},
		{"a*", ast.MatchingOptions{}, ast.Star(ast.Char("a"))},
		{"a+?", ast.MatchingOptions{}, ast.Quantification{Min: 1, MaxExtra: ast.Unbounded, Kind: ast.Reluctant, Child: ast.Char("a")}},
		{"a{2,5}", ast.MatchingOptions{}, ast.Repeat(ast.Char("a"), 2, 5)},
		{"a{2,}", ast.MatchingOptions{}, ast.Repeat(ast.Char("a"), 2, -1)},
		{"ab|cd", ast.MatchingOptions{}, ast.Alternation{ast.Literal("ab"), ast.Literal("cd")}},
		{"a.", ast.MatchingOptions{}, ast.Concat{ast.Char("a"), ast.Any{}}},
	}

	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			got, err := Parse(tt.pattern, tt.opts)
			require.NoError(t, err)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Parse(%q) mismatch (-want +got):\n%s", tt.pattern, diff)
			}
		})
	}
}

func TestParseError(t *testing.T) {
	_, err := Parse("a(b", ast.MatchingOptions{})
	require.Error(t, err)
	require.Contains(t, err.Error(), `parsing "a(b"`)

	var serr *gosyntax.Error
	require.True(t, errors.As(err, &serr))
	require.Equal(t, gosyntax.ErrMissingParen, serr.Code)
}

func TestConvertUnsupported(t *testing.T) {
	re := &gosyntax.Regexp{Op: gosyntax.OpPlus + 100}
	_, err := Convert(re, ast.MatchingOptions{})
	require.True(t, errors.Is(err, program.ErrUnsupported), "got %v", err)
}

func TestFlags(t *testing.T) {
	tests := []struct {
		name string
		opts ast.MatchingOptions
		set  gosyntax.Flags
		off  gosyntax.Flags
	}{
		{"default", ast.MatchingOptions{}, gosyntax.OneLine | gosyntax.PerlX, gosyntax.FoldCase | gosyntax.DotNL},
		{"case-insensitive", ast.MatchingOptions{CaseInsensitive: true}, gosyntax.FoldCase, 0},
		{"dotall", ast.MatchingOptions{DotMatchesNewline: true}, gosyntax.DotNL, 0},
		{"multiline", ast.MatchingOptions{Multiline: true}, 0, gosyntax.OneLine},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := Flags(tt.opts)
			if f&tt.set != tt.set {
				t.Errorf("Flags(%s) = %b, missing %b", tt.opts, f, tt.set)
			}
			if f&tt.off != 0 {
				t.Errorf("Flags(%s) = %b, unexpected %b", tt.opts, f, tt.off)
			}
		})
	}
}

func TestCoversNonASCII(t *testing.T) {
	tests := []struct {
		name   string
		ranges []ast.RuneRange
		want   bool
	}{
		{"ascii only", []ast.RuneRange{{Lo: 'a', Hi: 'z'}}, false},
		{"everything", []ast.RuneRange{{Lo: 0, Hi: 0x10FFFF}}, true},
		{"split at the surrogates", []ast.RuneRange{{Lo: 0x80, Hi: 0xD7FF}, {Lo: 0xD800, Hi: 0x10FFFF}}, true},
		{"gap", []ast.RuneRange{{Lo: 0x80, Hi: 0x100}, {Lo: 0x102, Hi: 0x10FFFF}}, false},
		{"missing tail", []ast.RuneRange{{Lo: 0, Hi: 0xFFFF}}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, coversNonASCII(tt.ranges))
		})
	}
}
