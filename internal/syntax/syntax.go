// Package syntax converts Go regular expression syntax into a regvm pattern
// tree. Parsing itself is done by regexp/syntax.
package syntax

import (
	"unicode"
	"unicode/utf8"

	"github.com/pkg/errors"
	gosyntax "regexp/syntax"

	"github.com/KromDaniel/regvm/internal/program"
	"github.com/KromDaniel/regvm/pkg/ast"
)

// Flags returns the regexp/syntax parse flags matching opts.
func Flags(opts ast.MatchingOptions) gosyntax.Flags {
	flags := gosyntax.Perl
	if opts.CaseInsensitive {
		flags |= gosyntax.FoldCase
	}
	if opts.DotMatchesNewline {
		flags |= gosyntax.DotNL
	}
	if opts.Multiline {
		flags &^= gosyntax.OneLine
	}
	return flags
}

// Parse parses pattern and converts it into a pattern tree.
func Parse(pattern string, opts ast.MatchingOptions) (ast.Node, error) {
	re, err := gosyntax.Parse(pattern, Flags(opts))
	if err != nil {
		return nil, errors.Wrapf(err, "parsing %q", pattern)
	}
	return Convert(re, opts)
}

// Convert converts a parsed regexp/syntax tree. opts are the options the
// tree will be compiled with; nodes whose parse flags disagree with them
// are wrapped in ast.WithOptions.
func Convert(re *gosyntax.Regexp, opts ast.MatchingOptions) (ast.Node, error) {
	return converter{opts: opts}.convert(re)
}

type converter struct {
	opts ast.MatchingOptions
}

// scoped wraps n so that option flag is on or off as required.
func (c converter) scoped(n ast.Node, flag ast.OptionFlags, on bool) ast.Node {
	current := c.opts.Apply(flag, 0) == c.opts
	if current == on {
		return n
	}
	if on {
		return ast.WithOptions{Enable: flag, Child: n}
	}
	return ast.WithOptions{Disable: flag, Child: n}
}

func (c converter) convert(re *gosyntax.Regexp) (ast.Node, error) {
	switch re.Op {
	case gosyntax.OpNoMatch:
		return ast.CharSet{}, nil

	case gosyntax.OpEmptyMatch:
		return ast.Empty{}, nil

	case gosyntax.OpLiteral:
		var lit ast.Node = ast.Literal(string(re.Rune))
		if len(re.Rune) == 1 {
			lit = ast.Char(string(re.Rune))
		}
		return c.scoped(lit, ast.CaseInsensitive, re.Flags&gosyntax.FoldCase != 0), nil

	case gosyntax.OpCharClass:
		// Case folding is already expanded into the ranges.
		return c.scoped(charClass(re.Rune), ast.CaseInsensitive, false), nil

	case gosyntax.OpAnyCharNotNL:
		return c.scoped(ast.Any{}, ast.DotMatchesNewline, false), nil

	case gosyntax.OpAnyChar:
		return c.scoped(ast.Any{}, ast.DotMatchesNewline, true), nil

	case gosyntax.OpBeginLine:
		return ast.Assertion{Kind: ast.StartOfLine}, nil

	case gosyntax.OpEndLine:
		return ast.Assertion{Kind: ast.EndOfLine}, nil

	case gosyntax.OpBeginText:
		return ast.Assertion{Kind: ast.StartOfSubject}, nil

	case gosyntax.OpEndText:
		return ast.Assertion{Kind: ast.EndOfSubject}, nil

	case gosyntax.OpWordBoundary:
		return ast.Assertion{Kind: ast.WordBoundary}, nil

	case gosyntax.OpNoWordBoundary:
		return ast.Assertion{Kind: ast.NotWordBoundary}, nil

	case gosyntax.OpCapture:
		child, err := c.convert(re.Sub[0])
		if err != nil {
			return nil, err
		}
		return ast.Capture{Name: re.Name, Child: child}, nil

	case gosyntax.OpStar, gosyntax.OpPlus, gosyntax.OpQuest, gosyntax.OpRepeat:
		child, err := c.convert(re.Sub[0])
		if err != nil {
			return nil, err
		}
		q := ast.Quantification{Child: child, Kind: ast.Eager}
		if re.Flags&gosyntax.NonGreedy != 0 {
			q.Kind = ast.Reluctant
		}
		switch re.Op {
		case gosyntax.OpStar:
			q.Min, q.MaxExtra = 0, ast.Unbounded
		case gosyntax.OpPlus:
			q.Min, q.MaxExtra = 1, ast.Unbounded
		case gosyntax.OpQuest:
			q.Min, q.MaxExtra = 0, 1
		default:
			q.Min, q.MaxExtra = re.Min, ast.Unbounded
			if re.Max >= 0 {
				q.MaxExtra = re.Max - re.Min
			}
		}
		return q, nil

	case gosyntax.OpConcat:
		nodes, err := c.convertAll(re.Sub)
		if err != nil {
			return nil, err
		}
		return ast.Concat(nodes), nil

	case gosyntax.OpAlternate:
		nodes, err := c.convertAll(re.Sub)
		if err != nil {
			return nil, err
		}
		return ast.Alternation(nodes), nil
	}
	return nil, errors.Wrapf(program.ErrUnsupported, "syntax op %s", re.Op)
}

func (c converter) convertAll(subs []*gosyntax.Regexp) ([]ast.Node, error) {
	nodes := make([]ast.Node, 0, len(subs))
	for _, sub := range subs {
		n, err := c.convert(sub)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, n)
	}
	return nodes, nil
}

// charClass converts a sorted list of range pairs. A class that contains
// every non-ASCII scalar is turned into an inverted ASCII set so it can
// run as a bitset.
func charClass(pairs []rune) ast.CharSet {
	ranges := make([]ast.RuneRange, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		ranges = append(ranges, ast.RuneRange{Lo: pairs[i], Hi: pairs[i+1]})
	}
	if !coversNonASCII(ranges) {
		return ast.CharSet{Ranges: ranges}
	}
	var in [utf8.RuneSelf]bool
	for _, r := range ranges {
		for c := r.Lo; c <= r.Hi && c < utf8.RuneSelf; c++ {
			in[c] = true
		}
	}
	var out []ast.RuneRange
	for c := 0; c < utf8.RuneSelf; c++ {
		if in[c] {
			continue
		}
		if n := len(out); n > 0 && out[n-1].Hi == rune(c-1) {
			out[n-1].Hi = rune(c)
			continue
		}
		out = append(out, ast.RuneRange{Lo: rune(c), Hi: rune(c)})
	}
	return ast.CharSet{Ranges: out, Inverted: true}
}

func coversNonASCII(ranges []ast.RuneRange) bool {
	next := rune(utf8.RuneSelf)
	for _, r := range ranges {
		if r.Hi < next {
			continue
		}
		if r.Lo > next {
			return false
		}
		next = r.Hi + 1
	}
	return next > unicode.MaxRune
}
