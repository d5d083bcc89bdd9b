package executor

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/KromDaniel/regvm/internal/compiler"
	"github.com/KromDaniel/regvm/internal/program"
	"github.com/KromDaniel/regvm/internal/syntax"
	"github.com/KromDaniel/regvm/internal/vm"
	"github.com/KromDaniel/regvm/pkg/ast"
)

func compile(t *testing.T, pattern string, config compiler.Config) *program.Program {
	t.Helper()
	tree, err := syntax.Parse(pattern, config.Options)
	require.NoError(t, err)
	config.Pattern = pattern
	prog, err := compiler.Compile(tree, config)
	require.NoError(t, err)
	return prog
}

const decomposed = "e\u0301"

func whole(s string) program.Range { return program.Range{Lo: 0, Hi: len(s)} }

func span(lo, hi int) program.Range { return program.Range{Lo: lo, Hi: hi} }

func TestAnchoredMatches(t *testing.T) {
	tests := []struct {
		name    string
		pattern string
		input   string
		whole   bool
		want    *program.Range
	}{
		{"prefix", `\d+`, "123abc", false, &program.Range{Lo: 0, Hi: 3}},
		{"whole rejects suffix", `\d+`, "123abc", true, nil},
		{"whole", `\d+`, "123", true, &program.Range{Lo: 0, Hi: 3}},
		{"prefix does not scan", `\d+`, "a1", false, nil},
		{"empty prefix", `a*`, "bbb", false, &program.Range{Lo: 0, Hi: 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := New(compile(t, tt.pattern, compiler.Config{}))
			match := e.PrefixMatch
			if tt.whole {
				match = e.WholeMatch
			}
			m, err := match(tt.input, whole(tt.input), whole(tt.input))
			require.NoError(t, err)
			if tt.want == nil {
				require.Nil(t, m)
				return
			}
			require.NotNil(t, m)
			require.Equal(t, *tt.want, m.Range)
		})
	}
}

func TestFirstMatch(t *testing.T) {
	tests := []struct {
		name    string
		pattern string
		opts    ast.MatchingOptions
		input   string
		search  program.Range
		want    *program.Range
	}{
		{"scans forward", `\d+`, ast.MatchingOptions{}, "ab123cd", whole("ab123cd"), &program.Range{Lo: 2, Hi: 5}},
		{"no match", `x`, ast.MatchingOptions{}, "abc", whole("abc"), nil},
		{"anchored pattern tries once", `^b`, ast.MatchingOptions{}, "ab", whole("ab"), nil},
		{"leftmost empty match wins", `a*|b`, ast.MatchingOptions{}, "b", whole("b"), &program.Range{Lo: 0, Hi: 0}},
		{"empty match at the end", `$`, ast.MatchingOptions{}, "ab", whole("ab"), &program.Range{Lo: 2, Hi: 2}},
		{"search bounds", `X`, ast.MatchingOptions{}, "XaXbX", span(1, 4), &program.Range{Lo: 2, Hi: 3}},
		{"steps over whole characters", `\x{301}`, ast.MatchingOptions{}, decomposed, whole(decomposed), nil},
		{"steps over scalars", `\x{301}`, ast.MatchingOptions{SemanticLevel: ast.UnicodeScalar}, decomposed, whole(decomposed), &program.Range{Lo: 1, Hi: 3}},
		{"after a combining sequence", `x`, ast.MatchingOptions{}, decomposed + "x", whole(decomposed + "x"), &program.Range{Lo: 3, Hi: 4}},
		{"too little input left", `abc`, ast.MatchingOptions{}, "xxab", whole("xxab"), nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := New(compile(t, tt.pattern, compiler.Config{Options: tt.opts}))
			m, err := e.FirstMatch(tt.input, whole(tt.input), tt.search)
			require.NoError(t, err)
			if tt.want == nil {
				require.Nil(t, m)
				return
			}
			require.NotNil(t, m)
			require.Equal(t, *tt.want, m.Range)
			require.Equal(t, tt.input[tt.want.Lo:tt.want.Hi], m.String())
		})
	}
}

func collect(t *testing.T, e *Executor, input string) []program.Range {
	t.Helper()
	var out []program.Range
	for m, err := range e.AllMatches(input, whole(input), whole(input)) {
		require.NoError(t, err)
		out = append(out, m.Range)
	}
	return out
}

func TestAllMatches(t *testing.T) {
	tests := []struct {
		name    string
		pattern string
		input   string
		want    []program.Range
	}{
		{"non-empty matches", `\d+`, "a1b22c333", []program.Range{span(1, 2), span(3, 5), span(6, 9)}},
		{"no matches", `\d+`, "abc", nil},
		{"empty matches step one character", `a*|b`, "b", []program.Range{span(0, 0), span(1, 1)}},
		{"empty match after a match", `a*`, "baa", []program.Range{span(0, 0), span(1, 3), span(3, 3)}},
		{"empty input", `a*`, "", []program.Range{span(0, 0)}},
		{"empty matches step over characters", ``, decomposed + "x", []program.Range{span(0, 0), span(3, 3), span(4, 4)}},
		{"adjacent matches", `ab`, "ababab", []program.Range{span(0, 2), span(2, 4), span(4, 6)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := New(compile(t, tt.pattern, compiler.Config{}))
			require.Equal(t, tt.want, collect(t, e, tt.input))
		})
	}
}

func TestAllMatchesStopsEarly(t *testing.T) {
	e := New(compile(t, `\d`, compiler.Config{}))
	input := "1234"
	n := 0
	for m, err := range e.AllMatches(input, whole(input), whole(input)) {
		require.NoError(t, err)
		require.Equal(t, span(n, n+1), m.Range)
		n++
		if n == 2 {
			break
		}
	}
	require.Equal(t, 2, n)
}

func TestAllMatchesYieldsErrorOnce(t *testing.T) {
	tree := ast.Concat{ast.Char("b"), ast.Abort{Message: "found b"}}
	prog, err := compiler.Compile(tree, compiler.Config{})
	require.NoError(t, err)
	e := New(prog)

	input := "aab"
	var matches int
	var errs []error
	for m, err := range e.AllMatches(input, whole(input), whole(input)) {
		if err != nil {
			errs = append(errs, err)
			continue
		}
		require.NotNil(t, m)
		matches++
	}
	require.Zero(t, matches)
	require.Len(t, errs, 1)

	var abort *program.AbortError
	require.True(t, errors.As(errs[0], &abort))
	require.Equal(t, "found b", abort.Message)
}

func TestMatchGroups(t *testing.T) {
	e := New(compile(t, `(\w+)@(\w+)`, compiler.Config{}))
	input := "mail me@host now"
	m, err := e.FirstMatch(input, whole(input), whole(input))
	require.NoError(t, err)
	require.NotNil(t, m)
	require.Equal(t, "me@host", m.String())

	text, ok := m.GroupText(1)
	require.True(t, ok)
	require.Equal(t, "me", text)
	text, ok = m.GroupText(2)
	require.True(t, ok)
	require.Equal(t, "host", text)

	_, ok = m.Group(0)
	require.False(t, ok)
	_, ok = m.Group(3)
	require.False(t, ok)
	require.Equal(t, `("me", "host")`, m.Captures.String())
}

func TestMatchGroupNumbering(t *testing.T) {
	parsed := func(pattern string) func(t *testing.T) *program.Program {
		return func(t *testing.T) *program.Program { return compile(t, pattern, compiler.Config{}) }
	}
	built := func(tree ast.Node) func(t *testing.T) *program.Program {
		return func(t *testing.T) *program.Program {
			prog, err := compiler.Compile(tree, compiler.Config{})
			require.NoError(t, err)
			return prog
		}
	}
	behind := ast.Lookaround{Behind: true, Child: ast.Concat{ast.Group(ast.Char("a")), ast.Group(ast.Char("b"))}}
	tests := []struct {
		name   string
		prog   func(t *testing.T) *program.Program
		input  string
		match  program.Range
		groups []string
	}{
		{
			name:   "nested groups in a loop",
			prog:   parsed(`((a)(b))+c`),
			input:  "ababc",
			match:  span(0, 5),
			groups: []string{"ab", "a", "b"},
		},
		{
			name:   "groups around a counted loop",
			prog:   parsed(`(x)(ab){2,3}(c)`),
			input:  "xababc",
			match:  span(0, 6),
			groups: []string{"x", "ab", "c"},
		},
		{
			name:   "lookbehind groups read left to right",
			prog:   built(ast.Concat{behind, ast.Char("c")}),
			input:  "abc",
			match:  span(2, 3),
			groups: []string{"a", "b"},
		},
		{
			name:   "backreference into a lookbehind",
			prog:   built(ast.Concat{behind, ast.Backreference{Group: 1}}),
			input:  "aba",
			match:  span(2, 3),
			groups: []string{"a", "b"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := New(tt.prog(t))
			m, err := e.FirstMatch(tt.input, whole(tt.input), whole(tt.input))
			require.NoError(t, err)
			require.NotNil(t, m)
			require.Equal(t, tt.match, m.Range)
			require.Len(t, m.Stored, len(tt.groups))
			for i, want := range tt.groups {
				text, ok := m.GroupText(i + 1)
				require.True(t, ok, "group %d", i+1)
				require.Equal(t, want, text, "group %d", i+1)
			}
		})
	}
}

func TestMatchOptionalGroups(t *testing.T) {
	e := New(compile(t, `(a)|(b)`, compiler.Config{}))
	tests := []struct {
		input string
		want  string
	}{
		{"a", `(some("a"), none)`},
		{"b", `(none, some("b"))`},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			m, err := e.FirstMatch(tt.input, whole(tt.input), whole(tt.input))
			require.NoError(t, err)
			require.NotNil(t, m)
			require.Equal(t, tt.want, m.Captures.String())
		})
	}
}

func TestStepLimitCoversTheWholeSearch(t *testing.T) {
	prog := compile(t, `(?:ab|ba)*c`, compiler.Config{})
	input := "abababababababab"

	m, err := New(prog).FirstMatch(input, whole(input), whole(input))
	require.NoError(t, err)
	require.Nil(t, m)

	_, err = New(prog, WithStepLimit(50)).FirstMatch(input, whole(input), whole(input))
	require.True(t, errors.Is(err, program.ErrStepLimit), "got %v", err)
}

func TestWithTracer(t *testing.T) {
	var events int
	e := New(compile(t, `b`, compiler.Config{}), WithTracer(func(vm.TraceEvent) { events++ }))
	m, err := e.FirstMatch("ab", whole("ab"), whole("ab"))
	require.NoError(t, err)
	require.NotNil(t, m)
	// One failed attempt at 0, then match and accept at 1.
	require.Equal(t, 3, events)
}

func TestTracingProgramsLog(t *testing.T) {
	tests := []struct {
		name    string
		tracing bool
		logged  bool
	}{
		{"tracing enabled", true, true},
		{"tracing disabled", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			core, logs := observer.New(zap.DebugLevel)
			prog := compile(t, `a`, compiler.Config{EnableTracing: tt.tracing})
			e := New(prog, WithLogger(zap.New(core)))
			_, err := e.WholeMatch("a", whole("a"), whole("a"))
			require.NoError(t, err)
			require.Equal(t, tt.logged, logs.FilterMessage("cycle").Len() > 0)
		})
	}
}

func TestExecutorProgram(t *testing.T) {
	prog := compile(t, `a`, compiler.Config{})
	require.Same(t, prog, New(prog).Program())
}
