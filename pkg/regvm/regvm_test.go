package regvm

import (
	"bytes"
	"strings"
	"sync"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/KromDaniel/regvm/pkg/ast"
)

func ranges(ms []*Match) []string {
	out := make([]string, len(ms))
	for i, m := range ms {
		out[i] = m.Range.String()
	}
	return out
}

func TestCompileErrors(t *testing.T) {
	_, err := Compile("a(")
	require.Error(t, err)

	tests := []struct {
		name string
		tree ast.Node
		want error
	}{
		{"invalid reference", ast.Backreference{Group: 2}, ErrInvalidReference},
		{"uncaptured reference", ast.Concat{ast.Backreference{Group: 1}, ast.Group(ast.Char("a"))}, ErrUncapturedReference},
		{"consumer in lookbehind", ast.Lookaround{Behind: true, Child: ast.CustomConsumer{
			Name: "c",
			Func: func(string, ast.Range, int) (int, bool, error) { return 0, false, nil },
		}}, ErrUnsupported},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := CompileTree(tt.tree)
			require.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}
}

func TestMustCompile(t *testing.T) {
	require.Panics(t, func() { MustCompile("a(") })
	require.Panics(t, func() { MustCompileTree(ast.Backreference{Group: 1}) })
	require.Equal(t, `\d+`, MustCompile(`\d+`).String())
	require.Empty(t, MustCompileTree(ast.Char("a")).String())
}

func TestFindAll(t *testing.T) {
	re := MustCompile(`\d`)
	tests := []struct {
		n    int
		want []string
	}{
		{-1, []string{"0..<1", "1..<2", "2..<3"}},
		{2, []string{"0..<1", "1..<2"}},
		{0, []string{}},
	}

	for _, tt := range tests {
		ms, err := re.FindAll("123", tt.n)
		require.NoError(t, err)
		require.Equal(t, tt.want, ranges(ms))
	}
}

func TestMatchString(t *testing.T) {
	re := MustCompile(`b+`)
	ok, err := re.MatchString("abba")
	require.NoError(t, err)
	require.True(t, ok)
	ok, err = re.MatchString("aaa")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestCaptureMetadata(t *testing.T) {
	re := MustCompile(`(?P<key>\w+)=(\w+)?`)
	require.Equal(t, 2, re.NumCaptures())
	require.Equal(t, []string{"key", ""}, re.CaptureNames())
	require.Equal(t, "tuple(atom, optional(atom))", re.CaptureStructure())

	m, err := re.WholeMatch("a=")
	require.NoError(t, err)
	require.NotNil(t, m)
	require.Equal(t, `("a", none)`, m.Captures.String())
}

func TestLoopedGroupMetadata(t *testing.T) {
	tests := []struct {
		pattern   string
		names     []string
		structure string
	}{
		{`(ab)+`, []string{""}, "array(atom)"},
		{`(?P<w>ab){2,3}`, []string{"w"}, "array(atom)"},
		{`(?P<w>ab){2,3}(?P<end>c)`, []string{"w", "end"}, "tuple(array(atom), atom)"},
		{`((a)b)+`, []string{"", ""}, "tuple(array(atom), array(atom))"},
	}

	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			re := MustCompile(tt.pattern)
			require.Equal(t, len(tt.names), re.NumCaptures())
			require.Equal(t, tt.names, re.CaptureNames())
			require.Equal(t, tt.structure, re.CaptureStructure())
		})
	}
}

func TestDisassemble(t *testing.T) {
	tests := []struct {
		pattern string
		want    string
		absent  string
	}{
		{`a(bc)*d`, "beginCapture", "quantify"},
		{`a(b)*c`, "quantify", "beginCapture"},
		{`(?s)a.{4}`, "advance", "quantify"},
	}

	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			re := MustCompile(tt.pattern)
			var buf bytes.Buffer
			require.NoError(t, re.Disassemble(&buf))
			listing := buf.String()
			require.Contains(t, listing, tt.want)
			require.NotContains(t, listing, tt.absent)
			require.Contains(t, listing, "accept")
			require.Positive(t, re.Instructions())
		})
	}
}

func TestFirstMatchIn(t *testing.T) {
	tests := []struct {
		name    string
		pattern string
		input   string
		search  ast.Range
		want    string
	}{
		{"inside the search range", `a`, "aa", ast.Range{Lo: 1, Hi: 2}, "1..<2"},
		{"start anchor sees the subject", `^a`, "aa", ast.Range{Lo: 1, Hi: 2}, ""},
		{"word boundary sees the subject", `\ba`, "ba", ast.Range{Lo: 1, Hi: 2}, ""},
		{"match cannot leave the search range", `ab`, "ab", ast.Range{Lo: 0, Hi: 1}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := MustCompile(tt.pattern).FirstMatchIn(tt.input, tt.search)
			require.NoError(t, err)
			if tt.want == "" {
				require.Nil(t, m)
				return
			}
			require.NotNil(t, m)
			require.Equal(t, tt.want, m.Range.String())
		})
	}

	_, err := MustCompile("a").FirstMatchIn("aa", ast.Range{Lo: 1, Hi: 3})
	require.Error(t, err)
}

func TestMatchingOptions(t *testing.T) {
	word := ast.Builtin{Class: ast.Word}
	tests := []struct {
		name  string
		re    *Regex
		input string
		want  bool
	}{
		{"case-insensitive", MustCompile(`abc`, WithCaseInsensitive(true)), "ABC", true},
		{"case-sensitive", MustCompile(`abc`), "ABC", false},
		{"dotall", MustCompile(`a.b`, WithDotMatchesNewline(true)), "a\nb", true},
		{"dot", MustCompile(`a.b`), "a\nb", false},
		{"dot rejects CR", MustCompile(`a.b`), "a\rb", false},
		{"dot rejects line separator", MustCompile(`a.b`), "a\u2028b", false},
		{"unicode word boundary", MustCompile("\\b\u00e9"), "\u00e9", true},
		{"strict ASCII word boundary", MustCompile("\\b\u00e9", WithStrictASCII(true)), "\u00e9", false},
		{"strict ASCII word", MustCompileTree(word, WithStrictASCII(true)), "\u00e9", false},
		{"unicode word", MustCompileTree(word), "\u00e9", true},
		{"grapheme dot", MustCompile(`.`), "e\u0301", true},
		{"scalar dot", MustCompile(`.`, WithSemanticLevel(ast.UnicodeScalar)), "e\u0301", false},
		{"options at once", MustCompile(`a.b`, WithOptions(ast.MatchingOptions{CaseInsensitive: true, DotMatchesNewline: true})), "A\nB", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := tt.re.WholeMatch(tt.input)
			require.NoError(t, err)
			require.Equal(t, tt.want, m != nil)
		})
	}
}

func TestMultiline(t *testing.T) {
	ms, err := MustCompile(`^\w`, WithMultiline(true)).FindAll("ab\ncd\nef", -1)
	require.NoError(t, err)
	require.Equal(t, []string{"0..<1", "3..<4", "6..<7"}, ranges(ms))

	ms, err = MustCompile(`^\w`).FindAll("ab\ncd\nef", -1)
	require.NoError(t, err)
	require.Equal(t, []string{"0..<1"}, ranges(ms))
}

func TestTreeFeatures(t *testing.T) {
	a, b := ast.Char("a"), ast.Char("b")
	tests := []struct {
		name  string
		tree  ast.Node
		input string
		want  string
	}{
		{
			name:  "eager star gives back",
			tree:  ast.Concat{ast.Star(a), a},
			input: "aaa",
			want:  "0..<3",
		},
		{
			name:  "possessive star keeps everything",
			tree:  ast.Concat{ast.Quantification{MaxExtra: ast.Unbounded, Kind: ast.Possessive, Child: a}, a},
			input: "aaa",
		},
		{
			name:  "lookbehind",
			tree:  ast.Concat{ast.Lookaround{Behind: true, Child: a}, b},
			input: "bab",
			want:  "2..<3",
		},
		{
			name:  "negative lookbehind",
			tree:  ast.Concat{ast.Lookaround{Behind: true, Negative: true, Child: a}, b},
			input: "abb",
			want:  "2..<3",
		},
		{
			name:  "lookahead",
			tree:  ast.Concat{a, ast.Lookaround{Child: b}},
			input: "aab",
			want:  "1..<2",
		},
		{
			name:  "atomic group",
			tree:  ast.Concat{ast.Atomic{Child: ast.Star(a)}, a},
			input: "aaa",
		},
		{
			name:  "backreference",
			tree:  ast.Concat{ast.Group(ast.Plus(ast.Builtin{Class: ast.Word})), ast.Char(" "), ast.Backreference{Group: 1}},
			input: "say hey hey",
			want:  "4..<11",
		},
		{
			name: "case-insensitive backreference",
			tree: ast.WithOptions{Enable: ast.CaseInsensitive, Child: ast.Concat{
				ast.Group(ast.Plus(ast.CharSet{Ranges: []ast.RuneRange{{Lo: 'a', Hi: 'z'}}})),
				ast.Backreference{Group: 1},
			}},
			input: "abAB",
			want:  "0..<4",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			re, err := CompileTree(tt.tree)
			require.NoError(t, err)
			m, err := re.FirstMatch(tt.input)
			require.NoError(t, err)
			if tt.want == "" {
				require.Nil(t, m)
				return
			}
			require.NotNil(t, m)
			require.Equal(t, tt.want, m.Range.String())
		})
	}
}

func TestTransformCaptures(t *testing.T) {
	hexByte := ast.Capture{
		Name:  "byte",
		Child: ast.Repeat(ast.CharSet{Ranges: []ast.RuneRange{{Lo: '0', Hi: '9'}, {Lo: 'a', Hi: 'f'}}}, 2, 2),
		Transform: func(input string, span ast.Range) (any, error) {
			var v int
			for _, c := range input[span.Lo:span.Hi] {
				d := int(c - '0')
				if c >= 'a' {
					d = int(c-'a') + 10
				}
				v = v*16 + d
			}
			return v, nil
		},
	}
	re := MustCompileTree(ast.Concat{ast.Char("#"), hexByte})
	m, err := re.FirstMatch("color #ff")
	require.NoError(t, err)
	require.NotNil(t, m)
	require.Equal(t, "255", m.Captures.String())
	require.Equal(t, 255, m.Captures.Value)
	require.Equal(t, "byte", m.Captures.Name)
}

func TestAbort(t *testing.T) {
	boom := errors.New("boom")
	tests := []struct {
		name    string
		tree    ast.Node
		message string
		cause   error
	}{
		{"abort node", ast.Alternation{ast.Concat{ast.Char("b"), ast.Abort{Message: "no b"}}, ast.Char("b")}, "no b", nil},
		{"assertion error", ast.Concat{ast.Char("b"), ast.CustomAssertion{
			Name: "fails",
			Func: func(string, ast.Range, int) (bool, error) { return false, boom },
		}}, "", boom},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := MustCompileTree(tt.tree).FirstMatch("ab")
			require.Nil(t, m)
			var abort *AbortError
			require.True(t, errors.As(err, &abort), "got %v", err)
			require.Equal(t, tt.message, abort.Message)
			if tt.cause != nil {
				require.True(t, errors.Is(err, tt.cause))
			}
		})
	}
}

func TestStepLimit(t *testing.T) {
	input := strings.Repeat("ab", 20)
	m, err := MustCompile(`(?:ab|ba)*c`, WithStepLimit(100)).FirstMatch(input)
	require.Nil(t, m)
	require.True(t, errors.Is(err, ErrStepLimit), "got %v", err)

	m, err = MustCompile(`(?:ab|ba)*c`).FirstMatch(input)
	require.NoError(t, err)
	require.Nil(t, m)
}

func TestConcurrentUse(t *testing.T) {
	re := MustCompile(`(\w+)@(\w+)\.com`)
	inputs := []string{"x me@host.com", "you@there.com", "nobody"}
	want := []string{`("me", "host")`, `("you", "there")`, ""}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j, in := range inputs {
				m, err := re.FirstMatch(in)
				if err != nil {
					t.Error(err)
					return
				}
				got := ""
				if m != nil {
					got = m.Captures.String()
				}
				if got != want[j] {
					t.Errorf("FirstMatch(%q) captures = %s, want %s", in, got, want[j])
				}
			}
		}()
	}
	wg.Wait()
}

func TestAnalyze(t *testing.T) {
	res, err := Analyze(`(?P<name>\w+)`)
	require.NoError(t, err)
	require.Equal(t, []string{"Captures", "CharClass", "Quantifiers"}, res.FeatureLabels)
	require.Equal(t, []string{"Backtracking", "QuantifyFastPath"}, res.EngineLabels)

	res, err = AnalyzeTree(ast.Atomic{Child: ast.Char("a")})
	require.NoError(t, err)
	require.Equal(t, []string{"Atomic"}, res.FeatureLabels)
	require.Contains(t, res.EngineLabels, "Ratchet")

	_, err = Analyze("(")
	require.Error(t, err)
}

func TestReplaceAll(t *testing.T) {
	tests := []struct {
		name     string
		pattern  string
		input    string
		template string
		want     string
	}{
		{"swap groups", `(\w+)@(\w+)`, "a@b c@d", "$2@$1", "b@a d@c"},
		{"named groups", `(?P<key>\w+)=(?P<value>\w+)`, "x=1;y=2", "${value}=$key", "1=x;2=y"},
		{"whole match", `\d+`, "a1b22", "<$0>", "a<1>b<22>"},
		{"no match", `\d`, "abc", "#", "abc"},
		{"unmatched group", `(a)|b`, "ab", "[$1]", "[a][]"},
		{"empty matches", `a*`, "baa", "-", "-b--"},
		{"literal dollar", `x`, "x", "$$", "$"},
		{"looped group keeps its number", `(ab)+(c)`, "ababc x", "$2$1", "cab x"},
		{"named looped group", `(?P<w>ab){2,3}`, "ababab", "<${w}>", "<ab>"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := MustCompile(tt.pattern).ReplaceAll(tt.input, tt.template)
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestReplaceAllErrors(t *testing.T) {
	re := MustCompile(`(a)`)

	_, err := re.ReplaceAll("a", "$2")
	require.ErrorIs(t, err, ErrTemplateReference)

	_, err = re.ReplaceAll("a", "$name")
	require.ErrorIs(t, err, ErrTemplateReference)

	_, err = re.ReplaceAll("a", "${")
	require.Error(t, err)

	_, err = MustCompile(`a`, WithStepLimit(1)).ReplaceAll("aaa", "b")
	require.ErrorIs(t, err, ErrStepLimit)
}
