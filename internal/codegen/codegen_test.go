package codegen

import (
	"bytes"
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/KromDaniel/regvm/internal/program"
	"github.com/KromDaniel/regvm/pkg/ast"
)

var emailTree = ast.Concat{
	ast.Capture{Name: "user", Child: ast.Plus(ast.Builtin{Class: ast.Word})},
	ast.Char("@"),
	ast.Capture{Name: "host", Child: ast.Quantification{
		Min:      1,
		MaxExtra: ast.Unbounded,
		Kind:     ast.Possessive,
		Child:    ast.CharSet{Ranges: []ast.RuneRange{{Lo: 'a', Hi: 'z'}, {Lo: '.', Hi: '.'}}},
	}},
	ast.Lookaround{Negative: true, Child: ast.Any{}},
	ast.WithOptions{Enable: ast.CaseInsensitive | ast.Multiline, Child: ast.Assertion{Kind: ast.EndOfLine}},
}

func TestRender(t *testing.T) {
	var buf bytes.Buffer
	err := Render(Config{
		Pattern: `(?P<user>\w+)@(?P<host>[a-z.]++)(?!.)`,
		Name:    "email",
		Package: "patterns",
		Options: ast.MatchingOptions{CaseInsensitive: true},
		Tree:    emailTree,
	}, &buf)
	require.NoError(t, err)

	src := buf.String()
	for _, want := range []string{
		"Code generated by regvm gen. DO NOT EDIT.",
		"package patterns",
		"var EmailPattern ast.Node",
		"regvm.MustCompileTree(EmailPattern",
		"CaseInsensitive: true",
		"ast.Possessive",
		"ast.Word",
		"ast.EndOfLine",
		"ast.CaseInsensitive | ast.Multiline",
		`Name: "user"`,
	} {
		require.Contains(t, src, want)
	}

	_, err = parser.ParseFile(token.NewFileSet(), "email.go", src, 0)
	require.NoError(t, err)
}

func TestSave(t *testing.T) {
	path := filepath.Join(t.TempDir(), "digits.go")
	err := Save(Config{
		Name:    "Digits",
		Package: "main",
		Options: ast.MatchingOptions{SemanticLevel: ast.UnicodeScalar},
		Tree:    ast.Plus(ast.Builtin{Class: ast.Digit}),
	}, path)
	require.NoError(t, err)

	src, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(src), "DigitsPattern is a pattern tree.")
	require.Contains(t, string(src), "ast.UnicodeScalar")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		config Config
	}{
		{"nil tree", Config{Name: "x", Package: "p"}},
		{"invalid name", Config{Name: "my-pattern", Package: "p", Tree: ast.Empty{}}},
		{"empty package", Config{Name: "x", Tree: ast.Empty{}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Error(t, tt.config.Validate())
			_, err := Generate(tt.config)
			require.Error(t, err)
		})
	}
}

func TestGenerateUnsupported(t *testing.T) {
	tests := []struct {
		name string
		tree ast.Node
	}{
		{"custom consumer", ast.CustomConsumer{Name: "digit"}},
		{"custom assertion", ast.Concat{ast.Char("a"), ast.CustomAssertion{Name: "even"}}},
		{"transform", ast.Capture{
			Transform: func(string, ast.Range) (any, error) { return nil, nil },
			Child:     ast.Char("a"),
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Generate(Config{Name: "x", Package: "p", Tree: tt.tree})
			require.True(t, errors.Is(err, program.ErrUnsupported), "got %v", err)
		})
	}
}
