package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/KromDaniel/regvm/pkg/ast"
)

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&bytes.Buffer{})
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestMatchCommand(t *testing.T) {
	tests := []struct {
		name  string
		stdin string
		args  []string
		want  []string
	}{
		{
			name: "first",
			args: []string{"match", `\d+`, "abc 123"},
			want: []string{`"abc 123": 4..<7 "123" captures=()`},
		},
		{
			name: "all with stats",
			args: []string{"match", "--mode", "all", "--stats", "a", "banana"},
			want: []string{`1..<2 "a"`, `3..<4 "a"`, `5..<6 "a"`, "1 inputs (6 B), 1 matched, 3 matches"},
		},
		{
			name:  "standard input",
			stdin: "x1\ny\n",
			args:  []string{"match", `\d`},
			want:  []string{`"x1": 1..<2 "1"`, `"y": no match`},
		},
		{
			name: "captures",
			args: []string{"match", `(\w+)@(\w+)`, "me@host"},
			want: []string{`captures=("me", "host")`},
		},
		{
			name: "grapheme semantics",
			args: []string{"match", "--mode", "whole", `.`, "e\u0301"},
			want: []string{`0..<3`},
		},
		{
			name: "scalar semantics",
			args: []string{"match", "--semantics", "scalar", "--mode", "whole", `.`, "e\u0301"},
			want: []string{"no match"},
		},
		{
			name: "case-insensitive",
			args: []string{"match", "-i", "abc", "xABC"},
			want: []string{`1..<4 "ABC"`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := execute(t, tt.stdin, tt.args...)
			require.NoError(t, err)
			for _, want := range tt.want {
				require.Contains(t, out, want)
			}
		})
	}
}

func TestMatchCommandErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"unknown mode", []string{"match", "--mode", "some", "a", "a"}},
		{"unknown semantics", []string{"match", "--semantics", "bytes", "a", "a"}},
		{"invalid pattern", []string{"match", "a(b", "a"}},
		{"missing pattern", []string{"match"}},
		{"step limit", []string{"match", "--step-limit", "10", `(a|b)*c`, strings.Repeat("ab", 20)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, "", tt.args...)
			require.Error(t, err)
		})
	}
}

func TestConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "regvm.toml")
	require.NoError(t, os.WriteFile(path, []byte("case-insensitive = true\nsemantics = \"scalar\"\n"), 0o600))

	out, err := execute(t, "", "match", "--config", path, "abc", "ABC")
	require.NoError(t, err)
	require.Contains(t, out, `0..<3 "ABC"`)
}

func TestDisasmCommand(t *testing.T) {
	out, err := execute(t, "", "disasm", `a(b)c`)
	require.NoError(t, err)
	require.Contains(t, out, "beginCapture")
	require.Contains(t, out, "accept")
	require.Contains(t, out, "1 captures, structure atom")
}

func TestAnalyzeCommand(t *testing.T) {
	out, err := execute(t, "", "analyze", `(a+)+b`)
	require.NoError(t, err)
	require.Contains(t, out, "features:")
	require.Contains(t, out, "warning:")

	out, err = execute(t, "", "analyze", "--json", `(?P<word>\w+)`)
	require.NoError(t, err)
	var result struct {
		FeatureLabels []string `json:"feature_labels"`
		CaptureNames  []string `json:"capture_names"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	require.Contains(t, result.FeatureLabels, "Captures")
	require.Equal(t, []string{"word"}, result.CaptureNames)
}

func TestGenCommand(t *testing.T) {
	out, err := execute(t, "", "gen", "--name", "digits", "--package", "patterns", `\d+`)
	require.NoError(t, err)
	require.Contains(t, out, "package patterns")
	require.Contains(t, out, "DigitsPattern")

	path := filepath.Join(t.TempDir(), "digits.go")
	_, err = execute(t, "", "gen", "--name", "digits", "-o", path, `\d+`)
	require.NoError(t, err)
	src, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(src), "regvm.MustCompileTree(DigitsPattern")

	_, err = execute(t, "", "gen", `\d+`)
	require.Error(t, err)
}

func TestSemanticsFlag(t *testing.T) {
	f := semanticsFlag(ast.GraphemeCluster)
	require.Equal(t, "grapheme", f.String())
	require.Equal(t, "semantics", f.Type())

	require.NoError(t, f.Set("scalar"))
	require.Equal(t, "scalar", f.String())
	require.Equal(t, semanticsFlag(ast.UnicodeScalar), f)

	require.Error(t, f.Set("bytes"))
}

func TestReplaceCommand(t *testing.T) {
	out, err := execute(t, "", "replace", `(\w+)@(\w+)`, "$2 at $1", "me@host", "none")
	require.NoError(t, err)
	require.Equal(t, "host at me\nnone\n", out)

	out, err = execute(t, "k=v\n", "replace", `(?P<k>\w+)=(?P<v>\w+)`, "${v}=${k}")
	require.NoError(t, err)
	require.Equal(t, "v=k\n", out)

	_, err = execute(t, "", "replace", `(a)`, "$2", "a")
	require.Error(t, err)
}
