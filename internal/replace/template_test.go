package replace

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name     string
		template string
		want     []Segment
	}{
		{name: "empty", template: "", want: nil},
		{name: "literal only", template: "hello world", want: []Segment{{Kind: Text, Text: "hello world"}}},
		{name: "whole match", template: "$0", want: []Segment{{Kind: Group, Group: 0}}},
		{name: "single digit", template: "$1", want: []Segment{{Kind: Group, Group: 1}}},
		{name: "double digit", template: "$12", want: []Segment{{Kind: Group, Group: 12}}},
		{
			name:     "zero does not take a second digit",
			template: "$01",
			want:     []Segment{{Kind: Group, Group: 0}, {Kind: Text, Text: "1"}},
		},
		{name: "name", template: "$name", want: []Segment{{Kind: NamedGroup, Text: "name"}}},
		{name: "escaped dollar", template: "$$", want: []Segment{{Kind: Text, Text: "$"}}},
		{name: "braced number", template: "${1}", want: []Segment{{Kind: Group, Group: 1}}},
		{name: "braced name", template: "${name}", want: []Segment{{Kind: NamedGroup, Text: "name"}}},
		{name: "braced whole match", template: "${0}", want: []Segment{{Kind: Group, Group: 0}}},
		{
			name:     "names and literals",
			template: "$user@REDACTED.$tld",
			want: []Segment{
				{Kind: NamedGroup, Text: "user"},
				{Kind: Text, Text: "@REDACTED."},
				{Kind: NamedGroup, Text: "tld"},
			},
		},
		{
			name:     "braces end a name",
			template: "${1}0 ${word}s",
			want: []Segment{
				{Kind: Group, Group: 1},
				{Kind: Text, Text: "0 "},
				{Kind: NamedGroup, Text: "word"},
				{Kind: Text, Text: "s"},
			},
		},
		{name: "dollar at end", template: "cost: $", want: []Segment{{Kind: Text, Text: "cost: $"}}},
		{name: "dollar before a space", template: "$ 5", want: []Segment{{Kind: Text, Text: "$ 5"}}},
		{name: "dollar before non-ASCII", template: "$é", want: []Segment{{Kind: Text, Text: "$é"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.template)
			require.NoError(t, err)
			require.Equal(t, tt.template, got.Source)
			if diff := cmp.Diff(tt.want, got.Segments); diff != "" {
				t.Errorf("Parse(%q) mismatch (-want +got):\n%s", tt.template, diff)
			}
		})
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name     string
		template string
		contains string
	}{
		{"unclosed brace", "x${unclosed", "at offset 1: unclosed ${"},
		{"empty braces", "${}", "empty"},
		{"digits then letters", "${1abc}", "invalid group number"},
		{"invalid name", "${a-b}", "invalid group name"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.template)
			require.Error(t, err)
			require.Contains(t, err.Error(), tt.contains)
		})
	}
}

func TestBind(t *testing.T) {
	names := []string{"user", "", "tld"}
	tests := []struct {
		name     string
		template string
		want     []Segment
		wantErr  bool
	}{
		{name: "literal", template: "hello", want: []Segment{{Kind: Text, Text: "hello"}}},
		{name: "number in range", template: "$2", want: []Segment{{Kind: Group, Group: 2}}},
		{name: "whole match", template: "$0", want: []Segment{{Kind: Group, Group: 0}}},
		{
			name:     "names resolve to numbers",
			template: "$tld:$user",
			want: []Segment{
				{Kind: Group, Group: 3},
				{Kind: Text, Text: ":"},
				{Kind: Group, Group: 1},
			},
		},
		{name: "number out of range", template: "$4", wantErr: true},
		{name: "unknown name", template: "$domain", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tmpl, err := Parse(tt.template)
			require.NoError(t, err)

			bound, err := tmpl.Bind(names)
			if tt.wantErr {
				require.True(t, errors.Is(err, ErrReference), "got %v", err)
				return
			}
			require.NoError(t, err)
			if diff := cmp.Diff(tt.want, bound.Segments); diff != "" {
				t.Errorf("Bind mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

type fakeMatch struct {
	text   string
	groups []string // "" means the group did not participate
}

func (m fakeMatch) String() string { return m.text }

func (m fakeMatch) GroupText(i int) (string, bool) {
	if i < 1 || i > len(m.groups) || m.groups[i-1] == "" {
		return "", false
	}
	return m.groups[i-1], true
}

func TestExpand(t *testing.T) {
	m := fakeMatch{text: "me@host.com", groups: []string{"me", "", "com"}}
	tests := []struct {
		template string
		want     string
	}{
		{"$user at $tld", "me at com"},
		{"[$0]", "[me@host.com]"},
		{"<$2>", "<>"},
		{"$$1", "$1"},
	}

	for _, tt := range tests {
		t.Run(tt.template, func(t *testing.T) {
			tmpl, err := Parse(tt.template)
			require.NoError(t, err)
			bound, err := tmpl.Bind([]string{"user", "", "tld"})
			require.NoError(t, err)

			var b strings.Builder
			bound.Expand(&b, m)
			require.Equal(t, tt.want, b.String())
		})
	}
}
