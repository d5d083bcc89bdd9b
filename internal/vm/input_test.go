package vm

import "testing"

func TestInputNextCharacter(t *testing.T) {
	tests := []struct {
		name  string
		input string
		pos   int
		want  int
	}{
		{"ascii", "abc", 0, 1},
		{"combining mark", "e\u0301x", 0, 3},
		{"crlf", "\r\nx", 0, 2},
		{"lone cr", "\rx", 0, 1},
		{"flag", "\U0001F1FA\U0001F1F8a", 0, 8},
		{"multibyte", "\u00e9a", 0, 2},
		{"end", "a", 1, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := newInput(tt.input)
			if got := in.nextCharacter(tt.pos, len(tt.input)); got != tt.want {
				t.Errorf("nextCharacter(%q, %d) = %d, want %d", tt.input, tt.pos, got, tt.want)
			}
		})
	}
}

func TestInputPrevCharacter(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  int
	}{
		{"ascii", "abc", 2},
		{"combining mark", "xe\u0301", 1},
		{"crlf", "a\r\n", 1},
		{"flag", "a\U0001F1FA\U0001F1F8", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := newInput(tt.input)
			if got := in.prevCharacter(len(tt.input), 0); got != tt.want {
				t.Errorf("prevCharacter(%q) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}

func TestInputIsBoundary(t *testing.T) {
	in := newInput("a\r\ne\u0301")
	tests := []struct {
		pos  int
		want bool
	}{
		{0, true},
		{1, true},
		{2, false},
		{3, true},
		{4, false},
		{6, true},
	}

	for _, tt := range tests {
		if got := in.isBoundary(tt.pos); got != tt.want {
			t.Errorf("isBoundary(%d) = %v, want %v", tt.pos, got, tt.want)
		}
	}
}

func TestInputScalarSteps(t *testing.T) {
	in := newInput("e\u0301")
	if got := in.nextUnit(0, 3, true); got != 1 {
		t.Errorf("nextUnit scalar = %d, want 1", got)
	}
	if got := in.nextUnit(0, 3, false); got != 3 {
		t.Errorf("nextUnit grapheme = %d, want 3", got)
	}
	if got := in.prevUnit(3, 0, true); got != 1 {
		t.Errorf("prevUnit scalar = %d, want 1", got)
	}
}

func TestInputNextNewline(t *testing.T) {
	tests := []struct {
		input string
		want  int
	}{
		{"ab\ncd", 2},
		{"ab\u2028c", 2},
		{"\u00e9\u0085", 2},
		{"abc", 3},
	}

	for _, tt := range tests {
		in := newInput(tt.input)
		if got := in.nextNewline(0, len(tt.input)); got != tt.want {
			t.Errorf("nextNewline(%q) = %d, want %d", tt.input, got, tt.want)
		}
	}
}
