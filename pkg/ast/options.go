package ast

import "strings"

// SemanticLevel selects the unit a single match step consumes.
type SemanticLevel uint8

const (
	// GraphemeCluster steps over extended grapheme clusters (characters).
	GraphemeCluster SemanticLevel = iota
	// UnicodeScalar steps over individual scalars.
	UnicodeScalar
)

func (l SemanticLevel) String() string {
	if l == UnicodeScalar {
		return "scalar"
	}
	return "grapheme"
}

// ParseSemanticLevel accepts "grapheme" or "scalar".
func ParseSemanticLevel(s string) (SemanticLevel, bool) {
	switch strings.ToLower(s) {
	case "grapheme", "graphemes", "character", "":
		return GraphemeCluster, true
	case "scalar", "scalars", "unicodescalar":
		return UnicodeScalar, true
	}
	return GraphemeCluster, false
}

// MatchingOptions are the options a pattern starts with.
type MatchingOptions struct {
	SemanticLevel     SemanticLevel
	CaseInsensitive   bool
	StrictASCII       bool
	DotMatchesNewline bool
	Multiline         bool
}

// OptionFlags is a set of boolean option toggles used by WithOptions.
type OptionFlags uint8

const (
	CaseInsensitive OptionFlags = 1 << iota
	StrictASCII
	DotMatchesNewline
	Multiline
	ScalarSemantics
)

// Apply returns o with the enabled flags switched on and the disabled
// flags switched off.
func (o MatchingOptions) Apply(enable, disable OptionFlags) MatchingOptions {
	set := func(flag OptionFlags, v *bool) {
		if enable&flag != 0 {
			*v = true
		}
		if disable&flag != 0 {
			*v = false
		}
	}
	set(CaseInsensitive, &o.CaseInsensitive)
	set(StrictASCII, &o.StrictASCII)
	set(DotMatchesNewline, &o.DotMatchesNewline)
	set(Multiline, &o.Multiline)
	if enable&ScalarSemantics != 0 {
		o.SemanticLevel = UnicodeScalar
	}
	if disable&ScalarSemantics != 0 {
		o.SemanticLevel = GraphemeCluster
	}
	return o
}

// String renders the options as a compact flag list, e.g. "scalar,i,m".
func (o MatchingOptions) String() string {
	parts := []string{o.SemanticLevel.String()}
	if o.CaseInsensitive {
		parts = append(parts, "i")
	}
	if o.StrictASCII {
		parts = append(parts, "ascii")
	}
	if o.DotMatchesNewline {
		parts = append(parts, "s")
	}
	if o.Multiline {
		parts = append(parts, "m")
	}
	return strings.Join(parts, ",")
}
