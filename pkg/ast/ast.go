// Package ast defines the pattern tree that the regvm compiler turns into
// bytecode. Trees are usually produced by the regexp/syntax adapter, but
// callers can build them directly to reach features that have no textual
// syntax in Go (lookaround, possessive quantifiers, backreferences,
// pluggable consumers, assertions and capture transforms).
package ast

import "fmt"

// Node is a pattern tree node.
type Node interface {
	node()
}

// Range is a half-open span of byte offsets into the input string.
type Range struct {
	Lo, Hi int
}

// Len returns the number of bytes in the range.
func (r Range) Len() int { return r.Hi - r.Lo }

// IsEmpty reports whether the range covers no bytes.
func (r Range) IsEmpty() bool { return r.Hi <= r.Lo }

// Contains reports whether pos lies within [Lo, Hi].
func (r Range) Contains(pos int) bool { return pos >= r.Lo && pos <= r.Hi }

func (r Range) String() string { return fmt.Sprintf("%d..<%d", r.Lo, r.Hi) }

// ConsumeFunc is a pluggable matcher. It receives the whole input, the
// bounds it may read within and the current position. It returns the new
// position (>= pos, <= bounds.Hi) on success. A non-nil error aborts the
// entire match.
type ConsumeFunc func(input string, bounds Range, pos int) (next int, ok bool, err error)

// AssertionFunc is a pluggable zero-width assertion. A non-nil error aborts
// the entire match.
type AssertionFunc func(input string, bounds Range, pos int) (bool, error)

// TransformFunc turns the text of a capture into a typed value. Returning a
// nil value fails the current path; a non-nil error aborts the match.
type TransformFunc func(input string, span Range) (any, error)

// QuantKind is the disposition of a quantifier.
type QuantKind uint8

const (
	Eager QuantKind = iota
	Reluctant
	Possessive
)

func (k QuantKind) String() string {
	switch k {
	case Eager:
		return "eager"
	case Reluctant:
		return "reluctant"
	case Possessive:
		return "possessive"
	}
	return fmt.Sprintf("QuantKind(%d)", uint8(k))
}

// Unbounded is the MaxExtra value of a quantifier with no upper bound.
const Unbounded = -1

// BuiltinClass names a builtin character class.
type BuiltinClass uint8

const (
	AnyGrapheme BuiltinClass = iota
	Digit
	HorizontalWhitespace
	VerticalWhitespace
	NewlineSequence
	Whitespace
	Word
)

var builtinNames = [...]string{
	AnyGrapheme:          "anyGrapheme",
	Digit:                "digit",
	HorizontalWhitespace: "horizontalWhitespace",
	VerticalWhitespace:   "verticalWhitespace",
	NewlineSequence:      "newlineSequence",
	Whitespace:           "whitespace",
	Word:                 "word",
}

func (c BuiltinClass) String() string {
	if int(c) < len(builtinNames) {
		return builtinNames[c]
	}
	return fmt.Sprintf("BuiltinClass(%d)", uint8(c))
}

// AssertionKind names a builtin zero-width assertion.
type AssertionKind uint8

const (
	StartOfSubject AssertionKind = iota
	EndOfSubject
	EndOfSubjectBeforeNewline
	StartOfLine
	EndOfLine
	// Caret and Dollar resolve to line or subject anchors depending on the
	// Multiline option in effect.
	Caret
	Dollar
	WordBoundary
	NotWordBoundary
	SearchStart
	TextSegment
	NotTextSegment
)

var assertionNames = [...]string{
	StartOfSubject:            "startOfSubject",
	EndOfSubject:              "endOfSubject",
	EndOfSubjectBeforeNewline: "endOfSubjectBeforeNewline",
	StartOfLine:               "startOfLine",
	EndOfLine:                 "endOfLine",
	Caret:                     "caret",
	Dollar:                    "dollar",
	WordBoundary:              "wordBoundary",
	NotWordBoundary:           "notWordBoundary",
	SearchStart:               "searchStart",
	TextSegment:               "textSegment",
	NotTextSegment:            "notTextSegment",
}

func (k AssertionKind) String() string {
	if int(k) < len(assertionNames) {
		return assertionNames[k]
	}
	return fmt.Sprintf("AssertionKind(%d)", uint8(k))
}

// Empty matches the empty string.
type Empty struct{}

// Concat matches its children in sequence.
type Concat []Node

// Alternation tries its children in order; the first that leads to an
// overall match wins.
type Alternation []Node

// Quantification repeats Child at least Min times and at most Min+MaxExtra
// times. MaxExtra is Unbounded for open-ended quantifiers.
type Quantification struct {
	Min      int
	MaxExtra int
	Kind     QuantKind
	Child    Node
}

// Capture records the span matched by Child. Transform, when set, converts
// the captured text into a value stored alongside the span.
type Capture struct {
	Name      string
	Transform TransformFunc
	Child     Node
}

// Char matches a single character (one grapheme cluster).
type Char string

// Literal matches a sequence of characters.
type Literal string

// RuneRange is an inclusive range of scalars.
type RuneRange struct {
	Lo, Hi rune
}

// CharSet matches one character whose first scalar falls within one of the
// ranges (or none of them when Inverted).
type CharSet struct {
	Ranges   []RuneRange
	Inverted bool
}

// Builtin matches a builtin character class.
type Builtin struct {
	Class    BuiltinClass
	Inverted bool
}

// Any matches any character; newlines only when DotMatchesNewline is set.
type Any struct{}

// Assertion is a builtin zero-width assertion.
type Assertion struct {
	Kind AssertionKind
}

// CustomAssertion is a pluggable zero-width assertion.
type CustomAssertion struct {
	Name string
	Func AssertionFunc
}

// CustomConsumer is a pluggable matcher.
type CustomConsumer struct {
	Name string
	Func ConsumeFunc
}

// Backreference matches the text most recently captured by Group (1-based,
// numbered in depth-first pre-order).
type Backreference struct {
	Group int
}

// Lookaround asserts that Child matches (or, when Negative, does not match)
// ahead of or, when Behind, behind the current position without consuming
// input.
type Lookaround struct {
	Behind   bool
	Negative bool
	Child    Node
}

// Atomic matches Child once and discards its backtracking alternatives.
type Atomic struct {
	Child Node
}

// Abort stops the entire match with an error carrying Message.
type Abort struct {
	Message string
}

// WithOptions scopes an option change to Child.
type WithOptions struct {
	Enable  OptionFlags
	Disable OptionFlags
	Child   Node
}

func (Empty) node()           {}
func (Concat) node()          {}
func (Alternation) node()     {}
func (Quantification) node()  {}
func (Capture) node()         {}
func (Char) node()            {}
func (Literal) node()         {}
func (CharSet) node()         {}
func (Builtin) node()         {}
func (Any) node()             {}
func (Assertion) node()       {}
func (CustomAssertion) node() {}
func (CustomConsumer) node()  {}
func (Backreference) node()   {}
func (Lookaround) node()      {}
func (Atomic) node()          {}
func (Abort) node()           {}
func (WithOptions) node()     {}

// Star returns an eager zero-or-more quantification.
func Star(child Node) Quantification {
	return Quantification{Min: 0, MaxExtra: Unbounded, Kind: Eager, Child: child}
}

// Plus returns an eager one-or-more quantification.
func Plus(child Node) Quantification {
	return Quantification{Min: 1, MaxExtra: Unbounded, Kind: Eager, Child: child}
}

// Optional returns an eager zero-or-one quantification.
func Optional(child Node) Quantification {
	return Quantification{Min: 0, MaxExtra: 1, Kind: Eager, Child: child}
}

// Repeat returns an eager quantification matching between min and max
// times. A negative max means unbounded.
func Repeat(child Node, min, max int) Quantification {
	extra := Unbounded
	if max >= 0 {
		extra = max - min
	}
	return Quantification{Min: min, MaxExtra: extra, Kind: Eager, Child: child}
}

// Group returns an unnamed capture of child.
func Group(child Node) Capture {
	return Capture{Child: child}
}
