package program

import (
	"fmt"
	"strings"

	"github.com/KromDaniel/regvm/pkg/ast"
)

// Range, option and function types are shared with the public pattern tree.
type (
	Range           = ast.Range
	MatchingOptions = ast.MatchingOptions
	SemanticLevel   = ast.SemanticLevel
	BuiltinClass    = ast.BuiltinClass
	AssertionKind   = ast.AssertionKind
	QuantKind       = ast.QuantKind
	ConsumeFunc     = ast.ConsumeFunc
	AssertionFunc   = ast.AssertionFunc
	TransformFunc   = ast.TransformFunc
)

// Address is an instruction index. Before assembly it may hold an address
// token id instead.
type Address int

// NoAddress marks an absent address operand.
const NoAddress Address = -1

// Register namespaces. Each is allocated monotonically by the Builder.
type (
	BoolRegister      int
	IntRegister       int
	PositionRegister  int
	CaptureRegister   int
	ElementRegister   int
	SequenceRegister  int
	StringRegister    int
	BitsetRegister    int
	ConsumeRegister   int
	AssertionRegister int
	TransformRegister int
)

// Flags modify how a matching instruction behaves.
type Flags uint16

const (
	FlagReverse Flags = 1 << iota
	FlagCaseInsensitive
	FlagScalarSemantics
	FlagInverted
	FlagStrictASCII
	FlagAnyMatchesNewline
	FlagBoundaryCheck
	FlagCapture
	FlagPossessive
)

var flagNames = []struct {
	flag Flags
	name string
}{
	{FlagReverse, "reverse"},
	{FlagCaseInsensitive, "i"},
	{FlagScalarSemantics, "scalar"},
	{FlagInverted, "inverted"},
	{FlagStrictASCII, "ascii"},
	{FlagAnyMatchesNewline, "dotall"},
	{FlagBoundaryCheck, "boundary"},
	{FlagCapture, "capture"},
	{FlagPossessive, "possessive"},
}

// Has reports whether every flag in f2 is set.
func (f Flags) Has(f2 Flags) bool { return f&f2 == f2 }

func (f Flags) String() string {
	var parts []string
	for _, fn := range flagNames {
		if f.Has(fn.flag) {
			parts = append(parts, fn.name)
		}
	}
	return strings.Join(parts, ",")
}

// QuantUnit is the kind of primitive a quantify instruction repeats.
type QuantUnit uint8

const (
	UnitASCIIChar QuantUnit = iota
	UnitBitset
	UnitBuiltin
	UnitAny
)

func (u QuantUnit) String() string {
	switch u {
	case UnitASCIIChar:
		return "asciiChar"
	case UnitBitset:
		return "bitset"
	case UnitBuiltin:
		return "builtin"
	case UnitAny:
		return "any"
	}
	return fmt.Sprintf("QuantUnit(%d)", uint8(u))
}

// Payload holds the operands of an instruction. Fields are interpreted per
// opcode; unused fields are zero.
type Payload struct {
	Addr  Address
	Addr2 Address

	Bool    BoolRegister
	Int     IntRegister
	Pos     PositionRegister
	Capture CaptureRegister

	// Index selects an entry of a constant or function table, a builtin
	// class, an assertion kind or a quantified ASCII byte.
	Index int

	// Immediate is a scalar, an integer value or a quantifier's minimum.
	Immediate int

	// Extra is a quantifier's extra trips (-1 when unbounded).
	Extra int

	Unit  QuantUnit
	Flags Flags
}

// Instruction is a single bytecode instruction.
type Instruction struct {
	Op      Opcode
	Payload Payload
}

// Quantify operand accessors.

// MinTrips returns the mandatory repetitions of a quantify instruction.
func (p Payload) MinTrips() int { return p.Immediate }

// ExtraTrips returns the optional repetitions of a quantify instruction,
// -1 when unbounded.
func (p Payload) ExtraTrips() int { return p.Extra }

// ASCIIByte returns the byte repeated by a UnitASCIIChar quantify.
func (p Payload) ASCIIByte() byte { return byte(p.Index) }

func (i Instruction) String() string {
	p := i.Payload
	var b strings.Builder
	b.WriteString(i.Op.String())
	arg := func(format string, args ...any) {
		b.WriteByte(' ')
		fmt.Fprintf(&b, format, args...)
	}
	switch i.Op {
	case OpDecrement:
		arg("i%d -> b%d", p.Int, p.Bool)
	case OpMoveImmediate:
		arg("%d -> i%d", p.Immediate, p.Int)
	case OpMovePosition, OpRestorePosition:
		arg("p%d", p.Pos)
	case OpBranch, OpSave, OpSaveAddress, OpClearThrough, OpCall:
		arg("@%d", p.Addr)
	case OpCondBranch:
		arg("b%d @%d", p.Bool, p.Addr)
	case OpCondBranchZeroElseDecrement:
		arg("i%d @%d", p.Int, p.Addr)
	case OpCondBranchSamePosition:
		arg("p%d @%d", p.Pos, p.Addr)
	case OpSplit:
		arg("@%d, @%d", p.Addr, p.Addr2)
	case OpAbort, OpNop:
		if p.Index >= 0 {
			arg("s%d", p.Index)
		}
	case OpAdvance:
		arg("%d", p.Immediate)
	case OpMatch:
		arg("e%d", p.Index)
	case OpMatchScalar:
		arg("%q", rune(p.Immediate))
	case OpMatchSequence:
		arg("q%d", p.Index)
	case OpMatchBitset:
		arg("bs%d", p.Index)
	case OpMatchBuiltin:
		arg("%s", BuiltinClass(p.Index))
	case OpConsumeBy:
		arg("fn%d", p.Index)
	case OpAssertBy:
		arg("as%d", p.Index)
	case OpAssert:
		arg("%s", AssertionKind(p.Index))
	case OpQuantify:
		extra := "inf"
		if p.Extra >= 0 {
			extra = fmt.Sprint(p.Extra)
		}
		unit := p.Unit.String()
		switch p.Unit {
		case UnitASCIIChar:
			unit = fmt.Sprintf("%q", rune(p.Index))
		case UnitBitset:
			unit = fmt.Sprintf("bs%d", p.Index)
		case UnitBuiltin:
			unit = BuiltinClass(p.Index).String()
		}
		arg("%s min=%d extra=%s", unit, p.Immediate, extra)
		if p.Flags.Has(FlagCapture) {
			arg("c%d", p.Capture)
		}
	case OpBeginCapture, OpEndCapture:
		arg("c%d", p.Capture)
	case OpTransformCapture:
		arg("c%d tr%d", p.Capture, p.Index)
	case OpBackreference:
		arg("c%d", p.Capture)
	}
	if i.Op.Info().Consumes || i.Op == OpAssert {
		if f := p.Flags &^ FlagCapture; f != 0 {
			arg("[%s]", f)
		}
	}
	return b.String()
}
