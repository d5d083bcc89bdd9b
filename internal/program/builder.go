package program

import (
	"github.com/pkg/errors"
)

// AddressToken is a placeholder for an instruction address that may not
// be known yet. Tokens are bound with Label or Resolve and substituted into
// instructions by Assemble.
type AddressToken int

type fixup struct {
	inst          int
	first, second AddressToken
	hasSecond     bool
}

// setVector stores values once and hands out stable indices.
type setVector[T comparable] struct {
	index  map[T]int
	stored []T
}

func (s *setVector[T]) store(v T) int {
	if i, ok := s.index[v]; ok {
		return i
	}
	if s.index == nil {
		s.index = make(map[T]int)
	}
	i := len(s.stored)
	s.index[v] = i
	s.stored = append(s.stored, v)
	return i
}

// Builder accumulates instructions, registers and constant tables, then
// assembles them into an immutable Program.
type Builder struct {
	instructions []Instruction

	elements  setVector[string]
	sequences setVector[string]
	strings   setVector[string]
	bitsets   setVector[ASCIIBitset]

	consumers  []ConsumeFunc
	assertions []AssertionFunc
	transforms []TransformFunc

	bools      int
	ints       int
	positions  int
	intInitial []int

	captureNames []string

	addressTokens []Address
	fixups        []fixup

	ratchet    AddressToken
	hasRatchet bool

	structure           CaptureStructure
	options             MatchingOptions
	canOnlyMatchAtStart bool
	minMatchLength      int
	tracing             bool
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// Registers

// MakeBoolRegister allocates a bool register.
func (b *Builder) MakeBoolRegister() BoolRegister {
	b.bools++
	return BoolRegister(b.bools - 1)
}

// MakeIntRegister allocates an int register starting at zero.
func (b *Builder) MakeIntRegister() IntRegister {
	return b.MakeIntRegisterInit(0)
}

// MakeIntRegisterInit allocates an int register starting at v.
func (b *Builder) MakeIntRegisterInit(v int) IntRegister {
	b.ints++
	b.intInitial = append(b.intInitial, v)
	return IntRegister(b.ints - 1)
}

// MakePositionRegister allocates a position register.
func (b *Builder) MakePositionRegister() PositionRegister {
	b.positions++
	return PositionRegister(b.positions - 1)
}

// MakePositionRegisterInit allocates a position register and emits an
// instruction storing the current position into it.
func (b *Builder) MakePositionRegisterInit() PositionRegister {
	r := b.MakePositionRegister()
	b.BuildMovePosition(r)
	return r
}

// MakeCapture allocates a capture register. Registers are numbered in
// allocation order; the compiler allocates one per group in pre-order.
func (b *Builder) MakeCapture(name string) CaptureRegister {
	b.captureNames = append(b.captureNames, name)
	return CaptureRegister(len(b.captureNames) - 1)
}

// CaptureCount returns the number of capture registers allocated so far.
func (b *Builder) CaptureCount() int {
	return len(b.captureNames)
}

// MakeConsumeFunction registers a pluggable matcher.
func (b *Builder) MakeConsumeFunction(fn ConsumeFunc) ConsumeRegister {
	b.consumers = append(b.consumers, fn)
	return ConsumeRegister(len(b.consumers) - 1)
}

// MakeAssertionFunction registers a pluggable assertion.
func (b *Builder) MakeAssertionFunction(fn AssertionFunc) AssertionRegister {
	b.assertions = append(b.assertions, fn)
	return AssertionRegister(len(b.assertions) - 1)
}

// MakeTransformFunction registers a capture transform.
func (b *Builder) MakeTransformFunction(fn TransformFunc) TransformRegister {
	b.transforms = append(b.transforms, fn)
	return TransformRegister(len(b.transforms) - 1)
}

// Addresses

// MakeAddress returns a fresh unbound address token.
func (b *Builder) MakeAddress() AddressToken {
	b.addressTokens = append(b.addressTokens, NoAddress)
	return AddressToken(len(b.addressTokens) - 1)
}

// Label binds t to the next instruction to be emitted.
func (b *Builder) Label(t AddressToken) {
	b.addressTokens[t] = Address(len(b.instructions))
}

// MakeLabel returns a token bound to the next instruction.
func (b *Builder) MakeLabel() AddressToken {
	t := b.MakeAddress()
	b.Label(t)
	return t
}

// Resolve binds t to the most recently emitted instruction.
func (b *Builder) Resolve(t AddressToken) {
	b.addressTokens[t] = Address(len(b.instructions) - 1)
}

// Fixup wires the most recent instruction's address operand to t.
func (b *Builder) Fixup(t AddressToken) {
	b.fixups = append(b.fixups, fixup{inst: len(b.instructions) - 1, first: t})
}

// Fixup2 wires both address operands of the most recent instruction.
func (b *Builder) Fixup2(first, second AddressToken) {
	b.fixups = append(b.fixups, fixup{inst: len(b.instructions) - 1, first: first, second: second, hasSecond: true})
}

// CurrentAddress returns the address the next instruction will occupy.
func (b *Builder) CurrentAddress() Address {
	return Address(len(b.instructions))
}

// PushEmptySavePoint emits a save point that carries no position and
// resumes at a shared fail instruction. It serves as the marker that
// BuildClearThroughEmptySavePoint pops through.
func (b *Builder) PushEmptySavePoint() {
	b.BuildSaveAddress(b.ratchetToken())
}

// BuildClearThroughEmptySavePoint discards every save point pushed since,
// and including, the most recent empty save point.
func (b *Builder) BuildClearThroughEmptySavePoint() {
	b.BuildClearThrough(b.ratchetToken())
}

func (b *Builder) ratchetToken() AddressToken {
	if !b.hasRatchet {
		b.ratchet = b.MakeAddress()
		b.hasRatchet = true
	}
	return b.ratchet
}

// Program-level settings

// SetCaptureStructure records the structure produced by the compiler.
func (b *Builder) SetCaptureStructure(s CaptureStructure) { b.structure = s }

// SetInitialOptions records the options the pattern starts with.
func (b *Builder) SetInitialOptions(o MatchingOptions) { b.options = o }

// SetCanOnlyMatchAtStart records whether searches need a single attempt.
func (b *Builder) SetCanOnlyMatchAtStart(v bool) { b.canOnlyMatchAtStart = v }

// SetMinMatchLength records the lower bound of any match length.
func (b *Builder) SetMinMatchLength(n int) { b.minMatchLength = n }

// EnableTracing marks the program for per-cycle tracing.
func (b *Builder) EnableTracing(v bool) { b.tracing = v }

// Emission

func (b *Builder) emit(op Opcode, p Payload) {
	b.instructions = append(b.instructions, Instruction{Op: op, Payload: p})
}

func (b *Builder) emitTo(op Opcode, p Payload, t AddressToken) {
	p.Addr = NoAddress
	p.Addr2 = NoAddress
	b.emit(op, p)
	b.Fixup(t)
}

// BuildNop emits a no-op carrying an optional listing annotation.
func (b *Builder) BuildNop(note string) {
	idx := -1
	if note != "" {
		idx = b.strings.store(note)
	}
	b.emit(OpNop, Payload{Index: idx})
}

// BuildDecrement decrements r and stores whether it reached zero in nowZero.
func (b *Builder) BuildDecrement(r IntRegister, nowZero BoolRegister) {
	b.emit(OpDecrement, Payload{Int: r, Bool: nowZero})
}

// BuildMoveImmediate stores v into r.
func (b *Builder) BuildMoveImmediate(v int, r IntRegister) {
	b.emit(OpMoveImmediate, Payload{Immediate: v, Int: r})
}

// BuildMovePosition stores the current position into r.
func (b *Builder) BuildMovePosition(r PositionRegister) {
	b.emit(OpMovePosition, Payload{Pos: r})
}

// BuildRestorePosition sets the current position from r.
func (b *Builder) BuildRestorePosition(r PositionRegister) {
	b.emit(OpRestorePosition, Payload{Pos: r})
}

// BuildBranch jumps to t.
func (b *Builder) BuildBranch(t AddressToken) {
	b.emitTo(OpBranch, Payload{}, t)
}

// BuildCondBranch jumps to t when r is set.
func (b *Builder) BuildCondBranch(r BoolRegister, t AddressToken) {
	b.emitTo(OpCondBranch, Payload{Bool: r}, t)
}

// BuildCondBranchZeroElseDecrement jumps to t when r is zero and
// decrements r otherwise.
func (b *Builder) BuildCondBranchZeroElseDecrement(r IntRegister, t AddressToken) {
	b.emitTo(OpCondBranchZeroElseDecrement, Payload{Int: r}, t)
}

// BuildCondBranchSamePosition jumps to t when the current position equals r.
func (b *Builder) BuildCondBranchSamePosition(r PositionRegister, t AddressToken) {
	b.emitTo(OpCondBranchSamePosition, Payload{Pos: r}, t)
}

// BuildSave pushes a save point resuming at t with the current position.
func (b *Builder) BuildSave(t AddressToken) {
	b.emitTo(OpSave, Payload{}, t)
}

// BuildSaveAddress pushes a save point resuming at t without a position.
func (b *Builder) BuildSaveAddress(t AddressToken) {
	b.emitTo(OpSaveAddress, Payload{}, t)
}

// BuildSplit pushes a save point resuming at saving and jumps to to.
func (b *Builder) BuildSplit(to, saving AddressToken) {
	b.emit(OpSplit, Payload{Addr: NoAddress, Addr2: NoAddress})
	b.Fixup2(to, saving)
}

// BuildClear discards the most recent save point.
func (b *Builder) BuildClear() {
	b.emit(OpClear, Payload{})
}

// BuildClearThrough discards save points up to and including the most
// recent one resuming at t.
func (b *Builder) BuildClearThrough(t AddressToken) {
	b.emitTo(OpClearThrough, Payload{}, t)
}

// BuildFail backtracks.
func (b *Builder) BuildFail() {
	b.emit(OpFail, Payload{})
}

// BuildCall pushes the return address and jumps to t.
func (b *Builder) BuildCall(t AddressToken) {
	b.emitTo(OpCall, Payload{}, t)
}

// BuildRet returns from a call, or accepts on an empty call stack.
func (b *Builder) BuildRet() {
	b.emit(OpRet, Payload{})
}

// BuildAbort stops the match with message.
func (b *Builder) BuildAbort(message string) {
	b.emit(OpAbort, Payload{Index: b.strings.store(message)})
}

// BuildAdvance moves forward n characters.
func (b *Builder) BuildAdvance(n int, flags Flags) {
	b.emit(OpAdvance, Payload{Immediate: n, Flags: flags})
}

// BuildMatch matches one character.
func (b *Builder) BuildMatch(char string, flags Flags) {
	b.emit(OpMatch, Payload{Index: b.elements.store(char), Flags: flags})
}

// BuildMatchScalar matches one scalar. With FlagBoundaryCheck the scalar
// must also end a character.
func (b *Builder) BuildMatchScalar(r rune, flags Flags) {
	b.emit(OpMatchScalar, Payload{Immediate: int(r), Flags: flags})
}

// BuildMatchSequence matches a literal sequence.
func (b *Builder) BuildMatchSequence(s string, flags Flags) {
	b.emit(OpMatchSequence, Payload{Index: b.sequences.store(s), Flags: flags})
}

// BuildMatchBitset matches one character against an ASCII bitset.
func (b *Builder) BuildMatchBitset(set ASCIIBitset, flags Flags) {
	b.emit(OpMatchBitset, Payload{Index: b.bitsets.store(set), Flags: flags})
}

// BuildMatchBuiltin matches one character of a builtin class.
func (b *Builder) BuildMatchBuiltin(class BuiltinClass, flags Flags) {
	b.emit(OpMatchBuiltin, Payload{Index: int(class), Flags: flags})
}

// BuildMatchAny matches any character (newlines with FlagAnyMatchesNewline).
func (b *Builder) BuildMatchAny(flags Flags) {
	b.emit(OpMatchAny, Payload{Flags: flags})
}

// BuildConsumeBy runs a pluggable matcher.
func (b *Builder) BuildConsumeBy(r ConsumeRegister, flags Flags) {
	b.emit(OpConsumeBy, Payload{Index: int(r), Flags: flags})
}

// BuildAssertBy runs a pluggable assertion.
func (b *Builder) BuildAssertBy(r AssertionRegister) {
	b.emit(OpAssertBy, Payload{Index: int(r)})
}

// BuildAssert runs a builtin assertion.
func (b *Builder) BuildAssert(kind AssertionKind, flags Flags) {
	b.emit(OpAssert, Payload{Index: int(kind), Flags: flags})
}

// QuantifySpec describes a specialized quantifier loop over one primitive.
type QuantifySpec struct {
	Unit    QuantUnit
	Byte    byte        // UnitASCIIChar
	Bitset  ASCIIBitset // UnitBitset
	Builtin BuiltinClass
	Min     int
	Extra   int // -1 when unbounded
	Flags   Flags

	// Capture, when HasCapture is set, receives one history span per
	// repetition.
	Capture    CaptureRegister
	HasCapture bool
}

// BuildQuantify emits a specialized quantifier loop.
func (b *Builder) BuildQuantify(q QuantifySpec) {
	p := Payload{Unit: q.Unit, Immediate: q.Min, Extra: q.Extra, Flags: q.Flags}
	switch q.Unit {
	case UnitASCIIChar:
		p.Index = int(q.Byte)
	case UnitBitset:
		p.Index = b.bitsets.store(q.Bitset)
	case UnitBuiltin:
		p.Index = int(q.Builtin)
	}
	if q.HasCapture {
		p.Capture = q.Capture
		p.Flags |= FlagCapture
	}
	b.emit(OpQuantify, p)
}

// BuildBeginCapture marks the start of a capture.
func (b *Builder) BuildBeginCapture(c CaptureRegister) {
	b.emit(OpBeginCapture, Payload{Capture: c})
}

// BuildEndCapture closes a capture and appends the span to its history.
func (b *Builder) BuildEndCapture(c CaptureRegister) {
	b.emit(OpEndCapture, Payload{Capture: c})
}

// BuildTransformCapture converts the latest span of c with t.
func (b *Builder) BuildTransformCapture(c CaptureRegister, t TransformRegister) {
	b.emit(OpTransformCapture, Payload{Capture: c, Index: int(t)})
}

// BuildBackreference matches the latest text captured by c.
func (b *Builder) BuildBackreference(c CaptureRegister, flags Flags) {
	b.emit(OpBackreference, Payload{Capture: c, Flags: flags})
}

// BuildAccept finishes the match.
func (b *Builder) BuildAccept() {
	b.emit(OpAccept, Payload{})
}

// Assembly

// Assemble substitutes every bound token into the instructions that refer
// to it. It fails on unbound tokens and on fixups of instructions that
// carry no address operand.
func (b *Builder) Assemble() error {
	if b.hasRatchet && b.addressTokens[b.ratchet] == NoAddress {
		b.Label(b.ratchet)
		b.BuildFail()
	}
	resolve := func(t AddressToken) (Address, error) {
		if int(t) < 0 || int(t) >= len(b.addressTokens) {
			return NoAddress, Unreachable("unknown address token %d", t)
		}
		addr := b.addressTokens[t]
		if addr == NoAddress {
			return NoAddress, Unreachable("unresolved address token %d", t)
		}
		return addr, nil
	}
	for _, f := range b.fixups {
		inst := &b.instructions[f.inst]
		want := inst.Op.Info().Addresses
		if want == 0 || (f.hasSecond && want < 2) {
			return Unreachable("fixup on %s at %d", inst.Op, f.inst)
		}
		addr, err := resolve(f.first)
		if err != nil {
			return errors.Wrapf(err, "instruction %d (%s)", f.inst, inst.Op)
		}
		inst.Payload.Addr = addr
		if f.hasSecond {
			addr, err = resolve(f.second)
			if err != nil {
				return errors.Wrapf(err, "instruction %d (%s)", f.inst, inst.Op)
			}
			inst.Payload.Addr2 = addr
		}
	}
	b.fixups = b.fixups[:0]
	return nil
}

// Build assembles and returns the program.
func (b *Builder) Build() (*Program, error) {
	if err := b.Assemble(); err != nil {
		return nil, err
	}
	for i, inst := range b.instructions {
		info := inst.Op.Info()
		if info.Addresses > 0 && inst.Payload.Addr == NoAddress ||
			info.Addresses > 1 && inst.Payload.Addr2 == NoAddress {
			return nil, Unreachable("instruction %d (%s) has no target", i, inst.Op)
		}
	}
	ratchet := NoAddress
	if b.hasRatchet {
		ratchet = b.addressTokens[b.ratchet]
	}
	structure := b.structure
	if structure.Kind == StructEmpty && len(b.captureNames) > 0 {
		atoms := make([]CaptureStructure, len(b.captureNames))
		for i, n := range b.captureNames {
			atoms[i] = Atom(n)
		}
		structure = Tuple(atoms...)
		if len(atoms) == 1 {
			structure = atoms[0]
		}
	}
	if got := structure.CaptureCount(); got != len(b.captureNames) {
		return nil, errors.Wrapf(ErrCaptureMismatch, "structure has %d captures, program has %d", got, len(b.captureNames))
	}
	return &Program{
		Instructions: b.instructions,
		Elements:     b.elements.stored,
		Sequences:    b.sequences.stored,
		Strings:      b.strings.stored,
		Bitsets:      b.bitsets.stored,
		Consumers:    b.consumers,
		Assertions:   b.assertions,
		Transforms:   b.transforms,
		Registers: RegisterInfo{
			Bools:      b.bools,
			Ints:       b.ints,
			Positions:  b.positions,
			Captures:   len(b.captureNames),
			Elements:   len(b.elements.stored),
			Sequences:  len(b.sequences.stored),
			Strings:    len(b.strings.stored),
			Bitsets:    len(b.bitsets.stored),
			Consumers:  len(b.consumers),
			Assertions: len(b.assertions),
			Transforms: len(b.transforms),
			IntInitial: b.intInitial,
		},
		CaptureStructure:    structure,
		CaptureNames:        b.captureNames,
		InitialOptions:      b.options,
		CanOnlyMatchAtStart: b.canOnlyMatchAtStart,
		MinMatchLength:      b.minMatchLength,
		EnableTracing:       b.tracing,
		RatchetAddress:      ratchet,
	}, nil
}
