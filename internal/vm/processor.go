// Package vm implements the backtracking processor that executes regvm
// bytecode programs.
package vm

import (
	"github.com/pkg/errors"
	"golang.org/x/text/cases"

	"github.com/KromDaniel/regvm/internal/capture"
	"github.com/KromDaniel/regvm/internal/program"
	"github.com/KromDaniel/regvm/pkg/ast"
)

// MatchMode selects what counts as acceptance.
type MatchMode uint8

const (
	// PartialFromFront accepts a match that starts at the start position
	// and ends anywhere.
	PartialFromFront MatchMode = iota
	// WholeString accepts only a match that ends at the end of the search
	// bounds.
	WholeString
)

// State is the processor's run state.
type State uint8

const (
	InProgress State = iota
	Accept
	Fail
)

func (s State) String() string {
	switch s {
	case InProgress:
		return "inProgress"
	case Accept:
		return "accept"
	}
	return "fail"
}

// Option configures a Processor.
type Option func(*Processor)

// WithStepLimit aborts with program.ErrStepLimit after n cycles. The budget
// covers every attempt made through Reset. Zero means unlimited.
func WithStepLimit(n int) Option {
	return func(p *Processor) { p.stepLimit = n }
}

// WithTracer calls t before every cycle.
func WithTracer(t Tracer) Option {
	return func(p *Processor) { p.tracer = t }
}

// Processor executes one program against one input.
type Processor struct {
	prog    *program.Program
	in      *input
	subject program.Range
	search  program.Range
	mode    MatchMode

	pc    program.Address
	pos   int
	state State
	err   error

	savePoints []SavePoint
	callStack  []program.Address

	bools     []bool
	ints      []int
	positions []int
	captures  []capture.StoredCapture

	cycles      int
	totalCycles int
	stepLimit   int
	tracer      Tracer

	folder *cases.Caser
}

// New creates a processor positioned at search.Lo.
func New(prog *program.Program, in string, subject, search program.Range, mode MatchMode, opts ...Option) *Processor {
	regs := prog.Registers
	p := &Processor{
		prog:      prog,
		in:        newInput(in),
		subject:   subject,
		mode:      mode,
		bools:     make([]bool, regs.Bools),
		ints:      make([]int, regs.Ints),
		positions: make([]int, regs.Positions),
		captures:  make([]capture.StoredCapture, regs.Captures),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.Reset(search.Lo, search)
	return p
}

// Reset prepares the processor for a new attempt at position within
// search. Every mutable field returns to its initial value; buffers are
// kept.
func (p *Processor) Reset(position int, search program.Range) {
	p.pc = 0
	p.pos = position
	p.search = search
	p.state = InProgress
	p.err = nil
	p.savePoints = p.savePoints[:0]
	p.callStack = p.callStack[:0]
	clear(p.bools)
	copy(p.ints, p.prog.Registers.IntInitial)
	for i := range p.positions {
		p.positions[i] = -1
	}
	clear(p.captures)
	p.cycles = 0
}

// Run executes until the attempt accepts or fails. On acceptance it
// returns the end position. A non-nil error means the match was aborted.
func (p *Processor) Run() (end int, matched bool, err error) {
	for p.state == InProgress {
		p.cycle()
	}
	if p.state == Accept {
		return p.pos, true, nil
	}
	return 0, false, p.err
}

// Captures returns a copy of the capture registers.
func (p *Processor) Captures() []capture.StoredCapture {
	return append([]capture.StoredCapture(nil), p.captures...)
}

// Steps returns the cycles executed since the last Reset.
func (p *Processor) Steps() int { return p.cycles }

// TotalSteps returns the cycles executed since the processor was created.
func (p *Processor) TotalSteps() int { return p.totalCycles }

// State returns the run state.
func (p *Processor) State() State { return p.state }

// Position returns the current position.
func (p *Processor) Position() int { return p.pos }

// SavePoints returns the number of live save points.
func (p *Processor) SavePoints() int { return len(p.savePoints) }

// NextStart returns the position one character after pos (one scalar under
// scalar semantics), clamped to the search bounds.
func (p *Processor) NextStart(pos int) int {
	if pos >= p.search.Hi {
		return p.search.Hi
	}
	scalar := p.prog.InitialOptions.SemanticLevel == ast.UnicodeScalar
	return p.in.nextUnit(pos, p.search.Hi, scalar)
}

func (p *Processor) abort(err error) {
	p.state = Fail
	p.err = err
}

func (p *Processor) tryAccept() {
	if p.mode == WholeString && p.pos != p.search.Hi {
		p.signalFailure()
		return
	}
	p.state = Accept
}

// consumed moves to next and the following instruction, or backtracks.
func (p *Processor) consumed(next int, ok bool) {
	if !ok {
		p.signalFailure()
		return
	}
	p.pos = next
	p.pc++
}

func (p *Processor) cycle() {
	if p.pc < 0 || int(p.pc) >= len(p.prog.Instructions) {
		p.abort(program.Unreachable("pc %d out of range", p.pc))
		return
	}
	inst := p.prog.Instructions[p.pc]
	p.cycles++
	p.totalCycles++
	if p.stepLimit > 0 && p.totalCycles > p.stepLimit {
		p.abort(errors.Wrapf(program.ErrStepLimit, "after %d steps", p.stepLimit))
		return
	}
	if p.tracer != nil {
		p.tracer(TraceEvent{
			Cycle:       p.totalCycles,
			PC:          p.pc,
			Instruction: inst,
			Position:    p.pos,
			SavePoints:  len(p.savePoints),
			CallDepth:   len(p.callStack),
		})
	}

	pl := inst.Payload
	switch inst.Op {
	case program.OpNop:
		p.pc++

	case program.OpDecrement:
		p.ints[pl.Int]--
		p.bools[pl.Bool] = p.ints[pl.Int] == 0
		p.pc++

	case program.OpMoveImmediate:
		p.ints[pl.Int] = pl.Immediate
		p.pc++

	case program.OpMovePosition:
		p.positions[pl.Pos] = p.pos
		p.pc++

	case program.OpRestorePosition:
		p.pos = p.positions[pl.Pos]
		p.pc++

	case program.OpBranch:
		p.pc = pl.Addr

	case program.OpCondBranch:
		if p.bools[pl.Bool] {
			p.pc = pl.Addr
		} else {
			p.pc++
		}

	case program.OpCondBranchZeroElseDecrement:
		if p.ints[pl.Int] == 0 {
			p.pc = pl.Addr
		} else {
			p.ints[pl.Int]--
			p.pc++
		}

	case program.OpCondBranchSamePosition:
		if p.positions[pl.Pos] == p.pos {
			p.pc = pl.Addr
		} else {
			p.pc++
		}

	case program.OpSave:
		p.save(pl.Addr, true)
		p.pc++

	case program.OpSaveAddress:
		p.save(pl.Addr, false)
		p.pc++

	case program.OpSplit:
		p.save(pl.Addr2, true)
		p.pc = pl.Addr

	case program.OpClear:
		if len(p.savePoints) == 0 {
			p.abort(program.Unreachable("clear with no save point at %d", p.pc))
			return
		}
		p.savePoints = p.savePoints[:len(p.savePoints)-1]
		p.pc++

	case program.OpClearThrough:
		if !p.clearThrough(pl.Addr) {
			p.abort(program.Unreachable("clearThrough found no save point for %d", pl.Addr))
			return
		}
		p.pc++

	case program.OpFail:
		p.signalFailure()

	case program.OpCall:
		p.callStack = append(p.callStack, p.pc+1)
		p.pc = pl.Addr

	case program.OpRet:
		if len(p.callStack) == 0 {
			p.tryAccept()
			return
		}
		p.pc = p.callStack[len(p.callStack)-1]
		p.callStack = p.callStack[:len(p.callStack)-1]

	case program.OpAbort:
		msg := ""
		if pl.Index >= 0 && pl.Index < len(p.prog.Strings) {
			msg = p.prog.Strings[pl.Index]
		}
		p.abort(&program.AbortError{Message: msg})

	case program.OpAdvance:
		p.consumed(p.advanceBy(p.pos, pl.Immediate, pl.Flags))

	case program.OpMatch:
		p.consumed(p.matchCharacter(p.pos, p.prog.Elements[pl.Index], pl.Flags))

	case program.OpMatchScalar:
		p.consumed(p.matchScalar(p.pos, rune(pl.Immediate), pl.Flags))

	case program.OpMatchSequence:
		p.consumed(p.matchSequence(p.pos, p.prog.Sequences[pl.Index], pl.Flags))

	case program.OpMatchBitset:
		p.consumed(p.matchBitset(p.pos, p.prog.Bitsets[pl.Index], pl.Flags))

	case program.OpMatchBuiltin:
		p.consumed(p.matchBuiltin(p.pos, program.BuiltinClass(pl.Index), pl.Flags))

	case program.OpMatchAny:
		p.consumed(p.matchAny(p.pos, pl.Flags))

	case program.OpConsumeBy:
		p.consumeBy(pl)

	case program.OpAssertBy:
		ok, err := p.prog.Assertions[pl.Index](p.in.s, p.subject, p.pos)
		if err != nil {
			p.abort(&program.AbortError{Err: err})
			return
		}
		p.consumed(p.pos, ok)

	case program.OpAssert:
		p.consumed(p.pos, p.builtinAssert(program.AssertionKind(pl.Index), pl.Flags))

	case program.OpQuantify:
		p.runQuantify(pl)

	case program.OpBackreference:
		rng, ok := p.captures[pl.Capture].Latest()
		if !ok {
			p.signalFailure()
			return
		}
		p.consumed(p.matchSequence(p.pos, p.in.s[rng.Lo:rng.Hi], pl.Flags))

	case program.OpBeginCapture:
		p.captures[pl.Capture].Begin(p.pos)
		p.pc++

	case program.OpEndCapture:
		if !p.captures[pl.Capture].End(p.pos) {
			p.abort(program.Unreachable("endCapture c%d without beginCapture", pl.Capture))
			return
		}
		p.pc++

	case program.OpTransformCapture:
		p.transformCapture(pl)

	case program.OpAccept:
		p.tryAccept()

	default:
		p.abort(program.Unreachable("unknown opcode %s at %d", inst.Op, p.pc))
	}
}

func (p *Processor) consumeBy(pl program.Payload) {
	bounds := program.Range{Lo: p.subject.Lo, Hi: p.search.Hi}
	next, ok, err := p.prog.Consumers[pl.Index](p.in.s, bounds, p.pos)
	if err != nil {
		p.abort(&program.AbortError{Err: err})
		return
	}
	if !ok {
		p.signalFailure()
		return
	}
	lo, hi := p.pos, bounds.Hi
	if pl.Flags.Has(program.FlagReverse) {
		lo, hi = bounds.Lo, p.pos
	}
	if next < lo || next > hi {
		p.abort(program.Unreachable("consumer returned %d outside %d..<%d", next, lo, hi))
		return
	}
	p.pos = next
	p.pc++
}

func (p *Processor) transformCapture(pl program.Payload) {
	c := &p.captures[pl.Capture]
	rng, ok := c.Latest()
	if !ok {
		p.abort(program.Unreachable("transformCapture c%d before endCapture", pl.Capture))
		return
	}
	v, err := p.prog.Transforms[pl.Index](p.in.s, rng)
	if err != nil {
		p.abort(&program.AbortError{Err: err})
		return
	}
	if v == nil {
		p.signalFailure()
		return
	}
	c.SetValue(v)
	p.pc++
}
