package vm

import (
	"github.com/KromDaniel/regvm/internal/capture"
	"github.com/KromDaniel/regvm/internal/program"
)

// SavePoint is a backtracking record. Three varieties exist:
//   - ordinary: resume at pc with a saved position;
//   - address-only: resume at pc keeping the current position;
//   - quantified range: a contiguous run of positions left behind by an
//     eager quantifier, retried one unit at a time.
type SavePoint struct {
	pc     program.Address
	pos    int
	hasPos bool

	isRange   bool
	rangeNext int // next position to restore
	rangeLast int // last position to restore
	reverse   bool
	scalar    bool

	quantCapture    program.CaptureRegister
	hasQuantCapture bool

	callDepth int
	captures  []capture.StoredCapture
	ints      []int
	positions []int
}

// PC returns the resume address.
func (sp *SavePoint) PC() program.Address { return sp.pc }

// IsRange reports whether this is a quantified range save point.
func (sp *SavePoint) IsRange() bool { return sp.isRange }

// Range returns the positions a range save point still holds, in the
// order they are restored.
func (sp *SavePoint) Range() (next, last int) { return sp.rangeNext, sp.rangeLast }

// pushSavePoint records sp together with a snapshot of the capture, int and
// position registers. Snapshot buffers of popped save points are reused.
func (p *Processor) pushSavePoint(sp SavePoint) {
	sp.callDepth = len(p.callStack)
	n := len(p.savePoints)
	if n < cap(p.savePoints) {
		p.savePoints = p.savePoints[:n+1]
		slot := &p.savePoints[n]
		caps, ints, positions := slot.captures[:0], slot.ints[:0], slot.positions[:0]
		*slot = sp
		slot.captures = append(caps, p.captures...)
		slot.ints = append(ints, p.ints...)
		slot.positions = append(positions, p.positions...)
		return
	}
	sp.captures = append([]capture.StoredCapture(nil), p.captures...)
	sp.ints = append([]int(nil), p.ints...)
	sp.positions = append([]int(nil), p.positions...)
	p.savePoints = append(p.savePoints, sp)
}

func (p *Processor) save(resume program.Address, withPosition bool) {
	p.pushSavePoint(SavePoint{pc: resume, pos: p.pos, hasPos: withPosition})
}

// saveRange records the positions an eager quantifier may give back: next
// is restored first, then each unit toward last.
func (p *Processor) saveRange(resume program.Address, next, last int, pl program.Payload) {
	p.pushSavePoint(SavePoint{
		pc:              resume,
		isRange:         true,
		rangeNext:       next,
		rangeLast:       last,
		reverse:         pl.Flags.Has(program.FlagReverse),
		scalar:          pl.Flags.Has(program.FlagScalarSemantics),
		quantCapture:    pl.Capture,
		hasQuantCapture: pl.Flags.Has(program.FlagCapture),
	})
}

// signalFailure backtracks to the most recent save point, or fails the
// attempt when none is left.
func (p *Processor) signalFailure() {
	n := len(p.savePoints)
	if n == 0 {
		p.state = Fail
		return
	}
	sp := &p.savePoints[n-1]
	pos, hasPos := sp.pos, sp.hasPos
	if sp.isRange {
		pos, hasPos = sp.rangeNext, true
		if sp.rangeNext == sp.rangeLast {
			p.savePoints = p.savePoints[:n-1]
		} else if sp.reverse {
			sp.rangeNext = p.in.nextUnit(sp.rangeNext, sp.rangeLast, sp.scalar)
		} else {
			sp.rangeNext = p.in.prevUnit(sp.rangeNext, sp.rangeLast, sp.scalar)
		}
	} else {
		p.savePoints = p.savePoints[:n-1]
	}

	p.pc = sp.pc
	if hasPos {
		p.pos = pos
	}
	p.callStack = p.callStack[:sp.callDepth]
	copy(p.captures, sp.captures)
	copy(p.ints, sp.ints)
	copy(p.positions, sp.positions)
	if sp.isRange && sp.hasQuantCapture {
		p.captures[sp.quantCapture].TruncateAfter(p.pos, sp.reverse)
	}
}

// clearThrough pops save points up to and including the most recent one
// resuming at addr.
func (p *Processor) clearThrough(addr program.Address) bool {
	for i := len(p.savePoints) - 1; i >= 0; i-- {
		if p.savePoints[i].pc == addr && !p.savePoints[i].isRange {
			p.savePoints = p.savePoints[:i]
			return true
		}
	}
	return false
}
