package vm

import (
	"github.com/KromDaniel/regvm/internal/program"
)

// runQuantify executes a quantify instruction: a loop over a single
// primitive that records the optional repetitions as one range save point
// instead of one save point per repetition.
func (p *Processor) runQuantify(pl program.Payload) {
	possessive := pl.Flags.Has(program.FlagPossessive)
	minTrips, extra := pl.MinTrips(), pl.ExtraTrips()
	switch {
	case minTrips == 0 && extra == 1:
		p.runZeroOrOne(pl, possessive)
	case extra < 0 && minTrips <= 1 && !possessive && p.isDotStar(pl):
		p.runEagerDotStar(pl, minTrips)
	case extra < 0 && minTrips == 0:
		p.runQuantLoop(pl, 0, -1, !possessive)
	case extra < 0 && minTrips == 1:
		p.runQuantLoop(pl, 1, -1, !possessive)
	default:
		maxTrips := -1
		if extra >= 0 {
			maxTrips = minTrips + extra
		}
		p.runQuantLoop(pl, minTrips, maxTrips, !possessive)
	}
}

func (p *Processor) isDotStar(pl program.Payload) bool {
	return pl.Unit == program.UnitAny &&
		!pl.Flags.Has(program.FlagAnyMatchesNewline) &&
		!pl.Flags.Has(program.FlagReverse) &&
		!pl.Flags.Has(program.FlagCapture)
}

// quantifyUnit matches one repetition at pos.
func (p *Processor) quantifyUnit(pl program.Payload, pos int) (int, bool) {
	switch pl.Unit {
	case program.UnitASCIIChar:
		return p.matchScalar(pos, rune(pl.ASCIIByte()), pl.Flags)
	case program.UnitBitset:
		return p.matchBitset(pos, p.prog.Bitsets[pl.Index], pl.Flags)
	case program.UnitBuiltin:
		return p.matchBuiltin(pos, program.BuiltinClass(pl.Index), pl.Flags)
	case program.UnitAny:
		return p.matchAny(pos, pl.Flags)
	}
	return pos, false
}

func (p *Processor) recordTrip(pl program.Payload, from, to int) {
	if !pl.Flags.Has(program.FlagCapture) {
		return
	}
	lo, hi := from, to
	if lo > hi {
		lo, hi = hi, lo
	}
	p.captures[pl.Capture].Push(program.Range{Lo: lo, Hi: hi})
}

// runQuantLoop matches minTrips mandatory repetitions, then up to maxTrips
// (-1: unbounded) in total. The positions reached after the mandatory
// repetitions form a contiguous range: the loop remembers where that range
// starts and where the final repetition started, and pushes them as a
// single range save point.
func (p *Processor) runQuantLoop(pl program.Payload, minTrips, maxTrips int, produceSavePoint bool) {
	cur := p.pos
	trips := 0
	rangeLast := cur // position after the mandatory repetitions
	rangeNext := cur // start of the final repetition
	for maxTrips < 0 || trips < maxTrips {
		next, ok := p.quantifyUnit(pl, cur)
		if !ok {
			break
		}
		p.recordTrip(pl, cur, next)
		trips++
		rangeNext = cur
		cur = next
		if trips == minTrips {
			rangeLast = cur
		}
	}
	if trips < minTrips {
		p.signalFailure()
		return
	}
	if produceSavePoint && trips > minTrips {
		p.saveRange(p.pc+1, rangeNext, rangeLast, pl)
	}
	p.pos = cur
	p.pc++
}

// runZeroOrOne handles `?`: an ordinary save point skipping the repetition
// when eager, none when possessive.
func (p *Processor) runZeroOrOne(pl program.Payload, possessive bool) {
	next, ok := p.quantifyUnit(pl, p.pos)
	if !ok {
		p.pc++
		return
	}
	if !possessive {
		p.save(p.pc+1, true)
	}
	p.recordTrip(pl, p.pos, next)
	p.pos = next
	p.pc++
}

// runEagerDotStar handles `.*` and `.+`: scan to the next newline, then
// remember every position before it as one range.
func (p *Processor) runEagerDotStar(pl program.Payload, minTrips int) {
	scalar := pl.Flags.Has(program.FlagScalarSemantics)
	end := p.search.Hi
	start := p.pos
	stop := p.in.nextNewline(start, end)
	if minTrips == 1 && stop == start {
		p.signalFailure()
		return
	}
	rangeLast := start
	if minTrips == 1 {
		rangeLast = p.in.nextUnit(start, end, scalar)
	}
	if stop > rangeLast {
		p.saveRange(p.pc+1, p.in.prevUnit(stop, rangeLast, scalar), rangeLast, pl)
	}
	p.pos = stop
	p.pc++
}
