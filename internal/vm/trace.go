package vm

import (
	"go.uber.org/zap"

	"github.com/KromDaniel/regvm/internal/program"
)

// TraceEvent describes the processor state at the start of a cycle.
type TraceEvent struct {
	Cycle       int
	PC          program.Address
	Instruction program.Instruction
	Position    int
	SavePoints  int
	CallDepth   int
}

// Tracer receives one event per cycle.
type Tracer func(TraceEvent)

// ZapTracer logs every cycle at debug level.
func ZapTracer(logger *zap.Logger) Tracer {
	return func(ev TraceEvent) {
		logger.Debug("cycle",
			zap.Int("cycle", ev.Cycle),
			zap.Int("pc", int(ev.PC)),
			zap.Stringer("inst", ev.Instruction),
			zap.Int("pos", ev.Position),
			zap.Int("savePoints", ev.SavePoints),
			zap.Int("callDepth", ev.CallDepth),
		)
	}
}
