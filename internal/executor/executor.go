// Package executor runs compiled programs: anchored prefix and whole
// matches, a scanning first-match search and iteration over all matches.
package executor

import (
	"iter"

	"go.uber.org/zap"

	"github.com/KromDaniel/regvm/internal/capture"
	"github.com/KromDaniel/regvm/internal/program"
	"github.com/KromDaniel/regvm/internal/vm"
)

// Match is one successful match.
type Match struct {
	Input    string
	Range    program.Range
	Captures capture.Capture
	// Stored holds the flat capture registers in group order.
	Stored []capture.StoredCapture
}

// String returns the matched text.
func (m *Match) String() string {
	return m.Input[m.Range.Lo:m.Range.Hi]
}

// Group returns the latest span of the 1-based capture group i.
func (m *Match) Group(i int) (program.Range, bool) {
	if i < 1 || i > len(m.Stored) {
		return program.Range{}, false
	}
	return m.Stored[i-1].Latest()
}

// GroupText returns the latest text of the 1-based capture group i.
func (m *Match) GroupText(i int) (string, bool) {
	r, ok := m.Group(i)
	if !ok {
		return "", false
	}
	return m.Input[r.Lo:r.Hi], true
}

// Option configures an Executor.
type Option func(*Executor)

// WithStepLimit bounds the cycles a single call may execute.
func WithStepLimit(n int) Option {
	return func(e *Executor) { e.stepLimit = n }
}

// WithTracer installs a per-cycle tracer.
func WithTracer(t vm.Tracer) Option {
	return func(e *Executor) { e.tracer = t }
}

// WithLogger sets the logger used for programs compiled with tracing.
func WithLogger(l *zap.Logger) Option {
	return func(e *Executor) { e.logger = l }
}

// Executor runs one immutable program. It is safe for concurrent use;
// every call owns its own processor.
type Executor struct {
	prog      *program.Program
	stepLimit int
	tracer    vm.Tracer
	logger    *zap.Logger
}

// New returns an executor for prog.
func New(prog *program.Program, opts ...Option) *Executor {
	e := &Executor{prog: prog}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Program returns the executed program.
func (e *Executor) Program() *program.Program { return e.prog }

func (e *Executor) processor(input string, subject, search program.Range, mode vm.MatchMode) *vm.Processor {
	var opts []vm.Option
	if e.stepLimit > 0 {
		opts = append(opts, vm.WithStepLimit(e.stepLimit))
	}
	switch {
	case e.tracer != nil:
		opts = append(opts, vm.WithTracer(e.tracer))
	case e.prog.EnableTracing && e.logger != nil:
		opts = append(opts, vm.WithTracer(vm.ZapTracer(e.logger)))
	}
	return vm.New(e.prog, input, subject, search, mode, opts...)
}

// PrefixMatch matches at search.Lo and accepts a match ending anywhere.
// A nil match with a nil error means no match.
func (e *Executor) PrefixMatch(input string, subject, search program.Range) (*Match, error) {
	return e.anchored(input, subject, search, vm.PartialFromFront)
}

// WholeMatch matches at search.Lo and accepts only a match ending at
// search.Hi.
func (e *Executor) WholeMatch(input string, subject, search program.Range) (*Match, error) {
	return e.anchored(input, subject, search, vm.WholeString)
}

func (e *Executor) anchored(input string, subject, search program.Range, mode vm.MatchMode) (*Match, error) {
	p := e.processor(input, subject, search, mode)
	end, ok, err := p.Run()
	if err != nil || !ok {
		return nil, err
	}
	return e.result(p, input, program.Range{Lo: search.Lo, Hi: end})
}

// FirstMatch returns the leftmost match within search.
func (e *Executor) FirstMatch(input string, subject, search program.Range) (*Match, error) {
	p := e.processor(input, subject, search, vm.PartialFromFront)
	return e.firstMatch(p, input, search)
}

// firstMatch tries successive start positions, one character apart, until
// an attempt accepts or aborts.
func (e *Executor) firstMatch(p *vm.Processor, input string, search program.Range) (*Match, error) {
	for start := search.Lo; ; start = p.NextStart(start) {
		if search.Hi-start < e.prog.MinMatchLength {
			return nil, nil
		}
		p.Reset(start, search)
		end, ok, err := p.Run()
		if err != nil {
			return nil, err
		}
		if ok {
			return e.result(p, input, program.Range{Lo: start, Hi: end})
		}
		if e.prog.CanOnlyMatchAtStart || start >= search.Hi {
			return nil, nil
		}
	}
}

// AllMatches iterates over successive non-overlapping matches. After an
// empty match the search resumes one character later. Iteration stops at
// the first error, which is yielded once.
func (e *Executor) AllMatches(input string, subject, search program.Range) iter.Seq2[*Match, error] {
	return func(yield func(*Match, error) bool) {
		p := e.processor(input, subject, search, vm.PartialFromFront)
		lo := search.Lo
		for lo <= search.Hi {
			m, err := e.firstMatch(p, input, program.Range{Lo: lo, Hi: search.Hi})
			if err != nil {
				yield(nil, err)
				return
			}
			if m == nil || !yield(m, nil) {
				return
			}
			if !m.Range.IsEmpty() {
				lo = m.Range.Hi
				continue
			}
			if m.Range.Hi >= search.Hi {
				return
			}
			lo = p.NextStart(m.Range.Hi)
		}
	}
}

func (e *Executor) result(p *vm.Processor, input string, rng program.Range) (*Match, error) {
	stored := p.Captures()
	caps, err := capture.Structuralize(e.prog.CaptureStructure, stored, input)
	if err != nil {
		return nil, err
	}
	return &Match{Input: input, Range: rng, Captures: caps, Stored: stored}, nil
}
