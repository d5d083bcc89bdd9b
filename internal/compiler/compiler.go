// Package compiler turns a pattern tree into a regvm bytecode program.
package compiler

import (
	"unicode/utf8"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/KromDaniel/regvm/internal/program"
	"github.com/KromDaniel/regvm/pkg/ast"
)

// Config holds the configuration for compilation.
type Config struct {
	Pattern       string              // Source text, used for logging only
	Options       ast.MatchingOptions // Options the pattern starts with
	EnableTracing bool                // Mark the program for per-cycle tracing
	Verbose       bool                // Enable verbose logging of compile decisions
	Logger        *zap.Logger         // Destination of verbose logs (stderr when nil)
}

// Compiler emits bytecode for one pattern tree.
type Compiler struct {
	config   Config
	builder  *program.Builder
	logger   *Logger
	options  ast.MatchingOptions     // Options in effect for the node being emitted
	reverse  bool                    // True while emitting a lookbehind body
	wrappers []program.StructureKind // Structure wrappers of enclosing quantifiers and alternations
	chains   []program.CaptureStructure // Structure of each group, by group index
	total    int                        // Capture groups in the whole tree
	next     int                        // Pre-order index of the next group to open
}

// New creates a new compiler instance.
func New(config Config) *Compiler {
	return &Compiler{
		config:  config,
		builder: program.NewBuilder(),
		logger:  NewZapLogger(config.Verbose, config.Logger),
		options: config.Options,
	}
}

// Compile compiles tree with config.
func Compile(tree ast.Node, config Config) (*program.Program, error) {
	return New(config).Compile(tree)
}

// Compile emits the program for tree. A Compiler is single-use.
func (c *Compiler) Compile(tree ast.Node) (*program.Program, error) {
	if tree == nil {
		tree = ast.Empty{}
	}
	b := c.builder
	c.total = ast.CountCaptures(tree)
	c.chains = make([]program.CaptureStructure, c.total)
	// Registers follow pre-order group numbering, whatever order the
	// groups are emitted in.
	ast.Walk(tree, func(n ast.Node) bool {
		if capt, ok := n.(ast.Capture); ok {
			b.MakeCapture(capt.Name)
		}
		return true
	})

	c.logger.Section("Pattern Analysis")
	c.logger.Log("Pattern: %s", c.config.Pattern)
	c.logger.Log("Options: %s", c.options)
	c.logger.Log("Capture groups: %d", c.total)

	if err := c.emitNode(tree); err != nil {
		return nil, err
	}
	b.BuildAccept()

	for i, chain := range c.chains {
		if chain.Kind == program.StructEmpty {
			return nil, program.Unreachable("capture group %d was never emitted", i+1)
		}
	}
	structure := program.EmptyStructure
	switch len(c.chains) {
	case 0:
	case 1:
		structure = c.chains[0]
	default:
		structure = program.Tuple(c.chains...)
	}
	b.SetCaptureStructure(structure)
	b.SetInitialOptions(c.config.Options)
	b.EnableTracing(c.config.EnableTracing)

	startOnly := canOnlyMatchAtStart(tree, c.config.Options)
	minLen := minMatchLen(tree, c.config.Options)
	b.SetCanOnlyMatchAtStart(startOnly)
	b.SetMinMatchLength(minLen)

	c.logger.Section("Program")
	c.logger.Log("Capture structure: %s", structure)
	c.logger.Log("Can only match at start: %v", startOnly)
	c.logger.Log("Min match length: %d", minLen)

	prog, err := b.Build()
	if err != nil {
		return nil, errors.Wrap(err, "assembling program")
	}
	c.logger.Log("Instructions: %d", len(prog.Instructions))
	if c.logger.Enabled() {
		c.logger.Log("Listing:\n%s", prog)
	}
	return prog, nil
}

// flags returns the matcher flags implied by the options in effect.
func (c *Compiler) flags() program.Flags {
	var f program.Flags
	if c.reverse {
		f |= program.FlagReverse
	}
	if c.options.CaseInsensitive {
		f |= program.FlagCaseInsensitive
	}
	if c.options.SemanticLevel == ast.UnicodeScalar {
		f |= program.FlagScalarSemantics
	}
	if c.options.StrictASCII {
		f |= program.FlagStrictASCII
	}
	if c.options.DotMatchesNewline {
		f |= program.FlagAnyMatchesNewline
	}
	return f
}

func (c *Compiler) scalarMode() bool {
	return c.options.SemanticLevel == ast.UnicodeScalar
}

func (c *Compiler) emitNode(n ast.Node) error {
	b := c.builder
	switch n := n.(type) {
	case ast.Empty:
		return nil

	case ast.Concat:
		if c.reverse {
			base := c.next
			for i := len(n) - 1; i >= 0; i-- {
				c.next = base + ast.CountCaptures(ast.Concat(n[:i]))
				if err := c.emitNode(n[i]); err != nil {
					return err
				}
			}
			c.next = base + ast.CountCaptures(n)
			return nil
		}
		for _, child := range n {
			if err := c.emitNode(child); err != nil {
				return err
			}
		}
		return nil

	case ast.Alternation:
		return c.emitAlternation(n)

	case ast.Quantification:
		return c.emitQuantification(n)

	case ast.Capture:
		return c.emitCapture(n)

	case ast.Char:
		c.emitChar(string(n))
		return nil

	case ast.Literal:
		if n != "" {
			b.BuildMatchSequence(string(n), c.flags())
		}
		return nil

	case ast.CharSet:
		c.emitCharSet(n)
		return nil

	case ast.Builtin:
		f := c.flags()
		if n.Inverted {
			f |= program.FlagInverted
		}
		b.BuildMatchBuiltin(n.Class, f)
		return nil

	case ast.Any:
		b.BuildMatchAny(c.flags())
		return nil

	case ast.Assertion:
		b.BuildAssert(c.resolveAssertion(n.Kind), c.flags())
		return nil

	case ast.CustomAssertion:
		if n.Func == nil {
			return errors.Wrapf(program.ErrUnsupported, "assertion %q has no function", n.Name)
		}
		b.BuildAssertBy(b.MakeAssertionFunction(n.Func))
		return nil

	case ast.CustomConsumer:
		if n.Func == nil {
			return errors.Wrapf(program.ErrUnsupported, "consumer %q has no function", n.Name)
		}
		if c.reverse {
			return errors.Wrapf(program.ErrUnsupported, "consumer %q inside lookbehind", n.Name)
		}
		b.BuildConsumeBy(b.MakeConsumeFunction(n.Func), 0)
		return nil

	case ast.Backreference:
		if n.Group < 1 || n.Group > c.total {
			return errors.Wrapf(program.ErrInvalidReference, "\\%d with %d groups", n.Group, c.total)
		}
		if n.Group > c.next {
			return errors.Wrapf(program.ErrUncapturedReference, "\\%d", n.Group)
		}
		b.BuildBackreference(program.CaptureRegister(n.Group-1), c.flags())
		return nil

	case ast.Lookaround:
		return c.emitLookaround(n)

	case ast.Atomic:
		c.annotate("atomic")
		b.PushEmptySavePoint()
		if err := c.emitNode(n.Child); err != nil {
			return err
		}
		b.BuildClearThroughEmptySavePoint()
		return nil

	case ast.Abort:
		b.BuildAbort(n.Message)
		return nil

	case ast.WithOptions:
		saved := c.options
		c.options = c.options.Apply(n.Enable, n.Disable)
		err := c.emitNode(n.Child)
		c.options = saved
		return err
	}
	return errors.Wrapf(program.ErrUnsupported, "node %T", n)
}

func (c *Compiler) resolveAssertion(kind ast.AssertionKind) ast.AssertionKind {
	switch kind {
	case ast.Caret:
		if c.options.Multiline {
			return ast.StartOfLine
		}
		return ast.StartOfSubject
	case ast.Dollar:
		if c.options.Multiline {
			return ast.EndOfLine
		}
		return ast.EndOfSubjectBeforeNewline
	}
	return kind
}

func (c *Compiler) emitChar(char string) {
	b := c.builder
	f := c.flags()
	if c.scalarMode() {
		b.BuildMatchSequence(char, f)
		return
	}
	if len(char) == 1 && char[0] < utf8.RuneSelf {
		if set, ok := asciiCharBitset(char[0], c.options.CaseInsensitive); ok {
			b.BuildMatchBitset(set, f&^program.FlagCaseInsensitive)
			return
		}
		b.BuildMatchScalar(rune(char[0]), f|program.FlagBoundaryCheck)
		return
	}
	b.BuildMatch(char, f)
}

// asciiCharBitset returns a two-member set for a case-insensitive ASCII
// letter.
func asciiCharBitset(ch byte, caseInsensitive bool) (program.ASCIIBitset, bool) {
	lower := ch | 0x20
	if !caseInsensitive || lower < 'a' || lower > 'z' {
		return program.ASCIIBitset{}, false
	}
	var set program.ASCIIBitset
	set.Insert(ch, true)
	return set, true
}

func (c *Compiler) emitCharSet(set ast.CharSet) {
	b := c.builder
	if bits, ok := program.BitsetFromCharSet(set, c.options.CaseInsensitive); ok {
		b.BuildMatchBitset(bits, c.flags()&^program.FlagCaseInsensitive)
		return
	}
	c.logger.Log("Character set with non-ASCII members compiled to a consumer")
	fn := charSetConsumer(set, c.options, c.reverse)
	f := program.Flags(0)
	if c.reverse {
		f |= program.FlagReverse
	}
	b.BuildConsumeBy(b.MakeConsumeFunction(fn), f)
}

func (c *Compiler) emitAlternation(alts ast.Alternation) error {
	b := c.builder
	switch len(alts) {
	case 0:
		return nil
	case 1:
		return c.emitNode(alts[0])
	}
	c.wrappers = append(c.wrappers, program.StructOptional)
	defer func() { c.wrappers = c.wrappers[:len(c.wrappers)-1] }()

	done := b.MakeAddress()
	for i, alt := range alts {
		last := i == len(alts)-1
		var next program.AddressToken
		if !last {
			next = b.MakeAddress()
			b.BuildSave(next)
		}
		if err := c.emitNode(alt); err != nil {
			return err
		}
		if !last {
			b.BuildBranch(done)
			b.Label(next)
		}
	}
	b.Label(done)
	return nil
}

// openCapture returns the register of the next group in pre-order and
// records its structure, wrapped by the enclosing quantifiers and
// alternations. A group emitted more than once keeps its first structure.
func (c *Compiler) openCapture(name string) program.CaptureRegister {
	reg := program.CaptureRegister(c.next)
	c.next++
	if c.chains[reg].Kind != program.StructEmpty {
		return reg
	}
	chain := program.Atom(name)
	for i := len(c.wrappers) - 1; i >= 0; i-- {
		switch c.wrappers[i] {
		case program.StructOptional:
			chain = program.Optional(chain)
		case program.StructArray:
			chain = program.Array(chain)
		}
	}
	c.chains[reg] = chain
	return reg
}

func (c *Compiler) emitCapture(n ast.Capture) error {
	b := c.builder
	reg := c.openCapture(n.Name)
	b.BuildBeginCapture(reg)
	if err := c.emitNode(n.Child); err != nil {
		return err
	}
	b.BuildEndCapture(reg)
	if n.Transform != nil {
		b.BuildTransformCapture(reg, b.MakeTransformFunction(n.Transform))
	}
	return nil
}

// emitLookaround emits the body out of the straight-line path as a
// subroutine ending in ret, then calls it between ratchet markers so the
// body cannot be re-entered by backtracking.
func (c *Compiler) emitLookaround(n ast.Lookaround) error {
	b := c.builder
	setup := b.MakeAddress()
	body := b.MakeAddress()
	b.BuildBranch(setup)

	b.Label(body)
	c.annotate(lookaroundName(n))
	savedReverse := c.reverse
	c.reverse = n.Behind
	if n.Negative {
		c.wrappers = append(c.wrappers, program.StructOptional)
	}
	err := c.emitNode(n.Child)
	if n.Negative {
		c.wrappers = c.wrappers[:len(c.wrappers)-1]
	}
	c.reverse = savedReverse
	if err != nil {
		return err
	}
	b.BuildRet()

	b.Label(setup)
	if n.Negative {
		success := b.MakeAddress()
		b.BuildSave(success)
		b.PushEmptySavePoint()
		b.BuildCall(body)
		b.BuildClearThroughEmptySavePoint()
		b.BuildClear()
		b.BuildFail()
		b.Label(success)
		return nil
	}
	start := b.MakePositionRegisterInit()
	b.PushEmptySavePoint()
	b.BuildCall(body)
	b.BuildClearThroughEmptySavePoint()
	b.BuildRestorePosition(start)
	return nil
}

// annotate emits a listing note into traced programs.
func (c *Compiler) annotate(note string) {
	if c.config.EnableTracing {
		c.builder.BuildNop(note)
	}
}

func lookaroundName(n ast.Lookaround) string {
	name := "lookahead"
	if n.Behind {
		name = "lookbehind"
	}
	if n.Negative {
		name = "negative " + name
	}
	return name
}
