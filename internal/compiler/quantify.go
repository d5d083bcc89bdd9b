package compiler

import (
	"unicode/utf8"

	"github.com/pkg/errors"

	"github.com/KromDaniel/regvm/internal/program"
	"github.com/KromDaniel/regvm/pkg/ast"
)

// structureWrapper returns the capture structure a quantifier imposes on
// the groups inside it.
func structureWrapper(q ast.Quantification) (program.StructureKind, bool) {
	switch {
	case q.Min == 1 && q.MaxExtra == 0:
		return 0, false
	case q.Min == 0 && (q.MaxExtra == 0 || q.MaxExtra == 1):
		return program.StructOptional, true
	}
	return program.StructArray, true
}

func (c *Compiler) emitQuantification(q ast.Quantification) error {
	if q.Min < 0 || q.MaxExtra < ast.Unbounded {
		return errors.Wrapf(program.ErrUnsupported, "quantifier {%d, +%d}", q.Min, q.MaxExtra)
	}
	if wrap, ok := structureWrapper(q); ok {
		c.wrappers = append(c.wrappers, wrap)
		defer func() { c.wrappers = c.wrappers[:len(c.wrappers)-1] }()
	}
	if q.Min == 1 && q.MaxExtra == 0 {
		return c.emitNode(q.Child)
	}
	if c.emitAdvance(q) {
		return nil
	}

	if q.Kind != ast.Reluctant {
		if spec, ok := c.quantifyUnit(q.Child); ok {
			c.emitQuantify(q, spec)
			return nil
		}
		if capt, ok := q.Child.(ast.Capture); ok && capt.Transform == nil {
			if spec, ok := c.quantifyUnit(capt.Child); ok {
				spec.Capture = c.openCapture(capt.Name)
				spec.HasCapture = true
				c.logger.Log("Capture %d quantified in place", spec.Capture)
				c.emitQuantify(q, spec)
				return nil
			}
		}
	}
	return c.emitLoop(q)
}

// emitAdvance emits a fixed-count run of dotall any as a single advance.
func (c *Compiler) emitAdvance(q ast.Quantification) bool {
	if q.MaxExtra != 0 {
		return false
	}
	saved := c.options
	defer func() { c.options = saved }()
	child := q.Child
	for {
		w, ok := child.(ast.WithOptions)
		if !ok {
			break
		}
		c.options = c.options.Apply(w.Enable, w.Disable)
		child = w.Child
	}
	if _, ok := child.(ast.Any); !ok || !c.options.DotMatchesNewline {
		return false
	}
	c.logger.Log("Advance %d", q.Min)
	if q.Min > 0 {
		c.builder.BuildAdvance(q.Min, c.flags())
	}
	return true
}

func (c *Compiler) emitQuantify(q ast.Quantification, spec program.QuantifySpec) {
	spec.Min = q.Min
	spec.Extra = q.MaxExtra
	if q.Kind == ast.Possessive {
		spec.Flags |= program.FlagPossessive
	}
	c.logger.Log("Quantify %s min=%d extra=%d (%s)", spec.Unit, q.Min, q.MaxExtra, q.Kind)
	c.builder.BuildQuantify(spec)
}

// quantifyUnit reports whether n is a primitive the quantify instruction
// can repeat: each repetition must consume exactly one unit of the current
// semantic level.
func (c *Compiler) quantifyUnit(n ast.Node) (program.QuantifySpec, bool) {
	f := c.flags()
	scalar := c.scalarMode()
	switch n := n.(type) {
	case ast.Char:
		if len(n) != 1 || n[0] >= utf8.RuneSelf {
			return program.QuantifySpec{}, false
		}
		if set, ok := asciiCharBitset(n[0], c.options.CaseInsensitive); ok {
			return program.QuantifySpec{Unit: program.UnitBitset, Bitset: set, Flags: f &^ program.FlagCaseInsensitive}, true
		}
		if !scalar {
			f |= program.FlagBoundaryCheck
		}
		return program.QuantifySpec{Unit: program.UnitASCIIChar, Byte: n[0], Flags: f &^ program.FlagCaseInsensitive}, true

	case ast.CharSet:
		set, ok := program.BitsetFromCharSet(n, c.options.CaseInsensitive)
		if !ok {
			return program.QuantifySpec{}, false
		}
		return program.QuantifySpec{Unit: program.UnitBitset, Bitset: set, Flags: f &^ program.FlagCaseInsensitive}, true

	case ast.Builtin:
		if n.Class == ast.NewlineSequence || scalar && n.Class == ast.AnyGrapheme {
			return program.QuantifySpec{}, false
		}
		if n.Inverted {
			f |= program.FlagInverted
		}
		return program.QuantifySpec{Unit: program.UnitBuiltin, Builtin: n.Class, Flags: f}, true

	case ast.Any:
		return program.QuantifySpec{Unit: program.UnitAny, Flags: f}, true
	}
	return program.QuantifySpec{}, false
}

// emitLoop emits the general quantifier loop.
//
//	  moveImmediate min -> rMin
//	MIN:
//	  condBranchZeroElseDecrement rMin, EXTRA
//	  <child>
//	  branch MIN
//	EXTRA:
//	  condBranchZeroElseDecrement rExtra, EXIT   (bounded only)
//	  split BODY, EXIT                           (reluctant: split EXIT, BODY)
//	BODY:
//	  movePosition rPos
//	  <child>
//	  condBranchSamePosition rPos, EXIT
//	  branch EXTRA
//	EXIT:
//
// Every copy of <child> shares the capture registers of the first.
func (c *Compiler) emitLoop(q ast.Quantification) error {
	b := c.builder
	possessive := q.Kind == ast.Possessive
	first := c.next
	emitChild := func() error {
		c.next = first
		return c.emitNode(q.Child)
	}
	defer func() { c.next = first + ast.CountCaptures(q.Child) }()
	c.logger.Log("Generic %s loop min=%d extra=%d", q.Kind, q.Min, q.MaxExtra)
	if possessive {
		b.PushEmptySavePoint()
	}

	switch {
	case q.Min == 1:
		if err := emitChild(); err != nil {
			return err
		}
	case q.Min > 1:
		rMin := b.MakeIntRegister()
		b.BuildMoveImmediate(q.Min, rMin)
		top := b.MakeLabel()
		exit := b.MakeAddress()
		b.BuildCondBranchZeroElseDecrement(rMin, exit)
		if err := emitChild(); err != nil {
			return err
		}
		b.BuildBranch(top)
		b.Label(exit)
	}

	if q.MaxExtra != 0 {
		bounded := q.MaxExtra > 0
		var rExtra program.IntRegister
		if bounded {
			rExtra = b.MakeIntRegister()
			b.BuildMoveImmediate(q.MaxExtra, rExtra)
		}
		rPos := b.MakePositionRegister()
		top := b.MakeLabel()
		body := b.MakeAddress()
		exit := b.MakeAddress()
		if bounded {
			b.BuildCondBranchZeroElseDecrement(rExtra, exit)
		}
		if q.Kind == ast.Reluctant {
			b.BuildSplit(exit, body)
		} else {
			b.BuildSplit(body, exit)
		}
		b.Label(body)
		b.BuildMovePosition(rPos)
		if err := emitChild(); err != nil {
			return err
		}
		b.BuildCondBranchSamePosition(rPos, exit)
		b.BuildBranch(top)
		b.Label(exit)
	} else if q.Min == 0 {
		// Zero repetitions: the child is never run, but its capture
		// registers still exist.
		skip := b.MakeAddress()
		b.BuildBranch(skip)
		if err := emitChild(); err != nil {
			return err
		}
		b.Label(skip)
	}

	if possessive {
		b.BuildClearThroughEmptySavePoint()
	}
	return nil
}
