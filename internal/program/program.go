// Package program defines the bytecode program executed by the regvm
// processor and the Builder that assembles it.
package program

import (
	"fmt"
	"io"
	"strings"
)

// RegisterInfo records how many registers of each namespace a program uses.
type RegisterInfo struct {
	Bools      int
	Ints       int
	Positions  int
	Captures   int
	Elements   int
	Sequences  int
	Strings    int
	Bitsets    int
	Consumers  int
	Assertions int
	Transforms int

	// IntInitial holds the initial value of every int register.
	IntInitial []int
}

// Program is an assembled bytecode program. It is immutable after Build and
// safe for concurrent use by any number of processors.
type Program struct {
	Instructions []Instruction

	Elements   []string
	Sequences  []string
	Strings    []string
	Bitsets    []ASCIIBitset
	Consumers  []ConsumeFunc
	Assertions []AssertionFunc
	Transforms []TransformFunc

	Registers RegisterInfo

	// CaptureStructure is the shape of the structured capture value.
	CaptureStructure CaptureStructure
	// CaptureNames holds the name of each capture register ("" if unnamed).
	CaptureNames []string

	InitialOptions MatchingOptions

	// CanOnlyMatchAtStart is set when every match must begin at the start
	// of the subject, so searching needs a single attempt.
	CanOnlyMatchAtStart bool
	// MinMatchLength is a lower bound, in bytes, of any match.
	MinMatchLength int

	EnableTracing bool

	// RatchetAddress is the shared fail instruction used as the marker of
	// empty save points, NoAddress when the program has none.
	RatchetAddress Address
}

// CaptureIndex returns the register of the first capture named name.
func (p *Program) CaptureIndex(name string) (int, bool) {
	for i, n := range p.CaptureNames {
		if n == name && name != "" {
			return i, true
		}
	}
	return 0, false
}

// Disassemble writes a listing of the program to w.
func (p *Program) Disassemble(w io.Writer) error {
	if _, err := fmt.Fprintf(w, "; options: %s\n; captures: %s\n",
		p.InitialOptions, p.CaptureStructure); err != nil {
		return err
	}
	for addr, inst := range p.Instructions {
		line := fmt.Sprintf("%4d  %s", addr, inst)
		if note := p.annotation(inst); note != "" {
			line += "  ; " + note
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

func (p *Program) annotation(inst Instruction) string {
	pl := inst.Payload
	switch inst.Op {
	case OpNop, OpAbort:
		if pl.Index >= 0 && pl.Index < len(p.Strings) {
			return p.Strings[pl.Index]
		}
	case OpMatch:
		if pl.Index < len(p.Elements) {
			return fmt.Sprintf("%q", p.Elements[pl.Index])
		}
	case OpMatchSequence:
		if pl.Index < len(p.Sequences) {
			return fmt.Sprintf("%q", p.Sequences[pl.Index])
		}
	case OpBeginCapture, OpEndCapture:
		if int(pl.Capture) < len(p.CaptureNames) && p.CaptureNames[pl.Capture] != "" {
			return p.CaptureNames[pl.Capture]
		}
	}
	if inst.Payload.Addr == p.RatchetAddress && p.RatchetAddress != NoAddress &&
		(inst.Op == OpSaveAddress || inst.Op == OpClearThrough) {
		return "ratchet"
	}
	return ""
}

func (p *Program) String() string {
	var b strings.Builder
	_ = p.Disassemble(&b)
	return b.String()
}
