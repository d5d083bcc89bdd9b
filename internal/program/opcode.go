package program

import "fmt"

// Opcode identifies a single processor instruction.
type Opcode uint8

// Control flow and registers
const (
	OpInvalid Opcode = iota
	OpNop
	OpDecrement
	OpMoveImmediate
	OpMovePosition
	OpRestorePosition
	OpBranch
	OpCondBranch
	OpCondBranchZeroElseDecrement
	OpCondBranchSamePosition
)

// Backtracking
const (
	OpSave Opcode = iota + 0x10
	OpSaveAddress
	OpSplit
	OpClear
	OpClearThrough
	OpFail
	OpCall
	OpRet
	OpAbort
)

// Matching
const (
	OpAdvance Opcode = iota + 0x20
	OpMatch
	OpMatchScalar
	OpMatchSequence
	OpMatchBitset
	OpMatchBuiltin
	OpMatchAny
	OpConsumeBy
	OpAssertBy
	OpAssert
	OpQuantify
	OpBackreference
)

// Captures and termination
const (
	OpBeginCapture Opcode = iota + 0x30
	OpEndCapture
	OpTransformCapture
	OpAccept
)

// OpcodeInfo holds metadata about an opcode.
type OpcodeInfo struct {
	Name      string // listing mnemonic
	Addresses int    // number of address operands (0, 1 or 2)
	Consumes  bool   // may move the current position
}

var opcodeTable = map[Opcode]OpcodeInfo{
	OpInvalid:                     {"invalid", 0, false},
	OpNop:                         {"nop", 0, false},
	OpDecrement:                   {"decrement", 0, false},
	OpMoveImmediate:               {"moveImmediate", 0, false},
	OpMovePosition:                {"movePosition", 0, false},
	OpRestorePosition:             {"restorePosition", 0, true},
	OpBranch:                      {"branch", 1, false},
	OpCondBranch:                  {"condBranch", 1, false},
	OpCondBranchZeroElseDecrement: {"condBranchZeroElseDecrement", 1, false},
	OpCondBranchSamePosition:      {"condBranchSamePosition", 1, false},

	OpSave:         {"save", 1, false},
	OpSaveAddress:  {"saveAddress", 1, false},
	OpSplit:        {"split", 2, false},
	OpClear:        {"clear", 0, false},
	OpClearThrough: {"clearThrough", 1, false},
	OpFail:         {"fail", 0, false},
	OpCall:         {"call", 1, false},
	OpRet:          {"ret", 0, false},
	OpAbort:        {"abort", 0, false},

	OpAdvance:       {"advance", 0, true},
	OpMatch:         {"match", 0, true},
	OpMatchScalar:   {"matchScalar", 0, true},
	OpMatchSequence: {"matchSequence", 0, true},
	OpMatchBitset:   {"matchBitset", 0, true},
	OpMatchBuiltin:  {"matchBuiltin", 0, true},
	OpMatchAny:      {"matchAny", 0, true},
	OpConsumeBy:     {"consumeBy", 0, true},
	OpAssertBy:      {"assertBy", 0, false},
	OpAssert:        {"assert", 0, false},
	OpQuantify:      {"quantify", 0, true},
	OpBackreference: {"backreference", 0, true},

	OpBeginCapture:     {"beginCapture", 0, false},
	OpEndCapture:       {"endCapture", 0, false},
	OpTransformCapture: {"transformCapture", 0, false},
	OpAccept:           {"accept", 0, false},
}

// Info returns the metadata of op.
func (op Opcode) Info() OpcodeInfo {
	if info, ok := opcodeTable[op]; ok {
		return info
	}
	return OpcodeInfo{Name: fmt.Sprintf("UNKNOWN_%02X", uint8(op))}
}

func (op Opcode) String() string {
	return op.Info().Name
}
