package machine

import (
	"fmt"
	"sort"
)

// Opcodes of the base and arithmetic groups. Digits '0'-'9' all map to the
// number literal instruction.
const (
	// ========================================================================
	// No-ops and comments
	// ========================================================================

	OpSpace      byte = ' '  // No operation
	OpNewline    byte = '\n' // No operation
	OpCloseParen byte = ')'  // No operation, target of '('
	OpComment    byte = '#'  // Skip to the next '#' or newline

	// ========================================================================
	// Stack manipulation
	// ========================================================================

	OpToAux   byte = 'a' // Move top of main stack to auxiliary stack
	OpToMain  byte = 'm' // Move top of auxiliary stack to main stack
	OpDup     byte = 'd' // Duplicate top of stack
	OpSwap    byte = 'w' // Swap top two values
	OpDrop    byte = 'o' // Drop top of stack
	OpEmpty   byte = 'e' // Push whether the main stack is empty
	OpAuxZero byte = 'z' // Push whether the auxiliary stack is empty

	// ========================================================================
	// Literals
	// ========================================================================

	OpFalse byte = 'f'  // Push false
	OpTrue  byte = 't'  // Push true
	OpChar  byte = '\'' // Push the next program byte as a Char

	// ========================================================================
	// Control flow
	// ========================================================================

	OpJump      byte = 'j' // Pop an Int and resume execution there
	OpSkipIf    byte = 's' // Pop a Bool, skip the next byte if true
	OpMark      byte = '[' // Push the current address
	OpJumpBack  byte = ']' // Resume at the innermost enclosing '['
	OpOpenParen byte = '(' // Skip forward past the balancing ')'
	OpExit      byte = 'x' // Halt the interpreter

	// ========================================================================
	// Logic, comparison, arithmetic
	// ========================================================================

	OpNot byte = '!' // Logical not for Bool, complement for Int
	OpEq  byte = '=' // Pop two, push structural equality
	OpAdd byte = '+' // Pop two Ints, push the sum

	// ========================================================================
	// I/O
	// ========================================================================

	OpPrint      byte = 'p' // Pop and print the display form
	OpPrintStack byte = 'h' // Print both stacks
	OpInput      byte = ',' // Read one byte of input, push as Char
)

// Reserved opcodes. They are named so that listings and traces show them, but
// no group binds an instruction to them.
const (
	OpSub byte = '-'
	OpMul byte = '*'
	OpDiv byte = '/'
	OpMod byte = '%'
	OpAnd byte = '&'
	OpOr  byte = '|'
	OpXor byte = '^'
	OpLt  byte = '<'
	OpGt  byte = '>'
)

// OpcodeInfo provides metadata about an opcode for traces and listings.
type OpcodeInfo struct {
	Name     string // Mnemonic
	Group    string // Registration group that binds it ("" if none)
	Reserved bool   // Named but intentionally unbound
}

var opcodeInfoTable = map[byte]OpcodeInfo{
	OpSpace:      {"NOP", "base", false},
	OpNewline:    {"NOP", "base", false},
	OpCloseParen: {"NOP_PAREN", "base", false},
	OpComment:    {"COMMENT", "base", false},

	OpToAux:   {"TO_AUX", "base", false},
	OpToMain:  {"TO_MAIN", "base", false},
	OpDup:     {"DUP", "base", false},
	OpSwap:    {"SWAP", "base", false},
	OpDrop:    {"DROP", "base", false},
	OpEmpty:   {"EMPTY", "base", false},
	OpAuxZero: {"AUX_EMPTY", "base", false},

	OpFalse: {"FALSE", "base", false},
	OpTrue:  {"TRUE", "base", false},
	OpChar:  {"CHAR", "base", false},

	OpJump:      {"JUMP", "base", false},
	OpSkipIf:    {"SKIP_IF", "base", false},
	OpMark:      {"MARK", "base", false},
	OpJumpBack:  {"JUMP_BACK", "base", false},
	OpOpenParen: {"SKIP_BLOCK", "base", false},
	OpExit:      {"EXIT", "base", false},

	OpNot: {"NOT", "base", false},
	OpEq:  {"EQ", "base", false},
	OpAdd: {"ADD", "arithmetic", false},

	OpPrint:      {"PRINT", "base", false},
	OpPrintStack: {"PRINT_STACK", "base", false},
	OpInput:      {"INPUT", "base", false},

	OpSub: {"SUB", "", true},
	OpMul: {"MUL", "", true},
	OpDiv: {"DIV", "", true},
	OpMod: {"MOD", "", true},
	OpAnd: {"AND", "", true},
	OpOr:  {"OR", "", true},
	OpXor: {"XOR", "", true},
	OpLt:  {"LT", "", true},
	OpGt:  {"GT", "", true},
}

func init() {
	for c := byte('0'); c <= '9'; c++ {
		opcodeInfoTable[c] = OpcodeInfo{Name: "NUMBER", Group: "base"}
	}
}

// GetOpcodeInfo returns metadata for an opcode.
// Unknown opcodes get the name "UNKNOWN(0xNN)".
func GetOpcodeInfo(op byte) OpcodeInfo {
	if info, ok := opcodeInfoTable[op]; ok {
		return info
	}
	return OpcodeInfo{Name: fmt.Sprintf("UNKNOWN(0x%02X)", op)}
}

// IsDigit reports whether op starts a number literal.
func IsDigit(op byte) bool {
	return op >= '0' && op <= '9'
}

// ReservedOpcodes returns the reserved opcodes in ascending order.
func ReservedOpcodes() []byte {
	var ops []byte
	for op, info := range opcodeInfoTable {
		if info.Reserved {
			ops = append(ops, op)
		}
	}
	sort.Slice(ops, func(i, j int) bool { return ops[i] < ops[j] })
	return ops
}
