package machine

import (
	"fmt"
	"math"
	"strings"
)

// Address is a program counter value. All arithmetic on it wraps at the
// width of the type.
type Address uint64

// MaxAddress is the address that Prev returns for address 0.
const MaxAddress Address = math.MaxUint64

// Next returns a+1, wrapping to 0 after MaxAddress.
func (a Address) Next() Address {
	return a + 1
}

// Prev returns a-1, wrapping to MaxAddress below 0.
func (a Address) Prev() Address {
	return a - 1
}

// AddressOf converts a program integer to an address. Negative integers wrap
// around to the top of the address space.
func AddressOf(i int64) Address {
	return Address(uint64(i))
}

// Storage is a read-only opcode source.
type Storage interface {
	// OpcodeAt returns the byte at addr, or false past the end.
	OpcodeAt(addr Address) (byte, bool)
	// OpcodeAtUnchecked returns the byte at addr. The caller must already
	// know that addr is inside the program.
	OpcodeAtUnchecked(addr Address) byte
}

// ExtendableStorage is a Storage that can grow at the end.
type ExtendableStorage interface {
	Storage
	PushOpcode(op byte)
}

// Program is the standard in-memory Storage.
type Program []byte

// OpcodeAt implements Storage.
func (p Program) OpcodeAt(addr Address) (byte, bool) {
	if addr >= Address(len(p)) {
		return 0, false
	}
	return p[addr], true
}

// OpcodeAtUnchecked implements Storage.
func (p Program) OpcodeAtUnchecked(addr Address) byte {
	return p[addr]
}

// PushOpcode appends op to the program.
func (p *Program) PushOpcode(op byte) {
	*p = append(*p, op)
}

// Len returns the program length in bytes.
func (p Program) Len() int {
	return len(p)
}

// Disassemble returns a listing with one line per byte: address, hex value,
// printable form and mnemonic.
func (p Program) Disassemble() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("; chasement program, %d bytes\n", len(p)))
	for i := 0; i < len(p); i++ {
		op := p.OpcodeAtUnchecked(Address(i))
		info := GetOpcodeInfo(op)
		sb.WriteString(fmt.Sprintf("%04d  %02X  %-4s %s", i, op, printable(op), info.Name))
		if info.Reserved {
			sb.WriteString(" (reserved)")
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

func printable(op byte) string {
	switch {
	case op == '\n':
		return `\n`
	case op == ' ':
		return "' '"
	case op >= 0x21 && op < 0x7f:
		return string(rune(op))
	default:
		return "."
	}
}
