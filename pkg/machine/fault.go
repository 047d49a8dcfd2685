package machine

import (
	"errors"
	"fmt"
)

// FaultKind describes the nature of a program fault.
type FaultKind int

const (
	NoInstruction FaultKind = iota + 1
	StackUnderflow
	TypeMismatch
	InvalidEscape
	UnexpectedEnd
	UnbalancedBracket
	InputFailure
	OutputFailure
	StepLimit
	Cancelled
	InstructionError
)

var strFaultKind = map[FaultKind]string{
	NoInstruction:     "no instruction",
	StackUnderflow:    "stack underflow",
	TypeMismatch:      "type mismatch",
	InvalidEscape:     "invalid escape sequence",
	UnexpectedEnd:     "unexpected end of program",
	UnbalancedBracket: "unbalanced bracket",
	InputFailure:      "input failure",
	OutputFailure:     "output failure",
	StepLimit:         "step limit exceeded",
	Cancelled:         "cancelled",
	InstructionError:  "instruction failed",
}

func (k FaultKind) String() string {
	if s, ok := strFaultKind[k]; ok {
		return s
	}
	return fmt.Sprintf("FaultKind(%d)", int(k))
}

// Fault describes why a program stopped abnormally and where.
type Fault struct {
	Kind   FaultKind // nature of the fault
	Opcode byte      // opcode being executed
	Addr   Address   // address of that opcode
	Reason string    // instruction-specific detail
	Err    error     // underlying I/O or context error, if any
	Main   []Value   // main stack at the time of the fault, bottom first
	Aux    []Value   // auxiliary stack at the time of the fault, bottom first
}

func (f *Fault) Error() string {
	if f.Kind == NoInstruction {
		return fmt.Sprintf("no instruction for opcode %s at address %d", quoteOpcode(f.Opcode), f.Addr)
	}
	msg := f.Kind.String()
	if f.Reason != "" {
		msg += ": " + f.Reason
	}
	if f.Err != nil {
		msg += ": " + f.Err.Error()
	}
	return fmt.Sprintf("opcode %s at address %d: %s", quoteOpcode(f.Opcode), f.Addr, msg)
}

func (f *Fault) Unwrap() error {
	return f.Err
}

// IsFault checks if err is or wraps a *Fault.
func IsFault(err error) (*Fault, bool) {
	var f *Fault
	if errors.As(err, &f) {
		return f, true
	}
	return nil, false
}

// ErrHalt is returned by the exit instruction. The interpreter converts it to
// the Halted outcome; it never escapes Run.
var ErrHalt = errors.New("halt")

// fault builds an unlocated Fault. The interpreter fills in opcode, address
// and stacks when the instruction returns it.
func fault(kind FaultKind, format string, args ...interface{}) *Fault {
	return &Fault{Kind: kind, Reason: fmt.Sprintf(format, args...)}
}

func quoteOpcode(op byte) string {
	if op >= 0x20 && op < 0x7f {
		return fmt.Sprintf("%q (0x%02X)", rune(op), op)
	}
	return fmt.Sprintf("0x%02X", op)
}
