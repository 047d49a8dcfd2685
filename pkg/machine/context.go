package machine

import (
	"bufio"
	"errors"
	"io"
	"iter"
	"strings"
)

// EOFPolicy selects what the input instruction does at end of input.
type EOFPolicy int

const (
	// EOFZero pushes Char(0).
	EOFZero EOFPolicy = iota
	// EOFFault stops the program with an InputFailure fault.
	EOFFault
)

// Context is the mutable state of one running program: the main stack, the
// auxiliary stack, the program counter and the program itself. Instructions
// are written against this API only.
type Context struct {
	stack    valueStack
	auxStack valueStack
	pc       Address
	program  Storage

	in  io.ByteReader
	out *bufio.Writer
	eof EOFPolicy
}

// NewContext creates a Context at address 0 with empty stacks. Input reads
// from an empty reader and output is discarded until the interpreter wires
// its own streams.
func NewContext(program Storage) *Context {
	return &Context{
		program: program,
		in:      strings.NewReader(""),
		out:     bufio.NewWriter(io.Discard),
	}
}

// WithProgram replaces the program, keeping stacks and program counter.
func (c *Context) WithProgram(program Storage) *Context {
	c.program = program
	return c
}

// Program returns the program being executed.
func (c *Context) Program() Storage {
	return c.program
}

// Push pushes a value on the main stack.
func (c *Context) Push(v Value) {
	c.stack.push(v)
}

// Pop removes and returns the top of the main stack.
func (c *Context) Pop() (Value, bool) {
	return c.stack.pop()
}

// Top returns the top of the main stack without removing it.
func (c *Context) Top() (Value, bool) {
	return c.stack.peek()
}

// Peek returns the value n entries below the top of the main stack; Peek(0)
// is Top. Instructions check their operands with Peek before popping so a
// fault leaves the stack as the instruction found it.
func (c *Context) Peek(n int) (Value, bool) {
	return c.stack.peekAt(n)
}

// AuxTop returns the top of the auxiliary stack without removing it.
func (c *Context) AuxTop() (Value, bool) {
	return c.auxStack.peek()
}

// ToAuxiliary moves the top of the main stack to the auxiliary stack.
// Does nothing if the main stack is empty.
func (c *Context) ToAuxiliary() {
	if v, ok := c.stack.pop(); ok {
		c.auxStack.push(v)
	}
}

// ToMain moves the top of the auxiliary stack to the main stack.
// Does nothing if the auxiliary stack is empty.
func (c *Context) ToMain() {
	if v, ok := c.auxStack.pop(); ok {
		c.stack.push(v)
	}
}

// Depth returns the number of values on the main stack.
func (c *Context) Depth() int {
	return len(c.stack)
}

// AuxDepth returns the number of values on the auxiliary stack.
func (c *Context) AuxDepth() int {
	return len(c.auxStack)
}

// Stack yields the main stack from top to bottom.
func (c *Context) Stack() iter.Seq[Value] {
	return c.stack.topDown()
}

// AuxStack yields the auxiliary stack from top to bottom.
func (c *Context) AuxStack() iter.Seq[Value] {
	return c.auxStack.topDown()
}

// PC returns the program counter.
func (c *Context) PC() Address {
	return c.pc
}

// SetPC sets the program counter.
func (c *Context) SetPC(pc Address) {
	c.pc = pc
}

// Advance moves the program counter forward by one, wrapping.
func (c *Context) Advance() {
	c.pc = c.pc.Next()
}

// Prev moves the program counter back by one, wrapping below zero.
func (c *Context) Prev() {
	c.pc = c.pc.Prev()
}

// CurByte returns the program byte at the program counter.
func (c *Context) CurByte() (byte, bool) {
	return c.program.OpcodeAt(c.pc)
}

// ReadByte reads one byte of input. Pending output is flushed first so that
// prompts appear before the read blocks; a failed flush is returned as an
// OutputFailure fault. At end of input it returns (0, nil) under EOFZero and
// io.EOF under EOFFault.
func (c *Context) ReadByte() (byte, error) {
	if err := c.out.Flush(); err != nil {
		return 0, &Fault{Kind: OutputFailure, Reason: "flush before read", Err: err}
	}
	b, err := c.in.ReadByte()
	if errors.Is(err, io.EOF) && c.eof == EOFZero {
		return 0, nil
	}
	return b, err
}

// Output returns the writer that print instructions write to.
func (c *Context) Output() io.Writer {
	return c.out
}

// flush writes buffered output to the underlying writer.
func (c *Context) flush() error {
	return c.out.Flush()
}
