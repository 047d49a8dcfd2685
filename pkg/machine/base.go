package machine

import (
	"fmt"
	"io"
)

// BaseGroup binds the core language: stack manipulation, literals, control
// flow and I/O.
var BaseGroup = Group{Name: "base", Register: addBaseInstructions}

func init() {
	RegisterGroup(BaseGroup)
}

func addBaseInstructions(b *Builder) {
	b.Insert(OpNot, not)
	b.Insert(OpComment, comment)
	b.Insert(OpInput, input)
	b.Insert(OpChar, charLiteral)
	b.Insert(OpSpace, nop)
	b.Insert(OpNewline, nop)
	b.Insert(OpToAux, toAux)
	b.Insert(OpDup, dup)
	b.Insert(OpEmpty, empty)
	b.Insert(OpFalse, pushBool(false))
	b.Insert(OpPrintStack, printStack)
	b.Insert(OpJump, jump)
	b.Insert(OpToMain, toMain)
	b.Insert(OpDrop, drop)
	b.Insert(OpPrint, printTop)
	b.Insert(OpSkipIf, skipIf)
	b.Insert(OpTrue, pushBool(true))
	b.Insert(OpSwap, swap)
	b.Insert(OpExit, exit)
	b.Insert(OpAuxZero, auxEmpty)
	for c := byte('0'); c <= '9'; c++ {
		b.Insert(c, number)
	}
	b.Insert(OpEq, eq)

	b.Insert(OpMark, mark)
	b.Insert(OpJumpBack, jumpBack)

	b.Insert(OpOpenParen, skipBlock)
	b.Insert(OpCloseParen, nop)
}

// ( -- )
func nop(*Context) error {
	return nil
}

// # ( -- ) skip to the next '#' or newline; the loop steps past it
func comment(c *Context) error {
	c.Advance()
	for {
		b, ok := c.CurByte()
		if !ok || b == '#' || b == '\n' {
			return nil
		}
		c.Advance()
	}
}

// 0-9 ( -- n ) Parses the run of digits starting at the program counter and
// leaves the counter on its last digit. Accumulation wraps on overflow.
func number(c *Context) error {
	var n int64
	for {
		b, ok := c.CurByte()
		if !ok || !IsDigit(b) {
			c.Prev()
			break
		}
		n = n*10 + int64(b-'0')
		c.Advance()
	}
	c.Push(Int(n))
	return nil
}

// a ( x -- ) ( A: -- x )
func toAux(c *Context) error {
	c.ToAuxiliary()
	return nil
}

// m ( -- x ) ( A: x -- )
func toMain(c *Context) error {
	c.ToMain()
	return nil
}

// p ( x -- )
func printTop(c *Context) error {
	v, ok := c.Top()
	if !ok {
		return fault(StackUnderflow, "print on an empty stack")
	}
	if _, err := io.WriteString(c.Output(), v.String()); err != nil {
		return &Fault{Kind: OutputFailure, Err: err}
	}
	c.Pop()
	return nil
}

// d ( x -- x x )
func dup(c *Context) error {
	v, ok := c.Top()
	if !ok {
		return fault(StackUnderflow, "dup on an empty stack")
	}
	c.Push(v)
	return nil
}

// e ( -- flag ) true if the main stack is empty
func empty(c *Context) error {
	c.Push(Bool(c.Depth() == 0))
	return nil
}

// z ( -- flag ) true if the auxiliary stack is empty
func auxEmpty(c *Context) error {
	c.Push(Bool(c.AuxDepth() == 0))
	return nil
}

// f, t ( -- flag )
func pushBool(b bool) Instruction {
	return func(c *Context) error {
		c.Push(Bool(b))
		return nil
	}
}

// j ( addr -- ) Execution resumes at addr: the counter is set one short of it
// to make up for the loop's increment.
func jump(c *Context) error {
	v, ok := c.Top()
	if !ok {
		return fault(StackUnderflow, "jump on an empty stack")
	}
	i, ok := v.(Int)
	if !ok {
		return fault(TypeMismatch, "jump to non-Int %s", v.Inspect())
	}
	c.Pop()
	c.SetPC(AddressOf(int64(i)).Prev())
	return nil
}

// s ( flag -- ) skips the next byte when flag is true
func skipIf(c *Context) error {
	v, ok := c.Top()
	if !ok {
		return fault(StackUnderflow, "skip on an empty stack")
	}
	b, ok := v.(Bool)
	if !ok {
		return fault(TypeMismatch, "skip on non-Bool %s", v.Inspect())
	}
	c.Pop()
	if b {
		c.Advance()
	}
	return nil
}

// ! ( flag -- flag' ) ( n -- ^n )
func not(c *Context) error {
	v, ok := c.Top()
	if !ok {
		return fault(StackUnderflow, "not on an empty stack")
	}
	switch x := v.(type) {
	case Bool:
		c.Pop()
		c.Push(!x)
	case Int:
		c.Pop()
		c.Push(^x)
	default:
		return fault(TypeMismatch, "not on %s, want Int or Bool", v.Inspect())
	}
	return nil
}

// = ( x1 x2 -- flag )
func eq(c *Context) error {
	a, okA := c.Peek(0)
	b, okB := c.Peek(1)
	if !okA || !okB {
		return fault(StackUnderflow, "eq needs two values, got %s", describePair(a, okA, b, okB))
	}
	c.Pop()
	c.Pop()
	c.Push(Bool(Equal(a, b)))
	return nil
}

// w ( x1 x2 -- x2 x1 )
func swap(c *Context) error {
	a, okA := c.Peek(0)
	b, okB := c.Peek(1)
	if !okA || !okB {
		return fault(StackUnderflow, "swap needs two values, got %s", describePair(a, okA, b, okB))
	}
	c.Pop()
	c.Pop()
	c.Push(a)
	c.Push(b)
	return nil
}

// o ( x -- ) does nothing on an empty stack
func drop(c *Context) error {
	c.Pop()
	return nil
}

// x ( -- )
func exit(*Context) error {
	return ErrHalt
}

// h ( -- ) lists both stacks, top first
func printStack(c *Context) error {
	w := c.Output()
	if _, err := io.WriteString(w, FormatStacks(c)); err != nil {
		return &Fault{Kind: OutputFailure, Err: err}
	}
	return nil
}

// , ( -- char )
func input(c *Context) error {
	b, err := c.ReadByte()
	if err != nil {
		if f, ok := IsFault(err); ok {
			return f
		}
		return &Fault{Kind: InputFailure, Reason: "read failed", Err: err}
	}
	c.Push(Char(rune(b)))
	return nil
}

// ' ( -- char ) pushes the next program byte; \n is the only escape
func charLiteral(c *Context) error {
	c.Advance()
	b, ok := c.CurByte()
	if !ok {
		return fault(UnexpectedEnd, "' directly before end of program")
	}
	if b != '\\' {
		c.Push(Char(rune(b)))
		return nil
	}
	c.Advance()
	esc, ok := c.CurByte()
	if !ok {
		return fault(UnexpectedEnd, "escape sequence cut off by end of program")
	}
	switch esc {
	case 'n':
		c.Push(Char('\n'))
	default:
		return fault(InvalidEscape, `\%c`, rune(esc))
	}
	return nil
}

// [ ( -- addr )
func mark(c *Context) error {
	c.Push(Int(int64(c.PC())))
	return nil
}

// ] ( -- ) Scans backward from the ']' itself. Each ']' deepens the nesting,
// each '[' closes one level; the '[' met at depth 1 is the match and the
// counter stops just before it.
func jumpBack(c *Context) error {
	start := c.PC()
	depth := 0
	for {
		b, ok := c.CurByte()
		if !ok {
			c.SetPC(start)
			return fault(UnbalancedBracket, "no '[' before ']'")
		}
		switch b {
		case '[':
			if depth == 1 {
				c.Prev()
				return nil
			}
			depth--
		case ']':
			depth++
		}
		c.Prev()
	}
}

// ( ( -- ) Scans forward from the '(' itself and stops on the balancing ')',
// which the loop then steps past.
func skipBlock(c *Context) error {
	start := c.PC()
	depth := 0
	for {
		b, ok := c.CurByte()
		if !ok {
			c.SetPC(start)
			return fault(UnbalancedBracket, "no ')' after '('")
		}
		switch b {
		case ')':
			if depth == 1 {
				return nil
			}
			depth--
		case '(':
			depth++
		}
		c.Advance()
	}
}

func describePair(a Value, okA bool, b Value, okB bool) string {
	return fmt.Sprintf("(%s, %s)", describe(a, okA), describe(b, okB))
}

func describe(v Value, ok bool) string {
	if !ok {
		return "<empty>"
	}
	return v.Inspect()
}
