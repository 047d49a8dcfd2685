package machine

// ArithmeticGroup binds the arithmetic operators. Only '+' is implemented;
// the other operator bytes are reserved.
var ArithmeticGroup = Group{Name: "arithmetic", Register: addArithmeticInstructions}

func init() {
	RegisterGroup(ArithmeticGroup)
}

func addArithmeticInstructions(b *Builder) {
	b.Insert(OpAdd, plus)
}

// + ( n1 n2 -- n3 ) Works only on Ints. The sum wraps on overflow.
func plus(c *Context) error {
	a, okA := c.Peek(0)
	b, okB := c.Peek(1)
	x, isIntA := a.(Int)
	y, isIntB := b.(Int)
	switch {
	case !okA || !okB:
		return fault(StackUnderflow, "add needs two values, got %s", describePair(a, okA, b, okB))
	case !isIntA || !isIntB:
		return fault(TypeMismatch, "add called on invalid combination %s", describePair(a, okA, b, okB))
	}
	c.Pop()
	c.Pop()
	c.Push(x + y)
	return nil
}
