package machine

import "iter"

type valueStack []Value

func (s *valueStack) push(v Value) {
	*s = append(*s, v)
}

func (s *valueStack) pop() (Value, bool) {
	if len(*s) == 0 {
		return nil, false
	}
	var v Value
	*s, v = (*s)[:len(*s)-1], (*s)[len(*s)-1]
	return v, true
}

func (s valueStack) peek() (Value, bool) {
	return s.peekAt(0)
}

// peekAt returns the value n entries below the top.
func (s valueStack) peekAt(n int) (Value, bool) {
	if n < 0 || n >= len(s) {
		return nil, false
	}
	return s[len(s)-1-n], true
}

// topDown yields the stack from top to bottom. The sequence can be ranged
// over any number of times.
func (s valueStack) topDown() iter.Seq[Value] {
	return func(yield func(Value) bool) {
		for i := len(s) - 1; i >= 0; i-- {
			if !yield(s[i]) {
				return
			}
		}
	}
}

func (s valueStack) clone() []Value {
	return append(make([]Value, 0, len(s)), s...)
}
