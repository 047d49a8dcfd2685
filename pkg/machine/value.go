package machine

import (
	"math"
	"strconv"
	"strings"
)

// Kind identifies the variant of a Value.
type Kind uint8

const (
	KindInt Kind = iota + 1
	KindBool
	KindChar
	KindStr
	KindFloat
)

// String returns a human-readable name for Kind.
func (k Kind) String() string {
	switch k {
	case KindInt:
		return "Int"
	case KindBool:
		return "Bool"
	case KindChar:
		return "Char"
	case KindStr:
		return "Str"
	case KindFloat:
		return "Float"
	default:
		return "Kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// Value is one of Int, Bool, Char, Str or Float. The set is closed.
//
// String returns the display form written by the print instruction.
// Inspect returns the tagged form used by the stack listing.
type Value interface {
	Kind() Kind
	String() string
	Inspect() string
	value()
}

// Int is a 64-bit signed integer.
type Int int64

// Bool is a boolean.
type Bool bool

// Char is a single Unicode scalar value.
type Char rune

// Str is a string.
type Str string

// Float is a 64-bit float.
type Float float64

func (Int) Kind() Kind   { return KindInt }
func (Bool) Kind() Kind  { return KindBool }
func (Char) Kind() Kind  { return KindChar }
func (Str) Kind() Kind   { return KindStr }
func (Float) Kind() Kind { return KindFloat }

func (Int) value()   {}
func (Bool) value()  {}
func (Char) value()  {}
func (Str) value()   {}
func (Float) value() {}

func (i Int) String() string   { return strconv.FormatInt(int64(i), 10) }
func (b Bool) String() string  { return strconv.FormatBool(bool(b)) }
func (c Char) String() string  { return string(rune(c)) }
func (s Str) String() string   { return string(s) }
func (f Float) String() string { return formatFloat(float64(f)) }

func (i Int) Inspect() string  { return "Int(" + i.String() + ")" }
func (b Bool) Inspect() string { return "Bool(" + b.String() + ")" }
func (c Char) Inspect() string { return "Char(" + strconv.QuoteRune(rune(c)) + ")" }
func (s Str) Inspect() string  { return "Str(" + strconv.Quote(string(s)) + ")" }

func (f Float) Inspect() string {
	s := formatFloat(float64(f))
	if !math.IsInf(float64(f), 0) && !math.IsNaN(float64(f)) && !strings.ContainsRune(s, '.') {
		s += ".0"
	}
	return "Float(" + s + ")"
}

// formatFloat renders the shortest decimal that round-trips, never in
// exponent form.
func formatFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// Equal reports whether a and b are the same variant with the same payload.
// Values of different variants are never equal. A nil Value equals only nil.
func Equal(a, b Value) bool {
	// Every variant is a comparable scalar, so interface equality compares
	// dynamic type and payload.
	return a == b
}
