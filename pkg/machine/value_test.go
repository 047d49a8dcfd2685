package machine

import (
	"math"
	"testing"
)

func TestEqual(t *testing.T) {
	tests := []struct {
		name string
		a, b Value
		want bool
	}{
		{"same int", Int(3), Int(3), true},
		{"different int", Int(3), Int(4), false},
		{"same bool", Bool(true), Bool(true), true},
		{"same char", Char('x'), Char('x'), true},
		{"same str", Str("hi"), Str("hi"), true},
		{"same float", Float(1.5), Float(1.5), true},
		{"int vs float", Int(1), Float(1), false},
		{"int vs char", Int('a'), Char('a'), false},
		{"char vs str", Char('a'), Str("a"), false},
		{"bool vs int", Bool(true), Int(1), false},
		{"nan", Float(math.NaN()), Float(math.NaN()), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Equal(tt.a, tt.b); got != tt.want {
				t.Errorf("Equal(%s, %s) = %v, want %v", tt.a.Inspect(), tt.b.Inspect(), got, tt.want)
			}
		})
	}
}

func TestValueDisplay(t *testing.T) {
	tests := []struct {
		v       Value
		display string
		inspect string
	}{
		{Int(-42), "-42", "Int(-42)"},
		{Bool(false), "false", "Bool(false)"},
		{Char('a'), "a", "Char('a')"},
		{Char('\n'), "\n", `Char('\n')`},
		{Str("a b"), "a b", `Str("a b")`},
		{Float(1), "1", "Float(1.0)"},
		{Float(2.5), "2.5", "Float(2.5)"},
		{Float(1e20), "100000000000000000000", "Float(100000000000000000000.0)"},
		{Float(math.Inf(1)), "inf", "Float(inf)"},
	}
	for _, tt := range tests {
		if got := tt.v.String(); got != tt.display {
			t.Errorf("%s.String() = %q, want %q", tt.inspect, got, tt.display)
		}
		if got := tt.v.Inspect(); got != tt.inspect {
			t.Errorf("Inspect() = %q, want %q", got, tt.inspect)
		}
	}
}

func TestKindString(t *testing.T) {
	if KindChar.String() != "Char" {
		t.Errorf("KindChar.String() = %q, want Char", KindChar.String())
	}
	if Kind(99).String() != "Kind(99)" {
		t.Errorf("Kind(99).String() = %q, want Kind(99)", Kind(99).String())
	}
}
