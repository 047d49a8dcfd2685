package machine

import (
	"bytes"
	"context"
	"errors"
	"io"
	"slices"
	"strings"
	"testing"
)

// runProgram runs src with the default instruction set and returns what it
// printed. Faults are returned, not reported.
func runProgram(t *testing.T, src string, opts ...Option) (string, Outcome, error) {
	t.Helper()
	var out bytes.Buffer
	opts = append([]Option{WithOutput(&out)}, opts...)
	in := New(DefaultInstructionSet(), Program(src), opts...)
	outcome, err := in.Run(context.Background())
	return out.String(), outcome, err
}

func mustRun(t *testing.T, src string, opts ...Option) string {
	t.Helper()
	out, _, err := runProgram(t, src, opts...)
	if err != nil {
		t.Fatalf("run %q: %v", src, err)
	}
	return out
}

func wantFault(t *testing.T, err error, kind FaultKind, addr Address) *Fault {
	t.Helper()
	f, ok := IsFault(err)
	if !ok {
		t.Fatalf("error = %v, want a *Fault", err)
	}
	if f.Kind != kind {
		t.Errorf("fault kind = %s, want %s", f.Kind, kind)
	}
	if f.Addr != addr {
		t.Errorf("fault address = %d, want %d", f.Addr, addr)
	}
	return f
}

func TestPrograms(t *testing.T) {
	tests := []struct {
		name  string
		src   string
		input string
		want  string
	}{
		{"add", "2 3+p", "", "5"},
		{"multi digit", "23p", "", "23"},
		{"number at end", "1p99", "", "1"},
		{"empty program", "", "", ""},
		{"whitespace only", " \n \n", "", ""},
		{"jump forward", "5jttt9p", "", "9"},
		{"countdown loop", "3[odp0!+d0=s]", "", "321"},
		{"skip block", "(1p)2p", "", "2"},
		{"nested skip block", "((1p)3p)2p", "", "2"},
		{"close paren alone", ")4p", "", "4"},
		{"comment to hash", "#1p#2p", "", "2"},
		{"comment to newline", "#xx\n3p", "", "3"},
		{"comment to end", "7p#8p", "", "7"},
		{"char literal", "'ap", "", "a"},
		{"char space", "' p", "", " "},
		{"newline escape", "'\\np", "", "\n"},
		{"input", ",,pp", "xy", "yx"},
		{"input at eof", ",p", "", "\x00"},
		{"true", "tp", "", "true"},
		{"false", "fp", "", "false"},
		{"not bool", "t!p", "", "false"},
		{"not int", "0!p", "", "-1"},
		{"eq same", "4 4=p", "", "true"},
		{"eq different kinds", "'1 1=p", "", "false"},
		{"swap", "1 2wpp", "", "12"},
		{"dup", "6dpp", "", "66"},
		{"drop", "1 2op", "", "1"},
		{"drop empty", "o5p", "", "5"},
		{"empty", "ep1ep", "", "truefalse"},
		{"aux empty", "zp1azp", "", "truefalse"},
		{"aux round trip", "1 2amwpp", "", "12"},
		{"skip taken", "ts1 2p", "", "2"},
		{"skip not taken", "fs1 2p", "", "2"},
		{"skip next byte", "tsp3p", "", "3"},
		{"negative jump", "0!j1p", "", ""},
		{"jump past end", "99j1p", "", ""},
		{"mark value", " [p", "", "1"},
		{"overflow wraps", "9223372036854775807 1+p", "", "-9223372036854775808"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := mustRun(t, tt.src, WithInput(strings.NewReader(tt.input)))
			if got != tt.want {
				t.Errorf("output = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDigitRoundTrip(t *testing.T) {
	for _, n := range []string{"0", "9", "10", "99", "999999"} {
		if got := mustRun(t, n+"p"); got != n {
			t.Errorf("%sp printed %q", n, got)
		}
	}
}

func TestDupDropIdentity(t *testing.T) {
	in := New(DefaultInstructionSet(), Program("1 2do"))
	if _, err := in.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	got := slices.Collect(in.Context().Stack())
	if !slices.Equal(got, []Value{Int(2), Int(1)}) {
		t.Errorf("stack = %v, want [2 1]", got)
	}
}

func TestJumpStepping(t *testing.T) {
	in := New(DefaultInstructionSet(), Program("5jttt9p"))
	for i := 0; i < 2; i++ {
		if running, err := in.Step(); !running || err != nil {
			t.Fatalf("step %d: running=%v err=%v", i, running, err)
		}
	}
	if pc := in.Context().PC(); pc != 5 {
		t.Errorf("PC() after jump = %d, want 5", pc)
	}
	if in.Context().Depth() != 0 {
		t.Errorf("Depth() = %d, want 0", in.Context().Depth())
	}
}

func TestJumpBack(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		closeAt Address
		openAt  Address
	}{
		{"flat", "[ ]", 2, 0},
		{"nested", "[ [ ] ]", 6, 0},
		{"inner", "[ [ ] ]", 4, 2},
		{"deep", "[[[[]]]]", 7, 0},
		{"deep inner", "[[[[]]]]", 5, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := New(DefaultInstructionSet(), Program(tt.src))
			c := in.Context()
			c.SetPC(tt.closeAt)
			if _, err := in.Step(); err != nil {
				t.Fatalf("step on ']': %v", err)
			}
			// The counter lands on the matching '[' which then runs again.
			if c.PC() != tt.openAt {
				t.Fatalf("PC() after ']' = %d, want %d", c.PC(), tt.openAt)
			}
			if _, err := in.Step(); err != nil {
				t.Fatalf("step on '[': %v", err)
			}
			if v, _ := c.Top(); v != Int(int64(tt.openAt)) {
				t.Errorf("'[' pushed %v, want Int(%d)", v, tt.openAt)
			}
		})
	}
}

func TestJumpBackFromStart(t *testing.T) {
	in := New(DefaultInstructionSet(), Program("[ ]"))
	c := in.Context()
	for i := 0; i < 3; i++ {
		if _, err := in.Step(); err != nil {
			t.Fatal(err)
		}
	}
	// ']' found '[' at 0: the counter wrapped through MaxAddress back to 0.
	if c.PC() != 0 {
		t.Errorf("PC() = %d, want 0", c.PC())
	}
	if _, err := in.Step(); err != nil {
		t.Fatal(err)
	}
	if c.PC() != 1 {
		t.Errorf("PC() after re-running '[' = %d, want 1", c.PC())
	}
	got := slices.Collect(c.Stack())
	if !slices.Equal(got, []Value{Int(0), Int(0)}) {
		t.Errorf("stack = %v, want two Int(0) marks", got)
	}
}

func TestHalt(t *testing.T) {
	out, outcome, err := runProgram(t, "1px2p")
	if err != nil {
		t.Fatal(err)
	}
	if outcome != Halted {
		t.Errorf("outcome = %s, want halted", outcome)
	}
	if out != "1" {
		t.Errorf("output = %q, want 1", out)
	}

	in := New(DefaultInstructionSet(), Program("x"))
	if running, err := in.Step(); running || !errors.Is(err, ErrHalt) {
		t.Errorf("Step() = %v, %v; want false, ErrHalt", running, err)
	}
}

func TestCompleted(t *testing.T) {
	_, outcome, err := runProgram(t, "1")
	if err != nil || outcome != Completed {
		t.Errorf("Run() = %s, %v; want completed", outcome, err)
	}
}

func TestPrintStack(t *testing.T) {
	got := mustRun(t, "1 2a'ch")
	want := "Main: [\n    Char('c'),\n    Int(1),\n]\nAux: [\n    Int(2),\n]\n"
	if got != want {
		t.Errorf("h printed\n%s\nwant\n%s", got, want)
	}

	if got := mustRun(t, "h"); got != "Main: [\n]\nAux: [\n]\n" {
		t.Errorf("h on empty stacks printed %q", got)
	}
}

func TestFaults(t *testing.T) {
	tests := []struct {
		name string
		src  string
		kind FaultKind
		addr Address
		out  string
	}{
		{"unknown opcode", "12 Q", NoInstruction, 3, ""},
		{"reserved opcode", "5 3-", NoInstruction, 3, ""},
		{"add empty", "+", StackUnderflow, 0, ""},
		{"add one", "1+", StackUnderflow, 1, ""},
		{"add mixed", "1t+", TypeMismatch, 2, ""},
		{"add chars", "'a'b+", TypeMismatch, 4, ""},
		{"print empty", "p", StackUnderflow, 0, ""},
		{"dup empty", "d", StackUnderflow, 0, ""},
		{"swap one", "1w", StackUnderflow, 1, ""},
		{"eq one", "1=", StackUnderflow, 1, ""},
		{"not char", "'a!", TypeMismatch, 2, ""},
		{"jump empty", "j", StackUnderflow, 0, ""},
		{"jump bool", "tj", TypeMismatch, 1, ""},
		{"skip empty", "s", StackUnderflow, 0, ""},
		{"skip int", "1s", TypeMismatch, 1, ""},
		{"bad escape", "'\\qp", InvalidEscape, 0, ""},
		{"dangling quote", "'", UnexpectedEnd, 0, ""},
		{"dangling escape", "'\\", UnexpectedEnd, 0, ""},
		{"open paren", "(1p", UnbalancedBracket, 0, ""},
		{"close bracket", "1p]", UnbalancedBracket, 2, "1"},
		{"output before fault", "7p+", StackUnderflow, 2, "7"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, _, err := runProgram(t, tt.src)
			wantFault(t, err, tt.kind, tt.addr)
			if out != tt.out {
				t.Errorf("output = %q, want %q", out, tt.out)
			}
		})
	}
}

func TestFaultMessage(t *testing.T) {
	_, _, err := runProgram(t, "12 Q")
	want := "no instruction for opcode 'Q' (0x51) at address 3"
	if err == nil || err.Error() != want {
		t.Errorf("error = %v, want %q", err, want)
	}

	_, _, err = runProgram(t, "1t+")
	if err == nil || !strings.Contains(err.Error(), "opcode '+' (0x2B) at address 2: type mismatch") {
		t.Errorf("error = %v", err)
	}
}

func TestFaultCarriesStacks(t *testing.T) {
	_, _, err := runProgram(t, "1 2a3 Q")
	f := wantFault(t, err, NoInstruction, 6)
	if f.Opcode != 'Q' {
		t.Errorf("fault opcode = %q, want 'Q'", f.Opcode)
	}
	if !slices.Equal(f.Main, []Value{Int(1), Int(3)}) {
		t.Errorf("fault main stack = %v, want [1 3]", f.Main)
	}
	if !slices.Equal(f.Aux, []Value{Int(2)}) {
		t.Errorf("fault aux stack = %v, want [2]", f.Aux)
	}
}

func TestInputEOFFault(t *testing.T) {
	_, _, err := runProgram(t, ",p", WithEOFPolicy(EOFFault))
	wantFault(t, err, InputFailure, 0)
	if !errors.Is(err, io.EOF) {
		t.Errorf("error = %v, want it to wrap io.EOF", err)
	}
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) {
	return 0, errors.New("device gone")
}

func TestInputReadError(t *testing.T) {
	_, _, err := runProgram(t, "1,", WithInput(failingReader{}))
	f := wantFault(t, err, InputFailure, 1)
	if f.Err == nil || f.Err.Error() != "device gone" {
		t.Errorf("fault cause = %v, want device gone", f.Err)
	}
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) {
	return 0, errors.New("pipe closed")
}

func TestOutputFailure(t *testing.T) {
	in := New(DefaultInstructionSet(), Program("1p"), WithOutput(failingWriter{}))
	_, err := in.Run(context.Background())
	f, ok := IsFault(err)
	if !ok || f.Kind != OutputFailure {
		t.Fatalf("error = %v, want an output failure", err)
	}
}

func TestInputFlushesOutput(t *testing.T) {
	var out bytes.Buffer
	in := New(DefaultInstructionSet(), Program("'?p,"), WithOutput(&out))
	for i := 0; i < 2; i++ {
		if _, err := in.Step(); err != nil {
			t.Fatal(err)
		}
	}
	if out.Len() != 0 {
		t.Fatalf("output written before flush: %q", out.String())
	}
	if _, err := in.Step(); err != nil {
		t.Fatal(err)
	}
	if out.String() != "?" {
		t.Errorf("output before input = %q, want ?", out.String())
	}
}

func TestStepLimit(t *testing.T) {
	_, _, err := runProgram(t, "[o]", WithMaxSteps(100))
	f, ok := IsFault(err)
	if !ok || f.Kind != StepLimit {
		t.Fatalf("error = %v, want step limit", err)
	}

	// A limit reached exactly at the end of the program is not a fault.
	if _, _, err := runProgram(t, "1p", WithMaxSteps(2)); err != nil {
		t.Errorf("run with exact limit: %v", err)
	}
}

func TestCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	in := New(DefaultInstructionSet(), Program("[o]"))
	_, err := in.Run(ctx)
	wantFault(t, err, Cancelled, 0)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want it to wrap context.Canceled", err)
	}
}

func TestInstructionError(t *testing.T) {
	errBoom := errors.New("boom")
	set := NewBuilder().With(BaseGroup).Insert('b', func(*Context) error {
		return errBoom
	}).Build()

	in := New(set, Program("1b"))
	_, err := in.Run(context.Background())
	wantFault(t, err, InstructionError, 1)
	if !errors.Is(err, errBoom) {
		t.Errorf("error = %v, want it to wrap boom", err)
	}
}

func TestGrowingProgram(t *testing.T) {
	var out bytes.Buffer
	prog := Program("1 2")
	in := New(DefaultInstructionSet(), &prog, WithOutput(&out))
	if _, err := in.Run(context.Background()); err != nil {
		t.Fatal(err)
	}

	for _, b := range []byte("+p") {
		prog.PushOpcode(b)
	}
	if _, err := in.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	if out.String() != "3" {
		t.Errorf("output = %q, want 3", out.String())
	}
	if in.Steps() != 5 {
		t.Errorf("Steps() = %d, want 5", in.Steps())
	}
}

func TestLoadKeepsState(t *testing.T) {
	var out bytes.Buffer
	in := New(DefaultInstructionSet(), Program("4"), WithOutput(&out))
	if _, err := in.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	in.Load(Program(" p"))
	if _, err := in.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	if out.String() != "4" {
		t.Errorf("output = %q, want 4", out.String())
	}
}

func TestFaultLeavesStateUntouched(t *testing.T) {
	tests := []struct {
		src  string
		kind FaultKind
		addr Address
		main []Value
	}{
		{"1t+", TypeMismatch, 2, []Value{Int(1), Bool(true)}},
		{"1+", StackUnderflow, 1, []Value{Int(1)}},
		{"1=", StackUnderflow, 1, []Value{Int(1)}},
		{"1w", StackUnderflow, 1, []Value{Int(1)}},
		{"tj", TypeMismatch, 1, []Value{Bool(true)}},
		{"1s", TypeMismatch, 1, []Value{Int(1)}},
		{"'a!", TypeMismatch, 2, []Value{Char('a')}},
		{"p", StackUnderflow, 0, []Value{}},
		{"'\\q", InvalidEscape, 0, []Value{}},
		{"4'", UnexpectedEnd, 1, []Value{Int(4)}},
		{"5(", UnbalancedBracket, 1, []Value{Int(5)}},
	}

	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			in := New(DefaultInstructionSet(), Program(tt.src))
			_, err := in.Run(context.Background())
			f := wantFault(t, err, tt.kind, tt.addr)
			if !slices.Equal(f.Main, tt.main) {
				t.Errorf("fault main stack = %v, want %v", f.Main, tt.main)
			}
			if got := slices.Collect(in.Context().Stack()); len(got) != len(tt.main) {
				t.Errorf("context depth = %d, want %d", len(got), len(tt.main))
			}
			if pc := in.Context().PC(); pc != tt.addr {
				t.Errorf("PC() = %d, want %d", pc, tt.addr)
			}
		})
	}
}

func TestInputFlushFailure(t *testing.T) {
	in := New(DefaultInstructionSet(), Program("1p,"), WithOutput(failingWriter{}))
	_, err := in.Run(context.Background())
	wantFault(t, err, OutputFailure, 2)
}

func TestStepLimitPerRun(t *testing.T) {
	var out bytes.Buffer
	prog := Program("1p\n")
	in := New(DefaultInstructionSet(), &prog, WithOutput(&out), WithMaxSteps(3))
	for _, line := range []string{"2p\n", "3p\n", ""} {
		if _, err := in.Run(context.Background()); err != nil {
			t.Fatalf("run after %d steps: %v", in.Steps(), err)
		}
		for _, b := range []byte(line) {
			prog.PushOpcode(b)
		}
	}
	if out.String() != "123" {
		t.Errorf("output = %q, want 123", out.String())
	}
	if in.Steps() != 9 {
		t.Errorf("Steps() = %d, want 9", in.Steps())
	}
}
