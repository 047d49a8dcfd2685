package machine

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/tliron/commonlog"
)

// Outcome reports how a run ended without a fault.
type Outcome int

const (
	// Completed means the program counter left the program.
	Completed Outcome = iota
	// Halted means the exit instruction ran.
	Halted
)

func (o Outcome) String() string {
	switch o {
	case Completed:
		return "completed"
	case Halted:
		return "halted"
	default:
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
}

// Option configures an Interpreter.
type Option func(*Interpreter)

// WithInput sets the stream read by the input instruction.
func WithInput(r io.Reader) Option {
	return func(in *Interpreter) {
		if br, ok := r.(io.ByteReader); ok {
			in.ctx.in = br
			return
		}
		in.ctx.in = bufio.NewReader(r)
	}
}

// WithOutput sets the stream written by the print instructions.
func WithOutput(w io.Writer) Option {
	return func(in *Interpreter) {
		in.ctx.out = bufio.NewWriter(w)
	}
}

// WithEOFPolicy sets what the input instruction does at end of input.
func WithEOFPolicy(p EOFPolicy) Option {
	return func(in *Interpreter) {
		in.ctx.eof = p
	}
}

// WithMaxSteps stops a Run call with a StepLimit fault after it executes n
// instructions. Each call to Run gets the full budget. Zero means no limit.
func WithMaxSteps(n uint64) Option {
	return func(in *Interpreter) {
		in.maxSteps = n
	}
}

// WithTrace logs every instruction at debug level.
func WithTrace(trace bool) Option {
	return func(in *Interpreter) {
		in.trace = trace
	}
}

// WithRunID overrides the generated run identifier.
func WithRunID(id uuid.UUID) Option {
	return func(in *Interpreter) {
		in.runID = id
	}
}

// Interpreter runs a program against an InstructionSet.
type Interpreter struct {
	set      *InstructionSet
	ctx      *Context
	runID    uuid.UUID
	steps    uint64
	maxSteps uint64
	trace    bool
	log      commonlog.Logger
}

// New creates an Interpreter positioned at address 0 of prog.
func New(set *InstructionSet, prog Storage, opts ...Option) *Interpreter {
	in := &Interpreter{
		set:   set,
		ctx:   NewContext(prog),
		runID: uuid.New(),
		log:   commonlog.GetLogger("chasement.machine"),
	}
	for _, opt := range opts {
		opt(in)
	}
	return in
}

// Context returns the execution context.
func (in *Interpreter) Context() *Context {
	return in.ctx
}

// InstructionSet returns the instruction set the interpreter dispatches through.
func (in *Interpreter) InstructionSet() *InstructionSet {
	return in.set
}

// RunID returns the identifier used in logs and snapshots.
func (in *Interpreter) RunID() uuid.UUID {
	return in.runID
}

// Steps returns the number of instructions executed so far, over all calls
// to Step and Run.
func (in *Interpreter) Steps() uint64 {
	return in.steps
}

// Load replaces the program and keeps stacks and program counter.
func (in *Interpreter) Load(prog Storage) {
	in.ctx.WithProgram(prog)
}

// Step executes one instruction. It returns false when there is nothing more
// to run: the program counter is past the end (err == nil), the exit
// instruction ran (err == ErrHalt), or the instruction faulted (err is a
// *Fault). Output stays buffered until Run returns or Flush is called.
func (in *Interpreter) Step() (bool, error) {
	c := in.ctx
	pc := c.pc
	op, ok := c.program.OpcodeAt(pc)
	if !ok {
		return false, nil
	}
	ins, ok := in.set.Get(op)
	if !ok {
		return false, in.locate(&Fault{Kind: NoInstruction}, op, pc)
	}
	if in.trace {
		in.log.Debugf("%s %04d %-12s main=%d aux=%d", in.runID, pc, GetOpcodeInfo(op).Name, c.Depth(), c.AuxDepth())
	}
	in.steps++
	if err := ins(c); err != nil {
		if errors.Is(err, ErrHalt) {
			return false, ErrHalt
		}
		// The faulting opcode stays current so a restored snapshot retries it.
		c.pc = pc
		return false, in.locate(err, op, pc)
	}
	c.pc = c.pc.Next()
	return true, nil
}

// Run executes until the program completes, halts or faults. Every error it
// returns is a *Fault. Cancelling ctx stops the run between instructions.
func (in *Interpreter) Run(ctx context.Context) (Outcome, error) {
	in.log.Infof("run %s started at address %d", in.runID, in.ctx.pc)
	outcome, err := in.run(ctx)
	if ferr := in.ctx.flush(); ferr != nil && err == nil {
		err = in.locate(&Fault{Kind: OutputFailure, Err: ferr}, in.currentOpcode(), in.ctx.pc)
	}
	if err != nil {
		in.log.Infof("run %s faulted after %d steps: %s", in.runID, in.steps, err)
		return outcome, err
	}
	in.log.Infof("run %s %s after %d steps", in.runID, outcome, in.steps)
	return outcome, nil
}

func (in *Interpreter) run(ctx context.Context) (Outcome, error) {
	done := ctx.Done()
	start := in.steps
	for {
		select {
		case <-done:
			return Completed, in.locate(&Fault{Kind: Cancelled, Err: ctx.Err()}, in.currentOpcode(), in.ctx.pc)
		default:
		}
		if n := in.steps - start; in.maxSteps > 0 && n >= in.maxSteps {
			if _, ok := in.ctx.CurByte(); ok {
				return Completed, in.locate(fault(StepLimit, "%d instructions executed", n), in.currentOpcode(), in.ctx.pc)
			}
		}
		running, err := in.Step()
		switch {
		case errors.Is(err, ErrHalt):
			return Halted, nil
		case err != nil:
			return Completed, err
		case !running:
			return Completed, nil
		}
	}
}

// Snapshot captures the run state tagged with the run identifier.
func (in *Interpreter) Snapshot() *Snapshot {
	s := in.ctx.Snapshot()
	s.RunID = in.runID.String()
	return s
}

// Flush writes buffered output.
func (in *Interpreter) Flush() error {
	return in.ctx.flush()
}

func (in *Interpreter) currentOpcode() byte {
	op, _ := in.ctx.CurByte()
	return op
}

// locate attaches position and stack contents to an instruction error.
func (in *Interpreter) locate(err error, op byte, addr Address) *Fault {
	f, ok := IsFault(err)
	if !ok {
		f = &Fault{Kind: InstructionError, Err: err}
	}
	f.Opcode = op
	f.Addr = addr
	f.Main = in.ctx.stack.clone()
	f.Aux = in.ctx.auxStack.clone()
	return f
}
