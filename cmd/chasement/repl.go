package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/chazu/chasement/pkg/machine"
)

// runREPL reads the program a line at a time. Each line is appended to one
// growing program and executed from its first byte; stacks persist between
// lines. The input instruction reads from the same stream as the lines.
func runREPL(ctx context.Context, set *machine.InstructionSet, opts []machine.Option, stdin io.Reader, stdout, stderr io.Writer) int {
	in := bufio.NewReader(stdin)
	prog := &machine.Program{}
	opts = append(opts, machine.WithInput(in), machine.WithOutput(stdout))
	interp := machine.New(set, prog, opts...)

	fmt.Fprintln(stdout, "chasement REPL (type 'exit' to quit, ':help' for commands)")
	for {
		fmt.Fprint(stdout, ">> ")
		line, err := in.ReadString('\n')
		if line == "" && err != nil {
			fmt.Fprintln(stdout)
			return exitOK
		}
		trimmed := strings.TrimSpace(line)

		if trimmed == "exit" || trimmed == "quit" {
			return exitOK
		}
		if strings.HasPrefix(trimmed, ":") {
			handleREPLCommand(interp, prog, trimmed, stdout)
			continue
		}

		start := machine.Address(prog.Len())
		for i := 0; i < len(line); i++ {
			prog.PushOpcode(line[i])
		}
		if !strings.HasSuffix(line, "\n") {
			prog.PushOpcode('\n')
		}
		interp.Context().SetPC(start)

		outcome, runErr := interp.Run(ctx)
		switch {
		case runErr != nil:
			fmt.Fprintf(stderr, "chasement: %v\n", runErr)
			var f *machine.Fault
			if errors.As(runErr, &f) && f.Kind == machine.Cancelled {
				return exitFault
			}
		case outcome == machine.Halted:
			return exitOK
		}
		fmt.Fprintln(stdout)
	}
}

func handleREPLCommand(interp *machine.Interpreter, prog *machine.Program, cmd string, out io.Writer) {
	switch cmd {
	case ":stack", ":s":
		fmt.Fprint(out, machine.FormatStacks(interp.Context()))
	case ":disasm", ":d":
		fmt.Fprint(out, prog.Disassemble())
	case ":groups", ":g":
		fmt.Fprintf(out, "active: %s\n", strings.Join(interp.InstructionSet().Groups(), ", "))
		fmt.Fprintf(out, "known:  %s\n", strings.Join(machine.GroupNames(), ", "))
	case ":help", ":h":
		fmt.Fprintln(out, "  :stack   show both stacks")
		fmt.Fprintln(out, "  :disasm  list the program entered so far")
		fmt.Fprintln(out, "  :groups  list instruction groups")
		fmt.Fprintln(out, "  exit     leave the REPL")
	default:
		fmt.Fprintf(out, "unknown command %s (try :help)\n", cmd)
	}
}
