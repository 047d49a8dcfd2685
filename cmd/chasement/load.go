package main

import (
	"fmt"
	"io"
	"os"

	"golang.org/x/term"

	"github.com/chazu/chasement/pkg/machine"
)

// loadProgram reads the whole program before execution starts: from path if
// given, otherwise from stdin until end of file.
func loadProgram(path string, stdin io.Reader, stderr io.Writer) (machine.Program, error) {
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("cannot read program: %w", err)
		}
		return machine.Program(data), nil
	}

	if f, ok := stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprintf(stderr, "Reading program from the terminal until end of file (Ctrl-D).\n")
	}
	data, err := io.ReadAll(stdin)
	if err != nil {
		return nil, fmt.Errorf("cannot read program from stdin: %w", err)
	}
	return machine.Program(data), nil
}
