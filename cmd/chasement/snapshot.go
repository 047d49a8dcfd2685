package main

import (
	"fmt"
	"os"

	"github.com/chazu/chasement/pkg/machine"
)

// writeSnapshot stores the interpreter state, tagged with the fault message.
func writeSnapshot(interp *machine.Interpreter, runErr error, path string) error {
	s := interp.Snapshot()
	s.Fault = runErr.Error()
	data, err := machine.MarshalSnapshot(s)
	if err != nil {
		return fmt.Errorf("cannot encode snapshot: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("cannot write snapshot: %w", err)
	}
	return nil
}

// resumeFrom restores stacks and program counter from a snapshot file.
func resumeFrom(interp *machine.Interpreter, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("cannot read snapshot: %w", err)
	}
	s, err := machine.UnmarshalSnapshot(data)
	if err != nil {
		return err
	}
	return interp.Context().Restore(s)
}
