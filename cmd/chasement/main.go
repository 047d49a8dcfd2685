// chasement CLI - runs a chasement program from a file or standard input
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"

	"github.com/tliron/commonlog"

	"github.com/chazu/chasement/config"
	"github.com/chazu/chasement/pkg/machine"

	_ "github.com/tliron/commonlog/simple"
)

// Exit codes.
const (
	exitOK    = 0
	exitFault = 1
	exitUsage = 2
)

// traceVerbosity is the commonlog verbosity that shows debug messages.
const traceVerbosity = 2

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

type options struct {
	configPath string
	verbose    verbosity
	trace      bool
	maxSteps   uint64
	eof        string
	snapshot   string
	resume     string
	disasm     bool
	repl       bool
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("chasement", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var opts options
	fs.StringVar(&opts.configPath, "config", "", "Path to chasement.toml (default: search upward from the working directory)")
	fs.Var(&opts.verbose, "v", "Raise log verbosity by one per use, or by N with -v=N")
	fs.BoolVar(&opts.trace, "trace", false, "Log every instruction at debug level")
	fs.Uint64Var(&opts.maxSteps, "max-steps", 0, "Fault after this many instructions (0: config or unlimited)")
	fs.StringVar(&opts.eof, "eof", "", "Input instruction at end of input: zero or fault")
	fs.StringVar(&opts.snapshot, "snapshot", "", "Write a CBOR state snapshot here if the program faults")
	fs.StringVar(&opts.resume, "resume", "", "Start from a CBOR state snapshot")
	fs.BoolVar(&opts.disasm, "disasm", false, "Print a listing of the program and exit")
	fs.BoolVar(&opts.repl, "i", false, "Start interactive REPL")

	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: chasement [options] [program]\n\n")
		fmt.Fprintf(stderr, "Runs a chasement program. Without a program file the program is read from\n")
		fmt.Fprintf(stderr, "standard input until end of file.\n\n")
		fmt.Fprintf(stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(stderr, "\nExamples:\n")
		fmt.Fprintf(stderr, "  chasement hello.cm             # Run a file\n")
		fmt.Fprintf(stderr, "  echo '23+p' | chasement        # Run from stdin\n")
		fmt.Fprintf(stderr, "  chasement -disasm hello.cm     # Show the opcode listing\n")
		fmt.Fprintf(stderr, "  chasement -i                   # Start REPL\n")
	}
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	if fs.NArg() > 1 {
		fs.Usage()
		return exitUsage
	}

	cfg, err := loadConfig(opts.configPath)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitUsage
	}
	if err := applyFlags(cfg, &opts); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitUsage
	}
	commonlog.Configure(cfg.Log.Verbosity, cfg.LogFile())
	log := commonlog.GetLogger("chasement.cli")
	if cfg.Path != "" {
		log.Infof("using configuration %s", cfg.Path)
	}

	set, err := cfg.InstructionSet()
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitUsage
	}
	machineOpts, err := cfg.MachineOptions()
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitUsage
	}

	if opts.repl {
		return runREPL(ctx, set, machineOpts, stdin, stdout, stderr)
	}

	prog, err := loadProgram(fs.Arg(0), stdin, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitUsage
	}
	log.Infof("loaded program (%d bytes)", prog.Len())

	if opts.disasm {
		fmt.Fprint(stdout, prog.Disassemble())
		return exitOK
	}

	machineOpts = append(machineOpts, machine.WithInput(stdin), machine.WithOutput(stdout))
	interp := machine.New(set, prog, machineOpts...)
	if opts.resume != "" {
		if err := resumeFrom(interp, opts.resume); err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return exitUsage
		}
	}

	outcome, err := interp.Run(ctx)
	if err != nil {
		fmt.Fprintf(stderr, "chasement: %v\n", err)
		if path := cfg.Snapshot.OnFault; path != "" {
			if serr := writeSnapshot(interp, err, path); serr != nil {
				fmt.Fprintf(stderr, "Error: %v\n", serr)
			} else {
				log.Noticef("state written to %s", path)
			}
		}
		return exitFault
	}
	log.Infof("program %s", outcome)
	return exitOK
}

// verbosity is a counting flag: each bare -v adds one, -v=N adds N.
type verbosity int

func (v *verbosity) String() string {
	if v == nil {
		return "0"
	}
	return strconv.Itoa(int(*v))
}

func (v *verbosity) Set(s string) error {
	if b, err := strconv.ParseBool(s); err == nil {
		if b {
			*v++
		}
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return fmt.Errorf("invalid verbosity %q", s)
	}
	*v += verbosity(n)
	return nil
}

func (v *verbosity) IsBoolFlag() bool {
	return true
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFile(path)
	}
	cfg, err := config.FindAndLoad(".")
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		return config.Default(), nil
	}
	return cfg, nil
}

// applyFlags lets command line flags override the configuration file.
func applyFlags(cfg *config.Config, opts *options) error {
	cfg.Log.Verbosity += int(opts.verbose)
	if opts.trace {
		cfg.Interpreter.Trace = true
	}
	if cfg.Interpreter.Trace && cfg.Log.Verbosity < traceVerbosity {
		cfg.Log.Verbosity = traceVerbosity
	}
	if opts.maxSteps > 0 {
		cfg.Interpreter.MaxSteps = opts.maxSteps
	}
	if opts.eof != "" {
		if _, err := config.ParseEOFPolicy(opts.eof); err != nil {
			return err
		}
		cfg.Interpreter.EOF = opts.eof
	}
	if opts.snapshot != "" {
		cfg.Snapshot.OnFault = opts.snapshot
	}
	return nil
}
