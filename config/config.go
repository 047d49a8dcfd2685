// Package config handles chasement.toml interpreter configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/chazu/chasement/pkg/machine"
)

// FileName is the configuration file looked up by FindAndLoad.
const FileName = "chasement.toml"

// Config represents a chasement.toml file.
type Config struct {
	Interpreter Interpreter `toml:"interpreter"`
	Log         Log         `toml:"log"`
	Snapshot    Snapshot    `toml:"snapshot"`

	// Path is the file the configuration was read from (set at load time).
	Path string `toml:"-"`
}

// Interpreter configures the instruction set and run limits.
type Interpreter struct {
	Groups   []string `toml:"groups"`
	EOF      string   `toml:"eof"`
	MaxSteps uint64   `toml:"max-steps"`
	Trace    bool     `toml:"trace"`
}

// Log configures commonlog output.
type Log struct {
	Verbosity int    `toml:"verbosity"`
	File      string `toml:"file"`
}

// Snapshot configures state dumps.
type Snapshot struct {
	OnFault string `toml:"on-fault"`
}

// Default returns the configuration used when no file is found.
func Default() *Config {
	c := &Config{Log: Log{Verbosity: defaultVerbosity}}
	c.applyDefaults()
	return c
}

// LoadFile parses the configuration file at path.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	c := &Config{Log: Log{Verbosity: defaultVerbosity}}
	if err := toml.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}

	c.Path, err = filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", path, err)
	}

	c.applyDefaults()
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// Load parses chasement.toml from the given directory.
func Load(dir string) (*Config, error) {
	return LoadFile(filepath.Join(dir, FileName))
}

// FindAndLoad walks up from startDir to find a chasement.toml file,
// then loads and returns it. Returns nil if no file is found.
func FindAndLoad(startDir string) (*Config, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, err
	}

	for {
		path := filepath.Join(dir, FileName)
		if _, err := os.Stat(path); err == nil {
			return LoadFile(path)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached root
			return nil, nil
		}
		dir = parent
	}
}

const defaultVerbosity = -1

func (c *Config) applyDefaults() {
	if len(c.Interpreter.Groups) == 0 {
		c.Interpreter.Groups = []string{machine.BaseGroup.Name, machine.ArithmeticGroup.Name}
	}
	if c.Interpreter.EOF == "" {
		c.Interpreter.EOF = "zero"
	}
}

// Validate checks group names and the EOF policy.
func (c *Config) Validate() error {
	for _, name := range c.Interpreter.Groups {
		if _, ok := machine.LookupGroup(name); !ok {
			return fmt.Errorf("unknown instruction group %q (known: %v)", name, machine.GroupNames())
		}
	}
	if _, err := ParseEOFPolicy(c.Interpreter.EOF); err != nil {
		return err
	}
	return nil
}

// ParseEOFPolicy converts "zero" or "fault" to a machine.EOFPolicy.
func ParseEOFPolicy(s string) (machine.EOFPolicy, error) {
	switch s {
	case "zero", "":
		return machine.EOFZero, nil
	case "fault":
		return machine.EOFFault, nil
	default:
		return 0, fmt.Errorf("invalid eof policy %q, want zero or fault", s)
	}
}

// InstructionSet builds the configured instruction set.
func (c *Config) InstructionSet() (*machine.InstructionSet, error) {
	b, err := machine.NewBuilder().WithNamed(c.Interpreter.Groups...)
	if err != nil {
		return nil, err
	}
	return b.Build(), nil
}

// MachineOptions converts the interpreter section to machine options.
func (c *Config) MachineOptions() ([]machine.Option, error) {
	eof, err := ParseEOFPolicy(c.Interpreter.EOF)
	if err != nil {
		return nil, err
	}
	return []machine.Option{
		machine.WithEOFPolicy(eof),
		machine.WithMaxSteps(c.Interpreter.MaxSteps),
		machine.WithTrace(c.Interpreter.Trace),
	}, nil
}

// LogFile returns the log path for commonlog.Configure, nil for stderr.
func (c *Config) LogFile() *string {
	if c.Log.File == "" {
		return nil
	}
	path := c.Log.File
	if c.Path != "" && !filepath.IsAbs(path) {
		path = filepath.Join(filepath.Dir(c.Path), path)
	}
	return &path
}
