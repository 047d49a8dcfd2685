package machine

import (
	"fmt"
	"sort"
)

// Instruction executes one opcode against the context. It returns nil on
// success, ErrHalt to stop the interpreter, or a *Fault.
type Instruction func(c *Context) error

// Group is a named set of opcode registrations.
type Group struct {
	Name     string
	Register func(b *Builder)
}

var groups = map[string]Group{}

// RegisterGroup makes a group available to LookupGroup. Registering a name
// twice replaces the earlier group.
func RegisterGroup(g Group) {
	groups[g.Name] = g
}

// LookupGroup returns the registered group with the given name.
func LookupGroup(name string) (Group, bool) {
	g, ok := groups[name]
	return g, ok
}

// GroupNames returns the names of all registered groups, sorted.
func GroupNames() []string {
	names := make([]string, 0, len(groups))
	for name := range groups {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Builder assembles an InstructionSet. It starts empty.
type Builder struct {
	table   [256]Instruction
	applied []string
}

// NewBuilder creates an empty Builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// Insert binds op to ins, replacing any earlier binding.
func (b *Builder) Insert(op byte, ins Instruction) *Builder {
	b.table[op] = ins
	return b
}

// With applies groups in order. Later groups override opcodes bound by
// earlier ones.
func (b *Builder) With(gs ...Group) *Builder {
	for _, g := range gs {
		g.Register(b)
		b.applied = append(b.applied, g.Name)
	}
	return b
}

// WithNamed applies registered groups by name.
func (b *Builder) WithNamed(names ...string) (*Builder, error) {
	for _, name := range names {
		g, ok := LookupGroup(name)
		if !ok {
			return b, fmt.Errorf("unknown instruction group %q", name)
		}
		b.With(g)
	}
	return b, nil
}

// Build freezes the current bindings. The Builder may keep being used; the
// returned set does not change.
func (b *Builder) Build() *InstructionSet {
	return &InstructionSet{
		table:  b.table,
		groups: append([]string(nil), b.applied...),
	}
}

// InstructionSet maps opcode bytes to instructions. It is immutable.
type InstructionSet struct {
	table  [256]Instruction
	groups []string
}

// Get returns the instruction bound to op.
func (s *InstructionSet) Get(op byte) (Instruction, bool) {
	ins := s.table[op]
	return ins, ins != nil
}

// Opcodes returns the bound opcodes in ascending order.
func (s *InstructionSet) Opcodes() []byte {
	var ops []byte
	for op, ins := range s.table {
		if ins != nil {
			ops = append(ops, byte(op))
		}
	}
	return ops
}

// Groups returns the names of the groups applied to build the set.
func (s *InstructionSet) Groups() []string {
	return append([]string(nil), s.groups...)
}

// DefaultInstructionSet returns the base and arithmetic groups.
func DefaultInstructionSet() *InstructionSet {
	return NewBuilder().With(BaseGroup, ArithmeticGroup).Build()
}
