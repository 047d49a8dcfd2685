package machine

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// SnapshotVersion is the current snapshot format version.
const SnapshotVersion uint16 = 1

// Snapshot is the serializable state of a Context: program counter and both
// stacks. The program itself is not included.
type Snapshot struct {
	Version uint16          `cbor:"1,keyasint"`
	RunID   string          `cbor:"2,keyasint,omitempty"`
	PC      uint64          `cbor:"3,keyasint"`
	Main    []SnapshotValue `cbor:"4,keyasint"`
	Aux     []SnapshotValue `cbor:"5,keyasint"`
	Fault   string          `cbor:"6,keyasint,omitempty"`
}

// SnapshotValue is one stack entry. Only the field matching Kind is set.
type SnapshotValue struct {
	Kind  Kind    `cbor:"1,keyasint"`
	Int   int64   `cbor:"2,keyasint,omitempty"`
	Bool  bool    `cbor:"3,keyasint,omitempty"`
	Char  rune    `cbor:"4,keyasint,omitempty"`
	Str   string  `cbor:"5,keyasint,omitempty"`
	Float float64 `cbor:"6,keyasint,omitempty"`
}

var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("machine: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

// Snapshot captures the context state. Stacks are stored bottom first.
func (c *Context) Snapshot() *Snapshot {
	return &Snapshot{
		Version: SnapshotVersion,
		PC:      uint64(c.pc),
		Main:    snapshotValues(c.stack),
		Aux:     snapshotValues(c.auxStack),
	}
}

// Restore replaces program counter and stacks with the snapshot contents.
func (c *Context) Restore(s *Snapshot) error {
	if s.Version != SnapshotVersion {
		return fmt.Errorf("machine: unsupported snapshot version %d", s.Version)
	}
	main, err := restoreValues(s.Main)
	if err != nil {
		return fmt.Errorf("machine: main stack: %w", err)
	}
	aux, err := restoreValues(s.Aux)
	if err != nil {
		return fmt.Errorf("machine: auxiliary stack: %w", err)
	}
	c.stack = main
	c.auxStack = aux
	c.pc = Address(s.PC)
	return nil
}

// MarshalSnapshot serializes a Snapshot to CBOR bytes.
func MarshalSnapshot(s *Snapshot) ([]byte, error) {
	return cborEncMode.Marshal(s)
}

// UnmarshalSnapshot deserializes a Snapshot from CBOR bytes.
func UnmarshalSnapshot(data []byte) (*Snapshot, error) {
	var s Snapshot
	if err := cbor.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("machine: unmarshal snapshot: %w", err)
	}
	return &s, nil
}

func snapshotValues(s valueStack) []SnapshotValue {
	out := make([]SnapshotValue, 0, len(s))
	for _, v := range s {
		out = append(out, snapshotValue(v))
	}
	return out
}

func snapshotValue(v Value) SnapshotValue {
	sv := SnapshotValue{Kind: v.Kind()}
	switch x := v.(type) {
	case Int:
		sv.Int = int64(x)
	case Bool:
		sv.Bool = bool(x)
	case Char:
		sv.Char = rune(x)
	case Str:
		sv.Str = string(x)
	case Float:
		sv.Float = float64(x)
	}
	return sv
}

func restoreValues(in []SnapshotValue) (valueStack, error) {
	out := make(valueStack, 0, len(in))
	for i, sv := range in {
		var v Value
		switch sv.Kind {
		case KindInt:
			v = Int(sv.Int)
		case KindBool:
			v = Bool(sv.Bool)
		case KindChar:
			v = Char(sv.Char)
		case KindStr:
			v = Str(sv.Str)
		case KindFloat:
			v = Float(sv.Float)
		default:
			return nil, fmt.Errorf("entry %d: unknown value kind %d", i, sv.Kind)
		}
		out = append(out, v)
	}
	return out, nil
}
