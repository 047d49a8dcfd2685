// Package machine implements the chasement interpreter: a stack machine
// whose programs are raw byte sequences and whose every byte is an opcode.
//
// There is no compilation step. The interpreter fetches the byte at the
// program counter, looks it up in an InstructionSet, runs the bound
// Instruction against the Context and then advances the program counter by
// one. Execution completes when the program counter leaves the program.
//
// # Architecture Overview
//
//   - Program / Storage: the immutable byte sequence being executed, with a
//     bounds-checked and an unchecked opcode lookup.
//
//   - Value: the five value kinds a program manipulates (Int, Bool, Char,
//     Str, Float).
//
//   - Context: the main stack, the auxiliary stack and the program counter.
//     Every instruction is written against the Context API alone.
//
//   - InstructionSet: a frozen, direct-indexed table from opcode byte to
//     Instruction, produced by a Builder from named registration groups
//     (BaseGroup, ArithmeticGroup). Groups are the extension point for new
//     opcode families.
//
//   - Interpreter: the fetch/dispatch/advance loop. It reports how a run
//     ended (Completed or Halted) and turns instruction failures into a
//     *Fault carrying opcode, address and reason.
//
// # Program Counter Arithmetic
//
// The loop increments the program counter after every instruction, jumps
// included. Instructions that move the counter therefore leave it one byte
// before the place execution should resume. A jump to address 0 sets the
// counter to the maximum Address and relies on the wrapping increment to
// come back to 0, so all counter arithmetic goes through Address.Next and
// Address.Prev.
//
// # Bracket Matching
//
// ']' scans backward counting bracket depth until it meets the '[' that
// opened the innermost enclosing pair, and '(' scans forward to its
// balancing ')'. Both fault with UnbalancedBracket when they run off the
// program.
package machine
