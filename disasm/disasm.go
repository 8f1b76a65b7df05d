// Package disasm pretty-prints a chunk's instructions, backing both the
// `-d` flag's post-compile listing and its per-step execution trace (spec
// §2 "Disassembler" component, §6 CLI). It only ever reads a
// *bytecode.Chunk — it never drives execution.
package disasm

import (
	"fmt"
	"io"

	"ncc/bytecode"
)

// Instruction formats the single instruction at offset and returns the
// offset of the instruction that follows it.
func Instruction(c *bytecode.Chunk, offset int) (string, int) {
	if offset < 0 || offset >= len(c.Code) {
		return fmt.Sprintf("%04d <out of range>", offset), offset + 1
	}

	op := bytecode.Opcode(c.Code[offset])
	line := c.Lines[offset]

	switch op.OperandBytes() {
	case 2:
		operand := c.ReadUint16(offset + 1)
		text := fmt.Sprintf("%04d %4d %-16s %5d", offset, line, op, operand)
		if isConstOp(op) && int(operand) < len(c.Constants) {
			text += fmt.Sprintf("  ; %s", c.Constants[operand].Render())
		}
		return text, offset + 3
	case 1:
		operand := c.Code[offset+1]
		return fmt.Sprintf("%04d %4d %-16s %5d", offset, line, op, operand), offset + 2
	default:
		return fmt.Sprintf("%04d %4d %-16s", offset, line, op), offset + 1
	}
}

func isConstOp(op bytecode.Opcode) bool {
	switch op {
	case bytecode.OpIntC, bytecode.OpCharC, bytecode.OpDoubleC, bytecode.OpStringC:
		return true
	default:
		return false
	}
}

// Chunk writes every instruction of c to w, one per line, prefixed with
// name as a header — the `-d` flag's post-compile listing.
func Chunk(w io.Writer, c *bytecode.Chunk, name string) {
	fmt.Fprintf(w, "== %s ==\n", name)
	for offset := 0; offset < len(c.Code); {
		text, next := Instruction(c, offset)
		fmt.Fprintln(w, text)
		offset = next
	}
}
