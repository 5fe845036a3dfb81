// Package disasm decodes EV3 bytecode back into assembler text.
package disasm

import (
	"fmt"
	"strings"

	"ev3c/pkg/opcodes"

	"github.com/pkg/errors"
)

// Line is one decoded instruction.
type Line struct {
	Offset   int
	Entry    opcodes.Entry
	Operands []uint32
	Raw      []byte
}

// String renders the instruction as source the assembler accepts. Label
// operands come out as absolute offsets.
func (l Line) String() string {
	if len(l.Operands) == 0 {
		return l.Entry.Mnemonic
	}
	parts := make([]string, len(l.Operands))
	for i, v := range l.Operands {
		switch l.Entry.Operands[i] {
		case opcodes.Register:
			parts[i] = fmt.Sprintf("r%d", v)
		case opcodes.ImmU8:
			parts[i] = fmt.Sprintf("%d", v)
		default:
			parts[i] = fmt.Sprintf("0x%04X", v)
		}
	}
	return l.Entry.Mnemonic + " " + strings.Join(parts, ", ")
}

// Disassemble decodes code from offset 0 to the end. When several entries
// share an opcode the first registered one that fits the remaining bytes
// is used.
func Disassemble(table *opcodes.Table, code []byte) ([]Line, error) {
	var lines []Line
	pc := 0
	for pc < len(code) {
		op := code[pc]
		candidates := table.ByOpcode(op)
		if len(candidates) == 0 {
			return lines, errors.Errorf("unknown opcode 0x%02X at offset 0x%04X", op, pc)
		}

		var entry opcodes.Entry
		found := false
		for _, c := range candidates {
			if pc+c.Size() <= len(code) {
				entry, found = c, true
				break
			}
		}
		if !found {
			return lines, errors.Errorf("truncated %s instruction at offset 0x%04X", candidates[0].Mnemonic, pc)
		}

		line := Line{Offset: pc, Entry: entry, Raw: code[pc : pc+entry.Size()]}
		at := pc + 1
		for _, k := range entry.Operands {
			var v uint32
			if k.Width() == 2 {
				v = uint32(code[at]) | uint32(code[at+1])<<8
			} else {
				v = uint32(code[at])
			}
			line.Operands = append(line.Operands, v)
			at += k.Width()
		}
		lines = append(lines, line)
		pc = at
	}
	return lines, nil
}

// Source renders lines as one instruction per line.
func Source(lines []Line) string {
	var sb strings.Builder
	for _, l := range lines {
		sb.WriteString(l.String())
		sb.WriteByte('\n')
	}
	return sb.String()
}
