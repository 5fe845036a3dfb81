// Package opcodes holds the mnemonic to opcode registry used by the
// assembler and disassembler.
package opcodes

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// OperandKind is the shape of one operand slot.
type OperandKind int

const (
	Register OperandKind = iota
	ImmU8
	ImmU16
	LabelRef
)

func (k OperandKind) String() string {
	switch k {
	case Register:
		return "reg"
	case ImmU8:
		return "u8"
	case ImmU16:
		return "u16"
	case LabelRef:
		return "label"
	}
	return fmt.Sprintf("OperandKind(%d)", int(k))
}

// Width returns the encoded size of the operand in bytes.
func (k OperandKind) Width() int {
	switch k {
	case ImmU16, LabelRef:
		return 2
	}
	return 1
}

// Entry describes one instruction.
type Entry struct {
	Mnemonic string
	Opcode   byte
	Operands []OperandKind
}

// Size returns the encoded length: the opcode byte plus every operand.
func (e Entry) Size() int {
	n := 1
	for _, k := range e.Operands {
		n += k.Width()
	}
	return n
}

// Signature renders the entry the way it is written in source, e.g.
// "jr_true reg, label".
func (e Entry) Signature() string {
	if len(e.Operands) == 0 {
		return e.Mnemonic
	}
	parts := make([]string, len(e.Operands))
	for i, k := range e.Operands {
		parts[i] = k.String()
	}
	return e.Mnemonic + " " + strings.Join(parts, ", ")
}

func (e Entry) sameShape(o Entry) bool {
	if len(e.Operands) != len(o.Operands) {
		return false
	}
	for i := range e.Operands {
		if e.Operands[i] != o.Operands[i] {
			return false
		}
	}
	return true
}

// Table maps mnemonics to entries. It is immutable once built and safe to
// share between goroutines.
type Table struct {
	byMnemonic map[string]Entry
	byOpcode   map[byte][]Entry
}

// NewTable validates entries and builds a table from them. Two entries may
// share an opcode only when their operand shapes differ.
func NewTable(entries ...Entry) (*Table, error) {
	t := &Table{
		byMnemonic: make(map[string]Entry, len(entries)),
		byOpcode:   make(map[byte][]Entry),
	}
	for _, e := range entries {
		if e.Mnemonic == "" {
			return nil, errors.Errorf("entry for opcode 0x%02X has no mnemonic", e.Opcode)
		}
		if _, exists := t.byMnemonic[e.Mnemonic]; exists {
			return nil, errors.Errorf("duplicate mnemonic %q", e.Mnemonic)
		}
		for _, other := range t.byOpcode[e.Opcode] {
			if other.sameShape(e) {
				return nil, errors.Errorf("mnemonics %q and %q share opcode 0x%02X with the same operands", other.Mnemonic, e.Mnemonic, e.Opcode)
			}
		}
		e.Operands = append([]OperandKind(nil), e.Operands...)
		t.byMnemonic[e.Mnemonic] = e
		t.byOpcode[e.Opcode] = append(t.byOpcode[e.Opcode], e)
	}
	return t, nil
}

// EV3 builds the EV3 instruction set table.
func EV3() *Table {
	t, err := NewTable(ev3Entries()...)
	if err != nil {
		panic(fmt.Sprintf("invalid EV3 opcode table: %v", err))
	}
	return t
}

// Lookup finds the entry for mnemonic. Matching is exact and case-sensitive.
func (t *Table) Lookup(mnemonic string) (Entry, bool) {
	e, ok := t.byMnemonic[mnemonic]
	return e, ok
}

// ByOpcode returns every entry encoded with op, in registration order.
func (t *Table) ByOpcode(op byte) []Entry {
	return append([]Entry(nil), t.byOpcode[op]...)
}

// Len returns the number of mnemonics in the table.
func (t *Table) Len() int {
	return len(t.byMnemonic)
}

// Entries returns all entries ordered by opcode, then mnemonic.
func (t *Table) Entries() []Entry {
	out := make([]Entry, 0, len(t.byMnemonic))
	for _, e := range t.byMnemonic {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Opcode != out[j].Opcode {
			return out[i].Opcode < out[j].Opcode
		}
		return out[i].Mnemonic < out[j].Mnemonic
	})
	return out
}
