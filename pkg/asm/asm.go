// Package asm turns instruction source into EV3 bytecode.
//
// Assembly runs in two passes. Pass one lexes every line, encodes each
// instruction with a zero placeholder for label operands and records the
// byte offset of every label. Pass two rewrites the placeholders by
// instruction index once all labels are known.
package asm

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"ev3c/pkg/diag"
	"ev3c/pkg/lexer"
	"ev3c/pkg/opcodes"
	"ev3c/pkg/output"
	"ev3c/pkg/scanner"

	"github.com/hashicorp/go-multierror"
	"github.com/sirupsen/logrus"
)

// Options control how an Assembler reports problems. They never change
// the bytes produced for a given instruction.
type Options struct {
	// KeepGoing makes the assembler skip a failing line and continue so
	// that every diagnostic in the source is reported together.
	KeepGoing bool
	// Warnings enables non-fatal diagnostics such as unused labels.
	Warnings bool
}

// Instruction is one assembled statement.
type Instruction struct {
	Entry    opcodes.Entry
	Operands []Operand
	Offset   int
	Line     int
	Pos      scanner.Position
	Encoded  []byte
}

// Operand is a resolved operand value. Label is set for label references.
type Operand struct {
	Kind  opcodes.OperandKind
	Value uint32
	Label string
	Text  string
	Pos   scanner.Position
}

type labelDef struct {
	name   string
	offset int
	pos    scanner.Position
	used   bool
}

// fixup marks a label placeholder: bytes at..at+1 of instrs[instr].Encoded.
type fixup struct {
	instr   int
	operand int
	at      int
	label   string
	pos     scanner.Position
}

// Assembler encodes source against an opcode table. The table is only read.
// An Assembler is not safe for concurrent use; create one per goroutine.
type Assembler struct {
	table *opcodes.Table
	opts  Options

	instrs []Instruction
	labels map[string]*labelDef
	fixups []fixup
	offset int
	errs   *multierror.Error
}

// New creates an assembler bound to table.
func New(table *opcodes.Table, opts Options) *Assembler {
	return &Assembler{table: table, opts: opts}
}

// Assemble encodes src with a fail-fast assembler.
func Assemble(table *opcodes.Table, src []byte) (*output.Program, error) {
	return New(table, Options{}).Assemble(src)
}

// Assemble encodes src. On failure no program is returned.
func (a *Assembler) Assemble(src []byte) (*output.Program, error) {
	a.reset()

	if err := a.pass1(src); err != nil {
		return nil, err
	}
	if err := a.pass2(); err != nil {
		return nil, err
	}
	if err := a.errs.ErrorOrNil(); err != nil {
		return nil, err
	}

	prog := a.build()
	logrus.Debugf("assembled %d instructions into %d bytes", len(a.instrs), prog.Len())
	return prog, nil
}

// Instructions returns the instructions from the last successful run.
func (a *Assembler) Instructions() []Instruction {
	return a.instrs
}

func (a *Assembler) reset() {
	a.instrs = nil
	a.labels = make(map[string]*labelDef)
	a.fixups = nil
	a.offset = 0
	a.errs = nil
}

// fail records err. It returns err when the assembler should stop now and
// nil when it should carry on with the next line.
func (a *Assembler) fail(err error) error {
	if !a.opts.KeepGoing {
		return err
	}
	a.errs = multierror.Append(a.errs, err)
	return nil
}

func (a *Assembler) pass1(src []byte) error {
	l := lexer.New(src)
	for {
		tokens, last, err := readLine(l)
		if err != nil {
			if err := a.fail(err); err != nil {
				return err
			}
		} else if err := a.statement(tokens); err != nil {
			if err := a.fail(err); err != nil {
				return err
			}
		}
		if last {
			return nil
		}
	}
}

// readLine collects the tokens of one logical line without its terminator.
// After a lex error the rest of the line is discarded.
func readLine(l *lexer.Lexer) ([]lexer.Token, bool, error) {
	var tokens []lexer.Token
	var firstErr error
	for {
		tok, err := l.Next()
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		switch tok.Kind {
		case lexer.EOF:
			return tokens, true, firstErr
		case lexer.NEWLINE:
			return tokens, false, firstErr
		}
		tokens = append(tokens, tok)
	}
}

func (a *Assembler) statement(tokens []lexer.Token) error {
	for len(tokens) >= 2 && tokens[1].Kind == lexer.COLON {
		name := tokens[0]
		if name.Kind != lexer.IDENTIFIER && name.Kind != lexer.MNEMONIC {
			return diag.Errorf(diag.SyntaxError, name.Lexeme, name.Pos, "invalid label %q", name.Lexeme)
		}
		if prev, exists := a.labels[name.Lexeme]; exists {
			return diag.Errorf(diag.DuplicateLabel, name.Lexeme, name.Pos, "label %q already defined at %s", name.Lexeme, prev.pos)
		}
		a.labels[name.Lexeme] = &labelDef{name: name.Lexeme, offset: a.offset, pos: name.Pos}
		tokens = tokens[2:]
	}
	if len(tokens) == 0 {
		return nil
	}

	mn := tokens[0]
	if mn.Kind != lexer.MNEMONIC {
		return diag.Errorf(diag.SyntaxError, mn.Lexeme, mn.Pos, "expected mnemonic, found %s %q", mn.Kind, mn.Lexeme)
	}
	entry, ok := a.table.Lookup(mn.Lexeme)
	if !ok {
		return diag.Errorf(diag.UnknownMnemonic, mn.Lexeme, mn.Pos, "unknown mnemonic %q", mn.Lexeme)
	}

	groups := splitOperands(tokens[1:])
	if len(groups) != len(entry.Operands) {
		return diag.Errorf(diag.OperandCountMismatch, mn.Lexeme, mn.Pos,
			"%s expects %d operands, got %d", mn.Lexeme, len(entry.Operands), len(groups))
	}

	instr := Instruction{
		Entry:   entry,
		Offset:  a.offset,
		Line:    mn.Pos.Line,
		Pos:     mn.Pos,
		Encoded: make([]byte, 0, entry.Size()),
	}
	instr.Encoded = append(instr.Encoded, entry.Opcode)

	var fixups []fixup
	for i, kind := range entry.Operands {
		op, err := parseOperand(kind, groups[i], mn)
		if err != nil {
			return err
		}
		if op.Label != "" {
			fixups = append(fixups, fixup{
				instr:   len(a.instrs),
				operand: i,
				at:      len(instr.Encoded),
				label:   op.Label,
				pos:     op.Pos,
			})
		}
		instr.Operands = append(instr.Operands, op)
		instr.Encoded = encodeOperand(instr.Encoded, kind, op.Value)
	}

	a.fixups = append(a.fixups, fixups...)
	a.instrs = append(a.instrs, instr)
	a.offset += len(instr.Encoded)
	return nil
}

// splitOperands splits the tokens after a mnemonic on commas. An empty
// list yields no groups; otherwise there is one group per comma plus one.
func splitOperands(tokens []lexer.Token) [][]lexer.Token {
	if len(tokens) == 0 {
		return nil
	}
	groups := [][]lexer.Token{nil}
	for _, tok := range tokens {
		if tok.Kind == lexer.COMMA {
			groups = append(groups, nil)
			continue
		}
		groups[len(groups)-1] = append(groups[len(groups)-1], tok)
	}
	return groups
}

func parseOperand(kind opcodes.OperandKind, group []lexer.Token, mn lexer.Token) (Operand, error) {
	if len(group) != 1 {
		text, pos := groupText(group, mn)
		return Operand{}, diag.Errorf(diag.OperandTypeMismatch, text, pos,
			"%s: malformed %s operand %q", mn.Lexeme, kind, text)
	}
	tok := group[0]
	op := Operand{Kind: kind, Text: tok.Lexeme, Pos: tok.Pos}

	mismatch := func(format string, args ...interface{}) (Operand, error) {
		return Operand{}, diag.Errorf(diag.OperandTypeMismatch, tok.Lexeme, tok.Pos,
			"%s: %s", mn.Lexeme, fmt.Sprintf(format, args...))
	}

	switch kind {
	case opcodes.Register:
		reg, ok := parseRegister(tok)
		if !ok {
			return mismatch("expected register r0-r%d, found %q", opcodes.NumRegisters-1, tok.Lexeme)
		}
		op.Value = uint32(reg)
	case opcodes.ImmU8, opcodes.ImmU16:
		if tok.Kind != lexer.NUMBER {
			return mismatch("expected %s immediate, found %q", kind, tok.Lexeme)
		}
		if tok.Width > kind.Width() {
			return mismatch("immediate %s does not fit in %s", tok.Lexeme, kind)
		}
		op.Value = tok.Value
	case opcodes.LabelRef:
		switch {
		case tok.Kind == lexer.NUMBER:
			if tok.Width > kind.Width() {
				return mismatch("address %s does not fit in 16 bits", tok.Lexeme)
			}
			op.Value = tok.Value
		case tok.Kind == lexer.IDENTIFIER:
			if _, isReg := parseRegister(tok); isReg {
				return mismatch("expected label, found register %q", tok.Lexeme)
			}
			op.Label = tok.Lexeme
		default:
			return mismatch("expected label, found %q", tok.Lexeme)
		}
	}
	return op, nil
}

func groupText(group []lexer.Token, mn lexer.Token) (string, scanner.Position) {
	if len(group) == 0 {
		return "", mn.Pos
	}
	parts := make([]string, len(group))
	for i, tok := range group {
		parts[i] = tok.Lexeme
	}
	return strings.Join(parts, " "), group[0].Pos
}

// parseRegister accepts r0 through r31 without leading zeros.
func parseRegister(tok lexer.Token) (byte, bool) {
	if tok.Kind != lexer.IDENTIFIER || len(tok.Lexeme) < 2 || tok.Lexeme[0] != 'r' {
		return 0, false
	}
	digits := tok.Lexeme[1:]
	if len(digits) > 1 && digits[0] == '0' {
		return 0, false
	}
	n, err := strconv.Atoi(digits)
	if err != nil || n < 0 || n >= opcodes.NumRegisters {
		return 0, false
	}
	return byte(n), true
}

func encodeOperand(buf []byte, kind opcodes.OperandKind, v uint32) []byte {
	if kind.Width() == 2 {
		return append(buf, byte(v&0xFF), byte(v>>8))
	}
	return append(buf, byte(v))
}

func (a *Assembler) pass2() error {
	for _, f := range a.fixups {
		def, ok := a.labels[f.label]
		if !ok {
			err := diag.Errorf(diag.UnresolvedLabel, f.label, f.pos, "undefined label %q", f.label)
			if err := a.fail(err); err != nil {
				return err
			}
			continue
		}
		def.used = true
		if def.offset > 0xFFFF {
			err := diag.Errorf(diag.OperandTypeMismatch, f.label, f.pos,
				"label %q at offset 0x%X does not fit in 16 bits", f.label, def.offset)
			if err := a.fail(err); err != nil {
				return err
			}
			continue
		}
		instr := &a.instrs[f.instr]
		instr.Encoded[f.at] = byte(def.offset & 0xFF)
		instr.Encoded[f.at+1] = byte(def.offset >> 8)
		instr.Operands[f.operand].Value = uint32(def.offset)
	}
	return nil
}

func (a *Assembler) build() *output.Program {
	b := output.NewBuilder()
	for _, instr := range a.instrs {
		b.Append(instr.Encoded, instr.Line)
	}

	defs := make([]*labelDef, 0, len(a.labels))
	for _, def := range a.labels {
		b.Label(def.name, def.offset)
		defs = append(defs, def)
	}
	if a.opts.Warnings {
		sort.Slice(defs, func(i, j int) bool { return defs[i].pos.Offset < defs[j].pos.Offset })
		for _, def := range defs {
			var msg string
			switch {
			case !def.used:
				msg = fmt.Sprintf("%s: label %q is never referenced", def.pos, def.name)
			case def.offset == a.offset:
				msg = fmt.Sprintf("%s: label %q points past the last instruction", def.pos, def.name)
			default:
				continue
			}
			logrus.Warn(msg)
			b.Warn(msg)
		}
	}
	return b.Build()
}
