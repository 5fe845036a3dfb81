package lexer

import (
	"fmt"

	"ev3c/pkg/scanner"
)

// Kind identifies the category of a lexed token.
type Kind int

const (
	EOF Kind = iota // end of input

	MNEMONIC   // first word of a line
	IDENTIFIER // register, label name or label reference
	NUMBER     // decimal or hex integer literal

	COMMA   // ,
	COLON   // :
	NEWLINE // \n, ends an instruction
)

var kindNames = [...]string{
	EOF:        "EOF",
	MNEMONIC:   "MNEMONIC",
	IDENTIFIER: "IDENTIFIER",
	NUMBER:     "NUMBER",
	COMMA:      "COMMA",
	COLON:      "COLON",
	NEWLINE:    "NEWLINE",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Token is one lexical unit. Value and Width are only meaningful for NUMBER;
// Width is the smallest of 1, 2 or 4 bytes that holds Value.
type Token struct {
	Kind   Kind
	Lexeme string
	Value  uint32
	Width  int
	Pos    scanner.Position
}

func (t Token) String() string {
	switch t.Kind {
	case NUMBER:
		return fmt.Sprintf("%s %s %s (%d, width %d)", t.Pos, t.Kind, t.Lexeme, t.Value, t.Width)
	case MNEMONIC, IDENTIFIER:
		return fmt.Sprintf("%s %s %q", t.Pos, t.Kind, t.Lexeme)
	}
	return fmt.Sprintf("%s %s", t.Pos, t.Kind)
}

func widthOf(v uint32) int {
	switch {
	case v <= 0xFF:
		return 1
	case v <= 0xFFFF:
		return 2
	}
	return 4
}
