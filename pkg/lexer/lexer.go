// Package lexer groups source bytes into instruction tokens.
package lexer

import (
	"strconv"

	"ev3c/pkg/diag"
	"ev3c/pkg/scanner"
)

// Lexer produces tokens one at a time from a Scanner. It never backtracks;
// the only lookahead it uses is the scanner's.
type Lexer struct {
	s         *scanner.Scanner
	lineStart bool // next word is in mnemonic position
}

// New creates a lexer over src.
func New(src []byte) *Lexer {
	return &Lexer{s: scanner.New(src), lineStart: true}
}

// Tokenize lexes all of src. The returned slice always ends with EOF.
func Tokenize(src []byte) ([]Token, error) {
	l := New(src)
	var tokens []Token
	for {
		tok, err := l.Next()
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, tok)
		if tok.Kind == EOF {
			return tokens, nil
		}
	}
}

// Next returns the next token. On a lex error the offending bytes have been
// consumed, so the caller may keep calling Next to resume.
func (l *Lexer) Next() (Token, error) {
	l.skipBlanks()

	pos := l.s.Pos()
	if l.s.IsEOF() {
		return Token{Kind: EOF, Pos: pos}, nil
	}

	ch, err := l.s.Peek()
	if err != nil {
		return Token{Kind: EOF, Pos: pos}, nil
	}

	switch {
	case ch == '\n':
		l.s.Consume()
		l.lineStart = true
		return Token{Kind: NEWLINE, Lexeme: "\n", Pos: pos}, nil
	case ch == ',':
		l.s.Consume()
		l.lineStart = false
		return Token{Kind: COMMA, Lexeme: ",", Pos: pos}, nil
	case ch == ':':
		l.s.Consume()
		l.lineStart = true
		return Token{Kind: COLON, Lexeme: ":", Pos: pos}, nil
	case ch == ';':
		l.skipComment()
		return l.Next()
	case ch == '/' && l.lookAheadIs(1, '/'):
		l.skipComment()
		return l.Next()
	case isDigit(ch):
		l.lineStart = false
		return l.scanNumber()
	case isWordStart(ch):
		return l.scanWord(), nil
	}

	l.s.Consume()
	return Token{}, diag.Errorf(diag.LexError, string([]byte{ch}), pos, "unexpected byte 0x%02X (%q)", ch, ch)
}

func (l *Lexer) skipBlanks() {
	for !l.s.IsEOF() {
		ch, _ := l.s.Peek()
		if ch != ' ' && ch != '\t' && ch != '\r' {
			return
		}
		l.s.Consume()
	}
}

// skipComment discards everything up to, but not including, the line break.
func (l *Lexer) skipComment() {
	for !l.s.IsEOF() {
		ch, _ := l.s.Peek()
		if ch == '\n' {
			return
		}
		l.s.Consume()
	}
}

func (l *Lexer) lookAheadIs(n int, want byte) bool {
	b, err := l.s.LookAhead(n)
	return err == nil && b == want
}

func (l *Lexer) peekMatches(pred func(byte) bool) bool {
	if l.s.IsEOF() {
		return false
	}
	b, err := l.s.Peek()
	return err == nil && pred(b)
}

// scanWord collects a mnemonic or identifier. The first byte must still be
// under the cursor.
func (l *Lexer) scanWord() Token {
	pos := l.s.Pos()
	var text []byte
	for l.peekMatches(isWordByte) {
		b, _ := l.s.Consume()
		text = append(text, b)
	}

	kind := IDENTIFIER
	if l.lineStart && !l.peekMatches(func(b byte) bool { return b == ':' }) {
		kind = MNEMONIC
	}
	l.lineStart = false
	return Token{Kind: kind, Lexeme: string(text), Pos: pos}
}

// scanNumber collects a decimal or 0x-prefixed hex literal.
func (l *Lexer) scanNumber() (Token, error) {
	pos := l.s.Pos()
	base := 10
	var text []byte

	if l.lookAheadIs(0, '0') && (l.lookAheadIs(1, 'x') || l.lookAheadIs(1, 'X')) {
		b0, _ := l.s.Consume()
		b1, _ := l.s.Consume()
		text = append(text, b0, b1)
		base = 16
	}

	digit := isDigit
	if base == 16 {
		digit = isHexDigit
	}
	prefix := len(text)
	for l.peekMatches(digit) {
		b, _ := l.s.Consume()
		text = append(text, b)
	}

	if l.peekMatches(isWordByte) {
		for l.peekMatches(isWordByte) {
			b, _ := l.s.Consume()
			text = append(text, b)
		}
		return Token{}, diag.Errorf(diag.LexError, string(text), pos, "malformed number literal %q", text)
	}
	if len(text) == prefix {
		return Token{}, diag.Errorf(diag.LexError, string(text), pos, "hex literal %q has no digits", text)
	}

	v, err := strconv.ParseUint(string(text[prefix:]), base, 32)
	if err != nil {
		return Token{}, diag.Errorf(diag.LexError, string(text), pos, "number literal %q does not fit in 32 bits", text)
	}
	value := uint32(v)
	return Token{Kind: NUMBER, Lexeme: string(text), Value: value, Width: widthOf(value), Pos: pos}, nil
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

func isHexDigit(b byte) bool {
	return isDigit(b) || (b >= 'a' && b <= 'f') || (b >= 'A' && b <= 'F')
}

func isWordStart(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || b == '_'
}

func isWordByte(b byte) bool {
	return isWordStart(b) || isDigit(b)
}
