// Package scanner provides cursor and lookahead primitives over raw
// source bytes.
package scanner

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrOutOfBounds is returned when a read reaches past the end of the buffer.
var ErrOutOfBounds = errors.New("read past end of input")

// Position locates a byte in the source. Line and Column are 1-based.
type Position struct {
	Offset int
	Line   int
	Column int
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// Scanner walks an immutable byte buffer. The zero byte acts as an end of
// input sentinel: IsEOF reports true on it even when more bytes follow.
type Scanner struct {
	buf    []byte
	cursor int
	line   int
	col    int
}

// New wraps buf with the cursor at its first byte.
func New(buf []byte) *Scanner {
	return &Scanner{buf: buf, line: 1, col: 1}
}

// Consume returns the byte under the cursor and advances past it.
func (s *Scanner) Consume() (byte, error) {
	if s.cursor >= len(s.buf) {
		return 0, errors.Wrapf(ErrOutOfBounds, "consume at offset %d", s.cursor)
	}
	b := s.buf[s.cursor]
	s.cursor++
	if b == '\n' {
		s.line++
		s.col = 1
	} else {
		s.col++
	}
	return b, nil
}

// Peek returns the byte under the cursor without advancing.
func (s *Scanner) Peek() (byte, error) {
	return s.LookAhead(0)
}

// LookAhead returns the byte n positions past the cursor without advancing.
func (s *Scanner) LookAhead(n int) (byte, error) {
	idx := s.cursor + n
	if n < 0 || idx >= len(s.buf) {
		return 0, errors.Wrapf(ErrOutOfBounds, "look ahead %d at offset %d", n, s.cursor)
	}
	return s.buf[idx], nil
}

// IsEOF reports whether scanning is finished.
func (s *Scanner) IsEOF() bool {
	return s.cursor+1 > len(s.buf) || s.buf[s.cursor] == 0
}

// Pos returns the position of the byte under the cursor.
func (s *Scanner) Pos() Position {
	return Position{Offset: s.cursor, Line: s.line, Column: s.col}
}

// Len returns the length of the underlying buffer.
func (s *Scanner) Len() int {
	return len(s.buf)
}
