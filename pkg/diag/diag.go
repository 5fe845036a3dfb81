// Package diag defines the diagnostics reported by the ev3c toolchain.
package diag

import (
	"fmt"

	"ev3c/pkg/scanner"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
)

// Kind classifies a diagnostic.
type Kind int

const (
	LexError Kind = iota
	SyntaxError
	UnknownMnemonic
	OperandCountMismatch
	OperandTypeMismatch
	UnresolvedLabel
	DuplicateLabel
	ArgumentError
	FileError
)

var kindNames = map[Kind]string{
	LexError:             "LexError",
	SyntaxError:          "SyntaxError",
	UnknownMnemonic:      "UnknownMnemonic",
	OperandCountMismatch: "OperandCountMismatch",
	OperandTypeMismatch:  "OperandTypeMismatch",
	UnresolvedLabel:      "UnresolvedLabel",
	DuplicateLabel:       "DuplicateLabel",
	ArgumentError:        "ArgumentError",
	FileError:            "FileError",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Error is a single diagnostic. Text holds the offending source text
// exactly as written.
type Error struct {
	Kind Kind
	Text string
	Pos  scanner.Position
	File string
	Msg  string
}

func (e *Error) Error() string {
	loc := e.File
	if e.Pos.Line > 0 {
		if loc != "" {
			loc += ":"
		}
		loc += e.Pos.String()
	}
	if loc == "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
	}
	return fmt.Sprintf("%s: %s: %s", loc, e.Kind, e.Msg)
}

// Errorf builds a diagnostic at pos.
func Errorf(kind Kind, text string, pos scanner.Position, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Text: text, Pos: pos, Msg: fmt.Sprintf(format, args...)}
}

// All flattens err into the diagnostics it carries, looking through
// wrapping and multierror groups.
func All(err error) []*Error {
	if err == nil {
		return nil
	}
	var merr *multierror.Error
	if errors.As(err, &merr) {
		var out []*Error
		for _, e := range merr.Errors {
			out = append(out, All(e)...)
		}
		return out
	}
	var d *Error
	if errors.As(err, &d) {
		return []*Error{d}
	}
	return nil
}

// IsKind reports whether err carries a diagnostic of the given kind.
func IsKind(err error, kind Kind) bool {
	for _, d := range All(err) {
		if d.Kind == kind {
			return true
		}
	}
	return false
}

// WithFile stamps every diagnostic inside err with the source file name.
func WithFile(err error, file string) error {
	for _, d := range All(err) {
		if d.File == "" {
			d.File = file
		}
	}
	return err
}
