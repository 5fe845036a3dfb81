// Command ev3dump prints every stage of the assembler for one source file,
// or disassembles an existing .rbf object.
package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"ev3c/pkg/asm"
	"ev3c/pkg/disasm"
	"ev3c/pkg/lexer"
	"ev3c/pkg/opcodes"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

const testSource = `start:
  program_start 1, main
main:
  init_bytes r0, 10
loop:
  sub8 r0, r1, r0
  jr_true r0, loop
  program_stop 1
`

func main() {
	if err := newCommand(os.Stdout).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newCommand(out io.Writer) *cobra.Command {
	var object bool
	cmd := &cobra.Command{
		Use:           "ev3dump [FILE]",
		Short:         "Show tokens, instructions and the byte listing of a source file",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			src := []byte(testSource)
			if len(args) == 1 {
				data, err := os.ReadFile(args[0])
				if err != nil {
					return errors.Wrap(err, "read error")
				}
				src = data
				if strings.EqualFold(filepath.Ext(args[0]), ".rbf") {
					object = true
				}
			}
			if object {
				return dumpObject(out, src)
			}
			return dumpSource(out, src)
		},
	}
	cmd.SetOut(out)
	cmd.Flags().BoolVar(&object, "object", false, "Treat the input as an assembled object")
	return cmd
}

func dumpSource(w io.Writer, src []byte) error {
	fmt.Fprintf(w, "Source:\n%s\n", src)

	tokens, err := lexer.Tokenize(src)
	if err != nil {
		return errors.Wrap(err, "lex error")
	}
	fmt.Fprintf(w, "Tokens (%d)\n", len(tokens))
	for _, tok := range tokens {
		fmt.Fprintln(w, " ", tok)
	}
	fmt.Fprintln(w)

	table := opcodes.EV3()
	a := asm.New(table, asm.Options{})
	prog, err := a.Assemble(src)
	if err != nil {
		return errors.Wrap(err, "assemble error")
	}
	fmt.Fprintln(w, "Instructions")
	for _, in := range a.Instructions() {
		fmt.Fprintf(w, "  0x%04X  line %-3d % X\t%s\n", in.Offset, in.Line, in.Encoded, in.Entry.Signature())
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "Labels (%d)\n", len(prog.Labels))
	names := make([]string, 0, len(prog.Labels))
	for name := range prog.Labels {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if prog.Labels[names[i]] != prog.Labels[names[j]] {
			return prog.Labels[names[i]] < prog.Labels[names[j]]
		}
		return names[i] < names[j]
	})
	for _, name := range names {
		fmt.Fprintf(w, "  0x%04X  %s\n", prog.Labels[name], name)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Listing")
	return dumpObject(w, prog.Bytes())
}

func dumpObject(w io.Writer, code []byte) error {
	lines, err := disasm.Disassemble(opcodes.EV3(), code)
	if err != nil {
		return errors.Wrap(err, "disassemble error")
	}
	for _, l := range lines {
		fmt.Fprintf(w, "  0x%04X  %-12X %s\n", l.Offset, l.Raw, l.String())
	}
	return nil
}
