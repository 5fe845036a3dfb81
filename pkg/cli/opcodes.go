package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"ev3c/pkg/opcodes"

	"github.com/spf13/cobra"
)

func newOpcodesCommand() *cobra.Command {
	var noHeading bool
	cmd := &cobra.Command{
		Use:   "opcodes [options]",
		Short: "List the instructions the assembler accepts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			if !noHeading {
				fmt.Fprintln(w, "OPCODE\tMNEMONIC\tOPERANDS\tSIZE")
			}
			for _, e := range opcodes.EV3().Entries() {
				operands := make([]string, len(e.Operands))
				for i, k := range e.Operands {
					operands[i] = k.String()
				}
				fmt.Fprintf(w, "0x%02X\t%s\t%s\t%d\n", e.Opcode, e.Mnemonic, strings.Join(operands, ", "), e.Size())
			}
			return w.Flush()
		},
	}
	cmd.Flags().BoolVarP(&noHeading, "noheading", "n", false, "Do not print column headings")
	return cmd
}
