// Package cli implements the ev3c command line.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"ev3c/pkg/diag"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// Version is the compiler version. Release builds override it with
// -ldflags "-X ev3c/pkg/cli.Version=...".
var Version = "0.1.0"

const defaultLogLevel = "warn"

// NewRootCommand builds the ev3c command tree. Running ev3c with source
// files and no subcommand is the same as running ev3c build.
func NewRootCommand(stdout, stderr io.Writer) *cobra.Command {
	var logLevel string

	bo := &buildOptions{}
	root := &cobra.Command{
		Use:   "ev3c [options] FILE [FILE...]",
		Short: "Compile EV3 instruction source into .rbf bytecode",
		Long: `Compile EV3 instruction source into .rbf bytecode.

Each line holds one instruction, a mnemonic followed by comma separated
operands. Several files are assembled independently and combined into a
single object, include files first.`,
		Args:          cobra.ArbitraryArgs,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level, err := logrus.ParseLevel(logLevel)
			if err != nil {
				return &diag.Error{Kind: diag.ArgumentError, Text: logLevel, Msg: err.Error()}
			}
			logrus.SetOutput(stderr)
			logrus.SetLevel(level)
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return cmd.Help()
			}
			return runBuild(cmd, bo, args)
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.SetVersionTemplate("ev3c v{{.Version}}\n")
	root.PersistentFlags().StringVar(&logLevel, "log-level", defaultLogLevel, "Log messages above specified level (trace, debug, info, warn, error, fatal, panic)")
	addBuildFlags(root, bo)

	root.AddCommand(
		newBuildCommand(),
		newOpcodesCommand(),
		newVersionCommand(),
	)
	return root
}

// Execute runs the command line and exits non-zero on failure.
func Execute() {
	root := NewRootCommand(os.Stdout, os.Stderr)
	if err := root.ExecuteContext(context.Background()); err != nil {
		printError(os.Stderr, err)
		os.Exit(exitCode(err))
	}
}

// printError writes one line per diagnostic carried by err.
func printError(w io.Writer, err error) {
	all := diag.All(err)
	if len(all) == 0 {
		fmt.Fprintf(w, "Error: %v\n", err)
		return
	}
	for _, d := range all {
		fmt.Fprintf(w, "Error: %v\n", d)
	}
	if len(all) > 1 {
		fmt.Fprintf(w, "%d errors\n", len(all))
	}
}

// exitCode is 2 for bad arguments or files and 1 for anything else.
func exitCode(err error) int {
	var d *diag.Error
	if errors.As(err, &d) && (d.Kind == diag.ArgumentError || d.Kind == diag.FileError) {
		return 2
	}
	return 1
}
