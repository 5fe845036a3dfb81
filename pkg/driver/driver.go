// Package driver runs the assembler over every input file and joins the
// results into one program.
package driver

import (
	"context"
	"os"
	"runtime"

	"ev3c/pkg/asm"
	"ev3c/pkg/diag"
	"ev3c/pkg/objfile"
	"ev3c/pkg/opcodes"
	"ev3c/pkg/options"
	"ev3c/pkg/output"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Compiler assembles source files against a single opcode table.
type Compiler struct {
	table *opcodes.Table
}

// New returns a compiler bound to table. A nil table selects the EV3 set.
func New(table *opcodes.Table) *Compiler {
	if table == nil {
		table = opcodes.EV3()
	}
	return &Compiler{table: table}
}

type unit struct {
	prog *output.Program
	err  error
}

// Compile assembles every source named by args, include files first, and
// concatenates the programs in that order. Files are assembled in parallel
// with at most Options.Jobs in flight.
//
// Without KeepGoing the first failing file stops the run and its error is
// returned. With KeepGoing every file is assembled and all diagnostics are
// returned together.
func (c *Compiler) Compile(ctx context.Context, args *options.Arguments) (*output.Program, error) {
	opts := args.Options
	logrus.Debugf("Compiling %d file(s) with optimization %s", len(args.Files), opts.Optimization)

	paths := args.Sources()
	units := make([]unit, len(paths))

	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = runtime.NumCPU()
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)
	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			prog, err := c.compileFile(path, opts)
			units[i].prog, units[i].err = prog, err
			if err != nil && !opts.KeepGoing {
				return err
			}
			return nil
		})
	}
	waitErr := g.Wait()

	var errs *multierror.Error
	for _, u := range units {
		if u.err == nil {
			continue
		}
		if !opts.KeepGoing {
			return nil, u.err
		}
		errs = multierror.Append(errs, u.err)
	}
	if err := errs.ErrorOrNil(); err != nil {
		return nil, err
	}
	if waitErr != nil {
		return nil, waitErr
	}

	programs := make([]*output.Program, len(units))
	for i, u := range units {
		programs[i] = u.prog
	}
	prog := output.Concat(programs...)
	logrus.Debugf("Assembled %d byte(s) from %d file(s)", prog.Len(), len(units))
	return prog, nil
}

func (c *Compiler) compileFile(path string, opts options.Options) (*output.Program, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, &diag.Error{Kind: diag.FileError, File: path, Text: path, Msg: err.Error()}
	}
	a := asm.New(c.table, asm.Options{
		KeepGoing: opts.KeepGoing,
		Warnings:  opts.WarningsEnabled(),
	})
	prog, err := a.Assemble(src)
	if err != nil {
		return nil, diag.WithFile(err, path)
	}
	for i, w := range prog.Warnings {
		prog.Warnings[i] = path + ":" + w
	}
	return prog, nil
}

// Build validates args, compiles, and writes the target object and, when
// requested, the map file. Nothing is written if compiling fails.
func (c *Compiler) Build(ctx context.Context, args *options.Arguments) (*output.Program, error) {
	if err := args.Validate(); err != nil {
		return nil, err
	}
	prog, err := c.Compile(ctx, args)
	if err != nil {
		return nil, err
	}
	if err := objfile.Write(args.Options.Target, prog); err != nil {
		return nil, err
	}
	if args.Options.MapFile != "" {
		if err := objfile.WriteMap(args.Options.MapFile, prog); err != nil {
			return nil, errors.Wrap(err, "object written but map failed")
		}
	}
	return prog, nil
}
