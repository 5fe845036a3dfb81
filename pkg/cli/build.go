package cli

import (
	"fmt"

	"ev3c/pkg/driver"
	"ev3c/pkg/options"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

type buildOptions struct {
	output       string
	optimization string
	warnings     []string
	include      []string
	keepGoing    bool
	config       string
	mapFile      string
	jobs         int
}

func newBuildCommand() *cobra.Command {
	bo := &buildOptions{}
	cmd := &cobra.Command{
		Use:   "build [options] FILE [FILE...]",
		Short: "Assemble source files into one object",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBuild(cmd, bo, args)
		},
	}
	addBuildFlags(cmd, bo)
	return cmd
}

func addBuildFlags(cmd *cobra.Command, bo *buildOptions) {
	flags := cmd.Flags()

	outputFlagName := "output"
	flags.StringVarP(&bo.output, outputFlagName, "o", options.DefaultTarget, "Write the object to `FILE`")
	_ = cmd.MarkFlagFilename(outputFlagName, "rbf")

	flags.StringVarP(&bo.optimization, "optimize", "O", "1", "Optimization level: 0, 1, 2, 3 or z")
	flags.StringArrayVarP(&bo.warnings, "warn", "W", []string{"all"}, "Enable (all) or disable (none) warnings; the last one wins")
	flags.StringSliceVarP(&bo.include, "include", "i", nil, "Assemble comma separated `FILES` ahead of the sources")
	flags.BoolVar(&bo.keepGoing, "keep-going", false, "Report every error instead of stopping at the first")

	configFlagName := "config"
	flags.StringVar(&bo.config, configFlagName, "", "Read defaults from a TOML `FILE`")
	_ = cmd.MarkFlagFilename(configFlagName, "toml")

	mapFlagName := "map"
	flags.StringVar(&bo.mapFile, mapFlagName, "", "Write labels and source lines to `FILE` (.json, .yaml)")
	_ = cmd.MarkFlagFilename(mapFlagName, "json", "yaml", "yml")

	flags.IntVarP(&bo.jobs, "jobs", "j", 0, "Assemble up to `N` files at once (0 for one per CPU)")
}

// arguments merges defaults, the config file and flags, in that order of
// precedence from lowest to highest.
func (bo *buildOptions) arguments(flags *pflag.FlagSet, files []string) (*options.Arguments, error) {
	args := options.New()
	args.Files = files

	if bo.config != "" {
		cfg, err := options.LoadConfig(bo.config)
		if err != nil {
			return nil, err
		}
		if err := cfg.Apply(args); err != nil {
			return nil, err
		}
		logrus.Debugf("Loaded config %s", bo.config)
	}

	if flags.Changed("output") {
		args.Options.Target = bo.output
	}
	if flags.Changed("optimize") {
		level, err := options.ParseOptimization(bo.optimization)
		if err != nil {
			return nil, err
		}
		args.Options.Optimization = level
	}
	if flags.Changed("warn") {
		args.Options.Warnings = args.Options.Warnings[:0]
		for _, w := range bo.warnings {
			flag, err := options.ParseWarning(w)
			if err != nil {
				return nil, err
			}
			args.Options.Warnings = append(args.Options.Warnings, flag)
		}
	}
	if flags.Changed("include") {
		args.Include = bo.include
	}
	if flags.Changed("keep-going") {
		args.Options.KeepGoing = bo.keepGoing
	}
	if flags.Changed("map") {
		args.Options.MapFile = bo.mapFile
	}
	if flags.Changed("jobs") {
		args.Options.Jobs = bo.jobs
	}
	return args, nil
}

func runBuild(cmd *cobra.Command, bo *buildOptions, files []string) error {
	args, err := bo.arguments(cmd.Flags(), files)
	if err != nil {
		return err
	}
	prog, err := driver.New(nil).Build(cmd.Context(), args)
	if err != nil {
		return err
	}
	for _, w := range prog.Warnings {
		fmt.Fprintf(cmd.ErrOrStderr(), "Warning: %s\n", w)
	}
	logrus.Infof("Wrote %d byte(s) to %s", prog.Len(), args.Options.Target)
	return nil
}
