// Package options holds compiler options and validates the files handed to
// the compiler before any assembling starts.
package options

import (
	"fmt"
	"strings"

	"ev3c/pkg/diag"
	"ev3c/pkg/utils"
)

// DefaultTarget follows the EV3 convention of an .rbf object file.
const DefaultTarget = "a.rbf"

// OptimizationLevel selects optimizations. High and Size may be unstable.
type OptimizationLevel int

const (
	OptNone   OptimizationLevel = iota // -O0
	OptLow                             // -O1
	OptMedium                          // -O2
	OptHigh                            // -O3
	OptSize                            // -Oz
)

var optimizationNames = map[OptimizationLevel]string{
	OptNone:   "none",
	OptLow:    "low",
	OptMedium: "medium",
	OptHigh:   "high",
	OptSize:   "size",
}

func (o OptimizationLevel) String() string {
	if name, ok := optimizationNames[o]; ok {
		return name
	}
	return fmt.Sprintf("OptimizationLevel(%d)", int(o))
}

// ParseOptimization accepts the -O suffixes 0, 1, 2, 3, z and the level names.
func ParseOptimization(s string) (OptimizationLevel, error) {
	switch strings.ToLower(s) {
	case "0", "none":
		return OptNone, nil
	case "1", "low":
		return OptLow, nil
	case "2", "medium":
		return OptMedium, nil
	case "3", "high":
		return OptHigh, nil
	case "z", "size":
		return OptSize, nil
	}
	return 0, &diag.Error{Kind: diag.ArgumentError, Text: s, Msg: fmt.Sprintf("unknown optimization level %q", s)}
}

// WarningFlag enables or disables groups of warnings.
type WarningFlag int

const (
	WarnAll WarningFlag = iota
	WarnNone
)

func (w WarningFlag) String() string {
	if w == WarnNone {
		return "none"
	}
	return "all"
}

// ParseWarning accepts "all" and "none".
func ParseWarning(s string) (WarningFlag, error) {
	switch s {
	case "all":
		return WarnAll, nil
	case "none":
		return WarnNone, nil
	}
	return 0, &diag.Error{Kind: diag.ArgumentError, Text: s, Msg: fmt.Sprintf("unknown warning flag %q", s)}
}

// Options control a compiler run. Optimization and Warnings only affect
// diagnostics; they never change the encoding of an instruction.
type Options struct {
	// Target is the output object. Multiple sources are combined into it.
	Target       string
	Optimization OptimizationLevel
	// Warnings are applied in order; the last one wins.
	Warnings  []WarningFlag
	KeepGoing bool
	// Jobs bounds how many files are assembled at once; 0 means one per CPU.
	Jobs int
	// MapFile, when set, receives the label table and source map.
	MapFile string
}

// Default returns the options used when nothing is configured.
func Default() Options {
	return Options{
		Target:       DefaultTarget,
		Optimization: OptLow,
		Warnings:     []WarningFlag{WarnAll},
	}
}

// WarningsEnabled reports whether warnings should be emitted.
func (o Options) WarningsEnabled() bool {
	if len(o.Warnings) == 0 {
		return false
	}
	return o.Warnings[len(o.Warnings)-1] == WarnAll
}

// Arguments is everything a compiler run needs.
type Arguments struct {
	// Files are compiled in order.
	Files []string
	// Include files are assembled ahead of Files.
	Include []string
	Options Options
}

// New returns arguments carrying the default options.
func New() *Arguments {
	return &Arguments{Options: Default()}
}

// Sources returns include files followed by source files.
func (a *Arguments) Sources() []string {
	out := make([]string, 0, len(a.Include)+len(a.Files))
	out = append(out, a.Include...)
	return append(out, a.Files...)
}

// Validate checks every referenced path before the compiler starts.
func (a *Arguments) Validate() error {
	if len(a.Files) == 0 {
		return &diag.Error{Kind: diag.ArgumentError, Msg: "no input files"}
	}
	if a.Options.Jobs < 0 {
		return &diag.Error{Kind: diag.ArgumentError, Msg: fmt.Sprintf("jobs must not be negative, got %d", a.Options.Jobs)}
	}
	for _, f := range a.Sources() {
		if !utils.IsRegularFile(f) {
			return &diag.Error{Kind: diag.FileError, File: f, Text: f, Msg: "no such file"}
		}
	}
	if a.Options.Target == "" {
		return &diag.Error{Kind: diag.ArgumentError, Msg: "empty output path"}
	}
	for _, out := range []string{a.Options.Target, a.Options.MapFile} {
		if out == "" {
			continue
		}
		_, parent, err := utils.GetPathInfo(out)
		if err != nil || !utils.IsDir(parent) {
			return &diag.Error{Kind: diag.FileError, File: out, Text: out, Msg: "output directory does not exist"}
		}
	}
	return nil
}
