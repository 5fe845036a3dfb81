package options

import (
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
)

// Config mirrors Options in an ev3c.toml file:
//
//	target = "build/robot.rbf"
//	optimization = "2"
//	warnings = ["all"]
//	keep_going = true
//	include = ["lib/motors.s"]
//	jobs = 4
type Config struct {
	Target       string   `toml:"target"`
	Optimization string   `toml:"optimization"`
	Warnings     []string `toml:"warnings"`
	KeepGoing    *bool    `toml:"keep_going"`
	Include      []string `toml:"include"`
	Jobs         *int     `toml:"jobs"`
	Map          string   `toml:"map"`
}

// LoadConfig reads a TOML config file. Unknown keys are rejected.
func LoadConfig(path string) (*Config, error) {
	var c Config
	meta, err := toml.DecodeFile(path, &c)
	if err != nil {
		return nil, errors.Wrapf(err, "reading config %q", path)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		sort.Strings(keys)
		return nil, errors.Errorf("config %q: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	return &c, nil
}

// Apply copies every value set in c onto a.
func (c *Config) Apply(a *Arguments) error {
	if c.Target != "" {
		a.Options.Target = c.Target
	}
	if c.Optimization != "" {
		level, err := ParseOptimization(c.Optimization)
		if err != nil {
			return err
		}
		a.Options.Optimization = level
	}
	if len(c.Warnings) > 0 {
		flags := make([]WarningFlag, 0, len(c.Warnings))
		for _, w := range c.Warnings {
			flag, err := ParseWarning(w)
			if err != nil {
				return err
			}
			flags = append(flags, flag)
		}
		a.Options.Warnings = flags
	}
	if c.KeepGoing != nil {
		a.Options.KeepGoing = *c.KeepGoing
	}
	if c.Jobs != nil {
		a.Options.Jobs = *c.Jobs
	}
	if c.Map != "" {
		a.Options.MapFile = c.Map
	}
	a.Include = append(a.Include, c.Include...)
	return nil
}
