package options

import (
	"os"
	"path/filepath"
	"testing"

	"ev3c/pkg/diag"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	a := New()
	assert.Equal(t, "a.rbf", a.Options.Target)
	assert.Equal(t, OptLow, a.Options.Optimization)
	assert.True(t, a.Options.WarningsEnabled())
	assert.False(t, a.Options.KeepGoing)
}

func TestParseOptimization(t *testing.T) {
	tests := []struct {
		input string
		want  OptimizationLevel
	}{
		{"0", OptNone},
		{"1", OptLow},
		{"2", OptMedium},
		{"3", OptHigh},
		{"z", OptSize},
		{"Medium", OptMedium},
	}
	for _, tc := range tests {
		got, err := ParseOptimization(tc.input)
		require.NoError(t, err, tc.input)
		assert.Equal(t, tc.want, got, tc.input)
	}

	_, err := ParseOptimization("4")
	assert.True(t, diag.IsKind(err, diag.ArgumentError))
	assert.Equal(t, "size", OptSize.String())
}

func TestWarnings(t *testing.T) {
	o := Default()
	o.Warnings = []WarningFlag{WarnAll, WarnNone}
	assert.False(t, o.WarningsEnabled())
	o.Warnings = []WarningFlag{WarnNone, WarnAll}
	assert.True(t, o.WarningsEnabled())
	o.Warnings = nil
	assert.False(t, o.WarningsEnabled())

	_, err := ParseWarning("some")
	assert.True(t, diag.IsKind(err, diag.ArgumentError))
}

func TestValidate(t *testing.T) {
	d := t.TempDir()
	src := filepath.Join(d, "main.s")
	inc := filepath.Join(d, "lib.s")
	require.NoError(t, os.WriteFile(src, []byte("err\n"), 0o644))
	require.NoError(t, os.WriteFile(inc, []byte("nop\n"), 0o644))

	a := New()
	a.Files = []string{src}
	a.Include = []string{inc}
	a.Options.Target = filepath.Join(d, "out.rbf")
	require.NoError(t, a.Validate())
	assert.Equal(t, []string{inc, src}, a.Sources())

	empty := New()
	empty.Options.Target = a.Options.Target
	assert.True(t, diag.IsKind(empty.Validate(), diag.ArgumentError))

	missing := New()
	missing.Files = []string{filepath.Join(d, "nope.s")}
	missing.Options.Target = a.Options.Target
	err := missing.Validate()
	assert.True(t, diag.IsKind(err, diag.FileError))
	assert.Contains(t, err.Error(), "nope.s")

	dir := New()
	dir.Files = []string{d}
	assert.True(t, diag.IsKind(dir.Validate(), diag.FileError))

	badInclude := New()
	badInclude.Files = []string{src}
	badInclude.Include = []string{filepath.Join(d, "missing.s")}
	badInclude.Options.Target = a.Options.Target
	assert.True(t, diag.IsKind(badInclude.Validate(), diag.FileError))

	badTarget := New()
	badTarget.Files = []string{src}
	badTarget.Options.Target = filepath.Join(d, "no", "such", "dir", "a.rbf")
	assert.True(t, diag.IsKind(badTarget.Validate(), diag.FileError))

	badJobs := New()
	badJobs.Files = []string{src}
	badJobs.Options.Jobs = -1
	assert.True(t, diag.IsKind(badJobs.Validate(), diag.ArgumentError))
}

func TestLoadConfig(t *testing.T) {
	d := t.TempDir()
	path := filepath.Join(d, "ev3c.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
target = "robot.rbf"
optimization = "z"
warnings = ["all", "none"]
keep_going = true
include = ["lib/motors.s"]
jobs = 2
map = "robot.map.json"
`), 0o644))

	c, err := LoadConfig(path)
	require.NoError(t, err)

	a := New()
	require.NoError(t, c.Apply(a))
	assert.Equal(t, "robot.rbf", a.Options.Target)
	assert.Equal(t, OptSize, a.Options.Optimization)
	assert.False(t, a.Options.WarningsEnabled())
	assert.True(t, a.Options.KeepGoing)
	assert.Equal(t, 2, a.Options.Jobs)
	assert.Equal(t, "robot.map.json", a.Options.MapFile)
	assert.Equal(t, []string{"lib/motors.s"}, a.Include)
}

func TestLoadConfigErrors(t *testing.T) {
	d := t.TempDir()

	unknown := filepath.Join(d, "unknown.toml")
	require.NoError(t, os.WriteFile(unknown, []byte("targt = \"x.rbf\"\n"), 0o644))
	_, err := LoadConfig(unknown)
	assert.ErrorContains(t, err, "unknown keys: targt")

	_, err = LoadConfig(filepath.Join(d, "missing.toml"))
	assert.Error(t, err)

	badLevel := filepath.Join(d, "level.toml")
	require.NoError(t, os.WriteFile(badLevel, []byte("optimization = \"9\"\n"), 0o644))
	c, err := LoadConfig(badLevel)
	require.NoError(t, err)
	assert.Error(t, c.Apply(New()))
}
