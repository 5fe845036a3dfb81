package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"ev3c/pkg/diag"
	"ev3c/pkg/options"

	"github.com/stretchr/testify/assert"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	root := NewRootCommand(&stdout, &stderr)
	root.SetArgs(args)
	err := root.Execute()
	return stdout.String(), stderr.String(), err
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestVersion(t *testing.T) {
	out, _, err := run(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "ev3c v"+Version+"\n", out)

	out, _, err = run(t, "--version")
	require.NoError(t, err)
	assert.Equal(t, "ev3c v"+Version+"\n", out)
}

func TestOpcodes(t *testing.T) {
	out, _, err := run(t, "opcodes")
	require.NoError(t, err)
	assert.Contains(t, out, "OPCODE")
	assert.Regexp(t, `0x40\s+jr\s+label\s+3`, out)
	assert.Regexp(t, `0x00\s+err\s+1`, out)

	out, _, err = run(t, "opcodes", "--noheading")
	require.NoError(t, err)
	assert.NotContains(t, out, "OPCODE")
}

func TestBuildDefault(t *testing.T) {
	d := t.TempDir()
	src := writeFile(t, d, "main.s", "err\n")
	target := filepath.Join(d, "main.rbf")

	_, _, err := run(t, src, "-o", target)
	require.NoError(t, err)
	got, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x00}, got)
}

func TestBuildSubcommand(t *testing.T) {
	d := t.TempDir()
	lib := writeFile(t, d, "lib.s", "nop\n")
	src := writeFile(t, d, "main.s", "loop:\n  jr loop\n")
	target := filepath.Join(d, "out.rbf")
	mapFile := filepath.Join(d, "out.map.json")

	_, _, err := run(t, "build", "-O2", "-Wnone", "-i", lib, "-o", target, "--map", mapFile, src)
	require.NoError(t, err)
	got, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x01, 0x40, 0x00, 0x00}, got)
	assert.FileExists(t, mapFile)
}

func TestBuildWarnings(t *testing.T) {
	d := t.TempDir()
	src := writeFile(t, d, "main.s", "unused:\n  nop\n")
	target := filepath.Join(d, "out.rbf")

	_, stderr, err := run(t, src, "-o", target, "--log-level", "error")
	require.NoError(t, err)
	assert.Contains(t, stderr, "Warning: ")
	assert.Contains(t, stderr, "never referenced")

	_, stderr, err = run(t, src, "-o", target, "-W", "all", "-W", "none")
	require.NoError(t, err)
	assert.NotContains(t, stderr, "Warning: ")
}

func TestBuildFailure(t *testing.T) {
	d := t.TempDir()
	src := writeFile(t, d, "main.s", "foo\nbar\n")
	target := filepath.Join(d, "out.rbf")

	_, _, err := run(t, src, "-o", target)
	require.Error(t, err)
	assert.Len(t, diag.All(err), 1)
	assert.Equal(t, 1, exitCode(err))
	assert.NoFileExists(t, target)

	_, _, err = run(t, src, "-o", target, "--keep-going")
	require.Error(t, err)
	assert.Len(t, diag.All(err), 2)

	var buf bytes.Buffer
	printError(&buf, err)
	assert.Contains(t, buf.String(), "2 errors")
}

func TestBuildArgumentErrors(t *testing.T) {
	d := t.TempDir()
	src := writeFile(t, d, "main.s", "nop\n")

	_, _, err := run(t, filepath.Join(d, "missing.s"))
	assert.True(t, diag.IsKind(err, diag.FileError))
	assert.Equal(t, 2, exitCode(err))

	_, _, err = run(t, src, "-O", "7")
	assert.True(t, diag.IsKind(err, diag.ArgumentError))

	_, _, err = run(t, src, "-W", "most")
	assert.True(t, diag.IsKind(err, diag.ArgumentError))

	_, _, err = run(t, src, "--log-level", "loud")
	assert.True(t, diag.IsKind(err, diag.ArgumentError))

	_, _, err = run(t, "build")
	assert.Error(t, err)
}

func TestBuildConfigPrecedence(t *testing.T) {
	d := t.TempDir()
	src := writeFile(t, d, "main.s", "nop\n")
	fromConfig := filepath.Join(d, "config.rbf")
	fromFlag := filepath.Join(d, "flag.rbf")
	cfg := writeFile(t, d, "ev3c.toml", "target = \""+filepath.ToSlash(fromConfig)+"\"\njobs = 1\n")

	bo := &buildOptions{}
	cmd := &cobra.Command{Use: "build"}
	addBuildFlags(cmd, bo)
	require.NoError(t, cmd.ParseFlags([]string{"--config", cfg}))
	args, err := bo.arguments(cmd.Flags(), []string{src})
	require.NoError(t, err)
	assert.Equal(t, filepath.ToSlash(fromConfig), args.Options.Target)
	assert.Equal(t, 1, args.Options.Jobs)
	assert.Equal(t, options.OptLow, args.Options.Optimization)

	_, _, err = run(t, src, "--config", cfg, "-o", fromFlag)
	require.NoError(t, err)
	assert.FileExists(t, fromFlag)
	assert.NoFileExists(t, fromConfig)
}
