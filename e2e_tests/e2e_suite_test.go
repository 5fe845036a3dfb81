package e2e_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"ev3c/pkg/cli"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestEndToEnd(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "ev3c end to end suite")
}

// session holds the result of one ev3c invocation.
type session struct {
	stdout string
	stderr string
	err    error
}

func ev3c(args ...string) session {
	var stdout, stderr bytes.Buffer
	root := cli.NewRootCommand(&stdout, &stderr)
	root.SetArgs(args)
	err := root.Execute()
	GinkgoWriter.Printf("ev3c %v\n%s%s", args, stdout.String(), stderr.String())
	return session{stdout: stdout.String(), stderr: stderr.String(), err: err}
}

func writeSource(dir, name, src string) string {
	path := filepath.Join(dir, name)
	Expect(os.WriteFile(path, []byte(src), 0o644)).To(Succeed())
	return path
}
