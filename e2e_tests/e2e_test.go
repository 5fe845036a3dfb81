package e2e_test

import (
	"os"
	"path/filepath"

	"ev3c/pkg/diag"
	"ev3c/pkg/disasm"
	"ev3c/pkg/objfile"
	"ev3c/pkg/opcodes"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

const motorProgram = `// spin motor B and C for a second
start:
  program_start 1, main
main:
  output_power 0, 6, 50     ; layer 0, ports B|C
  output_start 0, 6
  timer_wait 1000, r0
  timer_ready r0
  output_stop 0, 6, 1
  jr_false r1, done
  jr main
done:
  program_stop 1
`

var _ = Describe("ev3c build", func() {
	var (
		dir    string
		target string
	)

	BeforeEach(func() {
		dir = GinkgoT().TempDir()
		target = filepath.Join(dir, "out.rbf")
	})

	It("writes the sentinel program as a single error opcode", func() {
		src := writeSource(dir, "err.s", "err\n")
		s := ev3c(src, "-o", target)
		Expect(s.err).ToNot(HaveOccurred())
		Expect(os.ReadFile(target)).To(Equal([]byte{0x00}))
	})

	It("assembles a program that disassembles back to the same bytes", func() {
		src := writeSource(dir, "motor.s", motorProgram)
		s := ev3c("build", src, "-o", target, "-O2")
		Expect(s.err).ToNot(HaveOccurred())

		code, err := os.ReadFile(target)
		Expect(err).ToNot(HaveOccurred())
		Expect(code).ToNot(BeEmpty())

		lines, err := disasm.Disassemble(opcodes.EV3(), code)
		Expect(err).ToNot(HaveOccurred())
		Expect(lines[0].Entry.Mnemonic).To(Equal("program_start"))
		Expect(lines[len(lines)-1].Entry.Mnemonic).To(Equal("program_stop"))

		again := writeSource(dir, "again.s", disasm.Source(lines))
		second := filepath.Join(dir, "again.rbf")
		Expect(ev3c(again, "-o", second, "-Wnone").err).ToNot(HaveOccurred())
		Expect(os.ReadFile(second)).To(Equal(code))
	})

	It("combines include files and sources in order", func() {
		lib := writeSource(dir, "lib.s", "nop\n")
		a := writeSource(dir, "a.s", "sleep\n")
		b := writeSource(dir, "b.s", "return\n")
		mapFile := filepath.Join(dir, "out.map.yaml")

		s := ev3c(a, b, "--include", lib, "-o", target, "--map", mapFile, "-j", "2")
		Expect(s.err).ToNot(HaveOccurred())
		Expect(os.ReadFile(target)).To(Equal([]byte{0x01, 0x0B, 0x08}))

		data, err := os.ReadFile(mapFile)
		Expect(err).ToNot(HaveOccurred())
		m, err := objfile.ReadMap(data, true)
		Expect(err).ToNot(HaveOccurred())
		Expect(m.Size).To(Equal(3))
		Expect(m.Lines).To(HaveLen(3))
	})

	It("stops at the first error and writes nothing", func() {
		src := writeSource(dir, "bad.s", "nop\nfoo\nadd8 r1\n")
		s := ev3c(src, "-o", target)
		Expect(s.err).To(HaveOccurred())
		Expect(diag.All(s.err)).To(HaveLen(1))
		Expect(s.err.Error()).To(ContainSubstring("bad.s:2:1: UnknownMnemonic"))
		Expect(target).ToNot(BeAnExistingFile())
	})

	It("reports every error with --keep-going", func() {
		src := writeSource(dir, "bad.s", "nop\nfoo\nadd8 r1\njr nowhere\nerr, err\n")
		s := ev3c(src, "-o", target, "--keep-going")
		Expect(s.err).To(HaveOccurred())

		var kinds []diag.Kind
		for _, d := range diag.All(s.err) {
			kinds = append(kinds, d.Kind)
		}
		Expect(kinds).To(ConsistOf(
			diag.UnknownMnemonic,
			diag.OperandCountMismatch,
			diag.OperandCountMismatch,
			diag.UnresolvedLabel,
		))
		Expect(target).ToNot(BeAnExistingFile())
	})

	It("rejects missing inputs before assembling", func() {
		s := ev3c(filepath.Join(dir, "missing.s"), "-o", target)
		Expect(diag.IsKind(s.err, diag.FileError)).To(BeTrue())
	})

	It("reads defaults from a config file", func() {
		src := writeSource(dir, "main.s", "unused:\n  nop\n")
		cfg := writeSource(dir, "ev3c.toml", "warnings = [\"none\"]\ntarget = \""+filepath.ToSlash(target)+"\"\n")
		s := ev3c(src, "--config", cfg)
		Expect(s.err).ToNot(HaveOccurred())
		Expect(s.stderr).ToNot(ContainSubstring("Warning:"))
		Expect(target).To(BeAnExistingFile())
	})
})

var _ = Describe("ev3c opcodes", func() {
	It("lists every table entry", func() {
		s := ev3c("opcodes", "--noheading")
		Expect(s.err).ToNot(HaveOccurred())
		Expect(s.stdout).To(ContainSubstring("program_start"))
		Expect(s.stdout).To(MatchRegexp(`0x94\s+sound_tone\s+u8, u16, u16\s+6`))
	})
})
