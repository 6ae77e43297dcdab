package config_test

import (
	"os"
	"path/filepath"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/csa-toolchain/csam/config"
)

func TestConfig(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Config Suite")
}

var _ = Describe("Default", func() {
	It("carries a nonzero memory size and tick budget", func() {
		cfg := config.Default()
		Expect(cfg.Machine.MemorySize).To(Equal(65536))
		Expect(cfg.Machine.TicksLimit).To(Equal(int64(1000000)))
		Expect(cfg.Validate()).To(Succeed())
	})
})

var _ = Describe("Load", func() {
	var dir string

	BeforeEach(func() {
		dir = GinkgoT().TempDir()
	})

	It("parses the documented schema, including compact token pairs", func() {
		path := filepath.Join(dir, "run.yaml")
		body := `
machine:
  memory_size: 4096
  ticks_limit: 500
memio:
  tokens:
    - [0, "a"]
    - [5, 98]
  output_fmt: str
journal_fmt: "PC:hex:32 S1:dec:32 Z:bin:1"
`
		Expect(os.WriteFile(path, []byte(body), 0644)).To(Succeed())

		cfg, err := config.Load(path)
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.Machine.MemorySize).To(Equal(4096))
		Expect(cfg.Machine.TicksLimit).To(Equal(int64(500)))
		Expect(cfg.MemIO.Tokens).To(HaveLen(2))
		Expect(cfg.MemIO.Tokens[0].Tick).To(Equal(int64(0)))
		Expect(cfg.MemIO.Tokens[0].Value).To(Equal(byte('a')))
		Expect(cfg.MemIO.Tokens[1].Value).To(Equal(byte(98)))
		Expect(cfg.JournalFmt).To(Equal("PC:hex:32 S1:dec:32 Z:bin:1"))
	})

	It("fails to load a nonexistent file", func() {
		_, err := config.Load(filepath.Join(dir, "missing.yaml"))
		Expect(err).To(HaveOccurred())
	})

	It("rejects a memory size that isn't a whole number of words", func() {
		path := filepath.Join(dir, "bad.yaml")
		Expect(os.WriteFile(path, []byte("machine:\n  memory_size: 10\n"), 0644)).To(Succeed())

		_, err := config.Load(path)
		Expect(err).To(HaveOccurred())
	})

	It("rejects duplicate input tokens at the same tick", func() {
		path := filepath.Join(dir, "dup.yaml")
		body := `
memio:
  tokens:
    - [3, "a"]
    - [3, "b"]
`
		Expect(os.WriteFile(path, []byte(body), 0644)).To(Succeed())

		_, err := config.Load(path)
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("Config.TokenMap", func() {
	It("flattens tokens into a tick-indexed byte map", func() {
		cfg := config.Default()
		cfg.MemIO.Tokens = []config.Token{{Tick: 2, Value: 'x'}, {Tick: 9, Value: 'y'}}

		m := cfg.TokenMap()
		Expect(m).To(HaveLen(2))
		Expect(m[2]).To(Equal(byte('x')))
		Expect(m[9]).To(Equal(byte('y')))
	})
})

var _ = Describe("Save", func() {
	It("round-trips through YAML", func() {
		dir := GinkgoT().TempDir()
		path := filepath.Join(dir, "out.yaml")

		cfg := config.Default()
		cfg.Machine.MemorySize = 8192
		Expect(cfg.Save(path)).To(Succeed())

		reloaded, err := config.Load(path)
		Expect(err).NotTo(HaveOccurred())
		Expect(reloaded.Machine.MemorySize).To(Equal(8192))
	})
})
