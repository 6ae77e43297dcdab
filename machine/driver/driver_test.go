package driver_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/csa-toolchain/csam/config"
	"github.com/csa-toolchain/csam/encoding"
	"github.com/csa-toolchain/csam/isa"
	"github.com/csa-toolchain/csam/machine/driver"
)

func TestDriver(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Driver Suite")
}

func bits(instr encoding.Instruction) uint32 {
	w, err := instr.Bits()
	Expect(err).NotTo(HaveOccurred())
	return w
}

func buildImage(words ...uint32) []byte {
	totalSlots := int(isa.ProgramStartAddr) + len(words)
	img := make([]byte, totalSlots*4)
	for i, w := range words {
		off := (int(isa.ProgramStartAddr) + i) * 4
		img[off] = byte(w >> 24)
		img[off+1] = byte(w >> 16)
		img[off+2] = byte(w >> 8)
		img[off+3] = byte(w)
	}
	return img
}

var _ = Describe("RunImage", func() {
	It("reports a clean halt and collects program output", func() {
		words := []uint32{
			bits(encoding.ImmInstruction{Op: isa.OpLLI, Rd: isa.RegS1, Value: 'h'}),
			bits(encoding.AbsAddrInstruction{Op: isa.OpSW, Rd: isa.RegS1, Addr: isa.OutputAddr}),
			bits(encoding.NoAddrInstruction{Op: isa.OpHALT}),
		}
		img := buildImage(words...)

		cfg := config.Default()
		cfg.Machine.MemorySize = len(img)

		result, err := driver.RunImage(img, cfg, driver.Options{})
		Expect(err).NotTo(HaveOccurred())
		Expect(result.Halted).To(BeTrue())
		Expect(result.Output).To(Equal([]byte{'h'}))
	})

	It("reports a non-halt outcome when the tick budget runs out", func() {
		words := []uint32{
			bits(encoding.ImmInstruction{Op: isa.OpLLI, Rd: isa.RegS1, Value: 1}),
			bits(encoding.NoAddrInstruction{Op: isa.OpHALT}),
		}
		img := buildImage(words...)

		cfg := config.Default()
		cfg.Machine.MemorySize = len(img)
		cfg.Machine.TicksLimit = 1

		result, err := driver.RunImage(img, cfg, driver.Options{})
		Expect(err).NotTo(HaveOccurred())
		Expect(result.Halted).To(BeFalse())
	})

	It("records instruction-cache statistics when enabled", func() {
		words := []uint32{
			bits(encoding.ImmInstruction{Op: isa.OpLLI, Rd: isa.RegS1, Value: 1}),
			bits(encoding.NoAddrInstruction{Op: isa.OpHALT}),
		}
		img := buildImage(words...)

		cfg := config.Default()
		cfg.Machine.MemorySize = len(img)

		result, err := driver.RunImage(img, cfg, driver.Options{ICache: true})
		Expect(err).NotTo(HaveOccurred())
		Expect(result.CacheStats.Reads).To(BeNumerically(">", 0))
	})
})
