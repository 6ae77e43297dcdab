package control_test

import (
	"errors"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/csa-toolchain/csam/encoding"
	"github.com/csa-toolchain/csam/isa"
	"github.com/csa-toolchain/csam/machine/control"
	"github.com/csa-toolchain/csam/machine/memory"
)

func TestControl(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Control Suite")
}

// buildImage lays out words starting at slot isa.ProgramStartAddr and
// returns a big-endian byte image sized to hold them.
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

func putWord(img []byte, slot int, w uint32) {
	off := slot * 4
	img[off] = byte(w >> 24)
	img[off+1] = byte(w >> 16)
	img[off+2] = byte(w >> 8)
	img[off+3] = byte(w)
}

func bits(instr encoding.Instruction) uint32 {
	w, err := instr.Bits()
	Expect(err).NotTo(HaveOccurred())
	return w
}

var _ = Describe("ControlUnit", func() {
	It("runs LLI then HALT and leaves the register set", func() {
		words := []uint32{
			bits(encoding.ImmInstruction{Op: isa.OpLLI, Rd: isa.RegS1, Value: 42}),
			bits(encoding.NoAddrInstruction{Op: isa.OpHALT}),
		}
		img := buildImage(words...)
		mem, err := memory.NewFromImage(img, len(img))
		Expect(err).NotTo(HaveOccurred())

		cu := control.New(mem)
		err = cu.Run()
		Expect(err).NotTo(HaveOccurred())
		Expect(cu.Reg.ReadReg(isa.RegS1)).To(Equal(int32(42)))
	})

	It("adds two registers with ADD", func() {
		words := []uint32{
			bits(encoding.ImmInstruction{Op: isa.OpLLI, Rd: isa.RegS1, Value: 10}),
			bits(encoding.ImmInstruction{Op: isa.OpLLI, Rd: isa.RegS2, Value: 32}),
			bits(encoding.Reg3Instruction{Op: isa.OpADD, Rd: isa.RegS3, Rs1: isa.RegS1, Rs2: isa.RegS2}),
			bits(encoding.NoAddrInstruction{Op: isa.OpHALT}),
		}
		img := buildImage(words...)
		mem, err := memory.NewFromImage(img, len(img))
		Expect(err).NotTo(HaveOccurred())

		cu := control.New(mem)
		Expect(cu.Run()).To(Succeed())
		Expect(cu.Reg.ReadReg(isa.RegS3)).To(Equal(int32(42)))
	})

	It("raises a ZERO_DIVISION interrupt instead of writing back garbage", func() {
		// d_int-style handler for vector 0: a bare RETI.
		// Slot 0 is vector 0's table entry: the *address* of the handler,
		// which itself lives at slot 1.
		const handlerSlot = 1
		words := []uint32{
			bits(encoding.ImmInstruction{Op: isa.OpLLI, Rd: isa.RegS1, Value: 10}),
			bits(encoding.ImmInstruction{Op: isa.OpLLI, Rd: isa.RegS2, Value: 0}),
			bits(encoding.ImmInstruction{Op: isa.OpLLI, Rd: isa.RegS3, Value: 99}),
			bits(encoding.Reg3Instruction{Op: isa.OpDIV, Rd: isa.RegS3, Rs1: isa.RegS1, Rs2: isa.RegS2}),
			bits(encoding.ImmInstruction{Op: isa.OpLLI, Rd: isa.RegS4, Value: 7}),
			bits(encoding.NoAddrInstruction{Op: isa.OpHALT}),
		}
		img := buildImage(words...)
		full := make([]byte, len(img))
		copy(full, img)
		putWord(full, 0, handlerSlot)
		putWord(full, handlerSlot, bits(encoding.NoAddrInstruction{Op: isa.OpRETI}))

		mem, err := memory.NewFromImage(full, len(full))
		Expect(err).NotTo(HaveOccurred())

		cu := control.New(mem)
		Expect(cu.Run()).To(Succeed())
		// rd is left unwritten (still the 99 loaded above) rather than receiving stale
		// ALU output, and the interrupt is serviced (vectored to the
		// handler, which RETIs back) before the following instruction
		// resumes normally, rather than the interrupt being silently
		// dropped.
		Expect(cu.Reg.ReadReg(isa.RegS3)).To(Equal(int32(99)))
		Expect(cu.Reg.ReadReg(isa.RegS4)).To(Equal(int32(7)))
	})

	It("stops with a LimitError when the tick budget is exhausted", func() {
		words := []uint32{
			bits(encoding.ImmInstruction{Op: isa.OpLLI, Rd: isa.RegS1, Value: 1}),
			bits(encoding.NoAddrInstruction{Op: isa.OpHALT}),
		}
		img := buildImage(words...)
		mem, err := memory.NewFromImage(img, len(img))
		Expect(err).NotTo(HaveOccurred())

		cu := control.New(mem)
		cu.SetTicksLimit(1)
		err = cu.Run()
		Expect(err).To(HaveOccurred())
		var limitErr *control.LimitError
		Expect(errors.As(err, &limitErr)).To(BeTrue())
	})

	It("reports ErrHalt for a clean stop via Step", func() {
		words := []uint32{bits(encoding.NoAddrInstruction{Op: isa.OpHALT})}
		img := buildImage(words...)
		mem, err := memory.NewFromImage(img, len(img))
		Expect(err).NotTo(HaveOccurred())

		cu := control.New(mem)
		err = cu.Step()
		Expect(errors.Is(err, control.ErrHalt)).To(BeTrue())
	})
})
