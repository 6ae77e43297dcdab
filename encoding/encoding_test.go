package encoding_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/csa-toolchain/csam/encoding"
	"github.com/csa-toolchain/csam/isa"
)

func TestEncoding(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Encoding Suite")
}

var _ = Describe("ImmInstruction", func() {
	It("packs imm20 | rd | opcode", func() {
		w, err := encoding.ImmInstruction{Op: isa.OpLLI, Rd: isa.RegS1, Value: 0x2A}.Bits()
		Expect(err).NotTo(HaveOccurred())
		Expect(w).To(Equal(uint32(0x2A)<<12 | uint32(isa.RegS1)<<7 | uint32(isa.OpLLI)))
	})

	It("accepts a negative value within the 20-bit signed range", func() {
		_, err := encoding.ImmInstruction{Op: isa.OpLLI, Rd: isa.RegS1, Value: -1}.Bits()
		Expect(err).NotTo(HaveOccurred())
	})

	It("rejects an immediate that overflows 20 bits", func() {
		_, err := encoding.ImmInstruction{Op: isa.OpLLI, Rd: isa.RegS1, Value: 1 << 20}.Bits()
		Expect(err).To(MatchError(encoding.ErrTooLong))
	})
})

var _ = Describe("AbsAddrInstruction", func() {
	It("packs addr20 | rd | opcode", func() {
		w, err := encoding.AbsAddrInstruction{Op: isa.OpSW, Rd: isa.RegS2, Addr: isa.OutputAddr}.Bits()
		Expect(err).NotTo(HaveOccurred())
		Expect(w).To(Equal(uint32(isa.OutputAddr)<<12 | uint32(isa.RegS2)<<7 | uint32(isa.OpSW)))
	})

	It("rejects a negative address", func() {
		_, err := encoding.AbsAddrInstruction{Op: isa.OpLW, Rd: isa.RegS1, Addr: -1}.Bits()
		Expect(err).To(MatchError(encoding.ErrTooLong))
	})

	It("rejects an address that overflows 20 bits", func() {
		_, err := encoding.AbsAddrInstruction{Op: isa.OpLW, Rd: isa.RegS1, Addr: 1 << 20}.Bits()
		Expect(err).To(MatchError(encoding.ErrTooLong))
	})
})

var _ = Describe("RelativeAddrInstruction", func() {
	It("packs offset25 | opcode", func() {
		w, err := encoding.RelativeAddrInstruction{Op: isa.OpJZ, Offset: 5}.Bits()
		Expect(err).NotTo(HaveOccurred())
		Expect(w).To(Equal(uint32(5)<<7 | uint32(isa.OpJZ)))
	})

	It("accepts a negative offset", func() {
		w, err := encoding.RelativeAddrInstruction{Op: isa.OpJZ, Offset: -5}.Bits()
		Expect(err).NotTo(HaveOccurred())
		Expect(w & uint32(isa.OpJZ)).To(Equal(uint32(isa.OpJZ)))
	})

	It("rejects an offset that overflows 25 bits", func() {
		_, err := encoding.RelativeAddrInstruction{Op: isa.OpJZ, Offset: 1 << 24}.Bits()
		Expect(err).To(MatchError(encoding.ErrTooLong))
	})
})

var _ = Describe("Reg1Instruction", func() {
	It("packs rd | opcode with no address field", func() {
		w, err := encoding.Reg1Instruction{Op: isa.OpJR, Rd: isa.RegRA}.Bits()
		Expect(err).NotTo(HaveOccurred())
		Expect(w).To(Equal(uint32(isa.RegRA)<<7 | uint32(isa.OpJR)))
	})
})

var _ = Describe("Reg2Instruction", func() {
	It("packs rs | rd | opcode", func() {
		w, err := encoding.Reg2Instruction{Op: isa.OpMV, Rd: isa.RegS1, Rs: isa.RegS2}.Bits()
		Expect(err).NotTo(HaveOccurred())
		Expect(w).To(Equal(uint32(isa.RegS2)<<12 | uint32(isa.RegS1)<<7 | uint32(isa.OpMV)))
	})
})

var _ = Describe("Reg3Instruction", func() {
	It("packs rs2 | rs1 | rd | opcode", func() {
		w, err := encoding.Reg3Instruction{Op: isa.OpADD, Rd: isa.RegS1, Rs1: isa.RegS2, Rs2: isa.RegS3}.Bits()
		Expect(err).NotTo(HaveOccurred())
		Expect(w).To(Equal(uint32(isa.RegS3)<<17 | uint32(isa.RegS2)<<12 | uint32(isa.RegS1)<<7 | uint32(isa.OpADD)))
	})
})

var _ = Describe("NoAddrInstruction", func() {
	It("packs the bare opcode", func() {
		w, err := encoding.NoAddrInstruction{Op: isa.OpHALT}.Bits()
		Expect(err).NotTo(HaveOccurred())
		Expect(w).To(Equal(uint32(isa.OpHALT)))
	})
})

var _ = Describe("WordFromString", func() {
	It("gives each character its own word, value in the low byte, plus a terminator", func() {
		words := encoding.WordFromString("abcd")
		Expect(words).To(Equal([]uint32{'a', 'b', 'c', 'd', 0}))
	})

	It("renders an empty string as a single all-zero terminator word", func() {
		words := encoding.WordFromString("")
		Expect(words).To(Equal([]uint32{0}))
	})

	It("terminates a short string with an all-zero word", func() {
		words := encoding.WordFromString("hi")
		Expect(words).To(Equal([]uint32{'h', 'i', 0}))
	})
})
