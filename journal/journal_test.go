package journal_test

import (
	"bytes"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/csa-toolchain/csam/encoding"
	"github.com/csa-toolchain/csam/isa"
	"github.com/csa-toolchain/csam/journal"
	"github.com/csa-toolchain/csam/machine/control"
	"github.com/csa-toolchain/csam/machine/memory"
)

func TestJournal(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Journal Suite")
}

var _ = Describe("FormatWord", func() {
	It("zero-pads a decimal value to the widest value the bitsize can hold", func() {
		s, err := journal.FormatWord(7, journal.Decimal, 8)
		Expect(err).NotTo(HaveOccurred())
		Expect(s).To(Equal("007"))
	})

	It("renders binary zero-padded to bitsize", func() {
		s, err := journal.FormatWord(5, journal.Binary, 8)
		Expect(err).NotTo(HaveOccurred())
		Expect(s).To(Equal("00000101"))
	})

	It("renders hex zero-padded to bitsize/4", func() {
		s, err := journal.FormatWord(255, journal.Hexadecimal, 16)
		Expect(err).NotTo(HaveOccurred())
		Expect(s).To(Equal("00ff"))
	})

	It("folds a negative value into its two's-complement form for binary", func() {
		s, err := journal.FormatWord(-1, journal.Binary, 4)
		Expect(err).NotTo(HaveOccurred())
		Expect(s).To(Equal("1111"))
	})

	It("rejects an unknown format", func() {
		_, err := journal.FormatWord(1, journal.NumberFormat("oct"), 8)
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("FormatInstruction", func() {
	It("disassembles a 3-register ADD", func() {
		w, err := encoding.Reg3Instruction{Op: isa.OpADD, Rd: isa.RegS3, Rs1: isa.RegS1, Rs2: isa.RegS2}.Bits()
		Expect(err).NotTo(HaveOccurred())

		s, err := journal.FormatInstruction(w)
		Expect(err).NotTo(HaveOccurred())
		Expect(s).To(Equal("ADD S3, S1, S2"))
	})

	It("disassembles a direct-load LLI", func() {
		w, err := encoding.ImmInstruction{Op: isa.OpLLI, Rd: isa.RegS1, Value: 10}.Bits()
		Expect(err).NotTo(HaveOccurred())

		s, err := journal.FormatInstruction(w)
		Expect(err).NotTo(HaveOccurred())
		Expect(s).To(Equal("LLI S1, 0xA"))
	})

	It("disassembles a no-address HALT", func() {
		w, err := encoding.NoAddrInstruction{Op: isa.OpHALT}.Bits()
		Expect(err).NotTo(HaveOccurred())

		s, err := journal.FormatInstruction(w)
		Expect(err).NotTo(HaveOccurred())
		Expect(s).To(Equal("HALT"))
	})
})

var _ = Describe("Journal", func() {
	It("renders an execution line with the configured fields", func() {
		var execBuf bytes.Buffer
		j, err := journal.New(&execBuf, nil, nil, "PC:hex:32 Z:bin:1 S1:dec:32")
		Expect(err).NotTo(HaveOccurred())

		w, err := encoding.NoAddrInstruction{Op: isa.OpHALT}.Bits()
		Expect(err).NotTo(HaveOccurred())

		var regs [32]int32
		regs[isa.RegS1] = 42
		state := control.TickState{
			Tick: 3, PC: 0x1000, IR: w, Opcode: isa.OpHALT,
			Regs: regs,
		}
		Expect(j.RecordTick(state)).To(Succeed())
		Expect(execBuf.String()).To(ContainSubstring("HALT"))
		Expect(execBuf.String()).To(ContainSubstring("PC=00001000"))
		Expect(execBuf.String()).To(ContainSubstring("S1=0000000042"))
	})

	It("rejects a journal_fmt field that names neither a flag nor a register", func() {
		var execBuf bytes.Buffer
		j, err := journal.New(&execBuf, nil, nil, "BOGUS:dec:32")
		Expect(err).NotTo(HaveOccurred()) // parses fine, only fails on use

		err = j.RecordTick(control.TickState{})
		Expect(err).To(HaveOccurred())
	})

	It("renders output bytes as characters or numbers", func() {
		var outBuf bytes.Buffer
		j, err := journal.New(nil, nil, &outBuf, "")
		Expect(err).NotTo(HaveOccurred())

		Expect(j.RecordOutput('a', false)).To(Succeed())
		Expect(j.RecordOutput('a', true)).To(Succeed())
		Expect(outBuf.String()).To(Equal("a\n97\n"))
	})

	It("dumps every word of memory", func() {
		var memBuf bytes.Buffer
		j, err := journal.New(nil, &memBuf, nil, "")
		Expect(err).NotTo(HaveOccurred())

		mem := memory.New(8)
		Expect(mem.Write32(0, 0xDEADBEEF)).To(Succeed())

		Expect(j.DumpMemory(mem)).To(Succeed())
		Expect(memBuf.String()).To(ContainSubstring("0x00000000: 0xDEADBEEF"))
	})
})
