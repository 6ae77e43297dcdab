package memory_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/csa-toolchain/csam/machine/memory"
)

func TestMemory(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Memory Suite")
}

var _ = Describe("Memory", func() {
	It("reads back a word it just wrote", func() {
		m := memory.New(64)
		Expect(m.Write32(8, 0xDEADBEEF)).To(Succeed())
		v, err := m.Read32(8)
		Expect(err).NotTo(HaveOccurred())
		Expect(v).To(Equal(uint32(0xDEADBEEF)))
	})

	It("is big-endian", func() {
		m := memory.New(16)
		Expect(m.Write32(0, 0x01020304)).To(Succeed())
		raw, err := m.Read32(0)
		Expect(err).NotTo(HaveOccurred())
		Expect(raw).To(Equal(uint32(0x01020304)))
	})

	It("rejects a read that runs past the end", func() {
		m := memory.New(4)
		_, err := m.Read32(2)
		Expect(err).To(HaveOccurred())
	})

	It("rejects a negative address", func() {
		m := memory.New(16)
		_, err := m.Read32(-1)
		Expect(err).To(HaveOccurred())
	})

	It("pre-initializes from an image, zero-padding the rest", func() {
		image := []byte{0x00, 0x00, 0x00, 0x2A}
		m, err := memory.NewFromImage(image, 16)
		Expect(err).NotTo(HaveOccurred())
		v, err := m.Read32(0)
		Expect(err).NotTo(HaveOccurred())
		Expect(v).To(Equal(uint32(42)))

		tail, err := m.Read32(8)
		Expect(err).NotTo(HaveOccurred())
		Expect(tail).To(Equal(uint32(0)))
	})

	It("rejects an image larger than the requested size", func() {
		_, err := memory.NewFromImage(make([]byte, 32), 16)
		Expect(err).To(HaveOccurred())
	})
})
