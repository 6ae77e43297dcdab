package translator_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/csa-toolchain/csam/config"
	"github.com/csa-toolchain/csam/lexer"
	"github.com/csa-toolchain/csam/machine/driver"
	"github.com/csa-toolchain/csam/parser"
	"github.com/csa-toolchain/csam/translator"
)

func TestTranslatorE2E(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Translator End-to-End Suite")
}

func runSource(source string, tokens []config.Token) (*driver.Result, error) {
	toks, err := lexer.Lex(source)
	if err != nil {
		return nil, err
	}
	prog, err := parser.Parse(toks)
	if err != nil {
		return nil, err
	}
	image, err := translator.Translate(prog)
	if err != nil {
		return nil, err
	}

	cfg := config.Default()
	if len(image) > cfg.Machine.MemorySize {
		cfg.Machine.MemorySize = len(image)
	}
	cfg.MemIO.Tokens = tokens

	return driver.RunImage(image, cfg, driver.Options{})
}

// Every scenario asserts against single output bytes, not 4-byte words:
// driver.RunImage's OnMemWrite hook appends only the low byte of each word
// written to the output port, matching the values these programs print
// (all under 256) exactly.
var _ = Describe("end-to-end scenarios", func() {
	It("scenario 1: print(1 + 2) outputs 3", func() {
		result, err := runSource("print(1 + 2)\n", nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(result.Halted).To(BeTrue())
		Expect(result.Output).To(Equal([]byte{3}))
	})

	It("scenario 2: a*b+1 over two variables outputs 36", func() {
		result, err := runSource("a:int = 5 b:int = 7 print(a * b + 1)\n", nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(result.Halted).To(BeTrue())
		Expect(result.Output).To(Equal([]byte{36}))
	})

	It("scenario 3: a for loop prints 0, 1, 2", func() {
		result, err := runSource("for [i:int = 0; i < 3; i = i + 1] { print(i) }\n", nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(result.Halted).To(BeTrue())
		Expect(result.Output).To(Equal([]byte{0, 1, 2}))
	})

	It("scenario 4: a true branch prints the Y string", func() {
		result, err := runSource(`if [1 < 2] { print("Y") } else { print("N") }`+"\n", nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(result.Halted).To(BeTrue())
		Expect(result.Output).To(Equal([]byte{'Y'}))
	})

	It("scenario 5: reading two input tokens echoes them back", func() {
		result, err := runSource("v:str = input(2) print(v)\n", []config.Token{
			{Tick: 0, Value: 'a'},
			{Tick: 1, Value: 'b'},
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(result.Halted).To(BeTrue())
		Expect(result.Output).To(Equal([]byte{'a', 'b'}))
	})

	It("scenario 6: division by zero raises ZERO_DIVISION and leaves the operand unchanged", func() {
		result, err := runSource("a:int = 5 a = a / 0 print(a)\n", nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(result.Halted).To(BeTrue())
		Expect(result.Output).To(Equal([]byte{5}))
	})
})
