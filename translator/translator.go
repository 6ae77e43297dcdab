// Package translator lowers an ast.Program into a CSA-32 machine image: a
// register/memory allocator followed by a two-pass address-patching layout,
// grounded end to end on the original source's
// compiler/translator/translator.py.
package translator

import (
	"fmt"

	"github.com/csa-toolchain/csam/ast"
	"github.com/csa-toolchain/csam/encoding"
	"github.com/csa-toolchain/csam/isa"
)

// TranslateError reports a semantic failure during lowering: an undefined
// variable, an unsupported construct (function calls/definitions), or a
// memory layout that overflows the program's reserved data segment.
type TranslateError struct {
	Msg string
}

func (e *TranslateError) Error() string { return "translate error: " + e.Msg }

// RegisterError reports a register-allocator invariant violation (freeing a
// register that was never taken, or double-taking one already occupied).
// Per spec.md §7 this indicates a translator bug, not a malformed program,
// so callers may treat it as unreachable; it is still returned as an error
// rather than panicking.
type RegisterError struct {
	Msg string
}

func (e *RegisterError) Error() string { return "register error: " + e.Msg }

// Variable is a named or anonymous memory-resident value. Addr is -1 until
// the layout pass assigns it.
type Variable struct {
	Label string
	Addr  int32
	Value any // int64, string, or charBuffer
}

// charBuffer is a run of Count memory words reserved for translateInput's
// counted path: one raw character value per word (the same layout
// WordFromString gives a string constant), initialized to zero, plus one guaranteed
// trailing zero word past the last character translateInput writes —
// unlike a literal string constant, these words never hold compile-time
// data, only the runtime-read characters and their terminator.
type charBuffer struct{ Count int32 }

// section is one contiguous block of instructions with its own base
// address, resolved during layout. "_start" is the program body; the
// built-in interrupt handlers are also sections.
type section struct {
	prefix       string
	startAddr    *int32
	instructions []*lazyInstruction
}

// Translator holds the state accumulated while lowering one ast.Program:
// the memory manager, register manager, and the section list that the
// layout pass will place.
type Translator struct {
	mem  *memoryManager
	regs *registerManager

	interruptVectors []*int32
	functionOrder    []string
	functions        map[string]*section

	program *section
}

// New creates a Translator with the default interrupt vector table
// (d_int / input_int) already populated, matching
// Translator._init_default_interrupt_vectors.
func New() *Translator {
	t := &Translator{
		mem:       newMemoryManager(),
		regs:      newRegisterManager(),
		functions: map[string]*section{},
	}
	t.initDefaultInterruptVectors()
	t.program = &section{prefix: "_start", startAddr: new(int32)}
	return t
}

func (t *Translator) initDefaultInterruptVectors() {
	defaultAddr := new(int32)
	*defaultAddr = -1
	dInt := &section{prefix: "d_int", startAddr: defaultAddr}
	dInt.instructions = append(dInt.instructions, &lazyInstruction{kind: kindReti})
	t.functions["d_int"] = dInt
	t.functionOrder = append(t.functionOrder, "d_int")

	// input_int (vector 15) runs on every hardware input event: it reads the
	// write pointer, stores the incoming character at that address, then
	// advances and saves the pointer back. Grounded on
	// _init_default_interrupt_vectors' input_int handler, reworked to use
	// two genuinely distinct pointer cells (see memory.go) instead of the
	// original's three aliased addresses — see DESIGN.md.
	charReg := isa.FirstInterruptReg
	ptrReg := isa.SecondInterruptReg

	inputAddr := new(int32)
	*inputAddr = -1
	inputInt := &section{prefix: "input_int", startAddr: inputAddr}
	inputInt.instructions = append(inputInt.instructions,
		&lazyInstruction{kind: kindLW, args: []arg{regArg{ptrReg}, addrCellArg{t.mem.ioWriteAddr}}},
		&lazyInstruction{kind: kindLW, args: []arg{regArg{charReg}, immArg{isa.InputAddr}}},
		&lazyInstruction{kind: kindSWR, args: []arg{regArg{charReg}, regArg{ptrReg}}},
		&lazyInstruction{kind: kindADDI, args: []arg{regArg{ptrReg}, immArg{1}}},
		&lazyInstruction{kind: kindSW, args: []arg{regArg{ptrReg}, addrCellArg{t.mem.ioWriteAddr}}},
		&lazyInstruction{kind: kindReti},
	)
	t.functions["input_int"] = inputInt
	t.functionOrder = append(t.functionOrder, "input_int")

	for i := 0; i < 15; i++ {
		t.interruptVectors = append(t.interruptVectors, defaultAddr)
	}
	t.interruptVectors = append(t.interruptVectors, inputAddr)
}

// Translate lowers prog into a flat CSA-32 memory image: the interrupt
// vector table, the two port addresses, the data segment (constants,
// variables, I/O pointer cells, I/O buffer), the program section, then
// every helper section (d_int, input_int), each section followed by one
// zero word to match processAddresses' len(instructions)+1 spacing — each
// word big-endian.
func Translate(prog *ast.Program) ([]byte, error) {
	t := New()

	for _, stmt := range prog.Terms {
		instrs, err := t.translateRootNode(stmt)
		if err != nil {
			return nil, err
		}
		t.program.instructions = append(t.program.instructions, instrs...)
	}
	t.program.instructions = append(t.program.instructions, &lazyInstruction{kind: kindHalt})

	if err := t.processAddresses(); err != nil {
		return nil, err
	}

	var words []uint32

	for _, v := range t.interruptVectors {
		words = append(words, uint32(*v))
	}
	words = append(words, isa.InputAddr, isa.OutputAddr)

	for _, label := range t.mem.constantOrder {
		words = append(words, valueWords(t.mem.constants[label].Value)...)
	}
	for _, label := range t.mem.variableOrder {
		words = append(words, valueWords(t.mem.variables[label].Value)...)
	}
	// Both pointer cells start out pointing at the buffer itself — no
	// characters written or read yet. Writing *t.mem.ioWriteAddr here
	// instead would store the cell's own address as its initial content,
	// sending the first read_word/print-string spin loop off into
	// whatever memory follows the buffer instead of the buffer's start.
	words = append(words, uint32(t.mem.ioData.Addr), uint32(t.mem.ioData.Addr))
	words = append(words, valueWords(t.mem.ioData.Value)...)

	// The word at slice index i is what ends up at byte offset 4*i in the
	// final image, and every absolute address a section/variable carries
	// (including the program's own start address and PC's reset value,
	// isa.ProgramStartAddr) is that same word-slot index. Padding with
	// zero words is required to actually reach isa.ProgramStartAddr before
	// appending the program — see DESIGN.md.
	for int32(len(words)) < isa.ProgramStartAddr {
		words = append(words, 0)
	}

	for _, li := range t.program.instructions {
		w, err := li.produce()
		if err != nil {
			return nil, err
		}
		words = append(words, w)
	}
	words = append(words, 0)
	for _, name := range t.functionOrder {
		for _, li := range t.functions[name].instructions {
			w, err := li.produce()
			if err != nil {
				return nil, err
			}
			words = append(words, w)
		}
		words = append(words, 0)
	}

	return wordsToBytes(words), nil
}

// valueWords renders a Variable's compile-time initial value as one or more
// memory words: a single two's-complement word for an int64;
// encoding.WordFromString's one-word-per-character sequence (already
// terminated by an all-zero word) for a string; or Count+1 zero-initialized
// words for a charBuffer, one per character translateInput will write at
// runtime plus a terminator it never touches. translatePrint's and
// translateInput's word-at-a-time loops both stop on the first all-zero
// word they read, so every string/charBuffer needs that guarantee
// regardless of its length.
func valueWords(value any) []uint32 {
	switch v := value.(type) {
	case int64:
		return []uint32{uint32(int32(v))}
	case string:
		return encoding.WordFromString(v)
	case charBuffer:
		return make([]uint32, v.Count+1)
	default:
		return nil
	}
}

func wordsToBytes(words []uint32) []byte {
	out := make([]byte, 4*len(words))
	for i, w := range words {
		out[4*i] = byte(w >> 24)
		out[4*i+1] = byte(w >> 16)
		out[4*i+2] = byte(w >> 8)
		out[4*i+3] = byte(w)
	}
	return out
}

// processAddresses is the two-pass layout: constants then variables get
// consecutive addresses (word-sized for ints, one word per character plus
// terminator for strings), followed by the two I/O pointer cells and the
// shared I/O buffer, then the program section at isa.ProgramStartAddr, then
// each function section spaced by len(instructions)+1 words — mirrors
// Translator._process_addresses, corrected to give the I/O pointers and
// buffer three genuinely distinct addresses (see DESIGN.md).
func (t *Translator) processAddresses() error {
	dataAddr := int32(isa.OutputAddr + 1)

	for _, label := range t.mem.constantOrder {
		v := t.mem.constants[label]
		v.Addr = dataAddr
		n, err := wordCount(v.Value)
		if err != nil {
			return err
		}
		dataAddr += n
	}
	for _, label := range t.mem.variableOrder {
		v := t.mem.variables[label]
		v.Addr = dataAddr
		n, err := wordCount(v.Value)
		if err != nil {
			return err
		}
		dataAddr += n
	}

	*t.mem.ioWriteAddr = dataAddr
	dataAddr++
	*t.mem.ioReadAddr = dataAddr
	dataAddr++

	t.mem.ioData.Addr = dataAddr
	n, err := wordCount(t.mem.ioData.Value)
	if err != nil {
		return err
	}
	dataAddr += n

	if dataAddr > isa.ProgramStartAddr {
		return &TranslateError{Msg: fmt.Sprintf("memory out (max %d, got %d)", isa.ProgramStartAddr, dataAddr)}
	}

	programAddr := int32(isa.ProgramStartAddr)
	*t.program.startAddr = programAddr
	programAddr += int32(len(t.program.instructions)) + 1

	for _, name := range t.functionOrder {
		fn := t.functions[name]
		*fn.startAddr = programAddr
		programAddr += int32(len(fn.instructions)) + 1
	}

	return nil
}

func wordCount(value any) (int32, error) {
	switch v := value.(type) {
	case int64:
		return 1, nil
	case string:
		return int32(len(encoding.WordFromString(v))), nil
	case charBuffer:
		return v.Count + 1, nil
	default:
		return 0, &TranslateError{Msg: fmt.Sprintf("unexpected variable value %v", v)}
	}
}
