package journal

import (
	"fmt"
	"io"

	"github.com/csa-toolchain/csam/isa"
	"github.com/csa-toolchain/csam/machine/control"
	"github.com/csa-toolchain/csam/machine/memory"
)

// Journal writes the three run logs: one execution line per retired
// instruction, a final full memory dump, and one line per byte the program
// sends to isa.OutputAddr.
type Journal struct {
	execution io.Writer
	memoryOut io.Writer
	output    io.Writer

	fields []field
}

// New builds a Journal that renders execution lines per journalFmt (the
// config package's "NAME:format:bitsize ..." schema). Any of the three
// writers may be nil to skip that log.
func New(execution, memoryOut, output io.Writer, journalFmt string) (*Journal, error) {
	fields, err := parseFields(journalFmt)
	if err != nil {
		return nil, err
	}
	return &Journal{execution: execution, memoryOut: memoryOut, output: output, fields: fields}, nil
}

// fieldValue looks up one journal_fmt field's value in a retired tick's
// state: PC, IR, IRQ are direct TickState fields; Z/N/V/C/IE are ALU/
// interrupt flags rendered as 0/1; anything else is looked up by register
// name (S1, T3, A2, ...).
func fieldValue(state control.TickState, name string) (int64, bool) {
	switch name {
	case "PC":
		return int64(state.PC), true
	case "IR":
		return int64(state.IR), true
	case "IRQ":
		return int64(state.IRQ), true
	case "Z":
		return boolBit(state.Flags.Z), true
	case "N":
		return boolBit(state.Flags.N), true
	case "V":
		return boolBit(state.Flags.V), true
	case "C":
		return boolBit(state.Flags.C), true
	case "IE":
		return boolBit(state.IE), true
	}
	for r := 0; r < len(state.Regs); r++ {
		if isa.Register(r).String() == name {
			return int64(state.Regs[r]), true
		}
	}
	return 0, false
}

// RecordTick renders one execution.txt line for a retired instruction:
// the disassembled instruction followed by every configured field.
func (j *Journal) RecordTick(state control.TickState) error {
	if j.execution == nil {
		return nil
	}

	instr, err := FormatInstruction(state.IR)
	if err != nil {
		instr = fmt.Sprintf("0x%08X", state.IR)
	}

	line := fmt.Sprintf("tick=%d %s", state.Tick, instr)
	for _, f := range j.fields {
		v, ok := fieldValue(state, f.name)
		if !ok {
			return fmt.Errorf("journal field %q does not name a known register or flag", f.name)
		}
		rendered, err := FormatWord(v, f.format, f.bitsize)
		if err != nil {
			return err
		}
		line += fmt.Sprintf(" %s=%s", f.name, rendered)
	}

	_, err = fmt.Fprintln(j.execution, line)
	return err
}

// RecordOutput renders one byte the program wrote to isa.OutputAddr, either
// as its character ("str") or its decimal value ("num").
func (j *Journal) RecordOutput(b byte, asNumber bool) error {
	if j.output == nil {
		return nil
	}
	if asNumber {
		_, err := fmt.Fprintln(j.output, int(b))
		return err
	}
	_, err := fmt.Fprintln(j.output, string(rune(b)))
	return err
}

// DumpMemory writes every word of mem as a hex-addressed, hex-valued line,
// the final state snapshot memory.txt captures.
func (j *Journal) DumpMemory(mem *memory.Memory) error {
	if j.memoryOut == nil {
		return nil
	}
	for addr := int64(0); addr+4 <= int64(mem.Size()); addr += 4 {
		word, err := mem.Read32(addr)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(j.memoryOut, "0x%08X: 0x%08X\n", addr, word); err != nil {
			return err
		}
	}
	return nil
}
