package journal

import (
	"fmt"

	"github.com/csa-toolchain/csam/isa"
)

// signExtend sign-extends the low bits-wide field of value.
func signExtend(value uint32, bits int) int32 {
	shift := uint(32 - bits)
	return int32(value<<shift) >> shift
}

// FormatInstruction disassembles a fetched instruction word into the
// mnemonic/operand text format_instruction.py produces (e.g. "ADD S3, S1,
// S2", "LLI S1, 0xA", "JZ 0x5"), for the execution log.
func FormatInstruction(word uint32) (string, error) {
	op := isa.Opcode(word & 0x7F)
	mnemonic := op.String()
	if mnemonic == "UNKNOWN" {
		return "", fmt.Errorf("unknown instruction opcode 0b%07b", uint8(op))
	}

	switch op.Mode() {
	case isa.ModeAbsolute:
		rd := isa.Register((word >> 7) & 0x1F)
		addr := (word >> 12) & 0xFFFFF
		return fmt.Sprintf("%s %s, 0x%X", mnemonic, rd, addr), nil

	case isa.ModeRelative:
		offset := signExtend((word>>7)&0x1FFFFFF, isa.Offset25Size)
		return fmt.Sprintf("%s 0x%X", mnemonic, offset), nil

	case isa.ModeNoAddress:
		return mnemonic, nil

	case isa.ModeReg1:
		rd := isa.Register((word >> 7) & 0x1F)
		return fmt.Sprintf("%s %s", mnemonic, rd), nil

	case isa.ModeReg2:
		rd := isa.Register((word >> 7) & 0x1F)
		rs1 := isa.Register((word >> 12) & 0x1F)
		return fmt.Sprintf("%s %s, %s", mnemonic, rd, rs1), nil

	case isa.ModeReg3:
		rd := isa.Register((word >> 7) & 0x1F)
		rs1 := isa.Register((word >> 12) & 0x1F)
		rs2 := isa.Register((word >> 17) & 0x1F)
		return fmt.Sprintf("%s %s, %s, %s", mnemonic, rd, rs1, rs2), nil

	case isa.ModeDirectLoad:
		rd := isa.Register((word >> 7) & 0x1F)
		value := signExtend((word>>12)&0xFFFFF, isa.Imm20Size)
		return fmt.Sprintf("%s %s, 0x%X", mnemonic, rd, value), nil

	default:
		return "", fmt.Errorf("unhandled addressing mode for opcode %s", mnemonic)
	}
}
