package translator

import (
	"fmt"

	"github.com/csa-toolchain/csam/encoding"
	"github.com/csa-toolchain/csam/isa"
)

// instrKind names one instruction_set.py class; lazyInstruction defers
// encoding until every Variable/address cell it references has been placed
// by the layout pass.
type instrKind int

const (
	kindLUI instrKind = iota
	kindLLI
	kindLW
	kindSW
	kindLWR
	kindSWR
	kindMV
	kindADD
	kindADDI
	kindSUB
	kindMUL
	kindDIV
	kindREM
	kindNEG
	kindAND
	kindOR
	kindXOR
	kindNOT
	kindSHL
	kindSHR
	kindCMP
	kindJR
	kindJAL
	kindJO
	kindJZ
	kindJNZ
	kindSETEQ
	kindSETNE
	kindSETGE
	kindSETLE
	kindSETSG
	kindSETSL
	kindReti
	kindHalt
)

// arg is one operand of a lazyInstruction: either a register, a value known
// at construction time, or a cell/Variable whose address is resolved only
// after layout.
type arg interface{ isArg() }

type regArg struct{ Reg isa.Register }
type immArg struct{ Value int64 }
type addrCellArg struct{ Cell *int32 }
type varRefArg struct {
	Var    *Variable
	Offset int32
}

func (regArg) isArg()     {}
func (immArg) isArg()     {}
func (addrCellArg) isArg() {}
func (varRefArg) isArg()  {}

func newOffsetArg(v int32) addrCellArg {
	cell := new(int32)
	*cell = v
	return addrCellArg{Cell: cell}
}

func resolveReg(a arg) (isa.Register, error) {
	r, ok := a.(regArg)
	if !ok {
		return 0, fmt.Errorf("translator: expected register operand, got %T", a)
	}
	return r.Reg, nil
}

func resolveValue(a arg) (int64, error) {
	switch v := a.(type) {
	case immArg:
		return v.Value, nil
	case addrCellArg:
		return int64(*v.Cell), nil
	case varRefArg:
		return int64(v.Var.Addr) + int64(v.Offset), nil
	default:
		return 0, fmt.Errorf("translator: expected value operand, got %T", a)
	}
}

// lazyInstruction is one not-yet-encoded instruction plus bookkeeping
// metadata used by branch/loop patching (mirrors LazyInstruction.metainfo).
type lazyInstruction struct {
	kind instrKind
	args []arg
	meta map[string]any
}

func (li *lazyInstruction) setMeta(k string, v any) {
	if li.meta == nil {
		li.meta = map[string]any{}
	}
	li.meta[k] = v
}

func (li *lazyInstruction) getMeta(k string) any {
	if li.meta == nil {
		return nil
	}
	return li.meta[k]
}

// offsetCell returns the mutable cell backing a relative-jump instruction's
// sole argument, for backward/forward patch resolution.
func (li *lazyInstruction) offsetCell() *int32 {
	a, ok := li.args[0].(addrCellArg)
	if !ok {
		return nil
	}
	return a.Cell
}

func (li *lazyInstruction) produce() (uint32, error) {
	switch li.kind {
	case kindLUI, kindLLI, kindADDI:
		rd, err := resolveReg(li.args[0])
		if err != nil {
			return 0, err
		}
		val, err := resolveValue(li.args[1])
		if err != nil {
			return 0, err
		}
		// LUI carries only the upper half; the control unit shifts it back
		// left by 16 and adds it to what the preceding LLI loaded.
		if li.kind == kindLUI {
			val >>= 16
		}
		op := map[instrKind]isa.Opcode{kindLUI: isa.OpLUI, kindLLI: isa.OpLLI, kindADDI: isa.OpADDI}[li.kind]
		return encoding.ImmInstruction{Op: op, Rd: rd, Value: val}.Bits()

	case kindLW, kindSW:
		rd, err := resolveReg(li.args[0])
		if err != nil {
			return 0, err
		}
		addr, err := resolveValue(li.args[1])
		if err != nil {
			return 0, err
		}
		op := isa.OpLW
		if li.kind == kindSW {
			op = isa.OpSW
		}
		return encoding.AbsAddrInstruction{Op: op, Rd: rd, Addr: addr}.Bits()

	case kindLWR, kindSWR, kindMV, kindNEG, kindNOT, kindCMP:
		rd, err := resolveReg(li.args[0])
		if err != nil {
			return 0, err
		}
		rs, err := resolveReg(li.args[1])
		if err != nil {
			return 0, err
		}
		op := map[instrKind]isa.Opcode{
			kindLWR: isa.OpLWR, kindSWR: isa.OpSWR, kindMV: isa.OpMV,
			kindNEG: isa.OpNEG, kindNOT: isa.OpNOT, kindCMP: isa.OpCMP,
		}[li.kind]
		return encoding.Reg2Instruction{Op: op, Rd: rd, Rs: rs}.Bits()

	case kindADD, kindSUB, kindMUL, kindDIV, kindREM, kindAND, kindOR, kindXOR, kindSHL, kindSHR:
		rd, err := resolveReg(li.args[0])
		if err != nil {
			return 0, err
		}
		rs1, err := resolveReg(li.args[1])
		if err != nil {
			return 0, err
		}
		rs2, err := resolveReg(li.args[2])
		if err != nil {
			return 0, err
		}
		op := map[instrKind]isa.Opcode{
			kindADD: isa.OpADD, kindSUB: isa.OpSUB, kindMUL: isa.OpMUL, kindDIV: isa.OpDIV,
			kindREM: isa.OpREM, kindAND: isa.OpAND, kindOR: isa.OpOR, kindXOR: isa.OpXOR,
			kindSHL: isa.OpSHL, kindSHR: isa.OpSHR,
		}[li.kind]
		return encoding.Reg3Instruction{Op: op, Rd: rd, Rs1: rs1, Rs2: rs2}.Bits()

	case kindJR:
		rd, err := resolveReg(li.args[0])
		if err != nil {
			return 0, err
		}
		return encoding.Reg1Instruction{Op: isa.OpJR, Rd: rd}.Bits()

	case kindJAL:
		rd, err := resolveReg(li.args[0])
		if err != nil {
			return 0, err
		}
		addr, err := resolveValue(li.args[1])
		if err != nil {
			return 0, err
		}
		return encoding.AbsAddrInstruction{Op: isa.OpJAL, Rd: rd, Addr: addr}.Bits()

	case kindJO, kindJZ, kindJNZ:
		off, err := resolveValue(li.args[0])
		if err != nil {
			return 0, err
		}
		op := map[instrKind]isa.Opcode{kindJO: isa.OpJO, kindJZ: isa.OpJZ, kindJNZ: isa.OpJNZ}[li.kind]
		return encoding.RelativeAddrInstruction{Op: op, Offset: off}.Bits()

	case kindSETEQ, kindSETNE, kindSETGE, kindSETLE, kindSETSG, kindSETSL:
		rd, err := resolveReg(li.args[0])
		if err != nil {
			return 0, err
		}
		op := map[instrKind]isa.Opcode{
			kindSETEQ: isa.OpSETEQ, kindSETNE: isa.OpSETNE, kindSETGE: isa.OpSETGE,
			kindSETLE: isa.OpSETLE, kindSETSG: isa.OpSETSG, kindSETSL: isa.OpSETSL,
		}[li.kind]
		return encoding.Reg1Instruction{Op: op, Rd: rd}.Bits()

	case kindReti:
		return encoding.NoAddrInstruction{Op: isa.OpRETI}.Bits()
	case kindHalt:
		return encoding.NoAddrInstruction{Op: isa.OpHALT}.Bits()
	}

	return 0, fmt.Errorf("translator: unhandled instruction kind %d", li.kind)
}
