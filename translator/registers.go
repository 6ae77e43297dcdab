package translator

import "github.com/csa-toolchain/csam/isa"

// registerManager maps each occupied register to its variable label,
// grounded on translator.py's RegistersManager. The map is one-way:
// registerByLabel finds a label's register by scanning it.
type registerManager struct {
	occupied map[isa.Register]string
}

func newRegisterManager() *registerManager {
	return &registerManager{occupied: map[isa.Register]string{}}
}

func (r *registerManager) registerByLabel(label string) (isa.Register, bool) {
	for reg, l := range r.occupied {
		if l == label {
			return reg, true
		}
	}
	return 0, false
}

func (r *registerManager) findFreeTemp() (isa.Register, bool) {
	for _, reg := range isa.TempRegisters {
		if _, used := r.occupied[reg]; !used {
			return reg, true
		}
	}
	return 0, false
}

func (r *registerManager) findFreeSaved() (isa.Register, bool) {
	for _, reg := range isa.SavedRegisters {
		if _, used := r.occupied[reg]; !used {
			return reg, true
		}
	}
	return 0, false
}

func (r *registerManager) take(reg isa.Register, label string) error {
	if _, used := r.occupied[reg]; used {
		return &RegisterError{Msg: reg.String() + " is not free"}
	}
	if label == "" {
		label = syntheticLabel("literal", len(r.occupied))
	}
	r.occupied[reg] = label
	return nil
}

func (r *registerManager) free(reg isa.Register) error {
	if _, used := r.occupied[reg]; !used {
		return &RegisterError{Msg: reg.String() + " is not in use"}
	}
	delete(r.occupied, reg)
	return nil
}

// freeTemp releases reg if it is one of the temp registers; it is a no-op
// for any other register (result/saved registers are released explicitly
// by their owning lowering routine), matching free_temp_register(strict=False).
func (r *registerManager) freeTemp(reg isa.Register) {
	for _, t := range isa.TempRegisters {
		if t == reg {
			delete(r.occupied, reg)
			return
		}
	}
}

func (r *registerManager) isTemp(reg isa.Register) bool {
	for _, t := range isa.TempRegisters {
		if t == reg {
			return true
		}
	}
	return false
}
