package translator

import "fmt"

// memoryManager tracks every named and anonymous memory-resident value the
// translator has allocated, in insertion order (Go maps don't preserve
// order, but the layout pass needs deterministic placement), plus the
// shared I/O buffer used by print/input (its pointers only advance; they
// never wrap). Grounded on
// translator.py's MemoryManager.
type memoryManager struct {
	constants     map[string]*Variable
	constantOrder []string
	variables     map[string]*Variable
	variableOrder []string

	// ioWriteAddr and ioReadAddr are genuinely distinct pointer cells into
	// ioData: the input_int handler advances ioWriteAddr as characters
	// arrive, read_word advances ioReadAddr as the program consumes them.
	// The original collapses all three to one address; see DESIGN.md.
	ioWriteAddr *int32
	ioReadAddr  *int32
	ioData      *Variable
}

const ioBufferSize = 1024

func newMemoryManager() *memoryManager {
	ioWriteAddr := new(int32)
	*ioWriteAddr = -1
	ioReadAddr := new(int32)
	*ioReadAddr = -1

	m := &memoryManager{
		constants:   map[string]*Variable{},
		variables:   map[string]*Variable{},
		ioWriteAddr: ioWriteAddr,
		ioReadAddr:  ioReadAddr,
	}
	buf := make([]byte, ioBufferSize)
	for i := range buf {
		buf[i] = '0'
	}
	m.ioData = &Variable{Addr: -1, Value: string(buf)}
	return m
}

func (m *memoryManager) getVariable(label string) *Variable {
	if v, ok := m.constants[label]; ok {
		return v
	}
	if v, ok := m.variables[label]; ok {
		return v
	}
	return nil
}

func (m *memoryManager) createConstant(label string, value any) *Variable {
	if label == "" {
		label = syntheticLabel("literal", len(m.constants))
	}
	v := &Variable{Label: label, Addr: -1, Value: value}
	m.constants[label] = v
	m.constantOrder = append(m.constantOrder, label)
	return v
}

// aliasVariable registers an already-pooled Variable (typically the
// anonymous constant translateInput's multi-word path wrote the runtime
// input characters into) under an additional name, without allocating new
// memory for it — binding the name to the SAME address rather than copying
// its compile-time placeholder value. Only m.variables is updated; the
// original constant stays the variable's sole placement, so the layout
// pass and Translate's emission loop see it exactly once.
func (m *memoryManager) aliasVariable(label string, v *Variable) {
	m.variables[label] = v
}

func (m *memoryManager) createVariable(label string, value any) *Variable {
	if label == "" {
		label = syntheticLabel("literal", len(m.variables))
	}
	v := &Variable{Label: label, Addr: -1, Value: value}
	m.variables[label] = v
	m.variableOrder = append(m.variableOrder, label)
	return v
}

func syntheticLabel(prefix string, n int) string {
	return fmt.Sprintf("%s_%d", prefix, n)
}
