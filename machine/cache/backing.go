// Package cache provides an optional L1 instruction-cache sidecar for the
// CSA-32 machine simulator, built on Akita's cache directory component.
// It never changes simulated program behavior: cache.Cache is purely a
// statistics collector that a driver can consult to report hit/miss
// counts and latency, sitting beside the authoritative machine.Memory
// rather than intercepting its accesses.
package cache

import (
	"github.com/csa-toolchain/csam/machine/memory"
)

// MemoryBacking wraps a machine/memory.Memory as a BackingStore, so the
// cache fetches and writes back through the same byte-addressed store the
// control unit executes against.
type MemoryBacking struct {
	memory *memory.Memory
}

// NewMemoryBacking creates a new MemoryBacking adapter.
func NewMemoryBacking(m *memory.Memory) *MemoryBacking {
	return &MemoryBacking{memory: m}
}

// Read fetches data from the backing memory.
func (m *MemoryBacking) Read(addr uint64, size int) []byte {
	data := make([]byte, size)
	for i := 0; i < size; i++ {
		data[i] = m.memory.Read8(int64(addr) + int64(i))
	}
	return data
}

// Write stores data to the backing memory.
func (m *MemoryBacking) Write(addr uint64, data []byte) {
	for i, b := range data {
		m.memory.Write8(int64(addr)+int64(i), b)
	}
}
