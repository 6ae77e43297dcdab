// Package driver wires memory, the control unit, and the optional
// instruction cache together and runs one machine image to completion.
// Grounded on cmd/m2sim/main.go's runEmulation/runTiming split — collapsed
// to one path since this machine has no separate timing-simulation mode,
// and on emu.Emulator.Run()'s halt-loop shape.
package driver

import (
	"errors"
	"fmt"

	"github.com/csa-toolchain/csam/config"
	"github.com/csa-toolchain/csam/isa"
	"github.com/csa-toolchain/csam/journal"
	"github.com/csa-toolchain/csam/machine/cache"
	"github.com/csa-toolchain/csam/machine/control"
	"github.com/csa-toolchain/csam/machine/memory"
)

// Result summarizes a completed run.
type Result struct {
	// Halted is true if the program stopped cleanly via HALT; false means
	// the tick budget ran out.
	Halted bool
	Ticks  int64
	// Output holds every byte written to isa.OutputAddr, in write order —
	// the original logs every such write rather than deduplicating, so a
	// program that writes the same character twice in a row produces two
	// entries.
	Output []byte
	// CacheStats is the zero value if the instruction cache was disabled.
	CacheStats cache.Statistics
}

// Options configures one RunImage call beyond what config.Config carries:
// ICache enables the optional L1 instruction-cache sidecar, and Journal
// attaches a journal.Journal to receive per-tick, output, and final
// memory-dump records.
type Options struct {
	ICache  bool
	Journal *journal.Journal
}

// RunImage loads image into a fresh memory sized per cfg.Machine.MemorySize,
// drives a control.ControlUnit over it until HALT or the tick budget is
// exhausted, and returns the outcome. It never returns an error for a clean
// HALT or a LimitError — both are reported via the returned Result; other
// failures (a malformed image, an out-of-range memory access) are returned
// as errors.
func RunImage(image []byte, cfg *config.Config, opts Options) (*Result, error) {
	mem, err := memory.NewFromImage(image, cfg.Machine.MemorySize)
	if err != nil {
		return nil, fmt.Errorf("loading image: %w", err)
	}

	cu := control.New(mem)
	cu.SetTicksLimit(cfg.Machine.TicksLimit)
	cu.InputTokens = cfg.TokenMap()

	var ic *cache.Cache
	if opts.ICache {
		ic = cache.New(cache.DefaultL1IConfig(), cache.NewMemoryBacking(mem))
	}

	result := &Result{}

	cu.OnMemWrite = func(addr int32, value uint32) {
		if addr != isa.OutputAddr {
			return
		}
		b := byte(value)
		result.Output = append(result.Output, b)
		if opts.Journal != nil {
			_ = opts.Journal.RecordOutput(b, cfg.MemIO.OutputFmt == config.OutputNum)
		}
	}

	cu.OnTick = func(state control.TickState) {
		if ic != nil {
			ic.Read(uint64(state.PC)*4, 4)
		}
		if opts.Journal != nil {
			_ = opts.Journal.RecordTick(state)
		}
	}

	runErr := cu.Run()
	result.Ticks = cu.Ticks()
	if ic != nil {
		result.CacheStats = ic.Stats()
	}

	if opts.Journal != nil {
		if err := opts.Journal.DumpMemory(mem); err != nil {
			return nil, fmt.Errorf("writing memory log: %w", err)
		}
	}

	if runErr == nil {
		result.Halted = true
		return result, nil
	}

	var limitErr *control.LimitError
	if errors.As(runErr, &limitErr) {
		result.Halted = false
		return result, nil
	}

	return nil, runErr
}
