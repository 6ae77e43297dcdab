// Package config loads the YAML configuration that drives one run of the
// simulator: memory size, tick budget, pre-scheduled input tokens, and log
// formatting. Shaped after the teacher's timing/latency.TimingConfig
// Load/Save/Validate trio, generalized from JSON to YAML.
package config

import (
	"fmt"
	"os"

	yaml "go.yaml.in/yaml/v3"
)

// OutputFormat selects how machine output (bytes written to the output
// port) is rendered.
type OutputFormat string

const (
	OutputStr OutputFormat = "str"
	OutputNum OutputFormat = "num"
)

// Token is one scheduled input byte: at tick Tick, Value appears at
// isa.InputAddr and an INPUT_DATA interrupt is raised.
type Token struct {
	Tick  int64
	Value byte
}

// UnmarshalYAML accepts the compact `[tick, "a"]` or `[tick, 97]` shape from
// the config file and decodes it into a Token.
func (t *Token) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var pair [2]interface{}
	if err := unmarshal(&pair); err != nil {
		return fmt.Errorf("decoding token: %w", err)
	}

	tick, ok := pair[0].(int)
	if !ok {
		return fmt.Errorf("token tick must be an integer, got %T", pair[0])
	}
	t.Tick = int64(tick)

	switch v := pair[1].(type) {
	case string:
		if len(v) != 1 {
			return fmt.Errorf("token value %q must be exactly one character", v)
		}
		t.Value = v[0]
	case int:
		if v < 0 || v > 255 {
			return fmt.Errorf("token value %d out of byte range", v)
		}
		t.Value = byte(v)
	default:
		return fmt.Errorf("token value must be a one-character string or a byte, got %T", pair[1])
	}
	return nil
}

// MachineConfig bounds the simulated machine's memory and execution budget.
type MachineConfig struct {
	MemorySize int   `yaml:"memory_size"`
	TicksLimit int64 `yaml:"ticks_limit"`
}

// MemIOConfig schedules input and selects how I/O is rendered in logs.
type MemIOConfig struct {
	Tokens    []Token      `yaml:"tokens"`
	OutputFmt OutputFormat `yaml:"output_fmt"`
}

// Config is the full simulator run configuration.
type Config struct {
	Machine    MachineConfig `yaml:"machine"`
	MemIO      MemIOConfig   `yaml:"memio"`
	JournalFmt string        `yaml:"journal_fmt"`
}

// Default returns a Config with conservative defaults: 64KB of memory, a
// million-tick budget, no scheduled input, string-formatted output, and a
// journal line that prints PC, S1, and the four flags.
func Default() *Config {
	return &Config{
		Machine: MachineConfig{
			MemorySize: 65536,
			TicksLimit: 1000000,
		},
		MemIO: MemIOConfig{
			OutputFmt: OutputStr,
		},
		JournalFmt: "PC:hex:32 S1:dec:32 Z:bin:1 N:bin:1 V:bin:1 C:bin:1",
	}
}

// Load reads and parses a YAML config file, filling in Default() for any
// field the file omits.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes cfg to path as YAML.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("serializing config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

// Validate rejects a config that could never drive a useful run.
func (c *Config) Validate() error {
	if c.Machine.MemorySize <= 0 {
		return fmt.Errorf("machine.memory_size must be > 0")
	}
	if c.Machine.MemorySize%4 != 0 {
		return fmt.Errorf("machine.memory_size must be a multiple of 4 (whole words), got %d", c.Machine.MemorySize)
	}
	if c.MemIO.OutputFmt != "" && c.MemIO.OutputFmt != OutputStr && c.MemIO.OutputFmt != OutputNum {
		return fmt.Errorf("memio.output_fmt must be %q or %q, got %q", OutputStr, OutputNum, c.MemIO.OutputFmt)
	}
	seen := map[int64]bool{}
	for _, tok := range c.MemIO.Tokens {
		if seen[tok.Tick] {
			return fmt.Errorf("duplicate input token scheduled at tick %d", tok.Tick)
		}
		seen[tok.Tick] = true
	}
	return nil
}

// TokenMap flattens MemIO.Tokens into the tick->byte form
// machine/control.ControlUnit.InputTokens expects.
func (c *Config) TokenMap() map[int64]byte {
	m := make(map[int64]byte, len(c.MemIO.Tokens))
	for _, tok := range c.MemIO.Tokens {
		m[tok.Tick] = tok.Value
	}
	return m
}
