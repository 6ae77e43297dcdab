// Package journal renders a simulator run as three plain-text logs —
// memory.txt, execution.txt, output.txt — the way the original toolchain's
// format_number.py/format_instruction.py render values for its own logs.
// The teacher carries no structured-logging dependency of its own (its CLI
// reports progress via plain fmt.Fprintf — see cmd/m2sim/main.go), so this
// package follows that lead rather than reaching for one.
package journal

import (
	"fmt"
	"strconv"
	"strings"
)

// NumberFormat selects how FormatWord renders a value.
type NumberFormat string

const (
	Binary      NumberFormat = "bin"
	Decimal     NumberFormat = "dec"
	Hexadecimal NumberFormat = "hex"
)

// FormatWord renders value as a zero-padded string in the given format and
// bit width, mirroring format_number.py: negative values are folded into
// their bitsize-wide two's-complement form before binary/hex rendering, and
// decimal padding matches the width of the largest unsigned value that fits
// in bitsize bits.
func FormatWord(value int64, format NumberFormat, bitsize int) (string, error) {
	v := value
	if v < 0 && (format == Binary || format == Hexadecimal) {
		v += int64(1) << uint(bitsize)
	}

	switch format {
	case Binary:
		return fmt.Sprintf("%0*s", bitsize, strconv.FormatInt(v, 2)), nil
	case Decimal:
		maxVal := int64(1)<<uint(bitsize) - 1
		width := len(strconv.FormatInt(maxVal, 10))
		return fmt.Sprintf("%0*s", width, strconv.FormatInt(v, 10)), nil
	case Hexadecimal:
		width := (bitsize + 3) / 4
		return fmt.Sprintf("%0*s", width, strconv.FormatInt(v, 16)), nil
	default:
		return "", fmt.Errorf("unknown number format %q", format)
	}
}

// boolBit renders a boolean flag as FormatWord would render 0 or 1.
func boolBit(v bool) int64 {
	if v {
		return 1
	}
	return 0
}

// field is one "NAME:format:bitsize" token parsed out of a journal_fmt
// string, e.g. "PC:hex:32" or "Z:bin:1".
type field struct {
	name    string
	format  NumberFormat
	bitsize int
}

// parseFields splits a journal_fmt string ("PC:hex:32 Z:bin:1 ...") into its
// component fields.
func parseFields(spec string) ([]field, error) {
	var fields []field
	for _, tok := range strings.Fields(spec) {
		parts := strings.Split(tok, ":")
		if len(parts) != 3 {
			return nil, fmt.Errorf("malformed journal field %q, want NAME:format:bitsize", tok)
		}
		bitsize, err := strconv.Atoi(parts[2])
		if err != nil || bitsize <= 0 || bitsize > 64 {
			return nil, fmt.Errorf("malformed journal field %q: bad bitsize", tok)
		}
		format := NumberFormat(parts[1])
		if format != Binary && format != Decimal && format != Hexadecimal {
			return nil, fmt.Errorf("malformed journal field %q: unknown format %q", tok, parts[1])
		}
		fields = append(fields, field{name: parts[0], format: format, bitsize: bitsize})
	}
	return fields, nil
}
