package pattern

import (
	"errors"
	"strings"
	"unicode"
)

// ErrNoCycle indicates a signal doesn't repeat at least twice.
var ErrNoCycle = errors.New("no repeating cycle in signal")

// Assembler rebuilds the pattern a sequencer plays from its steps. A
// cycle is complete when the cursor reaches the sentinel or wraps to 0.
type Assembler struct {
	symbols  []Symbol
	tracking bool
}

// Add records the symbol read at cursor. It returns the pattern once a
// whole cycle was observed without gaps.
func (a *Assembler) Add(cursor int, sym Symbol) (Pattern, bool) {
	switch {
	case sym == Sentinel:
		p, ok := a.complete(cursor)
		a.symbols, a.tracking = a.symbols[:0], true
		return p, ok
	case cursor == 0:
		p, ok := a.complete(len(a.symbols))
		a.symbols, a.tracking = append(a.symbols[:0], sym), true
		return p, ok
	case !a.tracking:
	case cursor != len(a.symbols):
		// Steps were missed, start over.
		a.symbols, a.tracking = a.symbols[:0], false
	default:
		a.symbols = append(a.symbols, sym)
	}
	return Pattern{}, false
}

// Reset drops the partial cycle.
func (a *Assembler) Reset() {
	a.symbols, a.tracking = a.symbols[:0], false
}

func (a *Assembler) complete(n int) (Pattern, bool) {
	if !a.tracking || n == 0 || n != len(a.symbols) {
		return Pattern{}, false
	}
	symbols := make([]Symbol, n, n+1)
	copy(symbols, a.symbols)
	return Pattern{symbols: append(symbols, Sentinel)}, true
}

// Capture renders output levels as a pattern literal.
func Capture(levels []bool) string {
	var sb strings.Builder
	for _, high := range levels {
		if high {
			sb.WriteByte(byte(High))
		} else {
			sb.WriteByte(byte(Low))
		}
	}
	return sb.String()
}

// Recover finds the shortest cycle of a sampled signal, one sample per
// period. Samples are '1' or '=' for high and '0' or '.' for low; white
// space is ignored. The cycle starts at the first sample and must repeat
// at least twice. Under the next-tick restart the cycle includes the
// level held while the sequencer rewinds.
func Recover(signal string) (Pattern, error) {
	var samples []Symbol
	for pos, r := range signal {
		switch {
		case r == '1' || r == rune(High):
			samples = append(samples, High)
		case r == '0' || r == rune(Low):
			samples = append(samples, Low)
		case unicode.IsSpace(r):
		default:
			return Pattern{}, &SymbolError{Pos: pos, Char: r}
		}
	}
	if len(samples) == 0 {
		return Pattern{}, ErrEmpty
	}
	for n := 1; n*2 <= len(samples); n++ {
		if isCycle(samples, n) {
			symbols := make([]Symbol, n, n+1)
			copy(symbols, samples)
			return Pattern{symbols: append(symbols, Sentinel)}, nil
		}
	}
	return Pattern{}, ErrNoCycle
}

func isCycle(samples []Symbol, n int) bool {
	for i := n; i < len(samples); i++ {
		if samples[i] != samples[i-n] {
			return false
		}
	}
	return true
}
