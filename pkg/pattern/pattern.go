// Package pattern provides the immutable symbol sequences played by the
// sequencer.
package pattern

import (
	"errors"
	"fmt"
	"strings"
)

// Symbol is one element of a pattern.
type Symbol byte

// Symbols
const (
	// Sentinel terminates a pattern. It is never emitted.
	Sentinel Symbol = 0
	// High asserts the output.
	High Symbol = '='
	// Low releases the output.
	Low Symbol = '.'
)

// IsValid indicates the symbol can be emitted.
func (s Symbol) IsValid() bool {
	return s == High || s == Low
}

// String implements fmt.Stringer.
func (s Symbol) String() string {
	switch s {
	case High:
		return "HIGH"
	case Low:
		return "LOW"
	case Sentinel:
		return "END"
	}
	return fmt.Sprintf("Symbol(%#x)", byte(s))
}

var (
	// ErrEmpty indicates a pattern without any symbol.
	ErrEmpty = errors.New("empty pattern")
)

// SymbolError reports a character outside the pattern alphabet.
type SymbolError struct {
	Pos  int
	Char rune
}

// Error implements error.
func (e *SymbolError) Error() string {
	return fmt.Sprintf("invalid symbol %q at %d", e.Char, e.Pos)
}

// Pattern is a sentinel terminated sequence of symbols.
// The zero value is not usable, use Parse.
type Pattern struct {
	symbols []Symbol
}

// Parse builds a Pattern from its literal form, e.g. "=.=.".
func Parse(s string) (Pattern, error) {
	if s == "" {
		return Pattern{}, ErrEmpty
	}
	symbols := make([]Symbol, 0, len(s)+1)
	for pos, ch := range s {
		sym := Symbol(ch)
		if ch > 0x7f || !sym.IsValid() {
			return Pattern{}, &SymbolError{Pos: pos, Char: ch}
		}
		symbols = append(symbols, sym)
	}
	return Pattern{symbols: append(symbols, Sentinel)}, nil
}

// MustParse is Parse but panics on error.
func MustParse(s string) Pattern {
	p, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return p
}

// Len returns the number of emitted symbols, the sentinel excluded.
func (p Pattern) Len() int {
	if len(p.symbols) == 0 {
		return 0
	}
	return len(p.symbols) - 1
}

// At returns the symbol at index i. Any index outside [0, Len()) reads
// the sentinel.
func (p Pattern) At(i int) Symbol {
	if i < 0 || i >= len(p.symbols) {
		return Sentinel
	}
	return p.symbols[i]
}

// IsSentinel indicates index i is the restart position.
func (p Pattern) IsSentinel(i int) bool {
	return p.At(i) == Sentinel
}

// Symbols returns a copy of the emitted symbols.
func (p Pattern) Symbols() []Symbol {
	if p.Len() == 0 {
		return nil
	}
	return append([]Symbol(nil), p.symbols[:p.Len()]...)
}

// String returns the literal form.
func (p Pattern) String() string {
	var b strings.Builder
	for _, sym := range p.Symbols() {
		b.WriteByte(byte(sym))
	}
	return b.String()
}
