package mcu

import "fmt"

// Vector is an interrupt vector number. Lower numbers have higher priority.
type Vector byte

// Interrupt vectors in use.
const (
	VectorWDT         Vector = 6
	VectorTimer1CompA Vector = 11
	VectorADC         Vector = 21

	numVectors = 26
)

// ISR is an interrupt service routine.
type ISR func()

// String implements fmt.Stringer.
func (v Vector) String() string {
	switch v {
	case VectorWDT:
		return "WDT_vect"
	case VectorTimer1CompA:
		return "TIMER1_COMPA_vect"
	case VectorADC:
		return "ADC_vect"
	}
	return fmt.Sprintf("vect%d", byte(v))
}
