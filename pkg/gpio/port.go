// Package gpio drives the digital output carrying the pattern.
package gpio

import (
	"fmt"

	"github.com/robotalks/beacon/pkg/mcu"
)

// Pin is a digital output.
type Pin interface {
	// Set drives the pin high (true) or low (false).
	Set(high bool)
	// Get reads the level currently driven.
	Get() bool
}

// Port is an I/O port with its data direction and output registers.
type Port struct {
	Name string
	DDR  mcu.Reg8
	PORT mcu.Reg8
}

// NewPort creates a Port, e.g. NewPort("B").
func NewPort(name string) *Port {
	return &Port{Name: name}
}

// Pin returns the pin with index n.
func (p *Port) Pin(n uint) *PortPin {
	return &PortPin{Port: p, Bit: n}
}

// PortPin is a pin of a Port.
type PortPin struct {
	Port *Port
	Bit  uint
}

// Configure sets the pin as an output, DDRxn = 1.
func (p *PortPin) Configure() {
	p.Port.DDR.SetBits(mcu.BV(p.Bit))
}

// IsOutput indicates the pin is configured as an output.
func (p *PortPin) IsOutput() bool {
	return p.Port.DDR.HasBits(mcu.BV(p.Bit))
}

// Set implements Pin.
func (p *PortPin) Set(high bool) {
	if high {
		p.Port.PORT.SetBits(mcu.BV(p.Bit))
	} else {
		p.Port.PORT.ClearBits(mcu.BV(p.Bit))
	}
}

// Get implements Pin. An input pin never drives high; its PORT bit only
// enables the pull-up.
func (p *PortPin) Get() bool {
	return p.IsOutput() && p.Port.PORT.HasBits(mcu.BV(p.Bit))
}

// Name returns the pin name, e.g. PB5.
func (p *PortPin) Name() string {
	return fmt.Sprintf("P%s%d", p.Port.Name, p.Bit)
}
