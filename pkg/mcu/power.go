package mcu

import "fmt"

// SleepMode is the SM2..0 selection in SMCR.
type SleepMode byte

// Sleep modes
const (
	// SleepIdle stops clkCPU only, all peripherals keep running.
	SleepIdle SleepMode = 0
	// SleepPowerDown stops all clocks except the watchdog oscillator.
	SleepPowerDown SleepMode = 2
)

// String implements fmt.Stringer.
func (m SleepMode) String() string {
	switch m {
	case SleepIdle:
		return "idle"
	case SleepPowerDown:
		return "power-down"
	}
	return fmt.Sprintf("SleepMode(%d)", byte(m))
}

// ParseSleepMode parses the name of a sleep mode.
func ParseSleepMode(s string) (SleepMode, error) {
	switch s {
	case "idle":
		return SleepIdle, nil
	case "power-down", "pwr-down", "powerdown":
		return SleepPowerDown, nil
	}
	return 0, fmt.Errorf("unknown sleep mode %q", s)
}

// Deeper indicates m stops more clocks than other.
func (m SleepMode) Deeper(other SleepMode) bool {
	return m.rank() > other.rank()
}

func (m SleepMode) rank() int {
	if m == SleepPowerDown {
		return 1
	}
	return 0
}

// SMCR bits
const (
	SE  = 1 << 0
	SM0 = 1 << 1
	SM1 = 1 << 2
	SM2 = 1 << 3
)

// Domain is a clock domain.
type Domain byte

// Clock domains
const (
	// DomainIO is clkI/O, derived from the main system clock.
	DomainIO Domain = iota
	// DomainWatchdog is the independent 128 kHz watchdog oscillator.
	DomainWatchdog
)

// String implements fmt.Stringer.
func (d Domain) String() string {
	switch d {
	case DomainIO:
		return "clkIO"
	case DomainWatchdog:
		return "clkWDT"
	}
	return fmt.Sprintf("Domain(%d)", byte(d))
}

// RunsIn indicates the domain keeps its clock in the sleep mode.
func (d Domain) RunsIn(mode SleepMode) bool {
	if d == DomainWatchdog {
		return true
	}
	return mode == SleepIdle
}

// Peripheral is a bit in the power reduction register.
type Peripheral byte

// PRR bits
const (
	PRADC    Peripheral = 0
	PRUSART0 Peripheral = 1
	PRSPI    Peripheral = 2
	PRTIM1   Peripheral = 3
	PRTIM0   Peripheral = 5
	PRTIM2   Peripheral = 6
	PRTWI    Peripheral = 7
)

// PRRAll sets every implemented bit in PRR.
const PRRAll byte = 0xef

// String implements fmt.Stringer.
func (p Peripheral) String() string {
	switch p {
	case PRADC:
		return "adc"
	case PRUSART0:
		return "usart0"
	case PRSPI:
		return "spi"
	case PRTIM1:
		return "timer1"
	case PRTIM0:
		return "timer0"
	case PRTIM2:
		return "timer2"
	case PRTWI:
		return "twi"
	}
	return fmt.Sprintf("Peripheral(%d)", byte(p))
}
