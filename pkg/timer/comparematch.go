package timer

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/robotalks/beacon/pkg/mcu"
)

// TCCR1B bits
const (
	CS10  = 1 << 0
	CS11  = 1 << 1
	CS12  = 1 << 2
	WGM12 = 1 << 3
	WGM13 = 1 << 4
)

// TIMSK1 bits
const (
	TOIE1  = 1 << 0
	OCIE1A = 1 << 1
)

// Prescaler is a Timer/Counter1 clock divider.
type Prescaler uint16

// Prescalers in ascending order.
var Prescalers = []Prescaler{1, 8, 64, 256, 1024}

// ClockSelect returns the CS12..10 bits, 0 for an invalid ratio.
func (p Prescaler) ClockSelect() byte {
	switch p {
	case 1:
		return CS10
	case 8:
		return CS11
	case 64:
		return CS11 | CS10
	case 256:
		return CS12
	case 1024:
		return CS12 | CS10
	}
	return 0
}

// PrescalerFromClockSelect decodes CS12..10; ok is false when the
// counter is stopped or clocked externally.
func PrescalerFromClockSelect(cs byte) (Prescaler, bool) {
	switch cs & (CS12 | CS11 | CS10) {
	case CS10:
		return 1, true
	case CS11:
		return 8, true
	case CS11 | CS10:
		return 64, true
	case CS12:
		return 256, true
	case CS12 | CS10:
		return 1024, true
	}
	return 0, false
}

// CompareMatchSetting is a divider and threshold pairing.
type CompareMatchSetting struct {
	ClockHz   uint32
	Prescaler Prescaler
	Top       uint16
}

// Period returns the interval between matches in CTC mode.
func (s CompareMatchSetting) Period() time.Duration {
	return ctcPeriod(s.ClockHz, s.Prescaler, uint32(s.Top)+1)
}

// String implements fmt.Stringer.
func (s CompareMatchSetting) String() string {
	return fmt.Sprintf("clk/%d OCR1A=%#04x (%v)", s.Prescaler, s.Top, s.Period())
}

func ctcPeriod(clockHz uint32, prescaler Prescaler, counts uint32) time.Duration {
	if clockHz == 0 {
		return 0
	}
	ticks := uint64(counts) * uint64(prescaler)
	return time.Duration(ticks * uint64(time.Second) / uint64(clockHz))
}

// SolveCompareMatch finds the finest prescaler whose threshold fits the
// 16-bit counter: top = clockHz * period / prescaler - 1.
func SolveCompareMatch(clockHz uint32, period time.Duration) (CompareMatchSetting, error) {
	if clockHz == 0 || period <= 0 {
		return CompareMatchSetting{}, fmt.Errorf("invalid clock %d Hz or period %v", clockHz, period)
	}
	if uint64(period) > math.MaxUint64/uint64(clockHz) {
		return CompareMatchSetting{}, fmt.Errorf("period %v too long for %d Hz", period, clockHz)
	}
	for _, p := range Prescalers {
		// rounded clockHz * period / (prescaler * 1s)
		den := uint64(p) * uint64(time.Second)
		counts := (uint64(clockHz)*uint64(period) + den/2) / den
		if counts == 0 {
			return CompareMatchSetting{}, fmt.Errorf("period %v too short for %d Hz", period, clockHz)
		}
		if counts <= 1<<16 {
			return CompareMatchSetting{ClockHz: clockHz, Prescaler: p, Top: uint16(counts - 1)}, nil
		}
	}
	return CompareMatchSetting{}, fmt.Errorf("period %v too long for %d Hz", period, clockHz)
}

// CompareMatch is Timer/Counter1 in CTC mode firing TIMER1_COMPA.
// The period is derived from its registers, so a wrong divider/threshold
// pairing silently yields a wrong period.
type CompareMatch struct {
	Setting CompareMatchSetting

	TCCR1B mcu.Reg8
	TIMSK1 mcu.Reg8
	OCR1A  mcu.Reg16
	TCNT1  mcu.Reg16

	counter
}

// NewCompareMatch creates the source for a setting.
func NewCompareMatch(s CompareMatchSetting, clk clock.Clock) *CompareMatch {
	return &CompareMatch{Setting: s, counter: newCounter(clk)}
}

// Name implements Source.
func (t *CompareMatch) Name() string {
	return NameCompareMatch
}

// Domain implements Source.
func (t *CompareMatch) Domain() mcu.Domain {
	return mcu.DomainIO
}

// Peripheral implements Source.
func (t *CompareMatch) Peripheral() (mcu.Peripheral, bool) {
	return mcu.PRTIM1, true
}

// Attach implements Source.
func (t *CompareMatch) Attach(core *mcu.Core, isr mcu.ISR) {
	t.core = core
	core.SetVector(mcu.VectorTimer1CompA, isr)
	core.Cycle()
	t.OCR1A.Set(t.Setting.Top)
	core.Cycle()
	t.TCCR1B.SetBits(t.Setting.Prescaler.ClockSelect() | WGM12)
	core.Cycle()
	t.TIMSK1.SetBits(OCIE1A)
	core.Cycle()
	t.TCNT1.Set(0)
}

// Period implements Source.
func (t *CompareMatch) Period() time.Duration {
	tccr := t.TCCR1B.Get()
	prescaler, ok := PrescalerFromClockSelect(tccr)
	if !ok {
		return 0
	}
	counts := uint32(1) << 16
	if tccr&WGM12 != 0 {
		counts = uint32(t.OCR1A.Get()) + 1
	}
	return ctcPeriod(t.Setting.ClockHz, prescaler, counts)
}

// Fire implements Source. A match raises the interrupt when OCIE1A is set.
func (t *CompareMatch) Fire() {
	t.TCNT1.Set(0)
	if t.TIMSK1.HasBits(OCIE1A) {
		t.raise(t, mcu.VectorTimer1CompA)
	}
}

// Run implements Source.
func (t *CompareMatch) Run(ctx context.Context) error {
	return t.run(ctx, t)
}
