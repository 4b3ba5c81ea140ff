package timer

import (
	"context"
	"fmt"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/golang/glog"

	"github.com/robotalks/beacon/pkg/mcu"
)

// WDTCSR bits
const (
	WDP0 = 1 << 0
	WDP1 = 1 << 1
	WDP2 = 1 << 2
	WDE  = 1 << 3
	WDCE = 1 << 4
	WDP3 = 1 << 5
	WDIE = 1 << 6
	WDIF = 1 << 7

	wdpMask = WDP3 | WDP2 | WDP1 | WDP0
)

// WatchdogHz is the nominal frequency of the watchdog oscillator.
const WatchdogHz = 128000

// ChangeWindow is the number of cycles WDCE stays set after arming.
const ChangeWindow = 4

// WatchdogTimeout is the WDP3..0 prescaler selection.
type WatchdogTimeout byte

// MaxWatchdogTimeout is the longest selection, 1024K cycles.
const MaxWatchdogTimeout WatchdogTimeout = 9

// Cycles returns the number of oscillator cycles per timeout.
func (t WatchdogTimeout) Cycles() uint32 {
	return 2048 << t
}

// Period returns the nominal timeout at oscHz.
func (t WatchdogTimeout) Period(oscHz uint32) time.Duration {
	if oscHz == 0 {
		return 0
	}
	return time.Duration(uint64(t.Cycles()) * uint64(time.Second) / uint64(oscHz))
}

// Bits returns the WDP bits in WDTCSR layout.
func (t WatchdogTimeout) Bits() byte {
	b := byte(t) & (WDP2 | WDP1 | WDP0)
	if t&8 != 0 {
		b |= WDP3
	}
	return b
}

// WatchdogTimeoutFromBits decodes the WDP bits of WDTCSR. Reserved
// selections fall back to the longest timeout.
func WatchdogTimeoutFromBits(wdtcsr byte) WatchdogTimeout {
	t := WatchdogTimeout(wdtcsr & (WDP2 | WDP1 | WDP0))
	if wdtcsr&WDP3 != 0 {
		t |= 8
	}
	if t > MaxWatchdogTimeout {
		return MaxWatchdogTimeout
	}
	return t
}

// String implements fmt.Stringer.
func (t WatchdogTimeout) String() string {
	return fmt.Sprintf("WDP=%d (%dK cycles)", byte(t), t.Cycles()/1024)
}

// SolveWatchdog returns the selection nearest to period at oscHz.
func SolveWatchdog(oscHz uint32, period time.Duration) WatchdogTimeout {
	best, bestDiff := WatchdogTimeout(0), time.Duration(-1)
	for t := WatchdogTimeout(0); t <= MaxWatchdogTimeout; t++ {
		diff := t.Period(oscHz) - period
		if diff < 0 {
			diff = -diff
		}
		if bestDiff < 0 || diff < bestDiff {
			best, bestDiff = t, diff
		}
	}
	return best
}

// Watchdog is the watchdog timer in interrupt mode, clocked by its own
// oscillator so it keeps running in power-down.
type Watchdog struct {
	OscillatorHz uint32
	Timeout      WatchdogTimeout

	wdtcsr  mcu.Reg8
	armedAt uint64

	counter
}

// NewWatchdog creates the source for a timeout selection.
func NewWatchdog(timeout WatchdogTimeout, clk clock.Clock) *Watchdog {
	return &Watchdog{OscillatorHz: WatchdogHz, Timeout: timeout, counter: newCounter(clk)}
}

// Name implements Source.
func (w *Watchdog) Name() string {
	return NameWatchdog
}

// Domain implements Source.
func (w *Watchdog) Domain() mcu.Domain {
	return mcu.DomainWatchdog
}

// Peripheral implements Source. The watchdog is not gated by PRR.
func (w *Watchdog) Peripheral() (mcu.Peripheral, bool) {
	return 0, false
}

// Attach implements Source. It must run with interrupts disabled: the
// change sequence must complete within ChangeWindow cycles.
func (w *Watchdog) Attach(core *mcu.Core, isr mcu.ISR) {
	w.core = core
	core.SetVector(mcu.VectorWDT, isr)
	w.Arm()
	w.WriteControl(WDIE | w.Timeout.Bits())
}

// Arm performs WDTCSR |= WDCE | WDE, the first half of the timed
// sequence.
func (w *Watchdog) Arm() {
	w.WriteControl(w.Control() | WDCE | WDE)
}

// Control reads WDTCSR. WDCE reads back cleared once the window passed.
func (w *Watchdog) Control() byte {
	v := w.wdtcsr.Get()
	if v&WDCE != 0 && !w.windowOpen(w.cycles()) {
		w.wdtcsr.ClearBits(WDCE)
		v &^= WDCE
	}
	return v
}

// WriteControl writes WDTCSR as one store instruction. WDE and WDP3..0
// only change within ChangeWindow cycles after a write setting both WDCE
// and WDE; otherwise only WDIE, WDIF and setting WDE take effect.
func (w *Watchdog) WriteControl(v byte) {
	cycle := w.core.Cycle()
	old := w.wdtcsr.Get()
	next := old &^ (WDIE | WDCE)
	next |= v & WDIE
	if v&WDIF != 0 {
		next &^= WDIF
	}
	switch {
	case v&(WDCE|WDE) == WDCE|WDE:
		next |= WDCE | WDE
		w.armedAt = cycle
	case old&WDCE != 0 && cycle-w.armedAt <= ChangeWindow:
		next = (next &^ (WDE | wdpMask)) | v&(WDE|wdpMask)
	default:
		if v&WDE != 0 {
			next |= WDE
		}
		if (v^old)&wdpMask != 0 || (old&WDE != 0 && v&WDE == 0) {
			glog.V(1).Infof("WDTCSR: protected write %#02x ignored", v)
		}
	}
	w.wdtcsr.Set(next)
}

func (w *Watchdog) cycles() uint64 {
	if w.core == nil {
		return 0
	}
	return w.core.Cycles()
}

func (w *Watchdog) windowOpen(cycle uint64) bool {
	return cycle-w.armedAt <= ChangeWindow
}

// Period implements Source.
func (w *Watchdog) Period() time.Duration {
	v := w.wdtcsr.Get()
	if v&(WDIE|WDE) == 0 {
		return 0
	}
	return WatchdogTimeoutFromBits(v).Period(w.OscillatorHz)
}

// Fire implements Source. In interrupt and system reset mode WDIE is
// cleared by hardware on the interrupt, so the next timeout resets.
func (w *Watchdog) Fire() {
	v := w.wdtcsr.Get()
	switch {
	case v&WDIE != 0:
		if v&WDE != 0 {
			w.wdtcsr.ClearBits(WDIE)
		}
		w.raise(w, mcu.VectorWDT)
	case v&WDE != 0:
		if w.core != nil {
			w.core.Reset()
		}
	}
}

// Run implements Source.
func (w *Watchdog) Run(ctx context.Context) error {
	return w.run(ctx, w)
}
