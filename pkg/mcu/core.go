// Package mcu emulates the parts of an 8-bit AVR core that interrupt driven
// firmware depends on: the global interrupt flag, interrupt dispatch at
// instruction boundaries, the sleep instruction and its enable latch, the
// brown-out detector disable window, clock domains and power reduction.
//
// The goroutine calling the instruction methods (Cli, Sei, Sleep, ...) is the
// CPU. Emulated peripherals call Raise from their own goroutines; the ISR
// then runs on the CPU goroutine, never concurrently with main-line code.
package mcu

import (
	"errors"
	"math/bits"
	"sync"

	"github.com/golang/glog"
)

// Op identifies an emulated instruction.
type Op int

// Instructions
const (
	OpNop Op = iota
	OpCLI
	OpSEI
	OpStore
	OpSleepEnable
	OpSleepDisable
	OpBODDisable
	OpSleep
)

var opNames = [...]string{
	OpNop:          "nop",
	OpCLI:          "cli",
	OpSEI:          "sei",
	OpStore:        "store",
	OpSleepEnable:  "sleep_enable",
	OpSleepDisable: "sleep_disable",
	OpBODDisable:   "sleep_bod_disable",
	OpSleep:        "sleep",
}

// String implements fmt.Stringer.
func (o Op) String() string {
	if o >= 0 && int(o) < len(opNames) {
		return opNames[o]
	}
	return "op?"
}

// BODSWindow is the number of cycles the BODS bit stays active.
const BODSWindow = 3

var (
	// ErrPowerLoss indicates the core was powered off.
	ErrPowerLoss = errors.New("power loss")
	// ErrReset indicates the core was reset by the watchdog.
	ErrReset = errors.New("watchdog reset")
)

// Tracer observes executed instructions. It's invoked on the CPU goroutine
// after the instruction and before any interrupt is dispatched.
type Tracer func(op Op, cycle uint64)

// Stats are the counters maintained by the core.
type Stats struct {
	Raised       uint64
	Coalesced    uint64
	Dispatched   uint64
	Sleeps       uint64
	Wakeups      uint64
	BODOffSleeps uint64
}

// Core is the emulated CPU.
type Core struct {
	// PRR is the power reduction register.
	PRR Reg8

	lock sync.Mutex
	wake *sync.Cond

	ie       bool
	shadow   bool
	smcr     byte
	bodsAt   uint64
	bods     bool
	sleeping bool
	mode     SleepMode
	pending  uint32
	vectors  [numVectors]ISR
	cycles   uint64
	err      error
	stats    Stats
	tracer   Tracer
}

// NewCore creates a powered core with interrupts disabled.
func NewCore() *Core {
	c := &Core{}
	c.wake = sync.NewCond(&c.lock)
	return c
}

// SetVector installs an ISR. It's part of the program image, not an
// instruction.
func (c *Core) SetVector(v Vector, isr ISR) {
	c.lock.Lock()
	c.vectors[v] = isr
	c.lock.Unlock()
}

// SetTracer installs an instruction tracer.
func (c *Core) SetTracer(t Tracer) {
	c.lock.Lock()
	c.tracer = t
	c.lock.Unlock()
}

// Nop executes an instruction without side effects.
func (c *Core) Nop() {
	c.exec(OpNop, nil)
}

// Cycle executes a generic instruction and returns its cycle number.
// Register writes performed by firmware use it to account time.
func (c *Core) Cycle() (cycle uint64) {
	c.exec(OpStore, func() { cycle = c.cycles })
	return
}

// Cli clears the global interrupt flag.
func (c *Core) Cli() {
	c.exec(OpCLI, func() { c.ie = false })
}

// Sei sets the global interrupt flag. The instruction following Sei always
// executes before any pending interrupt.
func (c *Core) Sei() {
	c.exec(OpSEI, func() {
		if !c.ie {
			c.shadow = true
		}
		c.ie = true
	})
}

// SetSleepMode selects the mode entered by the next Sleep.
func (c *Core) SetSleepMode(mode SleepMode) {
	c.exec(OpStore, func() {
		c.smcr = (c.smcr &^ (SM0 | SM1 | SM2)) | (byte(mode)<<1)&(SM0|SM1|SM2)
	})
}

// SleepEnable sets the SE latch.
func (c *Core) SleepEnable() {
	c.exec(OpSleepEnable, func() { c.smcr |= SE })
}

// SleepDisable clears the SE latch.
func (c *Core) SleepDisable() {
	c.exec(OpSleepDisable, func() { c.smcr &^= SE })
}

// BODDisable sets BODS through its timed sequence. Sleep must follow within
// BODSWindow cycles for the detector to stay off while sleeping.
func (c *Core) BODDisable() {
	c.exec(OpBODDisable, func() {
		c.bods, c.bodsAt = true, c.cycles
	})
}

// Sleep executes the sleep instruction. It's a no-op unless SE is set.
// Otherwise the core halts until an interrupt wakes it, and the interrupt
// is serviced before Sleep returns. With the interrupt flag cleared nothing
// can wake the core except power loss.
func (c *Core) Sleep() {
	c.exec(OpSleep, func() {
		if c.smcr&SE == 0 {
			return
		}
		c.mode = SleepMode((c.smcr & (SM0 | SM1 | SM2)) >> 1)
		c.sleeping = true
		c.stats.Sleeps++
		if c.bods && c.cycles-c.bodsAt <= BODSWindow {
			c.stats.BODOffSleeps++
		}
		c.bods = false
		for c.err == nil && !c.canWakeLocked() {
			c.wake.Wait()
		}
		c.sleeping = false
		if c.err == nil {
			c.stats.Wakeups++
		}
	})
}

// Raise flags an interrupt as pending. It's called by peripherals from
// any goroutine. A flag already pending absorbs the new request.
func (c *Core) Raise(v Vector) {
	c.lock.Lock()
	defer c.lock.Unlock()
	if c.err != nil {
		return
	}
	bit := uint32(1) << v
	c.stats.Raised++
	if c.pending&bit != 0 {
		c.stats.Coalesced++
		glog.V(2).Infof("%s coalesced", v)
	}
	c.pending |= bit
	c.wake.Broadcast()
}

// Pending indicates the interrupt flag of v is set.
func (c *Core) Pending(v Vector) bool {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.pending&(1<<v) != 0
}

// InterruptsEnabled reports the global interrupt flag.
func (c *Core) InterruptsEnabled() bool {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.ie
}

// SleepEnabled reports the SE latch.
func (c *Core) SleepEnabled() bool {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.smcr&SE != 0
}

// SleepMode reports the selected sleep mode.
func (c *Core) SleepMode() SleepMode {
	c.lock.Lock()
	defer c.lock.Unlock()
	return SleepMode((c.smcr & (SM0 | SM1 | SM2)) >> 1)
}

// Sleeping indicates the core is halted in a sleep mode.
func (c *Core) Sleeping() (SleepMode, bool) {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.mode, c.sleeping
}

// Clocked indicates the domain is running at this moment.
func (c *Core) Clocked(d Domain) bool {
	c.lock.Lock()
	defer c.lock.Unlock()
	if c.err != nil {
		return false
	}
	return !c.sleeping || d.RunsIn(c.mode)
}

// PowerEnabled indicates the peripheral is not gated by PRR.
func (c *Core) PowerEnabled(p Peripheral) bool {
	return c.PRR.Get()&BV(uint(p)) == 0
}

// PowerAllDisable gates every peripheral, like power_all_disable.
func (c *Core) PowerAllDisable() {
	c.exec(OpStore, func() { c.PRR.SetBits(PRRAll) })
}

// PowerEnable ungates a peripheral, like power_timer1_enable.
func (c *Core) PowerEnable(p Peripheral) {
	c.exec(OpStore, func() { c.PRR.ClearBits(BV(uint(p))) })
}

// Cycles returns the number of instructions executed.
func (c *Core) Cycles() uint64 {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.cycles
}

// Stats returns a snapshot of the counters.
func (c *Core) Stats() Stats {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.stats
}

// PowerOff removes power. Sleep returns and further instructions are
// ignored.
func (c *Core) PowerOff() {
	c.halt(ErrPowerLoss)
}

// Reset halts the core as the watchdog system reset does.
func (c *Core) Reset() {
	c.halt(ErrReset)
}

// Err returns why the core stopped, or nil while it's powered.
func (c *Core) Err() error {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.err
}

func (c *Core) halt(err error) {
	c.lock.Lock()
	if c.err == nil {
		c.err = err
		glog.V(1).Infof("core halted: %v", err)
	}
	c.wake.Broadcast()
	c.lock.Unlock()
}

func (c *Core) canWakeLocked() bool {
	if !c.ie {
		return false
	}
	if c.mode == SleepPowerDown {
		return c.pending&(1<<VectorWDT) != 0
	}
	return c.pending != 0
}

// exec runs one instruction and then checks for interrupts, as the
// hardware does at every instruction boundary.
func (c *Core) exec(op Op, body func()) {
	c.lock.Lock()
	if c.err != nil {
		c.lock.Unlock()
		return
	}
	c.cycles++
	cycle := c.cycles
	if body != nil {
		body()
	}
	tracer := c.tracer
	c.lock.Unlock()

	if tracer != nil {
		tracer(op, cycle)
	}

	c.lock.Lock()
	if c.shadow && op == OpSEI {
		c.shadow = false
	} else {
		c.shadow = false
		c.dispatchLocked()
	}
	c.lock.Unlock()
}

// dispatchLocked services pending interrupts by priority. The interrupt
// flag is cleared while an ISR runs so handlers never nest.
func (c *Core) dispatchLocked() {
	for c.ie && c.pending != 0 && c.err == nil {
		v := Vector(bits.TrailingZeros32(c.pending))
		c.pending &^= 1 << v
		isr := c.vectors[v]
		c.ie = false
		c.stats.Dispatched++
		c.lock.Unlock()
		if isr != nil {
			isr()
		} else {
			glog.Warningf("no handler for %s", v)
		}
		c.lock.Lock()
		c.ie = true
	}
}
