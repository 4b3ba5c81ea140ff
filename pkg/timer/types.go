// Package timer provides the periodic event sources that drive the
// sequencer: the Timer/Counter1 compare match and the watchdog oscillator.
package timer

import (
	"context"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/golang/glog"

	"github.com/robotalks/beacon/pkg/mcu"
)

// Source raises one interrupt per period for as long as it runs.
type Source interface {
	// Name identifies the variant.
	Name() string
	// Domain is the clock domain the source counts in.
	Domain() mcu.Domain
	// Peripheral returns the PRR bit gating the source, if any.
	Peripheral() (mcu.Peripheral, bool)
	// Period is the interval realized by the current register contents.
	// It's zero when the source is stopped.
	Period() time.Duration
	// Attach programs the registers and installs isr on the core. It's
	// firmware setup and runs on the CPU goroutine.
	Attach(core *mcu.Core, isr mcu.ISR)
	// Fire is one hardware timeout.
	Fire()
	// Run emulates the counting hardware until ctx is done.
	Run(ctx context.Context) error
	// Started is closed once Run is counting.
	Started() <-chan struct{}
}

// Names of the variants.
const (
	NameCompareMatch = "compare-match"
	NameWatchdog     = "watchdog"
)

// counter is the emulated counting hardware shared by the variants.
type counter struct {
	Clock clock.Clock

	core    *mcu.Core
	started chan struct{}
}

func newCounter(clk clock.Clock) counter {
	if clk == nil {
		clk = clock.New()
	}
	return counter{Clock: clk, started: make(chan struct{})}
}

// Started implements Source.
func (c *counter) Started() <-chan struct{} {
	return c.started
}

// run ticks fire at the period of src. Register changes after Run
// started are picked up on the next timeout.
func (c *counter) run(ctx context.Context, src Source) error {
	period := src.Period()
	var tickCh <-chan time.Time
	var ticker *clock.Ticker
	if period > 0 {
		ticker = c.Clock.Ticker(period)
		tickCh = ticker.C
		glog.V(1).Infof("%s: period %v", src.Name(), period)
	} else {
		glog.Warningf("%s: stopped, no events", src.Name())
	}
	close(c.started)
	defer func() {
		if ticker != nil {
			ticker.Stop()
		}
	}()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-tickCh:
			src.Fire()
			if p := src.Period(); p != period && p > 0 {
				period = p
				ticker.Stop()
				ticker = c.Clock.Ticker(period)
				tickCh = ticker.C
			}
		}
	}
}

// raise delivers the interrupt when the counting clock is running.
func (c *counter) raise(src Source, v mcu.Vector) bool {
	core := c.core
	if core == nil {
		return false
	}
	if !core.Clocked(src.Domain()) {
		glog.V(4).Infof("%s: %s stopped", src.Name(), src.Domain())
		return false
	}
	if p, ok := src.Peripheral(); ok && !core.PowerEnabled(p) {
		glog.V(4).Infof("%s: %s gated", src.Name(), p)
		return false
	}
	core.Raise(v)
	return true
}
