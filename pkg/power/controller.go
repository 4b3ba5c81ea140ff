// Package power selects the sleep mode for a timing source and puts the
// core to sleep without losing the event meant to wake it.
package power

import (
	"context"

	"github.com/golang/glog"

	"github.com/robotalks/beacon/pkg/mcu"
	"github.com/robotalks/beacon/pkg/timer"
)

// DeepestMode returns the lowest power mode in which src keeps counting.
func DeepestMode(src timer.Source) mcu.SleepMode {
	if src.Domain().RunsIn(mcu.SleepPowerDown) {
		return mcu.SleepPowerDown
	}
	return mcu.SleepIdle
}

// Compatible indicates src can wake the core from mode.
func Compatible(mode mcu.SleepMode, src timer.Source) bool {
	return src.Domain().RunsIn(mode)
}

// Controller is the sleep/power-mode controller.
type Controller struct {
	Core *mcu.Core
	Mode mcu.SleepMode
	// DisableBOD turns the brown-out detector off for each power-down
	// sleep.
	DisableBOD bool
}

// NewController creates a Controller using the deepest mode for src.
func NewController(core *mcu.Core, src timer.Source) *Controller {
	return &Controller{Core: core, Mode: DeepestMode(src), DisableBOD: true}
}

// Configure gates every peripheral src doesn't need and selects the sleep
// mode. A mode deeper than src allows is accepted as is: the core then
// sleeps forever.
func (c *Controller) Configure(src timer.Source) {
	c.Core.PowerAllDisable()
	if p, ok := src.Peripheral(); ok {
		c.Core.PowerEnable(p)
	}
	c.Core.SetSleepMode(c.Mode)
	if !Compatible(c.Mode, src) {
		glog.Warningf("%s stops in %s sleep", src.Name(), c.Mode)
	}
}

// Sleep requests sleep once and returns after the interrupt that woke the
// core was serviced. The interrupt flag is cleared while the sleep is
// prepared and set by the instruction right before sleep, so an event
// arriving at any point is still pending when the core halts.
func (c *Controller) Sleep() {
	core := c.Core
	core.Cli()
	core.SleepEnable()
	if c.DisableBOD && c.Mode == mcu.SleepPowerDown {
		core.BODDisable()
	}
	core.Sei()
	core.Sleep()
	core.SleepDisable()
}

// Idle is the main-line loop: it only sleeps. Cancelling ctx removes power
// from the core. It returns ctx.Err() on power loss, or the reason the
// core stopped otherwise.
func (c *Controller) Idle(ctx context.Context) error {
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			c.Core.PowerOff()
		case <-stop:
		}
	}()
	for {
		c.Sleep()
		if err := c.Core.Err(); err != nil {
			if err == mcu.ErrPowerLoss && ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}
	}
}
