package mcu

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sleepAsync runs Sleep on a new CPU goroutine and reports its return.
func sleepAsync(c *Core) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		c.Sleep()
		close(done)
	}()
	return done
}

func returned(ch <-chan struct{}, within time.Duration) bool {
	select {
	case <-ch:
		return true
	case <-time.After(within):
		return false
	}
}

func TestSeiShadow(t *testing.T) {
	c := NewCore()
	var calls int
	c.SetVector(VectorTimer1CompA, func() { calls++ })

	c.Raise(VectorTimer1CompA)
	c.Nop()
	require.Equal(t, 0, calls, "interrupts disabled")

	c.Sei()
	require.Equal(t, 0, calls, "instruction after sei runs first")
	c.Nop()
	require.Equal(t, 1, calls)
	require.False(t, c.Pending(VectorTimer1CompA))
}

func TestCliMasksInterrupts(t *testing.T) {
	c := NewCore()
	var calls int
	c.SetVector(VectorWDT, func() { calls++ })
	c.Sei()
	c.Cli()
	c.Raise(VectorWDT)
	c.Nop()
	require.Equal(t, 0, calls)
	require.True(t, c.Pending(VectorWDT))
}

func TestDispatchPriorityAndNoNesting(t *testing.T) {
	c := NewCore()
	var order []Vector
	var nested []bool
	isr := func(v Vector) ISR {
		return func() {
			order = append(order, v)
			nested = append(nested, c.InterruptsEnabled())
		}
	}
	c.SetVector(VectorWDT, isr(VectorWDT))
	c.SetVector(VectorTimer1CompA, isr(VectorTimer1CompA))

	c.Raise(VectorTimer1CompA)
	c.Raise(VectorWDT)
	c.Sei()
	c.Nop()
	require.Equal(t, []Vector{VectorWDT, VectorTimer1CompA}, order)
	require.Equal(t, []bool{false, false}, nested)
	require.True(t, c.InterruptsEnabled(), "flag restored on return")
}

func TestCoalescedRequests(t *testing.T) {
	c := NewCore()
	var calls int
	c.SetVector(VectorWDT, func() { calls++ })
	c.Raise(VectorWDT)
	c.Raise(VectorWDT)
	c.Sei()
	c.Nop()
	require.Equal(t, 1, calls)
	stats := c.Stats()
	require.Equal(t, uint64(2), stats.Raised)
	require.Equal(t, uint64(1), stats.Coalesced)
	require.Equal(t, uint64(1), stats.Dispatched)
}

func TestSleepWithoutEnableIsNop(t *testing.T) {
	c := NewCore()
	c.Sei()
	require.True(t, returned(sleepAsync(c), time.Second))
	require.Equal(t, uint64(0), c.Stats().Sleeps)
}

func TestSleepWakesOnInterrupt(t *testing.T) {
	c := NewCore()
	var calls int
	c.SetVector(VectorTimer1CompA, func() { calls++ })
	c.SetSleepMode(SleepIdle)
	c.SleepEnable()
	c.Sei()
	done := sleepAsync(c)
	require.Eventually(t, func() bool {
		_, sleeping := c.Sleeping()
		return sleeping
	}, time.Second, time.Millisecond)
	require.False(t, returned(done, 20*time.Millisecond))

	c.Raise(VectorTimer1CompA)
	require.True(t, returned(done, time.Second))
	require.Equal(t, 1, calls)
	stats := c.Stats()
	require.Equal(t, uint64(1), stats.Sleeps)
	require.Equal(t, uint64(1), stats.Wakeups)
}

func TestSleepWithInterruptsDisabledNeverWakes(t *testing.T) {
	c := NewCore()
	c.SetVector(VectorWDT, func() {})
	c.SleepEnable()
	done := sleepAsync(c)
	c.Raise(VectorWDT)
	require.False(t, returned(done, 50*time.Millisecond))

	c.PowerOff()
	require.True(t, returned(done, time.Second))
	require.Equal(t, ErrPowerLoss, c.Err())
	require.Equal(t, uint64(0), c.Stats().Wakeups)
}

// An event arriving right after sei must still end the sleep that follows.
func TestEventBetweenSeiAndSleep(t *testing.T) {
	c := NewCore()
	var calls int
	c.SetVector(VectorWDT, func() { calls++ })
	c.SetTracer(func(op Op, cycle uint64) {
		if op == OpSEI {
			c.Raise(VectorWDT)
		}
	})
	c.SetSleepMode(SleepPowerDown)

	c.Cli()
	c.SleepEnable()
	c.Sei()
	require.Equal(t, 0, calls)
	require.True(t, returned(sleepAsync(c), time.Second), "sleep lost the wake event")
	require.Equal(t, 1, calls)
}

// With any instruction between sei and sleep the handler consumes the
// event first and the sleep waits for an event that never comes.
func TestEventBeforeDelayedSleepIsLost(t *testing.T) {
	c := NewCore()
	var calls int
	c.SetVector(VectorWDT, func() { calls++ })
	c.SetTracer(func(op Op, cycle uint64) {
		if op == OpSEI {
			c.Raise(VectorWDT)
		}
	})
	c.SetSleepMode(SleepPowerDown)

	c.Cli()
	c.SleepEnable()
	c.Sei()
	c.Nop()
	require.Equal(t, 1, calls)
	done := sleepAsync(c)
	require.False(t, returned(done, 50*time.Millisecond))
	c.PowerOff()
	<-done
}

func TestClockDomains(t *testing.T) {
	c := NewCore()
	c.SetVector(VectorWDT, func() {})
	require.True(t, c.Clocked(DomainIO))

	for _, mode := range []SleepMode{SleepIdle, SleepPowerDown} {
		c.SetSleepMode(mode)
		c.SleepEnable()
		c.Sei()
		done := sleepAsync(c)
		require.Eventually(t, func() bool {
			_, sleeping := c.Sleeping()
			return sleeping
		}, time.Second, time.Millisecond)
		assert.Equal(t, mode == SleepIdle, c.Clocked(DomainIO), mode.String())
		assert.True(t, c.Clocked(DomainWatchdog), mode.String())
		c.Raise(VectorWDT)
		<-done
		c.Cli()
	}
}

func TestPowerDownWakesOnlyOnWatchdog(t *testing.T) {
	c := NewCore()
	c.SetVector(VectorTimer1CompA, func() {})
	c.SetSleepMode(SleepPowerDown)
	c.SleepEnable()
	c.Sei()
	done := sleepAsync(c)
	require.Eventually(t, func() bool {
		_, sleeping := c.Sleeping()
		return sleeping
	}, time.Second, time.Millisecond)
	c.Raise(VectorTimer1CompA)
	require.False(t, returned(done, 50*time.Millisecond))
	c.PowerOff()
	<-done
}

func TestBODDisableWindow(t *testing.T) {
	c := NewCore()
	c.SetVector(VectorWDT, func() {})
	c.SetSleepMode(SleepPowerDown)

	sleepOnce := func(gap int) {
		c.Cli()
		c.SleepEnable()
		c.BODDisable()
		for i := 0; i < gap; i++ {
			c.Nop()
		}
		c.Sei()
		c.Raise(VectorWDT)
		c.Sleep()
		c.SleepDisable()
	}

	sleepOnce(0)
	require.Equal(t, uint64(1), c.Stats().BODOffSleeps)
	sleepOnce(BODSWindow)
	require.Equal(t, uint64(1), c.Stats().BODOffSleeps, "window expired")
	require.Equal(t, uint64(2), c.Stats().Sleeps)
}

func TestPowerReduction(t *testing.T) {
	c := NewCore()
	require.True(t, c.PowerEnabled(PRTIM1))
	c.PowerAllDisable()
	require.Equal(t, PRRAll, c.PRR.Get())
	require.False(t, c.PowerEnabled(PRTIM1))
	c.PowerEnable(PRTIM1)
	require.True(t, c.PowerEnabled(PRTIM1))
	require.False(t, c.PowerEnabled(PRADC))
}

func TestHaltedCoreIgnoresInstructions(t *testing.T) {
	c := NewCore()
	c.Reset()
	cycles := c.Cycles()
	c.Sei()
	c.Nop()
	require.Equal(t, cycles, c.Cycles())
	require.False(t, c.InterruptsEnabled())
	require.Equal(t, ErrReset, c.Err())
	c.PowerOff()
	require.Equal(t, ErrReset, c.Err(), "first cause wins")
}

func TestParseSleepMode(t *testing.T) {
	m, err := ParseSleepMode("power-down")
	require.NoError(t, err)
	require.Equal(t, SleepPowerDown, m)
	require.True(t, SleepPowerDown.Deeper(SleepIdle))
	require.False(t, SleepIdle.Deeper(SleepPowerDown))
	_, err = ParseSleepMode("standby")
	require.Error(t, err)
}
