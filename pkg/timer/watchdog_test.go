package timer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/beacon/pkg/mcu"
)

func TestWatchdogTimeouts(t *testing.T) {
	require.Equal(t, 16*time.Millisecond, WatchdogTimeout(0).Period(WatchdogHz))
	require.Equal(t, 512*time.Millisecond, WatchdogTimeout(5).Period(WatchdogHz))
	require.Equal(t, 8192*time.Millisecond, MaxWatchdogTimeout.Period(WatchdogHz))
	require.Equal(t, byte(WDP2|WDP0), WatchdogTimeout(5).Bits())
	require.Equal(t, byte(WDP3|WDP0), WatchdogTimeout(9).Bits())
	for to := WatchdogTimeout(0); to <= MaxWatchdogTimeout; to++ {
		require.Equal(t, to, WatchdogTimeoutFromBits(to.Bits()|WDIE))
	}
}

func TestSolveWatchdog(t *testing.T) {
	require.Equal(t, WatchdogTimeout(5), SolveWatchdog(WatchdogHz, 500*time.Millisecond))
	require.Equal(t, WatchdogTimeout(5), SolveWatchdog(WatchdogHz, 500*time.Millisecond))
	require.Equal(t, WatchdogTimeout(0), SolveWatchdog(WatchdogHz, time.Millisecond))
	require.Equal(t, WatchdogTimeout(6), SolveWatchdog(WatchdogHz, time.Second))
	require.Equal(t, MaxWatchdogTimeout, SolveWatchdog(WatchdogHz, time.Minute))
}

func TestWatchdogAttach(t *testing.T) {
	core := mcu.NewCore()
	wd := NewWatchdog(SolveWatchdog(WatchdogHz, 500*time.Millisecond), nil)
	var fired int
	wd.Attach(core, func() { fired++ })

	require.Equal(t, byte(WDIE|WDP2|WDP0), wd.Control())
	require.Equal(t, 512*time.Millisecond, wd.Period())

	wd.Fire()
	require.True(t, core.Pending(mcu.VectorWDT))
	core.Sei()
	core.Nop()
	require.Equal(t, 1, fired)
	require.True(t, wd.Control()&WDIE != 0, "interrupt mode keeps WDIE")
}

func TestWatchdogProtectedWrite(t *testing.T) {
	core := mcu.NewCore()
	wd := NewWatchdog(WatchdogTimeout(5), nil)
	wd.Attach(core, func() {})

	// without the change enable sequence WDP can't change.
	wd.WriteControl(WDIE | WatchdogTimeout(9).Bits())
	require.Equal(t, byte(WDIE|WDP2|WDP0), wd.Control())

	// the window closes after ChangeWindow cycles.
	wd.Arm()
	for i := 0; i < ChangeWindow; i++ {
		core.Nop()
	}
	wd.WriteControl(WDIE | WatchdogTimeout(9).Bits())
	require.Zero(t, wd.Control()&WDCE)
	require.Equal(t, WatchdogTimeout(5), WatchdogTimeoutFromBits(wd.Control()))
	require.NotZero(t, wd.Control()&WDE, "arming leaves WDE set")

	// within the window the change applies.
	wd.Arm()
	core.Nop()
	wd.WriteControl(WDIE | WatchdogTimeout(9).Bits())
	require.Equal(t, byte(WDIE|WDP3|WDP0), wd.Control())
	require.Equal(t, 8192*time.Millisecond, wd.Period())
}

func TestWatchdogRunsInPowerDown(t *testing.T) {
	core := mcu.NewCore()
	wd := NewWatchdog(WatchdogTimeout(5), nil)
	var fired int
	wd.Attach(core, func() { fired++ })
	core.PowerAllDisable()
	core.SetSleepMode(mcu.SleepPowerDown)
	core.SleepEnable()
	core.Sei()

	done := make(chan struct{})
	go func() {
		core.Sleep()
		close(done)
	}()
	require.Eventually(t, func() bool {
		_, sleeping := core.Sleeping()
		return sleeping
	}, time.Second, time.Millisecond)
	wd.Fire()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("watchdog did not wake the core")
	}
	require.Equal(t, 1, fired)
}

func TestWatchdogResetMode(t *testing.T) {
	core := mcu.NewCore()
	wd := NewWatchdog(WatchdogTimeout(5), nil)
	wd.Attach(core, func() {})
	wd.Arm()
	wd.WriteControl(WDIE | WDE | WatchdogTimeout(5).Bits())
	require.Equal(t, byte(WDIE|WDE|WDP2|WDP0), wd.Control())

	wd.Fire()
	require.True(t, core.Pending(mcu.VectorWDT))
	require.Zero(t, wd.Control()&WDIE)
	require.NoError(t, core.Err())

	wd.Fire()
	require.Equal(t, mcu.ErrReset, core.Err())
}
