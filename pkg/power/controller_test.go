package power

import (
	"context"
	"math/rand"
	"sync/atomic"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robotalks/beacon/pkg/mcu"
	"github.com/robotalks/beacon/pkg/timer"
)

func compareMatch(t *testing.T) *timer.CompareMatch {
	s, err := timer.SolveCompareMatch(16000000, 500*time.Millisecond)
	require.NoError(t, err)
	return timer.NewCompareMatch(s, clock.NewMock())
}

func watchdog() *timer.Watchdog {
	return timer.NewWatchdog(timer.SolveWatchdog(timer.WatchdogHz, 500*time.Millisecond), clock.NewMock())
}

func TestDeepestMode(t *testing.T) {
	require.Equal(t, mcu.SleepIdle, DeepestMode(compareMatch(t)))
	require.Equal(t, mcu.SleepPowerDown, DeepestMode(watchdog()))

	cases := []struct {
		name string
		src  timer.Source
		mode mcu.SleepMode
		ok   bool
	}{
		{"compare-match idle", compareMatch(t), mcu.SleepIdle, true},
		{"compare-match power-down", compareMatch(t), mcu.SleepPowerDown, false},
		{"watchdog idle", watchdog(), mcu.SleepIdle, true},
		{"watchdog power-down", watchdog(), mcu.SleepPowerDown, true},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.ok, Compatible(c.mode, c.src))
		})
	}
}

func TestConfigure(t *testing.T) {
	core := mcu.NewCore()
	src := compareMatch(t)
	ctl := NewController(core, src)
	ctl.Configure(src)
	require.Equal(t, mcu.SleepIdle, core.SleepMode())
	require.Equal(t, mcu.PRRAll&^mcu.BV(uint(mcu.PRTIM1)), core.PRR.Get())

	core = mcu.NewCore()
	wd := watchdog()
	ctl = NewController(core, wd)
	ctl.Configure(wd)
	require.Equal(t, mcu.SleepPowerDown, core.SleepMode())
	require.Equal(t, mcu.PRRAll, core.PRR.Get())
	require.False(t, core.SleepEnabled(), "sleep enabled only around sleep")
}

func traceSleep(t *testing.T, mode mcu.SleepMode) []mcu.Op {
	core := mcu.NewCore()
	core.SetVector(mcu.VectorWDT, func() {})
	ctl := &Controller{Core: core, Mode: mode, DisableBOD: true}
	ctl.Core.SetSleepMode(mode)
	var ops []mcu.Op
	core.SetTracer(func(op mcu.Op, cycle uint64) { ops = append(ops, op) })
	core.Raise(mcu.VectorWDT)
	ctl.Sleep()
	return ops
}

func TestSleepProtocol(t *testing.T) {
	require.Equal(t, []mcu.Op{
		mcu.OpCLI, mcu.OpSleepEnable, mcu.OpBODDisable, mcu.OpSEI, mcu.OpSleep, mcu.OpSleepDisable,
	}, traceSleep(t, mcu.SleepPowerDown))
	require.Equal(t, []mcu.Op{
		mcu.OpCLI, mcu.OpSleepEnable, mcu.OpSEI, mcu.OpSleep, mcu.OpSleepDisable,
	}, traceSleep(t, mcu.SleepIdle))
}

func TestSleepDisablesBOD(t *testing.T) {
	core := mcu.NewCore()
	wd := watchdog()
	var fired int
	wd.Attach(core, func() { fired++ })
	ctl := NewController(core, wd)
	ctl.Configure(wd)
	for i := 0; i < 3; i++ {
		wd.Fire()
		ctl.Sleep()
	}
	require.Equal(t, 3, fired)
	stats := core.Stats()
	require.Equal(t, uint64(3), stats.Sleeps)
	require.Equal(t, uint64(3), stats.BODOffSleeps)
}

// A one-shot event raised after any instruction of the protocol still
// wakes the core.
func TestSleepAnyInterleaving(t *testing.T) {
	protocol := []mcu.Op{mcu.OpCLI, mcu.OpSleepEnable, mcu.OpBODDisable, mcu.OpSEI}
	for _, at := range protocol {
		t.Run(at.String(), func(t *testing.T) {
			core := mcu.NewCore()
			var fired int
			core.SetVector(mcu.VectorWDT, func() { fired++ })
			ctl := &Controller{Core: core, Mode: mcu.SleepPowerDown, DisableBOD: true}
			core.SetSleepMode(ctl.Mode)
			core.SetTracer(func(op mcu.Op, cycle uint64) {
				if op == at {
					core.Raise(mcu.VectorWDT)
				}
			})
			done := make(chan struct{})
			go func() {
				ctl.Sleep()
				close(done)
			}()
			select {
			case <-done:
			case <-time.After(time.Second):
				core.PowerOff()
				t.Fatalf("event raised after %s was lost", at)
			}
			require.Equal(t, 1, fired)
		})
	}
}

// A naive ordering that leaves one instruction between sei and sleep
// services the event before sleeping and then sleeps past it.
func TestNaiveOrderingLosesWake(t *testing.T) {
	core := mcu.NewCore()
	core.SetVector(mcu.VectorWDT, func() {})
	core.SetSleepMode(mcu.SleepPowerDown)
	core.SetTracer(func(op mcu.Op, cycle uint64) {
		if op == mcu.OpSEI {
			core.Raise(mcu.VectorWDT)
		}
	})
	done := make(chan struct{})
	go func() {
		core.Sei()
		core.SleepEnable()
		core.Sleep()
		close(done)
	}()
	select {
	case <-done:
		t.Fatal("sleep returned without a wake event")
	case <-time.After(50 * time.Millisecond):
	}
	core.PowerOff()
	<-done
}

func TestIdle(t *testing.T) {
	core := mcu.NewCore()
	wd := watchdog()
	var fired int32
	wd.Attach(core, func() { atomic.AddInt32(&fired, 1) })
	ctl := NewController(core, wd)
	ctl.Configure(wd)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- ctl.Idle(ctx) }()

	for i := int32(1); i <= 5; i++ {
		require.Eventually(t, func() bool {
			_, sleeping := core.Sleeping()
			return sleeping
		}, time.Second, time.Millisecond)
		wd.Fire()
		want := i
		require.Eventually(t, func() bool {
			return atomic.LoadInt32(&fired) == want
		}, time.Second, time.Millisecond)
	}
	cancel()
	select {
	case err := <-errCh:
		require.Equal(t, context.Canceled, err)
	case <-time.After(time.Second):
		t.Fatal("idle loop did not stop")
	}
	require.Equal(t, mcu.ErrPowerLoss, core.Err())
}

func TestIdleWatchdogReset(t *testing.T) {
	core := mcu.NewCore()
	wd := watchdog()
	wd.Attach(core, func() {})
	ctl := NewController(core, wd)
	ctl.Configure(wd)

	errCh := make(chan error, 1)
	go func() { errCh <- ctl.Idle(context.Background()) }()
	require.Eventually(t, func() bool {
		_, sleeping := core.Sleeping()
		return sleeping
	}, time.Second, time.Millisecond)
	core.Reset()
	select {
	case err := <-errCh:
		require.Equal(t, mcu.ErrReset, err)
	case <-time.After(time.Second):
		t.Fatal("idle loop did not stop")
	}
}

// Compare match counts on clkIO, which power-down stops: the core never
// wakes and nothing reports it.
func TestIncompatibleModeNeverWakes(t *testing.T) {
	core := mcu.NewCore()
	src := compareMatch(t)
	var fired int32
	src.Attach(core, func() { atomic.AddInt32(&fired, 1) })
	ctl := &Controller{Core: core, Mode: mcu.SleepPowerDown}
	ctl.Configure(src)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- ctl.Idle(ctx) }()
	require.Eventually(t, func() bool {
		_, sleeping := core.Sleeping()
		return sleeping
	}, time.Second, time.Millisecond)
	for i := 0; i < 10; i++ {
		src.Fire()
	}
	time.Sleep(20 * time.Millisecond)
	require.Zero(t, atomic.LoadInt32(&fired))
	require.Equal(t, uint64(0), core.Stats().Wakeups)
	cancel()
	require.Equal(t, context.Canceled, <-errCh)
}

// One-shot events at random moments relative to the idle loop are never
// lost: each one is acknowledged by the handler before the next is raised.
func TestIdleNeverLosesEvents(t *testing.T) {
	const events = 500
	core := mcu.NewCore()
	ack := make(chan struct{}, 1)
	core.SetVector(mcu.VectorWDT, func() { ack <- struct{}{} })
	ctl := &Controller{Core: core, Mode: mcu.SleepPowerDown, DisableBOD: true}
	core.SetSleepMode(ctl.Mode)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	errCh := make(chan error, 1)
	go func() { errCh <- ctl.Idle(ctx) }()

	rnd := rand.New(rand.NewSource(1))
	for i := 0; i < events; i++ {
		if d := rnd.Intn(50); d > 0 {
			time.Sleep(time.Duration(d) * time.Microsecond)
		}
		core.Raise(mcu.VectorWDT)
		select {
		case <-ack:
		case <-time.After(time.Second):
			t.Fatalf("event %d lost", i)
		}
	}
	cancel()
	require.Equal(t, context.Canceled, <-errCh)
	require.Equal(t, uint64(events), core.Stats().Dispatched)
}
