package pattern

import (
	"context"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robotalks/beacon/pkg/cli/sh"
	fx "github.com/robotalks/beacon/pkg/framework"
	"github.com/robotalks/beacon/pkg/gpio"
	"github.com/robotalks/beacon/pkg/pattern"
	"github.com/robotalks/beacon/pkg/sequencer"
	"github.com/robotalks/beacon/pkg/telemetry/msgs"
)

// feedShell connects a shell to a loop receiving the steps of a sequencer
// playing p until the test ends.
func feedShell(t *testing.T, p string, policy sequencer.RestartPolicy) *sh.Shell {
	ctx, cancel := context.WithCancel(context.Background())
	s := &sh.Shell{
		EventTimeout: time.Second,
		Loop:         &sh.ConnLoop{Ctx: ctx, Cancel: cancel, Watcher: &sh.Watcher{}},
	}
	s.Loop.Loop = fx.NewLoop().Add(s.Loop.Watcher)
	s.Loop.Loop.Clock = clock.NewMock()

	seq := sequencer.New(pattern.MustParse(p), gpio.NewRecorder(nil, nil)).WithPolicy(policy)
	seq.Observer = sequencer.ObserverFunc(func(ev sequencer.StepEvent) {
		s.Loop.Loop.PostMessage(msgs.NewStepEvent(ev, time.Now()))
		s.Loop.Loop.TriggerNext()
	})
	errCh := make(chan error, 1)
	go func() { errCh <- s.Loop.Loop.Run(ctx) }()
	go func() {
		ticker := time.NewTicker(time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				seq.Step()
			}
		}
	}()
	t.Cleanup(func() {
		cancel()
		<-errCh
	})
	return s
}

func TestLearn(t *testing.T) {
	for _, policy := range []sequencer.RestartPolicy{sequencer.RestartOnNextTick, sequencer.RestartImmediately} {
		t.Run(policy.String(), func(t *testing.T) {
			s := feedShell(t, "==..=.", policy)
			p, err := Learn(s)
			require.NoError(t, err)
			assert.Equal(t, "==..=.", p.String())
		})
	}
}

func TestCaptureLevels(t *testing.T) {
	s := feedShell(t, "=..", sequencer.RestartOnNextTick)
	signal, err := CaptureLevels(s, 9)
	require.NoError(t, err)
	assert.Len(t, signal, 9)
	p, err := pattern.Recover(signal)
	require.NoError(t, err)
	assert.Len(t, p.Symbols(), 3)
}

func TestWatchTimeout(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s := &sh.Shell{
		EventTimeout: 10 * time.Millisecond,
		Loop:         &sh.ConnLoop{Ctx: ctx, Cancel: cancel, Watcher: &sh.Watcher{}},
	}
	_, err := Learn(s)
	assert.Error(t, err)
}
