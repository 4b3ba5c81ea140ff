package sequencer

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/beacon/pkg/pattern"
)

type recordingOutput struct {
	levels []bool
}

func (o *recordingOutput) Set(high bool) {
	o.levels = append(o.levels, high)
}

const (
	H = true
	L = false
)

func run(p string, policy RestartPolicy, steps int) ([]bool, *Sequencer) {
	out := &recordingOutput{}
	seq := New(pattern.MustParse(p), out).WithPolicy(policy)
	for i := 0; i < steps; i++ {
		seq.Step()
	}
	return out.levels, seq
}

func TestStepSequence(t *testing.T) {
	testCases := []struct {
		name    string
		pattern string
		policy  RestartPolicy
		steps   int
		expect  []bool
	}{
		{
			name:    "alternating immediate",
			pattern: "=.=.",
			policy:  RestartImmediately,
			steps:   8,
			expect:  []bool{H, L, H, L, H, L, H, L},
		},
		{
			name:    "alternating next tick",
			pattern: "=.=.",
			policy:  RestartOnNextTick,
			steps:   10,
			expect:  []bool{H, L, H, L, H, L, H, L},
		},
		{
			name:    "single symbol immediate",
			pattern: "=",
			policy:  RestartImmediately,
			steps:   5,
			expect:  []bool{H, H, H, H, H},
		},
		{
			name:    "single symbol next tick",
			pattern: "=",
			policy:  RestartOnNextTick,
			steps:   6,
			expect:  []bool{H, H, H},
		},
		{
			name:    "uneven",
			pattern: "==.",
			policy:  RestartOnNextTick,
			steps:   8,
			expect:  []bool{H, H, L, H, H, L},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			levels, _ := run(tc.pattern, tc.policy, tc.steps)
			require.Equal(t, tc.expect, levels)
		})
	}
}

func TestSentinelWritesNothingOnNextTick(t *testing.T) {
	out := &recordingOutput{}
	var events []StepEvent
	seq := New(pattern.MustParse("=."), out)
	seq.Observer = ObserverFunc(func(ev StepEvent) { events = append(events, ev) })

	seq.Step()
	seq.Step()
	require.Equal(t, 2, seq.Cursor())
	seq.Step()
	require.Equal(t, 0, seq.Cursor())
	require.Equal(t, StateRestarting, seq.State())
	require.Len(t, out.levels, 2, "sentinel step must not write")
	high, ok := seq.Level()
	require.True(t, ok)
	require.False(t, high, "level held across restart")

	require.Len(t, events, 3)
	require.Equal(t, pattern.Sentinel, events[2].Symbol)
	require.False(t, events[2].Wrote)
	require.Equal(t, uint64(3), events[2].Tick)
}

func TestSentinelEmitsFirstImmediately(t *testing.T) {
	out := &recordingOutput{}
	var last StepEvent
	seq := New(pattern.MustParse("=."), out).WithPolicy(RestartImmediately)
	seq.Observer = ObserverFunc(func(ev StepEvent) { last = ev })

	seq.Step()
	seq.Step()
	seq.Step()
	require.Equal(t, 1, seq.Cursor())
	require.Equal(t, []bool{H, L, H}, out.levels)
	require.True(t, last.Wrote)
	require.Equal(t, 0, last.Cursor)
	require.Equal(t, pattern.High, last.Symbol)
	require.Equal(t, StateEmittingHigh, last.State)
}

func TestInitialState(t *testing.T) {
	seq := New(pattern.MustParse("."), &recordingOutput{})
	require.Equal(t, 0, seq.Cursor())
	_, ok := seq.Level()
	require.False(t, ok)
	require.Equal(t, StateIdle, seq.State())
}

func TestCursorStaysInRange(t *testing.T) {
	p := pattern.MustParse(pattern.Presets["sos"])
	for _, policy := range []RestartPolicy{RestartOnNextTick, RestartImmediately} {
		seq := New(p, &recordingOutput{}).WithPolicy(policy)
		for i := 0; i < 5*p.Len(); i++ {
			seq.Step()
			require.True(t, seq.Cursor() >= 0 && seq.Cursor() <= p.Len())
		}
	}
}

func TestPatternOrderReproduced(t *testing.T) {
	p := pattern.MustParse(pattern.Presets["sos"])
	levels, _ := run(p.String(), RestartOnNextTick, 3*(p.Len()+1))
	require.Len(t, levels, 3*p.Len())
	for n, high := range levels {
		require.Equalf(t, p.At(n%p.Len()) == pattern.High, high, "write %d", n)
	}
}

func TestParseRestartPolicy(t *testing.T) {
	p, err := ParseRestartPolicy("immediate")
	require.NoError(t, err)
	require.Equal(t, RestartImmediately, p)
	p, err = ParseRestartPolicy("")
	require.NoError(t, err)
	require.Equal(t, RestartOnNextTick, p)
	_, err = ParseRestartPolicy("later")
	require.Error(t, err)
}
