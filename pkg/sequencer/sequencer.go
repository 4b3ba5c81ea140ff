// Package sequencer plays a pattern on an output, one symbol per timing
// event.
package sequencer

import (
	"fmt"

	"github.com/robotalks/beacon/pkg/pattern"
)

// Output is the driver the sequencer writes levels to.
type Output interface {
	Set(high bool)
}

// RestartPolicy decides what a step does when it reaches the sentinel.
type RestartPolicy int

// Restart policies
const (
	// RestartOnNextTick rewinds the cursor and writes nothing; the first
	// symbol is emitted by the following event. The last level is held one
	// extra period at each restart.
	RestartOnNextTick RestartPolicy = iota
	// RestartImmediately rewinds the cursor and emits the first symbol in
	// the same step.
	RestartImmediately
)

// String implements fmt.Stringer.
func (p RestartPolicy) String() string {
	switch p {
	case RestartOnNextTick:
		return "next-tick"
	case RestartImmediately:
		return "immediate"
	}
	return fmt.Sprintf("RestartPolicy(%d)", int(p))
}

// ParseRestartPolicy parses the name of a RestartPolicy.
func ParseRestartPolicy(s string) (RestartPolicy, error) {
	switch s {
	case "next-tick", "":
		return RestartOnNextTick, nil
	case "immediate":
		return RestartImmediately, nil
	}
	return 0, fmt.Errorf("unknown restart policy %q", s)
}

// State is the logical state of the sequencer after a step.
type State int

// States
const (
	StateIdle State = iota
	StateEmittingHigh
	StateEmittingLow
	StateRestarting
)

// String implements fmt.Stringer.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StateEmittingHigh:
		return "EMITTING_HIGH"
	case StateEmittingLow:
		return "EMITTING_LOW"
	case StateRestarting:
		return "RESTARTING"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// StepEvent describes one completed step.
type StepEvent struct {
	// Tick counts steps since setup, starting at 1.
	Tick uint64
	// Cursor is the index of the symbol read by the step.
	Cursor int
	Symbol pattern.Symbol
	State  State
	// Wrote indicates the output was written.
	Wrote bool
	High  bool
}

// Observer is notified after each step. It's called from the interrupt
// handler and must return without blocking.
type Observer interface {
	StepDone(StepEvent)
}

// ObserverFunc is the func form of Observer.
type ObserverFunc func(StepEvent)

// StepDone implements Observer.
func (f ObserverFunc) StepDone(ev StepEvent) {
	f(ev)
}

// Sequencer holds the cursor into a pattern and the asserted level.
// It's owned by the interrupt handler: Step must not be called
// concurrently.
type Sequencer struct {
	Pattern  pattern.Pattern
	Out      Output
	Policy   RestartPolicy
	Observer Observer

	cursor   int
	high     bool
	asserted bool
	state    State
	ticks    uint64
}

// New creates a Sequencer at cursor 0 with the output not yet written.
func New(p pattern.Pattern, out Output) *Sequencer {
	return &Sequencer{Pattern: p, Out: out}
}

// WithPolicy sets the restart policy.
func (s *Sequencer) WithPolicy(p RestartPolicy) *Sequencer {
	s.Policy = p
	return s
}

// Step advances the pattern by one timing event.
func (s *Sequencer) Step() {
	s.ticks++
	ev := StepEvent{Tick: s.ticks, Cursor: s.cursor, Symbol: s.Pattern.At(s.cursor)}
	if ev.Symbol == pattern.Sentinel {
		s.cursor, s.state = 0, StateRestarting
		if s.Policy == RestartImmediately {
			ev.Cursor, ev.Symbol = 0, s.Pattern.At(0)
			s.emit(ev.Symbol)
			ev.Wrote = true
		}
	} else {
		s.emit(ev.Symbol)
		ev.Wrote = true
	}
	ev.State, ev.High = s.state, s.high
	if o := s.Observer; o != nil {
		o.StepDone(ev)
	}
}

func (s *Sequencer) emit(sym pattern.Symbol) {
	switch sym {
	case pattern.High:
		s.high, s.state = true, StateEmittingHigh
	case pattern.Low:
		s.high, s.state = false, StateEmittingLow
	}
	s.asserted = true
	s.Out.Set(s.high)
	s.cursor++
}

// Cursor returns the index of the next symbol.
func (s *Sequencer) Cursor() int {
	return s.cursor
}

// Level returns the asserted level; ok is false before the first write.
func (s *Sequencer) Level() (high bool, ok bool) {
	return s.high, s.asserted
}

// State returns the state after the last step.
func (s *Sequencer) State() State {
	return s.state
}

// Ticks returns the number of steps taken.
func (s *Sequencer) Ticks() uint64 {
	return s.ticks
}
