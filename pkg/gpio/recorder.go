package gpio

import (
	"sync"
	"time"

	"github.com/benbjohnson/clock"
)

// Write is a recorded pin write.
type Write struct {
	At   time.Time
	High bool
}

// Recorder wraps a Pin and records every write.
type Recorder struct {
	Pin   Pin
	Clock clock.Clock

	lock   sync.Mutex
	writes []Write
	notify chan struct{}
}

// NewRecorder creates a Recorder. pin may be nil.
func NewRecorder(pin Pin, clk clock.Clock) *Recorder {
	if clk == nil {
		clk = clock.New()
	}
	return &Recorder{Pin: pin, Clock: clk, notify: make(chan struct{}, 1)}
}

// Set implements Pin.
func (r *Recorder) Set(high bool) {
	if r.Pin != nil {
		r.Pin.Set(high)
	}
	r.lock.Lock()
	r.writes = append(r.writes, Write{At: r.Clock.Now(), High: high})
	r.lock.Unlock()
	select {
	case r.notify <- struct{}{}:
	default:
	}
}

// Get implements Pin.
func (r *Recorder) Get() bool {
	if r.Pin != nil {
		return r.Pin.Get()
	}
	r.lock.Lock()
	defer r.lock.Unlock()
	return len(r.writes) > 0 && r.writes[len(r.writes)-1].High
}

// Writes returns a copy of recorded writes.
func (r *Recorder) Writes() []Write {
	r.lock.Lock()
	defer r.lock.Unlock()
	return append([]Write(nil), r.writes...)
}

// Levels returns the recorded levels.
func (r *Recorder) Levels() []bool {
	r.lock.Lock()
	defer r.lock.Unlock()
	levels := make([]bool, len(r.writes))
	for n, w := range r.writes {
		levels[n] = w.High
	}
	return levels
}

// Len returns the number of recorded writes.
func (r *Recorder) Len() int {
	r.lock.Lock()
	defer r.lock.Unlock()
	return len(r.writes)
}

// Notify is signaled after writes.
func (r *Recorder) Notify() <-chan struct{} {
	return r.notify
}
