package sh

import (
	"sync"

	fx "github.com/robotalks/beacon/pkg/framework"
	"github.com/robotalks/beacon/pkg/telemetry/msgs"
)

// Watcher takes the board events posted to a connection loop and hands
// them to the commands waiting for them.
type Watcher struct {
	lock    sync.Mutex
	started *msgs.BoardStarted
	stopped *msgs.BoardStopped
	subs    map[chan fx.Message]struct{}
}

// Started returns the last BoardStarted seen, nil if none.
func (w *Watcher) Started() *msgs.BoardStarted {
	w.lock.Lock()
	defer w.lock.Unlock()
	return w.started
}

// Stopped returns the last BoardStopped seen, nil if the board is running.
func (w *Watcher) Stopped() *msgs.BoardStopped {
	w.lock.Lock()
	defer w.lock.Unlock()
	return w.stopped
}

// Subscribe receives events from now on. A subscriber not keeping up with
// backlog misses events. The returned func unsubscribes.
func (w *Watcher) Subscribe(backlog int) (<-chan fx.Message, func()) {
	ch := make(chan fx.Message, backlog)
	w.lock.Lock()
	if w.subs == nil {
		w.subs = make(map[chan fx.Message]struct{})
	}
	w.subs[ch] = struct{}{}
	w.lock.Unlock()
	return ch, func() {
		w.lock.Lock()
		delete(w.subs, ch)
		w.lock.Unlock()
	}
}

// Control implements Controller.
func (w *Watcher) Control(cc fx.ControlContext) error {
	cc.Messages().ProcessMessages(func(msg fx.Message) bool {
		w.lock.Lock()
		defer w.lock.Unlock()
		switch m := msg.(type) {
		case *msgs.BoardStarted:
			w.started, w.stopped = m, nil
		case *msgs.BoardStopped:
			w.stopped = m
		}
		for ch := range w.subs {
			select {
			case ch <- msg:
			default:
			}
		}
		return true
	})
	return nil
}

// AddToLoop implements LoopAdder.
func (w *Watcher) AddToLoop(l *fx.Loop) {
	l.AddController(fx.PrLvControl, w)
}
