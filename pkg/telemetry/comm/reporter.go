package comm

import (
	"sync/atomic"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/golang/glog"

	fx "github.com/robotalks/beacon/pkg/framework"
	"github.com/robotalks/beacon/pkg/mcu"
	"github.com/robotalks/beacon/pkg/sequencer"
	"github.com/robotalks/beacon/pkg/telemetry"
	"github.com/robotalks/beacon/pkg/telemetry/msgs"
)

// DefaultReportBuffer is the number of events buffered between loop
// iterations.
const DefaultReportBuffer = 64

// StatsSource provides the counters of the core.
type StatsSource interface {
	Stats() mcu.Stats
	Cycles() uint64
}

// Reporter collects board events and publishes them from the loop. It
// implements sequencer.Observer: StepDone never blocks, events that don't
// fit in the buffer are dropped and counted.
type Reporter struct {
	Publisher     telemetry.Publisher
	Clock         clock.Clock
	Stats         StatsSource
	StatsInterval time.Duration

	events    chan fx.Message
	dropped   uint64
	lastStats time.Time
}

// NewReporter creates a Reporter.
func NewReporter(pub telemetry.Publisher, bufSize int) *Reporter {
	if bufSize <= 0 {
		bufSize = DefaultReportBuffer
	}
	return &Reporter{
		Publisher: pub,
		Clock:     clock.New(),
		events:    make(chan fx.Message, bufSize),
	}
}

// StepDone implements sequencer.Observer.
func (r *Reporter) StepDone(ev sequencer.StepEvent) {
	r.Post(msgs.NewStepEvent(ev, r.Clock.Now()))
}

// Post queues a message for publishing without blocking.
func (r *Reporter) Post(msg fx.Message) {
	select {
	case r.events <- msg:
	default:
		atomic.AddUint64(&r.dropped, 1)
	}
}

// Dropped returns the number of events dropped.
func (r *Reporter) Dropped() uint64 {
	return atomic.LoadUint64(&r.dropped)
}

// Control implements Controller. Queued events are published in order,
// followed by the counters of the core when StatsInterval elapsed.
func (r *Reporter) Control(cc fx.ControlContext) error {
	var errs fx.AggregatedError
	for {
		select {
		case msg := <-r.events:
			errs.Add(r.Publisher.SendEvent(cc.Context(), msg))
			continue
		default:
		}
		break
	}
	if r.Stats != nil && r.StatsInterval > 0 {
		if now := cc.Time(); now.Sub(r.lastStats) >= r.StatsInterval {
			r.lastStats = now
			errs.Add(r.Publisher.SendEvent(cc.Context(), r.PowerStats()))
		}
	}
	if err := errs.Aggregate(); err != nil {
		glog.V(1).Infof("publish: %v", err)
		return err
	}
	return nil
}

// PowerStats returns the current counters as a message.
func (r *Reporter) PowerStats() *msgs.PowerStats {
	return msgs.NewPowerStats(r.Stats.Stats(), r.Stats.Cycles(), r.Dropped())
}

// AddToLoop implements LoopAdder.
func (r *Reporter) AddToLoop(l *fx.Loop) {
	l.AddController(fx.PrLvReport, r)
}
