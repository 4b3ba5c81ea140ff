package msgs

import (
	"time"

	"github.com/golang/protobuf/proto"

	fx "github.com/robotalks/beacon/pkg/framework"
	"github.com/robotalks/beacon/pkg/mcu"
	"github.com/robotalks/beacon/pkg/pattern"
	pb "github.com/robotalks/beacon/pkg/proto/beacon/v1"
	"github.com/robotalks/beacon/pkg/sequencer"
)

// TypeID Groups
const (
	GroupBoard  uint32 = 0x00010000
	GroupCustom uint32 = 0x7f000000 // base group id for custom messages.
)

// TypeIDs
const (
	BoardStartedTypeID uint32 = TypeIDKindEvent | GroupBoard | 0x0001
	StepEventTypeID    uint32 = TypeIDKindEvent | GroupBoard | 0x0002
	PowerStatsTypeID   uint32 = TypeIDKindEvent | GroupBoard | 0x0003
	BoardStoppedTypeID uint32 = TypeIDKindEvent | GroupBoard | 0x0004
)

// BoardStarted reports the build configuration once setup completed.
type BoardStarted struct {
	pb.BoardStarted
}

// NewMessage implements Message.
func (m *BoardStarted) NewMessage() fx.Message { return &BoardStarted{} }

// TypeID implements SerializableMessage.
func (m *BoardStarted) TypeID() uint32 { return BoardStartedTypeID }

// Serializable implements SerializableMessage.
func (m *BoardStarted) Serializable() proto.Message { return &m.BoardStarted }

// Period returns the realized timer period.
func (m *BoardStarted) Period() time.Duration { return time.Duration(m.PeriodNs) }

// StepEvent reports one step of the sequencer.
type StepEvent struct {
	pb.StepEvent
}

// NewStepEvent converts a sequencer event observed at a time.
func NewStepEvent(ev sequencer.StepEvent, at time.Time) *StepEvent {
	m := &StepEvent{}
	m.Tick = ev.Tick
	m.Cursor = uint32(ev.Cursor)
	m.Symbol = uint32(ev.Symbol)
	m.State = ev.State.String()
	m.Wrote = ev.Wrote
	m.High = ev.High
	m.TimeNs = at.UnixNano()
	return m
}

// NewMessage implements Message.
func (m *StepEvent) NewMessage() fx.Message { return &StepEvent{} }

// TypeID implements SerializableMessage.
func (m *StepEvent) TypeID() uint32 { return StepEventTypeID }

// Serializable implements SerializableMessage.
func (m *StepEvent) Serializable() proto.Message { return &m.StepEvent }

// PatternSymbol returns the symbol read by the step.
func (m *StepEvent) PatternSymbol() pattern.Symbol { return pattern.Symbol(m.Symbol) }

// Time returns when the step happened.
func (m *StepEvent) Time() time.Time { return time.Unix(0, m.TimeNs) }

// PowerStats reports the counters of the core.
type PowerStats struct {
	pb.PowerStats
}

// NewPowerStats converts core counters.
func NewPowerStats(s mcu.Stats, cycles, dropped uint64) *PowerStats {
	m := &PowerStats{}
	m.Raised = s.Raised
	m.Coalesced = s.Coalesced
	m.Dispatched = s.Dispatched
	m.Sleeps = s.Sleeps
	m.Wakeups = s.Wakeups
	m.BodOffSleeps = s.BODOffSleeps
	m.Cycles = cycles
	m.Dropped = dropped
	return m
}

// NewMessage implements Message.
func (m *PowerStats) NewMessage() fx.Message { return &PowerStats{} }

// TypeID implements SerializableMessage.
func (m *PowerStats) TypeID() uint32 { return PowerStatsTypeID }

// Serializable implements SerializableMessage.
func (m *PowerStats) Serializable() proto.Message { return &m.PowerStats }

// BoardStopped reports why the core stopped.
type BoardStopped struct {
	pb.BoardStopped
}

// NewBoardStopped creates the message from the error of the core.
func NewBoardStopped(err error) *BoardStopped {
	m := &BoardStopped{}
	if err != nil {
		m.Reason = err.Error()
	}
	return m
}

// NewMessage implements Message.
func (m *BoardStopped) NewMessage() fx.Message { return &BoardStopped{} }

// TypeID implements SerializableMessage.
func (m *BoardStopped) TypeID() uint32 { return BoardStoppedTypeID }

// Serializable implements SerializableMessage.
func (m *BoardStopped) Serializable() proto.Message { return &m.BoardStopped }
