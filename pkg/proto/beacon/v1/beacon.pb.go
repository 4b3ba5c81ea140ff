// Package v1 holds the messages of beacon.proto.
//
// The structs follow the layout protoc-gen-go emits for proto3 and are
// encoded by github.com/golang/protobuf through their struct tags.
package v1

import (
	fmt "fmt"

	proto "github.com/golang/protobuf/proto"
)

var _ = fmt.Errorf

// This is a compile-time assertion to ensure that this file is compatible
// with the proto package it is being compiled against.
const _ = proto.ProtoPackageIsVersion3

// Typed wraps an encoded message with its type.
type Typed struct {
	TypeId               uint32   `protobuf:"varint,1,opt,name=type_id,json=typeId,proto3" json:"type_id,omitempty"`
	Sequence             uint32   `protobuf:"varint,2,opt,name=sequence,proto3" json:"sequence,omitempty"`
	Message              []byte   `protobuf:"bytes,3,opt,name=message,proto3" json:"message,omitempty"`
	XXX_NoUnkeyedLiteral struct{} `json:"-"`
	XXX_unrecognized     []byte   `json:"-"`
	XXX_sizecache        int32    `json:"-"`
}

func (m *Typed) Reset()         { *m = Typed{} }
func (m *Typed) String() string { return proto.CompactTextString(m) }
func (*Typed) ProtoMessage()    {}

func (m *Typed) GetTypeId() uint32 {
	if m != nil {
		return m.TypeId
	}
	return 0
}

func (m *Typed) GetSequence() uint32 {
	if m != nil {
		return m.Sequence
	}
	return 0
}

func (m *Typed) GetMessage() []byte {
	if m != nil {
		return m.Message
	}
	return nil
}

// BoardStarted is published once the firmware completed setup.
type BoardStarted struct {
	Pattern              string   `protobuf:"bytes,1,opt,name=pattern,proto3" json:"pattern,omitempty"`
	Timer                string   `protobuf:"bytes,2,opt,name=timer,proto3" json:"timer,omitempty"`
	PeriodNs             int64    `protobuf:"varint,3,opt,name=period_ns,json=periodNs,proto3" json:"period_ns,omitempty"`
	Setting              string   `protobuf:"bytes,4,opt,name=setting,proto3" json:"setting,omitempty"`
	SleepMode            string   `protobuf:"bytes,5,opt,name=sleep_mode,json=sleepMode,proto3" json:"sleep_mode,omitempty"`
	Restart              string   `protobuf:"bytes,6,opt,name=restart,proto3" json:"restart,omitempty"`
	BodDisabled          bool     `protobuf:"varint,7,opt,name=bod_disabled,json=bodDisabled,proto3" json:"bod_disabled,omitempty"`
	XXX_NoUnkeyedLiteral struct{} `json:"-"`
	XXX_unrecognized     []byte   `json:"-"`
	XXX_sizecache        int32    `json:"-"`
}

func (m *BoardStarted) Reset()         { *m = BoardStarted{} }
func (m *BoardStarted) String() string { return proto.CompactTextString(m) }
func (*BoardStarted) ProtoMessage()    {}

func (m *BoardStarted) GetPattern() string {
	if m != nil {
		return m.Pattern
	}
	return ""
}

func (m *BoardStarted) GetTimer() string {
	if m != nil {
		return m.Timer
	}
	return ""
}

func (m *BoardStarted) GetPeriodNs() int64 {
	if m != nil {
		return m.PeriodNs
	}
	return 0
}

func (m *BoardStarted) GetSetting() string {
	if m != nil {
		return m.Setting
	}
	return ""
}

func (m *BoardStarted) GetSleepMode() string {
	if m != nil {
		return m.SleepMode
	}
	return ""
}

func (m *BoardStarted) GetRestart() string {
	if m != nil {
		return m.Restart
	}
	return ""
}

func (m *BoardStarted) GetBodDisabled() bool {
	if m != nil {
		return m.BodDisabled
	}
	return false
}

// StepEvent is one step of the sequencer.
type StepEvent struct {
	Tick                 uint64   `protobuf:"varint,1,opt,name=tick,proto3" json:"tick,omitempty"`
	Cursor               uint32   `protobuf:"varint,2,opt,name=cursor,proto3" json:"cursor,omitempty"`
	Symbol               uint32   `protobuf:"varint,3,opt,name=symbol,proto3" json:"symbol,omitempty"`
	State                string   `protobuf:"bytes,4,opt,name=state,proto3" json:"state,omitempty"`
	Wrote                bool     `protobuf:"varint,5,opt,name=wrote,proto3" json:"wrote,omitempty"`
	High                 bool     `protobuf:"varint,6,opt,name=high,proto3" json:"high,omitempty"`
	TimeNs               int64    `protobuf:"varint,7,opt,name=time_ns,json=timeNs,proto3" json:"time_ns,omitempty"`
	XXX_NoUnkeyedLiteral struct{} `json:"-"`
	XXX_unrecognized     []byte   `json:"-"`
	XXX_sizecache        int32    `json:"-"`
}

func (m *StepEvent) Reset()         { *m = StepEvent{} }
func (m *StepEvent) String() string { return proto.CompactTextString(m) }
func (*StepEvent) ProtoMessage()    {}

func (m *StepEvent) GetTick() uint64 {
	if m != nil {
		return m.Tick
	}
	return 0
}

func (m *StepEvent) GetCursor() uint32 {
	if m != nil {
		return m.Cursor
	}
	return 0
}

func (m *StepEvent) GetSymbol() uint32 {
	if m != nil {
		return m.Symbol
	}
	return 0
}

func (m *StepEvent) GetState() string {
	if m != nil {
		return m.State
	}
	return ""
}

func (m *StepEvent) GetWrote() bool {
	if m != nil {
		return m.Wrote
	}
	return false
}

func (m *StepEvent) GetHigh() bool {
	if m != nil {
		return m.High
	}
	return false
}

func (m *StepEvent) GetTimeNs() int64 {
	if m != nil {
		return m.TimeNs
	}
	return 0
}

// PowerStats are the counters of the core.
type PowerStats struct {
	Raised               uint64   `protobuf:"varint,1,opt,name=raised,proto3" json:"raised,omitempty"`
	Coalesced            uint64   `protobuf:"varint,2,opt,name=coalesced,proto3" json:"coalesced,omitempty"`
	Dispatched           uint64   `protobuf:"varint,3,opt,name=dispatched,proto3" json:"dispatched,omitempty"`
	Sleeps               uint64   `protobuf:"varint,4,opt,name=sleeps,proto3" json:"sleeps,omitempty"`
	Wakeups              uint64   `protobuf:"varint,5,opt,name=wakeups,proto3" json:"wakeups,omitempty"`
	BodOffSleeps         uint64   `protobuf:"varint,6,opt,name=bod_off_sleeps,json=bodOffSleeps,proto3" json:"bod_off_sleeps,omitempty"`
	Cycles               uint64   `protobuf:"varint,7,opt,name=cycles,proto3" json:"cycles,omitempty"`
	Dropped              uint64   `protobuf:"varint,8,opt,name=dropped,proto3" json:"dropped,omitempty"`
	XXX_NoUnkeyedLiteral struct{} `json:"-"`
	XXX_unrecognized     []byte   `json:"-"`
	XXX_sizecache        int32    `json:"-"`
}

func (m *PowerStats) Reset()         { *m = PowerStats{} }
func (m *PowerStats) String() string { return proto.CompactTextString(m) }
func (*PowerStats) ProtoMessage()    {}

func (m *PowerStats) GetRaised() uint64 {
	if m != nil {
		return m.Raised
	}
	return 0
}

func (m *PowerStats) GetCoalesced() uint64 {
	if m != nil {
		return m.Coalesced
	}
	return 0
}

func (m *PowerStats) GetDispatched() uint64 {
	if m != nil {
		return m.Dispatched
	}
	return 0
}

func (m *PowerStats) GetSleeps() uint64 {
	if m != nil {
		return m.Sleeps
	}
	return 0
}

func (m *PowerStats) GetWakeups() uint64 {
	if m != nil {
		return m.Wakeups
	}
	return 0
}

func (m *PowerStats) GetBodOffSleeps() uint64 {
	if m != nil {
		return m.BodOffSleeps
	}
	return 0
}

func (m *PowerStats) GetCycles() uint64 {
	if m != nil {
		return m.Cycles
	}
	return 0
}

func (m *PowerStats) GetDropped() uint64 {
	if m != nil {
		return m.Dropped
	}
	return 0
}

// BoardStopped is published when the core stopped.
type BoardStopped struct {
	Reason               string   `protobuf:"bytes,1,opt,name=reason,proto3" json:"reason,omitempty"`
	XXX_NoUnkeyedLiteral struct{} `json:"-"`
	XXX_unrecognized     []byte   `json:"-"`
	XXX_sizecache        int32    `json:"-"`
}

func (m *BoardStopped) Reset()         { *m = BoardStopped{} }
func (m *BoardStopped) String() string { return proto.CompactTextString(m) }
func (*BoardStopped) ProtoMessage()    {}

func (m *BoardStopped) GetReason() string {
	if m != nil {
		return m.Reason
	}
	return ""
}

func init() {
	proto.RegisterType((*Typed)(nil), "beacon.v1.Typed")
	proto.RegisterType((*BoardStarted)(nil), "beacon.v1.BoardStarted")
	proto.RegisterType((*StepEvent)(nil), "beacon.v1.StepEvent")
	proto.RegisterType((*PowerStats)(nil), "beacon.v1.PowerStats")
	proto.RegisterType((*BoardStopped)(nil), "beacon.v1.BoardStopped")
}
