package msgs

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/beacon/pkg/mcu"
	"github.com/robotalks/beacon/pkg/pattern"
	"github.com/robotalks/beacon/pkg/sequencer"
)

func TestTypedStepEvent(t *testing.T) {
	at := time.Unix(1700000000, 5)
	ev := NewStepEvent(sequencer.StepEvent{
		Tick:   36,
		Cursor: 35,
		Symbol: pattern.Sentinel,
		State:  sequencer.StateRestarting,
	}, at)

	typed, err := TypedFrom(ev)
	require.NoError(t, err)
	require.True(t, typed.IsEvent())
	data, err := typed.Encode()
	require.NoError(t, err)

	msg, decoded, err := DecodeMessage(data)
	require.NoError(t, err)
	require.Equal(t, StepEventTypeID, decoded.TypeId)
	step, ok := msg.(*StepEvent)
	require.True(t, ok)
	require.Equal(t, uint64(36), step.Tick)
	require.Equal(t, uint32(35), step.Cursor)
	require.Equal(t, pattern.Sentinel, step.PatternSymbol())
	require.Equal(t, "RESTARTING", step.State)
	require.False(t, step.Wrote)
	require.True(t, at.Equal(step.Time()))
}

func TestTypedPowerStats(t *testing.T) {
	typed, err := TypedFrom(NewPowerStats(mcu.Stats{Raised: 3, Dispatched: 2, Coalesced: 1, BODOffSleeps: 2}, 99, 4))
	require.NoError(t, err)
	msg, err := typed.Decode()
	require.NoError(t, err)
	stats := msg.(*PowerStats)
	require.Equal(t, uint64(3), stats.Raised)
	require.Equal(t, uint64(2), stats.BodOffSleeps)
	require.Equal(t, uint64(99), stats.Cycles)
	require.Equal(t, uint64(4), stats.Dropped)
}

func TestDecodeUnknownType(t *testing.T) {
	typed := &Typed{}
	typed.TypeId = TypeIDKindEvent | GroupCustom | 1
	data, err := typed.Encode()
	require.NoError(t, err)
	_, _, err = DecodeMessage(data)
	require.IsType(t, &ErrUnknownType{}, err)
}

func TestNotSerializable(t *testing.T) {
	_, err := TypedFrom(nil)
	require.Equal(t, ErrNotSerializable, err)
}
