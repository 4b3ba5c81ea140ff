package sh

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/fatih/color"

	fx "github.com/robotalks/beacon/pkg/framework"
	"github.com/robotalks/beacon/pkg/telemetry"
	"github.com/robotalks/beacon/pkg/telemetry/msgs"
)

var (
	lampOn  = color.New(color.FgHiRed, color.Bold)
	lampOff = color.New(color.FgHiBlack)
	warn    = color.New(color.FgYellow)
)

// FormatInfo prints BoardInfo into friendly string for display.
func FormatInfo(info telemetry.BoardInfo) string {
	var w bytes.Buffer
	fmt.Fprintf(&w, "%s", info.Ref.Name())
	if info.Meta.Description != "" {
		fmt.Fprintf(&w, ": %s", info.Meta.Description)
	}
	return w.String()
}

// FormatEvent prints an event message for display.
func FormatEvent(msg fx.Message) string {
	switch m := msg.(type) {
	case *msgs.BoardStarted:
		return fmt.Sprintf("started: %q on %s every %v (%s), sleep %s, restart %s, bod-disabled=%v",
			m.Pattern, m.Timer, m.Period(), m.Setting, m.SleepMode, m.Restart, m.BodDisabled)
	case *msgs.StepEvent:
		lamp := lampOff.Sprint("○")
		if m.High {
			lamp = lampOn.Sprint("●")
		}
		if !m.Wrote {
			lamp = " "
		}
		return fmt.Sprintf("%s #%d [%d] %s %s", lamp, m.Tick, m.Cursor, m.PatternSymbol(), m.State)
	case *msgs.PowerStats:
		return fmt.Sprintf("raised=%d coalesced=%d dispatched=%d sleeps=%d wakeups=%d bod-off=%d cycles=%d dropped=%d",
			m.Raised, m.Coalesced, m.Dispatched, m.Sleeps, m.Wakeups, m.BodOffSleeps, m.Cycles, m.Dropped)
	case *msgs.BoardStopped:
		return warn.Sprintf("stopped: %s", m.Reason)
	case msgs.SerializableMessage:
		return fmt.Sprintf("[%s] %s", reflect.Indirect(reflect.ValueOf(msg)).Type().Name(), m.Serializable().String())
	}
	return fmt.Sprintf("%v", msg)
}

// FormatJSON prints an event message in JSON.
func FormatJSON(msg fx.Message) (string, error) {
	m, ok := msg.(msgs.SerializableMessage)
	if !ok {
		return "", msgs.ErrNotSerializable
	}
	out, err := json.Marshal(struct {
		Type    string      `json:"type"`
		Message interface{} `json:"message"`
	}{
		Type:    reflect.Indirect(reflect.ValueOf(msg)).Type().Name(),
		Message: m.Serializable(),
	})
	if err != nil {
		return "", err
	}
	return string(out), nil
}
