package pattern

import (
	"fmt"
	"io/ioutil"
	"strings"

	"github.com/abiosoft/ishell"

	"github.com/robotalks/beacon/pkg/cli/sh"
	fx "github.com/robotalks/beacon/pkg/framework"
	"github.com/robotalks/beacon/pkg/pattern"
	"github.com/robotalks/beacon/pkg/telemetry/msgs"
)

// Learn reassembles the pattern from the steps of one full cycle.
func Learn(s *sh.Shell) (pattern.Pattern, error) {
	var (
		asm    pattern.Assembler
		result pattern.Pattern
		done   bool
	)
	err := s.WatchEvents(func(msg fx.Message) bool {
		ev, ok := msg.(*msgs.StepEvent)
		if !ok {
			return true
		}
		result, done = asm.Add(int(ev.Cursor), ev.PatternSymbol())
		return !done
	})
	return result, err
}

// CaptureLevels collects the levels of count writes.
func CaptureLevels(s *sh.Shell, count int) (string, error) {
	levels := make([]bool, 0, count)
	err := s.WatchEvents(func(msg fx.Message) bool {
		if ev, ok := msg.(*msgs.StepEvent); ok && ev.Wrote {
			levels = append(levels, ev.High)
		}
		return len(levels) < count
	})
	return pattern.Capture(levels), err
}

var (
	// PresetsCmd lists the preset patterns.
	PresetsCmd = ishell.Cmd{
		Name:    "pattern.presets",
		Aliases: []string{"presets"},
		Help:    "",
		Func: func(c *ishell.Context) {
			for _, name := range pattern.PresetNames() {
				c.Printf("%-8s %s\n", name, pattern.Presets[name])
			}
		},
	}

	// DecodeCmd recovers the pattern from a captured signal.
	DecodeCmd = ishell.Cmd{
		Name:    "pattern.decode",
		Aliases: []string{"decode"},
		Help:    "FILE|SIGNAL",
		Func: func(c *ishell.Context) {
			if len(c.Args) < 1 {
				c.Err(fmt.Errorf("FILE or SIGNAL required"))
				return
			}
			signal := strings.Join(c.Args, "")
			if data, err := ioutil.ReadFile(c.Args[0]); err == nil {
				signal = string(data)
			}
			p, err := pattern.Recover(signal)
			if err != nil {
				c.Err(err)
				return
			}
			c.Println(p.String())
		},
	}

	// LearnCmd reassembles the pattern of the connected board.
	LearnCmd = ishell.Cmd{
		Name:    "pattern.learn",
		Aliases: []string{"learn"},
		Help:    "",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			p, err := Learn(sh.ShellFrom(c))
			if err != nil {
				c.Err(err)
				return
			}
			c.Println(p.String())
		}),
	}

	// CaptureCmd captures the LED levels of the connected board.
	CaptureCmd = ishell.Cmd{
		Name:    "pattern.capture",
		Aliases: []string{"capture"},
		Help:    "COUNT [FILE]",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			count, err := sh.CountArg(c, 0, 2*len(pattern.Presets[pattern.DefaultPreset]))
			if err != nil {
				c.Err(err)
				return
			}
			signal, err := CaptureLevels(sh.ShellFrom(c), count)
			if err != nil {
				c.Err(err)
				return
			}
			if len(c.Args) > 1 {
				if err := ioutil.WriteFile(c.Args[1], []byte(signal+"\n"), 0644); err != nil {
					c.Err(err)
				}
				return
			}
			c.Println(signal)
		}),
	}
)

func init() {
	sh.AddCmds(
		&PresetsCmd,
		&DecodeCmd,
		&LearnCmd,
		&CaptureCmd,
	)
}
