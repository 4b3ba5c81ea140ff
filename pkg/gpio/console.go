package gpio

import (
	"io"
	"os"
	"sync"

	"github.com/fatih/color"
)

// Console mirrors a Pin as a colored lamp on a terminal line.
type Console struct {
	Pin   Pin
	Label string
	Out   io.Writer

	lock    sync.Mutex
	last    bool
	written bool
	on      *color.Color
	off     *color.Color
}

// NewConsole creates a Console writing to stdout.
func NewConsole(pin Pin, label string) *Console {
	return &Console{
		Pin:   pin,
		Label: label,
		Out:   os.Stdout,
		on:    color.New(color.FgHiRed, color.Bold),
		off:   color.New(color.FgHiBlack),
	}
}

// Set implements Pin. Only level changes are rendered.
func (c *Console) Set(high bool) {
	if c.Pin != nil {
		c.Pin.Set(high)
	}
	c.lock.Lock()
	defer c.lock.Unlock()
	if c.written && c.last == high {
		return
	}
	c.last, c.written = high, true
	lamp := c.off.Sprint("○")
	if high {
		lamp = c.on.Sprint("●")
	}
	io.WriteString(c.Out, "\r"+c.Label+" "+lamp)
}

// Get implements Pin.
func (c *Console) Get() bool {
	if c.Pin != nil {
		return c.Pin.Get()
	}
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.last
}
