package comm

import (
	"context"

	fx "github.com/robotalks/beacon/pkg/framework"
	"github.com/robotalks/beacon/pkg/telemetry/msgs"
)

// BoardConn provides base implementation for telemetry.BoardConn using
// Pipe: received events are posted to the loop.
type BoardConn struct {
	pipe Pipe
}

// Init initializes BoardConn with the transport.
func (c *BoardConn) Init(rw PacketReadWriter) {
	c.pipe.Reader = rw
	c.pipe.Handler = HandleEventFunc(c.handleEvent)
}

// AddToLoop implements LoopAdder.
func (c *BoardConn) AddToLoop(l *fx.Loop) {
	l.Add(&c.pipe)
}

// Close implements io.Closer.
func (c *BoardConn) Close() error {
	return c.pipe.Close()
}

func (c *BoardConn) handleEvent(ctx context.Context, msg fx.Message, typed *msgs.Typed) error {
	if !typed.IsEvent() {
		return nil
	}
	loopCtl := fx.LoopCtlFrom(ctx)
	loopCtl.PostMessage(msg)
	loopCtl.TriggerNext()
	return nil
}
