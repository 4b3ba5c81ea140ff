package comm

import (
	"context"
	"io"
	"sync"

	"github.com/golang/glog"

	fx "github.com/robotalks/beacon/pkg/framework"
	"github.com/robotalks/beacon/pkg/telemetry/msgs"
)

// EventHandler receives decoded events.
type EventHandler interface {
	HandleEvent(context.Context, fx.Message, *msgs.Typed) error
}

// HandleEventFunc is func form of EventHandler.
type HandleEventFunc func(context.Context, fx.Message, *msgs.Typed) error

// HandleEvent implements EventHandler.
func (f HandleEventFunc) HandleEvent(ctx context.Context, msg fx.Message, typed *msgs.Typed) error {
	return f(ctx, msg, typed)
}

// Pipe sends events over Writer and, when Run, decodes events read from
// Reader. Either side may be nil.
type Pipe struct {
	Reader  PacketReader
	Writer  PacketWriter
	Handler EventHandler

	sendLock sync.Mutex
	seq      uint32
}

// NewPipe creates a Pipe with given PacketReadWriter.
func NewPipe(rw PacketReadWriter) *Pipe {
	return &Pipe{Reader: rw, Writer: rw}
}

// SendEventMsg sends a message which must be an event.
func (p *Pipe) SendEventMsg(msg fx.Message) error {
	typed, err := msgs.TypedFrom(msg)
	if err != nil {
		return err
	}
	if !typed.IsEvent() {
		panic("message is not an event")
	}
	return p.SendTyped(typed)
}

// SendTyped sends a Typed message, numbering it in sending order.
func (p *Pipe) SendTyped(typed *msgs.Typed) error {
	p.sendLock.Lock()
	defer p.sendLock.Unlock()
	p.seq++
	typed.Sequence = p.seq
	pkt, err := typed.Encode()
	if err != nil {
		return err
	}
	return p.Writer.WritePacket(pkt)
}

// Run implements Runnable.
func (p *Pipe) Run(ctx context.Context) error {
	return fx.RunWithContextCloser(ctx, p, func() error {
		return p.receive(ctx)
	})
}

func (p *Pipe) receive(ctx context.Context) error {
	var lastSeq uint32
	for {
		pkt, err := p.Reader.ReadPacket()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		msg, typed, err := msgs.DecodeMessage(pkt)
		if err != nil {
			// Unknown messages from newer boards are skipped.
			glog.V(1).Infof("decode error: %v", err)
			continue
		}
		if lastSeq != 0 && typed.Sequence > lastSeq+1 {
			glog.V(1).Infof("%d messages lost", typed.Sequence-lastSeq-1)
		}
		lastSeq = typed.Sequence
		if h := p.Handler; h != nil {
			if err := h.HandleEvent(ctx, msg, typed); err != nil {
				return err
			}
		}
	}
}

// Close implements io.Closer.
func (p *Pipe) Close() error {
	var errs fx.AggregatedError
	if closer, ok := p.Reader.(io.Closer); ok {
		errs.Add(closer.Close())
	}
	if closer, ok := p.Writer.(io.Closer); ok && interface{}(p.Writer) != interface{}(p.Reader) {
		errs.Add(closer.Close())
	}
	return errs.Aggregate()
}

// AddToLoop implements LoopAdder. The transport is started with the loop
// if it needs to run, and so is the receiving side of the Pipe.
func (p *Pipe) AddToLoop(loop *fx.Loop) {
	var transport interface{} = p.Writer
	if p.Reader != nil {
		transport = p.Reader
	}
	if adder, ok := transport.(fx.LoopAdder); ok {
		loop.Add(adder)
	} else if runnable, ok := transport.(fx.Runnable); ok {
		loop.AddRunnable(runnable)
	}
	if p.Reader != nil {
		loop.AddRunnable(p)
	}
}
