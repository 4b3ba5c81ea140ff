package comm

import (
	"context"

	fx "github.com/robotalks/beacon/pkg/framework"
	"github.com/robotalks/beacon/pkg/telemetry"
)

// Publisher implements telemetry.Publisher over a Pipe.
type Publisher struct {
	pipe Pipe
}

// Init initializes the Publisher with the transport.
func (p *Publisher) Init(w PacketWriter) {
	p.pipe.Writer = w
}

// SendEvent implements telemetry.Publisher.
func (p *Publisher) SendEvent(ctx context.Context, msg fx.Message) error {
	return p.pipe.SendEventMsg(msg)
}

// Close closes the transport.
func (p *Publisher) Close() error {
	return p.pipe.Close()
}

// AddToLoop implements LoopAdder.
func (p *Publisher) AddToLoop(loop *fx.Loop) {
	loop.Add(&p.pipe)
}

// PublisherMux publishes to multiple Publishers.
type PublisherMux struct {
	Publishers []telemetry.Publisher
}

// SendEvent implements telemetry.Publisher.
func (m *PublisherMux) SendEvent(ctx context.Context, msg fx.Message) error {
	var errs fx.AggregatedError
	for _, pub := range m.Publishers {
		errs.Add(pub.SendEvent(ctx, msg))
	}
	return errs.Aggregate()
}

// AddToLoop implements LoopAdder.
func (m *PublisherMux) AddToLoop(l *fx.Loop) {
	for _, pub := range m.Publishers {
		if adder, ok := pub.(fx.LoopAdder); ok {
			l.Add(adder)
		}
	}
}

// Add adds more publishers.
func (m *PublisherMux) Add(pubs ...telemetry.Publisher) {
	m.Publishers = append(m.Publishers, pubs...)
}

// Len returns the number of publishers.
func (m *PublisherMux) Len() int {
	return len(m.Publishers)
}
