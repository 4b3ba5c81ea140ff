package mqtt

import (
	"context"
	"io"
	"time"

	"github.com/robotalks/beacon/pkg/telemetry"
)

// DefaultPublishTimeout limits how long a publish waits for the broker.
const DefaultPublishTimeout = 2 * time.Second

// ReadWriter implements PacketReadWriter on a pair of topics.
type ReadWriter struct {
	Queue    *Queue
	SubTopic string
	PubTopic string
	QoS      byte
	Timeout  time.Duration

	packetCh chan []byte
	done     chan struct{}
}

// NewPacketReadWriter creates the ReadWriter.
func NewPacketReadWriter(q *Queue) *ReadWriter {
	return &ReadWriter{
		Queue:    q,
		Timeout:  DefaultPublishTimeout,
		packetCh: make(chan []byte, 16),
		done:     make(chan struct{}),
	}
}

// WithTopics specifies the topics.
func (p *ReadWriter) WithTopics(sub, pub string) *ReadWriter {
	p.SubTopic, p.PubTopic = sub, pub
	return p
}

// ForBoard publishes the events of the board.
func (p *ReadWriter) ForBoard(ref telemetry.BoardRef) *ReadWriter {
	return p.WithTopics("", MsgTopic(ref))
}

// ForWatcher receives the events of the board.
func (p *ReadWriter) ForWatcher(ref telemetry.BoardRef) *ReadWriter {
	return p.WithTopics(MsgTopic(ref), "")
}

// ReadPacket implements PacketReader.
func (p *ReadWriter) ReadPacket() ([]byte, error) {
	select {
	case pkt := <-p.packetCh:
		return pkt, nil
	case <-p.done:
		return nil, io.EOF
	}
}

// WritePacket implements PacketWriter. Events are sent at most once: a
// board keeps running when the broker is gone.
func (p *ReadWriter) WritePacket(pkt []byte) error {
	token := p.Queue.PubWith(p.PubTopic, pkt, p.QoS, false)
	if !token.WaitTimeout(p.Timeout) {
		return context.DeadlineExceeded
	}
	return token.Error()
}

// Run implements Runnable.
func (p *ReadWriter) Run(ctx context.Context) error {
	if p.SubTopic != "" {
		sub := p.Queue.Sub(p.SubTopic, Handler(p.handleMsg))
		defer sub.Close()
	}
	<-ctx.Done()
	p.Close()
	return ctx.Err()
}

// Close implements io.Closer. It stops readers, the queue is left open.
func (p *ReadWriter) Close() error {
	select {
	case <-p.done:
	default:
		close(p.done)
	}
	return nil
}

func (p *ReadWriter) handleMsg(_ string, payload []byte) {
	select {
	case p.packetCh <- payload:
	case <-p.done:
	}
}
