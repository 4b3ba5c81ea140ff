// Package stream frames telemetry packets on a byte stream, e.g. a file
// recording a session or a serial link.
package stream

import (
	"encoding/binary"
	"errors"
	"io"
	"sync"
)

// MaxPacketSize bounds the size accepted by ReadPacket.
const MaxPacketSize = 1 << 16

// ErrPacketTooLarge is returned for a length prefix over MaxPacketSize.
var ErrPacketTooLarge = errors.New("packet too large")

// ReadWriter implements PacketReadWriter.
// Each packet is prefixed by 4-byte (little-endian) length.
type ReadWriter struct {
	io.ReadWriter

	lock sync.Mutex
}

// New creates a ReadWriter with io.ReadWriter.
func New(s io.ReadWriter) *ReadWriter {
	return &ReadWriter{ReadWriter: s}
}

// ReadPacket implements PacketReader.
func (p *ReadWriter) ReadPacket() ([]byte, error) {
	var size uint32
	if err := binary.Read(p.ReadWriter, binary.LittleEndian, &size); err != nil {
		return nil, err
	}
	if size > MaxPacketSize {
		return nil, ErrPacketTooLarge
	}
	pkt := make([]byte, size)
	if _, err := io.ReadFull(p.ReadWriter, pkt); err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return nil, err
	}
	return pkt, nil
}

// WritePacket implements PacketWriter. The prefix and the packet are
// written as one chunk.
func (p *ReadWriter) WritePacket(pkt []byte) error {
	if len(pkt) > MaxPacketSize {
		return ErrPacketTooLarge
	}
	buf := make([]byte, 4+len(pkt))
	binary.LittleEndian.PutUint32(buf, uint32(len(pkt)))
	copy(buf[4:], pkt)
	p.lock.Lock()
	defer p.lock.Unlock()
	_, err := p.Write(buf)
	return err
}

// Close implements io.Closer when the stream does.
func (p *ReadWriter) Close() error {
	if closer, ok := p.ReadWriter.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}
