package stream

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/robotalks/beacon/pkg/telemetry"
	"github.com/robotalks/beacon/pkg/telemetry/comm"
)

// RefType is the board type reported for a recording.
const RefType = "file"

// NewRecorder creates a Publisher appending packets to a file.
func NewRecorder(fn string) (*comm.Publisher, error) {
	f, err := os.OpenFile(fn, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, err
	}
	pub := &comm.Publisher{}
	pub.Init(New(f))
	return pub, nil
}

// Connector implements telemetry.Connector replaying a recording.
type Connector struct {
	Path string
	Ref  telemetry.BoardRef
}

// NewConnector creates a Connector for a recorded file.
func NewConnector(fn string) *Connector {
	return &Connector{
		Path: fn,
		Ref:  telemetry.BoardRef{Type: RefType, ID: filepath.Base(fn)},
	}
}

// Discover implements telemetry.Connector.
func (c *Connector) Discover(ctx context.Context) ([]telemetry.BoardInfo, error) {
	if _, err := os.Stat(c.Path); err != nil {
		return nil, err
	}
	return []telemetry.BoardInfo{{Ref: c.Ref}}, nil
}

// Connect implements telemetry.Connector. Events are delivered as fast as
// the file is read.
func (c *Connector) Connect(ctx context.Context, ref telemetry.BoardRef) (telemetry.BoardConn, error) {
	if ref.IsValid() && ref != c.Ref {
		return nil, fmt.Errorf("unknown board %s", ref.Name())
	}
	f, err := os.Open(c.Path)
	if err != nil {
		return nil, err
	}
	conn := &comm.BoardConn{}
	conn.Init(New(f))
	return conn, nil
}
