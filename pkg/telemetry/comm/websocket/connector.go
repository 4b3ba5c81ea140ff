package websocket

import (
	"context"
	"fmt"
	"net/url"

	"github.com/robotalks/beacon/pkg/telemetry"
	"github.com/robotalks/beacon/pkg/telemetry/comm"
)

// RefType is the board type reported for a websocket endpoint.
const RefType = "ws"

// Connector implements telemetry.Connector for the single board serving
// telemetry at URL.
type Connector struct {
	URL string
	Ref telemetry.BoardRef
}

// NewConnector creates a Connector, e.g. ws://localhost:8080/telemetry.
func NewConnector(rawURL string) (*Connector, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, err
	}
	if u.Path == "" {
		u.Path = DefaultPath
	}
	return &Connector{
		URL: u.String(),
		Ref: telemetry.BoardRef{Type: RefType, ID: u.Host},
	}, nil
}

// Discover implements telemetry.Connector.
func (c *Connector) Discover(ctx context.Context) ([]telemetry.BoardInfo, error) {
	return []telemetry.BoardInfo{{Ref: c.Ref}}, nil
}

// Connect implements telemetry.Connector.
func (c *Connector) Connect(ctx context.Context, ref telemetry.BoardRef) (telemetry.BoardConn, error) {
	if ref.IsValid() && ref != c.Ref {
		return nil, fmt.Errorf("unknown board %s", ref.Name())
	}
	rw, err := Dial(c.URL)
	if err != nil {
		return nil, err
	}
	conn := &comm.BoardConn{}
	conn.Init(rw)
	return conn, nil
}
