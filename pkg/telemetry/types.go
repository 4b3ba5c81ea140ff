// Package telemetry defines how a running board reports what it does to
// host tools. Telemetry only flows out of the board: the firmware has no
// command surface.
package telemetry

import (
	"context"

	fx "github.com/robotalks/beacon/pkg/framework"
)

// Publisher sends events of a board.
type Publisher interface {
	// SendEvent publishes an event message.
	SendEvent(context.Context, fx.Message) error
}

// BoardRef is a reference to a running board.
type BoardRef struct {
	// Type is the board type, e.g. the firmware variant.
	Type string `json:"type"`
	// ID is unique ID of the board.
	ID string `json:"id"`
}

// Name retrieves the name from ref.
func (r BoardRef) Name() string {
	return r.Type + "/" + r.ID
}

// IsValid indicates BoardRef is valid.
func (r BoardRef) IsValid() bool {
	return r.Type != "" && r.ID != ""
}

// BoardMeta describes a board.
type BoardMeta struct {
	Description string            `json:"description,omitempty"`
	Labels      map[string]string `json:"labels,omitempty"`
}

// BoardInfo provides information of a board.
type BoardInfo struct {
	Ref  BoardRef  `json:"ref"`
	Meta BoardMeta `json:"meta"`
}

// Connector is used by host tools to find boards and receive their events.
type Connector interface {
	// Discover enumerates boards currently publishing.
	Discover(context.Context) ([]BoardInfo, error)
	// Connect subscribes to the events of a board.
	Connect(context.Context, BoardRef) (BoardConn, error)
}

// BoardConn delivers events of a board as messages posted to the loop it
// is added to.
type BoardConn interface {
	fx.LoopAdder
	Close() error
}
