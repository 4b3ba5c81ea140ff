// Package framework runs the hosted side of a board: goroutines for the
// emulated hardware and a periodic loop for the host controllers
// (telemetry, console, statistics).
package framework

import (
	"context"
	"time"
)

// Named is an abstraction for things with a name.
type Named interface {
	Name() string
}

// Runnable defines a generic interface for background runners.
type Runnable interface {
	Run(context.Context) error
}

// RunFunc is the func form of Runnable.
type RunFunc func(context.Context) error

// Run implements Runnable.
func (f RunFunc) Run(ctx context.Context) error {
	return f(ctx)
}

// Message is posted to the loop and consumed by controllers.
type Message interface {
	// NewMessage creates an empty message of the same type.
	NewMessage() Message
}

// Controller is invoked once per loop iteration.
type Controller interface {
	Control(ControlContext) error
}

// ControlFunc defines the func form of Controller.
type ControlFunc func(ControlContext) error

// Control implements Controller.
func (f ControlFunc) Control(ctx ControlContext) error {
	return f(ctx)
}

// TimeSource provides the time for controlling logic.
type TimeSource interface {
	Time() time.Time
}

// ControlContext provides the context of current iteration.
type ControlContext interface {
	TimeSource
	// Context retrieves context.Context.
	Context() context.Context
	// PriorityLevel gets the current priority level.
	PriorityLevel() int
	// Messages retrieves the messages posted before this iteration.
	Messages() MessageStore

	LoopControl
}

// PriorityLevels is the total levels of priorities.
const PriorityLevels int = 4

// Priority levels, run in order within an iteration.
const (
	// PrLvCollect drains events produced by the board.
	PrLvCollect int = iota
	// PrLvControl acts on collected messages.
	PrLvControl
	// PrLvReport publishes results.
	PrLvReport
	// PrLvIdle handles whatever is left.
	PrLvIdle
)

// LoopControl exposes access to the controlling loop.
type LoopControl interface {
	// PostMessage enqueues the message for the next iteration.
	PostMessage(Message)
	// TriggerNext schedules the next iteration immediately.
	TriggerNext()
}

// MessageStore gives controllers access to the messages of an iteration.
type MessageStore interface {
	// ProcessMessages visits messages in posting order. Returning true
	// takes the message: controllers after this one won't see it.
	ProcessMessages(func(Message) bool)
	// Len returns the number of messages not taken yet.
	Len() int
}
