// Package analytics implements a fire-and-forget event sink: dispatcher
// handlers emit one Event per completed operation without ever blocking
// on, or failing because of, whatever consumes them.
package analytics

import (
	"context"
	"time"
)

// Event is one fire-and-forget analytics record. Fields mirror what a
// dispatcher handler already knows about its own turn — no event carries
// anything the handler had to look up specially for telemetry.
type Event struct {
	Name      string
	UserID    string
	Variant   string // the models.IntentVariant that produced this event, if any
	At        time.Time
	Fields    map[string]any
}

// Sink accepts Events without blocking the caller on delivery. Emit must
// never return an error to the handler that calls it: analytics failures
// are never allowed to turn a successful mutation into a failed turn.
type Sink interface {
	Emit(ctx context.Context, evt Event)
	// Close stops any background delivery and releases resources.
	Close()
}
