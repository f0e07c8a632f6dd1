package analytics

import (
	"context"
	"log/slog"
	"sync"
)

// DefaultBufferSize bounds the LoggingSink's event channel, matching the
// teacher's DefaultChannelBufferSize convention for its receipts/
// responses channels.
const DefaultBufferSize = 256

// LoggingSink is the default Sink: it drains Events on a background
// goroutine and writes each one as a structured slog record, using a
// channel-plus-goroutine-plus-Stop shape (events consumed off a buffered
// channel; Close signals the drain loop through a separate done channel,
// closed once, and the events channel itself is never closed). No real analytics/metrics backend
// (statsd, Segment, Prometheus) is wired in, so logging is the only default
// — a real backend is a future Sink implementation behind the same
// interface, not something to fabricate here.
type LoggingSink struct {
	events chan Event
	done   chan struct{}
	wg     sync.WaitGroup
	once   sync.Once
}

// NewLoggingSink starts the background drain loop and returns a ready
// Sink.
func NewLoggingSink() *LoggingSink {
	s := &LoggingSink{
		events: make(chan Event, DefaultBufferSize),
		done:   make(chan struct{}),
	}
	s.wg.Add(1)
	go s.run()
	return s
}

func (s *LoggingSink) run() {
	defer s.wg.Done()
	for {
		select {
		case evt, ok := <-s.events:
			if !ok {
				return
			}
			slog.Info("analytics event", "name", evt.Name, "user_id", evt.UserID, "variant", evt.Variant, "fields", evt.Fields)
		case <-s.done:
			return
		}
	}
}

// Emit enqueues evt for background logging. If the buffer is full the
// event is dropped and logged at debug level — analytics must never
// apply backpressure to a handler.
func (s *LoggingSink) Emit(ctx context.Context, evt Event) {
	select {
	case s.events <- evt:
	default:
		slog.Debug("analytics: dropping event, buffer full", "name", evt.Name, "user_id", evt.UserID)
	}
}

// Close stops the drain loop. Safe to call more than once.
func (s *LoggingSink) Close() {
	s.once.Do(func() {
		close(s.done)
	})
	s.wg.Wait()
}
