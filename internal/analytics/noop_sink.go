package analytics

import "context"

// NoopSink discards every Event. Useful for tests and for disabling
// analytics entirely via configuration without changing caller code.
type NoopSink struct{}

func (NoopSink) Emit(ctx context.Context, evt Event) {}
func (NoopSink) Close()                              {}
