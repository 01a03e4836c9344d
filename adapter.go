package ddlog

import (
	"context"
	"time"
)

// Adapter is the logging backend Strategy (e.g., the Datadog events sink).
// Log receives the single authoritative timestamp 'at' from the Logger so the
// sink and any listeners agree on when the entry happened.
type Adapter interface {
	Log(level Level, msg string, at time.Time, fields []Field)
	With(fields []Field) Adapter // return a child adapter with bound fields (do not mutate receiver)
}

// Flusher is implemented by adapters that deliver entries asynchronously.
// Flush blocks until every entry handed to Log so far has been delivered or
// ctx is done.
type Flusher interface {
	Flush(ctx context.Context) error
}
