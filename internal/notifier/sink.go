package notifier

import (
	"context"

	"hostpatch/internal/models"
)

// EventSink is the structured sink the aggregated run log is flushed to.
// Register must be safe to call at the start of every run; Deliver receives
// exactly one event per run.
type EventSink interface {
	Register(ctx context.Context) error
	Deliver(ctx context.Context, event models.SinkEvent) error
}
