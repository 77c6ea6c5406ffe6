package audit

import (
	"context"
	"log/slog"
)

// Worker drains the publisher inbox into the store. It keeps background
// persistence testable without wiring a queue implementation.
type Worker struct {
	store  Store
	inbox  <-chan Event
	logger *slog.Logger
}

func NewWorker(store Store, inbox <-chan Event, logger *slog.Logger) *Worker {
	return &Worker{store: store, inbox: inbox, logger: logger}
}

// Run consumes events until ctx is cancelled. Store failures are logged and
// the event dropped; the trail stays best-effort.
func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event := <-w.inbox:
			if err := w.store.Append(ctx, event); err != nil {
				if w.logger != nil {
					w.logger.ErrorContext(ctx, "audit append failed",
						"action", event.Action,
						"error", err,
					)
				}
			}
		}
	}
}
