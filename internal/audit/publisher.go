package audit

import (
	"context"
	"log/slog"
	"time"
)

// Publisher accepts events from request paths and hands them to the worker
// through a bounded inbox. All methods are nil-receiver safe so services can
// hold an optional publisher without guarding every call site.
type Publisher struct {
	inbox  chan Event
	logger *slog.Logger
}

// NewPublisher builds a publisher with a bounded inbox. Pair it with a Worker
// draining Inbox().
func NewPublisher(buffer int, logger *slog.Logger) *Publisher {
	if buffer <= 0 {
		buffer = 256
	}
	return &Publisher{
		inbox:  make(chan Event, buffer),
		logger: logger,
	}
}

// Inbox exposes the receive side for the worker.
func (p *Publisher) Inbox() <-chan Event {
	if p == nil {
		return nil
	}
	return p.inbox
}

// Emit enqueues an event without blocking. When the inbox is full the event
// is dropped and logged; the audit trail is best-effort, never a source of
// request latency or failure.
func (p *Publisher) Emit(ctx context.Context, event Event) {
	if p == nil {
		return
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	select {
	case p.inbox <- event:
	default:
		if p.logger != nil {
			p.logger.WarnContext(ctx, "audit inbox full, event dropped",
				"action", event.Action,
				"requisition_id", event.RequisitionID,
			)
		}
	}
}
