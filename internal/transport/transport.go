// Package transport abstracts the channel that carries donor alerts. The
// matching pipeline only depends on Dispatcher; SMS or push providers slot in
// behind it without touching the pipeline.
package transport

import (
	"context"
	"log/slog"

	"lifelink/pkg/domain"
)

// Message is one alert addressed to a single donor.
type Message struct {
	DonorID       domain.DonorID
	RequisitionID domain.RequisitionID
	Subject       string
	Body          string
}

// Dispatcher delivers one message. A returned error means the message did
// not leave the system and the notification stays retryable.
type Dispatcher interface {
	Dispatch(ctx context.Context, msg Message) error
}

// LogDispatcher writes alerts to the structured log. It is the default
// dispatcher in development and the fallback when no provider is configured.
type LogDispatcher struct {
	logger *slog.Logger
}

func NewLogDispatcher(logger *slog.Logger) *LogDispatcher {
	return &LogDispatcher{logger: logger}
}

func (d *LogDispatcher) Dispatch(ctx context.Context, msg Message) error {
	d.logger.InfoContext(ctx, "dispatching donor alert",
		"donor_id", msg.DonorID,
		"requisition_id", msg.RequisitionID,
		"subject", msg.Subject,
	)
	return nil
}
