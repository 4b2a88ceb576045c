package event

import (
	"context"

	"github.com/backoffice/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// LoggingHandler is a wildcard event handler that records every published
// domain event in the application log. It gives operators a trace of
// document, order, party and journal entry lifecycle changes without
// requiring a dedicated projection for each event type.
type LoggingHandler struct {
	logger *zap.Logger
}

// NewLoggingHandler creates a logging event handler
func NewLoggingHandler(logger *zap.Logger) *LoggingHandler {
	return &LoggingHandler{logger: logger}
}

// Handle logs the event and always succeeds
func (h *LoggingHandler) Handle(_ context.Context, event shared.DomainEvent) error {
	h.logger.Info("Domain event published",
		zap.String("event_type", event.EventType()),
		zap.String("event_id", event.EventID().String()),
		zap.String("aggregate_type", event.AggregateType()),
		zap.String("aggregate_id", event.AggregateID().String()),
		zap.Time("occurred_at", event.OccurredAt()),
	)
	return nil
}

// EventTypes returns an empty slice so the handler receives all events
func (h *LoggingHandler) EventTypes() []string {
	return nil
}
