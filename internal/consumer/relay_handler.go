package consumer

import (
	"context"

	"example.com/activityrelay/internal/domain"
)

// EventProcessor is the relay core the consumer feeds events into.
type EventProcessor interface {
	Process(ctx context.Context, event domain.ActivityEvent) error
}

// RelayHandler hands decoded transport messages to the relay processor.
type RelayHandler struct {
	processor EventProcessor
}

// NewRelayHandler constructs a RelayHandler.
func NewRelayHandler(processor EventProcessor) *RelayHandler {
	return &RelayHandler{processor: processor}
}

// Handle forwards one event. Errors propagate so the processor loop skips the
// commit and counts the failure.
func (h *RelayHandler) Handle(ctx context.Context, msg Message) error {
	return h.processor.Process(ctx, msg.Event)
}
