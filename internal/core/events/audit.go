package events

import (
	"context"
	"log/slog"
)

// Publisher is the narrow publishing surface services depend on.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// NopPublisher drops every event.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }

// SyncPublisher runs handlers on the caller's goroutine and reports the first failure.
// One-shot CLI commands use it so audit records are written before the process exits.
type SyncPublisher struct {
	Bus *EventBus
}

func (p SyncPublisher) Publish(ctx context.Context, event Event) error {
	return p.Bus.PublishSync(ctx, event)
}

// RegisterAuditLog writes one structured audit record per RBAC mutation.
func RegisterAuditLog(bus *EventBus, logger *slog.Logger) {
	for _, eventType := range AllRBACEventTypes {
		bus.Subscribe(eventType, func(ctx context.Context, event Event) error {
			logger.Info("rbac audit",
				"event_type", event.EventType(),
				"event_id", event.EventID(),
				"occurred_at", event.OccurredAt(),
				"data", event.Payload())
			return nil
		})
	}
}

// RegisterCounter invokes count with the event type of every RBAC mutation.
func RegisterCounter(bus *EventBus, count func(eventType string)) {
	for _, eventType := range AllRBACEventTypes {
		bus.Subscribe(eventType, func(ctx context.Context, event Event) error {
			count(event.EventType())
			return nil
		})
	}
}
