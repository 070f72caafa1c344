package notification

import (
	"context"
	"log/slog"
	"time"

	"github.com/frahmantamala/finance-ops/internal/core/events"
)

// Notification is the JSON body posted to the webhook.
type Notification struct {
	EventID        string    `json:"event_id"`
	EventType      string    `json:"event_type"`
	OccurredAt     time.Time `json:"occurred_at"`
	EntityType     string    `json:"entity_type,omitempty"`
	EntityID       int64     `json:"entity_id,omitempty"`
	PreviousStatus string    `json:"previous_status,omitempty"`
	NewStatus      string    `json:"new_status,omitempty"`
	ActorID        string    `json:"actor_id,omitempty"`
	Amount         int64     `json:"amount,omitempty"`
	Data           any       `json:"data,omitempty"`
}

func FromEvent(event events.Event) Notification {
	n := Notification{
		EventID:    event.EventID(),
		EventType:  event.EventType(),
		OccurredAt: event.OccurredAt(),
	}
	if t, ok := event.(*events.TransitionEvent); ok {
		n.EntityType = t.EntityType
		n.EntityID = t.EntityID
		n.PreviousStatus = t.PreviousStatus
		n.NewStatus = t.NewStatus
		n.ActorID = t.ActorID
		n.Amount = t.Amount
		return n
	}
	n.Data = event.Payload()
	return n
}

type Enqueuer interface {
	Enabled() bool
	Enqueue(job Job) error
}

// Subscriber turns domain events into webhook jobs.
type Subscriber struct {
	dispatcher Enqueuer
	logger     *slog.Logger
}

func NewSubscriber(dispatcher Enqueuer, logger *slog.Logger) *Subscriber {
	return &Subscriber{dispatcher: dispatcher, logger: logger}
}

// Register subscribes to every transition event type on bus.
func (s *Subscriber) Register(bus *events.EventBus) {
	bus.SubscribeAll(events.TransitionEventTypes, s.Handle)
}

// Handle never fails the publisher: a dropped notification is only logged.
func (s *Subscriber) Handle(ctx context.Context, event events.Event) error {
	n := FromEvent(event)
	if !s.dispatcher.Enabled() {
		s.logger.Info("notification (webhook disabled)",
			"event_id", n.EventID,
			"event_type", n.EventType,
			"entity_type", n.EntityType,
			"entity_id", n.EntityID,
			"new_status", n.NewStatus)
		return nil
	}

	if err := s.dispatcher.Enqueue(Job{EventID: n.EventID, EventType: n.EventType, Payload: n}); err != nil {
		s.logger.Warn("notification dropped", "event_id", n.EventID, "event_type", n.EventType, "error", err)
	}
	return nil
}
