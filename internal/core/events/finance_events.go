package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	EventTypeExpenseSubmitted = "expense.submitted"
	EventTypeExpenseApproved  = "expense.approved"
	EventTypeExpenseRejected  = "expense.rejected"
	EventTypeExpensePaid      = "expense.paid"

	EventTypeInvoiceCreated   = "invoice.created"
	EventTypeInvoiceApproved  = "invoice.approved"
	EventTypeInvoiceDisputed  = "invoice.disputed"
	EventTypeInvoiceCancelled = "invoice.cancelled"
	EventTypeInvoicePaid      = "invoice.paid"

	EventTypePaymentRunCreated   = "payment_run.created"
	EventTypePaymentRunProcessed = "payment_run.processed"
)

// TransitionEventTypes lists every event emitted by a state transition.
var TransitionEventTypes = []string{
	EventTypeExpenseSubmitted,
	EventTypeExpenseApproved,
	EventTypeExpenseRejected,
	EventTypeExpensePaid,
	EventTypeInvoiceCreated,
	EventTypeInvoiceApproved,
	EventTypeInvoiceDisputed,
	EventTypeInvoiceCancelled,
	EventTypeInvoicePaid,
	EventTypePaymentRunCreated,
	EventTypePaymentRunProcessed,
}

// TransitionEvent describes one committed status change of a finance entity.
type TransitionEvent struct {
	BaseEvent
	EntityType     string `json:"entity_type"`
	EntityID       int64  `json:"entity_id"`
	PreviousStatus string `json:"previous_status"`
	NewStatus      string `json:"new_status"`
	ActorID        string `json:"actor_id"`
	Amount         int64  `json:"amount"`
}

func NewTransitionEvent(eventType, entityType string, entityID int64, previousStatus, newStatus, actorID string, amount int64) *TransitionEvent {
	return &TransitionEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      eventType,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"entity_type":     entityType,
				"entity_id":       entityID,
				"previous_status": previousStatus,
				"new_status":      newStatus,
				"actor_id":        actorID,
				"amount":          amount,
			},
		},
		EntityType:     entityType,
		EntityID:       entityID,
		PreviousStatus: previousStatus,
		NewStatus:      newStatus,
		ActorID:        actorID,
		Amount:         amount,
	}
}
