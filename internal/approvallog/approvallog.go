package approvallog

import (
	"context"
	"time"

	"github.com/frahmantamala/finance-ops/internal"
	approvallogDatamodel "github.com/frahmantamala/finance-ops/internal/core/datamodel/approvallog"
)

const (
	EntityExpenseRequest = "expense_request"
	EntityInvoice        = "invoice"
	EntityPaymentRun     = "payment_run"
)

const (
	ActionCreated   = "created"
	ActionSubmitted = "submitted"
	ActionApproved  = "approved"
	ActionRejected  = "rejected"
	ActionDisputed  = "disputed"
	ActionCancelled = "cancelled"
	ActionPaid      = "paid"
	ActionLinked    = "linked"
	ActionProcessed = "processed"
)

// Entry records one status transition of a finance entity.
type Entry struct {
	ID             int64     `json:"id"`
	EntityType     string    `json:"entity_type"`
	EntityID       int64     `json:"entity_id"`
	Action         string    `json:"action"`
	ActorID        string    `json:"actor_id"`
	ActorName      string    `json:"actor_name"`
	PreviousStatus string    `json:"previous_status"`
	NewStatus      string    `json:"new_status"`
	Comments       string    `json:"comments,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

func NewEntry(entityType string, entityID int64, action string, actor internal.Actor, previousStatus, newStatus, comments string) *Entry {
	return &Entry{
		EntityType:     entityType,
		EntityID:       entityID,
		Action:         action,
		ActorID:        actor.ID,
		ActorName:      actor.DisplayName(),
		PreviousStatus: previousStatus,
		NewStatus:      newStatus,
		Comments:       comments,
		CreatedAt:      time.Now(),
	}
}

// Repository is append-only by construction: there is no update or delete.
type Repository interface {
	Append(ctx context.Context, entry *Entry) error
	ListByEntity(ctx context.Context, entityType string, entityID int64) ([]*Entry, error)
}

func ToDataModel(e *Entry) *approvallogDatamodel.ApprovalLog {
	return &approvallogDatamodel.ApprovalLog{
		ID:             e.ID,
		EntityType:     e.EntityType,
		EntityID:       e.EntityID,
		Action:         e.Action,
		ActorID:        e.ActorID,
		ActorName:      e.ActorName,
		PreviousStatus: e.PreviousStatus,
		NewStatus:      e.NewStatus,
		Comments:       e.Comments,
		CreatedAt:      e.CreatedAt,
	}
}

func FromDataModel(row *approvallogDatamodel.ApprovalLog) *Entry {
	return &Entry{
		ID:             row.ID,
		EntityType:     row.EntityType,
		EntityID:       row.EntityID,
		Action:         row.Action,
		ActorID:        row.ActorID,
		ActorName:      row.ActorName,
		PreviousStatus: row.PreviousStatus,
		NewStatus:      row.NewStatus,
		Comments:       row.Comments,
		CreatedAt:      row.CreatedAt,
	}
}
