package expense

import (
	"encoding/json"
	"time"

	"github.com/frahmantamala/finance-ops/internal"
	expenseDatamodel "github.com/frahmantamala/finance-ops/internal/core/datamodel/expense"
)

const (
	StatusDraft     = "draft"
	StatusSubmitted = "submitted"
	// StatusPendingApproval is the legacy name of submitted; rows carrying it
	// are still approvable but no new request is created with it.
	StatusPendingApproval = "pending_approval"
	StatusApproved        = "approved"
	StatusRejected        = "rejected"
	StatusPaid            = "paid"
)

const (
	PriorityLow    = "low"
	PriorityNormal = "normal"
	PriorityHigh   = "high"
	PriorityUrgent = "urgent"
)

var (
	ErrExpenseNotFound = internal.NewNotFoundError("expense request not found", internal.ErrCodeExpenseNotFound)
)

// ExpenseRequest is a request to spend money, owned by its requester and
// mutated only through approval actions.
type ExpenseRequest struct {
	ID              int64      `json:"id"`
	RequesterID     string     `json:"requester_id"`
	RequesterName   string     `json:"requester_name"`
	DepartmentID    int64      `json:"department_id"`
	CategoryID      *int64     `json:"category_id,omitempty"`
	Amount          int64      `json:"amount"`
	Description     string     `json:"description"`
	BusinessPurpose string     `json:"business_purpose,omitempty"`
	Justification   string     `json:"justification,omitempty"`
	Status          string     `json:"status"`
	Priority        string     `json:"priority"`
	ExpenseDate     *time.Time `json:"expense_date,omitempty"`
	DueDate         *time.Time `json:"due_date,omitempty"`
	PaymentMethod   string     `json:"payment_method,omitempty"`
	VendorName      string     `json:"vendor_name,omitempty"`
	ReceiptURLs     []string   `json:"receipt_urls"`
	ApprovedBy      *string    `json:"approved_by,omitempty"`
	ApprovedAt      *time.Time `json:"approved_at,omitempty"`
	RejectedAt      *time.Time `json:"rejected_at,omitempty"`
	RejectionReason *string    `json:"rejection_reason,omitempty"`
	PaidBy          *string    `json:"paid_by,omitempty"`
	PaidAt          *time.Time `json:"paid_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

func (e *ExpenseRequest) CanBeSubmitted() bool {
	return e.Status == StatusDraft
}

func (e *ExpenseRequest) IsAwaitingDecision() bool {
	return e.Status == StatusSubmitted || e.Status == StatusPendingApproval
}

func (e *ExpenseRequest) CanBeApproved() bool {
	return e.IsAwaitingDecision()
}

func (e *ExpenseRequest) CanBeRejected() bool {
	return e.IsAwaitingDecision()
}

func (e *ExpenseRequest) CanBePaid() bool {
	return e.Status == StatusApproved
}

func (e *ExpenseRequest) IsFinal() bool {
	return e.Status == StatusPaid || e.Status == StatusRejected
}

func (e *ExpenseRequest) Submit(at time.Time) {
	e.Status = StatusSubmitted
	e.UpdatedAt = at
}

func (e *ExpenseRequest) Approve(actorID string, at time.Time) {
	e.Status = StatusApproved
	e.ApprovedBy = &actorID
	e.ApprovedAt = &at
	e.UpdatedAt = at
}

func (e *ExpenseRequest) Reject(actorID, reason string, at time.Time) {
	e.Status = StatusRejected
	e.ApprovedBy = &actorID
	e.RejectedAt = &at
	e.RejectionReason = &reason
	e.UpdatedAt = at
}

func (e *ExpenseRequest) MarkPaid(actorID string, at time.Time) {
	e.Status = StatusPaid
	e.PaidBy = &actorID
	e.PaidAt = &at
	e.UpdatedAt = at
}

// NewExpenseRequest builds a request from validated input. The caller decides
// the initial status from the category approval policy.
func NewExpenseRequest(actor internal.Actor, dto CreateExpenseRequestDTO, status string) *ExpenseRequest {
	now := time.Now()
	priority := dto.Priority
	if priority == "" {
		priority = PriorityNormal
	}
	receipts := dto.ReceiptURLs
	if receipts == nil {
		receipts = []string{}
	}

	return &ExpenseRequest{
		RequesterID:     actor.ID,
		RequesterName:   actor.DisplayName(),
		DepartmentID:    dto.DepartmentID,
		CategoryID:      dto.CategoryID,
		Amount:          dto.Amount,
		Description:     dto.Description,
		BusinessPurpose: dto.BusinessPurpose,
		Justification:   dto.Justification,
		Status:          status,
		Priority:        priority,
		ExpenseDate:     dto.ExpenseDate,
		DueDate:         dto.DueDate,
		PaymentMethod:   dto.PaymentMethod,
		VendorName:      dto.VendorName,
		ReceiptURLs:     receipts,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

func ToDataModel(e *ExpenseRequest) *expenseDatamodel.ExpenseRequest {
	receipts, _ := json.Marshal(e.ReceiptURLs)
	return &expenseDatamodel.ExpenseRequest{
		ID:              e.ID,
		RequesterID:     e.RequesterID,
		RequesterName:   e.RequesterName,
		DepartmentID:    e.DepartmentID,
		CategoryID:      e.CategoryID,
		Amount:          e.Amount,
		Description:     e.Description,
		BusinessPurpose: e.BusinessPurpose,
		Justification:   e.Justification,
		Status:          e.Status,
		Priority:        e.Priority,
		ExpenseDate:     e.ExpenseDate,
		DueDate:         e.DueDate,
		PaymentMethod:   e.PaymentMethod,
		VendorName:      e.VendorName,
		ReceiptURLs:     string(receipts),
		ApprovedBy:      e.ApprovedBy,
		ApprovedAt:      e.ApprovedAt,
		RejectedAt:      e.RejectedAt,
		RejectionReason: e.RejectionReason,
		PaidBy:          e.PaidBy,
		PaidAt:          e.PaidAt,
		CreatedAt:       e.CreatedAt,
		UpdatedAt:       e.UpdatedAt,
	}
}

func FromDataModel(row *expenseDatamodel.ExpenseRequest) *ExpenseRequest {
	receipts := []string{}
	if row.ReceiptURLs != "" {
		_ = json.Unmarshal([]byte(row.ReceiptURLs), &receipts)
	}
	return &ExpenseRequest{
		ID:              row.ID,
		RequesterID:     row.RequesterID,
		RequesterName:   row.RequesterName,
		DepartmentID:    row.DepartmentID,
		CategoryID:      row.CategoryID,
		Amount:          row.Amount,
		Description:     row.Description,
		BusinessPurpose: row.BusinessPurpose,
		Justification:   row.Justification,
		Status:          row.Status,
		Priority:        row.Priority,
		ExpenseDate:     row.ExpenseDate,
		DueDate:         row.DueDate,
		PaymentMethod:   row.PaymentMethod,
		VendorName:      row.VendorName,
		ReceiptURLs:     receipts,
		ApprovedBy:      row.ApprovedBy,
		ApprovedAt:      row.ApprovedAt,
		RejectedAt:      row.RejectedAt,
		RejectionReason: row.RejectionReason,
		PaidBy:          row.PaidBy,
		PaidAt:          row.PaidAt,
		CreatedAt:       row.CreatedAt,
		UpdatedAt:       row.UpdatedAt,
	}
}
