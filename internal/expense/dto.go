package expense

import (
	"time"

	"github.com/frahmantamala/finance-ops/internal"
	"github.com/frahmantamala/finance-ops/internal/core/common/validation"
)

type CreateExpenseRequestDTO struct {
	DepartmentID    int64      `json:"department_id"`
	CategoryID      *int64     `json:"category_id,omitempty"`
	Amount          int64      `json:"amount"`
	Description     string     `json:"description"`
	BusinessPurpose string     `json:"business_purpose,omitempty" validate:"max=1000"`
	Justification   string     `json:"justification,omitempty" validate:"max=1000"`
	Priority        string     `json:"priority,omitempty"`
	ExpenseDate     *time.Time `json:"expense_date,omitempty"`
	DueDate         *time.Time `json:"due_date,omitempty"`
	PaymentMethod   string     `json:"payment_method,omitempty" validate:"max=50"`
	VendorName      string     `json:"vendor_name,omitempty" validate:"max=255"`
	ReceiptURLs     []string   `json:"receipt_urls,omitempty"`
}

func (d CreateExpenseRequestDTO) Validate() *internal.AppError {
	v := validation.NewValidator()
	v.Field("amount", d.Amount).Positive(internal.ErrCodeInvalidAmount)
	v.Field("description", d.Description).Required().MaxLength(500)
	v.Field("department_id", d.DepartmentID).Required()
	v.Field("priority", d.Priority).OneOf(PriorityLow, PriorityNormal, PriorityHigh, PriorityUrgent)
	if d.ExpenseDate != nil && d.DueDate != nil {
		v.Field("due_date", *d.DueDate).NotBefore(*d.ExpenseDate, "expense_date")
	}
	return v.Validate()
}

type DecisionDTO struct {
	Comments string `json:"comments,omitempty" validate:"max=1000"`
}

type RejectDTO struct {
	Reason string `json:"reason" validate:"max=1000"`
}

type ListFilter struct {
	Status       string
	DepartmentID *int64
	RequesterID  string
	Limit        int
	Offset       int
}

type ListResponse struct {
	ExpenseRequests []*ExpenseRequest `json:"expense_requests"`
	Limit           int               `json:"limit"`
	Offset          int               `json:"offset"`
}
