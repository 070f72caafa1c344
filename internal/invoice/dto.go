package invoice

import (
	"time"

	"github.com/frahmantamala/finance-ops/internal"
	"github.com/frahmantamala/finance-ops/internal/core/common/validation"
)

type CreateInvoiceDTO struct {
	VendorName     string     `json:"vendor_name"`
	Amount         int64      `json:"amount"`
	TaxAmount      int64      `json:"tax_amount"`
	IssueDate      *time.Time `json:"issue_date,omitempty"`
	DueDate        *time.Time `json:"due_date,omitempty"`
	DepartmentID   *int64     `json:"department_id,omitempty"`
	InvoiceFileURL *string    `json:"invoice_file_url,omitempty" validate:"omitempty,url"`
	Notes          string     `json:"notes,omitempty" validate:"max=1000"`
}

func (d CreateInvoiceDTO) Validate() *internal.AppError {
	v := validation.NewValidator()
	v.Field("vendor_name", d.VendorName).Required().MaxLength(255)
	v.Field("amount", d.Amount).Positive(internal.ErrCodeInvalidAmount)
	v.Field("tax_amount", d.TaxAmount).MinInt(0, internal.ErrCodeInvalidAmount)
	if d.IssueDate != nil && d.DueDate != nil {
		v.Field("due_date", *d.DueDate).NotBefore(*d.IssueDate, "issue_date")
	}
	return v.Validate()
}

type DecisionDTO struct {
	Comments string `json:"comments,omitempty" validate:"max=1000"`
}

type ReasonDTO struct {
	Reason string `json:"reason" validate:"max=1000"`
}

type ListFilter struct {
	Status       string
	VendorName   string
	DepartmentID *int64
	PaymentRunID *int64
	DueBefore    *time.Time
	Limit        int
	Offset       int
}

type ListResponse struct {
	Invoices []*Invoice `json:"invoices"`
	Limit    int        `json:"limit"`
	Offset   int        `json:"offset"`
}
