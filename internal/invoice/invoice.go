package invoice

import (
	"time"

	"github.com/frahmantamala/finance-ops/internal"
	invoiceDatamodel "github.com/frahmantamala/finance-ops/internal/core/datamodel/invoice"
)

const (
	StatusPending   = "pending"
	StatusApproved  = "approved"
	StatusPaid      = "paid"
	StatusDisputed  = "disputed"
	StatusCancelled = "cancelled"
)

// DefaultPaymentTerm is applied when an invoice is created without a due date.
const DefaultPaymentTerm = 30 * 24 * time.Hour

var (
	ErrInvoiceNotFound = internal.NewNotFoundError("invoice not found", internal.ErrCodeInvoiceNotFound)
)

// Invoice is a vendor bill owed by the company.
type Invoice struct {
	ID             int64      `json:"id"`
	InvoiceNumber  string     `json:"invoice_number"`
	VendorName     string     `json:"vendor_name"`
	Amount         int64      `json:"amount"`
	TaxAmount      int64      `json:"tax_amount"`
	TotalAmount    int64      `json:"total_amount"`
	IssueDate      time.Time  `json:"issue_date"`
	DueDate        time.Time  `json:"due_date"`
	Status         string     `json:"status"`
	DepartmentID   *int64     `json:"department_id,omitempty"`
	PaymentRunID   *int64     `json:"payment_run_id,omitempty"`
	InvoiceFileURL *string    `json:"invoice_file_url,omitempty"`
	Notes          string     `json:"notes,omitempty"`
	CreatedBy      string     `json:"created_by"`
	ApprovedBy     *string    `json:"approved_by,omitempty"`
	ApprovedAt     *time.Time `json:"approved_at,omitempty"`
	PaidBy         *string    `json:"paid_by,omitempty"`
	PaidAt         *time.Time `json:"paid_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// IsOpen reports an invoice that can still be approved, linked to a run or
// paid.
func (i *Invoice) IsOpen() bool {
	return i.Status == StatusPending || i.Status == StatusApproved
}

func (i *Invoice) IsTerminal() bool {
	return i.Status == StatusPaid || i.Status == StatusDisputed || i.Status == StatusCancelled
}

func (i *Invoice) CanBeApproved() bool {
	return i.Status == StatusPending
}

func (i *Invoice) CanBeDisputed() bool {
	return i.IsOpen()
}

func (i *Invoice) CanBeCancelled() bool {
	return i.IsOpen()
}

func (i *Invoice) CanBePaid() bool {
	return i.Status == StatusApproved
}

func (i *Invoice) Approve(actorID string, at time.Time) {
	i.Status = StatusApproved
	i.ApprovedBy = &actorID
	i.ApprovedAt = &at
	i.UpdatedAt = at
}

func (i *Invoice) Dispute(at time.Time) {
	i.Status = StatusDisputed
	i.UpdatedAt = at
}

func (i *Invoice) Cancel(at time.Time) {
	i.Status = StatusCancelled
	i.UpdatedAt = at
}

func (i *Invoice) MarkPaid(actorID string, at time.Time) {
	i.Status = StatusPaid
	i.PaidBy = &actorID
	i.PaidAt = &at
	i.UpdatedAt = at
}

// Basis returns the amount used by totals: amount by default, or
// amount plus tax when useTotal is set.
func (i *Invoice) Basis(useTotal bool) int64 {
	if useTotal {
		return i.TotalAmount
	}
	return i.Amount
}

// NewInvoice builds a pending invoice from validated input. The total is
// fixed here and never recomputed.
func NewInvoice(actor internal.Actor, dto CreateInvoiceDTO, number string, now time.Time) *Invoice {
	issue := now.UTC().Truncate(24 * time.Hour)
	if dto.IssueDate != nil {
		issue = *dto.IssueDate
	}
	due := issue.Add(DefaultPaymentTerm)
	if dto.DueDate != nil {
		due = *dto.DueDate
	}

	return &Invoice{
		InvoiceNumber:  number,
		VendorName:     dto.VendorName,
		Amount:         dto.Amount,
		TaxAmount:      dto.TaxAmount,
		TotalAmount:    dto.Amount + dto.TaxAmount,
		IssueDate:      issue,
		DueDate:        due,
		Status:         StatusPending,
		DepartmentID:   dto.DepartmentID,
		InvoiceFileURL: dto.InvoiceFileURL,
		Notes:          dto.Notes,
		CreatedBy:      actor.ID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

func ToDataModel(i *Invoice) *invoiceDatamodel.Invoice {
	return &invoiceDatamodel.Invoice{
		ID:             i.ID,
		InvoiceNumber:  i.InvoiceNumber,
		VendorName:     i.VendorName,
		Amount:         i.Amount,
		TaxAmount:      i.TaxAmount,
		TotalAmount:    i.TotalAmount,
		IssueDate:      i.IssueDate,
		DueDate:        i.DueDate,
		Status:         i.Status,
		DepartmentID:   i.DepartmentID,
		PaymentRunID:   i.PaymentRunID,
		InvoiceFileURL: i.InvoiceFileURL,
		Notes:          i.Notes,
		CreatedBy:      i.CreatedBy,
		ApprovedBy:     i.ApprovedBy,
		ApprovedAt:     i.ApprovedAt,
		PaidBy:         i.PaidBy,
		PaidAt:         i.PaidAt,
		CreatedAt:      i.CreatedAt,
		UpdatedAt:      i.UpdatedAt,
	}
}

func FromDataModel(row *invoiceDatamodel.Invoice) *Invoice {
	return &Invoice{
		ID:             row.ID,
		InvoiceNumber:  row.InvoiceNumber,
		VendorName:     row.VendorName,
		Amount:         row.Amount,
		TaxAmount:      row.TaxAmount,
		TotalAmount:    row.TotalAmount,
		IssueDate:      row.IssueDate,
		DueDate:        row.DueDate,
		Status:         row.Status,
		DepartmentID:   row.DepartmentID,
		PaymentRunID:   row.PaymentRunID,
		InvoiceFileURL: row.InvoiceFileURL,
		Notes:          row.Notes,
		CreatedBy:      row.CreatedBy,
		ApprovedBy:     row.ApprovedBy,
		ApprovedAt:     row.ApprovedAt,
		PaidBy:         row.PaidBy,
		PaidAt:         row.PaidAt,
		CreatedAt:      row.CreatedAt,
		UpdatedAt:      row.UpdatedAt,
	}
}
