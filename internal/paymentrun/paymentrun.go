package paymentrun

import (
	"errors"
	"time"

	"github.com/frahmantamala/finance-ops/internal"
	paymentrunDatamodel "github.com/frahmantamala/finance-ops/internal/core/datamodel/paymentrun"
)

const (
	StatusDraft     = "draft"
	StatusProcessed = "processed"
)

var (
	ErrPaymentRunNotFound = internal.NewNotFoundError("payment run not found", internal.ErrCodePaymentRunNotFound)

	// ErrStatusChanged is returned by Repository.MarkProcessed when the run
	// was no longer a draft at write time.
	ErrStatusChanged = errors.New("payment run status changed concurrently")
)

// PaymentRun is a batch of payable invoices settled together.
type PaymentRun struct {
	ID            int64      `json:"id"`
	ScheduledDate time.Time  `json:"scheduled_date"`
	CutoffDate    time.Time  `json:"cutoff_date"`
	Status        string     `json:"status"`
	TotalAmount   int64      `json:"total_amount"`
	InvoiceCount  int        `json:"invoice_count"`
	ProcessedAt   *time.Time `json:"processed_at,omitempty"`
	ProcessedBy   *string    `json:"processed_by,omitempty"`
	CreatedBy     string     `json:"created_by"`
	CreatedAt     time.Time  `json:"created_at"`
}

func (r *PaymentRun) IsDraft() bool {
	return r.Status == StatusDraft
}

func ToDataModel(r *PaymentRun) *paymentrunDatamodel.PaymentRun {
	return &paymentrunDatamodel.PaymentRun{
		ID:            r.ID,
		ScheduledDate: r.ScheduledDate,
		CutoffDate:    r.CutoffDate,
		Status:        r.Status,
		TotalAmount:   r.TotalAmount,
		InvoiceCount:  r.InvoiceCount,
		ProcessedAt:   r.ProcessedAt,
		ProcessedBy:   r.ProcessedBy,
		CreatedBy:     r.CreatedBy,
		CreatedAt:     r.CreatedAt,
	}
}

func FromDataModel(row *paymentrunDatamodel.PaymentRun) *PaymentRun {
	return &PaymentRun{
		ID:            row.ID,
		ScheduledDate: row.ScheduledDate,
		CutoffDate:    row.CutoffDate,
		Status:        row.Status,
		TotalAmount:   row.TotalAmount,
		InvoiceCount:  row.InvoiceCount,
		ProcessedAt:   row.ProcessedAt,
		ProcessedBy:   row.ProcessedBy,
		CreatedBy:     row.CreatedBy,
		CreatedAt:     row.CreatedAt,
	}
}
