package paymentrun

import (
	"time"

	"github.com/frahmantamala/finance-ops/internal/aging"
	"github.com/frahmantamala/finance-ops/internal/invoice"
)

type CreateRunDTO struct {
	CutoffDate    time.Time  `json:"cutoff_date" validate:"required"`
	ScheduledDate *time.Time `json:"scheduled_date,omitempty"`
}

type LinkInvoicesDTO struct {
	InvoiceIDs []int64 `json:"invoice_ids" validate:"required,min=1,dive,gt=0"`
}

type ListFilter struct {
	Status string
	Limit  int
	Offset int
}

// CreateRunResult is the new draft run together with the invoices it was
// sized from, classified by aging bucket.
type CreateRunResult struct {
	Run      *PaymentRun         `json:"run"`
	Invoices []aging.DetailLine  `json:"invoices"`
	Buckets  []aging.BucketTotal `json:"buckets"`
	Total    int64               `json:"total"`
}

// RunDetail is a run with the invoices currently linked to it. LinkedAmount
// uses the configured amount basis and may differ from Run.TotalAmount,
// which is fixed when the run is created.
type RunDetail struct {
	Run          *PaymentRun        `json:"run"`
	Invoices     []*invoice.Invoice `json:"invoices"`
	LinkedCount  int                `json:"linked_count"`
	LinkedAmount int64              `json:"linked_amount"`
}

type ProcessResult struct {
	Run       *PaymentRun `json:"run"`
	PaidCount int64       `json:"paid_count"`
	// ForcePaid lists invoices that were disputed or cancelled when the run
	// settled them.
	ForcePaid []int64 `json:"force_paid,omitempty"`
}

type ListResponse struct {
	PaymentRuns []*PaymentRun `json:"payment_runs"`
	Limit       int           `json:"limit"`
	Offset      int           `json:"offset"`
}
