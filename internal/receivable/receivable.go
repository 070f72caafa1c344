package receivable

import (
	"context"
	"time"

	receivableDatamodel "github.com/frahmantamala/finance-ops/internal/core/datamodel/receivable"
)

const (
	StatusOpen = "open"
	StatusPaid = "paid"
)

// Receivable is money owed to the company by a customer. Rows are written by
// the seeder and the billing system; this service only reads them.
type Receivable struct {
	ID           int64      `json:"id"`
	CustomerName string     `json:"customer_name"`
	Reference    string     `json:"reference,omitempty"`
	Amount       int64      `json:"amount"`
	IssueDate    time.Time  `json:"issue_date"`
	DueDate      time.Time  `json:"due_date"`
	Status       string     `json:"status"`
	PaidAt       *time.Time `json:"paid_at,omitempty"`
}

func (r *Receivable) IsPaid() bool {
	return r.Status == StatusPaid
}

type Repository interface {
	List(ctx context.Context) ([]*Receivable, error)
}

func ToDataModel(r *Receivable) *receivableDatamodel.Receivable {
	return &receivableDatamodel.Receivable{
		ID:           r.ID,
		CustomerName: r.CustomerName,
		Reference:    r.Reference,
		Amount:       r.Amount,
		IssueDate:    r.IssueDate,
		DueDate:      r.DueDate,
		Status:       r.Status,
		PaidAt:       r.PaidAt,
	}
}

func FromDataModel(row *receivableDatamodel.Receivable) *Receivable {
	return &Receivable{
		ID:           row.ID,
		CustomerName: row.CustomerName,
		Reference:    row.Reference,
		Amount:       row.Amount,
		IssueDate:    row.IssueDate,
		DueDate:      row.DueDate,
		Status:       row.Status,
		PaidAt:       row.PaidAt,
	}
}
