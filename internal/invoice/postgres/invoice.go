package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/frahmantamala/finance-ops/internal/core/database"
	invoiceDatamodel "github.com/frahmantamala/finance-ops/internal/core/datamodel/invoice"
	"github.com/frahmantamala/finance-ops/internal/invoice"
	"gorm.io/gorm"
)

var openStatuses = []string{invoice.StatusPending, invoice.StatusApproved}

// InvoiceRepository backs both the invoice service and the payment run
// orchestrator. Every call joins the transaction carried by ctx.
type InvoiceRepository struct {
	db *gorm.DB
}

func NewInvoiceRepository(db *gorm.DB) *InvoiceRepository {
	return &InvoiceRepository{db: db}
}

func (r *InvoiceRepository) Create(ctx context.Context, inv *invoice.Invoice) error {
	row := invoice.ToDataModel(inv)
	if err := database.Conn(ctx, r.db).Create(row).Error; err != nil {
		return err
	}
	inv.ID = row.ID
	inv.CreatedAt = row.CreatedAt
	inv.UpdatedAt = row.UpdatedAt
	return nil
}

func (r *InvoiceRepository) GetByID(ctx context.Context, id int64) (*invoice.Invoice, error) {
	var row invoiceDatamodel.Invoice
	if err := database.Conn(ctx, r.db).Where("id = ?", id).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, invoice.ErrInvoiceNotFound
		}
		return nil, err
	}
	return invoice.FromDataModel(&row), nil
}

func (r *InvoiceRepository) List(ctx context.Context, filter invoice.ListFilter) ([]*invoice.Invoice, error) {
	query := database.Conn(ctx, r.db).Model(&invoiceDatamodel.Invoice{})
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.VendorName != "" {
		query = query.Where("vendor_name = ?", filter.VendorName)
	}
	if filter.DepartmentID != nil {
		query = query.Where("department_id = ?", *filter.DepartmentID)
	}
	if filter.PaymentRunID != nil {
		query = query.Where("payment_run_id = ?", *filter.PaymentRunID)
	}
	if filter.DueBefore != nil {
		query = query.Where("due_date <= ?", *filter.DueBefore)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		query = query.Offset(filter.Offset)
	}

	var rows []*invoiceDatamodel.Invoice
	if err := query.Order("due_date ASC, id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return fromRows(rows), nil
}

// Update writes status and approval fields only if the stored status still
// equals expectedStatus.
func (r *InvoiceRepository) Update(ctx context.Context, inv *invoice.Invoice, expectedStatus string) error {
	res := database.Conn(ctx, r.db).
		Model(&invoiceDatamodel.Invoice{}).
		Where("id = ? AND status = ?", inv.ID, expectedStatus).
		Updates(map[string]interface{}{
			"status":      inv.Status,
			"approved_by": inv.ApprovedBy,
			"approved_at": inv.ApprovedAt,
			"paid_by":     inv.PaidBy,
			"paid_at":     inv.PaidAt,
			"updated_at":  time.Now(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return invoice.ErrStatusChanged
	}
	return nil
}

func (r *InvoiceRepository) CountByNumberPrefix(ctx context.Context, prefix string) (int64, error) {
	var count int64
	err := database.Conn(ctx, r.db).
		Model(&invoiceDatamodel.Invoice{}).
		Where("invoice_number LIKE ?", prefix+"%").
		Count(&count).Error
	return count, err
}

// ListEligible returns open invoices due on or before cutoff.
func (r *InvoiceRepository) ListEligible(ctx context.Context, cutoff time.Time) ([]*invoice.Invoice, error) {
	var rows []*invoiceDatamodel.Invoice
	err := database.Conn(ctx, r.db).
		Where("due_date <= ? AND status IN ?", cutoff, openStatuses).
		Order("due_date ASC, id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return fromRows(rows), nil
}

func (r *InvoiceRepository) ListByRun(ctx context.Context, runID int64) ([]*invoice.Invoice, error) {
	var rows []*invoiceDatamodel.Invoice
	err := database.Conn(ctx, r.db).
		Where("payment_run_id = ?", runID).
		Order("due_date ASC, id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return fromRows(rows), nil
}

// LinkToRun sets payment_run_id on the given invoices that are still open.
func (r *InvoiceRepository) LinkToRun(ctx context.Context, runID int64, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res := database.Conn(ctx, r.db).
		Model(&invoiceDatamodel.Invoice{}).
		Where("id IN ? AND status IN ?", ids, openStatuses).
		Updates(map[string]interface{}{
			"payment_run_id": runID,
			"updated_at":     time.Now(),
		})
	return res.RowsAffected, res.Error
}

// MarkRunPaid pays every invoice linked to runID whatever its status.
func (r *InvoiceRepository) MarkRunPaid(ctx context.Context, runID int64, actorID string, at time.Time) (int64, error) {
	res := database.Conn(ctx, r.db).
		Model(&invoiceDatamodel.Invoice{}).
		Where("payment_run_id = ?", runID).
		Updates(map[string]interface{}{
			"status":     invoice.StatusPaid,
			"paid_by":    actorID,
			"paid_at":    at,
			"updated_at": at,
		})
	return res.RowsAffected, res.Error
}

// ApproveMany approves the listed invoices that are still pending.
func (r *InvoiceRepository) ApproveMany(ctx context.Context, ids []int64, actorID string, at time.Time) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res := database.Conn(ctx, r.db).
		Model(&invoiceDatamodel.Invoice{}).
		Where("id IN ? AND status = ?", ids, invoice.StatusPending).
		Updates(map[string]interface{}{
			"status":      invoice.StatusApproved,
			"approved_by": actorID,
			"approved_at": at,
			"updated_at":  at,
		})
	return res.RowsAffected, res.Error
}

func fromRows(rows []*invoiceDatamodel.Invoice) []*invoice.Invoice {
	result := make([]*invoice.Invoice, len(rows))
	for i, row := range rows {
		result[i] = invoice.FromDataModel(row)
	}
	return result
}
