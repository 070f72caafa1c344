package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/frahmantamala/finance-ops/internal/core/database"
	expenseDatamodel "github.com/frahmantamala/finance-ops/internal/core/datamodel/expense"
	"github.com/frahmantamala/finance-ops/internal/expense"
	"gorm.io/gorm"
)

// ExpenseRepository implements the expense.Repository interface using GORM
type ExpenseRepository struct {
	db *gorm.DB
}

// NewExpenseRepository creates a new expense repository
func NewExpenseRepository(db *gorm.DB) *ExpenseRepository {
	return &ExpenseRepository{db: db}
}

func (r *ExpenseRepository) Create(ctx context.Context, e *expense.ExpenseRequest) error {
	row := expense.ToDataModel(e)
	if err := database.Conn(ctx, r.db).Create(row).Error; err != nil {
		return err
	}
	e.ID = row.ID
	e.CreatedAt = row.CreatedAt
	e.UpdatedAt = row.UpdatedAt
	return nil
}

func (r *ExpenseRepository) GetByID(ctx context.Context, id int64) (*expense.ExpenseRequest, error) {
	var row expenseDatamodel.ExpenseRequest
	err := database.Conn(ctx, r.db).Where("id = ?", id).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, expense.ErrExpenseNotFound
		}
		return nil, err
	}
	return expense.FromDataModel(&row), nil
}

func (r *ExpenseRepository) List(ctx context.Context, filter expense.ListFilter) ([]*expense.ExpenseRequest, error) {
	query := database.Conn(ctx, r.db).Model(&expenseDatamodel.ExpenseRequest{})
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.DepartmentID != nil {
		query = query.Where("department_id = ?", *filter.DepartmentID)
	}
	if filter.RequesterID != "" {
		query = query.Where("requester_id = ?", filter.RequesterID)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		query = query.Offset(filter.Offset)
	}

	var rows []*expenseDatamodel.ExpenseRequest
	if err := query.Order("created_at DESC, id DESC").Find(&rows).Error; err != nil {
		return nil, err
	}

	result := make([]*expense.ExpenseRequest, len(rows))
	for i, row := range rows {
		result[i] = expense.FromDataModel(row)
	}
	return result, nil
}

// Update writes the approval fields only when the stored status still equals
// expectedStatus.
func (r *ExpenseRepository) Update(ctx context.Context, e *expense.ExpenseRequest, expectedStatus string) error {
	res := database.Conn(ctx, r.db).
		Model(&expenseDatamodel.ExpenseRequest{}).
		Where("id = ? AND status = ?", e.ID, expectedStatus).
		Updates(map[string]interface{}{
			"status":           e.Status,
			"approved_by":      e.ApprovedBy,
			"approved_at":      e.ApprovedAt,
			"rejected_at":      e.RejectedAt,
			"rejection_reason": e.RejectionReason,
			"paid_by":          e.PaidBy,
			"paid_at":          e.PaidAt,
			"updated_at":       time.Now(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return expense.ErrStatusChanged
	}
	return nil
}
