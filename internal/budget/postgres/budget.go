package postgres

import (
	"context"
	"errors"

	"github.com/frahmantamala/finance-ops/internal/budget"
	"github.com/frahmantamala/finance-ops/internal/core/database"
	budgetDatamodel "github.com/frahmantamala/finance-ops/internal/core/datamodel/budget"
	"gorm.io/gorm"
)

type BudgetRepository struct {
	db *gorm.DB
}

func NewBudgetRepository(db *gorm.DB) *BudgetRepository {
	return &BudgetRepository{db: db}
}

func (r *BudgetRepository) Create(ctx context.Context, b *budget.Budget) error {
	row := budget.ToDataModel(b)
	if err := database.Conn(ctx, r.db).Create(row).Error; err != nil {
		return err
	}
	b.ID = row.ID
	b.CreatedAt = row.CreatedAt
	b.UpdatedAt = row.UpdatedAt
	return nil
}

func (r *BudgetRepository) GetByID(ctx context.Context, id int64) (*budget.Budget, error) {
	var row budgetDatamodel.Budget
	if err := database.Conn(ctx, r.db).Where("id = ?", id).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, budget.ErrBudgetNotFound
		}
		return nil, err
	}
	return budget.FromDataModel(&row), nil
}

func (r *BudgetRepository) List(ctx context.Context, filter budget.ListFilter) ([]*budget.Budget, error) {
	query := database.Conn(ctx, r.db).Model(&budgetDatamodel.Budget{})
	if filter.DepartmentID != nil {
		query = query.Where("department_id = ?", *filter.DepartmentID)
	}
	if filter.Period != "" {
		query = query.Where("period = ?", filter.Period)
	}
	if filter.PeriodFrom != "" {
		query = query.Where("period >= ?", filter.PeriodFrom)
	}
	if filter.PeriodTo != "" {
		query = query.Where("period <= ?", filter.PeriodTo)
	}
	if filter.FiscalYear != 0 {
		query = query.Where("fiscal_year = ?", filter.FiscalYear)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		query = query.Offset(filter.Offset)
	}

	var rows []*budgetDatamodel.Budget
	if err := query.Order("period ASC, department_id ASC, id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	result := make([]*budget.Budget, len(rows))
	for i, row := range rows {
		result[i] = budget.FromDataModel(row)
	}
	return result, nil
}

func (r *BudgetRepository) UpdateAmounts(ctx context.Context, b *budget.Budget) error {
	return database.Conn(ctx, r.db).
		Model(&budgetDatamodel.Budget{}).
		Where("id = ?", b.ID).
		Updates(map[string]interface{}{
			"allocated_amount": b.AllocatedAmount,
			"spent_amount":     b.SpentAmount,
			"committed_amount": b.CommittedAmount,
			"updated_at":       b.UpdatedAt,
		}).Error
}

func (r *BudgetRepository) UpdateStatus(ctx context.Context, id int64, from, to string) error {
	res := database.Conn(ctx, r.db).
		Model(&budgetDatamodel.Budget{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return budget.ErrStatusChanged
	}
	return nil
}

func (r *BudgetRepository) HasActiveDuplicate(ctx context.Context, b *budget.Budget) (bool, error) {
	query := database.Conn(ctx, r.db).
		Model(&budgetDatamodel.Budget{}).
		Where("department_id = ? AND period = ? AND status = ? AND id <> ?", b.DepartmentID, b.Period, budget.StatusActive, b.ID)
	if b.CategoryID != nil {
		query = query.Where("category_id = ?", *b.CategoryID)
	} else {
		query = query.Where("category_id IS NULL")
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
