package budget

import (
	"time"

	"github.com/frahmantamala/finance-ops/internal"
	"github.com/frahmantamala/finance-ops/internal/core/common/money"
	budgetDatamodel "github.com/frahmantamala/finance-ops/internal/core/datamodel/budget"
)

const (
	StatusDraft  = "draft"
	StatusActive = "active"
	StatusClosed = "closed"
)

var (
	ErrBudgetNotFound = internal.NewNotFoundError("budget not found", internal.ErrCodeBudgetNotFound)
)

// Budget is an allocation for one department (and optionally one category)
// over one calendar month.
type Budget struct {
	ID              int64     `json:"id"`
	DepartmentID    int64     `json:"department_id"`
	CategoryID      *int64    `json:"category_id,omitempty"`
	Period          string    `json:"period"`
	FiscalYear      int       `json:"fiscal_year"`
	Quarter         *int      `json:"quarter,omitempty"`
	AllocatedAmount int64     `json:"allocated_amount"`
	SpentAmount     int64     `json:"spent_amount"`
	CommittedAmount int64     `json:"committed_amount"`
	Status          string    `json:"status"`
	Notes           string    `json:"notes,omitempty"`
	CreatedBy       string    `json:"created_by"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Remaining is allocated minus spent minus committed; it goes negative when
// the budget is overrun.
func Remaining(allocated, spent, committed int64) int64 {
	return allocated - spent - committed
}

// Utilization is (spent+committed)/allocated as a percentage, floored at
// zero. An unallocated budget reports 0.
func Utilization(allocated, spent, committed int64) float64 {
	pct := money.Percent(spent+committed, allocated)
	if pct < 0 {
		return 0
	}
	return pct
}

func (b *Budget) Remaining() int64 {
	return Remaining(b.AllocatedAmount, b.SpentAmount, b.CommittedAmount)
}

func (b *Budget) Utilization() float64 {
	return Utilization(b.AllocatedAmount, b.SpentAmount, b.CommittedAmount)
}

func (b *Budget) CanBeActivated() bool {
	return b.Status == StatusDraft
}

func (b *Budget) CanBeClosed() bool {
	return b.Status == StatusActive
}

func (b *Budget) IsClosed() bool {
	return b.Status == StatusClosed
}

type BudgetResponse struct {
	*Budget
	RemainingAmount int64   `json:"remaining_amount"`
	Utilization     float64 `json:"utilization"`
}

func (b *Budget) ToResponse() BudgetResponse {
	return BudgetResponse{
		Budget:          b,
		RemainingAmount: b.Remaining(),
		Utilization:     b.Utilization(),
	}
}

func ToDataModel(b *Budget) *budgetDatamodel.Budget {
	return &budgetDatamodel.Budget{
		ID:              b.ID,
		DepartmentID:    b.DepartmentID,
		CategoryID:      b.CategoryID,
		Period:          b.Period,
		FiscalYear:      b.FiscalYear,
		Quarter:         b.Quarter,
		AllocatedAmount: b.AllocatedAmount,
		SpentAmount:     b.SpentAmount,
		CommittedAmount: b.CommittedAmount,
		Status:          b.Status,
		Notes:           b.Notes,
		CreatedBy:       b.CreatedBy,
		CreatedAt:       b.CreatedAt,
		UpdatedAt:       b.UpdatedAt,
	}
}

func FromDataModel(row *budgetDatamodel.Budget) *Budget {
	return &Budget{
		ID:              row.ID,
		DepartmentID:    row.DepartmentID,
		CategoryID:      row.CategoryID,
		Period:          row.Period,
		FiscalYear:      row.FiscalYear,
		Quarter:         row.Quarter,
		AllocatedAmount: row.AllocatedAmount,
		SpentAmount:     row.SpentAmount,
		CommittedAmount: row.CommittedAmount,
		Status:          row.Status,
		Notes:           row.Notes,
		CreatedBy:       row.CreatedBy,
		CreatedAt:       row.CreatedAt,
		UpdatedAt:       row.UpdatedAt,
	}
}
