package budget

import (
	"github.com/frahmantamala/finance-ops/internal"
	"github.com/frahmantamala/finance-ops/internal/core/common/period"
	"github.com/frahmantamala/finance-ops/internal/core/common/validation"
)

type CreateBudgetDTO struct {
	DepartmentID    int64  `json:"department_id"`
	CategoryID      *int64 `json:"category_id,omitempty"`
	Period          string `json:"period"`
	FiscalYear      int    `json:"fiscal_year,omitempty"`
	Quarter         *int   `json:"quarter,omitempty"`
	AllocatedAmount int64  `json:"allocated_amount"`
	SpentAmount     int64  `json:"spent_amount"`
	CommittedAmount int64  `json:"committed_amount"`
	Notes           string `json:"notes,omitempty" validate:"max=1000"`
}

func (d CreateBudgetDTO) Validate() *internal.AppError {
	v := validation.NewValidator()
	v.Field("department_id", d.DepartmentID).Required()
	v.Field("period", d.Period).Required().Custom(func(value interface{}) *internal.AppError {
		s, _ := value.(string)
		if s == "" {
			return nil
		}
		if _, err := period.ParseMonth(s); err != nil {
			return internal.NewValidationFieldError("period", "period must be YYYY-MM", internal.ErrCodeInvalidPeriod)
		}
		return nil
	})
	if d.Quarter != nil {
		v.Field("quarter", int64(*d.Quarter)).MinInt(1, internal.ErrCodeInvalidPeriod).MaxInt(4, internal.ErrCodeInvalidPeriod)
	}
	addAmountRules(v, d.AllocatedAmount, d.SpentAmount, d.CommittedAmount)
	return v.Validate()
}

type UpdateAmountsDTO struct {
	AllocatedAmount int64 `json:"allocated_amount"`
	SpentAmount     int64 `json:"spent_amount"`
	CommittedAmount int64 `json:"committed_amount"`
}

func (d UpdateAmountsDTO) Validate() *internal.AppError {
	v := validation.NewValidator()
	addAmountRules(v, d.AllocatedAmount, d.SpentAmount, d.CommittedAmount)
	return v.Validate()
}

func addAmountRules(v *validation.ValidationBuilder, allocated, spent, committed int64) {
	v.Field("allocated_amount", allocated).MinInt(0, internal.ErrCodeInvalidAmount)
	v.Field("spent_amount", spent).MinInt(0, internal.ErrCodeInvalidAmount)
	v.Field("committed_amount", committed).MinInt(0, internal.ErrCodeInvalidAmount)
}

type ListFilter struct {
	DepartmentID *int64
	Period       string

	// PeriodFrom and PeriodTo bound the period inclusively, as YYYY-MM.
	PeriodFrom string
	PeriodTo   string
	FiscalYear int
	Status     string
	Limit      int
	Offset     int
}

type ListResponse struct {
	Budgets []BudgetResponse `json:"budgets"`
	Limit   int              `json:"limit"`
	Offset  int              `json:"offset"`
}

type Summary struct {
	Count          int            `json:"count"`
	TotalAllocated int64          `json:"total_allocated"`
	TotalSpent     int64          `json:"total_spent"`
	TotalCommitted int64          `json:"total_committed"`
	TotalRemaining int64          `json:"total_remaining"`
	Utilization    float64        `json:"utilization"`
	ByStatus       map[string]int `json:"by_status"`
}
