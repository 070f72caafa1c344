package variance

import (
	"context"
	"fmt"

	"github.com/frahmantamala/finance-ops/internal"
	"github.com/frahmantamala/finance-ops/internal/core/common/period"
	"github.com/frahmantamala/finance-ops/internal/revenue"
)

type ActualsSource interface {
	Actuals(ctx context.Context, from, to period.Month) (Actuals, error)
	Name() string
}

type RevenueReader interface {
	OrderTotals(ctx context.Context, from, to period.Month) (revenue.MonthlyTotals, error)
	ExpenseTotals(ctx context.Context, from, to period.Month) ([]revenue.ExpenseTotal, error)
}

// OrderRevenue measures every budget of a period against the company-wide
// order total of that period.
type OrderRevenue struct {
	Reader RevenueReader
}

func (s OrderRevenue) Name() string { return internal.ActualsSourceOrderRevenue }

func (s OrderRevenue) Actuals(ctx context.Context, from, to period.Month) (Actuals, error) {
	totals, err := s.Reader.OrderTotals(ctx, from, to)
	if err != nil {
		return nil, err
	}
	actuals := Actuals{}
	for p, amount := range totals {
		actuals.Add(p, CompanyWide, amount)
	}
	return actuals, nil
}

// DepartmentExpenses measures budgets against the paid expense requests of
// their own department and category.
type DepartmentExpenses struct {
	Reader RevenueReader
}

func (s DepartmentExpenses) Name() string { return internal.ActualsSourceDepartmentExpenses }

func (s DepartmentExpenses) Actuals(ctx context.Context, from, to period.Month) (Actuals, error) {
	totals, err := s.Reader.ExpenseTotals(ctx, from, to)
	if err != nil {
		return nil, err
	}
	actuals := Actuals{}
	for _, t := range totals {
		key := Key{DepartmentID: t.DepartmentID}
		if t.CategoryID != nil {
			key.CategoryID = *t.CategoryID
		}
		actuals.Add(t.Period, key, t.Amount)
	}
	return actuals, nil
}

// NewActualsSource picks the source named by variance.actuals_source.
func NewActualsSource(name string, reader RevenueReader) (ActualsSource, error) {
	switch name {
	case "", internal.ActualsSourceOrderRevenue:
		return OrderRevenue{Reader: reader}, nil
	case internal.ActualsSourceDepartmentExpenses:
		return DepartmentExpenses{Reader: reader}, nil
	default:
		return nil, fmt.Errorf("unknown actuals source %q", name)
	}
}
