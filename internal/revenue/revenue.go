// Package revenue reads the monthly money movements that the variance
// engine, the forecaster and the executive summary compare against plans.
package revenue

import (
	"context"
	"log/slog"

	"github.com/frahmantamala/finance-ops/internal"
	"github.com/frahmantamala/finance-ops/internal/core/common/period"
)

// MonthlyTotals maps a period ("2006-01") to the sum recorded in it. A month
// with no rows is absent rather than zero.
type MonthlyTotals map[string]int64

func (m MonthlyTotals) Has(month period.Month) bool {
	_, ok := m[month.String()]
	return ok
}

func (m MonthlyTotals) Sum() int64 {
	var total int64
	for _, v := range m {
		total += v
	}
	return total
}

// ExpenseTotal is the paid expense amount of one department and category in
// one period. CategoryID is nil for uncategorised requests.
type ExpenseTotal struct {
	Period       string `db:"period" json:"period"`
	DepartmentID int64  `db:"department_id" json:"department_id"`
	CategoryID   *int64 `db:"category_id" json:"category_id,omitempty"`
	Amount       int64  `db:"amount" json:"amount"`
}

type Repository interface {
	// OrderTotals sums non-cancelled orders per month over [from, to].
	OrderTotals(ctx context.Context, from, to period.Month) (MonthlyTotals, error)
	// ExpenseTotals sums paid expense requests per month, department and
	// category over [from, to], keyed by the month they were paid in.
	ExpenseTotals(ctx context.Context, from, to period.Month) ([]ExpenseTotal, error)
}

type Service struct {
	repo   Repository
	logger *slog.Logger
}

func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

func (s *Service) OrderTotals(ctx context.Context, from, to period.Month) (MonthlyTotals, error) {
	totals, err := s.repo.OrderTotals(ctx, from, to)
	if err != nil {
		s.logger.Error("failed to load order totals", "error", err, "from", from.String(), "to", to.String())
		return nil, internal.NewExternalServiceError("failed to load order revenue", err)
	}
	return totals, nil
}

func (s *Service) ExpenseTotals(ctx context.Context, from, to period.Month) ([]ExpenseTotal, error) {
	totals, err := s.repo.ExpenseTotals(ctx, from, to)
	if err != nil {
		s.logger.Error("failed to load expense totals", "error", err, "from", from.String(), "to", to.String())
		return nil, internal.NewExternalServiceError("failed to load department expenses", err)
	}
	return totals, nil
}

// Trailing sums order revenue over the n months ending with the month of end.
func (s *Service) Trailing(ctx context.Context, end period.Month, n int) (int64, error) {
	if n <= 0 {
		return 0, nil
	}
	totals, err := s.OrderTotals(ctx, end.AddMonths(-(n - 1)), end)
	if err != nil {
		return 0, err
	}
	return totals.Sum(), nil
}
