package variance

import (
	"context"
	"log/slog"
	"time"

	"github.com/frahmantamala/finance-ops/internal"
	"github.com/frahmantamala/finance-ops/internal/budget"
	"github.com/frahmantamala/finance-ops/internal/core/common/period"
)

// DefaultMonths is the window reported when the caller names no range.
const DefaultMonths = 6

type BudgetLister interface {
	List(ctx context.Context, filter budget.ListFilter) ([]*budget.Budget, error)
}

type Report struct {
	From   string       `json:"from"`
	To     string       `json:"to"`
	Source string       `json:"actuals_source"`
	Rows   []Row        `json:"rows"`
	Chart  []ChartPoint `json:"chart"`
	Totals Totals       `json:"totals"`
}

type Service struct {
	budgets BudgetLister
	source  ActualsSource
	logger  *slog.Logger
	now     func() time.Time
}

func NewService(budgets BudgetLister, source ActualsSource, logger *slog.Logger) *Service {
	return &Service{
		budgets: budgets,
		source:  source,
		logger:  logger,
		now:     time.Now,
	}
}

func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// DefaultRange is the last DefaultMonths months ending with the current one.
func (s *Service) DefaultRange() (period.Month, period.Month) {
	to := period.MonthOf(s.now())
	return to.AddMonths(-(DefaultMonths - 1)), to
}

// Report joins the budgets of [from, to] against the actuals of the same
// months. departmentID narrows the budgets when set.
func (s *Service) Report(ctx context.Context, from, to period.Month, departmentID *int64) (*Report, error) {
	if to.Before(from) {
		return nil, internal.NewValidationFieldError("to", "to must not precede from", internal.ErrCodeInvalidPeriod)
	}

	budgets, err := s.budgets.List(ctx, budget.ListFilter{
		DepartmentID: departmentID,
		PeriodFrom:   from.String(),
		PeriodTo:     to.String(),
	})
	if err != nil {
		return nil, err
	}

	actuals, err := s.source.Actuals(ctx, from, to)
	if err != nil {
		s.logger.Error("failed to load actuals", "error", err, "source", s.source.Name(), "from", from.String(), "to", to.String())
		return nil, internal.NewExternalServiceError("failed to load actuals", err)
	}

	rows := Compute(budgets, actuals)
	report := &Report{
		From:   from.String(),
		To:     to.String(),
		Source: s.source.Name(),
		Rows:   rows,
		Chart:  Chart(rows),
		Totals: Summarize(rows),
	}

	s.logger.Info("variance report computed",
		"from", report.From,
		"to", report.To,
		"budgets", len(rows),
		"variance", report.Totals.Variance)
	return report, nil
}

func label(p string) string {
	m, err := period.ParseMonth(p)
	if err != nil {
		return p
	}
	return m.Label()
}
