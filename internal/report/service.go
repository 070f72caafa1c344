package report

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/frahmantamala/finance-ops/internal/aging"
	"github.com/frahmantamala/finance-ops/internal/budget"
	"github.com/frahmantamala/finance-ops/internal/core/common/period"
	"github.com/frahmantamala/finance-ops/internal/forecast"
	"github.com/frahmantamala/finance-ops/internal/variance"
)

const trailingMonths = 12

type AgingReader interface {
	PayablesSnapshot(ctx context.Context) (aging.Snapshot, error)
	ReceivablesSnapshot(ctx context.Context) (aging.Snapshot, error)
}

type BudgetSummarizer interface {
	Summary(ctx context.Context, filter budget.ListFilter) (budget.Summary, error)
}

type VarianceReporter interface {
	DefaultRange() (period.Month, period.Month)
	Report(ctx context.Context, from, to period.Month, departmentID *int64) (*variance.Report, error)
}

type Forecaster interface {
	Forecast(ctx context.Context) (*forecast.Forecast, error)
}

type RevenueReader interface {
	Trailing(ctx context.Context, end period.Month, n int) (int64, error)
}

type Service struct {
	aging        AgingReader
	budgets      BudgetSummarizer
	variance     VarianceReporter
	forecast     Forecaster
	revenue      RevenueReader
	expenseRatio float64
	logger       *slog.Logger
	now          func() time.Time
}

func NewService(
	agingReader AgingReader,
	budgets BudgetSummarizer,
	varianceReporter VarianceReporter,
	forecaster Forecaster,
	revenueReader RevenueReader,
	expenseRatio float64,
	logger *slog.Logger,
) *Service {
	return &Service{
		aging:        agingReader,
		budgets:      budgets,
		variance:     varianceReporter,
		forecast:     forecaster,
		revenue:      revenueReader,
		expenseRatio: expenseRatio,
		logger:       logger,
		now:          time.Now,
	}
}

func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Summary collects every finance view concurrently. The first failure
// cancels the rest and is returned.
func (s *Service) Summary(ctx context.Context) (*Summary, error) {
	now := s.now()
	sum := &Summary{AsOf: now, TrailingMonths: trailingMonths}
	var trailing int64

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		sum.Payables, err = s.aging.PayablesSnapshot(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		sum.Receivables, err = s.aging.ReceivablesSnapshot(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		sum.Budgets, err = s.budgets.Summary(gctx, budget.ListFilter{Status: budget.StatusActive})
		return err
	})
	g.Go(func() error {
		from, to := s.variance.DefaultRange()
		r, err := s.variance.Report(gctx, from, to, nil)
		if err != nil {
			return err
		}
		sum.Variance = r.Totals
		return nil
	})
	g.Go(func() error {
		var err error
		sum.Forecast, err = s.forecast.Forecast(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		trailing, err = s.revenue.Trailing(gctx, period.MonthOf(now), trailingMonths)
		return err
	})

	if err := g.Wait(); err != nil {
		s.logger.Error("executive summary failed", "error", err)
		return nil, err
	}

	sum.Metrics = ComputeMetrics(trailing, s.expenseRatio)
	sum.CashFlow = sum.Receivables.Outstanding - sum.Payables.Outstanding

	s.logger.Info("executive summary computed",
		"revenue", sum.Metrics.Revenue,
		"runway_months", sum.Metrics.RunwayMonths,
		"cash_flow", sum.CashFlow)
	return sum, nil
}
