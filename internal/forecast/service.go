package forecast

import (
	"context"
	"log/slog"
	"time"

	"github.com/frahmantamala/finance-ops/internal"
	"github.com/frahmantamala/finance-ops/internal/core/common/period"
	"github.com/frahmantamala/finance-ops/internal/revenue"
)

type RevenueReader interface {
	OrderTotals(ctx context.Context, from, to period.Month) (revenue.MonthlyTotals, error)
}

type Service struct {
	revenue RevenueReader
	cfg     internal.ForecastConfig
	logger  *slog.Logger
	now     func() time.Time
}

func NewService(revenue RevenueReader, cfg internal.ForecastConfig, logger *slog.Logger) *Service {
	return &Service{
		revenue: revenue,
		cfg:     cfg,
		logger:  logger,
		now:     time.Now,
	}
}

func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Forecast runs from MonthsBack months before the current month through
// MonthsAhead months after it.
func (s *Service) Forecast(ctx context.Context) (*Forecast, error) {
	current := period.MonthOf(s.now())
	from := current.AddMonths(-s.cfg.MonthsBack)
	to := current.AddMonths(s.cfg.MonthsAhead)

	history, err := s.revenue.OrderTotals(ctx, from, current)
	if err != nil {
		s.logger.Error("failed to load revenue history", "error", err, "from", from.String())
		return nil, internal.NewExternalServiceError("failed to load revenue history", err)
	}

	f := newForecast(from, to, s.cfg.ExpenseRatio, Project(history, period.Range(from, to), s.cfg.ExpenseRatio))
	s.logger.Debug("cash forecast computed",
		"from", f.From,
		"to", f.To,
		"points", len(f.Points),
		"ending_cash", f.EndingCash)
	return f, nil
}
