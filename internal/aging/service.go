package aging

import (
	"context"
	"log/slog"
	"time"

	"github.com/frahmantamala/finance-ops/internal"
	"github.com/frahmantamala/finance-ops/internal/core/common/period"
	"github.com/frahmantamala/finance-ops/internal/invoice"
	"github.com/frahmantamala/finance-ops/internal/receivable"
)

const (
	KindPayables    = "payables"
	KindReceivables = "receivables"
)

type InvoiceSource interface {
	List(ctx context.Context, filter invoice.ListFilter) ([]*invoice.Invoice, error)
}

type ReceivableSource interface {
	List(ctx context.Context) ([]*receivable.Receivable, error)
}

type Service struct {
	invoices    InvoiceSource
	receivables ReceivableSource
	useTotal    bool
	trendMonths int
	logger      *slog.Logger
	now         func() time.Time
}

func NewService(invoices InvoiceSource, receivables ReceivableSource, cfg internal.AgingConfig, logger *slog.Logger) *Service {
	trendMonths := cfg.TrendMonths
	if trendMonths <= 0 {
		trendMonths = 6
	}
	return &Service{
		invoices:    invoices,
		receivables: receivables,
		useTotal:    cfg.AmountBasis == internal.AmountBasisTotal,
		trendMonths: trendMonths,
		logger:      logger,
		now:         time.Now,
	}
}

// WithClock replaces the reference time source.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

func (s *Service) PayablesSnapshot(ctx context.Context) (Snapshot, error) {
	items, err := s.payables(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	snap := NewSnapshot(items, s.now())
	s.logger.Debug("payables aging computed", "count", snap.Count, "total", snap.Total)
	return snap, nil
}

func (s *Service) ReceivablesSnapshot(ctx context.Context) (Snapshot, error) {
	items, err := s.receivableItems(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	snap := NewSnapshot(items, s.now())
	s.logger.Debug("receivables aging computed", "count", snap.Count, "total", snap.Total)
	return snap, nil
}

// PayablesDetail lists every open invoice with its signed day count.
func (s *Service) PayablesDetail(ctx context.Context) ([]DetailLine, error) {
	items, err := s.payables(ctx)
	if err != nil {
		return nil, err
	}
	open := make([]Item, 0, len(items))
	for _, item := range items {
		if item.Status == invoice.StatusPending || item.Status == invoice.StatusApproved {
			open = append(open, item)
		}
	}
	return Detail(open, s.now()), nil
}

// Trend covers the last months calendar months ending with the current one.
// Zero or negative months uses the configured default.
func (s *Service) Trend(ctx context.Context, kind string, months int) ([]TrendPoint, error) {
	if months <= 0 {
		months = s.trendMonths
	}

	var (
		items []Item
		err   error
	)
	switch kind {
	case KindPayables:
		items, err = s.payables(ctx)
	case KindReceivables:
		items, err = s.receivableItems(ctx)
	default:
		return nil, internal.NewValidationFieldError("kind", "kind must be payables or receivables", internal.ErrCodeValidationFailed)
	}
	if err != nil {
		return nil, err
	}

	current := period.MonthOf(s.now().UTC())
	return Trend(items, period.Range(current.AddMonths(-(months - 1)), current)), nil
}

func (s *Service) payables(ctx context.Context) ([]Item, error) {
	invoices, err := s.invoices.List(ctx, invoice.ListFilter{})
	if err != nil {
		s.logger.Error("failed to load invoices for aging", "error", err)
		return nil, internal.NewExternalServiceError("failed to load invoices for aging", err)
	}

	items := make([]Item, len(invoices))
	for i, inv := range invoices {
		items[i] = Item{
			ID:           inv.ID,
			Reference:    inv.InvoiceNumber,
			Counterparty: inv.VendorName,
			Amount:       inv.Basis(s.useTotal),
			DueDate:      inv.DueDate,
			Status:       inv.Status,
			Settled:      inv.Status == invoice.StatusPaid || inv.Status == invoice.StatusCancelled,
			SettledAt:    inv.PaidAt,
		}
	}
	return items, nil
}

func (s *Service) receivableItems(ctx context.Context) ([]Item, error) {
	receivables, err := s.receivables.List(ctx)
	if err != nil {
		s.logger.Error("failed to load receivables for aging", "error", err)
		return nil, internal.NewExternalServiceError("failed to load receivables for aging", err)
	}

	items := make([]Item, len(receivables))
	for i, rec := range receivables {
		items[i] = Item{
			ID:           rec.ID,
			Reference:    rec.Reference,
			Counterparty: rec.CustomerName,
			Amount:       rec.Amount,
			DueDate:      rec.DueDate,
			Status:       rec.Status,
			Settled:      rec.IsPaid(),
			SettledAt:    rec.PaidAt,
		}
	}
	return items, nil
}
