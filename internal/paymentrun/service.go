package paymentrun

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/frahmantamala/finance-ops/internal"
	"github.com/frahmantamala/finance-ops/internal/aging"
	"github.com/frahmantamala/finance-ops/internal/approvallog"
	"github.com/frahmantamala/finance-ops/internal/core/database"
	"github.com/frahmantamala/finance-ops/internal/core/events"
	"github.com/frahmantamala/finance-ops/internal/invoice"
)

type Repository interface {
	Create(ctx context.Context, run *PaymentRun) error
	GetByID(ctx context.Context, id int64) (*PaymentRun, error)
	List(ctx context.Context, filter ListFilter) ([]*PaymentRun, error)
	MarkProcessed(ctx context.Context, id int64, actorID string, at time.Time) error
}

// InvoiceStore is the invoice persistence the orchestrator writes through.
type InvoiceStore interface {
	GetByID(ctx context.Context, id int64) (*invoice.Invoice, error)
	List(ctx context.Context, filter invoice.ListFilter) ([]*invoice.Invoice, error)
	ListEligible(ctx context.Context, cutoff time.Time) ([]*invoice.Invoice, error)
	ListByRun(ctx context.Context, runID int64) ([]*invoice.Invoice, error)
	LinkToRun(ctx context.Context, runID int64, ids []int64) (int64, error)
	MarkRunPaid(ctx context.Context, runID int64, actorID string, at time.Time) (int64, error)
	ApproveMany(ctx context.Context, ids []int64, actorID string, at time.Time) (int64, error)
}

type Service struct {
	repo      Repository
	invoices  InvoiceStore
	auditLog  approvallog.Repository
	tx        database.Transactor
	publisher events.Publisher
	useTotal  bool
	logger    *slog.Logger
	now       func() time.Time
}

func NewService(repo Repository, invoices InvoiceStore, auditLog approvallog.Repository, tx database.Transactor, publisher events.Publisher, cfg internal.AgingConfig, logger *slog.Logger) *Service {
	return &Service{
		repo:      repo,
		invoices:  invoices,
		auditLog:  auditLog,
		tx:        tx,
		publisher: publisher,
		useTotal:  cfg.AmountBasis == internal.AmountBasisTotal,
		logger:    logger,
		now:       time.Now,
	}
}

// WithClock replaces the time source used for aging and timestamps.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// CreateRun sizes a draft run from every pending or approved invoice due on
// or before the cutoff day. The invoices themselves are left untouched.
func (s *Service) CreateRun(ctx context.Context, actor internal.Actor, dto CreateRunDTO) (*CreateRunResult, error) {
	if dto.CutoffDate.IsZero() {
		return nil, internal.NewValidationFieldError("cutoff_date", "cutoff_date is required", internal.ErrCodeInvalidDate)
	}
	cutoff := startOfDay(dto.CutoffDate)
	scheduled := cutoff
	if dto.ScheduledDate != nil {
		scheduled = *dto.ScheduledDate
	}

	var result *CreateRunResult
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		eligible, err := s.invoices.ListEligible(ctx, cutoff.AddDate(0, 0, 1).Add(-time.Nanosecond))
		if err != nil {
			return internal.NewExternalServiceError("failed to select invoices for run", err)
		}

		items := s.agingItems(eligible)
		snap := aging.NewSnapshot(items, s.now())

		run := &PaymentRun{
			ScheduledDate: scheduled,
			CutoffDate:    cutoff,
			Status:        StatusDraft,
			TotalAmount:   snap.Total,
			InvoiceCount:  len(eligible),
			CreatedBy:     actor.ID,
		}
		if err := s.repo.Create(ctx, run); err != nil {
			return internal.NewExternalServiceError("failed to create payment run", err)
		}

		entry := approvallog.NewEntry(approvallog.EntityPaymentRun, run.ID, approvallog.ActionCreated, actor, "", StatusDraft, "")
		if err := s.auditLog.Append(ctx, entry); err != nil {
			return internal.NewExternalServiceError("failed to record approval log", err)
		}

		result = &CreateRunResult{
			Run:      run,
			Invoices: aging.Detail(items, s.now()),
			Buckets:  snap.Buckets,
			Total:    snap.Total,
		}
		return nil
	})
	if err != nil {
		s.logger.Error("failed to create payment run", "error", err, "actor_id", actor.ID)
		return nil, err
	}

	s.logger.Info("payment run created",
		"payment_run_id", result.Run.ID,
		"cutoff_date", cutoff.Format("2006-01-02"),
		"invoice_count", result.Run.InvoiceCount,
		"total_amount", result.Total,
		"actor_id", actor.ID)

	s.publish(ctx, events.EventTypePaymentRunCreated, result.Run, "", actor)
	return result, nil
}

// LinkInvoices attaches invoices to a draft run. Invoices already on this
// run are skipped; invoices on another draft run are a conflict. The run's
// total_amount stays as sized at creation; the linked sum is reported on
// the returned detail.
func (s *Service) LinkInvoices(ctx context.Context, runID int64, invoiceIDs []int64, actor internal.Actor) (*RunDetail, error) {
	if len(invoiceIDs) == 0 {
		return nil, internal.NewValidationFieldError("invoice_ids", "at least one invoice is required", internal.ErrCodeValidationFailed)
	}

	var detail *RunDetail
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		run, err := s.getRun(ctx, runID)
		if err != nil {
			return err
		}
		if !run.IsDraft() {
			return internal.NewTransitionError("invoices can only be linked to a draft payment run", internal.ErrCodeRunAlreadyProcessed)
		}

		toLink := make([]int64, 0, len(invoiceIDs))
		for _, id := range invoiceIDs {
			inv, err := s.invoices.GetByID(ctx, id)
			if err != nil {
				if errors.Is(err, invoice.ErrInvoiceNotFound) {
					return internal.NewNotFoundError(fmt.Sprintf("invoice %d not found", id), internal.ErrCodeInvoiceNotFound)
				}
				return internal.NewExternalServiceError("failed to link invoices to run", err)
			}
			if !inv.IsOpen() {
				return internal.NewTransitionError(fmt.Sprintf("invoice %d is %s and cannot be linked", id, inv.Status), internal.ErrCodeInvalidInvoiceStatus)
			}
			if inv.PaymentRunID != nil {
				if *inv.PaymentRunID == runID {
					continue
				}
				other, err := s.repo.GetByID(ctx, *inv.PaymentRunID)
				if err != nil && !errors.Is(err, ErrPaymentRunNotFound) {
					return internal.NewExternalServiceError("failed to link invoices to run", err)
				}
				if other != nil && other.IsDraft() {
					return internal.NewConflictError(fmt.Sprintf("invoice %d is already linked to payment run %d", id, other.ID), internal.ErrCodeInvoiceLinked)
				}
			}
			toLink = append(toLink, id)
		}

		if _, err := s.invoices.LinkToRun(ctx, runID, toLink); err != nil {
			return internal.NewExternalServiceError("failed to link invoices to run", err)
		}

		linked, err := s.invoices.ListByRun(ctx, runID)
		if err != nil {
			return internal.NewExternalServiceError("failed to link invoices to run", err)
		}
		if len(toLink) > 0 {
			comments := fmt.Sprintf("linked %d invoice(s)", len(toLink))
			entry := approvallog.NewEntry(approvallog.EntityPaymentRun, runID, approvallog.ActionLinked, actor, run.Status, run.Status, comments)
			if err := s.auditLog.Append(ctx, entry); err != nil {
				return internal.NewExternalServiceError("failed to link invoices to run", err)
			}
		}

		detail = s.detail(run, linked)
		return nil
	})
	if err != nil {
		s.logger.Warn("link invoices to payment run failed", "payment_run_id", runID, "actor_id", actor.ID, "error", err)
		return nil, err
	}

	s.logger.Info("invoices linked to payment run",
		"payment_run_id", runID,
		"linked_count", detail.LinkedCount,
		"linked_amount", detail.LinkedAmount,
		"actor_id", actor.ID)
	return detail, nil
}

// ProcessRun settles a draft run: the run becomes processed and every
// linked invoice becomes paid, in one transaction. Disputed and cancelled
// invoices on the run are paid as well and reported in ForcePaid.
func (s *Service) ProcessRun(ctx context.Context, runID int64, actor internal.Actor) (*ProcessResult, error) {
	var result *ProcessResult
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		run, err := s.getRun(ctx, runID)
		if err != nil {
			return err
		}
		if !run.IsDraft() {
			return internal.NewTransitionError("payment run has already been processed", internal.ErrCodeRunAlreadyProcessed)
		}

		at := s.now()
		if err := s.repo.MarkProcessed(ctx, runID, actor.ID, at); err != nil {
			if errors.Is(err, ErrStatusChanged) {
				return internal.NewTransitionError("payment run has already been processed", internal.ErrCodeRunAlreadyProcessed)
			}
			return err
		}

		linked, err := s.invoices.ListByRun(ctx, runID)
		if err != nil {
			return err
		}
		var forced []int64
		for _, inv := range linked {
			if inv.Status == invoice.StatusDisputed || inv.Status == invoice.StatusCancelled {
				s.logger.Warn("force-paying invoice through payment run",
					"payment_run_id", runID,
					"invoice_id", inv.ID,
					"invoice_status", inv.Status)
				forced = append(forced, inv.ID)
			}
		}

		paid, err := s.invoices.MarkRunPaid(ctx, runID, actor.ID, at)
		if err != nil {
			return err
		}

		comments := fmt.Sprintf("paid %d invoice(s)", paid)
		entry := approvallog.NewEntry(approvallog.EntityPaymentRun, runID, approvallog.ActionProcessed, actor, StatusDraft, StatusProcessed, comments)
		if err := s.auditLog.Append(ctx, entry); err != nil {
			return err
		}

		run.Status = StatusProcessed
		run.ProcessedAt = &at
		run.ProcessedBy = &actor.ID
		result = &ProcessResult{Run: run, PaidCount: paid, ForcePaid: forced}
		return nil
	})
	if err != nil {
		if internal.IsType(err, internal.ErrorTypeNotFound) || internal.IsType(err, internal.ErrorTypeTransition) {
			s.logger.Warn("process payment run refused", "payment_run_id", runID, "actor_id", actor.ID, "error", err)
			return nil, err
		}
		s.logger.Error("payment run settlement rolled back", "payment_run_id", runID, "actor_id", actor.ID, "error", err)
		return nil, internal.NewConsistencyError("payment run settlement did not complete and was rolled back", err)
	}

	s.logger.Info("payment run processed",
		"payment_run_id", runID,
		"paid_count", result.PaidCount,
		"force_paid", len(result.ForcePaid),
		"actor_id", actor.ID)

	s.publish(ctx, events.EventTypePaymentRunProcessed, result.Run, StatusDraft, actor)
	return result, nil
}

// ApprovePendingInvoices approves every pending invoice and returns how many
// were approved. Having none pending is not an error.
func (s *Service) ApprovePendingInvoices(ctx context.Context, actor internal.Actor) (int, error) {
	var approved []*invoice.Invoice
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		pending, err := s.invoices.List(ctx, invoice.ListFilter{Status: invoice.StatusPending})
		if err != nil {
			return internal.NewExternalServiceError("failed to load pending invoices", err)
		}
		if len(pending) == 0 {
			return nil
		}

		ids := make([]int64, len(pending))
		for i, inv := range pending {
			ids[i] = inv.ID
		}
		if _, err := s.invoices.ApproveMany(ctx, ids, actor.ID, s.now()); err != nil {
			return internal.NewExternalServiceError("failed to approve pending invoices", err)
		}

		for _, inv := range pending {
			entry := approvallog.NewEntry(approvallog.EntityInvoice, inv.ID, approvallog.ActionApproved, actor, invoice.StatusPending, invoice.StatusApproved, "bulk approval")
			if err := s.auditLog.Append(ctx, entry); err != nil {
				return internal.NewExternalServiceError("failed to record approval log", err)
			}
		}
		approved = pending
		return nil
	})
	if err != nil {
		s.logger.Error("bulk invoice approval failed", "error", err, "actor_id", actor.ID)
		return 0, err
	}

	s.logger.Info("pending invoices approved", "count", len(approved), "actor_id", actor.ID)
	if s.publisher != nil {
		for _, inv := range approved {
			event := events.NewTransitionEvent(events.EventTypeInvoiceApproved, approvallog.EntityInvoice, inv.ID, invoice.StatusPending, invoice.StatusApproved, actor.ID, inv.TotalAmount)
			if err := s.publisher.Publish(ctx, event); err != nil {
				s.logger.Warn("failed to publish invoice event", "invoice_id", inv.ID, "error", err)
			}
		}
	}
	return len(approved), nil
}

func (s *Service) Get(ctx context.Context, id int64) (*RunDetail, error) {
	run, err := s.getRun(ctx, id)
	if err != nil {
		return nil, err
	}
	linked, err := s.invoices.ListByRun(ctx, id)
	if err != nil {
		s.logger.Error("failed to load run invoices", "error", err, "payment_run_id", id)
		return nil, internal.NewExternalServiceError("failed to load payment run invoices", err)
	}
	return s.detail(run, linked), nil
}

func (s *Service) List(ctx context.Context, filter ListFilter) ([]*PaymentRun, error) {
	runs, err := s.repo.List(ctx, filter)
	if err != nil {
		s.logger.Error("failed to list payment runs", "error", err)
		return nil, internal.NewExternalServiceError("failed to list payment runs", err)
	}
	return runs, nil
}

func (s *Service) History(ctx context.Context, id int64) ([]*approvallog.Entry, error) {
	if _, err := s.getRun(ctx, id); err != nil {
		return nil, err
	}
	entries, err := s.auditLog.ListByEntity(ctx, approvallog.EntityPaymentRun, id)
	if err != nil {
		return nil, internal.NewExternalServiceError("failed to load approval history", err)
	}
	return entries, nil
}

func (s *Service) getRun(ctx context.Context, id int64) (*PaymentRun, error) {
	run, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrPaymentRunNotFound) {
			return nil, ErrPaymentRunNotFound
		}
		return nil, internal.NewExternalServiceError("failed to load payment run", err)
	}
	return run, nil
}

func (s *Service) agingItems(invoices []*invoice.Invoice) []aging.Item {
	items := make([]aging.Item, len(invoices))
	for i, inv := range invoices {
		items[i] = aging.Item{
			ID:           inv.ID,
			Reference:    inv.InvoiceNumber,
			Counterparty: inv.VendorName,
			Amount:       inv.Basis(s.useTotal),
			DueDate:      inv.DueDate,
			Status:       inv.Status,
		}
	}
	return items
}

// startOfDay drops the time of day, keeping the caller's location.
func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func (s *Service) detail(run *PaymentRun, linked []*invoice.Invoice) *RunDetail {
	return &RunDetail{
		Run:          run,
		Invoices:     linked,
		LinkedCount:  len(linked),
		LinkedAmount: s.total(linked),
	}
}

func (s *Service) total(invoices []*invoice.Invoice) int64 {
	var total int64
	for _, inv := range invoices {
		total += inv.Basis(s.useTotal)
	}
	return total
}

func (s *Service) publish(ctx context.Context, eventType string, run *PaymentRun, previous string, actor internal.Actor) {
	if s.publisher == nil {
		return
	}
	event := events.NewTransitionEvent(eventType, approvallog.EntityPaymentRun, run.ID, previous, run.Status, actor.ID, run.TotalAmount)
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn("failed to publish payment run event", "event_type", eventType, "payment_run_id", run.ID, "error", err)
	}
}
