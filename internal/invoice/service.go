package invoice

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/frahmantamala/finance-ops/internal"
	"github.com/frahmantamala/finance-ops/internal/approvallog"
	"github.com/frahmantamala/finance-ops/internal/core/common/validation"
	"github.com/frahmantamala/finance-ops/internal/core/database"
	"github.com/frahmantamala/finance-ops/internal/core/events"
)

const numberAttempts = 3

// ErrStatusChanged is returned by Repository.Update when the stored status no
// longer matches the one the caller read.
var ErrStatusChanged = errors.New("invoice status changed concurrently")

type Repository interface {
	Create(ctx context.Context, inv *Invoice) error
	GetByID(ctx context.Context, id int64) (*Invoice, error)
	List(ctx context.Context, filter ListFilter) ([]*Invoice, error)
	Update(ctx context.Context, inv *Invoice, expectedStatus string) error
	CountByNumberPrefix(ctx context.Context, prefix string) (int64, error)
}

type Service struct {
	repo      Repository
	auditLog  approvallog.Repository
	tx        database.Transactor
	publisher events.Publisher
	logger    *slog.Logger
	now       func() time.Time
}

func NewService(repo Repository, auditLog approvallog.Repository, tx database.Transactor, publisher events.Publisher, logger *slog.Logger) *Service {
	return &Service{
		repo:      repo,
		auditLog:  auditLog,
		tx:        tx,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
	}
}

// Create stores a pending invoice under the next free number of the issue
// year. A number taken by a concurrent create is retried with a fresh count.
func (s *Service) Create(ctx context.Context, actor internal.Actor, dto CreateInvoiceDTO) (*Invoice, error) {
	if err := dto.Validate(); err != nil {
		s.logger.Warn("invoice validation failed", "error", err, "actor_id", actor.ID)
		return nil, err
	}

	now := s.now()
	var inv *Invoice
	for attempt := 1; attempt <= numberAttempts; attempt++ {
		var err error
		inv, err = s.createOnce(ctx, actor, dto, now)
		if err == nil {
			break
		}
		if database.IsUniqueViolation(err) && attempt < numberAttempts {
			s.logger.Warn("invoice number taken, retrying", "attempt", attempt, "actor_id", actor.ID)
			continue
		}
		s.logger.Error("failed to create invoice", "error", err, "actor_id", actor.ID)
		return nil, err
	}

	s.logger.Info("invoice created",
		"invoice_id", inv.ID,
		"invoice_number", inv.InvoiceNumber,
		"vendor_name", inv.VendorName,
		"total_amount", inv.TotalAmount,
		"actor_id", actor.ID)

	s.publish(ctx, events.EventTypeInvoiceCreated, inv, "", actor)
	return inv, nil
}

func (s *Service) createOnce(ctx context.Context, actor internal.Actor, dto CreateInvoiceDTO, now time.Time) (*Invoice, error) {
	var inv *Invoice
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		year := now.Year()
		if dto.IssueDate != nil {
			year = dto.IssueDate.Year()
		}
		count, err := s.repo.CountByNumberPrefix(ctx, NumberPrefix(year))
		if err != nil {
			return internal.NewExternalServiceError("failed to generate invoice number", err)
		}

		inv = NewInvoice(actor, dto, FormatNumber(year, count+1), now)
		if err := s.repo.Create(ctx, inv); err != nil {
			return internal.NewExternalServiceError("failed to create invoice", err)
		}

		entry := approvallog.NewEntry(approvallog.EntityInvoice, inv.ID, approvallog.ActionCreated, actor, "", StatusPending, "")
		if err := s.auditLog.Append(ctx, entry); err != nil {
			return internal.NewExternalServiceError("failed to record approval log", err)
		}
		return nil
	})
	return inv, err
}

func (s *Service) Get(ctx context.Context, id int64) (*Invoice, error) {
	inv, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrInvoiceNotFound) {
			return nil, ErrInvoiceNotFound
		}
		s.logger.Error("failed to get invoice", "error", err, "invoice_id", id)
		return nil, internal.NewExternalServiceError("failed to load invoice", err)
	}
	return inv, nil
}

func (s *Service) List(ctx context.Context, filter ListFilter) ([]*Invoice, error) {
	invoices, err := s.repo.List(ctx, filter)
	if err != nil {
		s.logger.Error("failed to list invoices", "error", err)
		return nil, internal.NewExternalServiceError("failed to list invoices", err)
	}
	return invoices, nil
}

func (s *Service) History(ctx context.Context, id int64) ([]*approvallog.Entry, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	entries, err := s.auditLog.ListByEntity(ctx, approvallog.EntityInvoice, id)
	if err != nil {
		s.logger.Error("failed to load approval history", "error", err, "invoice_id", id)
		return nil, internal.NewExternalServiceError("failed to load approval history", err)
	}
	return entries, nil
}

func (s *Service) Approve(ctx context.Context, id int64, actor internal.Actor, comments string) (*Invoice, error) {
	return s.transition(ctx, id, actor, transition{
		action:    approvallog.ActionApproved,
		eventType: events.EventTypeInvoiceApproved,
		comments:  comments,
		allowed:   (*Invoice).CanBeApproved,
		denied:    "only pending invoices can be approved",
		apply:     func(inv *Invoice, at time.Time) { inv.Approve(actor.ID, at) },
	})
}

func (s *Service) Dispute(ctx context.Context, id int64, actor internal.Actor, reason string) (*Invoice, error) {
	if err := validation.ValidateReason(reason); err != nil {
		return nil, err
	}
	return s.transition(ctx, id, actor, transition{
		action:    approvallog.ActionDisputed,
		eventType: events.EventTypeInvoiceDisputed,
		comments:  reason,
		allowed:   (*Invoice).CanBeDisputed,
		denied:    "only pending or approved invoices can be disputed",
		apply:     func(inv *Invoice, at time.Time) { inv.Dispute(at) },
	})
}

func (s *Service) Cancel(ctx context.Context, id int64, actor internal.Actor, reason string) (*Invoice, error) {
	if err := validation.ValidateReason(reason); err != nil {
		return nil, err
	}
	return s.transition(ctx, id, actor, transition{
		action:    approvallog.ActionCancelled,
		eventType: events.EventTypeInvoiceCancelled,
		comments:  reason,
		allowed:   (*Invoice).CanBeCancelled,
		denied:    "only pending or approved invoices can be cancelled",
		apply:     func(inv *Invoice, at time.Time) { inv.Cancel(at) },
	})
}

// MarkPaid settles a single approved invoice outside of a payment run.
func (s *Service) MarkPaid(ctx context.Context, id int64, actor internal.Actor) (*Invoice, error) {
	return s.transition(ctx, id, actor, transition{
		action:    approvallog.ActionPaid,
		eventType: events.EventTypeInvoicePaid,
		allowed:   (*Invoice).CanBePaid,
		denied:    "only approved invoices can be paid",
		apply:     func(inv *Invoice, at time.Time) { inv.MarkPaid(actor.ID, at) },
	})
}

type transition struct {
	action    string
	eventType string
	comments  string
	allowed   func(*Invoice) bool
	denied    string
	apply     func(*Invoice, time.Time)
}

func (s *Service) transition(ctx context.Context, id int64, actor internal.Actor, t transition) (*Invoice, error) {
	var (
		inv      *Invoice
		previous string
	)

	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		inv, err = s.Get(ctx, id)
		if err != nil {
			return err
		}
		if !t.allowed(inv) {
			return internal.NewTransitionError(t.denied, internal.ErrCodeInvalidInvoiceStatus).
				WithDetails(map[string]string{"status": inv.Status})
		}

		previous = inv.Status
		t.apply(inv, s.now())

		if err := s.repo.Update(ctx, inv, previous); err != nil {
			if errors.Is(err, ErrStatusChanged) {
				return internal.NewTransitionError("invoice was modified by another action", internal.ErrCodeInvalidInvoiceStatus)
			}
			return internal.NewExternalServiceError("failed to update invoice", err)
		}

		entry := approvallog.NewEntry(approvallog.EntityInvoice, inv.ID, t.action, actor, previous, inv.Status, t.comments)
		if err := s.auditLog.Append(ctx, entry); err != nil {
			return internal.NewExternalServiceError("failed to record approval log", err)
		}
		return nil
	})
	if err != nil {
		s.logger.Warn("invoice transition failed",
			"invoice_id", id,
			"action", t.action,
			"actor_id", actor.ID,
			"error", err)
		return nil, err
	}

	s.logger.Info("invoice transitioned",
		"invoice_id", id,
		"invoice_number", inv.InvoiceNumber,
		"action", t.action,
		"previous_status", previous,
		"new_status", inv.Status,
		"actor_id", actor.ID)

	s.publish(ctx, t.eventType, inv, previous, actor)
	return inv, nil
}

func (s *Service) publish(ctx context.Context, eventType string, inv *Invoice, previous string, actor internal.Actor) {
	if s.publisher == nil {
		return
	}
	event := events.NewTransitionEvent(eventType, approvallog.EntityInvoice, inv.ID, previous, inv.Status, actor.ID, inv.TotalAmount)
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn("failed to publish invoice event", "event_type", eventType, "invoice_id", inv.ID, "error", err)
	}
}
