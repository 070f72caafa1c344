package expense

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/frahmantamala/finance-ops/internal"
	"github.com/frahmantamala/finance-ops/internal/approvallog"
	"github.com/frahmantamala/finance-ops/internal/category"
	"github.com/frahmantamala/finance-ops/internal/core/common/validation"
	"github.com/frahmantamala/finance-ops/internal/core/database"
	"github.com/frahmantamala/finance-ops/internal/core/events"
)

// ErrStatusChanged is returned by Repository.Update when the row no longer
// carries the status the caller read.
var ErrStatusChanged = errors.New("expense request status changed concurrently")

// Repository interface defines the data access methods for expense requests
type Repository interface {
	Create(ctx context.Context, e *ExpenseRequest) error
	GetByID(ctx context.Context, id int64) (*ExpenseRequest, error)
	List(ctx context.Context, filter ListFilter) ([]*ExpenseRequest, error)
	Update(ctx context.Context, e *ExpenseRequest, expectedStatus string) error
}

type CategoryLookup interface {
	GetByID(ctx context.Context, id int64) (*category.Category, error)
}

// Service drives the expense request approval state machine. Every
// transition stores the new status and its audit entry in one transaction.
type Service struct {
	repo             Repository
	categories       CategoryLookup
	auditLog         approvallog.Repository
	tx               database.Transactor
	publisher        events.Publisher
	defaultThreshold int64
	logger           *slog.Logger
}

func NewService(repo Repository, categories CategoryLookup, auditLog approvallog.Repository, tx database.Transactor, publisher events.Publisher, defaultThreshold int64, logger *slog.Logger) *Service {
	return &Service{
		repo:             repo,
		categories:       categories,
		auditLog:         auditLog,
		tx:               tx,
		publisher:        publisher,
		defaultThreshold: defaultThreshold,
		logger:           logger,
	}
}

// InitialStatus returns submitted when the request needs approval and draft
// otherwise. Without a category every amount at or above defaultThreshold
// needs approval.
func InitialStatus(cat *category.Category, amount, defaultThreshold int64) string {
	needsApproval := amount >= defaultThreshold
	if cat != nil {
		needsApproval = cat.NeedsApproval(amount)
	}
	if needsApproval {
		return StatusSubmitted
	}
	return StatusDraft
}

func (s *Service) Create(ctx context.Context, actor internal.Actor, dto CreateExpenseRequestDTO) (*ExpenseRequest, error) {
	if err := dto.Validate(); err != nil {
		s.logger.Warn("expense request validation failed", "error", err, "actor_id", actor.ID)
		return nil, err
	}

	var cat *category.Category
	if dto.CategoryID != nil {
		var err error
		cat, err = s.categories.GetByID(ctx, *dto.CategoryID)
		if err != nil {
			if internal.IsType(err, internal.ErrorTypeNotFound) {
				return nil, internal.NewValidationFieldError("category_id", "unknown category", internal.ErrCodeCategoryNotFound)
			}
			return nil, err
		}
	}

	status := InitialStatus(cat, dto.Amount, s.defaultThreshold)
	req := NewExpenseRequest(actor, dto, status)

	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, req); err != nil {
			return internal.NewExternalServiceError("failed to create expense request", err)
		}
		if status != StatusSubmitted {
			return nil
		}
		entry := approvallog.NewEntry(approvallog.EntityExpenseRequest, req.ID, approvallog.ActionSubmitted, actor, StatusDraft, StatusSubmitted, "")
		if err := s.auditLog.Append(ctx, entry); err != nil {
			return internal.NewExternalServiceError("failed to record approval log", err)
		}
		return nil
	})
	if err != nil {
		s.logger.Error("failed to create expense request", "error", err, "actor_id", actor.ID)
		return nil, err
	}

	s.logger.Info("expense request created",
		"expense_request_id", req.ID,
		"actor_id", actor.ID,
		"amount", req.Amount,
		"status", req.Status)

	if status == StatusSubmitted {
		s.publish(ctx, events.EventTypeExpenseSubmitted, req, StatusDraft, actor)
	}
	return req, nil
}

func (s *Service) Get(ctx context.Context, id int64) (*ExpenseRequest, error) {
	req, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrExpenseNotFound) {
			return nil, ErrExpenseNotFound
		}
		s.logger.Error("failed to get expense request", "error", err, "expense_request_id", id)
		return nil, internal.NewExternalServiceError("failed to load expense request", err)
	}
	return req, nil
}

func (s *Service) List(ctx context.Context, filter ListFilter) ([]*ExpenseRequest, error) {
	reqs, err := s.repo.List(ctx, filter)
	if err != nil {
		s.logger.Error("failed to list expense requests", "error", err)
		return nil, internal.NewExternalServiceError("failed to list expense requests", err)
	}
	return reqs, nil
}

func (s *Service) History(ctx context.Context, id int64) ([]*approvallog.Entry, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	entries, err := s.auditLog.ListByEntity(ctx, approvallog.EntityExpenseRequest, id)
	if err != nil {
		s.logger.Error("failed to load approval history", "error", err, "expense_request_id", id)
		return nil, internal.NewExternalServiceError("failed to load approval history", err)
	}
	return entries, nil
}

func (s *Service) Submit(ctx context.Context, id int64, actor internal.Actor) (*ExpenseRequest, error) {
	return s.transition(ctx, id, actor, transition{
		action:    approvallog.ActionSubmitted,
		eventType: events.EventTypeExpenseSubmitted,
		check: func(req *ExpenseRequest) error {
			if err := validation.ValidateAmount("amount", req.Amount); err != nil {
				return err
			}
			if err := validation.ValidateDescription(req.Description); err != nil {
				return err
			}
			if !req.CanBeSubmitted() {
				return internal.NewTransitionError("only draft expense requests can be submitted", internal.ErrCodeInvalidExpenseStatus)
			}
			return nil
		},
		apply: func(req *ExpenseRequest, at time.Time) { req.Submit(at) },
	})
}

func (s *Service) Approve(ctx context.Context, id int64, actor internal.Actor, comments string) (*ExpenseRequest, error) {
	return s.transition(ctx, id, actor, transition{
		action:    approvallog.ActionApproved,
		eventType: events.EventTypeExpenseApproved,
		comments:  comments,
		check: func(req *ExpenseRequest) error {
			if !req.CanBeApproved() {
				return internal.NewTransitionError("expense request is not awaiting approval", internal.ErrCodeInvalidExpenseStatus)
			}
			return nil
		},
		apply: func(req *ExpenseRequest, at time.Time) { req.Approve(actor.ID, at) },
	})
}

// Reject validates the reason before reading anything, so a blank reason
// never touches the store.
func (s *Service) Reject(ctx context.Context, id int64, actor internal.Actor, reason string) (*ExpenseRequest, error) {
	if err := validation.ValidateReason(reason); err != nil {
		s.logger.Warn("reject expense request denied: empty reason", "expense_request_id", id, "actor_id", actor.ID)
		return nil, err
	}

	return s.transition(ctx, id, actor, transition{
		action:    approvallog.ActionRejected,
		eventType: events.EventTypeExpenseRejected,
		comments:  reason,
		check: func(req *ExpenseRequest) error {
			if !req.CanBeRejected() {
				return internal.NewTransitionError("expense request is not awaiting approval", internal.ErrCodeInvalidExpenseStatus)
			}
			return nil
		},
		apply: func(req *ExpenseRequest, at time.Time) { req.Reject(actor.ID, reason, at) },
	})
}

func (s *Service) MarkPaid(ctx context.Context, id int64, actor internal.Actor) (*ExpenseRequest, error) {
	return s.transition(ctx, id, actor, transition{
		action:    approvallog.ActionPaid,
		eventType: events.EventTypeExpensePaid,
		check: func(req *ExpenseRequest) error {
			if !req.CanBePaid() {
				return internal.NewTransitionError("only approved expense requests can be paid", internal.ErrCodeInvalidExpenseStatus)
			}
			return nil
		},
		apply: func(req *ExpenseRequest, at time.Time) { req.MarkPaid(actor.ID, at) },
	})
}

type transition struct {
	action    string
	eventType string
	comments  string
	check     func(*ExpenseRequest) error
	apply     func(*ExpenseRequest, time.Time)
}

func (s *Service) transition(ctx context.Context, id int64, actor internal.Actor, t transition) (*ExpenseRequest, error) {
	var (
		req      *ExpenseRequest
		previous string
	)

	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		req, err = s.Get(ctx, id)
		if err != nil {
			return err
		}
		if err := t.check(req); err != nil {
			return err
		}

		previous = req.Status
		t.apply(req, time.Now())

		if err := s.repo.Update(ctx, req, previous); err != nil {
			if errors.Is(err, ErrStatusChanged) {
				return internal.NewTransitionError("expense request was modified by another action", internal.ErrCodeInvalidExpenseStatus)
			}
			return internal.NewExternalServiceError("failed to update expense request", err)
		}

		entry := approvallog.NewEntry(approvallog.EntityExpenseRequest, req.ID, t.action, actor, previous, req.Status, t.comments)
		if err := s.auditLog.Append(ctx, entry); err != nil {
			return internal.NewExternalServiceError("failed to record approval log", err)
		}
		return nil
	})
	if err != nil {
		s.logger.Warn("expense request transition failed",
			"expense_request_id", id,
			"action", t.action,
			"actor_id", actor.ID,
			"error", err)
		return nil, err
	}

	s.logger.Info("expense request transitioned",
		"expense_request_id", id,
		"action", t.action,
		"previous_status", previous,
		"new_status", req.Status,
		"actor_id", actor.ID)

	s.publish(ctx, t.eventType, req, previous, actor)
	return req, nil
}

func (s *Service) publish(ctx context.Context, eventType string, req *ExpenseRequest, previous string, actor internal.Actor) {
	if s.publisher == nil {
		return
	}
	event := events.NewTransitionEvent(eventType, approvallog.EntityExpenseRequest, req.ID, previous, req.Status, actor.ID, req.Amount)
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn("failed to publish expense event", "event_type", eventType, "expense_request_id", req.ID, "error", err)
	}
}
