package budget

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/frahmantamala/finance-ops/internal"
	"github.com/frahmantamala/finance-ops/internal/core/common/period"
	"github.com/frahmantamala/finance-ops/internal/core/database"
)

// ErrStatusChanged is returned by Repository.UpdateStatus when the stored
// status is no longer the expected one.
var ErrStatusChanged = errors.New("budget status changed concurrently")

type Repository interface {
	Create(ctx context.Context, b *Budget) error
	GetByID(ctx context.Context, id int64) (*Budget, error)
	List(ctx context.Context, filter ListFilter) ([]*Budget, error)
	UpdateAmounts(ctx context.Context, b *Budget) error
	UpdateStatus(ctx context.Context, id int64, from, to string) error
	// HasActiveDuplicate reports another active budget with the same
	// department, category and period.
	HasActiveDuplicate(ctx context.Context, b *Budget) (bool, error)
}

type Service struct {
	repo   Repository
	tx     database.Transactor
	logger *slog.Logger
}

func NewService(repo Repository, tx database.Transactor, logger *slog.Logger) *Service {
	return &Service{repo: repo, tx: tx, logger: logger}
}

// Create stores a draft budget. Fiscal year and quarter default to those of
// the period.
func (s *Service) Create(ctx context.Context, actor internal.Actor, dto CreateBudgetDTO) (*Budget, error) {
	if err := dto.Validate(); err != nil {
		s.logger.Warn("budget validation failed", "error", err, "actor_id", actor.ID)
		return nil, err
	}
	month, _ := period.ParseMonth(dto.Period)

	fiscalYear := dto.FiscalYear
	if fiscalYear == 0 {
		fiscalYear = month.Year
	}
	quarter := dto.Quarter
	if quarter == nil {
		q := month.Quarter()
		quarter = &q
	}

	now := time.Now()
	b := &Budget{
		DepartmentID:    dto.DepartmentID,
		CategoryID:      dto.CategoryID,
		Period:          month.String(),
		FiscalYear:      fiscalYear,
		Quarter:         quarter,
		AllocatedAmount: dto.AllocatedAmount,
		SpentAmount:     dto.SpentAmount,
		CommittedAmount: dto.CommittedAmount,
		Status:          StatusDraft,
		Notes:           dto.Notes,
		CreatedBy:       actor.ID,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.repo.Create(ctx, b); err != nil {
		s.logger.Error("failed to create budget", "error", err, "actor_id", actor.ID)
		return nil, internal.NewExternalServiceError("failed to create budget", err)
	}

	s.logger.Info("budget created",
		"budget_id", b.ID,
		"department_id", b.DepartmentID,
		"period", b.Period,
		"allocated_amount", b.AllocatedAmount,
		"actor_id", actor.ID)
	return b, nil
}

func (s *Service) Get(ctx context.Context, id int64) (*Budget, error) {
	b, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrBudgetNotFound) {
			return nil, ErrBudgetNotFound
		}
		s.logger.Error("failed to get budget", "error", err, "budget_id", id)
		return nil, internal.NewExternalServiceError("failed to load budget", err)
	}
	return b, nil
}

func (s *Service) List(ctx context.Context, filter ListFilter) ([]*Budget, error) {
	budgets, err := s.repo.List(ctx, filter)
	if err != nil {
		s.logger.Error("failed to list budgets", "error", err)
		return nil, internal.NewExternalServiceError("failed to list budgets", err)
	}
	return budgets, nil
}

// UpdateAmounts replaces the three amounts of a draft or active budget.
func (s *Service) UpdateAmounts(ctx context.Context, id int64, actor internal.Actor, dto UpdateAmountsDTO) (*Budget, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	var b *Budget
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		b, err = s.Get(ctx, id)
		if err != nil {
			return err
		}
		if b.IsClosed() {
			return internal.NewTransitionError("closed budgets cannot be changed", internal.ErrCodeInvalidBudgetStatus)
		}

		b.AllocatedAmount = dto.AllocatedAmount
		b.SpentAmount = dto.SpentAmount
		b.CommittedAmount = dto.CommittedAmount
		b.UpdatedAt = time.Now()
		if err := s.repo.UpdateAmounts(ctx, b); err != nil {
			return internal.NewExternalServiceError("failed to update budget amounts", err)
		}
		return nil
	})
	if err != nil {
		s.logger.Warn("budget amount update failed", "budget_id", id, "actor_id", actor.ID, "error", err)
		return nil, err
	}

	s.logger.Info("budget amounts updated",
		"budget_id", id,
		"remaining_amount", b.Remaining(),
		"utilization", b.Utilization(),
		"actor_id", actor.ID)
	return b, nil
}

// Activate moves a draft budget to active unless another active budget
// already covers the same department, category and period.
func (s *Service) Activate(ctx context.Context, id int64, actor internal.Actor) (*Budget, error) {
	return s.changeStatus(ctx, id, actor, StatusActive, func(ctx context.Context, b *Budget) error {
		if !b.CanBeActivated() {
			return internal.NewTransitionError("only draft budgets can be activated", internal.ErrCodeInvalidBudgetStatus)
		}
		dup, err := s.repo.HasActiveDuplicate(ctx, b)
		if err != nil {
			return internal.NewExternalServiceError("failed to check for active budgets", err)
		}
		if dup {
			return internal.NewConflictError("an active budget already exists for this department, category and period", internal.ErrCodeDuplicateBudget)
		}
		return nil
	})
}

func (s *Service) Close(ctx context.Context, id int64, actor internal.Actor) (*Budget, error) {
	return s.changeStatus(ctx, id, actor, StatusClosed, func(ctx context.Context, b *Budget) error {
		if !b.CanBeClosed() {
			return internal.NewTransitionError("only active budgets can be closed", internal.ErrCodeInvalidBudgetStatus)
		}
		return nil
	})
}

func (s *Service) changeStatus(ctx context.Context, id int64, actor internal.Actor, to string, check func(context.Context, *Budget) error) (*Budget, error) {
	var (
		b    *Budget
		from string
	)
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		b, err = s.Get(ctx, id)
		if err != nil {
			return err
		}
		if err := check(ctx, b); err != nil {
			return err
		}

		from = b.Status
		if err := s.repo.UpdateStatus(ctx, id, from, to); err != nil {
			if errors.Is(err, ErrStatusChanged) {
				return internal.NewTransitionError("budget was modified by another action", internal.ErrCodeInvalidBudgetStatus)
			}
			return internal.NewExternalServiceError("failed to update budget status", err)
		}
		b.Status = to
		b.UpdatedAt = time.Now()
		return nil
	})
	if err != nil {
		s.logger.Warn("budget status change failed", "budget_id", id, "to", to, "actor_id", actor.ID, "error", err)
		return nil, err
	}

	s.logger.Info("budget status changed", "budget_id", id, "from", from, "to", to, "actor_id", actor.ID)
	return b, nil
}

// Summary totals every budget matching filter.
func (s *Service) Summary(ctx context.Context, filter ListFilter) (Summary, error) {
	filter.Limit, filter.Offset = 0, 0
	budgets, err := s.List(ctx, filter)
	if err != nil {
		return Summary{}, err
	}
	return Summarize(budgets), nil
}

func Summarize(budgets []*Budget) Summary {
	sum := Summary{ByStatus: map[string]int{}}
	for _, b := range budgets {
		sum.Count++
		sum.TotalAllocated += b.AllocatedAmount
		sum.TotalSpent += b.SpentAmount
		sum.TotalCommitted += b.CommittedAmount
		sum.ByStatus[b.Status]++
	}
	sum.TotalRemaining = Remaining(sum.TotalAllocated, sum.TotalSpent, sum.TotalCommitted)
	sum.Utilization = Utilization(sum.TotalAllocated, sum.TotalSpent, sum.TotalCommitted)
	return sum
}
