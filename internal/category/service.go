package category

import (
	"context"
	"log/slog"
	"strings"

	"github.com/frahmantamala/finance-ops/internal"
	"github.com/frahmantamala/finance-ops/internal/core/database"
	categoryDatamodel "github.com/frahmantamala/finance-ops/internal/core/datamodel/category"
)

type RepositoryAPI interface {
	GetAll(ctx context.Context) ([]*categoryDatamodel.ExpenseCategory, error)
	GetByID(ctx context.Context, id int64) (*categoryDatamodel.ExpenseCategory, error)
	GetByName(ctx context.Context, name string) (*categoryDatamodel.ExpenseCategory, error)
	Create(ctx context.Context, category *categoryDatamodel.ExpenseCategory) error
}

type Service struct {
	repo   RepositoryAPI
	logger *slog.Logger
}

func NewService(repo RepositoryAPI, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger,
	}
}

// GetAllCategories lists active categories. A categories table that has not
// been provisioned yet yields an empty list.
func (s *Service) GetAllCategories(ctx context.Context) ([]CategoryResponse, error) {
	dataCategories, err := s.repo.GetAll(ctx)
	if err != nil {
		if database.IsUndefinedTable(err) {
			s.logger.Warn("categories table not provisioned, returning empty list", "error", err)
			return []CategoryResponse{}, nil
		}
		s.logger.Error("failed to get categories from repository", "error", err)
		return nil, internal.NewExternalServiceError("failed to load categories", err)
	}

	responses := make([]CategoryResponse, 0, len(dataCategories))
	for _, dataCategory := range dataCategories {
		domainCategory := FromDataModel(dataCategory)
		if domainCategory.IsActive {
			responses = append(responses, domainCategory.ToResponse())
		}
	}

	s.logger.Info("retrieved categories", "count", len(responses))
	return responses, nil
}

// GetByID returns (nil, nil) when the categories table does not exist yet.
func (s *Service) GetByID(ctx context.Context, id int64) (*Category, error) {
	row, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if database.IsUndefinedTable(err) {
			s.logger.Warn("categories table not provisioned, skipping category lookup", "category_id", id, "error", err)
			return nil, nil
		}
		s.logger.Error("failed to get category", "category_id", id, "error", err)
		return nil, internal.NewExternalServiceError("failed to load category", err)
	}
	if row == nil {
		s.logger.Warn("category not found", "category_id", id)
		return nil, internal.NewNotFoundError("category not found", internal.ErrCodeCategoryNotFound)
	}
	return FromDataModel(row), nil
}

// Create stores a new category. Names are unique; a taken name is a
// conflict and leaves the existing category untouched.
func (s *Service) Create(ctx context.Context, c *Category) (*Category, error) {
	c.Name = strings.TrimSpace(c.Name)
	if c.Name == "" {
		return nil, internal.NewValidationFieldError("name", "name is required", internal.ErrCodeValidationFailed)
	}
	if c.ApprovalThreshold < 0 {
		return nil, internal.NewValidationFieldError("approval_threshold", "approval_threshold must not be negative", internal.ErrCodeValidationFailed)
	}

	existing, err := s.repo.GetByName(ctx, c.Name)
	if err != nil {
		s.logger.Error("failed to look up category by name", "name", c.Name, "error", err)
		return nil, internal.NewExternalServiceError("failed to create category", err)
	}
	if existing != nil {
		return nil, internal.NewConflictError("category "+c.Name+" already exists", internal.ErrCodeCategoryExists)
	}

	row := ToDataModel(c)
	if err := s.repo.Create(ctx, row); err != nil {
		if database.IsUniqueViolation(err) {
			return nil, internal.NewConflictError("category "+c.Name+" already exists", internal.ErrCodeCategoryExists)
		}
		s.logger.Error("failed to create category", "name", c.Name, "error", err)
		return nil, internal.NewExternalServiceError("failed to create category", err)
	}

	s.logger.Info("category created", "category_id", row.ID, "name", row.Name)
	return FromDataModel(row), nil
}
