package category

import (
	"time"

	categoryDatamodel "github.com/frahmantamala/finance-ops/internal/core/datamodel/category"
)

type Category struct {
	ID                int64     `json:"id"`
	Name              string    `json:"name"`
	Description       string    `json:"description"`
	RequiresApproval  *bool     `json:"requires_approval,omitempty"`
	ApprovalThreshold int64     `json:"approval_threshold"`
	IsActive          bool      `json:"is_active"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// MandatesApproval treats an unset flag as "approval required".
func (c *Category) MandatesApproval() bool {
	if c.RequiresApproval == nil {
		return true
	}
	return *c.RequiresApproval
}

// NeedsApproval reports whether an expense of amount must go through approval.
func (c *Category) NeedsApproval(amount int64) bool {
	return c.MandatesApproval() && amount >= c.ApprovalThreshold
}

func (c *Category) ToResponse() CategoryResponse {
	return CategoryResponse{
		ID:                c.ID,
		Name:              c.Name,
		Description:       c.Description,
		RequiresApproval:  c.MandatesApproval(),
		ApprovalThreshold: c.ApprovalThreshold,
	}
}

func ToDataModel(c *Category) *categoryDatamodel.ExpenseCategory {
	return &categoryDatamodel.ExpenseCategory{
		ID:                c.ID,
		Name:              c.Name,
		Description:       c.Description,
		RequiresApproval:  c.RequiresApproval,
		ApprovalThreshold: c.ApprovalThreshold,
		IsActive:          c.IsActive,
		CreatedAt:         c.CreatedAt,
		UpdatedAt:         c.UpdatedAt,
	}
}

func FromDataModel(c *categoryDatamodel.ExpenseCategory) *Category {
	return &Category{
		ID:                c.ID,
		Name:              c.Name,
		Description:       c.Description,
		RequiresApproval:  c.RequiresApproval,
		ApprovalThreshold: c.ApprovalThreshold,
		IsActive:          c.IsActive,
		CreatedAt:         c.CreatedAt,
		UpdatedAt:         c.UpdatedAt,
	}
}
