package category

import "time"

type ExpenseCategory struct {
	ID                int64     `gorm:"primaryKey"`
	Name              string    `gorm:"column:name;uniqueIndex;not null"`
	Description       string    `gorm:"column:description"`
	RequiresApproval  *bool     `gorm:"column:requires_approval"`
	ApprovalThreshold int64     `gorm:"column:approval_threshold;not null;default:0"`
	IsActive          bool      `gorm:"column:is_active;default:true"`
	CreatedAt         time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (ExpenseCategory) TableName() string {
	return "expense_categories"
}
