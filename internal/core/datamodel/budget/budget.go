package budget

import "time"

type Budget struct {
	ID              int64     `gorm:"primaryKey"`
	DepartmentID    int64     `gorm:"column:department_id;not null"`
	CategoryID      *int64    `gorm:"column:category_id"`
	Period          string    `gorm:"column:period;not null"`
	FiscalYear      int       `gorm:"column:fiscal_year;not null"`
	Quarter         *int      `gorm:"column:quarter"`
	AllocatedAmount int64     `gorm:"column:allocated_amount;not null;default:0"`
	SpentAmount     int64     `gorm:"column:spent_amount;not null;default:0"`
	CommittedAmount int64     `gorm:"column:committed_amount;not null;default:0"`
	Status          string    `gorm:"column:status;not null;default:draft"`
	Notes           string    `gorm:"column:notes"`
	CreatedBy       string    `gorm:"column:created_by"`
	CreatedAt       time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (Budget) TableName() string {
	return "budgets"
}
