package receivable

import "time"

type Receivable struct {
	ID           int64      `gorm:"primaryKey"`
	CustomerName string     `gorm:"column:customer_name;not null"`
	Reference    string     `gorm:"column:reference"`
	Amount       int64      `gorm:"column:amount;not null"`
	IssueDate    time.Time  `gorm:"column:issue_date;not null"`
	DueDate      time.Time  `gorm:"column:due_date;not null"`
	Status       string     `gorm:"column:status;not null;default:open"`
	PaidAt       *time.Time `gorm:"column:paid_at"`
	CreatedAt    time.Time  `gorm:"column:created_at;autoCreateTime"`
}

func (Receivable) TableName() string {
	return "receivables"
}
