package expense

import "time"

type ExpenseRequest struct {
	ID              int64      `gorm:"primaryKey"`
	RequesterID     string     `gorm:"column:requester_id;not null"`
	RequesterName   string     `gorm:"column:requester_name"`
	DepartmentID    int64      `gorm:"column:department_id;not null"`
	CategoryID      *int64     `gorm:"column:category_id"`
	Amount          int64      `gorm:"column:amount;not null"`
	Description     string     `gorm:"column:description;not null"`
	BusinessPurpose string     `gorm:"column:business_purpose"`
	Justification   string     `gorm:"column:justification"`
	Status          string     `gorm:"column:status;not null;default:draft"`
	Priority        string     `gorm:"column:priority;not null;default:normal"`
	ExpenseDate     *time.Time `gorm:"column:expense_date"`
	DueDate         *time.Time `gorm:"column:due_date"`
	PaymentMethod   string     `gorm:"column:payment_method"`
	VendorName      string     `gorm:"column:vendor_name"`
	ReceiptURLs     string     `gorm:"column:receipt_urls"`
	ApprovedBy      *string    `gorm:"column:approved_by"`
	ApprovedAt      *time.Time `gorm:"column:approved_at"`
	RejectedAt      *time.Time `gorm:"column:rejected_at"`
	RejectionReason *string    `gorm:"column:rejection_reason"`
	PaidBy          *string    `gorm:"column:paid_by"`
	PaidAt          *time.Time `gorm:"column:paid_at"`
	CreatedAt       time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (ExpenseRequest) TableName() string {
	return "expense_requests"
}
