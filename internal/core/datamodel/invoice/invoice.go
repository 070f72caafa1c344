package invoice

import "time"

type Invoice struct {
	ID             int64      `gorm:"primaryKey"`
	InvoiceNumber  string     `gorm:"column:invoice_number;uniqueIndex;not null"`
	VendorName     string     `gorm:"column:vendor_name;not null"`
	Amount         int64      `gorm:"column:amount;not null"`
	TaxAmount      int64      `gorm:"column:tax_amount;not null;default:0"`
	TotalAmount    int64      `gorm:"column:total_amount;not null"`
	IssueDate      time.Time  `gorm:"column:issue_date;not null"`
	DueDate        time.Time  `gorm:"column:due_date;not null"`
	Status         string     `gorm:"column:status;not null;default:pending"`
	DepartmentID   *int64     `gorm:"column:department_id"`
	PaymentRunID   *int64     `gorm:"column:payment_run_id"`
	InvoiceFileURL *string    `gorm:"column:invoice_file_url"`
	Notes          string     `gorm:"column:notes"`
	CreatedBy      string     `gorm:"column:created_by"`
	ApprovedBy     *string    `gorm:"column:approved_by"`
	ApprovedAt     *time.Time `gorm:"column:approved_at"`
	PaidBy         *string    `gorm:"column:paid_by"`
	PaidAt         *time.Time `gorm:"column:paid_at"`
	CreatedAt      time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (Invoice) TableName() string {
	return "invoices"
}
