package paymentrun

import "time"

type PaymentRun struct {
	ID            int64      `gorm:"primaryKey"`
	ScheduledDate time.Time  `gorm:"column:scheduled_date;not null"`
	CutoffDate    time.Time  `gorm:"column:cutoff_date;not null"`
	Status        string     `gorm:"column:status;not null;default:draft"`
	TotalAmount   int64      `gorm:"column:total_amount;not null;default:0"`
	InvoiceCount  int        `gorm:"column:invoice_count;not null;default:0"`
	ProcessedAt   *time.Time `gorm:"column:processed_at"`
	ProcessedBy   *string    `gorm:"column:processed_by"`
	CreatedBy     string     `gorm:"column:created_by"`
	CreatedAt     time.Time  `gorm:"column:created_at;autoCreateTime"`
}

func (PaymentRun) TableName() string {
	return "payment_runs"
}
