package order

import "time"

const (
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
)

// Order is a row of the storefront orders table. This service only reads it;
// the seeder is the one writer.
type Order struct {
	ID           int64     `gorm:"primaryKey"`
	CustomerName string    `gorm:"column:customer_name"`
	TotalAmount  int64     `gorm:"column:total_amount;not null"`
	Status       string    `gorm:"column:status;not null;default:completed"`
	CreatedAt    time.Time `gorm:"column:created_at;not null"`
}

func (Order) TableName() string {
	return "orders"
}
