package approvallog

import "time"

// ApprovalLog rows are inserted once and never updated.
type ApprovalLog struct {
	ID             int64     `gorm:"primaryKey"`
	EntityType     string    `gorm:"column:entity_type;not null;index:idx_approval_logs_entity"`
	EntityID       int64     `gorm:"column:entity_id;not null;index:idx_approval_logs_entity"`
	Action         string    `gorm:"column:action;not null"`
	ActorID        string    `gorm:"column:actor_id;not null"`
	ActorName      string    `gorm:"column:actor_name"`
	PreviousStatus string    `gorm:"column:previous_status"`
	NewStatus      string    `gorm:"column:new_status;not null"`
	Comments       string    `gorm:"column:comments"`
	CreatedAt      time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (ApprovalLog) TableName() string {
	return "approval_logs"
}
