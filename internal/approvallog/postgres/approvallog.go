package postgres

import (
	"context"

	"github.com/frahmantamala/finance-ops/internal/approvallog"
	"github.com/frahmantamala/finance-ops/internal/core/database"
	approvallogDatamodel "github.com/frahmantamala/finance-ops/internal/core/datamodel/approvallog"
	"gorm.io/gorm"
)

type ApprovalLogRepository struct {
	db *gorm.DB
}

func NewApprovalLogRepository(db *gorm.DB) *ApprovalLogRepository {
	return &ApprovalLogRepository{db: db}
}

func (r *ApprovalLogRepository) Append(ctx context.Context, entry *approvallog.Entry) error {
	row := approvallog.ToDataModel(entry)
	if err := database.Conn(ctx, r.db).Create(row).Error; err != nil {
		return err
	}
	entry.ID = row.ID
	entry.CreatedAt = row.CreatedAt
	return nil
}

func (r *ApprovalLogRepository) ListByEntity(ctx context.Context, entityType string, entityID int64) ([]*approvallog.Entry, error) {
	var rows []*approvallogDatamodel.ApprovalLog
	err := database.Conn(ctx, r.db).
		Where("entity_type = ? AND entity_id = ?", entityType, entityID).
		Order("created_at ASC, id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	entries := make([]*approvallog.Entry, len(rows))
	for i, row := range rows {
		entries[i] = approvallog.FromDataModel(row)
	}
	return entries, nil
}
