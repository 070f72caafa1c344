package postgres

import (
	"context"

	"github.com/frahmantamala/finance-ops/internal/core/database"
	receivableDatamodel "github.com/frahmantamala/finance-ops/internal/core/datamodel/receivable"
	"github.com/frahmantamala/finance-ops/internal/receivable"
	"gorm.io/gorm"
)

type ReceivableRepository struct {
	db *gorm.DB
}

func NewReceivableRepository(db *gorm.DB) *ReceivableRepository {
	return &ReceivableRepository{db: db}
}

func (r *ReceivableRepository) List(ctx context.Context) ([]*receivable.Receivable, error) {
	var rows []*receivableDatamodel.Receivable
	if err := database.Conn(ctx, r.db).Order("due_date ASC, id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	result := make([]*receivable.Receivable, len(rows))
	for i, row := range rows {
		result[i] = receivable.FromDataModel(row)
	}
	return result, nil
}

// Create is used by the seeder.
func (r *ReceivableRepository) Create(ctx context.Context, rec *receivable.Receivable) error {
	row := receivable.ToDataModel(rec)
	if err := database.Conn(ctx, r.db).Create(row).Error; err != nil {
		return err
	}
	rec.ID = row.ID
	return nil
}
