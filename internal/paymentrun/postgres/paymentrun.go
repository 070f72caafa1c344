package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/frahmantamala/finance-ops/internal/core/database"
	paymentrunDatamodel "github.com/frahmantamala/finance-ops/internal/core/datamodel/paymentrun"
	"github.com/frahmantamala/finance-ops/internal/paymentrun"
	"gorm.io/gorm"
)

type PaymentRunRepository struct {
	db *gorm.DB
}

func NewPaymentRunRepository(db *gorm.DB) *PaymentRunRepository {
	return &PaymentRunRepository{db: db}
}

func (r *PaymentRunRepository) Create(ctx context.Context, run *paymentrun.PaymentRun) error {
	row := paymentrun.ToDataModel(run)
	if err := database.Conn(ctx, r.db).Create(row).Error; err != nil {
		return err
	}
	run.ID = row.ID
	run.CreatedAt = row.CreatedAt
	return nil
}

func (r *PaymentRunRepository) GetByID(ctx context.Context, id int64) (*paymentrun.PaymentRun, error) {
	var row paymentrunDatamodel.PaymentRun
	if err := database.Conn(ctx, r.db).Where("id = ?", id).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, paymentrun.ErrPaymentRunNotFound
		}
		return nil, err
	}
	return paymentrun.FromDataModel(&row), nil
}

func (r *PaymentRunRepository) List(ctx context.Context, filter paymentrun.ListFilter) ([]*paymentrun.PaymentRun, error) {
	query := database.Conn(ctx, r.db).Model(&paymentrunDatamodel.PaymentRun{})
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		query = query.Offset(filter.Offset)
	}

	var rows []*paymentrunDatamodel.PaymentRun
	if err := query.Order("scheduled_date DESC, id DESC").Find(&rows).Error; err != nil {
		return nil, err
	}
	result := make([]*paymentrun.PaymentRun, len(rows))
	for i, row := range rows {
		result[i] = paymentrun.FromDataModel(row)
	}
	return result, nil
}

// MarkProcessed flips a draft run to processed. Zero affected rows means
// another caller processed it first.
func (r *PaymentRunRepository) MarkProcessed(ctx context.Context, id int64, actorID string, at time.Time) error {
	res := database.Conn(ctx, r.db).
		Model(&paymentrunDatamodel.PaymentRun{}).
		Where("id = ? AND status = ?", id, paymentrun.StatusDraft).
		Updates(map[string]interface{}{
			"status":       paymentrun.StatusProcessed,
			"processed_at": at,
			"processed_by": actorID,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return paymentrun.ErrStatusChanged
	}
	return nil
}
