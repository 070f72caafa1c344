package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/frahmantamala/finance-ops/internal/core/common/period"
	"github.com/frahmantamala/finance-ops/internal/revenue"
)

type RevenueRepository struct {
	db *sqlx.DB
}

func NewRevenueRepository(db *sqlx.DB) *RevenueRepository {
	return &RevenueRepository{db: db}
}

// monthOf renders column as YYYY-MM in the dialect of the connected driver.
func (r *RevenueRepository) monthOf(column string) string {
	if r.db.DriverName() == "sqlite3" {
		return fmt.Sprintf("strftime('%%Y-%%m', %s)", column)
	}
	return fmt.Sprintf("to_char(%s, 'YYYY-MM')", column)
}

func (r *RevenueRepository) OrderTotals(ctx context.Context, from, to period.Month) (revenue.MonthlyTotals, error) {
	month := r.monthOf("created_at")
	query := r.db.Rebind(fmt.Sprintf(`
		SELECT %s AS period, CAST(COALESCE(SUM(total_amount), 0) AS BIGINT) AS amount
		FROM orders
		WHERE created_at >= ? AND created_at < ? AND status <> 'cancelled'
		GROUP BY %s
		ORDER BY period`, month, month))

	var rows []struct {
		Period string `db:"period"`
		Amount int64  `db:"amount"`
	}
	if err := r.db.SelectContext(ctx, &rows, query, from.Start(), to.End()); err != nil {
		return nil, err
	}

	totals := make(revenue.MonthlyTotals, len(rows))
	for _, row := range rows {
		totals[row.Period] = row.Amount
	}
	return totals, nil
}

func (r *RevenueRepository) ExpenseTotals(ctx context.Context, from, to period.Month) ([]revenue.ExpenseTotal, error) {
	month := r.monthOf("paid_at")
	query := r.db.Rebind(fmt.Sprintf(`
		SELECT %s AS period, department_id, category_id, CAST(COALESCE(SUM(amount), 0) AS BIGINT) AS amount
		FROM expense_requests
		WHERE status = 'paid' AND paid_at >= ? AND paid_at < ?
		GROUP BY %s, department_id, category_id
		ORDER BY period, department_id`, month, month))

	var totals []revenue.ExpenseTotal
	if err := r.db.SelectContext(ctx, &totals, query, from.Start(), to.End()); err != nil {
		return nil, err
	}
	return totals, nil
}

