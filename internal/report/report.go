package report

import (
	"time"

	"github.com/frahmantamala/finance-ops/internal/aging"
	"github.com/frahmantamala/finance-ops/internal/budget"
	"github.com/frahmantamala/finance-ops/internal/core/common/money"
	"github.com/frahmantamala/finance-ops/internal/forecast"
	"github.com/frahmantamala/finance-ops/internal/variance"
)

// Metrics are the coarse CFO figures derived from trailing revenue and the
// configured expense ratio.
type Metrics struct {
	Revenue      int64 `json:"revenue"`
	Expenses     int64 `json:"expenses"`
	MonthlyBurn  int64 `json:"monthly_burn"`
	Cash         int64 `json:"cash"`
	RunwayMonths int64 `json:"runway_months"`
	GrossMargin  int64 `json:"gross_margin"`
}

func ComputeMetrics(revenue int64, ratio float64) Metrics {
	m := Metrics{Revenue: revenue}
	m.Expenses = money.ApplyRatio(revenue, ratio)
	m.MonthlyBurn = money.DivRound(m.Expenses, 12)
	m.Cash = money.ApplyRatio(revenue, 1-ratio)
	if m.MonthlyBurn > 0 {
		m.RunwayMonths = money.DivFloor(m.Cash, m.MonthlyBurn)
	}
	m.GrossMargin = money.NonNegative(revenue - m.Expenses)
	return m
}

type Summary struct {
	AsOf           time.Time          `json:"as_of"`
	Payables       aging.Snapshot     `json:"payables"`
	Receivables    aging.Snapshot     `json:"receivables"`
	Budgets        budget.Summary     `json:"budgets"`
	Variance       variance.Totals    `json:"variance"`
	Forecast       *forecast.Forecast `json:"forecast"`
	TrailingMonths int                `json:"trailing_months"`
	Metrics        Metrics            `json:"metrics"`

	// CashFlow is receivables outstanding minus payables outstanding.
	CashFlow int64 `json:"cash_flow"`
}
