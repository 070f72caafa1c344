package variance_test

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/finance-ops/internal"
	"github.com/frahmantamala/finance-ops/internal/budget"
	"github.com/frahmantamala/finance-ops/internal/core/common/period"
	"github.com/frahmantamala/finance-ops/internal/revenue"
	"github.com/frahmantamala/finance-ops/internal/variance"
)

func TestVariance(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Variance Suite")
}

type mockBudgets struct {
	budgets []*budget.Budget
	filter  budget.ListFilter
}

func (m *mockBudgets) List(ctx context.Context, filter budget.ListFilter) ([]*budget.Budget, error) {
	m.filter = filter
	return m.budgets, nil
}

type mockReader struct {
	orders   revenue.MonthlyTotals
	expenses []revenue.ExpenseTotal
	err      error
}

func (m *mockReader) OrderTotals(ctx context.Context, from, to period.Month) (revenue.MonthlyTotals, error) {
	return m.orders, m.err
}

func (m *mockReader) ExpenseTotals(ctx context.Context, from, to period.Month) ([]revenue.ExpenseTotal, error) {
	return m.expenses, m.err
}

func ptr(v int64) *int64 { return &v }

var _ = Describe("Variance", func() {
	It("reports the full actual as variance for an unallocated budget without dividing by zero", func() {
		row := variance.NewRow(&budget.Budget{Period: "2025-01", AllocatedAmount: 0}, 1500)

		Expect(row.Variance).To(Equal(int64(1500)))
		Expect(row.VariancePercent).To(Equal(0.0))
	})

	It("computes variance against allocation", func() {
		row := variance.NewRow(&budget.Budget{Period: "2025-01", AllocatedAmount: 10000}, 11500)

		Expect(row.Variance).To(Equal(int64(1500)))
		Expect(row.VariancePercent).To(Equal(15.0))
		Expect(row.Tier).To(Equal(variance.TierOverBudget))
	})

	DescribeTable("tiers",
		func(pct float64, tier string) {
			Expect(variance.Tier(pct)).To(Equal(tier))
		},
		Entry("exactly on plan", 0.0, variance.TierOnTrack),
		Entry("just under 5 percent over", 4.99, variance.TierOnTrack),
		Entry("just under 5 percent under", -4.99, variance.TierOnTrack),
		Entry("5 percent over", 5.0, variance.TierAtRisk),
		Entry("10 percent over", 10.0, variance.TierAtRisk),
		Entry("above 10 percent", 10.01, variance.TierOverBudget),
		Entry("far under plan", -40.0, variance.TierAtRisk),
	)

	Describe("Actuals.For", func() {
		actuals := variance.Actuals{}
		actuals.Add("2025-02", variance.Key{DepartmentID: 1, CategoryID: 3}, 400)
		actuals.Add("2025-02", variance.Key{DepartmentID: 1}, 100)
		actuals.Add("2025-02", variance.Key{DepartmentID: 2, CategoryID: 3}, 900)

		It("matches a category budget to its own key", func() {
			Expect(actuals.For(&budget.Budget{DepartmentID: 1, CategoryID: ptr(3), Period: "2025-02"})).To(Equal(int64(400)))
		})

		It("sums every category for a department-wide budget", func() {
			Expect(actuals.For(&budget.Budget{DepartmentID: 1, Period: "2025-02"})).To(Equal(int64(500)))
		})

		It("returns zero for a period without actuals", func() {
			Expect(actuals.For(&budget.Budget{DepartmentID: 1, Period: "2025-03"})).To(BeZero())
		})
	})

	It("charts budget and actual per period across departments in period order", func() {
		rows := variance.Compute([]*budget.Budget{
			{ID: 1, DepartmentID: 1, Period: "2025-03", AllocatedAmount: 1000},
			{ID: 2, DepartmentID: 2, Period: "2025-01", AllocatedAmount: 500},
			{ID: 3, DepartmentID: 3, Period: "2025-01", AllocatedAmount: 700},
		}, variance.Actuals{
			"2025-01": {variance.CompanyWide: 800},
			"2025-03": {variance.CompanyWide: 1200},
		})

		chart := variance.Chart(rows)

		Expect(chart).To(HaveLen(2))
		Expect(chart[0].Period).To(Equal("2025-01"))
		Expect(chart[0].Label).To(Equal("Jan 2025"))
		Expect(chart[0].Budgeted).To(Equal(int64(1200)))
		Expect(chart[0].Actual).To(Equal(int64(1600)))
		Expect(chart[0].Variance).To(Equal(int64(400)))
		Expect(chart[0].Overspent).To(Equal(2))
		Expect(chart[1].Period).To(Equal("2025-03"))
	})
})

var _ = Describe("Variance Service", func() {
	var (
		budgets *mockBudgets
		reader  *mockReader
		slogger *slog.Logger
		ctx     context.Context
	)

	jan := period.Month{Year: 2025, Month: time.January}
	feb := period.Month{Year: 2025, Month: time.February}

	BeforeEach(func() {
		budgets = &mockBudgets{budgets: []*budget.Budget{
			{ID: 1, DepartmentID: 1, CategoryID: ptr(3), Period: "2025-01", AllocatedAmount: 1000},
			{ID: 2, DepartmentID: 2, Period: "2025-01", AllocatedAmount: 2000},
		}}
		reader = &mockReader{
			orders: revenue.MonthlyTotals{"2025-01": 1500},
			expenses: []revenue.ExpenseTotal{
				{Period: "2025-01", DepartmentID: 1, CategoryID: ptr(3), Amount: 1020},
				{Period: "2025-01", DepartmentID: 2, Amount: 2500},
			},
		}
		slogger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		ctx = context.Background()
	})

	newService := func(sourceName string) *variance.Service {
		source, err := variance.NewActualsSource(sourceName, reader)
		Expect(err).NotTo(HaveOccurred())
		return variance.NewService(budgets, source, slogger)
	}

	It("applies the company-wide order revenue to every budget of the period", func() {
		report, err := newService(internal.ActualsSourceOrderRevenue).Report(ctx, jan, feb, nil)

		Expect(err).NotTo(HaveOccurred())
		Expect(report.Source).To(Equal(internal.ActualsSourceOrderRevenue))
		Expect(report.Rows).To(HaveLen(2))
		Expect(report.Rows[0].ActualAmount).To(Equal(int64(1500)))
		Expect(report.Rows[1].ActualAmount).To(Equal(int64(1500)))
		Expect(report.Totals.Budgeted).To(Equal(int64(3000)))
		Expect(report.Totals.Actual).To(Equal(int64(3000)))
		Expect(budgets.filter.PeriodFrom).To(Equal("2025-01"))
		Expect(budgets.filter.PeriodTo).To(Equal("2025-02"))
	})

	It("scopes actuals to department and category when configured", func() {
		report, err := newService(internal.ActualsSourceDepartmentExpenses).Report(ctx, jan, jan, nil)

		Expect(err).NotTo(HaveOccurred())
		Expect(report.Rows[0].ActualAmount).To(Equal(int64(1020)))
		Expect(report.Rows[0].Tier).To(Equal(variance.TierOnTrack))
		Expect(report.Rows[1].ActualAmount).To(Equal(int64(2500)))
		Expect(report.Rows[1].Tier).To(Equal(variance.TierOverBudget))
		Expect(report.Totals.ByTier[variance.TierOverBudget]).To(Equal(1))
	})

	It("rejects a range that ends before it starts", func() {
		_, err := newService("").Report(ctx, feb, jan, nil)

		Expect(internal.IsType(err, internal.ErrorTypeValidation)).To(BeTrue())
	})

	It("wraps actuals failures as external errors", func() {
		reader.err = errors.New("relation \"orders\" does not exist")

		_, err := newService("").Report(ctx, jan, jan, nil)

		Expect(internal.IsType(err, internal.ErrorTypeExternal)).To(BeTrue())
	})

	It("refuses an unknown actuals source", func() {
		_, err := variance.NewActualsSource("ledger", reader)

		Expect(err).To(HaveOccurred())
	})

	It("defaults to the last six months", func() {
		service := newService("").WithClock(func() time.Time { return time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC) })

		from, to := service.DefaultRange()

		Expect(from).To(Equal(period.Month{Year: 2025, Month: time.January}))
		Expect(to).To(Equal(period.Month{Year: 2025, Month: time.June}))
	})
})
