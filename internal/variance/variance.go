package variance

import (
	"sort"

	"github.com/frahmantamala/finance-ops/internal/budget"
	"github.com/frahmantamala/finance-ops/internal/core/common/money"
)

const (
	TierOnTrack    = "on_track"
	TierAtRisk     = "at_risk"
	TierOverBudget = "over_budget"
)

// Tier classifies a variance percentage.
func Tier(pct float64) string {
	switch {
	case pct > -5 && pct < 5:
		return TierOnTrack
	case pct > 10:
		return TierOverBudget
	default:
		return TierAtRisk
	}
}

// Key scopes an actual amount. The zero Key is company-wide; CategoryID 0
// means uncategorised.
type Key struct {
	DepartmentID int64
	CategoryID   int64
}

var CompanyWide = Key{}

// Actuals maps a period ("2006-01") to the actual amounts recorded in it.
type Actuals map[string]map[Key]int64

func (a Actuals) Add(periodKey string, key Key, amount int64) {
	if a[periodKey] == nil {
		a[periodKey] = map[Key]int64{}
	}
	a[periodKey][key] += amount
}

// For resolves the actual that applies to b. A company-wide figure applies to
// every budget of the period. Otherwise a category budget takes its own key
// and a department-wide budget takes every category of its department.
func (a Actuals) For(b *budget.Budget) int64 {
	byKey := a[b.Period]
	if v, ok := byKey[CompanyWide]; ok {
		return v
	}
	if b.CategoryID != nil {
		return byKey[Key{DepartmentID: b.DepartmentID, CategoryID: *b.CategoryID}]
	}
	var total int64
	for k, v := range byKey {
		if k.DepartmentID == b.DepartmentID {
			total += v
		}
	}
	return total
}

type Row struct {
	BudgetID        int64   `json:"budget_id"`
	DepartmentID    int64   `json:"department_id"`
	CategoryID      *int64  `json:"category_id,omitempty"`
	Period          string  `json:"period"`
	Status          string  `json:"status"`
	AllocatedAmount int64   `json:"allocated_amount"`
	ActualAmount    int64   `json:"actual_amount"`
	Variance        int64   `json:"variance"`
	VariancePercent float64 `json:"variance_percent"`
	Tier            string  `json:"tier"`
}

// NewRow computes variance = actual - allocated and its percentage of
// allocated, which is 0 for an unallocated budget.
func NewRow(b *budget.Budget, actual int64) Row {
	variance := actual - b.AllocatedAmount
	pct := money.Percent(variance, b.AllocatedAmount)
	return Row{
		BudgetID:        b.ID,
		DepartmentID:    b.DepartmentID,
		CategoryID:      b.CategoryID,
		Period:          b.Period,
		Status:          b.Status,
		AllocatedAmount: b.AllocatedAmount,
		ActualAmount:    actual,
		Variance:        variance,
		VariancePercent: pct,
		Tier:            Tier(pct),
	}
}

func Compute(budgets []*budget.Budget, actuals Actuals) []Row {
	rows := make([]Row, 0, len(budgets))
	for _, b := range budgets {
		rows = append(rows, NewRow(b, actuals.For(b)))
	}
	return rows
}

type ChartPoint struct {
	Period    string `json:"period"`
	Label     string `json:"label"`
	Budgeted  int64  `json:"budgeted"`
	Actual    int64  `json:"actual"`
	Variance  int64  `json:"variance"`
	Budgets   int    `json:"budgets"`
	Overspent int    `json:"overspent"`
}

// Chart sums budgeted and actual amounts across departments per period,
// ordered by period.
func Chart(rows []Row) []ChartPoint {
	byPeriod := map[string]*ChartPoint{}
	for _, r := range rows {
		p, ok := byPeriod[r.Period]
		if !ok {
			p = &ChartPoint{Period: r.Period, Label: label(r.Period)}
			byPeriod[r.Period] = p
		}
		p.Budgeted += r.AllocatedAmount
		p.Actual += r.ActualAmount
		p.Budgets++
		if r.Tier == TierOverBudget {
			p.Overspent++
		}
	}

	points := make([]ChartPoint, 0, len(byPeriod))
	for _, p := range byPeriod {
		p.Variance = p.Actual - p.Budgeted
		points = append(points, *p)
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Period < points[j].Period })
	return points
}

type Totals struct {
	Budgeted        int64          `json:"budgeted"`
	Actual          int64          `json:"actual"`
	Variance        int64          `json:"variance"`
	VariancePercent float64        `json:"variance_percent"`
	ByTier          map[string]int `json:"by_tier"`
}

func Summarize(rows []Row) Totals {
	t := Totals{ByTier: map[string]int{TierOnTrack: 0, TierAtRisk: 0, TierOverBudget: 0}}
	for _, r := range rows {
		t.Budgeted += r.AllocatedAmount
		t.Actual += r.ActualAmount
		t.ByTier[r.Tier]++
	}
	t.Variance = t.Actual - t.Budgeted
	t.VariancePercent = money.Percent(t.Variance, t.Budgeted)
	return t
}
