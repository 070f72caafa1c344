package forecast

import (
	"github.com/frahmantamala/finance-ops/internal/core/common/money"
	"github.com/frahmantamala/finance-ops/internal/core/common/period"
	"github.com/frahmantamala/finance-ops/internal/revenue"
)

type Point struct {
	Month      string `json:"month"`
	Label      string `json:"label"`
	Revenue    int64  `json:"revenue"`
	Expenses   int64  `json:"expenses"`
	Net        int64  `json:"net"`
	Cumulative int64  `json:"cumulative_cash"`
	Projected  bool   `json:"projected"`
}

type Forecast struct {
	From         string  `json:"from"`
	To           string  `json:"to"`
	ExpenseRatio float64 `json:"expense_ratio"`
	Points       []Point `json:"points"`
	TotalRevenue int64   `json:"total_revenue"`
	TotalNet     int64   `json:"total_net"`
	EndingCash   int64   `json:"ending_cash"`
}

// Project builds one point per month. Months absent from history repeat the
// revenue of the latest month seen so far, or 0 before any is seen, and are
// flagged as projected. Cumulative cash only grows: a negative net adds 0.
func Project(history revenue.MonthlyTotals, months []period.Month, ratio float64) []Point {
	points := make([]Point, 0, len(months))
	var (
		last       int64
		cumulative int64
	)
	for _, m := range months {
		p := Point{Month: m.String(), Label: m.Label()}
		if history.Has(m) {
			p.Revenue = history[m.String()]
			last = p.Revenue
		} else {
			p.Revenue = last
			p.Projected = true
		}
		p.Expenses = money.ApplyRatio(p.Revenue, ratio)
		p.Net = p.Revenue - p.Expenses
		cumulative += money.NonNegative(p.Net)
		p.Cumulative = cumulative
		points = append(points, p)
	}
	return points
}

func newForecast(from, to period.Month, ratio float64, points []Point) *Forecast {
	f := &Forecast{From: from.String(), To: to.String(), ExpenseRatio: ratio, Points: points}
	for _, p := range points {
		f.TotalRevenue += p.Revenue
		f.TotalNet += p.Net
	}
	if n := len(points); n > 0 {
		f.EndingCash = points[n-1].Cumulative
	}
	return f
}
