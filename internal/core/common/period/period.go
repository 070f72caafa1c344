package period

import (
	"fmt"
	"math"
	"time"
)

const day = 24 * time.Hour

// DaysPast is floor((now - due) / 1 day). Negative values mean not yet due.
func DaysPast(due, now time.Time) int {
	return int(math.Floor(float64(now.Sub(due)) / float64(day)))
}

// Month is a calendar month, the unit used by budgets, trends and forecasts.
type Month struct {
	Year  int
	Month time.Month
}

const layout = "2006-01"

func MonthOf(t time.Time) Month {
	return Month{Year: t.Year(), Month: t.Month()}
}

func ParseMonth(s string) (Month, error) {
	t, err := time.Parse(layout, s)
	if err != nil {
		return Month{}, fmt.Errorf("invalid period %q, expected YYYY-MM: %w", s, err)
	}
	return MonthOf(t), nil
}

func (m Month) String() string {
	return fmt.Sprintf("%04d-%02d", m.Year, int(m.Month))
}

func (m Month) Label() string {
	return m.Start().Format("Jan 2006")
}

// Start is the first instant of the month in UTC.
func (m Month) Start() time.Time {
	return time.Date(m.Year, m.Month, 1, 0, 0, 0, 0, time.UTC)
}

// End is the first instant of the following month, exclusive.
func (m Month) End() time.Time {
	return m.Start().AddDate(0, 1, 0)
}

func (m Month) AddMonths(n int) Month {
	return MonthOf(m.Start().AddDate(0, n, 0))
}

func (m Month) Quarter() int {
	return (int(m.Month)-1)/3 + 1
}

func (m Month) Before(o Month) bool {
	if m.Year != o.Year {
		return m.Year < o.Year
	}
	return m.Month < o.Month
}

func (m Month) Contains(t time.Time) bool {
	t = t.UTC()
	return !t.Before(m.Start()) && t.Before(m.End())
}

// Range lists every month from..to inclusive. It is empty when to precedes from.
func Range(from, to Month) []Month {
	var months []Month
	for m := from; !to.Before(m); m = m.AddMonths(1) {
		months = append(months, m)
	}
	return months
}
