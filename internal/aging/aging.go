// Package aging classifies payables and receivables by how far past due they
// are, both as a point-in-time snapshot and as a monthly trend.
package aging

import (
	"time"

	"github.com/frahmantamala/finance-ops/internal/core/common/period"
)

const (
	BucketCurrent = "Current"
	Bucket0To30   = "0-30"
	Bucket31To60  = "31-60"
	Bucket61To90  = "61-90"
	BucketOver90  = "90+"
)

// Buckets lists every bucket in display order.
var Buckets = []string{BucketCurrent, Bucket0To30, Bucket31To60, Bucket61To90, BucketOver90}

// Classify returns the bucket for an item due at due, seen at now. An item
// due exactly now is Current.
func Classify(due, now time.Time) string {
	return bucketForDays(period.DaysPast(due, now))
}

func bucketForDays(days int) string {
	switch {
	case days <= 0:
		return BucketCurrent
	case days <= 30:
		return Bucket0To30
	case days <= 60:
		return Bucket31To60
	case days <= 90:
		return Bucket61To90
	default:
		return BucketOver90
	}
}

// Item is the part of an invoice or receivable that aging looks at.
type Item struct {
	ID           int64      `json:"id"`
	Reference    string     `json:"reference"`
	Counterparty string     `json:"counterparty"`
	Amount       int64      `json:"amount"`
	DueDate      time.Time  `json:"due_date"`
	Status       string     `json:"status"`
	Settled      bool       `json:"settled"`
	SettledAt    *time.Time `json:"settled_at,omitempty"`
}

type BucketTotal struct {
	Bucket string `json:"bucket"`
	Amount int64  `json:"amount"`
	Count  int    `json:"count"`
}

// Snapshot aggregates every item passed to NewSnapshot; Total always equals
// the sum of the bucket amounts.
type Snapshot struct {
	AsOf        time.Time     `json:"as_of"`
	Buckets     []BucketTotal `json:"buckets"`
	Total       int64         `json:"total"`
	Count       int           `json:"count"`
	Outstanding int64         `json:"outstanding"`
}

func NewSnapshot(items []Item, now time.Time) Snapshot {
	index := make(map[string]int, len(Buckets))
	totals := make([]BucketTotal, len(Buckets))
	for i, b := range Buckets {
		index[b] = i
		totals[i] = BucketTotal{Bucket: b}
	}

	snap := Snapshot{AsOf: now, Buckets: totals}
	for _, item := range items {
		t := &totals[index[Classify(item.DueDate, now)]]
		t.Amount += item.Amount
		t.Count++
		snap.Total += item.Amount
		snap.Count++
		if !item.Settled {
			snap.Outstanding += item.Amount
		}
	}
	return snap
}

// Amount returns the total of one bucket.
func (s Snapshot) Amount(bucket string) int64 {
	for _, b := range s.Buckets {
		if b.Bucket == bucket {
			return b.Amount
		}
	}
	return 0
}

// DetailLine carries the signed day count: negative is not yet due.
type DetailLine struct {
	Item
	Days   int    `json:"days"`
	Bucket string `json:"bucket"`
}

func Detail(items []Item, now time.Time) []DetailLine {
	lines := make([]DetailLine, 0, len(items))
	for _, item := range items {
		days := period.DaysPast(item.DueDate, now)
		lines = append(lines, DetailLine{Item: item, Days: days, Bucket: bucketForDays(days)})
	}
	return lines
}

type TrendPoint struct {
	Month       string `json:"month"`
	Label       string `json:"label"`
	Settled     int64  `json:"settled"`
	Outstanding int64  `json:"outstanding"`
}

// Trend sums, per month, what was settled in that month and what fell due in
// that month without having been settled.
func Trend(items []Item, months []period.Month) []TrendPoint {
	points := make([]TrendPoint, len(months))
	for i, m := range months {
		p := TrendPoint{Month: m.String(), Label: m.Label()}
		for _, item := range items {
			if item.Settled {
				if item.SettledAt != nil && m.Contains(*item.SettledAt) {
					p.Settled += item.Amount
				}
				continue
			}
			if m.Contains(item.DueDate) {
				p.Outstanding += item.Amount
			}
		}
		points[i] = p
	}
	return points
}
