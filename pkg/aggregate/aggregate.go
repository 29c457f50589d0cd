// Package aggregate derives dashboard and chart figures from rows that have
// already been loaded. Nothing here touches storage.
package aggregate

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// Bucket is one group of a group-by.
type Bucket struct {
	Key   string          `json:"key"`
	Count int             `json:"count"`
	Total decimal.Decimal `json:"total"`
}

// Bar is a chart bar with its width relative to the widest bar.
type Bar struct {
	Label   string          `json:"label"`
	Value   decimal.Decimal `json:"value"`
	Percent float64         `json:"percent"`
}

// Sum adds amounts exactly.
func Sum(amounts []decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, a := range amounts {
		total = total.Add(a)
	}
	return total
}

// SumBy adds the amount of every row.
func SumBy[T any](rows []T, amount func(T) decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, r := range rows {
		total = total.Add(amount(r))
	}
	return total
}

// Count returns how many rows satisfy keep.
func Count[T any](rows []T, keep func(T) bool) int {
	n := 0
	for _, r := range rows {
		if keep(r) {
			n++
		}
	}
	return n
}

// Filter returns the rows that satisfy keep, preserving order.
func Filter[T any](rows []T, keep func(T) bool) []T {
	out := make([]T, 0, len(rows))
	for _, r := range rows {
		if keep(r) {
			out = append(out, r)
		}
	}
	return out
}

// GroupCount counts rows per key. Buckets are ordered by descending count,
// then key.
func GroupCount[T any](rows []T, key func(T) string) []Bucket {
	return group(rows, key, nil)
}

// GroupSum sums amounts per key. Buckets are ordered by descending total,
// then key.
func GroupSum[T any](rows []T, key func(T) string, amount func(T) decimal.Decimal) []Bucket {
	return group(rows, key, amount)
}

func group[T any](rows []T, key func(T) string, amount func(T) decimal.Decimal) []Bucket {
	index := map[string]int{}
	var buckets []Bucket
	for _, r := range rows {
		k := key(r)
		i, ok := index[k]
		if !ok {
			i = len(buckets)
			index[k] = i
			buckets = append(buckets, Bucket{Key: k, Total: decimal.Zero})
		}
		buckets[i].Count++
		if amount != nil {
			buckets[i].Total = buckets[i].Total.Add(amount(r))
		} else {
			buckets[i].Total = buckets[i].Total.Add(decimal.NewFromInt(1))
		}
	}
	sort.SliceStable(buckets, func(i, j int) bool {
		if c := buckets[i].Total.Cmp(buckets[j].Total); c != 0 {
			return c > 0
		}
		return buckets[i].Key < buckets[j].Key
	})
	return buckets
}

// Bars converts buckets into chart bars: percent = value / max * 100,
// clamped to [0, 100]. With no positive value every bar is 0%.
func Bars(buckets []Bucket) []Bar {
	top := decimal.Zero
	for _, b := range buckets {
		if b.Total.GreaterThan(top) {
			top = b.Total
		}
	}
	bars := make([]Bar, 0, len(buckets))
	for _, b := range buckets {
		bars = append(bars, Bar{Label: b.Key, Value: b.Total, Percent: Percent(b.Total, top)})
	}
	return bars
}

// Percent returns value / top * 100 clamped to [0, 100], rounded to two places.
func Percent(value, top decimal.Decimal) float64 {
	if !top.IsPositive() {
		return 0
	}
	p := value.Div(top).Mul(decimal.NewFromInt(100)).Round(2)
	if p.IsNegative() {
		return 0
	}
	if p.GreaterThan(decimal.NewFromInt(100)) {
		return 100
	}
	return p.InexactFloat64()
}

// MonthKey formats t as YYYY-MM.
func MonthKey(t time.Time) string {
	return t.Format("2006-01")
}

// LastMonths returns the keys of the n months ending with the month of now,
// oldest first.
func LastMonths(now time.Time, n int) []string {
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	keys := make([]string, n)
	for i := 0; i < n; i++ {
		keys[i] = MonthKey(first.AddDate(0, -(n - 1 - i), 0))
	}
	return keys
}

// Trend counts rows per month over the given month keys; months without rows
// are reported as zero.
func Trend[T any](rows []T, months []string, at func(T) time.Time) []Bucket {
	counts := map[string]int{}
	for _, r := range rows {
		counts[MonthKey(at(r))]++
	}
	out := make([]Bucket, 0, len(months))
	for _, m := range months {
		out = append(out, Bucket{Key: m, Count: counts[m], Total: decimal.NewFromInt(int64(counts[m]))})
	}
	return out
}

// InMonth reports whether t falls in the calendar month of now.
func InMonth(t, now time.Time) bool {
	return t.Year() == now.Year() && t.Month() == now.Month()
}
