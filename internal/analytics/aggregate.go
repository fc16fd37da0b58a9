package analytics

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"spendlens/internal/models"
)

// Point is one bucket of the time series.
type Point struct {
	Label string
	Start time.Time
	Total decimal.Decimal
}

// Result is the derived view of one (records, rates, query) triple.
type Result struct {
	Currency string
	// CategoryTotals holds only categories with at least one record.
	CategoryTotals map[models.Category]decimal.Decimal
	// TimeSeries is ordered by bucket start, not by label.
	TimeSeries []Point
	// GrandTotal is rounded to cents.
	GrandTotal    decimal.Decimal
	FilteredCount int
}

// Aggregate groups already-filtered records by category and by time bucket,
// converting each amount into q's display currency first.
func Aggregate(records []models.Expense, rates Rates, q Query) Result {
	currency := q.currency()
	res := Result{
		Currency:       currency,
		CategoryTotals: make(map[models.Category]decimal.Decimal),
		TimeSeries:     []Point{},
		GrandTotal:     decimal.Zero,
		FilteredCount:  len(records),
	}

	buckets := make(map[int64]*Point)
	total := decimal.Zero
	for _, r := range records {
		amount := Convert(r.Amount, r.Currency, currency, rates)

		res.CategoryTotals[r.Category] = res.CategoryTotals[r.Category].Add(amount)

		start := BucketStart(r.Date, q.Granularity)
		p, ok := buckets[start.UnixNano()]
		if !ok {
			p = &Point{Label: BucketLabel(start, q.Granularity), Start: start}
			buckets[start.UnixNano()] = p
		}
		p.Total = p.Total.Add(amount)

		total = total.Add(amount)
	}

	for _, p := range buckets {
		res.TimeSeries = append(res.TimeSeries, *p)
	}
	sort.Slice(res.TimeSeries, func(i, j int) bool {
		return res.TimeSeries[i].Start.Before(res.TimeSeries[j].Start)
	})

	res.GrandTotal = total.Round(2)
	return res
}

// Run filters records with q and aggregates what is left.
func Run(records []models.Expense, rates Rates, q Query) Result {
	return Aggregate(Filter(records, q), rates, q)
}
