// Package analytics turns a user's raw expense records into chart-ready
// aggregates: category totals, a chronological time series and a grand
// total, all converted into one display currency. Everything here is pure
// and synchronous; fetching records and rates is the caller's job.
package analytics

import (
	"strings"
	"time"

	"spendlens/internal/models"
)

// Granularity selects how expenses are bucketed over time.
type Granularity string

const (
	Daily   Granularity = "Daily"
	Weekly  Granularity = "Weekly"
	Monthly Granularity = "Monthly"
	Yearly  Granularity = "Yearly"
	// Custom restricts records to a date range and buckets them monthly.
	Custom Granularity = "Custom"
)

// AllCategories disables the category filter.
const AllCategories = "All"

// ParseGranularity maps a case-insensitive name to a Granularity. An empty
// string yields Monthly.
func ParseGranularity(s string) (Granularity, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "monthly":
		return Monthly, true
	case "daily":
		return Daily, true
	case "weekly":
		return Weekly, true
	case "yearly":
		return Yearly, true
	case "custom":
		return Custom, true
	}
	return "", false
}

// Query describes one aggregation request.
type Query struct {
	Granularity     Granularity
	Category        string
	DisplayCurrency string
	// Start and End bound the records only when Granularity is Custom and
	// both are set. A Custom query missing either bound is not an error; it
	// simply filters nothing by date.
	Start *time.Time
	End   *time.Time
}

// DefaultQuery is the initial dashboard query: monthly, all categories, USD.
func DefaultQuery() Query {
	return Query{
		Granularity:     Monthly,
		Category:        AllCategories,
		DisplayCurrency: models.BaseCurrency,
	}
}

// currency returns the normalized display currency.
func (q Query) currency() string {
	if q.DisplayCurrency == "" {
		return models.BaseCurrency
	}
	return strings.ToUpper(q.DisplayCurrency)
}

// dateFiltered reports whether the date range applies.
func (q Query) dateFiltered() bool {
	return q.Granularity == Custom && q.Start != nil && q.End != nil
}
