// Package rates fetches currency exchange rates from an upstream provider
// and caches them per base currency.
package rates

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"spendlens/internal/analytics"
)

var (
	// ErrUnavailable is returned when no snapshot could be fetched and none
	// was cached before.
	ErrUnavailable = errors.New("exchange rates unavailable")
	// ErrStale accompanies a previously cached snapshot returned because a
	// refresh failed.
	ErrStale = errors.New("exchange rates are stale")
)

var one = decimal.NewFromInt(1)

// Snapshot is one fetched set of rates relative to Base.
type Snapshot struct {
	Base string
	// SourceDate is the upstream's own publication date, if it sent one.
	SourceDate string
	// SourceTime is the upstream's last-updated time, if it sent one.
	SourceTime time.Time
	FetchedAt  time.Time

	rates analytics.Rates
}

// NewSnapshot builds a snapshot over a copy of r. The base currency always
// maps to 1.
func NewSnapshot(base string, r analytics.Rates, fetchedAt time.Time) *Snapshot {
	cp := make(analytics.Rates, len(r)+1)
	for k, v := range r {
		cp[k] = v
	}
	cp[base] = one
	return &Snapshot{Base: base, FetchedAt: fetchedAt, rates: cp}
}

// Rates returns a copy of the snapshot's rate table.
func (s *Snapshot) Rates() analytics.Rates {
	if s == nil {
		return nil
	}
	cp := make(analytics.Rates, len(s.rates))
	for k, v := range s.rates {
		cp[k] = v
	}
	return cp
}

// Rate returns the multiplier for code against the snapshot's base.
func (s *Snapshot) Rate(code string) (decimal.Decimal, bool) {
	r, ok := s.rates[strings.ToUpper(code)]
	return r, ok
}

// Provider fetches the latest rates relative to base.
type Provider interface {
	Latest(ctx context.Context, base string) (*Snapshot, error)
}
