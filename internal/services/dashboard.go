package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"spendlens/internal/analytics"
	"spendlens/internal/cache"
	apperrors "spendlens/internal/errors"
	"spendlens/internal/logger"
	"spendlens/internal/models"
)

// ErrSuperseded is returned by Refresh when the session was invalidated
// while the fetch was in flight and its result was discarded.
var ErrSuperseded = errors.New("dashboard fetch superseded by a newer invalidation")

// maxEnsureAttempts bounds how often Ensure retries superseded fetches.
const maxEnsureAttempts = 3

// Fetcher loads a user's aggregation inputs. AnalyticsServicer implements it.
type Fetcher interface {
	Fetch(ctx context.Context, userID string, allowUnconverted bool) (*Inputs, error)
}

// Dashboard is one user's live aggregation session. It keeps the last good
// inputs, so changing the query re-aggregates without refetching and a
// failed refresh leaves the previous view in place.
//
// Every invalidation starts a new epoch. A fetch result is applied only if
// no invalidation happened since the fetch was issued; among fetches issued
// in the current epoch, the last one to complete wins.
type Dashboard struct {
	userID  string
	fetcher Fetcher
	log     *zap.SugaredLogger

	mu      sync.RWMutex
	query   analytics.Query
	inputs  *Inputs
	view    *Analysis
	epoch   uint64
	applied uint64
	lastErr error
}

// NewDashboard creates a session with the default query. Nothing is fetched
// until Refresh or Ensure is called.
func NewDashboard(userID string, fetcher Fetcher) *Dashboard {
	return &Dashboard{
		userID:  userID,
		fetcher: fetcher,
		log:     logger.Named("dashboard"),
		query:   analytics.DefaultQuery(),
		// The first epoch has nothing applied yet.
		epoch: 1,
	}
}

// SetQuery replaces the query and re-aggregates the held inputs.
func (d *Dashboard) SetQuery(q analytics.Query) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.query = q
	if d.inputs != nil {
		d.view = NewAnalysis(d.inputs, q)
	}
}

// Query returns the current query.
func (d *Dashboard) Query() analytics.Query {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.query
}

// Invalidate marks the held records as outdated. Fetches already in flight
// will be discarded when they complete.
func (d *Dashboard) Invalidate() {
	d.mu.Lock()
	d.epoch++
	d.mu.Unlock()
}

// Current reports whether the held view reflects the latest invalidation.
func (d *Dashboard) Current() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.view != nil && d.applied == d.epoch
}

// Refresh fetches fresh inputs and re-aggregates. On failure the previous
// view and query are kept and the error is returned so the caller can retry.
func (d *Dashboard) Refresh(ctx context.Context) error {
	d.mu.RLock()
	issued := d.epoch
	d.mu.RUnlock()

	in, err := d.fetcher.Fetch(ctx, d.userID, false)

	d.mu.Lock()
	defer d.mu.Unlock()

	if issued != d.epoch {
		d.log.Debugw("Discarding superseded fetch", "user_id", d.userID, "issued_epoch", issued, "epoch", d.epoch)
		return ErrSuperseded
	}
	if err != nil {
		d.lastErr = err
		return err
	}

	d.inputs = in
	d.view = NewAnalysis(in, d.query)
	d.applied = issued
	d.lastErr = nil
	return nil
}

// Ensure refreshes the session unless its view is already current. If every
// attempt is superseded by a newer write the error is a retryable
// ErrRecordFetchFailed that still matches ErrSuperseded.
func (d *Dashboard) Ensure(ctx context.Context) error {
	for attempt := 0; attempt < maxEnsureAttempts; attempt++ {
		if d.Current() {
			return nil
		}
		if err := d.Refresh(ctx); !errors.Is(err, ErrSuperseded) {
			return err
		}
	}
	return apperrors.Wrap(apperrors.ErrRecordFetchFailed, ErrSuperseded)
}

// View returns the current analysis, or nil if nothing has loaded yet.
func (d *Dashboard) View() *Analysis {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.view == nil {
		return nil
	}
	v := *d.view
	return &v
}

// ViewFor aggregates the held inputs with q without changing the session's
// query, so concurrent requests with different queries each get their own
// view. It returns nil if nothing has loaded yet.
func (d *Dashboard) ViewFor(q analytics.Query) *Analysis {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.inputs == nil {
		return nil
	}
	return NewAnalysis(d.inputs, q)
}

// LastError returns the error of the most recent failed refresh, if the
// refresh after it has not succeeded yet.
func (d *Dashboard) LastError() error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.lastErr
}

// CategoryTotals returns the per-category totals of the current view.
func (d *Dashboard) CategoryTotals() map[models.Category]decimal.Decimal {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make(map[models.Category]decimal.Decimal)
	if d.view != nil {
		for k, v := range d.view.CategoryTotals {
			out[k] = v
		}
	}
	return out
}

// TimeSeries returns the chronological buckets of the current view.
func (d *Dashboard) TimeSeries() []analytics.Point {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.view == nil {
		return []analytics.Point{}
	}
	return append([]analytics.Point{}, d.view.TimeSeries...)
}

// GrandTotal returns the rounded total of the current view.
func (d *Dashboard) GrandTotal() decimal.Decimal {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.view == nil {
		return decimal.Zero
	}
	return d.view.GrandTotal
}

// FilteredCount returns how many records passed the current query's filter.
func (d *Dashboard) FilteredCount() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.view == nil {
		return 0
	}
	return d.view.FilteredCount
}

// Session bounds used when no options are given.
const (
	DefaultMaxSessions     = 1000
	DefaultSessionIdleTime = 30 * time.Minute
)

// DashboardHub keeps one Dashboard per user. Sessions are evicted least
// recently used first once the hub is full, and after sitting idle.
type DashboardHub struct {
	fetcher Fetcher
	log     *zap.SugaredLogger

	mu       sync.Mutex
	sessions *cache.LRU[*Dashboard]
}

type hubOptions struct {
	maxSessions int
	idleTTL     time.Duration
}

// HubOption configures a DashboardHub.
type HubOption func(*hubOptions)

// WithMaxSessions caps how many user sessions are held at once.
func WithMaxSessions(n int) HubOption {
	return func(o *hubOptions) { o.maxSessions = n }
}

// WithSessionIdleTTL sets how long an unused session is kept.
func WithSessionIdleTTL(d time.Duration) HubOption {
	return func(o *hubOptions) { o.idleTTL = d }
}

// NewDashboardHub creates an empty hub whose sessions fetch through fetcher.
func NewDashboardHub(fetcher Fetcher, opts ...HubOption) *DashboardHub {
	o := hubOptions{maxSessions: DefaultMaxSessions, idleTTL: DefaultSessionIdleTime}
	for _, opt := range opts {
		opt(&o)
	}
	return &DashboardHub{
		fetcher:  fetcher,
		log:      logger.Named("dashboard"),
		sessions: cache.NewLRU[*Dashboard](o.maxSessions, o.idleTTL),
	}
}

// Session returns the user's dashboard, creating it on first use.
func (h *DashboardHub) Session(userID string) *Dashboard {
	h.mu.Lock()
	defer h.mu.Unlock()
	d, ok := h.sessions.Get(userID)
	if !ok {
		d = NewDashboard(userID, h.fetcher)
		h.sessions.Set(userID, d)
	}
	return d
}

// Invalidate marks the user's session outdated, if one exists. A user without
// a session fetches fresh records on the next request anyway.
func (h *DashboardHub) Invalidate(userID string) {
	if d, ok := h.sessions.Peek(userID); ok {
		d.Invalidate()
	}
}

// Prune drops idle sessions and returns how many were removed.
func (h *DashboardHub) Prune() int {
	n := h.sessions.CleanExpired()
	if n > 0 {
		h.log.Debugw("Pruned idle dashboard sessions", "count", n)
	}
	return n
}

// Len returns how many sessions are held.
func (h *DashboardHub) Len() int {
	return h.sessions.Len()
}

// RunPruner calls Prune every interval until ctx is done.
func (h *DashboardHub) RunPruner(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			h.Prune()
		}
	}
}
