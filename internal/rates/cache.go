package rates

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"spendlens/internal/logger"
)

// DefaultTTL is how long a fetched snapshot counts as fresh.
const DefaultTTL = 24 * time.Hour

// Cache keeps the most recent snapshot per base currency and refetches it
// from the provider once it is older than the TTL. Concurrent misses for
// the same base share a single upstream request.
type Cache struct {
	provider Provider
	ttl      time.Duration
	now      func() time.Time
	log      *zap.SugaredLogger

	mu        sync.RWMutex
	snapshots map[string]*Snapshot
	group     singleflight.Group
}

// Option configures a Cache.
type Option func(*Cache)

// WithTTL overrides DefaultTTL.
func WithTTL(ttl time.Duration) Option {
	return func(c *Cache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

// NewCache creates a cache in front of provider.
func NewCache(provider Provider, opts ...Option) *Cache {
	c := &Cache{
		provider:  provider,
		ttl:       DefaultTTL,
		now:       time.Now,
		log:       logger.Named("rates"),
		snapshots: make(map[string]*Snapshot),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// TTL returns the freshness window.
func (c *Cache) TTL() time.Duration { return c.ttl }

// Get returns a fresh snapshot for base, fetching one if needed.
//
// If the fetch fails and an older snapshot exists, that snapshot is returned
// together with an error wrapping ErrStale. If no snapshot exists the error
// wraps ErrUnavailable and the snapshot is nil.
func (c *Cache) Get(ctx context.Context, base string) (*Snapshot, error) {
	base = strings.ToUpper(base)

	if snap, ok := c.fresh(base); ok {
		return snap, nil
	}

	ch := c.group.DoChan(base, func() (any, error) {
		// Another caller may have refreshed while we waited for the flight.
		if snap, ok := c.fresh(base); ok {
			return snap, nil
		}

		// Detach from the first caller's cancellation so a shared fetch is
		// not aborted for every waiter.
		snap, err := c.provider.Latest(context.WithoutCancel(ctx), base)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		c.snapshots[base] = snap
		c.mu.Unlock()
		c.log.Infow("Exchange rates refreshed", "base", base, "currencies", len(snap.rates))
		return snap, nil
	})

	select {
	case <-ctx.Done():
		return c.fallback(base, ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return c.fallback(base, res.Err)
		}
		return res.Val.(*Snapshot), nil
	}
}

// Peek returns the cached snapshot for base regardless of age.
func (c *Cache) Peek(base string) (*Snapshot, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	snap, ok := c.snapshots[strings.ToUpper(base)]
	return snap, ok
}

// Expired reports whether snap is older than the TTL.
func (c *Cache) Expired(snap *Snapshot) bool {
	return snap == nil || c.now().Sub(snap.FetchedAt) >= c.ttl
}

func (c *Cache) fresh(base string) (*Snapshot, bool) {
	snap, ok := c.Peek(base)
	if !ok || c.Expired(snap) {
		return nil, false
	}
	return snap, true
}

func (c *Cache) fallback(base string, cause error) (*Snapshot, error) {
	if snap, ok := c.Peek(base); ok {
		c.log.Warnw("Serving stale exchange rates", "base", base, "fetched_at", snap.FetchedAt, "error", cause)
		return snap, fmt.Errorf("%w: %w", ErrStale, cause)
	}
	c.log.Errorw("Exchange rates unavailable", "base", base, "error", cause)
	return nil, fmt.Errorf("%w: %w", ErrUnavailable, cause)
}

// IsStale reports whether err marks a stale fallback snapshot.
func IsStale(err error) bool { return errors.Is(err, ErrStale) }
