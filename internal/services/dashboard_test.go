package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"spendlens/internal/analytics"
	"spendlens/internal/models"
	"spendlens/internal/testutil"
)

// gatedFetcher hands out queued results. A call blocks until its gate is
// released when gates are configured.
type gatedFetcher struct {
	mu      sync.Mutex
	results []fetchResult
	gates   []chan struct{}
	started chan int
	calls   int
}

type fetchResult struct {
	in  *Inputs
	err error
}

func (f *gatedFetcher) Fetch(_ context.Context, _ string, _ bool) (*Inputs, error) {
	f.mu.Lock()
	n := f.calls
	f.calls++
	res := f.results[n]
	var gate chan struct{}
	if n < len(f.gates) {
		gate = f.gates[n]
	}
	f.mu.Unlock()

	if f.started != nil {
		f.started <- n
	}
	if gate != nil {
		<-gate
	}
	return res.in, res.err
}

func inputsOf(t *testing.T, amounts ...string) *Inputs {
	t.Helper()
	in := &Inputs{Rates: usdSnapshot().Rates(), Converted: true}
	for _, a := range amounts {
		f := testutil.ExpenseFields(t, a, "USD", models.CategoryFood, "2024-06-01")
		e := models.Expense{UserID: "alice"}
		e.Apply(f)
		in.Records = append(in.Records, e)
	}
	return in
}

func TestDashboard_InitialState(t *testing.T) {
	d := NewDashboard("alice", &gatedFetcher{})

	if d.Query() != analytics.DefaultQuery() {
		t.Errorf("expected default query, got %+v", d.Query())
	}
	if d.View() != nil || d.Current() {
		t.Error("nothing should be loaded before the first refresh")
	}
	if len(d.CategoryTotals()) != 0 || len(d.TimeSeries()) != 0 || d.FilteredCount() != 0 || !d.GrandTotal().IsZero() {
		t.Error("empty session should report empty aggregates")
	}
}

func TestDashboard_RefreshAndSetQuery(t *testing.T) {
	f := &gatedFetcher{results: []fetchResult{{in: inputsOf(t, "10", "20")}}}
	d := NewDashboard("alice", f)

	testutil.AssertNoError(t, d.Refresh(context.Background()))
	testutil.AssertDecimal(t, "grand total", d.GrandTotal(), "30")
	if d.FilteredCount() != 2 {
		t.Errorf("FilteredCount = %d, want 2", d.FilteredCount())
	}

	// Changing the query re-aggregates the held records without a fetch.
	d.SetQuery(analytics.Query{Granularity: analytics.Daily, Category: "Travel", DisplayCurrency: "EUR"})
	if f.calls != 1 {
		t.Errorf("SetQuery must not fetch, got %d calls", f.calls)
	}
	if d.FilteredCount() != 0 || len(d.CategoryTotals()) != 0 {
		t.Error("Travel filter should match nothing")
	}

	d.SetQuery(analytics.Query{Granularity: analytics.Daily, Category: "Food", DisplayCurrency: "EUR"})
	testutil.AssertDecimal(t, "grand total", d.GrandTotal(), "27")
	if ts := d.TimeSeries(); len(ts) != 1 || ts[0].Label != "Jun 01, 2024" {
		t.Errorf("unexpected series %+v", ts)
	}
}

func TestDashboard_FailedRefreshKeepsLastGood(t *testing.T) {
	fetchErr := errors.New("record fetch failed")
	f := &gatedFetcher{results: []fetchResult{
		{in: inputsOf(t, "10")},
		{err: fetchErr},
		{in: inputsOf(t, "10", "5")},
	}}
	d := NewDashboard("alice", f)
	ctx := context.Background()

	testutil.AssertNoError(t, d.Refresh(ctx))
	q := analytics.Query{Granularity: analytics.Yearly, Category: analytics.AllCategories}
	d.SetQuery(q)

	if err := d.Refresh(ctx); !errors.Is(err, fetchErr) {
		t.Fatalf("expected fetch error, got %v", err)
	}
	testutil.AssertDecimal(t, "grand total after failure", d.GrandTotal(), "10")
	if d.Query() != q {
		t.Error("failure must not reset the query")
	}
	if !errors.Is(d.LastError(), fetchErr) {
		t.Errorf("LastError = %v", d.LastError())
	}

	// Retry re-issues the fetch with the same query.
	testutil.AssertNoError(t, d.Refresh(ctx))
	testutil.AssertDecimal(t, "grand total after retry", d.GrandTotal(), "15")
	if ts := d.TimeSeries(); len(ts) != 1 || ts[0].Label != "2024" {
		t.Errorf("query should survive the retry, got %+v", ts)
	}
	if d.LastError() != nil {
		t.Error("LastError should clear after a successful refresh")
	}
}

func TestDashboard_FetchIssuedBeforeInvalidationIsDiscarded(t *testing.T) {
	gate := make(chan struct{})
	f := &gatedFetcher{
		results: []fetchResult{{in: inputsOf(t, "999")}, {in: inputsOf(t, "1")}},
		gates:   []chan struct{}{gate},
		started: make(chan int, 2),
	}
	d := NewDashboard("alice", f)
	ctx := context.Background()

	errCh := make(chan error, 1)
	go func() { errCh <- d.Refresh(ctx) }()
	<-f.started

	// A write lands while the first fetch is in flight.
	d.Invalidate()
	close(gate)

	if err := <-errCh; !errors.Is(err, ErrSuperseded) {
		t.Fatalf("expected ErrSuperseded, got %v", err)
	}
	if d.View() != nil {
		t.Fatal("superseded result must not be applied")
	}

	testutil.AssertNoError(t, d.Ensure(ctx))
	testutil.AssertDecimal(t, "grand total", d.GrandTotal(), "1")
}

func TestDashboard_LastCompletedWithinEpochWins(t *testing.T) {
	slow, fast := make(chan struct{}), make(chan struct{})
	f := &gatedFetcher{
		results: []fetchResult{{in: inputsOf(t, "1")}, {in: inputsOf(t, "2")}},
		gates:   []chan struct{}{slow, fast},
		started: make(chan int, 2),
	}
	d := NewDashboard("alice", f)
	ctx := context.Background()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() { defer wg.Done(); _ = d.Refresh(ctx) }()
	<-f.started
	go func() { defer wg.Done(); _ = d.Refresh(ctx) }()
	<-f.started

	close(fast)
	// Wait until the second fetch has been applied before completing the first.
	for d.View() == nil {
		time.Sleep(time.Millisecond)
	}
	close(slow)
	wg.Wait()

	testutil.AssertDecimal(t, "grand total", d.GrandTotal(), "1")
}

func TestDashboard_EnsureSkipsWhenCurrent(t *testing.T) {
	f := &gatedFetcher{results: []fetchResult{{in: inputsOf(t, "3")}, {in: inputsOf(t, "4")}}}
	d := NewDashboard("alice", f)
	ctx := context.Background()

	testutil.AssertNoError(t, d.Ensure(ctx))
	testutil.AssertNoError(t, d.Ensure(ctx))
	if f.calls != 1 {
		t.Errorf("expected 1 fetch, got %d", f.calls)
	}

	d.Invalidate()
	testutil.AssertNoError(t, d.Ensure(ctx))
	if f.calls != 2 {
		t.Errorf("expected a refetch after invalidation, got %d", f.calls)
	}
	testutil.AssertDecimal(t, "grand total", d.GrandTotal(), "4")
}

func TestDashboardHub(t *testing.T) {
	f := &gatedFetcher{results: []fetchResult{{in: inputsOf(t, "3")}}}
	hub := NewDashboardHub(f)

	a := hub.Session("alice")
	if hub.Session("alice") != a {
		t.Error("expected the same session for the same user")
	}
	if hub.Session("bob") == a {
		t.Error("users must not share sessions")
	}

	testutil.AssertNoError(t, a.Ensure(context.Background()))
	hub.Invalidate("alice")
	hub.Invalidate("carol")
	if a.Current() {
		t.Error("invalidation should mark the session outdated")
	}
}

// invalidatingFetcher simulates a write landing during every fetch.
type invalidatingFetcher struct {
	d     *Dashboard
	calls int
}

func (f *invalidatingFetcher) Fetch(_ context.Context, _ string, _ bool) (*Inputs, error) {
	f.calls++
	f.d.Invalidate()
	return &Inputs{}, nil
}

func TestDashboard_EnsureGivesUpWhenAlwaysSuperseded(t *testing.T) {
	f := &invalidatingFetcher{}
	d := NewDashboard("alice", f)
	f.d = d

	err := d.Ensure(context.Background())
	testutil.AssertAppError(t, err, "RECORD_FETCH_FAILED")
	testutil.AssertRetryable(t, err, true)
	if !errors.Is(err, ErrSuperseded) {
		t.Error("error should still match ErrSuperseded")
	}
	if f.calls != maxEnsureAttempts {
		t.Errorf("fetch calls = %d, want %d", f.calls, maxEnsureAttempts)
	}
}

func TestDashboard_ViewForUsesRequestQuery(t *testing.T) {
	f := &gatedFetcher{results: []fetchResult{{in: inputsOf(t, "10", "20")}}}
	d := NewDashboard("alice", f)
	if d.ViewFor(analytics.DefaultQuery()) != nil {
		t.Fatal("ViewFor should be nil before the first refresh")
	}
	testutil.AssertNoError(t, d.Refresh(context.Background()))

	yearly := analytics.Query{Granularity: analytics.Yearly, Category: analytics.AllCategories, DisplayCurrency: "EUR"}
	d.SetQuery(yearly)

	daily := analytics.Query{Granularity: analytics.Daily, Category: analytics.AllCategories, DisplayCurrency: "USD"}
	v := d.ViewFor(daily)
	if v.Currency != "USD" || len(v.TimeSeries) != 1 || v.TimeSeries[0].Label != "Jun 01, 2024" {
		t.Errorf("ViewFor(daily) = %+v", v)
	}
	testutil.AssertDecimal(t, "grand total", v.GrandTotal, "30")
	if d.Query() != yearly {
		t.Error("ViewFor must not change the session query")
	}
	if ts := d.TimeSeries(); len(ts) != 1 || ts[0].Label != "2024" {
		t.Errorf("session view should stay yearly, got %+v", ts)
	}
}

func TestDashboardHub_BoundsSessions(t *testing.T) {
	hub := NewDashboardHub(&gatedFetcher{}, WithMaxSessions(2), WithSessionIdleTTL(time.Hour))

	a := hub.Session("alice")
	hub.Session("bob")
	hub.Session("alice")
	hub.Session("carol")

	if hub.Len() != 2 {
		t.Errorf("Len = %d, want 2", hub.Len())
	}
	if hub.Session("alice") != a {
		t.Error("recently used session should survive eviction")
	}
	if hub.Prune() != 0 {
		t.Error("nothing should be idle yet")
	}
}

func TestDashboardHub_PrunesIdleSessions(t *testing.T) {
	hub := NewDashboardHub(&gatedFetcher{}, WithSessionIdleTTL(10*time.Millisecond))
	hub.Session("alice")
	hub.Session("bob")

	time.Sleep(20 * time.Millisecond)
	if n := hub.Prune(); n != 2 {
		t.Errorf("Prune removed %d, want 2", n)
	}
	if hub.Len() != 0 {
		t.Errorf("Len = %d, want 0", hub.Len())
	}
	// Invalidating a pruned user is a no-op.
	hub.Invalidate("alice")
}
