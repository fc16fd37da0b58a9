package services

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"spendlens/internal/analytics"
	"spendlens/internal/models"
	"spendlens/internal/rates"
	"spendlens/internal/testutil"
)

func seededStore(t *testing.T) *fakeStore {
	t.Helper()
	fs := newFakeStore()
	ctx := context.Background()
	for _, f := range []models.ExpenseFields{
		testutil.ExpenseFields(t, "100", "USD", models.CategoryFood, "2024-06-01"),
		testutil.ExpenseFields(t, "50", "EUR", models.CategoryFood, "2024-06-15"),
	} {
		if _, err := fs.Create(ctx, "alice", f); err != nil {
			t.Fatal(err)
		}
	}
	return fs
}

func TestAnalyze(t *testing.T) {
	rs := &fakeRates{snap: usdSnapshot()}
	svc := NewAnalyticsService(seededStore(t), rs, "usd", false)

	a, err := svc.Analyze(context.Background(), "alice", analytics.DefaultQuery(), false)
	testutil.AssertNoError(t, err)

	testutil.AssertDecimal(t, "grand total", a.GrandTotal, "155.56")
	if len(a.TimeSeries) != 1 || a.TimeSeries[0].Label != "Jun 2024" {
		t.Errorf("unexpected series: %+v", a.TimeSeries)
	}
	if !a.Converted || a.RatesStale {
		t.Errorf("expected fresh converted result, got converted=%v stale=%v", a.Converted, a.RatesStale)
	}
	if !a.RatesFetchedAt.Equal(testNow) {
		t.Errorf("RatesFetchedAt = %v", a.RatesFetchedAt)
	}
	if len(rs.bases) != 1 || rs.bases[0] != "USD" {
		t.Errorf("expected one USD rate lookup, got %v", rs.bases)
	}
}

func TestAnalyze_StaleRatesAreUsed(t *testing.T) {
	rs := &fakeRates{snap: usdSnapshot(), err: fmt.Errorf("%w: upstream down", rates.ErrStale)}
	svc := NewAnalyticsService(seededStore(t), rs, "USD", false)

	a, err := svc.Analyze(context.Background(), "alice", analytics.DefaultQuery(), false)
	testutil.AssertNoError(t, err)

	if !a.RatesStale || !a.Converted {
		t.Errorf("expected stale converted result, got stale=%v converted=%v", a.RatesStale, a.Converted)
	}
	testutil.AssertDecimal(t, "grand total", a.GrandTotal, "155.56")
}

func TestAnalyze_RatesUnavailable(t *testing.T) {
	unavailable := fmt.Errorf("%w: dial tcp: refused", rates.ErrUnavailable)

	t.Run("fails_by_default", func(t *testing.T) {
		svc := NewAnalyticsService(seededStore(t), &fakeRates{err: unavailable}, "USD", false)
		_, err := svc.Analyze(context.Background(), "alice", analytics.DefaultQuery(), false)
		testutil.AssertAppError(t, err, "RATE_UNAVAILABLE")
		if !errors.Is(err, rates.ErrUnavailable) {
			t.Error("expected the cause to be preserved")
		}
	})

	t.Run("request_allows_unconverted", func(t *testing.T) {
		svc := NewAnalyticsService(seededStore(t), &fakeRates{err: unavailable}, "USD", false)
		a, err := svc.Analyze(context.Background(), "alice", analytics.DefaultQuery(), true)
		testutil.AssertNoError(t, err)
		if a.Converted {
			t.Error("expected converted=false")
		}
		// Source-currency amounts are summed as-is.
		testutil.AssertDecimal(t, "grand total", a.GrandTotal, "150")
	})

	t.Run("config_allows_unconverted", func(t *testing.T) {
		svc := NewAnalyticsService(seededStore(t), &fakeRates{err: unavailable}, "USD", true)
		a, err := svc.Analyze(context.Background(), "alice", analytics.DefaultQuery(), false)
		testutil.AssertNoError(t, err)
		if a.Converted {
			t.Error("expected converted=false")
		}
	})
}

func TestAnalyze_RecordFetchFailed(t *testing.T) {
	fs := seededStore(t)
	fs.listErr = errors.New("connection reset")
	svc := NewAnalyticsService(fs, &fakeRates{snap: usdSnapshot()}, "USD", true)

	_, err := svc.Analyze(context.Background(), "alice", analytics.DefaultQuery(), true)
	testutil.AssertAppError(t, err, "RECORD_FETCH_FAILED")
}

func TestAnalyze_UnknownUserIsEmpty(t *testing.T) {
	svc := NewAnalyticsService(seededStore(t), &fakeRates{snap: usdSnapshot()}, "USD", false)

	a, err := svc.Analyze(context.Background(), "nobody", analytics.DefaultQuery(), false)
	testutil.AssertNoError(t, err)
	if a.FilteredCount != 0 || len(a.CategoryTotals) != 0 || len(a.TimeSeries) != 0 {
		t.Errorf("expected empty analysis, got %+v", a.Result)
	}
	if a.GrandTotal.StringFixed(2) != "0.00" {
		t.Errorf("GrandTotal = %s", a.GrandTotal.StringFixed(2))
	}
}
