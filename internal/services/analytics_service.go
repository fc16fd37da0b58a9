package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"spendlens/internal/analytics"
	apperrors "spendlens/internal/errors"
	"spendlens/internal/logger"
	"spendlens/internal/models"
	"spendlens/internal/rates"
	"spendlens/internal/store"
)

// Inputs are the fetched ingredients of an aggregation.
type Inputs struct {
	Records []models.Expense
	// Rates is nil when Converted is false.
	Rates analytics.Rates
	// Converted is false when no rates could be obtained and the caller
	// accepted totals in source currencies.
	Converted bool
	// RatesStale is set when a refresh failed and an older snapshot was used.
	RatesStale     bool
	RatesFetchedAt time.Time
}

// Analysis is an aggregation result plus how its rates were obtained.
type Analysis struct {
	analytics.Result
	Converted      bool
	RatesStale     bool
	RatesFetchedAt time.Time
}

// NewAnalysis runs the pipeline for q over in.
func NewAnalysis(in *Inputs, q analytics.Query) *Analysis {
	return &Analysis{
		Result:         analytics.Run(in.Records, in.Rates, q),
		Converted:      in.Converted,
		RatesStale:     in.RatesStale,
		RatesFetchedAt: in.RatesFetchedAt,
	}
}

// analyticsService handles fetching and aggregating a user's expenses.
type analyticsService struct {
	store            store.ExpenseStore
	rates            RateSource
	base             string
	allowUnconverted bool
	log              *zap.SugaredLogger
}

// NewAnalyticsService creates a new AnalyticsServicer. Rates are requested
// relative to base. When allowUnconverted is set, a missing rate snapshot
// degrades to source-currency totals instead of failing.
func NewAnalyticsService(s store.ExpenseStore, rs RateSource, base string, allowUnconverted bool) AnalyticsServicer {
	if base == "" {
		base = models.BaseCurrency
	}
	return &analyticsService{
		store:            s,
		rates:            rs,
		base:             strings.ToUpper(base),
		allowUnconverted: allowUnconverted,
		log:              logger.Named("analytics"),
	}
}

// Fetch loads the user's records and a rate snapshot concurrently.
func (s *analyticsService) Fetch(ctx context.Context, userID string, allowUnconverted bool) (*Inputs, error) {
	var (
		records []models.Expense
		snap    *rates.Snapshot
		rateErr error
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		records, err = s.store.List(gctx, userID)
		if err != nil {
			return apperrors.Wrap(apperrors.ErrRecordFetchFailed, err)
		}
		return nil
	})
	g.Go(func() error {
		// Rate failures are resolved by policy below, not by the group.
		snap, rateErr = s.rates.Get(gctx, s.base)
		return nil
	})
	if err := g.Wait(); err != nil {
		s.log.Warnw("Record fetch failed", "user_id", userID, "error", err)
		return nil, err
	}

	in := &Inputs{Records: records, Converted: true}
	switch {
	case rateErr == nil:
	case errors.Is(rateErr, rates.ErrStale) && snap != nil:
		in.RatesStale = true
	case allowUnconverted || s.allowUnconverted:
		s.log.Warnw("Aggregating without conversion", "user_id", userID, "error", rateErr)
		in.Converted = false
		return in, nil
	default:
		return nil, apperrors.Wrap(apperrors.ErrRateUnavailable, rateErr)
	}

	in.Rates = snap.Rates()
	in.RatesFetchedAt = snap.FetchedAt
	return in, nil
}

// Analyze fetches the user's inputs and aggregates them for q.
func (s *analyticsService) Analyze(ctx context.Context, userID string, q analytics.Query, allowUnconverted bool) (*Analysis, error) {
	in, err := s.Fetch(ctx, userID, allowUnconverted)
	if err != nil {
		return nil, err
	}
	return NewAnalysis(in, q), nil
}
