package services

import (
	"context"
	"strconv"
	"sync"

	"github.com/shopspring/decimal"

	"spendlens/internal/analytics"
	"spendlens/internal/models"
	"spendlens/internal/rates"
	"spendlens/internal/store"
)

// fakeStore is an in-memory ExpenseStore with injectable failures.
type fakeStore struct {
	mu        sync.Mutex
	records   map[string][]models.Expense
	listErr   error
	writeErr  error
	listCalls int
}

func newFakeStore() *fakeStore {
	return &fakeStore{records: make(map[string][]models.Expense)}
}

func (f *fakeStore) List(_ context.Context, userID string) ([]models.Expense, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]models.Expense(nil), f.records[userID]...), nil
}

func (f *fakeStore) Create(_ context.Context, userID string, fields models.ExpenseFields) (*models.Expense, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.writeErr != nil {
		return nil, f.writeErr
	}
	e := models.Expense{UserID: userID}
	e.ID = userID + "-" + strconv.Itoa(len(f.records[userID])+1)
	e.Apply(fields)
	f.records[userID] = append(f.records[userID], e)
	return &e, nil
}

func (f *fakeStore) Update(_ context.Context, userID, id string, fields models.ExpenseFields) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.writeErr != nil {
		return f.writeErr
	}
	for i := range f.records[userID] {
		if f.records[userID][i].ID == id {
			f.records[userID][i].Apply(fields)
			return nil
		}
	}
	return store.ErrNotFound
}

func (f *fakeStore) Delete(_ context.Context, userID, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.writeErr != nil {
		return f.writeErr
	}
	kept := f.records[userID][:0]
	for _, e := range f.records[userID] {
		if e.ID != id {
			kept = append(kept, e)
		}
	}
	f.records[userID] = kept
	return nil
}

// fakeRates returns a fixed snapshot and error.
type fakeRates struct {
	snap  *rates.Snapshot
	err   error
	bases []string
}

func (f *fakeRates) Get(_ context.Context, base string) (*rates.Snapshot, error) {
	f.bases = append(f.bases, base)
	return f.snap, f.err
}

func usdSnapshot() *rates.Snapshot {
	return rates.NewSnapshot("USD", analytics.Rates{
		"EUR": decimal.RequireFromString("0.9"),
		"GBP": decimal.RequireFromString("0.8"),
	}, testNow)
}

// recordingInvalidator remembers which users were invalidated.
type recordingInvalidator struct {
	mu    sync.Mutex
	users []string
}

func (r *recordingInvalidator) Invalidate(userID string) {
	r.mu.Lock()
	r.users = append(r.users, userID)
	r.mu.Unlock()
}

func (r *recordingInvalidator) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.users)
}
