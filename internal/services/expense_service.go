package services

import (
	"context"
	"errors"
	"sort"
	"strings"

	"go.uber.org/zap"

	apperrors "spendlens/internal/errors"
	"spendlens/internal/logger"
	"spendlens/internal/models"
	"spendlens/internal/pagination"
	"spendlens/internal/store"
)

// expenseService handles expense-related business logic.
type expenseService struct {
	store       store.ExpenseStore
	invalidator Invalidator
	log         *zap.SugaredLogger
}

// NewExpenseService creates a new ExpenseServicer. Every successful mutation
// invalidates the user's cached aggregates through invalidator, which may be
// nil.
func NewExpenseService(s store.ExpenseStore, invalidator Invalidator) ExpenseServicer {
	return &expenseService{store: s, invalidator: invalidator, log: logger.Named("expenses")}
}

// validateFields normalizes f and checks it against the fixed category and
// currency sets.
func validateFields(f models.ExpenseFields) (models.ExpenseFields, error) {
	f.Amount = f.Amount.Round(2)
	if !f.Amount.IsPositive() {
		return f, apperrors.WithMessage(apperrors.ErrInvalidInput, "amount must be greater than zero")
	}
	if !f.Category.Valid() {
		return f, apperrors.ErrInvalidCategory
	}
	f.Currency = strings.ToUpper(strings.TrimSpace(f.Currency))
	if !models.IsSupportedCurrency(f.Currency) {
		return f, apperrors.ErrUnsupportedCurrency
	}
	if f.Date.IsZero() {
		return f, apperrors.WithMessage(apperrors.ErrInvalidInput, "date is required")
	}
	f.Date = f.Date.UTC()
	f.Description = strings.TrimSpace(f.Description)
	return f, nil
}

// ListExpenses returns a page of the user's expenses, newest first.
func (s *expenseService) ListExpenses(ctx context.Context, userID string, page pagination.PageRequest) (*pagination.PageResponse[models.Expense], error) {
	expenses, err := s.store.List(ctx, userID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrRecordFetchFailed, err)
	}

	sort.SliceStable(expenses, func(i, j int) bool {
		if !expenses[i].Date.Equal(expenses[j].Date) {
			return expenses[i].Date.After(expenses[j].Date)
		}
		return expenses[i].CreatedAt.After(expenses[j].CreatedAt)
	})

	resp := pagination.Slice(expenses, page)
	return &resp, nil
}

// CreateExpense validates and stores a new expense.
func (s *expenseService) CreateExpense(ctx context.Context, userID string, fields models.ExpenseFields) (*models.Expense, error) {
	f, err := validateFields(fields)
	if err != nil {
		return nil, err
	}

	expense, err := s.store.Create(ctx, userID, f)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	s.changed(userID)
	return expense, nil
}

// UpdateExpense replaces the editable fields of an existing expense.
func (s *expenseService) UpdateExpense(ctx context.Context, userID, expenseID string, fields models.ExpenseFields) (*models.Expense, error) {
	f, err := validateFields(fields)
	if err != nil {
		return nil, err
	}

	if err := s.store.Update(ctx, userID, expenseID, f); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperrors.ErrExpenseNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	s.changed(userID)

	expense := &models.Expense{UserID: userID}
	expense.ID = expenseID
	expense.Apply(f)
	return expense, nil
}

// DeleteExpense removes an expense. Deleting an unknown id succeeds.
func (s *expenseService) DeleteExpense(ctx context.Context, userID, expenseID string) error {
	if err := s.store.Delete(ctx, userID, expenseID); err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	s.changed(userID)
	return nil
}

// changed runs after the store has confirmed a write.
func (s *expenseService) changed(userID string) {
	if s.invalidator == nil {
		return
	}
	s.invalidator.Invalidate(userID)
	s.log.Debugw("Invalidated dashboard after write", "user_id", userID)
}
