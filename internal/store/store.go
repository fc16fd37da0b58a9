// Package store persists expense records. Every backend scopes records by
// owner: one user can never read or modify another user's expenses.
package store

import (
	"context"
	"errors"

	"spendlens/internal/models"
)

// ErrNotFound is returned when an expense does not exist for the user.
var ErrNotFound = errors.New("expense not found")

// ExpenseStore is the record store consulted by the analytics pipeline and
// mutated by the expense endpoints.
type ExpenseStore interface {
	// List returns every expense owned by userID in no particular order.
	List(ctx context.Context, userID string) ([]models.Expense, error)
	// Create stores a new expense and returns it with its assigned ID.
	Create(ctx context.Context, userID string, f models.ExpenseFields) (*models.Expense, error)
	// Update replaces the editable fields of an existing expense.
	Update(ctx context.Context, userID, id string, f models.ExpenseFields) error
	// Delete removes an expense. Deleting a missing expense is not an error.
	Delete(ctx context.Context, userID, id string) error
}
