package services

import (
	"context"

	"spendlens/internal/analytics"
	"spendlens/internal/models"
	"spendlens/internal/pagination"
	"spendlens/internal/rates"
)

// ExpenseServicer defines the contract for expense-related business logic.
type ExpenseServicer interface {
	ListExpenses(ctx context.Context, userID string, page pagination.PageRequest) (*pagination.PageResponse[models.Expense], error)
	CreateExpense(ctx context.Context, userID string, fields models.ExpenseFields) (*models.Expense, error)
	UpdateExpense(ctx context.Context, userID, expenseID string, fields models.ExpenseFields) (*models.Expense, error)
	DeleteExpense(ctx context.Context, userID, expenseID string) error
}

// AnalyticsServicer defines the contract for running the aggregation
// pipeline against a user's stored expenses.
type AnalyticsServicer interface {
	Fetch(ctx context.Context, userID string, allowUnconverted bool) (*Inputs, error)
	Analyze(ctx context.Context, userID string, q analytics.Query, allowUnconverted bool) (*Analysis, error)
}

// RateSource supplies rate snapshots. *rates.Cache implements it.
type RateSource interface {
	Get(ctx context.Context, base string) (*rates.Snapshot, error)
}

// Invalidator is notified after a user's expenses change.
type Invalidator interface {
	Invalidate(userID string)
}

// AuditServicer defines the contract for audit logging.
type AuditServicer interface {
	Log(userID, action, resourceType, resourceID, ipAddress string, changes map[string]interface{})
}
