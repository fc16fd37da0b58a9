package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"spendlens/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// NewUserID returns a unique user identifier.
func NewUserID() string {
	return fmt.Sprintf("user-%d", nextID())
}

// Date parses a YYYY-MM-DD string, failing the test on error.
func Date(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		t.Fatalf("invalid fixture date %q: %v", s, err)
	}
	return d
}

// ExpenseFields builds editable expense fields from plain values.
func ExpenseFields(t *testing.T, amount, currency string, category models.Category, date string) models.ExpenseFields {
	t.Helper()
	d, err := decimal.NewFromString(amount)
	if err != nil {
		t.Fatalf("invalid fixture amount %q: %v", amount, err)
	}
	return models.ExpenseFields{
		Amount:      d,
		Category:    category,
		Description: fmt.Sprintf("Test expense %d", nextID()),
		Currency:    currency,
		Date:        Date(t, date),
	}
}

// CreateTestExpense inserts an expense for userID.
func CreateTestExpense(t *testing.T, db *gorm.DB, userID string, f models.ExpenseFields) *models.Expense {
	t.Helper()

	expense := &models.Expense{UserID: userID}
	expense.Apply(f)
	if err := db.Create(expense).Error; err != nil {
		t.Fatalf("failed to create test expense: %v", err)
	}
	return expense
}
