package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Expense is a single spending record owned by one user.
type Expense struct {
	Base
	UserID      string          `gorm:"type:varchar(128);not null;index" json:"userId"`
	Amount      decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"amount"`
	Category    Category        `gorm:"type:varchar(32);not null" json:"category"`
	Description string          `json:"description"`
	Currency    string          `gorm:"type:char(3);not null" json:"currency"`
	Date        time.Time       `gorm:"not null;index" json:"date"`
}

// ExpenseFields are the user-editable columns of an expense. Updates replace
// all of them at once; ID and owner never change.
type ExpenseFields struct {
	Amount      decimal.Decimal
	Category    Category
	Description string
	Currency    string
	Date        time.Time
}

// Fields returns the editable part of the expense.
func (e *Expense) Fields() ExpenseFields {
	return ExpenseFields{
		Amount:      e.Amount,
		Category:    e.Category,
		Description: e.Description,
		Currency:    e.Currency,
		Date:        e.Date,
	}
}

// Apply overwrites the editable columns with f.
func (e *Expense) Apply(f ExpenseFields) {
	e.Amount = f.Amount
	e.Category = f.Category
	e.Description = f.Description
	e.Currency = f.Currency
	e.Date = f.Date
}
