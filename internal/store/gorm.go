package store

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"spendlens/internal/models"
)

// GormStore keeps expenses in a SQL database (postgres or sqlite).
type GormStore struct {
	db *gorm.DB
}

// NewGormStore creates a store over db.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// List returns the user's expenses, newest first.
func (s *GormStore) List(ctx context.Context, userID string) ([]models.Expense, error) {
	var expenses []models.Expense
	if err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("date DESC").
		Find(&expenses).Error; err != nil {
		return nil, fmt.Errorf("listing expenses: %w", err)
	}
	return expenses, nil
}

// Create inserts a new expense.
func (s *GormStore) Create(ctx context.Context, userID string, f models.ExpenseFields) (*models.Expense, error) {
	expense := &models.Expense{UserID: userID}
	expense.Apply(f)
	if err := s.db.WithContext(ctx).Create(expense).Error; err != nil {
		return nil, fmt.Errorf("creating expense: %w", err)
	}
	return expense, nil
}

// Update overwrites the editable columns of the user's expense id.
func (s *GormStore) Update(ctx context.Context, userID, id string, f models.ExpenseFields) error {
	result := s.db.WithContext(ctx).
		Model(&models.Expense{}).
		Where("id = ? AND user_id = ?", id, userID).
		Updates(map[string]any{
			"amount":      f.Amount,
			"category":    f.Category,
			"description": f.Description,
			"currency":    f.Currency,
			"date":        f.Date,
		})
	if result.Error != nil {
		return fmt.Errorf("updating expense: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete soft-deletes the user's expense id.
func (s *GormStore) Delete(ctx context.Context, userID, id string) error {
	if err := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&models.Expense{}).Error; err != nil {
		return fmt.Errorf("deleting expense: %w", err)
	}
	return nil
}
