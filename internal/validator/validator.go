// Package validator provides custom validation functions for Gin's binding engine.
package validator

import (
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"spendlens/internal/analytics"
	"spendlens/internal/models"
)

// Register registers all custom validators with the Gin binding engine.
func Register() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("currency", validateCurrency)
		_ = v.RegisterValidation("expense_category", validateExpenseCategory)
		_ = v.RegisterValidation("category_filter", validateCategoryFilter)
		_ = v.RegisterValidation("granularity", validateGranularity)
	}
}

// validateCurrency accepts the supported expense currencies, in any case.
func validateCurrency(fl validator.FieldLevel) bool {
	return models.IsSupportedCurrency(fl.Field().String())
}

func validateExpenseCategory(fl validator.FieldLevel) bool {
	return models.Category(fl.Field().String()).Valid()
}

// validateCategoryFilter accepts a category or "All".
func validateCategoryFilter(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	return s == analytics.AllCategories || models.Category(s).Valid()
}

func validateGranularity(fl validator.FieldLevel) bool {
	_, ok := analytics.ParseGranularity(fl.Field().String())
	return ok
}
