package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"spendlens/internal/analytics"
	"spendlens/internal/models"
)

// CategoryHandler serves the fixed lists clients build pickers from.
type CategoryHandler struct{}

// NewCategoryHandler creates a new CategoryHandler
func NewCategoryHandler() *CategoryHandler {
	return &CategoryHandler{}
}

// ReferenceResponse lists the values accepted by the expense and analytics endpoints
type ReferenceResponse struct {
	Categories    []models.Category `json:"categories"`
	Currencies    []string          `json:"currencies"`
	Granularities []string          `json:"granularities"`
	AllCategories string            `json:"allCategories" example:"All"`
}

// GetReference returns the supported categories, currencies and granularities
// @Summary     Get reference values
// @Description List the fixed expense categories, supported currencies and time granularities
// @Tags        categories
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} ReferenceResponse
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /categories [get]
func (h *CategoryHandler) GetReference(c *gin.Context) {
	c.JSON(http.StatusOK, ReferenceResponse{
		Categories: append([]models.Category(nil), models.Categories...),
		Currencies: append([]string(nil), models.SupportedCurrencies...),
		Granularities: []string{
			string(analytics.Daily),
			string(analytics.Weekly),
			string(analytics.Monthly),
			string(analytics.Yearly),
			string(analytics.Custom),
		},
		AllCategories: analytics.AllCategories,
	})
}
