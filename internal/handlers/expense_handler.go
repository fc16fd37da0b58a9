package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "spendlens/internal/errors"
	"spendlens/internal/models"
	"spendlens/internal/pagination"
	"spendlens/internal/services"
)

// ExpenseHandler handles expense-related requests.
type ExpenseHandler struct {
	expenseService services.ExpenseServicer
	auditService   services.AuditServicer
}

// NewExpenseHandler creates a new ExpenseHandler.
func NewExpenseHandler(expenseService services.ExpenseServicer, auditService services.AuditServicer) *ExpenseHandler {
	return &ExpenseHandler{expenseService: expenseService, auditService: auditService}
}

// ExpenseRequest represents the request payload for creating or replacing an expense
type ExpenseRequest struct {
	Amount      decimal.Decimal `json:"amount" swaggertype:"number" example:"12.50"`
	Category    string          `json:"category" binding:"required,expense_category" example:"Food"`
	Description string          `json:"description" binding:"max=500"`
	Currency    string          `json:"currency" binding:"required,currency" example:"USD"`
	Date        string          `json:"date" binding:"required" example:"2024-06-01"`
}

// ExpenseResponse represents an expense in the response
type ExpenseResponse struct {
	ID          string    `json:"id"`
	Amount      float64   `json:"amount"`
	Category    string    `json:"category"`
	Description string    `json:"description"`
	Currency    string    `json:"currency"`
	Date        string    `json:"date"`
	CreatedAt   time.Time `json:"createdAt"`
}

func toExpenseResponse(e *models.Expense) ExpenseResponse {
	return ExpenseResponse{
		ID:          e.ID,
		Amount:      money(e.Amount),
		Category:    string(e.Category),
		Description: e.Description,
		Currency:    e.Currency,
		Date:        e.Date.Format("2006-01-02"),
		CreatedAt:   e.CreatedAt,
	}
}

// fields converts the request into validated-by-binding expense fields.
func (r *ExpenseRequest) fields() (models.ExpenseFields, error) {
	date, err := parseDate(r.Date)
	if err != nil {
		return models.ExpenseFields{}, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error())
	}
	return models.ExpenseFields{
		Amount:      r.Amount,
		Category:    models.Category(r.Category),
		Description: r.Description,
		Currency:    r.Currency,
		Date:        date,
	}, nil
}

func bindExpense(c *gin.Context) (models.ExpenseFields, error) {
	var req ExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		return models.ExpenseFields{}, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error())
	}
	return req.fields()
}

func expenseChanges(f models.ExpenseFields) map[string]interface{} {
	return map[string]interface{}{
		"amount":   f.Amount.String(),
		"currency": f.Currency,
		"category": f.Category,
		"date":     f.Date.Format("2006-01-02"),
	}
}

// ListExpenses returns the user's expenses, newest first
// @Summary     List expenses
// @Description Get a paginated list of the user's expenses ordered by date, newest first
// @Tags        expenses
// @Produce     json
// @Security    BearerAuth
// @Param       page     query int false "Page number (default 1)"
// @Param       pageSize query int false "Items per page (default 20, max 100)"
// @Success     200 {object} pagination.PageResponse[ExpenseResponse]
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     503 {object} ErrorResponse "Record store unavailable"
// @Router      /expenses [get]
func (h *ExpenseHandler) ListExpenses(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	result, err := h.expenseService.ListExpenses(c.Request.Context(), userID, page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	items := make([]ExpenseResponse, len(result.Data))
	for i := range result.Data {
		items[i] = toExpenseResponse(&result.Data[i])
	}
	c.JSON(http.StatusOK, pagination.PageResponse[ExpenseResponse]{
		Data:       items,
		Page:       result.Page,
		PageSize:   result.PageSize,
		TotalItems: result.TotalItems,
		TotalPages: result.TotalPages,
	})
}

// CreateExpense handles the creation of a new expense
// @Summary     Create an expense
// @Description Record a new expense in one of the supported currencies
// @Tags        expenses
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body ExpenseRequest true "Expense details"
// @Success     201 {object} ExpenseResponse "Expense created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /expenses [post]
func (h *ExpenseHandler) CreateExpense(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	fields, err := bindExpense(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	expense, err := h.expenseService.CreateExpense(c.Request.Context(), userID, fields)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "CREATE_EXPENSE", "expense", expense.ID, c.ClientIP(), expenseChanges(expense.Fields()))

	c.JSON(http.StatusCreated, toExpenseResponse(expense))
}

// UpdateExpense replaces every editable field of an expense
// @Summary     Update an expense
// @Description Replace amount, category, description, currency and date of an expense
// @Tags        expenses
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string         true "Expense ID"
// @Param       request body ExpenseRequest true "Expense details"
// @Success     200 {object} ExpenseResponse "Expense updated"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Expense not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /expenses/{id} [put]
func (h *ExpenseHandler) UpdateExpense(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	expenseID := c.Param("id")
	fields, err := bindExpense(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	expense, err := h.expenseService.UpdateExpense(c.Request.Context(), userID, expenseID, fields)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "UPDATE_EXPENSE", "expense", expenseID, c.ClientIP(), expenseChanges(expense.Fields()))

	c.JSON(http.StatusOK, toExpenseResponse(expense))
}

// DeleteExpense removes an expense. Deleting an unknown id succeeds.
// @Summary     Delete an expense
// @Tags        expenses
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Expense ID"
// @Success     200 {object} map[string]string "Expense deleted"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /expenses/{id} [delete]
func (h *ExpenseHandler) DeleteExpense(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	expenseID := c.Param("id")
	if err := h.expenseService.DeleteExpense(c.Request.Context(), userID, expenseID); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "DELETE_EXPENSE", "expense", expenseID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"message": "Expense deleted successfully"})
}
