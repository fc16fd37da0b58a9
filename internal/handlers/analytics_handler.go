package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"spendlens/internal/analytics"
	apperrors "spendlens/internal/errors"
	"spendlens/internal/services"
)

// AnalyticsHandler serves aggregated views of a user's expenses.
type AnalyticsHandler struct {
	analyticsService services.AnalyticsServicer
	dashboards       *services.DashboardHub
}

// NewAnalyticsHandler creates a new AnalyticsHandler.
func NewAnalyticsHandler(analyticsService services.AnalyticsServicer, dashboards *services.DashboardHub) *AnalyticsHandler {
	return &AnalyticsHandler{analyticsService: analyticsService, dashboards: dashboards}
}

// DateRange bounds a Custom query. Both ends are inclusive.
type DateRange struct {
	Start string `json:"start" example:"2024-01-01"`
	End   string `json:"end" example:"2024-06-30"`
}

// AnalyticsRequest represents the request payload for an aggregation
type AnalyticsRequest struct {
	UserID           string     `json:"userId"`
	TimeGranularity  string     `json:"timeGranularity" binding:"omitempty,granularity" example:"Monthly"`
	CategoryFilter   string     `json:"categoryFilter" binding:"omitempty,category_filter" example:"All"`
	DisplayCurrency  string     `json:"displayCurrency" binding:"omitempty,currency" example:"USD"`
	CustomRange      *DateRange `json:"customRange"`
	AllowUnconverted bool       `json:"allowUnconverted"`
}

// DashboardQuery represents the query string of the dashboard endpoint
type DashboardQuery struct {
	TimeGranularity string `form:"timeGranularity" binding:"omitempty,granularity"`
	CategoryFilter  string `form:"categoryFilter" binding:"omitempty,category_filter"`
	DisplayCurrency string `form:"displayCurrency" binding:"omitempty,currency"`
	Start           string `form:"start"`
	End             string `form:"end"`
}

// TimePointResponse is one bucket of the time series
type TimePointResponse struct {
	Label string    `json:"label" example:"Jun 2024"`
	Start time.Time `json:"start"`
	Total float64   `json:"total" example:"155.56"`
}

// AnalyticsResponse represents an aggregation result
type AnalyticsResponse struct {
	CategoryTotals map[string]float64  `json:"categoryTotals"`
	TimeSeries     []TimePointResponse `json:"timeSeries"`
	GrandTotal     float64             `json:"grandTotal" example:"155.56"`
	FilteredCount  int                 `json:"filteredCount"`
	Currency       string              `json:"currency" example:"USD"`
	Converted      bool                `json:"converted"`
	RatesStale     bool                `json:"ratesStale"`
	RatesFetchedAt *time.Time          `json:"ratesFetchedAt,omitempty"`
}

// DashboardResponse is the dashboard view plus the outcome of its last refresh
type DashboardResponse struct {
	AnalyticsResponse
	RefreshError *ErrorDetail `json:"refreshError,omitempty"`
}

func toAnalyticsResponse(a *services.Analysis) AnalyticsResponse {
	resp := AnalyticsResponse{
		CategoryTotals: make(map[string]float64, len(a.CategoryTotals)),
		TimeSeries:     make([]TimePointResponse, len(a.TimeSeries)),
		GrandTotal:     money(a.GrandTotal),
		FilteredCount:  a.FilteredCount,
		Currency:       a.Currency,
		Converted:      a.Converted,
		RatesStale:     a.RatesStale,
	}
	for cat, total := range a.CategoryTotals {
		resp.CategoryTotals[string(cat)] = money(total)
	}
	for i, p := range a.TimeSeries {
		resp.TimeSeries[i] = TimePointResponse{Label: p.Label, Start: p.Start, Total: money(p.Total)}
	}
	if !a.RatesFetchedAt.IsZero() {
		t := a.RatesFetchedAt
		resp.RatesFetchedAt = &t
	}
	return resp
}

// buildQuery turns already-validated request values into a pipeline query.
// Range bounds are parsed whenever present; the pipeline applies them only
// to Custom queries that carry both.
func buildQuery(granularity, category, currency, start, end string) (analytics.Query, error) {
	q := analytics.DefaultQuery()
	q.Granularity, _ = analytics.ParseGranularity(granularity)
	if category != "" {
		q.Category = category
	}
	if currency != "" {
		q.DisplayCurrency = strings.ToUpper(currency)
	}

	for _, b := range []struct {
		raw string
		dst **time.Time
	}{{start, &q.Start}, {end, &q.End}} {
		if strings.TrimSpace(b.raw) == "" {
			continue
		}
		t, err := parseDate(b.raw)
		if err != nil {
			return analytics.Query{}, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error())
		}
		*b.dst = &t
	}
	return q, nil
}

// Analyze aggregates the user's expenses for one query
// @Summary     Aggregate expenses
// @Description Filter the user's expenses, convert them into the display currency and group them by category and time bucket
// @Tags        analytics
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body AnalyticsRequest true "Aggregation query"
// @Success     200 {object} AnalyticsResponse
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     502 {object} ErrorResponse "Exchange rates unavailable"
// @Failure     503 {object} ErrorResponse "Record store unavailable"
// @Router      /analytics [post]
func (h *AnalyticsHandler) Analyze(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req AnalyticsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}
	if req.UserID != "" && req.UserID != userID {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrUnauthorized, "userId does not match the authenticated user"))
		return
	}

	var start, end string
	if req.CustomRange != nil {
		start, end = req.CustomRange.Start, req.CustomRange.End
	}
	q, err := buildQuery(req.TimeGranularity, req.CategoryFilter, req.DisplayCurrency, start, end)
	if err != nil {
		respondWithError(c, err)
		return
	}

	result, err := h.analyticsService.Analyze(c.Request.Context(), userID, q, req.AllowUnconverted)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, toAnalyticsResponse(result))
}

// Dashboard returns the user's live dashboard for a query
// @Summary     Get dashboard
// @Description Serve the aggregation from the user's dashboard session, refetching only when expenses changed since the last load
// @Tags        analytics
// @Produce     json
// @Security    BearerAuth
// @Param       timeGranularity query string false "Daily, Weekly, Monthly, Yearly or Custom"
// @Param       categoryFilter  query string false "Category or All"
// @Param       displayCurrency query string false "Display currency"
// @Param       start           query string false "Custom range start (YYYY-MM-DD)"
// @Param       end             query string false "Custom range end (YYYY-MM-DD)"
// @Success     200 {object} DashboardResponse
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     502 {object} ErrorResponse "Exchange rates unavailable"
// @Failure     503 {object} ErrorResponse "Record store unavailable"
// @Router      /analytics/dashboard [get]
func (h *AnalyticsHandler) Dashboard(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var dq DashboardQuery
	if err := c.ShouldBindQuery(&dq); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}
	q, err := buildQuery(dq.TimeGranularity, dq.CategoryFilter, dq.DisplayCurrency, dq.Start, dq.End)
	if err != nil {
		respondWithError(c, err)
		return
	}

	session := h.dashboards.Session(userID)
	session.SetQuery(q)
	err = session.Ensure(c.Request.Context())
	h.respondWithDashboard(c, session.ViewFor(q), err)
}

// RefreshDashboard re-issues the dashboard fetch without changing its query
// @Summary     Refresh dashboard
// @Description Refetch the user's expenses and rates, keeping the current query
// @Tags        analytics
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} DashboardResponse
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     502 {object} ErrorResponse "Exchange rates unavailable"
// @Failure     503 {object} ErrorResponse "Record store unavailable"
// @Router      /analytics/dashboard/refresh [post]
func (h *AnalyticsHandler) RefreshDashboard(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	session := h.dashboards.Session(userID)
	err = session.Refresh(c.Request.Context())
	if errors.Is(err, services.ErrSuperseded) {
		err = session.Ensure(c.Request.Context())
	}
	h.respondWithDashboard(c, session.View(), err)
}

// respondWithDashboard serves view. A failed refresh is reported alongside
// the last good view when there is one.
func (h *AnalyticsHandler) respondWithDashboard(c *gin.Context, view *services.Analysis, refreshErr error) {
	if view == nil {
		if refreshErr == nil {
			refreshErr = apperrors.ErrInternalServer
		}
		respondWithError(c, refreshErr)
		return
	}

	resp := DashboardResponse{AnalyticsResponse: toAnalyticsResponse(view)}
	if refreshErr != nil {
		detail := ErrorDetail{Code: apperrors.ErrInternalServer.Code, Message: apperrors.ErrInternalServer.Message}
		var appErr *apperrors.AppError
		if errors.As(refreshErr, &appErr) {
			detail = ErrorDetail{Code: appErr.Code, Message: appErr.Message, Retryable: appErr.Retryable}
		}
		resp.RefreshError = &detail
	}
	c.JSON(http.StatusOK, resp)
}
