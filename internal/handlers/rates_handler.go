package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "spendlens/internal/errors"
	"spendlens/internal/rates"
	"spendlens/internal/services"
)

// RatesHandler exposes the shared exchange rate cache.
type RatesHandler struct {
	rates services.RateSource
	base  string
}

// NewRatesHandler creates a new RatesHandler. base is used when the request
// names none.
func NewRatesHandler(rs services.RateSource, base string) *RatesHandler {
	return &RatesHandler{rates: rs, base: strings.ToUpper(base)}
}

// RatesQuery represents the query string of the rates endpoint
type RatesQuery struct {
	Base string `form:"base" binding:"omitempty,currency"`
}

// RatesResponse represents a rate snapshot
type RatesResponse struct {
	Base      string             `json:"base" example:"USD"`
	Date      string             `json:"date,omitempty" example:"2024-06-01"`
	Rates     map[string]float64 `json:"rates"`
	FetchedAt time.Time          `json:"fetchedAt"`
	Stale     bool               `json:"stale"`
}

// GetRates returns the cached rates for a base currency
// @Summary     Get exchange rates
// @Description Return the cached exchange rate snapshot for a base currency, fetching it when missing or expired
// @Tags        rates
// @Produce     json
// @Security    BearerAuth
// @Param       base query string false "Base currency (default USD)"
// @Success     200 {object} RatesResponse
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     502 {object} ErrorResponse "Exchange rates unavailable"
// @Router      /rates [get]
func (h *RatesHandler) GetRates(c *gin.Context) {
	var q RatesQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}
	base := h.base
	if q.Base != "" {
		base = strings.ToUpper(q.Base)
	}

	snap, err := h.rates.Get(c.Request.Context(), base)
	stale := rates.IsStale(err)
	if err != nil && !(stale && snap != nil) {
		respondWithError(c, apperrors.Wrap(apperrors.ErrRateUnavailable, err))
		return
	}

	resp := RatesResponse{
		Base:      snap.Base,
		Date:      snap.SourceDate,
		Rates:     make(map[string]float64),
		FetchedAt: snap.FetchedAt,
		Stale:     stale,
	}
	for code, r := range snap.Rates() {
		resp.Rates[code], _ = r.Float64()
	}
	c.JSON(http.StatusOK, resp)
}
