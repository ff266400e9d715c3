package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/expresslane/courier-booking/internal/core/ports"
)

// QuoteHandler prices packages without booking them.
type QuoteHandler struct {
	service ports.PricingService
}

func NewQuoteHandler(service ports.PricingService) *QuoteHandler {
	return &QuoteHandler{service: service}
}

// Quote handles POST /v1/quotes.
//
// @Summary      Price a package
// @Description  Computes volumetric and chargeable weight, selects the rate tier and applies tax. Nothing is stored.
// @Tags         quotes
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      packageRequest  true  "Package measurements"
// @Success      200   {object}  quoteResponse
// @Failure      400   {object}  errorResponse  "reason invalid_input"
// @Failure      401   {object}  errorResponse
// @Failure      404   {object}  errorResponse  "reason invalid_destination"
// @Failure      422   {object}  errorResponse  "reason no_tier_found"
// @Router       /v1/quotes [post]
func (h *QuoteHandler) Quote(c echo.Context) error {
	if _, _, err := ctxClaims(c); err != nil {
		return err
	}

	var req packageRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	q, err := h.service.Quote(c.Request().Context(), toQuoteInput(req))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toQuoteResponse(q))
}
