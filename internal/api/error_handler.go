package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/expresslane/courier-booking/internal/core/domain"
)

// errorResponse is the canonical error envelope for all API errors.
type errorResponse struct {
	Error  string `json:"error"`
	Reason string `json:"reason,omitempty"`
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Maps known domain errors to their HTTP status codes and reason codes.
//   - Logs unexpected errors internally without leaking details to the client.
//   - Renders a consistent JSON envelope: {"error": "<message>", "reason": "<code>"}.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, resp := resolveError(err, log, c)
		if code == http.StatusServiceUnavailable {
			c.Response().Header().Set("Retry-After", "1")
		}
		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(code)
			return
		}
		_ = c.JSON(code, resp)
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, errorResponse) {
	// Echo's own errors (bind failures, 404 from router, etc.)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, errorResponse{Error: fmt.Sprintf("%v", he.Message)}
	}

	reason := domain.RejectionReason(err)
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest, errorResponse{Error: err.Error(), Reason: reason}
	case errors.Is(err, domain.ErrInvalidDestination):
		return http.StatusNotFound, errorResponse{Error: "destination not found or inactive", Reason: reason}
	case errors.Is(err, domain.ErrNoTierFound):
		return http.StatusUnprocessableEntity, errorResponse{Error: domain.ErrNoTierFound.Error(), Reason: reason}
	case errors.Is(err, domain.ErrAllocationExhausted):
		log.Error().Err(err).Str("path", c.Path()).Msg("tracking id allocation exhausted")
		return http.StatusServiceUnavailable, errorResponse{Error: "could not allocate a tracking id, retry shortly", Reason: reason}
	case errors.Is(err, domain.ErrShipmentNotFound):
		return http.StatusNotFound, errorResponse{Error: "shipment not found", Reason: "shipment_not_found"}
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, errorResponse{Error: "access forbidden", Reason: "forbidden"}
	case errors.Is(err, domain.ErrInvalidTransition):
		return http.StatusUnprocessableEntity, errorResponse{Error: err.Error(), Reason: "invalid_transition"}
	case errors.Is(err, domain.ErrDestinationExists):
		return http.StatusConflict, errorResponse{Error: "destination already exists", Reason: "destination_exists"}
	case errors.Is(err, domain.ErrTierOverlap):
		return http.StatusConflict, errorResponse{Error: err.Error(), Reason: "tier_overlap"}
	case errors.Is(err, domain.ErrTierNotFound):
		return http.StatusNotFound, errorResponse{Error: "rate tier not found", Reason: "tier_not_found"}
	case errors.Is(err, domain.ErrDuplicateIdempotencyKey):
		return http.StatusConflict, errorResponse{Error: "idempotency key already used", Reason: "duplicate_idempotency_key"}
	case errors.Is(err, domain.ErrDuplicateTrackingID):
		return http.StatusConflict, errorResponse{Error: "tracking id already issued", Reason: "duplicate_tracking_id"}
	}

	// Unexpected error: log the real cause, return a generic message.
	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("unhandled error")

	return http.StatusInternalServerError, errorResponse{Error: "internal server error"}
}
