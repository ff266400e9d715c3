package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/expresslane/courier-booking/internal/core/domain"
)

func TestHTTPErrorHandler_Mapping(t *testing.T) {
	cases := []struct {
		err        error
		wantCode   int
		wantReason string
	}{
		{fmt.Errorf("quote: %w: length must be positive", domain.ErrInvalidInput), http.StatusBadRequest, "invalid_input"},
		{fmt.Errorf("quote: %w", domain.ErrInvalidDestination), http.StatusNotFound, "invalid_destination"},
		{fmt.Errorf("quote: %w", domain.ErrNoTierFound), http.StatusUnprocessableEntity, "no_tier_found"},
		{fmt.Errorf("book: %w", domain.ErrAllocationExhausted), http.StatusServiceUnavailable, "allocation_exhausted"},
		{domain.ErrShipmentNotFound, http.StatusNotFound, "shipment_not_found"},
		{domain.ErrForbidden, http.StatusForbidden, "forbidden"},
		{domain.ErrInvalidTransition, http.StatusUnprocessableEntity, "invalid_transition"},
		{domain.ErrDestinationExists, http.StatusConflict, "destination_exists"},
		{domain.ErrTierOverlap, http.StatusConflict, "tier_overlap"},
		{domain.ErrTierNotFound, http.StatusNotFound, "tier_not_found"},
		{fmt.Errorf("book shipment: %w", domain.ErrDuplicateIdempotencyKey), http.StatusConflict, "duplicate_idempotency_key"},
		{echo.NewHTTPError(http.StatusUnauthorized, "invalid token"), http.StatusUnauthorized, ""},
		{errors.New("mongo: connection reset"), http.StatusInternalServerError, ""},
	}

	h := NewHTTPErrorHandler(zerolog.Nop())
	for _, tc := range cases {
		t.Run(tc.err.Error(), func(t *testing.T) {
			e := echo.New()
			rec := httptest.NewRecorder()
			c := e.NewContext(httptest.NewRequest(http.MethodPost, "/v1/shipments", nil), rec)

			h(tc.err, c)

			if rec.Code != tc.wantCode {
				t.Fatalf("code = %d, want %d", rec.Code, tc.wantCode)
			}
			var body errorResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("invalid json: %v", err)
			}
			if body.Reason != tc.wantReason {
				t.Errorf("reason = %q, want %q", body.Reason, tc.wantReason)
			}
			if body.Error == "" {
				t.Error("empty error message")
			}
		})
	}
}

func TestHTTPErrorHandler_HidesInternalErrors(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)

	NewHTTPErrorHandler(zerolog.Nop())(errors.New("dial tcp 10.0.0.7:27017: secret detail"), c)

	var body errorResponse
	_ = json.Unmarshal(rec.Body.Bytes(), &body)
	if body.Error != "internal server error" {
		t.Fatalf("leaked internal error: %q", body.Error)
	}
}

func TestHTTPErrorHandler_RetryAfterOnExhaustion(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodPost, "/v1/shipments", nil), rec)

	NewHTTPErrorHandler(zerolog.Nop())(domain.ErrAllocationExhausted, c)

	if rec.Header().Get("Retry-After") == "" {
		t.Fatal("expected Retry-After header")
	}
}
