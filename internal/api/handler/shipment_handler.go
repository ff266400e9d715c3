package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/expresslane/courier-booking/internal/core/ports"
)

// ShipmentHandler handles HTTP requests for shipment operations.
type ShipmentHandler struct {
	service ports.BookingService
	loc     *time.Location
}

// NewShipmentHandler returns a handler; date filters are read in loc.
func NewShipmentHandler(service ports.BookingService, loc *time.Location) *ShipmentHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &ShipmentHandler{service: service, loc: loc}
}

// Create handles POST /v1/shipments.
//
// @Summary      Book a shipment
// @Description  Prices the package, allocates an EX-MON-DD-NNN tracking id and stores the shipment.
// @Tags         shipments
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        Idempotency-Key  header    string               false  "Idempotency key to prevent duplicate submissions"
// @Param        body             body      bookShipmentRequest  true   "Shipment details"
// @Success      201              {object}  bookShipmentResponse
// @Success      200              {object}  bookShipmentResponse  "idempotent replay"
// @Failure      400              {object}  errorResponse
// @Failure      401              {object}  errorResponse
// @Failure      404              {object}  errorResponse  "reason invalid_destination"
// @Failure      422              {object}  errorResponse  "reason no_tier_found"
// @Failure      503              {object}  errorResponse  "reason allocation_exhausted"
// @Router       /v1/shipments [post]
func (h *ShipmentHandler) Create(c echo.Context) error {
	_, clientID, err := ctxClaims(c)
	if err != nil {
		return err
	}

	var req bookShipmentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	idempotencyKey := c.Request().Header.Get("Idempotency-Key")
	result, err := h.service.Book(c.Request().Context(), toBookInput(req, clientID, idempotencyKey))
	if err != nil {
		return err
	}

	code := http.StatusCreated
	if result.AlreadyExisted {
		code = http.StatusOK
	}
	c.Response().Header().Set(echo.HeaderLocation, linksFor(result.Shipment.TrackingID).Self)
	return c.JSON(code, toBookResponse(result))
}

// Get handles GET /v1/shipments/:tracking_id.
//
// @Summary      Get a shipment by tracking id
// @Tags         shipments
// @Produce      json
// @Security     BearerAuth
// @Param        tracking_id  path      string  true  "Tracking id (e.g. EX-SEP-05-001)"
// @Success      200          {object}  getShipmentResponse
// @Failure      401          {object}  errorResponse
// @Failure      403          {object}  errorResponse
// @Failure      404          {object}  errorResponse
// @Router       /v1/shipments/{tracking_id} [get]
func (h *ShipmentHandler) Get(c echo.Context) error {
	role, clientID, err := ctxClaims(c)
	if err != nil {
		return err
	}

	s, err := h.service.GetShipment(c.Request().Context(), ports.GetShipmentInput{
		TrackingID: c.Param("tracking_id"),
		Role:       role,
		ClientID:   clientID,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toGetResponse(s))
}

// List handles GET /v1/shipments.
//
// @Summary      List shipments
// @Description  Clients only see their own branch's shipments.
// @Tags         shipments
// @Produce      json
// @Security     BearerAuth
// @Param        status       query     string  false  "Filter by status"
// @Param        destination  query     string  false  "Filter by destination code"
// @Param        q            query     string  false  "Search tracking id, sender or receiver name"
// @Param        date_from    query     string  false  "Created on or after (YYYY-MM-DD or RFC 3339)"
// @Param        date_to      query     string  false  "Created on or before (YYYY-MM-DD or RFC 3339)"
// @Param        page         query     int     false  "Page number (default 1)"
// @Param        limit        query     int     false  "Page size (default 20, max 100)"
// @Success      200          {object}  listShipmentsResponse
// @Failure      400          {object}  errorResponse
// @Failure      401          {object}  errorResponse
// @Router       /v1/shipments [get]
func (h *ShipmentHandler) List(c echo.Context) error {
	role, clientID, err := ctxClaims(c)
	if err != nil {
		return err
	}

	var q listShipmentsQuery
	if err := c.Bind(&q); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid query")
	}
	if err := c.Validate(&q); err != nil {
		return err
	}

	from, err := parseBound("date_from", q.DateFrom, h.loc, false)
	if err != nil {
		return err
	}
	to, err := parseBound("date_to", q.DateTo, h.loc, true)
	if err != nil {
		return err
	}

	result, err := h.service.ListShipments(c.Request().Context(), ports.ListShipmentsInput{
		Role:            role,
		ClientID:        clientID,
		Status:          q.Status,
		DestinationCode: q.DestinationCode,
		Search:          q.Search,
		DateFrom:        from,
		DateTo:          to,
		Page:            q.Page,
		Limit:           q.Limit,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toListResponse(result))
}
