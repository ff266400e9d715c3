package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/expresslane/courier-booking/internal/core/domain"
	"github.com/expresslane/courier-booking/internal/core/ports"
)

// CatalogHandler exposes destinations and rate tiers.
type CatalogHandler struct {
	service ports.CatalogService
}

func NewCatalogHandler(service ports.CatalogService) *CatalogHandler {
	return &CatalogHandler{service: service}
}

// ListDestinations handles GET /v1/destinations.
//
// @Summary      List destinations
// @Description  Active destinations only, unless an admin passes all=true.
// @Tags         catalog
// @Produce      json
// @Security     BearerAuth
// @Param        all  query     bool  false  "Include inactive destinations (admin only)"
// @Success      200  {object}  listDestinationsResponse
// @Failure      401  {object}  errorResponse
// @Router       /v1/destinations [get]
func (h *CatalogHandler) ListDestinations(c echo.Context) error {
	role, _, err := ctxClaims(c)
	if err != nil {
		return err
	}

	var q listDestinationsQuery
	if err := c.Bind(&q); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid query")
	}
	activeOnly := !(q.All && role == domain.RoleAdmin)

	list, err := h.service.ListDestinations(c.Request().Context(), activeOnly)
	if err != nil {
		return err
	}
	out := listDestinationsResponse{Data: make([]destinationResponse, len(list))}
	for i, d := range list {
		out.Data[i] = toDestinationResponse(d)
	}
	return c.JSON(http.StatusOK, out)
}

// CreateDestination handles POST /v1/admin/destinations.
//
// @Summary      Create a destination
// @Tags         catalog
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      createDestinationRequest  true  "Destination"
// @Success      201   {object}  destinationResponse
// @Failure      400   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Router       /v1/admin/destinations [post]
func (h *CatalogHandler) CreateDestination(c echo.Context) error {
	var req createDestinationRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	active := true
	if req.Active != nil {
		active = *req.Active
	}
	d, err := h.service.CreateDestination(c.Request().Context(), ports.CreateDestinationInput{
		Code:     req.Code,
		Name:     req.Name,
		Currency: req.Currency,
		Active:   active,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, toDestinationResponse(*d))
}

// UpdateDestination handles PATCH /v1/admin/destinations/:code.
//
// @Summary      Enable or disable a destination
// @Tags         catalog
// @Accept       json
// @Security     BearerAuth
// @Param        code  path  string                    true  "Destination code"
// @Param        body  body  updateDestinationRequest  true  "New state"
// @Success      204
// @Failure      400   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Router       /v1/admin/destinations/{code} [patch]
func (h *CatalogHandler) UpdateDestination(c echo.Context) error {
	var req updateDestinationRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	if err := h.service.SetDestinationActive(c.Request().Context(), c.Param("code"), *req.Active); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// ListTiers handles GET /v1/admin/destinations/:code/tiers.
//
// @Summary      List a destination's rate tiers, retired ones included
// @Tags         catalog
// @Produce      json
// @Security     BearerAuth
// @Param        code  path      string  true  "Destination code"
// @Success      200   {array}   tierResponse
// @Failure      404   {object}  errorResponse
// @Router       /v1/admin/destinations/{code}/tiers [get]
func (h *CatalogHandler) ListTiers(c echo.Context) error {
	tiers, err := h.service.ListTiers(c.Request().Context(), c.Param("code"))
	if err != nil {
		return err
	}
	out := make([]tierResponse, len(tiers))
	for i, t := range tiers {
		out[i] = toTierResponse(t)
	}
	return c.JSON(http.StatusOK, out)
}

// AddTier handles POST /v1/admin/destinations/:code/tiers.
//
// @Summary      Add a rate tier
// @Description  Bounds are inclusive; a tier overlapping an active one is refused.
// @Tags         catalog
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        code  path      string          true  "Destination code"
// @Param        body  body      addTierRequest  true  "Tier"
// @Success      201   {object}  tierResponse
// @Failure      400   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Router       /v1/admin/destinations/{code}/tiers [post]
func (h *CatalogHandler) AddTier(c echo.Context) error {
	var req addTierRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	tier, err := h.service.AddTier(c.Request().Context(), ports.AddTierInput{
		DestinationCode: c.Param("code"),
		MinWeightKg:     req.MinWeightKg,
		MaxWeightKg:     req.MaxWeightKg,
		PricePerKg:      req.PricePerKg,
		BaseFee:         req.BaseFee,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, toTierResponse(*tier))
}

// DeactivateTier handles DELETE /v1/admin/tiers/:id.
//
// @Summary      Retire a rate tier
// @Tags         catalog
// @Security     BearerAuth
// @Param        id   path  string  true  "Tier id"
// @Success      204
// @Failure      404  {object}  errorResponse
// @Router       /v1/admin/tiers/{id} [delete]
func (h *CatalogHandler) DeactivateTier(c echo.Context) error {
	if err := h.service.DeactivateTier(c.Request().Context(), c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func toDestinationResponse(d domain.Destination) destinationResponse {
	return destinationResponse{Code: d.Code, Name: d.Name, Currency: d.Currency, Active: d.Active}
}

func toTierResponse(t domain.RateTier) tierResponse {
	return tierResponse{
		ID:              t.ID,
		DestinationCode: t.DestinationCode,
		MinWeightKg:     t.MinWeightKg,
		MaxWeightKg:     t.MaxWeightKg,
		PricePerKg:      t.PricePerKg,
		BaseFee:         t.BaseFee,
		Active:          t.Active,
	}
}
