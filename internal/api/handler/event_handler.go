package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/expresslane/courier-booking/internal/core/ports"
)

// EventHandler applies status updates to shipments.
type EventHandler struct {
	service ports.EventService
}

func NewEventHandler(service ports.EventService) *EventHandler {
	return &EventHandler{service: service}
}

// UpdateStatus handles POST /v1/shipments/:tracking_id/status.
//
// @Summary      Move a shipment to a new status
// @Description  Repeating the same update (status and timestamp) is a no-op.
// @Tags         shipments
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        tracking_id  path      string               true  "Tracking id"
// @Param        body         body      statusUpdateRequest  true  "Status update"
// @Success      200          {object}  acceptedResponse
// @Failure      400          {object}  errorResponse
// @Failure      401          {object}  errorResponse
// @Failure      404          {object}  errorResponse
// @Failure      422          {object}  errorResponse
// @Router       /v1/shipments/{tracking_id}/status [post]
func (h *EventHandler) UpdateStatus(c echo.Context) error {
	role, clientID, err := ctxClaims(c)
	if err != nil {
		return err
	}

	var req statusUpdateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	err = h.service.Process(c.Request().Context(), ports.StatusUpdateInput{
		TrackingID: c.Param("tracking_id"),
		Status:     req.Status,
		Timestamp:  req.Timestamp,
		Source:     req.Source,
		Notes:      req.Notes,
		Role:       role,
		ClientID:   clientID,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, acceptedResponse{Message: "status updated"})
}

// BulkUpdateStatus handles POST /v1/admin/shipments/status.
//
// @Summary      Apply one status action to many shipments
// @Description  Every shipment is checked on its own; the response reports each result.
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      bulkStatusRequest  true  "Bulk action"
// @Success      200   {object}  bulkStatusResponse
// @Failure      400   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Router       /v1/admin/shipments/status [post]
func (h *EventHandler) BulkUpdateStatus(c echo.Context) error {
	role, clientID, err := ctxClaims(c)
	if err != nil {
		return err
	}

	var req bulkStatusRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	res, err := h.service.ProcessBulk(c.Request().Context(), ports.BulkStatusInput{
		TrackingIDs: req.TrackingIDs,
		Action:      req.Action,
		Timestamp:   req.Timestamp,
		Source:      req.Source,
		Notes:       req.Notes,
		Role:        role,
		ClientID:    clientID,
	})
	if err != nil {
		return err
	}

	resp := bulkStatusResponse{Status: res.Status, Updated: res.Updated, Failed: res.Failed, Items: make([]bulkStatusItem, len(res.Items))}
	for i, it := range res.Items {
		resp.Items[i] = bulkStatusItem(it)
	}
	return c.JSON(http.StatusOK, resp)
}
