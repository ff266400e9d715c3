package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/expresslane/courier-booking/internal/core/ports"
)

// MaintenanceHandler triggers on-demand data repairs.
type MaintenanceHandler struct {
	service ports.MaintenanceService
}

func NewMaintenanceHandler(service ports.MaintenanceService) *MaintenanceHandler {
	return &MaintenanceHandler{service: service}
}

// CleanupDuplicates handles POST /v1/admin/maintenance/duplicates.
//
// @Summary      Remove shipments sharing a tracking id
// @Description  Keeps the earliest shipment of each duplicated tracking id and refreshes the affected rollups.
// @Tags         maintenance
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  cleanupResponse
// @Failure      403  {object}  errorResponse
// @Router       /v1/admin/maintenance/duplicates [post]
func (h *MaintenanceHandler) CleanupDuplicates(c echo.Context) error {
	report, err := h.service.CleanupDuplicates(c.Request().Context())
	if err != nil {
		return err
	}

	out := cleanupResponse{
		Groups:               make([]duplicateGroupResponse, len(report.Groups)),
		Removed:              report.Removed,
		RefreshedDays:        report.RefreshedDays,
		TrackingIndexEnsured: report.TrackingIndexEnsured,
	}
	for i, g := range report.Groups {
		out.Groups[i] = duplicateGroupResponse{TrackingID: g.TrackingID, KeptID: g.KeptID, RemovedIDs: g.RemovedIDs}
	}
	return c.JSON(http.StatusOK, out)
}
