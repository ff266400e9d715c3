package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/expresslane/courier-booking/internal/core/domain"
	"github.com/expresslane/courier-booking/internal/core/ports"
)

// ReportHandler serves the daily and monthly rollups to admins.
type ReportHandler struct {
	service ports.RollupService
	loc     *time.Location
}

func NewReportHandler(service ports.RollupService, loc *time.Location) *ReportHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &ReportHandler{service: service, loc: loc}
}

// Daily handles GET /v1/admin/reports/daily.
//
// @Summary      Daily rollups in a date range
// @Tags         reports
// @Produce      json
// @Security     BearerAuth
// @Param        from  query     string  true  "First day (YYYY-MM-DD)"
// @Param        to    query     string  true  "Last day (YYYY-MM-DD)"
// @Success      200   {object}  dailyReportResponse
// @Failure      400   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Router       /v1/admin/reports/daily [get]
func (h *ReportHandler) Daily(c echo.Context) error {
	var q dailyReportQuery
	if err := c.Bind(&q); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid query")
	}
	if err := c.Validate(&q); err != nil {
		return err
	}
	from, err := parseBound("from", q.From, h.loc, false)
	if err != nil {
		return err
	}
	to, err := parseBound("to", q.To, h.loc, true)
	if err != nil {
		return err
	}

	records, err := h.service.ListDaily(c.Request().Context(), from, to)
	if err != nil {
		return err
	}
	out := dailyReportResponse{Data: make([]dailyRecordResponse, len(records))}
	for i, r := range records {
		out.Data[i] = h.toDailyResponse(r)
	}
	return c.JSON(http.StatusOK, out)
}

// Monthly handles GET /v1/admin/reports/monthly.
//
// @Summary      Monthly rollups of a year with average growth
// @Tags         reports
// @Produce      json
// @Security     BearerAuth
// @Param        year  query     int  true  "Year"
// @Success      200   {object}  monthlyReportResponse
// @Failure      400   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Router       /v1/admin/reports/monthly [get]
func (h *ReportHandler) Monthly(c echo.Context) error {
	var q monthlyReportQuery
	if err := c.Bind(&q); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid query")
	}
	if err := c.Validate(&q); err != nil {
		return err
	}

	report, err := h.service.ListMonthly(c.Request().Context(), q.Year)
	if err != nil {
		return err
	}
	out := monthlyReportResponse{
		Year:          report.Year,
		AverageGrowth: report.AverageGrowth,
		Data:          make([]monthlyRecordResponse, len(report.Months)),
	}
	for i, m := range report.Months {
		out.Data[i] = toMonthlyResponse(m)
	}
	return c.JSON(http.StatusOK, out)
}

// Refresh handles POST /v1/admin/reports/refresh.
//
// @Summary      Recompute rollups on demand
// @Description  With date, recomputes that day; with year and month, that month. Both may be given.
// @Tags         reports
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      refreshRequest  true  "What to refresh"
// @Success      200   {object}  refreshResponse
// @Failure      400   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Router       /v1/admin/reports/refresh [post]
func (h *ReportHandler) Refresh(c echo.Context) error {
	var req refreshRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	if req.Date == "" && (req.Year == 0 || req.Month == 0) {
		return fmt.Errorf("%w: provide date or year and month", domain.ErrInvalidInput)
	}

	ctx := c.Request().Context()
	var out refreshResponse
	if req.Date != "" {
		day, err := time.ParseInLocation(time.DateOnly, req.Date, h.loc)
		if err != nil {
			return fmt.Errorf("%w: date must be YYYY-MM-DD", domain.ErrInvalidInput)
		}
		rec, err := h.service.RefreshDaily(ctx, day)
		if err != nil {
			return err
		}
		d := h.toDailyResponse(*rec)
		out.Daily = &d
	}
	if req.Year != 0 && req.Month != 0 {
		rec, err := h.service.RefreshMonthly(ctx, req.Year, req.Month)
		if err != nil {
			return err
		}
		m := toMonthlyResponse(*rec)
		out.Monthly = &m
	}
	return c.JSON(http.StatusOK, out)
}

func (h *ReportHandler) toDailyResponse(r domain.DailyRecord) dailyRecordResponse {
	return dailyRecordResponse{
		Date:           r.Date.In(h.loc).Format(time.DateOnly),
		TotalShipments: r.TotalShipments,
		TotalRevenue:   r.TotalRevenue,
		TotalWeightKg:  r.TotalWeightKg,
		AvgOrderValue:  r.AvgOrderValue,
		TopDestination: r.TopDestination,
		RefreshedAt:    r.RefreshedAt.UTC(),
	}
}

func toMonthlyResponse(r domain.MonthlyRecord) monthlyRecordResponse {
	return monthlyRecordResponse{
		Year:           r.Year,
		Month:          r.Month,
		TotalShipments: r.TotalShipments,
		TotalRevenue:   r.TotalRevenue,
		TotalWeightKg:  r.TotalWeightKg,
		AvgOrderValue:  r.AvgOrderValue,
		GrowthRate:     r.GrowthRate,
		TopDestination: r.TopDestination,
		RefreshedAt:    r.RefreshedAt.UTC(),
	}
}
