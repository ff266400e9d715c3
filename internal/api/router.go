package api

import (
	"time"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	"github.com/expresslane/courier-booking/internal/api/handler"
	"github.com/expresslane/courier-booking/internal/api/middleware"
	"github.com/expresslane/courier-booking/internal/core/domain"
	"github.com/expresslane/courier-booking/internal/core/ports"
)

// Dependencies are the services the HTTP layer exposes.
type Dependencies struct {
	Pricing     ports.PricingService
	Booking     ports.BookingService
	Events      ports.EventService
	Catalog     ports.CatalogService
	Rollups     ports.RollupService
	Maintenance ports.MaintenanceService
	// Health maps a dependency name to its readiness check.
	Health map[string]handler.Pinger

	JWTSecret string
	Location  *time.Location
	Logger    zerolog.Logger
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Dependencies) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Logger)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(deps.Logger))
	e.Use(echoprometheus.NewMiddleware("courier_http"))

	// --- Handlers ---
	quoteHandler := handler.NewQuoteHandler(deps.Pricing)
	shipmentHandler := handler.NewShipmentHandler(deps.Booking, deps.Location)
	eventHandler := handler.NewEventHandler(deps.Events)
	catalogHandler := handler.NewCatalogHandler(deps.Catalog)
	reportHandler := handler.NewReportHandler(deps.Rollups, deps.Location)
	maintenanceHandler := handler.NewMaintenanceHandler(deps.Maintenance)
	healthHandler := handler.NewHealthHandler(deps.Health)

	// --- Unauthenticated ---
	e.GET("/health", healthHandler.Liveness)        // process is up
	e.GET("/health/ready", healthHandler.Readiness) // mongo and redis answer
	e.GET("/metrics", echoprometheus.NewHandler())
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	// --- Branch staff and admins ---
	v1 := e.Group("/v1", middleware.Auth(deps.JWTSecret), middleware.RBAC(domain.RoleAdmin, domain.RoleClient))
	v1.POST("/quotes", quoteHandler.Quote)
	v1.POST("/shipments", shipmentHandler.Create)
	v1.GET("/shipments", shipmentHandler.List)
	v1.GET("/shipments/:tracking_id", shipmentHandler.Get)
	v1.POST("/shipments/:tracking_id/status", eventHandler.UpdateStatus)
	v1.GET("/destinations", catalogHandler.ListDestinations)

	// --- Admins only ---
	admin := v1.Group("/admin", middleware.RBAC(domain.RoleAdmin))
	admin.POST("/destinations", catalogHandler.CreateDestination)
	admin.PATCH("/destinations/:code", catalogHandler.UpdateDestination)
	admin.GET("/destinations/:code/tiers", catalogHandler.ListTiers)
	admin.POST("/destinations/:code/tiers", catalogHandler.AddTier)
	admin.DELETE("/tiers/:id", catalogHandler.DeactivateTier)
	admin.POST("/shipments/status", eventHandler.BulkUpdateStatus)
	admin.GET("/reports/daily", reportHandler.Daily)
	admin.GET("/reports/monthly", reportHandler.Monthly)
	admin.POST("/reports/refresh", reportHandler.Refresh)
	admin.POST("/maintenance/duplicates", maintenanceHandler.CleanupDuplicates)

	return e
}

// requestLogger writes one zerolog line per request.
func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogURI:       true,
		LogStatus:    true,
		LogMethod:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(_ echo.Context, v echomiddleware.RequestLoggerValues) error {
			ev := log.Info()
			if v.Status >= 500 {
				ev = log.Error().Err(v.Error)
			}
			ev.Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	})
}
