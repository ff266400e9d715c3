// Command server runs the courier booking HTTP API.
//
//	@title						Courier Booking API
//	@version					1.0
//	@description				Branch-facing API for pricing, booking and tracking international courier shipments.
//	@BasePath					/
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	_ "github.com/expresslane/courier-booking/docs"
	"github.com/expresslane/courier-booking/internal/api"
	"github.com/expresslane/courier-booking/internal/api/handler"
	"github.com/expresslane/courier-booking/internal/core/domain"
	"github.com/expresslane/courier-booking/internal/core/ports"
	"github.com/expresslane/courier-booking/internal/core/service"
	"github.com/expresslane/courier-booking/internal/core/tracking"
	"github.com/expresslane/courier-booking/internal/infrastructure/config"
	mongodb "github.com/expresslane/courier-booking/internal/infrastructure/db/mongo"
	redisdb "github.com/expresslane/courier-booking/internal/infrastructure/db/redis"
	"github.com/expresslane/courier-booking/internal/infrastructure/messaging"
	"github.com/expresslane/courier-booking/internal/infrastructure/queue"
	"github.com/expresslane/courier-booking/internal/jobs"
	"github.com/expresslane/courier-booking/pkg/logger"
)

const shutdownTimeout = 15 * time.Second

func main() {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		logger.Init(logger.Options{})
		bootLog := logger.Get()
		bootLog.Fatal().Err(err).Msg("invalid configuration")
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.LogPretty,
		Service: "courier-booking",
		Env:     cfg.Env,
	})

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server stopped with error")
	}
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	// --- Storage ---
	mongoClient, db, err := mongodb.Connect(ctx, mongodb.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
	if err != nil {
		return err
	}
	defer func() {
		dctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = mongoClient.Disconnect(dctx)
	}()

	rdb, err := redisdb.Connect(ctx, redisdb.Config{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
	if err != nil {
		return err
	}
	defer rdb.Close()

	shipmentRepo := mongodb.NewShipmentRepository(db)
	catalogRepo := mongodb.NewCatalogRepository(db)
	rollupRepo := mongodb.NewRollupRepository(db)
	eventRepo := mongodb.NewEventRepository(db)

	if err := catalogRepo.EnsureIndexes(ctx); err != nil {
		return err
	}
	if err := rollupRepo.EnsureIndexes(ctx); err != nil {
		return err
	}
	if err := shipmentRepo.EnsureIndexes(ctx); err != nil {
		if !errors.Is(err, domain.ErrDuplicateTrackingID) && !errors.Is(err, domain.ErrDuplicateIdempotencyKey) {
			return err
		}
		// Legacy data holds duplicates. The duplicate cleanup endpoint builds
		// the tracking id index once they are gone.
		log.Warn().Err(err).Msg("uniqueness not fully enforced by storage, run duplicate cleanup")
	}

	// --- Services ---
	allocator := tracking.NewAllocator(
		service.TrackingRegistry(shipmentRepo),
		tracking.Options{
			Location:    loc,
			MaxAttempts: cfg.Allocation.MaxAttempts,
			Locker:      redisdb.NewLocker(rdb, cfg.Allocation.LockTTL),
		},
		logger.Component("allocator"),
	)

	rollupSvc := service.NewRollupService(shipmentRepo, rollupRepo, loc, logger.Component("rollups"))

	dispatcher := queue.NewDispatcher(cfg.Rollup.Workers, rollupSvc, loc, logger.Component("rollup_dispatcher"))
	dispatcher.Start(ctx)

	var publisher ports.EventPublisher
	if brokers := cfg.Kafka.BrokerList(); len(brokers) > 0 {
		kp := messaging.NewKafkaPublisher(brokers, cfg.Kafka.BookingTopic)
		defer kp.Close()
		publisher = kp
		log.Info().Strs("brokers", brokers).Str("topic", cfg.Kafka.BookingTopic).Msg("booking events enabled")
	}

	pricingSvc := service.NewPricingService(catalogRepo, logger.Component("pricing"))
	bookingSvc := service.NewBookingService(shipmentRepo, pricingSvc, allocator, dispatcher, publisher, logger.Component("booking"))
	eventSvc := service.NewEventService(shipmentRepo, eventRepo, redisdb.NewDedupChecker(rdb), logger.Component("events"))
	catalogSvc := service.NewCatalogService(catalogRepo, logger.Component("catalog"))
	maintenanceSvc := service.NewMaintenanceService(shipmentRepo, rollupSvc, shipmentRepo.EnsureTrackingIndex, loc, logger.Component("maintenance"))

	// --- Background jobs ---
	repairJob := jobs.NewRollupRepairJob(rollupSvc, cfg.Rollup.RepairSchedule, loc, log)
	if err := repairJob.Start(); err != nil {
		return err
	}
	defer repairJob.Stop()

	// --- HTTP ---
	e := api.NewRouter(api.Dependencies{
		Pricing:     pricingSvc,
		Booking:     bookingSvc,
		Events:      eventSvc,
		Catalog:     catalogSvc,
		Rollups:     rollupSvc,
		Maintenance: maintenanceSvc,
		Health: map[string]handler.Pinger{
			"mongodb": handler.PingFunc(func(ctx context.Context) error { return mongodb.Ping(ctx, db) }),
			"redis":   handler.PingFunc(func(ctx context.Context) error { return redisdb.Ping(ctx, rdb) }),
		},
		JWTSecret: cfg.JWTSecret,
		Location:  loc,
		Logger:    logger.Component("http"),
	})

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Str("timezone", loc.String()).Msg("http server listening")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return e.Shutdown(sctx)
}
