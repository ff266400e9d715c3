package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/expresslane/courier-booking/internal/core/aggregation"
	"github.com/expresslane/courier-booking/internal/core/domain"
	"github.com/expresslane/courier-booking/internal/core/ports"
	"github.com/expresslane/courier-booking/internal/pkg/metrics"
)

type RollupService struct {
	shipments ports.ShipmentRepository
	rollups   ports.RollupRepository
	loc       *time.Location
	now       func() time.Time
	logger    zerolog.Logger
}

// NewRollupService returns a RollupService. Day and month boundaries are
// taken in loc (UTC when nil).
func NewRollupService(shipments ports.ShipmentRepository, rollups ports.RollupRepository, loc *time.Location, logger zerolog.Logger) *RollupService {
	if loc == nil {
		loc = time.UTC
	}
	return &RollupService{
		shipments: shipments,
		rollups:   rollups,
		loc:       loc,
		now:       time.Now,
		logger:    logger,
	}
}

// RefreshDaily recomputes the record of the day containing date from the
// shipments created in [start of day, start of next day).
func (s *RollupService) RefreshDaily(ctx context.Context, date time.Time) (*domain.DailyRecord, error) {
	started := time.Now()
	defer func() { metrics.RollupRefreshDuration.WithLabelValues("daily").Observe(time.Since(started).Seconds()) }()

	t := date.In(s.loc)
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, s.loc)
	end := start.AddDate(0, 0, 1)

	// Stamped before the read so a slower refresh over older data cannot
	// overwrite a record built from a later read.
	asOf := s.now().UTC()
	list, err := s.shipments.ListCreatedBetween(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("refresh daily %s: %w", start.Format(time.DateOnly), err)
	}

	rec := aggregation.Daily(start, list)
	rec.RefreshedAt = asOf
	if err := s.rollups.UpsertDaily(ctx, rec); err != nil {
		return nil, fmt.Errorf("refresh daily %s: store: %w", start.Format(time.DateOnly), err)
	}

	s.logger.Debug().Str("date", start.Format(time.DateOnly)).Int("shipments", rec.TotalShipments).Msg("daily rollup refreshed")
	return &rec, nil
}

// RefreshMonthly recomputes the record of year/month. Growth is measured
// against the stored record of the previous month.
func (s *RollupService) RefreshMonthly(ctx context.Context, year, month int) (*domain.MonthlyRecord, error) {
	if month < 1 || month > 12 {
		return nil, fmt.Errorf("refresh monthly: %w: month %d out of range", domain.ErrInvalidInput, month)
	}

	started := time.Now()
	defer func() {
		metrics.RollupRefreshDuration.WithLabelValues("monthly").Observe(time.Since(started).Seconds())
	}()

	start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, s.loc)
	end := start.AddDate(0, 1, 0)

	asOf := s.now().UTC()
	list, err := s.shipments.ListCreatedBetween(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("refresh monthly %d-%02d: %w", year, month, err)
	}

	prevYear, prevMonth := domain.PreviousMonth(year, month)
	prev, err := s.rollups.FindMonthly(ctx, prevYear, prevMonth)
	if err != nil {
		return nil, fmt.Errorf("refresh monthly %d-%02d: previous month: %w", year, month, err)
	}

	rec := aggregation.Monthly(year, month, list, prev)
	rec.RefreshedAt = asOf
	if err := s.rollups.UpsertMonthly(ctx, rec); err != nil {
		return nil, fmt.Errorf("refresh monthly %d-%02d: store: %w", year, month, err)
	}

	s.logger.Debug().Int("year", year).Int("month", month).Int("shipments", rec.TotalShipments).Msg("monthly rollup refreshed")
	return &rec, nil
}

// RefreshFor refreshes the day and the month containing t concurrently.
func (s *RollupService) RefreshFor(ctx context.Context, t time.Time) error {
	local := t.In(s.loc)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		_, err := s.RefreshDaily(gctx, local)
		return err
	})
	g.Go(func() error {
		_, err := s.RefreshMonthly(gctx, local.Year(), int(local.Month()))
		return err
	})
	return g.Wait()
}

// ListDaily returns stored daily records between from and to inclusive.
func (s *RollupService) ListDaily(ctx context.Context, from, to time.Time) ([]domain.DailyRecord, error) {
	if to.Before(from) {
		return nil, fmt.Errorf("list daily: %w: to is before from", domain.ErrInvalidInput)
	}
	return s.rollups.ListDaily(ctx, from.In(s.loc), to.In(s.loc))
}

// ListMonthly returns the stored months of year and their mean growth.
func (s *RollupService) ListMonthly(ctx context.Context, year int) (*ports.MonthlyReport, error) {
	months, err := s.rollups.ListMonthly(ctx, year)
	if err != nil {
		return nil, fmt.Errorf("list monthly %d: %w", year, err)
	}
	return &ports.MonthlyReport{
		Year:          year,
		Months:        months,
		AverageGrowth: aggregation.AverageGrowth(months),
	}, nil
}
