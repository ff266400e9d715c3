// Package jobs holds the cron-scheduled background tasks of the service.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/expresslane/courier-booking/internal/core/ports"
)

const repairTimeout = 2 * time.Minute

// RollupRepairJob recomputes yesterday's and today's rollups on a schedule.
// It heals records left stale by dropped refreshes or a crash between a
// booking and its refresh.
type RollupRepairJob struct {
	refresher ports.RollupRefresher
	schedule  string
	loc       *time.Location
	cron      *cron.Cron
	now       func() time.Time
	logger    zerolog.Logger
}

// NewRollupRepairJob creates the job. schedule is a standard five-field cron
// expression evaluated in loc.
func NewRollupRepairJob(refresher ports.RollupRefresher, schedule string, loc *time.Location, logger zerolog.Logger) *RollupRepairJob {
	if loc == nil {
		loc = time.UTC
	}
	return &RollupRepairJob{
		refresher: refresher,
		schedule:  schedule,
		loc:       loc,
		cron:      cron.New(cron.WithLocation(loc)),
		now:       time.Now,
		logger:    logger.With().Str("component", "rollup_repair_job").Logger(),
	}
}

// Start registers the schedule and starts the cron runner.
func (j *RollupRepairJob) Start() error {
	_, err := j.cron.AddFunc(j.schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), repairTimeout)
		defer cancel()
		if err := j.RunOnce(ctx); err != nil {
			j.logger.Error().Err(err).Msg("rollup repair failed")
		}
	})
	if err != nil {
		return fmt.Errorf("rollup repair schedule %q: %w", j.schedule, err)
	}

	j.cron.Start()
	j.logger.Info().Str("schedule", j.schedule).Str("timezone", j.loc.String()).Msg("rollup repair job started")
	return nil
}

// Stop stops the runner and waits for a running repair to finish.
func (j *RollupRepairJob) Stop() {
	<-j.cron.Stop().Done()
	j.logger.Info().Msg("rollup repair job stopped")
}

// RunOnce refreshes yesterday and today. Both are attempted even when the
// first fails.
func (j *RollupRepairJob) RunOnce(ctx context.Context) error {
	today := j.now().In(j.loc)
	yesterday := today.AddDate(0, 0, -1)

	var errs []error
	for _, day := range []time.Time{yesterday, today} {
		if err := j.refresher.RefreshFor(ctx, day); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", day.Format(time.DateOnly), err))
		}
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	j.logger.Info().
		Str("yesterday", yesterday.Format(time.DateOnly)).
		Str("today", today.Format(time.DateOnly)).
		Msg("rollups repaired")
	return nil
}
