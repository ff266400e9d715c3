package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/expresslane/courier-booking/internal/core/ports"
	"github.com/expresslane/courier-booking/internal/pkg/metrics"
)

type MaintenanceService struct {
	repo      ports.ShipmentRepository
	refresher ports.RollupRefresher
	// ensureUnique builds the unique tracking id index. Nil skips it.
	ensureUnique func(context.Context) error
	loc          *time.Location
	logger       zerolog.Logger
}

// NewMaintenanceService wires the duplicate cleanup. ensureUnique is run after
// every successful cleanup so storage enforces unique tracking ids from then
// on without a restart.
func NewMaintenanceService(
	repo ports.ShipmentRepository,
	refresher ports.RollupRefresher,
	ensureUnique func(context.Context) error,
	loc *time.Location,
	logger zerolog.Logger,
) *MaintenanceService {
	if loc == nil {
		loc = time.UTC
	}
	return &MaintenanceService{repo: repo, refresher: refresher, ensureUnique: ensureUnique, loc: loc, logger: logger}
}

// CleanupDuplicates keeps the earliest shipment of every tracking id that
// was issued more than once and deletes the others. Rollups of every day
// that lost a shipment are recomputed afterwards.
func (s *MaintenanceService) CleanupDuplicates(ctx context.Context) (*ports.CleanupReport, error) {
	groups, err := s.repo.FindDuplicateTrackingIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("cleanup duplicates: %w", err)
	}

	report := &ports.CleanupReport{Groups: []ports.DuplicateResolution{}, RefreshedDays: []string{}}
	if len(groups) == 0 {
		s.logger.Info().Msg("no duplicate tracking ids found")
		return s.enforceUnique(ctx, report)
	}

	var toDelete []string
	affected := make(map[string]time.Time)
	for _, g := range groups {
		if len(g.Shipments) < 2 {
			continue
		}
		ordered := append(g.Shipments[:0:0], g.Shipments...)
		sort.SliceStable(ordered, func(i, j int) bool {
			if !ordered[i].CreatedAt.Equal(ordered[j].CreatedAt) {
				return ordered[i].CreatedAt.Before(ordered[j].CreatedAt)
			}
			return ordered[i].ID < ordered[j].ID
		})

		res := ports.DuplicateResolution{TrackingID: g.TrackingID, KeptID: ordered[0].ID}
		for _, dup := range ordered[1:] {
			res.RemovedIDs = append(res.RemovedIDs, dup.ID)
			toDelete = append(toDelete, dup.ID)
			key := dup.CreatedAt.In(s.loc).Format(time.DateOnly)
			if _, seen := affected[key]; !seen {
				affected[key] = dup.CreatedAt
			}
		}
		report.Groups = append(report.Groups, res)
	}

	removed, err := s.repo.DeleteByIDs(ctx, toDelete)
	if err != nil {
		return nil, fmt.Errorf("cleanup duplicates: delete: %w", err)
	}
	report.Removed = removed
	metrics.DuplicatesRemovedTotal.Add(float64(removed))

	keys := make([]string, 0, len(affected))
	for k := range affected {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := s.refresher.RefreshFor(ctx, affected[k]); err != nil {
			return report, fmt.Errorf("cleanup duplicates: refresh %s: %w", k, err)
		}
		report.RefreshedDays = append(report.RefreshedDays, k)
	}

	s.logger.Warn().
		Int("groups", len(report.Groups)).
		Int64("removed", removed).
		Strs("days", report.RefreshedDays).
		Msg("duplicate tracking ids cleaned up")
	return s.enforceUnique(ctx, report)
}

func (s *MaintenanceService) enforceUnique(ctx context.Context, report *ports.CleanupReport) (*ports.CleanupReport, error) {
	if s.ensureUnique == nil {
		return report, nil
	}
	if err := s.ensureUnique(ctx); err != nil {
		return report, fmt.Errorf("cleanup duplicates: unique index: %w", err)
	}
	report.TrackingIndexEnsured = true
	s.logger.Info().Msg("unique tracking id index in place")
	return report, nil
}
