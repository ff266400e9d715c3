package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/expresslane/courier-booking/internal/core/domain"
	"github.com/expresslane/courier-booking/internal/core/ports"
	"github.com/expresslane/courier-booking/internal/pkg/metrics"
)

// DedupChecker abstracts the idempotency store (Redis).
type DedupChecker interface {
	IsDuplicate(ctx context.Context, trackingID, status string, ts time.Time) (bool, error)
	Mark(ctx context.Context, trackingID, status string, ts time.Time) error
}

type eventService struct {
	shipmentRepo ports.ShipmentRepository
	eventRepo    ports.EventRepository
	dedup        DedupChecker
	now          func() time.Time
	log          zerolog.Logger
}

// NewEventService returns an EventService implementation.
func NewEventService(
	shipmentRepo ports.ShipmentRepository,
	eventRepo ports.EventRepository,
	dedup DedupChecker,
	log zerolog.Logger,
) ports.EventService {
	return &eventService{
		shipmentRepo: shipmentRepo,
		eventRepo:    eventRepo,
		dedup:        dedup,
		now:          time.Now,
		log:          log,
	}
}

// Process validates, deduplicates, and persists a single status update.
func (s *eventService) Process(ctx context.Context, in ports.StatusUpdateInput) error {
	newStatus := domain.ShipmentStatus(in.Status)
	if in.Timestamp.IsZero() {
		in.Timestamp = s.now().UTC()
	}

	clientFilter, err := clientScope(in.Role, in.ClientID)
	if err != nil {
		return fmt.Errorf("process event: %w", err)
	}

	// 1. Idempotency check: duplicates are skipped silently.
	isDup, err := s.dedup.IsDuplicate(ctx, in.TrackingID, in.Status, in.Timestamp)
	if err != nil {
		s.log.Warn().Err(err).Str("tracking", in.TrackingID).Msg("dedup check failed, processing anyway")
	} else if isDup {
		metrics.EventsDedupTotal.WithLabelValues("hit").Inc()
		s.log.Debug().Str("tracking", in.TrackingID).Str("status", in.Status).Msg("duplicate event skipped")
		return nil
	}
	metrics.EventsDedupTotal.WithLabelValues("miss").Inc()

	// 2. Find shipment, scoped to the caller's client for non-admins.
	shipment, err := s.shipmentRepo.FindByTrackingID(ctx, in.TrackingID, clientFilter)
	if err != nil {
		if errors.Is(err, domain.ErrShipmentNotFound) {
			metrics.EventsErrorsTotal.WithLabelValues("shipment_not_found").Inc()
		}
		return fmt.Errorf("process event: %w", err)
	}

	// 3. Validate state machine transition.
	if !shipment.Status.CanTransitionTo(newStatus) {
		metrics.EventsErrorsTotal.WithLabelValues("invalid_transition").Inc()
		return fmt.Errorf("process event: %w (from %s to %s)", domain.ErrInvalidTransition, shipment.Status, newStatus)
	}

	notes := in.Notes
	if notes == "" {
		notes = in.Source
	}

	// 4. Conditional write: a concurrent update that moved the shipment first
	// turns this one into an invalid transition.
	if err := s.eventRepo.UpdateShipmentStatus(ctx, in.TrackingID, shipment.Status, newStatus, in.Timestamp, notes); err != nil {
		if errors.Is(err, domain.ErrInvalidTransition) {
			metrics.EventsErrorsTotal.WithLabelValues("invalid_transition").Inc()
		} else {
			metrics.EventsErrorsTotal.WithLabelValues("update_failed").Inc()
		}
		return fmt.Errorf("process event: update status: %w", err)
	}

	// 5. Marked only once the write landed, so a failed write can be retried.
	if markErr := s.dedup.Mark(ctx, in.TrackingID, in.Status, in.Timestamp); markErr != nil {
		s.log.Warn().Err(markErr).Str("tracking", in.TrackingID).Msg("failed to set dedup key")
	}

	// 6. Insert into audit trail (non-fatal on failure).
	auditEvent := &domain.StatusEvent{
		TrackingID: in.TrackingID,
		Status:     newStatus,
		Timestamp:  in.Timestamp,
		Source:     in.Source,
		Notes:      in.Notes,
	}
	if err := s.eventRepo.InsertEvent(ctx, auditEvent); err != nil {
		s.log.Warn().Err(err).Str("tracking", in.TrackingID).Msg("failed to insert audit event")
	}

	metrics.EventsProcessedTotal.WithLabelValues(in.Status, in.Source).Inc()
	s.log.Info().
		Str("tracking", in.TrackingID).
		Str("status", in.Status).
		Str("source", in.Source).
		Msg("event processed")

	return nil
}

// MaxBulkStatusItems bounds one bulk update request.
const MaxBulkStatusItems = 500

func (s *eventService) ProcessBulk(ctx context.Context, in ports.BulkStatusInput) (*ports.BulkStatusResult, error) {
	if in.Role != domain.RoleAdmin {
		return nil, fmt.Errorf("bulk status update: %w", domain.ErrForbidden)
	}
	status, ok := domain.BulkActionStatus(in.Action)
	if !ok {
		return nil, fmt.Errorf("bulk status update: %w: unknown action %q", domain.ErrInvalidInput, in.Action)
	}
	if len(in.TrackingIDs) == 0 || len(in.TrackingIDs) > MaxBulkStatusItems {
		return nil, fmt.Errorf("bulk status update: %w: between 1 and %d tracking ids required", domain.ErrInvalidInput, MaxBulkStatusItems)
	}
	if in.Timestamp.IsZero() {
		in.Timestamp = s.now().UTC()
	}

	res := &ports.BulkStatusResult{Status: string(status), Items: make([]ports.StatusUpdateOutcome, 0, len(in.TrackingIDs))}
	seen := make(map[string]struct{}, len(in.TrackingIDs))
	for _, raw := range in.TrackingIDs {
		id := strings.TrimSpace(raw)
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}

		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("bulk status update: %w", err)
		}

		outcome := ports.StatusUpdateOutcome{TrackingID: id}
		err := s.Process(ctx, ports.StatusUpdateInput{
			TrackingID: id,
			Status:     string(status),
			Timestamp:  in.Timestamp,
			Source:     in.Source,
			Notes:      in.Notes,
			Role:       in.Role,
			ClientID:   in.ClientID,
		})
		if err != nil {
			outcome.Reason = outcomeReason(err)
			outcome.Error = err.Error()
			res.Failed++
		} else {
			outcome.Applied = true
			res.Updated++
		}
		res.Items = append(res.Items, outcome)
	}

	s.log.Info().
		Str("action", in.Action).
		Int("updated", res.Updated).
		Int("failed", res.Failed).
		Msg("bulk status update")
	return res, nil
}

func outcomeReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrShipmentNotFound):
		return "shipment_not_found"
	case errors.Is(err, domain.ErrInvalidTransition):
		return "invalid_transition"
	case errors.Is(err, domain.ErrForbidden):
		return "forbidden"
	default:
		return "update_failed"
	}
}
