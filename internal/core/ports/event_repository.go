package ports

import (
	"context"
	"time"

	"github.com/expresslane/courier-booking/internal/core/domain"
)

// EventRepository handles event persistence and atomic shipment status updates.
type EventRepository interface {
	// UpdateShipmentStatus atomically moves the shipment from status from to
	// status to and appends a history entry carrying notes. When the stored
	// status is no longer from, nothing is written and the error wraps
	// domain.ErrInvalidTransition.
	UpdateShipmentStatus(
		ctx context.Context,
		trackingID string,
		from, to domain.ShipmentStatus,
		ts time.Time,
		notes string,
	) error

	// InsertEvent persists an event to the status_events audit collection.
	InsertEvent(ctx context.Context, event *domain.StatusEvent) error
}
