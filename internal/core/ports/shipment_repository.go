package ports

import (
	"context"
	"time"

	"github.com/expresslane/courier-booking/internal/core/domain"
)

// ListShipmentsFilter carries all query parameters for listing shipments.
// ClientID is always enforced by the service layer (RBAC).
type ListShipmentsFilter struct {
	ClientID        string    // empty = no filter (admin); non-empty = scoped to client
	Status          string    // optional: filter by shipment status
	DestinationCode string    // optional: filter by destination
	Search          string    // optional: partial match on tracking_id, sender or receiver name
	DateFrom        time.Time // optional: created_at >= DateFrom
	DateTo          time.Time // optional: created_at <= DateTo
	Page            int       // 1-based
	Limit           int       // max rows per page (capped at 100 by service)
}

// DuplicateGroup is every shipment sharing one tracking id, ordered oldest
// first (created_at, then storage id).
type DuplicateGroup struct {
	TrackingID string
	Shipments  []*domain.Shipment
}

// ShipmentRepository defines persistence operations for shipments.
type ShipmentRepository interface {
	// Create inserts s. A tracking id clash is reported as
	// domain.ErrDuplicateTrackingID.
	Create(ctx context.Context, s *domain.Shipment) error
	// FindByTrackingID retrieves a shipment by tracking id.
	// When clientID is non-empty, the query is additionally filtered by client_id (for RBAC).
	FindByTrackingID(ctx context.Context, trackingID string, clientID string) (*domain.Shipment, error)
	FindByIdempotencyKey(ctx context.Context, key string) (*domain.Shipment, error)
	// List returns a page of shipments matching filter and the total count.
	List(ctx context.Context, filter ListShipmentsFilter) ([]*domain.Shipment, int64, error)

	// IssuedTrackingIDs lists every tracking id starting with prefix.
	IssuedTrackingIDs(ctx context.Context, prefix string) ([]string, error)
	TrackingIDExists(ctx context.Context, trackingID string) (bool, error)

	// ListCreatedBetween returns shipments with from <= created_at < to,
	// ordered by created_at then tracking_id.
	ListCreatedBetween(ctx context.Context, from, to time.Time) ([]*domain.Shipment, error)

	FindDuplicateTrackingIDs(ctx context.Context) ([]DuplicateGroup, error)
	// DeleteByIDs removes shipments by storage id and returns how many went.
	DeleteByIDs(ctx context.Context, ids []string) (int64, error)
}
