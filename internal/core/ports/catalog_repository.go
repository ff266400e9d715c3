package ports

import (
	"context"

	"github.com/expresslane/courier-booking/internal/core/domain"
)

// CatalogRepository persists destinations and their rate tiers.
type CatalogRepository interface {
	// CreateDestination fails with domain.ErrDestinationExists on a code clash.
	CreateDestination(ctx context.Context, d *domain.Destination) error
	// FindDestination returns domain.ErrInvalidDestination for unknown codes.
	FindDestination(ctx context.Context, code string) (*domain.Destination, error)
	ListDestinations(ctx context.Context, activeOnly bool) ([]domain.Destination, error)
	SetDestinationActive(ctx context.Context, code string, active bool) error

	ListTiers(ctx context.Context, destinationCode string, activeOnly bool) ([]domain.RateTier, error)
	CreateTier(ctx context.Context, t *domain.RateTier) error
	// DeactivateTier returns domain.ErrTierNotFound for unknown ids.
	DeactivateTier(ctx context.Context, id string) error
}
