package ports

import (
	"context"

	"github.com/expresslane/courier-booking/internal/core/domain"
)

// CreateDestinationInput describes a new destination.
type CreateDestinationInput struct {
	Code     string
	Name     string
	Currency string
	Active   bool
}

// AddTierInput describes a new rate tier for a destination.
type AddTierInput struct {
	DestinationCode string
	MinWeightKg     float64
	MaxWeightKg     float64
	PricePerKg      float64
	BaseFee         float64
}

// CatalogService manages destinations and their rate tiers.
type CatalogService interface {
	CreateDestination(ctx context.Context, input CreateDestinationInput) (*domain.Destination, error)
	ListDestinations(ctx context.Context, activeOnly bool) ([]domain.Destination, error)
	SetDestinationActive(ctx context.Context, code string, active bool) error
	ListTiers(ctx context.Context, code string) ([]domain.RateTier, error)
	AddTier(ctx context.Context, input AddTierInput) (*domain.RateTier, error)
	DeactivateTier(ctx context.Context, id string) error
}
