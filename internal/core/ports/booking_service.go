package ports

import (
	"context"
	"time"

	"github.com/expresslane/courier-booking/internal/core/domain"
)

// QuoteInput is what a caller supplies to price a package.
type QuoteInput struct {
	DestinationCode string
	LengthCm        float64
	WidthCm         float64
	HeightCm        float64
	ActualWeightKg  float64
	WeightType      string
}

// PartyInput holds sender or receiver details.
type PartyInput struct {
	Name       string
	Phone      string
	NationalID string
	Address    string
	PostalCode string
}

// BookShipmentInput carries all data needed to book a new shipment.
type BookShipmentInput struct {
	Package             QuoteInput
	Sender              PartyInput
	Receiver            PartyInput
	DocumentType        string
	UndertakingAccepted bool
	UndertakingText     string
	ClientID            string
	IdempotencyKey      string
}

// BookingResult is returned by the service after booking a shipment.
type BookingResult struct {
	Shipment *domain.Shipment
	// AlreadyExisted is true when the Idempotency-Key matched an existing shipment.
	AlreadyExisted bool
	// FallbackID is true when the tracking id came from the fallback path.
	FallbackID bool
}

// GetShipmentInput carries the parameters needed to retrieve a single shipment.
type GetShipmentInput struct {
	TrackingID string
	// Role and ClientID are used to enforce RBAC: "client" role only sees own shipments.
	Role     string
	ClientID string
}

// ListShipmentsInput carries all parameters for the list endpoint.
type ListShipmentsInput struct {
	Role            string
	ClientID        string
	Status          string
	DestinationCode string
	Search          string
	DateFrom        time.Time
	DateTo          time.Time
	Page            int
	Limit           int
}

// ListShipmentsResult is returned by ListShipments.
type ListShipmentsResult struct {
	Items      []*domain.Shipment
	Total      int64
	Page       int
	Limit      int
	TotalPages int
}

// PricingService prices packages without side effects.
type PricingService interface {
	Quote(ctx context.Context, input QuoteInput) (*domain.Quote, error)
}

// BookingService defines use-case operations for shipments.
type BookingService interface {
	Book(ctx context.Context, input BookShipmentInput) (*BookingResult, error)
	GetShipment(ctx context.Context, input GetShipmentInput) (*domain.Shipment, error)
	ListShipments(ctx context.Context, input ListShipmentsInput) (*ListShipmentsResult, error)
}

// EventPublisher announces booked shipments to downstream consumers.
type EventPublisher interface {
	PublishBooked(ctx context.Context, s *domain.Shipment) error
}
