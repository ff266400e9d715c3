package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/expresslane/courier-booking/internal/core/domain"
	"github.com/expresslane/courier-booking/internal/core/ports"
	"github.com/expresslane/courier-booking/internal/core/pricing"
	"github.com/expresslane/courier-booking/internal/core/tracking"
	"github.com/expresslane/courier-booking/internal/pkg/metrics"
)

const (
	defaultPageLimit = 20
	maxPageLimit     = 100
)

type BookingService struct {
	repo      ports.ShipmentRepository
	pricing   ports.PricingService
	allocator *tracking.Allocator
	scheduler ports.RollupScheduler
	publisher ports.EventPublisher
	now       func() time.Time
	logger    zerolog.Logger
}

// NewBookingService wires the booking use case. scheduler and publisher may
// be nil, in which case rollups are left to the nightly repair and no event
// is announced.
func NewBookingService(
	repo ports.ShipmentRepository,
	pricingSvc ports.PricingService,
	allocator *tracking.Allocator,
	scheduler ports.RollupScheduler,
	publisher ports.EventPublisher,
	logger zerolog.Logger,
) *BookingService {
	if scheduler == nil {
		scheduler = nopScheduler{}
	}
	if publisher == nil {
		publisher = nopPublisher{}
	}
	return &BookingService{
		repo:      repo,
		pricing:   pricingSvc,
		allocator: allocator,
		scheduler: scheduler,
		publisher: publisher,
		now:       time.Now,
		logger:    logger,
	}
}

// Book prices the package, allocates a tracking id and persists the shipment
// in one step. If an idempotency key is provided and already seen, the
// previously booked shipment is returned without side effects. Pricing
// rejections are returned unchanged and nothing is stored.
func (s *BookingService) Book(ctx context.Context, in ports.BookShipmentInput) (*ports.BookingResult, error) {
	if in.IdempotencyKey != "" {
		existing, err := s.repo.FindByIdempotencyKey(ctx, in.IdempotencyKey)
		if err == nil && existing != nil {
			s.logger.Info().Str("idempotency_key", in.IdempotencyKey).Str("tracking_id", existing.TrackingID).Msg("idempotent replay")
			return &ports.BookingResult{Shipment: existing, AlreadyExisted: true}, nil
		}
	}

	docType, err := parseDocumentType(in.DocumentType)
	if err != nil {
		return nil, fmt.Errorf("book shipment: %w", err)
	}

	quote, err := s.pricing.Quote(ctx, in.Package)
	if err != nil {
		return nil, err
	}

	now := s.now()
	shipment := &domain.Shipment{
		ID:       uuid.NewString(),
		ClientID: in.ClientID,
		Sender:   toParty(in.Sender),
		Receiver: toParty(in.Receiver),
		Dimensions: domain.Dimensions{
			LengthCm: in.Package.LengthCm,
			WidthCm:  in.Package.WidthCm,
			HeightCm: in.Package.HeightCm,
		},
		ActualWeightKg:      in.Package.ActualWeightKg,
		DocumentType:        docType,
		UndertakingAccepted: in.UndertakingAccepted,
		UndertakingText:     in.UndertakingText,
		Status:              domain.StatusBooked,
		CreatedAt:           now.UTC(),
		IdempotencyKey:      in.IdempotencyKey,
		StatusHistory: []domain.StatusHistoryEntry{
			{Status: domain.StatusBooked, Timestamp: now.UTC(), Notes: "booked"},
		},
	}
	shipment.ApplyQuote(*quote)
	shipment.FinalPriceBase = pricing.ToBaseCurrency(quote.FinalPrice, quote.Currency)

	alloc, err := s.allocator.Allocate(ctx, now, func(ctx context.Context, id string) error {
		shipment.TrackingID = id
		return s.repo.Create(ctx, shipment)
	})
	if err != nil {
		if errors.Is(err, domain.ErrDuplicateIdempotencyKey) && in.IdempotencyKey != "" {
			// A concurrent request with the same key committed first.
			if existing, ferr := s.repo.FindByIdempotencyKey(ctx, in.IdempotencyKey); ferr == nil && existing != nil {
				s.logger.Info().Str("idempotency_key", in.IdempotencyKey).Str("tracking_id", existing.TrackingID).Msg("idempotent replay after insert conflict")
				return &ports.BookingResult{Shipment: existing, AlreadyExisted: true}, nil
			}
		}
		if errors.Is(err, domain.ErrAllocationExhausted) {
			metrics.TrackingAllocationsTotal.WithLabelValues("exhausted").Inc()
		}
		s.logger.Error().Err(err).Str("client_id", in.ClientID).Msg("failed to book shipment")
		return nil, fmt.Errorf("book shipment: %w", err)
	}
	shipment.TrackingID = alloc.ID

	path := "sequential"
	if alloc.Fallback {
		path = "fallback"
	}
	metrics.TrackingAllocationsTotal.WithLabelValues(path).Inc()
	metrics.TrackingAllocationAttempts.Observe(float64(alloc.Attempts))
	metrics.ShipmentsBookedTotal.WithLabelValues(shipment.DestinationCode).Inc()

	s.scheduler.Schedule(shipment.CreatedAt)

	if err := s.publisher.PublishBooked(ctx, shipment); err != nil {
		s.logger.Warn().Err(err).Str("tracking_id", shipment.TrackingID).Msg("failed to publish booking event")
	}

	s.logger.Info().
		Str("tracking_id", shipment.TrackingID).
		Str("client_id", in.ClientID).
		Str("destination", shipment.DestinationCode).
		Float64("final_price", shipment.FinalPrice).
		Bool("fallback_id", alloc.Fallback).
		Msg("shipment booked")

	return &ports.BookingResult{Shipment: shipment, FallbackID: alloc.Fallback}, nil
}

// GetShipment returns one shipment. Clients only see their own.
func (s *BookingService) GetShipment(ctx context.Context, in ports.GetShipmentInput) (*domain.Shipment, error) {
	clientFilter, err := clientScope(in.Role, in.ClientID)
	if err != nil {
		return nil, err
	}
	return s.repo.FindByTrackingID(ctx, in.TrackingID, clientFilter)
}

// ListShipments pages through shipments matching the input filters.
func (s *BookingService) ListShipments(ctx context.Context, in ports.ListShipmentsInput) (*ports.ListShipmentsResult, error) {
	clientFilter, err := clientScope(in.Role, in.ClientID)
	if err != nil {
		return nil, err
	}

	page := in.Page
	if page < 1 {
		page = 1
	}
	limit := in.Limit
	if limit <= 0 {
		limit = defaultPageLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}

	items, total, err := s.repo.List(ctx, ports.ListShipmentsFilter{
		ClientID:        clientFilter,
		Status:          in.Status,
		DestinationCode: normalizeCode(in.DestinationCode),
		Search:          strings.TrimSpace(in.Search),
		DateFrom:        in.DateFrom,
		DateTo:          in.DateTo,
		Page:            page,
		Limit:           limit,
	})
	if err != nil {
		return nil, fmt.Errorf("list shipments: %w", err)
	}

	return &ports.ListShipmentsResult{
		Items:      items,
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: int(math.Ceil(float64(total) / float64(limit))),
	}, nil
}

// clientScope returns the client_id filter for role: none for admins, the
// caller's own id for clients.
func clientScope(role, clientID string) (string, error) {
	switch role {
	case domain.RoleAdmin:
		return "", nil
	case domain.RoleClient:
		if clientID == "" {
			return "", domain.ErrForbidden
		}
		return clientID, nil
	default:
		return "", domain.ErrForbidden
	}
}

func parseDocumentType(v string) (domain.DocumentType, error) {
	switch dt := domain.DocumentType(strings.ToLower(strings.TrimSpace(v))); dt {
	case "":
		return domain.DocumentNonDocs, nil
	case domain.DocumentDocs, domain.DocumentNonDocs:
		return dt, nil
	default:
		return "", fmt.Errorf("%w: document_type must be docs or non_docs", domain.ErrInvalidInput)
	}
}

func toParty(p ports.PartyInput) domain.Party {
	return domain.Party{
		Name:       strings.TrimSpace(p.Name),
		Phone:      strings.TrimSpace(p.Phone),
		NationalID: strings.TrimSpace(p.NationalID),
		Address:    strings.TrimSpace(p.Address),
		PostalCode: strings.TrimSpace(p.PostalCode),
	}
}

// TrackingRegistry exposes the shipment store as the allocator's view of
// issued tracking ids.
func TrackingRegistry(repo ports.ShipmentRepository) tracking.Registry {
	return trackingRegistry{repo: repo}
}

type trackingRegistry struct {
	repo ports.ShipmentRepository
}

func (r trackingRegistry) Issued(ctx context.Context, prefix string) ([]string, error) {
	return r.repo.IssuedTrackingIDs(ctx, prefix)
}

func (r trackingRegistry) Exists(ctx context.Context, id string) (bool, error) {
	return r.repo.TrackingIDExists(ctx, id)
}

type nopScheduler struct{}

func (nopScheduler) Schedule(time.Time) {}

type nopPublisher struct{}

func (nopPublisher) PublishBooked(context.Context, *domain.Shipment) error { return nil }
