package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/expresslane/courier-booking/internal/core/domain"
	"github.com/expresslane/courier-booking/internal/core/ports"
	"github.com/expresslane/courier-booking/internal/core/pricing"
	"github.com/expresslane/courier-booking/internal/pkg/metrics"
)

type PricingService struct {
	catalog ports.CatalogRepository
	logger  zerolog.Logger
}

func NewPricingService(catalog ports.CatalogRepository, logger zerolog.Logger) *PricingService {
	return &PricingService{catalog: catalog, logger: logger}
}

// Quote prices a package for a destination. Measurements are checked before
// the destination is looked up, so malformed input never reaches storage.
func (s *PricingService) Quote(ctx context.Context, in ports.QuoteInput) (*domain.Quote, error) {
	q, err := s.quote(ctx, in)
	if err != nil {
		result := domain.RejectionReason(err)
		if result == "" {
			result = "error"
		}
		metrics.QuotesTotal.WithLabelValues(result).Inc()
		return nil, err
	}
	metrics.QuotesTotal.WithLabelValues("ok").Inc()
	return q, nil
}

func (s *PricingService) quote(ctx context.Context, in ports.QuoteInput) (*domain.Quote, error) {
	m := domain.Measurements{
		LengthCm:       in.LengthCm,
		WidthCm:        in.WidthCm,
		HeightCm:       in.HeightCm,
		ActualWeightKg: in.ActualWeightKg,
		WeightType:     domain.WeightType(strings.ToLower(strings.TrimSpace(in.WeightType))),
	}
	if err := pricing.Validate(m); err != nil {
		return nil, fmt.Errorf("quote: %w", err)
	}

	code := normalizeCode(in.DestinationCode)
	if code == "" {
		return nil, fmt.Errorf("quote: %w: destination is required", domain.ErrInvalidDestination)
	}

	dest, err := s.catalog.FindDestination(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("quote: %w", err)
	}
	tiers, err := s.catalog.ListTiers(ctx, dest.Code, true)
	if err != nil {
		return nil, fmt.Errorf("quote: load tiers: %w", err)
	}

	q, err := pricing.Compute(*dest, tiers, m)
	if err != nil {
		s.logger.Debug().Err(err).Str("destination", code).Msg("quote rejected")
		return nil, fmt.Errorf("quote: %w", err)
	}
	return &q, nil
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
