package service

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/expresslane/courier-booking/internal/core/domain"
	"github.com/expresslane/courier-booking/internal/core/ports"
)

type CatalogService struct {
	repo   ports.CatalogRepository
	now    func() time.Time
	logger zerolog.Logger
}

func NewCatalogService(repo ports.CatalogRepository, logger zerolog.Logger) *CatalogService {
	return &CatalogService{repo: repo, now: time.Now, logger: logger}
}

// CreateDestination registers a destination. Codes are stored uppercase.
func (s *CatalogService) CreateDestination(ctx context.Context, in ports.CreateDestinationInput) (*domain.Destination, error) {
	d := &domain.Destination{
		Code:     normalizeCode(in.Code),
		Name:     strings.TrimSpace(in.Name),
		Currency: normalizeCode(in.Currency),
		Active:   in.Active,
	}
	if !isLetters(d.Code, 2, 3) {
		return nil, fmt.Errorf("create destination: %w: code must be 2 or 3 letters", domain.ErrInvalidInput)
	}
	if d.Name == "" {
		return nil, fmt.Errorf("create destination: %w: name is required", domain.ErrInvalidInput)
	}
	if !isLetters(d.Currency, 3, 3) {
		return nil, fmt.Errorf("create destination: %w: currency must be a 3-letter code", domain.ErrInvalidInput)
	}

	if err := s.repo.CreateDestination(ctx, d); err != nil {
		return nil, fmt.Errorf("create destination: %w", err)
	}
	s.logger.Info().Str("code", d.Code).Str("currency", d.Currency).Msg("destination created")
	return d, nil
}

func (s *CatalogService) ListDestinations(ctx context.Context, activeOnly bool) ([]domain.Destination, error) {
	return s.repo.ListDestinations(ctx, activeOnly)
}

func (s *CatalogService) SetDestinationActive(ctx context.Context, code string, active bool) error {
	if err := s.repo.SetDestinationActive(ctx, normalizeCode(code), active); err != nil {
		return fmt.Errorf("set destination active: %w", err)
	}
	s.logger.Info().Str("code", normalizeCode(code)).Bool("active", active).Msg("destination updated")
	return nil
}

// ListTiers returns every tier of a destination, retired ones included.
func (s *CatalogService) ListTiers(ctx context.Context, code string) ([]domain.RateTier, error) {
	dest, err := s.repo.FindDestination(ctx, normalizeCode(code))
	if err != nil {
		return nil, fmt.Errorf("list tiers: %w", err)
	}
	return s.repo.ListTiers(ctx, dest.Code, false)
}

// AddTier appends a tier to a destination's table. A tier that shares any
// weight with an active tier of the same destination is refused.
func (s *CatalogService) AddTier(ctx context.Context, in ports.AddTierInput) (*domain.RateTier, error) {
	for _, v := range []float64{in.MinWeightKg, in.MaxWeightKg, in.PricePerKg, in.BaseFee} {
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return nil, fmt.Errorf("add tier: %w: weights and prices must be finite and non-negative", domain.ErrInvalidInput)
		}
	}
	if in.MaxWeightKg < in.MinWeightKg {
		return nil, fmt.Errorf("add tier: %w: max weight is below min weight", domain.ErrInvalidInput)
	}

	dest, err := s.repo.FindDestination(ctx, normalizeCode(in.DestinationCode))
	if err != nil {
		return nil, fmt.Errorf("add tier: %w", err)
	}

	tier := &domain.RateTier{
		ID:              uuid.NewString(),
		DestinationCode: dest.Code,
		MinWeightKg:     in.MinWeightKg,
		MaxWeightKg:     in.MaxWeightKg,
		PricePerKg:      in.PricePerKg,
		BaseFee:         in.BaseFee,
		Active:          true,
		CreatedAt:       s.now().UTC(),
	}

	active, err := s.repo.ListTiers(ctx, dest.Code, true)
	if err != nil {
		return nil, fmt.Errorf("add tier: load tiers: %w", err)
	}
	for _, existing := range active {
		if existing.Overlaps(*tier) {
			return nil, fmt.Errorf("add tier: %w: [%.2f, %.2f] meets tier %s [%.2f, %.2f]",
				domain.ErrTierOverlap, tier.MinWeightKg, tier.MaxWeightKg, existing.ID, existing.MinWeightKg, existing.MaxWeightKg)
		}
	}

	if err := s.repo.CreateTier(ctx, tier); err != nil {
		return nil, fmt.Errorf("add tier: %w", err)
	}
	s.logger.Info().Str("destination", dest.Code).Str("tier_id", tier.ID).Msg("rate tier added")
	return tier, nil
}

func (s *CatalogService) DeactivateTier(ctx context.Context, id string) error {
	if err := s.repo.DeactivateTier(ctx, strings.TrimSpace(id)); err != nil {
		return fmt.Errorf("deactivate tier: %w", err)
	}
	s.logger.Info().Str("tier_id", id).Msg("rate tier retired")
	return nil
}

func isLetters(s string, minLen, maxLen int) bool {
	if len(s) < minLen || len(s) > maxLen {
		return false
	}
	for _, r := range s {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}
