// Package pricing turns package measurements into a priced quote using a
// destination's rate tiers. Everything here is pure: callers look the
// destination and tiers up and pass them in.
package pricing

import (
	"fmt"
	"math"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/expresslane/courier-booking/internal/core/domain"
)

const (
	// VolumetricDivisor converts cm³ to volumetric kilograms.
	VolumetricDivisor = 5000.0
	// TaxRate is the flat sales tax applied on the base price.
	TaxRate = 0.18
)

// VolumetricWeight returns (l*w*h)/5000, unrounded.
func VolumetricWeight(lengthCm, widthCm, heightCm float64) float64 {
	return (lengthCm * widthCm * heightCm) / VolumetricDivisor
}

// ChargeableWeight is the higher of actual and volumetric weight.
func ChargeableWeight(actualKg, volumetricKg float64) float64 {
	return math.Max(actualKg, volumetricKg)
}

// Compute prices m for dest using tiers. Tiers of other destinations and
// inactive tiers are ignored, so callers may pass an unfiltered slice.
func Compute(dest domain.Destination, tiers []domain.RateTier, m domain.Measurements) (domain.Quote, error) {
	if err := Validate(m); err != nil {
		return domain.Quote{}, err
	}
	if !dest.Active || dest.Currency == "" {
		return domain.Quote{}, fmt.Errorf("%w: %q is not available", domain.ErrInvalidDestination, dest.Code)
	}

	weightType := m.WeightType
	if weightType == "" {
		weightType = domain.WeightActual
	}

	volumetric := VolumetricWeight(m.LengthCm, m.WidthCm, m.HeightCm)
	chargeable := ChargeableWeight(m.ActualWeightKg, volumetric)

	tier, ok := SelectTier(dest.Code, tiers, chargeable)
	if !ok {
		return domain.Quote{}, fmt.Errorf("%w: %s at %.2f kg", domain.ErrNoTierFound, dest.Code, chargeable)
	}

	base := chargeable*tier.PricePerKg + tier.BaseFee
	tax := base * TaxRate
	final := base + tax

	return domain.Quote{
		DestinationCode:    dest.Code,
		DestinationName:    dest.Name,
		TierID:             tier.ID,
		WeightType:         weightType,
		VolumetricWeightKg: Round2(volumetric),
		ChargeableWeightKg: Round2(chargeable),
		BasePrice:          Round2(base),
		TaxAmount:          Round2(tax),
		FinalPrice:         Round2(final),
		Currency:           dest.Currency,
	}, nil
}

// SelectTier returns the active tier of destCode containing weight. When
// several match, the one with the lowest minimum wins (then lowest maximum,
// then ID) so overlapping tables still price deterministically.
func SelectTier(destCode string, tiers []domain.RateTier, weight float64) (domain.RateTier, bool) {
	var matches []domain.RateTier
	for _, t := range tiers {
		if !t.Active || t.DestinationCode != destCode {
			continue
		}
		if t.Contains(weight) {
			matches = append(matches, t)
		}
	}
	if len(matches) == 0 {
		return domain.RateTier{}, false
	}

	sort.SliceStable(matches, func(i, j int) bool {
		a, b := matches[i], matches[j]
		if a.MinWeightKg != b.MinWeightKg {
			return a.MinWeightKg < b.MinWeightKg
		}
		if a.MaxWeightKg != b.MaxWeightKg {
			return a.MaxWeightKg < b.MaxWeightKg
		}
		return a.ID < b.ID
	})
	return matches[0], true
}

// Round2 rounds half away from zero to two decimal places.
func Round2(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

// Validate checks that every measurement is a finite positive number and
// that the weight type hint is known.
func Validate(m domain.Measurements) error {
	fields := []struct {
		name  string
		value float64
	}{
		{"length", m.LengthCm},
		{"width", m.WidthCm},
		{"height", m.HeightCm},
		{"actual_weight", m.ActualWeightKg},
	}
	for _, f := range fields {
		if math.IsNaN(f.value) || math.IsInf(f.value, 0) || f.value <= 0 {
			return fmt.Errorf("%w: %s must be a positive number", domain.ErrInvalidInput, f.name)
		}
	}

	switch m.WeightType {
	case "", domain.WeightActual, domain.WeightVolumetric:
		return nil
	default:
		return fmt.Errorf("%w: weight_type must be actual or volumetric", domain.ErrInvalidInput)
	}
}
