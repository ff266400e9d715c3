package domain

import "time"

// Destination is a country a branch can ship to.
type Destination struct {
	Code     string `json:"code" bson:"_id"`
	Name     string `json:"name" bson:"name"`
	Currency string `json:"currency" bson:"currency"`
	Active   bool   `json:"active" bson:"active"`
}

// RateTier is a weight-bound price schedule for a destination. Both bounds
// are inclusive. Tiers are never edited once created, only deactivated.
type RateTier struct {
	ID              string    `json:"id" bson:"_id"`
	DestinationCode string    `json:"destination_code" bson:"destination_code"`
	MinWeightKg     float64   `json:"min_weight_kg" bson:"min_weight_kg"`
	MaxWeightKg     float64   `json:"max_weight_kg" bson:"max_weight_kg"`
	PricePerKg      float64   `json:"price_per_kg" bson:"price_per_kg"`
	BaseFee         float64   `json:"base_fee" bson:"base_fee"`
	Active          bool      `json:"active" bson:"active"`
	CreatedAt       time.Time `json:"created_at" bson:"created_at"`
}

// Contains reports whether w falls inside the tier's inclusive range.
func (t RateTier) Contains(w float64) bool {
	return t.MinWeightKg <= w && w <= t.MaxWeightKg
}

// Overlaps reports whether two tier ranges share at least one weight.
func (t RateTier) Overlaps(o RateTier) bool {
	return t.MinWeightKg <= o.MaxWeightKg && o.MinWeightKg <= t.MaxWeightKg
}

// Measurements are the raw package inputs to pricing.
type Measurements struct {
	LengthCm       float64
	WidthCm        float64
	HeightCm       float64
	ActualWeightKg float64
	WeightType     WeightType
}

// Quote is the priced result for a package. It is never persisted on its
// own; its fields are copied into a Shipment.
type Quote struct {
	DestinationCode    string     `json:"destination_code"`
	DestinationName    string     `json:"destination_name"`
	TierID             string     `json:"tier_id"`
	WeightType         WeightType `json:"weight_type"`
	VolumetricWeightKg float64    `json:"volumetric_weight_kg"`
	ChargeableWeightKg float64    `json:"chargeable_weight_kg"`
	BasePrice          float64    `json:"base_price"`
	TaxAmount          float64    `json:"tax_amount"`
	FinalPrice         float64    `json:"final_price"`
	Currency           string     `json:"currency"`
}
