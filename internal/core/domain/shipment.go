package domain

import (
	"time"
)

// ShipmentStatus represents the lifecycle state of a shipment.
type ShipmentStatus string

const (
	StatusBooked         ShipmentStatus = "booked"
	StatusInTransit      ShipmentStatus = "in_transit"
	StatusOutForDelivery ShipmentStatus = "out_for_delivery"
	StatusDelivered      ShipmentStatus = "delivered"
	StatusCancelled      ShipmentStatus = "cancelled"
)

// validTransitions defines the allowed state machine transitions.
var validTransitions = map[ShipmentStatus][]ShipmentStatus{
	StatusBooked:         {StatusInTransit, StatusCancelled},
	StatusInTransit:      {StatusOutForDelivery, StatusDelivered, StatusCancelled},
	StatusOutForDelivery: {StatusDelivered},
}

// CanTransitionTo reports whether a transition from current status to next is valid.
func (s ShipmentStatus) CanTransitionTo(next ShipmentStatus) bool {
	for _, allowed := range validTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// bulkActions maps the admin bulk actions to their target status.
var bulkActions = map[string]ShipmentStatus{
	"mark_in_transit":       StatusInTransit,
	"mark_out_for_delivery": StatusOutForDelivery,
	"mark_delivered":        StatusDelivered,
	"cancel":                StatusCancelled,
}

// BulkActionStatus returns the status a bulk action moves shipments to.
func BulkActionStatus(action string) (ShipmentStatus, bool) {
	s, ok := bulkActions[action]
	return s, ok
}

// WeightType is the weight the booking clerk chose to display. It is kept on
// the record only; pricing always bills the higher of actual and volumetric.
type WeightType string

const (
	WeightActual     WeightType = "actual"
	WeightVolumetric WeightType = "volumetric"
)

// DocumentType distinguishes document envelopes from parcels.
type DocumentType string

const (
	DocumentDocs    DocumentType = "docs"
	DocumentNonDocs DocumentType = "non_docs"
)

// Party represents a sender or receiver.
type Party struct {
	Name       string `json:"name" bson:"name"`
	Phone      string `json:"phone" bson:"phone"`
	NationalID string `json:"national_id" bson:"national_id"`
	Address    string `json:"address" bson:"address"`
	PostalCode string `json:"postal_code" bson:"postal_code"`
}

// Dimensions represents the physical size of a package.
type Dimensions struct {
	LengthCm float64 `json:"length_cm" bson:"length_cm"`
	WidthCm  float64 `json:"width_cm" bson:"width_cm"`
	HeightCm float64 `json:"height_cm" bson:"height_cm"`
}

// StatusHistoryEntry records a single status transition on a shipment.
type StatusHistoryEntry struct {
	Status    ShipmentStatus `json:"status" bson:"status"`
	Timestamp time.Time      `json:"timestamp" bson:"timestamp"`
	Notes     string         `json:"notes,omitempty" bson:"notes,omitempty"`
}

// Shipment is the persisted booking record. Everything except Status and
// StatusHistory is fixed at booking time.
type Shipment struct {
	ID         string `json:"id" bson:"_id,omitempty"`
	TrackingID string `json:"tracking_id" bson:"tracking_id"`
	ClientID   string `json:"client_id" bson:"client_id"`

	Sender   Party `json:"sender" bson:"sender"`
	Receiver Party `json:"receiver" bson:"receiver"`

	DestinationCode string       `json:"destination_code" bson:"destination_code"`
	DestinationName string       `json:"destination_name" bson:"destination_name"`
	Dimensions      Dimensions   `json:"dimensions" bson:"dimensions"`
	ActualWeightKg  float64      `json:"actual_weight_kg" bson:"actual_weight_kg"`
	WeightType      WeightType   `json:"weight_type" bson:"weight_type"`
	DocumentType    DocumentType `json:"document_type" bson:"document_type"`

	VolumetricWeightKg float64 `json:"volumetric_weight_kg" bson:"volumetric_weight_kg"`
	ChargeableWeightKg float64 `json:"chargeable_weight_kg" bson:"chargeable_weight_kg"`
	BasePrice          float64 `json:"base_price" bson:"base_price"`
	TaxAmount          float64 `json:"tax_amount" bson:"tax_amount"`
	FinalPrice         float64 `json:"final_price" bson:"final_price"`
	Currency           string  `json:"currency" bson:"currency"`
	FinalPriceBase     float64 `json:"final_price_base" bson:"final_price_base"`

	UndertakingAccepted bool   `json:"undertaking_accepted" bson:"undertaking_accepted"`
	UndertakingText     string `json:"undertaking_text,omitempty" bson:"undertaking_text,omitempty"`

	Status         ShipmentStatus       `json:"status" bson:"status"`
	CreatedAt      time.Time            `json:"created_at" bson:"created_at"`
	IdempotencyKey string               `json:"idempotency_key,omitempty" bson:"idempotency_key,omitempty"`
	StatusHistory  []StatusHistoryEntry `json:"status_history" bson:"status_history"`
}

// ApplyQuote copies the quote fields onto the shipment. After booking these
// are history and are never recomputed.
func (s *Shipment) ApplyQuote(q Quote) {
	s.DestinationCode = q.DestinationCode
	s.DestinationName = q.DestinationName
	s.WeightType = q.WeightType
	s.VolumetricWeightKg = q.VolumetricWeightKg
	s.ChargeableWeightKg = q.ChargeableWeightKg
	s.BasePrice = q.BasePrice
	s.TaxAmount = q.TaxAmount
	s.FinalPrice = q.FinalPrice
	s.Currency = q.Currency
}
