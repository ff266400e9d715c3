package handler

import "time"

// errorResponse is the standard error envelope returned on all 4xx/5xx responses.
type errorResponse struct {
	Error  string `json:"error"`
	Reason string `json:"reason,omitempty"`
}

// --- Request types ---

type packageRequest struct {
	DestinationCode string  `json:"destination_code"`
	LengthCm        float64 `json:"length_cm"`
	WidthCm         float64 `json:"width_cm"`
	HeightCm        float64 `json:"height_cm"`
	ActualWeightKg  float64 `json:"actual_weight_kg"`
	WeightType      string  `json:"weight_type" validate:"omitempty,oneof=actual volumetric"`
}

type partyRequest struct {
	Name       string `json:"name"        validate:"required"`
	Phone      string `json:"phone"       validate:"required"`
	NationalID string `json:"national_id"`
	Address    string `json:"address"     validate:"required"`
	PostalCode string `json:"postal_code"`
}

type bookShipmentRequest struct {
	Package             packageRequest `json:"package"`
	Sender              partyRequest   `json:"sender"`
	Receiver            partyRequest   `json:"receiver"`
	DocumentType        string         `json:"document_type" validate:"omitempty,oneof=docs non_docs"`
	UndertakingAccepted bool           `json:"undertaking_accepted"`
	UndertakingText     string         `json:"undertaking_text"`
}

type listShipmentsQuery struct {
	Status          string `query:"status"      validate:"omitempty,oneof=booked in_transit out_for_delivery delivered cancelled"`
	DestinationCode string `query:"destination"`
	Search          string `query:"q"`
	DateFrom        string `query:"date_from"`
	DateTo          string `query:"date_to"`
	Page            int    `query:"page"        validate:"gte=0"`
	Limit           int    `query:"limit"       validate:"gte=0"`
}

// --- Response types ---

type shipmentLinks struct {
	Self   string `json:"self"`
	Status string `json:"status"`
}

type quoteResponse struct {
	DestinationCode    string  `json:"destination_code"`
	DestinationName    string  `json:"destination_name"`
	TierID             string  `json:"tier_id"`
	WeightType         string  `json:"weight_type"`
	VolumetricWeightKg float64 `json:"volumetric_weight_kg"`
	ChargeableWeightKg float64 `json:"chargeable_weight_kg"`
	BasePrice          float64 `json:"base_price"`
	TaxAmount          float64 `json:"tax_amount"`
	FinalPrice         float64 `json:"final_price"`
	Currency           string  `json:"currency"`
}

type bookShipmentResponse struct {
	TrackingID      string        `json:"tracking_id"`
	Status          string        `json:"status"`
	DestinationCode string        `json:"destination_code"`
	FinalPrice      float64       `json:"final_price"`
	Currency        string        `json:"currency"`
	FallbackID      bool          `json:"fallback_id,omitempty"`
	CreatedAt       time.Time     `json:"created_at"`
	Links           shipmentLinks `json:"_links"`
}

type partyResponse struct {
	Name       string `json:"name"`
	Phone      string `json:"phone"`
	NationalID string `json:"national_id,omitempty"`
	Address    string `json:"address"`
	PostalCode string `json:"postal_code,omitempty"`
}

type dimensionsResponse struct {
	LengthCm float64 `json:"length_cm"`
	WidthCm  float64 `json:"width_cm"`
	HeightCm float64 `json:"height_cm"`
}

type statusHistoryItemResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Notes     string    `json:"notes,omitempty"`
}

type getShipmentResponse struct {
	TrackingID          string                      `json:"tracking_id"`
	ClientID            string                      `json:"client_id"`
	Status              string                      `json:"status"`
	CreatedAt           time.Time                   `json:"created_at"`
	Sender              partyResponse               `json:"sender"`
	Receiver            partyResponse               `json:"receiver"`
	DestinationCode     string                      `json:"destination_code"`
	DestinationName     string                      `json:"destination_name"`
	Dimensions          dimensionsResponse          `json:"dimensions"`
	ActualWeightKg      float64                     `json:"actual_weight_kg"`
	WeightType          string                      `json:"weight_type"`
	DocumentType        string                      `json:"document_type"`
	VolumetricWeightKg  float64                     `json:"volumetric_weight_kg"`
	ChargeableWeightKg  float64                     `json:"chargeable_weight_kg"`
	BasePrice           float64                     `json:"base_price"`
	TaxAmount           float64                     `json:"tax_amount"`
	FinalPrice          float64                     `json:"final_price"`
	Currency            string                      `json:"currency"`
	FinalPriceBase      float64                     `json:"final_price_base"`
	UndertakingAccepted bool                        `json:"undertaking_accepted"`
	StatusHistory       []statusHistoryItemResponse `json:"status_history"`
	Links               shipmentLinks               `json:"_links"`
}

// shipmentSummaryResponse is the lightweight item used in list responses.
// It omits status_history to keep payloads small.
type shipmentSummaryResponse struct {
	TrackingID      string        `json:"tracking_id"`
	Status          string        `json:"status"`
	CreatedAt       time.Time     `json:"created_at"`
	SenderName      string        `json:"sender_name"`
	ReceiverName    string        `json:"receiver_name"`
	DestinationCode string        `json:"destination_code"`
	ChargeableKg    float64       `json:"chargeable_weight_kg"`
	FinalPrice      float64       `json:"final_price"`
	Currency        string        `json:"currency"`
	Links           shipmentLinks `json:"_links"`
}

type paginationResponse struct {
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	TotalPages int   `json:"total_pages"`
}

type listShipmentsResponse struct {
	Data       []shipmentSummaryResponse `json:"data"`
	Pagination paginationResponse        `json:"pagination"`
}
