package handler

type createDestinationRequest struct {
	Code     string `json:"code"     validate:"required,alpha,min=2,max=3"`
	Name     string `json:"name"     validate:"required"`
	Currency string `json:"currency" validate:"required,alpha,len=3"`
	Active   *bool  `json:"active"`
}

type updateDestinationRequest struct {
	Active *bool `json:"active" validate:"required"`
}

type addTierRequest struct {
	MinWeightKg float64 `json:"min_weight_kg" validate:"gte=0"`
	MaxWeightKg float64 `json:"max_weight_kg" validate:"gtefield=MinWeightKg"`
	PricePerKg  float64 `json:"price_per_kg"  validate:"gte=0"`
	BaseFee     float64 `json:"base_fee"      validate:"gte=0"`
}

type listDestinationsQuery struct {
	All bool `query:"all"`
}

type listDestinationsResponse struct {
	Data []destinationResponse `json:"data"`
}

type destinationResponse struct {
	Code     string `json:"code"`
	Name     string `json:"name"`
	Currency string `json:"currency"`
	Active   bool   `json:"active"`
}

type tierResponse struct {
	ID              string  `json:"id"`
	DestinationCode string  `json:"destination_code"`
	MinWeightKg     float64 `json:"min_weight_kg"`
	MaxWeightKg     float64 `json:"max_weight_kg"`
	PricePerKg      float64 `json:"price_per_kg"`
	BaseFee         float64 `json:"base_fee"`
	Active          bool    `json:"active"`
}
