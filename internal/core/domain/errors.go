package domain

import "errors"

// Pricing rejections. They are returned to the caller verbatim and never
// leave a partial shipment behind.
var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrInvalidDestination = errors.New("invalid destination")
	ErrNoTierFound        = errors.New("no pricing tier found for this weight range")
)

// Allocation failures.
var (
	ErrAllocationExhausted = errors.New("tracking id allocation exhausted")
	ErrDuplicateTrackingID = errors.New("tracking id already issued")
)

// ErrDuplicateIdempotencyKey reports a booking whose idempotency key is
// already stored.
var ErrDuplicateIdempotencyKey = errors.New("idempotency key already used")

var (
	ErrShipmentNotFound  = errors.New("shipment not found")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrForbidden         = errors.New("access forbidden")
)

// Catalog errors.
var (
	ErrDestinationExists = errors.New("destination already exists")
	ErrTierOverlap       = errors.New("rate tier overlaps an active tier")
	ErrTierNotFound      = errors.New("rate tier not found")
)

// Reason codes exposed to callers so they can tell rejections apart
// without matching on messages.
const (
	ReasonInvalidInput        = "invalid_input"
	ReasonInvalidDestination  = "invalid_destination"
	ReasonNoTierFound         = "no_tier_found"
	ReasonAllocationExhausted = "allocation_exhausted"
)

// RejectionReason returns the reason code for a pricing or allocation
// rejection, or "" when err is not one.
func RejectionReason(err error) string {
	switch {
	case errors.Is(err, ErrInvalidInput):
		return ReasonInvalidInput
	case errors.Is(err, ErrInvalidDestination):
		return ReasonInvalidDestination
	case errors.Is(err, ErrNoTierFound):
		return ReasonNoTierFound
	case errors.Is(err, ErrAllocationExhausted):
		return ReasonAllocationExhausted
	}
	return ""
}
