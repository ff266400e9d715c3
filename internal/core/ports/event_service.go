package ports

import (
	"context"
	"time"
)

// StatusUpdateInput is the DTO passed from the transport layer to EventService.
type StatusUpdateInput struct {
	TrackingID string
	Status     string
	Timestamp  time.Time
	Source     string
	Notes      string
	// Role and ClientID scope the update: clients may only touch their own shipments.
	Role     string
	ClientID string
}

// BulkStatusInput moves many shipments with one admin action.
type BulkStatusInput struct {
	TrackingIDs []string
	// Action is one of mark_in_transit, mark_out_for_delivery,
	// mark_delivered or cancel.
	Action    string
	Timestamp time.Time
	Source    string
	Notes     string
	Role      string
	ClientID  string
}

// StatusUpdateOutcome is the result of one shipment in a bulk update.
type StatusUpdateOutcome struct {
	TrackingID string
	Applied    bool
	Reason     string
	Error      string
}

type BulkStatusResult struct {
	Status  string
	Updated int
	Failed  int
	Items   []StatusUpdateOutcome
}

// EventService processes incoming status updates.
type EventService interface {
	Process(ctx context.Context, event StatusUpdateInput) error
	// ProcessBulk applies one action to every listed shipment. Each shipment
	// passes the same checks as Process; one failing does not stop the rest.
	ProcessBulk(ctx context.Context, in BulkStatusInput) (*BulkStatusResult, error)
}
