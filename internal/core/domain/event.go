package domain

import "time"

// StatusEvent represents a status update received from an external source
// (branch scanner, courier app, admin console).
type StatusEvent struct {
	TrackingID string
	Status     ShipmentStatus
	Timestamp  time.Time
	Source     string
	Notes      string
}
