package ports

import "context"

// DuplicateResolution reports what happened to one duplicated tracking id.
type DuplicateResolution struct {
	TrackingID string
	KeptID     string
	RemovedIDs []string
}

// CleanupReport summarizes a duplicate tracking id repair.
type CleanupReport struct {
	Groups        []DuplicateResolution
	Removed       int64
	RefreshedDays []string // days (YYYY-MM-DD) whose rollups were recomputed
	// TrackingIndexEnsured is true once storage enforces unique tracking ids.
	TrackingIndexEnsured bool
}

// MaintenanceService runs on-demand data repairs.
type MaintenanceService interface {
	CleanupDuplicates(ctx context.Context) (*CleanupReport, error)
}
