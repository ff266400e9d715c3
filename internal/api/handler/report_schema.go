package handler

import "time"

type dailyReportQuery struct {
	From string `query:"from" validate:"required"`
	To   string `query:"to"   validate:"required"`
}

type monthlyReportQuery struct {
	Year int `query:"year" validate:"required,gte=2000,lte=9999"`
}

type refreshRequest struct {
	Date  string `json:"date"`
	Year  int    `json:"year"  validate:"omitempty,gte=2000,lte=9999"`
	Month int    `json:"month" validate:"omitempty,gte=1,lte=12"`
}

type dailyRecordResponse struct {
	Date           string    `json:"date"`
	TotalShipments int       `json:"total_shipments"`
	TotalRevenue   float64   `json:"total_revenue"`
	TotalWeightKg  float64   `json:"total_weight_kg"`
	AvgOrderValue  float64   `json:"avg_order_value"`
	TopDestination string    `json:"top_destination,omitempty"`
	RefreshedAt    time.Time `json:"refreshed_at"`
}

type monthlyRecordResponse struct {
	Year           int       `json:"year"`
	Month          int       `json:"month"`
	TotalShipments int       `json:"total_shipments"`
	TotalRevenue   float64   `json:"total_revenue"`
	TotalWeightKg  float64   `json:"total_weight_kg"`
	AvgOrderValue  float64   `json:"avg_order_value"`
	GrowthRate     float64   `json:"growth_rate"`
	TopDestination string    `json:"top_destination,omitempty"`
	RefreshedAt    time.Time `json:"refreshed_at"`
}

type dailyReportResponse struct {
	Data []dailyRecordResponse `json:"data"`
}

type monthlyReportResponse struct {
	Year          int                     `json:"year"`
	AverageGrowth float64                 `json:"average_growth"`
	Data          []monthlyRecordResponse `json:"data"`
}

type refreshResponse struct {
	Daily   *dailyRecordResponse   `json:"daily,omitempty"`
	Monthly *monthlyRecordResponse `json:"monthly,omitempty"`
}

type duplicateGroupResponse struct {
	TrackingID string   `json:"tracking_id"`
	KeptID     string   `json:"kept_id"`
	RemovedIDs []string `json:"removed_ids"`
}

type cleanupResponse struct {
	Groups        []duplicateGroupResponse `json:"groups"`
	Removed       int64                    `json:"removed"`
	RefreshedDays []string                 `json:"refreshed_days"`
	// TrackingIndexEnsured is true once storage rejects duplicate tracking ids.
	TrackingIndexEnsured bool `json:"tracking_index_ensured"`
}
