package domain

import "time"

// DailyRecord is the derived rollup of all shipments created on one day.
type DailyRecord struct {
	Date           time.Time `json:"date" bson:"date"`
	TotalShipments int       `json:"total_shipments" bson:"total_shipments"`
	TotalRevenue   float64   `json:"total_revenue" bson:"total_revenue"`
	TotalWeightKg  float64   `json:"total_weight_kg" bson:"total_weight_kg"`
	AvgOrderValue  float64   `json:"avg_order_value" bson:"avg_order_value"`
	TopDestination string    `json:"top_destination,omitempty" bson:"top_destination,omitempty"`
	RefreshedAt    time.Time `json:"refreshed_at" bson:"refreshed_at"`
}

// MonthlyRecord is the derived rollup of one calendar month.
type MonthlyRecord struct {
	Year           int       `json:"year" bson:"year"`
	Month          int       `json:"month" bson:"month"`
	TotalShipments int       `json:"total_shipments" bson:"total_shipments"`
	TotalRevenue   float64   `json:"total_revenue" bson:"total_revenue"`
	TotalWeightKg  float64   `json:"total_weight_kg" bson:"total_weight_kg"`
	AvgOrderValue  float64   `json:"avg_order_value" bson:"avg_order_value"`
	GrowthRate     float64   `json:"growth_rate" bson:"growth_rate"`
	TopDestination string    `json:"top_destination,omitempty" bson:"top_destination,omitempty"`
	RefreshedAt    time.Time `json:"refreshed_at" bson:"refreshed_at"`
}

// PreviousMonth returns the calendar month before (year, month).
func PreviousMonth(year, month int) (int, int) {
	if month <= 1 {
		return year - 1, 12
	}
	return year, month - 1
}
