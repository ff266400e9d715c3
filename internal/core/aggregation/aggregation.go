// Package aggregation derives daily and monthly rollups from booked
// shipments. Records are pure functions of their input so a refresh can be
// repeated any number of times with the same outcome.
package aggregation

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/expresslane/courier-booking/internal/core/domain"
)

type totals struct {
	count   int
	revenue decimal.Decimal
	weight  decimal.Decimal
}

func summarize(shipments []*domain.Shipment) totals {
	t := totals{revenue: decimal.Zero, weight: decimal.Zero}
	for _, s := range shipments {
		if s == nil {
			continue
		}
		t.count++
		t.revenue = t.revenue.Add(decimal.NewFromFloat(s.FinalPrice))
		t.weight = t.weight.Add(decimal.NewFromFloat(s.ChargeableWeightKg))
	}
	return t
}

// topDestination breaks ties by first appearance in input order.
func topDestination(shipments []*domain.Shipment) string {
	counts := make(map[string]int)
	var order []string
	for _, s := range shipments {
		if s == nil || s.DestinationCode == "" {
			continue
		}
		if counts[s.DestinationCode] == 0 {
			order = append(order, s.DestinationCode)
		}
		counts[s.DestinationCode]++
	}
	top, best := "", 0
	for _, code := range order {
		if counts[code] > best {
			top, best = code, counts[code]
		}
	}
	return top
}

func (t totals) avg() decimal.Decimal {
	if t.count == 0 {
		return decimal.Zero
	}
	return t.revenue.Div(decimal.NewFromInt(int64(t.count)))
}

// Daily builds the record for the day starting at date from the shipments
// created on it.
func Daily(date time.Time, shipments []*domain.Shipment) domain.DailyRecord {
	t := summarize(shipments)
	return domain.DailyRecord{
		Date:           date,
		TotalShipments: t.count,
		TotalRevenue:   round(t.revenue),
		TotalWeightKg:  round(t.weight),
		AvgOrderValue:  round(t.avg()),
		TopDestination: topDestination(shipments),
	}
}

// Monthly builds the record for year/month. prev is the stored record of
// the previous month, or nil when there is none.
func Monthly(year, month int, shipments []*domain.Shipment, prev *domain.MonthlyRecord) domain.MonthlyRecord {
	t := summarize(shipments)
	return domain.MonthlyRecord{
		Year:           year,
		Month:          month,
		TotalShipments: t.count,
		TotalRevenue:   round(t.revenue),
		TotalWeightKg:  round(t.weight),
		AvgOrderValue:  round(t.avg()),
		GrowthRate:     Growth(t.revenue, prev),
		TopDestination: topDestination(shipments),
	}
}

// Growth is the revenue change against prev in percent. It is 0 when there
// is no previous month or the previous revenue is not positive.
func Growth(revenue decimal.Decimal, prev *domain.MonthlyRecord) float64 {
	if prev == nil || prev.TotalRevenue <= 0 {
		return 0
	}
	prevRevenue := decimal.NewFromFloat(prev.TotalRevenue)
	return round(revenue.Sub(prevRevenue).Div(prevRevenue).Mul(decimal.NewFromInt(100)))
}

// AverageGrowth is the mean growth rate over records, used by the monthly
// report summary.
func AverageGrowth(records []domain.MonthlyRecord) float64 {
	if len(records) == 0 {
		return 0
	}
	sum := decimal.Zero
	for _, r := range records {
		sum = sum.Add(decimal.NewFromFloat(r.GrowthRate))
	}
	return round(sum.Div(decimal.NewFromInt(int64(len(records)))))
}

func round(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}
