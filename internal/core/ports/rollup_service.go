package ports

import (
	"context"
	"time"

	"github.com/expresslane/courier-booking/internal/core/domain"
)

// RollupScheduler queues a refresh of the day and month containing t.
type RollupScheduler interface {
	Schedule(t time.Time)
}

// RollupRefresher recomputes the day and month containing t.
type RollupRefresher interface {
	RefreshFor(ctx context.Context, t time.Time) error
}

// MonthlyReport is the stored monthly records of a year plus their mean
// growth rate.
type MonthlyReport struct {
	Year          int
	Months        []domain.MonthlyRecord
	AverageGrowth float64
}

// RollupService maintains and serves the derived rollups.
type RollupService interface {
	RollupRefresher
	RefreshDaily(ctx context.Context, date time.Time) (*domain.DailyRecord, error)
	RefreshMonthly(ctx context.Context, year, month int) (*domain.MonthlyRecord, error)
	ListDaily(ctx context.Context, from, to time.Time) ([]domain.DailyRecord, error)
	ListMonthly(ctx context.Context, year int) (*MonthlyReport, error)
}
