package ports

import (
	"context"
	"time"

	"github.com/expresslane/courier-booking/internal/core/domain"
)

// RollupRepository stores derived daily and monthly records keyed by period.
type RollupRepository interface {
	UpsertDaily(ctx context.Context, rec domain.DailyRecord) error
	UpsertMonthly(ctx context.Context, rec domain.MonthlyRecord) error
	// FindMonthly returns nil, nil when the month has no record.
	FindMonthly(ctx context.Context, year, month int) (*domain.MonthlyRecord, error)
	// ListDaily returns records with from <= date <= to, oldest first.
	ListDaily(ctx context.Context, from, to time.Time) ([]domain.DailyRecord, error)
	ListMonthly(ctx context.Context, year int) ([]domain.MonthlyRecord, error)
}
