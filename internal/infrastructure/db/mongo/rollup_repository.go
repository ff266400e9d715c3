package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/expresslane/courier-booking/internal/core/domain"
)

const (
	collectionDailyRollups   = "daily_rollups"
	collectionMonthlyRollups = "monthly_rollups"
)

// RollupRepository implements ports.RollupRepository using MongoDB. Records
// are replaced wholesale on every refresh, keyed by their period. A record
// never replaces one with a later RefreshedAt.
type RollupRepository struct {
	daily   *mongo.Collection
	monthly *mongo.Collection
}

func NewRollupRepository(db *mongo.Database) *RollupRepository {
	return &RollupRepository{
		daily:   db.Collection(collectionDailyRollups),
		monthly: db.Collection(collectionMonthlyRollups),
	}
}

func (r *RollupRepository) UpsertDaily(ctx context.Context, rec domain.DailyRecord) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	rec.Date = rec.Date.UTC()
	filter := newerThanStored(bson.M{"date": rec.Date}, rec.RefreshedAt)
	if err := replaceIfNewer(ctx, r.daily, filter, rec); err != nil {
		return fmt.Errorf("upsert daily rollup: %w", err)
	}
	return nil
}

func (r *RollupRepository) UpsertMonthly(ctx context.Context, rec domain.MonthlyRecord) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := newerThanStored(bson.M{"year": rec.Year, "month": rec.Month}, rec.RefreshedAt)
	if err := replaceIfNewer(ctx, r.monthly, filter, rec); err != nil {
		return fmt.Errorf("upsert monthly rollup: %w", err)
	}
	return nil
}

// newerThanStored extends a period key so it only matches a stored record
// that is not fresher than refreshedAt.
func newerThanStored(key bson.M, refreshedAt time.Time) bson.M {
	filter := bson.M{"$or": bson.A{
		bson.M{"refreshed_at": bson.M{"$lte": refreshedAt.UTC()}},
		bson.M{"refreshed_at": bson.M{"$exists": false}},
	}}
	for k, v := range key {
		filter[k] = v
	}
	return filter
}

// replaceIfNewer upserts doc. When a fresher record holds the period the
// filter misses, the upsert collides with the unique period index and the
// write is dropped as stale.
func replaceIfNewer(ctx context.Context, coll *mongo.Collection, filter bson.M, doc interface{}) error {
	_, err := coll.ReplaceOne(ctx, filter, doc, options.Replace().SetUpsert(true))
	if err != nil && !isStaleWrite(err) {
		return err
	}
	return nil
}

func isStaleWrite(err error) bool {
	return mongo.IsDuplicateKeyError(err)
}

func (r *RollupRepository) FindMonthly(ctx context.Context, year, month int) (*domain.MonthlyRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var rec domain.MonthlyRecord
	err := r.monthly.FindOne(ctx, bson.M{"year": year, "month": month}).Decode(&rec)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("find monthly rollup: %w", err)
	}
	return &rec, nil
}

func (r *RollupRepository) ListDaily(ctx context.Context, from, to time.Time) ([]domain.DailyRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{"date": bson.M{"$gte": from.UTC(), "$lte": to.UTC()}}
	cur, err := r.daily.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "date", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list daily rollups: %w", err)
	}
	defer cur.Close(ctx)

	out := []domain.DailyRecord{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("list daily rollups: decode: %w", err)
	}
	return out, nil
}

func (r *RollupRepository) ListMonthly(ctx context.Context, year int) ([]domain.MonthlyRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cur, err := r.monthly.Find(ctx, bson.M{"year": year}, options.Find().SetSort(bson.D{{Key: "month", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list monthly rollups: %w", err)
	}
	defer cur.Close(ctx)

	out := []domain.MonthlyRecord{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("list monthly rollups: decode: %w", err)
	}
	return out, nil
}

// EnsureIndexes makes the period keys unique so concurrent upserts of the
// same period cannot create two records.
func (r *RollupRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if _, err := r.daily.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "date", Value: 1}},
		Options: options.Index().SetUnique(true),
	}); err != nil {
		return fmt.Errorf("daily rollup index: %w", err)
	}
	if _, err := r.monthly.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "year", Value: 1}, {Key: "month", Value: 1}},
		Options: options.Index().SetUnique(true),
	}); err != nil {
		return fmt.Errorf("monthly rollup index: %w", err)
	}
	return nil
}
