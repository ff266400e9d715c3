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
	collectionDestinations = "destinations"
	collectionRateTiers    = "rate_tiers"
)

// CatalogRepository implements ports.CatalogRepository using MongoDB.
// Destinations are keyed by their code, tiers by a generated id.
type CatalogRepository struct {
	destinations *mongo.Collection
	tiers        *mongo.Collection
}

func NewCatalogRepository(db *mongo.Database) *CatalogRepository {
	return &CatalogRepository{
		destinations: db.Collection(collectionDestinations),
		tiers:        db.Collection(collectionRateTiers),
	}
}

func (r *CatalogRepository) CreateDestination(ctx context.Context, d *domain.Destination) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if _, err := r.destinations.InsertOne(ctx, d); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("%w: %s", domain.ErrDestinationExists, d.Code)
		}
		return fmt.Errorf("insert destination: %w", err)
	}
	return nil
}

func (r *CatalogRepository) FindDestination(ctx context.Context, code string) (*domain.Destination, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var d domain.Destination
	if err := r.destinations.FindOne(ctx, bson.M{"_id": code}).Decode(&d); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%w: unknown destination %q", domain.ErrInvalidDestination, code)
		}
		return nil, fmt.Errorf("find destination: %w", err)
	}
	return &d, nil
}

func (r *CatalogRepository) ListDestinations(ctx context.Context, activeOnly bool) ([]domain.Destination, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{}
	if activeOnly {
		filter["active"] = true
	}
	cur, err := r.destinations.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list destinations: %w", err)
	}
	defer cur.Close(ctx)

	out := []domain.Destination{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("list destinations: decode: %w", err)
	}
	return out, nil
}

func (r *CatalogRepository) SetDestinationActive(ctx context.Context, code string, active bool) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.destinations.UpdateOne(ctx, bson.M{"_id": code}, bson.M{"$set": bson.M{"active": active}})
	if err != nil {
		return fmt.Errorf("update destination: %w", err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("%w: unknown destination %q", domain.ErrInvalidDestination, code)
	}
	return nil
}

// ListTiers returns a destination's tiers ordered by lower bound.
func (r *CatalogRepository) ListTiers(ctx context.Context, destinationCode string, activeOnly bool) ([]domain.RateTier, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{"destination_code": destinationCode}
	if activeOnly {
		filter["active"] = true
	}
	opts := options.Find().SetSort(bson.D{
		{Key: "min_weight_kg", Value: 1},
		{Key: "max_weight_kg", Value: 1},
		{Key: "_id", Value: 1},
	})
	cur, err := r.tiers.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("list tiers: %w", err)
	}
	defer cur.Close(ctx)

	out := []domain.RateTier{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("list tiers: decode: %w", err)
	}
	return out, nil
}

func (r *CatalogRepository) CreateTier(ctx context.Context, t *domain.RateTier) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if _, err := r.tiers.InsertOne(ctx, t); err != nil {
		return fmt.Errorf("insert tier: %w", err)
	}
	return nil
}

func (r *CatalogRepository) DeactivateTier(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.tiers.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"active": false}})
	if err != nil {
		return fmt.Errorf("deactivate tier: %w", err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("%w: %s", domain.ErrTierNotFound, id)
	}
	return nil
}

// EnsureIndexes creates the tier lookup index.
func (r *CatalogRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	_, err := r.tiers.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "destination_code", Value: 1}, {Key: "active", Value: 1}, {Key: "min_weight_kg", Value: 1}},
	})
	return err
}
