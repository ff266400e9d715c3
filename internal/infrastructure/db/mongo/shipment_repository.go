package mongo

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/expresslane/courier-booking/internal/core/domain"
	"github.com/expresslane/courier-booking/internal/core/ports"
)

const (
	collectionShipments    = "shipments"
	trackingIndexName      = "tracking_id_unique"
	idempotencyIndexName   = "idempotency_key_unique"
	legacyIdempotencyIndex = "idempotency_key_1"
)

// ShipmentRepository implements ports.ShipmentRepository using MongoDB.
type ShipmentRepository struct {
	col *mongo.Collection
}

func NewShipmentRepository(db *mongo.Database) *ShipmentRepository {
	return &ShipmentRepository{col: db.Collection(collectionShipments)}
}

// oldestFirst orders duplicates the way cleanup resolves them.
var oldestFirst = bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}}

// Create inserts a new shipment document. A clash on the unique tracking id
// index is reported as domain.ErrDuplicateTrackingID.
func (r *ShipmentRepository) Create(ctx context.Context, s *domain.Shipment) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if _, err := r.col.InsertOne(ctx, s); err != nil {
		return insertError(s, err)
	}
	return nil
}

// insertError tells the two unique indexes apart by the index name the
// server puts in the duplicate key message.
func insertError(s *domain.Shipment, err error) error {
	switch {
	case !mongo.IsDuplicateKeyError(err):
		return fmt.Errorf("insert shipment: %w", err)
	case strings.Contains(err.Error(), idempotencyIndexName):
		return fmt.Errorf("insert shipment: key %s: %w", s.IdempotencyKey, domain.ErrDuplicateIdempotencyKey)
	default:
		return fmt.Errorf("insert shipment %s: %w", s.TrackingID, domain.ErrDuplicateTrackingID)
	}
}

// FindByTrackingID retrieves a shipment by tracking id.
// When clientID is non-empty, an additional filter by client_id is applied.
func (r *ShipmentRepository) FindByTrackingID(ctx context.Context, trackingID string, clientID string) (*domain.Shipment, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{"tracking_id": trackingID}
	if clientID != "" {
		filter["client_id"] = clientID
	}

	var s domain.Shipment
	err := r.col.FindOne(ctx, filter, options.FindOne().SetSort(oldestFirst)).Decode(&s)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrShipmentNotFound
		}
		return nil, err
	}
	return &s, nil
}

// FindByIdempotencyKey retrieves an existing shipment that was created with the given key.
func (r *ShipmentRepository) FindByIdempotencyKey(ctx context.Context, key string) (*domain.Shipment, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var s domain.Shipment
	err := r.col.FindOne(ctx, bson.M{"idempotency_key": key}).Decode(&s)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrShipmentNotFound
		}
		return nil, err
	}
	return &s, nil
}

// List returns one page of shipments, newest first, and the total match count.
func (r *ShipmentRepository) List(ctx context.Context, f ports.ListShipmentsFilter) ([]*domain.Shipment, int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := listFilter(f)
	total, err := r.col.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("count shipments: %w", err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "tracking_id", Value: -1}}).
		SetProjection(bson.M{"status_history": 0})
	if f.Limit > 0 {
		page := f.Page
		if page < 1 {
			page = 1
		}
		opts.SetSkip(int64((page - 1) * f.Limit)).SetLimit(int64(f.Limit))
	}

	items, err := r.find(ctx, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("list shipments: %w", err)
	}
	return items, total, nil
}

// listFilter translates f into a Mongo query document.
func listFilter(f ports.ListShipmentsFilter) bson.M {
	filter := bson.M{}
	if f.ClientID != "" {
		filter["client_id"] = f.ClientID
	}
	if f.Status != "" {
		filter["status"] = f.Status
	}
	if f.DestinationCode != "" {
		filter["destination_code"] = f.DestinationCode
	}
	if f.Search != "" {
		pattern := primitiveRegex(regexp.QuoteMeta(f.Search), "i")
		filter["$or"] = bson.A{
			bson.M{"tracking_id": pattern},
			bson.M{"sender.name": pattern},
			bson.M{"receiver.name": pattern},
		}
	}
	created := bson.M{}
	if !f.DateFrom.IsZero() {
		created["$gte"] = f.DateFrom.UTC()
	}
	if !f.DateTo.IsZero() {
		created["$lte"] = f.DateTo.UTC()
	}
	if len(created) > 0 {
		filter["created_at"] = created
	}
	return filter
}

// IssuedTrackingIDs lists tracking ids starting with prefix. The anchored
// pattern lets Mongo walk the tracking id index.
func (r *ShipmentRepository) IssuedTrackingIDs(ctx context.Context, prefix string) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cur, err := r.col.Find(ctx,
		bson.M{"tracking_id": primitiveRegex("^"+regexp.QuoteMeta(prefix), "")},
		options.Find().SetProjection(bson.M{"tracking_id": 1, "_id": 0}),
	)
	if err != nil {
		return nil, fmt.Errorf("issued tracking ids: %w", err)
	}
	defer cur.Close(ctx)

	var ids []string
	for cur.Next(ctx) {
		var doc struct {
			TrackingID string `bson:"tracking_id"`
		}
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("issued tracking ids: decode: %w", err)
		}
		ids = append(ids, doc.TrackingID)
	}
	return ids, cur.Err()
}

func (r *ShipmentRepository) TrackingIDExists(ctx context.Context, trackingID string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	n, err := r.col.CountDocuments(ctx, bson.M{"tracking_id": trackingID}, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("tracking id exists: %w", err)
	}
	return n > 0, nil
}

// ListCreatedBetween returns shipments created in [from, to).
func (r *ShipmentRepository) ListCreatedBetween(ctx context.Context, from, to time.Time) ([]*domain.Shipment, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{"created_at": bson.M{"$gte": from.UTC(), "$lt": to.UTC()}}
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "tracking_id", Value: 1}}).
		SetProjection(bson.M{"status_history": 0})

	items, err := r.find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("list created between: %w", err)
	}
	return items, nil
}

// FindDuplicateTrackingIDs groups shipments sharing a tracking id, oldest
// first inside each group.
func (r *ShipmentRepository) FindDuplicateTrackingIDs(ctx context.Context) ([]ports.DuplicateGroup, error) {
	ctx, cancel := context.WithTimeout(ctx, 2*defaultTimeout)
	defer cancel()

	pipeline := mongo.Pipeline{
		{{Key: "$sort", Value: oldestFirst}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$tracking_id"},
			{Key: "count", Value: bson.M{"$sum": 1}},
			{Key: "docs", Value: bson.M{"$push": "$$ROOT"}},
		}}},
		{{Key: "$match", Value: bson.M{"count": bson.M{"$gt": 1}}}},
		{{Key: "$sort", Value: bson.D{{Key: "_id", Value: 1}}}},
	}

	cur, err := r.col.Aggregate(ctx, pipeline, options.Aggregate().SetAllowDiskUse(true))
	if err != nil {
		return nil, fmt.Errorf("find duplicates: %w", err)
	}
	defer cur.Close(ctx)

	var groups []ports.DuplicateGroup
	for cur.Next(ctx) {
		var doc struct {
			TrackingID string             `bson:"_id"`
			Docs       []*domain.Shipment `bson:"docs"`
		}
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("find duplicates: decode: %w", err)
		}
		groups = append(groups, ports.DuplicateGroup{TrackingID: doc.TrackingID, Shipments: doc.Docs})
	}
	return groups, cur.Err()
}

func (r *ShipmentRepository) DeleteByIDs(ctx context.Context, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return 0, fmt.Errorf("delete shipments: %w", err)
	}
	return res.DeletedCount, nil
}

// EnsureIndexes creates the shipment indexes. The unique ones are built
// last; when legacy data prevents them the error wraps
// domain.ErrDuplicateTrackingID or domain.ErrDuplicateIdempotencyKey and
// every other index is still in place.
func (r *ShipmentRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "client_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "created_at", Value: 1}, {Key: "tracking_id", Value: 1}}},
		{Keys: bson.D{{Key: "destination_code", Value: 1}}},
	}
	if _, err := r.col.Indexes().CreateMany(ctx, indexes); err != nil {
		return fmt.Errorf("shipment indexes: %w", err)
	}

	idemErr := r.ensureIdempotencyIndex(ctx)
	if idemErr != nil && !errors.Is(idemErr, domain.ErrDuplicateIdempotencyKey) {
		return idemErr
	}
	trackErr := r.EnsureTrackingIndex(ctx)
	if trackErr != nil && !errors.Is(trackErr, domain.ErrDuplicateTrackingID) {
		return trackErr
	}
	return errors.Join(idemErr, trackErr)
}

// EnsureTrackingIndex builds the unique tracking id index. It fails with
// domain.ErrDuplicateTrackingID while duplicates are stored.
func (r *ShipmentRepository) EnsureTrackingIndex(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	unique := mongo.IndexModel{
		Keys:    bson.D{{Key: "tracking_id", Value: 1}},
		Options: options.Index().SetUnique(true).SetName(trackingIndexName),
	}
	if _, err := r.col.Indexes().CreateOne(ctx, unique); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("unique tracking id index: %w", domain.ErrDuplicateTrackingID)
		}
		return fmt.Errorf("unique tracking id index: %w", err)
	}
	return nil
}

// ensureIdempotencyIndex replaces the plain idempotency key index of older
// deployments with a unique sparse one. Bookings without a key carry no
// field and stay out of it.
func (r *ShipmentRepository) ensureIdempotencyIndex(ctx context.Context) error {
	if _, err := r.col.Indexes().DropOne(ctx, legacyIdempotencyIndex); err != nil && !isIndexNotFound(err) {
		return fmt.Errorf("drop legacy idempotency index: %w", err)
	}
	if _, err := r.col.Indexes().CreateOne(ctx, idempotencyIndexModel()); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("unique idempotency key index: %w", domain.ErrDuplicateIdempotencyKey)
		}
		return fmt.Errorf("unique idempotency key index: %w", err)
	}
	return nil
}

func idempotencyIndexModel() mongo.IndexModel {
	return mongo.IndexModel{
		Keys:    bson.D{{Key: "idempotency_key", Value: 1}},
		Options: options.Index().SetUnique(true).SetSparse(true).SetName(idempotencyIndexName),
	}
}

// isIndexNotFound matches IndexNotFound (27) and NamespaceNotFound (26).
func isIndexNotFound(err error) bool {
	var ce mongo.CommandError
	return errors.As(err, &ce) && (ce.Code == 27 || ce.Code == 26)
}

func (r *ShipmentRepository) find(ctx context.Context, filter any, opts *options.FindOptions) ([]*domain.Shipment, error) {
	cur, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	items := []*domain.Shipment{}
	if err := cur.All(ctx, &items); err != nil {
		return nil, err
	}
	return items, nil
}
