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
	"github.com/expresslane/courier-booking/internal/core/ports"
)

const collectionStatusEvents = "status_events"

// EventRepository implements ports.EventRepository using MongoDB.
type EventRepository struct {
	db *mongo.Database
}

// NewEventRepository creates a new EventRepository.
func NewEventRepository(db *mongo.Database) ports.EventRepository {
	return &EventRepository{db: db}
}

// UpdateShipmentStatus moves the shipment from one status to the next and
// appends a history entry in one write. The filter pins the expected current
// status, so of two racing updates only the first lands. With legacy
// duplicates present the oldest record is updated, matching what readers see.
func (r *EventRepository) UpdateShipmentStatus(
	ctx context.Context,
	trackingID string,
	from, to domain.ShipmentStatus,
	ts time.Time,
	notes string,
) error {
	historyEntry := domain.StatusHistoryEntry{
		Status:    to,
		Timestamp: ts.UTC(),
		Notes:     notes,
	}

	update := bson.M{
		"$set":  bson.M{"status": string(to)},
		"$push": bson.M{"status_history": historyEntry},
	}

	res := r.db.Collection(collectionShipments).FindOneAndUpdate(ctx, statusUpdateFilter(trackingID, from), update,
		options.FindOneAndUpdate().SetSort(oldestFirst).SetProjection(bson.M{"_id": 1}))
	if err := res.Err(); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return fmt.Errorf("update shipment status: %w (%s is no longer %s)", domain.ErrInvalidTransition, trackingID, from)
		}
		return fmt.Errorf("update shipment status: %w", err)
	}
	return nil
}

func statusUpdateFilter(trackingID string, from domain.ShipmentStatus) bson.M {
	return bson.M{"tracking_id": trackingID, "status": string(from)}
}

// InsertEvent persists a status event to the status_events audit collection.
func (r *EventRepository) InsertEvent(ctx context.Context, event *domain.StatusEvent) error {
	doc := bson.M{
		"tracking_id":  event.TrackingID,
		"status":       string(event.Status),
		"timestamp":    event.Timestamp.UTC(),
		"source":       event.Source,
		"processed_at": time.Now().UTC(),
	}
	if event.Notes != "" {
		doc["notes"] = event.Notes
	}

	_, err := r.db.Collection(collectionStatusEvents).InsertOne(ctx, doc)
	return err
}
