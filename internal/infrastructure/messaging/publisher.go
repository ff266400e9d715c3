package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/expresslane/courier-booking/internal/core/domain"
)

const EventShipmentBooked = "shipment.booked"

// batchTimeout caps how long a write waits for a batch to fill. Publishing
// runs on the booking request path.
const batchTimeout = 10 * time.Millisecond

// Writer is the subset of kafka.Writer the publisher needs.
type Writer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// BookedEvent is the payload announced for every new shipment.
type BookedEvent struct {
	Event           string    `json:"event"`
	ShipmentID      string    `json:"shipment_id"`
	TrackingID      string    `json:"tracking_id"`
	ClientID        string    `json:"client_id"`
	DestinationCode string    `json:"destination_code"`
	FinalPrice      float64   `json:"final_price"`
	Currency        string    `json:"currency"`
	ChargeableKg    float64   `json:"chargeable_weight_kg"`
	BookedAt        time.Time `json:"booked_at"`
}

// KafkaPublisher implements ports.EventPublisher on a kafka topic. Messages
// are keyed by tracking id.
type KafkaPublisher struct {
	writer Writer
}

// NewKafkaPublisher returns a publisher writing to topic on brokers.
func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	return &KafkaPublisher{writer: &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
		BatchTimeout:           batchTimeout,
		WriteTimeout:           5 * time.Second,
	}}
}

// NewKafkaPublisherWithWriter allows injecting a test writer.
func NewKafkaPublisherWithWriter(w Writer) *KafkaPublisher {
	return &KafkaPublisher{writer: w}
}

func (p *KafkaPublisher) PublishBooked(ctx context.Context, s *domain.Shipment) error {
	b, err := json.Marshal(BookedEvent{
		Event:           EventShipmentBooked,
		ShipmentID:      s.ID,
		TrackingID:      s.TrackingID,
		ClientID:        s.ClientID,
		DestinationCode: s.DestinationCode,
		FinalPrice:      s.FinalPrice,
		Currency:        s.Currency,
		ChargeableKg:    s.ChargeableWeightKg,
		BookedAt:        s.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("publish booked: marshal: %w", err)
	}

	msg := kafka.Message{
		Key:     []byte(s.TrackingID),
		Value:   b,
		Headers: []kafka.Header{{Key: "event", Value: []byte(EventShipmentBooked)}},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish booked %s: %w", s.TrackingID, err)
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
