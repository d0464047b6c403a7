package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
)

// KafkaViewTracker publishes one event per watch, keyed by offering id so a
// consumer sees an offering's views in order.
type KafkaViewTracker struct {
	writer *kafka.Writer
	topic  string
}

func NewKafkaViewTracker(brokers []string, topic string) (*KafkaViewTracker, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("kafka view tracker requires at least one broker")
	}
	if topic == "" {
		topic = EventOfferingViewed
	}
	return &KafkaViewTracker{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			RequiredAcks: kafka.RequireAll,
			Balancer:     &kafka.Hash{},
			BatchTimeout: 50 * time.Millisecond,
		},
		topic: topic,
	}, nil
}

func (t *KafkaViewTracker) Increment(ctx context.Context, offeringID string) error {
	payload, err := json.Marshal(newViewEvent(offeringID, time.Now()))
	if err != nil {
		return err
	}
	return t.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(offeringID),
		Value: payload,
		Time:  time.Now().UTC(),
	})
}

func (t *KafkaViewTracker) Close() error {
	return t.writer.Close()
}
