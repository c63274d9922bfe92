package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"checkout-service/internal/infra"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// Writer is the subset of *kafka.Writer the publisher uses.
type Writer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

var (
	_ Writer                   = (*kafka.Writer)(nil)
	_ infra.PublisherInterface = (*Publisher)(nil)
)

func NewWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		BatchTimeout: 10 * time.Millisecond,
	}
}

// Publisher writes events to a single topic keyed by order id so all events
// of one order land on the same partition.
type Publisher struct {
	writer Writer
	log    *zap.Logger
}

func NewPublisher(w Writer, log *zap.Logger) *Publisher {
	return &Publisher{writer: w, log: log}
}

func (p *Publisher) Publish(ctx context.Context, eventType string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	key := eventType
	if k, ok := data.(infra.Keyed); ok {
		key = k.PartitionKey()
	}

	msg := kafka.Message{
		Key:   []byte(key),
		Value: payload,
		Time:  time.Now().UTC(),
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(eventType)},
			{Key: "event_id", Value: []byte(uuid.NewString())},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to write %s: %w", eventType, err)
	}
	p.log.Debug("event written", zap.String("event_type", eventType), zap.String("key", key))
	return nil
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}
