package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dan13ram/xbridge-engine/common"
	"github.com/dan13ram/xbridge-engine/models"
	"github.com/segmentio/kafka-go"
)

// MessageWriter is the subset of *kafka.Writer the channel needs.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaChannel publishes notifications keyed by transaction id, so every
// event of one transfer lands on the same partition in order.
type KafkaChannel struct {
	writer MessageWriter
	topic  string
}

func NewKafkaChannel(config models.KafkaConfig) (*KafkaChannel, error) {
	if len(config.Brokers) == 0 {
		return nil, fmt.Errorf("kafka brokers are required")
	}
	topic := config.Topic
	if topic == "" {
		topic = "xbridge-notifications"
	}
	writer := &kafka.Writer{
		Addr:         kafka.TCP(config.Brokers...),
		Balancer:     &kafka.Hash{},
		BatchTimeout: 50 * time.Millisecond,
		RequiredAcks: kafka.RequireOne,
	}
	return NewKafkaChannelWithWriter(writer, topic), nil
}

func NewKafkaChannelWithWriter(writer MessageWriter, topic string) *KafkaChannel {
	return &KafkaChannel{writer: writer, topic: topic}
}

func (c *KafkaChannel) Deliver(ctx context.Context, target string, n models.Notification) error {
	topic := target
	if topic == "" {
		topic = c.topic
	}

	payload, err := json.Marshal(n)
	if err != nil {
		return err
	}

	err = c.writer.WriteMessages(ctx, kafka.Message{
		Topic: topic,
		Key:   []byte(n.Transaction.Id),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(n.EventType)},
			{Key: "recipient", Value: []byte(n.Recipient)},
		},
	})
	if err != nil {
		return fmt.Errorf("%w: %w", common.ErrDelivery, err)
	}
	return nil
}

func (c *KafkaChannel) Close() error {
	return c.writer.Close()
}
