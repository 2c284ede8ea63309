package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	kafkago "github.com/segmentio/kafka-go"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// KafkaNotifier produces messages to a Kafka topic.
type KafkaNotifier struct {
	writer messageWriter
}

// NewKafkaNotifier creates a Kafka producer for topic.
func NewKafkaNotifier(brokers []string, topic string) *KafkaNotifier {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &KafkaNotifier{writer: w}
}

func (n *KafkaNotifier) Notify(ctx context.Context, msg Message) error {
	m, err := serializeToMessage(msg)
	if err != nil {
		return err
	}
	return n.writer.WriteMessages(ctx, m)
}

func (n *KafkaNotifier) Close() error {
	return n.writer.Close()
}

// serializeToMessage marshals a notification into a Kafka message keyed by
// prediction ID, or by kind when there is no prediction.
func serializeToMessage(msg Message) (kafkago.Message, error) {
	data, err := json.Marshal(msg)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize notification: %w", err)
	}
	key := string(msg.Kind)
	headers := []kafkago.Header{
		{Key: "kind", Value: []byte(msg.Kind)},
		{Key: "sent_at", Value: []byte(msg.SentAt.Format(time.RFC3339))},
	}
	if msg.Prediction != nil {
		key = msg.Prediction.ID
		headers = append(headers, kafkago.Header{Key: "period", Value: []byte(msg.Prediction.Period)})
	}
	return kafkago.Message{
		Key:     []byte(key),
		Value:   data,
		Headers: headers,
	}, nil
}
