package events

import (
	"context"
	"fmt"
	"time"

	"curaconnect_backend/internal/logger"

	"github.com/segmentio/kafka-go"
)

// Message - событие из outbox, готовое к публикации
type Message struct {
	Topic string
	Key   string
	Type  string
	Value []byte
}

// Publisher публикует события во внешний брокер
type Publisher interface {
	Publish(ctx context.Context, messages ...Message) error
	Close() error
}

// KafkaPublisher пишет события в Kafka.
// Topic у writer не задан: каждое сообщение несет свой топик из outbox.
type KafkaPublisher struct {
	writer  *kafka.Writer
	timeout time.Duration
}

func NewKafkaPublisher(brokers []string) (*KafkaPublisher, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("kafka: at least one broker is required")
	}

	writer := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Balancer:               &kafka.LeastBytes{},
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: true,
	}

	return &KafkaPublisher{writer: writer, timeout: 10 * time.Second}, nil
}

func (p *KafkaPublisher) Publish(ctx context.Context, messages ...Message) error {
	if len(messages) == 0 {
		return nil
	}

	batch := make([]kafka.Message, 0, len(messages))
	for _, m := range messages {
		batch = append(batch, kafka.Message{
			Topic: m.Topic,
			Key:   []byte(m.Key),
			Value: m.Value,
			Headers: []kafka.Header{
				{Key: "event_type", Value: []byte(m.Type)},
			},
		})
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	if err := p.writer.WriteMessages(ctx, batch...); err != nil {
		return fmt.Errorf("kafka: write messages: %w", err)
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// LogPublisher используется, когда Kafka выключена: события только логируются
type LogPublisher struct{}

func NewLogPublisher() *LogPublisher {
	return &LogPublisher{}
}

func (p *LogPublisher) Publish(ctx context.Context, messages ...Message) error {
	for _, m := range messages {
		logger.CtxDebug(ctx, "Outbox event published (log only)",
			"topic", m.Topic,
			"key", m.Key,
			"type", m.Type,
			"size_bytes", len(m.Value),
		)
	}
	return nil
}

func (p *LogPublisher) Close() error { return nil }
