// Package events publishes SearchCompleted events to Kafka.
package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"

	"pieza-web/internal/logging"
	"pieza-web/internal/model"
)

const DefaultTopic = "pieza.search.completed"

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher sends one message per finished search, keyed by session id so a
// session's events stay ordered within a partition.
type KafkaPublisher struct {
	w      messageWriter
	logger *slog.Logger
}

// NewKafkaPublisher builds an async producer for broker/topic.
func NewKafkaPublisher(broker, topic string, logger *slog.Logger) *KafkaPublisher {
	if topic == "" {
		topic = DefaultTopic
	}
	logger = logging.OrDiscard(logger)
	w := &kafka.Writer{
		Addr:         kafka.TCP(broker),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireOne,
		Async:        true,
		Completion: func(msgs []kafka.Message, err error) {
			if err != nil {
				logger.Warn("kafka delivery failed", "topic", topic, "messages", len(msgs), "error", err)
			}
		},
	}
	return newPublisher(w, logger)
}

func newPublisher(w messageWriter, logger *slog.Logger) *KafkaPublisher {
	return &KafkaPublisher{w: w, logger: logging.OrDiscard(logger)}
}

// Publish encodes and enqueues evt.
func (p *KafkaPublisher) Publish(ctx context.Context, evt model.SearchCompleted) error {
	data, err := json.Marshal(evt)
	if err != nil {
		return err
	}
	msg := kafka.Message{
		Key:   []byte(evt.SessionID),
		Value: data,
		Time:  time.Now(),
	}
	return p.w.WriteMessages(ctx, msg)
}

// Observe publishes evt and logs failures; it never blocks the session.
func (p *KafkaPublisher) Observe(ctx context.Context, evt model.SearchCompleted) {
	if err := p.Publish(context.WithoutCancel(ctx), evt); err != nil {
		p.logger.Warn("failed to publish search event", "session", evt.SessionID, "error", err)
	}
}

// Close flushes pending messages.
func (p *KafkaPublisher) Close() error {
	return p.w.Close()
}
