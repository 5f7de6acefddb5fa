package kafkaad

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"

	"restaurant_finder/internal/adapters/observability"
	"restaurant_finder/internal/domain"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Publisher emits review_added events keyed by restaurant ID so that all
// events for one restaurant land on the same partition.
type Publisher struct {
	w     messageWriter
	topic string
}

func NewWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		BatchTimeout: 10 * time.Millisecond,
	}
}

func New(brokers []string, topic string) *Publisher {
	return &Publisher{w: NewWriter(brokers, topic), topic: topic}
}

func newWithWriter(w messageWriter, topic string) *Publisher {
	return &Publisher{w: w, topic: topic}
}

func (p *Publisher) PublishReviewAdded(ctx context.Context, ev domain.ReviewAdded) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	err = p.w.WriteMessages(ctx, kafka.Message{
		Key:   []byte(strconv.FormatInt(ev.RestaurantID, 10)),
		Value: payload,
		Time:  ev.Timestamp,
	})
	observability.ObserveEvent(p.topic, err)
	return err
}

func (p *Publisher) Close() error { return p.w.Close() }
