package kafka

import (
	"context"
	"strings"
	"time"

	k "github.com/segmentio/kafka-go"
)

// Writer publishes chat events to the shared platform event bus.
type Writer struct {
	w *k.Writer
}

// NewWriter builds a writer for the given brokers and topic, or nil when no
// brokers are configured.
func NewWriter(brokers, topic string) *Writer {
	if brokers == "" {
		return nil
	}
	w := &k.Writer{
		Addr:         k.TCP(strings.Split(brokers, ",")...),
		Topic:        topic,
		Balancer:     &k.LeastBytes{},
		BatchTimeout: 50 * time.Millisecond,
		RequiredAcks: k.RequireOne,
	}
	return &Writer{w: w}
}

// Publish writes one event keyed by chat so per-chat ordering is preserved.
func (w *Writer) Publish(ctx context.Context, key string, value []byte) error {
	return w.w.WriteMessages(ctx, k.Message{
		Key:   []byte(key),
		Value: value,
		Time:  time.Now(),
	})
}

func (w *Writer) Close() error { return w.w.Close() }
