package notify

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"chat-stream-service/internal/observability"
	"chat-stream-service/internal/repositories"
)

// BroadcastSink fans an event out to the live subscribers of a chat channel.
type BroadcastSink interface {
	Broadcast(chatID int, payload []byte)
}

// BusSink forwards an event to the shared platform event bus.
type BusSink interface {
	Publish(ctx context.Context, key string, value []byte) error
}

// Dispatcher drains the outbox and delivers pending events to the sinks. An
// event stays pending when the bus rejects it and is retried on a later tick;
// websocket fan-out is at-most-once and never blocks a row.
type Dispatcher struct {
	outbox    repositories.OutboxRepository
	broadcast BroadcastSink
	bus       BusSink
	interval  time.Duration
	batch     int
	logger    *slog.Logger
}

// NewDispatcher constructs a Dispatcher. bus may be nil when no event bus is
// configured.
func NewDispatcher(outbox repositories.OutboxRepository, broadcast BroadcastSink, bus BusSink, interval time.Duration, batch int, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		outbox:    outbox,
		broadcast: broadcast,
		bus:       bus,
		interval:  interval,
		batch:     batch,
		logger:    logger,
	}
}

// Run drains the outbox on every tick until the context is cancelled.
func (d *Dispatcher) Run(ctx context.Context) {
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := d.Tick(ctx); err != nil {
				d.logger.Error("outbox tick", "err", err)
			}
		}
	}
}

// Tick processes one batch of pending events.
func (d *Dispatcher) Tick(ctx context.Context) error {
	events, err := d.outbox.FetchPending(ctx, d.batch)
	if err != nil {
		return err
	}

	dispatched := make([]int, 0, len(events))
	for _, ev := range events {
		if d.bus != nil {
			if err := d.bus.Publish(ctx, strconv.Itoa(ev.ChatID), ev.Payload); err != nil {
				d.logger.Warn("bus publish", "event", ev.Event, "chat_id", ev.ChatID, "err", err)
				observability.IncOutboxFailure("bus")
				continue
			}
		}
		d.broadcast.Broadcast(ev.ChatID, ev.Payload)
		dispatched = append(dispatched, ev.ID)
		observability.IncOutboxDispatched()
	}

	return d.outbox.MarkDispatched(ctx, dispatched)
}
