package notify

import (
	"context"
	"encoding/json"
	"log/slog"

	"chat-stream-service/internal/models"
	"chat-stream-service/internal/observability"
	"chat-stream-service/internal/repositories"
)

// Notifier publishes domain events onto per-chat channels. Failures are
// logged and swallowed: the state change that triggered the notification has
// already committed, and clients reconcile over the list API on reconnect.
type Notifier interface {
	MessageCreated(ctx context.Context, msg models.Message)
	StatusChanged(ctx context.Context, msg models.Message)
}

// OutboxNotifier enqueues events to the durable outbox instead of publishing
// inline, so a transport outage never adds latency to the request path.
type OutboxNotifier struct {
	outbox repositories.OutboxRepository
	logger *slog.Logger
}

// NewOutboxNotifier constructs an OutboxNotifier.
func NewOutboxNotifier(outbox repositories.OutboxRepository, logger *slog.Logger) *OutboxNotifier {
	return &OutboxNotifier{outbox: outbox, logger: logger}
}

// MessageCreated enqueues the full message projection for the chat channel.
func (n *OutboxNotifier) MessageCreated(ctx context.Context, msg models.Message) {
	n.enqueue(ctx, msg.ChatID, models.EventMessageSent, models.NewMessageSentEvent(msg))
}

// StatusChanged enqueues the reduced status projection for the chat channel.
func (n *OutboxNotifier) StatusChanged(ctx context.Context, msg models.Message) {
	n.enqueue(ctx, msg.ChatID, models.EventMessageStatusUpdated, models.NewMessageStatusUpdatedEvent(msg))
}

func (n *OutboxNotifier) enqueue(ctx context.Context, chatID int, event string, projection any) {
	payload, err := json.Marshal(models.EventEnvelope{Event: event, Data: models.EventData{Message: projection}})
	if err != nil {
		n.logger.Error("encode event", "event", event, "chat_id", chatID, "err", err)
		return
	}
	if err := n.outbox.Enqueue(ctx, chatID, event, payload); err != nil {
		n.logger.Error("enqueue event", "event", event, "chat_id", chatID, "err", err)
		observability.IncOutboxFailure("outbox")
		return
	}
	observability.IncOutboxEnqueued(event)
}
