package repositories

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// OutboxEvent is a pending or dispatched notification row.
type OutboxEvent struct {
	ID           int        `db:"id"`
	ChatID       int        `db:"chat_id"`
	Event        string     `db:"event"`
	Payload      []byte     `db:"payload"`
	CreatedAt    time.Time  `db:"created_at"`
	DispatchedAt *time.Time `db:"dispatched_at"`
}

// OutboxRepository is the durable queue of pending notifications, decoupled
// from the request that produced them.
type OutboxRepository interface {
	Enqueue(ctx context.Context, chatID int, event string, payload []byte) error
	FetchPending(ctx context.Context, limit int) ([]OutboxEvent, error)
	MarkDispatched(ctx context.Context, ids []int) error
}

// OutboxRepo is a sqlx implementation of OutboxRepository.
type OutboxRepo struct {
	db *sqlx.DB
}

// NewOutboxRepo constructs an OutboxRepo.
func NewOutboxRepo(db *sqlx.DB) *OutboxRepo {
	return &OutboxRepo{db: db}
}

// Enqueue stores a notification for the dispatcher to pick up.
func (r *OutboxRepo) Enqueue(ctx context.Context, chatID int, event string, payload []byte) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO message_outbox (chat_id, event, payload) VALUES ($1, $2, $3)`, chatID, event, payload)
	return err
}

// FetchPending returns up to limit undispatched events in insertion order.
func (r *OutboxRepo) FetchPending(ctx context.Context, limit int) ([]OutboxEvent, error) {
	var events []OutboxEvent
	err := r.db.SelectContext(ctx, &events, `SELECT id, chat_id, event, payload, created_at, dispatched_at FROM message_outbox WHERE dispatched_at IS NULL ORDER BY id LIMIT $1`, limit)
	return events, err
}

// MarkDispatched stamps the given events as delivered to the sinks.
func (r *OutboxRepo) MarkDispatched(ctx context.Context, ids []int) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := r.db.ExecContext(ctx, `UPDATE message_outbox SET dispatched_at=NOW() WHERE id = ANY($1)`, pq.Array(ids))
	return err
}
