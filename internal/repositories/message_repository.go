package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"chat-stream-service/internal/models"
)

var ErrMessageNotFound = errors.New("message not found")

// NewAttachment carries the already-stored file metadata for one attachment of
// a message being created.
type NewAttachment struct {
	Kind        string
	StorageKey  string
	URL         string
	FileName    string
	ContentType string
	Size        int64
}

// MessageRepository owns message persistence and the delivery-status
// transitions.
type MessageRepository interface {
	CreateMessage(ctx context.Context, chatID int, senderID int, content string, attachments []NewAttachment) (models.Message, error)
	GetMessage(ctx context.Context, messageID int) (models.Message, error)
	MarkRead(ctx context.Context, messageID int, callerID int) (models.Message, bool, error)
	ListMessages(ctx context.Context, chatID int, limit int, beforeID int, search string) ([]models.Message, error)
	CountMatching(ctx context.Context, chatID int, search string) (int, error)
}

// MessageRepo is a sqlx-backed implementation.
type MessageRepo struct {
	db *sqlx.DB
}

// NewMessageRepo constructs a MessageRepo.
func NewMessageRepo(db *sqlx.DB) *MessageRepo {
	return &MessageRepo{db: db}
}

const messageColumns = `id, chat_id, sender_id, content, status, sent_at, delivered_at, read_at`

// CreateMessage inserts the message row with status=sent and its attachments
// in one transaction. A failed attachment insert rolls back the whole message.
func (r *MessageRepo) CreateMessage(ctx context.Context, chatID int, senderID int, content string, attachments []NewAttachment) (models.Message, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return models.Message{}, err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	var msg models.Message
	if err = tx.QueryRowxContext(ctx, `INSERT INTO messages (chat_id, sender_id, content, status, sent_at) VALUES ($1, $2, $3, 'sent', NOW()) RETURNING `+messageColumns, chatID, senderID, content).
		StructScan(&msg); err != nil {
		return models.Message{}, err
	}

	for _, att := range attachments {
		var stored models.Attachment
		if err = tx.QueryRowxContext(ctx, `INSERT INTO message_attachments (message_id, kind, storage_key, url, file_name, content_type, size_bytes)
            VALUES ($1, $2, $3, $4, $5, $6, $7)
            RETURNING id, message_id, kind, storage_key, url, file_name, content_type, size_bytes`,
			msg.ID, att.Kind, att.StorageKey, att.URL, att.FileName, att.ContentType, att.Size).
			StructScan(&stored); err != nil {
			return models.Message{}, err
		}
		msg.Attachments = append(msg.Attachments, stored)
	}

	if err = tx.Commit(); err != nil {
		return models.Message{}, err
	}
	return msg, nil
}

// GetMessage retrieves a single message with its attachments.
func (r *MessageRepo) GetMessage(ctx context.Context, messageID int) (models.Message, error) {
	var msg models.Message
	err := r.db.GetContext(ctx, &msg, `SELECT `+messageColumns+` FROM messages WHERE id=$1`, messageID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Message{}, ErrMessageNotFound
	}
	if err != nil {
		return models.Message{}, err
	}

	if err := r.db.SelectContext(ctx, &msg.Attachments, `SELECT id, message_id, kind, storage_key, url, file_name, content_type, size_bytes FROM message_attachments WHERE message_id=$1 ORDER BY id`, messageID); err != nil {
		return models.Message{}, err
	}
	return msg, nil
}

// MarkRead transitions a message to read. The guard and the write are one
// statement so that concurrent read-acks on the same message result in exactly
// one reported change: the sender's own messages and already-read messages
// leave the row untouched and report changed=false.
func (r *MessageRepo) MarkRead(ctx context.Context, messageID int, callerID int) (models.Message, bool, error) {
	var msg models.Message
	err := r.db.QueryRowxContext(ctx, `UPDATE messages SET status='read', read_at=NOW()
        WHERE id=$1 AND sender_id<>$2 AND status<>'read'
        RETURNING `+messageColumns, messageID, callerID).
		StructScan(&msg)
	if err == nil {
		return msg, true, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return models.Message{}, false, err
	}

	// No row updated: either the message does not exist, the caller is the
	// sender, or it is already read. Return the current row unchanged.
	msg, err = r.GetMessage(ctx, messageID)
	if err != nil {
		return models.Message{}, false, err
	}
	return msg, false, nil
}

// ListMessages returns up to limit messages of a chat, newest first, strictly
// older than beforeID when beforeID > 0. With a search term, matching is a
// case-insensitive substring match and exact full-string matches rank above
// partial ones; within each tier newest sent_at wins. Attachments are loaded
// in one batch.
func (r *MessageRepo) ListMessages(ctx context.Context, chatID int, limit int, beforeID int, search string) ([]models.Message, error) {
	var msgs []models.Message
	var err error
	if search == "" {
		err = r.db.SelectContext(ctx, &msgs, `SELECT `+messageColumns+` FROM messages
            WHERE chat_id=$1 AND ($2 = 0 OR id < $2)
            ORDER BY sent_at DESC, id DESC
            LIMIT $3`, chatID, beforeID, limit)
	} else {
		err = r.db.SelectContext(ctx, &msgs, `SELECT `+messageColumns+` FROM messages
            WHERE chat_id=$1 AND ($2 = 0 OR id < $2) AND content ILIKE '%' || $4 || '%'
            ORDER BY (LOWER(content) = LOWER($4)) DESC, sent_at DESC, id DESC
            LIMIT $3`, chatID, beforeID, limit, search)
	}
	if err != nil {
		return nil, err
	}
	if len(msgs) == 0 {
		return msgs, nil
	}

	ids := make([]int, 0, len(msgs))
	for _, m := range msgs {
		ids = append(ids, m.ID)
	}

	var atts []models.Attachment
	if err := r.db.SelectContext(ctx, &atts, `SELECT id, message_id, kind, storage_key, url, file_name, content_type, size_bytes FROM message_attachments WHERE message_id = ANY($1) ORDER BY id`, pq.Array(ids)); err != nil {
		return nil, err
	}

	byMessage := make(map[int][]models.Attachment, len(msgs))
	for _, att := range atts {
		byMessage[att.MessageID] = append(byMessage[att.MessageID], att)
	}
	for i := range msgs {
		msgs[i].Attachments = byMessage[msgs[i].ID]
	}
	return msgs, nil
}

// CountMatching returns the total number of messages in the chat matching the
// search term. Computed once per list request, never cached.
func (r *MessageRepo) CountMatching(ctx context.Context, chatID int, search string) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM messages WHERE chat_id=$1 AND content ILIKE '%' || $2 || '%'`, chatID, search)
	return count, err
}
